// Package models defines the core domain models for recipe versioning and backup.
package models

import "time"

// RecipeStatus represents the lifecycle state of a recipe.
type RecipeStatus string

const (
	RecipeStatusExperimenting RecipeStatus = "experimenting" // Active iteration line
	RecipeStatusFinal         RecipeStatus = "final"         // Dialed in, rating >= 4 or user override
	RecipeStatusArchived      RecipeStatus = "archived"      // Retired, kept for history
)

// BrewMethod identifies the brewing technique a recipe targets.
type BrewMethod string

const (
	BrewMethodV60         BrewMethod = "v60"
	BrewMethodChemex      BrewMethod = "chemex"
	BrewMethodAeropress   BrewMethod = "aeropress"
	BrewMethodFrenchPress BrewMethod = "french_press"
	BrewMethodEspresso    BrewMethod = "espresso"
	BrewMethodMoka        BrewMethod = "moka"
	BrewMethodColdBrew    BrewMethod = "cold_brew"
	BrewMethodOther       BrewMethod = "other"
)

// BrewParameters holds the measurable inputs of a brew, either targeted or observed.
type BrewParameters struct {
	DoseGrams    float64 `json:"dose_grams"            validate:"required,gt=0"`
	WaterGrams   float64 `json:"water_grams"           validate:"required,gt=0"`
	TemperatureC float64 `json:"temperature_c"         validate:"required,gt=0"`
	GrindSetting string  `json:"grind_setting,omitempty"`
	BloomTimeSec int     `json:"bloom_time_sec,omitempty"`
	TotalTimeSec int     `json:"total_time_sec,omitempty"`
}

// BrewMetrics holds extraction measurements for a brew.
type BrewMetrics struct {
	TDS        float64 `json:"tds,omitempty"`
	Extraction float64 `json:"extraction,omitempty"`
}

// Step is one ordered instruction within a recipe.
type Step struct {
	Order        int      `json:"order"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	DurationSec  int      `json:"duration_sec,omitempty"`
	WaterGrams   float64  `json:"water_grams,omitempty"`
	Technique    string   `json:"technique,omitempty"`
	TemperatureC *float64 `json:"temperature_c,omitempty"` // Overrides the recipe temperature for this step
}

// Recipe is the versioned brewing procedure at the center of the domain.
//
// ParentID is a plain self-referential id, never an embedded pointer; children
// are only ever created from an existing recipe so cycles cannot form. Deleting
// a recipe leaves its children's ParentID dangling on purpose.
type Recipe struct {
	ID          string         `json:"id"`
	UserID      string         `json:"user_id"     validate:"required"`
	Name        string         `json:"name"        validate:"required,min=1"`
	Description string         `json:"description,omitempty"`
	Method      BrewMethod     `json:"method"      validate:"required"`
	Parameters  BrewParameters `json:"parameters"`
	Steps       []Step         `json:"steps"`

	TargetMetrics    *BrewMetrics    `json:"target_metrics,omitempty"`
	ActualParameters *BrewParameters `json:"actual_parameters,omitempty"` // Set once a result is recorded
	ActualMetrics    *BrewMetrics    `json:"actual_metrics,omitempty"`

	Rating       *int   `json:"rating,omitempty" validate:"omitempty,min=1,max=5"`
	TastingNotes string `json:"tasting_notes,omitempty"`
	BrewingNotes string `json:"brewing_notes,omitempty"`

	Status       RecipeStatus `json:"status"`
	ParentID     *string      `json:"parent_id,omitempty"`
	Version      string       `json:"version"`
	VersionNotes string       `json:"version_notes,omitempty"`

	BeanID         *string `json:"bean_id,omitempty"`
	GrinderID      *string `json:"grinder_id,omitempty"`
	BrewerID       *string `json:"brewer_id,omitempty"`
	WaterProfileID *string `json:"water_profile_id,omitempty"`

	BrewedAt  *time.Time `json:"brewed_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// DefaultVersion is the version label assigned to a freshly created recipe.
const DefaultVersion = "v1"
