package web

import (
	"github.com/brewprint/brewprint/pkg/models"
	"github.com/brewprint/brewprint/pkg/services"
)

// CreateRecipeRequest is the payload for creating a recipe from scratch.
type CreateRecipeRequest struct {
	UserID      string                `json:"user_id"     validate:"required"`
	Name        string                `json:"name"        validate:"required,min=1"`
	Description string                `json:"description"`
	Method      models.BrewMethod     `json:"method"      validate:"required"`
	Parameters  models.BrewParameters `json:"parameters"  validate:"required"`
	Steps       []models.Step         `json:"steps"`
	BeanID      *string               `json:"bean_id,omitempty"`
	GrinderID   *string               `json:"grinder_id,omitempty"`
	BrewerID    *string               `json:"brewer_id,omitempty"`

	WaterProfileID *string             `json:"water_profile_id,omitempty"`
	TargetMetrics  *models.BrewMetrics `json:"target_metrics,omitempty"`
}

// BranchRequest is the payload for branching a recipe into a new iteration.
type BranchRequest struct {
	Overrides services.BranchOverrides `json:"overrides"`
}

// RecordResultRequest is the payload for recording a brew outcome.
type RecordResultRequest struct {
	services.Observation
}
