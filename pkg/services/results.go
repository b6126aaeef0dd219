package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/brewprint/brewprint/pkg/models"
	"github.com/brewprint/brewprint/pkg/persistence"
)

// finalRatingThreshold is the rating at which a recorded brew promotes a
// recipe to final.
const finalRatingThreshold = 4

// Observation is one recorded brew outcome.
type Observation struct {
	ActualParameters models.BrewParameters `json:"actual_parameters" validate:"required"`
	ActualMetrics    *models.BrewMetrics   `json:"actual_metrics,omitempty"`
	Rating           int                   `json:"rating"            validate:"required,min=1,max=5"`
	TastingNotes     string                `json:"tasting_notes,omitempty"`
	BrewingNotes     string                `json:"brewing_notes,omitempty"`
	BrewedAt         *time.Time            `json:"brewed_at,omitempty"`
}

// Results applies brew observations to recipes and decides lifecycle
// transitions.
type Results struct {
	store    persistence.Store
	validate *validator.Validate
}

// NewResults creates a new result recording service.
func NewResults(store persistence.Store) *Results {
	return &Results{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Record persists an observation and the lifecycle status it implies. The
// transition is a function of the rating alone: a rating of 4 or 5 promotes
// to final, anything lower lands back in experimenting, regardless of the
// recipe's prior status. Recording a result is a stronger signal than
// archival, so an archived recipe can be resurrected this way.
func (r *Results) Record(ctx context.Context, recipeID string, obs Observation) (*models.Recipe, error) {
	if obs.Rating < 1 || obs.Rating > 5 {
		return nil, NewValidationError(
			"Record",
			"INVALID_RATING",
			fmt.Sprintf("rating %d is out of range", obs.Rating),
			ErrInvalidRating,
		)
	}

	if err := r.validate.Struct(obs); err != nil {
		return nil, NewValidationError("Record", "INVALID_OBSERVATION", err.Error(), ErrInvalidRequest)
	}

	status := models.RecipeStatusExperimenting
	if obs.Rating >= finalRatingThreshold {
		status = models.RecipeStatusFinal
	}

	brewedAt := time.Now().UTC()
	if obs.BrewedAt != nil {
		brewedAt = obs.BrewedAt.UTC()
	}

	params, err := persistence.Encode(obs.ActualParameters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode observation: %w", err)
	}

	fields := persistence.Document{
		"actual_parameters": params,
		"rating":            obs.Rating,
		"tasting_notes":     obs.TastingNotes,
		"brewing_notes":     obs.BrewingNotes,
		"brewed_at":         brewedAt.Format(time.RFC3339Nano),
		"status":            string(status),
	}

	if obs.ActualMetrics != nil {
		metrics, err := persistence.Encode(obs.ActualMetrics)
		if err != nil {
			return nil, fmt.Errorf("failed to encode observation: %w", err)
		}

		fields["actual_metrics"] = metrics
	}

	updated, err := r.store.UpdateByID(ctx, persistence.CollectionRecipes, recipeID, fields)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, recipeID)
		}

		return nil, fmt.Errorf("failed to record result: %w", err)
	}

	return persistence.Decode[models.Recipe](updated)
}

// MarkFinal forces a recipe to final, bypassing the rating rule. Idempotent.
func (r *Results) MarkFinal(ctx context.Context, recipeID string) (*models.Recipe, error) {
	return r.setStatus(ctx, recipeID, models.RecipeStatusFinal)
}

// Archive retires a recipe. Idempotent; the recipe is never hard-deleted.
func (r *Results) Archive(ctx context.Context, recipeID string) (*models.Recipe, error) {
	return r.setStatus(ctx, recipeID, models.RecipeStatusArchived)
}

func (r *Results) setStatus(ctx context.Context, recipeID string, status models.RecipeStatus) (*models.Recipe, error) {
	updated, err := r.store.UpdateByID(ctx, persistence.CollectionRecipes, recipeID, persistence.Document{
		"status": string(status),
	})
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, recipeID)
		}

		return nil, fmt.Errorf("failed to update status: %w", err)
	}

	return persistence.Decode[models.Recipe](updated)
}
