package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/brewprint/brewprint/pkg/models"
	"github.com/brewprint/brewprint/pkg/persistence"
)

// Library is the thin CRUD surface over recipes. Create and delete forward
// almost directly to the store; versioning semantics live in Versioning and
// Results.
type Library struct {
	store persistence.Store
}

// NewLibrary creates a new recipe library service.
func NewLibrary(store persistence.Store) *Library {
	return &Library{store: store}
}

// HealthCheck checks the health of the persistence layer.
func (l *Library) HealthCheck(ctx context.Context) error {
	return l.store.HealthCheck(ctx)
}

// Create adds a new recipe. Fresh recipes start at version "v1" in
// experimenting status unless the caller says otherwise.
func (l *Library) Create(ctx context.Context, recipe *models.Recipe) (*models.Recipe, error) {
	if strings.TrimSpace(recipe.Name) == "" {
		return nil, NewValidationError("Create", "NAME_REQUIRED", "recipe name is required", ErrRecipeNameRequired)
	}

	if strings.TrimSpace(recipe.UserID) == "" {
		return nil, NewValidationError("Create", "EMPTY_OWNER", "owner ID is required", ErrEmptyOwnerID)
	}

	if recipe.Status == "" {
		recipe.Status = models.RecipeStatusExperimenting
	}

	if recipe.Version == "" {
		recipe.Version = models.DefaultVersion
	}

	doc, err := persistence.Encode(recipe)
	if err != nil {
		return nil, fmt.Errorf("failed to encode recipe: %w", err)
	}

	inserted, err := l.store.Insert(ctx, persistence.CollectionRecipes, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to create recipe: %w", err)
	}

	return persistence.Decode[models.Recipe](inserted)
}

// FetchByID retrieves a recipe by its ID.
func (l *Library) FetchByID(ctx context.Context, id string) (*models.Recipe, error) {
	doc, err := l.store.GetByID(ctx, persistence.CollectionRecipes, id)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
		}

		return nil, err
	}

	return persistence.Decode[models.Recipe](doc)
}

// Update merges a partial document into an existing recipe. Identity,
// ownership and lineage fields are not patchable through this surface.
func (l *Library) Update(ctx context.Context, id string, patch persistence.Document) (*models.Recipe, error) {
	fields := patch.Clone()
	for _, protected := range []string{"id", "user_id", "parent_id", "created_at", "updated_at"} {
		delete(fields, protected)
	}

	updated, err := l.store.UpdateByID(ctx, persistence.CollectionRecipes, id, fields)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
		}

		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}

	return persistence.Decode[models.Recipe](updated)
}

// Delete removes a recipe outright. No cascade runs: children of the deleted
// recipe keep their parent reference, dangling. The product treats that as
// acceptable for a single-user library, so it is reproduced here rather than
// papered over.
func (l *Library) Delete(ctx context.Context, id string) error {
	if _, err := l.store.GetByID(ctx, persistence.CollectionRecipes, id); err != nil {
		if persistence.IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrRecipeNotFound, id)
		}

		return err
	}

	return l.store.DeleteByID(ctx, persistence.CollectionRecipes, id)
}

// ListRequest contains options for listing recipes.
type ListRequest struct {
	OwnerID string
	Status  *models.RecipeStatus

	SortBy    string
	SortOrder string

	Limit  int
	Offset int
}

// ListResponse contains the result of listing recipes.
type ListResponse struct {
	Recipes     []*models.Recipe `json:"recipes"`
	TotalCount  int              `json:"total_count"`
	HasNextPage bool             `json:"has_next_page"`
}

var allowedSortFields = []string{"created_at", "updated_at", "name"}

// List retrieves recipes with filtering, sorting, and pagination.
func (l *Library) List(ctx context.Context, req ListRequest) (*ListResponse, error) {
	if err := l.validateListRequest(&req); err != nil {
		return nil, err
	}

	filter := persistence.Filter{}
	if req.OwnerID != "" {
		filter["user_id"] = req.OwnerID
	}

	if req.Status != nil {
		filter["status"] = string(*req.Status)
	}

	docs, err := l.store.Query(ctx, persistence.CollectionRecipes, filter, persistence.Order{
		Field: req.SortBy,
		Desc:  req.SortOrder == "desc",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}

	total := len(docs)

	start := req.Offset
	if start > total {
		start = total
	}

	end := start + req.Limit
	if end > total {
		end = total
	}

	recipes, err := persistence.DecodeAll[models.Recipe](docs[start:end])
	if err != nil {
		return nil, err
	}

	return &ListResponse{
		Recipes:     recipes,
		TotalCount:  total,
		HasNextPage: end < total,
	}, nil
}

// validateListRequest validates and sets defaults for the request.
func (l *Library) validateListRequest(req *ListRequest) error {
	if req.Limit <= 0 {
		req.Limit = 20
	}

	if req.Limit > 100 {
		req.Limit = 100
	}

	if req.Offset < 0 {
		req.Offset = 0
	}

	if req.SortBy == "" {
		req.SortBy = "created_at"
	}

	if req.SortOrder == "" {
		req.SortOrder = "desc"
	}

	if !slices.Contains(allowedSortFields, req.SortBy) {
		return NewValidationError(
			"List",
			"INVALID_SORT_FIELD",
			fmt.Sprintf("invalid sort field %q, allowed: %s", req.SortBy, strings.Join(allowedSortFields, ", ")),
			ErrInvalidSortField,
		)
	}

	if req.SortOrder != "asc" && req.SortOrder != "desc" {
		return NewValidationError(
			"List",
			"INVALID_SORT_ORDER",
			fmt.Sprintf("invalid sort order %q, allowed: asc, desc", req.SortOrder),
			ErrInvalidSortOrder,
		)
	}

	if req.Status != nil {
		allowed := []models.RecipeStatus{
			models.RecipeStatusExperimenting,
			models.RecipeStatusFinal,
			models.RecipeStatusArchived,
		}

		if !slices.Contains(allowed, *req.Status) {
			return NewValidationError(
				"List",
				"INVALID_STATUS",
				fmt.Sprintf("invalid status %q", *req.Status),
				ErrInvalidStatus,
			)
		}
	}

	return nil
}
