// Package web provides HTTP handlers and REST API endpoints for the recipe
// versioning and backup engine.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"

	"github.com/brewprint/brewprint/pkg/models"
	"github.com/brewprint/brewprint/pkg/persistence"
	"github.com/brewprint/brewprint/pkg/services"
	"github.com/brewprint/brewprint/pkg/snapshot"
)

type APIHandlers struct {
	library    *services.Library
	versioning *services.Versioning
	results    *services.Results
	exporter   *services.Exporter
	importer   *services.Importer
	defaults   *services.Defaults
	validator  *validator.Validate
}

func NewAPIHandlers(store persistence.Store, validate *validator.Validate) *APIHandlers {
	return &APIHandlers{
		library:    services.NewLibrary(store),
		versioning: services.NewVersioning(store),
		results:    services.NewResults(store),
		exporter:   services.NewExporter(store),
		importer:   services.NewImporter(store),
		defaults:   services.NewDefaults(store),
		validator:  validate,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	httpStatus := http.StatusOK

	if err := h.library.HealthCheck(c.Context()); err != nil {
		status = "unhealthy"
		httpStatus = http.StatusInternalServerError
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) ListRecipes(c fiber.Ctx) error {
	req, err := parseListRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.library.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"recipes":       result.Recipes,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
	})
}

func parseListRequest(c fiber.Ctx) (*services.ListRequest, error) {
	req := &services.ListRequest{
		OwnerID:   c.Query("owner_id"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		req.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		req.Offset = offset
	}

	if statusStr := c.Query("status"); statusStr != "" {
		status := models.RecipeStatus(statusStr)
		req.Status = &status
	}

	return req, nil
}

func (h *APIHandlers) CreateRecipe(c fiber.Ctx) error {
	var req CreateRecipeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	recipe := &models.Recipe{
		UserID:         req.UserID,
		Name:           req.Name,
		Description:    req.Description,
		Method:         req.Method,
		Parameters:     req.Parameters,
		Steps:          req.Steps,
		BeanID:         req.BeanID,
		GrinderID:      req.GrinderID,
		BrewerID:       req.BrewerID,
		WaterProfileID: req.WaterProfileID,
		TargetMetrics:  req.TargetMetrics,
	}

	created, err := h.library.Create(c.Context(), recipe)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) GetRecipe(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	recipe, err := h.library.FetchByID(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(recipe)
}

func (h *APIHandlers) UpdateRecipe(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	var patch persistence.Document
	if err := c.Bind().JSON(&patch); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.library.Update(c.Context(), id, patch)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) DeleteRecipe(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	if err := h.library.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) BranchRecipe(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	var req BranchRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	branched, err := h.versioning.Branch(c.Context(), id, req.Overrides)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(branched)
}

func (h *APIHandlers) RecordResult(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	var req RecordResultRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	updated, err := h.results.Record(c.Context(), id, req.Observation)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) FinalizeRecipe(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	updated, err := h.results.MarkFinal(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) ArchiveRecipe(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	updated, err := h.results.Archive(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) GetChain(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Recipe ID is required")
	}

	chain, err := h.versioning.Chain(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(fiber.Map{"recipes": chain})
}

func (h *APIHandlers) SetDefaultGear(c fiber.Ctx) error {
	col := persistence.Collection(c.Params("collection"))

	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Record ID is required")
	}

	ownerID := c.Query("owner_id")
	if ownerID == "" {
		return badRequest(c, "owner_id is required")
	}

	if err := h.defaults.SetDefault(c.Context(), col, ownerID, id); err != nil {
		if persistence.IsNotFound(err) {
			return notFound(c, "record not found")
		}

		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) ExportSnapshot(c fiber.Ctx) error {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		return badRequest(c, "owner_id is required")
	}

	snap, err := h.exporter.Build(c.Context(), ownerID)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(snap)
}

func (h *APIHandlers) ImportSnapshot(c fiber.Ctx) error {
	snap, err := snapshot.Decode(c.Body())
	if err != nil {
		return badRequest(c, err.Error())
	}

	opts := services.RestoreOptions{
		OwnerID: c.Query("owner_id"),
	}

	if v := c.Query("overwrite"); v != "" {
		overwrite, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "overwrite must be a boolean")
		}

		opts.Overwrite = overwrite
	}

	if v := c.Query("skip_conflicts"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			return badRequest(c, "skip_conflicts must be a boolean")
		}

		opts.SkipConflicts = skip
	}

	result := h.importer.Restore(c.Context(), snap, opts)

	status := fiber.StatusOK
	if !result.Success {
		status = fiber.StatusUnprocessableEntity
	}

	return c.Status(status).JSON(result)
}
