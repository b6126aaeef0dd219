// Package services implements the recipe versioning and backup engine on top
// of the generic record store.
package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/brewprint/brewprint/pkg/models"
	"github.com/brewprint/brewprint/pkg/persistence"
)

var versionLabelRe = regexp.MustCompile(`^v(\d+)$`)

// NextVersionLabel increments a "v<n>" label. Anything that does not match
// the pattern, including labels edited by hand, falls back to "v2" so a
// corrupted label never blocks iteration.
func NextVersionLabel(current string) string {
	m := versionLabelRe.FindStringSubmatch(current)
	if m == nil {
		return "v2"
	}

	n, err := strconv.Atoi(m[1])
	if err != nil {
		// Digits too large for an int get the same leniency as garbage.
		return "v2"
	}

	return "v" + strconv.Itoa(n+1)
}

// BranchOverrides carries the fields a new iteration changes from its
// parent. Zero-valued fields inherit the parent's value.
type BranchOverrides struct {
	Name         string                 `json:"name,omitempty"`
	Description  string                 `json:"description,omitempty"`
	VersionNotes string                 `json:"version_notes,omitempty"`
	Method       models.BrewMethod      `json:"method,omitempty"`
	Parameters   *models.BrewParameters `json:"parameters,omitempty"`
	Steps        []models.Step          `json:"steps,omitempty"`
}

// Versioning derives version labels and reconstructs experimentation chains.
type Versioning struct {
	store persistence.Store
}

// NewVersioning creates a new versioning service.
func NewVersioning(store persistence.Store) *Versioning {
	return &Versioning{store: store}
}

// Branch creates a new iteration of an existing recipe. The draft inherits
// every parent field not overridden, points back at the parent, gets the
// next version label, and always starts out experimenting.
func (v *Versioning) Branch(ctx context.Context, parentID string, ov BranchOverrides) (*models.Recipe, error) {
	doc, err := v.store.GetByID(ctx, persistence.CollectionRecipes, parentID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, parentID)
		}

		return nil, fmt.Errorf("failed to load parent recipe: %w", err)
	}

	parent, err := persistence.Decode[models.Recipe](doc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode parent recipe: %w", err)
	}

	draft := buildDraft(parent, ov)

	draftDoc, err := persistence.Encode(draft)
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft: %w", err)
	}

	inserted, err := v.store.Insert(ctx, persistence.CollectionRecipes, draftDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to save branched recipe: %w", err)
	}

	return persistence.Decode[models.Recipe](inserted)
}

// buildDraft copies the parent and applies lineage fields plus overrides.
func buildDraft(parent *models.Recipe, ov BranchOverrides) *models.Recipe {
	draft := *parent

	parentID := parent.ID
	draft.ID = ""
	draft.ParentID = &parentID
	draft.Version = NextVersionLabel(parent.Version)
	draft.Status = models.RecipeStatusExperimenting
	draft.CreatedAt = parent.CreatedAt
	draft.UpdatedAt = parent.UpdatedAt

	draft.Name = ov.Name
	if draft.Name == "" {
		draft.Name = fmt.Sprintf("%s (%s)", parent.Name, draft.Version)
	}

	if ov.Description != "" {
		draft.Description = ov.Description
	}

	if ov.VersionNotes != "" {
		draft.VersionNotes = ov.VersionNotes
	}

	if ov.Method != "" {
		draft.Method = ov.Method
	}

	if ov.Parameters != nil {
		draft.Parameters = *ov.Parameters
	}

	if ov.Steps != nil {
		draft.Steps = ov.Steps
	}

	return &draft
}

// Chain returns a root recipe followed by its direct children ordered by
// creation time ascending. Resolution is exactly one level deep: deeper
// trees are reachable by calling Chain again on a child.
func (v *Versioning) Chain(ctx context.Context, rootID string) ([]*models.Recipe, error) {
	rootDoc, err := v.store.GetByID(ctx, persistence.CollectionRecipes, rootID)
	if err != nil {
		if persistence.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrRecipeNotFound, rootID)
		}

		return nil, fmt.Errorf("failed to load root recipe: %w", err)
	}

	root, err := persistence.Decode[models.Recipe](rootDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode root recipe: %w", err)
	}

	childDocs, err := v.store.Query(
		ctx,
		persistence.CollectionRecipes,
		persistence.Filter{"parent_id": rootID},
		persistence.ByCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query children: %w", err)
	}

	children, err := persistence.DecodeAll[models.Recipe](childDocs)
	if err != nil {
		return nil, fmt.Errorf("failed to decode children: %w", err)
	}

	return append([]*models.Recipe{root}, children...), nil
}
