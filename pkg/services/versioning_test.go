package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewprint/brewprint/pkg/models"
	"github.com/brewprint/brewprint/pkg/persistence/file"
)

func TestNextVersionLabel(t *testing.T) {
	tests := []struct {
		name    string
		current string
		want    string
	}{
		{"first iteration", "v1", "v2"},
		{"double digits", "v9", "v10"},
		{"large version", "v41", "v42"},
		{"empty label", "", "v2"},
		{"hand edited label", "version one", "v2"},
		{"missing prefix", "1", "v2"},
		{"trailing garbage", "v1-final", "v2"},
		{"negative number", "v-3", "v2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextVersionLabel(tt.current))
		})
	}
}

func newTestRecipe(name string) *models.Recipe {
	return &models.Recipe{
		UserID: "user-1",
		Name:   name,
		Method: models.BrewMethodV60,
		Parameters: models.BrewParameters{
			DoseGrams:    15,
			WaterGrams:   250,
			TemperatureC: 93,
		},
		Steps: []models.Step{
			{Order: 1, Title: "Bloom", DurationSec: 30, WaterGrams: 45},
			{Order: 2, Title: "Main pour", DurationSec: 90, WaterGrams: 205},
		},
		TastingNotes: "bright, a bit sour",
		VersionNotes: "baseline",
	}
}

func TestVersioning_Branch(t *testing.T) {
	store := file.NewStore(t.TempDir())
	library := NewLibrary(store)
	service := NewVersioning(store)

	parent, err := library.Create(t.Context(), newTestRecipe("Morning V60"))
	require.NoError(t, err)
	require.Equal(t, "v1", parent.Version)

	child, err := service.Branch(t.Context(), parent.ID, BranchOverrides{})
	require.NoError(t, err)
	require.NotNil(t, child)

	// Lineage fields
	assert.NotEmpty(t, child.ID)
	assert.NotEqual(t, parent.ID, child.ID)
	require.NotNil(t, child.ParentID)
	assert.Equal(t, parent.ID, *child.ParentID)
	assert.Equal(t, "v2", child.Version)
	assert.Equal(t, models.RecipeStatusExperimenting, child.Status)
	assert.Equal(t, "Morning V60 (v2)", child.Name)

	// Everything else is inherited
	assert.Equal(t, parent.Method, child.Method)
	assert.Equal(t, parent.Parameters, child.Parameters)
	assert.Equal(t, parent.Steps, child.Steps)
	assert.Equal(t, parent.TastingNotes, child.TastingNotes)
	assert.Equal(t, parent.VersionNotes, child.VersionNotes)
	assert.Equal(t, parent.UserID, child.UserID)
}

func TestVersioning_Branch_WithOverrides(t *testing.T) {
	store := file.NewStore(t.TempDir())
	library := NewLibrary(store)
	service := NewVersioning(store)

	parent, err := library.Create(t.Context(), newTestRecipe("Morning V60"))
	require.NoError(t, err)

	finerGrind := models.BrewParameters{
		DoseGrams:    15,
		WaterGrams:   250,
		TemperatureC: 93,
		GrindSetting: "18 clicks",
	}

	child, err := service.Branch(t.Context(), parent.ID, BranchOverrides{
		Name:         "Finer grind attempt",
		VersionNotes: "grind two clicks finer",
		Parameters:   &finerGrind,
	})
	require.NoError(t, err)

	assert.Equal(t, "Finer grind attempt", child.Name)
	assert.Equal(t, "grind two clicks finer", child.VersionNotes)
	assert.Equal(t, finerGrind, child.Parameters)

	// Unoverridden fields still come from the parent.
	assert.Equal(t, parent.Steps, child.Steps)
	assert.Equal(t, parent.Method, child.Method)
}

func TestVersioning_Branch_FromBranchedRecipe(t *testing.T) {
	store := file.NewStore(t.TempDir())
	library := NewLibrary(store)
	service := NewVersioning(store)

	root, err := library.Create(t.Context(), newTestRecipe("Root"))
	require.NoError(t, err)

	v2, err := service.Branch(t.Context(), root.ID, BranchOverrides{})
	require.NoError(t, err)

	v3, err := service.Branch(t.Context(), v2.ID, BranchOverrides{})
	require.NoError(t, err)

	assert.Equal(t, "v3", v3.Version)
	require.NotNil(t, v3.ParentID)
	assert.Equal(t, v2.ID, *v3.ParentID)
}

func TestVersioning_Branch_ParentNotFound(t *testing.T) {
	store := file.NewStore(t.TempDir())
	service := NewVersioning(store)

	child, err := service.Branch(t.Context(), "missing-id", BranchOverrides{})
	require.Error(t, err)
	assert.Nil(t, child)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
	assert.True(t, IsNotFound(err))
}

func TestVersioning_Chain(t *testing.T) {
	store := file.NewStore(t.TempDir())
	library := NewLibrary(store)
	service := NewVersioning(store)

	root, err := library.Create(t.Context(), newTestRecipe("Root"))
	require.NoError(t, err)

	first, err := service.Branch(t.Context(), root.ID, BranchOverrides{Name: "first branch"})
	require.NoError(t, err)

	second, err := service.Branch(t.Context(), root.ID, BranchOverrides{Name: "second branch"})
	require.NoError(t, err)

	// A grandchild is not part of the root's chain.
	_, err = service.Branch(t.Context(), first.ID, BranchOverrides{})
	require.NoError(t, err)

	chain, err := service.Chain(t.Context(), root.ID)
	require.NoError(t, err)
	require.Len(t, chain, 3)

	assert.Equal(t, root.ID, chain[0].ID)
	assert.Equal(t, first.ID, chain[1].ID)
	assert.Equal(t, second.ID, chain[2].ID)
}

func TestVersioning_Chain_LeafRecipe(t *testing.T) {
	store := file.NewStore(t.TempDir())
	library := NewLibrary(store)
	service := NewVersioning(store)

	root, err := library.Create(t.Context(), newTestRecipe("Leaf"))
	require.NoError(t, err)

	chain, err := service.Chain(t.Context(), root.ID)
	require.NoError(t, err)
	require.Len(t, chain, 1)
	assert.Equal(t, root.ID, chain[0].ID)
}

func TestVersioning_Chain_RootNotFound(t *testing.T) {
	store := file.NewStore(t.TempDir())
	service := NewVersioning(store)

	chain, err := service.Chain(t.Context(), "missing-id")
	require.Error(t, err)
	assert.Nil(t, chain)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}
