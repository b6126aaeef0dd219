package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewprint/brewprint/pkg/models"
	"github.com/brewprint/brewprint/pkg/persistence"
	"github.com/brewprint/brewprint/pkg/persistence/file"
)

func TestNewLibrary(t *testing.T) {
	store := file.NewStore(t.TempDir())
	service := NewLibrary(store)

	assert.NotNil(t, service)
	assert.Equal(t, store, service.store)
}

func TestLibrary_Create(t *testing.T) {
	service := NewLibrary(file.NewStore(t.TempDir()))

	created, err := service.Create(t.Context(), newTestRecipe("Morning V60"))
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Morning V60", created.Name)
	assert.Equal(t, models.RecipeStatusExperimenting, created.Status)
	assert.Equal(t, models.DefaultVersion, created.Version)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.IsZero())
	assert.Nil(t, created.ParentID)
}

func TestLibrary_Create_Validation(t *testing.T) {
	service := NewLibrary(file.NewStore(t.TempDir()))

	noName := newTestRecipe("   ")
	_, err := service.Create(t.Context(), noName)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecipeNameRequired)

	noOwner := newTestRecipe("Morning V60")
	noOwner.UserID = ""
	_, err = service.Create(t.Context(), noOwner)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyOwnerID)
}

func TestLibrary_Create_DuplicateNamesAllowed(t *testing.T) {
	service := NewLibrary(file.NewStore(t.TempDir()))

	_, err := service.Create(t.Context(), newTestRecipe("Morning V60"))
	require.NoError(t, err)

	// Iterating a recipe legitimately reuses names.
	_, err = service.Create(t.Context(), newTestRecipe("Morning V60"))
	require.NoError(t, err)
}

func TestLibrary_FetchByID(t *testing.T) {
	service := NewLibrary(file.NewStore(t.TempDir()))

	created, err := service.Create(t.Context(), newTestRecipe("Morning V60"))
	require.NoError(t, err)

	fetched, err := service.FetchByID(t.Context(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Name, fetched.Name)
	assert.Equal(t, created.Parameters, fetched.Parameters)
}

func TestLibrary_FetchByID_NotFound(t *testing.T) {
	service := NewLibrary(file.NewStore(t.TempDir()))

	fetched, err := service.FetchByID(t.Context(), "missing-id")
	require.Error(t, err)
	assert.Nil(t, fetched)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
	assert.True(t, IsNotFound(err))
}

func TestLibrary_Update(t *testing.T) {
	store := file.NewStore(t.TempDir())
	service := NewLibrary(store)

	created, err := service.Create(t.Context(), newTestRecipe("Morning V60"))
	require.NoError(t, err)

	updated, err := service.Update(t.Context(), created.ID, persistence.Document{
		"name":          "Morning V60, adjusted",
		"brewing_notes": "slower pour",
	})
	require.NoError(t, err)

	assert.Equal(t, "Morning V60, adjusted", updated.Name)
	assert.Equal(t, "slower pour", updated.BrewingNotes)
	assert.Equal(t, created.Parameters, updated.Parameters)
}

func TestLibrary_Update_ProtectedFields(t *testing.T) {
	store := file.NewStore(t.TempDir())
	service := NewLibrary(store)

	created, err := service.Create(t.Context(), newTestRecipe("Morning V60"))
	require.NoError(t, err)

	updated, err := service.Update(t.Context(), created.ID, persistence.Document{
		"id":        "hijacked",
		"user_id":   "someone-else",
		"parent_id": "fake-parent",
		"name":      "still fine",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, created.UserID, updated.UserID)
	assert.Nil(t, updated.ParentID)
	assert.Equal(t, "still fine", updated.Name)
}

func TestLibrary_Update_NotFound(t *testing.T) {
	service := NewLibrary(file.NewStore(t.TempDir()))

	_, err := service.Update(t.Context(), "missing-id", persistence.Document{"name": "x"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestLibrary_Delete(t *testing.T) {
	service := NewLibrary(file.NewStore(t.TempDir()))

	created, err := service.Create(t.Context(), newTestRecipe("Morning V60"))
	require.NoError(t, err)

	require.NoError(t, service.Delete(t.Context(), created.ID))

	_, err = service.FetchByID(t.Context(), created.ID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestLibrary_Delete_LeavesChildrenDangling(t *testing.T) {
	store := file.NewStore(t.TempDir())
	library := NewLibrary(store)
	versioning := NewVersioning(store)

	parent, err := library.Create(t.Context(), newTestRecipe("Morning V60"))
	require.NoError(t, err)

	child, err := versioning.Branch(t.Context(), parent.ID, BranchOverrides{})
	require.NoError(t, err)

	require.NoError(t, library.Delete(t.Context(), parent.ID))

	// The child survives with its parent reference intact but unresolvable.
	orphan, err := library.FetchByID(t.Context(), child.ID)
	require.NoError(t, err)
	require.NotNil(t, orphan.ParentID)
	assert.Equal(t, parent.ID, *orphan.ParentID)

	_, err = versioning.Chain(t.Context(), *orphan.ParentID)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestLibrary_Delete_NotFound(t *testing.T) {
	service := NewLibrary(file.NewStore(t.TempDir()))

	err := service.Delete(t.Context(), "missing-id")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRecipeNotFound)
}

func TestLibrary_List(t *testing.T) {
	store := file.NewStore(t.TempDir())
	service := NewLibrary(store)

	for _, name := range []string{"alpha", "bravo", "charlie"} {
		_, err := service.Create(t.Context(), newTestRecipe(name))
		require.NoError(t, err)
	}

	other := newTestRecipe("not mine")
	other.UserID = "user-2"
	_, err := service.Create(t.Context(), other)
	require.NoError(t, err)

	resp, err := service.List(t.Context(), ListRequest{OwnerID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, 3, resp.TotalCount)
	assert.Len(t, resp.Recipes, 3)
	assert.False(t, resp.HasNextPage)

	// Default sort is newest first.
	assert.Equal(t, "charlie", resp.Recipes[0].Name)
}

func TestLibrary_List_Pagination(t *testing.T) {
	service := NewLibrary(file.NewStore(t.TempDir()))

	for _, name := range []string{"alpha", "bravo", "charlie"} {
		_, err := service.Create(t.Context(), newTestRecipe(name))
		require.NoError(t, err)
	}

	page, err := service.List(t.Context(), ListRequest{
		OwnerID:   "user-1",
		SortBy:    "name",
		SortOrder: "asc",
		Limit:     2,
	})
	require.NoError(t, err)

	require.Len(t, page.Recipes, 2)
	assert.Equal(t, "alpha", page.Recipes[0].Name)
	assert.Equal(t, "bravo", page.Recipes[1].Name)
	assert.True(t, page.HasNextPage)

	rest, err := service.List(t.Context(), ListRequest{
		OwnerID:   "user-1",
		SortBy:    "name",
		SortOrder: "asc",
		Limit:     2,
		Offset:    2,
	})
	require.NoError(t, err)

	require.Len(t, rest.Recipes, 1)
	assert.Equal(t, "charlie", rest.Recipes[0].Name)
	assert.False(t, rest.HasNextPage)
}

func TestLibrary_List_StatusFilter(t *testing.T) {
	store := file.NewStore(t.TempDir())
	service := NewLibrary(store)
	results := NewResults(store)

	keeper, err := service.Create(t.Context(), newTestRecipe("keeper"))
	require.NoError(t, err)

	_, err = service.Create(t.Context(), newTestRecipe("experiment"))
	require.NoError(t, err)

	_, err = results.MarkFinal(t.Context(), keeper.ID)
	require.NoError(t, err)

	status := models.RecipeStatusFinal
	resp, err := service.List(t.Context(), ListRequest{OwnerID: "user-1", Status: &status})
	require.NoError(t, err)

	require.Len(t, resp.Recipes, 1)
	assert.Equal(t, "keeper", resp.Recipes[0].Name)
}

func TestLibrary_List_InvalidRequests(t *testing.T) {
	service := NewLibrary(file.NewStore(t.TempDir()))

	_, err := service.List(t.Context(), ListRequest{SortBy: "rating"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSortField)

	_, err = service.List(t.Context(), ListRequest{SortOrder: "sideways"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidSortOrder)

	bogus := models.RecipeStatus("bogus")
	_, err = service.List(t.Context(), ListRequest{Status: &bogus})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStatus)
}
