package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewprint/brewprint/pkg/models"
	"github.com/brewprint/brewprint/pkg/persistence"
	"github.com/brewprint/brewprint/pkg/persistence/file"
	"github.com/brewprint/brewprint/pkg/snapshot"
)

func TestImporter_Restore_NilSnapshot(t *testing.T) {
	service := NewImporter(file.NewStore(t.TempDir()))

	result := service.Restore(t.Context(), nil, RestoreOptions{})
	require.NotNil(t, result)
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "snapshot")
}

func TestImporter_Restore_UnsupportedVersion(t *testing.T) {
	service := NewImporter(file.NewStore(t.TempDir()))

	snap := snapshot.New("user-1")
	snap.Metadata.Version = "2.0.0"

	result := service.Restore(t.Context(), snap, RestoreOptions{})
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "unsupported snapshot format")
}

func TestImporter_Restore_NoOwner(t *testing.T) {
	service := NewImporter(file.NewStore(t.TempDir()))

	result := service.Restore(t.Context(), snapshot.New(""), RestoreOptions{})
	assert.False(t, result.Success)
	require.Len(t, result.Errors, 1)
}

func TestImporter_Restore_OwnerFallsBackToMetadata(t *testing.T) {
	store := file.NewStore(t.TempDir())
	service := NewImporter(store)

	snap := snapshot.New("user-1")
	snap.SetRecords(persistence.CollectionBeans, []persistence.Document{
		{"id": "b1", "name": "Ethiopia Guji"},
	})

	result := service.Restore(t.Context(), snap, RestoreOptions{})
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Imported["beans"])

	docs, err := store.Query(t.Context(), persistence.CollectionBeans, persistence.ByOwner("user-1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "user-1", docs[0]["user_id"])
}

func TestImporter_Restore_RoundTrip(t *testing.T) {
	source := file.NewStore(t.TempDir())
	library := NewLibrary(source)
	versioning := NewVersioning(source)

	bean, err := source.Insert(t.Context(), persistence.CollectionBeans, persistence.Document{
		"user_id": "user-1",
		"name":    "Ethiopia Guji",
	})
	require.NoError(t, err)

	folder, err := source.Insert(t.Context(), persistence.CollectionFolders, persistence.Document{
		"user_id": "user-1",
		"name":    "Pour over",
	})
	require.NoError(t, err)

	rootSpec := newTestRecipe("Morning V60")
	beanID := bean.ID()
	rootSpec.BeanID = &beanID

	root, err := library.Create(t.Context(), rootSpec)
	require.NoError(t, err)

	child, err := versioning.Branch(t.Context(), root.ID, BranchOverrides{})
	require.NoError(t, err)

	_, err = source.Insert(t.Context(), persistence.CollectionFolderMemberships, persistence.Document{
		"user_id":   "user-1",
		"folder_id": folder.ID(),
		"recipe_id": root.ID,
	})
	require.NoError(t, err)

	_, err = source.Insert(t.Context(), persistence.CollectionTagMemberships, persistence.Document{
		"user_id":   "user-1",
		"recipe_id": child.ID,
		"tag_name":  "promising",
	})
	require.NoError(t, err)

	snap, err := NewExporter(source).Build(t.Context(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 6, snap.Metadata.TotalItems)

	// Restore into an empty store under a different account.
	target := file.NewStore(t.TempDir())
	result := NewImporter(target).Restore(t.Context(), snap, RestoreOptions{OwnerID: "user-2"})

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
	assert.Equal(t, 1, result.Imported["beans"])
	assert.Equal(t, 1, result.Imported["folders"])
	assert.Equal(t, 2, result.Imported["recipes"])
	assert.Equal(t, 1, result.Imported["folder_memberships"])
	assert.Equal(t, 1, result.Imported["tag_memberships"])

	// Every restored record got a fresh id and the new owner.
	beans, err := target.Query(t.Context(), persistence.CollectionBeans, persistence.ByOwner("user-2"))
	require.NoError(t, err)
	require.Len(t, beans, 1)
	assert.NotEqual(t, bean.ID(), beans[0].ID())

	recipes, err := NewLibrary(target).List(t.Context(), ListRequest{OwnerID: "user-2", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, recipes.Recipes, 2)

	var newRoot, newChild *models.Recipe

	for _, r := range recipes.Recipes {
		if r.ParentID == nil {
			newRoot = r
		} else {
			newChild = r
		}
	}

	require.NotNil(t, newRoot)
	require.NotNil(t, newChild)

	// References point at the freshly assigned ids, not the exported ones.
	require.NotNil(t, newRoot.BeanID)
	assert.Equal(t, beans[0].ID(), *newRoot.BeanID)
	assert.Equal(t, newRoot.ID, *newChild.ParentID)

	// The chain survives the round trip.
	chain, err := NewVersioning(target).Chain(t.Context(), newRoot.ID)
	require.NoError(t, err)
	require.Len(t, chain, 2)
	assert.Equal(t, newChild.ID, chain[1].ID)

	memberships, err := target.Query(t.Context(), persistence.CollectionFolderMemberships, persistence.ByOwner("user-2"))
	require.NoError(t, err)
	require.Len(t, memberships, 1)
	assert.Equal(t, newRoot.ID, memberships[0]["recipe_id"])

	tagged, err := target.Query(t.Context(), persistence.CollectionTagMemberships, persistence.ByOwner("user-2"))
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, newChild.ID, tagged[0]["recipe_id"])
	assert.Equal(t, "promising", tagged[0]["tag_name"])
}

func TestImporter_Restore_UnresolvedGearReference(t *testing.T) {
	store := file.NewStore(t.TempDir())
	service := NewImporter(store)

	snap := snapshot.New("user-1")
	snap.SetRecords(persistence.CollectionRecipes, []persistence.Document{
		{"id": "r1", "name": "Orphan brew", "version": "v1", "bean_id": "bean-from-elsewhere"},
	})

	result := service.Restore(t.Context(), snap, RestoreOptions{})
	require.True(t, result.Success)
	assert.Equal(t, 1, result.Imported["recipes"])
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "bean_id")

	docs, err := store.Query(t.Context(), persistence.CollectionRecipes, persistence.ByOwner("user-1"))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.NotContains(t, docs[0], "bean_id")
}

func TestImporter_Restore_UnresolvedMembershipDropped(t *testing.T) {
	store := file.NewStore(t.TempDir())
	service := NewImporter(store)

	snap := snapshot.New("user-1")
	snap.SetRecords(persistence.CollectionTagMemberships, []persistence.Document{
		{"id": "tm1", "recipe_id": "never-exported", "tag_name": "lost"},
	})

	result := service.Restore(t.Context(), snap, RestoreOptions{})

	// Losing a membership is never fatal.
	require.True(t, result.Success)
	assert.Equal(t, 0, result.Imported["tag_memberships"])
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "recipe_id")

	docs, err := store.Query(t.Context(), persistence.CollectionTagMemberships, persistence.ByOwner("user-1"))
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func conflictSnapshot() *snapshot.Snapshot {
	snap := snapshot.New("user-1")
	snap.SetRecords(persistence.CollectionBeans, []persistence.Document{
		{"id": "b1", "name": "Ethiopia Guji"},
		{"id": "b2", "name": "Colombia Huila"},
	})

	return snap
}

func TestImporter_Restore_ConflictFailsCollection(t *testing.T) {
	store := file.NewStore(t.TempDir())

	_, err := store.Insert(t.Context(), persistence.CollectionBeans, persistence.Document{
		"user_id": "user-1",
		"name":    "Ethiopia Guji",
	})
	require.NoError(t, err)

	result := NewImporter(store).Restore(t.Context(), conflictSnapshot(), RestoreOptions{})

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Imported["beans"])
	require.NotEmpty(t, result.Errors)
	assert.Contains(t, result.Errors[0], "beans")
}

func TestImporter_Restore_SkipConflicts(t *testing.T) {
	store := file.NewStore(t.TempDir())

	_, err := store.Insert(t.Context(), persistence.CollectionBeans, persistence.Document{
		"user_id": "user-1",
		"name":    "Ethiopia Guji",
	})
	require.NoError(t, err)

	result := NewImporter(store).Restore(t.Context(), conflictSnapshot(), RestoreOptions{SkipConflicts: true})

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.Imported["beans"])
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "beans")

	docs, err := store.Query(t.Context(), persistence.CollectionBeans, persistence.ByOwner("user-1"))
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestImporter_Restore_Overwrite(t *testing.T) {
	store := file.NewStore(t.TempDir())

	_, err := store.Insert(t.Context(), persistence.CollectionBeans, persistence.Document{
		"user_id": "user-1",
		"name":    "Stale bean",
	})
	require.NoError(t, err)

	// Another owner's data must survive the overwrite untouched.
	_, err = store.Insert(t.Context(), persistence.CollectionBeans, persistence.Document{
		"user_id": "user-2",
		"name":    "Kenya AA",
	})
	require.NoError(t, err)

	result := NewImporter(store).Restore(t.Context(), conflictSnapshot(), RestoreOptions{Overwrite: true})

	require.True(t, result.Success, "errors: %v", result.Errors)
	assert.Equal(t, 2, result.Imported["beans"])

	mine, err := store.Query(t.Context(), persistence.CollectionBeans, persistence.ByOwner("user-1"))
	require.NoError(t, err)
	require.Len(t, mine, 2)

	names := []string{mine[0]["name"].(string), mine[1]["name"].(string)}
	assert.NotContains(t, names, "Stale bean")

	theirs, err := store.Query(t.Context(), persistence.CollectionBeans, persistence.ByOwner("user-2"))
	require.NoError(t, err)
	assert.Len(t, theirs, 1)
}

func TestImporter_Restore_ContinuesAfterHardFailure(t *testing.T) {
	store := file.NewStore(t.TempDir())

	// A pre-existing grinder collides with the snapshot; beans and recipes
	// around the failed collection still import.
	_, err := store.Insert(t.Context(), persistence.CollectionGrinders, persistence.Document{
		"user_id": "user-1",
		"name":    "Comandante C40",
	})
	require.NoError(t, err)

	snap := snapshot.New("user-1")
	snap.SetRecords(persistence.CollectionGrinders, []persistence.Document{
		{"id": "g1", "name": "Comandante C40"},
	})
	snap.SetRecords(persistence.CollectionBeans, []persistence.Document{
		{"id": "b1", "name": "Ethiopia Guji"},
	})
	snap.SetRecords(persistence.CollectionRecipes, []persistence.Document{
		{"id": "r1", "name": "Morning V60", "version": "v1"},
	})

	result := NewImporter(store).Restore(t.Context(), snap, RestoreOptions{})

	assert.False(t, result.Success)
	assert.Equal(t, 0, result.Imported["grinders"])
	assert.Equal(t, 1, result.Imported["beans"])
	assert.Equal(t, 1, result.Imported["recipes"])
}
