package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewprint/brewprint/pkg/persistence"
)

func TestEncodeDecode(t *testing.T) {
	snap := New("user-1")
	snap.SetRecords(persistence.CollectionBeans, []persistence.Document{
		{"id": "b1", "name": "Ethiopia Guji", "roaster": "Local Roastery"},
	})
	snap.SetRecords(persistence.CollectionRecipes, []persistence.Document{
		{"id": "r1", "name": "Morning V60", "version": "v1", "bean_id": "b1"},
	})
	snap.Metadata.TotalItems = snap.TotalRecords()

	data, err := Encode(snap)
	require.NoError(t, err)

	decoded, err := Decode(data)
	require.NoError(t, err)
	require.NotNil(t, decoded)

	assert.Equal(t, snap.Metadata.Version, decoded.Metadata.Version)
	assert.Equal(t, snap.Metadata.OwnerID, decoded.Metadata.OwnerID)
	assert.Equal(t, 2, decoded.Metadata.TotalItems)

	require.Len(t, decoded.Beans, 1)
	assert.Equal(t, "Ethiopia Guji", decoded.Beans[0]["name"])
	require.Len(t, decoded.Recipes, 1)
	assert.Equal(t, "b1", decoded.Recipes[0]["bean_id"])

	require.NoError(t, decoded.Validate())
}

func TestDecode_MissingCollectionKey(t *testing.T) {
	// A shape like the real format but without the tags key.
	data := []byte(`{
		"metadata": {"version": "1.0.0", "exported_at": "2026-01-05T10:00:00Z", "owner_id": "user-1", "total_items": 0},
		"beans": [], "grinders": [], "brewers": [], "water_profiles": [],
		"recipes": [], "folders": [],
		"folder_memberships": [], "tag_memberships": []
	}`)

	snap, err := Decode(data)
	require.Error(t, err)
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, ErrMissingCollection)
}

func TestDecode_WrongCollectionType(t *testing.T) {
	data := []byte(`{
		"metadata": {"version": "1.0.0", "exported_at": "2026-01-05T10:00:00Z", "owner_id": "user-1", "total_items": 0},
		"beans": {"not": "an array"}, "grinders": [], "brewers": [], "water_profiles": [],
		"recipes": [], "folders": [], "tags": [],
		"folder_memberships": [], "tag_memberships": []
	}`)

	snap, err := Decode(data)
	require.Error(t, err)
	assert.Nil(t, snap)
}

func TestDecode_Garbage(t *testing.T) {
	_, err := Decode([]byte("not json at all"))
	require.Error(t, err)

	_, err = Decode([]byte(`[]`))
	require.Error(t, err)
}
