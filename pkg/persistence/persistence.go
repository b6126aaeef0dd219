// Package persistence provides the generic record store abstraction the
// versioning and backup engine runs against.
package persistence

import "context"

// Collection names a stored record set.
type Collection string

const (
	CollectionBeans             Collection = "beans"
	CollectionGrinders          Collection = "grinders"
	CollectionBrewers           Collection = "brewers"
	CollectionWaterProfiles     Collection = "water_profiles"
	CollectionRecipes           Collection = "recipes"
	CollectionFolders           Collection = "folders"
	CollectionTags              Collection = "tags"
	CollectionFolderMemberships Collection = "folder_memberships"
	CollectionTagMemberships    Collection = "tag_memberships"
)

// Collections lists every collection a snapshot covers. The order is the
// restore dependency order: recipes reference the entity collections before
// them by id, and the membership relations come last.
var Collections = []Collection{
	CollectionBeans,
	CollectionGrinders,
	CollectionBrewers,
	CollectionWaterProfiles,
	CollectionFolders,
	CollectionTags,
	CollectionRecipes,
	CollectionFolderMemberships,
	CollectionTagMemberships,
}

// KnownCollection reports whether name is one of the stored collections.
func KnownCollection(name Collection) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}

	return false
}

// Document is a schemaless record as stored. Timestamps are RFC 3339 strings
// so documents survive a JSON round trip unchanged across backends.
type Document map[string]any

// Clone returns a shallow copy of the document.
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}

	return out
}

// ID returns the document identity, if assigned.
func (d Document) ID() string {
	id, _ := d["id"].(string)

	return id
}

// Filter matches documents whose fields equal every entry.
type Filter map[string]any

// ByOwner scopes a query to one owner's records.
func ByOwner(ownerID string) Filter {
	return Filter{"user_id": ownerID}
}

// Order sorts query results by a single field.
type Order struct {
	Field string
	Desc  bool
}

// ByCreation orders records by their insertion time, oldest first.
func ByCreation() Order {
	return Order{Field: "created_at"}
}

// Store is the persistence boundary. Implementations assign id, created_at
// and updated_at on insert and enforce per-collection uniqueness, surfacing
// violations as ErrConflict.
type Store interface {
	Insert(ctx context.Context, col Collection, doc Document) (Document, error)
	InsertMany(ctx context.Context, col Collection, docs []Document) ([]string, error)
	UpdateByID(ctx context.Context, col Collection, id string, fields Document) (Document, error)
	DeleteByID(ctx context.Context, col Collection, id string) error
	DeleteWhere(ctx context.Context, col Collection, filter Filter) error
	GetByID(ctx context.Context, col Collection, id string) (Document, error)
	Query(ctx context.Context, col Collection, filter Filter, order ...Order) ([]Document, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// UniqueKeys declares the per-collection uniqueness constraints every backend
// enforces. Recipes carry none: iterating a recipe legitimately reuses names.
var UniqueKeys = map[Collection][]string{
	CollectionBeans:             {"user_id", "name"},
	CollectionGrinders:          {"user_id", "name"},
	CollectionBrewers:           {"user_id", "name"},
	CollectionWaterProfiles:     {"user_id", "name"},
	CollectionFolders:           {"user_id", "name"},
	CollectionTags:              {"user_id", "name"},
	CollectionFolderMemberships: {"user_id", "folder_id", "recipe_id"},
	CollectionTagMemberships:    {"user_id", "recipe_id", "tag_name"},
}

// SystemFields are assigned by the store and stripped from records on import.
var SystemFields = []string{"id", "user_id", "created_at", "updated_at"}
