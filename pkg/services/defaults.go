package services

import (
	"context"
	"fmt"

	"github.com/brewprint/brewprint/pkg/persistence"
)

// defaultableCollections are the gear collections carrying an is_default
// flag: the brew form preselects these for new recipes.
var defaultableCollections = map[persistence.Collection]bool{
	persistence.CollectionBeans:         true,
	persistence.CollectionGrinders:      true,
	persistence.CollectionWaterProfiles: true,
}

// Defaults manages the per-owner default flag on gear collections.
type Defaults struct {
	store persistence.Store
}

// NewDefaults creates a new defaults service.
func NewDefaults(store persistence.Store) *Defaults {
	return &Defaults{store: store}
}

// SetDefault makes one record the owner's default by clearing the flag on
// every other record first and then setting it on the target. The store has
// no transactions, so there is a brief window in which no record carries the
// flag; readers treat a missing default as "none selected".
func (d *Defaults) SetDefault(ctx context.Context, col persistence.Collection, ownerID, id string) error {
	if !defaultableCollections[col] {
		return NewValidationError(
			"SetDefault",
			"NOT_DEFAULTABLE",
			fmt.Sprintf("collection %s has no default flag", col),
			ErrNotDefaultable,
		)
	}

	if ownerID == "" {
		return NewValidationError("SetDefault", "EMPTY_OWNER", "owner ID is required", ErrEmptyOwnerID)
	}

	current, err := d.store.Query(ctx, col, persistence.Filter{
		"user_id":    ownerID,
		"is_default": true,
	})
	if err != nil {
		return fmt.Errorf("failed to find current default: %w", err)
	}

	for _, doc := range current {
		if doc.ID() == id {
			continue
		}

		if _, err := d.store.UpdateByID(ctx, col, doc.ID(), persistence.Document{"is_default": false}); err != nil {
			return fmt.Errorf("failed to clear default on %s/%s: %w", col, doc.ID(), err)
		}
	}

	if _, err := d.store.UpdateByID(ctx, col, id, persistence.Document{"is_default": true}); err != nil {
		if persistence.IsNotFound(err) {
			return fmt.Errorf("%w: %s/%s", persistence.ErrNotFound, col, id)
		}

		return fmt.Errorf("failed to set default on %s/%s: %w", col, id, err)
	}

	return nil
}
