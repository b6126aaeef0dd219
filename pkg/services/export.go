package services

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/brewprint/brewprint/pkg/persistence"
	"github.com/brewprint/brewprint/pkg/snapshot"
)

// Exporter gathers one owner's complete dataset into a portable snapshot.
type Exporter struct {
	store persistence.Store
}

// NewExporter creates a new snapshot builder.
func NewExporter(store persistence.Store) *Exporter {
	return &Exporter{store: store}
}

// Build queries every collection for the owner concurrently and assembles
// the snapshot once all reads have resolved. A failed read does not cancel
// the others, but any failure fails the whole build: a snapshot silently
// missing a collection is worse than no snapshot at all.
func (e *Exporter) Build(ctx context.Context, ownerID string) (*snapshot.Snapshot, error) {
	if ownerID == "" {
		return nil, NewValidationError("Build", "EMPTY_OWNER", "owner ID is required", ErrEmptyOwnerID)
	}

	results := make([][]persistence.Document, len(persistence.Collections))

	var g errgroup.Group

	for i, col := range persistence.Collections {
		g.Go(func() error {
			docs, err := e.store.Query(ctx, col, persistence.ByOwner(ownerID), persistence.ByCreation())
			if err != nil {
				return &PartialReadError{Collection: col, Err: err}
			}

			results[i] = docs

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := snapshot.New(ownerID)

	for i, col := range persistence.Collections {
		docs := results[i]
		if docs == nil {
			docs = []persistence.Document{}
		}

		snap.SetRecords(col, docs)
	}

	snap.Metadata.TotalItems = snap.TotalRecords()

	return snap, nil
}
