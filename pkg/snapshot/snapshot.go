// Package snapshot defines the portable export format for a user's complete
// dataset and the result shape produced when one is restored.
package snapshot

import (
	"errors"
	"fmt"
	"time"

	"github.com/brewprint/brewprint/pkg/persistence"
)

// FormatVersion is the snapshot format this build writes and restores.
const FormatVersion = "1.0.0"

// ErrUnsupportedFormat indicates a snapshot was produced by an incompatible
// format version.
var ErrUnsupportedFormat = errors.New("unsupported snapshot format")

// ErrMissingCollection indicates a snapshot omitted a required collection key.
var ErrMissingCollection = errors.New("snapshot is missing a collection")

// Metadata is the self-describing header of a snapshot.
type Metadata struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exported_at"`
	OwnerID    string    `json:"owner_id"`
	TotalItems int       `json:"total_items"`
}

// Snapshot aggregates every collection of one owner's data. It is built
// entirely in memory and never persisted as its own record.
type Snapshot struct {
	Metadata Metadata `json:"metadata"`

	Beans         []persistence.Document `json:"beans"`
	Grinders      []persistence.Document `json:"grinders"`
	Brewers       []persistence.Document `json:"brewers"`
	WaterProfiles []persistence.Document `json:"water_profiles"`
	Recipes       []persistence.Document `json:"recipes"`
	Folders       []persistence.Document `json:"folders"`
	Tags          []persistence.Document `json:"tags"`

	FolderMemberships []persistence.Document `json:"folder_memberships"`
	TagMemberships    []persistence.Document `json:"tag_memberships"`
}

// New returns an empty snapshot with every collection present.
func New(ownerID string) *Snapshot {
	s := &Snapshot{
		Metadata: Metadata{
			Version:    FormatVersion,
			ExportedAt: time.Now().UTC(),
			OwnerID:    ownerID,
		},
	}

	for _, col := range persistence.Collections {
		s.SetRecords(col, []persistence.Document{})
	}

	return s
}

func (s *Snapshot) records(col persistence.Collection) *[]persistence.Document {
	switch col {
	case persistence.CollectionBeans:
		return &s.Beans
	case persistence.CollectionGrinders:
		return &s.Grinders
	case persistence.CollectionBrewers:
		return &s.Brewers
	case persistence.CollectionWaterProfiles:
		return &s.WaterProfiles
	case persistence.CollectionRecipes:
		return &s.Recipes
	case persistence.CollectionFolders:
		return &s.Folders
	case persistence.CollectionTags:
		return &s.Tags
	case persistence.CollectionFolderMemberships:
		return &s.FolderMemberships
	case persistence.CollectionTagMemberships:
		return &s.TagMemberships
	default:
		return nil
	}
}

// Records returns the documents of one collection.
func (s *Snapshot) Records(col persistence.Collection) []persistence.Document {
	if r := s.records(col); r != nil {
		return *r
	}

	return nil
}

// SetRecords replaces the documents of one collection.
func (s *Snapshot) SetRecords(col persistence.Collection, docs []persistence.Document) {
	if r := s.records(col); r != nil {
		*r = docs
	}
}

// TotalRecords counts the documents across all collections.
func (s *Snapshot) TotalRecords() int {
	total := 0
	for _, col := range persistence.Collections {
		total += len(s.Records(col))
	}

	return total
}

// Validate checks the snapshot against the supported format: the version
// must match exactly and every collection key must be present, even if empty.
func (s *Snapshot) Validate() error {
	if s.Metadata.Version != FormatVersion {
		return fmt.Errorf("%w: got %q, want %q", ErrUnsupportedFormat, s.Metadata.Version, FormatVersion)
	}

	for _, col := range persistence.Collections {
		if s.Records(col) == nil {
			return fmt.Errorf("%w: %s", ErrMissingCollection, col)
		}
	}

	return nil
}
