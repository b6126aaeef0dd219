package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/brewprint/brewprint/pkg/log"
	"github.com/brewprint/brewprint/pkg/persistence"
	"github.com/brewprint/brewprint/pkg/snapshot"
)

// RestoreOptions control how a snapshot is replayed into the store.
type RestoreOptions struct {
	// Overwrite clears each destination collection for the owner before
	// inserting.
	Overwrite bool `json:"overwrite,omitempty"`

	// SkipConflicts downgrades uniqueness violations to warnings and keeps
	// going instead of recording a hard error.
	SkipConflicts bool `json:"skip_conflicts,omitempty"`

	// OwnerID is the account the data is restored into. Empty falls back to
	// the owner recorded in the snapshot metadata.
	OwnerID string `json:"owner_id,omitempty"`
}

// Importer replays snapshots into the record store.
type Importer struct {
	store  persistence.Store
	logger *slog.Logger
}

// NewImporter creates a new snapshot restorer.
func NewImporter(store persistence.Store) *Importer {
	return &Importer{
		store:  store,
		logger: log.WithModule("import"),
	}
}

// idMap tracks exported id -> freshly assigned id, per collection, so
// cross-collection references can be rewritten as records are replayed.
type idMap map[persistence.Collection]map[string]string

func (m idMap) record(col persistence.Collection, oldID, newID string) {
	if oldID == "" {
		return
	}

	if m[col] == nil {
		m[col] = make(map[string]string)
	}

	m[col][oldID] = newID
}

func (m idMap) lookup(col persistence.Collection, oldID string) (string, bool) {
	newID, ok := m[col][oldID]

	return newID, ok
}

// recipeRefs maps recipe reference fields to the collections they point at.
var recipeRefs = map[string]persistence.Collection{
	"parent_id":        persistence.CollectionRecipes,
	"bean_id":          persistence.CollectionBeans,
	"grinder_id":       persistence.CollectionGrinders,
	"brewer_id":        persistence.CollectionBrewers,
	"water_profile_id": persistence.CollectionWaterProfiles,
}

// restoreStep is one entry of the dependency-ordered import plan. A single
// generic loop processes the steps so the ordering invariant lives in one
// place instead of per-type code.
type restoreStep struct {
	col persistence.Collection

	// rewrite adjusts references through the id map. Returning false drops
	// the record with a warning instead of inserting it.
	rewrite func(doc persistence.Document, ids idMap, result *snapshot.ImportResult) bool

	// sequential inserts one record at a time, mapping each id before the
	// next record is rewritten. Required when records reference earlier
	// records of the same collection, as recipe lineage does; export order
	// is creation order, so parents always precede their children.
	sequential bool
}

// Restore replays a snapshot. It never returns an error: validation
// failures, hard errors and downgraded warnings all land in the result so
// callers can present a uniform report.
func (i *Importer) Restore(ctx context.Context, snap *snapshot.Snapshot, opts RestoreOptions) *snapshot.ImportResult {
	result := snapshot.NewImportResult()

	if snap == nil {
		result.Fail(ErrSnapshotNil.Error())

		return result
	}

	if err := snap.Validate(); err != nil {
		result.Fail(err.Error())

		return result
	}

	owner := opts.OwnerID
	if owner == "" {
		owner = snap.Metadata.OwnerID
	}

	if owner == "" {
		result.Fail(ErrEmptyOwnerID.Error())

		return result
	}

	ids := idMap{}

	// Primary entities in dependency order: recipes reference everything
	// before them, so they go last.
	plan := []restoreStep{
		{col: persistence.CollectionBeans},
		{col: persistence.CollectionGrinders},
		{col: persistence.CollectionBrewers},
		{col: persistence.CollectionWaterProfiles},
		{col: persistence.CollectionFolders},
		{col: persistence.CollectionTags},
		{col: persistence.CollectionRecipes, rewrite: rewriteRecipeRefs, sequential: true},
	}

	hardFailed := false

	for _, step := range plan {
		count, err := i.importCollection(ctx, step, snap.Records(step.col), owner, opts, ids, result)
		result.Imported[string(step.col)] = count

		if err != nil {
			// Best-effort continuation: record the failure and keep going so
			// the user recovers as much as possible from a bad backup.
			result.Fail(err.Error())

			hardFailed = true
		}
	}

	// Relationship replay happens only after every primary collection has
	// been attempted. Losing organizational metadata is recoverable, so
	// failures here are always warnings.
	relations := []restoreStep{
		{col: persistence.CollectionFolderMemberships, rewrite: rewriteFolderMembership},
		{col: persistence.CollectionTagMemberships, rewrite: rewriteTagMembership},
	}

	for _, step := range relations {
		count, err := i.importCollection(ctx, step, snap.Records(step.col), owner, opts, ids, result)
		result.Imported[string(step.col)] = count

		if err != nil {
			result.Warn(err.Error())
		}
	}

	result.Success = !hardFailed

	return result
}

// importCollection replays one collection: strip store-assigned fields,
// stamp the target owner, rewrite references, then insert as one batch with
// a per-record fallback when conflicts are being skipped.
func (i *Importer) importCollection(
	ctx context.Context,
	step restoreStep,
	docs []persistence.Document,
	owner string,
	opts RestoreOptions,
	ids idMap,
	result *snapshot.ImportResult,
) (int, error) {
	if opts.Overwrite {
		if err := i.store.DeleteWhere(ctx, step.col, persistence.ByOwner(owner)); err != nil {
			return 0, fmt.Errorf("failed to clear %s before import: %w", step.col, err)
		}
	}

	if len(docs) == 0 {
		return 0, nil
	}

	if step.sequential {
		return i.importSequential(ctx, step, docs, owner, opts, ids, result)
	}

	prepared := make([]persistence.Document, 0, len(docs))
	exportedIDs := make([]string, 0, len(docs))

	for _, doc := range docs {
		oldID := doc.ID()

		p := doc.Clone()
		for _, field := range persistence.SystemFields {
			delete(p, field)
		}

		p["user_id"] = owner

		if step.rewrite != nil && !step.rewrite(p, ids, result) {
			continue
		}

		prepared = append(prepared, p)
		exportedIDs = append(exportedIDs, oldID)
	}

	newIDs, err := i.store.InsertMany(ctx, step.col, prepared)
	if err == nil {
		for k, newID := range newIDs {
			ids.record(step.col, exportedIDs[k], newID)
		}

		return len(newIDs), nil
	}

	if !persistence.IsConflict(err) || !opts.SkipConflicts {
		return 0, fmt.Errorf("failed to import %s: %w", step.col, err)
	}

	// The batch hit a uniqueness violation and the caller asked to skip
	// conflicts: fall back to one insert per record so everything that can
	// land does, and count only what was actually inserted.
	count := 0

	for k, p := range prepared {
		inserted, insErr := i.store.Insert(ctx, step.col, p)
		if insErr == nil {
			ids.record(step.col, exportedIDs[k], inserted.ID())
			count++

			continue
		}

		if persistence.IsConflict(insErr) {
			result.Warn(fmt.Sprintf("skipped conflicting record in %s", step.col))

			continue
		}

		return count, fmt.Errorf("failed to import %s: %w", step.col, insErr)
	}

	i.logger.InfoContext(ctx, "imported collection with skipped conflicts",
		"collection", step.col, "inserted", count, "total", len(prepared))

	return count, nil
}

// importSequential replays records one by one so each freshly assigned id is
// visible when the record after it is rewritten.
func (i *Importer) importSequential(
	ctx context.Context,
	step restoreStep,
	docs []persistence.Document,
	owner string,
	opts RestoreOptions,
	ids idMap,
	result *snapshot.ImportResult,
) (int, error) {
	count := 0

	for _, doc := range docs {
		oldID := doc.ID()

		p := doc.Clone()
		for _, field := range persistence.SystemFields {
			delete(p, field)
		}

		p["user_id"] = owner

		if step.rewrite != nil && !step.rewrite(p, ids, result) {
			continue
		}

		inserted, err := i.store.Insert(ctx, step.col, p)
		if err != nil {
			if persistence.IsConflict(err) && opts.SkipConflicts {
				result.Warn(fmt.Sprintf("skipped conflicting record in %s", step.col))

				continue
			}

			return count, fmt.Errorf("failed to import %s: %w", step.col, err)
		}

		ids.record(step.col, oldID, inserted.ID())
		count++
	}

	return count, nil
}

// rewriteRecipeRefs maps gear and lineage references onto the freshly
// assigned ids. An unresolvable reference is nulled with a warning rather
// than left pointing at an id from the exporting store.
func rewriteRecipeRefs(doc persistence.Document, ids idMap, result *snapshot.ImportResult) bool {
	for field, col := range recipeRefs {
		oldID, ok := doc[field].(string)
		if !ok || oldID == "" {
			continue
		}

		if newID, found := ids.lookup(col, oldID); found {
			doc[field] = newID

			continue
		}

		delete(doc, field)
		result.Warn(fmt.Sprintf("recipe %q: dropped unresolved %s reference", doc["name"], field))
	}

	return true
}

func rewriteFolderMembership(doc persistence.Document, ids idMap, result *snapshot.ImportResult) bool {
	return rewriteRequiredRef(doc, "folder_id", persistence.CollectionFolders, ids, result) &&
		rewriteRequiredRef(doc, "recipe_id", persistence.CollectionRecipes, ids, result)
}

func rewriteTagMembership(doc persistence.Document, ids idMap, result *snapshot.ImportResult) bool {
	return rewriteRequiredRef(doc, "recipe_id", persistence.CollectionRecipes, ids, result)
}

// rewriteRequiredRef remaps one reference a relation cannot exist without;
// the record is dropped with a warning when the target never made it in.
func rewriteRequiredRef(
	doc persistence.Document,
	field string,
	col persistence.Collection,
	ids idMap,
	result *snapshot.ImportResult,
) bool {
	oldID, _ := doc[field].(string)
	if oldID == "" {
		result.Warn(fmt.Sprintf("dropped membership record without %s", field))

		return false
	}

	newID, found := ids.lookup(col, oldID)
	if !found {
		result.Warn(fmt.Sprintf("dropped membership record: unresolved %s", field))

		return false
	}

	doc[field] = newID

	return true
}
