package snapshot

import "github.com/brewprint/brewprint/pkg/persistence"

// ImportResult reports what a restore did, collection by collection. Restore
// never throws: every failure lands in Errors or Warnings so the caller
// always sees the complete picture.
type ImportResult struct {
	Success  bool           `json:"success"`
	Imported map[string]int `json:"imported_counts"`
	Errors   []string       `json:"errors"`
	Warnings []string       `json:"warnings"`
}

// NewImportResult returns a result with zero counts for every collection.
func NewImportResult() *ImportResult {
	counts := make(map[string]int, len(persistence.Collections))
	for _, col := range persistence.Collections {
		counts[string(col)] = 0
	}

	return &ImportResult{
		Success:  true,
		Imported: counts,
		Errors:   []string{},
		Warnings: []string{},
	}
}

// Fail records a hard error and marks the import unsuccessful.
func (r *ImportResult) Fail(msg string) {
	r.Success = false
	r.Errors = append(r.Errors, msg)
}

// Warn records a downgraded, non-fatal failure.
func (r *ImportResult) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}
