package postgresql

import (
	"context"
	"fmt"

	"github.com/brewprint/brewprint/pkg/persistence"
)

// migrate bootstraps one table per collection plus the unique indexes backing
// the store's conflict semantics. Statements are idempotent so startup can
// run them unconditionally.
func (s *Store) migrate(ctx context.Context) error {
	for _, col := range persistence.Collections {
		table := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL,
				data       JSONB NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`, string(col))

		if _, err := s.db.ExecContext(ctx, table); err != nil {
			return fmt.Errorf("failed to create table %s: %w", col, err)
		}

		owner := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_owner_idx ON %s (user_id, created_at)`, col, col)
		if _, err := s.db.ExecContext(ctx, owner); err != nil {
			return fmt.Errorf("failed to index table %s: %w", col, err)
		}

		if stmt := uniqueIndexStatement(col); stmt != "" {
			if _, err := s.db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create unique index on %s: %w", col, err)
			}
		}
	}

	return nil
}

func uniqueIndexStatement(col persistence.Collection) string {
	fields := persistence.UniqueKeys[col]
	if len(fields) == 0 {
		return ""
	}

	expr := ""

	for i, f := range fields {
		if i > 0 {
			expr += ", "
		}

		if f == "user_id" {
			expr += "user_id"
		} else {
			expr += fmt.Sprintf("(data->>'%s')", f)
		}
	}

	return fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s_unique_idx ON %s (%s)`, col, col, expr)
}
