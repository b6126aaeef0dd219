// Package postgresql provides a PostgreSQL implementation of the record
// store. Records are kept as jsonb documents, one table per collection, with
// indexed columns for identity, ownership and creation order.
package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/brewprint/brewprint/pkg/persistence"
)

// Store implements persistence.Store on PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore opens a connection pool and bootstraps the schema.
func NewStore(ctx context.Context, databaseURL string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		return nil, err
	}

	return s, nil
}

var fieldNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Insert writes one record, assigning identity and timestamps.
func (s *Store) Insert(ctx context.Context, col persistence.Collection, doc persistence.Document) (persistence.Document, error) {
	if !persistence.KnownCollection(col) {
		return nil, persistence.NewStoreError("Insert", col, "", persistence.ErrUnknownCollection)
	}

	stored := stamp(doc)

	if err := s.insertOne(ctx, s.db, col, stored); err != nil {
		return nil, err
	}

	return stored, nil
}

// InsertMany writes a batch inside one transaction; a failed batch leaves the
// store untouched.
func (s *Store) InsertMany(ctx context.Context, col persistence.Collection, docs []persistence.Document) ([]string, error) {
	if !persistence.KnownCollection(col) {
		return nil, persistence.NewStoreError("InsertMany", col, "", persistence.ErrUnknownCollection)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistence.NewStoreError("InsertMany", col, "", err)
	}

	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		stored := stamp(doc)

		if err := s.insertOne(ctx, tx, col, stored); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.ErrorContext(ctx, "failed to roll back batch insert", "collection", col, "error", rbErr)
			}

			return nil, err
		}

		ids = append(ids, stored.ID())
	}

	if err := tx.Commit(); err != nil {
		return nil, persistence.NewStoreError("InsertMany", col, "", err)
	}

	return ids, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *Store) insertOne(ctx context.Context, db execer, col persistence.Collection, stored persistence.Document) error {
	data, err := json.Marshal(stored)
	if err != nil {
		return persistence.NewStoreError("Insert", col, "", err)
	}

	owner, _ := stored["user_id"].(string)

	query := fmt.Sprintf(
		`INSERT INTO %s (id, user_id, data, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
		string(col),
	)

	now, _ := stored["created_at"].(string)
	if _, err := db.ExecContext(ctx, query, stored.ID(), owner, data, now); err != nil {
		return persistence.NewStoreError("Insert", col, stored.ID(), mapPQError(err))
	}

	return nil
}

// UpdateByID merges fields into the stored document. Identity and creation
// time are not patchable.
func (s *Store) UpdateByID(ctx context.Context, col persistence.Collection, id string, fields persistence.Document) (persistence.Document, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistence.NewStoreError("UpdateByID", col, id, err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	var raw []byte

	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = $1 FOR UPDATE`, string(col))
	if err := tx.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("UpdateByID", col, id, persistence.ErrNotFound)
		}

		return nil, persistence.NewStoreError("UpdateByID", col, id, err)
	}

	var stored persistence.Document
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, persistence.NewStoreError("UpdateByID", col, id, err)
	}

	for k, v := range fields {
		if k == "id" || k == "created_at" {
			continue
		}

		stored[k] = v
	}

	stored["updated_at"] = time.Now().UTC().Format(time.RFC3339Nano)

	data, err := json.Marshal(stored)
	if err != nil {
		return nil, persistence.NewStoreError("UpdateByID", col, id, err)
	}

	owner, _ := stored["user_id"].(string)

	update := fmt.Sprintf(`UPDATE %s SET data = $1, user_id = $2, updated_at = now() WHERE id = $3`, string(col))
	if _, err := tx.ExecContext(ctx, update, data, owner, id); err != nil {
		return nil, persistence.NewStoreError("UpdateByID", col, id, mapPQError(err))
	}

	if err := tx.Commit(); err != nil {
		return nil, persistence.NewStoreError("UpdateByID", col, id, err)
	}

	return stored, nil
}

// DeleteByID removes a record. Deleting a missing record is not an error.
func (s *Store) DeleteByID(ctx context.Context, col persistence.Collection, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, string(col))
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return persistence.NewStoreError("DeleteByID", col, id, err)
	}

	return nil
}

// DeleteWhere removes every record matching the filter.
func (s *Store) DeleteWhere(ctx context.Context, col persistence.Collection, filter persistence.Filter) error {
	where, args, err := buildWhere(filter)
	if err != nil {
		return persistence.NewStoreError("DeleteWhere", col, "", err)
	}

	query := fmt.Sprintf(`DELETE FROM %s%s`, string(col), where)
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return persistence.NewStoreError("DeleteWhere", col, "", err)
	}

	return nil
}

// GetByID reads one record.
func (s *Store) GetByID(ctx context.Context, col persistence.Collection, id string) (persistence.Document, error) {
	var raw []byte

	query := fmt.Sprintf(`SELECT data FROM %s WHERE id = $1`, string(col))
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("GetByID", col, id, persistence.ErrNotFound)
		}

		return nil, persistence.NewStoreError("GetByID", col, id, err)
	}

	var doc persistence.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, persistence.NewStoreError("GetByID", col, id, err)
	}

	return doc, nil
}

// Query returns all records matching the filter, sorted by the given order.
func (s *Store) Query(ctx context.Context, col persistence.Collection, filter persistence.Filter, order ...persistence.Order) ([]persistence.Document, error) {
	if !persistence.KnownCollection(col) {
		return nil, persistence.NewStoreError("Query", col, "", persistence.ErrUnknownCollection)
	}

	where, args, err := buildWhere(filter)
	if err != nil {
		return nil, persistence.NewStoreError("Query", col, "", err)
	}

	orderClause, err := buildOrder(order)
	if err != nil {
		return nil, persistence.NewStoreError("Query", col, "", err)
	}

	query := fmt.Sprintf(`SELECT data FROM %s%s%s`, string(col), where, orderClause)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, persistence.NewStoreError("Query", col, "", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			s.logger.ErrorContext(ctx, "failed to close rows", "collection", col, "error", closeErr)
		}
	}()

	var docs []persistence.Document

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, persistence.NewStoreError("Query", col, "", err)
		}

		var doc persistence.Document
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, persistence.NewStoreError("Query", col, "", err)
		}

		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		return nil, persistence.NewStoreError("Query", col, "", err)
	}

	if docs == nil {
		docs = []persistence.Document{}
	}

	return docs, nil
}

// HealthCheck pings the database.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close(_ context.Context) error {
	return s.db.Close()
}

func stamp(doc persistence.Document) persistence.Document {
	stored := doc.Clone()
	now := time.Now().UTC().Format(time.RFC3339Nano)
	stored["id"] = uuid.New().String()
	stored["created_at"] = now
	stored["updated_at"] = now

	return stored
}

// buildWhere renders an equality filter into a WHERE clause. Identity and
// ownership hit their dedicated columns; everything else goes through jsonb.
func buildWhere(filter persistence.Filter) (string, []any, error) {
	if len(filter) == 0 {
		return "", nil, nil
	}

	clause := " WHERE "
	args := make([]any, 0, len(filter))
	first := true

	for field, value := range filter {
		if !fieldNameRe.MatchString(field) {
			return "", nil, fmt.Errorf("%w: field %q", persistence.ErrInvalidFilter, field)
		}

		if !first {
			clause += " AND "
		}

		first = false
		args = append(args, fmt.Sprint(value))

		switch field {
		case "id", "user_id":
			clause += fmt.Sprintf("%s = $%d", field, len(args))
		default:
			clause += fmt.Sprintf("data->>'%s' = $%d", field, len(args))
		}
	}

	return clause, args, nil
}

func buildOrder(order []persistence.Order) (string, error) {
	if len(order) == 0 {
		return "", nil
	}

	o := order[0]
	if !fieldNameRe.MatchString(o.Field) {
		return "", fmt.Errorf("%w: order field %q", persistence.ErrInvalidFilter, o.Field)
	}

	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}

	switch o.Field {
	case "created_at", "updated_at":
		return fmt.Sprintf(" ORDER BY %s %s", o.Field, dir), nil
	default:
		return fmt.Sprintf(" ORDER BY data->>'%s' %s", o.Field, dir), nil
	}
}

// mapPQError translates driver errors into the store taxonomy.
func mapPQError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return persistence.ErrConflict
	}

	return err
}
