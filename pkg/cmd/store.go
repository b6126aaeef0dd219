// Package cmd provides shared construction helpers for the brewprint
// binaries.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/brewprint/brewprint/pkg/persistence"
	"github.com/brewprint/brewprint/pkg/persistence/file"
	"github.com/brewprint/brewprint/pkg/persistence/mongodb"
	"github.com/brewprint/brewprint/pkg/persistence/postgresql"
)

// NewStore builds a record store from a database URL, dispatching on scheme.
// Anything without a recognized scheme is treated as a file store path.
func NewStore(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Store, error) {
	switch {
	case strings.HasPrefix(databaseURL, "postgres://"), strings.HasPrefix(databaseURL, "postgresql://"):
		return postgresql.NewStore(ctx, databaseURL, logger)

	case strings.HasPrefix(databaseURL, "mongodb://"), strings.HasPrefix(databaseURL, "mongodb+srv://"):
		database, err := mongoDatabase(databaseURL)
		if err != nil {
			return nil, err
		}

		return mongodb.NewStore(ctx, databaseURL, database)

	default:
		return file.NewStore(databaseURL), nil
	}
}

func mongoDatabase(databaseURL string) (string, error) {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid mongodb URL: %w", err)
	}

	database := strings.TrimPrefix(u.Path, "/")
	if database == "" {
		database = "brewprint"
	}

	return database, nil
}
