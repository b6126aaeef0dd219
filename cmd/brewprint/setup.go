package main

import (
	"context"

	cli "github.com/urfave/cli/v3"

	"github.com/brewprint/brewprint/pkg/cmd"
	"github.com/brewprint/brewprint/pkg/config"
	"github.com/brewprint/brewprint/pkg/log"
	"github.com/brewprint/brewprint/pkg/persistence"
)

// loadEnvironment resolves config from file, environment and flags (flags
// win), installs the logger, and opens the record store.
func loadEnvironment(ctx context.Context, command *cli.Command, module string) (config.Config, persistence.Store, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return config.Config{}, nil, err
	}

	if v := command.String("database-url"); v != "" {
		cfg.DatabaseURL = v
	}

	if v := command.String("log-level"); v != "" {
		cfg.LogLevel = v
	}

	log.Setup(cfg.LogLevel)

	store, err := cmd.NewStore(ctx, log.WithModule(module), cfg.DatabaseURL)
	if err != nil {
		return config.Config{}, nil, err
	}

	return cfg, store, nil
}
