package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	cli "github.com/urfave/cli/v3"

	"github.com/brewprint/brewprint/pkg/log"
)

func main() {
	_ = godotenv.Load()

	cmd := &cli.Command{
		Name:                  "brewprint",
		Usage:                 "Version, export and restore coffee brewing recipes",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "brewprint.yaml",
				Sources: cli.EnvVars("BREWPRINT_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "database-url",
				Usage:   "Record store URL (file://, postgres:// or mongodb://)",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			apiCommand(),
			exportCommand(),
			importCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithModule("main").Error("command failed", "error", err)
		os.Exit(1)
	}
}
