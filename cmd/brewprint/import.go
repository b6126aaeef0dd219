package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/brewprint/brewprint/pkg/log"
	"github.com/brewprint/brewprint/pkg/services"
	"github.com/brewprint/brewprint/pkg/snapshot"
)

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Restore a snapshot file into the library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "input",
				Aliases:  []string{"i"},
				Usage:    "Path of the snapshot file to read",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "owner-id",
				Aliases: []string{"u"},
				Usage:   "Owner to import the records under (defaults to the snapshot's owner)",
			},
			&cli.BoolFlag{
				Name:  "overwrite",
				Usage: "Delete the owner's existing records before importing",
			},
			&cli.BoolFlag{
				Name:  "skip-conflicts",
				Usage: "Skip records that collide with existing ones instead of failing the collection",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			importLogger := log.WithModule("import")

			_, store, err := loadEnvironment(ctx, command, "import")
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					importLogger.ErrorContext(ctx, "failed to close store", "error", err)
				}
			}()

			data, err := os.ReadFile(command.String("input"))
			if err != nil {
				return err
			}

			snap, err := snapshot.Decode(data)
			if err != nil {
				return err
			}

			importer := services.NewImporter(store)
			result := importer.Restore(ctx, snap, services.RestoreOptions{
				OwnerID:       command.String("owner-id"),
				Overwrite:     command.Bool("overwrite"),
				SkipConflicts: command.Bool("skip-conflicts"),
			})

			for _, warning := range result.Warnings {
				importLogger.WarnContext(ctx, warning)
			}

			for _, importErr := range result.Errors {
				importLogger.ErrorContext(ctx, importErr)
			}

			importLogger.InfoContext(ctx, "import finished",
				"success", result.Success,
				"imported", result.Imported,
			)

			if !result.Success {
				os.Exit(1)
			}

			return nil
		},
	}
}
