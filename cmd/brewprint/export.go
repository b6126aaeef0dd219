package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/brewprint/brewprint/pkg/log"
	"github.com/brewprint/brewprint/pkg/services"
	"github.com/brewprint/brewprint/pkg/snapshot"
)

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export a user's full library as a snapshot file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "owner-id",
				Aliases:  []string{"u"},
				Usage:    "Owner whose records are exported",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Path of the snapshot file to write",
				Value:   "snapshot.json",
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			exportLogger := log.WithModule("export")

			_, store, err := loadEnvironment(ctx, command, "export")
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					exportLogger.ErrorContext(ctx, "failed to close store", "error", err)
				}
			}()

			exporter := services.NewExporter(store)

			snap, err := exporter.Build(ctx, command.String("owner-id"))
			if err != nil {
				return err
			}

			data, err := snapshot.Encode(snap)
			if err != nil {
				return err
			}

			output := command.String("output")
			if err := os.WriteFile(output, data, 0o600); err != nil {
				return err
			}

			exportLogger.InfoContext(ctx, "snapshot written",
				"path", output,
				"total_items", snap.Metadata.TotalItems,
			)

			return nil
		},
	}
}
