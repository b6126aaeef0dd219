package main

import (
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	cli "github.com/urfave/cli/v3"

	"github.com/brewprint/brewprint/pkg/log"
	"github.com/brewprint/brewprint/pkg/persistence"
	"github.com/brewprint/brewprint/pkg/web"
)

func apiCommand() *cli.Command {
	return &cli.Command{
		Name:  "api",
		Usage: "Serve the recipe HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Sources: cli.EnvVars("PORT"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			apiLogger := log.WithModule("api")

			cfg, store, err := loadEnvironment(ctx, command, "api")
			if err != nil {
				return err
			}

			defer func() {
				if err := store.Close(ctx); err != nil {
					apiLogger.ErrorContext(ctx, "failed to close store", "error", err)
				}
			}()

			port := cfg.Port
			if command.Int("port") != 0 {
				port = command.Int("port")
			}

			apiLogger.InfoContext(ctx, "starting brewprint API", "port", port)

			return newApp(store).Listen(":" + strconv.Itoa(port))
		},
	}
}

func newApp(store persistence.Store) *fiber.App {
	validate := validator.New(validator.WithRequiredStructEnabled())
	handlers := web.NewAPIHandlers(store, validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Brewprint API")
	})

	r := app.Group("/recipes")
	r.Get("/", handlers.ListRecipes)
	r.Post("/", handlers.CreateRecipe)
	r.Get("/:id", handlers.GetRecipe)
	r.Patch("/:id", handlers.UpdateRecipe)
	r.Delete("/:id", handlers.DeleteRecipe)
	r.Post("/:id/branch", handlers.BranchRecipe)
	r.Post("/:id/results", handlers.RecordResult)
	r.Post("/:id/finalize", handlers.FinalizeRecipe)
	r.Post("/:id/archive", handlers.ArchiveRecipe)
	r.Get("/:id/chain", handlers.GetChain)

	app.Post("/gear/:collection/:id/default", handlers.SetDefaultGear)

	app.Get("/export", handlers.ExportSnapshot)
	app.Post("/import", handlers.ImportSnapshot)

	app.Get("/health", handlers.HealthCheck)

	return app
}
