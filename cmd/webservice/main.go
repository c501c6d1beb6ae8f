package main

import (
	"context"
	"os/signal"
	"syscall"

	_ "time/tzdata"

	"github.com/alimikegami/e-commerce/storefront-service/config"
	"github.com/alimikegami/e-commerce/storefront-service/internal/app"
	"github.com/alimikegami/e-commerce/storefront-service/internal/infrastructure/database/postgres"
	"github.com/rs/zerolog/log"
)

func main() {
	app.InitLogger()

	config := config.CreateNewConfig()
	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	db, err := postgres.GetDBInstance(config.PostgreSQLConfig.DBUsername, config.PostgreSQLConfig.DBPassword, config.PostgreSQLConfig.DBHost, config.PostgreSQLConfig.DBPort, config.PostgreSQLConfig.DBName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	application := app.App{DB: db, Config: config}
	if err := application.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize application")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- application.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("Server stopped")
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	if err := application.StopServer(); err != nil {
		log.Error().Err(err).Msg("Failed to stop server cleanly")
	}
}
