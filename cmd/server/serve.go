package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/digiplay/digiplay-server/internal/api"
	"github.com/digiplay/digiplay-server/internal/config"
	"github.com/digiplay/digiplay-server/internal/otp"
	"github.com/digiplay/digiplay-server/internal/repository"
	"github.com/digiplay/digiplay-server/internal/service"
	"github.com/digiplay/digiplay-server/internal/store"
	"github.com/digiplay/digiplay-server/internal/updates"
	"github.com/digiplay/digiplay-server/internal/utils"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := utils.NewLogger("server")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	// Set up database connection
	db, err := config.SetupDatabase(cfg)
	if err != nil {
		return fmt.Errorf("failed to set up database: %w", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Create repository and document store
	repo := repository.NewSQLRepository(db)
	st := store.New(repo, store.NewSeeder(nil, nil), utils.NewLogger("store"))

	verifier, err := otp.New(cfg.OTP, repo, nil, utils.NewLogger("otp"))
	if err != nil {
		return err
	}

	hub := updates.NewHub(utils.NewLogger("updates"))
	go hub.Run(ctx)
	releases := updates.NewReleases(cfg.Updates.CurrentVersion, cfg.Updates.PollInterval, hub)

	// Create service
	svc := service.NewDefaultService(repo, st, verifier, releases, cfg.Auth, utils.NewLogger("service"))

	// Create API handler
	handler := api.NewHandler(svc, hub, cfg.Auth.AdminToken, utils.NewLogger("api"))

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		api.RequestIDMiddleware(),
		api.LoggerMiddleware(utils.NewLogger("http")),
		api.MetricsMiddleware(),
		api.JWTSecretMiddleware(cfg.Auth.JWTSecret),
	)
	handler.SetupRoutes(router)

	// Start server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr, "db_driver", cfg.Database.Driver, "otp_mode", cfg.OTP.Mode)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
