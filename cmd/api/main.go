package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flarewise/internal"
	"flarewise/internal/config"
	"flarewise/internal/container"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	logger := internal.NewDefaultLogger()

	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration: %v", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.Server.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create container: %v", err)
		os.Exit(1)
	}
	if err := c.Init(ctx); err != nil {
		logger.Error("failed to initialize container: %v", err)
		os.Exit(1)
	}
	defer c.Shutdown(context.Background())

	apiSrv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           c.APIServer().Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	opsSrv := &http.Server{
		Addr:              ":" + cfg.Server.OpsPort,
		Handler:           c.OpsHandler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 2)
	for _, srv := range []*http.Server{apiSrv, opsSrv} {
		go func(srv *http.Server) {
			logger.Info("listening on %s", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- err
			}
		}(srv)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errs:
		logger.Error("server failed: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{apiSrv, opsSrv} {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown %s: %v", srv.Addr, err)
		}
	}
}
