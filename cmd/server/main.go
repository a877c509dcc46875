package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"siteinspector.com/console/internal/api"
	"siteinspector.com/console/internal/backend"
	"siteinspector.com/console/internal/config"
	"siteinspector.com/console/internal/core"
	"siteinspector.com/console/internal/logging"
	"siteinspector.com/console/internal/session"
	"siteinspector.com/console/internal/store"
)

const (
	feedIdleTTL     = 10 * time.Minute
	sessionIdleTTL  = 30 * 24 * time.Hour
	sessionPurgeInt = time.Hour
)

func main() {
	// Load configuration
	config.LoadConfig()
	cfg := config.AppConfig

	// Setup logging
	logger := logging.Setup(os.Stderr, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	// Initialize session store
	dbStore, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to initialize database", "err", err)
		os.Exit(1)
	}
	defer dbStore.Close()

	renderer, err := api.NewRenderer()
	if err != nil {
		logger.Error("failed to parse templates", "err", err)
		os.Exit(1)
	}

	backendClient := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	sessions := session.NewManager(dbStore, []byte(cfg.SessionSecret), cfg.SecureCookies)
	chatService := core.NewChatService(backendClient, cfg.ChatPollInterval, feedIdleTTL)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go chatService.RunJanitor(ctx)
	go purgeSessions(ctx, dbStore)

	// Initialize API Handler and Router
	apiHandler := api.NewAPIHandler(backendClient, chatService, renderer, cfg.MaxUploadBytes())
	router := api.NewRouter(apiHandler, sessions)

	serverAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	srv := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute, // uploads
		WriteTimeout:      cfg.BackendTimeout + 15*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("starting server", "addr", serverAddr, "backend", backendClient.BaseURL())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("could not listen", "addr", serverAddr, "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "err", err)
	}
	logger.Info("server exiting")
}

// purgeSessions drops console sessions nobody has used for a month.
func purgeSessions(ctx context.Context, s *store.SQLiteStore) {
	ticker := time.NewTicker(sessionPurgeInt)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeIdleSessions(ctx, time.Now().Add(-sessionIdleTTL))
			if err != nil {
				slog.ErrorContext(ctx, "failed to purge sessions", "err", err)
				continue
			}
			if n > 0 {
				slog.InfoContext(ctx, "purged idle sessions", "count", n)
			}
		}
	}
}
