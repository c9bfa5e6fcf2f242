// Debate server: runs one multi-agent debate at a time and streams its events.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agentic_debate/pkg/api"
	"agentic_debate/pkg/api/config"
	apiDebate "agentic_debate/pkg/api/debate"
	"agentic_debate/pkg/app"
	coreConfig "agentic_debate/pkg/core/config"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	configPath := os.Getenv("DEBATE_CONFIG")
	if configPath == "" {
		configPath = "config/server.toml"
	}
	cfg, err := coreConfig.Load(configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := app.NewLogger(os.Stdout, "json", cfg.Server.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		slog.Error("Failed to initialize debate runtime", "error", err)
		os.Exit(1)
	}
	defer a.Close()

	router := api.NewRouter(api.Options{
		Debate: apiDebate.NewHandler(a.Manager, a.Roster, apiDebate.Defaults{
			DurationSeconds:   cfg.Debate.DurationSeconds,
			ExchangesPerRound: cfg.Debate.ExchangesPerRound,
		}, logger),
		Config:     config.NewHandler(a.Agents),
		CORSOrigin: cfg.Server.CORSOrigin,
		Logger:     logger,
	})

	// SSE streams stay open for the whole debate, so no WriteTimeout.
	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("Server listening", "addr", cfg.Server.Addr, "provider", a.Agents.GetActiveProvider())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server...")

	if err := a.Manager.Stop(); err == nil {
		waitCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		if err := a.Manager.Wait(waitCtx); err != nil {
			slog.Warn("Debate did not conclude before shutdown", "error", err)
		}
		cancel()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	slog.Info("Server stopped")
}
