// Package app wires the configured collaborators into a debate.Manager. Both
// binaries build their runtime through it.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"agentic_debate/pkg/core/agent"
	"agentic_debate/pkg/core/config"
	"agentic_debate/pkg/core/debate"
	"agentic_debate/pkg/core/prompt"
	"agentic_debate/pkg/core/roster"
	"agentic_debate/pkg/core/store"
	"agentic_debate/pkg/core/stream"
)

// App holds everything a server or CLI run needs.
type App struct {
	Config  config.Config
	Roster  *roster.Roster
	Agents  *agent.Manager
	Manager *debate.Manager

	closers []func()
}

// NewLogger builds a slog logger writing to w. format is "json" or "text".
func NewLogger(w io.Writer, format, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// ParseLevel maps a LOG_LEVEL value to a slog level. Unknown values mean info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New loads the roster, prompts and provider routing named by cfg and builds
// the manager with its archive and sinks. Call Close when done.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &App{Config: cfg}

	rs, err := roster.Load(cfg.Paths.Roster)
	if err != nil {
		return nil, err
	}
	a.Roster = rs
	counts := rs.Info().Counts
	logger.Info("roster loaded", "path", cfg.Paths.Roster, "proposition", counts.Proposition, "total", counts.Total)

	if _, err := prompt.LoadFromDirectory(cfg.Paths.Prompts); err != nil {
		return nil, err
	}

	models, err := LoadModels(cfg.Paths.Models, logger)
	if err != nil {
		return nil, err
	}
	a.Agents = agent.NewManager(models, logger)

	mc := debate.ManagerConfig{
		Roster:    rs,
		Generator: a.Agents,
		Options: debate.Options{
			Logger:             logger,
			LenientTransitions: cfg.Debate.LenientTransitions,
			SummaryChunkWords:  cfg.Debate.SummaryChunkWords,
		},
		BufferSize: cfg.Debate.EventBufferSize,
	}

	archive, err := a.openArchive(ctx, cfg.Archive, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if archive != nil {
		mc.Archive = archive
	}

	if cfg.Stream.RedisURL != "" {
		sink, err := a.openRedis(ctx, cfg.Stream, logger)
		if err != nil {
			logger.Warn("redis event stream disabled", "error", err)
		} else {
			mc.Sinks = append(mc.Sinks, sink)
		}
	}

	a.Manager = debate.NewManager(mc)
	return a, nil
}

// LoadModels reads the provider routing file. A missing file falls back to
// gemini for every agent.
func LoadModels(path string, logger *slog.Logger) (agent.Config, error) {
	models, err := agent.LoadConfig(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("models config not found, defaulting to gemini", "path", path)
		return agent.Config{ActiveProvider: "gemini"}, nil
	}
	return models, err
}

func (a *App) openArchive(ctx context.Context, cfg config.ArchiveConfig, logger *slog.Logger) (store.Archive, error) {
	switch cfg.Backend {
	case config.ArchivePostgres:
		pg, err := store.NewPostgresArchive(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open postgres archive: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		logger.Info("archive enabled", "backend", cfg.Backend)
		return pg, nil
	case config.ArchiveSQLite:
		lite, err := store.NewSQLiteArchive(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite archive: %w", err)
		}
		a.closers = append(a.closers, lite.Close)
		logger.Info("archive enabled", "backend", cfg.Backend, "path", cfg.SQLitePath)
		return lite, nil
	default:
		return nil, nil
	}
}

func (a *App) openRedis(ctx context.Context, cfg config.StreamConfig, logger *slog.Logger) (*stream.RedisSink, error) {
	client, err := stream.ConnectRedis(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	sink := stream.NewRedisSink(client, cfg.StreamKey, cfg.MaxLen)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sink.Ping(pingCtx); err != nil {
		sink.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	a.closers = append(a.closers, func() {
		if err := sink.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	})
	logger.Info("redis event stream enabled", "key", cfg.StreamKey)
	return sink, nil
}

// Close releases the archive and stream connections in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
