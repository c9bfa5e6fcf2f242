// Package config loads the server settings from config/server.toml with
// environment overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Archive backends.
const (
	ArchiveNone     = "none"
	ArchivePostgres = "postgres"
	ArchiveSQLite   = "sqlite"
)

// Config holds all application settings.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Debate  DebateConfig  `toml:"debate"`
	Paths   PathsConfig   `toml:"paths"`
	Archive ArchiveConfig `toml:"archive"`
	Stream  StreamConfig  `toml:"stream"`
	Path    string        `toml:"-"`
}

type ServerConfig struct {
	Addr       string `toml:"addr"`
	CORSOrigin string `toml:"cors_origin"`
	LogLevel   string `toml:"log_level"`
}

// DebateConfig are the defaults applied to requests that omit a value.
type DebateConfig struct {
	DurationSeconds    int  `toml:"duration_seconds"`
	ExchangesPerRound  int  `toml:"exchanges_per_round"`
	EventBufferSize    int  `toml:"event_buffer_size"`
	SummaryChunkWords  int  `toml:"summary_chunk_words"`
	LenientTransitions bool `toml:"lenient_transitions"`
}

type PathsConfig struct {
	Roster  string `toml:"roster"`
	Models  string `toml:"models"`
	Prompts string `toml:"prompts"`
}

type ArchiveConfig struct {
	Backend     string `toml:"backend"`
	DatabaseURL string `toml:"database_url"`
	SQLitePath  string `toml:"sqlite_path"`
}

type StreamConfig struct {
	RedisURL  string `toml:"redis_url"`
	StreamKey string `toml:"stream_key"`
	MaxLen    int64  `toml:"max_len"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8000", CORSOrigin: "*", LogLevel: "info"},
		Debate: DebateConfig{
			DurationSeconds:   300,
			ExchangesPerRound: 3,
			EventBufferSize:   500,
			SummaryChunkWords: 8,
		},
		Paths: PathsConfig{
			Roster:  "config/agents.yaml",
			Models:  "config/models.yaml",
			Prompts: "resources",
		},
		Archive: ArchiveConfig{Backend: ArchiveNone, SQLitePath: "data/debates.db"},
		Stream:  StreamConfig{StreamKey: "debate:events", MaxLen: 10000},
	}
}

// Load decodes path over the defaults, applies environment overrides and
// validates the result. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if _, err := toml.Decode(string(data), &cfg); err != nil {
				return Config{}, fmt.Errorf("decode config file %s: %w", path, err)
			}
			cfg.Path = path
		case !os.IsNotExist(err):
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("DEBATE_ADDR", c.Server.Addr)
	c.Server.CORSOrigin = getEnv("CORS_ORIGIN", c.Server.CORSOrigin)
	c.Server.LogLevel = getEnv("LOG_LEVEL", c.Server.LogLevel)
	c.Debate.DurationSeconds = getEnvInt("DEBATE_DURATION", c.Debate.DurationSeconds)
	c.Debate.ExchangesPerRound = getEnvInt("DEBATE_EXCHANGES_PER_ROUND", c.Debate.ExchangesPerRound)
	c.Paths.Roster = getEnv("DEBATE_ROSTER", c.Paths.Roster)
	c.Paths.Models = getEnv("DEBATE_MODELS", c.Paths.Models)
	c.Paths.Prompts = getEnv("DEBATE_PROMPTS_DIR", c.Paths.Prompts)
	c.Archive.Backend = getEnv("DEBATE_ARCHIVE", c.Archive.Backend)
	c.Archive.DatabaseURL = getEnv("DATABASE_URL", c.Archive.DatabaseURL)
	c.Archive.SQLitePath = getEnv("DEBATE_SQLITE_PATH", c.Archive.SQLitePath)
	c.Stream.RedisURL = getEnv("REDIS_URL", c.Stream.RedisURL)
}

// Validate checks values that would otherwise fail at debate start.
func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr cannot be empty")
	}
	if c.Debate.DurationSeconds <= 0 {
		return fmt.Errorf("debate.duration_seconds must be > 0, got %d", c.Debate.DurationSeconds)
	}
	if c.Debate.ExchangesPerRound <= 0 {
		return fmt.Errorf("debate.exchanges_per_round must be > 0, got %d", c.Debate.ExchangesPerRound)
	}
	switch c.Archive.Backend {
	case ArchiveNone, "":
	case ArchivePostgres:
		if c.Archive.DatabaseURL == "" {
			return fmt.Errorf("archive.database_url (DATABASE_URL) is required for the postgres archive")
		}
	case ArchiveSQLite:
		if c.Archive.SQLitePath == "" {
			return fmt.Errorf("archive.sqlite_path is required for the sqlite archive")
		}
	default:
		return fmt.Errorf("unknown archive backend %q", c.Archive.Backend)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
