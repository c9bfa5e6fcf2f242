package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Debate.DurationSeconds != 300 || cfg.Debate.ExchangesPerRound != 3 {
		t.Errorf("Expected debate defaults 300/3, got %d/%d", cfg.Debate.DurationSeconds, cfg.Debate.ExchangesPerRound)
	}
	if cfg.Path != "" {
		t.Errorf("Expected empty Path for missing file, got %q", cfg.Path)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	body := `
[server]
addr = ":9000"

[debate]
duration_seconds = 120
exchanges_per_round = 4

[archive]
backend = "sqlite"
sqlite_path = "/tmp/x.db"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("DEBATE_EXCHANGES_PER_ROUND", "6")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Addr != ":9000" {
		t.Errorf("Expected addr :9000, got %s", cfg.Server.Addr)
	}
	if cfg.Debate.DurationSeconds != 120 {
		t.Errorf("Expected duration 120, got %d", cfg.Debate.DurationSeconds)
	}
	if cfg.Debate.ExchangesPerRound != 6 {
		t.Errorf("Expected env override 6, got %d", cfg.Debate.ExchangesPerRound)
	}
	if cfg.Archive.Backend != ArchiveSQLite {
		t.Errorf("Expected sqlite backend, got %s", cfg.Archive.Backend)
	}
	if cfg.Stream.RedisURL == "" {
		t.Error("Expected REDIS_URL applied")
	}
	if cfg.Paths.Roster != "config/agents.yaml" {
		t.Errorf("Expected default roster path kept, got %s", cfg.Paths.Roster)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"Zero duration", func(c *Config) { c.Debate.DurationSeconds = 0 }, "duration_seconds"},
		{"Negative exchanges", func(c *Config) { c.Debate.ExchangesPerRound = -1 }, "exchanges_per_round"},
		{"Unknown archive", func(c *Config) { c.Archive.Backend = "mongo" }, "unknown archive backend"},
		{"Postgres without url", func(c *Config) { c.Archive.Backend = ArchivePostgres }, "DATABASE_URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
	if err := Default().Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

func TestLoad_BadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte("[server\naddr = "), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("Expected decode error")
	}
}
