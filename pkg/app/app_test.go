package app

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agentic_debate/pkg/core/config"
)

const rosterYAML = `proposition_agents:
  - id: alex
    name: Alex
    personality_type: passionate
    behavior: Argue boldly.
  - id: blake
    name: Blake
    personality_type: analytical
    behavior: Use data.
opposition_agent:
  id: sam
  name: Sam
  personality_type: skeptical
  behavior: Doubt everything.
moderator_agent:
  id: morgan
  name: Morgan
  personality_type: neutral
  behavior: Be fair.
`

func testConfig(t *testing.T) config.Config {
	t.Helper()
	dir := t.TempDir()
	rosterPath := filepath.Join(dir, "agents.yaml")
	if err := os.WriteFile(rosterPath, []byte(rosterYAML), 0644); err != nil {
		t.Fatal(err)
	}
	cfg := config.Default()
	cfg.Paths.Roster = rosterPath
	cfg.Paths.Models = filepath.Join(dir, "missing.yaml")
	cfg.Paths.Prompts = filepath.Join(dir, "resources")
	return cfg
}

func TestNew_Defaults(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer a.Close()

	if a.Agents.GetActiveProvider() != "gemini" {
		t.Errorf("Expected gemini fallback, got %s", a.Agents.GetActiveProvider())
	}
	if got := a.Roster.Info().Counts.Total; got != 4 {
		t.Errorf("Expected 4 agents, got %d", got)
	}
	if a.Manager.Status().IsRunning {
		t.Error("Expected no running debate")
	}
}

func TestNew_SQLiteArchive(t *testing.T) {
	cfg := testConfig(t)
	cfg.Archive.Backend = config.ArchiveSQLite
	cfg.Archive.SQLitePath = filepath.Join(t.TempDir(), "data", "debates.db")

	a, err := New(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if len(a.closers) != 1 {
		t.Errorf("Expected the archive to be registered for close, got %d closers", len(a.closers))
	}
	a.Close()
	if _, err := os.Stat(cfg.Archive.SQLitePath); err != nil {
		t.Errorf("Expected database file, got %v", err)
	}
}

func TestNew_MissingRoster(t *testing.T) {
	cfg := testConfig(t)
	cfg.Paths.Roster = filepath.Join(t.TempDir(), "nope.yaml")
	if _, err := New(context.Background(), cfg, nil); err == nil || !strings.Contains(err.Error(), "read roster") {
		t.Errorf("Expected a roster read error, got %v", err)
	}
}

func TestLoadModels(t *testing.T) {
	path := filepath.Join(t.TempDir(), "models.yaml")
	os.WriteFile(path, []byte("active_provider: deepseek\n"), 0644)

	cfg, err := LoadModels(path, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("LoadModels failed: %v", err)
	}
	if cfg.ActiveProvider != "deepseek" {
		t.Errorf("Expected deepseek, got %s", cfg.ActiveProvider)
	}

	os.WriteFile(path, []byte("active_provider: [broken"), 0644)
	if _, err := LoadModels(path, slog.New(slog.DiscardHandler)); err == nil {
		t.Error("Expected a parse error for malformed yaml")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{" WARN ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.expected {
			t.Errorf("ParseLevel(%q): expected %v, got %v", tt.in, tt.expected, got)
		}
	}
}
