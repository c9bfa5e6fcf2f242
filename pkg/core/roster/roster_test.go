package roster

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"agentic_debate/pkg/core/debate"
)

const yamlRoster = `proposition_agents:
  - id: alex
    name: Alex
    personality_type: passionate
    behavior: Argue with conviction.
    icon: "🔥"
  - id: blake
    name: Blake
    personality_type: analytical
    behavior: Lean on data.
opposition_agent:
  id: sam
  name: Sam
  personality_type: skeptical
  behavior: Question every claim.
moderator_agent:
  id: morgan
  name: Morgan
  personality_type: neutral
  behavior: Stay balanced.
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_YAML(t *testing.T) {
	r, err := Load(writeFile(t, "agents.yaml", yamlRoster))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	props := r.PropositionParticipants()
	if len(props) != 2 || props[0].ID != "alex" || props[1].ID != "blake" {
		t.Fatalf("Expected roster order alex, blake; got %+v", props)
	}
	if props[0].Role != debate.RoleProposition {
		t.Errorf("Expected proposition role, got %s", props[0].Role)
	}
	if r.OppositionParticipant().Role != debate.RoleOpposition || r.ModeratorParticipant().Role != debate.RoleModerator {
		t.Error("Expected roles assigned to opposition and moderator")
	}
	if p, ok := r.Lookup("sam"); !ok || p.Name != "Sam" {
		t.Errorf("Expected lookup of sam, got %+v %v", p, ok)
	}
	if _, ok := r.Lookup("nobody"); ok {
		t.Error("Expected lookup miss")
	}

	info := r.Info()
	if info.Counts.Total != 4 || info.Counts.Proposition != 2 {
		t.Errorf("Unexpected counts: %+v", info.Counts)
	}
}

func TestLoad_HJSON(t *testing.T) {
	body := `{
  # hjson roster
  proposition_agents: [
    {
      id: alex
      name: Alex
      personality_type: passionate
      behavior: Argue.
    }
  ]
  opposition_agent: {
    id: sam
    name: Sam
    personality_type: skeptical
    behavior: Doubt.
  }
  moderator_agent: {
    id: morgan
    name: Morgan
    personality_type: neutral
    behavior: Summarize.
  }
}`
	r, err := Load(writeFile(t, "agents.hjson", body))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if r.Info().Counts.Total != 3 {
		t.Errorf("Expected 3 agents, got %d", r.Info().Counts.Total)
	}
}

func TestNew_Validation(t *testing.T) {
	valid := func() File {
		return File{
			PropositionAgents: []debate.Participant{{ID: "a", Name: "A", Personality: "p", Behavior: "b"}},
			OppositionAgent:   debate.Participant{ID: "o", Name: "O", Personality: "p", Behavior: "b"},
			ModeratorAgent:    debate.Participant{ID: "m", Name: "M", Personality: "p", Behavior: "b"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*File)
		want   string
	}{
		{"No propositions", func(f *File) { f.PropositionAgents = nil }, "at least one proposition"},
		{"Missing name", func(f *File) { f.PropositionAgents[0].Name = "" }, "missing name"},
		{"Missing behavior", func(f *File) { f.OppositionAgent.Behavior = "" }, "missing behavior"},
		{"Missing personality", func(f *File) { f.ModeratorAgent.Personality = "" }, "missing personality_type"},
		{"Duplicate id", func(f *File) { f.OppositionAgent.ID = "a" }, "duplicate agent id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.mutate(&f)
			_, err := New(f)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}

	if _, err := New(valid()); err != nil {
		t.Errorf("Expected valid roster, got %v", err)
	}
}
