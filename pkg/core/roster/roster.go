// Package roster loads the debate participants from config/agents.yaml or
// config/agents.hjson.
package roster

import (
	"fmt"
	"os"
	"path/filepath"

	"agentic_debate/pkg/core/debate"

	hjson "github.com/hjson/hjson-go/v4"
	"gopkg.in/yaml.v2"
)

// File is the on-disk roster layout
type File struct {
	PropositionAgents []debate.Participant `yaml:"proposition_agents" json:"proposition_agents"`
	OppositionAgent   debate.Participant   `yaml:"opposition_agent" json:"opposition_agent"`
	ModeratorAgent    debate.Participant   `yaml:"moderator_agent" json:"moderator_agent"`
}

// Roster is a validated participant list. It implements debate.RosterProvider.
type Roster struct {
	debate.StaticRoster
}

var _ debate.RosterProvider = (*Roster)(nil)

// Info is the payload of the agents listing
type Info struct {
	PropositionAgents []debate.Participant `json:"proposition_agents"`
	OppositionAgent   debate.Participant   `json:"opposition_agent"`
	ModeratorAgent    debate.Participant   `json:"moderator_agent"`
	Counts            Counts               `json:"counts"`
}

type Counts struct {
	Proposition int `json:"proposition"`
	Opposition  int `json:"opposition"`
	Moderator   int `json:"moderator"`
	Total       int `json:"total"`
}

// Load reads and validates a roster file. The extension picks the format:
// .hjson and .json are decoded with hjson, anything else as YAML.
func Load(path string) (*Roster, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}

	var f File
	switch filepath.Ext(path) {
	case ".hjson", ".json":
		err = hjson.Unmarshal(data, &f)
	default:
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	return New(f)
}

// New validates f and assigns roles.
func New(f File) (*Roster, error) {
	if len(f.PropositionAgents) == 0 {
		return nil, fmt.Errorf("roster: at least one proposition agent is required")
	}

	seen := make(map[string]bool)
	check := func(p debate.Participant, where string) error {
		switch {
		case p.ID == "":
			return fmt.Errorf("roster: %s is missing id", where)
		case p.Name == "":
			return fmt.Errorf("roster: %s (%s) is missing name", where, p.ID)
		case p.Personality == "":
			return fmt.Errorf("roster: %s (%s) is missing personality_type", where, p.ID)
		case p.Behavior == "":
			return fmt.Errorf("roster: %s (%s) is missing behavior", where, p.ID)
		case seen[p.ID]:
			return fmt.Errorf("roster: duplicate agent id %q", p.ID)
		}
		seen[p.ID] = true
		return nil
	}

	props := make([]debate.Participant, 0, len(f.PropositionAgents))
	for i, p := range f.PropositionAgents {
		if err := check(p, fmt.Sprintf("proposition_agents[%d]", i)); err != nil {
			return nil, err
		}
		p.Role = debate.RoleProposition
		props = append(props, p)
	}
	if err := check(f.OppositionAgent, "opposition_agent"); err != nil {
		return nil, err
	}
	if err := check(f.ModeratorAgent, "moderator_agent"); err != nil {
		return nil, err
	}
	opp := f.OppositionAgent
	opp.Role = debate.RoleOpposition
	mod := f.ModeratorAgent
	mod.Role = debate.RoleModerator

	return &Roster{StaticRoster: debate.StaticRoster{
		Propositions: props,
		Opposition:   opp,
		Moderator:    mod,
	}}, nil
}

// Info summarizes the roster for listing.
func (r *Roster) Info() Info {
	n := len(r.Propositions)
	return Info{
		PropositionAgents: r.Propositions,
		OppositionAgent:   r.Opposition,
		ModeratorAgent:    r.Moderator,
		Counts: Counts{
			Proposition: n,
			Opposition:  1,
			Moderator:   1,
			Total:       n + 2,
		},
	}
}
