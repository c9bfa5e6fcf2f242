package debate

import (
	"context"
	"fmt"
)

// Generator produces text for a participant. It is the engine's only link to
// a language model; implementations decide provider, model and system prompt.
type Generator interface {
	Generate(ctx context.Context, speaker Participant, prompt string) (string, error)
}

// TopicAware is implemented by generators that need the debate topic before
// the first turn.
type TopicAware interface {
	SetTopic(topic string)
}

// GeneratorFunc adapts a function to the Generator interface.
type GeneratorFunc func(ctx context.Context, speaker Participant, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, speaker Participant, prompt string) (string, error) {
	return f(ctx, speaker, prompt)
}

// RosterProvider supplies the participants of a debate. The roster is assumed
// static for the duration of one debate.
type RosterProvider interface {
	PropositionParticipants() []Participant
	OppositionParticipant() Participant
	ModeratorParticipant() Participant
	Lookup(agentID string) (Participant, bool)
}

// StaticRoster is an in-memory RosterProvider.
type StaticRoster struct {
	Propositions []Participant
	Opposition   Participant
	Moderator    Participant
}

func (r *StaticRoster) PropositionParticipants() []Participant { return r.Propositions }
func (r *StaticRoster) OppositionParticipant() Participant     { return r.Opposition }
func (r *StaticRoster) ModeratorParticipant() Participant      { return r.Moderator }

func (r *StaticRoster) Lookup(agentID string) (Participant, bool) {
	for _, p := range r.Propositions {
		if p.ID == agentID {
			return p, true
		}
	}
	if r.Opposition.ID == agentID {
		return r.Opposition, true
	}
	if r.Moderator.ID == agentID {
		return r.Moderator, true
	}
	return Participant{}, false
}

// mustLookup resolves an id that the state guarantees to be in the roster.
func mustLookup(roster RosterProvider, agentID string) (Participant, error) {
	p, ok := roster.Lookup(agentID)
	if !ok {
		return Participant{}, fmt.Errorf("participant %q not found in roster", agentID)
	}
	return p, nil
}

func participantName(roster RosterProvider, agentID string) string {
	if p, ok := roster.Lookup(agentID); ok {
		return p.Name
	}
	return agentID
}
