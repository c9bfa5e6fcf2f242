package debate

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// MockGenerator provides deterministic responses for simulation mode and
// tests. Vote prompts receive well-formed JSON; every VoteOutEvery-th vote is
// "out" so simulated debates exercise agent switches.
type MockGenerator struct {
	Latency      time.Duration
	VoteOutEvery int

	mu    sync.Mutex
	turns map[string]int
	votes int
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{
		Latency:      500 * time.Millisecond,
		VoteOutEvery: 2,
	}
}

func (g *MockGenerator) Generate(ctx context.Context, speaker Participant, prompt string) (string, error) {
	// Simulate "thinking" latency
	if g.Latency > 0 {
		select {
		case <-time.After(g.Latency):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case strings.Contains(prompt, "VOTE EVALUATION"):
		g.votes++
		if g.VoteOutEvery > 0 && g.votes%g.VoteOutEvery == 0 {
			return fmt.Sprintf(`{"vote": "out", "reasoning": "As a %s voter I found the argument unconvincing."}`, speaker.Personality), nil
		}
		return fmt.Sprintf(`{"vote": "in", "reasoning": "As a %s voter I found the argument persuasive."}`, speaker.Personality), nil
	case speaker.Role == RoleModerator:
		return mockSummary(), nil
	}

	if g.turns == nil {
		g.turns = make(map[string]int)
	}
	g.turns[speaker.ID]++
	n := g.turns[speaker.ID]

	switch speaker.Role {
	case RoleProposition:
		return fmt.Sprintf("[%s Simulation] Point %d in favor: the evidence supports the proposition, argued in a %s style.", speaker.Name, n, speaker.Personality), nil
	case RoleOpposition:
		return fmt.Sprintf("[%s Simulation] Rebuttal %d: the proposition ignores the costs, argued in a %s style.", speaker.Name, n, speaker.Personality), nil
	default:
		return fmt.Sprintf("[%s Simulation] No comment.", speaker.Name), nil
	}
}

func mockSummary() string {
	return strings.Join([]string{
		"## Overview",
		"A simulated debate with scripted arguments on both sides.",
		"## Key Proposition Arguments",
		"- The evidence supports the proposition.",
		"## Key Opposition Arguments",
		"- The proposition ignores the costs.",
		"## Notable Moments",
		"- Observers rotated the proposition speaker.",
		"## Conclusion",
		"Both sides argued consistently; neither gained a decisive edge.",
	}, "\n\n")
}
