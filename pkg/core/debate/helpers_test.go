package debate

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// fakeClock is a manually advanced time source shared by state and generator.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testRoster() *StaticRoster {
	return &StaticRoster{
		Propositions: []Participant{
			{ID: "alex", Name: "Alex", Role: RoleProposition, Personality: "passionate", Behavior: "Argue boldly."},
			{ID: "blake", Name: "Blake", Role: RoleProposition, Personality: "analytical", Behavior: "Use data."},
			{ID: "casey", Name: "Casey", Role: RoleProposition, Personality: "pragmatic", Behavior: "Be practical."},
		},
		Opposition: Participant{ID: "sam", Name: "Sam", Role: RoleOpposition, Personality: "skeptical", Behavior: "Doubt."},
		Moderator:  Participant{ID: "morgan", Name: "Morgan", Role: RoleModerator, Personality: "neutral", Behavior: "Be fair."},
	}
}

// scriptedGen answers debaters with numbered arguments, advancing the clock
// by turnCost per argument, and answers vote prompts with vote.
type scriptedGen struct {
	clock    *fakeClock
	turnCost time.Duration
	vote     string
	summary  string

	failRole    Role
	summaryErr  error
	onFirstTurn func()

	mu    sync.Mutex
	turns int
}

func (g *scriptedGen) Generate(ctx context.Context, speaker Participant, prompt string) (string, error) {
	if strings.Contains(prompt, "VOTE EVALUATION") {
		return g.vote, nil
	}
	if speaker.Role == RoleModerator {
		if g.summaryErr != nil {
			return "", g.summaryErr
		}
		return g.summary, nil
	}

	g.mu.Lock()
	g.turns++
	n := g.turns
	hook := g.onFirstTurn
	g.onFirstTurn = nil
	g.mu.Unlock()

	if hook != nil {
		hook()
	}
	if g.clock != nil {
		g.clock.Advance(g.turnCost)
	}
	if speaker.Role == g.failRole {
		return "", errors.New("provider unavailable")
	}
	return speaker.Name + " argument " + string(rune('0'+n%10)), nil
}

func collect(seq func(func(Event) bool)) []Event {
	var events []Event
	for e := range seq {
		events = append(events, e)
	}
	return events
}

func countType(events []Event, t EventType) int {
	n := 0
	for _, e := range events {
		if e.Type() == t {
			n++
		}
	}
	return n
}

func recorder() (Emit, *[]Event) {
	var events []Event
	return func(e Event) { events = append(events, e) }, &events
}

// newDebatingState returns a state in the debating phase over testRoster.
func newDebatingState(clock *fakeClock, exchanges int) *DebateState {
	s, err := Initialize(InitParams{
		Topic:               "Remote work beats the office",
		DurationSeconds:     60,
		ExchangesPerRound:   exchanges,
		AllPropositionIDs:   []string{"alex", "blake", "casey"},
		OppositionID:        "sam",
		ActivePropositionID: "alex",
	}, WithClock(clock.Now))
	if err != nil {
		panic(err)
	}
	if err := s.SetPhase(PhaseDebating); err != nil {
		panic(err)
	}
	return s
}
