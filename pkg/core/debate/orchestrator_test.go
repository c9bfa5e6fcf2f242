package debate

import (
	"context"
	"testing"
	"time"
)

const outVote = `{"vote": "out", "reasoning": "weak"}`

func newTestOrchestrator(clock *fakeClock, roster RosterProvider, gen Generator) *Orchestrator {
	return NewOrchestrator(roster, gen, Options{Clock: clock.Now})
}

func TestOrchestrator_FullDebate(t *testing.T) {
	clock := newFakeClock()
	gen := &scriptedGen{clock: clock, turnCost: 10 * time.Second, vote: outVote, summary: "## Conclusion\nA draw."}
	orch := newTestOrchestrator(clock, testRoster(), gen)

	events := collect(orch.Run(context.Background(), Config{Topic: "Remote work", DurationSeconds: 60, ExchangesPerRound: 2}))

	if len(events) == 0 {
		t.Fatal("Expected events")
	}
	started, ok := events[0].(DebateStartedEvent)
	if !ok {
		t.Fatalf("Expected debate_started first, got %s", events[0].Type())
	}
	if started.FirstDebaterID != "alex" || started.OppositionName != "Sam" || started.TotalAgents != 5 {
		t.Errorf("Unexpected debate_started %+v", started)
	}
	if len(started.ObserverNames) != 2 || started.ObserverNames[0] != "Blake" {
		t.Errorf("Expected observers [Blake Casey], got %v", started.ObserverNames)
	}
	if events[len(events)-1].Type() != EventDebateComplete {
		t.Errorf("Expected debate_complete last, got %s", events[len(events)-1].Type())
	}

	// two rounds end in a vote and a switch; the third runs out of time
	if n := countType(events, EventAgentMessageComplete); n != 6 {
		t.Errorf("Expected 6 messages, got %d", n)
	}
	if n := countType(events, EventVotingComplete); n != 2 {
		t.Errorf("Expected 2 voting rounds, got %d", n)
	}
	if n := countType(events, EventAgentSwitch); n != 2 {
		t.Errorf("Expected 2 switches, got %d", n)
	}
	if n := countType(events, EventError); n != 0 {
		t.Errorf("Expected no errors, got %d", n)
	}

	var speakers []string
	for _, e := range events {
		if m, ok := e.(AgentMessageCompleteEvent); ok {
			speakers = append(speakers, m.AgentID)
		}
	}
	expected := []string{"alex", "sam", "blake", "sam", "alex", "sam"}
	for i := range expected {
		if i >= len(speakers) || speakers[i] != expected[i] {
			t.Fatalf("Expected speakers %v, got %v", expected, speakers)
		}
	}

	st, ok := orch.State()
	if !ok {
		t.Fatal("Expected state snapshot")
	}
	if st.Phase != PhaseCompleted || st.Status != StatusCompleted {
		t.Errorf("Expected completed, got %s/%s", st.Phase, st.Status)
	}
	if st.CurrentRound != 3 || len(st.Switches) != 2 || st.ElapsedSeconds != 60 {
		t.Errorf("Expected round 3, 2 switches, 60s; got %d, %d, %d", st.CurrentRound, len(st.Switches), st.ElapsedSeconds)
	}
	if st.ActivePropositionID != "alex" {
		t.Errorf("Expected alex back at the podium, got %s", st.ActivePropositionID)
	}
	if st.Summary != "## Conclusion\nA draw." {
		t.Errorf("Unexpected summary %q", st.Summary)
	}
	if orch.IsRunning() {
		t.Error("Expected orchestrator idle after the sequence ends")
	}
}

func TestOrchestrator_TimerPausedDuringVoting(t *testing.T) {
	clock := newFakeClock()
	gen := &scriptedGen{clock: clock, turnCost: 10 * time.Second, summary: "done"}
	voteCost := GeneratorFunc(func(ctx context.Context, speaker Participant, prompt string) (string, error) {
		out, err := gen.Generate(ctx, speaker, prompt)
		if out == "" && err == nil {
			// votes take a long time but must not count against the budget
			clock.Advance(time.Minute)
			return `{"vote": "in", "reasoning": "fine"}`, nil
		}
		return out, err
	})
	orch := newTestOrchestrator(clock, testRoster(), voteCost)

	events := collect(orch.Run(context.Background(), Config{Topic: "T", DurationSeconds: 60, ExchangesPerRound: 2}))

	if n := countType(events, EventAgentMessageComplete); n != 6 {
		t.Errorf("Expected 6 messages despite slow votes, got %d", n)
	}
	st, _ := orch.State()
	if st.ElapsedSeconds != 60 || st.PausedSeconds != 240 {
		t.Errorf("Expected 60s elapsed and 240s paused, got %d/%v", st.ElapsedSeconds, st.PausedSeconds)
	}
	for _, e := range events {
		if tu, ok := e.(TimerUpdateEvent); ok && tu.Elapsed > 60 {
			t.Errorf("Timer update beyond budget: %+v", tu)
		}
	}
}

func TestOrchestrator_OddExchangesRoundUpToPair(t *testing.T) {
	clock := newFakeClock()
	gen := &scriptedGen{clock: clock, turnCost: 5 * time.Second, vote: `{"vote": "in", "reasoning": "fine"}`, summary: "s"}
	orch := newTestOrchestrator(clock, testRoster(), gen)

	events := collect(orch.Run(context.Background(), Config{Topic: "T", DurationSeconds: 60, ExchangesPerRound: 3}))

	// rounds are checked after each proposition/opposition pair
	var perRound []int
	messages := 0
	for _, e := range events {
		switch e.Type() {
		case EventAgentMessageComplete:
			messages++
		case EventVotingInitiated:
			perRound = append(perRound, messages)
			messages = 0
		}
	}
	if len(perRound) < 2 {
		t.Fatalf("Expected at least 2 voting rounds, got %d", len(perRound))
	}
	for i, n := range perRound {
		if n != 4 {
			t.Errorf("Round %d: expected voting after 4 messages, got %d", i+1, n)
		}
	}
}

func TestOrchestrator_FirstAgent(t *testing.T) {
	tests := []struct {
		first    string
		expected string
	}{
		{"casey", "casey"},
		{"nobody", "alex"},
		{"", "alex"},
	}
	for _, tt := range tests {
		clock := newFakeClock()
		gen := &scriptedGen{clock: clock, turnCost: 30 * time.Second, summary: "s"}
		orch := newTestOrchestrator(clock, testRoster(), gen)
		events := collect(orch.Run(context.Background(), Config{Topic: "T", DurationSeconds: 60, ExchangesPerRound: 4, FirstAgentID: tt.first}))
		started := events[0].(DebateStartedEvent)
		if started.FirstDebaterID != tt.expected {
			t.Errorf("FirstAgentID %q: expected %s, got %s", tt.first, tt.expected, started.FirstDebaterID)
		}
	}
}

func TestOrchestrator_Stop(t *testing.T) {
	clock := newFakeClock()
	gen := &scriptedGen{clock: clock, turnCost: time.Second, summary: "stopped early"}
	orch := newTestOrchestrator(clock, testRoster(), gen)
	gen.onFirstTurn = orch.Stop

	events := collect(orch.Run(context.Background(), Config{Topic: "T", DurationSeconds: 600, ExchangesPerRound: 4}))

	// the in-flight pair of turns finishes, then the debate concludes
	if n := countType(events, EventAgentMessageComplete); n != 2 {
		t.Errorf("Expected 2 messages, got %d", n)
	}
	if events[len(events)-1].Type() != EventDebateComplete {
		t.Errorf("Expected debate_complete last, got %s", events[len(events)-1].Type())
	}
	st, _ := orch.State()
	if st.Status != StatusCompleted || st.Summary != "stopped early" {
		t.Errorf("Expected completed with summary, got %s %q", st.Status, st.Summary)
	}
}

func TestOrchestrator_ConsumerBreak(t *testing.T) {
	clock := newFakeClock()
	gen := &scriptedGen{clock: clock, turnCost: time.Second, summary: "s"}
	orch := newTestOrchestrator(clock, testRoster(), gen)

	seen := 0
	for e := range orch.Run(context.Background(), Config{Topic: "T", DurationSeconds: 600, ExchangesPerRound: 4}) {
		seen++
		if e.Type() == EventAgentMessageComplete {
			break
		}
	}
	if seen == 0 {
		t.Fatal("Expected some events before break")
	}
	st, ok := orch.State()
	if !ok || st.Phase != PhaseCompleted {
		t.Errorf("Expected debate to conclude after consumer left, got %s", st.Phase)
	}
	if len(st.Messages) != 2 {
		t.Errorf("Expected the current pair of turns to finish, got %d messages", len(st.Messages))
	}
}

func TestOrchestrator_ContextCancelled(t *testing.T) {
	clock := newFakeClock()
	gen := &scriptedGen{clock: clock, turnCost: time.Second, summary: "s"}
	orch := newTestOrchestrator(clock, testRoster(), gen)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	events := collect(orch.Run(ctx, Config{Topic: "T", DurationSeconds: 60, ExchangesPerRound: 2}))
	if n := countType(events, EventAgentMessageComplete); n != 0 {
		t.Errorf("Expected no messages, got %d", n)
	}
	if events[len(events)-1].Type() != EventDebateComplete {
		t.Errorf("Expected debate_complete last, got %s", events[len(events)-1].Type())
	}
}

func TestOrchestrator_TurnFailureIsContained(t *testing.T) {
	clock := newFakeClock()
	gen := &scriptedGen{clock: clock, turnCost: 15 * time.Second, failRole: RoleOpposition, summary: "s"}
	orch := newTestOrchestrator(clock, testRoster(), gen)

	events := collect(orch.Run(context.Background(), Config{Topic: "T", DurationSeconds: 60, ExchangesPerRound: 4}))

	if n := countType(events, EventError); n != 2 {
		t.Errorf("Expected 2 non-critical errors, got %d", n)
	}
	for _, e := range events {
		if ee, ok := e.(ErrorEvent); ok && (ee.IsCritical || ee.Step != "opposition_turn") {
			t.Errorf("Unexpected error event %+v", ee)
		}
	}
	st, _ := orch.State()
	if st.Status != StatusCompleted {
		t.Errorf("Expected completed, got %s", st.Status)
	}
	if m, ok := st.LastMessageByRole(RoleOpposition); !ok || m.Content != FallbackContent("Sam") {
		t.Errorf("Expected fallback opposition message, got %+v", m)
	}
}

// lossyRoster forgets one participant on lookup.
type lossyRoster struct {
	*StaticRoster
	missing string
}

func (r lossyRoster) Lookup(id string) (Participant, bool) {
	if id == r.missing {
		return Participant{}, false
	}
	return r.StaticRoster.Lookup(id)
}

func TestOrchestrator_CriticalError(t *testing.T) {
	clock := newFakeClock()
	gen := &scriptedGen{clock: clock, turnCost: time.Second, summary: "s"}
	orch := newTestOrchestrator(clock, lossyRoster{StaticRoster: testRoster(), missing: "sam"}, gen)

	events := collect(orch.Run(context.Background(), Config{Topic: "T", DurationSeconds: 60, ExchangesPerRound: 2}))

	last, ok := events[len(events)-1].(ErrorEvent)
	if !ok || !last.IsCritical || last.Step != "workflow" {
		t.Fatalf("Expected critical workflow error last, got %+v", events[len(events)-1])
	}
	if countType(events, EventDebateComplete) != 0 {
		t.Error("Expected no debate_complete after a critical error")
	}
	st, _ := orch.State()
	if st.Status != StatusError || st.ErrorMessage == "" {
		t.Errorf("Expected error status, got %s %q", st.Status, st.ErrorMessage)
	}
	if len(st.Messages) != 1 {
		t.Errorf("Expected history kept, got %d messages", len(st.Messages))
	}
}

func TestOrchestrator_InvalidConfig(t *testing.T) {
	orch := newTestOrchestrator(newFakeClock(), testRoster(), &scriptedGen{})
	events := collect(orch.Run(context.Background(), Config{Topic: "", DurationSeconds: 60, ExchangesPerRound: 2}))
	if len(events) != 1 {
		t.Fatalf("Expected a single error event, got %d", len(events))
	}
	if ee, ok := events[0].(ErrorEvent); !ok || !ee.IsCritical {
		t.Errorf("Expected critical error, got %+v", events[0])
	}
	if _, ok := orch.State(); ok {
		t.Error("Expected no state when initialization fails")
	}
}

func TestOrchestrator_BusyGuard(t *testing.T) {
	clock := newFakeClock()
	gen := &scriptedGen{clock: clock, turnCost: 30 * time.Second, summary: "s"}
	orch := newTestOrchestrator(clock, testRoster(), gen)

	var nested []Event
	gen.onFirstTurn = func() {
		nested = collect(orch.Run(context.Background(), Config{Topic: "Other", DurationSeconds: 60, ExchangesPerRound: 2}))
	}
	collect(orch.Run(context.Background(), Config{Topic: "T", DurationSeconds: 60, ExchangesPerRound: 4}))

	if len(nested) != 1 {
		t.Fatalf("Expected a single rejection event, got %d", len(nested))
	}
	ee, ok := nested[0].(ErrorEvent)
	if !ok || ee.Step != "initialize" || !ee.IsCritical || ee.Error != ErrDebateInProgress.Error() {
		t.Errorf("Unexpected rejection %+v", nested[0])
	}
	st, _ := orch.State()
	if st.Topic != "T" {
		t.Errorf("Expected the running debate untouched, got topic %q", st.Topic)
	}
}

func TestTransition_Lenient(t *testing.T) {
	s := newDebatingState(newFakeClock(), 2)
	s.Phase = PhaseInitializing
	emit, events := recorder()

	if err := transition(s, PhaseVoting, false, nil, emit); err == nil {
		t.Error("Expected strict transition to fail")
	}
	if err := transition(s, PhaseVoting, true, nil, emit); err != nil {
		t.Fatalf("Expected lenient transition to succeed, got %v", err)
	}
	if s.Phase != PhaseVoting || countType(*events, EventWarning) != 1 {
		t.Errorf("Expected forced phase with a warning, got %s", s.Phase)
	}
}
