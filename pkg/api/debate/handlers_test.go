package debate

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"agentic_debate/pkg/core/debate"
	"agentic_debate/pkg/core/roster"

	"github.com/go-chi/chi/v5"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// tickingGen answers like the simulator and spends 20 simulated seconds per call.
func tickingGen(clock *testClock, gate <-chan struct{}) debate.Generator {
	mock := &debate.MockGenerator{VoteOutEvery: 2}
	return debate.GeneratorFunc(func(ctx context.Context, speaker debate.Participant, prompt string) (string, error) {
		if gate != nil {
			<-gate
		}
		clock.Advance(20 * time.Second)
		return mock.Generate(ctx, speaker, prompt)
	})
}

func testRoster(t *testing.T) *roster.Roster {
	t.Helper()
	r, err := roster.New(roster.File{
		PropositionAgents: []debate.Participant{
			{ID: "alex", Name: "Alex", Personality: "passionate", Behavior: "Argue boldly."},
			{ID: "blake", Name: "Blake", Personality: "analytical", Behavior: "Use data."},
		},
		OppositionAgent: debate.Participant{ID: "sam", Name: "Sam", Personality: "skeptical", Behavior: "Doubt."},
		ModeratorAgent:  debate.Participant{ID: "morgan", Name: "Morgan", Personality: "neutral", Behavior: "Be fair."},
	})
	if err != nil {
		t.Fatalf("roster.New failed: %v", err)
	}
	return r
}

func newTestServer(t *testing.T, gate <-chan struct{}) (*Handler, http.Handler) {
	t.Helper()
	clock := &testClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	rs := testRoster(t)
	mgr := debate.NewManager(debate.ManagerConfig{
		Roster:    rs,
		Generator: tickingGen(clock, gate),
		Simulator: tickingGen(clock, gate),
		Options:   debate.Options{Clock: clock.Now},
	})
	h := NewHandler(mgr, rs, Defaults{DurationSeconds: 60, ExchangesPerRound: 2}, nil)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return h, r
}

func do(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func waitDone(t *testing.T, h *Handler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.Manager.Wait(ctx); err != nil {
		t.Fatalf("Wait failed: %v", err)
	}
}

func TestRootAndAgents(t *testing.T) {
	_, router := newTestServer(t, nil)

	w := do(t, router, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "/debate/stream") {
		t.Errorf("Unexpected root response %d %s", w.Code, w.Body.String())
	}

	w = do(t, router, http.MethodGet, "/agents", "")
	var info roster.Info
	if err := json.NewDecoder(w.Body).Decode(&info); err != nil {
		t.Fatalf("Failed to decode agents: %v", err)
	}
	if info.Counts.Total != 4 || info.Counts.Proposition != 2 {
		t.Errorf("Expected 4 agents with 2 propositions, got %+v", info.Counts)
	}
}

func TestNoDebate(t *testing.T) {
	_, router := newTestServer(t, nil)

	tests := []struct {
		method, target string
		code           int
	}{
		{http.MethodPost, "/debate/stop", http.StatusNotFound},
		{http.MethodGet, "/debate/state", http.StatusNotFound},
		{http.MethodGet, "/debate/summary.html", http.StatusNotFound},
		{http.MethodGet, "/debate/status", http.StatusOK},
		{http.MethodGet, "/debate/events", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
	}
	for _, tt := range tests {
		w := do(t, router, tt.method, tt.target, "")
		if w.Code != tt.code {
			t.Errorf("%s %s: expected %d, got %d", tt.method, tt.target, tt.code, w.Code)
		}
	}

	w := do(t, router, http.MethodGet, "/debate/events", "")
	var events EventsResponse
	json.NewDecoder(w.Body).Decode(&events)
	if events.Count != 0 || events.Events == nil {
		t.Errorf("Expected an empty event list, got %+v", events)
	}
}

func TestStartDebate(t *testing.T) {
	gate := make(chan struct{})
	h, router := newTestServer(t, gate)

	w := do(t, router, http.MethodPost, "/debate/start", `{"topic": "Remote work", "simulation": true}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp StartDebateResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.DebateID == "" || resp.Duration != 60 || resp.Status != "started" {
		t.Errorf("Unexpected start response %+v", resp)
	}

	w = do(t, router, http.MethodPost, "/debate/start", `{"topic": "Another"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("Expected 409 while busy, got %d", w.Code)
	}

	w = do(t, router, http.MethodGet, "/debate/status", "")
	var status debate.StatusInfo
	json.NewDecoder(w.Body).Decode(&status)
	if !status.IsRunning || status.DebateID != resp.DebateID {
		t.Errorf("Expected running status for %s, got %+v", resp.DebateID, status)
	}

	w = do(t, router, http.MethodPost, "/debate/stop", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 from stop, got %d", w.Code)
	}
	close(gate)
	waitDone(t, h)

	w = do(t, router, http.MethodGet, "/debate/state", "")
	var st debate.DebateState
	json.NewDecoder(w.Body).Decode(&st)
	if st.Phase != debate.PhaseCompleted || st.Topic != "Remote work" {
		t.Errorf("Expected completed debate, got %s %q", st.Phase, st.Topic)
	}

	w = do(t, router, http.MethodPost, "/debate/stop", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 from stop after the debate finished, got %d", w.Code)
	}
}

func TestStartDebate_BadRequest(t *testing.T) {
	_, router := newTestServer(t, nil)

	if w := do(t, router, http.MethodPost, "/debate/start", `{not json`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for malformed body, got %d", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/debate/start", `{"topic": ""}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing topic, got %d", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/debate/stream?topic=x&duration=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad duration, got %d", w.Code)
	}
}

func TestStreamDebate(t *testing.T) {
	h, router := newTestServer(t, nil)

	w := do(t, router, http.MethodGet, "/debate/stream?topic=Remote+work&duration=60&exchanges_per_round=2&simulation=true", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}
	if w.Header().Get("X-Accel-Buffering") != "no" {
		t.Error("Expected X-Accel-Buffering: no")
	}

	body := w.Body.String()
	frames := strings.Split(strings.TrimSpace(body), "\n\n")
	if !strings.HasPrefix(frames[0], "event: connected\n") {
		t.Errorf("Expected connected first, got %q", frames[0])
	}
	if !strings.HasPrefix(frames[len(frames)-1], "event: stream_end\n") {
		t.Errorf("Expected stream_end last, got %q", frames[len(frames)-1])
	}
	for _, want := range []string{"event: debate_started\n", "event: agent_message_complete\n", "event: debate_complete\n"} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected stream to contain %q", want)
		}
	}
	if !strings.Contains(frames[1], "id: 1\n") {
		t.Errorf("Expected first debate frame to carry id 1, got %q", frames[1])
	}

	waitDone(t, h)
	if w := do(t, router, http.MethodGet, "/debate/stream?topic=again&duration=60", ""); w.Code != http.StatusOK {
		t.Errorf("Expected a second stream after completion, got %d", w.Code)
	}
}

func TestEventsAndSummary(t *testing.T) {
	h, router := newTestServer(t, nil)
	do(t, router, http.MethodPost, "/debate/start", `{"topic": "Remote work"}`)
	waitDone(t, h)

	w := do(t, router, http.MethodGet, "/debate/events", "")
	var all EventsResponse
	json.NewDecoder(w.Body).Decode(&all)
	if all.Count == 0 || all.Events[0].Type != debate.EventDebateStarted {
		t.Fatalf("Expected buffered events starting with debate_started, got %d", all.Count)
	}

	since := all.Events[0].Timestamp.Format(time.RFC3339Nano)
	w = do(t, router, http.MethodGet, "/debate/events?since="+since, "")
	var later EventsResponse
	json.NewDecoder(w.Body).Decode(&later)
	if later.Count >= all.Count {
		t.Errorf("Expected fewer events since %s, got %d of %d", since, later.Count, all.Count)
	}

	if w := do(t, router, http.MethodGet, "/debate/events?since=yesterday", ""); w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for bad since, got %d", w.Code)
	}

	w = do(t, router, http.MethodGet, "/debate/summary.html", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "<h2>Overview</h2>") || !strings.Contains(w.Body.String(), "<title>Remote work</title>") {
		t.Errorf("Expected rendered summary, got %s", w.Body.String())
	}
}
