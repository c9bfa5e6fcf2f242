// Package debate exposes the debate manager over HTTP and Server-Sent Events.
package debate

import (
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"agentic_debate/pkg/core/debate"
	"agentic_debate/pkg/core/roster"
	"agentic_debate/pkg/core/utils"

	"github.com/go-chi/chi/v5"
)

const heartbeatInterval = 15 * time.Second

// Defaults fill in request fields that were left out.
type Defaults struct {
	DurationSeconds   int
	ExchangesPerRound int
}

type StartDebateRequest struct {
	Topic             string `json:"topic"`
	Duration          int    `json:"duration"`
	ExchangesPerRound int    `json:"exchanges_per_round"`
	FirstAgentID      string `json:"first_agent_id,omitempty"`
	Simulation        bool   `json:"simulation"`
}

type StartDebateResponse struct {
	Status   string `json:"status"`
	DebateID string `json:"debate_id"`
	Topic    string `json:"topic"`
	Duration int    `json:"duration"`
	Message  string `json:"message"`
}

type EventsResponse struct {
	Count  int             `json:"count"`
	Events []debate.Record `json:"events"`
}

// Handler holds dependencies for debate endpoints
type Handler struct {
	Manager  *debate.Manager
	Roster   *roster.Roster
	Defaults Defaults
	Logger   *slog.Logger
}

// NewHandler creates a new debate handler
func NewHandler(mgr *debate.Manager, r *roster.Roster, defaults Defaults, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if defaults.DurationSeconds <= 0 {
		defaults.DurationSeconds = 300
	}
	if defaults.ExchangesPerRound <= 0 {
		defaults.ExchangesPerRound = 3
	}
	return &Handler{
		Manager:  mgr,
		Roster:   r,
		Defaults: defaults,
		Logger:   logger.With("component", "api"),
	}
}

// RegisterRoutes mounts the debate endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleRoot)
	r.Get("/agents", h.HandleAgents)
	r.Get("/health", h.HandleHealth)
	r.Route("/debate", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)
		r.Post("/start", h.HandleStart)
		r.Get("/stream", h.HandleStream)
		r.Post("/stop", h.HandleStop)
		r.Get("/events", h.HandleEvents)
		r.Get("/state", h.HandleState)
		r.Get("/summary.html", h.HandleSummaryHTML)
	})
}

func (h *Handler) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":    "Agentic Debate API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"agents": "/agents",
			"debate": "/debate",
			"stream": "/debate/stream",
			"status": "/debate/status",
		},
	})
}

func (h *Handler) HandleAgents(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Roster.Info())
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":        "healthy",
		"timestamp":     time.Now().Format(time.RFC3339),
		"active_debate": h.Manager.Status().IsRunning,
	})
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Manager.Status())
}

// HandleStart starts a debate in the background. Events are read from
// /debate/events or by a stream subscriber.
func (h *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	var req StartDebateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	cfg := h.config(req.Topic, req.Duration, req.ExchangesPerRound, req.FirstAgentID)

	id, err := h.Manager.Start(cfg, req.Simulation)
	if err != nil {
		h.startFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StartDebateResponse{
		Status:   "started",
		DebateID: id,
		Topic:    cfg.Topic,
		Duration: cfg.DurationSeconds,
		Message:  "Debate started. Use /debate/stream for live events.",
	})
}

// HandleStream starts a debate from query parameters and streams its events
// as SSE until the debate ends. A client that disconnects only unsubscribes;
// the debate keeps running.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	duration, err := queryInt(q.Get("duration"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "duration must be an integer")
		return
	}
	exchanges, err := queryInt(q.Get("exchanges_per_round"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "exchanges_per_round must be an integer")
		return
	}
	simulate, _ := strconv.ParseBool(q.Get("simulation"))
	cfg := h.config(q.Get("topic"), duration, exchanges, q.Get("first_agent_id"))

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "Streaming not supported")
		return
	}

	id, err := h.Manager.Start(cfg, simulate)
	if err != nil {
		h.startFailed(w, err)
		return
	}
	msgChan, history := h.Manager.Subscribe()
	defer h.Manager.Unsubscribe(msgChan)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	connected, _ := json.Marshal(map[string]string{
		"message":   "Connected to debate stream",
		"topic":     cfg.Topic,
		"debate_id": id,
		"timestamp": time.Now().Format(time.RFC3339),
	})
	if err := writeSSE(w, "connected", string(connected)); err != nil {
		return
	}
	flusher.Flush()
	h.Logger.Info("stream connected", "debate_id", id)

	for _, rec := range history {
		if err := writeRecord(w, rec); err != nil {
			return
		}
	}
	flusher.Flush()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case rec, open := <-msgChan:
			if !open {
				end, _ := json.Marshal(map[string]string{
					"message":   "Stream ended",
					"timestamp": time.Now().Format(time.RFC3339),
				})
				writeSSE(w, "stream_end", string(end))
				flusher.Flush()
				return
			}
			if err := writeRecord(w, rec); err != nil {
				return
			}
			flusher.Flush()

		case <-heartbeat.C:
			if _, err := io.WriteString(w, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			h.Logger.Info("stream client disconnected", "debate_id", id)
			return
		}
	}
}

func (h *Handler) HandleStop(w http.ResponseWriter, r *http.Request) {
	if err := h.Manager.Stop(); err != nil {
		if errors.Is(err, debate.ErrNoDebate) {
			writeError(w, http.StatusNotFound, "No active debate")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "stopped",
		"message": "Debate stopped",
	})
}

// HandleEvents returns buffered events for late-joining clients. The optional
// since parameter is an RFC 3339 timestamp.
func (h *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since must be an RFC 3339 timestamp")
			return
		}
		since = t
	}
	events := h.Manager.Events(since)
	if events == nil {
		events = []debate.Record{}
	}
	writeJSON(w, http.StatusOK, EventsResponse{Count: len(events), Events: events})
}

func (h *Handler) HandleState(w http.ResponseWriter, r *http.Request) {
	st, err := h.Manager.State()
	if err != nil {
		writeError(w, http.StatusNotFound, "No active debate")
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// HandleSummaryHTML renders the moderator's summary of the latest debate.
func (h *Handler) HandleSummaryHTML(w http.ResponseWriter, r *http.Request) {
	st, err := h.Manager.State()
	if err != nil || st.Summary == "" {
		writeError(w, http.StatusNotFound, "No summary available")
		return
	}
	body, err := utils.MarkdownToHTML(st.Summary)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("render summary: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\"><title>%s</title></head><body>\n%s</body></html>\n",
		html.EscapeString(st.Topic), body)
}

func (h *Handler) config(topic string, duration, exchanges int, firstAgent string) debate.Config {
	if duration == 0 {
		duration = h.Defaults.DurationSeconds
	}
	if exchanges == 0 {
		exchanges = h.Defaults.ExchangesPerRound
	}
	return debate.Config{
		Topic:             topic,
		DurationSeconds:   duration,
		ExchangesPerRound: exchanges,
		FirstAgentID:      firstAgent,
	}
}

func (h *Handler) startFailed(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, debate.ErrDebateInProgress):
		writeError(w, http.StatusConflict, "A debate is already in progress")
	case errors.Is(err, debate.ErrConfig):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.Logger.Error("failed to start debate", "error", err)
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to start debate: %v", err))
	}
}

func queryInt(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeRecord(w io.Writer, rec debate.Record) error {
	_, err := fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", rec.Seq, rec.Type, rec.Data)
	return err
}

func writeSSE(w io.Writer, event, data string) error {
	_, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
	return err
}
