// Package config serves the LLM provider settings and runtime provider switching.
package config

import (
	"encoding/json"
	"net/http"

	"agentic_debate/pkg/core/agent"

	"github.com/go-chi/chi/v5"
)

type Response struct {
	ActiveProvider string         `json:"active_provider"`
	Available      []string       `json:"available"`
	Routing        map[string]any `json:"routing"`
}

type SwitchRequest struct {
	Provider string `json:"provider"`
}

// Handler holds dependencies for config endpoints
type Handler struct {
	AgentMgr *agent.Manager
}

// NewHandler creates a new config handler
func NewHandler(agentMgr *agent.Manager) *Handler {
	return &Handler{
		AgentMgr: agentMgr,
	}
}

// RegisterRoutes mounts /api/config on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/config", func(r chi.Router) {
		r.Get("/", h.HandleConfig)
		r.Post("/switch", h.HandleSwitch)
	})
}

func (h *Handler) HandleConfig(w http.ResponseWriter, r *http.Request) {
	cfg := h.AgentMgr.Config()
	routing := make(map[string]any, len(cfg.Agents))
	for key, ac := range cfg.Agents {
		routing[key] = ac
	}
	resp := Response{
		ActiveProvider: h.AgentMgr.GetActiveProvider(),
		Available:      h.AgentMgr.Providers(),
		Routing:        routing,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	var req SwitchRequest
	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	err = h.AgentMgr.SetGlobalProvider(req.Provider)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status":          "switched",
		"active_provider": req.Provider,
	})
}
