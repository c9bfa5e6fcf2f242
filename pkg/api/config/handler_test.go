package config

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"agentic_debate/pkg/core/agent"

	"github.com/go-chi/chi/v5"
)

func newRouter() (*agent.Manager, http.Handler) {
	mgr := agent.NewManager(agent.Config{ActiveProvider: "gemini"}, nil)
	r := chi.NewRouter()
	NewHandler(mgr).RegisterRoutes(r)
	return mgr, r
}

func TestHandleConfig(t *testing.T) {
	_, router := newRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp Response
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.ActiveProvider != "gemini" {
		t.Errorf("Expected gemini, got %s", resp.ActiveProvider)
	}
	if !strings.Contains(strings.Join(resp.Available, ","), "deepseek") {
		t.Errorf("Expected deepseek among available providers, got %v", resp.Available)
	}
}

func TestHandleSwitch(t *testing.T) {
	mgr, router := newRouter()

	tests := []struct {
		name string
		body string
		code int
	}{
		{"Known provider", `{"provider": "qwen"}`, http.StatusOK},
		{"Unknown provider", `{"provider": "nope"}`, http.StatusBadRequest},
		{"Malformed body", `provider=qwen`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/config/switch", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.code {
				t.Errorf("Expected %d, got %d", tt.code, w.Code)
			}
		})
	}
	if mgr.GetActiveProvider() != "qwen" {
		t.Errorf("Expected qwen to stay active, got %s", mgr.GetActiveProvider())
	}
}
