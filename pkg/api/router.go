// Package api assembles the HTTP router of the debate server.
package api

import (
	"log/slog"
	"net/http"
	"strings"

	"agentic_debate/pkg/api/config"
	apiDebate "agentic_debate/pkg/api/debate"
	"agentic_debate/pkg/api/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Options carries the handlers and settings of the router.
type Options struct {
	Debate     *apiDebate.Handler
	Config     *config.Handler
	CORSOrigin string
	Logger     *slog.Logger
}

// NewRouter builds the chi router with the global middleware stack.
func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RequestLogger(logger.With("component", "api")))
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.CORS(origins(opts.CORSOrigin)))

	opts.Debate.RegisterRoutes(r)
	if opts.Config != nil {
		opts.Config.RegisterRoutes(r)
	}
	return r
}

// origins splits a comma separated origin list. Empty means any origin.
func origins(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{"*"}
	}
	var out []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
