package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	wsadapter "rankkit/adapters/websocket"
	"rankkit/boards"
	"rankkit/core"
	"rankkit/realtime"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
	// HealthTimeout bounds the store ping of the health check (default 2s).
	HealthTimeout time.Duration
}

// NewMux builds an http.Handler exposing the leaderboard REST API and WebSocket stream.
// Routes:
//   - GET    {prefix}/boards
//   - GET    {prefix}/boards/{board}
//   - GET    {prefix}/boards/{board}/range?start=0&stop=9
//   - PUT    {prefix}/boards/{board}/entries/{id}
//   - GET    {prefix}/boards/{board}/entries/{id}
//   - DELETE {prefix}/boards/{board}/entries/{id}
//   - GET    {prefix}/boards/{board}/entries/{id}/rank
//   - POST   {prefix}/boards/{board}/save
//   - GET    {prefix}/boards/{board}/archive?season=
//   - POST   {prefix}/boards/{board}/clean
//   - POST   {prefix}/boards/{board}/rotate?season=
//   - GET    {prefix}/boards/{board}/season
//   - GET    {prefix}/healthz
//   - WS     {prefix}/ws?board=
func NewMux(reg *boards.Registry, hub *realtime.Hub, opts Options) http.Handler {
	h := &handlers{reg: reg, healthTimeout: opts.HealthTimeout}
	if h.healthTimeout <= 0 {
		h.healthTimeout = 2 * time.Second
	}

	r := chi.NewRouter()
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		r.Use(withRateLimit(newClientRateLimiter(opts.RateLimitRPM, opts.RateLimitBurst)))
	}
	if len(opts.APIKeys) > 0 {
		r.Use(withAPIKeyAuth(opts.APIKeys))
	}
	if opts.AllowCORSOrigin != "" {
		r.Use(withCORS(opts.AllowCORSOrigin))
	}
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	routes := func(r chi.Router) {
		r.Get("/healthz", h.health)
		if hub != nil {
			r.Handle("/ws", wsadapter.Handler(hub))
		}
		r.Route("/boards", func(r chi.Router) {
			r.Get("/", h.listBoards)
			r.Route("/{board}", func(r chi.Router) {
				r.Get("/", h.all)
				r.Get("/range", h.rangeEntries)
				r.Put("/entries/{id}", h.setEntry)
				r.Get("/entries/{id}", h.getEntry)
				r.Delete("/entries/{id}", h.deleteEntry)
				r.Get("/entries/{id}/rank", h.rank)
				r.Post("/save", h.save)
				r.Get("/archive", h.archive)
				r.Post("/clean", h.clean)
				r.Post("/rotate", h.rotate)
				r.Get("/season", h.season)
			})
		})
	}
	if p := trimPrefix(opts.PathPrefix); p != "" {
		r.Route(p, routes)
	} else {
		routes(r)
	}
	return r
}

func trimPrefix(prefix string) string {
	for len(prefix) > 0 && prefix[len(prefix)-1] == '/' {
		prefix = prefix[:len(prefix)-1]
	}
	return prefix
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// writeDomainError maps board errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, boards.ErrBoardNotFound):
		writeError(w, http.StatusNotFound, "board_not_found", err.Error(), nil)
	case errors.Is(err, boards.ErrNotSeasonal):
		writeError(w, http.StatusBadRequest, "not_seasonal", err.Error(), nil)
	case errors.Is(err, core.ErrInvalidEntry):
		writeError(w, http.StatusBadRequest, "invalid_entry", err.Error(), nil)
	case errors.Is(err, core.ErrUnimplementedOperation):
		writeError(w, http.StatusNotImplemented, "not_implemented", err.Error(), nil)
	case errors.Is(err, core.ErrReleased):
		writeError(w, http.StatusServiceUnavailable, "released", err.Error(), nil)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
	}
}
