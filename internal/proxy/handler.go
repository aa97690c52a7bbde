package proxy

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/FilmPriceGuide/FPG-Gateway/internal/gateway"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/middleware"
	"github.com/FilmPriceGuide/FPG-Gateway/internal/utils"
)

const (
	defaultSearchLimit  = 50
	defaultSearchSource = "database"
)

// AdminGate decides whether a session may use admin-only actions. The
// auth service implements it; tests use stubs.
type AdminGate interface {
	RequireAdmin(session *utils.SessionData) error
}

// Handler is the single proxy entry point. It resolves the inbound action
// name against a static table and dispatches to the gateway client. Every
// response, including every failure, is one JSON envelope.
type Handler struct {
	gateway  *gateway.Client
	sessions middleware.SessionFetcher
	admins   AdminGate
	actions  map[string]actionDef
}

type actionDef struct {
	methods      []string
	requireAuth  bool
	requireAdmin bool
	handle       func(h *Handler, req *actionRequest) gateway.Envelope
}

// actionRequest gives action handlers parameter access with the defined
// precedence: query-string value first, then body field, then default.
type actionRequest struct {
	r       *http.Request
	query   url.Values
	body    map[string]any
	session *utils.SessionData
}

func (a *actionRequest) param(names ...string) string {
	for _, name := range names {
		if v := a.query.Get(name); v != "" {
			return v
		}
	}
	for _, name := range names {
		if v, ok := a.body[name]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
			if f, ok := v.(float64); ok {
				return strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
	}
	return ""
}

func (a *actionRequest) intParam(name string, fallback int) int {
	raw := a.param(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func (a *actionRequest) floatParam(name string) *float64 {
	raw := a.param(name)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func NewHandler(gw *gateway.Client, sessions middleware.SessionFetcher, admins AdminGate) *Handler {
	h := &Handler{gateway: gw, sessions: sessions, admins: admins}
	h.actions = map[string]actionDef{
		"health_check": {
			methods: []string{http.MethodGet},
			handle: func(h *Handler, req *actionRequest) gateway.Envelope {
				return h.gateway.HealthCheck(req.r.Context())
			},
		},
		"system_status": {
			methods:      []string{http.MethodGet},
			requireAdmin: true,
			handle: func(h *Handler, req *actionRequest) gateway.Envelope {
				return h.gateway.GetSystemStatus(req.r.Context())
			},
		},
		"backend_url": {
			methods:      []string{http.MethodGet},
			requireAdmin: true,
			handle: func(h *Handler, req *actionRequest) gateway.Envelope {
				return gateway.Envelope{
					Success: true,
					Data:    map[string]any{"base_url": h.gateway.BaseURL(req.r.Context())},
				}
			},
		},
		"search_movies": {
			methods: []string{http.MethodGet, http.MethodPost},
			handle:  handleSearchMovies,
		},
		"movie_details": {
			methods: []string{http.MethodGet, http.MethodPost},
			handle:  handleMovieDetails,
		},
		"get_watchlist": {
			methods:     []string{http.MethodGet},
			requireAuth: true,
			handle: func(h *Handler, req *actionRequest) gateway.Envelope {
				return h.gateway.GetUserWatchlist(req.r.Context(), *req.session)
			},
		},
		"add_watchlist": {
			methods:     []string{http.MethodPost},
			requireAuth: true,
			handle:      handleAddWatchlist,
		},
		"update_api_keys": {
			methods:      []string{http.MethodPost},
			requireAdmin: true,
			handle:       handleUpdateAPIKeys,
		},
	}
	return h
}

func handleSearchMovies(h *Handler, req *actionRequest) gateway.Envelope {
	query := req.param("q", "query")
	filters := gateway.SearchFilters{
		Format: req.param("format"),
		Limit:  req.intParam("limit", defaultSearchLimit),
		Source: req.param("source"),
	}
	if filters.Source == "" {
		filters.Source = defaultSearchSource
	}
	return h.gateway.SearchMovies(req.r.Context(), query, filters)
}

func handleMovieDetails(h *Handler, req *actionRequest) gateway.Envelope {
	movieID := req.param("id")
	if movieID == "" {
		return gateway.Envelope{Success: false, Error: "Movie ID required"}
	}
	return h.gateway.GetMovieDetails(req.r.Context(), movieID)
}

func handleAddWatchlist(h *Handler, req *actionRequest) gateway.Envelope {
	movieID := req.param("id", "film_id")
	if movieID == "" {
		return gateway.Envelope{Success: false, Error: "Movie ID required"}
	}
	return h.gateway.AddToWatchlist(req.r.Context(), *req.session, movieID, req.floatParam("target_price"))
}

func handleUpdateAPIKeys(h *Handler, req *actionRequest) gateway.Envelope {
	keys := make(map[string]string)
	for k, v := range req.body {
		if k == "action" {
			continue
		}
		if s, ok := v.(string); ok {
			keys[k] = s
		}
	}
	if len(keys) == 0 {
		return gateway.Envelope{Success: false, Error: "API keys required"}
	}
	return h.gateway.UpdateAPIKeys(req.r.Context(), keys)
}

// ServeHTTP implements the proxy contract: one JSON object out, always.
// Panics from downstream code are caught and rendered, never re-raised to
// the HTTP layer.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[proxy] panic: %v", rec)
			writeEnvelope(w, http.StatusInternalServerError,
				gateway.Envelope{Success: false, Error: "internal error"})
		}
	}()

	req := &actionRequest{
		r:     r,
		query: r.URL.Query(),
		body:  decodeBody(r),
	}

	name := req.param("action")

	def, ok := h.actions[name]
	if !ok {
		writeEnvelope(w, http.StatusBadRequest,
			gateway.Envelope{Success: false, Error: "Unknown action"})
		return
	}

	if !methodAllowed(def.methods, r.Method) {
		writeEnvelope(w, http.StatusMethodNotAllowed,
			gateway.Envelope{Success: false, Error: "Method not allowed"})
		return
	}

	if def.requireAuth || def.requireAdmin {
		var session *utils.SessionData
		if s, ok := h.fetchSession(r); ok {
			session = &s
		}
		// Anonymous callers and non-admins get identical answers for
		// admin actions, so the gate leaks nothing about either.
		if def.requireAdmin {
			if err := h.admins.RequireAdmin(session); err != nil {
				writeEnvelope(w, http.StatusUnauthorized,
					gateway.Envelope{Success: false, Error: "Unauthorized"})
				return
			}
		} else if session == nil {
			writeEnvelope(w, http.StatusUnauthorized,
				gateway.Envelope{Success: false, Error: "Unauthorized"})
			return
		}
		req.session = session
	}

	writeEnvelope(w, http.StatusOK, def.handle(h, req))
}

func (h *Handler) fetchSession(r *http.Request) (utils.SessionData, bool) {
	cookie, err := r.Cookie("session_id")
	if err != nil {
		return utils.SessionData{}, false
	}
	session, err := h.sessions.FindSessionByID(cookie.Value)
	if err != nil {
		return utils.SessionData{}, false
	}
	return session, true
}

// decodeBody parses a JSON or form body into a flat parameter map. The
// body is read once; when the bytes are not JSON, the same bytes are
// reparsed as form encoding. Bodies are only consulted for POST and PUT.
func decodeBody(r *http.Request) map[string]any {
	body := make(map[string]any)
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		return body
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil || len(raw) == 0 {
		return body
	}

	if err := json.Unmarshal(raw, &body); err == nil {
		return body
	}

	// Legacy clients post form-encoded bodies.
	if values, err := url.ParseQuery(string(raw)); err == nil {
		for k, vs := range values {
			if len(vs) > 0 {
				body[k] = vs[0]
			}
		}
	}
	return body
}

func methodAllowed(methods []string, method string) bool {
	for _, m := range methods {
		if m == method {
			return true
		}
	}
	return false
}

func writeEnvelope(w http.ResponseWriter, status int, env gateway.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		fmt.Println("failed to encode proxy response:", err)
	}
}
