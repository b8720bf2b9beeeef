// Package api exposes the navigation core over a small JSON console: session
// lifecycle, navigation, and cache introspection. It mirrors the caller API;
// nothing here adds semantics of its own.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/jmcleod/waypoint/navcache"
	"github.com/jmcleod/waypoint/navigator"
	"github.com/jmcleod/waypoint/session"
)

// API holds the handler dependencies.
type API struct {
	manager  *navigator.Manager
	sessions *session.Handler
	cache    *navcache.Cache
	logger   *slog.Logger
}

// New creates the console API.
func New(manager *navigator.Manager, sessions *session.Handler, cache *navcache.Cache, logger *slog.Logger) *API {
	return &API{
		manager:  manager,
		sessions: sessions,
		cache:    cache,
		logger:   logger.With("component", "api"),
	}
}

// Router returns the chi router for the console endpoints.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()

	r.Post("/sessions", a.handleInitSession)
	r.Get("/sessions/current", a.handleCurrentSession)
	r.Delete("/sessions/{sessionID}", a.handleInvalidateSession)

	r.Post("/navigate", a.handleNavigate)
	r.Post("/navigate/back", a.handleBack)
	r.Post("/navigate/retry", a.handleRetry)
	r.Get("/state", a.handleState)

	r.Get("/cache/stats", a.handleCacheStats)
	r.Delete("/cache", a.handleClearCache)

	return r
}

func (a *API) handleInitSession(w http.ResponseWriter, r *http.Request) {
	var req InitSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return
	}
	info := a.sessions.Initialize(req.UserID, req.Permissions)
	writeJSON(w, http.StatusCreated, info)
}

func (a *API) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	info, ok := a.sessions.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "no active session")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (a *API) handleInvalidateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	a.sessions.Invalidate(sessionID, session.ReasonExplicit)
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req NavigateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Target == "" {
		writeError(w, http.StatusBadRequest, "target is required")
		return
	}
	if req.Source == "" {
		req.Source = "api"
	}
	if req.Action == "" {
		req.Action = "push"
	}
	if err := a.manager.PerformNavigation(r.Context(), req.Target, req.Source, req.Action); err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NavigateResponse{
		Current:  a.manager.State().Current(),
		Previous: a.manager.State().Previous(),
	})
}

func (a *API) handleBack(w http.ResponseWriter, r *http.Request) {
	popped := a.manager.NavigateBack(r.Context())
	writeJSON(w, http.StatusOK, BackResponse{
		Popped:  popped,
		Current: a.manager.State().Current(),
	})
}

func (a *API) handleRetry(w http.ResponseWriter, r *http.Request) {
	if err := a.manager.RetryLastNavigation(r.Context()); err != nil {
		mapError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NavigateResponse{
		Current:  a.manager.State().Current(),
		Previous: a.manager.State().Previous(),
	})
}

func (a *API) handleState(w http.ResponseWriter, r *http.Request) {
	state := a.manager.State()
	writeJSON(w, http.StatusOK, StateResponse{
		Current:         state.Current(),
		Previous:        state.Previous(),
		CanNavigateBack: state.CanNavigateBack(),
		IsNavigating:    state.IsNavigating(),
		History:         state.History(),
	})
}

func (a *API) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, a.cache.Stats())
}

func (a *API) handleClearCache(w http.ResponseWriter, r *http.Request) {
	a.cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}
