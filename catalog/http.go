package catalog

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/scriptshelf/scriptshelf/catalog/internal/store"
)

// Routes builds the catalog API router, meant to be mounted under /api.
// guard, when non-nil, wraps the mutating script endpoints (typically a
// session check). Reads and agent log ingestion stay open.
func (s *Service) Routes(guard func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(s.auditRequests)

	r.Get("/scripts", s.handleListScripts)
	r.Get("/scripts/key/{key}", s.handleGetScriptByKey)
	r.Get("/scripts/{id}", s.handleGetScriptByID)

	r.Group(func(r chi.Router) {
		if guard != nil {
			r.Use(guard)
		}
		r.Post("/scripts", s.handleCreateScript)
		r.Put("/scripts/{id}", s.handleUpdateScript)
		r.Delete("/scripts/{id}", s.handleDeleteScript)
		r.Post("/scripts/{id}/versions", s.handleAddVersion)
	})

	r.Get("/logs", s.handleGetLogs)
	r.Post("/logs", s.handlePostLogs)

	return r
}

// auditRequests records every API request in the activity log.
func (s *Service) auditRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if host, _, err := net.SplitHostPort(ip); err == nil {
			ip = host
		}
		s.audit.Log(r.Context(), "API Request", fmt.Sprintf("%s %s - IP: %s", r.Method, r.URL.Path, ip))
		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleListScripts(w http.ResponseWriter, r *http.Request) {
	// Advisory filter: only the two known literals activate it, anything
	// else falls back to the full list.
	language := r.URL.Query().Get("language")
	if !store.ValidLanguage(language) {
		language = ""
	}
	scripts, err := s.store.ListScripts(r.Context(), language)
	if err != nil {
		writeMessage(w, 500, "Failed to fetch scripts")
		return
	}
	writeJSON(w, 200, scripts)
}

func (s *Service) handleGetScriptByKey(w http.ResponseWriter, r *http.Request) {
	script, err := s.store.GetScriptByKey(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		writeMessage(w, 500, "Failed to fetch script")
		return
	}
	if script == nil {
		writeMessage(w, 404, "Script not found")
		return
	}
	writeJSON(w, 200, script)
}

func (s *Service) handleGetScriptByID(w http.ResponseWriter, r *http.Request) {
	id, ok := scriptID(w, r)
	if !ok {
		return
	}
	script, err := s.store.GetScriptByID(r.Context(), id)
	if err != nil {
		writeMessage(w, 500, "Failed to fetch script")
		return
	}
	if script == nil {
		writeMessage(w, 404, "Script not found")
		return
	}
	writeJSON(w, 200, script)
}

func (s *Service) handleCreateScript(w http.ResponseWriter, r *http.Request) {
	var req createScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, 400, "Invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeMessage(w, 400, err.Error())
		return
	}

	script, err := s.store.CreateScript(r.Context(), req.Script.toScript(),
		req.Tags, req.Highlights, req.Version.Version, req.Version.Changes)
	if err != nil {
		writeMessage(w, 500, "Failed to create script")
		return
	}
	writeJSON(w, 201, script)
}

func (s *Service) handleUpdateScript(w http.ResponseWriter, r *http.Request) {
	id, ok := scriptID(w, r)
	if !ok {
		return
	}
	var req updateScriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, 400, "Invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeMessage(w, 400, err.Error())
		return
	}

	script, err := s.store.UpdateScript(r.Context(), id, req.Script.toPatch(), req.Tags, req.Highlights)
	if err != nil {
		writeMessage(w, 500, "Failed to update script")
		return
	}
	if script == nil {
		writeMessage(w, 404, "Script not found")
		return
	}
	writeJSON(w, 200, script)
}

func (s *Service) handleDeleteScript(w http.ResponseWriter, r *http.Request) {
	id, ok := scriptID(w, r)
	if !ok {
		return
	}
	deleted, err := s.store.DeleteScript(r.Context(), id)
	if err != nil {
		writeMessage(w, 500, "Failed to delete script")
		return
	}
	if !deleted {
		writeMessage(w, 404, "Script not found")
		return
	}
	w.WriteHeader(204)
}

func (s *Service) handleAddVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := scriptID(w, r)
	if !ok {
		return
	}
	var req versionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, 400, "Invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeMessage(w, 400, err.Error())
		return
	}

	version, err := s.store.AddVersion(r.Context(), id, req.Version, req.Changes)
	if err != nil {
		writeMessage(w, 500, "Failed to add script version")
		return
	}
	if version == nil {
		writeMessage(w, 404, "Script not found")
		return
	}
	writeJSON(w, 201, version)
}

func (s *Service) handleGetLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeMessage(w, 400, "Invalid limit")
			return
		}
		limit = n
	}

	// Queued entries must land before the read sees them.
	s.audit.Flush()

	logs, err := s.audit.Recent(r.Context(), limit)
	if err != nil {
		writeMessage(w, 500, "Failed to fetch logs")
		return
	}
	writeJSON(w, 200, map[string]any{"logs": logs})
}

type logEntryPayload struct {
	Action  string `json:"action"`
	Details string `json:"details"`
}

// handlePostLogs accepts either a single {action, details} entry or a
// batch {logs: [...]} from agents that buffer client-side.
func (s *Service) handlePostLogs(w http.ResponseWriter, r *http.Request) {
	var req struct {
		logEntryPayload
		Logs []logEntryPayload `json:"logs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, 400, "Invalid JSON body")
		return
	}

	entries := req.Logs
	if entries == nil {
		if req.Action == "" {
			writeMessage(w, 400, "action is required")
			return
		}
		entries = []logEntryPayload{req.logEntryPayload}
	}
	for _, e := range entries {
		if e.Action == "" {
			writeMessage(w, 400, "action is required")
			return
		}
		if _, err := s.audit.LogNow(r.Context(), e.Action, e.Details); err != nil {
			writeMessage(w, 500, "Failed to log actions")
			return
		}
	}
	writeJSON(w, 200, map[string]bool{"success": true})
}

func scriptID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeMessage(w, 400, "Invalid script ID")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
