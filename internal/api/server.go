package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"task-tracker/pkg/manager"
	"task-tracker/pkg/tracker"
)

// Server is the HTTP API server.
type Server struct {
	tracker *tracker.Tracker
	webDir  string
	mux     *http.ServeMux
	started time.Time
}

// New creates a new Server. A non-empty webDir is served at / for the
// dashboard build.
func New(t *tracker.Tracker, webDir string) *Server {
	s := &Server{
		tracker: t,
		webDir:  webDir,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler. A panicking handler answers 500.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if v := recover(); v != nil {
			log.Printf("api: panic in %s %s: %v", r.Method, r.URL.Path, v)
			writeError(w, http.StatusInternalServerError, "internal error")
		}
	}()
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	// Tasks, epics, subtasks
	for _, res := range resources {
		s.mux.HandleFunc("GET /"+res.path, s.handleList(res))
		s.mux.HandleFunc("POST /"+res.path, s.handlePut(res))
		s.mux.HandleFunc("DELETE /"+res.path, s.handleDeleteAll(res))
		s.mux.HandleFunc("GET /"+res.path+"/{id}", s.handleGet(res))
		s.mux.HandleFunc("POST /"+res.path+"/{id}", s.handleUpdate(res))
		s.mux.HandleFunc("DELETE /"+res.path+"/{id}", s.handleDelete(res))
	}
	s.mux.HandleFunc("GET /epics/{id}/subtasks", s.handleEpicSubtasks)

	// Views
	s.mux.HandleFunc("GET /history", s.handleHistory)
	s.mux.HandleFunc("GET /prioritized", s.handlePrioritized)
	s.mux.HandleFunc("GET /prioritized.ics", s.handlePrioritizedICS)

	// Journal
	s.mux.HandleFunc("GET /journal", s.handleJournalList)
	s.mux.HandleFunc("GET /journal/stream", s.handleJournalStream)

	// System
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /status", s.handleStatus)

	// Static files (Gio WASM dashboard)
	if s.webDir != "" {
		s.mux.Handle("GET /", http.FileServer(http.Dir(s.webDir)))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeTrackerError maps the manager's error taxonomy onto status codes.
func writeTrackerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, manager.ErrMalformedInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, manager.ErrNotFound), errors.Is(err, manager.ErrInvalidReference):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, manager.ErrScheduleConflict):
		writeError(w, http.StatusNotAcceptable, err.Error())
	default:
		log.Printf("api: %v", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// pathID parses the {id} path value. It writes a 400 and reports false when
// the value is not a positive integer.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid id "+strconv.Quote(r.PathValue("id")))
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string, defaultVal int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return n
}
