package api

import (
	"net/http"
	"time"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"counts": s.tracker.Counts(),
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if j := s.tracker.Journal(); j != nil {
		n, err := j.Count(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		status["journal"] = n
	}
	if n, ok, err := s.tracker.MirrorCount(r.Context()); ok {
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		status["mirror"] = n
	}
	writeJSON(w, http.StatusOK, status)
}
