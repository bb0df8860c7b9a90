package api

import (
	"log"
	"net/http"
	"time"

	"task-tracker/pkg/calendar"
)

func (s *Server) handleEpicSubtasks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	subs, err := s.tracker.EpicSubtasks(id)
	if err != nil {
		writeTrackerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.History())
}

func (s *Server) handlePrioritized(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Prioritized())
}

// handlePrioritizedICS renders the schedule as an iCalendar feed.
func (s *Server) handlePrioritizedICS(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="prioritized.ics"`)
	if err := calendar.Write(w, s.tracker.Prioritized(), time.Now()); err != nil {
		log.Printf("api: write calendar: %v", err)
	}
}
