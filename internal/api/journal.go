package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"task-tracker/pkg/journal"
)

func (s *Server) handleJournalList(w http.ResponseWriter, r *http.Request) {
	j := s.tracker.Journal()
	if j == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}
	ctx := r.Context()
	limit := queryInt(r, "limit", 50)

	if after := r.URL.Query().Get("after"); after != "" {
		events, err := j.Since(ctx, after, limit)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	events, err := j.Recent(ctx, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, events)
}

// handleJournalStream serves journal events as server-sent events. ?type
// filters by event type prefix. ?after replays stored events following that
// id before live ones.
func (s *Server) handleJournalStream(w http.ResponseWriter, r *http.Request) {
	j := s.tracker.Journal()
	if j == nil {
		writeError(w, http.StatusNotFound, "journal disabled")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}
	ctx := r.Context()
	prefix := r.URL.Query().Get("type")

	// Open the feed before the replay; replayed ids are skipped below.
	feed := s.tracker.Watch(prefix)
	defer feed.Close()

	var backlog []journal.Event
	if after := r.URL.Query().Get("after"); after != "" {
		var err error
		backlog, err = j.Since(ctx, after, queryInt(r, "limit", 500))
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	replayed := make(map[string]bool, len(backlog))
	for i := range backlog {
		if strings.HasPrefix(backlog[i].Type, prefix) {
			writeEvent(w, &backlog[i])
		}
		replayed[backlog[i].ID] = true
	}
	flusher.Flush()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-keepalive.C:
			fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case e, ok := <-feed.C:
			if !ok {
				return
			}
			if replayed[e.ID] {
				continue
			}
			writeEvent(w, e)
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e *journal.Event) {
	fmt.Fprintf(w, "event: %s\ndata: ", e.Type)
	json.NewEncoder(w).Encode(e)
	fmt.Fprint(w, "\n")
}
