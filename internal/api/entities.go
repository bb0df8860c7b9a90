package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"task-tracker/pkg/task"
)

// resource binds a collection path to the entity kind it serves.
type resource struct {
	path string
	kind task.Kind
}

var resources = []resource{
	{"tasks", task.KindTask},
	{"epics", task.KindEpic},
	{"subtasks", task.KindSubtask},
}

func (s *Server) handleList(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.tracker.List(res.kind))
	}
}

func (s *Server) handleGet(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		t, ok := s.tracker.Get(res.kind, id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("%s %d not found", res.path, id))
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

// handlePut creates the entity, or updates it when the body carries the id
// of an existing one. Both answer 201 with the stored entity.
func (s *Server) handlePut(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, ok := decodeEntity(w, r, res.kind)
		if !ok {
			return
		}
		out, _, err := s.tracker.Put(r.Context(), res.kind, in)
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func (s *Server) handleUpdate(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		in, ok := decodeEntity(w, r, res.kind)
		if !ok {
			return
		}
		if in.ID != 0 && in.ID != id {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("body id %d does not match path id %d", in.ID, id))
			return
		}
		in.ID = id
		out, err := s.tracker.Update(r.Context(), res.kind, in)
		if err != nil {
			writeTrackerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handleDelete(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := s.tracker.Delete(r.Context(), res.kind, id); err != nil {
			writeTrackerError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id, "type": res.kind})
	}
}

func (s *Server) handleDeleteAll(res resource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.tracker.DeleteAll(r.Context(), res.kind)
		writeJSON(w, http.StatusOK, map[string]any{"cleared": res.path})
	}
}

// decodeEntity reads a JSON entity body. A type field that names another
// kind is rejected.
func decodeEntity(w http.ResponseWriter, r *http.Request, kind task.Kind) (*task.Task, bool) {
	var t task.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return nil, false
	}
	if t.Kind != "" && t.Kind != kind {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("type %s does not belong here", t.Kind))
		return nil, false
	}
	t.Kind = kind
	return &t, true
}
