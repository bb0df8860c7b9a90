// Package history keeps the view history of entities: oldest first, one
// record per id, with constant-time removal from any position.
package history

import (
	"container/list"
	"log"

	"task-tracker/pkg/task"
)

// Tracker records viewed entities. It holds the same handles as the manager's
// store and is not safe for concurrent use.
type Tracker struct {
	order *list.List
	index map[int]*list.Element
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{
		order: list.New(),
		index: make(map[int]*list.Element),
	}
}

// Record marks t as the most recently viewed entity. A previous record for the
// same id is moved rather than duplicated.
func (h *Tracker) Record(t *task.Task) {
	if t == nil {
		log.Printf("history: record: nil entity ignored")
		return
	}
	if el, ok := h.index[t.ID]; ok {
		el.Value = t
		h.order.MoveToBack(el)
		return
	}
	h.index[t.ID] = h.order.PushBack(t)
}

// Refresh swaps the handle stored for t.ID without changing its position.
// It is a no-op when the id has no record.
func (h *Tracker) Refresh(t *task.Task) {
	if t == nil {
		return
	}
	if el, ok := h.index[t.ID]; ok {
		el.Value = t
	}
}

// Remove deletes the record for id.
func (h *Tracker) Remove(id int) {
	el, ok := h.index[id]
	if !ok {
		log.Printf("history: remove: no record for id %d", id)
		return
	}
	h.order.Remove(el)
	delete(h.index, id)
}

// Contains reports whether id has a record.
func (h *Tracker) Contains(id int) bool {
	_, ok := h.index[id]
	return ok
}

// Len is the number of records.
func (h *Tracker) Len() int {
	return len(h.index)
}

// History returns the viewed entities, oldest first.
func (h *Tracker) History() []*task.Task {
	out := make([]*task.Task, 0, len(h.index))
	for el := h.order.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*task.Task))
	}
	return out
}
