// Package schedule keeps time-bound entities ordered by start time and
// refuses entries whose interval overlaps an existing one.
package schedule

import (
	"errors"
	"fmt"
	"slices"

	"task-tracker/pkg/task"
)

// ErrConflict is returned when an interval overlaps a scheduled entity.
var ErrConflict = errors.New("interval overlaps a scheduled entity")

// Index is the start-ordered set of entities with both start time and
// duration. Members never overlap. Not safe for concurrent use.
type Index struct {
	items []*task.Task
}

// New creates an empty Index.
func New() *Index {
	return &Index{}
}

// Overlaps reports whether the half-open intervals [start, start+duration)
// of a and b intersect. Entities without timing never overlap; touching
// endpoints do not count.
func Overlaps(a, b *task.Task) bool {
	if a == nil || b == nil || !a.Timed() || !b.Timed() {
		return false
	}
	aEnd := a.StartTime.Add(*a.Duration)
	bEnd := b.StartTime.Add(*b.Duration)
	return a.StartTime.Before(bEnd) && b.StartTime.Before(aEnd)
}

// Conflict returns the first member, other than t itself, overlapping t.
func (x *Index) Conflict(t *task.Task) *task.Task {
	for _, m := range x.items {
		if m.ID != t.ID && Overlaps(m, t) {
			return m
		}
	}
	return nil
}

// InsertIfNonConflicting adds t when it is timed and overlaps nothing.
// Untimed entities are skipped and reported as not inserted without error.
func (x *Index) InsertIfNonConflicting(t *task.Task) (bool, error) {
	if t == nil || !t.Timed() {
		return false, nil
	}
	if other := x.Conflict(t); other != nil {
		return false, fmt.Errorf("%w: id %d", ErrConflict, other.ID)
	}
	x.insert(t)
	return true, nil
}

// Replace swaps old for next as one step. If next conflicts with any member
// other than old, the index is left as it was and ErrConflict is returned.
func (x *Index) Replace(old, next *task.Task) error {
	var removed *task.Task
	if old != nil {
		removed = x.RemoveByID(old.ID)
	}
	if next == nil || !next.Timed() {
		return nil
	}
	if other := x.Conflict(next); other != nil {
		if removed != nil {
			x.insert(removed)
		}
		return fmt.Errorf("%w: id %d", ErrConflict, other.ID)
	}
	x.insert(next)
	return nil
}

// Remove drops t if present.
func (x *Index) Remove(t *task.Task) {
	if t != nil {
		x.RemoveByID(t.ID)
	}
}

// RemoveByID drops the member with id and returns it, or nil.
func (x *Index) RemoveByID(id int) *task.Task {
	i := slices.IndexFunc(x.items, func(m *task.Task) bool { return m.ID == id })
	if i < 0 {
		return nil
	}
	m := x.items[i]
	x.items = slices.Delete(x.items, i, i+1)
	return m
}

// RemoveIf drops every member for which match returns true.
func (x *Index) RemoveIf(match func(*task.Task) bool) {
	x.items = slices.DeleteFunc(x.items, match)
}

// Contains reports whether id is scheduled.
func (x *Index) Contains(id int) bool {
	return slices.ContainsFunc(x.items, func(m *task.Task) bool { return m.ID == id })
}

// Len is the number of scheduled entities.
func (x *Index) Len() int {
	return len(x.items)
}

// All returns the members by ascending start time.
func (x *Index) All() []*task.Task {
	return slices.Clone(x.items)
}

func (x *Index) insert(t *task.Task) {
	i, _ := slices.BinarySearchFunc(x.items, t, compare)
	x.items = slices.Insert(x.items, i, t)
}

func compare(a, b *task.Task) int {
	if c := a.StartTime.Compare(*b.StartTime); c != 0 {
		return c
	}
	return a.ID - b.ID
}

