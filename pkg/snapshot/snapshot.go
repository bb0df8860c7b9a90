// Package snapshot persists the manager's entities as flat records and
// reads them back in replay order.
package snapshot

import (
	"context"
	"errors"

	"task-tracker/pkg/task"
)

// ErrMalformedRecord is returned by Load when a stored record cannot be parsed.
var ErrMalformedRecord = errors.New("malformed record")

// Snapshot is the full state of a manager, grouped by kind.
type Snapshot struct {
	Tasks    []*task.Task
	Epics    []*task.Task
	Subtasks []*task.Task
}

// Records returns tasks, then epics, then subtasks. Replaying them in this
// order lets every subtask find its epic.
func (s Snapshot) Records() []*task.Task {
	out := make([]*task.Task, 0, len(s.Tasks)+len(s.Epics)+len(s.Subtasks))
	out = append(out, s.Tasks...)
	out = append(out, s.Epics...)
	out = append(out, s.Subtasks...)
	return out
}

// Len is the total number of records.
func (s Snapshot) Len() int {
	return len(s.Tasks) + len(s.Epics) + len(s.Subtasks)
}

// Store saves and loads snapshots.
type Store interface {
	Save(ctx context.Context, s Snapshot) error
	// Load returns records in the order they were saved. A store that has
	// never been written returns no records and no error.
	Load(ctx context.Context) ([]*task.Task, error)
}
