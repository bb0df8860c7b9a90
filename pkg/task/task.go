package task

import (
	"slices"
	"time"
)

// Kind tells which of the three entity shapes a Task carries.
type Kind string

const (
	KindTask    Kind = "TASK"
	KindEpic    Kind = "EPIC"
	KindSubtask Kind = "SUBTASK"
)

// ParseKind accepts the persisted and JSON spelling of a kind.
func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindTask, KindEpic, KindSubtask:
		return k, true
	}
	return "", false
}

// Status is the progress state of an entity. Epic status is always derived.
type Status string

const (
	StatusNew        Status = "NEW"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

// ParseStatus accepts the persisted and JSON spelling of a status.
func ParseStatus(s string) (Status, bool) {
	switch st := Status(s); st {
	case StatusNew, StatusInProgress, StatusDone:
		return st, true
	}
	return "", false
}

// Task is a task, an epic or a subtask, discriminated by Kind.
//
// EpicID is set only for subtasks. Subtasks is the ordered id list owned by an
// epic. For epics StartTime, Duration and End are derived from their subtasks
// and never taken from the caller.
type Task struct {
	ID          int
	Kind        Kind
	Name        string
	Description string
	Status      Status
	StartTime   *time.Time
	Duration    *time.Duration

	EpicID   int
	Subtasks []int

	// End is only stored for epics, where it is the latest subtask end.
	End *time.Time
}

// New returns a plain task with the given fields.
func New(name, description string, status Status) *Task {
	return &Task{Kind: KindTask, Name: name, Description: description, Status: status}
}

// NewEpic returns an epic with no subtasks.
func NewEpic(name, description string) *Task {
	return &Task{Kind: KindEpic, Name: name, Description: description, Status: StatusNew}
}

// NewSubtask returns a subtask belonging to epicID.
func NewSubtask(name, description string, status Status, epicID int) *Task {
	return &Task{Kind: KindSubtask, Name: name, Description: description, Status: status, EpicID: epicID}
}

// At sets the start time and duration and returns t for chaining.
func (t *Task) At(start time.Time, d time.Duration) *Task {
	t.StartTime = &start
	t.Duration = &d
	return t
}

// Timed reports whether both start time and duration are set.
func (t *Task) Timed() bool {
	return t.StartTime != nil && t.Duration != nil
}

// EndTime is start+duration, or the derived end for epics. Nil when unknown.
func (t *Task) EndTime() *time.Time {
	if t.Kind == KindEpic {
		return t.End
	}
	if !t.Timed() {
		return nil
	}
	end := t.StartTime.Add(*t.Duration)
	return &end
}

// Equal compares the identity fields: kind, id, name, description and status.
func (t *Task) Equal(o *Task) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.Kind == o.Kind &&
		t.ID == o.ID &&
		t.Name == o.Name &&
		t.Description == o.Description &&
		t.Status == o.Status
}

// Clone returns a deep copy.
func (t *Task) Clone() *Task {
	if t == nil {
		return nil
	}
	cp := *t
	if t.StartTime != nil {
		st := *t.StartTime
		cp.StartTime = &st
	}
	if t.Duration != nil {
		d := *t.Duration
		cp.Duration = &d
	}
	if t.End != nil {
		e := *t.End
		cp.End = &e
	}
	cp.Subtasks = slices.Clone(t.Subtasks)
	return &cp
}
