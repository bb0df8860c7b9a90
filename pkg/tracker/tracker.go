// Package tracker puts one lock around a manager and attaches the side
// effects of a mutation: a snapshot save and a journal event.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"task-tracker/pkg/journal"
	"task-tracker/pkg/manager"
	"task-tracker/pkg/snapshot"
	"task-tracker/pkg/task"
)

// Tracker is safe for concurrent use. Every operation runs to completion
// under one mutex before the next begins.
type Tracker struct {
	mu      sync.Mutex
	m       *manager.Manager
	store   snapshot.Store
	mirror  snapshot.Store
	journal journal.Store
	source  string

	feedMu sync.Mutex
	feeds  map[*Feed]struct{}
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSnapshot saves the full state to s after every mutation.
func WithSnapshot(s snapshot.Store) Option {
	return func(t *Tracker) { t.store = s }
}

// WithMirror sets a secondary store written by Mirror and read by Open when
// the primary snapshot is empty.
func WithMirror(s snapshot.Store) Option {
	return func(t *Tracker) { t.mirror = s }
}

// WithJournal appends an event for every successful mutation.
func WithJournal(j journal.Store) Option {
	return func(t *Tracker) { t.journal = j }
}

// WithSource names the origin recorded in journal events.
func WithSource(src string) Option {
	return func(t *Tracker) { t.source = src }
}

// New creates an empty Tracker.
func New(opts ...Option) *Tracker {
	t := &Tracker{m: manager.New(), source: "api", feeds: make(map[*Feed]struct{})}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Open creates a Tracker and replays the saved snapshot into it. When the
// snapshot store holds nothing, the mirror is tried instead.
func Open(ctx context.Context, opts ...Option) (*Tracker, error) {
	t := New(opts...)
	records, from, err := t.load(ctx)
	if err != nil {
		return nil, err
	}
	if err := t.m.Restore(records); err != nil {
		return nil, fmt.Errorf("restore from %s: %w", from, err)
	}
	if len(records) > 0 {
		log.Printf("tracker: restored %d records from %s", len(records), from)
	}
	return t, nil
}

func (t *Tracker) load(ctx context.Context) ([]*task.Task, string, error) {
	for _, src := range []struct {
		name  string
		store snapshot.Store
	}{{"snapshot", t.store}, {"mirror", t.mirror}} {
		if src.store == nil {
			continue
		}
		records, err := src.store.Load(ctx)
		if errors.Is(err, snapshot.ErrMalformedRecord) {
			return nil, src.name, fmt.Errorf("load %s: %w: %v", src.name, manager.ErrMalformedInput, err)
		}
		if err != nil {
			return nil, src.name, fmt.Errorf("load %s: %w", src.name, err)
		}
		if len(records) > 0 {
			return records, src.name, nil
		}
	}
	return nil, "", nil
}

// --- mutations ---

// AddTask stores a new task and returns the stored copy.
func (t *Tracker) AddTask(ctx context.Context, in *task.Task) (*task.Task, error) {
	return t.Add(ctx, task.KindTask, in)
}

// AddEpic stores a new epic and returns the stored copy.
func (t *Tracker) AddEpic(ctx context.Context, in *task.Task) (*task.Task, error) {
	return t.Add(ctx, task.KindEpic, in)
}

// AddSubtask stores a new subtask and returns the stored copy.
func (t *Tracker) AddSubtask(ctx context.Context, in *task.Task) (*task.Task, error) {
	return t.Add(ctx, task.KindSubtask, in)
}

// Add stores a new entity of kind and returns the stored copy.
func (t *Tracker) Add(ctx context.Context, kind task.Kind, in *task.Task) (*task.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.add(ctx, kind, in)
}

func (t *Tracker) add(ctx context.Context, kind task.Kind, in *task.Task) (*task.Task, error) {
	fn := t.m.AddTask
	switch kind {
	case task.KindEpic:
		fn = t.m.AddEpic
	case task.KindSubtask:
		fn = t.m.AddSubtask
	}
	if in != nil {
		in = in.Clone()
	}
	if err := fn(in); err != nil {
		return nil, err
	}
	out, _ := t.m.Lookup(in.ID)
	t.committed(ctx, journal.Type(kind, journal.ActionCreated), out)
	return out, nil
}

// UpdateTask replaces a stored task.
func (t *Tracker) UpdateTask(ctx context.Context, in *task.Task) (*task.Task, error) {
	return t.Update(ctx, task.KindTask, in)
}

// UpdateEpic renames a stored epic.
func (t *Tracker) UpdateEpic(ctx context.Context, in *task.Task) (*task.Task, error) {
	return t.Update(ctx, task.KindEpic, in)
}

// UpdateSubtask replaces a stored subtask.
func (t *Tracker) UpdateSubtask(ctx context.Context, in *task.Task) (*task.Task, error) {
	return t.Update(ctx, task.KindSubtask, in)
}

// Update replaces the stored entity of kind named by in.ID.
func (t *Tracker) Update(ctx context.Context, kind task.Kind, in *task.Task) (*task.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.update(ctx, kind, in)
}

func (t *Tracker) update(ctx context.Context, kind task.Kind, in *task.Task) (*task.Task, error) {
	fn := t.m.UpdateTask
	switch kind {
	case task.KindEpic:
		fn = t.m.UpdateEpic
	case task.KindSubtask:
		fn = t.m.UpdateSubtask
	}
	if err := fn(in); err != nil {
		return nil, err
	}
	out, _ := t.m.Lookup(in.ID)
	t.committed(ctx, journal.Type(kind, journal.ActionUpdated), out)
	return out, nil
}

// Put updates in when its id names an existing entity of kind, and adds it
// otherwise. created reports which happened.
func (t *Tracker) Put(ctx context.Context, kind task.Kind, in *task.Task) (out *task.Task, created bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if in != nil && in.ID != 0 {
		if e, ok := t.m.Lookup(in.ID); ok && e.Kind == kind {
			out, err = t.update(ctx, kind, in)
			return out, false, err
		}
	}
	out, err = t.add(ctx, kind, in)
	return out, err == nil, err
}

// Delete removes the entity of kind with id. Epics take their subtasks along.
func (t *Tracker) Delete(ctx context.Context, kind task.Kind, id int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var err error
	switch kind {
	case task.KindEpic:
		err = t.m.DeleteEpic(id)
	case task.KindSubtask:
		err = t.m.DeleteSubtask(id)
	default:
		err = t.m.DeleteTask(id)
	}
	if err != nil {
		return err
	}
	t.committed(ctx, journal.Type(kind, journal.ActionDeleted), &task.Task{ID: id, Kind: kind})
	return nil
}

// DeleteAll removes every entity of kind.
func (t *Tracker) DeleteAll(ctx context.Context, kind task.Kind) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch kind {
	case task.KindEpic:
		t.m.DeleteAllEpics()
	case task.KindSubtask:
		t.m.DeleteAllSubtasks()
	default:
		t.m.DeleteAllTasks()
	}
	t.committed(ctx, journal.Type(kind, journal.ActionCleared), nil)
}

// committed runs the side effects of a successful mutation: snapshot save,
// journal append and feed delivery. Failures are logged; the mutation itself
// stands.
func (t *Tracker) committed(ctx context.Context, eventType string, e *task.Task) {
	if t.store != nil {
		if err := t.store.Save(ctx, t.snapshot()); err != nil {
			log.Printf("tracker: %s: %v", eventType, err)
		}
	}
	if t.journal == nil {
		return
	}
	var id int
	if e != nil {
		id = e.ID
	}
	ev, err := t.journal.Append(ctx, eventType, t.source, id, content(e))
	if err != nil {
		log.Printf("tracker: journal %s: %v", eventType, err)
		return
	}
	t.publish(ev)
}

func content(e *task.Task) map[string]any {
	if e == nil {
		return nil
	}
	c := map[string]any{"kind": string(e.Kind)}
	if e.Name != "" {
		c["name"] = e.Name
	}
	if e.Status != "" {
		c["status"] = string(e.Status)
	}
	if e.Kind != task.KindEpic {
		if e.StartTime != nil {
			c["startTime"] = task.FormatTime(*e.StartTime)
		}
		if e.Duration != nil {
			c["duration"] = task.FormatDuration(*e.Duration)
		}
	}
	if e.EpicID != 0 {
		c["epicId"] = e.EpicID
	}
	return c
}

// --- reads ---

// Task returns a task and records the view.
func (t *Tracker) Task(id int) (*task.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Task(id)
}

// Epic returns an epic and records the view.
func (t *Tracker) Epic(id int) (*task.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Epic(id)
}

// Subtask returns a subtask and records the view.
func (t *Tracker) Subtask(id int) (*task.Task, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Subtask(id)
}

// Get dispatches to Task, Epic or Subtask by kind.
func (t *Tracker) Get(kind task.Kind, id int) (*task.Task, bool) {
	switch kind {
	case task.KindEpic:
		return t.Epic(id)
	case task.KindSubtask:
		return t.Subtask(id)
	}
	return t.Task(id)
}

// List returns every entity of kind, ordered by id.
func (t *Tracker) List(kind task.Kind) []*task.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch kind {
	case task.KindEpic:
		return t.m.Epics()
	case task.KindSubtask:
		return t.m.Subtasks()
	}
	return t.m.Tasks()
}

// EpicSubtasks lists the subtasks of an epic.
func (t *Tracker) EpicSubtasks(epicID int) ([]*task.Task, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.EpicSubtasks(epicID)
}

// History lists viewed entities, oldest first.
func (t *Tracker) History() []*task.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.History()
}

// Prioritized lists scheduled entities by start time.
func (t *Tracker) Prioritized() []*task.Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Prioritized()
}

// Counts summarises the tracker's contents.
func (t *Tracker) Counts() manager.Counts {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.m.Counts()
}

// Journal is the configured journal, or nil.
func (t *Tracker) Journal() journal.Store {
	return t.journal
}

// --- persistence ---

// Snapshot returns the current state grouped by kind.
func (t *Tracker) Snapshot() snapshot.Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshot()
}

func (t *Tracker) snapshot() snapshot.Snapshot {
	return snapshot.Snapshot{
		Tasks:    t.m.Tasks(),
		Epics:    t.m.Epics(),
		Subtasks: t.m.Subtasks(),
	}
}

// Save writes the current state to the snapshot store.
func (t *Tracker) Save(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	return t.store.Save(ctx, t.Snapshot())
}

// MirrorCount reports how many records the mirror holds. ok is false when
// no mirror is set or it cannot count.
func (t *Tracker) MirrorCount(ctx context.Context) (n int, ok bool, err error) {
	c, ok := t.mirror.(interface {
		Count(context.Context) (int, error)
	})
	if !ok {
		return 0, false, nil
	}
	n, err = c.Count(ctx)
	return n, true, err
}

// Mirror writes the current state to the mirror store.
func (t *Tracker) Mirror(ctx context.Context) error {
	if t.mirror == nil {
		return nil
	}
	snap := t.Snapshot()
	if err := t.mirror.Save(ctx, snap); err != nil {
		return fmt.Errorf("mirror: %w", err)
	}
	log.Printf("tracker: mirrored %d records", snap.Len())
	return nil
}
