// Package manager owns every task, epic and subtask in memory. It assigns
// ids, derives epic status and timing, and keeps the view history and the
// schedule index consistent with its store on every mutation.
//
// The store, the history tracker and the schedule index share the same
// *task.Task handles. Callers only ever see clones. A Manager is not safe
// for concurrent use; wrap it in a lock when it is shared.
package manager

import (
	"fmt"
	"log"
	"slices"
	"time"

	"task-tracker/pkg/history"
	"task-tracker/pkg/schedule"
	"task-tracker/pkg/task"
)

// Manager is the in-memory entity store.
type Manager struct {
	lastID   int
	tasks    map[int]*task.Task
	epics    map[int]*task.Task
	subtasks map[int]*task.Task

	history  *history.Tracker
	schedule *schedule.Index
}

// New creates an empty Manager whose first assigned id is 1.
func New() *Manager {
	return &Manager{
		tasks:    make(map[int]*task.Task),
		epics:    make(map[int]*task.Task),
		subtasks: make(map[int]*task.Task),
		history:  history.New(),
		schedule: schedule.New(),
	}
}

// Counts summarises the manager's contents.
type Counts struct {
	Tasks     int `json:"tasks"`
	Epics     int `json:"epics"`
	Subtasks  int `json:"subtasks"`
	Scheduled int `json:"scheduled"`
	History   int `json:"history"`
	LastID    int `json:"lastId"`
}

// Counts reports how many entities of each kind are stored.
func (m *Manager) Counts() Counts {
	return Counts{
		Tasks:     len(m.tasks),
		Epics:     len(m.epics),
		Subtasks:  len(m.subtasks),
		Scheduled: m.schedule.Len(),
		History:   m.history.Len(),
		LastID:    m.lastID,
	}
}

// --- add ---

// AddTask stores a copy of t as a plain task and writes the assigned id back
// to t. A task whose interval overlaps a scheduled entity is rejected.
func (m *Manager) AddTask(t *task.Task) error {
	if t == nil {
		log.Printf("manager: add task: nil entity")
		return fmt.Errorf("add task: %w", ErrMalformedInput)
	}
	stored := t.Clone()
	stored.Kind = task.KindTask
	stored.EpicID = 0
	stored.Subtasks = nil
	stored.End = nil
	if stored.Status == "" {
		stored.Status = task.StatusNew
	}
	if err := m.admit(stored); err != nil {
		return fmt.Errorf("add task: %w", err)
	}
	m.tasks[stored.ID] = stored
	m.schedule.InsertIfNonConflicting(stored)
	t.ID = stored.ID
	return nil
}

// AddEpic stores a copy of e as an epic with no subtasks. Status and timing
// supplied by the caller are discarded.
func (m *Manager) AddEpic(e *task.Task) error {
	if e == nil {
		log.Printf("manager: add epic: nil entity")
		return fmt.Errorf("add epic: %w", ErrMalformedInput)
	}
	stored := &task.Task{
		ID:          e.ID,
		Kind:        task.KindEpic,
		Name:        e.Name,
		Description: e.Description,
	}
	if err := m.admit(stored); err != nil {
		return fmt.Errorf("add epic: %w", err)
	}
	m.epics[stored.ID] = stored
	m.deriveEpic(stored)
	e.ID = stored.ID
	return nil
}

// AddSubtask stores a copy of s under its epic and re-derives the epic.
func (m *Manager) AddSubtask(s *task.Task) error {
	if s == nil {
		log.Printf("manager: add subtask: nil entity")
		return fmt.Errorf("add subtask: %w", ErrMalformedInput)
	}
	epic, ok := m.epics[s.EpicID]
	if !ok {
		return fmt.Errorf("add subtask: epic %d: %w", s.EpicID, ErrInvalidReference)
	}
	stored := s.Clone()
	stored.Kind = task.KindSubtask
	stored.Subtasks = nil
	stored.End = nil
	if stored.Status == "" {
		stored.Status = task.StatusNew
	}
	if err := m.admit(stored); err != nil {
		return fmt.Errorf("add subtask: %w", err)
	}
	m.subtasks[stored.ID] = stored
	m.schedule.InsertIfNonConflicting(stored)
	if !slices.Contains(epic.Subtasks, stored.ID) {
		epic.Subtasks = append(epic.Subtasks, stored.ID)
	}
	m.deriveEpic(epic)
	s.ID = stored.ID
	return nil
}

// admit validates a new entity and assigns its id. Nothing is stored when it
// fails, and a rejected entity does not consume an id.
func (m *Manager) admit(t *task.Task) error {
	if t.ID < 0 {
		return fmt.Errorf("negative id %d: %w", t.ID, ErrMalformedInput)
	}
	if t.ID != 0 && m.exists(t.ID) {
		return fmt.Errorf("id %d already in use: %w", t.ID, ErrMalformedInput)
	}
	if err := checkDuration(t); err != nil {
		return err
	}
	if other := m.schedule.Conflict(t); other != nil {
		return fmt.Errorf("overlaps %s %d: %w", other.Kind, other.ID, ErrScheduleConflict)
	}
	if t.ID == 0 {
		m.lastID++
		t.ID = m.lastID
	} else if t.ID > m.lastID {
		m.lastID = t.ID
	}
	return nil
}

func checkDuration(t *task.Task) error {
	if t.Duration != nil && *t.Duration < 0 {
		return fmt.Errorf("negative duration %v: %w", *t.Duration, ErrMalformedInput)
	}
	return nil
}

func (m *Manager) exists(id int) bool {
	_, a := m.tasks[id]
	_, b := m.epics[id]
	_, c := m.subtasks[id]
	return a || b || c
}

// --- update ---

// UpdateTask replaces the stored task with a copy of t. On a schedule
// conflict the stored task, history and index stay as they were.
func (m *Manager) UpdateTask(t *task.Task) error {
	if t == nil {
		log.Printf("manager: update task: nil entity")
		return fmt.Errorf("update task: %w", ErrMalformedInput)
	}
	stored, ok := m.tasks[t.ID]
	if !ok {
		return fmt.Errorf("update task %d: %w", t.ID, ErrNotFound)
	}
	if err := checkDuration(t); err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	next := t.Clone()
	next.Kind = task.KindTask
	next.EpicID = 0
	next.Subtasks = nil
	next.End = nil
	if next.Status == "" {
		next.Status = stored.Status
	}
	if err := m.schedule.Replace(stored, next); err != nil {
		return fmt.Errorf("update task %d: %w", t.ID, err)
	}
	m.tasks[next.ID] = next
	m.history.Refresh(next)
	return nil
}

// UpdateSubtask replaces the stored subtask with a copy of s. s.EpicID must
// name the epic that already owns the subtask.
func (m *Manager) UpdateSubtask(s *task.Task) error {
	if s == nil {
		log.Printf("manager: update subtask: nil entity")
		return fmt.Errorf("update subtask: %w", ErrMalformedInput)
	}
	stored, ok := m.subtasks[s.ID]
	if !ok {
		return fmt.Errorf("update subtask %d: %w", s.ID, ErrNotFound)
	}
	epic, ok := m.epics[s.EpicID]
	if !ok {
		return fmt.Errorf("update subtask %d: epic %d: %w", s.ID, s.EpicID, ErrInvalidReference)
	}
	if !slices.Contains(epic.Subtasks, s.ID) {
		return fmt.Errorf("update subtask %d: not owned by epic %d: %w", s.ID, s.EpicID, ErrInvalidReference)
	}
	if err := checkDuration(s); err != nil {
		return fmt.Errorf("update subtask %d: %w", s.ID, err)
	}
	next := s.Clone()
	next.Kind = task.KindSubtask
	next.Subtasks = nil
	next.End = nil
	if next.Status == "" {
		next.Status = stored.Status
	}
	if err := m.schedule.Replace(stored, next); err != nil {
		return fmt.Errorf("update subtask %d: %w", s.ID, err)
	}
	m.subtasks[next.ID] = next
	m.history.Refresh(next)
	m.deriveEpic(epic)
	return nil
}

// UpdateEpic copies the name and description of e onto the stored epic.
// Status, timing and subtask links are derived: e may repeat their current
// values, but any other value fails with ErrInvalidReference.
func (m *Manager) UpdateEpic(e *task.Task) error {
	if e == nil {
		log.Printf("manager: update epic: nil entity")
		return fmt.Errorf("update epic: %w", ErrMalformedInput)
	}
	stored, ok := m.epics[e.ID]
	if !ok {
		return fmt.Errorf("update epic %d: %w", e.ID, ErrNotFound)
	}
	if field := derivedChange(stored, e); field != "" {
		return fmt.Errorf("update epic %d: %s is derived: %w", e.ID, field, ErrInvalidReference)
	}
	stored.Name = e.Name
	stored.Description = e.Description
	return nil
}

// derivedChange names the first derived epic field that e sets to a value
// other than the stored one, or returns "".
func derivedChange(stored, e *task.Task) string {
	switch {
	case e.Status != "" && e.Status != stored.Status:
		return "status"
	case e.EpicID != 0:
		return "epicId"
	case e.StartTime != nil && (stored.StartTime == nil || !e.StartTime.Equal(*stored.StartTime)):
		return "startTime"
	case e.Duration != nil && (stored.Duration == nil || *e.Duration != *stored.Duration):
		return "duration"
	case e.Subtasks != nil && !slices.Equal(e.Subtasks, stored.Subtasks):
		return "subtasks"
	}
	return ""
}

// --- get ---

// Task returns a copy of the task and records the view.
func (m *Manager) Task(id int) (*task.Task, bool) {
	return m.view(m.tasks, id)
}

// Epic returns a copy of the epic and records the view.
func (m *Manager) Epic(id int) (*task.Task, bool) {
	return m.view(m.epics, id)
}

// Subtask returns a copy of the subtask and records the view.
func (m *Manager) Subtask(id int) (*task.Task, bool) {
	return m.view(m.subtasks, id)
}

func (m *Manager) view(from map[int]*task.Task, id int) (*task.Task, bool) {
	t, ok := from[id]
	if !ok {
		return nil, false
	}
	m.history.Record(t)
	return t.Clone(), true
}

// Lookup returns a copy of the entity with id, whatever its kind, without
// recording a view.
func (m *Manager) Lookup(id int) (*task.Task, bool) {
	for _, from := range []map[int]*task.Task{m.tasks, m.epics, m.subtasks} {
		if t, ok := from[id]; ok {
			return t.Clone(), true
		}
	}
	return nil, false
}

// Tasks lists all tasks by id.
func (m *Manager) Tasks() []*task.Task { return sortedClones(m.tasks) }

// Epics lists all epics by id.
func (m *Manager) Epics() []*task.Task { return sortedClones(m.epics) }

// Subtasks lists all subtasks by id.
func (m *Manager) Subtasks() []*task.Task { return sortedClones(m.subtasks) }

// EpicSubtasks lists the subtasks of an epic in the order they were added.
// Listing does not record views.
func (m *Manager) EpicSubtasks(epicID int) ([]*task.Task, error) {
	epic, ok := m.epics[epicID]
	if !ok {
		return nil, fmt.Errorf("epic %d: %w", epicID, ErrNotFound)
	}
	out := make([]*task.Task, 0, len(epic.Subtasks))
	for _, id := range epic.Subtasks {
		if s, ok := m.subtasks[id]; ok {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

// History lists viewed entities, oldest first.
func (m *Manager) History() []*task.Task { return clones(m.history.History()) }

// Prioritized lists scheduled tasks and subtasks by ascending start time.
func (m *Manager) Prioritized() []*task.Task { return clones(m.schedule.All()) }

func sortedClones(from map[int]*task.Task) []*task.Task {
	out := make([]*task.Task, 0, len(from))
	for _, t := range from {
		out = append(out, t.Clone())
	}
	slices.SortFunc(out, func(a, b *task.Task) int { return a.ID - b.ID })
	return out
}

func clones(in []*task.Task) []*task.Task {
	out := make([]*task.Task, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

// --- delete ---

// DeleteTask removes a task from the store, the schedule and the history.
func (m *Manager) DeleteTask(id int) error {
	if _, ok := m.tasks[id]; !ok {
		return fmt.Errorf("delete task %d: %w", id, ErrNotFound)
	}
	m.purge(m.tasks, id)
	return nil
}

// DeleteSubtask removes a subtask and re-derives its epic.
func (m *Manager) DeleteSubtask(id int) error {
	s, ok := m.subtasks[id]
	if !ok {
		return fmt.Errorf("delete subtask %d: %w", id, ErrNotFound)
	}
	m.purge(m.subtasks, id)
	if epic, ok := m.epics[s.EpicID]; ok {
		epic.Subtasks = slices.DeleteFunc(epic.Subtasks, func(sid int) bool { return sid == id })
		m.deriveEpic(epic)
	}
	return nil
}

// DeleteEpic removes an epic together with all of its subtasks.
func (m *Manager) DeleteEpic(id int) error {
	epic, ok := m.epics[id]
	if !ok {
		return fmt.Errorf("delete epic %d: %w", id, ErrNotFound)
	}
	for _, sid := range epic.Subtasks {
		m.purge(m.subtasks, sid)
	}
	m.purge(m.epics, id)
	return nil
}

// DeleteAllTasks removes every plain task.
func (m *Manager) DeleteAllTasks() {
	m.purgeAll(m.tasks)
}

// DeleteAllEpics removes every epic and, with them, every subtask.
func (m *Manager) DeleteAllEpics() {
	m.purgeAll(m.subtasks)
	m.purgeAll(m.epics)
}

// DeleteAllSubtasks removes every subtask and re-derives every epic.
func (m *Manager) DeleteAllSubtasks() {
	m.purgeAll(m.subtasks)
	for _, epic := range m.epics {
		epic.Subtasks = nil
		m.deriveEpic(epic)
	}
}

func (m *Manager) purge(from map[int]*task.Task, id int) {
	delete(from, id)
	m.schedule.RemoveByID(id)
	if m.history.Contains(id) {
		m.history.Remove(id)
	}
}

// purgeAll empties from in one pass over the schedule.
func (m *Manager) purgeAll(from map[int]*task.Task) {
	m.schedule.RemoveIf(func(s *task.Task) bool {
		_, ok := from[s.ID]
		return ok
	})
	for id := range from {
		delete(from, id)
		if m.history.Contains(id) {
			m.history.Remove(id)
		}
	}
}

// --- restore ---

// Restore replays records through the add operations in order. Records keep
// their ids, so subtasks must come after the epic they reference.
func (m *Manager) Restore(records []*task.Task) error {
	for i, r := range records {
		var err error
		switch r.Kind {
		case task.KindTask:
			err = m.AddTask(r)
		case task.KindEpic:
			err = m.AddEpic(r)
		case task.KindSubtask:
			err = m.AddSubtask(r)
		default:
			err = fmt.Errorf("kind %q: %w", r.Kind, ErrMalformedInput)
		}
		if err != nil {
			return fmt.Errorf("restore record %d: %w", i+1, err)
		}
	}
	return nil
}

// --- epic derivation ---

func (m *Manager) deriveEpic(epic *task.Task) {
	m.updateEpicStatus(epic)
	m.updateEpicTime(epic)
}

// updateEpicStatus sets NEW when there are no subtasks or all are NEW, DONE
// when all are DONE, and IN_PROGRESS otherwise.
func (m *Manager) updateEpicStatus(epic *task.Task) {
	allNew, allDone, seen := true, true, 0
	for _, id := range epic.Subtasks {
		s, ok := m.subtasks[id]
		if !ok {
			continue
		}
		seen++
		if s.Status != task.StatusNew {
			allNew = false
		}
		if s.Status != task.StatusDone {
			allDone = false
		}
	}
	switch {
	case seen == 0 || allNew:
		epic.Status = task.StatusNew
	case allDone:
		epic.Status = task.StatusDone
	default:
		epic.Status = task.StatusInProgress
	}
}

// updateEpicTime spans the earliest start to the latest end of timed
// subtasks. Duration is the sum of their durations, zero when none is timed.
func (m *Manager) updateEpicTime(epic *task.Task) {
	var start, end *time.Time
	var total time.Duration
	for _, id := range epic.Subtasks {
		s, ok := m.subtasks[id]
		if !ok || !s.Timed() {
			continue
		}
		st, en := *s.StartTime, s.StartTime.Add(*s.Duration)
		if start == nil || st.Before(*start) {
			start = &st
		}
		if end == nil || en.After(*end) {
			end = &en
		}
		total += *s.Duration
	}
	epic.StartTime = start
	epic.End = end
	epic.Duration = &total
}
