package manager

import (
	"errors"
	"slices"
	"testing"
	"time"

	"task-tracker/pkg/task"
)

var day = time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

func hour(h int) time.Time { return day.Add(time.Duration(h) * time.Hour) }

func ids(ts []*task.Task) []int {
	var out []int
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func mustAdd(t *testing.T, add func(*task.Task) error, e *task.Task) *task.Task {
	t.Helper()
	if err := add(e); err != nil {
		t.Fatalf("add %q: %v", e.Name, err)
	}
	return e
}

func TestIDs_SharedCounterStartsAtOne(t *testing.T) {
	m := New()
	a := mustAdd(t, m.AddTask, task.New("a", "", task.StatusNew))
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	s := mustAdd(t, m.AddSubtask, task.NewSubtask("s", "", task.StatusNew, e.ID))

	if a.ID != 1 || e.ID != 2 || s.ID != 3 {
		t.Fatalf("ids = %d,%d,%d, want 1,2,3", a.ID, e.ID, s.ID)
	}
	m.DeleteTask(a.ID)
	b := mustAdd(t, m.AddTask, task.New("b", "", task.StatusNew))
	if b.ID != 4 {
		t.Fatalf("id after delete = %d, want 4", b.ID)
	}
}

func TestIDs_PresetKeptAndCounterCatchesUp(t *testing.T) {
	m := New()
	a := task.New("a", "", task.StatusNew)
	a.ID = 10
	mustAdd(t, m.AddTask, a)
	b := mustAdd(t, m.AddTask, task.New("b", "", task.StatusNew))
	if a.ID != 10 || b.ID != 11 {
		t.Fatalf("ids = %d,%d, want 10,11", a.ID, b.ID)
	}

	dup := task.New("dup", "", task.StatusNew)
	dup.ID = 10
	if err := m.AddEpic(dup); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("duplicate id err=%v, want ErrMalformedInput", err)
	}
}

func TestAdd_Nil(t *testing.T) {
	m := New()
	for name, add := range map[string]func(*task.Task) error{
		"task": m.AddTask, "epic": m.AddEpic, "subtask": m.AddSubtask,
	} {
		if err := add(nil); !errors.Is(err, ErrMalformedInput) {
			t.Fatalf("%s: err=%v, want ErrMalformedInput", name, err)
		}
	}
	if c := m.Counts(); c.Tasks+c.Epics+c.Subtasks != 0 || c.LastID != 0 {
		t.Fatalf("counts after nil adds = %+v", c)
	}
}

func TestAddSubtask_UnknownEpic(t *testing.T) {
	m := New()
	err := m.AddSubtask(task.NewSubtask("s", "", task.StatusNew, 99))
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("err=%v, want ErrInvalidReference", err)
	}
	if len(m.Subtasks()) != 0 {
		t.Fatalf("subtask stored despite bad reference")
	}
}

func TestAddSubtask_LinksEpicOnce(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	s := mustAdd(t, m.AddSubtask, task.NewSubtask("s", "", task.StatusInProgress, e.ID))

	got, _ := m.Epic(e.ID)
	if !slices.Equal(got.Subtasks, []int{s.ID}) {
		t.Fatalf("epic subtasks = %v, want [%d]", got.Subtasks, s.ID)
	}
	if got.Status != task.StatusInProgress {
		t.Fatalf("epic status = %s, want IN_PROGRESS", got.Status)
	}
}

func TestAdd_StoresCopy(t *testing.T) {
	m := New()
	a := mustAdd(t, m.AddTask, task.New("a", "", task.StatusNew))
	a.Name = "mutated"
	got, _ := m.Task(a.ID)
	if got.Name != "a" {
		t.Fatalf("stored name = %q, caller mutation leaked", got.Name)
	}
	got.Name = "again"
	again, _ := m.Task(a.ID)
	if again.Name != "a" {
		t.Fatalf("getter returned the stored handle")
	}
}

func TestAddEpic_IgnoresCallerStatusAndTiming(t *testing.T) {
	m := New()
	e := task.NewEpic("e", "")
	e.Status = task.StatusDone
	e.At(hour(10), time.Hour)
	mustAdd(t, m.AddEpic, e)

	got, _ := m.Epic(e.ID)
	if got.Status != task.StatusNew || got.StartTime != nil || got.EndTime() != nil {
		t.Fatalf("epic = %+v, want NEW with no timing", got)
	}
	if got.Duration == nil || *got.Duration != 0 {
		t.Fatalf("epic duration = %v, want 0", got.Duration)
	}
	if len(m.Prioritized()) != 0 {
		t.Fatalf("epic entered the schedule")
	}
}

func TestEpicStatus_Derivation(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	s1 := mustAdd(t, m.AddSubtask, task.NewSubtask("1", "", task.StatusNew, e.ID))
	s2 := mustAdd(t, m.AddSubtask, task.NewSubtask("2", "", task.StatusNew, e.ID))

	steps := []struct {
		s1, s2 task.Status
		want   task.Status
	}{
		{task.StatusNew, task.StatusNew, task.StatusNew},
		{task.StatusInProgress, task.StatusNew, task.StatusInProgress},
		{task.StatusDone, task.StatusNew, task.StatusInProgress},
		{task.StatusDone, task.StatusDone, task.StatusDone},
		{task.StatusNew, task.StatusDone, task.StatusInProgress},
		{task.StatusNew, task.StatusNew, task.StatusNew},
	}
	for i, st := range steps {
		s1.Status, s2.Status = st.s1, st.s2
		if err := m.UpdateSubtask(s1); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if err := m.UpdateSubtask(s2); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		got, _ := m.Epic(e.ID)
		if got.Status != st.want {
			t.Fatalf("step %d: epic status = %s, want %s", i, got.Status, st.want)
		}
	}

	m.DeleteSubtask(s1.ID)
	m.DeleteSubtask(s2.ID)
	got, _ := m.Epic(e.ID)
	if got.Status != task.StatusNew || len(got.Subtasks) != 0 {
		t.Fatalf("empty epic = %+v, want NEW with no subtasks", got)
	}
}

func TestEpicTime_Aggregation(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	mustAdd(t, m.AddSubtask, task.NewSubtask("1", "", task.StatusDone, e.ID).At(hour(10), 2*time.Hour))
	mustAdd(t, m.AddSubtask, task.NewSubtask("2", "", task.StatusDone, e.ID).At(hour(13), 2*time.Hour))

	got, _ := m.Epic(e.ID)
	if !got.StartTime.Equal(hour(10)) {
		t.Fatalf("start = %v, want 10:00", got.StartTime)
	}
	if !got.EndTime().Equal(hour(15)) {
		t.Fatalf("end = %v, want 15:00", got.EndTime())
	}
	if *got.Duration != 4*time.Hour {
		t.Fatalf("duration = %v, want 4h", *got.Duration)
	}
	if got.Status != task.StatusDone {
		t.Fatalf("status = %s, want DONE", got.Status)
	}
}

func TestEpicTime_UntimedSubtasksIgnored(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	mustAdd(t, m.AddSubtask, task.NewSubtask("1", "", task.StatusNew, e.ID))
	s := mustAdd(t, m.AddSubtask, task.NewSubtask("2", "", task.StatusNew, e.ID).At(hour(9), 30*time.Minute))

	got, _ := m.Epic(e.ID)
	if !got.StartTime.Equal(hour(9)) || *got.Duration != 30*time.Minute {
		t.Fatalf("epic timing = %v/%v", got.StartTime, got.Duration)
	}

	m.DeleteSubtask(s.ID)
	got, _ = m.Epic(e.ID)
	if got.StartTime != nil || got.EndTime() != nil || *got.Duration != 0 {
		t.Fatalf("epic timing after delete = %v/%v/%v", got.StartTime, got.EndTime(), *got.Duration)
	}
}

func TestPrioritized_ReordersOnUpdate(t *testing.T) {
	m := New()
	a := mustAdd(t, m.AddTask, task.New("A", "", task.StatusNew).At(hour(10), time.Hour))
	b := mustAdd(t, m.AddTask, task.New("B", "", task.StatusNew).At(hour(11), time.Hour))
	c := mustAdd(t, m.AddTask, task.New("C", "", task.StatusNew).At(hour(12), time.Hour))

	if got := ids(m.Prioritized()); !slices.Equal(got, []int{a.ID, b.ID, c.ID}) {
		t.Fatalf("prioritized = %v, want [A B C]", got)
	}
	a.At(hour(16), time.Hour)
	if err := m.UpdateTask(a); err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if got := ids(m.Prioritized()); !slices.Equal(got, []int{b.ID, c.ID, a.ID}) {
		t.Fatalf("prioritized = %v, want [B C A]", got)
	}
}

func TestAddTask_ConflictRejected(t *testing.T) {
	m := New()
	mustAdd(t, m.AddTask, task.New("A", "", task.StatusNew).At(hour(10), time.Hour))
	before := m.Counts()

	err := m.AddTask(task.New("B", "", task.StatusNew).At(hour(10).Add(30*time.Minute), time.Hour))
	if !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("err=%v, want ErrScheduleConflict", err)
	}
	if after := m.Counts(); after != before {
		t.Fatalf("counts changed: %+v -> %+v", before, after)
	}
}

func TestAddTask_TouchingIntervalsAccepted(t *testing.T) {
	m := New()
	mustAdd(t, m.AddTask, task.New("A", "", task.StatusNew).At(hour(10), time.Hour))
	mustAdd(t, m.AddTask, task.New("B", "", task.StatusNew).At(hour(11), time.Hour))
	if len(m.Prioritized()) != 2 {
		t.Fatalf("prioritized = %d, want 2", len(m.Prioritized()))
	}
}

func TestUpdateTask_ConflictLeavesStateIntact(t *testing.T) {
	m := New()
	a := mustAdd(t, m.AddTask, task.New("A", "", task.StatusNew).At(hour(10), time.Hour))
	b := mustAdd(t, m.AddTask, task.New("B", "", task.StatusNew).At(hour(12), time.Hour))
	m.Task(a.ID)
	m.Task(b.ID)

	next := task.New("A2", "", task.StatusDone).At(hour(12), time.Hour)
	next.ID = a.ID
	if err := m.UpdateTask(next); !errors.Is(err, ErrScheduleConflict) {
		t.Fatalf("err=%v, want ErrScheduleConflict", err)
	}

	if got := ids(m.Prioritized()); !slices.Equal(got, []int{a.ID, b.ID}) {
		t.Fatalf("prioritized = %v", got)
	}
	h := m.History()
	if !slices.Equal(ids(h), []int{a.ID, b.ID}) || h[0].Name != "A" {
		t.Fatalf("history = %+v", h)
	}
	stored, _ := m.Task(a.ID)
	if stored.Name != "A" || !stored.StartTime.Equal(hour(10)) {
		t.Fatalf("stored = %+v, want original", stored)
	}
}

func TestUpdate_HistorySeesNewValue(t *testing.T) {
	m := New()
	a := mustAdd(t, m.AddTask, task.New("A", "", task.StatusNew))
	m.Task(a.ID)
	a.Name = "renamed"
	m.UpdateTask(a)

	h := m.History()
	if len(h) != 1 || h[0].Name != "renamed" {
		t.Fatalf("history = %+v, want renamed entry", h)
	}
}

func TestUpdate_NotFound(t *testing.T) {
	m := New()
	ghost := task.New("x", "", task.StatusNew)
	ghost.ID = 42
	if err := m.UpdateTask(ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateTask err=%v", err)
	}
	if err := m.UpdateEpic(ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateEpic err=%v", err)
	}
	if err := m.UpdateSubtask(ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateSubtask err=%v", err)
	}
}

func TestUpdateSubtask_WrongEpic(t *testing.T) {
	m := New()
	e1 := mustAdd(t, m.AddEpic, task.NewEpic("e1", ""))
	e2 := mustAdd(t, m.AddEpic, task.NewEpic("e2", ""))
	s := mustAdd(t, m.AddSubtask, task.NewSubtask("s", "", task.StatusNew, e1.ID))

	s.EpicID = e2.ID
	if err := m.UpdateSubtask(s); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("other epic err=%v, want ErrInvalidReference", err)
	}
	s.EpicID = 99
	if err := m.UpdateSubtask(s); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("missing epic err=%v, want ErrInvalidReference", err)
	}
}

func TestUpdateEpic_OnlyNameAndDescription(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", "old"))
	mustAdd(t, m.AddSubtask, task.NewSubtask("s", "", task.StatusInProgress, e.ID).At(day.Add(10*time.Hour), time.Hour))

	// Echoing the derived fields back is accepted.
	upd, _ := m.Epic(e.ID)
	upd.Name, upd.Description = "renamed", "new"
	if err := m.UpdateEpic(upd); err != nil {
		t.Fatalf("UpdateEpic() err=%v, want nil", err)
	}
	got, _ := m.Epic(e.ID)
	if got.Name != "renamed" || got.Description != "new" {
		t.Fatalf("epic = %+v", got)
	}
	if got.Status != task.StatusInProgress || len(got.Subtasks) != 1 {
		t.Fatalf("derived fields overwritten: %+v", got)
	}
}

func TestUpdateEpic_DerivedFieldRejected(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	mustAdd(t, m.AddSubtask, task.NewSubtask("s", "", task.StatusNew, e.ID))

	cases := map[string]func(*task.Task){
		"status":   func(u *task.Task) { u.Status = task.StatusDone },
		"epicId":   func(u *task.Task) { u.EpicID = e.ID },
		"start":    func(u *task.Task) { u.At(day, time.Hour) },
		"subtasks": func(u *task.Task) { u.Subtasks = []int{99} },
	}
	for name, mutate := range cases {
		upd := task.NewEpic("renamed", "")
		upd.ID = e.ID
		mutate(upd)
		if err := m.UpdateEpic(upd); !errors.Is(err, ErrInvalidReference) {
			t.Errorf("%s: UpdateEpic() err=%v, want ErrInvalidReference", name, err)
		}
	}
	got, _ := m.Epic(e.ID)
	if got.Name != "e" {
		t.Fatalf("rejected update renamed epic to %q", got.Name)
	}
}

func TestGet_AbsentIsNotAnError(t *testing.T) {
	m := New()
	if _, ok := m.Task(1); ok {
		t.Fatalf("Task(1) ok=true on empty manager")
	}
	if len(m.History()) != 0 {
		t.Fatalf("absent lookup recorded history")
	}
}

func TestHistory_RecentLastNoDuplicates(t *testing.T) {
	m := New()
	a := mustAdd(t, m.AddTask, task.New("a", "", task.StatusNew))
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	s := mustAdd(t, m.AddSubtask, task.NewSubtask("s", "", task.StatusNew, e.ID))

	m.Task(a.ID)
	m.Epic(e.ID)
	m.Subtask(s.ID)
	m.Task(a.ID)

	if got := ids(m.History()); !slices.Equal(got, []int{e.ID, s.ID, a.ID}) {
		t.Fatalf("history = %v", got)
	}
	m.DeleteSubtask(s.ID)
	if got := ids(m.History()); !slices.Equal(got, []int{e.ID, a.ID}) {
		t.Fatalf("history after delete = %v", got)
	}
}

func TestDeleteEpic_Cascades(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	s1 := mustAdd(t, m.AddSubtask, task.NewSubtask("1", "", task.StatusNew, e.ID).At(hour(10), time.Hour))
	s2 := mustAdd(t, m.AddSubtask, task.NewSubtask("2", "", task.StatusNew, e.ID))
	m.Subtask(s1.ID)
	m.Subtask(s2.ID)
	m.Epic(e.ID)

	if err := m.DeleteEpic(e.ID); err != nil {
		t.Fatalf("DeleteEpic: %v", err)
	}
	if len(m.Subtasks()) != 0 || len(m.Epics()) != 0 {
		t.Fatalf("store not empty after cascade")
	}
	if len(m.Prioritized()) != 0 {
		t.Fatalf("schedule still holds subtasks")
	}
	if len(m.History()) != 0 {
		t.Fatalf("history = %v, want empty", ids(m.History()))
	}
}

func TestDelete_NotFound(t *testing.T) {
	m := New()
	for name, del := range map[string]func(int) error{
		"task": m.DeleteTask, "epic": m.DeleteEpic, "subtask": m.DeleteSubtask,
	} {
		if err := del(7); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: err=%v, want ErrNotFound", name, err)
		}
	}
}

func TestDelete_KindsAreSeparate(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	if err := m.DeleteTask(e.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("DeleteTask(epic id) err=%v, want ErrNotFound", err)
	}
}

func TestDeleteAllSubtasks_RecomputesEpics(t *testing.T) {
	m := New()
	e1 := mustAdd(t, m.AddEpic, task.NewEpic("e1", ""))
	e2 := mustAdd(t, m.AddEpic, task.NewEpic("e2", ""))
	mustAdd(t, m.AddSubtask, task.NewSubtask("1", "", task.StatusDone, e1.ID).At(hour(8), time.Hour))
	mustAdd(t, m.AddSubtask, task.NewSubtask("2", "", task.StatusInProgress, e2.ID))

	m.DeleteAllSubtasks()
	for _, e := range m.Epics() {
		if e.Status != task.StatusNew || len(e.Subtasks) != 0 || e.StartTime != nil || *e.Duration != 0 {
			t.Fatalf("epic %d not reset: %+v", e.ID, e)
		}
	}
	if len(m.Prioritized()) != 0 {
		t.Fatalf("schedule not cleared")
	}
}

func TestDeleteAllEpics_TakesSubtasks(t *testing.T) {
	m := New()
	mustAdd(t, m.AddTask, task.New("t", "", task.StatusNew))
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	mustAdd(t, m.AddSubtask, task.NewSubtask("s", "", task.StatusNew, e.ID))

	m.DeleteAllEpics()
	c := m.Counts()
	if c.Epics != 0 || c.Subtasks != 0 || c.Tasks != 1 {
		t.Fatalf("counts = %+v", c)
	}
}

func TestDeleteAllTasks(t *testing.T) {
	m := New()
	a := mustAdd(t, m.AddTask, task.New("a", "", task.StatusNew).At(hour(1), time.Hour))
	mustAdd(t, m.AddTask, task.New("b", "", task.StatusNew))
	m.Task(a.ID)

	m.DeleteAllTasks()
	if len(m.Tasks()) != 0 || len(m.Prioritized()) != 0 || len(m.History()) != 0 {
		t.Fatalf("tasks not fully cleared")
	}
}

func TestEpicSubtasks(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	s1 := mustAdd(t, m.AddSubtask, task.NewSubtask("1", "", task.StatusNew, e.ID))
	s2 := mustAdd(t, m.AddSubtask, task.NewSubtask("2", "", task.StatusNew, e.ID))

	got, err := m.EpicSubtasks(e.ID)
	if err != nil {
		t.Fatalf("EpicSubtasks: %v", err)
	}
	if !slices.Equal(ids(got), []int{s1.ID, s2.ID}) {
		t.Fatalf("subtasks = %v", ids(got))
	}
	if _, err := m.EpicSubtasks(99); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown epic err=%v", err)
	}
}

func TestRestore_RoundTrip(t *testing.T) {
	src := New()
	mustAdd(t, src.AddTask, task.New("a", "first", task.StatusInProgress).At(hour(9), 45*time.Minute))
	e := mustAdd(t, src.AddEpic, task.NewEpic("e", "group"))
	mustAdd(t, src.AddSubtask, task.NewSubtask("s1", "", task.StatusDone, e.ID).At(hour(11), time.Hour))
	mustAdd(t, src.AddSubtask, task.NewSubtask("s2", "", task.StatusNew, e.ID))

	var records []*task.Task
	records = append(records, src.Tasks()...)
	records = append(records, src.Epics()...)
	records = append(records, src.Subtasks()...)

	dst := New()
	if err := dst.Restore(records); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	for _, pair := range [][2][]*task.Task{
		{src.Tasks(), dst.Tasks()},
		{src.Epics(), dst.Epics()},
		{src.Subtasks(), dst.Subtasks()},
	} {
		if !slices.EqualFunc(pair[0], pair[1], (*task.Task).Equal) {
			t.Fatalf("restored %v, want %v", ids(pair[1]), ids(pair[0]))
		}
	}
	got, _ := dst.Epic(e.ID)
	if len(got.Subtasks) != 2 || !got.StartTime.Equal(hour(11)) {
		t.Fatalf("restored epic = %+v", got)
	}
	next := mustAdd(t, dst.AddTask, task.New("n", "", task.StatusNew))
	if next.ID != 5 {
		t.Fatalf("next id after restore = %d, want 5", next.ID)
	}
}

func TestRestore_StopsOnBadRecord(t *testing.T) {
	m := New()
	orphan := task.NewSubtask("s", "", task.StatusNew, 3)
	orphan.ID = 4
	if err := m.Restore([]*task.Task{orphan}); !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("err=%v, want ErrInvalidReference", err)
	}
}

func TestNegativeDuration_Rejected(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	if err := m.AddTask(task.New("a", "", task.StatusNew).At(hour(9), -time.Hour)); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("AddTask(-1h) err=%v, want ErrMalformedInput", err)
	}
	if err := m.AddSubtask(task.NewSubtask("s", "", task.StatusNew, e.ID).At(hour(9), -time.Minute)); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("AddSubtask(-1m) err=%v, want ErrMalformedInput", err)
	}

	a := mustAdd(t, m.AddTask, task.New("a", "", task.StatusNew).At(hour(9), time.Hour))
	s := mustAdd(t, m.AddSubtask, task.NewSubtask("s", "", task.StatusNew, e.ID).At(hour(11), time.Hour))
	if a.ID != 2 || s.ID != 3 {
		t.Fatalf("ids = %d,%d, want 2,3; rejected adds consumed ids", a.ID, s.ID)
	}

	badTask := a.Clone()
	badTask.At(hour(9), -30*time.Minute)
	if err := m.UpdateTask(badTask); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("UpdateTask(-30m) err=%v, want ErrMalformedInput", err)
	}
	badSub := s.Clone()
	badSub.At(hour(11), -30*time.Minute)
	if err := m.UpdateSubtask(badSub); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("UpdateSubtask(-30m) err=%v, want ErrMalformedInput", err)
	}

	got, _ := m.Task(a.ID)
	if *got.Duration != time.Hour {
		t.Fatalf("task duration = %v, want 1h", *got.Duration)
	}
	if ep, _ := m.Epic(e.ID); *ep.Duration != time.Hour {
		t.Fatalf("epic duration = %v, want 1h", *ep.Duration)
	}
}

func TestDeleteAllTasks_LeavesSubtasksScheduled(t *testing.T) {
	m := New()
	e := mustAdd(t, m.AddEpic, task.NewEpic("e", ""))
	mustAdd(t, m.AddTask, task.New("a", "", task.StatusNew).At(hour(8), time.Hour))
	mustAdd(t, m.AddTask, task.New("b", "", task.StatusNew).At(hour(10), time.Hour))
	s := mustAdd(t, m.AddSubtask, task.NewSubtask("s", "", task.StatusNew, e.ID).At(hour(9), time.Hour))

	m.DeleteAllTasks()
	if got := ids(m.Prioritized()); !slices.Equal(got, []int{s.ID}) {
		t.Fatalf("Prioritized()=%v, want [%d]", got, s.ID)
	}
	mustAdd(t, m.AddTask, task.New("c", "", task.StatusNew).At(hour(8), time.Hour))
}
