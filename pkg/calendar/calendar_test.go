package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"task-tracker/pkg/task"
)

func TestWrite_RoundTrip(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	a := task.New("Write report", "quarterly", task.StatusInProgress).At(start, time.Hour)
	a.ID = 1
	s := task.NewSubtask("Deploy", "", task.StatusDone, 2).At(start.Add(2*time.Hour), 30*time.Minute)
	s.ID = 3
	untimed := task.New("Someday", "", task.StatusNew)
	untimed.ID = 4

	var buf bytes.Buffer
	if err := Write(&buf, []*task.Task{a, s, untimed}, start); err != nil {
		t.Fatalf("Write() err=%v", err)
	}
	body := buf.String()
	for _, frag := range []string{"BEGIN:VCALENDAR", "METHOD:PUBLISH", "UID:task-1@task-tracker", "UID:subtask-3@task-tracker", "X-TASK-STATUS:DONE", "CATEGORIES:SUBTASK"} {
		if !strings.Contains(body, frag) {
			t.Fatalf("feed missing %q:\n%s", frag, body)
		}
	}
	if strings.Contains(body, "Someday") {
		t.Fatalf("untimed entity exported")
	}

	entries, err := Read(strings.NewReader(body))
	if err != nil {
		t.Fatalf("Read() err=%v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Read() returned %d entries, want 2", len(entries))
	}
	got := entries[1]
	if got.Kind != task.KindSubtask || got.ID != 3 || got.Summary != "Deploy" || got.Status != task.StatusDone {
		t.Fatalf("entry = %+v", got)
	}
	if !got.Start.Equal(start.Add(2*time.Hour)) || !got.End.Equal(start.Add(150*time.Minute)) {
		t.Fatalf("entry window = %v - %v", got.Start, got.End)
	}
}

func TestUID(t *testing.T) {
	e := task.NewEpic("e", "")
	e.ID = 12
	if got := UID(e); got != "epic-12@task-tracker" {
		t.Fatalf("UID()=%q", got)
	}
	if k, id := parseUID("epic-12@task-tracker"); k != task.KindEpic || id != 12 {
		t.Fatalf("parseUID()=%s,%d", k, id)
	}
	if k, id := parseUID("garbage"); k != "" || id != 0 {
		t.Fatalf("parseUID(garbage)=%s,%d", k, id)
	}
}
