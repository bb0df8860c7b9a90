// Package calendar renders scheduled entities as an iCalendar feed.
package calendar

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"task-tracker/pkg/task"
)

// ProductID identifies the feed's producer.
const ProductID = "-//task-tracker//prioritized//EN"

// PropertyStatus carries the entity status on each event.
const PropertyStatus = ical.ComponentProperty("X-TASK-STATUS")

// UID is the event UID for an entity, e.g. "task-7@task-tracker".
func UID(t *task.Task) string {
	return fmt.Sprintf("%s-%d@task-tracker", strings.ToLower(string(t.Kind)), t.ID)
}

// Build returns a calendar with one event per timed entity in items. Untimed
// entities are skipped. stamp is written as DTSTAMP on every event.
func Build(items []*task.Task, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName("Prioritized tasks")

	for _, t := range items {
		end := t.EndTime()
		if t.StartTime == nil || end == nil {
			continue
		}
		ev := cal.AddEvent(UID(t))
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(t.StartTime.UTC())
		ev.SetEndAt(end.UTC())
		ev.SetSummary(t.Name)
		if t.Description != "" {
			ev.SetDescription(t.Description)
		}
		ev.SetProperty(ical.ComponentPropertyCategories, string(t.Kind))
		ev.SetProperty(PropertyStatus, string(t.Status))
		if t.Kind == task.KindSubtask {
			ev.SetProperty(ical.ComponentPropertyRelatedTo, UID(&task.Task{Kind: task.KindEpic, ID: t.EpicID}))
		}
	}
	return cal
}

// Write serialises the calendar for items to w.
func Write(w io.Writer, items []*task.Task, stamp time.Time) error {
	_, err := io.WriteString(w, Build(items, stamp).Serialize())
	return err
}

// Entry is an event read back from a feed.
type Entry struct {
	UID         string
	Kind        task.Kind
	ID          int
	Summary     string
	Description string
	Status      task.Status
	Start       time.Time
	End         time.Time
}

// Read parses an iCalendar feed. Kind and ID are set for UIDs in the form
// Write produces; events from other producers leave them zero.
func Read(r io.Reader) ([]Entry, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}
	var out []Entry
	for _, ve := range cal.Events() {
		var e Entry
		if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
			e.UID = p.Value
			e.Kind, e.ID = parseUID(p.Value)
		}
		if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
			e.Summary = p.Value
		}
		if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
			e.Description = p.Value
		}
		if p := ve.GetProperty(PropertyStatus); p != nil {
			e.Status = task.Status(p.Value)
		}
		e.Start, _ = ve.GetStartAt()
		e.End, _ = ve.GetEndAt()
		out = append(out, e)
	}
	return out, nil
}

func parseUID(uid string) (task.Kind, int) {
	local, _, _ := strings.Cut(uid, "@")
	kind, id, ok := strings.Cut(local, "-")
	if !ok {
		return "", 0
	}
	n, err := strconv.Atoi(id)
	if err != nil {
		return "", 0
	}
	k, _ := task.ParseKind(strings.ToUpper(kind))
	return k, n
}
