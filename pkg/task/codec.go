package task

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sosodev/duration"
)

// Layouts accepted by ParseTime, tried in order. Values without an offset are UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// FormatTime renders t as an ISO-8601 timestamp, keeping sub-second digits.
func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339Nano)
}

// ParseTime parses an ISO-8601 timestamp with or without offset and seconds.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("parse time %q: not ISO-8601", s)
}

// FormatDuration renders d as an ISO-8601 duration in hours, minutes and
// seconds, e.g. PT1H30M, PT0S, PT2.5S.
func FormatDuration(d time.Duration) string {
	iso := &duration.Duration{}
	if d < 0 {
		iso.Negative = true
		d = -d
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	iso.Hours, iso.Minutes = float64(h), float64(m)
	// Seconds go through decimal text so they print without float noise.
	iso.Seconds, _ = strconv.ParseFloat(fmt.Sprintf("%d.%09d", d/time.Second, d%time.Second), 64)
	return iso.String()
}

// ParseDuration parses an ISO-8601 duration such as PT1H30M, P1DT2H or
// -PT15M. Years and months are rejected since they have no fixed length.
func ParseDuration(s string) (time.Duration, error) {
	in := strings.ToUpper(strings.TrimSpace(s))
	body := strings.TrimPrefix(strings.TrimPrefix(in, "-"), "P")
	if body == "" || body == "T" {
		return 0, fmt.Errorf("parse duration %q: no components", s)
	}
	if last := in[len(in)-1]; last < 'A' || last > 'Z' {
		return 0, fmt.Errorf("parse duration %q: number without unit", s)
	}
	iso, err := duration.Parse(in)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if iso.Years != 0 || iso.Months != 0 {
		return 0, fmt.Errorf("parse duration %q: years and months have no fixed length", s)
	}
	return iso.ToTimeDuration(), nil
}

type wireTask struct {
	ID          int    `json:"id"`
	Kind        Kind   `json:"type,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      Status `json:"status,omitempty"`
	StartTime   string `json:"startTime,omitempty"`
	Duration    string `json:"duration,omitempty"`
	EndTime     string `json:"endTime,omitempty"`
	EpicID      int    `json:"epicId,omitempty"`
	Subtasks    []int  `json:"subtasks,omitempty"`
}

// MarshalJSON writes times and durations as ISO-8601 strings.
func (t Task) MarshalJSON() ([]byte, error) {
	w := wireTask{
		ID:          t.ID,
		Kind:        t.Kind,
		Name:        t.Name,
		Description: t.Description,
		Status:      t.Status,
		EpicID:      t.EpicID,
		Subtasks:    t.Subtasks,
	}
	if t.StartTime != nil {
		w.StartTime = FormatTime(*t.StartTime)
	}
	if t.Duration != nil {
		w.Duration = FormatDuration(*t.Duration)
	}
	if end := t.EndTime(); end != nil {
		w.EndTime = FormatTime(*end)
	}
	return json.Marshal(w)
}

// UnmarshalJSON validates kind and status and parses ISO-8601 fields.
// endTime is ignored: it is always derived.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w wireTask
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out := Task{
		ID:          w.ID,
		Name:        w.Name,
		Description: w.Description,
		EpicID:      w.EpicID,
		Subtasks:    w.Subtasks,
	}
	if w.Kind != "" {
		k, ok := ParseKind(string(w.Kind))
		if !ok {
			return fmt.Errorf("unknown type %q", w.Kind)
		}
		out.Kind = k
	}
	if w.Status != "" {
		st, ok := ParseStatus(string(w.Status))
		if !ok {
			return fmt.Errorf("unknown status %q", w.Status)
		}
		out.Status = st
	}
	if w.StartTime != "" {
		st, err := ParseTime(w.StartTime)
		if err != nil {
			return err
		}
		out.StartTime = &st
	}
	if w.Duration != "" {
		d, err := ParseDuration(w.Duration)
		if err != nil {
			return err
		}
		out.Duration = &d
	}
	*t = out
	return nil
}
