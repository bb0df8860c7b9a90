package task

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{0, "PT0S"},
		{time.Hour, "PT1H"},
		{90 * time.Minute, "PT1H30M"},
		{45 * time.Second, "PT45S"},
		{2500 * time.Millisecond, "PT2.5S"},
		{49 * time.Hour, "PT49H"},
		{-90 * time.Minute, "-PT1H30M"},
		{time.Hour + 800*time.Millisecond, "PT1H0.8S"},
	}
	for _, c := range cases {
		if got := FormatDuration(c.in); got != c.want {
			t.Errorf("FormatDuration(%v)=%q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"PT0S", 0},
		{"PT1H", time.Hour},
		{"PT1H30M", 90 * time.Minute},
		{"pt15m", 15 * time.Minute},
		{"PT2.5S", 2500 * time.Millisecond},
		{"P1D", 24 * time.Hour},
		{"P1DT2H", 26 * time.Hour},
		{"P1W", 7 * 24 * time.Hour},
		{" PT1H0.8S ", time.Hour + 800*time.Millisecond},
		{"-PT1H", -time.Hour},
	}
	for _, c := range cases {
		got, err := ParseDuration(c.in)
		if err != nil {
			t.Errorf("ParseDuration(%q) err=%v, want nil", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseDuration(%q)=%v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseDuration_Invalid(t *testing.T) {
	for _, in := range []string{"", "P", "PT", "-P", "1H", "PT1X", "PTH", "P1Y", "P2M", "one hour", "PT-1H", "PT1"} {
		if _, err := ParseDuration(in); err == nil {
			t.Errorf("ParseDuration(%q) err=nil, want error", in)
		}
	}
}

func TestDurationRoundTrip(t *testing.T) {
	for _, d := range []time.Duration{time.Minute, 3*time.Hour + 7*time.Second, 1234567 * time.Microsecond} {
		got, err := ParseDuration(FormatDuration(d))
		if err != nil {
			t.Fatalf("ParseDuration(FormatDuration(%v)) err=%v", d, err)
		}
		if got != d {
			t.Fatalf("round trip %v -> %v", d, got)
		}
	}
}

func TestParseTime(t *testing.T) {
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, in := range []string{"2025-03-01T10:00:00Z", "2025-03-01T10:00:00", "2025-03-01T10:00"} {
		got, err := ParseTime(in)
		if err != nil {
			t.Fatalf("ParseTime(%q) err=%v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseTime(%q)=%v, want %v", in, got, want)
		}
	}
	if _, err := ParseTime("yesterday"); err == nil {
		t.Fatalf("ParseTime(yesterday) err=nil, want error")
	}
}

func TestTimeKeepsFraction(t *testing.T) {
	at := time.Date(2025, 3, 1, 9, 0, 0, 100_000_000, time.UTC)
	s := FormatTime(at)
	if s != "2025-03-01T09:00:00.1Z" {
		t.Fatalf("FormatTime(%v)=%q, want 2025-03-01T09:00:00.1Z", at, s)
	}
	got, err := ParseTime(s)
	if err != nil {
		t.Fatalf("ParseTime(%q) err=%v, want nil", s, err)
	}
	if !got.Equal(at) {
		t.Fatalf("ParseTime(%q)=%v, want %v", s, got, at)
	}
}

func TestTaskJSON_SubSecond(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 900_000_000, time.UTC)
	in := New("A", "", StatusNew).At(start, time.Hour+800*time.Millisecond)
	in.ID = 3
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal err=%v", err)
	}
	var out Task
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal(%s) err=%v", b, err)
	}
	if !out.StartTime.Equal(start) || *out.Duration != *in.Duration {
		t.Fatalf("decoded timing %v/%v, want %v/%v", out.StartTime, *out.Duration, start, *in.Duration)
	}
}

func TestTaskJSON(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	in := New("A", "first", StatusInProgress).At(start, time.Hour)
	in.ID = 7

	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal err=%v", err)
	}
	s := string(b)
	for _, frag := range []string{`"id":7`, `"type":"TASK"`, `"status":"IN_PROGRESS"`, `"duration":"PT1H"`, `"startTime":"2025-03-01T10:00:00Z"`, `"endTime":"2025-03-01T11:00:00Z"`} {
		if !strings.Contains(s, frag) {
			t.Fatalf("json %s missing %s", s, frag)
		}
	}

	var out Task
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("Unmarshal err=%v", err)
	}
	if !out.Equal(in) {
		t.Fatalf("decoded %+v, want %+v", out, in)
	}
	if !out.StartTime.Equal(start) || *out.Duration != time.Hour {
		t.Fatalf("decoded timing %v/%v", out.StartTime, out.Duration)
	}
}

func TestTaskJSON_Rejects(t *testing.T) {
	for _, body := range []string{
		`{"name":"x","status":"LATER"}`,
		`{"name":"x","type":"STORY"}`,
		`{"name":"x","duration":"one hour"}`,
		`{"name":"x","startTime":"soon"}`,
		`{"id":"one"}`,
	} {
		var out Task
		if err := json.Unmarshal([]byte(body), &out); err == nil {
			t.Errorf("Unmarshal(%s) err=nil, want error", body)
		}
	}
}

func TestEpicEndTimeIsDerived(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(5 * time.Hour)
	e := NewEpic("E", "")
	e.At(start, 4*time.Hour)
	if e.EndTime() != nil {
		t.Fatalf("epic EndTime=%v, want nil before derivation", e.EndTime())
	}
	e.End = &end
	if !e.EndTime().Equal(end) {
		t.Fatalf("epic EndTime=%v, want %v", e.EndTime(), end)
	}
}

func TestClone(t *testing.T) {
	e := NewEpic("E", "d")
	e.Subtasks = []int{2, 3}
	cp := e.Clone()
	cp.Subtasks[0] = 99
	cp.Name = "changed"
	if e.Subtasks[0] != 2 || e.Name != "E" {
		t.Fatalf("Clone shares state with original: %+v", e)
	}
}
