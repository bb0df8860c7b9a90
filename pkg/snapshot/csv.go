package snapshot

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"task-tracker/pkg/task"
)

// Header is the first line of every snapshot file.
var Header = []string{"id", "type", "name", "status", "description", "start_time", "duration", "epic"}

// FileStore keeps the snapshot in a CSV file.
type FileStore struct {
	path string
}

// NewFileStore creates a FileStore for path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save writes the snapshot to a temp file and renames it over the target.
func (s *FileStore) Save(_ context.Context, snap Snapshot) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, snap.Records()); err != nil {
		tmp.Close()
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load reads the snapshot file. A missing file is an empty snapshot.
func (s *FileStore) Load(_ context.Context) ([]*task.Task, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	defer f.Close()
	records, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", s.path, err)
	}
	return records, nil
}

// Encode writes the header and one line per record.
func Encode(w io.Writer, records []*task.Task) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, t := range records {
		if err := cw.Write(toRow(t)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode parses what Encode wrote. An empty input yields no records.
func Decode(r io.Reader) ([]*task.Task, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("line 1: %w: %v", ErrMalformedRecord, err)
	}
	if !slices.Equal(head, Header) {
		return nil, fmt.Errorf("line 1: %w: unexpected header %v", ErrMalformedRecord, head)
	}

	var out []*task.Task
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedRecord, err)
		}
		t, err := fromRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedRecord, err)
		}
		out = append(out, t)
	}
}

func toRow(t *task.Task) []string {
	row := []string{strconv.Itoa(t.ID), string(t.Kind), t.Name, string(t.Status), t.Description, "", "", ""}
	if t.Kind == task.KindEpic {
		return row
	}
	if t.StartTime != nil {
		row[5] = task.FormatTime(*t.StartTime)
	}
	if t.Duration != nil {
		row[6] = task.FormatDuration(*t.Duration)
	}
	if t.Kind == task.KindSubtask {
		row[7] = strconv.Itoa(t.EpicID)
	}
	return row
}

func fromRow(row []string) (*task.Task, error) {
	id, err := strconv.Atoi(row[0])
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("bad id %q", row[0])
	}
	kind, ok := task.ParseKind(row[1])
	if !ok {
		return nil, fmt.Errorf("bad type %q", row[1])
	}
	status, ok := task.ParseStatus(row[3])
	if !ok {
		return nil, fmt.Errorf("bad status %q", row[3])
	}
	t := &task.Task{ID: id, Kind: kind, Name: row[2], Status: status, Description: row[4]}
	if row[5] != "" {
		st, err := task.ParseTime(row[5])
		if err != nil {
			return nil, err
		}
		t.StartTime = &st
	}
	if row[6] != "" {
		d, err := task.ParseDuration(row[6])
		if err != nil {
			return nil, err
		}
		t.Duration = &d
	}
	if kind == task.KindSubtask {
		epic, err := strconv.Atoi(row[7])
		if err != nil || epic <= 0 {
			return nil, fmt.Errorf("bad epic %q", row[7])
		}
		t.EpicID = epic
	}
	return t, nil
}
