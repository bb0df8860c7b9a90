package snapshot

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"task-tracker/pkg/task"
)

// PgStore mirrors snapshots into the entities table. Each Save replaces the
// table contents in one transaction.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

var entityColumns = []string{"seq", "id", "kind", "name", "status", "description", "start_time", "duration", "epic_id", "saved_at"}

// EnsureTable creates the entities table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS entities (
			seq         INTEGER NOT NULL,
			id          INTEGER PRIMARY KEY,
			kind        TEXT NOT NULL,
			name        TEXT NOT NULL DEFAULT '',
			status      TEXT NOT NULL DEFAULT 'NEW',
			description TEXT NOT NULL DEFAULT '',
			start_time  TIMESTAMPTZ,
			duration    TEXT,
			epic_id     INTEGER,
			saved_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_entities_epic ON entities(epic_id) WHERE epic_id IS NOT NULL`)
	return err
}

// Save replaces the mirrored rows with snap.
func (s *PgStore) Save(ctx context.Context, snap Snapshot) error {
	now := time.Now().Truncate(time.Microsecond)
	rows := make([][]any, 0, snap.Len())
	for i, t := range snap.Records() {
		rows = append(rows, pgRow(i, t, now))
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM entities`); err != nil {
		return fmt.Errorf("clear entities: %w", err)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"entities"}, entityColumns, pgx.CopyFromRows(rows)); err != nil {
		return fmt.Errorf("copy entities: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit entities: %w", err)
	}
	return nil
}

func pgRow(seq int, t *task.Task, savedAt time.Time) []any {
	var start, duration, epic any
	if t.Kind != task.KindEpic {
		if t.StartTime != nil {
			start = *t.StartTime
		}
		if t.Duration != nil {
			duration = task.FormatDuration(*t.Duration)
		}
	}
	if t.Kind == task.KindSubtask {
		epic = int32(t.EpicID)
	}
	return []any{int32(seq), int32(t.ID), string(t.Kind), t.Name, string(t.Status), t.Description, start, duration, epic, savedAt}
}

// Load returns the mirrored rows in the order they were saved.
func (s *PgStore) Load(ctx context.Context) ([]*task.Task, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, kind, name, status, description, start_time, duration, epic_id
		FROM entities ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load entities: %w", err)
	}
	defer rows.Close()

	var out []*task.Task
	for rows.Next() {
		var (
			id         int32
			kind, stat string
			t          task.Task
			start      *time.Time
			duration   *string
			epic       *int32
		)
		if err := rows.Scan(&id, &kind, &t.Name, &stat, &t.Description, &start, &duration, &epic); err != nil {
			return nil, err
		}
		k, ok := task.ParseKind(kind)
		if !ok {
			return nil, fmt.Errorf("entity %d: %w: type %q", id, ErrMalformedRecord, kind)
		}
		st, ok := task.ParseStatus(stat)
		if !ok {
			return nil, fmt.Errorf("entity %d: %w: status %q", id, ErrMalformedRecord, stat)
		}
		t.ID, t.Kind, t.Status = int(id), k, st
		if start != nil {
			utc := start.UTC()
			t.StartTime = &utc
		}
		if duration != nil {
			d, err := task.ParseDuration(*duration)
			if err != nil {
				return nil, fmt.Errorf("entity %d: %w: %v", id, ErrMalformedRecord, err)
			}
			t.Duration = &d
		}
		if epic != nil {
			t.EpicID = int(*epic)
		}
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return out, nil
}

// Count returns the number of mirrored rows.
func (s *PgStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM entities`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count entities: %w", err)
	}
	return n, nil
}
