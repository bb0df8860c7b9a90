package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore is a PostgreSQL-backed journal with hash-chained integrity.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// EnsureTable creates the journal table if it doesn't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS journal (
			id        TEXT PRIMARY KEY,
			type      TEXT NOT NULL,
			timestamp TIMESTAMPTZ NOT NULL,
			source    TEXT NOT NULL,
			entity_id INTEGER NOT NULL DEFAULT 0,
			content   JSONB NOT NULL DEFAULT '{}',
			hash      TEXT NOT NULL,
			prev_hash TEXT NOT NULL DEFAULT ''
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_journal_timestamp_id ON journal(timestamp, id)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_journal_entity ON journal(entity_id) WHERE entity_id != 0`)
	return err
}

// Append creates and stores a new event, computing the hash chain.
func (s *PgStore) Append(ctx context.Context, eventType, source string, entityID int, content map[string]any) (*Event, error) {
	if content == nil {
		content = map[string]any{}
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	now := time.Now().Truncate(time.Microsecond)
	id := uuid.Must(uuid.NewV7()).String()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var prevHash string
	err = tx.QueryRow(ctx, `SELECT hash FROM journal ORDER BY timestamp DESC, id DESC LIMIT 1 FOR UPDATE`).Scan(&prevHash)
	if err != nil {
		prevHash = ""
	}

	e := &Event{
		ID:        id,
		Type:      eventType,
		Timestamp: now,
		Source:    source,
		EntityID:  entityID,
		Content:   content,
		Hash:      computeHash(prevHash, id, eventType, source, entityID, now, contentJSON),
		PrevHash:  prevHash,
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO journal (id, type, timestamp, source, entity_id, content, hash, prev_hash)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)`,
		e.ID, e.Type, e.Timestamp, e.Source, e.EntityID, string(contentJSON), e.Hash, e.PrevHash)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit event: %w", err)
	}
	return e, nil
}

// Recent returns the most recent events in reverse chronological order.
func (s *PgStore) Recent(ctx context.Context, limit int) ([]Event, error) {
	return s.scanMany(ctx, `
		SELECT id, type, timestamp, source, entity_id, content, hash, prev_hash
		FROM journal ORDER BY timestamp DESC, id DESC LIMIT $1`, limit)
}

// Since returns events created after afterID, for polling and SSE.
func (s *PgStore) Since(ctx context.Context, afterID string, limit int) ([]Event, error) {
	if afterID == "" {
		return s.scanMany(ctx, `
			SELECT id, type, timestamp, source, entity_id, content, hash, prev_hash
			FROM journal ORDER BY timestamp ASC, id ASC LIMIT $1`, limit)
	}
	return s.scanMany(ctx, `
		SELECT id, type, timestamp, source, entity_id, content, hash, prev_hash
		FROM journal WHERE (timestamp, id) > (SELECT timestamp, id FROM journal WHERE id = $1)
		ORDER BY timestamp ASC, id ASC LIMIT $2`, afterID, limit)
}

// Count returns the total number of events.
func (s *PgStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM journal`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count journal: %w", err)
	}
	return n, nil
}

// VerifyChain walks the chain chronologically and verifies hash integrity.
// JSONB normalises key order and spacing, so content is re-marshalled before
// hashing.
func (s *PgStore) VerifyChain(ctx context.Context) error {
	rows, err := s.pool.Query(ctx, `
		SELECT id, type, timestamp, source, entity_id, content, hash, prev_hash
		FROM journal ORDER BY timestamp ASC, id ASC`)
	if err != nil {
		return fmt.Errorf("verify chain query: %w", err)
	}
	defer rows.Close()

	prevHash := ""
	i := 0
	for rows.Next() {
		var e Event
		var contentJSON []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.Timestamp, &e.Source, &e.EntityID, &contentJSON, &e.Hash, &e.PrevHash); err != nil {
			return fmt.Errorf("verify chain scan row %d: %w", i, err)
		}
		if e.PrevHash != prevHash {
			return fmt.Errorf("event %d (%s): prev_hash mismatch: got %s, want %s", i, e.ID, e.PrevHash, prevHash)
		}
		if err := json.Unmarshal(contentJSON, &e.Content); err != nil {
			return fmt.Errorf("event %d (%s): unmarshal content: %w", i, e.ID, err)
		}
		canonical, _ := json.Marshal(e.Content)
		want := computeHash(prevHash, e.ID, e.Type, e.Source, e.EntityID, e.Timestamp, canonical)
		if e.Hash != want {
			return fmt.Errorf("event %d (%s): hash mismatch: got %s, want %s", i, e.ID, e.Hash, want)
		}
		prevHash = e.Hash
		i++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("verify chain rows: %w", err)
	}
	return nil
}

func (s *PgStore) scanMany(ctx context.Context, query string, args ...any) ([]Event, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var contentJSON []byte
		if err := rows.Scan(&e.ID, &e.Type, &e.Timestamp, &e.Source, &e.EntityID, &contentJSON, &e.Hash, &e.PrevHash); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(contentJSON, &e.Content); err != nil {
			return nil, fmt.Errorf("unmarshal content: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration: %w", err)
	}
	return events, nil
}
