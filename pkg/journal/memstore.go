package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore keeps the journal in memory. It is used when no database is
// configured and in tests.
type MemStore struct {
	mu     sync.Mutex
	events []Event
	raw    [][]byte
}

// NewMemStore creates an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Append creates and stores a new event, extending the hash chain.
func (s *MemStore) Append(_ context.Context, eventType, source string, entityID int, content map[string]any) (*Event, error) {
	if content == nil {
		content = map[string]any{}
	}
	contentJSON, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("marshal content: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var prevHash string
	if n := len(s.events); n > 0 {
		prevHash = s.events[n-1].Hash
	}
	e := Event{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Type:      eventType,
		Timestamp: time.Now().Truncate(time.Microsecond),
		Source:    source,
		EntityID:  entityID,
		Content:   content,
		PrevHash:  prevHash,
	}
	e.Hash = computeHash(prevHash, e.ID, e.Type, e.Source, e.EntityID, e.Timestamp, contentJSON)
	s.events = append(s.events, e)
	s.raw = append(s.raw, contentJSON)
	return &e, nil
}

// Recent returns up to limit events, newest first. A non-positive limit
// returns everything.
func (s *MemStore) Recent(_ context.Context, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.events)
	if limit > 0 {
		n = min(limit, n)
	}
	out := slices.Clone(s.events[len(s.events)-n:])
	slices.Reverse(out)
	return out, nil
}

// Since returns up to limit events after afterID, oldest first.
func (s *MemStore) Since(_ context.Context, afterID string, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	start := 0
	if afterID != "" {
		i := slices.IndexFunc(s.events, func(e Event) bool { return e.ID == afterID })
		if i < 0 {
			return nil, fmt.Errorf("since %s: unknown event", afterID)
		}
		start = i + 1
	}
	end := len(s.events)
	if limit > 0 {
		end = min(start+limit, end)
	}
	return slices.Clone(s.events[start:end]), nil
}

// Count returns the total number of events.
func (s *MemStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events), nil
}

// VerifyChain walks the chain and recomputes every hash.
func (s *MemStore) VerifyChain(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prevHash := ""
	for i, e := range s.events {
		if e.PrevHash != prevHash {
			return fmt.Errorf("event %d (%s): prev_hash mismatch: got %s, want %s", i, e.ID, e.PrevHash, prevHash)
		}
		want := computeHash(prevHash, e.ID, e.Type, e.Source, e.EntityID, e.Timestamp, s.raw[i])
		if e.Hash != want {
			return fmt.Errorf("event %d (%s): hash mismatch: got %s, want %s", i, e.ID, e.Hash, want)
		}
		prevHash = e.Hash
	}
	return nil
}
