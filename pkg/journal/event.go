// Package journal is an append-only, hash-chained log of tracker mutations.
package journal

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"
	"time"

	"task-tracker/pkg/task"
)

// Actions recorded against an entity kind.
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionCleared = "cleared"
)

// Event is a single journal entry.
type Event struct {
	ID        string         `json:"id"`        // UUID v7 (time-ordered)
	Type      string         `json:"type"`      // e.g. "task.created", "subtasks.cleared"
	Timestamp time.Time      `json:"timestamp"` // when the mutation happened
	Source    string         `json:"source"`    // api, cli, restore
	EntityID  int            `json:"entity_id"` // 0 for bulk events
	Content   map[string]any `json:"content"`
	Hash      string         `json:"hash"`      // SHA-256 of canonical form
	PrevHash  string         `json:"prev_hash"` // hash chain link
}

// Type names the event for a mutation of kind. Bulk clears use the plural,
// e.g. "tasks.cleared".
func Type(kind task.Kind, action string) string {
	name := strings.ToLower(string(kind))
	if action == ActionCleared {
		name += "s"
	}
	return name + "." + action
}

// Store is the contract for journal persistence.
type Store interface {
	Append(ctx context.Context, eventType, source string, entityID int, content map[string]any) (*Event, error)
	// Recent returns the newest events first.
	Recent(ctx context.Context, limit int) ([]Event, error)
	// Since returns events after afterID, oldest first. An empty afterID
	// starts from the beginning.
	Since(ctx context.Context, afterID string, limit int) ([]Event, error)
	Count(ctx context.Context) (int, error)
	VerifyChain(ctx context.Context) error
}

// computeHash computes a SHA-256 hash for chain integrity.
func computeHash(prevHash, id, eventType, source string, entityID int, timestamp time.Time, contentJSON []byte) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%d|%d|%s", prevHash, id, eventType, source, entityID, timestamp.UnixNano(), string(contentJSON))
	h := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", h)
}
