// ABOUTME: Store interface and data types for cloak conversation persistence
// ABOUTME: Defines ConversationRecord and the keyed encrypted-record contract

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for the requested user.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an upsert loses a version race with a
// concurrent writer. The caller may reload and retry; the store never
// retries internally.
var ErrConflict = errors.New("conversation modified concurrently")

// ConversationRecord is the only persisted representation of a
// conversation: one encrypted blob per user, plus a version counter used
// for optimistic concurrency. Plaintext never reaches the store.
type ConversationRecord struct {
	UserID     string
	Ciphertext []byte
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store defines the interface for encrypted conversation persistence.
// Exactly one record exists per user id; upserts overwrite, never
// duplicate. Implementations must be safe for concurrent use.
type Store interface {
	// GetConversation returns the record for the user, or ErrNotFound.
	GetConversation(ctx context.Context, userID string) (*ConversationRecord, error)

	// UpsertConversation writes the record if rec.Version matches the
	// currently stored version (0 for a record that does not exist yet).
	// On success the stored and returned rec.Version is incremented by
	// one. A stale version fails with ErrConflict and writes nothing.
	UpsertConversation(ctx context.Context, rec *ConversationRecord) error

	// Close releases the underlying resources.
	Close() error
}
