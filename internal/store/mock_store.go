// ABOUTME: Mock Store implementation for testing
// ABOUTME: In-memory records plus call counters for verifying gating behavior

package store

import (
	"context"
	"sync"
	"time"
)

// MockStore is an in-memory Store implementation for testing. It counts
// calls so tests can assert that failed authentication never reaches the
// store.
type MockStore struct {
	mu      sync.Mutex
	records map[string]*ConversationRecord

	GetCalls    int
	UpsertCalls int

	// GetErr and UpsertErr, when set, are returned by the corresponding
	// method to simulate storage unavailability.
	GetErr    error
	UpsertErr error
}

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		records: make(map[string]*ConversationRecord),
	}
}

// GetConversation retrieves a record by user id.
func (m *MockStore) GetConversation(ctx context.Context, userID string) (*ConversationRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}

	rec, ok := m.records[userID]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy to avoid external modification
	result := *rec
	result.Ciphertext = append([]byte(nil), rec.Ciphertext...)
	return &result, nil
}

// UpsertConversation stores a record, enforcing the version check.
func (m *MockStore) UpsertConversation(ctx context.Context, rec *ConversationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.UpsertCalls++
	if m.UpsertErr != nil {
		return m.UpsertErr
	}

	now := time.Now().UTC()
	existing, ok := m.records[rec.UserID]
	if !ok {
		if rec.Version != 0 {
			return ErrConflict
		}
		stored := *rec
		stored.Ciphertext = append([]byte(nil), rec.Ciphertext...)
		stored.Version = 1
		stored.CreatedAt = now
		stored.UpdatedAt = now
		m.records[rec.UserID] = &stored
		rec.Version = 1
		return nil
	}

	if existing.Version != rec.Version {
		return ErrConflict
	}

	stored := *rec
	stored.Ciphertext = append([]byte(nil), rec.Ciphertext...)
	stored.Version = existing.Version + 1
	stored.CreatedAt = existing.CreatedAt
	stored.UpdatedAt = now
	m.records[rec.UserID] = &stored
	rec.Version = stored.Version
	return nil
}

// Close is a no-op for the mock.
func (m *MockStore) Close() error {
	return nil
}
