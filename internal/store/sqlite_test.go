// ABOUTME: Tests for the SQLite store implementation
// ABOUTME: Verifies record round-trips, uniqueness, and version conflicts

package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_GetAbsent(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetConversation(context.Background(), "nobody")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_InsertAndGet(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := &ConversationRecord{
		UserID:     "user-1",
		Ciphertext: []byte{0xde, 0xad, 0xbe, 0xef},
	}
	require.NoError(t, s.UpsertConversation(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	got, err := s.GetConversation(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, got.Ciphertext)
	assert.Equal(t, int64(1), got.Version)
	assert.False(t, got.CreatedAt.IsZero())
	assert.False(t, got.UpdatedAt.IsZero())
}

func TestSQLiteStore_UpdateOverwrites(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	rec := &ConversationRecord{UserID: "user-1", Ciphertext: []byte{0x01}}
	require.NoError(t, s.UpsertConversation(ctx, rec))

	rec.Ciphertext = []byte{0x02}
	require.NoError(t, s.UpsertConversation(ctx, rec))
	assert.Equal(t, int64(2), rec.Version)

	got, err := s.GetConversation(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, got.Ciphertext)
	assert.Equal(t, int64(2), got.Version)
}

func TestSQLiteStore_StaleVersionConflicts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := &ConversationRecord{UserID: "user-1", Ciphertext: []byte{0x01}}
	require.NoError(t, s.UpsertConversation(ctx, first))

	// A second writer that loaded version 1 wins the race.
	winner := &ConversationRecord{UserID: "user-1", Ciphertext: []byte{0x02}, Version: 1}
	require.NoError(t, s.UpsertConversation(ctx, winner))

	// The first writer retries with its now stale version 1 and loses.
	loser := &ConversationRecord{UserID: "user-1", Ciphertext: []byte{0x03}, Version: 1}
	err := s.UpsertConversation(ctx, loser)
	require.ErrorIs(t, err, ErrConflict)

	got, err := s.GetConversation(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02}, got.Ciphertext, "conflicting write must not be applied")
}

func TestSQLiteStore_InsertRaceConflicts(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertConversation(ctx, &ConversationRecord{UserID: "user-1", Ciphertext: []byte{0x01}}))

	// Another writer also saw "no record" and inserts with version 0.
	err := s.UpsertConversation(ctx, &ConversationRecord{UserID: "user-1", Ciphertext: []byte{0x02}})
	require.ErrorIs(t, err, ErrConflict)
}

func TestSQLiteStore_UpdateAbsentConflicts(t *testing.T) {
	s := createTestStore(t)

	err := s.UpsertConversation(context.Background(), &ConversationRecord{
		UserID:     "ghost",
		Ciphertext: []byte{0x01},
		Version:    3,
	})
	require.ErrorIs(t, err, ErrConflict)
}

func TestSQLiteStore_UsersAreIndependent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertConversation(ctx, &ConversationRecord{UserID: "alice", Ciphertext: []byte{0xaa}}))
	require.NoError(t, s.UpsertConversation(ctx, &ConversationRecord{UserID: "bob", Ciphertext: []byte{0xbb}}))

	alice, err := s.GetConversation(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xaa}, alice.Ciphertext)

	bob, err := s.GetConversation(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xbb}, bob.Ciphertext)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.UpsertConversation(context.Background(), &ConversationRecord{
		UserID:     "user-1",
		Ciphertext: []byte{0x01},
	}))
	require.NoError(t, s.Close())

	reopened, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetConversation(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, got.Ciphertext)
}

func TestMockStore_MatchesSQLiteSemantics(t *testing.T) {
	m := NewMockStore()
	ctx := context.Background()

	_, err := m.GetConversation(ctx, "nobody")
	require.ErrorIs(t, err, ErrNotFound)

	rec := &ConversationRecord{UserID: "user-1", Ciphertext: []byte{0x01}}
	require.NoError(t, m.UpsertConversation(ctx, rec))
	assert.Equal(t, int64(1), rec.Version)

	stale := &ConversationRecord{UserID: "user-1", Ciphertext: []byte{0x02}, Version: 0}
	require.ErrorIs(t, m.UpsertConversation(ctx, stale), ErrConflict)

	got, err := m.GetConversation(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01}, got.Ciphertext)

	assert.Equal(t, 2, m.GetCalls)
	assert.Equal(t, 2, m.UpsertCalls)
}

func TestMockStore_InjectedErrors(t *testing.T) {
	m := NewMockStore()
	boom := errors.New("storage unavailable")
	m.GetErr = boom
	m.UpsertErr = boom

	_, err := m.GetConversation(context.Background(), "user-1")
	require.ErrorIs(t, err, boom)

	err = m.UpsertConversation(context.Background(), &ConversationRecord{UserID: "user-1"})
	require.ErrorIs(t, err, boom)
}
