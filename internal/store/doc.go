// Package store provides persistent storage for encrypted conversation
// records using SQLite.
//
// # Data Model
//
// The store holds exactly one ConversationRecord per user id. A record is
// the opaque ciphertext of the user's conversation plus a version counter;
// plaintext messages never reach this package. Encryption and decryption
// belong to the seal package.
//
// # Concurrency
//
// Upserts use optimistic concurrency: the caller presents the version it
// loaded (zero for a record that does not exist yet) and the write only
// succeeds if that version is still current. A stale write fails with
// ErrConflict and leaves the stored record untouched. This closes the
// read-modify-write race between overlapping requests for the same user
// without holding any lock across slow operations.
//
// # SQLite Configuration
//
// The store uses SQLite with WAL mode for concurrent reads:
//
//	PRAGMA journal_mode=WAL;
//
// The schema is created automatically on open. Use ":memory:" as the path
// for throwaway databases in tests.
//
// # Testing
//
// Use NewMockStore() for unit tests; it counts Get/Upsert calls so tests
// can assert the store was never touched on a rejected request. Use
// NewSQLiteStore with a t.TempDir() path for integration tests against
// real SQLite.
package store
