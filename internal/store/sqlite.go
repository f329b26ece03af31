// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides encrypted conversation persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS conversations (
			user_id    TEXT PRIMARY KEY,
			ciphertext BLOB NOT NULL,
			version    INTEGER NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL,

			CHECK (version > 0)
		);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("executing schema: %w", err)
	}
	return nil
}

// GetConversation retrieves the encrypted record for a user.
// Returns ErrNotFound if the user has no stored conversation.
func (s *SQLiteStore) GetConversation(ctx context.Context, userID string) (*ConversationRecord, error) {
	query := `
		SELECT user_id, ciphertext, version, created_at, updated_at
		FROM conversations
		WHERE user_id = ?
	`

	var rec ConversationRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&rec.UserID,
		&rec.Ciphertext,
		&rec.Version,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying conversation: %w", err)
	}

	if parsed, err := time.Parse(time.RFC3339, createdAt); err != nil {
		s.logger.Warn("failed to parse conversation created_at", "user_id", rec.UserID, "error", err)
	} else {
		rec.CreatedAt = parsed
	}
	if parsed, err := time.Parse(time.RFC3339, updatedAt); err != nil {
		s.logger.Warn("failed to parse conversation updated_at", "user_id", rec.UserID, "error", err)
	} else {
		rec.UpdatedAt = parsed
	}

	return &rec, nil
}

// UpsertConversation writes the record, enforcing the version check.
// rec.Version is advanced to the newly stored version on success.
func (s *SQLiteStore) UpsertConversation(ctx context.Context, rec *ConversationRecord) error {
	now := time.Now().UTC()

	if rec.Version == 0 {
		query := `
			INSERT INTO conversations (user_id, ciphertext, version, created_at, updated_at)
			VALUES (?, ?, 1, ?, ?)
		`
		_, err := s.db.ExecContext(ctx, query,
			rec.UserID,
			rec.Ciphertext,
			now.Format(time.RFC3339),
			now.Format(time.RFC3339),
		)
		if err != nil {
			if isConstraintViolation(err) {
				// A concurrent writer created the record first.
				return ErrConflict
			}
			return fmt.Errorf("inserting conversation: %w", err)
		}
		rec.Version = 1
		rec.CreatedAt = now
		rec.UpdatedAt = now

		s.logger.Debug("created conversation record", "user_id", rec.UserID)
		return nil
	}

	query := `
		UPDATE conversations
		SET ciphertext = ?, version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		rec.Ciphertext,
		now.Format(time.RFC3339),
		rec.UserID,
		rec.Version,
	)
	if err != nil {
		return fmt.Errorf("updating conversation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return ErrConflict
	}

	rec.Version++
	rec.UpdatedAt = now

	s.logger.Debug("updated conversation record", "user_id", rec.UserID, "version", rec.Version)
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// isConstraintViolation checks if the error is a SQLite UNIQUE constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") ||
		strings.Contains(errStr, "constraint failed")
}
