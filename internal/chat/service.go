// ABOUTME: ConversationService is the central layer for the chat pipeline
// ABOUTME: Loads and decrypts the log, orchestrates the completion call, persists the result

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloakchat/cloak/internal/seal"
	"github.com/cloakchat/cloak/internal/store"
)

// ErrEmptyMessage is returned when a posted message is empty or
// whitespace-only. Nothing is stored and the provider is not called.
var ErrEmptyMessage = errors.New("message is empty")

// Completer defines what the service needs from the completion provider.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Service orchestrates conversation reads and appends. Each request runs
// independently; the only shared state is the cipher key and the store and
// completer handles, all safe for concurrent use.
type Service struct {
	store     store.Store
	cipher    *seal.Cipher
	completer Completer
	logger    *slog.Logger
}

// New creates a new ConversationService.
func New(st store.Store, cipher *seal.Cipher, completer Completer, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     st,
		cipher:    cipher,
		completer: completer,
		logger:    logger.With("component", "chat"),
	}
}

// GetHistory returns the user's conversation in order. A user with no
// prior conversation gets an empty slice, not an error. A decryption
// failure is surfaced; it must never be read as "no history".
func (s *Service) GetHistory(ctx context.Context, userID string) ([]seal.Message, error) {
	messages, _, err := s.load(ctx, userID)
	return messages, err
}

// PostMessage appends the user's turn, obtains the assistant reply, and
// persists both turns atomically: if the completion call fails, the stored
// conversation is left exactly as it was.
//
// The prompt sent upstream is only the latest user turn. Conversational
// memory lives in the persisted log, not in what the provider sees.
func (s *Service) PostMessage(ctx context.Context, userID, rawInput string) (string, error) {
	if strings.TrimSpace(rawInput) == "" {
		return "", ErrEmptyMessage
	}

	messages, version, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}

	messages = append(messages, seal.Message{
		Content:   rawInput,
		Sender:    seal.SenderUser,
		CreatedAt: time.Now().UTC(),
	})

	reply, err := s.completer.Complete(ctx, rawInput)
	if err != nil {
		// Nothing has been persisted yet; the conversation on disk is
		// unchanged and no partial turn survives.
		s.logger.Error("completion failed, conversation unchanged", "user_id", userID, "error", err)
		return "", err
	}

	messages = append(messages, seal.Message{
		Content:   reply,
		Sender:    seal.SenderAssistant,
		CreatedAt: time.Now().UTC(),
	})

	blob, err := s.cipher.Encrypt(messages)
	if err != nil {
		return "", fmt.Errorf("encrypting conversation: %w", err)
	}

	rec := &store.ConversationRecord{
		UserID:     userID,
		Ciphertext: blob,
		Version:    version,
	}
	if err := s.store.UpsertConversation(ctx, rec); err != nil {
		if errors.Is(err, store.ErrConflict) {
			s.logger.Warn("concurrent write lost version race", "user_id", userID)
			return "", err
		}
		return "", fmt.Errorf("persisting conversation: %w", err)
	}

	s.logger.Debug("conversation appended",
		"user_id", userID,
		"turns", len(messages),
		"version", rec.Version)

	return reply, nil
}

// load fetches and decrypts the conversation, returning the messages and
// the record version for the later optimistic write. An absent record is a
// normal state: empty messages, version zero.
func (s *Service) load(ctx context.Context, userID string) ([]seal.Message, int64, error) {
	rec, err := s.store.GetConversation(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return []seal.Message{}, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("loading conversation: %w", err)
	}

	messages, err := s.cipher.Decrypt(rec.Ciphertext)
	if err != nil {
		s.logger.Error("stored conversation failed to decrypt", "user_id", userID, "error", err)
		return nil, 0, err
	}
	return messages, rec.Version, nil
}
