// ABOUTME: Symmetric encryption of conversation logs for storage at rest
// ABOUTME: AES-256-GCM over the JSON-encoded message sequence with a prefixed nonce

package seal

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the required key length in bytes (AES-256).
const KeySize = 32

// Cipher errors
var (
	ErrDecrypt = errors.New("cannot decrypt conversation blob")
	ErrBadKey  = errors.New("invalid cipher key")
)

// Sender identifies which side of the conversation produced a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is a single conversation turn. Messages are immutable once
// created; conversation order is the slice order.
type Message struct {
	Content   string    `json:"content"`
	Sender    Sender    `json:"sender"`
	CreatedAt time.Time `json:"created_at"`
}

// Cipher encrypts and decrypts message sequences with a process-wide key.
// Safe for concurrent use.
type Cipher struct {
	aead cipher.AEAD
}

// New creates a Cipher from a raw 32-byte key.
func New(key []byte) (*Cipher, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrBadKey, KeySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return &Cipher{aead: aead}, nil
}

// KeyFromBase64 decodes a standard-base64 key string from configuration.
func KeyFromBase64(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadKey, err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", ErrBadKey, KeySize, len(key))
	}
	return key, nil
}

// DeriveKey derives a 32-byte key from a passphrase and salt using
// HKDF-SHA256. The salt does not need to be secret but must be stable
// across restarts or previously written blobs become unreadable.
func DeriveKey(passphrase, salt string) ([]byte, error) {
	if passphrase == "" {
		return nil, fmt.Errorf("%w: empty passphrase", ErrBadKey)
	}
	r := hkdf.New(sha256.New, []byte(passphrase), []byte(salt), []byte("cloak conversation key v1"))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("deriving key: %w", err)
	}
	return key, nil
}

// Encrypt serializes the message sequence and seals it into an opaque blob.
// The random nonce is prepended to the ciphertext.
func (c *Cipher) Encrypt(messages []Message) ([]byte, error) {
	if messages == nil {
		messages = []Message{}
	}
	plaintext, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encoding conversation: %w", err)
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	return c.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens a blob produced by Encrypt and returns the message
// sequence. A blob that was not produced with a compatible key fails with
// ErrDecrypt; a blob that decrypts but does not decode is a separate error.
func (c *Cipher) Decrypt(blob []byte) ([]Message, error) {
	nonceSize := c.aead.NonceSize()
	if len(blob) < nonceSize {
		return nil, fmt.Errorf("%w: blob shorter than nonce", ErrDecrypt)
	}

	nonce, payload := blob[:nonceSize], blob[nonceSize:]
	plaintext, err := c.aead.Open(nil, nonce, payload, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	var messages []Message
	if err := json.Unmarshal(plaintext, &messages); err != nil {
		return nil, fmt.Errorf("decoding conversation: %w", err)
	}
	if messages == nil {
		messages = []Message{}
	}
	return messages, nil
}
