// ABOUTME: Tests for the seal package
// ABOUTME: Verifies encrypt/decrypt round-trips, key handling, and failure modes

package seal

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey() []byte {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = byte(i)
	}
	return key
}

func testMessages() []Message {
	created := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return []Message{
		{Content: "Hi", Sender: SenderUser, CreatedAt: created},
		{Content: "Hello", Sender: SenderAssistant, CreatedAt: created.Add(time.Second)},
	}
}

func TestNew_RejectsWrongKeySize(t *testing.T) {
	_, err := New([]byte("too short"))
	require.ErrorIs(t, err, ErrBadKey)

	_, err = New(make([]byte, 64))
	require.ErrorIs(t, err, ErrBadKey)
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	original := testMessages()
	blob, err := c.Encrypt(original)
	require.NoError(t, err)

	decrypted, err := c.Decrypt(blob)
	require.NoError(t, err)
	require.Equal(t, original, decrypted)
}

func TestEncryptDecrypt_EmptySequence(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	blob, err := c.Encrypt([]Message{})
	require.NoError(t, err)

	decrypted, err := c.Decrypt(blob)
	require.NoError(t, err)
	assert.NotNil(t, decrypted)
	assert.Empty(t, decrypted)
}

func TestEncryptDecrypt_NilSequence(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	blob, err := c.Encrypt(nil)
	require.NoError(t, err)

	decrypted, err := c.Decrypt(blob)
	require.NoError(t, err)
	assert.NotNil(t, decrypted)
	assert.Empty(t, decrypted)
}

func TestEncrypt_NeverPlaintext(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	blob, err := c.Encrypt([]Message{{Content: "very secret text", Sender: SenderUser}})
	require.NoError(t, err)
	assert.NotContains(t, string(blob), "very secret text")
}

func TestEncrypt_DistinctBlobsForSameInput(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	msgs := testMessages()
	a, err := c.Encrypt(msgs)
	require.NoError(t, err)
	b, err := c.Encrypt(msgs)
	require.NoError(t, err)

	// Random nonce means identical plaintexts never produce identical blobs.
	assert.False(t, bytes.Equal(a, b))
}

func TestDecrypt_GarbageFails(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	_, err = c.Decrypt([]byte("definitely not a sealed blob"))
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestDecrypt_TruncatedFails(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	_, err = c.Decrypt([]byte{0x01, 0x02})
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestDecrypt_TamperedFails(t *testing.T) {
	c, err := New(testKey())
	require.NoError(t, err)

	blob, err := c.Encrypt(testMessages())
	require.NoError(t, err)

	blob[len(blob)-1] ^= 0xff
	_, err = c.Decrypt(blob)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestDecrypt_WrongKeyFails(t *testing.T) {
	c1, err := New(testKey())
	require.NoError(t, err)

	otherKey := testKey()
	otherKey[0] ^= 0xff
	c2, err := New(otherKey)
	require.NoError(t, err)

	blob, err := c1.Encrypt(testMessages())
	require.NoError(t, err)

	_, err = c2.Decrypt(blob)
	require.ErrorIs(t, err, ErrDecrypt)
}

func TestKeyFromBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(testKey())
	key, err := KeyFromBase64(encoded)
	require.NoError(t, err)
	assert.Equal(t, testKey(), key)

	_, err = KeyFromBase64("not base64!!!")
	require.ErrorIs(t, err, ErrBadKey)

	_, err = KeyFromBase64(base64.StdEncoding.EncodeToString([]byte("short")))
	require.ErrorIs(t, err, ErrBadKey)
}

func TestDeriveKey_StableAndDistinct(t *testing.T) {
	k1, err := DeriveKey("correct horse battery staple", "salt-a")
	require.NoError(t, err)
	require.Len(t, k1, KeySize)

	k2, err := DeriveKey("correct horse battery staple", "salt-a")
	require.NoError(t, err)
	assert.Equal(t, k1, k2)

	k3, err := DeriveKey("correct horse battery staple", "salt-b")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k3)

	k4, err := DeriveKey("another passphrase", "salt-a")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k4)

	_, err = DeriveKey("", "salt-a")
	require.ErrorIs(t, err, ErrBadKey)
}

func TestDerivedKeyRoundTrip(t *testing.T) {
	key, err := DeriveKey("passphrase", "salt")
	require.NoError(t, err)

	c, err := New(key)
	require.NoError(t, err)

	original := testMessages()
	blob, err := c.Encrypt(original)
	require.NoError(t, err)
	decrypted, err := c.Decrypt(blob)
	require.NoError(t, err)
	require.Equal(t, original, decrypted)
}
