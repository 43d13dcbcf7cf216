package cryptoengine

import (
	"testing"

	"filippo.io/age"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptX25519ProducesBinaryOutput(t *testing.T) {
	secretKey, publicKey, err := Keygen()
	require.NoError(t, err)

	ciphertext, err := EncryptX25519([]byte("graph-scoped body"), publicKey)
	require.NoError(t, err)

	assert.False(t, IsArmored(ciphertext), "graph-scoped content must be binary, not armored")
	assert.True(t, bytesHasPrefix(ciphertext, binaryHeader))

	plaintext, err := DecryptX25519(ciphertext, secretKey)
	require.NoError(t, err)
	assert.Equal(t, "graph-scoped body", string(plaintext))
}

func TestEncryptPassphraseProducesArmoredOutput(t *testing.T) {
	ciphertext, err := EncryptPassphrase([]byte("key material"), "correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, IsArmored(ciphertext), "passphrase-protected key material must stay armored")

	plaintext, err := DecryptPassphrase(ciphertext, "correct horse battery staple")
	require.NoError(t, err)
	assert.Equal(t, "key material", string(plaintext))
}

func TestEncryptContentRoundTripsBothFramings(t *testing.T) {
	secretKey, publicKey, err := Keygen()
	require.NoError(t, err)

	body := []byte("# hello")
	encrypted, err := EncryptContent(body, publicKey)
	require.NoError(t, err)
	assert.False(t, IsArmored(encrypted))

	decrypted, err := DecryptContent(encrypted, secretKey)
	require.NoError(t, err)
	assert.Equal(t, body, decrypted)

	// Decrypting/encrypting is idempotent regardless of framing: an
	// already-armored blob passed through EncryptContent is untouched.
	armored, err := encryptArmored(body, mustParseRecipient(t, publicKey))
	require.NoError(t, err)
	stillArmored, err := EncryptContent(armored, publicKey)
	require.NoError(t, err)
	assert.Equal(t, armored, stillArmored)

	roundTripped, err := DecryptContent(armored, secretKey)
	require.NoError(t, err)
	assert.Equal(t, body, roundTripped)
}

func bytesHasPrefix(b []byte, prefix string) bool {
	return len(b) >= len(prefix) && string(b[:len(prefix)]) == prefix
}

func mustParseRecipient(t *testing.T, publicKey string) age.Recipient {
	t.Helper()
	recipient, err := age.ParseX25519Recipient(publicKey)
	require.NoError(t, err)
	return recipient
}
