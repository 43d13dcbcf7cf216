package cryptoengine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncryptFilenameConsistencyVector(t *testing.T) {
	const secret = "AGE-SECRET-KEY-1KZEJZYUPL49REUU985PT673PZWSA85HGSE2Z7ZPRRRQX9MJF8DXQRRA7J0"
	const want = "e.6dd3a5340dd904be0e509ff824c32cdc1db108166bf58a4a8f3f5299651282ffca"

	key, err := ToRawX25519Key(secret)
	require.NoError(t, err)

	got, err := EncryptFilename("pages/contents.md", key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEncryptDecryptFilenameRoundTrip(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i)
	}

	encrypted, err := EncryptFilename("journals/2024_01_01.md", key)
	require.NoError(t, err)
	assert.Regexp(t, "^e\\.[0-9a-f]+$", encrypted)

	decrypted, err := DecryptFilename(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, "journals/2024_01_01.md", decrypted)
}

func TestEncryptFilenameDeterministic(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i * 3)
	}

	first, err := EncryptFilename("pages/a.md", key)
	require.NoError(t, err)
	second, err := EncryptFilename("pages/a.md", key)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestEncryptFilenameCollapsesNormalForm(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i + 7)
	}

	// A precomposed e-acute codepoint (U+00E9) vs. a bare "e" followed
	// by a combining acute accent (U+0065 U+0301) must encrypt
	// identically once both are normalized to NFC.
	precomposed := "café.md"
	decomposed := "café.md"
	require.NotEqual(t, precomposed, decomposed)

	a, err := EncryptFilename(precomposed, key)
	require.NoError(t, err)
	b, err := EncryptFilename(decomposed, key)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncryptFilenameRejectsEmpty(t *testing.T) {
	var key [32]byte
	_, err := EncryptFilename("", key)
	assert.Error(t, err)
}

func TestDecryptFilenameRejectsUnprefixed(t *testing.T) {
	var key [32]byte
	_, err := DecryptFilename("not-encrypted", key)
	assert.Error(t, err)
}

func TestEncryptDecryptFilenamesBatch(t *testing.T) {
	var key [32]byte
	for i := range key {
		key[i] = byte(i + 1)
	}
	names := []string{"pages/a.md", "pages/b.md", "journals/2024_01_01.md", "logseq/config.edn"}

	encrypted, err := EncryptFilenames(context.Background(), names, key, 2)
	require.NoError(t, err)
	require.Len(t, encrypted, len(names))

	decrypted, err := DecryptFilenames(context.Background(), encrypted, key, 2)
	require.NoError(t, err)
	assert.Equal(t, names, decrypted)
}

func TestEncryptFilenamesBatchFailsOnBadName(t *testing.T) {
	var key [32]byte
	names := []string{"pages/a.md", ""}

	_, err := EncryptFilenames(context.Background(), names, key, 2)
	assert.Error(t, err)
}
