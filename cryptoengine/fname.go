package cryptoengine

import (
	"context"
	"encoding/hex"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/logseq/rsapi/errors"
)

// fnamePrefix marks an encrypted-filename segment, matching the
// original control plane's naming convention.
const fnamePrefix = "e."

// zeroNonce is used for every filename encryption. Reusing a nonce
// with ChaCha20-Poly1305 is normally unsafe, but here it is load
// bearing: it is what makes filename encryption deterministic, so the
// server can compare encrypted names for equality without ever seeing
// plaintext.
var zeroNonce = make([]byte, chacha20poly1305.NonceSize)

// EncryptFilename deterministically encrypts name under key, returning
// "e." followed by the lowercase-hex ciphertext. The name is first
// normalized to NFC so that visually identical paths encrypt
// identically regardless of the normal form the filesystem handed
// back.
func EncryptFilename(name string, key [32]byte) (string, error) {
	if name == "" {
		return "", apperrors.Msg(apperrors.KindInvalidArg, "cannot encrypt an empty filename")
	}
	normalized := norm.NFC.String(name)
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindEncrypt, err)
	}
	ciphertext := aead.Seal(nil, zeroNonce, []byte(normalized), nil)
	return fnamePrefix + hex.EncodeToString(ciphertext), nil
}

// DecryptFilename reverses EncryptFilename.
func DecryptFilename(encrypted string, key [32]byte) (string, error) {
	if len(encrypted) <= len(fnamePrefix) || encrypted[:len(fnamePrefix)] != fnamePrefix {
		return "", apperrors.Msg(apperrors.KindInvalidArg, "not an encrypted filename: %q", encrypted)
	}
	ciphertext, err := hex.DecodeString(encrypted[len(fnamePrefix):])
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindParseKey, err)
	}
	aead, err := chacha20poly1305.New(key[:])
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindDecrypt, err)
	}
	plaintext, err := aead.Open(nil, zeroNonce, ciphertext, nil)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindDecrypt, err)
	}
	return string(plaintext), nil
}

// EncryptFilenames encrypts every name in names concurrently across a
// bounded worker pool, returning results in the same order as the
// input. A single bad name fails the whole batch, mirroring the
// all-or-nothing semantics a rename/push batch needs: a directory
// listing either maps entirely to encrypted names or the call returns
// the first per-name error as is, without naming the failing entry.
func EncryptFilenames(ctx context.Context, names []string, key [32]byte, workers int) ([]string, error) {
	return mapNamesConcurrently(ctx, names, workers, func(name string) (string, error) {
		return EncryptFilename(name, key)
	})
}

// DecryptFilenames reverses EncryptFilenames.
func DecryptFilenames(ctx context.Context, names []string, key [32]byte, workers int) ([]string, error) {
	return mapNamesConcurrently(ctx, names, workers, func(name string) (string, error) {
		return DecryptFilename(name, key)
	})
}

func mapNamesConcurrently(ctx context.Context, names []string, workers int, fn func(string) (string, error)) ([]string, error) {
	if workers <= 0 {
		workers = 4
	}
	out := make([]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			result, err := fn(name)
			if err != nil {
				return err
			}
			out[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
