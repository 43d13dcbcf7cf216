package cryptoengine

import (
	"filippo.io/age"

	apperrors "github.com/logseq/rsapi/errors"
)

// Keygen generates a fresh X25519 age identity, returning
// (secretKey, publicKey) in their canonical bech32 string forms
// ("AGE-SECRET-KEY-1...", "age1...").
func Keygen() (secretKey, publicKey string, err error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return "", "", apperrors.Wrap(apperrors.KindEncrypt, err)
	}
	return identity.String(), identity.Recipient().String(), nil
}

// ToRawX25519Key parses an age secret-key string and returns its raw
// 32-byte X25519 scalar — the single input to the filename cipher.
// This is the one place the engine reaches beneath age's string
// encoding; the scalar never changes for the lifetime of a graph
// (spec.md §3).
func ToRawX25519Key(secretKey string) ([32]byte, error) {
	identity, err := age.ParseX25519Identity(secretKey)
	if err != nil {
		return [32]byte{}, apperrors.Wrap(apperrors.KindParseKey, err)
	}
	return identityScalar(identity)
}
