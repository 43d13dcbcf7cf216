package engine

import (
	"github.com/logseq/rsapi/cryptoengine"
	apperrors "github.com/logseq/rsapi/errors"
	"github.com/logseq/rsapi/remote"
)

// Keygen returns a fresh X25519 age identity as (secretKey, publicKey)
// strings, ready to pass to SetEnv or hand to a host for storage in
// keys.edn.
func (e *Engine) Keygen() (secretKey, publicKey string, err error) {
	secretKey, publicKey, err = cryptoengine.Keygen()
	if err != nil {
		return "", "", e.setLastError(err)
	}
	return secretKey, publicKey, nil
}

// SetEnv implements §4.6's five-step sequence: reset cached
// credentials, broadcast a cancellation tick, switch the selected
// environment, derive the filename key, and insert/replace the graph
// in the catalog.
func (e *Engine) SetEnv(graphUUID, env, secretKey, publicKey string) error {
	e.mu.RLock()
	current := e.baseRemote
	e.mu.RUnlock()
	if current != nil {
		current.ResetCredentials()
	}

	e.canceller.Cancel()

	profile, err := remote.ResolveProfile(env)
	if err != nil {
		return e.setLastError(err)
	}

	e.mu.Lock()
	e.profile = profile
	e.mu.Unlock()
	if err := e.rebuildRemote(); err != nil {
		return e.setLastError(err)
	}

	fnameKey, err := cryptoengine.ToRawX25519Key(secretKey)
	if err != nil {
		return e.setLastError(err)
	}

	if _, err := e.catalog.Put(graphUUID, publicKey, secretKey, fnameKey); err != nil {
		return e.setLastError(err)
	}
	return nil
}

// remoteFor returns a copy of the engine's base remote client
// authorized with token, or InvalidArg if SetEnv has never been
// called.
func (e *Engine) remoteFor(token string) (*remote.Client, error) {
	e.mu.RLock()
	base := e.baseRemote
	e.mu.RUnlock()
	if base == nil {
		return nil, apperrors.Msg(apperrors.KindInvalidArg, "no environment configured; call SetEnv first")
	}
	return base.WithToken(token), nil
}
