package engine

import (
	"context"

	"github.com/logseq/rsapi/cryptoengine"
)

// AgeEncryptWithPassphrase armor-encrypts buf under passphrase, for
// protecting the key bundle written to keys.edn.
func (e *Engine) AgeEncryptWithPassphrase(passphrase string, buf []byte) ([]byte, error) {
	out, err := cryptoengine.EncryptPassphrase(buf, passphrase)
	if err != nil {
		return nil, e.setLastError(err)
	}
	return out, nil
}

// AgeDecryptWithPassphrase reverses AgeEncryptWithPassphrase.
func (e *Engine) AgeDecryptWithPassphrase(passphrase string, buf []byte) ([]byte, error) {
	out, err := cryptoengine.DecryptPassphrase(buf, passphrase)
	if err != nil {
		return nil, e.setLastError(err)
	}
	return out, nil
}

// EncryptFnames deterministically encrypts plaintext relative paths
// under graphUUID's filename key.
func (e *Engine) EncryptFnames(ctx context.Context, graphUUID string, names []string) ([]string, error) {
	graph, err := e.catalog.Get(graphUUID)
	if err != nil {
		return nil, e.setLastError(err)
	}
	out, err := cryptoengine.EncryptFilenames(ctx, names, graph.FnameKey, e.cfg.FilenameWorkers)
	if err != nil {
		return nil, e.setLastError(err)
	}
	return out, nil
}

// DecryptFnames reverses EncryptFnames.
func (e *Engine) DecryptFnames(ctx context.Context, graphUUID string, encNames []string) ([]string, error) {
	graph, err := e.catalog.Get(graphUUID)
	if err != nil {
		return nil, e.setLastError(err)
	}
	out, err := cryptoengine.DecryptFilenames(ctx, encNames, graph.FnameKey, e.cfg.FilenameWorkers)
	if err != nil {
		return nil, e.setLastError(err)
	}
	return out, nil
}
