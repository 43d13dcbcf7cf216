package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/logseq/rsapi/cryptoengine"
	apperrors "github.com/logseq/rsapi/errors"
	"github.com/logseq/rsapi/scanner"
)

// GetLocalFilesMeta canonicalizes basePath and reads metadata for the
// given relative paths, silently dropping any that fail to read
// (§4.4).
func (e *Engine) GetLocalFilesMeta(ctx context.Context, graphUUID, basePath string, paths []string) (map[string]scanner.FileMeta, error) {
	graph, err := e.catalog.Get(graphUUID)
	if err != nil {
		return nil, e.setLastError(err)
	}
	meta, err := scanner.GetFilesMeta(ctx, basePath, paths, e.encryptNameFunc(graph.FnameKey), e.logger)
	if err != nil {
		return nil, e.setLastError(err)
	}
	return meta, nil
}

// GetLocalAllFilesMeta walks basePath recursively, applying the §3
// ignore rules, and reads metadata for every remaining file.
func (e *Engine) GetLocalAllFilesMeta(ctx context.Context, graphUUID, basePath string) (map[string]scanner.FileMeta, error) {
	graph, err := e.catalog.Get(graphUUID)
	if err != nil {
		return nil, e.setLastError(err)
	}
	meta, err := scanner.GetAllFilesMeta(ctx, basePath, e.encryptNameFunc(graph.FnameKey), e.logger)
	if err != nil {
		return nil, e.setLastError(err)
	}
	return meta, nil
}

func (e *Engine) encryptNameFunc(fnameKey [32]byte) scanner.EncryptFilenameFunc {
	return func(canonicalNFCPath string) (string, error) {
		return cryptoengine.EncryptFilename(canonicalNFCPath, fnameKey)
	}
}

// RenameLocalFile moves a file within basePath without touching the
// remote graph; hosts call this for purely local reorganizations
// before deciding whether to also call RenameRemoteFile.
func (e *Engine) RenameLocalFile(basePath, from, to string) error {
	fromPath := filepath.Join(basePath, filepath.FromSlash(from))
	toPath := filepath.Join(basePath, filepath.FromSlash(to))

	if err := os.MkdirAll(filepath.Dir(toPath), 0o755); err != nil {
		return e.setLastError(apperrors.Wrap(apperrors.KindIO, err))
	}
	if err := os.Rename(fromPath, toPath); err != nil {
		return e.setLastError(apperrors.Wrap(apperrors.KindIO, err))
	}
	return nil
}

// DeleteLocalFiles removes paths under basePath. A file already
// missing is not an error.
func (e *Engine) DeleteLocalFiles(basePath string, paths []string) error {
	for _, p := range paths {
		full := filepath.Join(basePath, filepath.FromSlash(p))
		if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
			return e.setLastError(apperrors.Wrap(apperrors.KindIO, err))
		}
	}
	return nil
}
