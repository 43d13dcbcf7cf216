package syncops

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "github.com/logseq/rsapi/errors"
	"github.com/logseq/rsapi/wire"
)

// UpdateRemoteFiles implements push (spec.md §4.3 "update_remote_files"):
// read, checksum, encrypt, upload each path, then advance the TXID
// with the collected triples. On success, every pushed page file is
// duplicated into the base shadow tree.
//
// Any single file failure aborts the whole batch before the TXID is
// advanced, per §4.3's "any failed upload aborts the TXID advance".
func (o *Orchestrator) UpdateRemoteFiles(ctx context.Context, basePath string, paths []string, lastTXID int64) (int64, error) {
	var newTXID int64
	err := o.runCancellable(ctx, func(ctx context.Context) error {
		uploaded := make([]uploadedFile, len(paths))
		err := fanOutIndexed(ctx, paths, func(ctx context.Context, i int, relPath string) error {
			result, err := o.uploadOne(ctx, basePath, relPath)
			if err != nil {
				return err
			}
			uploaded[i] = result
			return nil
		})
		if err != nil {
			return err
		}

		files := make(map[string]wire.FileUpload, len(uploaded))
		for _, u := range uploaded {
			files[u.encName] = wire.FileUpload{TempKey: u.tempKey, MD5: u.md5Hex}
		}

		result, err := o.Remote.UpdateFiles(ctx, o.Graph.UUID, lastTXID, files)
		if err != nil {
			return err
		}
		newTXID = result.TXId

		for _, u := range uploaded {
			if !u.isPage {
				continue
			}
			if err := copyFile(livePath(basePath, u.relPath), baseShadowPath(basePath, u.relPath)); err != nil && o.Logger != nil {
				o.Logger.WithFields(logrus.Fields{"path": u.relPath, "error": err.Error()}).
					Warn("failed to shadow-copy pushed page file")
			}
		}
		return nil
	})
	return newTXID, err
}

// UpdateRemoteFilesWithRetry wraps UpdateRemoteFiles with the push
// retry loop spec.md §9 says should live in the engine rather than the
// host binding: up to o.PushRetries retries when the failure is an
// ExpiredToken. Before each retry the cached temp credential is
// dropped, so the next UploadTempfile call fetches a fresh one.
func (o *Orchestrator) UpdateRemoteFilesWithRetry(ctx context.Context, basePath string, paths []string, lastTXID int64) (int64, error) {
	var lastErr error
	for attempt := 0; attempt <= o.PushRetries; attempt++ {
		txID, err := o.UpdateRemoteFiles(ctx, basePath, paths, lastTXID)
		if err == nil {
			return txID, nil
		}
		lastErr = err
		if !isExpiredToken(err) {
			return 0, err
		}
		o.Remote.ResetCredentials()
		if o.Logger != nil {
			o.Logger.WithField("attempt", attempt+1).Debug("push attempt failed with ExpiredToken, retrying")
		}
	}
	return 0, lastErr
}

func isExpiredToken(err error) bool {
	if apperrors.Is(err, apperrors.KindExpiredToken) {
		return true
	}
	return strings.Contains(err.Error(), "ExpiredToken")
}
