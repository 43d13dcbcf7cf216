package syncops

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/logseq/rsapi/cryptoengine"
)

// DeleteRemoteFiles implements spec.md §4.3 "delete_remote_files":
// encrypts the given plaintext paths, calls delete_files with the
// prior TXID, then best-effort removes each path's base-shadow copy.
func (o *Orchestrator) DeleteRemoteFiles(ctx context.Context, basePath string, paths []string, lastTXID int64) (int64, error) {
	var newTXID int64
	err := o.runCancellable(ctx, func(ctx context.Context) error {
		encNames := make([]string, len(paths))
		for i, p := range paths {
			encName, err := cryptoengine.EncryptFilename(p, o.Graph.FnameKey)
			if err != nil {
				return err
			}
			encNames[i] = encName
		}

		result, err := o.Remote.DeleteFiles(ctx, o.Graph.UUID, lastTXID, encNames)
		if err != nil {
			return err
		}
		newTXID = result.TXId

		for _, p := range paths {
			if err := os.Remove(baseShadowPath(basePath, p)); err != nil && o.Logger != nil {
				o.Logger.WithFields(logrus.Fields{"path": p, "error": err.Error()}).
					Debug("best-effort base-shadow removal failed")
			}
		}
		return nil
	})
	return newTXID, err
}
