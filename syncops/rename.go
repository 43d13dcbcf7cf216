package syncops

import (
	"context"

	"github.com/logseq/rsapi/cryptoengine"
	"github.com/logseq/rsapi/wire"
)

// RenameRemoteFile implements the rename_file control-plane operation
// (spec.md §4.2 table, supplemented from original_source's
// graph.rs/sync.rs pairing of RenameLocalFile with a remote
// counterpart): encrypts both names and advances the TXID.
func (o *Orchestrator) RenameRemoteFile(ctx context.Context, from, to string, lastTXID int64) (int64, error) {
	var newTXID int64
	err := o.runCancellable(ctx, func(ctx context.Context) error {
		srcEnc, err := cryptoengine.EncryptFilename(from, o.Graph.FnameKey)
		if err != nil {
			return err
		}
		dstEnc, err := cryptoengine.EncryptFilename(to, o.Graph.FnameKey)
		if err != nil {
			return err
		}
		result, err := o.Remote.RenameFile(ctx, o.Graph.UUID, lastTXID, srcEnc, dstEnc)
		if err != nil {
			return err
		}
		newTXID = result.TXId
		return nil
	})
	return newTXID, err
}

// GetDiff implements spec.md §4.2's get_diff operation: returns every
// transaction recorded for the graph since fromTXID, for hosts that
// want to show sync history.
func (o *Orchestrator) GetDiff(ctx context.Context, fromTXID int64) ([]wire.Transaction, error) {
	return o.Remote.GetDiff(ctx, o.Graph.UUID, fromTXID)
}
