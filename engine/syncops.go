package engine

import (
	"context"

	"github.com/logseq/rsapi/syncops"
	"github.com/logseq/rsapi/wire"
)

// orchestratorFor resolves graphUUID's identity and pairs it with a
// remote client authorized for this one call, sharing the engine's
// cancellation signal, progress fabric, and retry budget.
func (e *Engine) orchestratorFor(graphUUID, token string) (*syncops.Orchestrator, error) {
	graph, err := e.catalog.Get(graphUUID)
	if err != nil {
		return nil, err
	}
	remoteClient, err := e.remoteFor(token)
	if err != nil {
		return nil, err
	}
	return &syncops.Orchestrator{
		Remote:      remoteClient,
		Graph:       graph,
		Canceller:   e.canceller,
		Progress:    e.progress,
		Logger:      e.logger,
		PushRetries: e.cfg.PushRetries,
	}, nil
}

// FetchRemoteFiles implements fetch v2 (§4.3): downloads paths,
// staging page files for merge and returning the ones delivered.
func (e *Engine) FetchRemoteFiles(ctx context.Context, graphUUID, basePath string, paths []string, token string) ([]string, error) {
	o, err := e.orchestratorFor(graphUUID, token)
	if err != nil {
		return nil, e.setLastError(err)
	}
	pagePaths, err := o.FetchRemoteFiles(ctx, basePath, paths)
	if err != nil {
		return nil, e.setLastError(err)
	}
	return pagePaths, nil
}

// UpdateLocalFiles implements fetch v1 (§4.3): downloads paths
// straight to their live locations.
func (e *Engine) UpdateLocalFiles(ctx context.Context, graphUUID, basePath string, paths []string, token string) error {
	o, err := e.orchestratorFor(graphUUID, token)
	if err != nil {
		return e.setLastError(err)
	}
	return e.setLastError(o.UpdateLocalFiles(ctx, basePath, paths))
}

// UpdateLocalVersionFiles resolves and downloads opaque version-file
// IDs under logseq/version-files/<id>.
func (e *Engine) UpdateLocalVersionFiles(ctx context.Context, graphUUID, basePath string, ids []string, token string) error {
	o, err := e.orchestratorFor(graphUUID, token)
	if err != nil {
		return e.setLastError(err)
	}
	return e.setLastError(o.UpdateLocalVersionFiles(ctx, basePath, ids))
}

// UpdateRemoteFiles implements push (§4.3), retrying on ExpiredToken
// per the binding-layer retry policy pulled into the engine (§9).
func (e *Engine) UpdateRemoteFiles(ctx context.Context, graphUUID, basePath string, paths []string, txID int64, token string) (int64, error) {
	o, err := e.orchestratorFor(graphUUID, token)
	if err != nil {
		return 0, e.setLastError(err)
	}
	newTXID, err := o.UpdateRemoteFilesWithRetry(ctx, basePath, paths, txID)
	if err != nil {
		return 0, e.setLastError(err)
	}
	return newTXID, nil
}

// DeleteRemoteFiles implements delete (§4.3).
func (e *Engine) DeleteRemoteFiles(ctx context.Context, graphUUID, basePath string, paths []string, txID int64, token string) (int64, error) {
	o, err := e.orchestratorFor(graphUUID, token)
	if err != nil {
		return 0, e.setLastError(err)
	}
	newTXID, err := o.DeleteRemoteFiles(ctx, basePath, paths, txID)
	if err != nil {
		return 0, e.setLastError(err)
	}
	return newTXID, nil
}

// RenameRemoteFile renames a file on the control plane, supplemented
// from original_source's graph.rs/sync.rs pairing of local and remote
// rename.
func (e *Engine) RenameRemoteFile(ctx context.Context, graphUUID, from, to string, txID int64, token string) (int64, error) {
	o, err := e.orchestratorFor(graphUUID, token)
	if err != nil {
		return 0, e.setLastError(err)
	}
	newTXID, err := o.RenameRemoteFile(ctx, from, to, txID)
	if err != nil {
		return 0, e.setLastError(err)
	}
	return newTXID, nil
}

// GetDiff returns every transaction recorded for the graph since
// fromTXID, for hosts that want to show sync history.
func (e *Engine) GetDiff(ctx context.Context, graphUUID string, fromTXID int64, token string) ([]wire.Transaction, error) {
	o, err := e.orchestratorFor(graphUUID, token)
	if err != nil {
		return nil, e.setLastError(err)
	}
	diff, err := o.GetDiff(ctx, fromTXID)
	if err != nil {
		return nil, e.setLastError(err)
	}
	return diff, nil
}
