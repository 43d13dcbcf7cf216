package engine

import (
	"context"

	"github.com/logseq/rsapi/wire"
)

// CreateGraph creates a new graph on the control plane, pulled up from
// original_source's graph.rs since every host needs it before its
// first SetEnv for that graph.
func (e *Engine) CreateGraph(ctx context.Context, name, token string) (wire.Graph, error) {
	remoteClient, err := e.remoteFor(token)
	if err != nil {
		return wire.Graph{}, e.setLastError(err)
	}
	graph, err := remoteClient.CreateGraph(ctx, name)
	if err != nil {
		return wire.Graph{}, e.setLastError(err)
	}
	return graph, nil
}

// GetGraph resolves a graph by name.
func (e *Engine) GetGraph(ctx context.Context, name, token string) (wire.Graph, error) {
	remoteClient, err := e.remoteFor(token)
	if err != nil {
		return wire.Graph{}, e.setLastError(err)
	}
	graph, err := remoteClient.GetGraph(ctx, name)
	if err != nil {
		return wire.Graph{}, e.setLastError(err)
	}
	return graph, nil
}

// GetGraphByUUID resolves a graph by its UUID.
func (e *Engine) GetGraphByUUID(ctx context.Context, uuid, token string) (wire.Graph, error) {
	remoteClient, err := e.remoteFor(token)
	if err != nil {
		return wire.Graph{}, e.setLastError(err)
	}
	graph, err := remoteClient.GetGraphByUUID(ctx, uuid)
	if err != nil {
		return wire.Graph{}, e.setLastError(err)
	}
	return graph, nil
}

// ListGraphs lists every graph visible to token.
func (e *Engine) ListGraphs(ctx context.Context, token string) ([]wire.SimpleGraph, error) {
	remoteClient, err := e.remoteFor(token)
	if err != nil {
		return nil, e.setLastError(err)
	}
	graphs, err := remoteClient.ListGraphs(ctx)
	if err != nil {
		return nil, e.setLastError(err)
	}
	return graphs, nil
}
