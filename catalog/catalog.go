// Package catalog holds the engine's in-memory registry of graphs the
// host has opened, plus the cross-cutting cancel signal every
// in-flight sync operation races against.
package catalog

import (
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/logseq/rsapi/errors"
)

// Graph bundles the identity and key material needed to sync one
// graph, derived once at SetEnv time and reused for the
// graph's lifetime.
type Graph struct {
	UUID         string
	AgePublicKey string
	AgeSecretKey string
	FnameKey     [32]byte
}

func newGraph(graphUUID, publicKey, secretKey string, fnameKey [32]byte) (*Graph, error) {
	if graphUUID == "" {
		return nil, apperrors.Msg(apperrors.KindInvalidArg, "graph UUID must not be empty")
	}
	if _, err := uuid.Parse(graphUUID); err != nil {
		return nil, apperrors.Wrapf(apperrors.KindInvalidArg, err, "graph UUID %q is not a valid UUID", graphUUID)
	}
	if publicKey == "" || secretKey == "" {
		return nil, apperrors.Msg(apperrors.KindInvalidArg, "graph %s is missing its age keypair", graphUUID)
	}
	return &Graph{
		UUID:         graphUUID,
		AgePublicKey: publicKey,
		AgeSecretKey: secretKey,
		FnameKey:     fnameKey,
	}, nil
}

// Catalog is the Engine-owned registry of open graphs, keyed by UUID.
// It replaces the lazy_static global HashMap the original client used:
// every Engine gets its own Catalog, so two engines in one process
// never see each other's graphs.
type Catalog struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{graphs: make(map[string]*Graph)}
}

// Put registers (or replaces) the graph identified by uuid.
func (c *Catalog) Put(uuid, publicKey, secretKey string, fnameKey [32]byte) (*Graph, error) {
	g, err := newGraph(uuid, publicKey, secretKey, fnameKey)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.graphs[uuid] = g
	return g, nil
}

// Get returns the graph registered under uuid, or an InvalidArg error
// if the host never opened it.
func (c *Catalog) Get(uuid string) (*Graph, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	g, ok := c.graphs[uuid]
	if !ok {
		return nil, apperrors.Msg(apperrors.KindInvalidArg, "graph %s has not been opened", uuid)
	}
	return g, nil
}

// Delete drops uuid from the catalog. Deleting an unknown uuid is a
// no-op, matching the idempotent close semantics hosts expect.
func (c *Catalog) Delete(uuid string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.graphs, uuid)
}

// Len reports how many graphs are currently open.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.graphs)
}
