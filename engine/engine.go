// Package engine exposes the sync engine's host-binding API (spec.md
// §6): one Engine value per process, replacing the original source's
// global statics (§9) with explicit state a host can construct,
// reconfigure, and tear down without touching package-level variables.
package engine

import (
	"net/url"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/logseq/rsapi/catalog"
	"github.com/logseq/rsapi/config"
	apperrors "github.com/logseq/rsapi/errors"
	"github.com/logseq/rsapi/progress"
	"github.com/logseq/rsapi/remote"
)

// Engine is the process-wide handle a host binding constructs once and
// drives through SetEnv/sync calls. It is single-tenant for
// environment selection (last SetEnv wins, per §4.6) but holds a
// catalog of every graph identity that has been set on it.
type Engine struct {
	logger *logrus.Logger
	cfg    config.Config

	mu         sync.RWMutex
	proxyURL   string
	profile    remote.Profile
	baseRemote *remote.Client

	catalog   *catalog.Catalog
	canceller *catalog.Canceller
	progress  *progress.Fabric

	lastErrMu sync.Mutex
	lastErr   error
}

// New builds an Engine from cfg, ready for SetEnv once a graph
// identity is available. logger may be nil.
func New(cfg config.Config, logger *logrus.Logger) *Engine {
	return &Engine{
		logger:    logger,
		cfg:       cfg,
		proxyURL:  cfg.ProxyURL,
		catalog:   catalog.New(),
		canceller: catalog.NewCanceller(),
		progress:  progress.New(logger),
	}
}

// LastError returns the most recently recorded error, for hosts whose
// binding layer cannot carry a typed error across the ABI (§7).
func (e *Engine) LastError() error {
	e.lastErrMu.Lock()
	defer e.lastErrMu.Unlock()
	return e.lastErr
}

func (e *Engine) setLastError(err error) error {
	if err != nil {
		e.lastErrMu.Lock()
		e.lastErr = err
		e.lastErrMu.Unlock()
	}
	return err
}

// SetProxy configures (or clears, with an empty string) the HTTPS
// proxy every subsequent request uses. A malformed URL is rejected
// with InvalidArg per §4.2.
func (e *Engine) SetProxy(rawURL string) error {
	if rawURL != "" {
		if _, err := url.Parse(rawURL); err != nil {
			return e.setLastError(apperrors.Wrap(apperrors.KindInvalidArg, err))
		}
	}

	e.mu.Lock()
	e.proxyURL = rawURL
	hasProfile := e.profile.Name != ""
	e.mu.Unlock()

	if !hasProfile {
		return nil
	}
	return e.setLastError(e.rebuildRemote())
}

// rebuildRemote reconstructs baseRemote against the currently selected
// profile and proxy. Callers must hold no lock; it takes its own.
func (e *Engine) rebuildRemote() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	client, err := remote.NewClient(e.profile, "", e.proxyURL, e.cfg.AllowInsecureTLS, e.logger)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInvalidArg, err)
	}
	e.baseRemote = client
	return nil
}

// SetProgressCallback installs fn as the process-wide progress sink
// (§4.5). Passing nil clears it.
func (e *Engine) SetProgressCallback(fn progress.Callback) {
	e.progress.SetCallback(fn)
}

// CancelAllRequests broadcasts a cancellation tick; every orchestration
// currently joining transfer tasks observes it and returns Cancelled.
func (e *Engine) CancelAllRequests() {
	e.canceller.Cancel()
}

// OverrideEndpoints repoints the currently selected environment's
// control-plane URL and S3 endpoint. SetEnv must have run first. Used
// by self-hosted/S3-compatible deployments and by integration tests
// that substitute httptest doubles for the real control plane.
func (e *Engine) OverrideEndpoints(urlBase, s3Endpoint string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.baseRemote == nil {
		return apperrors.Msg(apperrors.KindInvalidArg, "no environment configured; call SetEnv first")
	}
	e.profile.URLBase = urlBase
	client, err := remote.NewClient(e.profile, "", e.proxyURL, e.cfg.AllowInsecureTLS, e.logger)
	if err != nil {
		return apperrors.Wrap(apperrors.KindInvalidArg, err)
	}
	e.baseRemote = client.WithS3Endpoint(s3Endpoint)
	return nil
}
