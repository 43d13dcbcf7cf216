package syncops

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/logseq/rsapi/catalog"
	"github.com/logseq/rsapi/cryptoengine"
	apperrors "github.com/logseq/rsapi/errors"
	"github.com/logseq/rsapi/progress"
	"github.com/logseq/rsapi/remote"
)

// largeFileWarnBytes is the encrypted size above which a push logs a
// warning with precise sizes after encrypting and before uploading,
// per spec.md §4.3.
const largeFileWarnBytes = 10 * 1024 * 1024

// Orchestrator drives one graph's sync operations: it pairs a remote
// client with the graph's crypto identity, the engine's shared
// cancellation signal, and its progress fabric.
type Orchestrator struct {
	Remote    *remote.Client
	Graph     *catalog.Graph
	Canceller *catalog.Canceller
	Progress  *progress.Fabric
	Logger    *logrus.Logger

	// PushRetries bounds updateRemoteFiles's retry-on-ExpiredToken
	// loop (spec.md §9 "Retry of push", made configurable).
	PushRetries int
}

// runCancellable races fn against the orchestrator's cancellation
// signal, implementing §5's select!(join_all(tasks), cancel)
// semantics. fn should itself respect ctx cancellation so in-flight
// work actually stops.
func (o *Orchestrator) runCancellable(ctx context.Context, fn func(context.Context) error) error {
	cancelCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- fn(cancelCtx) }()

	select {
	case err := <-done:
		return err
	case <-o.Canceller.Done():
		cancel()
		<-done
		return apperrors.New(apperrors.KindCancelled)
	}
}

// fanOut runs fn(item) for every item in items concurrently, returning
// the first error encountered (and cancelling the rest), matching the
// errgroup-based fan-out of spec.md §5.
func fanOut[T any](ctx context.Context, items []T, fn func(context.Context, T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, item := range items {
		item := item
		g.Go(func() error {
			return fn(gctx, item)
		})
	}
	return g.Wait()
}

// fanOutIndexed runs fn(index, item) concurrently for every item,
// returning the first error encountered. Use this over fanOut when
// results must be written back positionally (e.g. parallel upload
// results keyed to their source path).
func fanOutIndexed[T any](ctx context.Context, items []T, fn func(context.Context, int, T) error) error {
	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			return fn(gctx, i, item)
		})
	}
	return g.Wait()
}

// uploadedFile is the per-path result of encrypting and uploading one
// pushed file, ready to feed into update_files.
type uploadedFile struct {
	relPath string
	encName string
	tempKey string
	md5Hex  string
	isPage  bool
}

func (o *Orchestrator) uploadOne(ctx context.Context, basePath, relPath string) (uploadedFile, error) {
	fullPath := livePath(basePath, relPath)
	raw, err := os.ReadFile(fullPath)
	if err != nil {
		return uploadedFile{}, apperrors.Wrap(apperrors.KindIO, err)
	}

	md5Hex := cryptoengine.MD5Hex(raw)

	encrypted, err := cryptoengine.EncryptContent(raw, o.Graph.AgePublicKey)
	if err != nil {
		return uploadedFile{}, err
	}

	if len(encrypted) > largeFileWarnBytes {
		if o.Logger != nil {
			o.Logger.WithFields(logrus.Fields{
				"path":            relPath,
				"content_bytes":   len(raw),
				"encrypted_bytes": len(encrypted),
			}).Warn("pushing a file larger than 10MiB")
		}
	}

	tracker := o.Progress.NewTracker(o.Graph.UUID, relPath, progress.Upload, uint64(len(encrypted)))
	tempKey, err := o.Remote.UploadTempfile(ctx, encrypted, tracker)
	if err != nil {
		return uploadedFile{}, err
	}

	encName, err := cryptoengine.EncryptFilename(relPath, o.Graph.FnameKey)
	if err != nil {
		return uploadedFile{}, err
	}

	return uploadedFile{
		relPath: relPath,
		encName: encName,
		tempKey: tempKey,
		md5Hex:  md5Hex,
		isPage:  IsPageFile(relPath),
	}, nil
}

// downloadedFile is the per-name result of fetching and decrypting
// one remote file.
type downloadedFile struct {
	encName string
	relPath string
	isPage  bool
	data    []byte
}

func (o *Orchestrator) downloadOne(ctx context.Context, encName, url string) (downloadedFile, error) {
	tracker := o.Progress.NewTracker(o.Graph.UUID, encName, progress.Download, 0)
	raw, err := o.Remote.DownloadFile(ctx, url, tracker)
	if err != nil {
		return downloadedFile{}, err
	}
	decrypted, err := cryptoengine.DecryptContent(raw, o.Graph.AgeSecretKey)
	if err != nil {
		return downloadedFile{}, err
	}
	relPath, err := cryptoengine.DecryptFilename(encName, o.Graph.FnameKey)
	if err != nil {
		return downloadedFile{}, err
	}
	return downloadedFile{
		encName: encName,
		relPath: relPath,
		isPage:  IsPageFile(relPath),
		data:    decrypted,
	}, nil
}

func (o *Orchestrator) debugf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Debug(fmt.Sprintf(format, args...))
	}
}
