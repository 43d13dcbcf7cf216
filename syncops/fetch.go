package syncops

import (
	"context"
	"sync"

	"github.com/logseq/rsapi/cryptoengine"
	"github.com/logseq/rsapi/progress"
)

// FetchRemoteFiles implements fetch v2 (spec.md §4.3
// "fetch_remote_files"): resolves plaintext paths to presigned URLs,
// downloads and decrypts each, staging page files under
// logseq/version-files/incoming/ and writing everything else straight
// to its live location. Returns the plaintext page paths actually
// delivered, for the host to run its merge over.
func (o *Orchestrator) FetchRemoteFiles(ctx context.Context, basePath string, paths []string) ([]string, error) {
	var pagePaths []string
	err := o.runCancellable(ctx, func(ctx context.Context) error {
		encNames := make([]string, len(paths))
		for i, p := range paths {
			encName, err := cryptoengine.EncryptFilename(p, o.Graph.FnameKey)
			if err != nil {
				return err
			}
			encNames[i] = encName
		}

		urls, err := o.Remote.GetFiles(ctx, o.Graph.UUID, encNames)
		if err != nil {
			return err
		}

		var mu sync.Mutex
		err = fanOutMapEntries(ctx, urls, func(ctx context.Context, encName, url string) error {
			file, err := o.downloadOne(ctx, encName, url)
			if err != nil {
				return err
			}
			if file.isPage {
				if err := writeFile(incomingPath(basePath, file.relPath), file.data); err != nil {
					return err
				}
				mu.Lock()
				pagePaths = append(pagePaths, file.relPath)
				mu.Unlock()
				return nil
			}
			return writeFile(livePath(basePath, file.relPath), file.data)
		})
		return err
	})
	return pagePaths, err
}

// UpdateLocalFiles implements fetch v1 (spec.md §4.3
// "update_local_files"): identical to FetchRemoteFiles except every
// file, page or not, is written straight to its live location, and
// nothing is returned.
func (o *Orchestrator) UpdateLocalFiles(ctx context.Context, basePath string, paths []string) error {
	return o.runCancellable(ctx, func(ctx context.Context) error {
		encNames := make([]string, len(paths))
		for i, p := range paths {
			encName, err := cryptoengine.EncryptFilename(p, o.Graph.FnameKey)
			if err != nil {
				return err
			}
			encNames[i] = encName
		}

		urls, err := o.Remote.GetFiles(ctx, o.Graph.UUID, encNames)
		if err != nil {
			return err
		}

		return fanOutMapEntries(ctx, urls, func(ctx context.Context, encName, url string) error {
			file, err := o.downloadOne(ctx, encName, url)
			if err != nil {
				return err
			}
			return writeFile(livePath(basePath, file.relPath), file.data)
		})
	})
}

// UpdateLocalVersionFiles implements spec.md §4.3
// "update_local_version_files": resolves opaque version-file IDs,
// downloads and decrypts each, and writes them under
// logseq/version-files/<id>.
func (o *Orchestrator) UpdateLocalVersionFiles(ctx context.Context, basePath string, ids []string) error {
	return o.runCancellable(ctx, func(ctx context.Context) error {
		urls, err := o.Remote.GetVersionFiles(ctx, o.Graph.UUID, ids)
		if err != nil {
			return err
		}
		return fanOutMapEntries(ctx, urls, func(ctx context.Context, id, url string) error {
			tracker := o.Progress.NewTracker(o.Graph.UUID, id, progress.Download, 0)
			raw, err := o.Remote.DownloadFile(ctx, url, tracker)
			if err != nil {
				return err
			}
			decrypted, err := cryptoengine.DecryptContent(raw, o.Graph.AgeSecretKey)
			if err != nil {
				return err
			}
			return writeFile(versionFilePath(basePath, id), decrypted)
		})
	})
}

// fanOutMapEntries runs fn concurrently over every key/value pair in
// m, returning the first error encountered.
func fanOutMapEntries(ctx context.Context, m map[string]string, fn func(context.Context, string, string) error) error {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, pair{k, v})
	}
	return fanOut(ctx, pairs, func(ctx context.Context, p pair) error {
		return fn(ctx, p.k, p.v)
	})
}
