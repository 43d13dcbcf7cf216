package syncops

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logseq/rsapi/cryptoengine"
	apperrors "github.com/logseq/rsapi/errors"
	"github.com/logseq/rsapi/wire"
)

// TestFetchRemoteFilesRoutesPagesVsAssets exercises spec.md §8's S3
// scenario: a page file is staged under incoming/ for merge, while a
// non-page asset is written straight to its live location.
func TestFetchRemoteFilesRoutesPagesVsAssets(t *testing.T) {
	blobs := map[string][]byte{}

	orchestrator, base := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get_files":
			var req struct {
				GraphUUID string   `json:"GraphUUID"`
				Files     []string `json:"Files"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			urls := map[string]string{}
			for _, f := range req.Files {
				urls[f] = "http://" + r.Host + "/blob/" + f
			}
			json.NewEncoder(w).Encode(wire.GetFilesResponse{PresignedFileUrls: urls})
		default:
			encName := r.URL.Path[len("/blob/"):]
			body, ok := blobs[encName]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Write(body)
		}
	}, func(w http.ResponseWriter, r *http.Request) {})

	pageName, err := cryptoengine.EncryptFilename("pages/a.md", orchestrator.Graph.FnameKey)
	require.NoError(t, err)
	assetName, err := cryptoengine.EncryptFilename("assets/i.png", orchestrator.Graph.FnameKey)
	require.NoError(t, err)

	pageContent, err := cryptoengine.EncryptContent([]byte("# hello"), orchestrator.Graph.AgePublicKey)
	require.NoError(t, err)
	assetContent, err := cryptoengine.EncryptContent([]byte{0x89, 0x50, 0x4e, 0x47}, orchestrator.Graph.AgePublicKey)
	require.NoError(t, err)

	blobs[pageName] = pageContent
	blobs[assetName] = assetContent

	pagePaths, err := orchestrator.FetchRemoteFiles(context.Background(), base, []string{"pages/a.md", "assets/i.png"})
	require.NoError(t, err)
	sort.Strings(pagePaths)
	assert.Equal(t, []string{"pages/a.md"}, pagePaths)

	incoming, err := os.ReadFile(filepath.Join(base, "logseq", "version-files", "incoming", "pages", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "# hello", string(incoming))

	asset, err := os.ReadFile(filepath.Join(base, "assets", "i.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 0x50, 0x4e, 0x47}, asset)
}

// TestFetchRemoteFilesCancelledMidFlight exercises spec.md §8's S6
// scenario: cancelling while a fetch is in flight returns a Cancelled
// error instead of completing the download.
func TestFetchRemoteFilesCancelledMidFlight(t *testing.T) {
	release := make(chan struct{})
	orchestrator, base := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get_files":
			<-release
			urls := map[string]string{"enc-name": "/blob/enc-name"}
			json.NewEncoder(w).Encode(urls)
		default:
			w.Write([]byte("unused"))
		}
	}, func(w http.ResponseWriter, r *http.Request) {})

	errCh := make(chan error, 1)
	go func() {
		_, err := orchestrator.FetchRemoteFiles(context.Background(), base, []string{"pages/a.md"})
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	orchestrator.Canceller.Cancel()
	close(release)

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.KindCancelled))
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not return after cancellation")
	}
}
