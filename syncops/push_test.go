package syncops

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/logseq/rsapi/catalog"
	"github.com/logseq/rsapi/cryptoengine"
	"github.com/logseq/rsapi/progress"
	"github.com/logseq/rsapi/remote"
	"github.com/logseq/rsapi/wire"
)

// newTestOrchestrator wires a real Orchestrator against httptest
// control-plane and S3 doubles, with a fresh graph identity, mirroring
// spec.md §8's integration-scenario seeds (S2, S3).
func newTestOrchestrator(t *testing.T, controlPlane http.HandlerFunc, s3 http.HandlerFunc) (*Orchestrator, string) {
	t.Helper()

	cpServer := httptest.NewServer(controlPlane)
	t.Cleanup(cpServer.Close)
	s3Server := httptest.NewServer(s3)
	t.Cleanup(s3Server.Close)

	profile := remote.Profile{Name: "test", URLBase: cpServer.URL, Bucket: "test-bucket", Region: "us-east-1"}
	client, err := remote.NewClient(profile, "test-token", "", false, nil)
	require.NoError(t, err)
	client = client.WithS3Endpoint(s3Server.URL)

	secretKey, publicKey, err := cryptoengine.Keygen()
	require.NoError(t, err)
	fnameKey, err := cryptoengine.ToRawX25519Key(secretKey)
	require.NoError(t, err)

	cat := catalog.New()
	graph, err := cat.Put("33333333-3333-3333-3333-333333333333", publicKey, secretKey, fnameKey)
	require.NoError(t, err)

	base := t.TempDir()

	return &Orchestrator{
		Remote:      client,
		Graph:       graph,
		Canceller:   catalog.NewCanceller(),
		Progress:    progress.New(nil),
		PushRetries: 2,
	}, base
}

func tempCredentialJSON() []byte {
	body, _ := json.Marshal(wire.TempCredential{
		Credentials: wire.Credentials{
			AccessKeyID:  "AKIA",
			SecretKey:    "secret",
			SessionToken: "token",
			Expiration:   time.Now().Add(time.Hour),
		},
		S3Prefix: "test-bucket/33333333-3333-3333-3333-333333333333/",
	})
	return body
}

func TestUpdateRemoteFilesPushesAndShadowsPageFile(t *testing.T) {
	orchestrator, base := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get_temp_credential":
			w.Write(tempCredentialJSON())
		case "/update_files":
			json.NewEncoder(w).Encode(wire.UpdateFilesResult{TXId: 8})
		default:
			t.Fatalf("unexpected control-plane call: %s", r.URL.Path)
		}
	}, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, os.MkdirAll(filepath.Join(base, "pages"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "pages", "a.md"), []byte("X"), 0o644))

	newTXID, err := orchestrator.UpdateRemoteFiles(context.Background(), base, []string{"pages/a.md"}, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(8), newTXID)

	shadow, err := os.ReadFile(filepath.Join(base, "logseq", "version-files", "base", "pages", "a.md"))
	require.NoError(t, err)
	assert.Equal(t, "X", string(shadow))
}

func TestUpdateRemoteFilesRetriesOnExpiredToken(t *testing.T) {
	var uploadAttempts int
	orchestrator, base := newTestOrchestrator(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/get_temp_credential":
			w.Write(tempCredentialJSON())
		case "/update_files":
			json.NewEncoder(w).Encode(wire.UpdateFilesResult{TXId: 9})
		default:
			t.Fatalf("unexpected control-plane call: %s", r.URL.Path)
		}
	}, func(w http.ResponseWriter, r *http.Request) {
		uploadAttempts++
		if uploadAttempts == 1 {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte("ExpiredToken: request signature expired"))
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	require.NoError(t, os.WriteFile(filepath.Join(base, "a.md"), []byte("Y"), 0o644))

	newTXID, err := orchestrator.UpdateRemoteFilesWithRetry(context.Background(), base, []string{"a.md"}, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(9), newTXID)
	assert.Equal(t, 2, uploadAttempts)
}
