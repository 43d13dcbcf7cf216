package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/logseq/rsapi/errors"
	"github.com/logseq/rsapi/wire"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	profile := Profile{Name: "test", URLBase: server.URL, Bucket: "test-bucket", Region: "us-east-1"}
	client, err := NewClient(profile, "test-token", "", false, nil)
	require.NoError(t, err)
	return client, server
}

func TestListGraphs(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/list_graphs", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(wire.TypicalResponse{
			Graphs: []wire.SimpleGraph{{GraphName: "g1", GraphUUID: "uuid-1"}},
		})
	})
	defer server.Close()

	graphs, err := client.ListGraphs(context.Background())
	require.NoError(t, err)
	require.Len(t, graphs, 1)
	assert.Equal(t, "uuid-1", graphs[0].GraphUUID)
}

func TestUpdateFilesAdvancesTXID(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req wire.UpdateFilesRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(7), req.TXId)
		json.NewEncoder(w).Encode(wire.UpdateFilesResult{TXId: 8, UpdateSuccFiles: []string{"e.abc"}})
	})
	defer server.Close()

	result, err := client.UpdateFiles(context.Background(), "uuid-1", 7, map[string]wire.FileUpload{
		"e.abc": {TempKey: "temp/abc", MD5: "deadbeef"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), result.TXId)
}

func TestServerErrorMessageMapsToUnauthorized(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		msg := "Unauthorized"
		json.NewEncoder(w).Encode(wire.TypicalResponse{Message: &msg})
	})
	defer server.Close()

	_, err := client.ListGraphs(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindUnauthorized))
}

func TestRefreshTempCredentialCachesUntilExpiry(t *testing.T) {
	calls := 0
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		json.NewEncoder(w).Encode(wire.TempCredential{
			Credentials: wire.Credentials{
				AccessKeyID:  "AKIA",
				SecretKey:    "secret",
				SessionToken: "token",
				Expiration:   time.Now().Add(time.Hour),
			},
			S3Prefix: "test-bucket/graph-1/",
		})
	})
	defer server.Close()

	first, err := client.RefreshTempCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "graph-1/", first.S3Prefix)

	second, err := client.RefreshTempCredential(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, calls)
}
