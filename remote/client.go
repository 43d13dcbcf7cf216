// Package remote implements the HTTP surface to the sync control
// plane (spec.md §4.2): session management, the JSON operations, the
// temporary-credential lifecycle, and S3 object transfer.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	apperrors "github.com/logseq/rsapi/errors"
	"github.com/logseq/rsapi/wire"
)

// Client is the engine's HTTP session to one control-plane
// environment. It owns the cached temp credential (§3) but not the
// graph catalog: callers pass GraphUUID/TXId explicitly.
type Client struct {
	httpClient *http.Client
	profile    Profile
	token      string
	logger     *logrus.Logger

	// s3Endpoint overrides the S3 endpoint the presign client resolves
	// against. Empty uses the SDK's normal region-derived endpoint;
	// set for tests or an S3-compatible deployment.
	s3Endpoint string

	creds *cachedCredentials
}

// NewClient builds a Client bound to profile, authenticating with
// bearer token, and configured per proxyURL/allowInsecureTLS (empty
// proxyURL disables proxying).
func NewClient(profile Profile, token, proxyURL string, allowInsecureTLS bool, logger *logrus.Logger) (*Client, error) {
	httpClient, err := newHTTPClient(proxyURL, allowInsecureTLS)
	if err != nil {
		return nil, err
	}
	return &Client{
		httpClient: httpClient,
		profile:    profile,
		token:      token,
		logger:     logger,
		creds:      newCachedCredentials(),
	}, nil
}

// WithS3Endpoint returns a copy of c that resolves S3 presigned URLs
// against endpoint instead of the SDK's region-derived default. Used
// by tests and by S3-compatible deployments.
func (c *Client) WithS3Endpoint(endpoint string) *Client {
	clone := *c
	clone.s3Endpoint = endpoint
	return &clone
}

// WithToken returns a copy of c authorizing with token instead of the
// bearer token it was built with. The host-binding API (spec.md §6)
// passes a fresh token on every sync call rather than fixing one for
// the session, so callers derive a per-call client from a shared base.
func (c *Client) WithToken(token string) *Client {
	clone := *c
	clone.token = token
	return &clone
}

// post executes one control-plane JSON operation: POST op with body
// marshaled from req, decoding the response into resp. Any non-null
// "message" field in the raw response is mapped via
// errors.FromServerMessage before the caller sees resp at all.
func (c *Client) post(ctx context.Context, op string, req, resp any) error {
	payload, err := json.Marshal(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindSerde, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.profile.URLBase+"/"+op, bytes.NewReader(payload))
	if err != nil {
		return apperrors.Wrap(apperrors.KindRequest, err)
	}
	httpReq.Header.Set("Content-Type", "application/octet-stream")
	httpReq.Header.Set("Authorization", "Bearer "+c.token)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return apperrors.Wrap(apperrors.KindRequest, err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.KindRequest, err)
	}

	var envelope struct {
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apperrors.Wrap(apperrors.KindSerde, err)
	}
	if envelope.Message != nil {
		return apperrors.FromServerMessage(*envelope.Message)
	}

	if resp != nil {
		if err := json.Unmarshal(body, resp); err != nil {
			return apperrors.Wrap(apperrors.KindSerde, err)
		}
	}
	return nil
}

// CreateGraph creates a new graph named name.
func (c *Client) CreateGraph(ctx context.Context, name string) (wire.Graph, error) {
	var resp wire.Graph
	err := c.post(ctx, "create_graph", wire.CreateGraphRequest{GraphName: name}, &resp)
	return resp, err
}

// GetGraph looks a graph up by name.
func (c *Client) GetGraph(ctx context.Context, name string) (wire.Graph, error) {
	var resp wire.Graph
	err := c.post(ctx, "get_graph", wire.GetGraphByNameRequest{GraphName: name}, &resp)
	return resp, err
}

// GetGraphByUUID looks a graph up by UUID.
func (c *Client) GetGraphByUUID(ctx context.Context, uuid string) (wire.Graph, error) {
	var resp wire.Graph
	err := c.post(ctx, "get_graph_by_uuid", wire.GetGraphByUUIDRequest{GraphUUID: uuid}, &resp)
	return resp, err
}

// ListGraphs returns every graph the bearer token can see.
func (c *Client) ListGraphs(ctx context.Context) ([]wire.SimpleGraph, error) {
	var resp wire.TypicalResponse
	err := c.post(ctx, "list_graphs", struct{}{}, &resp)
	return resp.Graphs, err
}

// GetAllFiles lists every stored object for a graph.
func (c *Client) GetAllFiles(ctx context.Context, graphUUID string) ([]wire.FileObject, error) {
	var resp wire.TypicalResponse
	err := c.post(ctx, "get_all_files", wire.GraphScopedRequest{GraphUUID: graphUUID}, &resp)
	return resp.Objects, err
}

// GetFiles resolves encrypted names to presigned GET URLs.
func (c *Client) GetFiles(ctx context.Context, graphUUID string, encNames []string) (map[string]string, error) {
	var resp wire.GetFilesResponse
	err := c.post(ctx, "get_files", wire.GetFilesRequest{GraphUUID: graphUUID, Files: encNames}, &resp)
	return resp.PresignedFileUrls, err
}

// GetVersionFiles resolves opaque version-file IDs to presigned GET URLs.
func (c *Client) GetVersionFiles(ctx context.Context, graphUUID string, ids []string) (map[string]string, error) {
	var resp wire.GetFilesResponse
	err := c.post(ctx, "get_version_files", wire.GetFilesRequest{GraphUUID: graphUUID, Files: ids}, &resp)
	return resp.PresignedFileUrls, err
}

// UpdateFiles advances the TXID with the given (path -> tempKey, md5)
// triples.
func (c *Client) UpdateFiles(ctx context.Context, graphUUID string, txID int64, files map[string]wire.FileUpload) (wire.UpdateFilesResult, error) {
	var resp wire.UpdateFilesResult
	err := c.post(ctx, "update_files", wire.UpdateFilesRequest{GraphUUID: graphUUID, TXId: txID, Files: files}, &resp)
	return resp, err
}

// DeleteFiles advances the TXID, removing the given encrypted names.
func (c *Client) DeleteFiles(ctx context.Context, graphUUID string, txID int64, encNames []string) (wire.DeleteFilesResult, error) {
	var resp wire.DeleteFilesResult
	err := c.post(ctx, "delete_files", wire.DeleteFilesRequest{GraphUUID: graphUUID, TXId: txID, Files: encNames}, &resp)
	return resp, err
}

// RenameFile advances the TXID, renaming src to dst (both encrypted names).
func (c *Client) RenameFile(ctx context.Context, graphUUID string, txID int64, src, dst string) (wire.RenameFileResult, error) {
	var resp wire.RenameFileResult
	err := c.post(ctx, "rename_file", wire.RenameFileRequest{GraphUUID: graphUUID, TXId: txID, SrcFile: src, DstFile: dst}, &resp)
	return resp, err
}

// GetDiff returns every transaction recorded for graphUUID since fromTXID.
func (c *Client) GetDiff(ctx context.Context, graphUUID string, fromTXID int64) ([]wire.Transaction, error) {
	var resp wire.TypicalResponse
	err := c.post(ctx, "get_diff", wire.GetDiffRequest{GraphUUID: graphUUID, FromTXId: fromTXID}, &resp)
	return resp.Transactions, err
}

// getTempCredential performs the raw get_temp_credential call.
func (c *Client) getTempCredential(ctx context.Context) (wire.TempCredential, error) {
	var resp wire.TempCredential
	err := c.post(ctx, "get_temp_credential", struct{}{}, &resp)
	return resp, err
}

func (c *Client) String() string {
	return fmt.Sprintf("remote.Client{profile=%s}", c.profile.Name)
}
