// Package wire holds the JSON request/response shapes exchanged with
// the control plane, matching the field casing of spec.md §4.2
// exactly (TXId, GraphUUID, UpdateSuccFiles, ...).
package wire

import "time"

// Graph is returned by create_graph/get_graph/get_graph_by_uuid.
type Graph struct {
	Message      *string `json:"message,omitempty"`
	StorageUsage uint64  `json:"StorageUsage"`
	TXId         int64   `json:"TXId"`
	GraphName    string  `json:"GraphName"`
	GraphUUID    string  `json:"GraphUUID"`
}

// SimpleGraph is the list_graphs element shape.
type SimpleGraph struct {
	GraphName string `json:"GraphName"`
	GraphUUID string `json:"GraphUUID"`
}

// Credentials are the temporary S3 credentials handed out by
// get_temp_credential.
type Credentials struct {
	AccessKeyID  string    `json:"AccessKeyId"`
	SecretKey    string    `json:"SecretKey"`
	SessionToken string    `json:"SessionToken"`
	Expiration   time.Time `json:"Expiration"`
}

// Expired reports whether the credentials are within 5 minutes of
// expiration as of now (spec.md §3, property 8).
func (c Credentials) Expired(now time.Time) bool {
	return !now.Add(5 * time.Minute).Before(c.Expiration)
}

// TempCredential is the full get_temp_credential response.
type TempCredential struct {
	Credentials Credentials `json:"Credentials"`
	S3Prefix    string      `json:"S3Prefix"`
}

// FileObject describes one stored remote file as returned by
// get_all_files.
type FileObject struct {
	ETag         string    `json:"ETag"`
	Key          string    `json:"Key"`
	LastModified time.Time `json:"LastModified"`
	Size         uint64    `json:"Size"`
}

// Transaction describes one historical graph change, as returned by
// get_diff.
type Transaction struct {
	TXId    int64  `json:"TXId"`
	Type    string `json:"TXType"`
	Content string `json:"TXContent"`
}

// UpdateFilesResult is the update_files response.
type UpdateFilesResult struct {
	Message           *string           `json:"message,omitempty"`
	TXId              int64             `json:"TXId"`
	UpdateSuccFiles   []string          `json:"UpdateSuccFiles"`
	UpdateFailedFiles map[string]string `json:"UpdateFailedFiles"`
}

// DeleteFilesResult is the delete_files response.
type DeleteFilesResult struct {
	Message           *string           `json:"message,omitempty"`
	TXId              int64             `json:"TXId"`
	DeleteSuccFiles   []string          `json:"DeleteSuccFiles"`
	DeleteFailedFiles map[string]string `json:"DeleteFailedFiles"`
}

// RenameFileResult is the rename_file response.
type RenameFileResult struct {
	Message *string `json:"message,omitempty"`
	TXId    int64   `json:"TXId"`
}

// TypicalResponse is the generic envelope used by list_graphs,
// get_all_files and get_diff: a flat JSON object where most of the
// payload lives under operation-specific keys alongside an optional
// error message and TXId.
type TypicalResponse struct {
	Message      *string       `json:"message,omitempty"`
	TXId         int64         `json:"TXId"`
	Graphs       []SimpleGraph `json:"Graphs,omitempty"`
	Objects      []FileObject  `json:"Objects,omitempty"`
	Transactions []Transaction `json:"Transactions,omitempty"`
}

// GetFilesResponse is the get_files/get_version_files response: a map
// from encrypted filename (or opaque version-file id) to a presigned
// GET URL.
type GetFilesResponse struct {
	PresignedFileUrls map[string]string `json:"PresignedFileUrls"`
}

// Request payloads. Field names follow the control-plane contract in
// spec.md §4.2.

type CreateGraphRequest struct {
	GraphName string `json:"GraphName"`
}

type GetGraphByNameRequest struct {
	GraphName string `json:"GraphName"`
}

type GetGraphByUUIDRequest struct {
	GraphUUID string `json:"GraphUUID"`
}

type GraphScopedRequest struct {
	GraphUUID string `json:"GraphUUID"`
}

type GetFilesRequest struct {
	GraphUUID string   `json:"GraphUUID"`
	Files     []string `json:"Files"`
}

// FileUpload is the (tempKey, md5) pair update_files sends per path.
type FileUpload struct {
	TempKey string `json:"-"`
	MD5     string `json:"-"`
}

// MarshalJSON renders FileUpload as the [tempKey, md5] 2-tuple the
// control plane expects.
func (f FileUpload) MarshalJSON() ([]byte, error) {
	return marshalPair(f.TempKey, f.MD5)
}

type UpdateFilesRequest struct {
	GraphUUID string                `json:"GraphUUID"`
	TXId      int64                 `json:"TXId"`
	Files     map[string]FileUpload `json:"Files"`
}

type DeleteFilesRequest struct {
	GraphUUID string   `json:"GraphUUID"`
	TXId      int64    `json:"TXId"`
	Files     []string `json:"Files"`
}

type RenameFileRequest struct {
	GraphUUID string `json:"GraphUUID"`
	TXId      int64  `json:"TXId"`
	SrcFile   string `json:"SrcFile"`
	DstFile   string `json:"DstFile"`
}

type GetDiffRequest struct {
	GraphUUID string `json:"GraphUUID"`
	FromTXId  int64  `json:"FromTXId"`
}
