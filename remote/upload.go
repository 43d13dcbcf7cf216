package remote

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	apperrors "github.com/logseq/rsapi/errors"
	"github.com/logseq/rsapi/progress"
)

const (
	tempKeySuffixLen  = 12
	tempKeyAlphabet   = "abcdefghijklmnopqrstuvwxyz0123456789"
	presignExpiry     = 10 * time.Minute
	uploadMinTimeout  = 30 * time.Second
	uploadBytesPerSec = 20 * 1024 // 20 KiB/s, per spec.md §4.2 upload timeout formula
)

// randomTempKeySuffix returns a 12-character random lowercase-alphanumeric
// suffix, matching the original client's temp-object naming scheme.
func randomTempKeySuffix() (string, error) {
	buf := make([]byte, tempKeySuffixLen)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	out := make([]byte, tempKeySuffixLen)
	for i, b := range buf {
		out[i] = tempKeyAlphabet[int(b)%len(tempKeyAlphabet)]
	}
	return string(out), nil
}

// uploadTimeout implements spec.md §4.2's upload formula:
// max(content_size / 20 KiB, 30) seconds.
func uploadTimeout(contentSize int) time.Duration {
	secs := math.Max(float64(contentSize)/uploadBytesPerSec, float64(uploadMinTimeout/time.Second))
	return time.Duration(secs * float64(time.Second))
}

// UploadTempfile uploads raw under a fresh random temp key inside the
// graph's s3_prefix, reporting progress through tracker. It returns
// the S3 key (relative to the bucket) the file was stored under, for
// the caller to include in the subsequent update_files call.
func (c *Client) UploadTempfile(ctx context.Context, raw []byte, tracker *progress.Tracker) (string, error) {
	tc, err := c.RefreshTempCredential(ctx)
	if err != nil {
		return "", err
	}

	suffix, err := randomTempKeySuffix()
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindIO, err)
	}
	key := tc.S3Prefix + suffix

	opts := s3.Options{
		Region: c.profile.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			tc.Credentials.AccessKeyID, tc.Credentials.SecretKey, tc.Credentials.SessionToken,
		),
		UsePathStyle: c.s3Endpoint != "",
	}
	if c.s3Endpoint != "" {
		opts.BaseEndpoint = aws.String(c.s3Endpoint)
	}
	s3Client := s3.New(opts)
	presignClient := s3.NewPresignClient(s3Client)

	presigned, err := presignClient.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.profile.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String("application/octet-stream"),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindRequest, err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, uploadTimeout(len(raw)))
	defer cancel()

	body := newProgressReader(raw, tracker)
	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPut, presigned.URL, body)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindRequest, err)
	}
	req.ContentLength = int64(len(raw))
	req.Header.Set("Content-Length", fmt.Sprintf("%d", len(raw)))
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		bodyStr := string(respBody)
		if strings.Contains(bodyStr, "ExpiredToken") {
			return "", apperrors.New(apperrors.KindExpiredToken)
		}
		return "", apperrors.Msg(apperrors.KindCustom, "%d%s", resp.StatusCode, bodyStr)
	}

	return key, nil
}

// progressReader wraps an in-memory buffer as an io.Reader, reporting
// cumulative bytes read to tracker after each Read call.
type progressReader struct {
	buf     *bytes.Reader
	total   int
	read    int
	tracker *progress.Tracker
}

func newProgressReader(raw []byte, tracker *progress.Tracker) *progressReader {
	return &progressReader{buf: bytes.NewReader(raw), total: len(raw), tracker: tracker}
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.buf.Read(p)
	if n > 0 {
		r.read += n
		if r.tracker != nil {
			r.tracker.Update(uint64(r.read))
		}
	}
	return n, err
}
