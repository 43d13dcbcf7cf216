package remote

import (
	"context"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/logseq/rsapi/errors"
	"github.com/logseq/rsapi/progress"
)

const (
	downloadMinTimeout      = 50 * time.Second
	downloadFallbackTimeout = 100 * time.Second
	downloadBytesPerSec     = 20 * 1024 // 20 KiB/s
	downloadChunkSize       = 256 * 1024
)

// downloadTimeout implements spec.md §4.2's download formula:
// max(content_length / 20 KiB, 50) seconds, falling back to 100s when
// the length is unknown (zero).
func downloadTimeout(contentLength int64) time.Duration {
	if contentLength <= 0 {
		return downloadFallbackTimeout
	}
	secs := math.Max(float64(contentLength)/downloadBytesPerSec, float64(downloadMinTimeout/time.Second))
	return time.Duration(secs * float64(time.Second))
}

// probeContentLength issues the size-probe GET (Content-Range:
// bytes=0-0) spec.md §4.2 describes, returning the full object's
// Content-Length if the server reports one.
func (c *Client) probeContentLength(ctx context.Context, url string) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindRequest, err)
	}
	req.Header.Set("Content-Range", "bytes=0-0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.KindRequest, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // probe body is discarded regardless of read error.

	if cr := resp.Header.Get("Content-Range"); cr != "" {
		if idx := lastSlash(cr); idx >= 0 {
			if n, err := strconv.ParseInt(cr[idx+1:], 10, 64); err == nil {
				return n, nil
			}
		}
	}
	return resp.ContentLength, nil
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' {
			return i
		}
	}
	return -1
}

// DownloadFile fetches url, first probing its size so the request
// timeout can be sized per spec.md §4.2, reporting progress through
// tracker and failing with Custom("Incomplete download") if the body
// is shorter than the declared length.
func (c *Client) DownloadFile(ctx context.Context, url string, tracker *progress.Tracker) ([]byte, error) {
	contentLength, err := c.probeContentLength(ctx, url)
	if err != nil {
		return nil, err
	}
	if contentLength < 0 {
		contentLength = 0
	}

	if tracker != nil {
		tracker.Rebase(uint64(contentLength))
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, downloadTimeout(contentLength))
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindRequest, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		body, _ := io.ReadAll(resp.Body)
		return nil, apperrors.Msg(apperrors.KindCustom, "%d%s", resp.StatusCode, string(body))
	}

	total := uint64(contentLength)
	var received int
	buf := make([]byte, downloadChunkSize)
	out := make([]byte, 0, contentLength)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
			received += n
			if tracker != nil {
				tracker.Update(uint64(received))
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, apperrors.Wrap(apperrors.KindRequest, readErr)
		}
	}

	if contentLength > 0 && uint64(received) != total {
		return nil, apperrors.Msg(apperrors.KindCustom, "Incomplete download")
	}

	return out, nil
}
