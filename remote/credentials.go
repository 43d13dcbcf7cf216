package remote

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/logseq/rsapi/wire"
)

// cachedCredentials is the last-writer-wins, single-writer-semantics
// temp-credential cell described in spec.md §5 "Shared state": reads
// take a snapshot under lock, writes replace it atomically.
type cachedCredentials struct {
	mu    sync.Mutex
	creds *wire.TempCredential
}

func newCachedCredentials() *cachedCredentials {
	return &cachedCredentials{}
}

func (c *cachedCredentials) snapshot() (wire.TempCredential, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.creds == nil {
		return wire.TempCredential{}, false
	}
	return *c.creds, true
}

func (c *cachedCredentials) set(tc wire.TempCredential) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = &tc
}

// reset drops the cached credential, making it unusable for a graph
// switch (spec.md §4.6 step 1 of set_env).
func (c *cachedCredentials) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creds = nil
}

// ResetCredentials discards the client's cached temp credential. Called
// by the engine's SetEnv per spec.md §4.6 step 1.
func (c *Client) ResetCredentials() {
	c.creds.reset()
}

// rewriteS3Prefix strips the bucket name and any leading slash from
// the server-supplied prefix and appends a trailing slash, per
// spec.md §4.2 "Credentials lifecycle".
func rewriteS3Prefix(prefix, bucket string) string {
	p := strings.TrimPrefix(prefix, bucket)
	p = strings.TrimPrefix(p, "/")
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}

// RefreshTempCredential implements spec.md §4.2's credential lifecycle:
// adopt the process cache if fresh, otherwise fetch and atomically
// replace it. It is idempotent and safe to call before every upload.
func (c *Client) RefreshTempCredential(ctx context.Context) (wire.TempCredential, error) {
	if cached, ok := c.creds.snapshot(); ok && !cached.Credentials.Expired(time.Now()) {
		return cached, nil
	}

	tc, err := c.getTempCredential(ctx)
	if err != nil {
		return wire.TempCredential{}, err
	}
	tc.S3Prefix = rewriteS3Prefix(tc.S3Prefix, c.profile.Bucket)
	c.creds.set(tc)

	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"profile":   c.profile.Name,
			"s3_prefix": tc.S3Prefix,
		}).Debug("refreshed temp S3 credential")
	}
	return tc, nil
}
