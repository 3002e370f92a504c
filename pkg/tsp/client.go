package tsp

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"net/url"

	units "github.com/docker/go-units"
	"go.uber.org/zap"
	"golang.org/x/net/context/ctxhttp"

	"github.com/oneconcern/gitstamp/pkg/tsp/status"
)

const (
	queryContentType = "application/timestamp-query"
	replyContentType = "application/timestamp-reply"

	defaultMaxReplySize = 1 << 20
)

// Client submits timestamp queries to an authority
type Client struct {
	url          string
	http         *http.Client
	insecure     bool
	maxReplySize int64
	l            *zap.Logger
}

// NewClient builds a client for the authority at this URL.
//
// Only https URLs are accepted unless AllowInsecure is set.
func NewClient(authority string, opts ...Option) (*Client, error) {
	c := &Client{
		url:          authority,
		http:         http.DefaultClient,
		maxReplySize: defaultMaxReplySize,
		l:            zap.NewNop(),
	}
	for _, apply := range opts {
		apply(c)
	}

	u, err := url.Parse(authority)
	if err != nil {
		return nil, status.ErrTransport.Wrapf("invalid authority URL %q: %v", authority, err)
	}
	switch {
	case u.Host == "":
		return nil, status.ErrTransport.Wrapf("invalid authority URL %q: no host", authority)
	case u.Scheme == "https":
	case u.Scheme == "http" && c.insecure:
		c.l.Warn("using an unauthenticated transport to reach the timestamp authority", zap.String("url", authority))
	default:
		return nil, status.ErrTransport.Wrapf("authority URL %q: scheme must be https", authority)
	}
	return c, nil
}

// URL of the authority
func (c *Client) URL() string {
	return c.url
}

// Submit posts a DER-encoded query to the authority and returns its raw reply.
//
// There is no retry: the context is the only deadline. The reply is returned as is,
// callers must check it with Verify before trusting it.
func (c *Client) Submit(ctx context.Context, query []byte) ([]byte, error) {
	c.l.Debug("submitting timestamp query", zap.String("url", c.url), zap.Int("size", len(query)))

	resp, err := ctxhttp.Post(ctx, c.http, c.url, queryContentType, bytes.NewReader(query))
	if err != nil {
		return nil, status.ErrTransport.Wrap(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, status.ErrTransport.Wrapf("authority %s answered %s", c.url, resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		if mt, _, err := mime.ParseMediaType(ct); err != nil || mt != replyContentType {
			c.l.Warn("unexpected content type for timestamp reply", zap.String("content-type", ct))
		}
	}

	reply, err := io.ReadAll(io.LimitReader(resp.Body, c.maxReplySize+1))
	if err != nil {
		return nil, status.ErrTransport.Wrap(err)
	}
	if int64(len(reply)) > c.maxReplySize {
		return nil, status.ErrMalformedReply.Wrapf("reply exceeds %s", units.BytesSize(float64(c.maxReplySize)))
	}
	if len(reply) == 0 {
		return nil, status.ErrMalformedReply.Wrapf("empty reply from %s", c.url)
	}

	c.l.Debug("received timestamp reply", zap.String("url", c.url), zap.Int("size", len(reply)))
	return reply, nil
}
