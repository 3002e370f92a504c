package tsp

import (
	"net/http"

	"go.uber.org/zap"
)

// Option is a functor to build a Client with some options
type Option func(*Client)

// HTTPClient defines the http client used to reach the authority.
//
// It is the place to configure proxies, timeouts and custom root CAs for the transport.
func HTTPClient(c *http.Client) Option {
	return func(client *Client) {
		if c != nil {
			client.http = c
		}
	}
}

// AllowInsecure permits plain http authority URLs
func AllowInsecure(allow bool) Option {
	return func(client *Client) {
		client.insecure = allow
	}
}

// Logger for the client
func Logger(l *zap.Logger) Option {
	return func(client *Client) {
		if l != nil {
			client.l = l
		}
	}
}

// MaxReplySize limits the size of the replies accepted from the authority
func MaxReplySize(size int64) Option {
	return func(client *Client) {
		if size > 0 {
			client.maxReplySize = size
		}
	}
}
