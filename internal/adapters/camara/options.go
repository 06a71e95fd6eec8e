package camara

import (
	"net/http"
	"strings"
)

// Default RapidAPI routing for the Network as Code gateway.
const (
	DefaultBaseURL = "https://network-as-code.p-eu.rapidapi.com"
	DefaultAPIHost = "network-as-code.nokia.rapidapi.com"
)

// Option applies a configuration option to the Client.
type Option func(*Client)

// WithBaseURL sets the gateway base URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

// WithAPIHost sets the x-rapidapi-host header value.
func WithAPIHost(host string) Option {
	return func(c *Client) {
		if host != "" {
			c.apiHost = host
		}
	}
}

// WithAPIKey sets the x-rapidapi-key header value.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = strings.TrimSpace(key) }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}
