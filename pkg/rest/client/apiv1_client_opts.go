package client

import (
	"net/http"
	"time"
)

// DefaultTimeout bounds each request unless WithOptTimeout says otherwise.
const DefaultTimeout = 30 * time.Second

// ClientOptions configures the http.Client built by New.
type ClientOptions struct {
	transport http.RoundTripper
	timeout   time.Duration
}

// Option adjusts ClientOptions.
type Option func(*ClientOptions)

// WithOptTransport replaces http.DefaultTransport, e.g. to add TLS settings or a proxy.
func WithOptTransport(transport http.RoundTripper) Option {
	return func(o *ClientOptions) { o.transport = transport }
}

// WithOptTimeout sets the time limit of each request; zero means no limit.
func WithOptTimeout(timeout time.Duration) Option {
	return func(o *ClientOptions) { o.timeout = timeout }
}

func (o *ClientOptions) httpClient() *http.Client {
	return &http.Client{Transport: o.transport, Timeout: o.timeout}
}
