package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// StatusError is returned when the server answers with anything but 200 OK.
type StatusError struct {
	Method string
	URL    string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: server responded %d %s", e.Method, e.URL, e.Code,
		http.StatusText(e.Code))
}

// httpClient is the subset of http.Client used by restClient.
type httpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type restClient struct {
	client  httpClient
	baseURL *url.URL
}

// open sends a bodiless request for uri, resolved against the base URL, and returns the body of
// a 200 response.  The caller must close it.
func (c *restClient) open(ctx context.Context, method, uri string) (io.ReadCloser, error) {
	target := c.baseURL.JoinPath(uri).String()
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{Method: method, URL: target, Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// call sends a request and decodes the JSON response into v.  A nil v discards the response.
func (c *restClient) call(ctx context.Context, method, uri string, v any) error {
	body, err := c.open(ctx, method, uri)
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	if v == nil {
		_, err = io.Copy(io.Discard, body)
		return err
	}
	if err := json.NewDecoder(body).Decode(v); err != nil {
		return fmt.Errorf("decoding %s response: %w", uri, err)
	}
	return nil
}
