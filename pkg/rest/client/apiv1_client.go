// Package client provides a basic REST client for Dumbster.
package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/inbucket/dumbster/pkg/rest/model"
)

// Client accesses the Dumbster REST API v1.
type Client struct {
	restClient
}

// New creates a new v1 REST API client given the base URL of a Dumbster server, ex:
// "http://localhost:9000".
func New(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	options := &ClientOptions{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(options)
	}
	return &Client{restClient{client: options.httpClient(), baseURL: parsed}}, nil
}

// ListMessages returns the headers of all stored messages.
func (c *Client) ListMessages(ctx context.Context) ([]*MessageHeader, error) {
	var headers []*MessageHeader
	if err := c.call(ctx, http.MethodGet, messagesURI, &headers); err != nil {
		return nil, err
	}
	for _, h := range headers {
		h.client = c
	}
	return headers, nil
}

// GetMessage returns the message details given a message ID.
func (c *Client) GetMessage(ctx context.Context, id string) (*Message, error) {
	var msg *Message
	if err := c.call(ctx, http.MethodGet, messageURI(id), &msg); err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, fmt.Errorf("message %s: empty response", id)
	}
	msg.client = c
	return msg, nil
}

// GetMessageSource returns the raw source of a message given its ID.
func (c *Client) GetMessageSource(ctx context.Context, id string) (*bytes.Buffer, error) {
	body, err := c.open(ctx, http.MethodGet, messageURI(id)+"/source")
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()

	buf := new(bytes.Buffer)
	_, err = buf.ReadFrom(body)
	return buf, err
}

// DeleteMessage deletes a single message given its ID.
func (c *Client) DeleteMessage(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, messageURI(id), nil)
}

// PurgeMessages deletes all messages.
func (c *Client) PurgeMessages(ctx context.Context) error {
	return c.call(ctx, http.MethodDelete, messagesURI, nil)
}

const messagesURI = "/api/v1/messages"

func messageURI(id string) string {
	return messagesURI + "/" + id
}

// MessageHeader represents a Dumbster message sans content.
type MessageHeader struct {
	*model.JSONMessageHeaderV1
	client *Client
}

// GetMessage returns this message with content.
func (h *MessageHeader) GetMessage(ctx context.Context) (*Message, error) {
	return h.client.GetMessage(ctx, h.ID)
}

// GetSource returns the source for this message.
func (h *MessageHeader) GetSource(ctx context.Context) (*bytes.Buffer, error) {
	return h.client.GetMessageSource(ctx, h.ID)
}

// Delete deletes this message.
func (h *MessageHeader) Delete(ctx context.Context) error {
	return h.client.DeleteMessage(ctx, h.ID)
}

// Message represents a Dumbster message including content.
type Message struct {
	*model.JSONMessageV1
	client *Client
}

// GetSource returns the source for this message.
func (m *Message) GetSource(ctx context.Context) (*bytes.Buffer, error) {
	return m.client.GetMessageSource(ctx, m.ID)
}

// Delete deletes this message.
func (m *Message) Delete(ctx context.Context) error {
	return m.client.DeleteMessage(ctx, m.ID)
}
