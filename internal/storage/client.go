// Package storage wraps the S3 compatible object store the service pushes
// uploaded files and build artifacts to.
package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ObjectStore is the collaborator interface business logic uploads through.
type ObjectStore interface {
	Put(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) (string, error)
	URL(bucket, name string) string
}

// Client talks to the object store over its REST interface.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a new client.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Ping checks if the remote store is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/health", c.baseURL), nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return fmt.Errorf("object store returned status %d", resp.StatusCode)
	}
	return nil
}

// Put uploads an object and returns its public URL.
func (c *Client) Put(ctx context.Context, bucket, name string, body io.Reader, size int64, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.URL(bucket, name), body)
	if err != nil {
		return "", err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if size > 0 {
		req.ContentLength = size
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}
	return c.URL(bucket, name), nil
}

// URL returns the public address of an object.
func (c *Client) URL(bucket, name string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(bucket), url.PathEscape(name))
}

var _ ObjectStore = (*Client)(nil)
