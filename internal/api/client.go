package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mkredacao/portal-client/internal/gateway"
)

// RequestError is a non-2xx backend answer that is not an auth failure
// (those surface as *gateway.AuthError before reaching here).
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// NotFound reports whether err is a 404 RequestError. Some lookups treat
// 404 as "nothing yet" rather than a failure (a student with no draft).
func NotFound(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Status == http.StatusNotFound
}

// Client issues JSON requests through the gateway and unwraps envelopes.
type Client struct {
	GW *gateway.Gateway
}

// NewClient creates a Client over an existing gateway.
func NewClient(gw *gateway.Gateway) *Client {
	return &Client{GW: gw}
}

// Get fetches path and decodes the unwrapped payload into out (skipped when
// out is nil).
func (c *Client) Get(ctx context.Context, path string, out any, opts ...gateway.RequestOptions) error {
	return c.do(ctx, http.MethodGet, path, nil, out, opts...)
}

// Post sends in as JSON and decodes the unwrapped payload into out.
func (c *Client) Post(ctx context.Context, path string, in, out any, opts ...gateway.RequestOptions) error {
	return c.do(ctx, http.MethodPost, path, in, out, opts...)
}

// Patch sends in as JSON and decodes the unwrapped payload into out.
func (c *Client) Patch(ctx context.Context, path string, in, out any, opts ...gateway.RequestOptions) error {
	return c.do(ctx, http.MethodPatch, path, in, out, opts...)
}

// Delete issues a DELETE, optionally with a JSON body.
func (c *Client) Delete(ctx context.Context, path string, in, out any, opts ...gateway.RequestOptions) error {
	return c.do(ctx, http.MethodDelete, path, in, out, opts...)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, opts ...gateway.RequestOptions) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	var opt *gateway.RequestOptions
	if len(opts) > 0 {
		opt = &opts[0]
	}

	res, err := c.GW.Do(ctx, method, path, body, opt)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &RequestError{
			Status:  res.StatusCode,
			Message: gateway.ReadErrorMessage(res, ""),
		}
	}

	if out == nil {
		io.Copy(io.Discard, res.Body)
		return nil
	}

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("read response body: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	payload, err := ParseEnvelope(data).Unwrap()
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response payload: %w", err)
	}
	return nil
}
