// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package api implements the HTTP client for the oBlog REST backend.
// It normalizes every failure into a single *Error value carrying a
// human-readable message; the raw HTTP response is never surfaced to callers.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

// Kind classifies a request failure.
type Kind int

const (
	// KindTransport means the request never reached the backend or never returned.
	KindTransport Kind = iota
	// KindTimeout means the request exceeded the configured deadline.
	KindTimeout
	// KindHTTP means the backend answered with a non-success status.
	KindHTTP
	// KindParse means a success response body could not be decoded.
	KindParse
)

// Fallback messages, matching what the backend-facing pages display.
const (
	msgUnknownError  = "An unknown error occurred!"
	msgParseFailed   = "Failed to parse response"
	msgEmptyResponse = "Empty response received"
	msgTimeout       = "The request timed out"
	msgTransport     = "Could not reach the server"
)

// Error is the single failure value produced by the client.
type Error struct {
	Kind    Kind
	Status  int // HTTP status for KindHTTP, 0 otherwise
	Message string
}

func (e *Error) Error() string { return e.Message }

// IsNotFound reports whether err is a backend 404. Detail pages use it to
// distinguish "not found" from transport errors.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindHTTP && apiErr.Status == http.StatusNotFound
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindTimeout
}

// Client talks to the oBlog backend. It does not attach auth headers on its
// own: callers pass the bearer token explicitly per call (empty string for
// anonymous endpoints), which keeps the client transport-agnostic.
type Client struct {
	baseURL string
	http    *http.Client
}

// DefaultTimeout bounds every backend call. A hung backend must surface as a
// timeout error, not a perpetually loading page.
const DefaultTimeout = 15 * time.Second

// New creates a Client for the given base URL. A timeout of 0 selects
// DefaultTimeout.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// errorBody is the shape of a structured backend error.
type errorBody struct {
	Message string `json:"message"`
}

// normalizeError turns a non-success response body into a single message.
// A JSON array of {message} objects is joined with ", "; a single object
// with a message field is used as-is; anything else falls back to the
// generic unknown-error string.
func normalizeError(body []byte) string {
	var list []errorBody
	if err := json.Unmarshal(body, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, e := range list {
			parts = append(parts, e.Message)
		}
		if len(parts) > 0 {
			return strings.Join(parts, ", ")
		}
		return msgUnknownError
	}

	var single errorBody
	if err := json.Unmarshal(body, &single); err == nil && single.Message != "" {
		return single.Message
	}

	return msgUnknownError
}

// do issues a request and returns the response body and Content-Type.
// Non-success statuses and transport failures come back as *Error.
func (c *Client) do(ctx context.Context, method, endpoint, token string, body any) ([]byte, string, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, "", fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, "", fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &Error{
			Kind:    KindHTTP,
			Status:  resp.StatusCode,
			Message: normalizeError(data),
		}
	}

	return data, resp.Header.Get("Content-Type"), nil
}

// transportError classifies a failed round trip as timeout or transport.
func transportError(err error) *Error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &Error{Kind: KindTimeout, Message: msgTimeout}
	}
	if errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTransport, Message: context.Canceled.Error()}
	}
	return &Error{Kind: KindTransport, Message: msgTransport}
}

// Request issues a call and decodes the response into T. A JSON Content-Type
// is decoded as JSON; any other type is returned as raw text (T must then be
// string). A decode failure on a success status is a KindParse error.
func Request[T any](ctx context.Context, c *Client, method, endpoint, token string, body any) (T, error) {
	var zero T

	data, contentType, err := c.do(ctx, method, endpoint, token, body)
	if err != nil {
		return zero, err
	}

	if strings.Contains(contentType, "application/json") {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return zero, &Error{Kind: KindParse, Message: msgParseFailed}
		}
		return v, nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return zero, &Error{Kind: KindParse, Message: msgEmptyResponse}
	}
	if s, ok := any(&zero).(*string); ok {
		*s = string(data)
		return zero, nil
	}
	return zero, &Error{Kind: KindParse, Message: msgParseFailed}
}

// call issues a request where the caller only cares about success or failure.
func (c *Client) call(ctx context.Context, method, endpoint, token string, body any) error {
	_, _, err := c.do(ctx, method, endpoint, token, body)
	return err
}
