// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// UploadResult is the editor-shaped response for image ingestion.
type UploadResult struct {
	Success int `json:"success"`
	File    struct {
		URL string `json:"url"`
	} `json:"file"`
}

// UploadImage forwards an image file to the backend. The field name matches
// what the editor's image tool posts.
func (c *Client) UploadImage(ctx context.Context, token, filename string, file io.Reader) (UploadResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile("image", filename)
	if err != nil {
		return UploadResult{}, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return UploadResult{}, fmt.Errorf("copying file data: %w", err)
	}
	if err := mw.Close(); err != nil {
		return UploadResult{}, fmt.Errorf("closing multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload/image", &buf)
	if err != nil {
		return UploadResult{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return UploadResult{}, transportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return UploadResult{}, transportError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return UploadResult{}, &Error{Kind: KindHTTP, Status: resp.StatusCode, Message: normalizeError(data)}
	}

	var result UploadResult
	if err := json.Unmarshal(data, &result); err != nil {
		return UploadResult{}, &Error{Kind: KindParse, Message: msgParseFailed}
	}
	return result, nil
}

// UploadImageByURL asks the backend to ingest an image it fetches itself.
func (c *Client) UploadImageByURL(ctx context.Context, token, imageURL string) (UploadResult, error) {
	body := map[string]string{"url": imageURL}
	return Request[UploadResult](ctx, c, http.MethodPost, "/upload/image-url", token, body)
}
