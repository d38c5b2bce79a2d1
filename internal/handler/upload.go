// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/oblog-web/internal/api"
	"github.com/olegiv/oblog-web/internal/auth"
	"github.com/olegiv/oblog-web/internal/imaging"
	"github.com/olegiv/oblog-web/internal/util"
)

// UploadHandler proxies editor image uploads to the backend. Files are
// decoded and downscaled locally before forwarding so the backend never
// stores oversized originals. The token source decides which session slot
// authorizes the forward, so the same handler serves both the admin panel
// and the account compose form.
type UploadHandler struct {
	client    *api.Client
	token     auth.TokenSource
	processor *imaging.Processor
	maxBytes  int64
}

// NewUploadHandler creates a new UploadHandler. maxBytes bounds the
// multipart body accepted from the editor's image tool.
func NewUploadHandler(client *api.Client, token auth.TokenSource, processor *imaging.Processor, maxBytes int64) *UploadHandler {
	return &UploadHandler{
		client:    client,
		token:     token,
		processor: processor,
		maxBytes:  maxBytes,
	}
}

// UploadImage accepts a multipart "image" field, validates and downscales
// it, and forwards the result to the backend. The response shape is what
// the editor's image tool expects.
func (h *UploadHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "Image is too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "Invalid upload request")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close uploaded file", "error", err)
		}
	}()

	prepared, err := h.processor.Prepare(file, header.Filename)
	if err != nil {
		slog.Warn("rejected image upload", "filename", header.Filename, "error", err)
		writeJSONError(w, http.StatusBadRequest, "Unsupported image format")
		return
	}

	// Forward under a name that keeps the original for readability but
	// never collides at the backend.
	ext := filepath.Ext(prepared.Filename)
	filename := uuid.New().String() + ext
	if slug := util.Slugify(strings.TrimSuffix(prepared.Filename, ext)); slug != "" {
		filename = slug + "-" + filename
	}

	ctx := r.Context()
	result, err := h.client.UploadImage(ctx, h.token(ctx), filename, bytes.NewReader(prepared.Data))
	if err != nil {
		slog.Error("backend image upload failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// UploadImageByURL validates a remote image URL and asks the backend to
// ingest it. The URL is checked against private address space before it
// leaves this process.
func (h *UploadHandler) UploadImageByURL(w http.ResponseWriter, r *http.Request) {
	var imageURL string

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/json") {
		var body struct {
			URL string `json:"url"`
		}
		if err := readJSONBody(r, &body); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		imageURL = body.URL
	} else {
		if err := r.ParseForm(); err != nil {
			writeJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		imageURL = r.FormValue("url")
	}

	if err := util.ValidateRemoteURL(imageURL); err != nil {
		slog.Warn("rejected image URL", "url", imageURL, "error", err)
		writeJSONError(w, http.StatusBadRequest, "Invalid image URL")
		return
	}

	ctx := r.Context()
	result, err := h.client.UploadImageByURL(ctx, h.token(ctx), imageURL)
	if err != nil {
		slog.Error("backend image-by-url upload failed", "error", err)
		writeJSONError(w, http.StatusBadGateway, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}
