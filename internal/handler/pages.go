// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stagecms/stagecms/internal/content"
	"github.com/stagecms/stagecms/internal/model"
	"github.com/stagecms/stagecms/internal/preview"
	"github.com/stagecms/stagecms/internal/store"
	"github.com/stagecms/stagecms/internal/util"
)

// maxDocumentBytes caps the request body for draft and publish writes.
const maxDocumentBytes = 1 << 20 // 1 MiB

// PageResponse is the public view of a page: the schema-complete document
// plus read-only bookkeeping.
type PageResponse struct {
	Slug        string           `json:"slug"`
	Document    content.Document `json:"document"`
	IsPublished bool             `json:"is_published"`
	UpdatedAt   *time.Time       `json:"updated_at,omitempty"`
	PublishedAt *time.Time       `json:"published_at,omitempty"`
}

// DraftResponse is the authoring view: the merged draft plus the full
// write bookkeeping.
type DraftResponse struct {
	Slug         string           `json:"slug"`
	Document     content.Document `json:"document"`
	IsPublished  bool             `json:"is_published"`
	VersionToken string           `json:"version_token"`
	UpdatedAt    *time.Time       `json:"updated_at,omitempty"`
	PublishedAt  *time.Time       `json:"published_at,omitempty"`
}

// WriteResponse echoes the store receipt after a draft save or publish.
type WriteResponse struct {
	Slug         string     `json:"slug"`
	VersionToken string     `json:"version_token"`
	IsPublished  bool       `json:"is_published"`
	UpdatedAt    time.Time  `json:"updated_at"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
}

// VersionResponse carries the opaque version token for polling clients.
// An empty token means the page has never been written.
type VersionResponse struct {
	Slug         string `json:"slug"`
	VersionToken string `json:"version_token"`
}

// resolveSlug validates the slug parameter and returns its canonical
// defaults. Writes an error response and returns false for unknown slugs.
func (h *Handler) resolveSlug(w http.ResponseWriter, r *http.Request) (string, content.Document, bool) {
	slug := chi.URLParam(r, "slug")
	if !util.IsValidSlug(slug) {
		WriteBadRequest(w, "Invalid page slug")
		return "", nil, false
	}
	defaults, err := h.registry.Defaults(slug)
	if err != nil {
		WriteNotFound(w, "Unknown page")
		return "", nil, false
	}
	return slug, defaults, true
}

// GetPage handles GET /api/pages/{slug}.
// Serves published content; with ?preview=draft it serves the draft instead,
// which is how the preview pane addresses draft content.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	slug, defaults, ok := h.resolveSlug(w, r)
	if !ok {
		return
	}

	if preview.DraftRequested(r.URL.Query()) {
		h.getDraftPreview(w, r, slug, defaults)
		return
	}

	page, err := h.pages.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteNotFound(w, "Page has no published content")
			return
		}
		h.logger.Error("fetching published page", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to load page")
		return
	}
	if !page.IsPublished || page.Document == nil {
		WriteNotFound(w, "Page has no published content")
		return
	}

	doc := h.renderer.RenderHTML(content.Merge(page.Document, defaults))
	WriteJSON(w, http.StatusOK, PageResponse{
		Slug:        slug,
		Document:    doc,
		IsPublished: true,
		UpdatedAt:   &page.UpdatedAt,
		PublishedAt: page.PublishedAt,
	})
}

// getDraftPreview serves the merged draft for the preview pane. A page that
// was never edited previews as its canonical defaults.
func (h *Handler) getDraftPreview(w http.ResponseWriter, r *http.Request, slug string, defaults content.Document) {
	rec, err := h.store.FetchForAuthoring(r.Context(), slug)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("fetching draft preview", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to load page")
		return
	}

	resp := PageResponse{Slug: slug}
	if rec == nil {
		resp.Document = h.renderer.RenderHTML(content.Merge(nil, defaults))
	} else {
		resp.Document = h.renderer.RenderHTML(content.Merge(rec.Draft, defaults))
		resp.IsPublished = rec.IsPublished
		resp.UpdatedAt = &rec.UpdatedAt
		resp.PublishedAt = rec.PublishedAt
	}
	WriteJSON(w, http.StatusOK, resp)
}

// GetDraft handles GET /api/pages/{slug}/draft.
// Returns the full authoring view. A page that was never edited returns the
// canonical defaults with empty bookkeeping rather than 404, so the editor
// always has a complete document to start from.
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	slug, defaults, ok := h.resolveSlug(w, r)
	if !ok {
		return
	}

	rec, err := h.store.FetchForAuthoring(r.Context(), slug)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("fetching draft", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to load draft")
		return
	}

	resp := DraftResponse{Slug: slug}
	if rec == nil {
		resp.Document = content.Merge(nil, defaults)
	} else {
		resp.Document = content.Merge(rec.Draft, defaults)
		resp.IsPublished = rec.IsPublished
		resp.VersionToken = rec.VersionToken
		resp.UpdatedAt = &rec.UpdatedAt
		resp.PublishedAt = rec.PublishedAt
	}
	WriteJSON(w, http.StatusOK, resp)
}

// UpdateDraft handles PUT /api/pages/{slug}/draft.
// The body is the draft document itself. It is sanitized and stored exactly
// as sent; gaps are filled from defaults on read, never on write.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	slug, _, ok := h.resolveSlug(w, r)
	if !ok {
		return
	}

	doc, ok := h.readDocument(w, r)
	if !ok {
		return
	}
	doc = h.sanitizer.Clean(doc)

	receipt, err := h.store.UpsertDraft(r.Context(), slug, doc)
	if err != nil {
		h.logger.Error("saving draft", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to save draft")
		return
	}

	h.channel.Broadcast(r.Context(), preview.NewContentChanged(slug, receipt.VersionToken))
	h.events.LogPageEvent(r.Context(), model.EventLevelInfo, "draft saved",
		map[string]any{"slug": slug, "version_token": receipt.VersionToken})

	WriteJSON(w, http.StatusOK, writeResponse(slug, receipt))
}

// PublishPage handles PUT /api/pages/{slug}/publish.
// With a JSON body, that document is published. With an empty body, the
// stored draft is published as-is.
func (h *Handler) PublishPage(w http.ResponseWriter, r *http.Request) {
	slug, _, ok := h.resolveSlug(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil {
		WriteBadRequest(w, "Failed to read request body")
		return
	}

	var doc content.Document
	if len(body) > 0 {
		if doc, err = content.UnmarshalDocument(body); err != nil {
			WriteBadRequest(w, "Request body must be a JSON object")
			return
		}
		doc = h.sanitizer.Clean(doc)
	} else {
		rec, err := h.store.FetchForAuthoring(r.Context(), slug)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				WriteNotFound(w, "Page has no draft to publish")
				return
			}
			h.logger.Error("fetching draft for publish", "slug", slug, "error", err)
			WriteInternalError(w, "Failed to publish page")
			return
		}
		doc = rec.Draft
		if doc == nil {
			WriteNotFound(w, "Page has no draft to publish")
			return
		}
	}

	receipt, err := h.store.Publish(r.Context(), slug, doc)
	if err != nil {
		h.logger.Error("publishing page", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to publish page")
		return
	}

	h.pages.Invalidate(r.Context(), slug)
	h.channel.Broadcast(r.Context(), preview.NewContentChanged(slug, receipt.VersionToken))
	h.events.LogPageEvent(r.Context(), model.EventLevelInfo, "page published",
		map[string]any{"slug": slug, "version_token": receipt.VersionToken})

	WriteJSON(w, http.StatusOK, writeResponse(slug, receipt))
}

// GetVersion handles GET /api/pages/{slug}/version.
// Polling clients compare tokens for equality only; a never-written page
// reports an empty token rather than an error so pollers have a stable
// baseline before the first save.
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	slug, _, ok := h.resolveSlug(w, r)
	if !ok {
		return
	}

	token, err := h.store.VersionToken(r.Context(), slug)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		h.logger.Error("fetching version token", "slug", slug, "error", err)
		WriteInternalError(w, "Failed to load version")
		return
	}
	WriteJSON(w, http.StatusOK, VersionResponse{Slug: slug, VersionToken: token})
}

// readDocument decodes a request body into a document.
// Returns false if an error response was written.
func (h *Handler) readDocument(w http.ResponseWriter, r *http.Request) (content.Document, bool) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxDocumentBytes))
	if err != nil {
		WriteBadRequest(w, "Failed to read request body")
		return nil, false
	}
	if len(body) == 0 {
		WriteBadRequest(w, "Request body is required")
		return nil, false
	}
	doc, err := content.UnmarshalDocument(body)
	if err != nil {
		WriteBadRequest(w, "Request body must be a JSON object")
		return nil, false
	}
	return doc, true
}

func writeResponse(slug string, receipt *model.WriteReceipt) WriteResponse {
	return WriteResponse{
		Slug:         slug,
		VersionToken: receipt.VersionToken,
		IsPublished:  receipt.IsPublished,
		UpdatedAt:    receipt.UpdatedAt,
		PublishedAt:  receipt.PublishedAt,
	}
}
