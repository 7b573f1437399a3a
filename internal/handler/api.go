// Copyright (c) 2026 StageCMS Contributors
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides the REST API for the content store.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/stagecms/stagecms/internal/cache"
	"github.com/stagecms/stagecms/internal/content"
	"github.com/stagecms/stagecms/internal/preview"
	"github.com/stagecms/stagecms/internal/service"
	"github.com/stagecms/stagecms/internal/store"
)

// Handler holds shared dependencies for all API handlers.
type Handler struct {
	store     store.VersionStore
	registry  *content.Registry
	sanitizer *content.Sanitizer
	renderer  *content.Renderer
	pages     *cache.PageCache
	channel   *preview.Channel
	events    *service.EventService
	logger    *slog.Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	st store.VersionStore,
	registry *content.Registry,
	pages *cache.PageCache,
	channel *preview.Channel,
	events *service.EventService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		store:     st,
		registry:  registry,
		sanitizer: content.NewSanitizer(),
		renderer:  content.NewRenderer(),
		pages:     pages,
		channel:   channel,
		events:    events,
		logger:    logger,
	}
}

// ErrorResponse is the standard API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteError writes an error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, code, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// WriteBadRequest writes a 400 Bad Request response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message)
}

// WriteNotFound writes a 404 Not Found response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

// WriteInternalError writes a 500 Internal Server Error response.
func WriteInternalError(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusInternalServerError, "internal_error", message)
}
