// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"io"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/validation"
)

// maxRequestBody bounds request bodies. Search filters and catalog patches
// are small; anything larger is a client bug.
const maxRequestBody = 1 << 20

// respondJSON writes the envelope. Every envelope endpoint is authenticated
// or operational, so responses are never cacheable.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("marshal response envelope")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Debug().Err(err).Msg("write response")
	}
}

// respondData wraps data in a success envelope. elapsed is the service call
// duration, surfaced as query_time_ms.
func respondData(w http.ResponseWriter, status int, data interface{}, elapsed time.Duration) {
	respondJSON(w, status, &models.APIResponse{
		Status: "success",
		Data:   data,
		Metadata: models.Metadata{
			Timestamp:   time.Now().UTC(),
			QueryTimeMS: elapsed.Milliseconds(),
		},
	})
}

// respondError wraps a structured error in the envelope.
func respondError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	respondJSON(w, status, &models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
		Error:    apiErr,
	})
}

// respondView writes pre-rendered view bytes directly, skipping the
// envelope. The body carries per-request credentials, so it must never be
// cached downstream.
func respondView(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "private, no-store")
	if _, err := w.Write(body); err != nil {
		logging.Debug().Err(err).Msg("write view")
	}
}

// decodeBody decodes the request body into dst and validates it. An empty
// body decodes as the zero value, so requests with only optional fields may
// omit the body entirely. Returns false after writing the error response.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		respondError(w, http.StatusBadRequest, &models.APIError{
			Code:    "invalid_body",
			Message: "failed to read request body",
		})
		return false
	}

	if len(body) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			respondError(w, http.StatusBadRequest, &models.APIError{
				Code:    "invalid_body",
				Message: "request body is not valid JSON",
			})
			return false
		}
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		respondError(w, http.StatusUnprocessableEntity, &models.APIError{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		})
		return false
	}

	return true
}
