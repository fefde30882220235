// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import (
	"errors"
	"net/http"

	"github.com/oseh/backend/internal/database"
	"github.com/oseh/backend/internal/entitlements"
	"github.com/oseh/backend/internal/logging"
	"github.com/oseh/backend/internal/models"
	"github.com/oseh/backend/internal/query"
)

// respondServiceError translates service-layer failures to status codes:
//
//   - query.ClientError (bad filter, sort, or pagination cursor): 422 with
//     the error's stable code and its message verbatim
//   - database.ErrReferenceNotFound (a mutation names a missing row): 422
//   - entitlements.ErrUnknownUser: 404
//   - anything else: 500, detail logged but not leaked
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var clientErr query.ClientError
	if errors.As(err, &clientErr) {
		respondError(w, http.StatusUnprocessableEntity, &models.APIError{
			Code:    clientErr.ErrorCode(),
			Message: clientErr.Error(),
		})
		return
	}

	if errors.Is(err, database.ErrReferenceNotFound) {
		respondError(w, http.StatusUnprocessableEntity, &models.APIError{
			Code:    "reference_not_found",
			Message: err.Error(),
		})
		return
	}

	if errors.Is(err, entitlements.ErrUnknownUser) {
		respondError(w, http.StatusNotFound, &models.APIError{
			Code:    "not_found",
			Message: "no such user",
		})
		return
	}

	logging.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	respondError(w, http.StatusInternalServerError, &models.APIError{
		Code:    "internal_error",
		Message: "internal server error",
	})
}

// respondNotFound is the 404 for envelope endpoints.
func respondNotFound(w http.ResponseWriter, message string) {
	respondError(w, http.StatusNotFound, &models.APIError{
		Code:    "not_found",
		Message: message,
	})
}
