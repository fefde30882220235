// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package models

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// NewUID mints an identifier for the given collection code, e.g.
// NewUID("j") -> "oseh_j_3X0w...". Collection codes are short lowercase
// mnemonics: u (users), j (journeys), de (daily events), i (instructors),
// jsc (subcategories), if (image files), cf (content files), at (admin
// tokens), vs (view sessions).
func NewUID(collection string) string {
	id := uuid.New()
	return "oseh_" + collection + "_" + base64.RawURLEncoding.EncodeToString(id[:])
}
