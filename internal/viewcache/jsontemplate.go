// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package viewcache

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// JSONTemplate assembles a template whose rendered output is a JSON
// document. Literal syntax and marshaled values accumulate into a single
// literal frame; each placeholder closes the run. JWTs and session uids
// contain no characters that need JSON escaping, so the quotes around a
// placeholder belong to the surrounding literal text:
//
//	t.Text(`{"jwt":"`)
//	t.EntityJWT()
//	t.Text(`"}`)
//
// Marshal errors stick; Bytes reports the first one.
type JSONTemplate struct {
	b       TemplateBuilder
	pending bytes.Buffer
	err     error
}

// Text appends raw JSON syntax verbatim.
func (t *JSONTemplate) Text(s string) {
	t.pending.WriteString(s)
}

// Value marshals v and appends the result.
func (t *JSONTemplate) Value(v any) {
	if t.err != nil {
		return
	}
	p, err := json.Marshal(v)
	if err != nil {
		t.err = fmt.Errorf("marshal template value: %w", err)
		return
	}
	t.pending.Write(p)
}

// Raw appends pre-encoded JSON, e.g. a stored prompt document. Empty input
// appends the JSON null literal so the template stays well-formed.
func (t *JSONTemplate) Raw(p []byte) {
	if len(p) == 0 {
		t.pending.WriteString("null")
		return
	}
	t.pending.Write(p)
}

func (t *JSONTemplate) flush() {
	if t.pending.Len() == 0 {
		return
	}
	t.b.Literal(t.pending.Bytes())
	t.pending.Reset()
}

// SessionUID appends a session-uid placeholder.
func (t *JSONTemplate) SessionUID() {
	t.flush()
	t.b.SessionUID()
}

// EntityJWT appends a primary-entity JWT placeholder.
func (t *JSONTemplate) EntityJWT() {
	t.flush()
	t.b.EntityJWT()
}

// ImageFileJWT appends an image-file JWT placeholder for fileUID.
func (t *JSONTemplate) ImageFileJWT(fileUID string) {
	t.flush()
	t.b.ImageFileJWT(fileUID)
}

// ContentFileJWT appends a content-file JWT placeholder for fileUID.
func (t *JSONTemplate) ContentFileJWT(fileUID string) {
	t.flush()
	t.b.ContentFileJWT(fileUID)
}

// Bytes returns the encoded template, or the first marshal error.
func (t *JSONTemplate) Bytes() ([]byte, error) {
	if t.err != nil {
		return nil, t.err
	}
	t.flush()
	return t.b.Bytes(), nil
}
