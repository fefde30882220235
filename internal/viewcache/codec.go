// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package viewcache

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// Cached view payloads are templates: a stream of frames, each a 4-byte
// big-endian payload length, a 1-byte tag, then the payload. Literal frames
// hold pre-serialized JSON emitted as-is; the other tags are placeholders
// resolved on every read, so a template cached for hours still renders with
// a fresh session uid and unexpired JWTs. Tokens are never written to disk
// or redis, only the markers are.
const (
	// TagLiteral frames hold bytes to emit unchanged.
	TagLiteral byte = 0x01
	// TagSessionUID marks a freshly minted view-session uid. Empty payload.
	TagSessionUID byte = 0x02
	// TagEntityJWT marks the JWT granting access to the entity the template
	// describes. Empty payload.
	TagEntityJWT byte = 0x03
	// TagImageFileJWT marks a JWT for the image file uid in the payload.
	TagImageFileJWT byte = 0x04
	// TagContentFileJWT marks a JWT for the content file uid in the payload.
	TagContentFileJWT byte = 0x05
)

// frameHeaderSize is the fixed prefix of every frame: length (4) + tag (1).
const frameHeaderSize = 5

// A Renderer resolves placeholder frames when a template is served. Each
// view constructs one per request with the entity and requesting user baked
// in, so resolution itself takes no arguments beyond the frame payload.
type Renderer interface {
	// SessionUID mints the uid identifying this serving of the view.
	SessionUID() (string, error)
	// EntityJWT signs access to the template's primary entity.
	EntityJWT() (string, error)
	// ImageFileJWT signs access to the given image file.
	ImageFileJWT(fileUID string) (string, error)
	// ContentFileJWT signs access to the given content file.
	ContentFileJWT(fileUID string) (string, error)
}

// TemplateBuilder assembles a template frame by frame. The zero value is
// ready to use.
type TemplateBuilder struct {
	buf bytes.Buffer
}

func (b *TemplateBuilder) frame(tag byte, payload []byte) {
	var header [frameHeaderSize]byte
	binary.BigEndian.PutUint32(header[:4], uint32(len(payload)))
	header[4] = tag
	b.buf.Write(header[:])
	b.buf.Write(payload)
}

// Literal appends bytes to emit unchanged at render time.
func (b *TemplateBuilder) Literal(p []byte) {
	b.frame(TagLiteral, p)
}

// LiteralString appends a string to emit unchanged at render time.
func (b *TemplateBuilder) LiteralString(s string) {
	b.frame(TagLiteral, []byte(s))
}

// SessionUID appends a session-uid placeholder.
func (b *TemplateBuilder) SessionUID() {
	b.frame(TagSessionUID, nil)
}

// EntityJWT appends a primary-entity JWT placeholder.
func (b *TemplateBuilder) EntityJWT() {
	b.frame(TagEntityJWT, nil)
}

// ImageFileJWT appends an image-file JWT placeholder for fileUID.
func (b *TemplateBuilder) ImageFileJWT(fileUID string) {
	b.frame(TagImageFileJWT, []byte(fileUID))
}

// ContentFileJWT appends a content-file JWT placeholder for fileUID.
func (b *TemplateBuilder) ContentFileJWT(fileUID string) {
	b.frame(TagContentFileJWT, []byte(fileUID))
}

// Bytes returns the encoded template. The slice aliases the builder's
// buffer; the builder is done once this is called.
func (b *TemplateBuilder) Bytes() []byte {
	return b.buf.Bytes()
}

// Render resolves a template into response bytes, emitting literal frames
// as-is and asking r for every placeholder.
func Render(template []byte, r Renderer) ([]byte, error) {
	out := make([]byte, 0, len(template))

	for off := 0; off < len(template); {
		if len(template)-off < frameHeaderSize {
			return nil, fmt.Errorf("truncated frame header at offset %d", off)
		}
		length := int(binary.BigEndian.Uint32(template[off : off+4]))
		tag := template[off+4]
		off += frameHeaderSize

		if len(template)-off < length {
			return nil, fmt.Errorf("frame payload overruns template at offset %d", off)
		}
		payload := template[off : off+length]
		off += length

		switch tag {
		case TagLiteral:
			out = append(out, payload...)
		case TagSessionUID:
			s, err := r.SessionUID()
			if err != nil {
				return nil, fmt.Errorf("render session uid: %w", err)
			}
			out = append(out, s...)
		case TagEntityJWT:
			s, err := r.EntityJWT()
			if err != nil {
				return nil, fmt.Errorf("render entity jwt: %w", err)
			}
			out = append(out, s...)
		case TagImageFileJWT:
			s, err := r.ImageFileJWT(string(payload))
			if err != nil {
				return nil, fmt.Errorf("render image jwt for %s: %w", payload, err)
			}
			out = append(out, s...)
		case TagContentFileJWT:
			s, err := r.ContentFileJWT(string(payload))
			if err != nil {
				return nil, fmt.Errorf("render content jwt for %s: %w", payload, err)
			}
			out = append(out, s...)
		default:
			return nil, fmt.Errorf("unknown template tag 0x%02x", tag)
		}
	}

	return out, nil
}
