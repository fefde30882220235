// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package viewcache

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

type stubRenderer struct {
	err error
}

func (r stubRenderer) SessionUID() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "oseh_vs_session1", nil
}

func (r stubRenderer) EntityJWT() (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "jwt.entity", nil
}

func (r stubRenderer) ImageFileJWT(fileUID string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "jwt.image." + fileUID, nil
}

func (r stubRenderer) ContentFileJWT(fileUID string) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "jwt.content." + fileUID, nil
}

func TestTemplateEncoding(t *testing.T) {
	var b TemplateBuilder
	b.LiteralString("hi")
	b.SessionUID()

	want := []byte{
		0x00, 0x00, 0x00, 0x02, 0x01, 'h', 'i',
		0x00, 0x00, 0x00, 0x00, 0x02,
	}
	if got := b.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("encoded template = % x, want % x", got, want)
	}
}

func TestRenderFullView(t *testing.T) {
	var b TemplateBuilder
	b.LiteralString(`{"uid":"oseh_j_x","session_uid":"`)
	b.SessionUID()
	b.LiteralString(`","jwt":"`)
	b.EntityJWT()
	b.LiteralString(`","background":{"uid":"oseh_if_bg","jwt":"`)
	b.ImageFileJWT("oseh_if_bg")
	b.LiteralString(`"},"audio":{"uid":"oseh_cf_a","jwt":"`)
	b.ContentFileJWT("oseh_cf_a")
	b.LiteralString(`"}}`)

	got, err := Render(b.Bytes(), stubRenderer{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	want := `{"uid":"oseh_j_x","session_uid":"oseh_vs_session1",` +
		`"jwt":"jwt.entity",` +
		`"background":{"uid":"oseh_if_bg","jwt":"jwt.image.oseh_if_bg"},` +
		`"audio":{"uid":"oseh_cf_a","jwt":"jwt.content.oseh_cf_a"}}`
	if string(got) != want {
		t.Errorf("rendered = %s, want %s", got, want)
	}
}

func TestRenderLiteralOnly(t *testing.T) {
	var b TemplateBuilder
	b.Literal([]byte(`{"a":1}`))
	b.Literal(nil)
	b.LiteralString(`{"b":2}`)

	got, err := Render(b.Bytes(), stubRenderer{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if string(got) != `{"a":1}{"b":2}` {
		t.Errorf("rendered = %s", got)
	}
}

func TestRenderEmptyTemplate(t *testing.T) {
	got, err := Render(nil, stubRenderer{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("rendered = %q, want empty", got)
	}
}

func TestRenderMalformed(t *testing.T) {
	tests := []struct {
		name     string
		template []byte
		wantErr  string
	}{
		{
			name:     "truncated header",
			template: []byte{0x00, 0x00, 0x00},
			wantErr:  "truncated frame header",
		},
		{
			name:     "payload overruns template",
			template: []byte{0x00, 0x00, 0x00, 0x05, 0x01, 'h', 'i'},
			wantErr:  "overruns",
		},
		{
			name:     "unknown tag",
			template: []byte{0x00, 0x00, 0x00, 0x00, 0x7F},
			wantErr:  "unknown template tag 0x7f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Render(tt.template, stubRenderer{})
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestRenderPropagatesRendererError(t *testing.T) {
	var b TemplateBuilder
	b.LiteralString("{")
	b.EntityJWT()

	boom := errors.New("signer unavailable")
	_, err := Render(b.Bytes(), stubRenderer{err: boom})
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, want wrapped %v", err, boom)
	}
}
