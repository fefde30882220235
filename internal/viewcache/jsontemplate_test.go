// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package viewcache

import (
	"bytes"
	"testing"

	json "github.com/goccy/go-json"
)

func TestJSONTemplateRendersValidJSON(t *testing.T) {
	var jt JSONTemplate
	jt.Text(`{"uid":`)
	jt.Value("oseh_j_a")
	jt.Text(`,"title":`)
	jt.Value(`with "quotes" and \ slashes`)
	jt.Text(`,"prompt":`)
	jt.Raw([]byte(`{"style":"numeric","min":1}`))
	jt.Text(`,"session_uid":"`)
	jt.SessionUID()
	jt.Text(`","jwt":"`)
	jt.EntityJWT()
	jt.Text(`","background":"`)
	jt.ImageFileJWT("oseh_if_bg")
	jt.Text(`","audio":"`)
	jt.ContentFileJWT("oseh_cf_audio")
	jt.Text(`"}`)

	template, err := jt.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	rendered, err := Render(template, stubRenderer{})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	var got struct {
		UID        string          `json:"uid"`
		Title      string          `json:"title"`
		Prompt     json.RawMessage `json:"prompt"`
		SessionUID string          `json:"session_uid"`
		JWT        string          `json:"jwt"`
		Background string          `json:"background"`
		Audio      string          `json:"audio"`
	}
	if err := json.Unmarshal(rendered, &got); err != nil {
		t.Fatalf("rendered output is not valid JSON: %v\n%s", err, rendered)
	}
	if got.UID != "oseh_j_a" {
		t.Errorf("uid = %q", got.UID)
	}
	if got.Title != `with "quotes" and \ slashes` {
		t.Errorf("title = %q", got.Title)
	}
	if string(got.Prompt) != `{"style":"numeric","min":1}` {
		t.Errorf("prompt = %s", got.Prompt)
	}
	if got.SessionUID != "oseh_vs_session1" {
		t.Errorf("session_uid = %q", got.SessionUID)
	}
	if got.JWT != "jwt.entity" {
		t.Errorf("jwt = %q", got.JWT)
	}
	if got.Background != "jwt.image.oseh_if_bg" {
		t.Errorf("background = %q", got.Background)
	}
	if got.Audio != "jwt.content.oseh_cf_audio" {
		t.Errorf("audio = %q", got.Audio)
	}
}

func TestJSONTemplateCollapsesLiteralRuns(t *testing.T) {
	var jt JSONTemplate
	jt.Text(`{"a":`)
	jt.Value(1)
	jt.Text(`,"b":`)
	jt.Raw([]byte("true"))
	jt.Text(`}`)
	got, err := jt.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	var want TemplateBuilder
	want.LiteralString(`{"a":1,"b":true}`)
	if !bytes.Equal(got, want.Bytes()) {
		t.Errorf("literal run split across frames:\ngot  %x\nwant %x", got, want.Bytes())
	}
}

func TestJSONTemplateRawEmptyIsNull(t *testing.T) {
	var jt JSONTemplate
	jt.Raw(nil)
	got, err := jt.Bytes()
	if err != nil {
		t.Fatalf("Bytes failed: %v", err)
	}

	var want TemplateBuilder
	want.LiteralString("null")
	if !bytes.Equal(got, want.Bytes()) {
		t.Errorf("empty raw: got %x, want %x", got, want.Bytes())
	}
}

func TestJSONTemplateMarshalErrorSticks(t *testing.T) {
	var jt JSONTemplate
	jt.Text(`{"bad":`)
	jt.Value(make(chan int))
	jt.Text(`}`)
	if _, err := jt.Bytes(); err == nil {
		t.Fatal("expected a marshal error")
	}
}
