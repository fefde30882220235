// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDBQuery(t *testing.T) {
	before := testutil.ToFloat64(DBQueryErrors.WithLabelValues("search", "journeys"))

	RecordDBQuery("search", "journeys", 10*time.Millisecond, nil)
	RecordDBQuery("search", "journeys", 20*time.Millisecond, errors.New("database is locked"))

	after := testutil.ToFloat64(DBQueryErrors.WithLabelValues("search", "journeys"))
	if after-before != 1 {
		t.Errorf("expected exactly one error increment, got %v", after-before)
	}
}

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/1/journeys/search", "200"))

	RecordAPIRequest("POST", "/api/1/journeys/search", "200", 15*time.Millisecond)
	RecordAPIRequest("POST", "/api/1/journeys/search", "200", 25*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("POST", "/api/1/journeys/search", "200"))
	if after-before != 2 {
		t.Errorf("expected two request increments, got %v", after-before)
	}
}

func TestRecordFill(t *testing.T) {
	before := testutil.ToFloat64(ViewCacheFills.WithLabelValues("journeys", "ok"))

	RecordFill("journeys", "ok", 50*time.Millisecond)

	after := testutil.ToFloat64(ViewCacheFills.WithLabelValues("journeys", "ok"))
	if after-before != 1 {
		t.Errorf("expected one fill increment, got %v", after-before)
	}
}

func TestSystemGauges(t *testing.T) {
	AppInfo.WithLabelValues("1.0.0", "go1.25.4").Set(1)

	AppUptime.Set(3600)
	AppUptime.Add(60)
	if got := testutil.ToFloat64(AppUptime); got != 3660 {
		t.Errorf("uptime gauge = %v, want 3660", got)
	}
}

func TestConcurrentRecording(t *testing.T) {
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				ViewCacheHits.WithLabelValues("journeys", "local").Inc()
				FillLockWaits.WithLabelValues("daily_events").Inc()
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
