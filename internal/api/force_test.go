// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package api

import "testing"

func TestForceLimiterBudgetPerSub(t *testing.T) {
	t.Parallel()
	f := newForceLimiter(3)

	for i := 0; i < 3; i++ {
		if !f.Allow("user-a") {
			t.Fatalf("allow %d = false, want true", i)
		}
	}
	if f.Allow("user-a") {
		t.Error("budget should be exhausted")
	}

	// Budgets are independent per subject.
	if !f.Allow("user-b") {
		t.Error("fresh subject should have budget")
	}
}

func TestForceLimiterDisabled(t *testing.T) {
	t.Parallel()
	f := newForceLimiter(0)

	if f.Allow("anyone") {
		t.Error("zero budget should deny everything")
	}
}
