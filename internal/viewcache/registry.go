// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package viewcache

import "sync"

type waiterKey struct {
	uid     string
	variant string
}

// Registry tracks in-process callers waiting for another instance's fill
// broadcast. One per coordinator, created with it; entries are removed on
// delivery or when the waiter gives up.
type Registry struct {
	mu      sync.Mutex
	waiters map[waiterKey][]chan []byte
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{waiters: make(map[waiterKey][]chan []byte)}
}

// Register adds a waiter for (uid, variant). The returned channel receives
// the template at most once; cancel removes the waiter and is safe to call
// after delivery.
func (r *Registry) Register(uid, variant string) (<-chan []byte, func()) {
	key := waiterKey{uid: uid, variant: variant}
	ch := make(chan []byte, 1)

	r.mu.Lock()
	r.waiters[key] = append(r.waiters[key], ch)
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		chans := r.waiters[key]
		for i, c := range chans {
			if c == ch {
				chans[i] = chans[len(chans)-1]
				chans = chans[:len(chans)-1]
				break
			}
		}
		if len(chans) == 0 {
			delete(r.waiters, key)
		} else {
			r.waiters[key] = chans
		}
	}
	return ch, cancel
}

// Deliver hands template to every waiter for (uid, variant) and removes
// them. Waiters that registered after the corresponding fill wrote the local
// cache will have found it there; delivering to nobody is normal.
func (r *Registry) Deliver(uid, variant string, template []byte) {
	key := waiterKey{uid: uid, variant: variant}

	r.mu.Lock()
	chans := r.waiters[key]
	delete(r.waiters, key)
	r.mu.Unlock()

	for _, ch := range chans {
		// Buffered one deep and each channel is delivered to at most once;
		// this never blocks.
		ch <- template
	}
}

// Waiting reports how many callers are parked on (uid, variant).
func (r *Registry) Waiting(uid, variant string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters[waiterKey{uid: uid, variant: variant}])
}
