// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

/*
Package services provides suture.Service wrappers for backend components.

This package adapts application components to the suture v4 supervision
model, translating their lifecycle patterns (ListenAndServe, periodic work)
into suture's context-aware Serve pattern.

# Overview

Each wrapper implements the suture.Service interface:

	type Service interface {
	    Serve(ctx context.Context) error
	}

The wrappers handle:
  - Lifecycle translation to the Serve pattern
  - Graceful shutdown via context cancellation
  - Error propagation for supervisor restart decisions
  - Service identification via fmt.Stringer

# Available Services

HTTP Server (HTTPServerService):
  - Wraps *http.Server with graceful shutdown
  - Converts ListenAndServe pattern to Serve
  - Configurable shutdown timeout for draining connections

Cache GC (CacheGCService):
  - Runs badger value log garbage collection on an interval
  - Failures log and wait for the next tick rather than crash

Premiere Warmer (PremiereWarmerService):
  - Pre-fills the live daily event's view template on an interval
  - Absorbs the system-of-record fill that would otherwise land on the
    first reader after a premiere boundary

The eviction pub/sub subscriber needs no wrapper here; viewcache.Subscriber
implements suture.Service directly.

# Usage Example

Creating and registering services:

	server := &http.Server{Addr: ":8080", Handler: router}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	tree.AddDataService(services.NewCacheGCService(local, cfg.LocalCache.GCInterval))
	tree.AddDataService(services.NewPremiereWarmerService(dailyEvents, 30*time.Second))
*/
package services
