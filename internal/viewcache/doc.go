// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

/*
Package viewcache implements the collaborative read-through cache behind the
"external view" endpoints: the JSON a client sees for a journey or daily
event, expensive to assemble (multi-table joins plus media lookups) and read
far more often than it changes.

# Tiers

Each read works through three tiers, keyed by entity uid plus an optional
variant:

 1. The process-local disk cache (BadgerDB, TTL of hours). A hit serves with
    no network I/O beyond minting the ephemeral credentials embedded at
    render time.
 2. A peer's fill, via redis: on a local miss the instance takes a
    short-TTL advisory lock. The winner ("filler") queries the system of
    record, encodes the template, installs it locally, and broadcasts it so
    every waiting instance installs it too instead of querying the database
    themselves. Losers park on an in-process registry and wake on the
    broadcast or a jittered 1–3s timeout, after which they assume the filler
    died and fill themselves.
 3. The system of record, via the view's Fetcher callback.

Redis stores no view data; it only coordinates. Entitlements, which do store
their shared tier in redis, live in internal/entitlements on top of the same
lock, registry, and channel machinery.

# Templates

Cached payloads are binary templates (see codec.go): literal JSON fragments
interleaved with placeholder frames for the session uid and the JWTs, which
are minted fresh on every read and never stored.

# Invalidation

Mutation paths call Evict, publishing {uid, min_checked_at}; every instance
purges local entries filled before that cutoff. Pub/sub delivery is lossy -
an instance that is down when the message fires serves stale data until its
local TTL expires. That window is the accepted price of the read throughput.
*/
package viewcache
