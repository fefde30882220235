// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

package viewcache

import (
	"encoding/binary"
	"fmt"

	"github.com/goccy/go-json"
)

// Fill broadcasts ride the view's pub/sub channel as binary envelopes framed
// like the templates they carry: 4-byte big-endian uid length, uid, 4-byte
// variant length, variant, 8-byte fetched-at (unix seconds), template bytes.
// The fetched-at travels with the payload so receiving instances record the
// filler's fetch time, not their own receipt time; eviction cutoffs compare
// against the former.

func encodeBroadcast(uid, variant string, fetchedAt int64, template []byte) []byte {
	msg := make([]byte, 0, 4+len(uid)+4+len(variant)+8+len(template))

	var n [8]byte
	binary.BigEndian.PutUint32(n[:4], uint32(len(uid)))
	msg = append(msg, n[:4]...)
	msg = append(msg, uid...)
	binary.BigEndian.PutUint32(n[:4], uint32(len(variant)))
	msg = append(msg, n[:4]...)
	msg = append(msg, variant...)
	binary.BigEndian.PutUint64(n[:], uint64(fetchedAt))
	msg = append(msg, n[:]...)
	msg = append(msg, template...)
	return msg
}

func decodeBroadcast(msg []byte) (uid, variant string, fetchedAt int64, template []byte, err error) {
	rest := msg

	next := func(n int, what string) ([]byte, error) {
		if len(rest) < n {
			return nil, fmt.Errorf("broadcast envelope truncated reading %s", what)
		}
		field := rest[:n]
		rest = rest[n:]
		return field, nil
	}

	field, err := next(4, "uid length")
	if err != nil {
		return "", "", 0, nil, err
	}
	field, err = next(int(binary.BigEndian.Uint32(field)), "uid")
	if err != nil {
		return "", "", 0, nil, err
	}
	uid = string(field)

	field, err = next(4, "variant length")
	if err != nil {
		return "", "", 0, nil, err
	}
	field, err = next(int(binary.BigEndian.Uint32(field)), "variant")
	if err != nil {
		return "", "", 0, nil, err
	}
	variant = string(field)

	field, err = next(8, "fetched_at")
	if err != nil {
		return "", "", 0, nil, err
	}
	fetchedAt = int64(binary.BigEndian.Uint64(field))

	return uid, variant, fetchedAt, rest, nil
}

// evictMessage is published when an entity changes. Subscribers purge local
// entries for the uid filled before min_checked_at; anything filled after
// already reflects the change (or a newer one).
type evictMessage struct {
	UID          string `json:"uid"`
	MinCheckedAt int64  `json:"min_checked_at"`
}

func encodeEvict(uid string, minCheckedAt int64) ([]byte, error) {
	return json.Marshal(evictMessage{UID: uid, MinCheckedAt: minCheckedAt})
}

func decodeEvict(msg []byte) (evictMessage, error) {
	var ev evictMessage
	if err := json.Unmarshal(msg, &ev); err != nil {
		return evictMessage{}, fmt.Errorf("decode evict message: %w", err)
	}
	if ev.UID == "" {
		return evictMessage{}, fmt.Errorf("evict message missing uid")
	}
	return ev, nil
}
