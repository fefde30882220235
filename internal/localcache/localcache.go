// Oseh Backend - Wellness Content Delivery and Caching
// Copyright 2026 Oseh Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/oseh/backend

// Package localcache is the process-local disk tier of the cache stack: a
// BadgerDB keyspace of rendered view templates with a TTL and the fill time
// of each entry. Keys are namespaced by the caller ("journeys:<uid>").
//
// Records carry the fill time so eviction messages ("purge anything fetched
// before T") can be honored without trusting clocks across instances; Badger's
// native entry TTL is the backstop when an eviction message is missed.
package localcache

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Config configures the disk cache.
type Config struct {
	// Path is the directory Badger stores its data in.
	Path string
	// TTL bounds how long an entry may be served after it was written.
	TTL time.Duration
}

// Cache is a disk-backed cache of opaque values with per-entry fill times.
// Safe for concurrent use.
type Cache struct {
	db  *badger.DB
	ttl time.Duration
}

// Open opens (or creates) the cache at cfg.Path.
func Open(cfg Config) (*Cache, error) {
	if cfg.TTL <= 0 {
		return nil, errors.New("localcache: TTL must be positive")
	}

	opts := badger.DefaultOptions(cfg.Path)
	opts.Logger = nil // Badger's own logging is noisy; failures surface as errors
	// Cached templates are small; keep value log files far below the 1GB default.
	opts.ValueLogFileSize = 64 << 20

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open local cache at %s: %w", cfg.Path, err)
	}

	return &Cache{db: db, ttl: cfg.TTL}, nil
}

// Set stores value under key, recording fetchedAt (unix seconds) as the fill
// time. The entry expires from disk after the configured TTL.
func (c *Cache) Set(key string, value []byte, fetchedAt int64) error {
	record := encodeRecord(value, fetchedAt)

	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), record).WithTTL(c.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

// Get returns the cached value and its fill time. ok is false on a miss;
// a record Badger has expired counts as a miss.
func (c *Cache) Get(key string) (value []byte, fetchedAt int64, ok bool, err error) {
	err = c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			v, at, decodeOK := decodeRecord(val)
			if !decodeOK {
				// Truncated record; treat as a miss rather than serving garbage.
				return nil
			}
			// Value returns a buffer only valid inside the closure.
			value = append([]byte(nil), v...)
			fetchedAt = at
			ok = true
			return nil
		})
	})
	if err != nil {
		return nil, 0, false, fmt.Errorf("get %s: %w", key, err)
	}
	return value, fetchedAt, ok, nil
}

// Delete removes key. Deleting an absent key is not an error.
func (c *Cache) Delete(key string) error {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// PurgeOlderThan removes key if its fill time predates minFetchedAt
// (unix seconds). Returns whether an entry was removed. Entries filled at or
// after minFetchedAt are kept: they already reflect the state the eviction
// is announcing.
func (c *Cache) PurgeOlderThan(key string, minFetchedAt int64) (bool, error) {
	purged := false

	err := c.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var fetchedAt int64
		decodeOK := false
		err = item.Value(func(val []byte) error {
			_, fetchedAt, decodeOK = decodeRecord(val)
			return nil
		})
		if err != nil {
			return err
		}

		if !decodeOK || fetchedAt < minFetchedAt {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
			purged = true
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("purge %s: %w", key, err)
	}
	return purged, nil
}

// PurgePrefixOlderThan removes every entry under prefix whose fill time
// predates minFetchedAt (unix seconds), returning how many were removed.
// Eviction messages carry only an entity uid, so all of its per-variant
// entries purge through their shared key prefix.
func (c *Cache) PurgePrefixOlderThan(prefix string, minFetchedAt int64) (int, error) {
	purged := 0

	err := c.db.Update(func(txn *badger.Txn) error {
		var stale [][]byte

		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		p := []byte(prefix)
		for it.Seek(p); it.ValidForPrefix(p); it.Next() {
			item := it.Item()

			var fetchedAt int64
			decodeOK := false
			err := item.Value(func(val []byte) error {
				_, fetchedAt, decodeOK = decodeRecord(val)
				return nil
			})
			if err != nil {
				return err
			}

			if !decodeOK || fetchedAt < minFetchedAt {
				stale = append(stale, item.KeyCopy(nil))
			}
		}
		it.Close()

		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		purged = len(stale)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge prefix %s: %w", prefix, err)
	}
	return purged, nil
}

// RunGC runs one round of Badger value log garbage collection. Call
// periodically; "nothing to collect" is not an error.
func (c *Cache) RunGC() error {
	err := c.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil
	}
	return err
}

// Close flushes and closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// record layout: 8-byte big-endian fetchedAt, then the raw value bytes.
// JSON would base64 the template payloads for no benefit.

func encodeRecord(value []byte, fetchedAt int64) []byte {
	record := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(record[:8], uint64(fetchedAt))
	copy(record[8:], value)
	return record
}

func decodeRecord(record []byte) (value []byte, fetchedAt int64, ok bool) {
	if len(record) < 8 {
		return nil, 0, false
	}
	return record[8:], int64(binary.BigEndian.Uint64(record[:8])), true
}
