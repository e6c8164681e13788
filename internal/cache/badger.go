// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

package cache

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/insano70/bcos-sub005/internal/logging"
)

// BadgerCache is the persistent implementation of Cacher, backed by
// BadgerDB with native per-entry TTL. Report cards cached here survive
// process restarts, which matters because regenerating a month is a bulk
// warehouse operation.
type BadgerCache struct {
	db  *badger.DB
	ttl time.Duration

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

// NewBadger opens (or creates) a badger-backed cache at the given path.
func NewBadger(path string, ttl time.Duration) (*BadgerCache, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil // badger's own logger is too chatty; we log errors ourselves

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger cache at %s: %w", path, err)
	}

	return &BadgerCache{db: db, ttl: ttl}, nil
}

// NewBadgerInMemory opens an in-memory badger cache, used by tests.
func NewBadgerInMemory(ttl time.Duration) (*BadgerCache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open in-memory badger cache: %w", err)
	}
	return &BadgerCache{db: db, ttl: ttl}, nil
}

// Get retrieves a value. Badger handles TTL expiry internally.
func (c *BadgerCache) Get(key string) ([]byte, bool) {
	var out []byte
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			out = append([]byte(nil), val...)
			return nil
		})
	})

	if err != nil {
		if !errors.Is(err, badger.ErrKeyNotFound) {
			// A read error degrades to a miss; the caller recomputes.
			logging.Warn().Err(err).Msg("Badger cache read failed, treating as miss")
		}
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)
	return out, true
}

// Set stores a value with the default TTL.
func (c *BadgerCache) Set(key string, value []byte) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL. Write errors are logged and
// swallowed: the computed result still reaches the caller.
func (c *BadgerCache) SetWithTTL(key string, value []byte, ttl time.Duration) {
	err := c.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(key), value).WithTTL(ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Badger cache write failed")
	}
}

// Delete removes a single key.
func (c *BadgerCache) Delete(key string) {
	err := c.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("Badger cache delete failed")
	}
}

// DeletePrefix removes every key with the given prefix.
func (c *BadgerCache) DeletePrefix(prefix string) int {
	removed := 0
	err := c.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)

		it := txn.NewIterator(opts)
		defer it.Close()

		var keys [][]byte
		for it.Rewind(); it.Valid(); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	if err != nil {
		logging.Warn().Err(err).Str("prefix", prefix).Msg("Badger cache prefix delete failed")
	}
	c.evictions.Add(int64(removed))
	return removed
}

// Clear drops all entries.
func (c *BadgerCache) Clear() {
	if err := c.db.DropAll(); err != nil {
		logging.Warn().Err(err).Msg("Badger cache clear failed")
	}
}

// GetStats returns a snapshot of the cache counters. TotalKeys requires a
// scan and is reported as -1 (unknown) to keep stats cheap.
func (c *BadgerCache) GetStats() StatsSnapshot {
	return StatsSnapshot{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		TotalKeys: -1,
	}
}

// HitRate returns the hit rate as a percentage.
func (c *BadgerCache) HitRate() float64 {
	hits := c.hits.Load()
	total := hits + c.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Close closes the underlying badger database.
func (c *BadgerCache) Close() error {
	return c.db.Close()
}
