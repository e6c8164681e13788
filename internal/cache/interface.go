// BCOS - Healthcare Practice Analytics and Benchmarking
// Copyright 2026 insano70
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/insano70/bcos-sub005

// Package cache provides the keyed, TTL'd content store shared by the chart
// orchestrator and the report-card service.
//
// Two implementations exist: an in-memory TTL cache and a BadgerDB-backed
// persistent cache whose entries survive restarts. Both store opaque bytes;
// callers serialize with goccy/go-json via the typed helpers.
//
// Keys embed tenant identity or data-source identifiers so cross-tenant
// leakage is structurally impossible; invalidation on data-source mutation
// is a prefix delete.
package cache

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// Cacher is implemented by both cache backends.
type Cacher interface {
	// Get retrieves a value. Returns false when absent or expired.
	Get(key string) ([]byte, bool)

	// Set stores a value with the default TTL.
	Set(key string, value []byte)

	// SetWithTTL stores a value with a custom TTL.
	SetWithTTL(key string, value []byte, ttl time.Duration)

	// Delete removes a single key.
	Delete(key string)

	// DeletePrefix removes every key with the given prefix and returns the
	// number removed. Used for data-source invalidation.
	DeletePrefix(prefix string) int

	// Clear removes all entries.
	Clear()

	// GetStats returns a snapshot of cache statistics.
	GetStats() StatsSnapshot

	// HitRate returns the hit rate as a percentage.
	HitRate() float64

	// Close releases backend resources.
	Close() error
}

// StatsSnapshot is a point-in-time copy of cache counters.
type StatsSnapshot struct {
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
	TotalKeys int64 `json:"total_keys"`
}

// GenerateKey builds a compact deterministic cache key from a method name
// and its parameters. Callers must include tenant or data-source
// identifiers in params so keys cannot collide across tenants.
func GenerateKey(method string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		// Fallback to a plain string key
		return fmt.Sprintf("%s:%v", method, params)
	}
	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", method, hash[:16])
}

// GetJSON fetches and unmarshals a cached value into out. Returns false on
// miss; unmarshal failures count as misses so corrupt entries never shadow
// a recompute.
func GetJSON(c Cacher, key string, out interface{}) bool {
	data, ok := c.Get(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		c.Delete(key)
		return false
	}
	return true
}

// SetJSON marshals and stores a value with the default TTL. Marshal errors
// are swallowed: a cache write failure must never shadow a computed result.
func SetJSON(c Cacher, key string, value interface{}) {
	if data, err := json.Marshal(value); err == nil {
		c.Set(key, data)
	}
}

// SetJSONWithTTL marshals and stores a value with a custom TTL.
func SetJSONWithTTL(c Cacher, key string, value interface{}, ttl time.Duration) {
	if data, err := json.Marshal(value); err == nil {
		c.SetWithTTL(key, data, ttl)
	}
}
