// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

/*
Package cache provides a thread-safe in-memory LRU cache with TTL expiry.

The brewing engine caches suggestion responses keyed by the request and the
registry version, so a retrain naturally invalidates earlier entries:

	c := cache.New[*Suggestion](512, 10*time.Minute)
	key := cache.GenerateKey("suggest", struct {
	    Version int
	    Request SuggestRequest
	}{version, req})
	if s, ok := c.Get(key); ok {
	    return s
	}

Expired entries are removed lazily on Get and in bulk by CleanupExpired.
When the cache is full the least recently used entry is evicted.
*/
package cache
