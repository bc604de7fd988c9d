// AICoffee-Machine - Flavor Prediction and Brewing Parameter Optimization
// Copyright 2026 The AICoffee-Machine Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/NaomiGonz/AICoffee-Machine

package cache

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"
)

func TestCache_GetSet(t *testing.T) {
	c := New[int](10, time.Minute)

	if _, ok := c.Get("missing"); ok {
		t.Error("Get(missing) ok = true")
	}
	c.Set("a", 1)
	got, ok := c.Get("a")
	if !ok || got != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", got, ok)
	}
	c.Set("a", 2)
	if got, _ := c.Get("a"); got != 2 {
		t.Errorf("Get(a) after overwrite = %v, want 2", got)
	}

	s := c.Stats()
	if s.Hits != 2 || s.Misses != 1 || s.Size != 1 {
		t.Errorf("Stats() = %+v, want 2 hits 1 miss size 1", s)
	}
	if math.Abs(s.HitRatePct-200.0/3) > 1e-9 {
		t.Errorf("HitRatePct = %v, want 66.67", s.HitRatePct)
	}
}

func TestCache_EvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string](2, time.Minute)
	c.Set("a", "A")
	c.Set("b", "B")
	c.Get("a")
	c.Set("c", "C")

	if _, ok := c.Get("b"); ok {
		t.Error("b survived eviction, want evicted as least recently used")
	}
	if _, ok := c.Get("a"); !ok {
		t.Error("a evicted, want kept")
	}
	if c.Len() != 2 {
		t.Errorf("Len() = %d, want 2", c.Len())
	}
}

func TestCache_Expiry(t *testing.T) {
	c := New[int](10, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("short", 1)
	c.SetWithTTL("long", 2, time.Hour)
	now = now.Add(2 * time.Minute)

	if _, ok := c.Get("short"); ok {
		t.Error("Get(short) ok = true after TTL")
	}
	if removed := c.CleanupExpired(); removed != 0 {
		t.Errorf("CleanupExpired() = %d, want 0 (short already removed on Get)", removed)
	}
	if _, ok := c.Get("long"); !ok {
		t.Error("Get(long) ok = false before its TTL")
	}

	now = now.Add(2 * time.Hour)
	if removed := c.CleanupExpired(); removed != 1 {
		t.Errorf("CleanupExpired() = %d, want 1", removed)
	}
}

func TestCache_Clear(t *testing.T) {
	c := New[int](10, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Error("a present after Clear")
	}
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d, want 0", c.Len())
	}
}

func TestCache_Concurrent(t *testing.T) {
	c := New[int](64, time.Minute)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", (g*200+i)%100)
				c.Set(key, i)
				c.Get(key)
			}
		}(g)
	}
	wg.Wait()
	if c.Len() > 64 {
		t.Errorf("Len() = %d, exceeds capacity 64", c.Len())
	}
}

func TestGenerateKey(t *testing.T) {
	a := GenerateKey("suggest", map[string]float64{"acidity": 5, "bitterness": 3})
	b := GenerateKey("suggest", map[string]float64{"bitterness": 3, "acidity": 5})
	if a != b {
		t.Errorf("GenerateKey differs for equal maps: %s vs %s", a, b)
	}
	if a == GenerateKey("suggest", map[string]float64{"acidity": 6, "bitterness": 3}) {
		t.Error("GenerateKey collides for different params")
	}
	if a == GenerateKey("predict", map[string]float64{"acidity": 5, "bitterness": 3}) {
		t.Error("GenerateKey ignores the method name")
	}
}
