// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cache

import "testing"

func TestLRUMissThenHit(t *testing.T) {
	c := NewLRU(2, nil)
	if _, ok := c.MaybeHit(1); ok {
		t.Fatal("MaybeHit on empty cache should miss")
	}
	c.Store(1, "one")
	v, ok := c.MaybeHit(1)
	if !ok || v != "one" {
		t.Fatalf("MaybeHit(1) = %q, %v, want \"one\", true", v, ok)
	}
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	var evicted []string
	c := NewLRU(2, func(v string) { evicted = append(evicted, v) })

	c.Store(1, "one")
	c.Store(2, "two")
	// Touch 1 so 2 becomes the least-recently-used entry.
	c.MaybeHit(1)
	c.Store(3, "three")

	if len(evicted) != 1 || evicted[0] != "two" {
		t.Fatalf("evicted = %v, want [two]", evicted)
	}
	if _, ok := c.MaybeHit(2); ok {
		t.Error("entry 2 should have been evicted")
	}
	if v, ok := c.MaybeHit(1); !ok || v != "one" {
		t.Errorf("entry 1 should survive eviction, got %q, %v", v, ok)
	}
	if v, ok := c.MaybeHit(3); !ok || v != "three" {
		t.Errorf("entry 3 should be present, got %q, %v", v, ok)
	}
}

func TestLRUStoreExistingKeyIsNoop(t *testing.T) {
	c := NewLRU(2, nil)
	c.Store(1, "one")
	c.Store(1, "uno")
	v, ok := c.MaybeHit(1)
	if !ok || v != "one" {
		t.Errorf("Store of an existing key should not overwrite, got %q, %v", v, ok)
	}
}
