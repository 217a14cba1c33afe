// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package vmrange

import "testing"

func TestTreeFindNonOverlapping(t *testing.T) {
	tr := New()
	tr.Add(0x1000, 0x2000, "a")
	tr.Add(0x3000, 0x4000, "b")
	tr.Add(0x500, 0x800, "c")

	cases := []struct {
		addr Addr
		want string
		ok   bool
	}{
		{0x1000, "a", true},
		{0x1fff, "a", true},
		{0x2000, "", false},
		{0x3500, "b", true},
		{0x600, "c", true},
		{0x4000, "", false},
	}
	for _, c := range cases {
		got, ok := tr.Find(c.addr)
		if ok != c.ok || got != c.want {
			t.Errorf("Find(%#x) = %q, %v, want %q, %v", c.addr, got, ok, c.want, c.ok)
		}
	}
}

func TestTreeStaysBalancedUnderSequentialInsert(t *testing.T) {
	tr := New()
	for i := Addr(0); i < 1000; i++ {
		tr.Add(i*0x1000, i*0x1000+0x1000, "seq")
	}
	if tr.root.height > 14 {
		t.Errorf("tree height = %d after 1000 sequential inserts, want a balanced (log n) height", tr.root.height)
	}
	if _, ok := tr.Find(500*0x1000 + 0x10); !ok {
		t.Error("expected to find address inserted via sequential loop")
	}
}
