// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package remote

import "testing"

func TestParseMapsLine(t *testing.T) {
	cases := []struct {
		line string
		ok   bool
		m    Mapping
	}{
		{
			line: "55d2b1d4d000-55d2b1d7a000 r--p 00000000 08:01 123456  /usr/bin/python3.11",
			ok:   true,
			m:    Mapping{Min: 0x55d2b1d4d000, Max: 0x55d2b1d7a000, Perm: Read, Path: "/usr/bin/python3.11"},
		},
		{
			line: "7f0000000000-7f0000021000 rw-p 00000000 00:00 0",
			ok:   true,
			m:    Mapping{Min: 0x7f0000000000, Max: 0x7f0000021000, Perm: Read | Write},
		},
		{
			line: "7ffe00000000-7ffe00021000 rw-p 00000000 00:00 0                          [heap]",
			ok:   true,
			m:    Mapping{Min: 0x7ffe00000000, Max: 0x7ffe00021000, Perm: Read | Write, Path: "[heap]"},
		},
		{
			line: "ffffffffff600000-ffffffffff601000 --xp 00000000 00:00 0                  [vsyscall]",
			ok:   false,
		},
		{
			line: "not a valid line",
			ok:   false,
		},
	}
	for _, c := range cases {
		m, ok := parseMapsLine(c.line)
		if ok != c.ok {
			t.Errorf("parseMapsLine(%q) ok = %v, want %v", c.line, ok, c.ok)
			continue
		}
		if !ok {
			continue
		}
		if m.Min != c.m.Min || m.Max != c.m.Max || m.Perm != c.m.Perm || m.Path != c.m.Path {
			t.Errorf("parseMapsLine(%q) = %+v, want %+v", c.line, m, c.m)
		}
	}
}

func TestMapSetFind(t *testing.T) {
	var s MapSet
	s.Set([]Mapping{
		{Min: 0x1000, Max: 0x2000, Path: "a"},
		{Min: 0x3000, Max: 0x4000, Path: "b"},
	})
	cases := []struct {
		addr Addr
		want string
		ok   bool
	}{
		{0x1000, "a", true},
		{0x1fff, "a", true},
		{0x2000, "", false},
		{0x3500, "b", true},
		{0x4000, "", false},
	}
	for _, c := range cases {
		m, ok := s.Find(c.addr)
		if ok != c.ok || (ok && m.Path != c.want) {
			t.Errorf("Find(%s) = (%+v, %v), want path %q ok %v", c.addr, m, ok, c.want, c.ok)
		}
	}
}
