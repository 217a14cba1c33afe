// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package remote

import "sort"

// A Mapping represents a contiguous subset of the inferior's address space,
// as reported by the platform's module/region enumeration (e.g.
// /proc/<pid>/maps on Linux).
type Mapping struct {
	Min, Max Addr
	Perm     Perm
	Path     string // backing file, "" for anonymous mappings
	Offset   int64  // offset of Min within Path
}

// Size returns Max-Min.
func (m Mapping) Size() int64 {
	return m.Max.Sub(m.Min)
}

// Contains reports whether a falls within [Min,Max).
func (m Mapping) Contains(a Addr) bool {
	return a >= m.Min && a < m.Max
}

// MapSet is a sorted, non-overlapping set of mappings supporting
// O(log n) address lookup. Unlike core.Process's page-table approach (used
// there because a core file's address range can be sparse and huge), a live
// process's /proc/<pid>/maps typically has only a few hundred entries, so a
// sorted slice with binary search is sufficient here.
type MapSet struct {
	mappings []Mapping
}

// Set replaces the mapping set, sorting by Min.
func (s *MapSet) Set(mappings []Mapping) {
	ms := append([]Mapping(nil), mappings...)
	sort.Slice(ms, func(i, j int) bool { return ms[i].Min < ms[j].Min })
	s.mappings = ms
}

// All returns every mapping, sorted by address.
func (s *MapSet) All() []Mapping {
	return s.mappings
}

// Find returns the mapping containing a, if any.
func (s *MapSet) Find(a Addr) (Mapping, bool) {
	ms := s.mappings
	i := sort.Search(len(ms), func(i int) bool { return ms[i].Max > a })
	if i < len(ms) && ms[i].Contains(a) {
		return ms[i], true
	}
	return Mapping{}, false
}

// Bounds returns the lowest Min and highest Max across all mappings.
func (s *MapSet) Bounds() (min, max Addr) {
	if len(s.mappings) == 0 {
		return 0, 0
	}
	min = s.mappings[0].Min
	max = s.mappings[0].Max
	for _, m := range s.mappings[1:] {
		if m.Min < min {
			min = m.Min
		}
		if m.Max > max {
			max = m.Max
		}
	}
	return min, max
}
