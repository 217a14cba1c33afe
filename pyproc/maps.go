// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyproc

import (
	"fmt"
	"strings"
)

// classifyMaps implements spec.md §4.3 ProcMap's classification rules over
// the already-refreshed VM map: the first mapping whose path contains
// "python" is the executable, the first containing "libpython" is the
// library (and overrides the bss candidate, since the library carries the
// interpreter symbols when present), the "[heap]" entry is the heap, and an
// anonymous trailing mapping (no path) is a bss candidate.
func (p *Process) classifyMaps() error {
	haveExe, haveLib, haveHeap, haveBss := false, false, false, false

	for _, m := range p.proc.Maps() {
		base := region{base: m.Min, size: m.Size(), path: m.Path}

		switch {
		case strings.Contains(m.Path, "libpython"):
			if !haveLib {
				p.libPath = m.Path
				p.bss = base
				haveLib, haveBss = true, true
			}
		case !haveExe && strings.Contains(m.Path, "python"):
			p.exePath = m.Path
			haveExe = true
		case m.Path == "[heap]":
			p.heap = base
			haveHeap = true
		case m.Path == "" && !haveBss:
			p.bss = base
			haveBss = true
		}
	}

	p.mapsLoaded = haveHeap && (haveExe || haveLib)
	if !p.mapsLoaded {
		return fmt.Errorf("pyproc: could not classify heap and executable/library regions (heap=%v exe=%v lib=%v)", haveHeap, haveExe, haveLib)
	}
	return nil
}

// RefreshMaps re-reads the target's VM map and re-runs classification. The
// interpreter state address is left untouched; only the region bookkeeping
// used by InterpFinder's bss/heap strategies is updated.
func (p *Process) RefreshMaps() error {
	if err := p.proc.RefreshMaps(); err != nil {
		return err
	}
	return p.classifyMaps()
}
