// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyproc

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/go-python-tools/pyintrospect/cache"
	"github.com/go-python-tools/pyintrospect/pyabi"
	"github.com/go-python-tools/pyintrospect/remote"
)

// retryBudget bounds the number of .prev links locateViaCurrentThread
// follows. A single Locate call tries each strategy once, and Attach calls
// Locate once; nothing repeats Locate over time, so a target whose
// interpreter state is not yet in place fails to attach.
const retryBudget = 1000

var errNoCandidate = errors.New("pyproc: no interpreter state candidate found")

// locateInput bundles the region and symbol information Attach's setup
// path gathers before calling Locate.
type locateInput struct {
	bss, heap        region
	tstateCurrentSym remote.Addr
	pyRuntimeSym     remote.Addr
}

// Locate converts the prepared VM-range and symbol information into a
// validated PyInterpreterState remote address, trying the four strategies
// of spec.md §4.7 in order: runtime symbol dereference, current-thread-
// state symbol dereference, bss scan, heap scan.
func Locate(p *remote.Process, in *locateInput, desc *pyabi.Descriptor) (remote.Addr, error) {
	if in.pyRuntimeSym != 0 {
		if addr, ok := locateViaRuntime(p, in.pyRuntimeSym, desc); ok {
			return addr, nil
		}
	}

	if in.tstateCurrentSym != 0 {
		if addr, ok := locateViaCurrentThread(p, in.tstateCurrentSym, desc); ok {
			return addr, nil
		}
	}

	if in.bss.size > 0 {
		if addr, ok := locateViaBSSScan(p, in.bss, in.heap, desc); ok {
			return addr, nil
		}
	}

	if in.heap.size > 0 {
		if addr, ok := locateViaHeapScan(p, in.heap, desc); ok {
			return addr, nil
		}
	}

	return 0, fmt.Errorf("%w", errNoCandidate)
}

// locateViaRuntime dereferences _PyRuntime and takes interpreters.head,
// grounded on py_proc.c's initial branch in _py_proc__deref_interp_state.
func locateViaRuntime(p *remote.Process, runtimeAddr remote.Addr, desc *pyabi.Descriptor) (remote.Addr, bool) {
	head, err := readAddr(p, runtimeAddr.Add(desc.Runtime.InterpHead))
	if err != nil {
		return 0, false
	}
	if checkInterp(p, head, desc) {
		return head, true
	}
	return 0, false
}

// locateViaCurrentThread dereferences the PyThreadState at
// _PyThreadState_Current, reproducing the 3.6.5->3.6.6 .prev-chase quirk
// when ThreadIDZeroPrevQuirk is set and thread_id==0, per py_proc.c.
func locateViaCurrentThread(p *remote.Process, tstateAddr remote.Addr, desc *pyabi.Descriptor) (remote.Addr, bool) {
	addr := tstateAddr
	for i := 0; i < retryBudget; i++ {
		tid, err := readAddr(p, addr.Add(desc.Thread.ThreadID))
		if err != nil {
			return 0, false
		}
		prev, err := readAddr(p, addr.Add(desc.Thread.Prev))
		if err != nil {
			return 0, false
		}

		if desc.ThreadIDZeroPrevQuirk && tid == 0 && prev != 0 {
			addr = prev
			continue
		}

		interp, err := readAddr(p, addr.Add(desc.Thread.Interp))
		if err != nil {
			return 0, false
		}
		if checkInterp(p, interp, desc) {
			return interp, true
		}
		return 0, false
	}
	return 0, false
}

// locateViaBSSScan snapshots the bss section and treats every word-aligned
// slot as a candidate interpreter-state pointer, per
// _py_proc__scan_bss: a candidate must point into the heap and pass
// checkInterp.
func locateViaBSSScan(p *remote.Process, bss, heap region, desc *pyabi.Descriptor) (remote.Addr, bool) {
	buf, err := p.ReadAt(bss.base, int(bss.size))
	if err != nil {
		return 0, false
	}
	wordSize := 8
	for off := 0; off+wordSize <= len(buf); off += wordSize {
		candidate := remote.Addr(binary.LittleEndian.Uint64(buf[off : off+wordSize]))
		if candidate == 0 || !inRegion(candidate, heap) {
			continue
		}
		if checkInterp(p, candidate, desc) {
			return candidate, true
		}
	}
	return 0, false
}

// locateViaHeapScan applies checkInterp to every word-aligned remote heap
// address directly (no local snapshot, since the heap is typically far
// larger than bss), per _py_proc__scan_heap.
func locateViaHeapScan(p *remote.Process, heap region, desc *pyabi.Descriptor) (remote.Addr, bool) {
	wordSize := int64(8)
	for off := int64(0); off+wordSize <= heap.size; off += wordSize {
		candidate := heap.base.Add(off)
		if checkInterp(p, candidate, desc) {
			return candidate, true
		}
	}
	return 0, false
}

func inRegion(addr remote.Addr, r region) bool {
	return addr >= r.base && addr.Sub(r.base) < r.size
}

// checkInterp validates a candidate PyInterpreterState address: its
// tstate_head must dereference to a PyThreadState whose interp field
// equals the candidate and whose frame is non-null, and a full thread
// frame chain must be walkable from it without error, per the
// _py_proc__check_interp_state contract of spec.md §4.7.
func checkInterp(p *remote.Process, candidate remote.Addr, desc *pyabi.Descriptor) bool {
	if candidate == 0 {
		return false
	}

	head, err := readAddr(p, candidate.Add(desc.Interp.TstateHead))
	if err != nil || head == 0 {
		return false
	}

	interp, err := readAddr(p, head.Add(desc.Thread.Interp))
	if err != nil || interp != candidate {
		return false
	}

	frame, err := readAddr(p, head.Add(desc.Thread.Frame))
	if err != nil || frame == 0 {
		return false
	}

	// A throwaway single-entry cache: validation only needs the walk to
	// complete without error, not the decoded strings it produces.
	w := &FrameWalker{proc: p, desc: desc, strings: cache.NewLRU(1, nil)}
	_, err = w.walkFrameChain(frame)
	return err == nil
}

// readAddr reads one pointer-sized remote value.
func readAddr(p *remote.Process, addr remote.Addr) (remote.Addr, error) {
	buf, err := p.ReadAt(addr, 8)
	if err != nil {
		return 0, err
	}
	return remote.Addr(binary.LittleEndian.Uint64(buf)), nil
}
