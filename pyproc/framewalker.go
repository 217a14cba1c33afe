// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyproc

import (
	"fmt"

	"github.com/go-python-tools/pyintrospect/cache"
	"github.com/go-python-tools/pyintrospect/pyabi"
	"github.com/go-python-tools/pyintrospect/remote"
)

// maxFrameDepth bounds a single thread's frame-chain walk, per spec.md
// §4.8 ("Bound the walk at a hard limit (4096 frames) to contain runaway
// loops"), satisfying the frame-chain-termination testable property.
const maxFrameDepth = 4096

// Frame is a decoded activation record, per spec.md §3's Frame record.
type Frame struct {
	Key                              uint64
	Filename                         string
	Scope                            string
	Line, LineEnd, Column, ColumnEnd uint32
}

// ThreadStack is one thread's sampled call stack. Invalid is set when any
// read in the chain failed; per spec.md §4.8 the thread is then reported
// with no frames and retried from scratch on the next sample tick.
type ThreadStack struct {
	TID     uint64
	Frames  []Frame
	Invalid bool
}

// FrameWalker iterates a PyInterpreterState's thread list and walks each
// thread's frame chain, grounded on austin's py_thread.c/py_frame.c and
// cross-checked against wzprof's pystackiter/lineForFrame for the 3.11+
// encoding.
type FrameWalker struct {
	proc    *remote.Process
	desc    *pyabi.Descriptor
	strings *cache.LRU
}

// NewFrameWalker builds a walker bound to p's memory, descriptor, and
// string cache.
func NewFrameWalker(p *Process) *FrameWalker {
	return &FrameWalker{proc: p.proc, desc: &p.desc, strings: p.strings}
}

// Sample produces one stack per thread reachable from interp's thread list,
// per spec.md §4.8's thread-iteration rule: read tstate_head, then follow
// next, using the starting address as a loop sentinel (older ABIs are
// singly linked; always advance along next).
func (w *FrameWalker) Sample(interp remote.Addr) ([]ThreadStack, error) {
	head, err := readAddr(w.proc, interp.Add(w.desc.Interp.TstateHead))
	if err != nil {
		return nil, fmt.Errorf("%w: thread list head: %v", ErrReadFailed, err)
	}

	var stacks []ThreadStack
	for current := head; current != 0; {
		stacks = append(stacks, w.sampleThreadAt(current))

		next, err := readAddr(w.proc, current.Add(w.desc.Thread.Next))
		if err != nil || next == head {
			break
		}
		current = next
	}
	return stacks, nil
}

// SampleThread produces the stack for the single thread whose thread_id
// (or, if zero, whose thread-state address) equals tid.
func (w *FrameWalker) SampleThread(interp remote.Addr, tid uint64) (*ThreadStack, error) {
	head, err := readAddr(w.proc, interp.Add(w.desc.Interp.TstateHead))
	if err != nil {
		return nil, fmt.Errorf("%w: thread list head: %v", ErrReadFailed, err)
	}

	for current := head; current != 0; {
		stack := w.sampleThreadAt(current)
		if stack.TID == tid {
			return &stack, nil
		}
		next, err := readAddr(w.proc, current.Add(w.desc.Thread.Next))
		if err != nil || next == head {
			break
		}
		current = next
	}
	return nil, nil
}

func (w *FrameWalker) sampleThreadAt(addr remote.Addr) ThreadStack {
	rawTID, err := readAddr(w.proc, addr.Add(w.desc.Thread.ThreadID))
	tid := uint64(rawTID)
	if err != nil || tid == 0 {
		tid = uint64(addr)
	}

	topFrame, err := readAddr(w.proc, addr.Add(w.desc.Thread.Frame))
	if err != nil {
		return ThreadStack{TID: tid, Invalid: true}
	}

	frames, err := w.walkFrameChain(topFrame)
	if err != nil {
		return ThreadStack{TID: tid, Invalid: true}
	}
	return ThreadStack{TID: tid, Frames: frames}
}

// walkFrameChain descends the back-pointer chain from top, decoding each
// frame. It stops at maxFrameDepth or as soon as an origin address repeats
// (cycle detection), per spec.md §4.8 and the frame-chain-termination
// property of spec.md §8.
func (w *FrameWalker) walkFrameChain(top remote.Addr) ([]Frame, error) {
	var frames []Frame
	visited := make(map[remote.Addr]bool)

	current := top
	for i := 0; i < maxFrameDepth && current != 0; i++ {
		if visited[current] {
			break
		}
		visited[current] = true

		frame, err := w.decodeFrame(current)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)

		back, err := readAddr(w.proc, current.Add(w.desc.Frame.Back))
		if err != nil {
			return nil, fmt.Errorf("%w: frame back pointer: %v", ErrReadFailed, err)
		}
		current = back
	}
	return frames, nil
}

// decodeFrame reads the PyFrameObject (or _PyInterpreterFrame) at addr,
// resolves its code object, and decodes filename, scope, and line/column,
// per spec.md §4.8.
func (w *FrameWalker) decodeFrame(addr remote.Addr) (Frame, error) {
	codeAddr, err := readAddr(w.proc, addr.Add(w.desc.Frame.Code))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: frame code pointer: %v", ErrReadFailed, err)
	}

	lastI, err := w.readLastI(addr, codeAddr)
	if err != nil {
		return Frame{}, err
	}

	filenameAddr, err := readAddr(w.proc, codeAddr.Add(w.desc.Code.Filename))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: code filename pointer: %v", ErrReadFailed, err)
	}

	scopeOffset := w.desc.Code.Name
	if w.desc.Code.Qualname != 0 {
		scopeOffset = w.desc.Code.Qualname
	}
	scopeAddr, err := readAddr(w.proc, codeAddr.Add(scopeOffset))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: code name pointer: %v", ErrReadFailed, err)
	}

	firstlineno, err := readInt32(w.proc, codeAddr.Add(w.desc.Code.FirstLineNo))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: code firstlineno: %v", ErrReadFailed, err)
	}

	ltAddr, err := readAddr(w.proc, codeAddr.Add(w.desc.Code.LnotabOrLT))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: code lnotab/linetable pointer: %v", ErrReadFailed, err)
	}
	lnotab, err := readBytesObject(w.proc, ltAddr, w.desc)
	if err != nil {
		return Frame{}, err
	}

	li := w.decodeLine(lnotab, firstlineno, lastI)

	filename, err := readString(w.proc, w.strings, filenameAddr, w.desc)
	if err != nil {
		return Frame{}, err
	}
	scope, err := readString(w.proc, w.strings, scopeAddr, w.desc)
	if err != nil {
		return Frame{}, err
	}

	return Frame{
		Key:        frameKey(codeAddr, lastI),
		Filename:   filename,
		Scope:      scope,
		Line:       uint32(li.Line),
		LineEnd:    uint32(li.LineEnd),
		Column:     uint32(li.Column),
		ColumnEnd:  uint32(li.ColumnEnd),
	}, nil
}

// readLastI resolves the current bytecode offset. Pre-3.11 ABIs store an
// integer f_lasti directly; 3.11+ stores prev_instr, a pointer into the
// code object's adaptive bytecode array, and lasti is the byte offset from
// that array's start.
func (w *FrameWalker) readLastI(frameAddr, codeAddr remote.Addr) (int32, error) {
	if w.desc.LineEncoding != pyabi.LineEncodingLineTable311 {
		v, err := readInt32(w.proc, frameAddr.Add(w.desc.Frame.LastI))
		if err != nil {
			return 0, fmt.Errorf("%w: frame lasti: %v", ErrReadFailed, err)
		}
		return v, nil
	}

	prevInstr, err := readAddr(w.proc, frameAddr.Add(w.desc.Frame.LastI))
	if err != nil {
		return 0, fmt.Errorf("%w: frame prev_instr: %v", ErrReadFailed, err)
	}
	codeStart := codeAddr.Add(w.desc.Code.CodeStart)
	return int32(prevInstr.Sub(codeStart)), nil
}

func (w *FrameWalker) decodeLine(lnotab []byte, firstlineno, lastI int32) lineInfo {
	switch w.desc.LineEncoding {
	case pyabi.LineEncodingScaled310:
		return decodeScaled310Lnotab(lnotab, firstlineno, lastI)
	case pyabi.LineEncodingLineTable311:
		return decodeLineTable311(lnotab, firstlineno, lastI)
	default:
		return decodeClassicLnotab(lnotab, firstlineno, lastI)
	}
}

// mojoInt32 masks the low 32 bits of a code address for frame-key
// composition, named after austin's MOJO_INT32 mask.
const mojoInt32 = 0xFFFFFFFF

// frameKey computes the 48-bit frame fingerprint of spec.md §4.8:
// (code_addr & MOJO_INT32) << 16 | lasti.
func frameKey(codeAddr remote.Addr, lastI int32) uint64 {
	return (uint64(codeAddr)&mojoInt32)<<16 | uint64(uint16(lastI))
}
