// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyproc

import "github.com/go-python-tools/pyintrospect/remote"

// Init performs one-shot library initialization. It is currently a no-op,
// reserved for forward compatibility the way ogle's RPC layer reserves a
// symmetrical Open/Close pair (see ogle/program/server/server.go's
// handleOpen/handleClose) even when one side has nothing to do yet.
func Init() {}

// Shutdown releases library-wide resources. Currently a no-op for the same
// reason as Init.
func Shutdown() {}

// SampleCallback is invoked once per sampled thread, after its frames have
// been buffered, per spec.md §6's sample contract.
type SampleCallback func(ThreadStack)

// Sample runs one sample over every thread of p's interpreter, invoking cb
// once per thread after its frames have been decoded. The frames of the
// last thread visited remain available via PopFrame.
func Sample(p *Process, cb SampleCallback) error {
	stacks, err := NewFrameWalker(p).Sample(p.interpRaddr)
	if err != nil {
		return WithKind(KindTransientDecode, err)
	}
	for _, s := range stacks {
		p.lastFrames, p.popIndex = s.Frames, 0
		if cb != nil {
			cb(s)
		}
	}
	return nil
}

// SampleThread runs one sample over a single thread, identified by tid.
func SampleThread(p *Process, tid uint64, cb SampleCallback) error {
	stack, err := NewFrameWalker(p).SampleThread(p.interpRaddr, tid)
	if err != nil {
		return WithKind(KindTransientDecode, err)
	}
	if stack == nil {
		return nil
	}
	p.lastFrames, p.popIndex = stack.Frames, 0
	if cb != nil {
		cb(*stack)
	}
	return nil
}

// PopFrame returns the next buffered frame for the most recently sampled
// thread, or false once exhausted.
func PopFrame(p *Process) (Frame, bool) {
	if p.popIndex >= len(p.lastFrames) {
		return Frame{}, false
	}
	f := p.lastFrames[p.popIndex]
	p.popIndex++
	return f, true
}

// ReadFrame decodes a single frame at raddr, independent of any buffered
// sample.
func ReadFrame(p *Process, raddr remote.Addr) (Frame, error) {
	f, err := NewFrameWalker(p).decodeFrame(raddr)
	if err != nil {
		return Frame{}, WithKind(KindTransientDecode, err)
	}
	return f, nil
}
