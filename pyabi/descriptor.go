// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pyabi holds a runtime-selected table of byte offsets into
// CPython's in-memory structures, one per supported (major, minor) ABI
// generation, the way _examples/original_source/src/version.h keeps a
// single python_v struct of offset_t fields, selected once into the global
// py_v and dereferenced through the V_FIELD macro thereafter.
//
// Rather than generating one struct-shaped Go type per ABI (which would
// require recompiling for every CPython point release this tool supports),
// a Descriptor is read through at runtime: every field the frame walker
// needs is an int64 byte offset, exactly as spec.md's "Version-dependent
// structure layouts" design note prescribes.
package pyabi

// LineEncoding identifies which of the three historical line-number table
// encodings a Descriptor's code-object offsets describe.
type LineEncoding int

const (
	// LineEncodingClassic is the pre-3.10 (sdelta,ldelta) byte-pair lnotab.
	LineEncodingClassic LineEncoding = iota
	// LineEncodingScaled310 is the 3.10 lnotab, whose lasti is scaled by 2
	// and which is terminated by an 0xff sdelta byte.
	LineEncodingScaled310
	// LineEncodingLineTable311 is the 3.11+ variable-length linetable.
	LineEncodingLineTable311
)

// CodeOffsets locates the fields of a PyCodeObject (or PyCodeObject +
// co_extra in 3.11+) that FrameWalker needs.
type CodeOffsets struct {
	Size int64

	Filename    int64 // co_filename
	Name        int64 // co_name
	Qualname    int64 // co_qualname (3.11+, 0 if absent)
	LnotabOrLT  int64 // co_lnotab (<3.10) or co_linetable (3.10+)
	FirstLineNo int64 // co_firstlineno
	CodeStart   int64 // offset of the first adaptive bytecode unit (3.11+ only)
}

// FrameOffsets locates the fields of a PyFrameObject (<3.11) or
// _PyInterpreterFrame (3.11+) that FrameWalker needs.
type FrameOffsets struct {
	Size int64

	Back  int64 // f_back (<3.11) or previous (3.11+)
	Code  int64 // f_code (<3.11) or f_code/co as appropriate
	LastI int64 // f_lasti (<3.11) or prev_instr - code start (3.11+)
}

// ThreadOffsets locates the fields of a PyThreadState that FrameWalker and
// InterpFinder need.
type ThreadOffsets struct {
	Size int64

	Prev     int64 // prev (doubly linked ABIs only, 0 if absent)
	Next     int64 // next
	Interp   int64 // interp
	Frame    int64 // frame (<3.11) or cframe->current_frame (3.11+)
	ThreadID int64 // thread_id
}

// UnicodeOffsets locates the fields used to decode a compact ASCII
// PyUnicodeObject / PyASCIIObject.
type UnicodeOffsets struct {
	StateByte int64 // offsetof(PyASCIIObject, state), a 1-byte bitfield
	Length    int64 // offsetof(PyASCIIObject, length)
	DataStart int64 // sizeof(PyASCIIObject): the compact ASCII buffer starts here
	UTF8Ptr   int64 // offsetof(PyCompactUnicodeObject, utf8), non-compact fallback
	UTF8Len   int64 // offsetof(PyCompactUnicodeObject, utf8_length)
}

// BytesOffsets locates the fields used to decode a PyBytesObject.
type BytesOffsets struct {
	Size     int64 // offsetof(PyBytesObject, ob_size)
	SvalData int64 // offsetof(PyBytesObject, ob_sval)
}

// RuntimeOffsets locates the fields of a _PyRuntimeState.
type RuntimeOffsets struct {
	Size         int64
	InterpHead   int64 // interpreters.head
	TstateCurrent int64 // gilstate.tstate_current, present pre-3.12
}

// InterpOffsets locates the fields of a PyInterpreterState.
type InterpOffsets struct {
	Size       int64
	TstateHead int64 // tstate_head (<3.9) or threads.head (3.9+)
}

// Descriptor is the full set of offsets for one CPython ABI generation.
// Once selected (by DetectFromExe, DetectFromSymbol, or Select), a
// Descriptor is immutable and shared read-only
// for the lifetime of one attach, satisfying the "version-descriptor
// stability" invariant: every field read of a given sample goes through
// the same Descriptor.
type Descriptor struct {
	Major, Minor int

	LineEncoding LineEncoding

	Code    CodeOffsets
	Frame   FrameOffsets
	Thread  ThreadOffsets
	Unicode UnicodeOffsets
	Bytes   BytesOffsets
	Runtime RuntimeOffsets
	Interp  InterpOffsets

	// ThreadIDZeroPrevQuirk reproduces the single opaque 3.6.5->3.6.6
	// behavior named in spec.md's Open Questions: when set, InterpFinder's
	// current-thread-state strategy chases .prev when .thread_id == 0
	// before validating.
	ThreadIDZeroPrevQuirk bool
}
