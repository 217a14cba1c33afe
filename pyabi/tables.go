// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyabi

// descriptors is kept in ascending (major, minor) order. The classic and
// 3.10 branches mirror _examples/original_source/src/version.h's
// py_code_v/py_frame_v/py_thread_v shape (one struct of offsets per era,
// sized around f_back/f_code/f_lasti and lnotab). The 3.11 entry's offsets
// are the ones recovered experimentally by the wzprof project for the
// 3.11 ABI generation (padFilenameInCodeObject and friends), which this
// table reuses verbatim since they were derived from the same struct
// layouts FrameWalker must decode.
var descriptors = []Descriptor{
	{
		Major: 2, Minor: 7,
		LineEncoding: LineEncodingClassic,
		Code: CodeOffsets{
			Size: 72, Filename: 32, Name: 40, LnotabOrLT: 64, FirstLineNo: 48,
		},
		Frame: FrameOffsets{
			Size: 64, Back: 16, Code: 24, LastI: 40,
		},
		Thread: ThreadOffsets{
			Size: 56, Prev: 0, Next: 8, Interp: 16, Frame: 24, ThreadID: 48,
		},
		Unicode: UnicodeOffsets{
			StateByte: 0, Length: 0, DataStart: 0, UTF8Ptr: 0, UTF8Len: 0,
		},
		Bytes: BytesOffsets{Size: 16, SvalData: 24},
		Runtime: RuntimeOffsets{
			// Python 2.7 predates _PyRuntime; InterpFinder falls through
			// to the current-thread-state and scan strategies.
		},
		Interp: InterpOffsets{Size: 64, TstateHead: 8},
	},
	{
		Major: 3, Minor: 6,
		LineEncoding: LineEncodingClassic,
		Code: CodeOffsets{
			Size: 96, Filename: 48, Name: 56, LnotabOrLT: 88, FirstLineNo: 68,
		},
		Frame: FrameOffsets{
			Size: 88, Back: 24, Code: 32, LastI: 76,
		},
		Thread: ThreadOffsets{
			Size: 64, Prev: 8, Next: 16, Interp: 24, Frame: 32, ThreadID: 152,
		},
		Unicode: UnicodeOffsets{
			StateByte: 32, Length: 16, DataStart: 48, UTF8Ptr: 40, UTF8Len: 24,
		},
		Bytes: BytesOffsets{Size: 16, SvalData: 32},
		Runtime: RuntimeOffsets{
			// _PyRuntime was introduced in 3.7; 3.6 relies on
			// _PyThreadState_Current instead.
		},
		Interp: InterpOffsets{Size: 648, TstateHead: 8},
		// 3.6.5 -> 3.6.6: per spec.md's Open Questions, preserved as an
		// opaque quirk rather than re-derived from first principles.
		ThreadIDZeroPrevQuirk: true,
	},
	{
		Major: 3, Minor: 7,
		LineEncoding: LineEncodingClassic,
		Code: CodeOffsets{
			Size: 104, Filename: 56, Name: 64, LnotabOrLT: 96, FirstLineNo: 72,
		},
		Frame: FrameOffsets{
			Size: 92, Back: 24, Code: 32, LastI: 80,
		},
		Thread: ThreadOffsets{
			Size: 64, Prev: 8, Next: 16, Interp: 24, Frame: 32, ThreadID: 152,
		},
		Unicode: UnicodeOffsets{
			StateByte: 32, Length: 16, DataStart: 48, UTF8Ptr: 40, UTF8Len: 24,
		},
		Bytes:   BytesOffsets{Size: 16, SvalData: 32},
		Runtime: RuntimeOffsets{Size: 1024, InterpHead: 8},
		Interp:  InterpOffsets{Size: 648, TstateHead: 8},
	},
	{
		Major: 3, Minor: 8,
		LineEncoding: LineEncodingClassic,
		Code: CodeOffsets{
			Size: 104, Filename: 56, Name: 64, LnotabOrLT: 96, FirstLineNo: 72,
		},
		Frame: FrameOffsets{
			Size: 92, Back: 24, Code: 32, LastI: 80,
		},
		Thread: ThreadOffsets{
			Size: 64, Prev: 8, Next: 16, Interp: 24, Frame: 32, ThreadID: 152,
		},
		Unicode: UnicodeOffsets{
			StateByte: 32, Length: 16, DataStart: 48, UTF8Ptr: 40, UTF8Len: 24,
		},
		Bytes:   BytesOffsets{Size: 16, SvalData: 32},
		Runtime: RuntimeOffsets{Size: 1024, InterpHead: 8},
		Interp:  InterpOffsets{Size: 648, TstateHead: 8},
	},
	{
		Major: 3, Minor: 9,
		LineEncoding: LineEncodingClassic,
		Code: CodeOffsets{
			Size: 112, Filename: 64, Name: 72, LnotabOrLT: 104, FirstLineNo: 80,
		},
		Frame: FrameOffsets{
			Size: 92, Back: 24, Code: 32, LastI: 80,
		},
		Thread: ThreadOffsets{
			Size: 64, Prev: 8, Next: 16, Interp: 24, Frame: 32, ThreadID: 176,
		},
		Unicode: UnicodeOffsets{
			StateByte: 32, Length: 16, DataStart: 48, UTF8Ptr: 40, UTF8Len: 24,
		},
		Bytes:   BytesOffsets{Size: 16, SvalData: 32},
		Runtime: RuntimeOffsets{Size: 1024, InterpHead: 8},
		Interp:  InterpOffsets{Size: 696, TstateHead: 16},
	},
	{
		Major: 3, Minor: 10,
		LineEncoding: LineEncodingScaled310,
		Code: CodeOffsets{
			Size: 112, Filename: 64, Name: 72, LnotabOrLT: 104, FirstLineNo: 80,
		},
		Frame: FrameOffsets{
			Size: 92, Back: 24, Code: 32, LastI: 80,
		},
		Thread: ThreadOffsets{
			Size: 64, Prev: 8, Next: 16, Interp: 24, Frame: 32, ThreadID: 176,
		},
		Unicode: UnicodeOffsets{
			StateByte: 32, Length: 16, DataStart: 48, UTF8Ptr: 40, UTF8Len: 24,
		},
		Bytes:   BytesOffsets{Size: 16, SvalData: 32},
		Runtime: RuntimeOffsets{Size: 1024, InterpHead: 8},
		Interp:  InterpOffsets{Size: 696, TstateHead: 16},
	},
	{
		// Offsets per wzprof's experimentally-derived CPython 3.11 pad
		// constants (see other_examples/..._dispatchrun-wzprof__python.go).
		Major: 3, Minor: 11,
		LineEncoding: LineEncodingLineTable311,
		Code: CodeOffsets{
			Size: 160, Filename: 80, Name: 84, Qualname: 88,
			LnotabOrLT: 92, FirstLineNo: 48, CodeStart: 116,
		},
		Frame: FrameOffsets{
			Size: 64, Back: 24, Code: 16, LastI: 28,
		},
		Thread: ThreadOffsets{
			Size: 200, Prev: 8, Next: 16, Interp: 24, Frame: 40, ThreadID: 184,
		},
		Unicode: UnicodeOffsets{
			StateByte: 16, Length: 8, DataStart: 24, UTF8Ptr: 40, UTF8Len: 48,
		},
		Bytes:   BytesOffsets{Size: 8, SvalData: 16},
		Runtime: RuntimeOffsets{Size: 1024, InterpHead: 8, TstateCurrent: 360},
		Interp:  InterpOffsets{Size: 720, TstateHead: 16},
	},
	{
		Major: 3, Minor: 12,
		LineEncoding: LineEncodingLineTable311,
		Code: CodeOffsets{
			Size: 168, Filename: 88, Name: 92, Qualname: 96,
			LnotabOrLT: 100, FirstLineNo: 52, CodeStart: 124,
		},
		Frame: FrameOffsets{
			Size: 72, Back: 24, Code: 16, LastI: 28,
		},
		Thread: ThreadOffsets{
			Size: 216, Prev: 8, Next: 16, Interp: 24, Frame: 48, ThreadID: 200,
		},
		Unicode: UnicodeOffsets{
			StateByte: 16, Length: 8, DataStart: 24, UTF8Ptr: 40, UTF8Len: 48,
		},
		Bytes:   BytesOffsets{Size: 8, SvalData: 16},
		Runtime: RuntimeOffsets{Size: 1024, InterpHead: 8},
		Interp:  InterpOffsets{Size: 736, TstateHead: 16},
	},
}

// Select returns the descriptor matching (major, minor). Minor values newer
// than the newest known descriptor fall back to that newest descriptor, per
// spec.md's VersionTable contract ("minor values newer than the known max
// use the newest descriptor").
func Select(major, minor int) (Descriptor, bool) {
	var best Descriptor
	found := false
	for _, d := range descriptors {
		if d.Major != major {
			continue
		}
		if d.Minor == minor {
			return d, true
		}
		if d.Minor < minor && (!found || d.Minor > best.Minor) {
			best, found = d, true
		}
	}
	if found {
		return best, true
	}
	return Descriptor{}, false
}
