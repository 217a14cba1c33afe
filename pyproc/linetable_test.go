// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyproc

import "testing"

func TestDecodeClassicLnotab(t *testing.T) {
	lnotab := []byte{0x00, 0x01, 0x06, 0x02}
	got := decodeClassicLnotab(lnotab, 10, 8)
	if got.Line != 13 {
		t.Errorf("decodeClassicLnotab line = %d, want 13", got.Line)
	}
}

func TestDecodeScaled310LnotabTerminator(t *testing.T) {
	lnotab := []byte{0x04, 0x01, 0xff, 0x00}
	got := decodeScaled310Lnotab(lnotab, 1, 10)
	if got.Line != 2 {
		t.Errorf("decodeScaled310Lnotab line = %d, want 2", got.Line)
	}
}

func TestDecodeLineTable311LongForm(t *testing.T) {
	// One long-form (code 14) record: advance length 4 bytes (entry&7==1),
	// line_delta=+3 (signed varint), end_line_delta=0, column=5,
	// column_end=12 (all three plain unsigned varints), matching
	// frame.h's long-form case: only the line delta is signed.
	entry := byte(0x80 | (14 << 3) | 1)
	record := []byte{
		entry,
		encodeSignedVarint(3),
		encodeUnsignedVarint(0),
		encodeUnsignedVarint(5),
		encodeUnsignedVarint(12),
	}
	got := decodeLineTable311(record, 20, 0)
	if got.Line != 23 || got.LineEnd != 23 || got.Column != 5 || got.ColumnEnd != 12 {
		t.Errorf("decodeLineTable311 = %+v, want {23 23 5 12}", got)
	}
}

// encodeSignedVarint and encodeUnsignedVarint are single-byte-range
// inverses of varintReader.signed/unsigned, used only to build test
// fixtures (values fit in 6 bits here, so no continuation byte is needed).
func encodeSignedVarint(v int32) byte {
	sign := int32(0)
	if v < 0 {
		sign = 1
		v = -v
	}
	return byte((v << 1) | sign)
}

func encodeUnsignedVarint(v int32) byte {
	return byte(v & 0x3F)
}

func TestFrameKey(t *testing.T) {
	k := frameKey(0x7fff12345678, 42)
	if k>>16 != uint64(0x12345678) {
		t.Errorf("frameKey code portion = %#x, want %#x", k>>16, 0x12345678)
	}
	if k&0xFFFF != 42 {
		t.Errorf("frameKey lasti portion = %d, want 42", k&0xFFFF)
	}
}
