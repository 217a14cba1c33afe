// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mojoenc

import (
	"bytes"
	"testing"
)

func TestNewWriterHeader(t *testing.T) {
	var buf bytes.Buffer
	if _, err := NewWriter(&buf); err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	got := buf.Bytes()
	if string(got[:3]) != "MOJ" {
		t.Fatalf("header magic = %q, want %q", got[:3], "MOJ")
	}
	if got[3] != byte(Version) {
		t.Fatalf("header version byte = %#x, want %#x", got[3], Version)
	}
}

// decodeVarint is the test-side inverse of Writer.writeInteger (ignoring the
// sign bit), used to confirm the writer's byte layout without exporting
// internals.
func decodeVarint(buf []byte, pos int) (val uint64, next int) {
	b := buf[pos]
	val = uint64(b & 0x3f)
	shift := uint(6)
	for b&0x80 != 0 {
		pos++
		b = buf[pos]
		val |= uint64(b&0x7f) << shift
		shift += 7
	}
	return val, pos + 1
}

func TestWriteIntegerMultiByte(t *testing.T) {
	var buf bytes.Buffer
	mw, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	buf.Reset() // drop the header, isolate the next write
	mw.writeInteger(1000, false)
	if err := mw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := buf.Bytes()
	if got[0]&0x80 == 0 {
		t.Fatalf("first byte %#x should have continuation bit set", got[0])
	}
	if got[0]&0x3f != 0x28 {
		t.Fatalf("first byte data bits = %#x, want %#x", got[0]&0x3f, 0x28)
	}
	if got[1] != 0x0f {
		t.Fatalf("second byte = %#x, want %#x", got[1], 0x0f)
	}

	val, _ := decodeVarint(got, 0)
	if val != 1000 {
		t.Errorf("round-tripped varint = %d, want 1000", val)
	}
}

func TestWriteSignedIntegerSignBit(t *testing.T) {
	var buf bytes.Buffer
	mw, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	buf.Reset()
	mw.writeSignedInteger(-5)
	if err := mw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got := buf.Bytes()
	if len(got) != 1 {
		t.Fatalf("expected single byte for small negative value, got %d bytes", len(got))
	}
	if got[0]&0x40 == 0 {
		t.Fatalf("sign bit not set for negative value: %#x", got[0])
	}
	if got[0]&0x3f != 5 {
		t.Fatalf("magnitude = %d, want 5", got[0]&0x3f)
	}
}

func TestRefTruncatesToInt32Mask(t *testing.T) {
	var buf bytes.Buffer
	mw, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	buf.Reset()
	// A key with every bit of the 48-bit frame-key range set should
	// truncate the same way mojo_ref's MOJO_INT32 mask does.
	mw.ref(0xFFFFFFFFFFFF)
	if err := mw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, _ := decodeVarint(buf.Bytes(), 0)
	if got != int32Mask {
		t.Errorf("decoded ref = %#x, want %#x", got, int32Mask)
	}
}

func TestEventStreamOrder(t *testing.T) {
	var buf bytes.Buffer
	mw, err := NewWriter(&buf)
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	mw.Stack(42, 0x1)
	mw.Frame(0x12345678, 1, 2, 10)
	mw.FrameRef(0x12345678)
	mw.Idle()
	if err := mw.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := mw.Err(); err != nil {
		t.Fatalf("Err: %v", err)
	}

	data := buf.Bytes()
	pos := 4 // skip "MOJ" + version byte
	if Event(data[pos]) != EventStack {
		t.Errorf("first event = %d, want EventStack", data[pos])
	}
}

func TestFormatTID(t *testing.T) {
	cases := map[uint64]string{
		0:      "0",
		1:      "1",
		255:    "ff",
		0xabcd: "abcd",
	}
	for in, want := range cases {
		if got := formatTID(in); got != want {
			t.Errorf("formatTID(%d) = %q, want %q", in, got, want)
		}
	}
}
