// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyabi

import "testing"

func TestSelectExact(t *testing.T) {
	d, ok := Select(3, 11)
	if !ok {
		t.Fatal("Select(3, 11) not found")
	}
	if d.Major != 3 || d.Minor != 11 {
		t.Errorf("Select(3, 11) = %d.%d, want 3.11", d.Major, d.Minor)
	}
	if d.LineEncoding != LineEncodingLineTable311 {
		t.Errorf("Select(3, 11).LineEncoding = %v, want LineEncodingLineTable311", d.LineEncoding)
	}
}

func TestSelectNewerMinorFallsBackToNewest(t *testing.T) {
	d, ok := Select(3, 99)
	if !ok {
		t.Fatal("Select(3, 99) not found")
	}
	if d.Minor != 12 {
		t.Errorf("Select(3, 99) fell back to 3.%d, want 3.12 (the newest known minor)", d.Minor)
	}
}

func TestSelectUnknownMajor(t *testing.T) {
	if _, ok := Select(4, 0); ok {
		t.Error("Select(4, 0) should not find a descriptor")
	}
}

func TestDetectFromSymbol(t *testing.T) {
	// 0x030b00f0 encodes 3.11.0 final, per CPython's patchlevel.h.
	d, err := DetectFromSymbol(0x030b00f0)
	if err != nil {
		t.Fatalf("DetectFromSymbol: %v", err)
	}
	if d.Major != 3 || d.Minor != 11 {
		t.Errorf("DetectFromSymbol(0x030b00f0) = %d.%d, want 3.11", d.Major, d.Minor)
	}
}
