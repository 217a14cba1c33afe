// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binutil

import "testing"

func TestMagicDetection(t *testing.T) {
	cases := []struct {
		name  string
		magic []byte
		elf   bool
		macho bool
		fat   bool
		pe    bool
	}{
		{"elf", []byte{0x7f, 'E', 'L', 'F'}, true, false, false, false},
		{"macho64le", []byte{0xcf, 0xfa, 0xed, 0xfe}, false, true, false, false},
		{"macho32be", []byte{0xfe, 0xed, 0xfa, 0xce}, false, true, false, false},
		{"fat", []byte{0xca, 0xfe, 0xba, 0xbe}, false, false, true, false},
		{"pe", []byte{'M', 'Z', 0, 0}, false, false, false, true},
		{"unknown", []byte{1, 2, 3, 4}, false, false, false, false},
	}
	for _, c := range cases {
		if got := isELF(c.magic); got != c.elf {
			t.Errorf("%s: isELF = %v, want %v", c.name, got, c.elf)
		}
		if got := isMachO(c.magic); got != c.macho {
			t.Errorf("%s: isMachO = %v, want %v", c.name, got, c.macho)
		}
		if got := isFatMachO(c.magic); got != c.fat {
			t.Errorf("%s: isFatMachO = %v, want %v", c.name, got, c.fat)
		}
		if got := isPE(c.magic); got != c.pe {
			t.Errorf("%s: isPE = %v, want %v", c.name, got, c.pe)
		}
	}
}

func TestIntrospectMissingFile(t *testing.T) {
	if _, err := Introspect("/nonexistent/path/to/binary"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
