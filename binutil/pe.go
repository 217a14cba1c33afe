// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binutil

import (
	"debug/pe"
	"fmt"
	"os"
)

// introspectPE walks section headers for .data and looks the wanted symbol
// names up in the COFF symbol table (pe.File.Symbols). The export directory
// is not read, so a DLL whose COFF symbols are stripped yields no symbols.
func introspectPE(f *os.File) (*Image, error) {
	o, err := pe.NewFile(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer o.Close()

	img := &Image{Symbols: map[string]Addr{}}

	for _, sec := range o.Sections {
		if sec.Name == ".data" {
			img.Bss = Section{Addr: Addr(sec.VirtualAddress), Size: int64(sec.VirtualSize)}
			break
		}
	}

	wanted := make(map[string]bool, len(wantedSymbols))
	for _, w := range wantedSymbols {
		wanted[w] = true
	}
	for _, sym := range o.Symbols {
		if wanted[sym.Name] && sym.Value != 0 {
			img.Symbols[sym.Name] = Addr(sym.Value)
		}
	}

	return img, nil
}
