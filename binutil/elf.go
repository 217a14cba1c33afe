// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binutil

import (
	"debug/elf"
	"fmt"
	"os"
)

// introspectELF locates the .bss (or a Python-runtime-carrying progbits
// section such as .data) section and the wanted dynamic symbols, the way
// internal/core/process.go's readExec walks PT_LOAD program headers and
// readDebugInfo walks the dynamic symbol table -- except here we read
// directly from the on-disk image rather than a core dump, because
// (per spec.md's BinaryIntrospector decision rationale) sections need not
// be loaded into memory and ASLR means the live load base must be added
// separately by the caller.
func introspectELF(f *os.File) (*Image, error) {
	e, err := elf.NewFile(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer e.Close()

	img := &Image{Symbols: map[string]Addr{}}

	for _, prog := range e.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		align := prog.Align
		if align == 0 {
			align = 1
		}
		img.LoadBase = Addr(prog.Vaddr - (prog.Vaddr % align))
		break
	}

	for _, name := range []string{".bss", "__bss", ".PyRuntime", ".data"} {
		sec := e.Section(name)
		if sec == nil {
			continue
		}
		img.Bss = Section{Addr: Addr(sec.Addr), Size: int64(sec.Size)}
		break
	}

	syms, err := e.DynamicSymbols()
	if err != nil {
		// Fall back to the regular symbol table; a stripped binary may have
		// neither, which is not itself an error here -- Introspect decides
		// whether the resulting Image is usable.
		syms, _ = e.Symbols()
	}
	wanted := make(map[string]bool, len(wantedSymbols))
	for _, w := range wantedSymbols {
		wanted[w] = true
	}
	for _, s := range syms {
		if wanted[s.Name] && s.Value != 0 {
			img.Symbols[s.Name] = Addr(s.Value)
		}
	}

	return img, nil
}
