// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package binutil

import (
	"debug/macho"
	"fmt"
	"os"
	"runtime"
)

// introspectMachO walks Mach-O load commands to find the __DATA segment's
// __bss section and the external symbol table, per spec.md's
// BinaryIntrospector Mach-O algorithm, grounded on
// ogle/program/server/server.go's loadExecutable (which dispatches to
// debug/macho.NewFile the same way, one layer up the stack from here).
func introspectMachO(f *os.File) (*Image, error) {
	fo, err := macho.NewFatFile(f)
	if err == nil {
		return introspectMachOFat(fo)
	}
	o, err := macho.NewFile(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	defer o.Close()
	return introspectMachOFile(o)
}

// introspectMachOFat decodes a universal (FAT) archive and recurses on the
// slice whose CPU type matches the architecture this tool was built for
// (runtime.GOARCH), or on the first slice when none matches. The CPU type
// of the live target image is not consulted.
func introspectMachOFat(fo *macho.FatFile) (*Image, error) {
	want := hostCPU()
	for _, a := range fo.Arches {
		if a.Cpu == want {
			return introspectMachOFile(a.File)
		}
	}
	if len(fo.Arches) == 0 {
		return nil, ErrUnsupportedFormat
	}
	return introspectMachOFile(fo.Arches[0].File)
}

func hostCPU() macho.Cpu {
	switch runtime.GOARCH {
	case "amd64":
		return macho.CpuAmd64
	case "arm64":
		return macho.CpuArm64
	case "386":
		return macho.Cpu386
	default:
		return 0
	}
}

func introspectMachOFile(o *macho.File) (*Image, error) {
	img := &Image{Symbols: map[string]Addr{}}

	for _, l := range o.Loads {
		seg, ok := l.(*macho.Segment)
		if !ok || (seg.Name != "__DATA" && seg.Name != "__DATA_CONST") {
			continue
		}
		for _, sec := range o.Sections {
			if sec.Seg != seg.Name || sec.Name != "__bss" {
				continue
			}
			img.Bss = Section{Addr: Addr(sec.Addr), Size: int64(sec.Size)}
		}
	}

	if o.Symtab != nil {
		wanted := make(map[string]bool, len(wantedSymbols))
		for _, w := range wantedSymbols {
			wanted["_"+w] = true // Mach-O C symbols carry a leading underscore.
			wanted[w] = true
		}
		for _, s := range o.Symtab.Syms {
			if s.Sect == 0 {
				continue // N_UNDF or otherwise not defined in this image.
			}
			name := s.Name
			if wanted[name] {
				key := name
				if len(key) > 0 && key[0] == '_' {
					key = key[1:]
				}
				img.Symbols[key] = Addr(s.Value)
			}
		}
	}

	return img, nil
}
