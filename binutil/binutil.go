// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package binutil parses ELF, Mach-O, and PE object files to locate the
// .bss/__bss/.data section and resolve a fixed set of exported symbols,
// the way internal/core/process.go parses the core file's own ELF headers
// and ogle/program/server/server.go dispatches between ELF and Mach-O for
// a live executable.
package binutil

import (
	"fmt"
	"os"
)

// Section describes a named section of an object file, translated to the
// virtual address space of a live, possibly ASLR-relocated, image.
type Section struct {
	Addr Addr
	Size int64
}

// Addr is a file-relative virtual address, before translation by a live
// load base. binutil never has the live load base itself -- that comes from
// the process's VM map (see pyproc.mappingBase) -- so Section.Addr here is
// always expressed in the image's own link-time address space.
type Addr uint64

// Image is the result of introspecting one object file.
type Image struct {
	Path string

	// Bss is the .bss / __bss / .data section carrying the interpreter's
	// well-known globals.
	Bss Section

	// Symbols maps exported symbol names (restricted to the fixed
	// wantedSymbols set) to their file-relative virtual address.
	Symbols map[string]Addr

	// LoadBase is the file's own link-time base address: for ELF, the
	// first PT_LOAD segment's p_vaddr rounded down to p_align, per
	// spec.md's ELF algorithm. A caller holding the live runtime mapping
	// base for this image translates any Addr here to a remote address
	// with (addr - LoadBase + mappingMin). Zero for formats (Mach-O, PE)
	// where this package does not yet compute it; those images are
	// assumed non-PIE or are translated by mapping base alone.
	LoadBase Addr
}

// ErrUnsupportedFormat is returned when path is not a recognized ELF,
// Mach-O, or PE object file.
var ErrUnsupportedFormat = fmt.Errorf("binutil: unsupported object file format")

// ErrMissingMandatorySymbol is returned by Introspect when none of the
// wanted symbols could be found and bss itself was also not found --
// i.e. the image carries no usable introspection anchor at all.
var ErrMissingMandatorySymbol = fmt.Errorf("binutil: missing bss and mandatory symbols")

// wantedSymbols is the fixed set of exported names InterpFinder cares
// about, named in spec.md's BinaryIntrospector contract.
var wantedSymbols = []string{"_PyRuntime", "_PyThreadState_Current", "Py_Version"}

// Introspect parses path's object-file headers and returns its bss/data
// section and the resolved addresses of the wanted symbol set.
func Introspect(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := f.ReadAt(magic, 0); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}

	var img *Image
	switch {
	case isELF(magic):
		img, err = introspectELF(f)
	case isMachO(magic) || isFatMachO(magic):
		img, err = introspectMachO(f)
	case isPE(magic):
		img, err = introspectPE(f)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	img.Path = path
	if img.Bss.Size == 0 && len(img.Symbols) == 0 {
		return nil, ErrMissingMandatorySymbol
	}
	return img, nil
}

func isELF(magic []byte) bool {
	return magic[0] == 0x7f && magic[1] == 'E' && magic[2] == 'L' && magic[3] == 'F'
}

func isMachO(magic []byte) bool {
	be := uint32(magic[0])<<24 | uint32(magic[1])<<16 | uint32(magic[2])<<8 | uint32(magic[3])
	switch be {
	case 0xfeedface, 0xfeedfacf, 0xcefaedfe, 0xcffaedfe:
		return true
	}
	return false
}

func isFatMachO(magic []byte) bool {
	be := uint32(magic[0])<<24 | uint32(magic[1])<<16 | uint32(magic[2])<<8 | uint32(magic[3])
	return be == 0xcafebabe || be == 0xbebafeca
}

func isPE(magic []byte) bool {
	return magic[0] == 'M' && magic[1] == 'Z'
}
