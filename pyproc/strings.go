// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyproc

import (
	"encoding/binary"
	"fmt"

	"github.com/go-python-tools/pyintrospect/cache"
	"github.com/go-python-tools/pyintrospect/pyabi"
	"github.com/go-python-tools/pyintrospect/remote"
)

// maxStringLength is the hard cap spec.md §4.8 places on a decoded string:
// "Lengths > 4096 are rejected."
const maxStringLength = 4096

// readString decodes the PyUnicodeObject at addr, using strings as an
// address-keyed interning cache: a miss decodes and stores, a hit returns
// the cached value without touching the target again.
func readString(p *remote.Process, strings *cache.LRU, addr remote.Addr, desc *pyabi.Descriptor) (string, error) {
	if addr == 0 {
		return "", nil
	}
	if v, ok := strings.MaybeHit(cache.Key(addr)); ok {
		return v, nil
	}

	s, err := decodeUnicode(p, addr, desc)
	if err != nil {
		return "", err
	}
	strings.Store(cache.Key(addr), s)
	return s, nil
}

// unicodeKindMask/unicodeKindShift pick the 3-bit `kind` field out of
// PyASCIIObject's state byte (interned:2, kind:3, compact:1, ascii:1, from
// least-significant bit up), per python/string.h.
const (
	unicodeKindShift = 2
	unicodeKindMask  = 0x7
)

// decodeUnicode implements spec.md §4.8's string decoder: a compact ASCII
// unicode object is read as its PyASCIIObject preamble (validating
// state.kind==1, state.compact==1) followed by `length` bytes starting
// immediately after the preamble; a non-compact object is read by following
// its utf8 pointer and utf8_length, grounded on wzprof's pyUnicodeUTf8.
// state.kind != 1 (a 2- or 4-byte-per-character string) is rejected the way
// py_string.h's _string_from_raddr rejects it with ECODEFMT: this decoder
// only understands 1-byte-per-character data.
func decodeUnicode(p *remote.Process, addr remote.Addr, desc *pyabi.Descriptor) (string, error) {
	stateByte, err := readByte(p, addr.Add(desc.Unicode.StateByte))
	if err != nil {
		return "", fmt.Errorf("%w: unicode state byte: %v", ErrReadFailed, err)
	}

	kind := (stateByte >> unicodeKindShift) & unicodeKindMask
	if kind != 1 {
		return "", fmt.Errorf("%w: unicode object has unexpected kind %d", ErrDecodeFailed, kind)
	}

	compact := stateByte&(1<<5) != 0
	ascii := stateByte&(1<<6) != 0

	if compact && ascii {
		length, err := readInt32(p, addr.Add(desc.Unicode.Length))
		if err != nil {
			return "", fmt.Errorf("%w: unicode length: %v", ErrReadFailed, err)
		}
		if length < 0 || length > maxStringLength {
			return "", fmt.Errorf("%w: unicode length %d out of bounds", ErrDecodeFailed, length)
		}
		if length == 0 {
			return "", nil
		}
		buf, err := p.ReadAt(addr.Add(desc.Unicode.DataStart), int(length))
		if err != nil {
			return "", fmt.Errorf("%w: unicode data: %v", ErrReadFailed, err)
		}
		return string(buf), nil
	}

	utf8Ptr, err := readAddr(p, addr.Add(desc.Unicode.UTF8Ptr))
	if err != nil {
		return "", fmt.Errorf("%w: unicode utf8 pointer: %v", ErrReadFailed, err)
	}
	if utf8Ptr == 0 {
		return "", fmt.Errorf("%w: non-compact unicode object has no utf8 cache", ErrDecodeFailed)
	}
	length, err := readInt32(p, addr.Add(desc.Unicode.UTF8Len))
	if err != nil {
		return "", fmt.Errorf("%w: unicode utf8 length: %v", ErrReadFailed, err)
	}
	if length < 0 || length > maxStringLength {
		return "", fmt.Errorf("%w: unicode utf8 length %d out of bounds", ErrDecodeFailed, length)
	}
	if length == 0 {
		return "", nil
	}
	buf, err := p.ReadAt(utf8Ptr, int(length))
	if err != nil {
		return "", fmt.Errorf("%w: unicode utf8 data: %v", ErrReadFailed, err)
	}
	return string(buf), nil
}

// readBytesObject decodes a PyBytesObject at addr: ob_size bytes starting
// at ob_sval, per spec.md §4.8 ("Bytes objects are similar with an offset
// to ob_sval").
func readBytesObject(p *remote.Process, addr remote.Addr, desc *pyabi.Descriptor) ([]byte, error) {
	if addr == 0 {
		return nil, nil
	}
	size, err := readInt32(p, addr.Add(desc.Bytes.Size))
	if err != nil {
		return nil, fmt.Errorf("%w: bytes size: %v", ErrReadFailed, err)
	}
	if size < 0 || size > maxStringLength {
		return nil, fmt.Errorf("%w: bytes size %d out of bounds", ErrDecodeFailed, size)
	}
	if size == 0 {
		return nil, nil
	}
	return p.ReadAt(addr.Add(desc.Bytes.SvalData), int(size))
}

func readByte(p *remote.Process, addr remote.Addr) (byte, error) {
	buf, err := p.ReadAt(addr, 1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

func readInt32(p *remote.Process, addr remote.Addr) (int32, error) {
	buf, err := p.ReadAt(addr, 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.LittleEndian.Uint32(buf)), nil
}
