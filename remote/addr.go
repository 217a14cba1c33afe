// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package remote provides read-only access to the memory and address-space
// map of an already-running process (the "inferior"), identified only by its
// PID. It never writes to the inferior and never stops it.
package remote

import "fmt"

// Addr is a virtual address in the inferior's address space. It carries no
// type information; the caller interprets the bytes it names.
type Addr uintptr

// Add returns a+n.
func (a Addr) Add(n int64) Addr {
	return Addr(int64(a) + n)
}

// Sub returns a-b.
func (a Addr) Sub(b Addr) int64 {
	return int64(a) - int64(b)
}

func (a Addr) String() string {
	return fmt.Sprintf("0x%x", uintptr(a))
}

// A Perm represents the permissions on a Mapping.
type Perm uint8

const (
	Read Perm = 1 << iota
	Write
	Exec
)

func (p Perm) String() string {
	var s string
	if p&Read != 0 {
		s += "r"
	} else {
		s += "-"
	}
	if p&Write != 0 {
		s += "w"
	} else {
		s += "-"
	}
	if p&Exec != 0 {
		s += "x"
	} else {
		s += "-"
	}
	return s
}
