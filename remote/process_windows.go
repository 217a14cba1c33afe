// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows

package remote

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// windowsBackend reads the inferior's memory through a process handle
// opened with OpenProcess, per spec.md's MemReader contract ("process-
// handle read on Windows").
type windowsBackend struct {
	pid    int
	handle windows.Handle
}

func newBackend(pid int) (backend, error) {
	h, err := windows.OpenProcess(
		windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION,
		false, uint32(pid))
	if err != nil {
		if err == windows.ERROR_INVALID_PARAMETER {
			return nil, fmt.Errorf("%w: pid %d", ErrNoSuchProcess, pid)
		}
		return nil, fmt.Errorf("%w: OpenProcess pid %d: %v", ErrPermissionDenied, pid, err)
	}
	return &windowsBackend{pid: pid, handle: h}, nil
}

func (b *windowsBackend) close() error {
	return windows.CloseHandle(b.handle)
}

func (b *windowsBackend) readAt(addr Addr, n int) ([]byte, error) {
	buf := make([]byte, n)
	var nread uintptr
	err := windows.ReadProcessMemory(
		b.handle,
		uintptr(addr),
		&buf[0],
		uintptr(n),
		&nread,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: addr %s: %v", ErrOutOfBounds, addr, err)
	}
	if int(nread) != n {
		return nil, fmt.Errorf("%w: read %d of %d bytes at %s", ErrOutOfBounds, nread, n, addr)
	}
	return buf, nil
}

// refreshMaps enumerates loaded modules via the toolhelp snapshot, per
// spec.md's Windows ProcMap algorithm.
func (b *windowsBackend) refreshMaps() ([]Mapping, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(b.pid))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	defer windows.CloseHandle(snap)

	var me windows.ModuleEntry32
	me.Size = uint32(unsafe.Sizeof(me))
	var mappings []Mapping
	err = windows.Module32First(snap, &me)
	for err == nil {
		name := windows.UTF16ToString(me.ExePath[:])
		mappings = append(mappings, Mapping{
			Min:  Addr(uintptr(unsafe.Pointer(me.ModBaseAddr))),
			Max:  Addr(uintptr(unsafe.Pointer(me.ModBaseAddr)) + uintptr(me.ModBaseSize)),
			Perm: Read | Exec,
			Path: name,
		})
		err = windows.Module32Next(snap, &me)
	}
	return mappings, nil
}
