// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build darwin

package remote

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// darwinBackend reads the inferior's memory through a Mach task port
// obtained via task_for_pid, mirroring the BSD-derived "task-port read"
// primitive named in spec.md's MemReader contract. golang.org/x/sys/unix
// does not expose mach_vm_read_overwrite directly (it is a Mach trap, not a
// BSD syscall), so task_for_pid and mach_vm_read_overwrite are called
// through cgo (mach_darwin.go). A task_for_pid failure, the common case of
// SIP-restricted task ports on modern macOS, is reported as
// ErrPermissionDenied; a failed read is reported as ErrOutOfBounds.
type darwinBackend struct {
	pid  int
	task uint32
}

func newBackend(pid int) (backend, error) {
	if err := unix.Kill(pid, 0); err != nil {
		return nil, fmt.Errorf("%w: pid %d", ErrNoSuchProcess, pid)
	}
	task, err := taskForPid(pid)
	if err != nil {
		return nil, fmt.Errorf("%w: task_for_pid %d: %v", ErrPermissionDenied, pid, err)
	}
	return &darwinBackend{pid: pid, task: task}, nil
}

func (b *darwinBackend) close() error { return nil }

func (b *darwinBackend) readAt(addr Addr, n int) ([]byte, error) {
	buf, err := machVMReadOverwrite(b.task, uintptr(addr), n)
	if err != nil {
		return nil, fmt.Errorf("%w: addr %s: %v", ErrOutOfBounds, addr, err)
	}
	return buf, nil
}

// refreshMaps walks mach_vm_region starting at address zero, per
// spec.md's Mac ProcMap algorithm.
func (b *darwinBackend) refreshMaps() ([]Mapping, error) {
	return machVMRegions(b.task)
}
