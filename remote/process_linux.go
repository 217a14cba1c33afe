// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package remote

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// linuxBackend reads the inferior's memory with process_vm_readv, the same
// scatter-read primitive the teacher's ptracePeek wraps syscall.PtracePeekText
// with (program/server/ptrace.go); process_vm_readv is preferred here because
// it needs no PTRACE_ATTACH and so does not stop the inferior, matching the
// "never stops it" invariant.
type linuxBackend struct {
	pid int
}

func newBackend(pid int) (backend, error) {
	if err := unix.Kill(pid, 0); err != nil {
		if err == syscall.ESRCH {
			return nil, fmt.Errorf("%w: pid %d", ErrNoSuchProcess, pid)
		}
		if err == syscall.EPERM {
			return nil, fmt.Errorf("%w: pid %d", ErrPermissionDenied, pid)
		}
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	return &linuxBackend{pid: pid}, nil
}

func (b *linuxBackend) close() error { return nil }

func (b *linuxBackend) readAt(addr Addr, n int) ([]byte, error) {
	buf := make([]byte, n)
	local := []unix.Iovec{{Base: &buf[0], Len: uint64(n)}}
	remoteIov := []unix.RemoteIovec{{Base: uintptr(addr), Len: n}}
	got, err := unix.ProcessVMReadv(b.pid, local, remoteIov, 0)
	if err != nil {
		switch err {
		case syscall.ESRCH:
			return nil, fmt.Errorf("%w: pid %d", ErrNoSuchProcess, b.pid)
		case syscall.EPERM:
			return nil, fmt.Errorf("%w: addr %s", ErrPermissionDenied, addr)
		case syscall.EFAULT, syscall.EIO:
			return nil, fmt.Errorf("%w: addr %s len %d", ErrOutOfBounds, addr, n)
		default:
			return nil, fmt.Errorf("%w: %v", ErrOther, err)
		}
	}
	if got != n {
		return nil, fmt.Errorf("%w: read %d of %d bytes at %s", ErrOutOfBounds, got, n, addr)
	}
	return buf, nil
}

// refreshMaps parses /proc/<pid>/maps. Each line looks like:
//
//	55d2b1d4d000-55d2b1d7a000 r--p 00000000 08:01 123456  /usr/bin/python3.11
//
// Entries with no path are anonymous (candidate heap/bss regions). "[v*]"
// pseudo-maps are dropped by parseMapsLine; the "[heap]" pseudo-path is kept
// and classified by the caller (pyproc), which knows which candidates are
// Python-relevant.
func (b *linuxBackend) refreshMaps() ([]Mapping, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", b.pid))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: pid %d", ErrNoSuchProcess, b.pid)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: pid %d", ErrPermissionDenied, b.pid)
		}
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	defer f.Close()

	var mappings []Mapping
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		m, ok := parseMapsLine(sc.Text())
		if ok {
			mappings = append(mappings, m)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOther, err)
	}
	return mappings, nil
}

func parseMapsLine(line string) (Mapping, bool) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return Mapping{}, false
	}
	rng := strings.SplitN(fields[0], "-", 2)
	if len(rng) != 2 {
		return Mapping{}, false
	}
	lo, err1 := strconv.ParseUint(rng[0], 16, 64)
	hi, err2 := strconv.ParseUint(rng[1], 16, 64)
	if err1 != nil || err2 != nil {
		return Mapping{}, false
	}
	perms := fields[1]
	var perm Perm
	if strings.Contains(perms, "r") {
		perm |= Read
	}
	if strings.Contains(perms, "w") {
		perm |= Write
	}
	if strings.Contains(perms, "x") {
		perm |= Exec
	}
	off, _ := strconv.ParseInt(fields[2], 16, 64)
	var path string
	if len(fields) >= 6 {
		path = fields[5]
	}
	if strings.HasPrefix(path, "[v") && strings.HasSuffix(path, "]") {
		// [vdso], [vsyscall], [vvar]: not real mappings of the inferior.
		return Mapping{}, false
	}
	return Mapping{
		Min:    Addr(lo),
		Max:    Addr(hi),
		Perm:   perm,
		Path:   path,
		Offset: off,
	}, true
}
