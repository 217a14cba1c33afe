// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package remote

import "os"

// A Process represents a read-only attachment to an already-running target
// process (the inferior), identified by PID. A Process is created by Attach
// and is valid until Close.
type Process struct {
	pid  int
	maps MapSet

	backend backend
}

// backend is the per-platform capability set named in DESIGN_NOTES.md:
// {read_memory, enumerate_ranges}. resolve_symbols lives in binutil, which
// operates on on-disk images rather than the live process.
type backend interface {
	readAt(addr Addr, n int) ([]byte, error)
	refreshMaps() ([]Mapping, error)
	close() error
}

// Attach opens a read-only handle to the process identified by pid.
func Attach(pid int) (*Process, error) {
	b, err := newBackend(pid)
	if err != nil {
		return nil, err
	}
	p := &Process{pid: pid, backend: b}
	if err := p.RefreshMaps(); err != nil {
		b.close()
		return nil, err
	}
	return p, nil
}

// Pid returns the inferior's process id.
func (p *Process) Pid() int {
	return p.pid
}

// Close releases the resources held by the attachment. It never affects the
// inferior itself.
func (p *Process) Close() error {
	return p.backend.close()
}

// ReadAt copies n bytes starting at addr from the inferior into a freshly
// allocated buffer. A short read (fewer than n bytes transferred) is an
// error: a partially read structure must never be returned, per the "No
// partial reads" invariant.
func (p *Process) ReadAt(addr Addr, n int) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	return p.backend.readAt(addr, n)
}

// RefreshMaps re-enumerates the inferior's VM ranges. It is called once at
// attach time and may be called again if the map is suspected stale (e.g.
// after InterpFinder fails all strategies).
func (p *Process) RefreshMaps() error {
	mappings, err := p.backend.refreshMaps()
	if err != nil {
		return err
	}
	p.maps.Set(mappings)
	return nil
}

// Maps returns the most recently read VM-range mappings, sorted by address.
func (p *Process) Maps() []Mapping {
	return p.maps.All()
}

// FindMapping returns the mapping containing addr, if any.
func (p *Process) FindMapping(addr Addr) (Mapping, bool) {
	return p.maps.Find(addr)
}

// Bounds returns the lowest and highest addresses among all known mappings.
func (p *Process) Bounds() (min, max Addr) {
	return p.maps.Bounds()
}

// processAlive reports whether os.FindProcess accepts pid. On Unix that
// always succeeds, so it does not tell a live process from an exited one.
func processAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	// os.FindProcess never fails on Unix; liveness is checked by signaling
	// with signal 0 in the platform-specific backend instead.
	return err == nil
}
