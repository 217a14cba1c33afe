// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package remote

import "errors"

// Sentinel errors a MemReader or ProcMap operation can classify its failure
// as. Callers use errors.Is against these.
var (
	ErrNoSuchProcess    = errors.New("remote: no such process")
	ErrPermissionDenied = errors.New("remote: permission denied")
	ErrOutOfBounds      = errors.New("remote: address out of bounds")
	ErrOther            = errors.New("remote: read failed")
)
