// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyproc

import (
	"encoding/binary"
	"fmt"

	"github.com/go-python-tools/pyintrospect/pyabi"
)

// detectVersion implements spec.md §4.4's two detection strategies in
// order: shell out to "<exe> -V", falling back to reading the exported
// Py_Version symbol if the executable path is unusable (e.g. a stripped
// static binary with no -V support reachable, or exePath unset because only
// a library was classified).
func (p *Process) detectVersion() (pyabi.Descriptor, error) {
	if p.exePath != "" {
		if d, err := pyabi.DetectFromExe(p.exePath); err == nil {
			return d, nil
		}
	}

	if img, err := p.introspectImage(); err == nil {
		if addr, ok := img.Symbols["Py_Version"]; ok {
			base := p.mappingBase(img.Path)
			buf, err := p.proc.ReadAt(translate(addr, img, base), 4)
			if err == nil {
				return pyabi.DetectFromSymbol(binary.LittleEndian.Uint32(buf))
			}
		}
	}

	return pyabi.Descriptor{}, fmt.Errorf("pyproc: could not detect interpreter version")
}
