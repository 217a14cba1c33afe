// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pyabi

import (
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
)

var versionRE = regexp.MustCompile(`Python (\d+)\.(\d+)\.(\d+)`)

// DetectFromExe shells out to "<exe> -V" and parses "Python X.Y.Z", per
// spec.md's VersionTable detection strategy (a).
func DetectFromExe(exe string) (Descriptor, error) {
	out, err := exec.Command(exe, "-V").CombinedOutput()
	if err != nil {
		return Descriptor{}, fmt.Errorf("pyabi: %s -V: %w", exe, err)
	}
	m := versionRE.FindSubmatch(out)
	if m == nil {
		return Descriptor{}, fmt.Errorf("pyabi: could not parse version from %q", bytes.TrimSpace(out))
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	return resolve(major, minor)
}

// DetectFromSymbol decodes the 32-bit hex-encoded Py_Version global, per
// spec.md's VersionTable detection strategy (b): "if the binary exports a
// Py_Version symbol, read it and decode the 32-bit hex version." The
// encoding matches CPython's patchlevel.h: byte 3 is major, byte 2 is
// minor (see other_examples' wzprof supportedPython, which decodes the
// same field for its own version gate).
func DetectFromSymbol(versionHex uint32) (Descriptor, error) {
	major := int((versionHex >> 24) & 0xFF)
	minor := int((versionHex >> 16) & 0xFF)
	return resolve(major, minor)
}

func resolve(major, minor int) (Descriptor, error) {
	d, ok := Select(major, minor)
	if !ok {
		return Descriptor{}, fmt.Errorf("pyabi: unsupported CPython version %d.%d", major, minor)
	}
	return d, nil
}
