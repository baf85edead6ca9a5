/*
 * This file is part of the KubeVirt project
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 * Copyright The KubeVirt Authors.
 *
 */

// Package tracker derives which data blocks are in use from the block
// pointers of valid inodes.
package tracker

import (
	"kubevirt.io/vsfsck/pkg/vsfs"
)

// NoOwner is the owner of an unclaimed data block.
const NoOwner = -1

// Conflict is a claim on a data block that another inode already owns.
type Conflict struct {
	Block    uint32
	Owner    int
	Claimant int
	Pointer  vsfs.PointerKind
}

// Tracker records, per data block, whether it is referenced and which inode
// claimed it first. Later claims never change the owner.
type Tracker struct {
	referenced [vsfs.DataBlockCount]bool
	owner      [vsfs.DataBlockCount]int
}

func New() *Tracker {
	t := &Tracker{}
	t.Reset()
	return t
}

// Reset returns the tracker to the empty state.
func (t *Tracker) Reset() {
	for i := range t.owner {
		t.referenced[i] = false
		t.owner[i] = NoOwner
	}
}

// Claim records inode as the owner of block if the block is unclaimed. If it
// is already claimed, the current owner is returned together with false.
// Blocks outside the data region are ignored and reported as claimed by
// nobody.
func (t *Tracker) Claim(inode int, block uint32) (owner int, claimed bool) {
	if !vsfs.IsDataBlock(block) {
		return NoOwner, false
	}
	idx := vsfs.DataIndex(block)
	if t.referenced[idx] {
		return t.owner[idx], false
	}
	t.referenced[idx] = true
	t.owner[idx] = inode
	return inode, true
}

func (t *Tracker) IsReferenced(block uint32) bool {
	if !vsfs.IsDataBlock(block) {
		return false
	}
	return t.referenced[vsfs.DataIndex(block)]
}

// Owner returns the inode that claimed block first, or NoOwner.
func (t *Tracker) Owner(block uint32) int {
	if !vsfs.IsDataBlock(block) {
		return NoOwner
	}
	return t.owner[vsfs.DataIndex(block)]
}

// Referenced returns the number of claimed data blocks.
func (t *Tracker) Referenced() int {
	n := 0
	for _, r := range t.referenced {
		if r {
			n++
		}
	}
	return n
}

// Build derives a tracker from scratch: valid inodes are visited in ascending
// order and their pointer fields in direct, single, double, triple order.
// Zero and out-of-range pointers are skipped. Every claim on an already owned
// block is returned as a conflict.
func Build(img *vsfs.Image) (*Tracker, []Conflict) {
	t := New()
	var conflicts []Conflict
	for _, n := range img.ValidInodes() {
		for _, p := range img.Inodes[n].Pointers() {
			if p.Block == 0 || !vsfs.IsDataBlock(p.Block) {
				continue
			}
			if owner, claimed := t.Claim(n, p.Block); !claimed {
				conflicts = append(conflicts, Conflict{
					Block:    p.Block,
					Owner:    owner,
					Claimant: n,
					Pointer:  p.Kind,
				})
			}
		}
	}
	return t, conflicts
}
