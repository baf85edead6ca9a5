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

// Package repair rewrites the superblock and both bitmaps of an in-memory
// image so that they agree with the compiled layout and the inode table.
// Inode pointers are never modified; duplicate and out-of-range references
// survive a repair.
package repair

import (
	"fmt"

	"kubevirt.io/vsfsck/pkg/fsck/tracker"
	"kubevirt.io/vsfsck/pkg/log"
	"kubevirt.io/vsfsck/pkg/vsfs"
)

// Change is one modified value. Subject is a superblock field name, an inode
// number or a data block number depending on the pass.
type Change struct {
	Subject string `json:"subject"`
	Old     uint32 `json:"old"`
	New     uint32 `json:"new"`
}

func (c Change) String() string {
	return fmt.Sprintf("%s: %d -> %d", c.Subject, c.Old, c.New)
}

// PassResult describes what a single repair pass did.
type PassResult struct {
	Structure vsfs.Structure `json:"structure"`
	Changes   []Change       `json:"changes"`
}

func (p PassResult) Changed() bool {
	return len(p.Changes) > 0
}

// Result aggregates the three passes in the order they ran.
type Result struct {
	Passes []PassResult `json:"passes"`
}

// Changed returns the structures that were modified and need to be
// persisted, in pass order.
func (r *Result) Changed() []vsfs.Structure {
	var changed []vsfs.Structure
	for _, p := range r.Passes {
		if p.Changed() {
			changed = append(changed, p.Structure)
		}
	}
	return changed
}

// All runs the superblock, inode bitmap and data bitmap passes on img.
func All(img *vsfs.Image, logger *log.FilteredLogger) *Result {
	res := &Result{
		Passes: []PassResult{
			Superblock(img),
			InodeBitmap(img),
			DataBitmap(img),
		},
	}
	for _, p := range res.Passes {
		if p.Changed() {
			logger.V(2).Infof("repaired %s: %d changes", p.Structure, len(p.Changes))
		} else {
			logger.V(3).Infof("%s needs no repair", p.Structure)
		}
	}
	return res
}

// Superblock resets every field that differs from the compiled layout. The
// reserved area is left alone.
func Superblock(img *vsfs.Image) PassResult {
	res := PassResult{Structure: vsfs.StructureSuperblock}
	for _, field := range vsfs.SuperblockFields {
		old := field.Get(&img.Superblock)
		if old == field.Expected {
			continue
		}
		field.Set(&img.Superblock, field.Expected)
		res.Changes = append(res.Changes, Change{Subject: field.Name, Old: old, New: field.Expected})
	}
	return res
}

// InodeBitmap sets the bit of every inode slot to its validity.
func InodeBitmap(img *vsfs.Image) PassResult {
	res := PassResult{Structure: vsfs.StructureInodeBitmap}
	for n := 0; n < vsfs.InodeCount; n++ {
		want := img.IsInodeValid(n)
		if img.InodeBitmap.Test(n) == want {
			continue
		}
		img.InodeBitmap.Set(n, want)
		res.Changes = append(res.Changes, bitChange(fmt.Sprintf("inode %d", n), want))
	}
	return res
}

// DataBitmap sets the bit of every data block to whether a valid inode
// references it.
func DataBitmap(img *vsfs.Image) PassResult {
	res := PassResult{Structure: vsfs.StructureDataBitmap}
	t, _ := tracker.Build(img)
	for i := 0; i < vsfs.DataBlockCount; i++ {
		block := vsfs.DataBlock(i)
		want := t.IsReferenced(block)
		if img.DataBitmap.Test(i) == want {
			continue
		}
		img.DataBitmap.Set(i, want)
		res.Changes = append(res.Changes, bitChange(fmt.Sprintf("block %d", block), want))
	}
	return res
}

func bitChange(subject string, set bool) Change {
	if set {
		return Change{Subject: subject, Old: 0, New: 1}
	}
	return Change{Subject: subject, Old: 1, New: 0}
}
