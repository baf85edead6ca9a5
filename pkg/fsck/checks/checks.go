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

// Package checks implements the five read-only consistency checks. Every
// check runs to completion and reports all of its findings.
package checks

import (
	"kubevirt.io/vsfsck/pkg/fsck/tracker"
	"kubevirt.io/vsfsck/pkg/log"
	"kubevirt.io/vsfsck/pkg/vsfs"
)

// RunAll runs every check against img, in order, and aggregates the results.
func RunAll(img *vsfs.Image, logger *log.FilteredLogger) Report {
	report := Report{
		Results: []Result{
			Superblock(img),
			InodeBitmap(img),
			DataBitmap(img),
			DuplicateBlocks(img),
			BadBlocks(img),
		},
	}
	for _, res := range report.Results {
		logger.V(3).Infof("check %s found %d inconsistencies", res.Check, res.Count())
	}
	return report
}

// Superblock compares every superblock field with its compiled value.
func Superblock(img *vsfs.Image) Result {
	res := newResult(CheckSuperblock)
	for _, field := range vsfs.SuperblockFields {
		actual := field.Get(&img.Superblock)
		if actual == field.Expected {
			continue
		}
		res.Findings = append(res.Findings, Finding{
			Kind:     KindSuperblockMismatch,
			Field:    field.Name,
			Expected: uint32Ptr(field.Expected),
			Actual:   uint32Ptr(actual),
		})
	}
	return res
}

// InodeBitmap compares the inode bitmap with the validity of every inode.
func InodeBitmap(img *vsfs.Image) Result {
	res := newResult(CheckInodeBitmap)
	for n := 0; n < vsfs.InodeCount; n++ {
		marked := img.InodeBitmap.Test(n)
		valid := img.IsInodeValid(n)
		switch {
		case marked && !valid:
			res.Findings = append(res.Findings, Finding{Kind: KindInodeMarkedButInvalid, Inode: intPtr(n)})
		case !marked && valid:
			res.Findings = append(res.Findings, Finding{Kind: KindInodeValidButUnmarked, Inode: intPtr(n)})
		}
	}
	return res
}

// DataBitmap compares the data bitmap with a freshly derived tracker.
func DataBitmap(img *vsfs.Image) Result {
	res := newResult(CheckDataBitmap)
	t, _ := tracker.Build(img)
	for i := 0; i < vsfs.DataBlockCount; i++ {
		block := vsfs.DataBlock(i)
		marked := img.DataBitmap.Test(i)
		referenced := t.IsReferenced(block)
		switch {
		case marked && !referenced:
			res.Findings = append(res.Findings, Finding{
				Kind:  KindBlockMarkedUnreferenced,
				Block: uint32Ptr(block),
			})
		case !marked && referenced:
			res.Findings = append(res.Findings, Finding{
				Kind:  KindBlockReferencedUnmarked,
				Block: uint32Ptr(block),
				Owner: intPtr(t.Owner(block)),
			})
		}
	}
	return res
}

// DuplicateBlocks reports every claim on a data block that an earlier valid
// inode (or an earlier pointer of the same inode) already owns.
func DuplicateBlocks(img *vsfs.Image) Result {
	res := newResult(CheckDuplicateBlocks)
	_, conflicts := tracker.Build(img)
	for _, c := range conflicts {
		res.Findings = append(res.Findings, Finding{
			Kind:    KindDuplicateBlock,
			Block:   uint32Ptr(c.Block),
			Owner:   intPtr(c.Owner),
			Inode:   intPtr(c.Claimant),
			Pointer: c.Pointer.String(),
		})
	}
	return res
}

// BadBlocks reports nonzero pointers of valid inodes that fall outside the
// data region.
func BadBlocks(img *vsfs.Image) Result {
	res := newResult(CheckBadBlocks)
	for _, n := range img.ValidInodes() {
		for _, p := range img.Inodes[n].Pointers() {
			if vsfs.IsValidPointer(p.Block) {
				continue
			}
			res.Findings = append(res.Findings, Finding{
				Kind:    KindBadBlock,
				Inode:   intPtr(n),
				Block:   uint32Ptr(p.Block),
				Pointer: p.Kind.String(),
			})
		}
	}
	return res
}
