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

package checks

import (
	"fmt"

	"kubevirt.io/vsfsck/pkg/vsfs"
)

type Check string

const (
	CheckSuperblock      Check = "superblock"
	CheckInodeBitmap     Check = "inode-bitmap"
	CheckDataBitmap      Check = "data-bitmap"
	CheckDuplicateBlocks Check = "duplicate-blocks"
	CheckBadBlocks       Check = "bad-blocks"
)

// AllChecks lists the checks in the order they run.
var AllChecks = []Check{
	CheckSuperblock,
	CheckInodeBitmap,
	CheckDataBitmap,
	CheckDuplicateBlocks,
	CheckBadBlocks,
}

// Repairable reports whether findings of the check are fixed by the repair
// passes. Duplicate and bad block references need manual intervention.
func (c Check) Repairable() bool {
	return c != CheckDuplicateBlocks && c != CheckBadBlocks
}

type Kind string

const (
	KindSuperblockMismatch      Kind = "SuperblockFieldMismatch"
	KindInodeMarkedButInvalid   Kind = "InodeMarkedButInvalid"
	KindInodeValidButUnmarked   Kind = "InodeValidButUnmarked"
	KindBlockMarkedUnreferenced Kind = "DataBlockMarkedButUnreferenced"
	KindBlockReferencedUnmarked Kind = "DataBlockReferencedButUnmarked"
	KindDuplicateBlock          Kind = "DuplicateBlockReference"
	KindBadBlock                Kind = "BadBlockPointer"
)

// Finding is a single inconsistency. Only the fields relevant for its Kind
// are set.
type Finding struct {
	Kind Kind `json:"kind"`
	// Field is the superblock field name.
	Field    string  `json:"field,omitempty"`
	Expected *uint32 `json:"expected,omitempty"`
	Actual   *uint32 `json:"actual,omitempty"`
	// Inode is the inode the finding is about, or the later claimant of a
	// duplicate block.
	Inode *int `json:"inode,omitempty"`
	// Owner is the inode that claimed a block first.
	Owner *int `json:"owner,omitempty"`
	// Block is a data block number or, for bad blocks, the raw pointer value.
	Block   *uint32 `json:"block,omitempty"`
	Pointer string  `json:"pointer,omitempty"`
}

func (f Finding) String() string {
	switch f.Kind {
	case KindSuperblockMismatch:
		if f.Field == vsfs.FieldMagic {
			return fmt.Sprintf("Invalid %s: 0x%X (should be 0x%X)", f.Field, *f.Actual, *f.Expected)
		}
		return fmt.Sprintf("Invalid %s: %d (should be %d)", f.Field, *f.Actual, *f.Expected)
	case KindInodeMarkedButInvalid:
		return fmt.Sprintf("Inode %d marked as used in bitmap but is not valid", *f.Inode)
	case KindInodeValidButUnmarked:
		return fmt.Sprintf("Inode %d is valid but marked as free in bitmap", *f.Inode)
	case KindBlockMarkedUnreferenced:
		return fmt.Sprintf("Data block %d marked as used in bitmap but not referenced by any inode", *f.Block)
	case KindBlockReferencedUnmarked:
		return fmt.Sprintf("Data block %d is referenced by inode %d but marked as free in bitmap", *f.Block, *f.Owner)
	case KindDuplicateBlock:
		return fmt.Sprintf("Data block %d is referenced by multiple inodes (%d and %d)", *f.Block, *f.Owner, *f.Inode)
	case KindBadBlock:
		return fmt.Sprintf("Inode %d has invalid %s block pointer (%d)", *f.Inode, f.Pointer, *f.Block)
	}
	return string(f.Kind)
}

// Result holds the findings of one check.
type Result struct {
	Check    Check     `json:"check"`
	Findings []Finding `json:"findings"`
}

// newResult starts an empty result. Findings is never nil so that clean
// checks serialize as an empty list.
func newResult(c Check) Result {
	return Result{Check: c, Findings: []Finding{}}
}

func (r Result) Count() int {
	return len(r.Findings)
}

// Report aggregates the results of all checks.
type Report struct {
	Results []Result `json:"results"`
}

func (r Report) Total() int {
	total := 0
	for _, res := range r.Results {
		total += res.Count()
	}
	return total
}

// Result returns the result of the given check. A check that did not run
// has no findings.
func (r Report) Result(c Check) Result {
	for _, res := range r.Results {
		if res.Check == c {
			return res
		}
	}
	return newResult(c)
}

// Unrepairable counts the findings no repair pass can fix.
func (r Report) Unrepairable() int {
	n := 0
	for _, res := range r.Results {
		if !res.Check.Repairable() {
			n += res.Count()
		}
	}
	return n
}

func uint32Ptr(v uint32) *uint32 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
