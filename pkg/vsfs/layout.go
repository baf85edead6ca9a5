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

// Package vsfs describes the on-disk format of a VSFS image and loads it into
// an in-memory Image. The layout is fixed at compile time:
//
//	block 0       superblock
//	block 1       inode bitmap
//	block 2       data bitmap
//	blocks 3..7   inode table
//	blocks 8..63  data region
//
// All multi-byte fields are little-endian.
package vsfs

const (
	BlockSize        = 4096
	TotalBlocks      = 64
	InodeSize        = 256
	InodesPerBlock   = BlockSize / InodeSize
	InodeTableBlocks = 5
	InodeCount       = InodesPerBlock * InodeTableBlocks
	Magic            = 0xd34d

	SuperblockBlock  = 0
	InodeBitmapBlock = 1
	DataBitmapBlock  = 2
	InodeTableBlock  = 3
	FirstDataBlock   = 8
	DataBlockCount   = TotalBlocks - FirstDataBlock

	ImageSize = TotalBlocks * BlockSize
)

// IsValidPointer reports whether a block pointer is either unused (zero) or
// addresses a block of the data region.
func IsValidPointer(block uint32) bool {
	return block == 0 || IsDataBlock(block)
}

func IsDataBlock(block uint32) bool {
	return block >= FirstDataBlock && block < TotalBlocks
}

// DataIndex maps a data block number to its position in the data bitmap.
// The block must satisfy IsDataBlock.
func DataIndex(block uint32) int {
	return int(block - FirstDataBlock)
}

// DataBlock is the inverse of DataIndex.
func DataBlock(index int) uint32 {
	return uint32(index) + FirstDataBlock
}
