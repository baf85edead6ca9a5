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

package vsfs

import (
	"encoding/binary"
	"fmt"
)

// Byte offsets of the superblock fields. The magic is 16 bits wide, all
// other fields 32 bits, with no padding in between.
const (
	offMagic            = 0
	offBlockSize        = 2
	offTotalBlocks      = 6
	offInodeBitmapBlock = 10
	offDataBitmapBlock  = 14
	offInodeTableBlock  = 18
	offFirstDataBlock   = 22
	offInodeSize        = 26
	offInodeCount       = 30
	superblockFieldsEnd = 34
)

type Superblock struct {
	Magic            uint16
	BlockSize        uint32
	TotalBlocks      uint32
	InodeBitmapBlock uint32
	DataBitmapBlock  uint32
	InodeTableBlock  uint32
	FirstDataBlock   uint32
	InodeSize        uint32
	InodeCount       uint32

	// Reserved holds the remainder of the block, written back untouched.
	Reserved [BlockSize - superblockFieldsEnd]byte
}

// NewSuperblock returns a superblock describing the compiled layout.
func NewSuperblock() Superblock {
	return Superblock{
		Magic:            Magic,
		BlockSize:        BlockSize,
		TotalBlocks:      TotalBlocks,
		InodeBitmapBlock: InodeBitmapBlock,
		DataBitmapBlock:  DataBitmapBlock,
		InodeTableBlock:  InodeTableBlock,
		FirstDataBlock:   FirstDataBlock,
		InodeSize:        InodeSize,
		InodeCount:       InodeCount,
	}
}

func DecodeSuperblock(buf []byte) (Superblock, error) {
	var sb Superblock
	if len(buf) != BlockSize {
		return sb, fmt.Errorf("superblock buffer has %d bytes, expected %d", len(buf), BlockSize)
	}
	le := binary.LittleEndian
	sb.Magic = le.Uint16(buf[offMagic:])
	sb.BlockSize = le.Uint32(buf[offBlockSize:])
	sb.TotalBlocks = le.Uint32(buf[offTotalBlocks:])
	sb.InodeBitmapBlock = le.Uint32(buf[offInodeBitmapBlock:])
	sb.DataBitmapBlock = le.Uint32(buf[offDataBitmapBlock:])
	sb.InodeTableBlock = le.Uint32(buf[offInodeTableBlock:])
	sb.FirstDataBlock = le.Uint32(buf[offFirstDataBlock:])
	sb.InodeSize = le.Uint32(buf[offInodeSize:])
	sb.InodeCount = le.Uint32(buf[offInodeCount:])
	copy(sb.Reserved[:], buf[superblockFieldsEnd:])
	return sb, nil
}

func (sb *Superblock) Encode() []byte {
	buf := make([]byte, BlockSize)
	le := binary.LittleEndian
	le.PutUint16(buf[offMagic:], sb.Magic)
	le.PutUint32(buf[offBlockSize:], sb.BlockSize)
	le.PutUint32(buf[offTotalBlocks:], sb.TotalBlocks)
	le.PutUint32(buf[offInodeBitmapBlock:], sb.InodeBitmapBlock)
	le.PutUint32(buf[offDataBitmapBlock:], sb.DataBitmapBlock)
	le.PutUint32(buf[offInodeTableBlock:], sb.InodeTableBlock)
	le.PutUint32(buf[offFirstDataBlock:], sb.FirstDataBlock)
	le.PutUint32(buf[offInodeSize:], sb.InodeSize)
	le.PutUint32(buf[offInodeCount:], sb.InodeCount)
	copy(buf[superblockFieldsEnd:], sb.Reserved[:])
	return buf
}

// SuperblockField gives uniform access to one superblock field and the value
// the compiled layout expects in it.
type SuperblockField struct {
	Name     string
	Expected uint32
	Get      func(sb *Superblock) uint32
	Set      func(sb *Superblock, v uint32)
}

// FieldMagic names the magic field. Its values are conventionally shown in hex.
const FieldMagic = "magic"

// SuperblockFields lists every checked field in on-disk order.
var SuperblockFields = []SuperblockField{
	{
		Name:     FieldMagic,
		Expected: Magic,
		Get:      func(sb *Superblock) uint32 { return uint32(sb.Magic) },
		Set:      func(sb *Superblock, v uint32) { sb.Magic = uint16(v) },
	},
	{
		Name:     "block_size",
		Expected: BlockSize,
		Get:      func(sb *Superblock) uint32 { return sb.BlockSize },
		Set:      func(sb *Superblock, v uint32) { sb.BlockSize = v },
	},
	{
		Name:     "total_blocks",
		Expected: TotalBlocks,
		Get:      func(sb *Superblock) uint32 { return sb.TotalBlocks },
		Set:      func(sb *Superblock, v uint32) { sb.TotalBlocks = v },
	},
	{
		Name:     "inode_bitmap_block",
		Expected: InodeBitmapBlock,
		Get:      func(sb *Superblock) uint32 { return sb.InodeBitmapBlock },
		Set:      func(sb *Superblock, v uint32) { sb.InodeBitmapBlock = v },
	},
	{
		Name:     "data_bitmap_block",
		Expected: DataBitmapBlock,
		Get:      func(sb *Superblock) uint32 { return sb.DataBitmapBlock },
		Set:      func(sb *Superblock, v uint32) { sb.DataBitmapBlock = v },
	},
	{
		Name:     "inode_table_block",
		Expected: InodeTableBlock,
		Get:      func(sb *Superblock) uint32 { return sb.InodeTableBlock },
		Set:      func(sb *Superblock, v uint32) { sb.InodeTableBlock = v },
	},
	{
		Name:     "first_data_block",
		Expected: FirstDataBlock,
		Get:      func(sb *Superblock) uint32 { return sb.FirstDataBlock },
		Set:      func(sb *Superblock, v uint32) { sb.FirstDataBlock = v },
	},
	{
		Name:     "inode_size",
		Expected: InodeSize,
		Get:      func(sb *Superblock) uint32 { return sb.InodeSize },
		Set:      func(sb *Superblock, v uint32) { sb.InodeSize = v },
	},
	{
		Name:     "inode_count",
		Expected: InodeCount,
		Get:      func(sb *Superblock) uint32 { return sb.InodeCount },
		Set:      func(sb *Superblock, v uint32) { sb.InodeCount = v },
	},
}

// LookupSuperblockField returns the field with the given name.
func LookupSuperblockField(name string) (SuperblockField, bool) {
	for _, f := range SuperblockFields {
		if f.Name == name {
			return f, true
		}
	}
	return SuperblockField{}, false
}
