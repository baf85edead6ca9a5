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

// inodeFieldsEnd is the size of the fourteen 32 bit fields at the start of
// every inode record.
const inodeFieldsEnd = 14 * 4

type PointerKind int

const (
	PointerDirect PointerKind = iota
	PointerSingleIndirect
	PointerDoubleIndirect
	PointerTripleIndirect
)

var pointerKindNames = map[PointerKind]string{
	PointerDirect:         "direct",
	PointerSingleIndirect: "single indirect",
	PointerDoubleIndirect: "double indirect",
	PointerTripleIndirect: "triple indirect",
}

func (k PointerKind) String() string {
	if name, ok := pointerKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("pointer(%d)", int(k))
}

// Pointer is one block pointer field of an inode. Every field, including the
// indirect ones, addresses exactly one data block.
type Pointer struct {
	Kind  PointerKind
	Block uint32
}

type Inode struct {
	Mode           uint32
	UID            uint32
	GID            uint32
	Size           uint32
	Atime          uint32
	Ctime          uint32
	Mtime          uint32
	Dtime          uint32
	LinksCount     uint32
	BlocksCount    uint32
	Direct         uint32
	SingleIndirect uint32
	DoubleIndirect uint32
	TripleIndirect uint32

	Reserved [InodeSize - inodeFieldsEnd]byte
}

// IsValid reports whether the inode is in use: it has at least one link and
// was never deleted.
func (in *Inode) IsValid() bool {
	return in.LinksCount > 0 && in.Dtime == 0
}

// Pointers returns the four block pointer fields in check order.
func (in *Inode) Pointers() [4]Pointer {
	return [4]Pointer{
		{Kind: PointerDirect, Block: in.Direct},
		{Kind: PointerSingleIndirect, Block: in.SingleIndirect},
		{Kind: PointerDoubleIndirect, Block: in.DoubleIndirect},
		{Kind: PointerTripleIndirect, Block: in.TripleIndirect},
	}
}

func (in *Inode) fields() []*uint32 {
	return []*uint32{
		&in.Mode, &in.UID, &in.GID, &in.Size,
		&in.Atime, &in.Ctime, &in.Mtime, &in.Dtime,
		&in.LinksCount, &in.BlocksCount,
		&in.Direct, &in.SingleIndirect, &in.DoubleIndirect, &in.TripleIndirect,
	}
}

func DecodeInode(buf []byte) (Inode, error) {
	var in Inode
	if len(buf) != InodeSize {
		return in, fmt.Errorf("inode buffer has %d bytes, expected %d", len(buf), InodeSize)
	}
	for i, f := range in.fields() {
		*f = binary.LittleEndian.Uint32(buf[i*4:])
	}
	copy(in.Reserved[:], buf[inodeFieldsEnd:])
	return in, nil
}

// EncodeTo serializes the inode into buf, which must be InodeSize long.
func (in *Inode) EncodeTo(buf []byte) {
	for i, f := range in.fields() {
		binary.LittleEndian.PutUint32(buf[i*4:], *f)
	}
	copy(buf[inodeFieldsEnd:InodeSize], in.Reserved[:])
}
