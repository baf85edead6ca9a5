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
	"github.com/pkg/errors"

	"kubevirt.io/vsfsck/pkg/log"
	"kubevirt.io/vsfsck/pkg/vsfs/device"
)

// Image is the in-memory model of every metadata structure of a VSFS image.
// Checks read it, repairs mutate it and Persist writes parts of it back.
type Image struct {
	Superblock  Superblock
	InodeBitmap Bitmap
	DataBitmap  Bitmap
	Inodes      [InodeCount]Inode
}

// NewImage returns a consistent, empty image.
func NewImage() *Image {
	return &Image{
		Superblock:  NewSuperblock(),
		InodeBitmap: NewBitmap(),
		DataBitmap:  NewBitmap(),
	}
}

// Load reads the superblock, both bitmaps and the inode table from dev.
func Load(dev device.BlockDevice, logger *log.FilteredLogger) (*Image, error) {
	img := &Image{}
	buf := make([]byte, BlockSize)

	if err := dev.ReadBlock(SuperblockBlock, buf); err != nil {
		return nil, errors.Wrap(err, "loading superblock")
	}
	sb, err := DecodeSuperblock(buf)
	if err != nil {
		return nil, err
	}
	img.Superblock = sb

	img.InodeBitmap = NewBitmap()
	if err := dev.ReadBlock(InodeBitmapBlock, img.InodeBitmap); err != nil {
		return nil, errors.Wrap(err, "loading inode bitmap")
	}
	img.DataBitmap = NewBitmap()
	if err := dev.ReadBlock(DataBitmapBlock, img.DataBitmap); err != nil {
		return nil, errors.Wrap(err, "loading data bitmap")
	}

	for b := 0; b < InodeTableBlocks; b++ {
		if err := dev.ReadBlock(uint32(InodeTableBlock+b), buf); err != nil {
			return nil, errors.Wrapf(err, "loading inode table block %d", b)
		}
		for slot := 0; slot < InodesPerBlock; slot++ {
			in, err := DecodeInode(buf[slot*InodeSize : (slot+1)*InodeSize])
			if err != nil {
				return nil, err
			}
			img.Inodes[b*InodesPerBlock+slot] = in
		}
	}

	logger.V(3).Infof("loaded image: magic=0x%x, %d valid inodes", img.Superblock.Magic, len(img.ValidInodes()))
	return img, nil
}

// IsInodeValid reports whether inode number n is in use.
func (img *Image) IsInodeValid(n int) bool {
	return img.Inodes[n].IsValid()
}

// ValidInodes returns the numbers of all valid inodes in ascending order.
func (img *Image) ValidInodes() []int {
	valid := make([]int, 0, InodeCount)
	for n := range img.Inodes {
		if img.Inodes[n].IsValid() {
			valid = append(valid, n)
		}
	}
	return valid
}

// EncodeInodeTableBlock serializes the b-th block of the inode table.
func (img *Image) EncodeInodeTableBlock(b int) []byte {
	buf := make([]byte, BlockSize)
	for slot := 0; slot < InodesPerBlock; slot++ {
		in := &img.Inodes[b*InodesPerBlock+slot]
		in.EncodeTo(buf[slot*InodeSize : (slot+1)*InodeSize])
	}
	return buf
}

// Encode renders the whole image, with a zeroed data region.
func (img *Image) Encode() []byte {
	out := make([]byte, ImageSize)
	copy(out[SuperblockBlock*BlockSize:], img.Superblock.Encode())
	copy(out[InodeBitmapBlock*BlockSize:], img.InodeBitmap)
	copy(out[DataBitmapBlock*BlockSize:], img.DataBitmap)
	for b := 0; b < InodeTableBlocks; b++ {
		copy(out[(InodeTableBlock+b)*BlockSize:], img.EncodeInodeTableBlock(b))
	}
	return out
}

// Clone returns a deep copy.
func (img *Image) Clone() *Image {
	c := *img
	c.InodeBitmap = img.InodeBitmap.Clone()
	c.DataBitmap = img.DataBitmap.Clone()
	return &c
}
