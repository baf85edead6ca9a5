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

package testutils

import (
	"kubevirt.io/vsfsck/pkg/vsfs"
	"kubevirt.io/vsfsck/pkg/vsfs/device"
)

// ImageBuilder assembles synthetic images for tests. It starts from a
// consistent empty image; WithFile keeps it consistent, the other With*
// methods allow introducing inconsistencies on purpose.
type ImageBuilder struct {
	img *vsfs.Image
}

func NewImageBuilder() *ImageBuilder {
	return &ImageBuilder{img: vsfs.NewImage()}
}

// NewFile returns a valid inode whose pointer fields are set from pointers,
// in direct, single, double, triple order.
func NewFile(pointers ...uint32) vsfs.Inode {
	in := vsfs.Inode{Mode: 0100644, LinksCount: 1}
	fields := []*uint32{&in.Direct, &in.SingleIndirect, &in.DoubleIndirect, &in.TripleIndirect}
	for i, p := range pointers {
		*fields[i] = p
	}
	in.BlocksCount = uint32(len(pointers))
	return in
}

// WithFile stores a valid inode and marks it and every data block it points
// to in the bitmaps.
func (b *ImageBuilder) WithFile(n int, pointers ...uint32) *ImageBuilder {
	b.img.Inodes[n] = NewFile(pointers...)
	b.img.InodeBitmap.Set(n, true)
	for _, p := range pointers {
		if vsfs.IsDataBlock(p) {
			b.img.DataBitmap.Set(vsfs.DataIndex(p), true)
		}
	}
	return b
}

// WithInode stores the inode without touching the bitmaps.
func (b *ImageBuilder) WithInode(n int, in vsfs.Inode) *ImageBuilder {
	b.img.Inodes[n] = in
	return b
}

func (b *ImageBuilder) WithInodeBit(n int, used bool) *ImageBuilder {
	b.img.InodeBitmap.Set(n, used)
	return b
}

func (b *ImageBuilder) WithDataBit(block uint32, used bool) *ImageBuilder {
	b.img.DataBitmap.Set(vsfs.DataIndex(block), used)
	return b
}

func (b *ImageBuilder) WithSuperblock(mutate func(sb *vsfs.Superblock)) *ImageBuilder {
	mutate(&b.img.Superblock)
	return b
}

// Build returns a copy of the image built so far.
func (b *ImageBuilder) Build() *vsfs.Image {
	return b.img.Clone()
}

func (b *ImageBuilder) Bytes() []byte {
	return b.img.Encode()
}

// Device returns an in-memory device holding the encoded image.
func (b *ImageBuilder) Device() *device.MemoryDevice {
	return device.NewMemoryDevice(b.Bytes(), vsfs.BlockSize)
}
