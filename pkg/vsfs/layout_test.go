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

package vsfs_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"kubevirt.io/vsfsck/pkg/vsfs"
)

var _ = Describe("Layout", func() {

	It("should describe a 64 block image with 80 inodes", func() {
		Expect(vsfs.InodesPerBlock).To(Equal(16))
		Expect(vsfs.InodeCount).To(Equal(80))
		Expect(vsfs.DataBlockCount).To(Equal(56))
		Expect(vsfs.ImageSize).To(Equal(64 * 4096))
	})

	DescribeTable("should validate pointers", func(block uint32, valid bool) {
		Expect(vsfs.IsValidPointer(block)).To(Equal(valid))
	},
		Entry("zero", uint32(0), true),
		Entry("inode bitmap block", uint32(1), false),
		Entry("last metadata block", uint32(7), false),
		Entry("first data block", uint32(8), true),
		Entry("last data block", uint32(63), true),
		Entry("past the end", uint32(64), false),
	)

	It("should map data blocks to bitmap indexes", func() {
		Expect(vsfs.DataIndex(8)).To(Equal(0))
		Expect(vsfs.DataIndex(10)).To(Equal(2))
		Expect(vsfs.DataBlock(55)).To(Equal(uint32(63)))
		for i := 0; i < vsfs.DataBlockCount; i++ {
			Expect(vsfs.DataIndex(vsfs.DataBlock(i))).To(Equal(i))
		}
	})

	Context("bitmap", func() {

		It("should store bits least significant first", func() {
			b := vsfs.NewBitmap()
			Expect(b).To(HaveLen(vsfs.BlockSize))
			b.Set(0, true)
			b.Set(9, true)
			b.Set(15, true)
			Expect(b[0]).To(Equal(byte(0x01)))
			Expect(b[1]).To(Equal(byte(0x82)))

			b.Set(9, false)
			Expect(b[1]).To(Equal(byte(0x80)))
			Expect(b.Test(15)).To(BeTrue())
			Expect(b.Test(9)).To(BeFalse())
		})

		It("should clone independently", func() {
			b := vsfs.NewBitmap()
			c := b.Clone()
			c.Set(3, true)
			Expect(b.Test(3)).To(BeFalse())
		})
	})

	Context("superblock", func() {

		It("should decode fields at their packed offsets", func() {
			buf := make([]byte, vsfs.BlockSize)
			le := binary.LittleEndian
			le.PutUint16(buf[0:], 0xd34d)
			for i, v := range []uint32{4096, 64, 1, 2, 3, 8, 256, 80} {
				le.PutUint32(buf[2+4*i:], v)
			}
			buf[34] = 0xaa
			buf[vsfs.BlockSize-1] = 0xbb

			sb, err := vsfs.DecodeSuperblock(buf)
			Expect(err).ToNot(HaveOccurred())
			expected := vsfs.NewSuperblock()
			expected.Reserved[0] = 0xaa
			expected.Reserved[len(expected.Reserved)-1] = 0xbb
			Expect(sb).To(Equal(expected))
			Expect(sb.Encode()).To(Equal(buf))
		})

		It("should keep a wrong field in place", func() {
			sb := vsfs.NewSuperblock()
			sb.InodeCount = 0x01020304
			buf := sb.Encode()
			Expect(buf[30:34]).To(Equal([]byte{0x04, 0x03, 0x02, 0x01}))
		})

		It("should reject short buffers", func() {
			_, err := vsfs.DecodeSuperblock(make([]byte, 34))
			Expect(err).To(HaveOccurred())
		})

		It("should look fields up by name", func() {
			f, ok := vsfs.LookupSuperblockField("first_data_block")
			Expect(ok).To(BeTrue())
			Expect(f.Expected).To(Equal(uint32(8)))
			_, ok = vsfs.LookupSuperblockField("reserved")
			Expect(ok).To(BeFalse())
			Expect(vsfs.SuperblockFields).To(HaveLen(9))
		})
	})

	Context("inode", func() {

		It("should decode the fourteen fields in order", func() {
			buf := make([]byte, vsfs.InodeSize)
			for i := 0; i < 14; i++ {
				binary.LittleEndian.PutUint32(buf[i*4:], uint32(i+1))
			}
			buf[vsfs.InodeSize-1] = 0x7f

			in, err := vsfs.DecodeInode(buf)
			Expect(err).ToNot(HaveOccurred())
			Expect(in.Mode).To(Equal(uint32(1)))
			Expect(in.Dtime).To(Equal(uint32(8)))
			Expect(in.LinksCount).To(Equal(uint32(9)))
			Expect(in.Direct).To(Equal(uint32(11)))
			Expect(in.TripleIndirect).To(Equal(uint32(14)))
			Expect(in.Reserved[len(in.Reserved)-1]).To(Equal(byte(0x7f)))

			out := make([]byte, vsfs.InodeSize)
			in.EncodeTo(out)
			Expect(out).To(Equal(buf))
		})

		DescribeTable("should be valid only when linked and not deleted", func(links, dtime uint32, valid bool) {
			in := vsfs.Inode{LinksCount: links, Dtime: dtime}
			Expect(in.IsValid()).To(Equal(valid))
		},
			Entry("linked", uint32(1), uint32(0), true),
			Entry("unlinked", uint32(0), uint32(0), false),
			Entry("deleted", uint32(3), uint32(1700000000), false),
			Entry("unlinked and deleted", uint32(0), uint32(5), false),
		)

		It("should list the pointers in check order", func() {
			in := vsfs.Inode{Direct: 8, SingleIndirect: 9, DoubleIndirect: 10, TripleIndirect: 11}
			p := in.Pointers()
			Expect(p[0]).To(Equal(vsfs.Pointer{Kind: vsfs.PointerDirect, Block: 8}))
			Expect(p[3]).To(Equal(vsfs.Pointer{Kind: vsfs.PointerTripleIndirect, Block: 11}))
			Expect(p[1].Kind.String()).To(Equal("single indirect"))
		})
	})
})
