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

package checks_test

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"kubevirt.io/vsfsck/pkg/fsck/checks"
	"kubevirt.io/vsfsck/pkg/log"
	"kubevirt.io/vsfsck/pkg/testutils"
	"kubevirt.io/vsfsck/pkg/vsfs"
)

func messages(res checks.Result) []string {
	out := make([]string, 0, len(res.Findings))
	for _, f := range res.Findings {
		out = append(out, f.String())
	}
	return out
}

var _ = Describe("Checks", func() {

	var builder *testutils.ImageBuilder

	BeforeEach(func() {
		builder = testutils.NewImageBuilder()
	})

	It("should find nothing on a fresh image", func() {
		report := checks.RunAll(builder.Build(), log.Log)
		Expect(report.Total()).To(Equal(0))
		Expect(report.Results).To(HaveLen(len(checks.AllChecks)))
		for i, res := range report.Results {
			Expect(res.Check).To(Equal(checks.AllChecks[i]))
		}
	})

	It("should find nothing on a consistent populated image", func() {
		builder.WithFile(0, 8, 9, 10, 11).WithFile(17, 63).WithFile(79, 30, 0, 31)
		Expect(checks.RunAll(builder.Build(), log.Log).Total()).To(Equal(0))
	})

	Context("superblock", func() {

		It("should report every mismatching field", func() {
			builder.WithSuperblock(func(sb *vsfs.Superblock) {
				sb.Magic = 0x1234
				sb.InodeCount = 81
			})
			res := checks.Superblock(builder.Build())
			Expect(messages(res)).To(Equal([]string{
				"Invalid magic: 0x1234 (should be 0xD34D)",
				"Invalid inode_count: 81 (should be 80)",
			}))
			Expect(*res.Findings[1].Expected).To(Equal(uint32(80)))
			Expect(*res.Findings[1].Actual).To(Equal(uint32(81)))
		})

		It("should ignore the reserved area", func() {
			builder.WithSuperblock(func(sb *vsfs.Superblock) {
				sb.Reserved[0] = 0xff
			})
			Expect(checks.Superblock(builder.Build()).Count()).To(Equal(0))
		})
	})

	Context("inode bitmap", func() {

		It("should report marked but invalid inodes", func() {
			builder.WithInodeBit(5, true)
			res := checks.InodeBitmap(builder.Build())
			Expect(res.Findings).To(HaveLen(1))
			Expect(res.Findings[0].Kind).To(Equal(checks.KindInodeMarkedButInvalid))
			Expect(*res.Findings[0].Inode).To(Equal(5))
		})

		It("should treat a deleted inode as invalid", func() {
			builder.WithInode(6, vsfs.Inode{LinksCount: 2, Dtime: 1000}).WithInodeBit(6, true)
			res := checks.InodeBitmap(builder.Build())
			Expect(messages(res)).To(ConsistOf("Inode 6 marked as used in bitmap but is not valid"))
		})

		It("should report valid but unmarked inodes", func() {
			builder.WithFile(0).WithInodeBit(0, false)
			res := checks.InodeBitmap(builder.Build())
			Expect(messages(res)).To(ConsistOf("Inode 0 is valid but marked as free in bitmap"))
		})

		It("should ignore bits beyond the inode count", func() {
			builder.WithInodeBit(vsfs.InodeCount, true)
			Expect(checks.InodeBitmap(builder.Build()).Count()).To(Equal(0))
		})
	})

	Context("data bitmap", func() {

		It("should index the bitmap relative to the first data block", func() {
			img := builder.WithFile(0, 10).Build()
			Expect(img.DataBitmap.Test(2)).To(BeTrue())
			Expect(img.DataBitmap.Test(10)).To(BeFalse())
			Expect(checks.DataBitmap(img).Count()).To(Equal(0))
		})

		It("should report marked but unreferenced blocks", func() {
			builder.WithDataBit(40, true)
			res := checks.DataBitmap(builder.Build())
			Expect(messages(res)).To(ConsistOf("Data block 40 marked as used in bitmap but not referenced by any inode"))
		})

		It("should report referenced but unmarked blocks with their owner", func() {
			builder.WithFile(3, 12).WithFile(4, 0, 12).WithDataBit(12, false)
			res := checks.DataBitmap(builder.Build())
			Expect(res.Findings).To(HaveLen(1))
			Expect(*res.Findings[0].Owner).To(Equal(3))
			Expect(res.Findings[0].String()).To(Equal("Data block 12 is referenced by inode 3 but marked as free in bitmap"))
		})

		It("should not count blocks of invalid inodes as referenced", func() {
			builder.WithInode(9, vsfs.Inode{Direct: 15}).WithDataBit(15, true)
			res := checks.DataBitmap(builder.Build())
			Expect(res.Findings).To(HaveLen(1))
			Expect(res.Findings[0].Kind).To(Equal(checks.KindBlockMarkedUnreferenced))
		})
	})

	Context("duplicate blocks", func() {

		It("should report the first owner and the later claimant", func() {
			builder.WithFile(1, 20).WithFile(2, 20)
			res := checks.DuplicateBlocks(builder.Build())
			Expect(messages(res)).To(Equal([]string{
				"Data block 20 is referenced by multiple inodes (1 and 2)",
			}))
			Expect(res.Findings[0].Pointer).To(Equal("direct"))
		})

		It("should report one finding per extra claim", func() {
			builder.WithFile(1, 20).WithFile(2, 20).WithFile(3, 0, 20)
			res := checks.DuplicateBlocks(builder.Build())
			Expect(messages(res)).To(Equal([]string{
				"Data block 20 is referenced by multiple inodes (1 and 2)",
				"Data block 20 is referenced by multiple inodes (1 and 3)",
			}))
		})

		It("should not be affected by the data bitmap", func() {
			builder.WithFile(1, 20).WithFile(2, 20).WithDataBit(20, false)
			Expect(checks.DuplicateBlocks(builder.Build()).Count()).To(Equal(1))
		})
	})

	Context("bad blocks", func() {

		DescribeTable("should classify pointer values", func(pointer uint32, bad bool) {
			builder.WithFile(7, pointer)
			res := checks.BadBlocks(builder.Build())
			if bad {
				Expect(res.Findings).To(HaveLen(1))
				Expect(*res.Findings[0].Block).To(Equal(pointer))
			} else {
				Expect(res.Findings).To(BeEmpty())
			}
		},
			Entry("unused", uint32(0), false),
			Entry("data bitmap block", uint32(2), true),
			Entry("last inode table block", uint32(7), true),
			Entry("first data block", uint32(8), false),
			Entry("last data block", uint32(63), false),
			Entry("one past the end", uint32(64), true),
			Entry("way out of range", uint32(0xdeadbeef), true),
		)

		It("should name the offending pointer field", func() {
			builder.WithFile(2, 8, 100, 9, 5)
			res := checks.BadBlocks(builder.Build())
			Expect(messages(res)).To(Equal([]string{
				"Inode 2 has invalid single indirect block pointer (100)",
				"Inode 2 has invalid triple indirect block pointer (5)",
			}))
		})

		It("should skip invalid inodes", func() {
			builder.WithInode(4, vsfs.Inode{Direct: 1000})
			Expect(checks.BadBlocks(builder.Build()).Count()).To(Equal(0))
		})
	})

	Context("report", func() {

		It("should count unrepairable findings separately", func() {
			builder.WithFile(1, 20).WithFile(2, 20, 99).WithInodeBit(50, true)
			report := checks.RunAll(builder.Build(), log.Log)
			Expect(report.Result(checks.CheckInodeBitmap).Count()).To(Equal(1))
			Expect(report.Result(checks.CheckDuplicateBlocks).Count()).To(Equal(1))
			Expect(report.Result(checks.CheckBadBlocks).Count()).To(Equal(1))
			Expect(report.Total()).To(Equal(3))
			Expect(report.Unrepairable()).To(Equal(2))
		})

		It("should keep inode zero when serialized", func() {
			builder.WithFile(0).WithInodeBit(0, false)
			data, err := json.Marshal(checks.InodeBitmap(builder.Build()).Findings[0])
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(MatchJSON(`{"kind":"InodeValidButUnmarked","inode":0}`))
		})

		It("should serialize clean checks with an empty findings list", func() {
			report := checks.RunAll(builder.Build(), log.Log)
			for _, res := range report.Results {
				data, err := json.Marshal(res)
				Expect(err).ToNot(HaveOccurred())
				Expect(string(data)).To(MatchJSON(`{"check":"` + string(res.Check) + `","findings":[]}`))
			}

			data, err := json.Marshal(checks.Report{}.Result(checks.CheckBadBlocks))
			Expect(err).ToNot(HaveOccurred())
			Expect(string(data)).To(MatchJSON(`{"check":"bad-blocks","findings":[]}`))
		})
	})
})
