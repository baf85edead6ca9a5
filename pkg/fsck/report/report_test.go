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

package report_test

import (
	"bytes"
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"sigs.k8s.io/yaml"

	"kubevirt.io/vsfsck/pkg/fsck"
	"kubevirt.io/vsfsck/pkg/fsck/report"
	"kubevirt.io/vsfsck/pkg/testutils"
	"kubevirt.io/vsfsck/pkg/vsfs"
)

var _ = Describe("Report", func() {

	runOn := func(builder *testutils.ImageBuilder, confirmer fsck.Confirmer) *fsck.Run {
		run, err := fsck.NewChecker(builder.Device(), confirmer).Run()
		Expect(err).ToNot(HaveOccurred())
		return run
	}

	DescribeTable("should parse output formats", func(in string, expected report.Format, valid bool) {
		f, err := report.ParseFormat(in)
		if !valid {
			Expect(err).To(HaveOccurred())
			return
		}
		Expect(err).ToNot(HaveOccurred())
		Expect(f).To(Equal(expected))
	},
		Entry("text", "text", report.FormatText, true),
		Entry("upper case json", "JSON", report.FormatJSON, true),
		Entry("yaml", "yaml", report.FormatYAML, true),
		Entry("unknown", "xml", report.Format(""), false),
	)

	Context("text", func() {

		It("should list every finding under its check", func() {
			run := runOn(testutils.NewImageBuilder().WithFile(1, 20).WithFile(2, 20, 64), fsck.NeverRepair)
			buf := &bytes.Buffer{}
			report.WriteChecks(buf, "Initial check", run.Initial)

			out := buf.String()
			Expect(out).To(ContainSubstring("### Initial check ###"))
			Expect(out).To(ContainSubstring("ERROR: Data block 20 is referenced by multiple inodes (1 and 2)"))
			Expect(out).To(ContainSubstring("ERROR: Inode 2 has invalid single indirect block pointer (64)"))
			Expect(out).To(ContainSubstring("Total inconsistencies found: 2"))
		})

		It("should show repairs and the summary", func() {
			run := runOn(testutils.NewImageBuilder().WithFile(0, 10).WithDataBit(10, false), fsck.AlwaysRepair)
			buf := &bytes.Buffer{}
			report.WriteText(buf, run)

			out := buf.String()
			Expect(out).To(ContainSubstring("no superblock fixes needed"))
			Expect(out).To(ContainSubstring("fixed block 10: 0 -> 1"))
			Expect(out).To(ContainSubstring("data bitmap fixes written to disk"))
			Expect(out).To(ContainSubstring("### Verification ###"))
			Expect(out).To(ContainSubstring("Filesystem is consistent."))
			Expect(out).ToNot(ContainSubstring("Manual intervention"))
		})

		It("should call for manual intervention", func() {
			run := runOn(testutils.NewImageBuilder().WithFile(3, 5), fsck.AlwaysRepair)
			buf := &bytes.Buffer{}
			report.WriteSummary(buf, run)
			Expect(buf.String()).To(ContainSubstring("Inconsistencies left:   1"))
			Expect(buf.String()).To(ContainSubstring("Manual intervention required"))
		})

		It("should mention a declined repair", func() {
			run := runOn(testutils.NewImageBuilder().WithInodeBit(2, true), fsck.NeverRepair)
			buf := &bytes.Buffer{}
			report.WriteText(buf, run)
			Expect(buf.String()).To(ContainSubstring("Repair skipped"))
			Expect(buf.String()).ToNot(ContainSubstring("### Repair ###"))
		})
	})

	Context("structured", func() {

		var run *fsck.Run
		meta := report.Meta{Image: "disk.img", RunID: "9b2f6c1e-3f64-4bd4-9a7e-2f1f0c8d6a55"}

		BeforeEach(func() {
			run = runOn(testutils.NewImageBuilder().
				WithFile(0, 10).
				WithDataBit(10, false).
				WithSuperblock(func(sb *vsfs.Superblock) { sb.TotalBlocks = 63 }), fsck.AlwaysRepair)
		})

		It("should render JSON", func() {
			buf := &bytes.Buffer{}
			Expect(report.WriteStructured(buf, report.FormatJSON, meta, run)).To(Succeed())

			var doc map[string]interface{}
			Expect(json.Unmarshal(buf.Bytes(), &doc)).To(Succeed())
			Expect(doc).To(HaveKeyWithValue("image", "disk.img"))
			Expect(doc).To(HaveKeyWithValue("runID", meta.RunID))
			Expect(doc).To(HaveKeyWithValue("written", ConsistOf("superblock", "data-bitmap")))
			Expect(doc).To(HaveKeyWithValue("declined", false))
			Expect(doc["summary"]).To(HaveKeyWithValue("findings", BeNumerically("==", 2)))
			Expect(doc["summary"]).To(HaveKeyWithValue("consistent", true))
		})

		It("should render YAML with the same content", func() {
			jsonBuf, yamlBuf := &bytes.Buffer{}, &bytes.Buffer{}
			Expect(report.WriteStructured(jsonBuf, report.FormatJSON, meta, run)).To(Succeed())
			Expect(report.WriteStructured(yamlBuf, report.FormatYAML, meta, run)).To(Succeed())

			converted, err := yaml.YAMLToJSON(yamlBuf.Bytes())
			Expect(err).ToNot(HaveOccurred())
			Expect(converted).To(MatchJSON(jsonBuf.Bytes()))
		})

		It("should refuse text", func() {
			Expect(report.WriteStructured(&bytes.Buffer{}, report.FormatText, meta, run)).ToNot(Succeed())
		})
	})
})
