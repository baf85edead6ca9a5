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

package metrics_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"kubevirt.io/vsfsck/pkg/fsck"
	"kubevirt.io/vsfsck/pkg/fsck/checks"
	"kubevirt.io/vsfsck/pkg/fsck/metrics"
	"kubevirt.io/vsfsck/pkg/testutils"
)

// gauges flattens the gathered families into name{label=value,...} keys.
func gauges(c *metrics.Collector) map[string]float64 {
	families, err := c.Registry().Gather()
	Expect(err).ToNot(HaveOccurred())
	out := map[string]float64{}
	for _, family := range families {
		for _, m := range family.GetMetric() {
			out[key(family.GetName(), m.GetLabel())] = m.GetGauge().GetValue()
		}
	}
	return out
}

func key(name string, labels []*io_prometheus_client.LabelPair) string {
	k := name
	for _, l := range labels {
		k += "," + l.GetName() + "=" + l.GetValue()
	}
	return k
}

var _ = Describe("Metrics", func() {

	var collector *metrics.Collector

	BeforeEach(func() {
		collector = metrics.NewCollector()
	})

	It("should export initial and verification findings", func() {
		dev := testutils.NewImageBuilder().WithFile(0, 10).WithDataBit(10, false).WithFile(1, 70).Device()
		run, err := fsck.NewChecker(dev, fsck.AlwaysRepair).Run()
		Expect(err).ToNot(HaveOccurred())

		collector.Observe(run)
		values := gauges(collector)
		Expect(values).To(HaveKeyWithValue("vsfsck_findings,check=data-bitmap,phase=initial", 1.0))
		Expect(values).To(HaveKeyWithValue("vsfsck_findings,check=data-bitmap,phase=verify", 0.0))
		Expect(values).To(HaveKeyWithValue("vsfsck_findings,check=bad-blocks,phase=verify", 1.0))
		Expect(values).To(HaveKeyWithValue("vsfsck_repaired_structures", 1.0))
		Expect(values).To(HaveKeyWithValue("vsfsck_manual_intervention_required", 1.0))
	})

	It("should skip verification gauges when nothing was repaired", func() {
		dev := testutils.NewImageBuilder().WithInodeBit(4, true).Device()
		run, err := fsck.NewChecker(dev, fsck.NeverRepair).Run()
		Expect(err).ToNot(HaveOccurred())

		collector.Observe(run)
		values := gauges(collector)
		Expect(values).To(HaveKeyWithValue("vsfsck_findings,check=inode-bitmap,phase=initial", 1.0))
		Expect(values).ToNot(HaveKey("vsfsck_findings,check=inode-bitmap,phase=verify"))
		Expect(values).To(HaveKeyWithValue("vsfsck_repaired_structures", 0.0))
		Expect(values).To(HaveKeyWithValue("vsfsck_manual_intervention_required", 0.0))
	})

	It("should write a textfile", func() {
		dir, err := ioutil.TempDir("", "vsfsck-metrics")
		Expect(err).ToNot(HaveOccurred())
		defer os.RemoveAll(dir)

		run, err := fsck.NewChecker(testutils.NewImageBuilder().Device(), fsck.NeverRepair).Run()
		Expect(err).ToNot(HaveOccurred())
		collector.Observe(run)

		path := filepath.Join(dir, "vsfsck.prom")
		Expect(collector.WriteTextfile(path)).To(Succeed())
		data, err := ioutil.ReadFile(path)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`vsfsck_findings{check="superblock",phase="initial"} 0`))

		var parser expfmt.TextParser
		families, err := parser.TextToMetricFamilies(bytes.NewReader(data))
		Expect(err).ToNot(HaveOccurred())
		Expect(families).To(HaveKey("vsfsck_findings"))
		Expect(families).To(HaveKey("vsfsck_repaired_structures"))
		Expect(families["vsfsck_findings"].GetType()).To(Equal(io_prometheus_client.MetricType_GAUGE))
		Expect(families["vsfsck_findings"].GetMetric()).To(HaveLen(len(checks.AllChecks)))
	})
})
