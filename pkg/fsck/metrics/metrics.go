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

// Package metrics exports the outcome of a run in the Prometheus text format,
// suitable for the node exporter textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"kubevirt.io/vsfsck/pkg/fsck"
	"kubevirt.io/vsfsck/pkg/fsck/checks"
)

// Metrics namespace, keys and label values.
const (
	Namespace             = "vsfsck"
	FindingsKey           = "findings"
	RepairedKey           = "repaired_structures"
	ManualInterventionKey = "manual_intervention_required"

	PhaseInitial = "initial"
	PhaseVerify  = "verify"
)

type Collector struct {
	registry           *prometheus.Registry
	findings           *prometheus.GaugeVec
	repaired           prometheus.Gauge
	manualIntervention prometheus.Gauge
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		findings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      FindingsKey,
			Help:      "Number of inconsistencies found by a check.",
		}, []string{"check", "phase"}),
		repaired: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      RepairedKey,
			Help:      "Number of metadata structures rewritten by the last run.",
		}),
		manualIntervention: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      ManualInterventionKey,
			Help:      "1 if the image has inconsistencies that cannot be repaired automatically.",
		}),
	}
	c.registry.MustRegister(c.findings, c.repaired, c.manualIntervention)
	return c
}

// Observe records a finished run. Verification gauges are only set when a
// verification pass ran.
func (c *Collector) Observe(run *fsck.Run) {
	c.observeReport(PhaseInitial, run.Initial)
	if run.Verify != nil {
		c.observeReport(PhaseVerify, *run.Verify)
	}
	c.repaired.Set(float64(len(run.Written)))
	if run.ManualInterventionRequired() {
		c.manualIntervention.Set(1)
	} else {
		c.manualIntervention.Set(0)
	}
}

func (c *Collector) observeReport(phase string, report checks.Report) {
	for _, res := range report.Results {
		c.findings.WithLabelValues(string(res.Check), phase).Set(float64(res.Count()))
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile atomically replaces path with the current values.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.registry)
}
