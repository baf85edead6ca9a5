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

// Package fsck drives a complete check and repair run over one image:
// load, check, ask, repair, persist and verify.
package fsck

import (
	"fmt"

	"kubevirt.io/vsfsck/pkg/fsck/checks"
	"kubevirt.io/vsfsck/pkg/fsck/repair"
	"kubevirt.io/vsfsck/pkg/log"
	"kubevirt.io/vsfsck/pkg/vsfs"
	"kubevirt.io/vsfsck/pkg/vsfs/device"
)

// Confirmer makes the single repair decision of a run. It is only consulted
// when the initial checks found something.
type Confirmer interface {
	Confirm(total int) (bool, error)
}

type ConfirmerFunc func(total int) (bool, error)

func (f ConfirmerFunc) Confirm(total int) (bool, error) {
	return f(total)
}

var (
	AlwaysRepair Confirmer = ConfirmerFunc(func(int) (bool, error) { return true, nil })
	NeverRepair  Confirmer = ConfirmerFunc(func(int) (bool, error) { return false, nil })
)

// Run is the outcome of Checker.Run.
type Run struct {
	Image   *vsfs.Image    `json:"-"`
	Initial checks.Report  `json:"initial"`
	Repair  *repair.Result `json:"repair,omitempty"`
	// Written lists the structures that reached the device.
	Written  []vsfs.Structure `json:"written,omitempty"`
	Verify   *checks.Report   `json:"verify,omitempty"`
	Declined bool             `json:"declined"`
}

// Residual returns the findings left at the end of the run.
func (r *Run) Residual() checks.Report {
	if r.Verify != nil {
		return *r.Verify
	}
	return r.Initial
}

func (r *Run) Consistent() bool {
	return r.Residual().Total() == 0
}

// ManualInterventionRequired is true when a repair ran and findings remain,
// or when the image has findings no repair pass can fix.
func (r *Run) ManualInterventionRequired() bool {
	if r.Verify != nil {
		return r.Verify.Total() > 0
	}
	return r.Initial.Unrepairable() > 0
}

type syncer interface {
	Sync() error
}

type Checker struct {
	dev       device.BlockDevice
	confirmer Confirmer
	onChecked func(checks.Report)
	logger    *log.FilteredLogger
}

func NewChecker(dev device.BlockDevice, confirmer Confirmer) *Checker {
	return &Checker{dev: dev, confirmer: confirmer, logger: log.Log}
}

// WithLogger makes every step of the run log through logger.
func (c *Checker) WithLogger(logger *log.FilteredLogger) *Checker {
	c.logger = logger
	return c
}

// OnInitialReport registers f to be called with the initial findings before
// the confirmer is consulted.
func (c *Checker) OnInitialReport(f func(checks.Report)) *Checker {
	c.onChecked = f
	return c
}

// Run performs one complete pass. Consistency findings never produce an
// error; I/O failures and confirmer errors do. On a write failure the
// returned Run still describes what was repaired and written so far.
func (c *Checker) Run() (*Run, error) {
	img, err := vsfs.Load(c.dev, c.logger)
	if err != nil {
		return nil, err
	}

	run := &Run{Image: img, Initial: checks.RunAll(img, c.logger)}
	if c.onChecked != nil {
		c.onChecked(run.Initial)
	}
	total := run.Initial.Total()
	if total == 0 {
		c.logger.V(2).Info("image is consistent")
		return run, nil
	}

	ok, err := c.confirmer.Confirm(total)
	if err != nil {
		return run, fmt.Errorf("failed to read repair decision: %v", err)
	}
	if !ok {
		c.logger.Infof("repair declined, %d inconsistencies left", total)
		run.Declined = true
		return run, nil
	}

	run.Repair = repair.All(img, c.logger)
	for _, s := range run.Repair.Changed() {
		if err := img.Persist(c.dev, c.logger, s); err != nil {
			c.logger.Reason(err).Error("image left partially repaired")
			return run, err
		}
		run.Written = append(run.Written, s)
	}
	if s, ok := c.dev.(syncer); ok && len(run.Written) > 0 {
		if err := s.Sync(); err != nil {
			return run, err
		}
	}

	verify := checks.RunAll(img, c.logger)
	run.Verify = &verify
	if verify.Total() > 0 {
		c.logger.Warningf("%d inconsistencies remain after repair", verify.Total())
	}
	return run, nil
}
