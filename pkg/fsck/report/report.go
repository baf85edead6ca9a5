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

// Package report renders the outcome of a run for humans (text) and for
// tools (JSON, YAML).
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"sigs.k8s.io/yaml"

	"kubevirt.io/vsfsck/pkg/fsck"
	"kubevirt.io/vsfsck/pkg/fsck/checks"
	"kubevirt.io/vsfsck/pkg/fsck/repair"
	"kubevirt.io/vsfsck/pkg/vsfs"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var Formats = []Format{FormatText, FormatJSON, FormatYAML}

func ParseFormat(s string) (Format, error) {
	for _, f := range Formats {
		if string(f) == strings.ToLower(s) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported output format %q, use one of text, json, yaml", s)
}

// Structured reports whether the format is meant for machines. Structured
// output is written once, at the end of a run.
func (f Format) Structured() bool {
	return f != FormatText
}

var checkTitles = map[checks.Check]string{
	checks.CheckSuperblock:      "Superblock",
	checks.CheckInodeBitmap:     "Inode bitmap",
	checks.CheckDataBitmap:      "Data bitmap",
	checks.CheckDuplicateBlocks: "Duplicate block references",
	checks.CheckBadBlocks:       "Bad block references",
}

var structureTitles = map[vsfs.Structure]string{
	vsfs.StructureSuperblock:  "superblock",
	vsfs.StructureInodeBitmap: "inode bitmap",
	vsfs.StructureDataBitmap:  "data bitmap",
}

// Summary condenses a run into its headline numbers.
type Summary struct {
	Findings                   int  `json:"findings"`
	Repaired                   int  `json:"repairedStructures"`
	Remaining                  int  `json:"remaining"`
	Consistent                 bool `json:"consistent"`
	ManualInterventionRequired bool `json:"manualInterventionRequired"`
}

func Summarize(run *fsck.Run) Summary {
	return Summary{
		Findings:                   run.Initial.Total(),
		Repaired:                   len(run.Written),
		Remaining:                  run.Residual().Total(),
		Consistent:                 run.Consistent(),
		ManualInterventionRequired: run.ManualInterventionRequired(),
	}
}

// Meta identifies a run.
type Meta struct {
	Image string `json:"image"`
	RunID string `json:"runID,omitempty"`
}

// Document is the structured form of a run.
type Document struct {
	Meta
	Summary Summary `json:"summary"`
	*fsck.Run
}

// WriteStructured renders the whole run as JSON or YAML.
func WriteStructured(w io.Writer, format Format, meta Meta, run *fsck.Run) error {
	doc := Document{Meta: meta, Summary: Summarize(run), Run: run}
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	default:
		return fmt.Errorf("format %q is not structured", format)
	}
	if err != nil {
		return fmt.Errorf("failed to render report: %v", err)
	}
	_, err = w.Write(data)
	return err
}

// WriteChecks renders the per-check findings and the total.
func WriteChecks(w io.Writer, title string, report checks.Report) {
	fmt.Fprintf(w, "\n### %s ###\n", title)
	for _, res := range report.Results {
		fmt.Fprintf(w, "\n%s\n", checkTitles[res.Check])
		for _, f := range res.Findings {
			fmt.Fprintf(w, "  ERROR: %s\n", f)
		}
		if res.Count() == 0 {
			fmt.Fprintln(w, "  ok")
		} else {
			fmt.Fprintf(w, "  %d %s\n", res.Count(), plural(res.Count(), "inconsistency", "inconsistencies"))
		}
	}
	fmt.Fprintf(w, "\nTotal inconsistencies found: %d\n", report.Total())
}

// WriteRepair renders what every repair pass changed and whether the
// structure was written.
func WriteRepair(w io.Writer, res *repair.Result, written []vsfs.Structure) {
	fmt.Fprintln(w, "\n### Repair ###")
	for _, p := range res.Passes {
		name := structureTitles[p.Structure]
		fmt.Fprintf(w, "\nFixing %s\n", name)
		if !p.Changed() {
			fmt.Fprintf(w, "  no %s fixes needed\n", name)
			continue
		}
		for _, c := range p.Changes {
			fmt.Fprintf(w, "  fixed %s\n", c)
		}
		if contains(written, p.Structure) {
			fmt.Fprintf(w, "  %s fixes written to disk\n", name)
		} else {
			fmt.Fprintf(w, "  %s fixes NOT written to disk\n", name)
		}
	}
}

// WriteText renders everything that follows the initial checks: the repair,
// the verification and the summary.
func WriteText(w io.Writer, run *fsck.Run) {
	if run.Repair != nil {
		WriteRepair(w, run.Repair, run.Written)
	}
	if run.Verify != nil {
		WriteChecks(w, "Verification", *run.Verify)
	}
	WriteSummary(w, run)
}

func WriteSummary(w io.Writer, run *fsck.Run) {
	s := Summarize(run)
	fmt.Fprintln(w, "\n### Summary ###")
	fmt.Fprintf(w, "Inconsistencies found:  %d\n", s.Findings)
	fmt.Fprintf(w, "Structures repaired:    %d\n", s.Repaired)
	fmt.Fprintf(w, "Inconsistencies left:   %d\n", s.Remaining)
	switch {
	case s.Consistent:
		fmt.Fprintln(w, "Filesystem is consistent.")
	case run.Declined:
		fmt.Fprintln(w, "Repair skipped, filesystem left unchanged.")
	}
	if s.ManualInterventionRequired {
		fmt.Fprintln(w, "Manual intervention required: duplicate or bad block references cannot be repaired automatically.")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func contains(structures []vsfs.Structure, s vsfs.Structure) bool {
	for _, candidate := range structures {
		if candidate == s {
			return true
		}
	}
	return false
}
