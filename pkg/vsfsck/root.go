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

package vsfsck

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"kubevirt.io/vsfsck/pkg/fsck"
	"kubevirt.io/vsfsck/pkg/fsck/checks"
	"kubevirt.io/vsfsck/pkg/fsck/metrics"
	"kubevirt.io/vsfsck/pkg/fsck/report"
	"kubevirt.io/vsfsck/pkg/log"
	"kubevirt.io/vsfsck/pkg/vsfs"
	"kubevirt.io/vsfsck/pkg/vsfs/device"
	"kubevirt.io/vsfsck/pkg/vsfsck/templates"
)

const (
	DefaultImage = "vsfs.img"

	programName = "vsfsck"
)

type checkOptions struct {
	yes             bool
	noRepair        bool
	output          string
	metricsTextfile string
	verbosity       int
}

func NewVsfsckCommand() *cobra.Command {
	o := &checkOptions{}
	rootCmd := &cobra.Command{
		Use:   "vsfsck [IMAGE]",
		Short: "vsfsck checks and repairs the metadata of a VSFS image.",
		Long: `vsfsck checks and repairs the metadata of a VSFS image.

The superblock, the inode bitmap and the data bitmap are validated against the
inode table. Duplicate and out of range block references are reported as well,
but can only be fixed by hand. Unless --yes or --no-repair is given, the
operator is asked once whether the repairable inconsistencies should be fixed.

An image file named like a subcommand (mkfs, version, help) has to be given
with a path, for example ./mkfs.`,
		Example:       usage(),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return log.Log.SetVerbosityLevel(o.verbosity)
		},
		RunE: o.run,
	}

	rootCmd.PersistentFlags().IntVarP(&o.verbosity, "v", "v", 2, "log level for V logs")
	rootCmd.Flags().BoolVarP(&o.yes, "yes", "y", false, "repair without asking")
	rootCmd.Flags().BoolVarP(&o.noRepair, "no-repair", "n", false, "only check, open the image read-only and never ask")
	rootCmd.Flags().StringVarP(&o.output, "output", "o", string(report.FormatText), "report format, one of text, json, yaml")
	rootCmd.Flags().StringVar(&o.metricsTextfile, "metrics-textfile", "", "write findings as Prometheus metrics to this file")

	templates.ActsAsRootCommand(rootCmd, programName)
	rootCmd.AddCommand(
		NewMkfsCommand(),
		NewVersionCommand(),
	)
	return rootCmd
}

func usage() string {
	return `  # Check vsfs.img in the current directory and ask before repairing:
  {{ProgramName}}

  # Check an image without modifying it, as JSON:
  {{ProgramName}} --no-repair -o json /var/lib/images/disk.img

  # Repair without asking and export metrics:
  {{ProgramName}} --yes --metrics-textfile /var/lib/node_exporter/vsfsck.prom disk.img

  # Check an image file called "version" in the current directory:
  {{ProgramName}} ./version`
}

func (o *checkOptions) run(cmd *cobra.Command, args []string) error {
	if o.yes && o.noRepair {
		return fmt.Errorf("--yes and --no-repair are mutually exclusive")
	}
	format, err := report.ParseFormat(o.output)
	if err != nil {
		return err
	}

	path := DefaultImage
	if len(args) == 1 {
		path = args[0]
	}
	meta := report.Meta{Image: path, RunID: uuid.New().String()}
	logger := log.Log.Image(path).With("run", meta.RunID)

	dev, err := device.Open(path, vsfs.BlockSize, o.noRepair)
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			logger.Reason(err).Error("failed to close image")
		}
	}()

	out := cmd.OutOrStdout()
	promptOut := out
	if format.Structured() {
		promptOut = cmd.ErrOrStderr()
	}

	var confirmer fsck.Confirmer
	switch {
	case o.noRepair:
		confirmer = fsck.NeverRepair
	case o.yes:
		confirmer = fsck.AlwaysRepair
	default:
		confirmer = NewPrompter(cmd.InOrStdin(), promptOut, logger)
	}

	checker := fsck.NewChecker(dev, confirmer).WithLogger(logger)
	if !format.Structured() {
		fmt.Fprintf(out, "Checking %s\n", path)
		checker.OnInitialReport(func(r checks.Report) {
			report.WriteChecks(out, "Consistency check", r)
		})
	}

	logger.V(2).Info("starting check")
	run, err := checker.Run()
	if err != nil {
		if run != nil && run.Repair != nil && !format.Structured() {
			report.WriteRepair(out, run.Repair, run.Written)
		}
		return err
	}

	if format.Structured() {
		if err := report.WriteStructured(out, format, meta, run); err != nil {
			return err
		}
	} else {
		report.WriteText(out, run)
	}

	if o.metricsTextfile != "" {
		collector := metrics.NewCollector()
		collector.Observe(run)
		if err := collector.WriteTextfile(o.metricsTextfile); err != nil {
			return fmt.Errorf("failed to write metrics to %s: %v", o.metricsTextfile, err)
		}
	}
	return nil
}

func Execute() {
	log.InitializeLogging(programName)
	if err := NewVsfsckCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
