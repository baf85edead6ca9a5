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

	"github.com/spf13/cobra"

	"kubevirt.io/vsfsck/pkg/log"
	"kubevirt.io/vsfsck/pkg/vsfs"
	"kubevirt.io/vsfsck/pkg/vsfs/device"
)

type mkfs struct {
	force bool
}

func NewMkfsCommand() *cobra.Command {
	m := &mkfs{}
	cmd := &cobra.Command{
		Use:   "mkfs [IMAGE]",
		Short: "Create an empty, consistent VSFS image.",
		Example: `  # Create vsfs.img in the current directory:
  {{ProgramName}} mkfs

  # Replace an existing image:
  {{ProgramName}} mkfs --force disk.img`,
		Args: cobra.MaximumNArgs(1),
		RunE: m.run,
	}
	cmd.Flags().BoolVar(&m.force, "force", false, "overwrite an existing file")
	return cmd
}

func (m *mkfs) run(cmd *cobra.Command, args []string) error {
	path := DefaultImage
	if len(args) == 1 {
		path = args[0]
	}

	dev, err := device.Create(path, vsfs.BlockSize, m.force)
	if err != nil {
		return err
	}
	if err := vsfs.NewImage().WriteAll(dev); err != nil {
		dev.Close()
		return err
	}
	if err := dev.Sync(); err != nil {
		dev.Close()
		return err
	}
	if err := dev.Close(); err != nil {
		return err
	}

	log.Log.Image(path).V(2).Info("created image")
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s: %d blocks of %d bytes, %d inodes\n", path, vsfs.TotalBlocks, vsfs.BlockSize, vsfs.InodeCount)
	return nil
}
