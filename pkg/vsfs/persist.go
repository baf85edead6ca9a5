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

package vsfs

import (
	"fmt"

	"github.com/pkg/errors"

	"kubevirt.io/vsfsck/pkg/log"
	"kubevirt.io/vsfsck/pkg/vsfs/device"
)

// Structure names a repairable metadata structure. Each one occupies exactly
// one block.
type Structure int

const (
	StructureSuperblock Structure = iota
	StructureInodeBitmap
	StructureDataBitmap
)

var structureNames = map[Structure]string{
	StructureSuperblock:  "superblock",
	StructureInodeBitmap: "inode-bitmap",
	StructureDataBitmap:  "data-bitmap",
}

func (s Structure) String() string {
	if name, ok := structureNames[s]; ok {
		return name
	}
	return fmt.Sprintf("structure(%d)", int(s))
}

func (s Structure) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Block returns the block number the structure is stored in.
func (s Structure) Block() uint32 {
	switch s {
	case StructureSuperblock:
		return SuperblockBlock
	case StructureInodeBitmap:
		return InodeBitmapBlock
	case StructureDataBitmap:
		return DataBitmapBlock
	}
	panic(fmt.Sprintf("unknown structure %d", int(s)))
}

func (img *Image) encodeStructure(s Structure) []byte {
	switch s {
	case StructureSuperblock:
		return img.Superblock.Encode()
	case StructureInodeBitmap:
		return img.InodeBitmap
	case StructureDataBitmap:
		return img.DataBitmap
	}
	panic(fmt.Sprintf("unknown structure %d", int(s)))
}

// Persist writes the given structures back to dev, in order. Writing stops at
// the first failure; structures written before it stay written.
func (img *Image) Persist(dev device.BlockDevice, logger *log.FilteredLogger, structures ...Structure) error {
	for _, s := range structures {
		if err := dev.WriteBlock(s.Block(), img.encodeStructure(s)); err != nil {
			return errors.Wrapf(err, "persisting %s", s)
		}
		logger.Block(s.Block(), s.String()).V(2).Info("wrote structure")
	}
	return nil
}

// WriteAll writes every block of the image to dev, including a zeroed data
// region.
func (img *Image) WriteAll(dev device.BlockDevice) error {
	data := img.Encode()
	for b := 0; b < TotalBlocks; b++ {
		if err := dev.WriteBlock(uint32(b), data[b*BlockSize:(b+1)*BlockSize]); err != nil {
			return errors.Wrapf(err, "writing block %d", b)
		}
	}
	return nil
}
