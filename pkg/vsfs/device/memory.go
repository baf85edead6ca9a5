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

package device

import (
	"github.com/pkg/errors"
)

// MemoryDevice keeps a whole image in memory. Reads and writes past the end
// of the buffer are partial transfers.
type MemoryDevice struct {
	data      []byte
	blockSize int
	writes    []uint32
}

func NewMemoryDevice(data []byte, blockSize int) *MemoryDevice {
	return &MemoryDevice{data: data, blockSize: blockSize}
}

func (m *MemoryDevice) ReadBlock(num uint32, buf []byte) error {
	start, err := m.bounds(num, buf)
	if err != nil {
		return errors.Wrapf(err, "failed to read block %d", num)
	}
	copy(buf, m.data[start:])
	return nil
}

func (m *MemoryDevice) WriteBlock(num uint32, buf []byte) error {
	start, err := m.bounds(num, buf)
	if err != nil {
		return errors.Wrapf(err, "failed to write block %d", num)
	}
	copy(m.data[start:], buf)
	m.writes = append(m.writes, num)
	return nil
}

// Bytes returns the backing buffer.
func (m *MemoryDevice) Bytes() []byte {
	return m.data
}

// Writes returns the block numbers written so far, in order.
func (m *MemoryDevice) Writes() []uint32 {
	return m.writes
}

func (m *MemoryDevice) bounds(num uint32, buf []byte) (int, error) {
	if len(buf) != m.blockSize {
		return 0, errors.Errorf("buffer of %d bytes does not match block size %d", len(buf), m.blockSize)
	}
	start := int(num) * m.blockSize
	if start+m.blockSize > len(m.data) {
		return 0, ErrShortTransfer
	}
	return start, nil
}
