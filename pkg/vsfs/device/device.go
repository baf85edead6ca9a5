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

//go:generate mockgen -source $GOFILE -package=$GOPACKAGE -destination=generated_mock_$GOFILE

package device

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ErrShortTransfer is returned when a block could only be read or written
// partially. A partial transfer is never retried.
var ErrShortTransfer = errors.New("partial block transfer")

// ErrLocked is returned when another process holds a conflicting lock on the
// image file.
var ErrLocked = errors.New("image is in use by another process")

// BlockDevice reads and writes whole fixed-size blocks.
type BlockDevice interface {
	ReadBlock(num uint32, buf []byte) error
	WriteBlock(num uint32, buf []byte) error
}

type FileDevice struct {
	file      *os.File
	path      string
	blockSize int
	readOnly  bool
}

// Open opens an existing image file. A read-only device rejects writes.
func Open(path string, blockSize int, readOnly bool) (*FileDevice, error) {
	var (
		f   *os.File
		err error
	)
	if readOnly {
		f, err = os.Open(path)
	} else {
		f, err = os.OpenFile(path, os.O_RDWR, 0)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open image %s", path)
	}
	how := unix.LOCK_EX
	if readOnly {
		how = unix.LOCK_SH
	}
	if err := lock(f, how); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to lock image %s", path)
	}
	return &FileDevice{file: f, path: path, blockSize: blockSize, readOnly: readOnly}, nil
}

// Create creates a new image file. Unless force is set an existing file is
// left untouched and an error is returned.
func Create(path string, blockSize int, force bool) (*FileDevice, error) {
	// truncation waits until the lock is held
	flags := os.O_RDWR | os.O_CREATE
	if !force {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create image %s", path)
	}
	if err := lock(f, unix.LOCK_EX); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to lock image %s", path)
	}
	if err := f.Truncate(0); err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "failed to truncate image %s", path)
	}
	return &FileDevice{file: f, path: path, blockSize: blockSize}, nil
}

// lock takes an advisory flock without blocking. It is released when the
// file is closed.
func lock(f *os.File, how int) error {
	err := unix.Flock(int(f.Fd()), how|unix.LOCK_NB)
	if err == unix.EWOULDBLOCK {
		return ErrLocked
	}
	return err
}

func (d *FileDevice) Path() string {
	return d.path
}

func (d *FileDevice) ReadBlock(num uint32, buf []byte) error {
	if err := d.checkBuffer(buf); err != nil {
		return err
	}
	n, err := d.file.ReadAt(buf, d.offset(num))
	if n < len(buf) {
		if err == nil || err == io.EOF {
			err = ErrShortTransfer
		}
		return errors.Wrapf(err, "failed to read block %d of %s (%d of %d bytes)", num, d.path, n, len(buf))
	}
	return nil
}

func (d *FileDevice) WriteBlock(num uint32, buf []byte) error {
	if d.readOnly {
		return errors.Errorf("cannot write block %d: %s is opened read-only", num, d.path)
	}
	if err := d.checkBuffer(buf); err != nil {
		return err
	}
	n, err := d.file.WriteAt(buf, d.offset(num))
	if n < len(buf) {
		if err == nil {
			err = ErrShortTransfer
		}
		return errors.Wrapf(err, "failed to write block %d of %s (%d of %d bytes)", num, d.path, n, len(buf))
	}
	return nil
}

// Sync flushes written blocks to stable storage.
func (d *FileDevice) Sync() error {
	if d.readOnly {
		return nil
	}
	return errors.Wrapf(d.file.Sync(), "failed to sync %s", d.path)
}

// Close releases the lock and closes the file.
func (d *FileDevice) Close() error {
	return d.file.Close()
}

func (d *FileDevice) offset(num uint32) int64 {
	return int64(num) * int64(d.blockSize)
}

func (d *FileDevice) checkBuffer(buf []byte) error {
	if len(buf) != d.blockSize {
		return errors.Errorf("buffer of %d bytes does not match block size %d", len(buf), d.blockSize)
	}
	return nil
}
