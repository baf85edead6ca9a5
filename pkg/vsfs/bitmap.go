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

// Bitmap is a one block long bit array. Bit i lives in byte i/8 at position
// i%8, least significant bit first.
type Bitmap []byte

func NewBitmap() Bitmap {
	return make(Bitmap, BlockSize)
}

func (b Bitmap) Test(i int) bool {
	return b[i/8]&(1<<uint(i%8)) != 0
}

func (b Bitmap) Set(i int, used bool) {
	if used {
		b[i/8] |= 1 << uint(i%8)
	} else {
		b[i/8] &^= 1 << uint(i%8)
	}
}

// Clone returns an independent copy.
func (b Bitmap) Clone() Bitmap {
	c := make(Bitmap, len(b))
	copy(c, b)
	return c
}
