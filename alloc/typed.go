/*
 * Copyright 2024 CloudWeGo Authors
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
 */

package alloc

import (
	"unsafe"
)

// New allocates room for one value of type T, aligned for T. When T needs
// stricter alignment than the allocator guarantees, the allocator must
// support aligned allocation.
func New[T any](a Allocator) Block {
	return NewArray[T](a, 1)
}

// NewArray allocates room for count contiguous values of type T, aligned
// for T.
func NewArray[T any](a Allocator, count int) Block {
	if count <= 0 {
		return Block{}
	}
	var zero T
	size := count * int(unsafe.Sizeof(zero))
	align := int(unsafe.Alignof(zero))
	if align <= a.Alignment() {
		return a.Allocate(size)
	}
	aa, ok := a.(AlignedAllocator)
	if !ok {
		panic("alloc: allocator cannot satisfy the element type's alignment")
	}
	return aa.AllocateAligned(size, align)
}
