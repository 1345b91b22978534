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

	"github.com/bytedance/gopkg/lang/dirtmake"
)

// StackAllocator is a bump allocator over a single arena. Allocations are
// carved off the top in order; Deallocate accepts only the most recent
// live allocation, and DeallocateAll rewinds the whole arena in O(1).
// Typical use is a per-frame scratch region that is reset wholesale.
//
// Deallocation order is strictly LIFO, so a FreelistAllocator must not be
// layered above it: the freelist releases nodes to its parent in reverse
// allocation order.
type StackAllocator struct {
	buf []byte
	top int
}

// NewStackAllocator builds a stack allocator over a fresh arena of at
// least capacity bytes.
func NewStackAllocator(capacity int) *StackAllocator {
	if capacity <= 0 {
		panic("alloc: stack arena capacity must be positive")
	}
	c := alignUp(capacity, PlatformMaxAlignment)
	return &StackAllocator{buf: dirtmake.Bytes(c, c)}
}

func (a *StackAllocator) Allocate(n int) Block {
	if n <= 0 || a.top+n > len(a.buf) {
		return Block{}
	}
	p := unsafe.Pointer(&a.buf[a.top])
	a.top = min(a.top+alignUp(n, PlatformMaxAlignment), len(a.buf))
	return Block{Ptr: p, Size: n}
}

func (a *StackAllocator) AllocateAligned(n, align int) Block {
	checkAlign(align, a.Alignment())
	if n <= 0 || a.top >= len(a.buf) {
		return Block{}
	}
	off := alignOffset(unsafe.Pointer(&a.buf[a.top]), align)
	if a.top+off+n > len(a.buf) {
		return Block{}
	}
	p := unsafe.Pointer(&a.buf[a.top+off])
	a.top = min(a.top+off+alignUp(n, PlatformMaxAlignment), len(a.buf))
	return Block{Ptr: p, Size: n}
}

// Deallocate rewinds the top of the stack. Only the most recent live
// allocation can be released; anything else is an ordering violation.
func (a *StackAllocator) Deallocate(b Block) {
	if b.IsNull() {
		return
	}
	off := int(uintptr(b.Ptr) - uintptr(unsafe.Pointer(&a.buf[0])))
	if off < 0 || off >= a.top || min(off+alignUp(b.Size, PlatformMaxAlignment), len(a.buf)) != a.top {
		panic("alloc: stack deallocation out of order")
	}
	a.top = off
}

func (a *StackAllocator) DeallocateAll() {
	a.top = 0
}

// Owns reports whether b lies within the currently allocated part of the
// arena. Rewinding the stack revokes ownership of everything above the new
// top.
func (a *StackAllocator) Owns(b Block) bool {
	if b.IsNull() {
		return false
	}
	start := uintptr(unsafe.Pointer(&a.buf[0]))
	p := uintptr(b.Ptr)
	return p >= start && p+uintptr(b.Size) <= start+uintptr(a.top)
}

func (a *StackAllocator) Alignment() int { return PlatformMaxAlignment }
