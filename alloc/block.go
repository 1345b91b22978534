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

// Package alloc is a toolkit of composable memory allocators.
//
// Leaves (NullAllocator, InlineAllocator, SystemAllocator, PageAllocator,
// StackAllocator) produce memory. Combinators (FallbackAllocator,
// FreelistAllocator, AffixAllocator, SegregateAllocator) wrap one or two
// inner allocators and add a policy. Combinators are generic over the
// concrete types of their children, so a composed allocator is a single
// struct whose size is the sum of its stateful parts and whose dispatch is
// resolved at instantiation.
//
// Allocation failure is a null Block, never an error value. Contract
// violations (bad alignment, deallocating a foreign block, calling an
// optional operation the composition does not support) panic.
package alloc

import (
	"unsafe"
)

// PlatformMaxAlignment is the coarsest natural alignment of the host
// platform, the larger of the pointer and size-type alignments. Every
// pointer returned by an unaligned Allocate is aligned at least this much.
const PlatformMaxAlignment = int(max(unsafe.Alignof(uintptr(0)), unsafe.Alignof((*byte)(nil))))

// Block is a region of memory handed out by an allocator: a base pointer
// and the number of bytes the caller asked for. The zero Block is the null
// block and denotes allocation failure.
//
// A Block stays valid until it is passed to Deallocate on an allocator that
// owns it, or until DeallocateAll is called on any allocator above it.
type Block struct {
	Ptr  unsafe.Pointer
	Size int
}

// IsNull reports whether b denotes allocation failure.
func (b Block) IsNull() bool {
	return b.Ptr == nil
}

// End returns the first byte past the block.
func (b Block) End() unsafe.Pointer {
	return unsafe.Add(b.Ptr, b.Size)
}

// Bytes returns the block's memory as a byte slice. The slice aliases the
// block; it must not be used after the block is deallocated.
func (b Block) Bytes() []byte {
	if b.IsNull() {
		return nil
	}
	return unsafe.Slice((*byte)(b.Ptr), b.Size)
}

func isPow2(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// alignUp rounds n up to the next multiple of the power-of-two a.
func alignUp(n, a int) int {
	return (n + a - 1) &^ (a - 1)
}

// alignOffset returns how many bytes past p the next a-aligned address is.
func alignOffset(p unsafe.Pointer, a int) int {
	return alignUp(int(uintptr(p)&uintptr(a-1)), a) - int(uintptr(p)&uintptr(a-1))
}

// checkAlign validates a requested alignment: it must be a power of two and
// no smaller than the allocator's own alignment. Violations are programmer
// errors, not allocation failures.
func checkAlign(align, min int) {
	if !isPow2(align) || align < min {
		panic("alloc: alignment must be a power of two no smaller than the allocator's alignment")
	}
}
