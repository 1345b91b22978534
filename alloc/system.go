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

// SystemAllocator is a leaf backed by the Go heap. Allocate returns
// uninitialized memory; Deallocate drops the allocator's claim and leaves
// reclamation to the garbage collector, which happens once the caller
// stops referencing the block.
//
// SystemAllocator cannot answer Owns, so it may only appear as the final
// leaf of a chain, or wrapped in a layer that adds ownership (an affix
// header or a size-range test).
type SystemAllocator struct{}

// System is the canonical SystemAllocator.
var System SystemAllocator

func (SystemAllocator) Allocate(n int) Block {
	if n <= 0 {
		return Block{}
	}
	// Capacity is padded to a word multiple so the runtime never places the
	// block in a sub-word-aligned tiny-allocation slot.
	buf := dirtmake.Bytes(n, alignUp(n, PlatformMaxAlignment))
	return Block{Ptr: unsafe.Pointer(&buf[0]), Size: n}
}

func (SystemAllocator) Deallocate(Block) {}

func (SystemAllocator) Alignment() int { return PlatformMaxAlignment }

// AlignedSystemAllocator is SystemAllocator plus explicit-alignment
// support, over-allocating and advancing the base pointer to the requested
// boundary. The whole backing allocation stays reachable through the
// interior pointer, so the collector keeps it alive for the block's
// lifetime.
type AlignedSystemAllocator struct{}

// AlignedSystem is the canonical AlignedSystemAllocator.
var AlignedSystem AlignedSystemAllocator

func (AlignedSystemAllocator) Allocate(n int) Block {
	return System.Allocate(n)
}

func (AlignedSystemAllocator) AllocateAligned(n, align int) Block {
	checkAlign(align, PlatformMaxAlignment)
	if n <= 0 {
		return Block{}
	}
	if align <= PlatformMaxAlignment {
		return System.Allocate(n)
	}
	buf := dirtmake.Bytes(n+align-1, n+align-1)
	base := unsafe.Pointer(&buf[0])
	return Block{Ptr: unsafe.Add(base, alignOffset(base, align)), Size: n}
}

func (AlignedSystemAllocator) Deallocate(Block) {}

func (AlignedSystemAllocator) Alignment() int { return PlatformMaxAlignment }
