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

// NullAllocator fails every allocation and owns nothing but the null
// block. It terminates fallback chains and injects controlled allocation
// failure into tests.
type NullAllocator struct{}

// Null is the canonical NullAllocator.
var Null NullAllocator

// The advertised alignment is deliberately enormous so that a
// NullAllocator never lowers the alignment of a composition it appears in.
const nullAlignment = 64 * 1024

func (NullAllocator) Allocate(int) Block { return Block{} }

func (NullAllocator) AllocateAligned(n, align int) Block {
	if !isPow2(align) {
		panic("alloc: alignment must be a power of two")
	}
	return Block{}
}

// Deallocate accepts only the null block. Handing a real block to a
// NullAllocator means a combinator above it misrouted a deallocation.
func (NullAllocator) Deallocate(b Block) {
	if !b.IsNull() {
		panic("alloc: NullAllocator cannot deallocate a non-null block")
	}
}

func (NullAllocator) DeallocateAll() {}

// Owns is true only for the null block, which keeps ownership exclusivity
// trivially intact in any composition.
func (NullAllocator) Owns(b Block) bool { return b.IsNull() }

func (NullAllocator) Alignment() int { return nullAlignment }
