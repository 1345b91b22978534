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

// SegregateAllocator routes requests of at most threshold bytes to its
// small child and everything larger to its large child. Every operation
// derives the routing decision from the same size: the request on
// allocation, the block's recorded length afterwards. One child therefore
// services both ends of a block's lifetime.
type SegregateAllocator[S, L Allocator] struct {
	threshold int
	small     S
	large     L
}

// NewSegregateAllocator composes small and large around a size threshold.
func NewSegregateAllocator[S, L Allocator](threshold int, small S, large L) *SegregateAllocator[S, L] {
	if threshold <= 0 {
		panic("alloc: segregate threshold must be positive")
	}
	return &SegregateAllocator[S, L]{threshold: threshold, small: small, large: large}
}

func (a *SegregateAllocator[S, L]) Allocate(n int) Block {
	if n <= a.threshold {
		return a.small.Allocate(n)
	}
	return a.large.Allocate(n)
}

func (a *SegregateAllocator[S, L]) AllocateAligned(n, align int) Block {
	checkAlign(align, a.Alignment())
	s, sok := any(a.small).(AlignedAllocator)
	l, lok := any(a.large).(AlignedAllocator)
	if !sok || !lok {
		panic("alloc: both segregate children must support aligned allocation")
	}
	if n <= a.threshold {
		return s.AllocateAligned(n, align)
	}
	return l.AllocateAligned(n, align)
}

func (a *SegregateAllocator[S, L]) Deallocate(b Block) {
	if b.Size <= a.threshold {
		a.small.Deallocate(b)
		return
	}
	a.large.Deallocate(b)
}

func (a *SegregateAllocator[S, L]) Owns(b Block) bool {
	if b.Size <= a.threshold {
		s, ok := any(a.small).(OwningAllocator)
		if !ok {
			panic("alloc: segregate small child does not support ownership queries")
		}
		return s.Owns(b)
	}
	l, ok := any(a.large).(OwningAllocator)
	if !ok {
		panic("alloc: segregate large child does not support ownership queries")
	}
	return l.Owns(b)
}

func (a *SegregateAllocator[S, L]) DeallocateAll() {
	s, sok := any(a.small).(BulkAllocator)
	l, lok := any(a.large).(BulkAllocator)
	if !sok || !lok {
		panic("alloc: both segregate children must support deallocate-all")
	}
	s.DeallocateAll()
	l.DeallocateAll()
}

func (a *SegregateAllocator[S, L]) Alignment() int {
	return min(a.small.Alignment(), a.large.Alignment())
}

func (a *SegregateAllocator[S, L]) AllocatorCapabilities() Capabilities {
	s, l := CapabilitiesOf(a.small), CapabilitiesOf(a.large)
	return Capabilities{
		AlignedAllocate: s.AlignedAllocate && l.AlignedAllocate,
		Owns:            s.Owns && l.Owns,
		DeallocateAll:   s.DeallocateAll && l.DeallocateAll,
		Alignment:       a.Alignment(),
	}
}
