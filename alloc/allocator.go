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

// Allocator is the block allocator contract every leaf and combinator
// implements.
//
// Allocate returns a block of at least n bytes whose pointer is aligned to
// Alignment(), or the null block on failure. Deallocate releases a block
// previously returned by this allocator; passing a block the allocator does
// not own is undefined. Alignment reports the guaranteed alignment of any
// pointer returned by Allocate, always a power of two.
type Allocator interface {
	Allocate(n int) Block
	Deallocate(b Block)
	Alignment() int
}

// AlignedAllocator is implemented by allocators that can satisfy an
// explicit alignment. align must be a power of two and no smaller than
// Alignment(); anything else panics. NullAllocator, which fails every
// request, checks only that align is a power of two.
type AlignedAllocator interface {
	Allocator
	AllocateAligned(n, align int) Block
}

// OwningAllocator is implemented by allocators that can answer whether a
// block came from them. Owns is true for every outstanding block the
// allocator produced. Most implementations answer from their address
// ranges, so a block they have taken back can still test as owned while it
// lies in such a range (a freelist's cached nodes, an inline buffer);
// TracingAllocator answers from its list of outstanding blocks instead.
type OwningAllocator interface {
	Allocator
	Owns(b Block) bool
}

// BulkAllocator is implemented by allocators that can release every
// outstanding block at once.
type BulkAllocator interface {
	Allocator
	DeallocateAll()
}

// Capabilities is the manifest of optional operations an allocator
// supports. Combinators derive their manifest from their children, so
// probing the outermost allocator of a composition tells the caller which
// operations will panic if invoked.
type Capabilities struct {
	AlignedAllocate bool
	Owns            bool
	DeallocateAll   bool
	Alignment       int
}

// CapabilityReporter is implemented by combinators, whose optional methods
// always exist but only work when their children cooperate. The reported
// manifest is derived from the children (intersection for operations the
// combinator relies on in every branch, union for pass-throughs), so it is
// the authoritative answer rather than the method set.
type CapabilityReporter interface {
	AllocatorCapabilities() Capabilities
}

// CapabilitiesOf probes a for the optional parts of the contract.
func CapabilitiesOf(a Allocator) Capabilities {
	if r, ok := a.(CapabilityReporter); ok {
		return r.AllocatorCapabilities()
	}
	c := Capabilities{Alignment: a.Alignment()}
	_, c.AlignedAllocate = a.(AlignedAllocator)
	_, c.Owns = a.(OwningAllocator)
	_, c.DeallocateAll = a.(BulkAllocator)
	return c
}

// StateSize reports the runtime footprint of allocator type A in bytes.
func StateSize[A any]() uintptr {
	var a A
	return unsafe.Sizeof(a)
}

// IsStateless reports whether allocator type A carries no runtime state.
// A composition is stateless iff all of its children are.
func IsStateless[A any]() bool {
	return StateSize[A]() == 0
}

// It returns the canonical process-wide instance of a stateless allocator
// type. Zero-size allocations in Go all share one address, so the returned
// pointer is the same for every call with the same type argument and costs
// nothing to construct. Calling It with a stateful type panics.
func It[A any]() *A {
	if !IsStateless[A]() {
		panic("alloc: It requires a stateless allocator type")
	}
	return new(A)
}
