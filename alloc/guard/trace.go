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

package guard

import (
	"unsafe"

	"github.com/cloudwego/memkit/alloc"
)

const traceHeaderSize = int(unsafe.Sizeof(traceHeader{}))

// traceHeader is the affix prefix: a doubly-linked list node threading all
// outstanding allocations, plus the block's recorded size.
type traceHeader struct {
	prev, next *traceHeader
	size       int
}

// TracingAllocator keeps every outstanding allocation on a list threaded
// through affix prefixes. It gives ownership queries to parents that have
// none (SystemAllocator), reports leaks, and can release everything that
// is still outstanding.
//
// The list nodes live inside parent memory the collector does not trace,
// so the tracer pins each outstanding block; a block the caller leaked
// must stay addressable for the leak report.
type TracingAllocator[P alloc.Allocator] struct {
	inner *alloc.AffixAllocator[P, traceHeader, struct{}]
	head  *traceHeader
	live  int
	pins  []unsafe.Pointer
}

// NewTracingAllocator composes the tracing layer over parent.
func NewTracingAllocator[P alloc.Allocator](parent P) *TracingAllocator[P] {
	return &TracingAllocator[P]{inner: alloc.NewAffixAllocator[P, traceHeader, struct{}](parent)}
}

func (a *TracingAllocator[P]) Allocate(n int) Block {
	b := a.inner.Allocate(n)
	if b.IsNull() {
		return b
	}
	h := a.inner.Prefix(b)
	*h = traceHeader{next: a.head, size: n}
	if a.head != nil {
		a.head.prev = h
	}
	a.head = h
	a.live++
	a.pins = append(a.pins, unsafe.Pointer(h))
	return b
}

func (a *TracingAllocator[P]) Deallocate(b Block) {
	if b.IsNull() {
		return
	}
	h := a.inner.Prefix(b)
	if !a.tracked(h) || h.size != b.Size {
		panic("guard: deallocating an untracked block")
	}
	a.unlink(h)
	a.inner.Deallocate(b)
}

func (a *TracingAllocator[P]) unlink(h *traceHeader) {
	if h.prev != nil {
		h.prev.next = h.next
	} else {
		a.head = h.next
	}
	if h.next != nil {
		h.next.prev = h.prev
	}
	a.live--
	for i := len(a.pins) - 1; i >= 0; i-- {
		if a.pins[i] == unsafe.Pointer(h) {
			a.pins = append(a.pins[:i], a.pins[i+1:]...)
			break
		}
	}
}

func (a *TracingAllocator[P]) tracked(h *traceHeader) bool {
	for c := a.head; c != nil; c = c.next {
		if c == h {
			return true
		}
	}
	return false
}

// Owns reports whether b is an outstanding allocation of this tracer. The
// candidate header pointer is only compared, never dereferenced, so the
// query is safe for arbitrary blocks.
func (a *TracingAllocator[P]) Owns(b Block) bool {
	if b.IsNull() {
		return false
	}
	target := (*traceHeader)(unsafe.Add(b.Ptr, -traceHeaderSize))
	for c := a.head; c != nil; c = c.next {
		if c == target {
			return c.size == b.Size
		}
	}
	return false
}

// Outstanding reports how many allocations have not been deallocated.
func (a *TracingAllocator[P]) Outstanding() int { return a.live }

// Leaks reconstructs the outstanding blocks, most recent first.
func (a *TracingAllocator[P]) Leaks() []Block {
	var out []Block
	for c := a.head; c != nil; c = c.next {
		out = append(out, Block{
			Ptr:  unsafe.Add(unsafe.Pointer(c), traceHeaderSize),
			Size: c.size,
		})
	}
	return out
}

// DeallocateAll releases every outstanding block individually, so it works
// over any parent.
func (a *TracingAllocator[P]) DeallocateAll() {
	for a.head != nil {
		h := a.head
		b := Block{Ptr: unsafe.Add(unsafe.Pointer(h), traceHeaderSize), Size: h.size}
		a.unlink(h)
		a.inner.Deallocate(b)
	}
}

func (a *TracingAllocator[P]) Alignment() int { return a.inner.Alignment() }

func (a *TracingAllocator[P]) AllocatorCapabilities() alloc.Capabilities {
	c := alloc.CapabilitiesOf(a.inner)
	c.Owns = true
	c.DeallocateAll = true
	return c
}
