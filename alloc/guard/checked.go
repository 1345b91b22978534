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

// Package guard provides debugging allocators built from the affix layer:
// a canary check against buffer underruns and double frees, and a tracer
// that keeps a list of outstanding allocations for leak reports.
package guard

import (
	"encoding/binary"

	"github.com/bytedance/gopkg/util/xxhash3"

	"github.com/cloudwego/memkit/alloc"
)

// CheckedAllocator stamps a canary derived from each block's address and
// size into an affix prefix. Deallocate re-derives the canary; a mismatch
// means the bytes before the block were overwritten, the block was already
// freed, or the block never came from this allocator.
type CheckedAllocator[P alloc.Allocator] struct {
	inner *alloc.AffixAllocator[P, uint64, struct{}]
}

// NewCheckedAllocator composes the canary layer over parent.
func NewCheckedAllocator[P alloc.Allocator](parent P) *CheckedAllocator[P] {
	return &CheckedAllocator[P]{inner: alloc.NewAffixAllocator[P, uint64, struct{}](parent)}
}

func canary(b alloc.Block) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(uintptr(b.Ptr)))
	binary.LittleEndian.PutUint64(buf[8:], uint64(b.Size))
	t := xxhash3.Hash(buf[:])
	if t == 0 {
		t = 1 // 0 marks a freed block
	}
	return t
}

func (a *CheckedAllocator[P]) Allocate(n int) Block {
	b := a.inner.Allocate(n)
	if !b.IsNull() {
		*a.inner.Prefix(b) = canary(b)
	}
	return b
}

func (a *CheckedAllocator[P]) Deallocate(b Block) {
	if b.IsNull() {
		return
	}
	slot := a.inner.Prefix(b)
	if *slot != canary(b) {
		panic("guard: corrupted, foreign or double-freed block")
	}
	*slot = 0
	a.inner.Deallocate(b)
}

// Owns forwards to the affix layer, which needs an owning parent.
func (a *CheckedAllocator[P]) Owns(b Block) bool {
	return a.inner.Owns(b)
}

func (a *CheckedAllocator[P]) Alignment() int { return a.inner.Alignment() }

func (a *CheckedAllocator[P]) AllocatorCapabilities() alloc.Capabilities {
	return alloc.CapabilitiesOf(a.inner)
}

// Block is re-exported for readability of guard call sites.
type Block = alloc.Block
