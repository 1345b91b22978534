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

// AffixAllocator reserves room for a Prefix value immediately before every
// allocation and a Suffix value after it. The caller sees a block that
// starts past the prefix and has the requested length; the metadata slots
// are reached through the Prefix and Suffix accessors. Use struct{} for an
// affix you don't need.
//
// Typical prefixes: corruption canaries, per-allocation size or type tags,
// links in a list of outstanding allocations for leak reports. The guard
// package builds on exactly these.
type AffixAllocator[P Allocator, Prefix, Suffix any] struct {
	parent P
}

// NewAffixAllocator composes an affix layer over parent. The prefix sits at
// the parent's (aligned) base pointer, so the parent's alignment must cover
// the prefix's.
func NewAffixAllocator[P Allocator, Prefix, Suffix any](parent P) *AffixAllocator[P, Prefix, Suffix] {
	var a AffixAllocator[P, Prefix, Suffix]
	if pa := a.prefixAlign(); pa > parent.Alignment() {
		panic("alloc: affix parent alignment cannot place the prefix")
	}
	a.parent = parent
	return &a
}

func (a *AffixAllocator[P, Prefix, Suffix]) prefixSize() int {
	var p Prefix
	return int(unsafe.Sizeof(p))
}

func (a *AffixAllocator[P, Prefix, Suffix]) prefixAlign() int {
	var p Prefix
	return int(unsafe.Alignof(p))
}

func (a *AffixAllocator[P, Prefix, Suffix]) suffixSize() int {
	var s Suffix
	return int(unsafe.Sizeof(s))
}

func (a *AffixAllocator[P, Prefix, Suffix]) suffixAlign() int {
	var s Suffix
	return int(unsafe.Alignof(s))
}

// TotalAllocationSize reports how many bytes the parent is asked for to
// back an n-byte allocation: prefix, payload, padding so the suffix is
// aligned, suffix.
func (a *AffixAllocator[P, Prefix, Suffix]) TotalAllocationSize(n int) int {
	if a.suffixSize() == 0 {
		return n + a.prefixSize()
	}
	return alignUp(n+a.prefixSize(), a.suffixAlign()) + a.suffixSize()
}

// parentBlock reconstructs the block that was actually requested from the
// parent for the caller-visible block b.
func (a *AffixAllocator[P, Prefix, Suffix]) parentBlock(b Block) Block {
	if b.IsNull() {
		return Block{}
	}
	return Block{Ptr: unsafe.Add(b.Ptr, -a.prefixSize()), Size: a.TotalAllocationSize(b.Size)}
}

func (a *AffixAllocator[P, Prefix, Suffix]) Allocate(n int) Block {
	if n <= 0 {
		return Block{}
	}
	b := a.parent.Allocate(a.TotalAllocationSize(n))
	if b.IsNull() {
		return b
	}
	return Block{Ptr: unsafe.Add(b.Ptr, a.prefixSize()), Size: n}
}

func (a *AffixAllocator[P, Prefix, Suffix]) Deallocate(b Block) {
	a.parent.Deallocate(a.parentBlock(b))
}

// Owns forwards the reconstructed parent block, so the answer covers the
// hidden affix bytes as well.
func (a *AffixAllocator[P, Prefix, Suffix]) Owns(b Block) bool {
	p, ok := any(a.parent).(OwningAllocator)
	if !ok {
		panic("alloc: affix parent does not support ownership queries")
	}
	return p.Owns(a.parentBlock(b))
}

// Prefix returns the prefix slot of a live block.
func (a *AffixAllocator[P, Prefix, Suffix]) Prefix(b Block) *Prefix {
	if a.prefixSize() == 0 {
		panic("alloc: affix has no prefix")
	}
	return (*Prefix)(unsafe.Add(b.Ptr, -a.prefixSize()))
}

// Suffix returns the suffix slot of a live block. The slot sits after the
// payload, padded up to the suffix's own alignment.
func (a *AffixAllocator[P, Prefix, Suffix]) Suffix(b Block) *Suffix {
	if a.suffixSize() == 0 {
		panic("alloc: affix has no suffix")
	}
	off := alignUp(b.Size+a.prefixSize(), a.suffixAlign()) - a.prefixSize()
	return (*Suffix)(unsafe.Add(b.Ptr, off))
}

// Alignment is the prefix's alignment when a prefix exists: the payload
// pointer is the parent's base advanced by the prefix size, which is a
// multiple of the prefix's alignment.
func (a *AffixAllocator[P, Prefix, Suffix]) Alignment() int {
	if a.prefixSize() != 0 {
		return a.prefixAlign()
	}
	return a.parent.Alignment()
}

func (a *AffixAllocator[P, Prefix, Suffix]) AllocatorCapabilities() Capabilities {
	p := CapabilitiesOf(a.parent)
	return Capabilities{
		Owns:      p.Owns,
		Alignment: a.Alignment(),
	}
}
