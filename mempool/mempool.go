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

// Package mempool is a process-wide Malloc/Free for []byte built from the
// allocator toolkit: one power-of-two size class per freelist over the
// system heap, with a tag header in front of every buffer carried by an
// affix layer. The tag records which class a buffer belongs to and lets
// Free reject most buffers that did not come from Malloc.
package mempool

import (
	"math/bits"
	"sync"
	"unsafe"

	"github.com/cloudwego/memkit/alloc"
)

const (
	// tagLen is the size of the per-allocation header.
	tagLen = 8

	// tag layout: magic (58 bits) | class index (6 bits).
	tagMagicMask = uint64(0xFFFFFFFFFFFFFFC0)
	tagIndexMask = uint64(0x000000000000003F)
	tagMagic     = uint64(0xBADC0DEBADC0DEC0)

	// minClassSize is the total size (tag included) of the smallest class.
	minClassSize = 64
	// maxClassSize is the total size of the largest cached class; bigger
	// requests bypass the freelists and go straight to the system heap.
	maxClassSize = 1 << 20

	// classMaxNodes caps how many freed buffers each class retains.
	classMaxNodes = 128

	directIndex = 63
)

type classAllocator = alloc.AffixAllocator[*alloc.FreelistAllocator[alloc.SystemAllocator], uint64, struct{}]

type class struct {
	mu sync.Mutex
	a  *classAllocator
	// capacity is the payload room of the class: total minus the tag.
	capacity int
}

var classes []*class

// direct serves requests too large to cache. It is stateless, so the
// composition needs no locking.
var direct = alloc.NewAffixAllocator[alloc.SystemAllocator, uint64, struct{}](alloc.System)

// bits2idx maps bits.Len of a total size to a class index, the same trick
// the size classes of the heap use to avoid a division in the hot path.
var bits2idx [64]int

func init() {
	i := 0
	for sz := minClassSize; sz <= maxClassSize; sz <<= 1 {
		c := &class{capacity: sz - tagLen}
		c.a = alloc.NewAffixAllocator[*alloc.FreelistAllocator[alloc.SystemAllocator], uint64, struct{}](
			alloc.NewFreelistAllocator(alloc.System, 0, sz, classMaxNodes),
		)
		classes = append(classes, c)
		bits2idx[bits.Len(uint(sz))] = i
		i++
	}
}

// classIndex returns the class that fits a total allocation size, or
// directIndex when no class does.
func classIndex(total int) int {
	if total <= minClassSize {
		return 0
	}
	if total > maxClassSize {
		return directIndex
	}
	i := bits2idx[bits.Len(uint(total))]
	if total&(total-1) == 0 {
		return i
	}
	return i + 1
}

// Malloc returns an uninitialized buffer of length size. The buffer's cap
// is the payload room of its size class, so it may be resliced up to
// cap(buf) freely. Call Free when done; do not use the buffer afterwards.
func Malloc(size int) []byte {
	if size == 0 {
		return []byte{}
	}
	if size < 0 {
		panic("mempool: malloc size must be non-negative")
	}
	idx := classIndex(size + tagLen)
	if idx == directIndex {
		b := direct.Allocate(size)
		*direct.Prefix(b) = tagMagic | directIndex
		return b.Bytes()
	}
	c := classes[idx]
	c.mu.Lock()
	b := c.a.Allocate(size)
	*c.a.Prefix(b) = tagMagic | uint64(idx)
	c.mu.Unlock()
	return unsafe.Slice((*byte)(b.Ptr), c.capacity)[:size]
}

// Free returns a buffer obtained from Malloc. The class tag in front of
// the buffer is validated, so a double Free or a buffer from elsewhere is
// dropped rather than cached; unlike allocations from the toolkit's own
// compositions the check is best effort, since a foreign buffer's
// preceding bytes are read to make it.
func Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	p := unsafe.Pointer(unsafe.SliceData(buf))
	tag := *(*uint64)(unsafe.Add(p, -tagLen))
	if tag&tagMagicMask != tagMagic {
		return
	}
	idx := int(tag & tagIndexMask)
	b := alloc.Block{Ptr: p, Size: len(buf)}
	if idx == directIndex {
		*direct.Prefix(b) = 0
		direct.Deallocate(b)
		return
	}
	if idx >= len(classes) || cap(buf) > classes[idx].capacity {
		return
	}
	c := classes[idx]
	c.mu.Lock()
	*c.a.Prefix(b) = 0
	c.a.Deallocate(b)
	c.mu.Unlock()
}

// Cap reports the payload room of the class backing buf.
func Cap(buf []byte) int {
	if cap(buf) == 0 {
		return 0
	}
	p := unsafe.Pointer(unsafe.SliceData(buf))
	tag := *(*uint64)(unsafe.Add(p, -tagLen))
	if tag&tagMagicMask != tagMagic {
		panic("mempool: buffer was not allocated by this package")
	}
	idx := int(tag & tagIndexMask)
	if idx == directIndex {
		return len(buf)
	}
	return classes[idx].capacity
}
