//go:build unix

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
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// PageAllocator is a leaf backed by anonymous memory mappings. Blocks are
// page-aligned, live outside the Go heap, and are returned to the kernel
// eagerly on Deallocate. Because the memory is off-heap, layers that store
// metadata inside freed blocks (FreelistAllocator) need no collector
// bookkeeping on top of it.
//
// Like SystemAllocator it cannot answer Owns: mappings are scattered
// through the address space with no common range to test.
type PageAllocator struct{}

// Pages is the canonical PageAllocator.
var Pages PageAllocator

func (PageAllocator) Allocate(n int) Block {
	if n <= 0 {
		return Block{}
	}
	buf, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return Block{}
	}
	return Block{Ptr: unsafe.Pointer(&buf[0]), Size: n}
}

func (PageAllocator) Deallocate(b Block) {
	if b.IsNull() {
		return
	}
	// The kernel rounds the length back up to the mapping's page multiple.
	_ = unix.Munmap(unsafe.Slice((*byte)(b.Ptr), b.Size))
}

// Alignment is the OS page size; every mapping starts on a page boundary.
func (PageAllocator) Alignment() int { return os.Getpagesize() }
