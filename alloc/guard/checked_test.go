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
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/cloudwego/memkit/alloc"
)

func TestCheckedAllocator(t *testing.T) {
	a := NewCheckedAllocator(alloc.System)

	b := a.Allocate(64)
	require.False(t, b.IsNull())
	require.Equal(t, 64, b.Size)

	s := b.Bytes()
	for i := range s {
		s[i] = byte(i)
	}
	require.NotPanics(t, func() { a.Deallocate(b) })
}

func TestCheckedAllocatorUnderrun(t *testing.T) {
	a := NewCheckedAllocator(alloc.System)
	b := a.Allocate(64)

	// scribble over the canary just before the payload
	*(*uint64)(unsafe.Add(b.Ptr, -8)) = 0x4141414141414141
	require.Panics(t, func() { a.Deallocate(b) })
}

func TestCheckedAllocatorDoubleFree(t *testing.T) {
	a := NewCheckedAllocator(alloc.System)
	b := a.Allocate(64)
	a.Deallocate(b)
	require.Panics(t, func() { a.Deallocate(b) })
}

func TestCheckedAllocatorForeignBlock(t *testing.T) {
	a := NewCheckedAllocator(alloc.System)
	buf := make([]byte, 64)
	foreign := alloc.Block{Ptr: unsafe.Pointer(&buf[32]), Size: 16}
	require.Panics(t, func() { a.Deallocate(foreign) })
}

func TestCheckedOverStack(t *testing.T) {
	// the canary layer composes over any parent
	a := NewCheckedAllocator(alloc.NewStackAllocator(4096))

	b1 := a.Allocate(100)
	b2 := a.Allocate(200)
	require.False(t, b2.IsNull())
	a.Deallocate(b2)
	a.Deallocate(b1)

	c := alloc.CapabilitiesOf(a)
	require.True(t, c.Owns)
}
