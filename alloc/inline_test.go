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
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInlineAllocator(t *testing.T) {
	var a InlineAllocator[[64]byte]

	b := a.Allocate(64)
	require.False(t, b.IsNull())
	require.Equal(t, 64, b.Size)
	require.Zero(t, uintptr(b.Ptr)&uintptr(PlatformMaxAlignment-1))
	require.True(t, a.Owns(b))

	// the buffer is real memory
	copy(b.Bytes(), "hello")
	require.Equal(t, byte('h'), b.Bytes()[0])

	require.True(t, a.Allocate(65).IsNull())
	require.True(t, a.Allocate(0).IsNull())

	// no bookkeeping: a new allocation reuses the start of the buffer
	a.Deallocate(b)
	b2 := a.Allocate(16)
	require.Equal(t, b.Ptr, b2.Ptr)
}

func TestInlineAllocatorAligned(t *testing.T) {
	var a InlineAllocator[[256]byte]

	b := a.AllocateAligned(32, 64)
	require.False(t, b.IsNull())
	require.Zero(t, uintptr(b.Ptr)&63)
	require.True(t, a.Owns(b))

	// an aligned request that cannot fit after rounding fails
	require.True(t, a.AllocateAligned(256, 128).IsNull() || uintptr(a.base())&127 == 0)

	require.Panics(t, func() { a.AllocateAligned(8, 3) })
	require.Panics(t, func() { a.AllocateAligned(8, 4) }) // below PlatformMaxAlignment
}

func TestInlineAllocatorOwns(t *testing.T) {
	var a, other InlineAllocator[[32]byte]

	b := a.Allocate(32)
	assert.True(t, a.Owns(b))
	assert.False(t, other.Owns(b))
	assert.False(t, a.Owns(Block{}))

	out := Block{Ptr: unsafe.Add(a.base(), 16), Size: 32} // straddles the end
	assert.False(t, a.Owns(out))
	in := Block{Ptr: unsafe.Add(a.base(), 16), Size: 16}
	assert.True(t, a.Owns(in))
}
