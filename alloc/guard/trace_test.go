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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudwego/memkit/alloc"
)

func TestTracingAllocator(t *testing.T) {
	a := NewTracingAllocator(alloc.System)

	b1 := a.Allocate(32)
	b2 := a.Allocate(64)
	require.Equal(t, 2, a.Outstanding())
	require.True(t, a.Owns(b1))
	require.True(t, a.Owns(b2))

	leaks := a.Leaks()
	require.Len(t, leaks, 2)
	assert.Equal(t, b2, leaks[0], "most recent first")
	assert.Equal(t, b1, leaks[1])

	a.Deallocate(b1)
	require.Equal(t, 1, a.Outstanding())
	require.False(t, a.Owns(b1))
	require.True(t, a.Owns(b2))

	a.Deallocate(b2)
	require.Zero(t, a.Outstanding())
	require.Empty(t, a.Leaks())
}

func TestTracingAllocatorUntracked(t *testing.T) {
	a := NewTracingAllocator(alloc.System)
	b := a.Allocate(32)
	a.Deallocate(b)
	require.Panics(t, func() { a.Deallocate(b) })
}

func TestTracingDeallocateAll(t *testing.T) {
	a := NewTracingAllocator(alloc.System)
	for i := 0; i < 5; i++ {
		a.Allocate(16 << i)
	}
	require.Equal(t, 5, a.Outstanding())
	a.DeallocateAll()
	require.Zero(t, a.Outstanding())

	c := alloc.CapabilitiesOf(a)
	assert.True(t, c.Owns)
	assert.True(t, c.DeallocateAll)
}

// TestScratchWithSystemSpill is the small-scratch pattern: an inline
// primary for one short-lived allocation, the system heap as spill, a
// tracer on top reporting leaks.
func TestScratchWithSystemSpill(t *testing.T) {
	var inl alloc.InlineAllocator[[128]byte]
	a := NewTracingAllocator(alloc.NewFallbackAllocator(&inl, alloc.System))

	small := a.Allocate(32)
	require.False(t, small.IsNull())
	require.True(t, inl.Owns(small), "small requests stay in the inline buffer")

	big := a.Allocate(4096)
	require.False(t, big.IsNull())
	require.False(t, inl.Owns(big))
	require.True(t, a.Owns(big), "the tracer supplies ownership for heap blocks")

	// deallocate in either order; the fallback routes each to its branch
	a.Deallocate(big)
	a.Deallocate(small)
	require.Zero(t, a.Outstanding(), "no leaks")
}
