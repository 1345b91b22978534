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

	"github.com/stretchr/testify/require"
)

func TestNullAllocator(t *testing.T) {
	for _, n := range []int{0, 1, 64, 1 << 20} {
		require.True(t, Null.Allocate(n).IsNull())
	}
	require.True(t, Null.AllocateAligned(64, 4096).IsNull())
	require.Panics(t, func() { Null.AllocateAligned(64, 100) })

	require.True(t, Null.Owns(Block{}))
	var buf [8]byte
	require.False(t, Null.Owns(Block{Ptr: unsafe.Pointer(&buf[0]), Size: 8}))

	require.NotPanics(t, func() { Null.Deallocate(Block{}) })
	require.Panics(t, func() { Null.Deallocate(Block{Ptr: unsafe.Pointer(&buf[0]), Size: 8}) })

	require.Equal(t, 64*1024, Null.Alignment())
	require.NotPanics(t, func() { Null.DeallocateAll() })
}
