//go:build !unix

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

// PageAllocator has no mapping primitive on this platform; every
// allocation fails, which a FallbackAllocator turns into a routed retry.
type PageAllocator struct{}

// Pages is the canonical PageAllocator.
var Pages PageAllocator

func (PageAllocator) Allocate(int) Block { return Block{} }

func (PageAllocator) Deallocate(b Block) {
	if !b.IsNull() {
		panic("alloc: PageAllocator is unavailable on this platform")
	}
}

func (PageAllocator) Alignment() int { return PlatformMaxAlignment }
