// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

// Package memory hands out arrow allocators for per-record work.
package memory

import (
	"sync"

	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Pool recycles Go allocators between pipeline workers. The zero value is ready
// to use.
type Pool struct {
	pool sync.Pool
}

// Get returns an allocator from the pool, creating one if the pool is empty.
func (p *Pool) Get() memory.Allocator {
	if alloc, ok := p.pool.Get().(memory.Allocator); ok {
		return alloc
	}
	return memory.NewGoAllocator()
}

// Put returns alloc to the pool. Checked allocators are not pooled since their
// counters would carry over to the next user.
func (p *Pool) Put(alloc memory.Allocator) {
	if _, checked := alloc.(*memory.CheckedAllocator); checked {
		return
	}
	p.pool.Put(alloc)
}
