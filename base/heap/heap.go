// Copyright 2022 hpclab Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package heap

import (
	"golang.org/x/exp/constraints"
)

// Heap is a binary min-heap over a slice, ordered by a comparator. The root
// holds the smallest element according to less. It is not safe for concurrent
// use; a heap is exclusively owned by a single call.
type Heap[T any] struct {
	elems []T
	less  func(a, b T) bool
}

// New creates an empty heap ordered by less.
func New[T any](less func(a, b T) bool) *Heap[T] {
	return &Heap[T]{less: less}
}

// NewMin creates an empty min-heap over an ordered type.
func NewMin[T constraints.Ordered]() *Heap[T] {
	return New(func(a, b T) bool { return a < b })
}

// Heapify adopts elems as the backing slice and restores the heap property
// bottom-up in linear time.
func (h *Heap[T]) Heapify(elems []T) {
	h.elems = elems
	n := len(h.elems)
	if n <= 1 {
		return
	}
	for i := parent(n - 1); i > 0; i-- {
		h.percolateDown(i)
	}
	h.percolateDown(0)
}

// Len returns the number of elements in the heap.
func (h *Heap[T]) Len() int {
	return len(h.elems)
}

// Peek returns the root without removing it.
func (h *Heap[T]) Peek() T {
	return h.elems[0]
}

// Push inserts an element.
func (h *Heap[T]) Push(elem T) {
	h.elems = append(h.elems, elem)
	h.percolateUp(len(h.elems) - 1)
}

// Pop removes and returns the root.
func (h *Heap[T]) Pop() T {
	root := h.elems[0]
	h.elems[0] = h.elems[len(h.elems)-1]
	h.elems = h.elems[:len(h.elems)-1]
	h.percolateDown(0)
	return root
}

// Replace overwrites the root with elem and sifts it down. It costs one
// percolation instead of the two paid by Pop followed by Push.
func (h *Heap[T]) Replace(elem T) {
	h.elems[0] = elem
	h.percolateDown(0)
}

func parent(pos int) int {
	return (pos - 1) / 2
}

func left(pos int) int {
	return 2*pos + 1
}

func (h *Heap[T]) percolateUp(pos int) {
	for pos > 0 {
		p := parent(pos)
		if !h.less(h.elems[pos], h.elems[p]) {
			break
		}
		h.elems[pos], h.elems[p] = h.elems[p], h.elems[pos]
		pos = p
	}
}

func (h *Heap[T]) percolateDown(pos int) {
	n := len(h.elems)
	for {
		l := left(pos)
		if l >= n {
			break
		}
		// prefer the left child unless the right one compares strictly smaller
		smallest := pos
		if h.less(h.elems[l], h.elems[pos]) {
			smallest = l
		}
		if r := l + 1; r < n && h.less(h.elems[r], h.elems[smallest]) {
			smallest = r
		}
		if smallest == pos {
			break
		}
		h.elems[pos], h.elems[smallest] = h.elems[smallest], h.elems[pos]
		pos = smallest
	}
}
