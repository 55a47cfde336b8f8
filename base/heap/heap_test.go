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
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"modernc.org/sortutil"
)

func TestPushPop(t *testing.T) {
	h := NewMin[float32]()
	elements := []float32{5, 3, 7, 8, 6, 2, 9}
	for _, e := range elements {
		h.Push(e)
	}
	assert.Equal(t, len(elements), h.Len())

	sort.Sort(sortutil.Float32Slice(elements))
	for _, e := range elements {
		assert.Equal(t, e, h.Peek())
		assert.Equal(t, e, h.Pop())
	}
	assert.Zero(t, h.Len())
}

func TestHeapify(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{0, 1, 2, 3, 17, 100} {
		elements := make([]float32, n)
		for i := range elements {
			elements[i] = rng.Float32()
		}
		expected := make([]float32, n)
		copy(expected, elements)
		sort.Sort(sortutil.Float32Slice(expected))

		h := NewMin[float32]()
		h.Heapify(elements)
		for _, e := range expected {
			assert.Equal(t, e, h.Pop())
		}
	}
}

func TestReplace(t *testing.T) {
	h := NewMin[int]()
	h.Heapify([]int{4, 9, 5, 12, 10})
	h.Replace(7)
	assert.Equal(t, 5, h.Peek())
	h.Replace(1)
	assert.Equal(t, 1, h.Peek())

	// replace behaves like pop followed by push
	popped := make([]int, 0, h.Len())
	for h.Len() > 0 {
		popped = append(popped, h.Pop())
	}
	assert.Equal(t, []int{1, 7, 9, 10, 12}, popped)
}

func TestComparator(t *testing.T) {
	type pair struct {
		weight   float32
		position uint32
	}
	h := New(func(a, b pair) bool { return a.weight < b.weight })
	h.Heapify([]pair{{3, 0}, {1, 1}, {2, 2}})
	assert.Equal(t, pair{1, 1}, h.Pop())
	assert.Equal(t, pair{2, 2}, h.Pop())
	assert.Equal(t, pair{3, 0}, h.Pop())
}
