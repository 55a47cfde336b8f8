// Copyright 2023 hpclab Project Authors
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

package filtering

import (
	"sort"

	"github.com/hpclab/fast-approximate-filtering/base/heap"
)

// TopKPruner keeps the k elements with the greatest relevances, in attribute
// order. Filtering the pruned list is guaranteed to reach at least half of
// the optimal score for monotone non-increasing discount metrics.
type TopKPruner struct {
	k int
}

// NewTopKPruner creates a top-k pruner.
func NewTopKPruner(k int) *TopKPruner {
	return &TopKPruner{k: k}
}

func (*TopKPruner) Name() string {
	return "Topk"
}

// Prune keeps the positions of the k greatest relevances. With tied
// relevances at the boundary, the retained subset is one of the equally
// valid top-k subsets.
func (p *TopKPruner) Prune(rel []float32, _ MinMax) PrunerSolution {
	n := len(rel)
	if n <= p.k {
		return identitySolution(n)
	}

	// fill the heap with the top-k relevances
	values := make([]float32, p.k)
	copy(values, rel[:p.k])
	h := heap.NewMin[float32]()
	h.Heapify(values)
	for i := p.k; i < n; i++ {
		if rel[i] < h.Peek() {
			continue
		}
		h.Replace(rel[i])
	}

	// emit the positions matching the heap content, preserving the sort by
	// attribute; popping on equality consumes duplicates one at a time
	solution := PrunerSolution{Indices: make([]uint32, 0, h.Len())}
	for i := 0; i < n; i++ {
		if rel[i] < h.Peek() {
			continue
		}
		solution.Indices = append(solution.Indices, uint32(i))
		if rel[i] == h.Peek() {
			h.Pop()
			if h.Len() == 0 {
				break
			}
		}
	}

	return solution
}

// TopKPositionalPruner is the optimized top-k pruner. Heap elements carry
// their positions, so the emit phase is a sort of k pairs instead of a second
// scan over the whole list. The guarantee is the same as TopKPruner's.
type TopKPositionalPruner struct {
	k int
}

// NewTopKPositionalPruner creates a positional top-k pruner.
func NewTopKPositionalPruner(k int) *TopKPositionalPruner {
	return &TopKPositionalPruner{k: k}
}

func (*TopKPositionalPruner) Name() string {
	return "Topk-positional"
}

type relPos struct {
	relevance float32
	position  uint32
}

// Prune keeps the positions of the k greatest relevances.
func (p *TopKPositionalPruner) Prune(rel []float32, _ MinMax) PrunerSolution {
	n := len(rel)
	if n <= p.k {
		return identitySolution(n)
	}

	// seed the heap with the last k elements
	pairs := make([]relPos, 0, p.k)
	i := n
	for i > n-p.k {
		i--
		pairs = append(pairs, relPos{relevance: rel[i], position: uint32(i)})
	}
	h := heap.New(func(a, b relPos) bool { return a.relevance < b.relevance })
	h.Heapify(pairs)
	for i > 0 {
		i--
		if rel[i] < h.Peek().relevance {
			continue
		}
		h.Replace(relPos{relevance: rel[i], position: uint32(i)})
	}

	// pairs is the heap's backing slice; order it by position to restore the
	// sort by attribute
	sort.Slice(pairs, func(a, b int) bool { return pairs[a].position < pairs[b].position })
	solution := PrunerSolution{Indices: make([]uint32, len(pairs))}
	for j, pair := range pairs {
		solution.Indices[j] = pair.position
	}

	return solution
}

func identitySolution(n int) PrunerSolution {
	solution := PrunerSolution{Indices: make([]uint32, n)}
	for i := range solution.Indices {
		solution.Indices[i] = uint32(i)
	}
	return solution
}
