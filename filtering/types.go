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

// Package filtering selects at most k elements from a relevance list sorted
// by an external attribute, maximizing a position-discounted quality metric
// while preserving the attribute order. It provides the exact dynamic
// programming filter, three pruners that shrink the candidate list with
// approximation guarantees, and the pruner/filter composition.
package filtering

// MinMax carries the minimum and maximum relevance of a list. It is supplied
// by the caller, which usually knows both from the sort by attribute.
type MinMax struct {
	Min float32
	Max float32
}

// ComputeMinMax scans a non-empty relevance list for its minimum and maximum.
func ComputeMinMax(rel []float32) MinMax {
	minmax := MinMax{Min: rel[0], Max: rel[0]}
	for _, r := range rel[1:] {
		if r < minmax.Min {
			minmax.Min = r
		} else if r > minmax.Max {
			minmax.Max = r
		}
	}
	return minmax
}

// PrunerSolution is the outcome of a pruning stage: the positions of the
// retained elements, strictly increasing in the original list.
type PrunerSolution struct {
	Indices []uint32
}

// Size returns the number of retained elements.
func (s PrunerSolution) Size() int {
	return len(s.Indices)
}

// FilterSolution is the outcome of a filtering stage: the score of the
// selected subset and the positions of its elements, strictly increasing.
// At most k indices are present.
type FilterSolution struct {
	Score   float32
	Indices []uint32
}

// Size returns the number of selected elements.
func (s FilterSolution) Size() int {
	return len(s.Indices)
}

// Pruner shrinks a relevance list to a subset of positions such that
// filtering the subset preserves a variant-specific share of the optimal
// score. Pruners are stateless between calls and safe for concurrent use
// as long as the shared metric is not mutated.
type Pruner interface {
	// Name returns the strategy name used in reports.
	Name() string
	// Prune returns the retained positions, strictly increasing.
	Prune(rel []float32, minmax MinMax) PrunerSolution
}
