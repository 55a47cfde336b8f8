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

// Composition chains an optional pruning stage with an exact filtering
// stage. With no pruner the filter runs on the full list; with a pruner the
// filter runs on the retained sub-list and the resulting indices are lifted
// back into the original coordinate space.
type Composition struct {
	Pruner Pruner
	Filter *Filter
}

// Run filters rel through the composed stages. The returned indices are
// strictly increasing positions of the original list.
func (c Composition) Run(rel []float32, minmax MinMax) FilterSolution {
	if c.Pruner == nil {
		return c.Filter.Filter(rel)
	}

	pruned := c.Pruner.Prune(rel, minmax)
	subList := MaterializeSubList(rel, pruned.Indices)
	solution := c.Filter.Filter(subList)
	RemapIndices(solution.Indices, pruned.Indices)
	return solution
}

// MaterializeSubList gathers the relevances at the given positions into a
// contiguous list.
func MaterializeSubList(rel []float32, indices []uint32) []float32 {
	subList := make([]float32, len(indices))
	for i, index := range indices {
		subList[i] = rel[index]
	}
	return subList
}

// RemapIndices rewrites sub-list positions in place into positions of the
// original list. Both slices are strictly increasing, so the result is too.
func RemapIndices(indices []uint32, prunedIndices []uint32) {
	for i, index := range indices {
		indices[i] = prunedIndices[index]
	}
}
