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

// CutoffPruner keeps the elements whose relevance reaches the midpoint
// between the minimum and maximum of the list. It offers no approximation
// guarantee.
type CutoffPruner struct{}

// NewCutoffPruner creates a cutoff pruner.
func NewCutoffPruner() *CutoffPruner {
	return &CutoffPruner{}
}

func (*CutoffPruner) Name() string {
	return "Cutoff"
}

// Prune keeps every position whose relevance is at least (min+max)/2.
func (*CutoffPruner) Prune(rel []float32, minmax MinMax) PrunerSolution {
	cutoff := 0.5*minmax.Min + 0.5*minmax.Max
	solution := PrunerSolution{Indices: make([]uint32, 0, len(rel))}
	for i, r := range rel {
		if r >= cutoff {
			solution.Indices = append(solution.Indices, uint32(i))
		}
	}
	return solution
}
