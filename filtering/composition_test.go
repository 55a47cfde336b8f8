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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/hpclab/fast-approximate-filtering/metric"
)

// identityPruner keeps every element.
type identityPruner struct{}

func (identityPruner) Name() string { return "Identity" }

func (identityPruner) Prune(rel []float32, _ MinMax) PrunerSolution {
	return identitySolution(len(rel))
}

func TestCompositionWithoutPruner(t *testing.T) {
	rel := []float32{1, 3, 2}
	f := NewFilter(2, metric.NewDCGLZ(2))
	direct := f.Filter(rel)
	composed := Composition{Filter: f}.Run(rel, ComputeMinMax(rel))
	assert.Equal(t, direct, composed)
}

func TestCompositionIdentityPruner(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	f := NewFilter(4, metric.NewDCG(4))
	for trial := 0; trial < 20; trial++ {
		rel := randomList(rng, 1+rng.Intn(50))
		direct := f.Filter(rel)
		composed := Composition{Pruner: identityPruner{}, Filter: f}.Run(rel, ComputeMinMax(rel))
		assert.Equal(t, direct.Indices, composed.Indices)
		assert.Equal(t, direct.Score, composed.Score)
	}
}

func TestCompositionRemap(t *testing.T) {
	indices := []uint32{0, 2}
	prunedIndices := []uint32{1, 3, 4}
	RemapIndices(indices, prunedIndices)
	assert.Equal(t, []uint32{1, 4}, indices)
}

func TestMaterializeSubList(t *testing.T) {
	rel := []float32{0.5, 1.5, 2.5, 3.5}
	assert.Equal(t, []float32{1.5, 3.5}, MaterializeSubList(rel, []uint32{1, 3}))
}

func TestCheckSolution(t *testing.T) {
	m := metric.NewDCGLZ(2)
	rel := []float32{3, 2, 1}
	good := FilterSolution{Score: 4, Indices: []uint32{0, 1}}
	assert.NoError(t, CheckSolution(rel, good, m, -1, 0, 0))
	assert.NoError(t, CheckSolution(rel, good, m, 4, 0, 0))

	// claimed score off by more than the tolerance
	bad := FilterSolution{Score: 4.5, Indices: []uint32{0, 1}}
	assert.Error(t, CheckSolution(rel, bad, m, -1, 0, 0))

	// non increasing indices
	unsorted := FilterSolution{Score: 4, Indices: []uint32{1, 0}}
	assert.Error(t, CheckSolution(rel, unsorted, m, -1, 0, 0))

	// below the guaranteed share of the optimum
	weak := FilterSolution{Score: 2, Indices: []uint32{1}}
	assert.NoError(t, CheckSolution(rel, weak, m, 4, 0.5, 0))
	assert.Error(t, CheckSolution(rel, weak, m, 8, 0.5, 0))

	// above the optimum
	assert.Error(t, CheckSolution(rel, good, m, 2, 0.5, 0))
}

func TestComputeMinMax(t *testing.T) {
	assert.Equal(t, MinMax{Min: 1, Max: 9}, ComputeMinMax([]float32{4, 9, 1, 3}))
	assert.Equal(t, MinMax{Min: 2, Max: 2}, ComputeMinMax([]float32{2}))
}
