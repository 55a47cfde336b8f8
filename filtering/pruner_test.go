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
	"sort"
	"testing"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"modernc.org/sortutil"

	"github.com/hpclab/fast-approximate-filtering/metric"
)

func randomList(rng *rand.Rand, n int) []float32 {
	rel := make([]float32, n)
	for i := range rel {
		rel[i] = rng.Float32() * 4
	}
	return rel
}

// topKRelevances returns the k greatest relevances of rel in non-decreasing
// order.
func topKRelevances(rel []float32, k int) []float32 {
	sorted := make([]float32, len(rel))
	copy(sorted, rel)
	sort.Sort(sortutil.Float32Slice(sorted))
	return sorted[len(sorted)-k:]
}

func TestCutoffPruner(t *testing.T) {
	p := NewCutoffPruner()
	rel := []float32{1, 4, 2, 5, 3}
	solution := p.Prune(rel, ComputeMinMax(rel))
	// the cutoff is 3
	assert.Equal(t, []uint32{1, 3, 4}, solution.Indices)
}

func TestTopKPrunerKeepsGreatest(t *testing.T) {
	// S6: a single dominating element survives the pruning
	rel := []float32{0.1, 0.1, 0.1, 9.0, 0.1}
	for _, p := range []Pruner{NewTopKPruner(1), NewTopKPositionalPruner(1)} {
		solution := p.Prune(rel, ComputeMinMax(rel))
		assert.Contains(t, solution.Indices, uint32(3))

		f := NewFilter(1, metric.NewDCG(1))
		composed := Composition{Pruner: p, Filter: f}.Run(rel, ComputeMinMax(rel))
		assert.Equal(t, []uint32{3}, composed.Indices)
	}
}

func TestTopKPrunerShortList(t *testing.T) {
	rel := []float32{3, 1, 2}
	for _, p := range []Pruner{NewTopKPruner(5), NewTopKPositionalPruner(5)} {
		solution := p.Prune(rel, ComputeMinMax(rel))
		assert.Equal(t, []uint32{0, 1, 2}, solution.Indices)
	}
}

func TestTopKPrunerAnyValidSubset(t *testing.T) {
	// with tied relevances the two variants may retain different subsets;
	// both must retain exactly k elements whose relevances form a valid
	// top-k multiset
	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 100; trial++ {
		n := 20 + rng.Intn(50)
		k := 1 + rng.Intn(10)
		rel := randomList(rng, n)
		// inject duplicates
		for i := 0; i < n/4; i++ {
			rel[rng.Intn(n)] = rel[rng.Intn(n)]
		}
		expected := topKRelevances(rel, k)

		for _, p := range []Pruner{NewTopKPruner(k), NewTopKPositionalPruner(k)} {
			solution := p.Prune(rel, ComputeMinMax(rel))
			assertStrictlyIncreasing(t, solution.Indices, n)
			assert.Equal(t, k, solution.Size(), p.Name())

			retained := make([]float32, 0, k)
			for _, index := range solution.Indices {
				retained = append(retained, rel[index])
			}
			sort.Sort(sortutil.Float32Slice(retained))
			assert.Equal(t, expected, retained, p.Name())
		}
	}
}

func TestTopKVariantsAgreeWithoutTies(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for trial := 0; trial < 50; trial++ {
		n := 10 + rng.Intn(40)
		k := 1 + rng.Intn(8)
		rel := randomList(rng, n) // distinct with probability ~1
		straight := NewTopKPruner(k).Prune(rel, ComputeMinMax(rel))
		positional := NewTopKPositionalPruner(k).Prune(rel, ComputeMinMax(rel))

		straightSet := mapset.NewSet(straight.Indices...)
		positionalSet := mapset.NewSet(positional.Indices...)
		assert.True(t, straightSet.Equal(positionalSet))
	}
}

func TestPrunerGuarantees(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	metrics := []metric.Metric{metric.NewDCG(10), metric.NewDCGLZ(10)}
	epsilons := []float32{0.5, 0.1, 0.01}

	for trial := 0; trial < 50; trial++ {
		n := 30 + rng.Intn(170)
		k := 2 + rng.Intn(9)
		rel := randomList(rng, n)
		minmax := ComputeMinMax(rel)

		for _, m := range metrics {
			f := NewFilter(k, m)
			optimal := f.Filter(rel)

			type guarantee struct {
				pruner Pruner
				share  float64
			}
			pruners := []guarantee{
				{NewCutoffPruner(), 0},
				{NewTopKPruner(k), 0.5},
				{NewTopKPositionalPruner(k), 0.5},
			}
			for _, epsilon := range epsilons {
				pruners = append(pruners, guarantee{NewEpsPruner(k, epsilon, m), 1 - float64(epsilon)})
			}

			for _, test := range pruners {
				solution := Composition{Pruner: test.pruner, Filter: f}.Run(rel, minmax)
				assertStrictlyIncreasing(t, solution.Indices, n)
				// pruning cannot beat the exact optimum
				assert.LessOrEqual(t, float64(solution.Score), float64(optimal.Score)+checkTolerance, test.pruner.Name())
				// and must reach its guaranteed share of it
				assert.GreaterOrEqual(t, float64(solution.Score), test.share*float64(optimal.Score)-scoreDelta, test.pruner.Name())
			}
		}
	}
}

func TestEpsPrunerAlternatingList(t *testing.T) {
	// S5
	rel := []float32{1, 5, 1, 5, 1, 5, 1, 5, 1, 5}
	minmax := ComputeMinMax(rel)
	m := metric.NewDCG(3)
	f := NewFilter(3, m)
	optimal := f.Filter(rel)

	p := NewEpsPruner(3, 0.1, m)
	pruned := p.Prune(rel, minmax)
	assertStrictlyIncreasing(t, pruned.Indices, len(rel))

	solution := Composition{Pruner: p, Filter: f}.Run(rel, minmax)
	assert.GreaterOrEqual(t, float64(solution.Score), 0.9*float64(optimal.Score)-scoreDelta)
	assert.LessOrEqual(t, float64(solution.Score), float64(optimal.Score)+checkTolerance)
}

func TestEpsPrunerExtremeEpsilon(t *testing.T) {
	// aggressive epsilon with small k drives the minimum useful gain past
	// the maximum one; the pruner must stay total and keep its guarantee
	rng := rand.New(rand.NewSource(4))
	for _, epsilon := range []float32{0.9, 0.999} {
		for trial := 0; trial < 20; trial++ {
			n := 10 + rng.Intn(90)
			k := 2 + rng.Intn(3)
			rel := randomList(rng, n)
			minmax := ComputeMinMax(rel)

			for _, m := range []metric.Metric{metric.NewDCG(5), metric.NewDCGLZ(5)} {
				f := NewFilter(k, m)
				optimal := f.Filter(rel)
				solution := Composition{Pruner: NewEpsPruner(k, epsilon, m), Filter: f}.Run(rel, minmax)
				assert.GreaterOrEqual(t, float64(solution.Score), (1-float64(epsilon))*float64(optimal.Score)-scoreDelta)
				assert.LessOrEqual(t, float64(solution.Score), float64(optimal.Score)+checkTolerance)
			}
		}
	}
}

func TestEpsPrunerAllZeros(t *testing.T) {
	rel := []float32{0, 0, 0}
	p := NewEpsPruner(2, 0.1, metric.NewDCG(2))
	solution := p.Prune(rel, ComputeMinMax(rel))
	assert.Empty(t, solution.Indices)
}
