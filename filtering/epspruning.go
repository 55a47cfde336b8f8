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
	"fmt"
	"math"

	"github.com/chewxy/math32"
	"github.com/samber/lo"

	"github.com/hpclab/fast-approximate-filtering/base/heap"
	"github.com/hpclab/fast-approximate-filtering/metric"
)

// EpsPruner implements the epsilon-filtering pruning of Nardini et al.
// ("Fast Approximate Filtering of Search Results Sorted by Attribute"). The
// gain axis is partitioned into geometric intervals of ratio 1-epsilon;
// elements whose gain cannot move the optimum by more than epsilon times the
// optimal score are discarded. Filtering the pruned list is guaranteed to
// score within (1-epsilon) of the optimum, and never above it.
type EpsPruner struct {
	k       int
	epsilon float32
	metric  metric.Metric
}

// NewEpsPruner creates an epsilon pruner for at most k kept elements.
// Epsilon must lie in (0, 1).
func NewEpsPruner(k int, epsilon float32, m metric.Metric) *EpsPruner {
	return &EpsPruner{k: k, epsilon: epsilon, metric: m}
}

func (p *EpsPruner) Name() string {
	return fmt.Sprintf("EpsFiltering (epsilon=%v)", p.epsilon)
}

// Epsilon returns the maximum approximation error of the pruner.
func (p *EpsPruner) Epsilon() float32 {
	return p.epsilon
}

// Prune returns the positions that can participate in a (1-epsilon)-optimal
// filtering solution.
func (p *EpsPruner) Prune(rel []float32, minmax MinMax) PrunerSolution {
	delta := 1 - p.epsilon
	m := p.metric

	maxGain := m.Gain(minmax.Max)
	if maxGain <= 0 {
		// every subset scores zero, nothing is worth keeping
		return PrunerSolution{Indices: []uint32{}}
	}
	minGain := math32.Max(
		// the minimum element
		m.Gain(minmax.Min),
		// the contribution of all elements after the maximum one must not
		// exceed epsilon times its gain
		(p.epsilon*maxGain*m.Discount(1))/(delta*m.DiscountSum(2, p.k)),
	)
	// with very aggressive epsilon or tiny k the bound may pass the maximum
	// gain (or overflow to +Inf when the discount tail is empty); keeping
	// more elements is always safe, so clamp
	minGain = math32.Min(minGain, maxGain)
	// workaround to fix numerical instability
	minGain = float32(float64(minGain) * (1.0 - 1e-16))
	minThreshold := m.GainInverse(minGain)
	for i := 16; i > 0 && m.Gain(minThreshold) > minGain; i-- { // workaround to fix numerical instability
		minThreshold = m.GainInverse(minGain - math32.Pow(0.1, float32(i)))
	}

	// compute the interval boundaries
	intervalBoundaries := make([]float32,
		1+int(1+math.Ceil(math.Log2(float64(minGain)/float64(maxGain))/math.Log2(float64(delta)))),
	)
	v := float64(maxGain)
	for i := len(intervalBoundaries); i > 0; i-- {
		intervalBoundaries[i-1] = m.GainInverse(float32(v))
		v *= float64(delta)
	}
	// fix the error of the last interval due to the inverse operation
	intervalBoundaries[len(intervalBoundaries)-1] = minmax.Max

	n := len(rel)
	solution := PrunerSolution{
		Indices: make([]uint32, 0, min(len(intervalBoundaries)*p.k, n)),
	}

	// collect the rightmost k elements passing the threshold; they feed the
	// heap used to prune the rest of the scan
	values := make([]float32, 0, p.k)
	i := n
	for i > 0 {
		i--
		if rel[i] >= minThreshold {
			solution.Indices = append(solution.Indices, uint32(i))
			values = append(values, rel[i])

			if len(values) == p.k {
				break
			}
		}
	}
	if len(values) == 0 {
		return solution
	}
	h := heap.NewMin[float32]()
	h.Heapify(values)

	// the heap minimum dictates the lowest interval still worth keeping
	minIntervalID := 0
	for intervalBoundaries[minIntervalID] < h.Peek() {
		minIntervalID++
	}
	minThreshold = intervalBoundaries[minIntervalID]

	for i > 0 {
		i--
		if rel[i] <= minThreshold {
			continue
		}
		solution.Indices = append(solution.Indices, uint32(i))
		h.Replace(rel[i])

		// advance the interval and the threshold
		if intervalBoundaries[minIntervalID] < h.Peek() {
			minIntervalID++
			for intervalBoundaries[minIntervalID] < h.Peek() {
				minIntervalID++
			}
			if minIntervalID == len(intervalBoundaries)-1 {
				break
			}
			minThreshold = intervalBoundaries[minIntervalID]
		}
	}

	// the scan ran from right to left
	lo.Reverse(solution.Indices)
	return solution
}
