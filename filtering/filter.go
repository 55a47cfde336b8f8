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
	"github.com/chewxy/math32"
	"github.com/samber/lo"

	"github.com/hpclab/fast-approximate-filtering/metric"
)

// Filter is the exact Filtering@k algorithm of Spirin et al. ("Relevance-aware
// Filtering of Tuples Sorted by an Attribute Value via Direct Optimization of
// Search Quality Metrics"). It runs the O(n*k) dynamic program and returns an
// optimal subset of at most k elements in attribute order.
type Filter struct {
	k      int
	metric metric.Metric
}

// NewFilter creates a filter keeping at most k elements, scored by m. The
// metric must have discounts precomputed at least up to position k.
func NewFilter(k int, m metric.Metric) *Filter {
	return &Filter{k: k, metric: m}
}

// K returns the maximum number of elements kept by the filter.
func (f *Filter) K() int {
	return f.k
}

// Filter computes an optimal Filtering@k solution over rel. The result's
// indices are strictly increasing. Ties between equally scored subsets are
// resolved in favor of the shorter one.
func (f *Filter) Filter(rel []float32) FilterSolution {
	var solution FilterSolution
	n := len(rel)
	if n == 0 || f.k == 0 {
		return solution
	}
	k := f.k
	if k > n {
		k = n
	}

	// matrix used by the dynamic program: rows 0..k-1 are triangular, the
	// remaining rows hold k cells each. Cells are written in row order and
	// read only by the next row, so the backing slice needs no zeroing
	// beyond what make provides.
	m := make([]float32, (k-1)*k/2+k*(n-k+1))
	buffer := make([]float32, n+k)
	gains := buffer[:n]
	discounts := buffer[n:]
	for i := 0; i < k; i++ {
		gains[i] = f.metric.Gain(rel[i])
		discounts[i] = f.metric.Discount(i + 1)
	}
	for i := k; i < n; i++ {
		gains[i] = f.metric.Gain(rel[i])
	}

	// row shifts used to address the flat slice as a matrix
	prevRowShift := 0
	currRowShift := 0

	m[0] = gains[0] * discounts[0]
	for row := 1; row < k; row++ { // the triangular block ends at row k-1
		currRowShift = prevRowShift + row

		m[currRowShift] = math32.Max(m[prevRowShift], gains[row]*discounts[0])
		for col := 1; col < row; col++ {
			m[currRowShift+col] = math32.Max(m[prevRowShift+col],
				m[prevRowShift+col-1]+gains[row]*discounts[col])
		}
		m[currRowShift+row] = m[prevRowShift+row-1] + gains[row]*discounts[row]

		prevRowShift = currRowShift
	}
	for row := k; row < n; row++ { // after row k-1 the block is rectangular
		currRowShift = prevRowShift + k

		m[currRowShift] = math32.Max(m[prevRowShift], gains[row]*discounts[0])
		for col := 1; col < k; col++ {
			m[currRowShift+col] = math32.Max(m[prevRowShift+col],
				m[prevRowShift+col-1]+gains[row]*discounts[col])
		}

		prevRowShift = currRowShift
	}

	// best score within the last row; strict comparison keeps the smallest
	// column on ties, hence the shorter subset
	solution.Indices = make([]uint32, 0, k)
	bestColumn := 0
	for col := 0; col < k; col++ {
		if m[currRowShift+col] > solution.Score {
			solution.Score = m[currRowShift+col]
			bestColumn = col
		}
	}

	// trace back the rows participating in the solution
	for row := n - 1; row > 0; row-- {
		if row < k {
			prevRowShift = currRowShift - row
		} else {
			prevRowShift = currRowShift - k
		}
		if m[currRowShift+bestColumn] > m[prevRowShift+bestColumn] {
			solution.Indices = append(solution.Indices, uint32(row))
			bestColumn--
			if bestColumn < 0 {
				break
			}
		}
		currRowShift = prevRowShift
	}
	if currRowShift == 0 {
		solution.Indices = append(solution.Indices, 0)
	}

	// indices were collected from right to left
	lo.Reverse(solution.Indices)
	return solution
}
