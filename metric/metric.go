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

// Package metric implements position-discounted search quality metrics of the
// DCG family. A metric scores an element as gain(relevance) * discount(position)
// with 1-based positions. Discounts up to the maximum position are precomputed
// together with their prefix sums, so Discount and DiscountSum are table
// lookups. Metrics are immutable after construction and may be shared across
// goroutines.
package metric

import (
	"github.com/chewxy/math32"
)

// Metric scores relevances placed at ranked positions.
type Metric interface {
	// Name returns the metric identifier used on the command line.
	Name() string
	// Gain maps a relevance to its gain.
	Gain(relevance float32) float32
	// GainInverse maps a gain back to a relevance, such that
	// Gain(GainInverse(x)) is approximately x.
	GainInverse(gain float32) float32
	// Discount returns the positional discount. Position 0 discounts to 0;
	// the discount is strictly decreasing for positions >= 1.
	Discount(position int) float32
	// DiscountSum returns the sum of discounts over positions
	// [left, right], both included, with 1 <= left.
	DiscountSum(left, right int) float32
	// Score scores a relevance at a 1-based position.
	Score(relevance float32, position int) float32
	// MaxPosition returns the largest position with a precomputed discount.
	MaxPosition() int
}

// DCG is the Discounted Cumulative Gain metric with exponential gains:
// gain(r) = 2^r - 1 and discount(p) = 1/log2(p+1).
type DCG struct {
	discountTable
}

// NewDCG creates a DCG metric with discounts precomputed up to maxPosition.
func NewDCG(maxPosition int) *DCG {
	return &DCG{newDiscountTable(maxPosition, func(position int) float32 {
		return 1 / math32.Log2(float32(position)+1)
	})}
}

func (*DCG) Name() string {
	return "dcg"
}

func (*DCG) Gain(relevance float32) float32 {
	return math32.Exp2(relevance) - 1
}

func (*DCG) GainInverse(gain float32) float32 {
	return math32.Log2(gain + 1)
}

func (m *DCG) Score(relevance float32, position int) float32 {
	return m.Gain(relevance) * m.Discount(position)
}

// DCGLZ is the linear-gain variant of DCG:
// gain(r) = r and discount(p) = 1/p.
type DCGLZ struct {
	discountTable
}

// NewDCGLZ creates a DCGlz metric with discounts precomputed up to maxPosition.
func NewDCGLZ(maxPosition int) *DCGLZ {
	return &DCGLZ{newDiscountTable(maxPosition, func(position int) float32 {
		return 1 / float32(position)
	})}
}

func (*DCGLZ) Name() string {
	return "dcglz"
}

func (*DCGLZ) Gain(relevance float32) float32 {
	return relevance
}

func (*DCGLZ) GainInverse(gain float32) float32 {
	return gain
}

func (m *DCGLZ) Score(relevance float32, position int) float32 {
	return m.Gain(relevance) * m.Discount(position)
}

// discountTable holds discounts[0..max] with discounts[0] = 0 and the prefix
// sums of the same range.
type discountTable struct {
	discounts    []float32
	discountSums []float32
}

func newDiscountTable(maxPosition int, discount func(position int) float32) discountTable {
	discounts := make([]float32, maxPosition+1)
	discountSums := make([]float32, maxPosition+1)
	for i := 1; i <= maxPosition; i++ {
		discounts[i] = discount(i)
		discountSums[i] = discountSums[i-1] + discounts[i]
	}
	return discountTable{discounts: discounts, discountSums: discountSums}
}

func (t *discountTable) Discount(position int) float32 {
	return t.discounts[position]
}

func (t *discountTable) DiscountSum(left, right int) float32 {
	return t.discountSums[right] - t.discountSums[left-1]
}

func (t *discountTable) MaxPosition() int {
	return len(t.discounts) - 1
}

// New creates a metric by name. Available names are "dcg" and "dcglz".
func New(name string, maxPosition int) (Metric, bool) {
	switch name {
	case "dcg":
		return NewDCG(maxPosition), true
	case "dcglz":
		return NewDCGLZ(maxPosition), true
	default:
		return nil, false
	}
}
