// Copyright 2024 hpclab Project Authors
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

// Package assess measures pruner/filter compositions over collections of
// result lists and aggregates scores, approximation errors and stage timings
// into a JSON report.
package assess

import (
	"time"

	"github.com/juju/errors"

	"github.com/hpclab/fast-approximate-filtering/filtering"
)

// sink defeats dead code elimination during repeated timing runs.
var sink int

// Outcome is the result of assessing one strategy on one list. Times are in
// milliseconds, averaged over the configured number of runs.
type Outcome struct {
	Score                float32
	Indices              []uint32
	NumElementsPruned    int
	NumElementsNotPruned int
	FirstStageTime       float64
	SecondStageTime      float64
	TotalTime            float64
}

// Strategy is a named pruner/filter composition assessed repeatedly for
// stable timings. A nil pruner assesses the exact filter alone.
type Strategy struct {
	Name         string
	Pruner       filtering.Pruner
	Filter       *filtering.Filter
	NumRuns      int
	EpsilonBelow float64
	EpsilonAbove float64
}

// NewStrategy creates an assessment strategy. The filter is mandatory and
// numRuns must be strictly positive. The epsilons bound how far below and
// above the optimal score a solution may legitimately land.
func NewStrategy(name string, pruner filtering.Pruner, filter *filtering.Filter, numRuns int, epsilonBelow, epsilonAbove float64) (*Strategy, error) {
	if filter == nil {
		return nil, errors.New("the parameter filter must be not null")
	}
	if numRuns <= 0 {
		return nil, errors.New("the parameter numRuns must be a strictly positive number")
	}
	if epsilonBelow < 0 {
		return nil, errors.New("the parameter epsilonBelow must be a positive floating number")
	}
	if epsilonAbove < 0 {
		return nil, errors.New("the parameter epsilonAbove must be a positive floating number")
	}
	return &Strategy{
		Name:         name,
		Pruner:       pruner,
		Filter:       filter,
		NumRuns:      numRuns,
		EpsilonBelow: epsilonBelow,
		EpsilonAbove: epsilonAbove,
	}, nil
}

// Run assesses the strategy on one list. The first run provides the
// solution; the remaining runs only feed the timing averages.
func (s *Strategy) Run(rel []float32, minmax filtering.MinMax) Outcome {
	var outcome Outcome
	var solution filtering.FilterSolution

	if s.Pruner != nil {
		// first stage
		start := time.Now()
		pruned := s.Pruner.Prune(rel, minmax)
		for run := 1; run < s.NumRuns; run++ {
			sink = s.Pruner.Prune(rel, minmax).Size()
		}
		outcome.FirstStageTime = milliseconds(time.Since(start)) / float64(s.NumRuns)

		outcome.NumElementsNotPruned = pruned.Size()
		outcome.NumElementsPruned = len(rel) - pruned.Size()
		subList := filtering.MaterializeSubList(rel, pruned.Indices)

		// second stage
		start = time.Now()
		solution = s.Filter.Filter(subList)
		for run := 1; run < s.NumRuns; run++ {
			sink = s.Filter.Filter(subList).Size()
		}
		outcome.SecondStageTime = milliseconds(time.Since(start)) / float64(s.NumRuns)

		filtering.RemapIndices(solution.Indices, pruned.Indices)
	} else {
		start := time.Now()
		solution = s.Filter.Filter(rel)
		for run := 1; run < s.NumRuns; run++ {
			sink = s.Filter.Filter(rel).Size()
		}
		outcome.SecondStageTime = milliseconds(time.Since(start)) / float64(s.NumRuns)
	}

	outcome.Score = solution.Score
	outcome.Indices = solution.Indices
	outcome.TotalTime = outcome.FirstStageTime + outcome.SecondStageTime
	return outcome
}

func milliseconds(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
