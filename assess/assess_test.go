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

package assess

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpclab/fast-approximate-filtering/filtering"
	"github.com/hpclab/fast-approximate-filtering/metric"
)

func TestNewStrategy(t *testing.T) {
	f := filtering.NewFilter(2, metric.NewDCG(2))
	_, err := NewStrategy("OPT", nil, nil, 1, 0, 0)
	assert.Error(t, err)
	_, err = NewStrategy("OPT", nil, f, 0, 0, 0)
	assert.Error(t, err)
	_, err = NewStrategy("OPT", nil, f, 1, -1, 0)
	assert.Error(t, err)
	_, err = NewStrategy("OPT", nil, f, 1, 0, -1)
	assert.Error(t, err)
	s, err := NewStrategy("OPT", nil, f, 3, 0, 0)
	assert.NoError(t, err)
	assert.Equal(t, "OPT", s.Name)
}

func TestStrategyRunWithoutPruner(t *testing.T) {
	m := metric.NewDCGLZ(2)
	f := filtering.NewFilter(2, m)
	s, err := NewStrategy("OPT", nil, f, 2, 0, 0)
	require.NoError(t, err)

	rel := []float32{3, 1, 2}
	outcome := s.Run(rel, filtering.ComputeMinMax(rel))
	assert.Equal(t, []uint32{0, 2}, outcome.Indices)
	assert.InDelta(t, 4, outcome.Score, 1e-4)
	assert.Zero(t, outcome.NumElementsPruned)
	assert.Zero(t, outcome.FirstStageTime)
	assert.GreaterOrEqual(t, outcome.TotalTime, outcome.SecondStageTime)
}

func TestStrategyRunWithPruner(t *testing.T) {
	m := metric.NewDCG(1)
	f := filtering.NewFilter(1, m)
	s, err := NewStrategy("Topk-OPT", filtering.NewTopKPruner(1), f, 1, 0.5, 0)
	require.NoError(t, err)

	rel := []float32{0.1, 0.1, 0.1, 9.0, 0.1}
	outcome := s.Run(rel, filtering.ComputeMinMax(rel))
	assert.Equal(t, []uint32{3}, outcome.Indices)
	assert.Equal(t, 4, outcome.NumElementsPruned)
	assert.Equal(t, 1, outcome.NumElementsNotPruned)
	assert.InDelta(t, outcome.FirstStageTime+outcome.SecondStageTime, outcome.TotalTime, 1e-9)
}

func TestAggregationUpdate(t *testing.T) {
	var agg Aggregation
	agg.Update(Outcome{Score: 10, NumElementsNotPruned: 4, TotalTime: 2}, 0, -1)
	assert.Equal(t, 10.0, agg.AvgScore)
	assert.Zero(t, agg.AvgApproximationError)

	agg.Update(Outcome{Score: 20, NumElementsNotPruned: 8, TotalTime: 4}, 1, -1)
	assert.Equal(t, 15.0, agg.AvgScore)
	assert.Equal(t, 6.0, agg.AvgNumElementsNotPruned)
	assert.Equal(t, 3.0, agg.AvgTotalTime)
}

func TestAggregationApproximationError(t *testing.T) {
	var agg Aggregation
	agg.Update(Outcome{Score: 9}, 0, 10)
	assert.InDelta(t, 0.1, agg.AvgApproximationError, 1e-9)
	assert.InDelta(t, 0.1, agg.MaxApproximationError, 1e-9)

	agg.Update(Outcome{Score: 10}, 1, 10)
	assert.InDelta(t, 0.05, agg.AvgApproximationError, 1e-9)
	assert.InDelta(t, 0.1, agg.MaxApproximationError, 1e-9)

	// a zero optimum contributes no approximation error
	agg.Update(Outcome{Score: 0}, 2, 0)
	assert.InDelta(t, 0.1, agg.MaxApproximationError, 1e-9)
}

func TestCellJSON(t *testing.T) {
	cell := Cell{
		NCut:             100,
		K:                10,
		AvgReadingTime:   0.5,
		NumListsAssessed: 3,
		Strategies: map[string]*Aggregation{
			"OPT": {AvgScore: 12.5},
		},
	}
	data, err := json.Marshal(cell)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"n_cut":100`)
	assert.Contains(t, string(data), `"avg_reading_time":0.5`)
	assert.Contains(t, string(data), `"num_lists_assessed":3`)
	assert.Contains(t, string(data), `"avg_score":12.5`)
	assert.Contains(t, string(data), `"max_approximation_error":0`)
	assert.Contains(t, string(data), `"avg_num_elements_pruned":0`)
	assert.Contains(t, string(data), `"avg_first_stage_time":0`)
}
