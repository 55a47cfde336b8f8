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

// Aggregation accumulates the outcomes of one strategy over many lists.
// Averages are maintained incrementally, which trades a little precision for
// immunity to overflow on long runs.
type Aggregation struct {
	AvgScore                float64 `json:"avg_score"`
	MaxApproximationError   float64 `json:"max_approximation_error"`
	AvgApproximationError   float64 `json:"avg_approximation_error"`
	AvgNumElementsPruned    float64 `json:"avg_num_elements_pruned"`
	AvgNumElementsNotPruned float64 `json:"avg_num_elements_not_pruned"`
	AvgFirstStageTime       float64 `json:"avg_first_stage_time"`
	AvgSecondStageTime      float64 `json:"avg_second_stage_time"`
	AvgTotalTime            float64 `json:"avg_total_time"`
}

// Update folds one outcome into the aggregation. numListsPreviouslyAssessed
// is the number of outcomes folded in so far. A negative optimalScore marks
// the outcome as exact, with no approximation error to track.
func (a *Aggregation) Update(outcome Outcome, numListsPreviouslyAssessed int, optimalScore float64) {
	newMultiplier := 1.0 / (float64(numListsPreviouslyAssessed) + 1.0)
	oldMultiplier := float64(numListsPreviouslyAssessed) * newMultiplier

	approximationError := 0.0
	if optimalScore > 0 {
		// a zero optimum leaves no room for approximation error, and JSON
		// cannot carry the NaN a division would produce
		approximationError = 1.0 - float64(outcome.Score)/optimalScore
	}
	if approximationError > a.MaxApproximationError {
		a.MaxApproximationError = approximationError
	}

	a.AvgScore = newMultiplier*float64(outcome.Score) + oldMultiplier*a.AvgScore
	a.AvgApproximationError = newMultiplier*approximationError + oldMultiplier*a.AvgApproximationError
	a.AvgNumElementsPruned = newMultiplier*float64(outcome.NumElementsPruned) + oldMultiplier*a.AvgNumElementsPruned
	a.AvgNumElementsNotPruned = newMultiplier*float64(outcome.NumElementsNotPruned) + oldMultiplier*a.AvgNumElementsNotPruned
	a.AvgFirstStageTime = newMultiplier*outcome.FirstStageTime + oldMultiplier*a.AvgFirstStageTime
	a.AvgSecondStageTime = newMultiplier*outcome.SecondStageTime + oldMultiplier*a.AvgSecondStageTime
	a.AvgTotalTime = newMultiplier*outcome.TotalTime + oldMultiplier*a.AvgTotalTime
}

// Cell is the report entry of one (n_cut, k) combination.
type Cell struct {
	NCut             int                     `json:"n_cut"`
	K                int                     `json:"k"`
	AvgReadingTime   float64                 `json:"avg_reading_time"`
	NumListsAssessed int                     `json:"num_lists_assessed"`
	Strategies       map[string]*Aggregation `json:"strategies"`
}
