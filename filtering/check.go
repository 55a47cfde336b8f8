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
	"github.com/juju/errors"

	"github.com/hpclab/fast-approximate-filtering/metric"
)

// checkTolerance absorbs rounding differences between a claimed score and
// the score recomputed from the solution indices.
const checkTolerance = 1.0e-12

// ScoreSolution recomputes the score of a solution from its indices.
func ScoreSolution(rel []float32, indices []uint32, m metric.Metric) float32 {
	var score float32
	for i, index := range indices {
		score += m.Score(rel[index], i+1)
	}
	return score
}

// CheckSolution validates a solution against the list it was computed from.
// The claimed score must match the score recomputed from the indices, and
// both must stay within [(1-epsilonBelow)*optimal - tol, (1+epsilonAbove)*optimal + tol]
// when an optimal score is known. Pass a negative optimalScore to check the
// solution in isolation. The indices must be strictly increasing.
func CheckSolution(
	rel []float32,
	solution FilterSolution,
	m metric.Metric,
	optimalScore float32,
	epsilonBelow, epsilonAbove float64,
) error {
	for i := 1; i < len(solution.Indices); i++ {
		if solution.Indices[i-1] >= solution.Indices[i] {
			return errors.Errorf("the solution indices are not strictly increasing at position %d", i)
		}
	}

	realScore := float64(ScoreSolution(rel, solution.Indices, m))
	claimedScore := float64(solution.Score)

	if claimedScore+checkTolerance < realScore {
		return errors.Errorf("the solution score %v is less than the recomputed score %v", claimedScore, realScore)
	}
	if claimedScore-checkTolerance > realScore {
		return errors.Errorf("the solution score %v is greater than the recomputed score %v", claimedScore, realScore)
	}

	if optimalScore >= 0 {
		optimal := float64(optimalScore)
		if realScore+checkTolerance < (1.0-epsilonBelow)*optimal {
			return errors.Errorf("the solution score %v is less than (1-%v) times the optimal score %v",
				realScore, epsilonBelow, optimal)
		}
		if realScore-checkTolerance > (1.0+epsilonAbove)*optimal {
			return errors.Errorf("the solution score %v is greater than (1+%v) times the optimal score %v",
				realScore, epsilonAbove, optimal)
		}
	}

	return nil
}
