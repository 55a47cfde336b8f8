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

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/juju/errors"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/hpclab/fast-approximate-filtering/assess"
	"github.com/hpclab/fast-approximate-filtering/base/log"
	"github.com/hpclab/fast-approximate-filtering/filtering"
	"github.com/hpclab/fast-approximate-filtering/metric"
	"github.com/hpclab/fast-approximate-filtering/tsv"
)

// readingSink keeps the reading time measurement loops alive.
var readingSink float32

var assessmentCommand = &cobra.Command{
	Use:   "assessment [FILES...]",
	Short: "Test the filtering strategies and print the performance results",
	RunE:  runAssessment,
}

func init() {
	flags := assessmentCommand.Flags()
	flags.StringP("metric", "m", "dcg", "search quality metric to use, available options are: dcg, dcglz")
	flags.StringP("n-cut-list", "n", "0,10000", "truncate all lists to the first n elements, if n is greater than zero")
	flags.StringP("k-list", "k", "50,100", "maximum number of elements to return")
	flags.StringP("epsilon-list", "e", "0.1,0.01", "target approximation factor")
	flags.BoolP("skip-shorter-lists", "s", true, "skip the lists shorter than n elements")
	flags.IntP("num-runs", "r", 5, "number of times each test must be repeated")
	flags.IntP("cpu-affinity", "a", -1, "set the cpu affinity of the process")
	flags.BoolP("check-solutions", "c", false, "check all solutions")
	flags.BoolP("show-progress", "p", true, "show the computation progress")
	flags.StringP("output", "o", "", "write result to FILE instead of standard output")
	flags.Bool("test-cutoff", true, "test the cutoff-opt strategy")
	flags.Bool("test-topk", true, "test the topk-opt strategy")
	flags.Bool("test-epsfiltering", true, "test the epsilon filtering strategy")
}

func runAssessment(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	// parameters
	nCutStr, _ := flags.GetString("n-cut-list")
	nCutList, err := tsv.ParseIntList(nCutStr)
	if err != nil {
		return errors.Trace(err)
	}
	nCutList, err = validateNCutList(nCutList)
	if err != nil {
		return errors.Trace(err)
	}

	kStr, _ := flags.GetString("k-list")
	kList, err := tsv.ParseIntList(kStr)
	if err != nil {
		return errors.Trace(err)
	}
	if err = validateKList(kList, nCutList); err != nil {
		return errors.Trace(err)
	}

	epsilonStr, _ := flags.GetString("epsilon-list")
	epsilonList, err := tsv.ParseFloat32List(epsilonStr)
	if err != nil {
		return errors.Trace(err)
	}
	if err = validateEpsilonList(epsilonList); err != nil {
		return errors.Trace(err)
	}

	numRuns, _ := flags.GetInt("num-runs")
	if numRuns <= 0 {
		return errors.New("the parameter num-runs must be a number strictly greater than 0")
	}
	skipShorterLists, _ := flags.GetBool("skip-shorter-lists")
	checkSolutions, _ := flags.GetBool("check-solutions")
	showProgress, _ := flags.GetBool("show-progress")
	testCutoff, _ := flags.GetBool("test-cutoff")
	testTopk, _ := flags.GetBool("test-topk")
	testEpsFiltering, _ := flags.GetBool("test-epsfiltering")

	if cpuAffinity, _ := flags.GetInt("cpu-affinity"); cpuAffinity > -1 {
		if err = assess.SetCPUAffinity(cpuAffinity); err != nil {
			return errors.Trace(err)
		}
	}

	output, closeOutput, err := openOutput(flags)
	if err != nil {
		return errors.Trace(err)
	}
	defer closeOutput()

	if err = checkInputFiles(args); err != nil {
		return errors.Trace(err)
	}

	// test configuration
	metricName, _ := flags.GetString("metric")
	maxK := kList[len(kList)-1]
	m, ok := metric.New(metricName, maxK)
	if !ok {
		return errors.New("the given metric is unavailable")
	}

	testsOpt := make([]*assess.Strategy, len(kList))
	testsList := make([][]*assess.Strategy, len(kList))
	for ki, k := range kList {
		filter := filtering.NewFilter(k, m)
		if testsOpt[ki], err = assess.NewStrategy("OPT", nil, filter, numRuns, 0, 0); err != nil {
			return errors.Trace(err)
		}
		addStrategy := func(name string, pruner filtering.Pruner, epsilonBelow float64) error {
			strategy, strategyErr := assess.NewStrategy(name, pruner, filter, numRuns, epsilonBelow, 0)
			if strategyErr != nil {
				return errors.Trace(strategyErr)
			}
			testsList[ki] = append(testsList[ki], strategy)
			return nil
		}
		if testCutoff {
			if err = addStrategy("Cutoff-OPT", filtering.NewCutoffPruner(), 1.0); err != nil {
				return err
			}
		}
		if testTopk {
			if err = addStrategy("Topk-OPT", filtering.NewTopKPruner(k), 0.5); err != nil {
				return err
			}
		}
		if testEpsFiltering {
			for _, epsilon := range epsilonList {
				pruner := filtering.NewEpsPruner(k, epsilon, m)
				if err = addStrategy(pruner.Name(), pruner, float64(epsilon)); err != nil {
					return err
				}
			}
		}
	}

	// input source
	useFiles := len(args) > 0
	var stdin *bufio.Reader
	numLists := len(args)
	if !useFiles {
		stdin = bufio.NewReader(os.Stdin)
		if numLists, err = tsv.ReadListCount(stdin); err != nil {
			return errors.Trace(err)
		}
	}

	// aggregation state, one cell per (n_cut, k) combination
	aggOpt := make([][]*assess.Aggregation, len(nCutList))
	aggTests := make([][][]*assess.Aggregation, len(nCutList))
	numAssessed := make([][]int, len(nCutList))
	avgReadingTime := make([][]float64, len(nCutList))
	for ni := range nCutList {
		aggOpt[ni] = make([]*assess.Aggregation, len(kList))
		aggTests[ni] = make([][]*assess.Aggregation, len(kList))
		numAssessed[ni] = make([]int, len(kList))
		avgReadingTime[ni] = make([]float64, len(kList))
		for ki := range kList {
			aggOpt[ni][ki] = &assess.Aggregation{}
			aggTests[ni][ki] = make([]*assess.Aggregation, len(testsList[ki]))
			for j := range testsList[ki] {
				aggTests[ni][ki][j] = &assess.Aggregation{}
			}
		}
	}

	var bar *progressbar.ProgressBar
	if showProgress {
		bar = progressbar.Default(int64(numLists))
	}

	// process one list at a time
	for i := 0; i < numLists; i++ {
		var list *tsv.ResultList
		if useFiles {
			file, openErr := os.Open(args[i])
			if openErr != nil {
				return errors.Annotatef(openErr, "unable to open the file %s", args[i])
			}
			list, err = tsv.ReadResultList(bufio.NewReader(file), true)
			_ = file.Close()
		} else {
			list, err = tsv.ReadResultList(stdin, false)
		}
		if err != nil {
			return errors.Trace(err)
		}
		rel := list.Relevances

		for ni, nCut := range nCutList {
			n := len(rel)
			if nCut > 0 && n > nCut {
				n = nCut
			}
			if skipShorterLists && nCut > n {
				continue
			}
			if n == 0 {
				continue
			}
			minmax := filtering.ComputeMinMax(rel[:n])

			// reading time
			start := time.Now()
			for attempt := 0; attempt < numRuns; attempt++ {
				var sum float32
				for _, r := range rel[:n] {
					sum += r
				}
				readingSink = sum
			}
			readingTime := float64(time.Since(start).Nanoseconds()) / 1e6 / float64(numRuns)

			for ki, k := range kList {
				// skip the combinations with n_cut smaller than k
				if nCut > 0 && k > nCut {
					continue
				}

				outcome := testsOpt[ki].Run(rel[:n], minmax)
				optimalScore := outcome.Score
				aggOpt[ni][ki].Update(outcome, numAssessed[ni][ki], -1)
				if checkSolutions {
					if err = checkOutcome(rel[:n], outcome, m, -1, testsOpt[ki], nCut, k, args, i); err != nil {
						return err
					}
				}

				for j, strategy := range testsList[ki] {
					outcome = strategy.Run(rel[:n], minmax)
					aggTests[ni][ki][j].Update(outcome, numAssessed[ni][ki], float64(optimalScore))
					if checkSolutions {
						if err = checkOutcome(rel[:n], outcome, m, optimalScore, strategy, nCut, k, args, i); err != nil {
							return err
						}
					}
				}

				newMultiplier := 1.0 / float64(numAssessed[ni][ki]+1)
				oldMultiplier := float64(numAssessed[ni][ki]) * newMultiplier
				numAssessed[ni][ki]++
				avgReadingTime[ni][ki] = oldMultiplier*avgReadingTime[ni][ki] + newMultiplier*readingTime
			}
		}

		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}

	// write the report
	cells := make([]assess.Cell, 0, len(nCutList)*len(kList))
	for ni, nCut := range nCutList {
		for ki, k := range kList {
			if nCut > 0 && k > nCut {
				continue
			}
			strategies := map[string]*assess.Aggregation{"OPT": aggOpt[ni][ki]}
			for j, strategy := range testsList[ki] {
				strategies[strategy.Name] = aggTests[ni][ki][j]
			}
			cells = append(cells, assess.Cell{
				NCut:             nCut,
				K:                k,
				AvgReadingTime:   avgReadingTime[ni][ki],
				NumListsAssessed: numAssessed[ni][ki],
				Strategies:       strategies,
			})
		}
	}
	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "\t")
	if err = encoder.Encode(cells); err != nil {
		return errors.Trace(err)
	}

	log.Logger().Info("assessment complete",
		zap.Int("num_lists", numLists),
		zap.String("metric", m.Name()),
		zap.Ints("k_list", kList))
	return nil
}

func checkOutcome(rel []float32, outcome assess.Outcome, m metric.Metric, optimalScore float32, strategy *assess.Strategy, nCut, k int, files []string, listID int) error {
	solution := filtering.FilterSolution{Score: outcome.Score, Indices: outcome.Indices}
	err := filtering.CheckSolution(rel, solution, m, optimalScore, strategy.EpsilonBelow, strategy.EpsilonAbove)
	if err != nil {
		return errors.Annotatef(err, "%s with n=%d and k=%d on the list %s", strategy.Name, nCut, k, listName(files, listID))
	}
	return nil
}

func listName(files []string, listID int) string {
	if len(files) > 0 {
		return fmt.Sprintf("'%s'", files[listID])
	}
	return fmt.Sprintf("%d", listID)
}

func checkInputFiles(paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return errors.Annotatef(err, "unable to access the stats of the file: %s", path)
		}
		if info.IsDir() {
			return errors.Errorf("the following file is a directory: %s", path)
		}
		if !info.Mode().IsRegular() {
			return errors.Errorf("unable to recognize the file: %s", path)
		}
	}
	return nil
}

func openOutput(flags *pflag.FlagSet) (io.Writer, func(), error) {
	if !flags.Changed("output") {
		return os.Stdout, func() {}, nil
	}
	path, _ := flags.GetString("output")
	file, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "unable to open the output file %s", path)
	}
	return file, func() { _ = file.Close() }, nil
}

func validateNCutList(nCutList []int) ([]int, error) {
	if len(nCutList) == 0 {
		return nil, errors.New("the parameter n-cut-list is empty")
	}
	sort.Ints(nCutList)
	for ni := 1; ni < len(nCutList); ni++ {
		if nCutList[ni] == nCutList[ni-1] {
			return nil, errors.New("the parameter n-cut-list contains duplicates")
		}
		if nCutList[ni] <= 0 && nCutList[ni-1] <= 0 {
			return nil, errors.New("the parameter n-cut-list can contain only one non-positive number")
		}
	}
	if nCutList[0] <= 0 {
		// a non-positive cut means no truncation; move it to the end so the
		// positive cuts are processed in ascending order
		copy(nCutList, nCutList[1:])
		nCutList[len(nCutList)-1] = 0
	}
	return nCutList, nil
}

func validateKList(kList []int, nCutList []int) error {
	if len(kList) == 0 {
		return errors.New("the parameter k-list is empty")
	}
	sort.Ints(kList)
	for ki, k := range kList {
		if k <= 0 {
			return errors.New("the parameter k-list must contain values strictly greater than 0")
		}
		if ki > 0 && kList[ki-1] == k {
			return errors.New("the parameter k-list contains duplicates")
		}
	}
	if nCutList[0] > 0 && kList[0] > nCutList[0] {
		return errors.New("the parameter k-list cannot be greater than n")
	}
	return nil
}

func validateEpsilonList(epsilonList []float32) error {
	if len(epsilonList) == 0 {
		return errors.New("the parameter epsilon-list is empty")
	}
	sort.Slice(epsilonList, func(i, j int) bool { return epsilonList[j] < epsilonList[i] })
	for ei, epsilon := range epsilonList {
		if epsilon <= 0 || epsilon >= 1 {
			return errors.New("the parameter epsilon-list must contain values between zero and one")
		}
		if ei > 0 && epsilonList[ei-1] == epsilon {
			return errors.New("the parameter epsilon-list contains duplicates")
		}
	}
	return nil
}
