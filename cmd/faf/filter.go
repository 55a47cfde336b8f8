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
	"fmt"
	"os"

	"github.com/juju/errors"
	"github.com/spf13/cobra"

	"github.com/hpclab/fast-approximate-filtering/assess"
	"github.com/hpclab/fast-approximate-filtering/filtering"
	"github.com/hpclab/fast-approximate-filtering/metric"
	"github.com/hpclab/fast-approximate-filtering/tsv"
)

var filterCommand = &cobra.Command{
	Use:   "filter [FILE]",
	Short: "Apply a filtering strategy to the input data and print the list of ids to select",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFilter,
}

func init() {
	flags := filterCommand.Flags()
	flags.StringP("metric", "m", "dcg", "search quality metric to use, available options are: dcg, dcglz")
	flags.IntP("n-cut", "n", 0, "truncate the list to the first n elements, if n is greater than zero")
	flags.IntP("k", "k", 50, "maximum number of elements to return")
	flags.Float32P("epsilon", "e", 0.01, "target approximation factor")
	flags.IntP("cpu-affinity", "a", -1, "set the cpu affinity of the process")
	flags.StringP("output", "o", "", "write result to FILE instead of standard output")
	flags.Bool("test-cutoff", false, "use the cutoff-opt strategy")
	flags.Bool("test-topk", false, "use the topk-opt strategy")
	flags.Bool("test-epsfiltering", false, "use the epsilon filtering strategy")
}

func runFilter(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()

	k, _ := flags.GetInt("k")
	nCut, _ := flags.GetInt("n-cut")
	epsilon, _ := flags.GetFloat32("epsilon")
	testCutoff, _ := flags.GetBool("test-cutoff")
	testTopk, _ := flags.GetBool("test-topk")
	testEpsFiltering, _ := flags.GetBool("test-epsfiltering")

	if k <= 0 {
		return errors.New("the parameter k must be a number strictly greater than 0")
	}
	if nCut > 0 && nCut < k {
		return errors.New("the parameter n-cut is smaller than the parameter k")
	}
	if testEpsFiltering && (epsilon <= 0 || epsilon >= 1) {
		return errors.New("the parameter epsilon must be between zero and one")
	}

	if cpuAffinity, _ := flags.GetInt("cpu-affinity"); cpuAffinity > -1 {
		if err := assess.SetCPUAffinity(cpuAffinity); err != nil {
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
	m, ok := metric.New(metricName, k)
	if !ok {
		return errors.New("the given metric is unavailable")
	}
	filter := filtering.NewFilter(k, m)

	var strategy *assess.Strategy
	selectStrategy := func(name string, pruner filtering.Pruner, epsilonBelow float64) error {
		if strategy != nil {
			return errors.New("unable to select more than one test at a time")
		}
		strategy, err = assess.NewStrategy(name, pruner, filter, 1, epsilonBelow, 0)
		return errors.Trace(err)
	}
	if testCutoff {
		if err = selectStrategy("Cutoff-OPT", filtering.NewCutoffPruner(), 1.0); err != nil {
			return err
		}
	}
	if testTopk {
		if err = selectStrategy("Topk-OPT", filtering.NewTopKPruner(k), 0.5); err != nil {
			return err
		}
	}
	if testEpsFiltering {
		pruner := filtering.NewEpsPruner(k, epsilon, m)
		if err = selectStrategy(pruner.Name(), pruner, float64(epsilon)); err != nil {
			return err
		}
	}
	if strategy == nil {
		if strategy, err = assess.NewStrategy("OPT", nil, filter, 1, 0, 0); err != nil {
			return errors.Trace(err)
		}
	}

	// read the input
	var list *tsv.ResultList
	if len(args) == 1 {
		file, openErr := os.Open(args[0])
		if openErr != nil {
			return errors.Annotatef(openErr, "unable to open the file %s", args[0])
		}
		list, err = tsv.ReadResultList(bufio.NewReader(file), true)
		_ = file.Close()
	} else {
		list, err = tsv.ReadResultList(bufio.NewReader(os.Stdin), false)
	}
	if err != nil {
		return errors.Trace(err)
	}

	rel := list.Relevances
	n := len(rel)
	if nCut > 0 && n > nCut {
		n = nCut
	}
	if n == 0 {
		return nil
	}

	outcome := strategy.Run(rel[:n], filtering.ComputeMinMax(rel[:n]))
	for _, index := range outcome.Indices {
		if _, err = fmt.Fprintln(output, list.IDs[index]); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}
