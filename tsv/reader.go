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

// Package tsv reads result lists from tab-separated input. Each row is
// `id<TAB>attribute<TAB>relevance`. In file mode a reader holds a single
// list terminated by EOF; in stream mode a leading count line announces the
// number of lists and each list is prefixed by its own length line.
package tsv

import (
	"bufio"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/samber/lo"
)

// ResultList is an attribute-sorted list of scored results.
type ResultList struct {
	IDs        []string
	Attributes []float64
	Relevances []float32
}

// Len returns the number of results in the list.
func (l *ResultList) Len() int {
	return len(l.Relevances)
}

// ReadListCount reads the leading line of a stream-multiplexed input, which
// announces the number of lists that follow.
func ReadListCount(reader *bufio.Reader) (int, error) {
	line, err := reader.ReadString('\n')
	if err != nil {
		return 0, errors.Annotate(err, "unable to read the number of lists")
	}
	count, err := strconv.Atoi(strings.TrimSpace(line))
	if err != nil || count < 0 {
		return 0, errors.Errorf("the input is not properly formatted: %q is not a list count", strings.TrimSpace(line))
	}
	return count, nil
}

// ReadResultList reads one result list. In file mode rows are consumed until
// EOF; in stream mode the first line carries the number of rows of this
// block. Rows with a non-positive relevance are skipped. If the rows are not
// sorted by attribute, the list is re-sorted ascending.
func ReadResultList(reader *bufio.Reader, isFile bool) (*ResultList, error) {
	n := -1
	if !isFile {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, errors.Annotate(err, "unable to read the list length")
		}
		n, err = strconv.Atoi(strings.TrimSpace(line))
		if err != nil || n < 0 {
			return nil, errors.Errorf("the input is not properly formatted: %q is not a list length", strings.TrimSpace(line))
		}
	}

	list := &ResultList{}
	if n > 0 {
		list.IDs = make([]string, 0, n)
		list.Attributes = make([]float64, 0, n)
		list.Relevances = make([]float32, 0, n)
	}

	sorted := true
	lastAttribute := math.Inf(-1)
	for i := 0; n < 0 || i < n; i++ {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			if line == "" {
				if isFile {
					break
				}
				return nil, errors.Errorf("the input ended before row %d of %d", i+1, n)
			}
			// the last row may lack its trailing newline
		} else if err != nil {
			return nil, errors.Trace(err)
		}

		id, attribute, relevance, rowErr := parseRow(line)
		if rowErr != nil {
			return nil, errors.Annotatef(rowErr, "row %d", i+1)
		}

		if attribute < lastAttribute {
			sorted = false
		}
		lastAttribute = attribute

		if relevance > 0 {
			list.IDs = append(list.IDs, id)
			list.Attributes = append(list.Attributes, attribute)
			list.Relevances = append(list.Relevances, relevance)
		}

		if err == io.EOF {
			if !isFile && i != n-1 {
				return nil, errors.Errorf("the input ended before row %d of %d", i+2, n)
			}
			break
		}
	}

	if !sorted {
		sortByAttribute(list)
	}
	return list, nil
}

func parseRow(line string) (id string, attribute float64, relevance float32, err error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, "\t")
	if len(fields) != 3 {
		return "", 0, 0, errors.Errorf("expected 3 tab separated fields, found %d", len(fields))
	}
	id = fields[0]
	attribute, err = strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", 0, 0, errors.Annotate(err, "unable to parse the attribute value")
	}
	rel64, err := strconv.ParseFloat(fields[2], 32)
	if err != nil {
		return "", 0, 0, errors.Annotate(err, "unable to parse the relevance value")
	}
	return id, attribute, float32(rel64), nil
}

// sortByAttribute reorders all three columns by ascending attribute through
// a sort permutation.
func sortByAttribute(list *ResultList) {
	perm := make([]int, list.Len())
	for i := range perm {
		perm[i] = i
	}
	sort.Slice(perm, func(i, j int) bool {
		return list.Attributes[perm[i]] < list.Attributes[perm[j]]
	})
	list.IDs = lo.Map(perm, func(p int, _ int) string { return list.IDs[p] })
	list.Attributes = lo.Map(perm, func(p int, _ int) float64 { return list.Attributes[p] })
	list.Relevances = lo.Map(perm, func(p int, _ int) float32 { return list.Relevances[p] })
}
