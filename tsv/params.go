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

package tsv

import (
	"strconv"
	"strings"

	"github.com/juju/errors"
)

// ParseIntList parses a comma separated list of integers. Spaces around the
// values are tolerated.
func ParseIntList(s string) ([]int, error) {
	pieces, err := splitParameterList(s)
	if err != nil {
		return nil, errors.Trace(err)
	}
	values := make([]int, len(pieces))
	for i, piece := range pieces {
		values[i], err = strconv.Atoi(piece)
		if err != nil {
			return nil, errors.Errorf("unable to read one of the values of the parameter list: %q", piece)
		}
	}
	return values, nil
}

// ParseFloat32List parses a comma separated list of floating point values.
// Spaces around the values are tolerated.
func ParseFloat32List(s string) ([]float32, error) {
	pieces, err := splitParameterList(s)
	if err != nil {
		return nil, errors.Trace(err)
	}
	values := make([]float32, len(pieces))
	for i, piece := range pieces {
		value, parseErr := strconv.ParseFloat(piece, 32)
		if parseErr != nil {
			return nil, errors.Errorf("unable to read one of the values of the parameter list: %q", piece)
		}
		values[i] = float32(value)
	}
	return values, nil
}

func splitParameterList(s string) ([]string, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	pieces := strings.Split(s, ",")
	for i, piece := range pieces {
		pieces[i] = strings.TrimSpace(piece)
		if pieces[i] == "" {
			return nil, errors.New("the parameter list is not in csv format")
		}
	}
	return pieces, nil
}
