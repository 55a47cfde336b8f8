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
	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// SetCPUAffinity pins the whole process to a single CPU, reducing timing
// noise from migrations between cores.
func SetCPUAffinity(cpu int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpu)
	if err := unix.SchedSetaffinity(0, &mask); err != nil {
		return errors.Annotate(err, "unable to set the cpu affinity")
	}
	return nil
}
