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

//go:build !linux

package assess

import (
	"github.com/juju/errors"
)

// SetCPUAffinity is only supported on Linux.
func SetCPUAffinity(cpu int) error {
	return errors.New("the cpu affinity can be set only on linux")
}
