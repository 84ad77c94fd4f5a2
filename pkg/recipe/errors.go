// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package recipe

import (
	"bytes"
	"fmt"
	"strings"
)

// ValidationError reports a single failing field of a recipe. Path names the
// failing field using dotted JSON notation (e.g. "tasks.wpa2.resources.max_cores").
// Offset, when non-zero, is a byte offset into the recipe source used to
// render a context window around the offending key.
type ValidationError struct {
	Path    string
	Message string
	Offset  int
	source  []byte
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("recipe field %q: %s", e.Path, e.Message)
}

// Render returns the error message followed by a ±3-line window of the raw
// recipe source around the offending key, when source/offset are available.
// It is the form surfaced to operators on the CLI.
func (e *ValidationError) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "invalid recipe: %s\n", e.Error())
	if e.source == nil || e.Offset <= 0 {
		return b.String()
	}

	lines := bytes.Split(e.source, []byte("\n"))
	target := 0
	count := 0
	for i, l := range lines {
		count += len(l) + 1
		if count >= e.Offset {
			target = i
			break
		}
	}

	const window = 3
	start := target - window
	if start < 0 {
		start = 0
	}
	end := target + window
	if end >= len(lines) {
		end = len(lines) - 1
	}

	b.WriteString("\ncontext:\n")
	for i := start; i <= end; i++ {
		marker := "  "
		if i == target {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%4d | %s\n", marker, i+1, lines[i])
	}
	return b.String()
}

// withSource attaches the raw recipe source so Render can quote context.
func (e *ValidationError) withSource(src []byte) *ValidationError {
	e.source = src
	return e
}
