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
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// NamePattern is the required shape of alias and task keys.
var NamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*$`)

// Recipe is the validated, immutable in-memory representation of a recipe.
// Once returned by Load it is never mutated; the unit expander reads it but
// never writes back to it.
type Recipe struct {
	Config Config

	// Aliases and Tasks preserve declaration order from the source JSON;
	// AliasOrder/TaskOrder give that order since Go maps do not.
	Aliases    map[string]AliasEntry
	AliasOrder []string
	Tasks      map[string]Task
	TaskOrder  []string
}

// Config holds the recipe's global settings.
type Config struct {
	GlobalMaxCores    ResourceLimit
	GlobalMaxMemoryGB ResourceLimit
	DefaultTimeoutS   int
	OutputDirectory   string
}

// AliasEntry binds a symbolic alias to a prover executable.
type AliasEntry struct {
	ExecutablePath string
	ReportedVersion *string
	IntegrityOK     *bool
}

// Task binds a theory file to a set of aliases, with an optional lemma
// filter and resource overrides.
type Task struct {
	TheoryFile          string
	Aliases             []string
	OutputPrefix        string
	Lemmas              []LemmaSpec
	Options             []string
	PreprocessorFlags   []string
	Resources           *ResourceOverride
}

// LemmaSpec filters a task's discovered lemmas by substring and optionally
// overrides inherited parameters. A nil field means "inherit from the task";
// a non-nil (possibly empty) field means "replace the task value entirely".
type LemmaSpec struct {
	Name              string
	Aliases           *[]string
	Options           *[]string
	PreprocessorFlags *[]string
	Resources         *ResourceOverride
}

// ResourceOverride is a partial (cores, memory, timeout) triple used at the
// task and lemma level; unset fields fall through to the next level of the
// inheritance chain (see §3's built-in defaults ← task ← lemma order).
type ResourceOverride struct {
	Cores    *int
	MemoryGB *int
	TimeoutS *int
}

// ResourceLimit is a global ceiling expressed as an absolute integer, the
// literal "max", or a percentage string like "80%" (1-100).
type ResourceLimit struct {
	raw string
}

// NewResourceLimit wraps a raw config string ("4", "max", "75%") without
// validating it; Resolve performs validation against host capacity.
func NewResourceLimit(raw string) ResourceLimit { return ResourceLimit{raw: raw} }

// String returns the original textual form.
func (r ResourceLimit) String() string { return r.raw }

// UnmarshalJSON accepts either a JSON number (absolute ceiling) or a JSON
// string ("max" or "N%"), per §3's `ℕ⁺ ∪ {"max"} ∪ {"N%"}` domain.
func (r *ResourceLimit) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		r.raw = s
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("resource limit must be a number, \"max\", or \"N%%\": %w", err)
	}
	r.raw = n.String()
	return nil
}

// Resolve computes the effective ceiling given the host's total capacity
// (cores or whole gigabytes of memory). It returns an error only if the raw
// form is structurally invalid (not a recognized int/"max"/"N%" shape);
// "N%" values are clamped to at least 1.
func (r ResourceLimit) Resolve(hostCapacity int) (int, error) {
	raw := strings.TrimSpace(r.raw)
	switch {
	case raw == "":
		return 0, fmt.Errorf("resource limit is empty")
	case strings.EqualFold(raw, "max"):
		return hostCapacity, nil
	case strings.HasSuffix(raw, "%"):
		pctStr := strings.TrimSuffix(raw, "%")
		pct, err := strconv.Atoi(pctStr)
		if err != nil {
			return 0, fmt.Errorf("invalid percentage %q: %w", raw, err)
		}
		if pct < 1 || pct > 100 {
			return 0, fmt.Errorf("percentage %q out of range [1,100]", raw)
		}
		resolved := hostCapacity * pct / 100
		if resolved < 1 {
			resolved = 1
		}
		return resolved, nil
	default:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, fmt.Errorf("invalid resource limit %q: must be an integer, \"max\", or \"N%%\"", raw)
		}
		if n < 1 {
			return 0, fmt.Errorf("resource limit %q must be a positive integer", raw)
		}
		return n, nil
	}
}
