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

package prover

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

// minVersionForOutputFlags is the threshold below (and at) which
// --output-json/--output-dot must be elided (§6.2, §9).
var minVersionForOutputFlags = Version{Major: 1, Minor: 10, Patch: 0}

// BuildArgs constructs the full argument vector for a proof run of u,
// exactly as §6.2 specifies: runtime options, theory file, lemma selector,
// unit options, preprocessor defines, then the three output flags.
func BuildArgs(u unit.Unit) []string {
	args := []string{
		"+RTS", fmt.Sprintf("-N%d", u.Cores), "-RTS",
		u.TheoryFile,
		"--prove=" + u.Lemma,
	}
	args = append(args, u.Options...)
	for _, flag := range u.PreprocessorFlags {
		args = append(args, "-D="+flag)
	}
	args = append(args,
		"--output-json="+filepath.Join(u.TracesDir, u.ID+".json"),
		"--output-dot="+filepath.Join(u.TracesDir, u.ID+".dot"),
		"--output="+u.OutputFile,
	)
	return args
}

// BuildPreflightArgs constructs the argument vector for a preflight parse
// check: the same runtime/theory/options/preprocessor arguments, with no
// proof selector and no trace output flags (§4.I, §6.2: "invokes the
// prover... with... no proof flag"). Unlike BuildArgs, this is
// lemma-agnostic: preflight probes a (alias, theory_file) pair once,
// independent of which lemma happens to be sampled for it.
func BuildPreflightArgs(u unit.Unit) []string {
	args := []string{
		"+RTS", fmt.Sprintf("-N%d", u.Cores), "-RTS",
		u.TheoryFile,
	}
	args = append(args, u.Options...)
	for _, flag := range u.PreprocessorFlags {
		args = append(args, "-D="+flag)
	}
	return args
}

// FilterArgs elides --output-json/--output-dot arguments when version is
// below 1.10.0 (§6.2, §9's compatibility filter). versionKnown false
// (version unknown) leaves args unchanged, matching the original's fail-open
// behavior when extraction fails.
func FilterArgs(args []string, version Version, versionKnown bool) []string {
	if !versionKnown {
		return args
	}
	if version.AtLeast(minVersionForOutputFlags.Major, minVersionForOutputFlags.Minor, minVersionForOutputFlags.Patch) {
		return args
	}

	filtered := make([]string, 0, len(args))
	for _, arg := range args {
		if strings.HasPrefix(arg, "--output-json=") || strings.HasPrefix(arg, "--output-dot=") {
			continue
		}
		filtered = append(filtered, arg)
	}
	return filtered
}
