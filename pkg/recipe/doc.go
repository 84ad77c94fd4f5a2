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

// Package recipe loads and validates the batch recipe that drives a run.
//
// A recipe names one or more prover executables under symbolic aliases,
// global CPU/memory ceilings, and a set of tasks, each binding a theory file
// to a list of aliases and, optionally, a lemma filter with per-lemma
// resource overrides. This package owns the on-disk JSON schema, structural
// validation (unknown keys, name patterns, numeric ranges), and the
// in-memory Recipe value exposed to every other component. It performs no
// filesystem access beyond reading the recipe file itself: theory files and
// executables are resolved later, by the unit expander.
//
// # Loading
//
//	r, err := recipe.Load("recipe.json")
//	if err != nil {
//	    var verr *recipe.ValidationError
//	    if errors.As(err, &verr) {
//	        fmt.Fprintln(os.Stderr, verr.Render())
//	    }
//	    os.Exit(1)
//	}
//
// # Validation errors
//
// Rejection always names the failing field path (e.g.
// "tasks.wpa2.resources.max_cores") and, for unknown keys, quotes the raw
// recipe source with a three-line window around the offending key so an
// operator can find the typo without re-reading the whole file.
package recipe
