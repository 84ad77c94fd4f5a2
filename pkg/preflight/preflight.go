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

package preflight

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/NVIDIA/tamarin-batch/pkg/parser"
	"github.com/NVIDIA/tamarin-batch/pkg/prover"
	"github.com/NVIDIA/tamarin-batch/pkg/recipe"
	"github.com/NVIDIA/tamarin-batch/pkg/supervisor"
	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

// ProbeTimeoutS bounds each parse-only prover invocation (§4.I: "≈ 60 s").
const ProbeTimeoutS = 60

// probeRatePerSecond bounds how fast preflight forks new prover processes,
// so a recipe with many aliases cannot fork-bomb the host during a dry
// run.
const probeRatePerSecond = 4

// UnitDiagnostics is the well-formedness result for one unique
// (alias, theory_file) pair.
type UnitDiagnostics struct {
	Alias      string
	TheoryFile string
	Warnings   []string
	Failed     bool
	Description string
}

// Report is preflight's complete output: the units the recipe would
// expand to (never scheduled), any expansion-time warnings, and the
// per-pair well-formedness diagnostics.
type Report struct {
	Units             []unit.Unit
	ExpansionWarnings []string
	Diagnostics       []UnitDiagnostics
}

type pairKey struct {
	alias      string
	theoryFile string
}

// Validate expands r exactly as a real run would (reusing the Recipe
// Model, Theory Lemma Extractor, and Unit Expander unchanged), then probes
// every unique (alias, theory_file) pair with a parse-only invocation.
// It never admits a unit for execution.
func Validate(ctx context.Context, expander *unit.Expander, sup *supervisor.Supervisor, aliasVersions map[string]prover.Version, aliasVersionsKnown map[string]bool, r *recipe.Recipe, globalMaxCores, globalMaxMemoryGB, defaultTimeoutS int) (Report, error) {
	expansion, err := expander.Expand(r, globalMaxCores, globalMaxMemoryGB, defaultTimeoutS)
	if err != nil {
		return Report{}, err
	}

	pairs := uniquePairs(expansion.Units)
	limiter := rate.NewLimiter(rate.Limit(probeRatePerSecond), 1)

	// Each pair's well-formedness is independent, so one pair's probe
	// failure must never cancel the rest: unlike errgroup.WithContext, a
	// plain Group never cancels siblings, it only parallelizes the fan-out
	// and joins it (the same pattern pkg/snapshotter uses for independent
	// collectors, minus the shared cancellation).
	var g errgroup.Group
	diagnostics := make([]UnitDiagnostics, len(pairs))
	for i, pair := range pairs {
		i, pair := i, pair
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				diagnostics[i] = UnitDiagnostics{Alias: pair.key.alias, TheoryFile: pair.key.theoryFile, Failed: true, Description: err.Error()}
				return nil
			}
			diagnostics[i] = probe(ctx, sup, aliasVersions, aliasVersionsKnown, pair.sample)
			return nil
		})
	}
	_ = g.Wait()

	return Report{
		Units:             expansion.Units,
		ExpansionWarnings: expansion.Warnings,
		Diagnostics:       diagnostics,
	}, nil
}

type keyedUnit struct {
	key    pairKey
	sample unit.Unit
}

func uniquePairs(units []unit.Unit) []keyedUnit {
	seen := make(map[pairKey]bool)
	var out []keyedUnit
	for _, u := range units {
		k := pairKey{alias: u.Alias, theoryFile: u.TheoryFile}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, keyedUnit{key: k, sample: u})
	}
	return out
}

func probe(ctx context.Context, sup *supervisor.Supervisor, aliasVersions map[string]prover.Version, aliasVersionsKnown map[string]bool, sample unit.Unit) UnitDiagnostics {
	args := prover.BuildPreflightArgs(sample)
	args = prover.FilterArgs(args, aliasVersions[sample.Alias], aliasVersionsKnown[sample.Alias])

	// Preflight probes have no pending/running distinction to preserve
	// across a soft shutdown (unlike pkg/scheduler's batch run), so any
	// ctx cancellation here terminates the in-flight probe immediately.
	sr := sup.Run(ctx.Done(), sample.ExecutablePath, args, ProbeTimeoutS, 0)

	verdict := parser.Parse(parser.Input{
		Lemma:    sample.Lemma,
		Stdout:   sr.Stdout,
		Stderr:   sr.Stderr,
		ExitCode: sr.ExitCode,
		Reason:   sr.Reason,
	})

	d := UnitDiagnostics{Alias: sample.Alias, TheoryFile: sample.TheoryFile}
	if verdict.Succeeded != nil {
		d.Warnings = verdict.Succeeded.Warnings
		return d
	}

	d.Failed = true
	if verdict.Failed != nil {
		d.Description = verdict.Failed.Description
	} else {
		d.Description = "preflight probe produced no verdict"
	}
	slog.Warn("preflight probe failed", "alias", sample.Alias, "theory_file", sample.TheoryFile, "description", d.Description)
	return d
}

// ReportFileName names the well-formedness diagnostics file for one
// (alias, theory_file) pair, written under
// <output_directory>/wellformedness-check-report/ when `check --report` is
// requested.
func ReportFileName(d UnitDiagnostics) string {
	return fmt.Sprintf("%s--%s.txt", d.Alias, sanitize(d.TheoryFile))
}

func sanitize(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
