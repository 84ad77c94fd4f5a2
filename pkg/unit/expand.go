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

package unit

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/tamarin-batch/pkg/errors"
	"github.com/NVIDIA/tamarin-batch/pkg/lemma"
	"github.com/NVIDIA/tamarin-batch/pkg/recipe"
)

// Result is the outcome of Expand: the flat list of schedulable Units plus
// any non-fatal warnings collected along the way (capping notices, zero-match
// lemma filters, per-task lemma-parse failures).
type Result struct {
	Units    []Unit
	Warnings []string
}

// Expander builds Units from a Recipe. Its ReadTheory and ResolveExecutable
// fields are overridable for testing; NewExpander wires the real
// filesystem-backed defaults.
type Expander struct {
	ReadTheory        func(path string) ([]byte, error)
	ResolveExecutable func(path string) (string, error)
}

// NewExpander returns an Expander backed by the real filesystem and $PATH.
func NewExpander() *Expander {
	return &Expander{
		ReadTheory:        os.ReadFile,
		ResolveExecutable: resolveExecutable,
	}
}

// resolveExecutable resolves an alias's configured path: a path containing a
// separator must name an existing regular file; a bare name is resolved
// against $PATH via exec.LookPath (§4.C).
func resolveExecutable(path string) (string, error) {
	if strings.ContainsRune(path, os.PathSeparator) || strings.Contains(path, "/") {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("executable %q: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return "", fmt.Errorf("executable %q is not a regular file", path)
		}
		return path, nil
	}
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("executable %q not found on PATH: %w", path, err)
	}
	return resolved, nil
}

// lemmaConfig is one fully-resolved (lemma name, aliases, options, flags,
// resources) tuple, prior to per-alias Unit expansion.
type lemmaConfig struct {
	name              string
	aliases           []string
	options           []string
	preprocessorFlags []string
	resources         resolved
	coresCapped       bool
	memoryCapped      bool
}

// Expand walks every task in r, in declaration order, discovering each
// task's lemmas, applying the inheritance chain, and emitting one Unit per
// (lemma, alias) pair. Resolution failures (undefined theory file, an
// unresolvable executable) are fatal and abort the whole expansion; a
// task's own lemma-parse failure is recorded as a warning and that task
// simply contributes no Units.
func (e *Expander) Expand(r *recipe.Recipe, globalMaxCores, globalMaxMemoryGB, defaultTimeoutS int) (Result, error) {
	var res Result
	idCounts := map[string]int{}

	for _, taskName := range r.TaskOrder {
		task := r.Tasks[taskName]

		theoryBytes, err := e.ReadTheory(task.TheoryFile)
		if err != nil {
			return Result{}, errors.Wrap(errors.ErrCodeResolution,
				fmt.Sprintf("task %q: cannot read theory file %q", taskName, task.TheoryFile), err)
		}

		discovered, err := lemma.Extract(task.TheoryFile, theoryBytes, task.PreprocessorFlags)
		if err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("task %q: lemma extraction failed, skipping task: %v", taskName, err))
			continue
		}

		taskTriple, coresCapped, memCapped := resolveTaskLevel(task.Resources, defaultTimeoutS, globalMaxCores, globalMaxMemoryGB)

		configs, warnings := buildLemmaConfigs(taskName, task, discovered, taskTriple, coresCapped, memCapped)
		res.Warnings = append(res.Warnings, warnings...)

		for _, cfg := range configs {
			for _, alias := range cfg.aliases {
				aliasEntry, ok := r.Aliases[alias]
				if !ok {
					// Undefined alias references are already rejected by
					// recipe.Load's cross-validation; defensive only.
					return Result{}, errors.New(errors.ErrCodeResolution,
						fmt.Sprintf("task %q, lemma %q: undefined alias %q", taskName, cfg.name, alias))
				}

				execPath, err := e.ResolveExecutable(aliasEntry.ExecutablePath)
				if err != nil {
					return Result{}, errors.Wrap(errors.ErrCodeResolution,
						fmt.Sprintf("task %q, lemma %q, alias %q", taskName, cfg.name, alias), err)
				}

				id := nextUnitID(idCounts, task.OutputPrefix, cfg.name, alias)

				res.Units = append(res.Units, Unit{
					ID:                id,
					TaskName:          taskName,
					Alias:             alias,
					ExecutablePath:    execPath,
					TheoryFile:        task.TheoryFile,
					Lemma:             cfg.name,
					Options:           cfg.options,
					PreprocessorFlags: cfg.preprocessorFlags,
					Cores:             cfg.resources.cores,
					MemoryGB:          cfg.resources.memoryGB,
					TimeoutS:          cfg.resources.timeout,
					OutputFile:        outputFileName(id),
					TracesDir:         id + "-traces",
					CoresCapped:       cfg.coresCapped,
					MemoryCapped:      cfg.memoryCapped,
				})
			}
		}
	}

	return res, nil
}

// buildLemmaConfigs resolves the set of lemmaConfigs for one task: either
// one per discovered lemma (no filter), or one per (LemmaSpec, matching
// discovered lemma) pair when task.Lemmas is non-empty. A LemmaSpec whose
// substring matches nothing yields a warning and no config.
func buildLemmaConfigs(taskName string, task recipe.Task, discovered []string, taskTriple resolved, coresCapped, memCapped bool) ([]lemmaConfig, []string) {
	var warnings []string

	if len(task.Lemmas) == 0 {
		configs := make([]lemmaConfig, 0, len(discovered))
		for _, name := range discovered {
			configs = append(configs, lemmaConfig{
				name:              name,
				aliases:           task.Aliases,
				options:           task.Options,
				preprocessorFlags: task.PreprocessorFlags,
				resources:         taskTriple,
				coresCapped:       coresCapped,
				memoryCapped:      memCapped,
			})
		}
		return configs, warnings
	}

	var configs []lemmaConfig
	for _, spec := range task.Lemmas {
		matched := 0
		for _, name := range discovered {
			if !strings.Contains(name, spec.Name) {
				continue
			}
			matched++

			lemmaTriple, lCoresCapped, lMemCapped := resolveLemmaLevel(taskTriple, coresCapped, memCapped, spec.Resources)

			configs = append(configs, lemmaConfig{
				name:              name,
				aliases:           replaceStrings(task.Aliases, spec.Aliases),
				options:           replaceStrings(task.Options, spec.Options),
				preprocessorFlags: replaceStrings(task.PreprocessorFlags, spec.PreprocessorFlags),
				resources:         lemmaTriple,
				coresCapped:       lCoresCapped,
				memoryCapped:      lMemCapped,
			})
		}
		if matched == 0 {
			warnings = append(warnings,
				fmt.Sprintf("task %q: lemma filter %q matched no discovered lemma", taskName, spec.Name))
		}
	}
	return configs, warnings
}

// nextUnitID generates "<prefix>--<lemma>--<alias>", disambiguating
// collisions with a "_k" suffix starting at 2 so the first occurrence of any
// id stays unsuffixed.
func nextUnitID(counts map[string]int, prefix, lemmaName, alias string) string {
	base := fmt.Sprintf("%s--%s--%s", prefix, lemmaName, alias)
	counts[base]++
	if n := counts[base]; n > 1 {
		return fmt.Sprintf("%s_%d", base, n)
	}
	return base
}

func outputFileName(unitID string) string {
	return filepath.Clean(unitID + ".json")
}
