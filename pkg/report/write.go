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

package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/NVIDIA/tamarin-batch/pkg/errors"
)

// Layout is the fixed set of subdirectories the batch writes into (§6.3).
var Layout = []string{"success", "failed", "proofs", "traces", "wellformedness-check-report"}

// PrepareOutputDirectory creates outputDirectory and its fixed subtree if
// absent. It never silently overwrites: callers must decide (typically by
// prompting the operator) whether to wipe or redirect to a timestamped
// sibling before calling this for a directory that already exists and is
// non-empty — that decision lives in pkg/cli, not here.
func PrepareOutputDirectory(outputDirectory string) error {
	for _, sub := range Layout {
		if err := os.MkdirAll(filepath.Join(outputDirectory, sub), 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeReport, fmt.Sprintf("creating output subdirectory %q", sub), err)
		}
	}
	return nil
}

// IsNonEmptyDirectory reports whether path exists and already contains
// entries, the condition under which §6.3 requires an operator prompt.
func IsNonEmptyDirectory(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(entries) > 0, nil
}

// Write serializes b as strict JSON to <outputDirectory>/execution_report.json.
// A write failure is non-fatal per §7 ("Report-write errors ... logged at
// error level; the program exit code still reflects the scheduler
// outcome") — callers should log, not abort, on a non-nil error.
func Write(outputDirectory string, b Batch) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeReport, "marshaling execution report", err)
	}
	path := filepath.Join(outputDirectory, "execution_report.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeReport, fmt.Sprintf("writing %q", path), err)
	}
	return nil
}

// CleanEmptyTraceFiles removes zero-byte .dot/.json trace artifacts left
// behind under tracesDir by a unit that produced no actual trace (e.g. a
// lemma with no counterexample), per the original's dot_utils.py cleanup
// pass.
func CleanEmptyTraceFiles(tracesDir string) error {
	entries, err := os.ReadDir(tracesDir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".dot" && ext != ".json" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.Size() == 0 {
			_ = os.Remove(filepath.Join(tracesDir, entry.Name()))
		}
	}
	return nil
}
