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
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/NVIDIA/tamarin-batch/pkg/errors"
)

// WriteDiagnosticsReport writes one text file per diagnosed (alias,
// theory_file) pair under
// <outputDirectory>/wellformedness-check-report/, invoked when `check
// --report` is requested (§6.5).
func WriteDiagnosticsReport(outputDirectory string, diagnostics []UnitDiagnostics) error {
	dir := filepath.Join(outputDirectory, "wellformedness-check-report")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeReport, "creating wellformedness-check-report directory", err)
	}

	for _, d := range diagnostics {
		var b strings.Builder
		fmt.Fprintf(&b, "alias: %s\ntheory_file: %s\n", d.Alias, d.TheoryFile)
		if d.Failed {
			fmt.Fprintf(&b, "status: failed\ndescription: %s\n", d.Description)
		} else {
			fmt.Fprintf(&b, "status: ok\n")
		}
		for _, w := range d.Warnings {
			fmt.Fprintf(&b, "warning: %s\n", w)
		}

		path := filepath.Join(dir, ReportFileName(d))
		if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
			return errors.Wrap(errors.ErrCodeReport, fmt.Sprintf("writing %q", path), err)
		}
	}
	return nil
}
