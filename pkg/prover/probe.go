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
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"time"
)

// ProbeTimeout bounds the `--version` invocation used to populate an
// alias's reported_version during recipe resolution.
const ProbeTimeout = 30 * time.Second

// ProbeVersion invokes executablePath with "--version" and parses the
// result. Failure to run or to parse the output is logged and reported as
// (Version{}, false) — the compatibility filter treats an unknown version
// as "keep everything" (§9), mirroring the original's fail-open behavior.
func ProbeVersion(ctx context.Context, executablePath string) (Version, bool) {
	ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, executablePath, "--version")
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Run(); err != nil {
		slog.Warn("version probe failed", "executable", executablePath, "error", err)
		return Version{}, false
	}

	v, err := ParseVersionOutput(stdout.String())
	if err != nil {
		slog.Warn("version probe produced unparseable output", "executable", executablePath, "error", err)
		return Version{}, false
	}
	return v, true
}
