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
	"regexp"
	"strconv"
	"strings"
)

// Version is a parsed (major, minor, patch) prover version.
type Version struct {
	Major, Minor, Patch int
}

var versionLineRe = regexp.MustCompile(`tamarin-prover\s+(\d+)\.(\d+)\.(\d+)`)

// ParseVersionOutput extracts the version reported by `<prover> --version`
// from its first line of stdout, e.g. "tamarin-prover 1.8.0, (C) ...".
func ParseVersionOutput(stdout string) (Version, error) {
	lines := strings.SplitN(stdout, "\n", 2)
	if len(lines) == 0 {
		return Version{}, fmt.Errorf("empty version output")
	}
	m := versionLineRe.FindStringSubmatch(lines[0])
	if m == nil {
		return Version{}, fmt.Errorf("could not parse version from %q", lines[0])
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// ParseVersionString parses a bare "vX.Y.Z" or "X.Y.Z" string, as recorded
// in a recipe alias's reported_version field.
func ParseVersionString(s string) (Version, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "v")
	m := regexp.MustCompile(`^(\d+)\.(\d+)\.(\d+)`).FindStringSubmatch(s)
	if m == nil {
		return Version{}, fmt.Errorf("invalid version format: %q", s)
	}
	major, _ := strconv.Atoi(m[1])
	minor, _ := strconv.Atoi(m[2])
	patch, _ := strconv.Atoi(m[3])
	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

// String renders the version as "vX.Y.Z".
func (v Version) String() string {
	return fmt.Sprintf("v%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// AtLeast reports whether v >= (major, minor, patch).
func (v Version) AtLeast(major, minor, patch int) bool {
	if v.Major != major {
		return v.Major > major
	}
	if v.Minor != minor {
		return v.Minor > minor
	}
	return v.Patch >= patch
}
