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

package lemma

import (
	"bytes"
	"fmt"
	"regexp"
)

// ParseError is returned when a theory file's preprocessor structure cannot
// be evaluated (unterminated #ifdef, #else/#endif with nothing open). It is
// fatal to the owning task, never to the batch.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

var (
	ifdefRe = regexp.MustCompile(`^\s*#ifdef\s+(.+?)\s*$`)
	elseRe  = regexp.MustCompile(`^\s*#else\s*$`)
	endifRe = regexp.MustCompile(`^\s*#endif\s*$`)
	defineRe = regexp.MustCompile(`^\s*#define\s+([A-Za-z_][A-Za-z0-9_]*)\s*$`)

	// lemmaRe matches a lemma declaration of any of the five kinds, with an
	// optional identifier and optional bracketed trace annotation, up to the
	// terminating colon. Byte offsets of submatch 2 (the identifier, if any)
	// are used directly to slice the source so multi-byte UTF-8 content
	// elsewhere in the file never perturbs the extracted name.
	lemmaRe = regexp.MustCompile(`(?m)^\s*(lemma|diff_lemma|accountability_lemma|equiv_lemma|diff_equiv_lemma)\b\s*([A-Za-z_][A-Za-z0-9_']*)?\s*(?:\[[^\]]*\])?\s*:`)
)

// Extract parses theory source, evaluating #define/#ifdef/#else against a
// flag environment seeded with flags, and returns the ordered, de-duplicated
// sequence of lemma names declared in active branches.
func Extract(file string, source []byte, flags []string) ([]string, error) {
	defined := make(map[string]bool, len(flags))
	for _, f := range flags {
		defined[f] = true
	}

	active, err := activeRanges(file, source, defined)
	if err != nil {
		return nil, err
	}

	var names []string
	seen := map[string]bool{}
	for _, m := range lemmaRe.FindAllSubmatchIndex(source, -1) {
		start := m[0]
		if !active(start) {
			continue
		}
		kind := string(source[m[2]:m[3]])
		var name string
		if m[4] >= 0 {
			name = string(source[m[4]:m[5]])
		} else {
			// Equivalence lemmas are idiomatically declared without an
			// explicit identifier (§4.B); the rule generalizes safely to
			// any lemma kind lacking one.
			name = fmt.Sprintf("%s_line_%d", kind, lineOf(source, m[2]))
		}
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}

	return names, nil
}

// frame tracks one level of #ifdef/#else nesting.
type frame struct {
	condTrue     bool
	parentActive bool
	inElse       bool
	startLine    int
}

func (f frame) active() bool {
	if f.inElse {
		return f.parentActive && !f.condTrue
	}
	return f.parentActive && f.condTrue
}

// activeRanges scans the line structure of source and returns a predicate
// that reports whether a given byte offset lies in an active preprocessor
// branch.
func activeRanges(file string, source []byte, defined map[string]bool) (func(offset int) bool, error) {
	lines := bytes.Split(source, []byte("\n"))

	// activeAt[i] is true if line i's own content is in an active branch
	// (the directive lines themselves are never "content").
	activeAt := make([]bool, len(lines))

	var stack []frame
	offsetActive := func() bool {
		if len(stack) == 0 {
			return true
		}
		return stack[len(stack)-1].active()
	}

	for i, lineBytes := range lines {
		line := string(lineBytes)
		switch {
		case ifdefRe.MatchString(line):
			cond := ifdefRe.FindStringSubmatch(line)[1]
			parentActive := offsetActive()
			var condTrue bool
			if parentActive {
				v, err := evalCondition(cond, defined)
				if err != nil {
					return nil, &ParseError{File: file, Line: i + 1, Msg: err.Error()}
				}
				condTrue = v
			}
			stack = append(stack, frame{condTrue: condTrue, parentActive: parentActive, startLine: i + 1})
			activeAt[i] = false
		case elseRe.MatchString(line):
			if len(stack) == 0 {
				return nil, &ParseError{File: file, Line: i + 1, Msg: "#else without matching #ifdef"}
			}
			stack[len(stack)-1].inElse = true
			activeAt[i] = false
		case endifRe.MatchString(line):
			if len(stack) == 0 {
				return nil, &ParseError{File: file, Line: i + 1, Msg: "#endif without matching #ifdef"}
			}
			stack = stack[:len(stack)-1]
			activeAt[i] = false
		case defineRe.MatchString(line):
			if offsetActive() {
				sym := defineRe.FindStringSubmatch(line)[1]
				defined[sym] = true
			}
			activeAt[i] = false
		default:
			activeAt[i] = offsetActive()
		}
	}

	if len(stack) != 0 {
		return nil, &ParseError{File: file, Line: stack[len(stack)-1].startLine, Msg: "#ifdef without matching #endif"}
	}

	// Precompute byte offsets where each line starts.
	starts := make([]int, len(lines))
	off := 0
	for i, l := range lines {
		starts[i] = off
		off += len(l) + 1
	}

	return func(offset int) bool {
		// Binary search for the line containing offset.
		lo, hi := 0, len(starts)-1
		for lo < hi {
			mid := (lo + hi + 1) / 2
			if starts[mid] <= offset {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		return activeAt[lo]
	}, nil
}

func lineOf(source []byte, offset int) int {
	return bytes.Count(source[:offset], []byte("\n")) + 1
}
