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

package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/NVIDIA/tamarin-batch/pkg/cache"
	"github.com/NVIDIA/tamarin-batch/pkg/supervisor"
	"golang.org/x/text/unicode/norm"
)

var (
	lemmaResultRe = regexp.MustCompile(`(\w+)\s+\(([^)]+)\):\s+(verified|falsified|analysis incomplete)\s*(?:\((\d+)\s+steps?\))?`)
	timingRe      = regexp.MustCompile(`processing time:\s+(\d+\.?\d*)s`)
	warningRe     = regexp.MustCompile(`(?m)WARNING:\s*(.+?)\s*$`)
	wellformedRe  = regexp.MustCompile(`(\d+)\s+wellformedness check\(?s?\)?\s+failed`)
)

// Input is everything the parser needs from one completed run.
type Input struct {
	Lemma         string
	Stdout        string
	Stderr        string
	ExitCode      int
	Reason        supervisor.Reason
	HardShutdown  bool // distinguishes WrapperKilled from SignalInterrupted on Cancelled
}

// Parse classifies a completed run into a cache.Verdict. It never panics
// or returns an error: every input, however malformed, yields a Verdict.
func Parse(in Input) cache.Verdict {
	combined := in.Stdout + "\n" + in.Stderr
	combined = norm.NFC.String(combined)

	if in.Reason == supervisor.ReasonExited && in.ExitCode == 0 {
		return parseSuccess(in.Lemma, combined)
	}
	return cache.Verdict{Failed: classifyFailure(in)}
}

func parseSuccess(lemma, combined string) cache.Verdict {
	outcome, steps, analysisKind, found := findLemmaResult(lemma, combined)
	if !found {
		// Total parser: no match still yields a Succeeded verdict with
		// empty/zero fields rather than failing (§4.G).
		return cache.Verdict{Succeeded: &cache.SucceededVerdict{
			Warnings:            extractWarnings(combined),
			ProverReportedTimeS: extractTiming(combined),
		}}
	}

	var stepsPtr *int
	if steps >= 0 {
		s := steps
		stepsPtr = &s
	}

	return cache.Verdict{Succeeded: &cache.SucceededVerdict{
		Warnings:            extractWarnings(combined),
		ProverReportedTimeS: extractTiming(combined),
		LemmaOutcome:        outcome,
		Steps:               stepsPtr,
		AnalysisKind:        analysisKind,
	}}
}

func findLemmaResult(lemma, combined string) (outcome cache.LemmaOutcome, steps int, analysisKind string, found bool) {
	for _, m := range lemmaResultRe.FindAllStringSubmatch(combined, -1) {
		if m[1] != lemma {
			continue
		}
		analysisKind = m[2]
		steps = -1
		if m[4] != "" {
			if n, err := strconv.Atoi(m[4]); err == nil {
				steps = n
			}
		}
		switch m[3] {
		case "verified":
			return cache.Verified, steps, analysisKind, true
		case "falsified":
			return cache.Falsified, steps, analysisKind, true
		case "analysis incomplete":
			return cache.Unterminated, steps, analysisKind, true
		}
	}
	return "", -1, "", false
}

func extractTiming(combined string) float64 {
	m := timingRe.FindStringSubmatch(combined)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

func extractWarnings(combined string) []string {
	var warnings []string
	for _, m := range warningRe.FindAllStringSubmatch(combined, -1) {
		text := strings.TrimSpace(m[1])
		if text != "" {
			warnings = append(warnings, text)
		}
	}
	if m := wellformedRe.FindStringSubmatch(combined); m != nil {
		warnings = append(warnings, fmt.Sprintf("%s wellformedness check(s) failed", m[1]))
	}
	return warnings
}

func classifyFailure(in Input) *cache.FailedVerdict {
	tail := tailStderr(in.Stderr, 10)

	switch in.Reason {
	case supervisor.ReasonTimeout:
		return &cache.FailedVerdict{
			ReturnCode:  in.ExitCode,
			ErrorKind:   cache.ErrTimeout,
			Description: "task timed out during execution",
			TailStderr:  tail,
		}
	case supervisor.ReasonMemoryLimit:
		return &cache.FailedVerdict{
			ReturnCode:  in.ExitCode,
			ErrorKind:   cache.ErrMemoryLimit,
			Description: "task exceeded its memory limit",
			TailStderr:  tail,
		}
	case supervisor.ReasonCancelled:
		kind := cache.ErrSignalInterrupted
		desc := "task was interrupted by a shutdown signal"
		if in.HardShutdown {
			kind = cache.ErrWrapperKilled
			desc = "task was force-killed during hard shutdown"
		}
		return &cache.FailedVerdict{
			ReturnCode:  in.ExitCode,
			ErrorKind:   kind,
			Description: desc,
			TailStderr:  tail,
		}
	case supervisor.ReasonExited:
		return &cache.FailedVerdict{
			ReturnCode:  in.ExitCode,
			ErrorKind:   cache.ErrProverError,
			Description: fmt.Sprintf("task failed with return code %d", in.ExitCode),
			TailStderr:  tail,
		}
	default:
		return &cache.FailedVerdict{
			ReturnCode:  in.ExitCode,
			ErrorKind:   cache.ErrUnknown,
			Description: "task failed for an unrecognized reason",
			TailStderr:  tail,
		}
	}
}

func tailStderr(stderr string, n int) []string {
	trimmed := strings.TrimSpace(stderr)
	if trimmed == "" {
		return nil
	}
	lines := strings.Split(trimmed, "\n")
	nonEmpty := lines[:0:0]
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			nonEmpty = append(nonEmpty, l)
		}
	}
	if len(nonEmpty) > n {
		return nonEmpty[len(nonEmpty)-n:]
	}
	return nonEmpty
}
