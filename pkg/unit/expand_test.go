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
	"strings"
	"testing"

	"github.com/NVIDIA/tamarin-batch/pkg/recipe"
)

func intPtr(n int) *int { return &n }

func testExpander(theory []byte) *Expander {
	return &Expander{
		ReadTheory: func(path string) ([]byte, error) { return theory, nil },
		ResolveExecutable: func(path string) (string, error) {
			return "/opt/tamarin/" + path, nil
		},
	}
}

const twoLemmaTheory = `
theory Test
begin

lemma secrecy:
  "true"

lemma authentication:
  "true"

end
`

func baseRecipe(task recipe.Task) *recipe.Recipe {
	return &recipe.Recipe{
		Config: recipe.Config{
			GlobalMaxCores:    recipe.NewResourceLimit("4"),
			GlobalMaxMemoryGB: recipe.NewResourceLimit("16"),
			DefaultTimeoutS:   600,
		},
		Aliases: map[string]recipe.AliasEntry{
			"stable": {ExecutablePath: "tamarin-stable"},
		},
		AliasOrder: []string{"stable"},
		Tasks:      map[string]recipe.Task{"wpa2": task},
		TaskOrder:  []string{"wpa2"},
	}
}

func TestExpand_NoFilterOneUnitPerLemma(t *testing.T) {
	task := recipe.Task{
		TheoryFile:   "wpa2.spthy",
		Aliases:      []string{"stable"},
		OutputPrefix: "wpa2",
	}
	r := baseRecipe(task)

	res, err := testExpander([]byte(twoLemmaTheory)).Expand(r, 4, 16, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Units) != 2 {
		t.Fatalf("expected 2 units, got %d: %+v", len(res.Units), res.Units)
	}
	if res.Units[0].Lemma != "secrecy" || res.Units[1].Lemma != "authentication" {
		t.Fatalf("expected discovery order preserved, got %v", res.Units)
	}
	if res.Units[0].ID != "wpa2--secrecy--stable" {
		t.Fatalf("unexpected unit id: %s", res.Units[0].ID)
	}
}

// TestExpand_TaskCapWithLemmaEscalation covers the S4 scenario: a task
// requests more cores than the global ceiling allows, so it is capped; a
// sibling lemma override explicitly escalates past the ceiling and is left
// uncapped.
func TestExpand_TaskCapWithLemmaEscalation(t *testing.T) {
	task := recipe.Task{
		TheoryFile:   "wpa2.spthy",
		Aliases:      []string{"stable"},
		OutputPrefix: "wpa2",
		Resources:    &recipe.ResourceOverride{Cores: intPtr(32)},
		Lemmas: []recipe.LemmaSpec{
			{Name: "secrecy"},
			{Name: "authentication", Resources: &recipe.ResourceOverride{Cores: intPtr(8)}},
		},
	}
	r := baseRecipe(task)

	res, err := testExpander([]byte(twoLemmaTheory)).Expand(r, 4, 16, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Units) != 2 {
		t.Fatalf("expected 2 units, got %d", len(res.Units))
	}

	var secrecy, auth *Unit
	for i := range res.Units {
		switch res.Units[i].Lemma {
		case "secrecy":
			secrecy = &res.Units[i]
		case "authentication":
			auth = &res.Units[i]
		}
	}
	if secrecy == nil || auth == nil {
		t.Fatalf("missing expected units: %+v", res.Units)
	}

	if secrecy.Cores != 4 || !secrecy.CoresCapped {
		t.Fatalf("expected secrecy capped to 4 cores, got cores=%d capped=%v", secrecy.Cores, secrecy.CoresCapped)
	}
	if auth.Cores != 8 || auth.CoresCapped {
		t.Fatalf("expected authentication uncapped at 8 cores, got cores=%d capped=%v", auth.Cores, auth.CoresCapped)
	}
}

// TestExpand_PreprocessorGatedLemma covers the S5 scenario: a lemma filter
// that only matches once the task's preprocessor flags activate a
// conditional branch.
func TestExpand_PreprocessorGatedLemma(t *testing.T) {
	theory := []byte(`
theory Test
begin

lemma always:
  "true"

#ifdef EXTRA
lemma extra_check:
  "true"
#endif

end
`)
	task := recipe.Task{
		TheoryFile:        "gated.spthy",
		Aliases:           []string{"stable"},
		OutputPrefix:      "gated",
		PreprocessorFlags: []string{"EXTRA"},
	}
	r := baseRecipe(task)

	res, err := testExpander(theory).Expand(r, 4, 16, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Units) != 2 {
		t.Fatalf("expected 2 units with EXTRA active, got %d", len(res.Units))
	}
}

func TestExpand_ZeroMatchLemmaSpecWarnsAndSkips(t *testing.T) {
	task := recipe.Task{
		TheoryFile:   "wpa2.spthy",
		Aliases:      []string{"stable"},
		OutputPrefix: "wpa2",
		Lemmas: []recipe.LemmaSpec{
			{Name: "does_not_exist"},
		},
	}
	r := baseRecipe(task)

	res, err := testExpander([]byte(twoLemmaTheory)).Expand(r, 4, 16, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Units) != 0 {
		t.Fatalf("expected zero units, got %d", len(res.Units))
	}
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "does_not_exist") {
		t.Fatalf("expected a zero-match warning, got %v", res.Warnings)
	}
}

func TestExpand_UnitIDCollisionSuffixing(t *testing.T) {
	task := recipe.Task{
		TheoryFile:   "wpa2.spthy",
		Aliases:      []string{"stable"},
		OutputPrefix: "wpa2",
		Lemmas: []recipe.LemmaSpec{
			{Name: "secrecy"},
			{Name: "secre"},
		},
	}
	r := baseRecipe(task)

	res, err := testExpander([]byte(twoLemmaTheory)).Expand(r, 4, 16, 600)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Units) != 2 {
		t.Fatalf("expected 2 units (both filters match 'secrecy'), got %d: %+v", len(res.Units), res.Units)
	}
	ids := map[string]bool{}
	for _, u := range res.Units {
		ids[u.ID] = true
	}
	if !ids["wpa2--secrecy--stable"] || !ids["wpa2--secrecy--stable_2"] {
		t.Fatalf("expected collision-suffixed ids, got %v", ids)
	}
}

func TestExpand_LemmaParseFailureIsWarningNotFatal(t *testing.T) {
	task := recipe.Task{
		TheoryFile:        "broken.spthy",
		Aliases:           []string{"stable"},
		OutputPrefix:      "broken",
		PreprocessorFlags: nil,
	}
	r := baseRecipe(task)

	broken := []byte("#ifdef NEVER_CLOSED\nlemma x:\n  \"true\"\n")
	res, err := testExpander(broken).Expand(r, 4, 16, 600)
	if err != nil {
		t.Fatalf("expected lemma parse failure to be a warning, not fatal: %v", err)
	}
	if len(res.Units) != 0 {
		t.Fatalf("expected no units for the broken task, got %d", len(res.Units))
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %v", res.Warnings)
	}
}

func TestExpand_UndefinedAliasAtExpansionIsFatal(t *testing.T) {
	task := recipe.Task{
		TheoryFile:   "wpa2.spthy",
		Aliases:      []string{"ghost"},
		OutputPrefix: "wpa2",
	}
	r := baseRecipe(task)

	_, err := testExpander([]byte(twoLemmaTheory)).Expand(r, 4, 16, 600)
	if err == nil {
		t.Fatal("expected fatal error for undefined alias reference")
	}
}
