/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/NVIDIA/tamarin-batch/pkg/preflight"
	"github.com/NVIDIA/tamarin-batch/pkg/prover"
	"github.com/NVIDIA/tamarin-batch/pkg/recipe"
	"github.com/NVIDIA/tamarin-batch/pkg/supervisor"
	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

var checkReportFlag bool

var checkCmd = &cobra.Command{
	Use:     "check <recipe>",
	GroupID: "functional",
	Short:   "dry-run a recipe: expand it and probe every alias/theory_file pair without scheduling",
	Args:    cobra.ExactArgs(1),
	RunE:    runCheck,
}

func init() {
	checkCmd.Flags().BoolVar(&checkReportFlag, "report", false, "write a diagnostics report per pair under <output_directory>/wellformedness-check-report/")
}

func runCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	recipePath := args[0]

	r, err := recipe.Load(recipePath)
	if err != nil {
		slog.Error("failed to load recipe", "path", recipePath, "error", err)
		return err
	}

	maxCores, maxMemoryGB, err := resolveCeilings(r)
	if err != nil {
		slog.Error("failed to resolve global ceilings", "error", err)
		return err
	}

	aliasVersions := make(map[string]prover.Version, len(r.Aliases))
	aliasVersionsKnown := make(map[string]bool, len(r.Aliases))
	for alias, entry := range r.Aliases {
		v, ok := prover.ProbeVersion(ctx, entry.ExecutablePath)
		aliasVersions[alias] = v
		aliasVersionsKnown[alias] = ok
	}

	report, err := preflight.Validate(ctx, unit.NewExpander(), supervisor.New(), aliasVersions, aliasVersionsKnown, r, maxCores, maxMemoryGB, r.Config.DefaultTimeoutS)
	if err != nil {
		slog.Error("preflight expansion failed", "error", err)
		return err
	}

	for _, w := range report.ExpansionWarnings {
		slog.Warn(w)
	}

	failures := 0
	for _, d := range report.Diagnostics {
		if d.Failed {
			failures++
			fmt.Printf("FAIL  %s / %s: %s\n", d.Alias, d.TheoryFile, d.Description)
			continue
		}
		fmt.Printf("OK    %s / %s\n", d.Alias, d.TheoryFile)
		for _, w := range d.Warnings {
			fmt.Printf("        warning: %s\n", w)
		}
	}
	fmt.Printf("\n%d units would be scheduled across %d unique alias/theory_file pairs, %d failed\n",
		len(report.Units), len(report.Diagnostics), failures)

	if checkReportFlag {
		if err := preflight.WriteDiagnosticsReport(r.Config.OutputDirectory, report.Diagnostics); err != nil {
			slog.Error("failed to write well-formedness report", "error", err)
			return err
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d alias/theory_file pairs failed well-formedness checks", failures, len(report.Diagnostics))
	}
	return nil
}
