/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/NVIDIA/tamarin-batch/pkg/cache"
	"github.com/NVIDIA/tamarin-batch/pkg/metrics"
	"github.com/NVIDIA/tamarin-batch/pkg/progress"
	"github.com/NVIDIA/tamarin-batch/pkg/prover"
	"github.com/NVIDIA/tamarin-batch/pkg/recipe"
	"github.com/NVIDIA/tamarin-batch/pkg/report"
	"github.com/NVIDIA/tamarin-batch/pkg/scheduler"
	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

var (
	runPolicyFlag      string
	runCacheDirFlag    string
	runMetricsAddrFlag string
	runForceFlag       bool
)

var runCmd = &cobra.Command{
	Use:     "run <recipe>",
	GroupID: "functional",
	Short:   "expand, schedule, and run every unit in a recipe",
	Args:    cobra.ExactArgs(1),
	RunE:    runRun,
}

func init() {
	runCmd.Flags().StringVar(&runPolicyFlag, "policy", "fifo", "scheduling policy: fifo, sjf, or ljf")
	runCmd.Flags().StringVar(&runCacheDirFlag, "cache-dir", "", "result cache directory (default: <output_directory>/.cache)")
	runCmd.Flags().StringVar(&runMetricsAddrFlag, "metrics-addr", "", "if set, serve Prometheus metrics on this address (e.g. :9090)")
	runCmd.Flags().BoolVar(&runForceFlag, "force", false, "wipe a non-empty output directory instead of prompting")
}

func runRun(cmd *cobra.Command, args []string) error {
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

	if err := prepareOutputDirectory(r.Config.OutputDirectory); err != nil {
		return err
	}

	expander := unit.NewExpander()
	expansion, err := expander.Expand(r, maxCores, maxMemoryGB, r.Config.DefaultTimeoutS)
	if err != nil {
		slog.Error("unit expansion failed", "error", err)
		return err
	}
	for _, w := range expansion.Warnings {
		slog.Warn(w)
	}
	slog.Info("expanded recipe", "units", len(expansion.Units))

	aliasVersions := probeAliasVersions(ctx, r)

	cacheDir := runCacheDirFlag
	if cacheDir == "" {
		cacheDir = filepath.Join(r.Config.OutputDirectory, ".cache")
	}
	store, err := cache.Open(cacheDir, 0)
	if err != nil {
		slog.Error("failed to open result cache", "dir", cacheDir, "error", err)
		return err
	}
	defer store.Close()

	accountant := scheduler.NewAccountant(maxCores, maxMemoryGB)
	coordinator := scheduler.NewCoordinator(accountant, scheduler.ParsePolicy(runPolicyFlag), store, aliasVersions)

	reg := prometheus.NewRegistry()
	metricsRegistry := metrics.NewRegistry(reg)
	reporter := progress.NewReporter()
	coordinator.Observer = combineObservers(metricsRegistry.Observer(), reporter.Observer())

	if runMetricsAddrFlag != "" {
		serveMetrics(runMetricsAddrFlag, reg)
	}

	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	defer func() { _, _ = daemon.SdNotify(false, daemon.SdNotifyStopping) }()

	results := coordinator.Run(ctx, expansion.Units, HardCancel())

	for _, res := range results {
		if res.Unit.TracesDir != "" {
			_ = report.CleanEmptyTraceFiles(filepath.Join(r.Config.OutputDirectory, "traces", res.Unit.TracesDir))
		}
	}

	batch := report.Assemble(filepath.Base(recipePath), r,
		report.ResolvedConfigInput{GlobalMaxCores: maxCores, GlobalMaxMemoryGB: maxMemoryGB},
		aliasVersions, results)

	if err := report.Write(r.Config.OutputDirectory, batch); err != nil {
		slog.Error("failed to write execution report", "error", err)
	}

	if batch.ExecutionMetadata.TotalFailures > 0 {
		return fmt.Errorf("%d of %d units did not complete successfully", batch.ExecutionMetadata.TotalFailures, batch.ExecutionMetadata.TotalTasks)
	}
	return nil
}

func combineObservers(observers ...scheduler.Observer) scheduler.Observer {
	return scheduler.Observer{
		OnAdmit: func(u unit.Unit) {
			for _, o := range observers {
				if o.OnAdmit != nil {
					o.OnAdmit(u)
				}
			}
		},
		OnComplete: func(r scheduler.UnitResult) {
			for _, o := range observers {
				if o.OnComplete != nil {
					o.OnComplete(r)
				}
			}
		},
		OnProgress: func(pending, running, completed, total int) {
			for _, o := range observers {
				if o.OnProgress != nil {
					o.OnProgress(pending, running, completed, total)
				}
			}
		},
	}
}

func resolveCeilings(r *recipe.Recipe) (cores, memoryGB int, err error) {
	hostCores, hostMemoryGB := hostCapacity()
	cores, err = r.Config.GlobalMaxCores.Resolve(hostCores)
	if err != nil {
		return 0, 0, err
	}
	memoryGB, err = r.Config.GlobalMaxMemoryGB.Resolve(hostMemoryGB)
	if err != nil {
		return 0, 0, err
	}
	if cores > hostCores {
		slog.Warn("global_max_cores exceeds host capacity, capping", "requested", cores, "host_cores", hostCores)
		cores = hostCores
	}
	if memoryGB > hostMemoryGB {
		slog.Warn("global_max_memory exceeds host capacity, capping", "requested", memoryGB, "host_memory_gb", hostMemoryGB)
		memoryGB = hostMemoryGB
	}
	return cores, memoryGB, nil
}

// probeAliasVersions runs `<executable> --version` once per alias so the
// compatibility filter and the report's alias table can use it (§9,
// SPEC_FULL supplemented feature #2).
func probeAliasVersions(ctx context.Context, r *recipe.Recipe) map[string]scheduler.AliasVersion {
	out := make(map[string]scheduler.AliasVersion, len(r.Aliases))
	for alias, entry := range r.Aliases {
		v, ok := prover.ProbeVersion(ctx, entry.ExecutablePath)
		out[alias] = scheduler.AliasVersion{Version: v, Known: ok}
	}
	return out
}

// prepareOutputDirectory never silently overwrites a non-empty output
// directory (§6.3): it prompts the operator unless --force was passed.
func prepareOutputDirectory(dir string) error {
	nonEmpty, err := report.IsNonEmptyDirectory(dir)
	if err != nil {
		return err
	}
	if nonEmpty && !runForceFlag {
		if !confirmWipe(dir) {
			sibling := fmt.Sprintf("%s-%s", dir, time.Now().Format("20060102-150405"))
			slog.Info("keeping existing output directory, writing to a timestamped sibling instead", "sibling", sibling)
			dir = sibling
		}
	}
	return report.PrepareOutputDirectory(dir)
}

func confirmWipe(dir string) bool {
	fmt.Fprintf(os.Stderr, "output directory %q already exists and is non-empty. Wipe it? [y/N] ", dir)
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	return line == "y\n" || line == "Y\n"
}

func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
}
