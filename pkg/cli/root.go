/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/NVIDIA/tamarin-batch/pkg/logging"
)

const (
	name           = "tamarin-batch"
	versionDefault = "dev"
)

var (
	// overridden during build with ldflags
	version = versionDefault
	commit  = "unknown"
	date    = "unknown"

	cfgFile  string
	logLevel string
)

// shutdownRequests counts interrupts received during the current process:
// the first cancels ctx (soft shutdown, stop admitting new units); the
// second closes hardCancelCh (hard shutdown, terminate units already
// running) (§4.E.1, §5, scenario S6).
var (
	shutdownRequests int32
	hardCancelCh     = make(chan struct{})
	hardCancelOnce   sync.Once
)

// ShutdownLevel reports how many interrupts have been received so far
// (0, 1, or 2+).
func ShutdownLevel() int32 {
	return atomic.LoadInt32(&shutdownRequests)
}

// HardCancel returns the channel closed on the second (and any further)
// interrupt. A running command's Coordinator passes it straight through to
// every in-flight supervisor.Run call so a unit already underway is only
// ever killed by an explicit hard shutdown, never by the soft-shutdown ctx.
func HardCancel() <-chan struct{} {
	return hardCancelCh
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   name,
	Short: "tamarin-batch - batch orchestration for the tamarin-prover",
	Long: fmt.Sprintf(`tamarin-batch - batch orchestration for the tamarin-prover

Version: %s
Commit:  %s
Built:   %s

Expands a recipe of theory files, lemma filters, and prover aliases into
independent verification units, schedules them under global CPU/memory
budgets, and emits a machine-readable execution report.`, version, commit, date),
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		for range sigCh {
			level := atomic.AddInt32(&shutdownRequests, 1)
			if level == 1 {
				fmt.Fprintln(os.Stderr, "\nreceived interrupt, shutting down gracefully (press again to force)...")
				cancel()
			} else {
				fmt.Fprintln(os.Stderr, "\nreceived second interrupt, forcing shutdown...")
				hardCancelOnce.Do(func() { close(hardCancelCh) })
			}
		}
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if atomic.LoadInt32(&shutdownRequests) > 0 {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.AddGroup(
		&cobra.Group{
			ID:    "functional",
			Title: "Functional Commands:",
		},
	)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.tamarin-batch.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(runCmd, checkCmd, cacheCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "Error reading config file %s: %v\n", cfgFile, err)
			os.Exit(1)
		}
		return
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}

	viper.AddConfigPath(home)
	viper.AddConfigPath(".")
	viper.SetConfigType("yaml")
	viper.SetConfigName(".tamarin-batch")

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TAMARIN_BATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	_ = viper.ReadInConfig()
}

// initLogger configures slog after Cobra parses flags/config so overrides like
// --log-level take effect before any command executes.
func initLogger() {
	logging.SetDefaultStructuredLoggerWithLevel(name, version, logLevel)
	slog.Info("starting",
		"name", name,
		"version", version,
		"commit", commit,
		"date", date,
		"logLevel", logLevel)
}
