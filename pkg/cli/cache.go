/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/NVIDIA/tamarin-batch/pkg/cache"
	"github.com/NVIDIA/tamarin-batch/pkg/recipe"
)

var cacheDirFlag string

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "inspect or clear the result cache",
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats <recipe>",
	Short: "report cache entry count and size",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear <recipe>",
	Short: "remove every entry from the result cache",
	Args:  cobra.ExactArgs(1),
	RunE:  runCacheClear,
}

func init() {
	cacheCmd.PersistentFlags().StringVar(&cacheDirFlag, "cache-dir", "", "result cache directory (default: <output_directory>/.cache)")
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}

func resolveCacheDir(recipePath string) (string, error) {
	if cacheDirFlag != "" {
		return cacheDirFlag, nil
	}
	r, err := recipe.Load(recipePath)
	if err != nil {
		return "", err
	}
	return filepath.Join(r.Config.OutputDirectory, ".cache"), nil
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	dir, err := resolveCacheDir(args[0])
	if err != nil {
		return err
	}
	store, err := cache.Open(dir, 0)
	if err != nil {
		return err
	}
	defer store.Close()

	stats := store.Stats()
	fmt.Printf("%s: %d entries, %d bytes\n", dir, stats.Entries, stats.Bytes)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	dir, err := resolveCacheDir(args[0])
	if err != nil {
		return err
	}
	store, err := cache.Open(dir, 0)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Clear(); err != nil {
		return err
	}
	fmt.Printf("%s: cleared\n", dir)
	return nil
}
