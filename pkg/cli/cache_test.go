/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestRecipe(t *testing.T, path, outputDirectory string) {
	t.Helper()
	src := fmt.Sprintf(`{
  "config": {
    "global_max_cores": 4,
    "global_max_memory": 16,
    "default_timeout": 3600,
    "output_directory": %q
  },
  "tamarin_versions": {
    "stable": {"path": "tamarin-prover", "version": "1.8.0"}
  },
  "tasks": {
    "wpa2": {
      "theory_file": "protocols/wpa2.spthy",
      "tamarin_versions": ["stable"],
      "output_file_prefix": "wpa2",
      "lemmas": [
        {"name": "secrecy"}
      ]
    }
  }
}`, outputDirectory)
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func TestResolveCacheDir_FlagOverridesRecipeDefault(t *testing.T) {
	cacheDirFlag = "/tmp/explicit-cache"
	defer func() { cacheDirFlag = "" }()

	dir, err := resolveCacheDir("does-not-matter.json")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/explicit-cache", dir)
}

func TestResolveCacheDir_DefaultsUnderRecipeOutputDirectory(t *testing.T) {
	tmp := t.TempDir()
	recipePath := filepath.Join(tmp, "recipe.json")
	writeTestRecipe(t, recipePath, filepath.Join(tmp, "out"))

	dir, err := resolveCacheDir(recipePath)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmp, "out", ".cache"), dir)
}
