/*
Copyright © 2025 NVIDIA Corporation
SPDX-License-Identifier: Apache-2.0
*/
package cli

import (
	"log/slog"
	"runtime"

	"github.com/prometheus/procfs"
)

// fallbackHostMemoryGB is used when /proc/meminfo cannot be read (e.g. a
// non-Linux host), matching this package's existing reliance on procfs for
// process memory sampling (pkg/supervisor) rather than introducing a
// second, cross-platform host-info library for one call site.
const fallbackHostMemoryGB = 16

// hostCapacity reports the host's core count and total memory in whole
// gigabytes, used to resolve a recipe's "max"/"N%" ceilings to absolute
// integers (§6.1).
func hostCapacity() (cores, memoryGB int) {
	cores = runtime.NumCPU()

	fs, err := procfs.NewDefaultFS()
	if err != nil {
		slog.Warn("could not open procfs for host memory capacity, using fallback", "error", err, "fallback_gb", fallbackHostMemoryGB)
		return cores, fallbackHostMemoryGB
	}
	meminfo, err := fs.Meminfo()
	if err != nil || meminfo.MemTotal == nil {
		slog.Warn("could not read /proc/meminfo, using fallback", "error", err, "fallback_gb", fallbackHostMemoryGB)
		return cores, fallbackHostMemoryGB
	}

	memoryGB = int(*meminfo.MemTotal / (1024 * 1024))
	if memoryGB < 1 {
		memoryGB = 1
	}
	return cores, memoryGB
}
