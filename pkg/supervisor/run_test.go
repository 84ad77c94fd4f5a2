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

package supervisor

import (
	"testing"
	"time"
)

// fakeSampler reports a fixed, steadily growing RSS so memory-ceiling tests
// don't depend on actual process memory behavior.
type fakeSampler struct {
	valuesMB []float64
	call     int
}

func (f *fakeSampler) SampleRSSMB(pid int) (float64, error) {
	if f.call >= len(f.valuesMB) {
		return f.valuesMB[len(f.valuesMB)-1], nil
	}
	v := f.valuesMB[f.call]
	f.call++
	return v, nil
}

func TestRun_NormalExit(t *testing.T) {
	s := New()
	res := s.Run(nil, "/bin/sh", []string{"-c", "echo hello; exit 0"}, 5, 0)
	if res.Reason != ReasonExited {
		t.Fatalf("expected ReasonExited, got %v", res.Reason)
	}
	if res.ExitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", res.ExitCode)
	}
	if res.Stdout != "hello\n" {
		t.Fatalf("unexpected stdout: %q", res.Stdout)
	}
}

func TestRun_NonZeroExit(t *testing.T) {
	s := New()
	res := s.Run(nil, "/bin/sh", []string{"-c", "exit 3"}, 5, 0)
	if res.Reason != ReasonExited {
		t.Fatalf("expected ReasonExited, got %v", res.Reason)
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected exit code 3, got %d", res.ExitCode)
	}
}

func TestRun_WallClockTimeout(t *testing.T) {
	s := New()
	start := time.Now()
	res := s.Run(nil, "/bin/sh", []string{"-c", "sleep 30"}, 1, 0)
	if res.Reason != ReasonTimeout {
		t.Fatalf("expected ReasonTimeout, got %v", res.Reason)
	}
	if res.ExitCode != ExitCodeTimeout {
		t.Fatalf("expected exit code %d, got %d", ExitCodeTimeout, res.ExitCode)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatalf("expected termination well before the 30s sleep, took %v", time.Since(start))
	}
}

func TestRun_HardCancelTerminatesProcess(t *testing.T) {
	s := New()
	hardCancel := make(chan struct{})
	go func() {
		time.Sleep(200 * time.Millisecond)
		close(hardCancel)
	}()

	start := time.Now()
	res := s.Run(hardCancel, "/bin/sh", []string{"-c", "sleep 30"}, 30, 0)
	if res.Reason != ReasonCancelled {
		t.Fatalf("expected ReasonCancelled, got %v", res.Reason)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatalf("expected termination well before the 30s sleep, took %v", time.Since(start))
	}
}

func TestRun_NilHardCancelNeverTerminatesEarly(t *testing.T) {
	s := New()
	res := s.Run(nil, "/bin/sh", []string{"-c", "sleep 0.2; exit 0"}, 5, 0)
	if res.Reason != ReasonExited {
		t.Fatalf("expected ReasonExited, got %v", res.Reason)
	}
}

func TestRun_MemoryLimitExceeded(t *testing.T) {
	s := &Supervisor{sampler: &fakeSampler{valuesMB: []float64{10, 20, 5000}}}
	res := s.Run(nil, "/bin/sh", []string{"-c", "sleep 30"}, 30, 1)
	if res.Reason != ReasonMemoryLimit {
		t.Fatalf("expected ReasonMemoryLimit, got %v", res.Reason)
	}
	if res.ExitCode != ExitCodeMemoryLimit {
		t.Fatalf("expected exit code %d, got %d", ExitCodeMemoryLimit, res.ExitCode)
	}
	if res.Memory == nil || res.Memory.PeakMemoryMB < 5000 {
		t.Fatalf("expected peak memory to reflect the exceeding sample, got %+v", res.Memory)
	}
}

func TestRun_SpawnError(t *testing.T) {
	s := New()
	res := s.Run(nil, "/no/such/executable-xyz", nil, 5, 0)
	if res.Reason != ReasonSpawnError {
		t.Fatalf("expected ReasonSpawnError, got %v", res.Reason)
	}
}

func TestRunningAverage(t *testing.T) {
	avg := &runningAverage{}
	for _, v := range []float64{10, 20, 30} {
		avg.add(v)
	}
	stats := avg.stats()
	if stats.PeakMemoryMB != 30 {
		t.Fatalf("expected peak 30, got %v", stats.PeakMemoryMB)
	}
	if stats.AvgMemoryMB != 20 {
		t.Fatalf("expected avg 20, got %v", stats.AvgMemoryMB)
	}
}
