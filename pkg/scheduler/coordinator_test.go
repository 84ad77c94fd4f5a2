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

package scheduler

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NVIDIA/tamarin-batch/pkg/cache"
	"github.com/NVIDIA/tamarin-batch/pkg/supervisor"
	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

func stubFingerprinter() *unit.FingerprintComputer {
	return &unit.FingerprintComputer{
		OpenTheory: func(path string) (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader("theory-contents")), nil
		},
		StatExecutable: func(path string) (string, int64, error) {
			return "fixed-mtime", 1024, nil
		},
	}
}

func testUnit(id, executable, lemma string) unit.Unit {
	return unit.Unit{
		ID:             id,
		ExecutablePath: executable,
		TheoryFile:     "theory.spthy",
		Lemma:          lemma,
		Cores:          1,
		MemoryGB:       1,
		TimeoutS:       5,
		OutputFile:     id + ".json",
	}
}

func newTestCoordinator(t *testing.T, maxCores, maxMemoryGB int) *Coordinator {
	t.Helper()
	store, err := cache.Open(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return &Coordinator{
		Accountant:   NewAccountant(maxCores, maxMemoryGB),
		Policy:       FIFO{},
		Supervisor:   supervisor.New(),
		Cache:        store,
		Fingerprints: stubFingerprinter(),
	}
}

func TestCoordinator_RunSingleUnitSuccess(t *testing.T) {
	c := newTestCoordinator(t, 4, 16)
	units := []unit.Unit{testUnit("u1", "/bin/true", "secrecy")}

	results := c.Run(context.Background(), units, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].State != StateCompleted {
		t.Fatalf("expected completed, got %v (%+v)", results[0].State, results[0])
	}
}

func TestCoordinator_RunFailingUnit(t *testing.T) {
	c := newTestCoordinator(t, 4, 16)
	units := []unit.Unit{testUnit("u1", "/bin/false", "secrecy")}

	results := c.Run(context.Background(), units, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].State != StateFailed {
		t.Fatalf("expected failed, got %v", results[0].State)
	}
	if results[0].Verdict.Failed == nil || results[0].Verdict.Failed.ErrorKind != cache.ErrProverError {
		t.Fatalf("expected ProverError, got %+v", results[0].Verdict)
	}
}

func TestCoordinator_CacheHitSkipsExecution(t *testing.T) {
	c := newTestCoordinator(t, 4, 16)
	u := testUnit("u1", "/nonexistent/should-never-run", "secrecy")

	fp, err := c.Fingerprints.Fingerprint(u)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}
	cached := cache.Verdict{Succeeded: &cache.SucceededVerdict{LemmaOutcome: cache.Verified}}
	if err := c.Cache.Put(fp, cached); err != nil {
		t.Fatalf("Put: %v", err)
	}

	results := c.Run(context.Background(), []unit.Unit{u}, nil)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if !results[0].FromCache || results[0].State != StateCacheHit {
		t.Fatalf("expected cache hit, got %+v", results[0])
	}
	if results[0].Verdict.Succeeded.LemmaOutcome != cache.Verified {
		t.Fatalf("expected cached verdict to be returned, got %+v", results[0].Verdict)
	}
}

func TestCoordinator_SerializesUnitsOverCeiling(t *testing.T) {
	c := newTestCoordinator(t, 1, 1)
	units := []unit.Unit{
		testUnit("u1", "/bin/true", "a"),
		testUnit("u2", "/bin/true", "b"),
		testUnit("u3", "/bin/true", "c"),
	}

	results := c.Run(context.Background(), units, nil)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.State != StateCompleted {
			t.Fatalf("expected all completed, got %+v", r)
		}
	}
}

func TestCoordinator_PreCancelledContextRunsNothing(t *testing.T) {
	c := newTestCoordinator(t, 4, 16)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	units := []unit.Unit{testUnit("u1", "/bin/true", "a"), testUnit("u2", "/bin/true", "b")}
	results := c.Run(ctx, units, nil)
	if len(results) != 0 {
		t.Fatalf("expected no units to start once context is already cancelled, got %d", len(results))
	}
}

// writeSleepScript writes a shell script under t.TempDir() that sleeps for
// seconds and exits 0, ignoring whatever prover-shaped argv the coordinator
// invokes it with.
func writeSleepScript(t *testing.T, seconds string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sleep.sh")
	src := "#!/bin/sh\nsleep " + seconds + "\nexit 0\n"
	if err := os.WriteFile(path, []byte(src), 0o755); err != nil {
		t.Fatalf("write sleep script: %v", err)
	}
	return path
}

func TestCoordinator_SoftCancelLetsRunningUnitFinish(t *testing.T) {
	c := newTestCoordinator(t, 4, 16)
	ctx, cancel := context.WithCancel(context.Background())

	u := testUnit("u1", writeSleepScript(t, "0.5"), "secrecy")

	var started sync.WaitGroup
	started.Add(1)
	c.Observer = Observer{
		OnAdmit: func(unit.Unit) { started.Done() },
	}

	resultsCh := make(chan []UnitResult, 1)
	go func() {
		resultsCh <- c.Run(ctx, []unit.Unit{u}, nil)
	}()

	started.Wait()
	cancel() // soft shutdown: must not touch the already-running unit

	results := <-resultsCh
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].State == StateSignalInterrupted {
		t.Fatalf("soft shutdown must let a running unit finish naturally, got %+v", results[0])
	}
}

func TestCoordinator_HardCancelTerminatesRunningUnit(t *testing.T) {
	c := newTestCoordinator(t, 4, 16)
	hardCancel := make(chan struct{})

	u := testUnit("u1", writeSleepScript(t, "30"), "secrecy")

	var started sync.WaitGroup
	started.Add(1)
	c.Observer = Observer{
		OnAdmit: func(unit.Unit) { started.Done() },
	}

	resultsCh := make(chan []UnitResult, 1)
	go func() {
		resultsCh <- c.Run(context.Background(), []unit.Unit{u}, hardCancel)
	}()

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(hardCancel)

	results := <-resultsCh
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].State != StateSignalInterrupted {
		t.Fatalf("expected signal_interrupted after hard cancel, got %+v", results[0])
	}
}

func TestCoordinator_ObserverCallbacksFire(t *testing.T) {
	c := newTestCoordinator(t, 4, 16)
	var admits, completes int32
	c.Observer = Observer{
		OnAdmit:    func(u unit.Unit) { atomic.AddInt32(&admits, 1) },
		OnComplete: func(r UnitResult) { atomic.AddInt32(&completes, 1) },
	}

	units := []unit.Unit{testUnit("u1", "/bin/true", "a"), testUnit("u2", "/bin/true", "b")}
	c.Run(context.Background(), units, nil)

	if atomic.LoadInt32(&admits) != 2 {
		t.Fatalf("expected 2 admit callbacks, got %d", admits)
	}
	if atomic.LoadInt32(&completes) != 2 {
		t.Fatalf("expected 2 complete callbacks, got %d", completes)
	}
}
