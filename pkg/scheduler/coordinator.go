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
	"log/slog"
	"sync"
	"time"

	"github.com/NVIDIA/tamarin-batch/pkg/cache"
	"github.com/NVIDIA/tamarin-batch/pkg/parser"
	"github.com/NVIDIA/tamarin-batch/pkg/prover"
	"github.com/NVIDIA/tamarin-batch/pkg/supervisor"
	"github.com/NVIDIA/tamarin-batch/pkg/unit"
)

// pollInterval is how often the main loop re-checks the Accountant for
// newly admissible units after the pending set is exhausted or the
// ceiling is saturated.
const pollInterval = 100 * time.Millisecond

// progressInterval is how often Observer.OnProgress is invoked while units
// are running (§4.F: "emits a progress update at least every three
// seconds").
const progressInterval = 3 * time.Second

// State is a unit's position in the Pending → Running → terminal state
// machine.
type State string

const (
	StatePending            State = "pending"
	StateRunning            State = "running"
	StateCompleted          State = "completed"
	StateFailed             State = "failed"
	StateTimeout            State = "timeout"
	StateMemoryLimitExceeded State = "memory_limit_exceeded"
	StateSignalInterrupted  State = "signal_interrupted"
	StateCacheHit           State = "cache_hit"
)

// UnitResult is the final record for one admitted unit, produced whether
// it ran or was served from cache. Units still pending when soft shutdown
// stops admission get no UnitResult.
type UnitResult struct {
	Unit        unit.Unit
	State       State
	Verdict     cache.Verdict
	FromCache   bool
	Fingerprint string
	Command     []string
	Started     time.Time
	Ended       time.Time
	Memory      *supervisor.MemoryStats
}

// Observer receives coordinator lifecycle notifications. All methods must
// return promptly; Coordinator calls them synchronously from its main
// loop or from completion handlers. A nil field in Observer is simply
// skipped.
type Observer struct {
	OnAdmit    func(u unit.Unit)
	OnComplete func(r UnitResult)
	OnProgress func(pending, running, completed, total int)
}

func (o Observer) admit(u unit.Unit) {
	if o.OnAdmit != nil {
		o.OnAdmit(u)
	}
}

func (o Observer) complete(r UnitResult) {
	if o.OnComplete != nil {
		o.OnComplete(r)
	}
}

func (o Observer) progress(pending, running, completed, total int) {
	if o.OnProgress != nil {
		o.OnProgress(pending, running, completed, total)
	}
}

// AliasVersion carries a prover alias's probed compatibility version, used
// to decide whether BuildArgs' output flags must be elided (§6.2, §9). A
// missing entry is treated as versionKnown=false (fail-open).
type AliasVersion struct {
	Version prover.Version
	Known   bool
}

// Coordinator owns the Pending → Running → terminal state machine for one
// batch: it admits units through an Accountant according to a Policy, runs
// each admitted unit via a supervisor.Supervisor, classifies completions
// via pkg/parser, and consults/populates a cache.Store by content
// fingerprint.
type Coordinator struct {
	Accountant   *Accountant
	Policy       Policy
	Supervisor   *supervisor.Supervisor
	Cache        *cache.Store
	Fingerprints *unit.FingerprintComputer
	AliasVersions map[string]AliasVersion
	Observer     Observer
}

// NewCoordinator wires a Coordinator with the real supervisor and
// fingerprint computer. Cache and AliasVersions may be nil/empty: a nil
// Cache disables caching entirely (always a miss, Put is a no-op).
func NewCoordinator(accountant *Accountant, policy Policy, store *cache.Store, aliasVersions map[string]AliasVersion) *Coordinator {
	return &Coordinator{
		Accountant:    accountant,
		Policy:        policy,
		Supervisor:    supervisor.New(),
		Cache:         store,
		Fingerprints:  unit.NewFingerprintComputer(),
		AliasVersions: aliasVersions,
	}
}

// Run executes the units in units to completion (cache hit, successful
// run, or failure) and returns one UnitResult per admitted unit, in no
// particular order. ctx and hardCancel carry the two distinct shutdown
// signals (§4.E.1, §5, scenario S6): ctx cancellation is soft shutdown —
// Run stops admitting pending units, which are dropped without a
// UnitResult, but lets units already running via the
// supervisor continue to their natural exit, timeout, or memory ceiling.
// hardCancel being closed is hard shutdown — it reaches every in-flight
// supervisor.Run call and terminates the process (SIGTERM, grace, SIGKILL).
// A nil hardCancel simply never escalates; it is safe to pass when no
// hard-shutdown signal exists (e.g. tests).
func (c *Coordinator) Run(ctx context.Context, units []unit.Unit, hardCancel <-chan struct{}) []UnitResult {
	total := len(units)
	pending := append([]unit.Unit(nil), units...)

	results := make([]UnitResult, 0, total)
	var mu sync.Mutex
	var wg sync.WaitGroup

	progressTicker := time.NewTicker(progressInterval)
	defer progressTicker.Stop()

	done := make(chan struct{})
	runningCount := 0

	reportProgress := func() {
		mu.Lock()
		defer mu.Unlock()
		c.Observer.progress(len(pending), runningCount, len(results), total)
	}

	go func() {
		for {
			select {
			case <-progressTicker.C:
				reportProgress()
			case <-done:
				return
			}
		}
	}()

	for {
		mu.Lock()
		if len(pending) == 0 && runningCount == 0 {
			mu.Unlock()
			break
		}

		var admissible []unit.Unit
		if ctx.Err() == nil {
			admissible = c.Accountant.NextAdmissible(pending, c.Policy)
		}
		for _, u := range admissible {
			if !c.Accountant.Admit(u) {
				continue
			}
			pending = removeUnit(pending, u.ID)
			runningCount++
			c.Observer.admit(u)

			wg.Add(1)
			go func(u unit.Unit) {
				defer wg.Done()
				result := c.runOne(u, hardCancel)

				mu.Lock()
				c.Accountant.Release(u)
				runningCount--
				results = append(results, result)
				mu.Unlock()

				c.Observer.complete(result)
			}(u)
		}
		mu.Unlock()

		if len(admissible) == 0 {
			// A fixed sleep regardless of ctx's state: once cancelled,
			// ctx.Done() is already closed and would otherwise spin this
			// loop at full speed while draining the running set.
			time.Sleep(pollInterval)
		}

		mu.Lock()
		exhausted := len(pending) == 0 && runningCount == 0
		stalledAtShutdown := ctx.Err() != nil && len(pending) > 0 && runningCount == 0
		mu.Unlock()
		if exhausted || stalledAtShutdown {
			break
		}
	}

	wg.Wait()
	close(done)
	reportProgress()

	mu.Lock()
	defer mu.Unlock()
	return results
}

// runOne resolves u's cache entry if present, otherwise executes it via
// the supervisor and classifies the outcome.
func (c *Coordinator) runOne(u unit.Unit, hardCancel <-chan struct{}) UnitResult {
	started := time.Now()

	fingerprint := ""
	if c.Fingerprints != nil {
		if fp, err := c.Fingerprints.Fingerprint(u); err == nil {
			fingerprint = fp
		} else {
			slog.Warn("fingerprint computation failed, unit will not be cacheable", "unit_id", u.ID, "error", err)
		}
	}

	if fingerprint != "" && c.Cache != nil {
		if v, hit := c.Cache.Get(fingerprint); hit {
			return UnitResult{
				Unit:        u,
				State:       StateCacheHit,
				Verdict:     v,
				FromCache:   true,
				Fingerprint: fingerprint,
				Started:     started,
				Ended:       time.Now(),
			}
		}
	}

	av := c.AliasVersions[u.Alias]
	args := prover.FilterArgs(prover.BuildArgs(u), av.Version, av.Known)

	sr := c.Supervisor.Run(hardCancel, u.ExecutablePath, args, u.TimeoutS, u.MemoryGB)

	// The supervisor only reaches ReasonCancelled via hardCancel firing —
	// soft (ctx-only) cancellation never reaches its kill branch — so a
	// cancelled unit is always a hard-shutdown casualty.
	hard := sr.Reason == supervisor.ReasonCancelled

	verdict := parser.Parse(parser.Input{
		Lemma:        u.Lemma,
		Stdout:       sr.Stdout,
		Stderr:       sr.Stderr,
		ExitCode:     sr.ExitCode,
		Reason:       sr.Reason,
		HardShutdown: hard,
	})

	if fingerprint != "" && c.Cache != nil {
		if err := c.Cache.Put(fingerprint, verdict); err != nil {
			slog.Warn("failed to write cache entry", "unit_id", u.ID, "error", err)
		}
	}

	return UnitResult{
		Unit:        u,
		State:       stateForResult(sr.Reason, verdict),
		Verdict:     verdict,
		Fingerprint: fingerprint,
		Command:     append([]string{u.ExecutablePath}, args...),
		Started:     sr.StartedAt,
		Ended:       sr.EndedAt,
		Memory:      sr.Memory,
	}
}

func stateForResult(reason supervisor.Reason, v cache.Verdict) State {
	switch reason {
	case supervisor.ReasonTimeout:
		return StateTimeout
	case supervisor.ReasonMemoryLimit:
		return StateMemoryLimitExceeded
	case supervisor.ReasonCancelled:
		return StateSignalInterrupted
	}
	if v.IsSuccess() {
		return StateCompleted
	}
	return StateFailed
}

func removeUnit(units []unit.Unit, id string) []unit.Unit {
	out := units[:0:0]
	for _, u := range units {
		if u.ID != id {
			out = append(out, u)
		}
	}
	return out
}
