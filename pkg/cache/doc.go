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

// Package cache is the content-addressed result cache: a persistent,
// size-bounded key-value store mapping a unit's fingerprint (see
// pkg/unit.FingerprintComputer) to its last Succeeded Verdict.
//
// Store is backed by LevelDB (goleveldb). Entries are admitted in arrival
// order and evicted oldest-first once the store's approximate on-disk size
// exceeds its configured budget (≈2GB by default). Lookups are advisory:
// any I/O or decode failure is logged at debug level and reported to the
// caller as a miss, never as an error.
package cache
