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

// Package prover builds the argument vector for a single prover invocation
// (§6.2) and applies the version compatibility filter that elides
// --output-json/--output-dot for provers reporting a version ≤1.10.
//
// BuildArgs, BuildPreflightArgs and FilterArgs are pure functions shared by
// pkg/scheduler (full proof runs) and pkg/preflight (parse-only dry runs);
// neither package constructs an argument vector directly.
package prover
