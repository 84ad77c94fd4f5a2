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

// Package supervisor spawns one prover invocation per schedulable unit,
// captures its streams, samples its (and its descendants') RSS at 1Hz, and
// enforces the wall-clock and memory ceilings.
//
// Cancellation is two-level: a soft Context cancellation lets a running
// child finish naturally while new units stop being admitted elsewhere in
// the pipeline; a hard Context cancellation additionally terminates the
// child, giving it a brief grace window before a forced kill.
package supervisor
