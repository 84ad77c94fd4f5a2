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

// Package preflight implements the dry-run validator: it exercises the
// Recipe Model, Theory Lemma Extractor, and Unit Expander exactly as a
// real run would, then asks the prover to parse (not prove) each unique
// (alias, theory_file) pair, producing well-formedness diagnostics without
// ever scheduling or admitting a unit for execution.
package preflight
