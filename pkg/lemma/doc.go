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

// Package lemma discovers the lemma names actually present in a theory file,
// honoring the theory's preprocessor conditionals.
//
// A theory source is a stream of Tamarin declarations interleaved with
// #define/#ifdef/#else/#endif preprocessor directives. Extract walks the
// source honoring those directives against a supplied flag seed (the task's
// preprocessor_flags — lemma-level flag overrides would change the matched
// universe and are deliberately not consulted here, per the owning task's
// contract) and returns the lemma names declared in active branches, in
// source order.
//
// Five lemma kinds are recognized: lemma, diff_lemma, accountability_lemma,
// equiv_lemma, and diff_equiv_lemma. The last two are frequently declared
// without an explicit name; those receive a synthetic name of the form
// "<kind>_line_<n>".
//
// A preprocessor failure (an unterminated #ifdef, an unmatched #else or
// #endif, an unparseable #ifdef condition) is reported as a *ParseError
// naming the file and the offending line; text that does not match a lemma
// declaration is skipped rather than reported. Callers
// scope this failure to the owning task rather than aborting the batch.
package lemma
