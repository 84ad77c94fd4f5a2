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

// Package parser turns a completed pkg/supervisor.Result into a
// pkg/cache.Verdict. Parse is total: no combination of stdout, stderr,
// exit code, or termination reason causes it to panic or return an error;
// unrecognized output degrades to an empty Succeeded verdict or a Failed
// verdict with ErrorKind Unknown.
package parser
