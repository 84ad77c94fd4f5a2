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

package unit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// FingerprintComputer builds a Unit's cache fingerprint. OpenTheory and
// StatExecutable are overridable for testing; NewFingerprintComputer wires
// the real filesystem.
type FingerprintComputer struct {
	OpenTheory    func(path string) (io.ReadCloser, error)
	StatExecutable func(path string) (mtime string, size int64, err error)
}

// NewFingerprintComputer returns a FingerprintComputer backed by the real
// filesystem.
func NewFingerprintComputer() *FingerprintComputer {
	return &FingerprintComputer{
		OpenTheory: func(path string) (io.ReadCloser, error) { return os.Open(path) },
		StatExecutable: func(path string) (string, int64, error) {
			info, err := os.Stat(path)
			if err != nil {
				return "", 0, err
			}
			return strconv.FormatInt(info.ModTime().UnixNano(), 10), info.Size(), nil
		},
	}
}

// Fingerprint computes the hex-encoded SHA-256 cache key for u, hashing the
// theory file contents, the executable's identity (path, mtime, size), the
// lemma name, sorted options and preprocessor flags, and the resolved
// resource triple, in that order (§4.D).
func (c *FingerprintComputer) Fingerprint(u Unit) (string, error) {
	theoryHash, err := c.hashTheory(u.TheoryFile)
	if err != nil {
		return "", fmt.Errorf("fingerprint: theory file %q: %w", u.TheoryFile, err)
	}

	mtime, size, err := c.StatExecutable(u.ExecutablePath)
	if err != nil {
		return "", fmt.Errorf("fingerprint: executable %q: %w", u.ExecutablePath, err)
	}
	exeHash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", u.ExecutablePath, mtime, size)))

	parts := []string{
		theoryHash,
		hex.EncodeToString(exeHash[:]),
		u.Lemma,
		sortedJoin(u.Options),
		sortedJoin(u.PreprocessorFlags),
		strconv.Itoa(u.Cores),
		strconv.Itoa(u.MemoryGB),
		strconv.Itoa(u.TimeoutS),
	}
	key := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return hex.EncodeToString(key[:]), nil
}

func (c *FingerprintComputer) hashTheory(path string) (string, error) {
	f, err := c.OpenTheory(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, 64*1024)
	if _, err := io.CopyBuffer(h, f, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func sortedJoin(items []string) string {
	if len(items) == 0 {
		return ""
	}
	cp := make([]string, len(items))
	copy(cp, items)
	sort.Strings(cp)
	return strings.Join(cp, ",")
}
