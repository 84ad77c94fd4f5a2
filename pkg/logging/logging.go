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

package logging

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// ParseLevel converts a case-insensitive level name into an slog.Level.
// Unrecognized names fall back to slog.LevelInfo.
func ParseLevel(level string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// levelFromEnv resolves LOG_LEVEL, defaulting to INFO when unset.
func levelFromEnv() slog.Level {
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		return ParseLevel(v)
	}
	return slog.LevelInfo
}

// NewStructuredLogger builds an slog.Logger that writes JSON to stderr,
// tagging every record with module/version context. When the level is DEBUG,
// every record also carries its source location. An empty level string
// defers to LOG_LEVEL, then INFO.
func NewStructuredLogger(module, version, level string) *slog.Logger {
	lvl := levelFromEnv()
	if level != "" {
		lvl = ParseLevel(level)
	}
	return newStructuredLoggerAt(os.Stderr, module, version, lvl)
}

func newStructuredLoggerAt(w io.Writer, module, version string, lvl slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:     lvl,
		AddSource: lvl <= slog.LevelDebug,
	})
	return slog.New(handler).With("module", module, "version", version)
}

// SetDefaultStructuredLogger installs a structured logger as the slog default,
// taking its level from LOG_LEVEL (INFO if unset).
func SetDefaultStructuredLogger(module, version string) {
	slog.SetDefault(NewStructuredLogger(module, version, ""))
}

// SetDefaultStructuredLoggerWithLevel installs a structured logger as the
// slog default at an explicit level, overriding LOG_LEVEL.
func SetDefaultStructuredLoggerWithLevel(module, version, level string) {
	slog.SetDefault(NewStructuredLogger(module, version, level))
}

// NewLogLogger adapts the default slog logger to the standard library's
// log.Logger, for code paths (third-party libraries, cobra's error writer)
// that only accept a *log.Logger. includeTime controls whether the adapter
// itself timestamps lines in addition to slog's own timestamp field.
func NewLogLogger(level slog.Level, includeTime bool) *log.Logger {
	logger := slog.NewLogLogger(slog.Default().Handler(), level)
	if !includeTime {
		logger.SetFlags(0)
	}
	return logger
}

// With returns a child logger under slog.Default annotated with the given
// key/value pairs, a convenience used by components that want a stable
// sub-logger (e.g. one per unit) rather than repeating fields on every call.
func With(args ...any) *slog.Logger {
	return slog.Default().With(args...)
}

// WithContext is a no-op today (no context-carried fields are defined yet)
// but exists so call sites can thread a context through logging calls
// uniformly, matching the slog.InfoContext family of functions.
func WithContext(ctx context.Context, args ...any) *slog.Logger {
	_ = ctx
	return With(args...)
}
