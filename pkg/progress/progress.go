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

// Package progress renders the scheduler's 3-second progress tick as a
// terse, single-line, colorized status on stderr. It is purely cosmetic:
// the scheduler core never depends on this package, it only calls the
// scheduler.Observer.OnProgress hook this package provides.
package progress

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/NVIDIA/tamarin-batch/pkg/scheduler"
)

// Reporter prints one line per progress tick to out. Color is auto-
// disabled when out is not a terminal.
type Reporter struct {
	out      io.Writer
	colorize bool
}

// NewReporter returns a Reporter writing to stderr, with color enabled
// only when stderr is attached to a TTY.
func NewReporter() *Reporter {
	return &Reporter{
		out:      os.Stderr,
		colorize: isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()),
	}
}

// Observer returns a scheduler.Observer whose OnProgress prints through r.
func (r *Reporter) Observer() scheduler.Observer {
	return scheduler.Observer{OnProgress: r.print}
}

func (r *Reporter) print(pending, running, completed, total int) {
	line := fmt.Sprintf("[%d/%d done] %d running, %d pending", completed, total, running, pending)
	if !r.colorize {
		fmt.Fprintln(r.out, line)
		return
	}
	c := color.New(color.FgCyan)
	c.Fprintln(r.out, line)
}
