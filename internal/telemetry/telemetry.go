// Copyright (C) 2026 The extsais Authors.
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package telemetry provides the structured, per-phase logging and I/O
// volume accounting used across a run's classification and induction
// phases.
package telemetry

import (
	"log/slog"
	"os"
	"sync/atomic"
	"time"
)

// New returns a slog.Logger writing leveled, structured text to os.Stderr,
// the default sink for a command-line run.
func New(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Phase logs the start and completion of one labeled stage of a run, and
// reports its wall-clock duration on completion.
type Phase struct {
	log   *slog.Logger
	name  string
	start time.Time
}

// StartPhase logs entry into a phase and returns a handle to close it.
func StartPhase(log *slog.Logger, name string, attrs ...any) *Phase {
	log.Info("phase start", append([]any{"phase", name}, attrs...)...)
	return &Phase{log: log, name: name, start: time.Now()}
}

// Done logs phase completion along with its duration and any trailing
// attributes (e.g. io_volume, block_count).
func (p *Phase) Done(attrs ...any) {
	elapsed := time.Since(p.start)
	p.log.Info("phase done", append([]any{"phase", p.name, "elapsed", elapsed}, attrs...)...)
}

// IOCounter accumulates bytes moved across goroutines without a lock,
// aggregating the per-stream and per-heap io_volume figures the resource
// model calls for.
type IOCounter struct {
	n atomic.Uint64
}

// Add records n additional bytes moved.
func (c *IOCounter) Add(n uint64) {
	c.n.Add(n)
}

// Total returns the accumulated byte count.
func (c *IOCounter) Total() uint64 {
	return c.n.Load()
}
