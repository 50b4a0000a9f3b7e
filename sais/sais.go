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

package sais

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/extsais/extsais/internal/block"
	"github.com/extsais/extsais/internal/config"
	"github.com/extsais/extsais/internal/telemetry"
)

// Config controls one run of external-memory suffix array construction.
type Config struct {
	TextFilename string
	SAFilename   string
	TmpDir       string
	RAMUse       int64
	AlphabetSize int
	BlockSize    int
	RadixLog     int

	// Recurser resolves the sorted order of LMS-suffixes for the reduced
	// string produced by naming; when nil, Run uses SaisCoreRecurser.
	Recurser Recurser

	// KeepIntermediatesOnFailure retains intermediate files for
	// inspection when a run fails; they are always unlinked on success.
	KeepIntermediatesOnFailure bool
}

// runID generates the random filename prefix every intermediate file in a
// run shares, so concurrent runs sharing TmpDir never collide.
func runID() string {
	return uuid.NewString()
}

func validate(cfg Config) error {
	if cfg.TextFilename == "" {
		return fatal(Precondition, "text_filename must be set")
	}
	if cfg.SAFilename == "" {
		return fatal(Precondition, "sa_filename must be set")
	}
	if cfg.RAMUse <= 0 {
		return fatal(Precondition, "ram_use must be positive")
	}
	if cfg.RadixLog <= 0 {
		cfg.RadixLog = 8
	}
	return nil
}

// Plan captures the sizing decisions derived from a Config before any I/O
// happens: block size, block count, and the radix-heap value width needed
// to address every block with two spare flag bits.
type Plan struct {
	BlockSize  int
	NumBlocks  int
	ValueWidth uint
	RunID      string
}

// BuildPlan derives a Plan from cfg and the text length, validating the
// width precondition up front per the fail-fast error handling design.
func BuildPlan(cfg Config, textLen int64) (Plan, error) {
	if err := validate(cfg); err != nil {
		return Plan{}, err
	}
	blockSize := cfg.BlockSize
	if blockSize <= 0 {
		blockSize = config.BlockSizeForBudget(int(textLen), cfg.RAMUse)
	}
	if blockSize <= 0 {
		return Plan{}, fatal(Precondition, "max_block_size must be positive")
	}
	numBlocks := block.BlockCount(int(textLen), blockSize)
	if numBlocks == 0 {
		numBlocks = 1
	}
	width := config.ValueWidth(uint64(numBlocks-1), 2)
	if err := validateWidth(width, numBlocks); err != nil {
		return Plan{}, err
	}
	return Plan{
		BlockSize:  blockSize,
		NumBlocks:  numBlocks,
		ValueWidth: width,
		RunID:      runID(),
	}, nil
}

// cleanup removes every intermediate file matching the run's prefix inside
// dir, honoring the retain-on-failure policy: callers pass keep=true only
// when the run failed and the caller asked to retain intermediates.
func cleanup(dir, prefix string, keep bool) {
	if keep {
		return
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		name := e.Name()
		if len(name) >= len(prefix) && name[:len(prefix)] == prefix {
			os.Remove(dir + string(os.PathSeparator) + name)
		}
	}
}

// Run executes one full suffix array construction over a byte-alphabet text
// and writes the result to cfg.SAFilename as little-endian uint32 text
// positions. It returns a *FatalError on any unrecoverable condition;
// callers typically pass the result straight to ExitCode.
//
// The text is read into memory once up front. When cfg.TmpDir is set and
// the text has at least two symbols, the sort runs through runExternal,
// which drives the block classifier and the radix-heap-backed LMS-substring
// inductor from internal/block and internal/induce; otherwise saisCore sorts
// the text directly. On both paths, reduced strings whose names collide go
// to cfg.Recurser, SaisCoreRecurser by default.
func Run(cfg Config) error {
	return RunWithLogger(cfg, telemetry.New(false))
}

// RunWithLogger is Run with an explicit logger, letting a caller (such as a
// CLI with a -verbose flag) control verbosity and sink.
func RunWithLogger(cfg Config, log *slog.Logger) (runErr error) {
	if err := validate(cfg); err != nil {
		return err
	}

	readPhase := telemetry.StartPhase(log, "read_text", "file", cfg.TextFilename)
	text, err := os.ReadFile(cfg.TextFilename)
	if err != nil {
		return fatal(IO, "reading %s: %w", cfg.TextFilename, err)
	}
	readPhase.Done("bytes", len(text))

	plan, err := BuildPlan(cfg, int64(len(text)))
	if err != nil {
		return err
	}
	log.Info("plan", "block_size", plan.BlockSize, "num_blocks", plan.NumBlocks,
		"value_width", plan.ValueWidth, "run_id", plan.RunID)

	defer func() {
		if cfg.TmpDir == "" {
			return
		}
		cleanup(cfg.TmpDir, plan.RunID, runErr != nil && cfg.KeepIntermediatesOnFailure)
	}()

	sigma := cfg.AlphabetSize
	if sigma == 0 {
		sigma = 256
	}

	symbols := make([]int32, len(text))
	maxSeen := 0
	for i, b := range text {
		symbols[i] = int32(b)
		if int(b) > maxSeen {
			maxSeen = int(b)
		}
	}
	if maxSeen >= sigma {
		return fatal(Precondition, "symbol %d exceeds configured alphabet size %d", maxSeen, sigma)
	}
	// The plus-star/minus-star predecessor push uses maxChar-(c+1) as a key,
	// which silently wraps if some position's symbol equals the alphabet's
	// maximum value and that position opens an LMS-substring; the shift
	// applied in saisCore (every real symbol moves up by one, freeing 0 for
	// the sentinel) guarantees the true maximum symbol here is sigma-1 and
	// never collides with the sentinel, but the +1 trick itself additionally
	// assumes the alphabet's true maximum symbol never *starts* an
	// LMS-substring. Assert the precondition that makes that assumption safe
	// for the induction packages driven by this run's Plan.
	if maxSeen == sigma-1 {
		if i, ok := findLMSStartAtMax(symbols, int32(maxSeen)); ok {
			return fatal(Precondition, "alphabet maximum symbol %d starts an LMS-substring at position %d, violating the +1 offset assumption", maxSeen, i)
		}
	}

	recurser := cfg.Recurser
	if recurser == nil {
		recurser = SaisCoreRecurser{}
	}

	var sa []int32
	if len(symbols) >= 2 && cfg.TmpDir != "" {
		inducePhase := telemetry.StartPhase(log, "induce_and_name", "mode", "external")
		sa, err = runExternal(symbols, sigma, plan, cfg, recurser.Sort, log)
		if err != nil {
			return err
		}
		inducePhase.Done("sa_len", len(sa))
	} else {
		inducePhase := telemetry.StartPhase(log, "induce_and_name", "mode", "in_memory")
		sa, err = saisCore(symbols, sigma, recurser.Sort)
		if err != nil {
			return err
		}
		inducePhase.Done("sa_len", len(sa))
	}

	writePhase := telemetry.StartPhase(log, "write_sa", "file", cfg.SAFilename)
	out, err := os.OpenFile(cfg.SAFilename, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fatal(IO, "creating %s: %w", cfg.SAFilename, err)
	}
	defer out.Close()
	buf := make([]byte, 4*len(sa))
	for i, v := range sa {
		le := uint32(v)
		buf[4*i] = byte(le)
		buf[4*i+1] = byte(le >> 8)
		buf[4*i+2] = byte(le >> 16)
		buf[4*i+3] = byte(le >> 24)
	}
	if _, err := out.Write(buf); err != nil {
		return fatal(IO, "writing %s: %w", cfg.SAFilename, err)
	}
	writePhase.Done("bytes", len(buf))

	return nil
}

// findLMSStartAtMax scans symbols once, typing every position backward
// (S-type if its suffix is smaller than its successor's, L-type otherwise;
// the final position is taken as S-type here, whereas block.Classify types
// it L, which cannot change the answer since a trailing run of max symbols
// is never preceded by an L-type position), and reports the first position
// equal to max that opens an LMS-substring (S-type with an L-type
// predecessor). The +1 offset
// trick used by the plus/minus inductors assumes no such position exists.
func findLMSStartAtMax(symbols []int32, max int32) (int, bool) {
	n := len(symbols)
	if n == 0 {
		return 0, false
	}
	isS := make([]bool, n)
	isS[n-1] = true
	for i := n - 2; i >= 0; i-- {
		switch {
		case symbols[i] < symbols[i+1]:
			isS[i] = true
		case symbols[i] > symbols[i+1]:
			isS[i] = false
		default:
			isS[i] = isS[i+1]
		}
	}
	for i := 1; i < n; i++ {
		if symbols[i] == max && isS[i] && !isS[i-1] {
			return i, true
		}
	}
	return 0, false
}

func intermediatePath(tmpDir, runID, label string) string {
	return fmt.Sprintf("%s/%s-%s", tmpDir, runID, label)
}
