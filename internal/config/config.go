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

// Package config derives run parameters (buffer sizes, block size, the
// narrowest integer widths that fit a run's key and value ranges) from a
// RAM budget, and loads optional run definitions from JSON or YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"sigs.k8s.io/yaml"

	"github.com/extsais/extsais/ints"
)

const (
	mega = 1 << 20
	giga = 1 << 30

	// OptBufSize is the per-buffer byte budget used across every streamer,
	// matching the resource model's 1 MiB tunable.
	OptBufSize = mega

	// buffersPerStream is the typical number of buffers one stream uses;
	// Derive sheds buffers in steps of this size while the "3*B + 20"
	// budget exceeds the RAM budget.
	buffersPerStream = 4
)

// Run holds the parameters a run of suffix array construction needs, either
// supplied directly or derived from a RAM budget.
type Run struct {
	TextFilename string `json:"text_filename" yaml:"text_filename"`
	SAFilename   string `json:"sa_filename" yaml:"sa_filename"`
	RAMUse       int64  `json:"ram_use" yaml:"ram_use"`
	AlphabetSize int    `json:"alphabet_size,omitempty" yaml:"alphabet_size,omitempty"`
	BlockSize    int    `json:"max_block_size,omitempty" yaml:"max_block_size,omitempty"`
	RadixLog     int    `json:"radix_log,omitempty" yaml:"radix_log,omitempty"`
	SpillDir     string `json:"spill_dir,omitempty" yaml:"spill_dir,omitempty"`
}

// Load reads a Run definition from a JSON or YAML file, detected by
// extension the same way the block-format definition loader treats
// definition.json/definition.yaml interchangeably. sigs.k8s.io/yaml handles
// both: YAML is converted to JSON before unmarshalling, so one struct tag
// set serves both formats.
func Load(path string) (Run, error) {
	var r Run
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("config: reading %s: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return r, fmt.Errorf("config: unrecognized run definition extension %q", ext)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	if r.RAMUse <= 0 {
		return r, fmt.Errorf("config: ram_use must be positive")
	}
	if r.AlphabetSize == 0 {
		r.AlphabetSize = 256
	}
	return r, nil
}

// Derived holds the buffer and block sizing a run computes from its RAM
// budget.
type Derived struct {
	BlockSize   int
	NumBuffers  int
	BufferBytes int
}

// Derive computes buffer counts from a RAM budget and the number of blocks
// the text will be split into, starting from the resource model's
// "opt_buf_size = 1 MiB per buffer, 3*B + 20 buffers" formula. It leaves
// BlockSize zero; see BlockSizeForBudget.
func Derive(ramUse int64, numBlocks int) Derived {
	nBuffers := 3*numBlocks + 20
	bufferBudget := int64(nBuffers) * OptBufSize
	for bufferBudget > ramUse && nBuffers > buffersPerStream {
		nBuffers -= buffersPerStream
		bufferBudget = int64(nBuffers) * OptBufSize
	}
	return Derived{
		NumBuffers:  nBuffers,
		BufferBytes: OptBufSize,
	}
}

// BlockSizeForBudget picks a block size so that n/BlockSize blocks fit the
// RAM budgeted for per-block in-memory classification state.
func BlockSizeForBudget(n int, ramUse int64) int {
	if ramUse <= 0 || n <= 0 {
		return n
	}
	// Classification keeps roughly 3 bits of state per position (type,
	// LMS, scratch) resident for one block at a time.
	maxBlock := int(ramUse / 1) // 1 byte/position upper bound, conservative
	if maxBlock <= 0 {
		maxBlock = 1
	}
	return ints.Min(n, maxBlock)
}

// ValueWidth reports the bit width (8, 16, 32, or 64) of the narrowest
// unsigned integer type that can hold maxBlockID while leaving spareBits
// free at the top for status flags, using ints.FitsWithSpareBits against
// each candidate width in turn.
func ValueWidth(maxBlockID uint64, spareBits uint) uint {
	if ints.FitsWithSpareBits[uint8](maxBlockID, spareBits) {
		return 8
	}
	if ints.FitsWithSpareBits[uint16](maxBlockID, spareBits) {
		return 16
	}
	if ints.FitsWithSpareBits[uint32](maxBlockID, spareBits) {
		return 32
	}
	return 64
}
