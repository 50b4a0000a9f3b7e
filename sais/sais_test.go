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
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

func writeTempText(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func readSAFile(t *testing.T, path string) []uint32 {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if len(raw)%4 != 0 {
		t.Fatalf("sa file size %d not a multiple of 4", len(raw))
	}
	out := make([]uint32, len(raw)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return out
}

func TestRunProducesExpectedSuffixArray(t *testing.T) {
	dir := t.TempDir()
	textPath := writeTempText(t, dir, "text.bin", "mississippi")
	saPath := filepath.Join(dir, "sa.bin")

	cfg := Config{
		TextFilename: textPath,
		SAFilename:   saPath,
		RAMUse:       1 << 20,
	}
	if err := Run(cfg); err != nil {
		t.Fatalf("Run: %v", err)
	}

	got := readSAFile(t, saPath)
	want := []uint32{10, 7, 4, 1, 0, 9, 8, 6, 3, 5, 2}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestRunRejectsMissingTextFilename(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		SAFilename: filepath.Join(dir, "sa.bin"),
		RAMUse:     1 << 20,
	}
	if err := Run(cfg); err == nil {
		t.Fatal("expected error for missing text_filename")
	} else if ExitCode(err) != 2 {
		t.Fatalf("expected precondition exit code 2, got %d", ExitCode(err))
	}
}

func TestRunRejectsMissingTextFile(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		TextFilename: filepath.Join(dir, "does-not-exist.bin"),
		SAFilename:   filepath.Join(dir, "sa.bin"),
		RAMUse:       1 << 20,
	}
	err := Run(cfg)
	if err == nil {
		t.Fatal("expected error for missing text file")
	}
	if ExitCode(err) != 3 {
		t.Fatalf("expected io exit code 3, got %d", ExitCode(err))
	}
}

func TestCleanupRemovesOnlyMatchingPrefix(t *testing.T) {
	dir := t.TempDir()
	mustTouch := func(name string) {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0600); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	mustTouch("run-a-plus_pos")
	mustTouch("run-a-minus_pos")
	mustTouch("run-b-plus_pos")

	cleanup(dir, "run-a-", false)

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "run-b-plus_pos" {
		t.Fatalf("expected only run-b-plus_pos to survive, found %v", entries)
	}
}

func TestCleanupKeepsEverythingWhenRetaining(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "run-a-plus_pos"), []byte("x"), 0600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	cleanup(dir, "run-a-", true)
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected file retained, found %v", entries)
	}
}

func TestBuildPlanRejectsZeroRAMUse(t *testing.T) {
	cfg := Config{TextFilename: "t", SAFilename: "s", RAMUse: 0}
	if _, err := BuildPlan(cfg, 100); err == nil {
		t.Fatal("expected error for zero ram_use")
	}
}

func TestBuildPlanDerivesBlockCount(t *testing.T) {
	cfg := Config{TextFilename: "t", SAFilename: "s", RAMUse: 1 << 20, BlockSize: 4}
	plan, err := BuildPlan(cfg, 10)
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	if plan.NumBlocks != 3 {
		t.Fatalf("expected 3 blocks for n=10 block_size=4, got %d", plan.NumBlocks)
	}
	if plan.ValueWidth < 8 {
		t.Fatalf("expected at least 8-bit value width, got %d", plan.ValueWidth)
	}
}
