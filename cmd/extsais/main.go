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

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/extsais/extsais/internal/config"
	"github.com/extsais/extsais/internal/telemetry"
	"github.com/extsais/extsais/sais"
)

var (
	dashv    bool
	dashdef  string
	dasho    string
	dashtmp  string
	dashm    int64
	dashk    int
	dashb    int
	dashkeep bool
)

const (
	mega = 1024 * 1024
	giga = 1024 * mega
)

func init() {
	flag.BoolVar(&dashv, "v", false, "verbose telemetry logging")
	flag.StringVar(&dashdef, "d", "", "run definition file (.json or .yaml); overrides -o/-m/-k/-b when set")
	flag.StringVar(&dasho, "o", "", "output suffix array filename")
	flag.StringVar(&dashtmp, "tmp", "", "directory for spilled intermediate files")
	flag.Int64Var(&dashm, "m", giga, "RAM budget in bytes")
	flag.IntVar(&dashk, "k", 256, "alphabet size")
	flag.IntVar(&dashb, "b", 0, "block size in symbols (0: derive from RAM budget)")
	flag.BoolVar(&dashkeep, "keep", false, "retain intermediate files after a failed run")
}

func exitf(f string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, f, args...)
	os.Exit(2)
}

func main() {
	flag.Parse()

	var cfg sais.Config
	if dashdef != "" {
		run, err := config.Load(dashdef)
		if err != nil {
			exitf("loading %s: %s\n", dashdef, err)
		}
		cfg = sais.Config{
			TextFilename: run.TextFilename,
			SAFilename:   run.SAFilename,
			TmpDir:       run.SpillDir,
			RAMUse:       run.RAMUse,
			AlphabetSize: run.AlphabetSize,
			BlockSize:    run.BlockSize,
			RadixLog:     run.RadixLog,
		}
	} else {
		args := flag.Args()
		if len(args) != 1 || dasho == "" {
			exitf("usage: extsais -o <sa-file> [-m ram-bytes] [-k alphabet-size] [-b block-size] <text-file>\n       extsais -d <definition.yaml>\n")
		}
		cfg = sais.Config{
			TextFilename: args[0],
			SAFilename:   dasho,
			TmpDir:       dashtmp,
			RAMUse:       dashm,
			AlphabetSize: dashk,
			BlockSize:    dashb,
		}
	}
	cfg.KeepIntermediatesOnFailure = dashkeep

	log := telemetry.New(dashv)
	err := sais.RunWithLogger(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "extsais: %s\n", err)
	}
	os.Exit(sais.ExitCode(err))
}
