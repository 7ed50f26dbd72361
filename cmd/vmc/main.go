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

// Command vmc translates VM bytecode into Hack assembly.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"github.com/pkulev/n2t/internal/srcset"
	"github.com/pkulev/n2t/vm"
)

var description = strings.ReplaceAll(`
vmc translates one VM file, or every .vm file in a directory, into a single
Hack assembly program. When the input is a directory, the standard SP-init
and call-Sys.init bootstrap sequence is always prepended, matching a
multi-class program with a defined entry point.
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("input", "A .vm file, or a directory of them")).
	WithOption(cli.NewOption("output", "The output .asm file (default: derived from input)").WithChar('o').WithType(cli.TypeString)).
	WithOption(cli.NewOption("debug", "Log each translated file to stderr and annotate the .asm output with a comment line per VM instruction").WithChar('d').WithType(cli.TypeBool)).
	WithAction(handler)

func handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: missing input file or directory, use --help")
		return 1
	}
	_, debug := options["debug"]

	isDir, err := srcset.IsDir(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return 1
	}

	files, err := srcset.Collect(args[0], ".vm")
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return 1
	}

	var program []vm.Instruction
	for _, file := range files {
		if debug {
			fmt.Fprintf(os.Stderr, "vmc: parsing %s\n", file)
		}
		unit, err := parseFile(file)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			return 1
		}
		program = append(program, unit...)
	}

	outPath := options["output"]
	if outPath == "" {
		outPath = deriveOutputPath(args[0], isDir)
	}

	asmText, err := vm.NewTranslator(isDir, debug).Translate(program)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return 1
	}

	if err := os.WriteFile(outPath, []byte(asmText), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: unable to write %s: %s\n", outPath, err)
		return 1
	}
	return 0
}

func parseFile(file string) ([]vm.Instruction, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return vm.ParseUnit(srcset.Stem(file), f)
}

// deriveOutputPath mirrors the conventional nand2tetris naming: a single
// file Foo.vm translates to Foo.asm; a directory translates to
// <dirname>.asm inside itself.
func deriveOutputPath(input string, isDir bool) string {
	if !isDir {
		return strings.TrimSuffix(input, ".vm") + ".asm"
	}
	trimmed := strings.TrimRight(input, "/")
	return trimmed + "/" + srcset.Stem(trimmed) + ".asm"
}

func main() { os.Exit(app.Run(os.Args, os.Stdout)) }
