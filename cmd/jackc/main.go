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

// Command jackc compiles Jack source files into VM bytecode.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"github.com/pkulev/n2t/internal/srcset"
	"github.com/pkulev/n2t/jack"
)

var description = strings.ReplaceAll(`
jackc compiles one Jack source file, or every .jack file in a directory, into
VM bytecode. Each input class file X.jack produces an X.vm file alongside it.
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("input", "A .jack source file, or a directory of them")).
	WithOption(cli.NewOption("outmode", `Output mode: "vm" (default) or "xml"`).WithChar('m').WithType(cli.TypeString)).
	WithOption(cli.NewOption("output", "The output file (default: derived from input; single-file input only)").WithChar('o').WithType(cli.TypeString)).
	WithOption(cli.NewOption("debug", "Log each compiled file to stderr").WithChar('d').WithType(cli.TypeBool)).
	WithAction(handler)

func handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: missing input file or directory, use --help")
		return 1
	}

	mode := options["outmode"]
	if mode == "" {
		mode = "vm"
	}
	if mode != "vm" && mode != "xml" {
		fmt.Fprintf(os.Stderr, "ERROR: unknown output mode %q\n", mode)
		return 1
	}
	_, debug := options["debug"]

	files, err := srcset.Collect(args[0], ".jack")
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return 1
	}

	outPath := options["output"]
	if outPath != "" && len(files) > 1 {
		fmt.Fprintln(os.Stderr, "ERROR: --output requires a single .jack file, not a directory")
		return 1
	}

	for _, file := range files {
		if debug {
			fmt.Fprintf(os.Stderr, "jackc: compiling %s\n", file)
		}
		if err := compileFile(file, mode, outPath); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
			return 1
		}
	}
	return 0
}

func compileFile(file, mode, outPath string) error {
	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()

	lexer, err := jack.NewLexer(file, src)
	if err != nil {
		return err
	}

	if outPath == "" {
		outPath = strings.TrimSuffix(file, ".jack") + "." + mode
	}
	out, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer out.Close()

	if mode == "xml" {
		return jack.CompileClassXML(lexer.Tokens(), out)
	}

	p := jack.NewParser(file, lexer.Tokens(), out)
	return p.CompileClass()
}

func main() { os.Exit(app.Run(os.Args, os.Stdout)) }
