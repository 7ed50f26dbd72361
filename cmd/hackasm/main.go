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

// Command hackasm assembles Hack assembly source into the 16-bit binary
// machine code format the Hack CPU executes.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/teris-io/cli"

	"github.com/pkulev/n2t/asm"
)

var description = strings.ReplaceAll(`
hackasm assembles a single .asm file into a .hack binary: one line per
instruction, each sixteen ASCII '0'/'1' characters wide.
`, "\n", " ")

var app = cli.New(description).
	WithArg(cli.NewArg("input", "The .asm source file")).
	WithOption(cli.NewOption("output", "The output .hack file (default: derived from input)").WithChar('o').WithType(cli.TypeString)).
	WithOption(cli.NewOption("debug", "Log progress to stderr").WithChar('d').WithType(cli.TypeBool)).
	WithAction(handler)

func handler(args []string, options map[string]string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "ERROR: missing input file, use --help")
		return 1
	}
	_, debug := options["debug"]

	input := args[0]
	outPath := options["output"]
	if outPath == "" {
		outPath = strings.TrimSuffix(input, ".asm") + ".hack"
	}

	f, err := os.Open(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return 1
	}
	defer f.Close()

	if debug {
		fmt.Fprintf(os.Stderr, "hackasm: assembling %s\n", input)
	}

	code, err := asm.Assemble(input, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return 1
	}

	if err := asm.SaveHack(outPath, code); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err)
		return 1
	}

	if debug {
		fmt.Fprintf(os.Stderr, "hackasm: wrote %d instructions to %s\n", len(code), outPath)
	}
	return 0
}

func main() { os.Exit(app.Run(os.Args, os.Stdout)) }
