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

// Package asm assembles Hack assembly source into the 16-bit binary machine
// code the Hack CPU executes, and disassembles it back.
//
// A Hack program is a sequence of two instruction types:
//
//	@value       an A-instruction: loads value (a decimal literal, a
//	             predefined symbol, a label, or a user variable) into A
//	dest=comp;jump
//	             a C-instruction: dest and jump are optional
//
// Labels are declared with "(NAME)" on their own line and do not occupy an
// address. A symbol used in an A-instruction that is neither predefined nor
// ever declared as a label is a variable: variables are allocated RAM
// addresses in order of first use, starting at 16.
package asm

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pkg/errors"
)

// Assemble assembles Hack assembly source read from r into a sequence of
// 16-bit instruction words. name is used only in error messages to
// identify the source.
func Assemble(name string, r io.Reader) ([]uint16, error) {
	p := &parser{}
	instructions, err := p.parse(name, r)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}

	st := newSymbolTable()
	resolveLabels(instructions, st)

	code := make([]uint16, 0, len(instructions))
	var asmErrs ErrAsm
	for _, ins := range instructions {
		if ins.Kind == LInstr {
			continue
		}
		word, err := encode(ins, st)
		if err != nil {
			asmErrs = append(asmErrs, struct {
				Line int
				Msg  string
			}{ins.Line, err.Error()})
			if len(asmErrs) >= maxErrors {
				break
			}
			continue
		}
		code = append(code, word)
	}
	if len(asmErrs) > 0 {
		return nil, errors.Wrap(asmErrs, name)
	}
	return code, nil
}

// symbolTable tracks label and variable addresses across both assembler
// passes, seeded with the predefined register and I/O symbols.
type symbolTable struct {
	addr   map[string]uint16
	nextRAM uint16
}

func newSymbolTable() *symbolTable {
	st := &symbolTable{addr: make(map[string]uint16, len(predefinedSymbols)), nextRAM: firstVariableAddress}
	for k, v := range predefinedSymbols {
		st.addr[k] = v
	}
	return st
}

// resolveLabels is the assembler's first pass: it walks the instruction
// stream counting only A/C instructions towards the ROM address, recording
// each label's address without emitting any code.
func resolveLabels(instructions []Instruction, st *symbolTable) {
	var pc uint16
	for _, ins := range instructions {
		if ins.Kind == LInstr {
			st.addr[ins.Label] = pc
			continue
		}
		pc++
	}
}

// resolve returns the RAM/ROM address recorded for a predefined symbol,
// label or already-allocated variable; any other name is a new variable,
// and is allocated the next free RAM slot.
func (st *symbolTable) resolve(name string) (uint16, error) {
	if addr, ok := st.addr[name]; ok {
		return addr, nil
	}
	if st.nextRAM > maxAddress {
		return 0, errors.Errorf("variable %q: out of RAM address space", name)
	}
	addr := st.nextRAM
	st.addr[name] = addr
	st.nextRAM++
	return addr, nil
}

// encode is the assembler's second pass for a single instruction: resolve
// any symbol and render the fixed 16-bit encoding.
func encode(ins Instruction, st *symbolTable) (uint16, error) {
	switch ins.Kind {
	case AInstr:
		return encodeA(ins.Symbol, st)
	case CInstr:
		return encodeC(ins)
	default:
		return 0, errors.Errorf("unexpected instruction kind %v", ins.Kind)
	}
}

func encodeA(symbol string, st *symbolTable) (uint16, error) {
	if n, err := strconv.ParseUint(symbol, 10, 16); err == nil {
		if n > maxAddress {
			return 0, errors.Errorf("address %d exceeds 15-bit range", n)
		}
		return uint16(n), nil
	}
	addr, err := st.resolve(symbol)
	if err != nil {
		return 0, err
	}
	return addr, nil
}

// encodeC renders a C-instruction as "111" followed by the a/comp, dest and
// jump bit fields, per the fixed Hack encoding.
func encodeC(ins Instruction) (uint16, error) {
	comp, ok := compTable[ins.Comp]
	if !ok {
		return 0, errors.Errorf("unknown comp mnemonic %q", ins.Comp)
	}
	dest, ok := destTable[ins.Dest]
	if !ok {
		return 0, errors.Errorf("unknown dest mnemonic %q", ins.Dest)
	}
	jump, ok := jumpTable[ins.Jump]
	if !ok {
		return 0, errors.Errorf("unknown jump mnemonic %q", ins.Jump)
	}
	const cPrefix = 0b111 << 13
	return cPrefix | comp<<6 | dest<<3 | jump, nil
}

var (
	compByBits = invertTable(compTable)
	destByBits = invertTable(destTable)
	jumpByBits = invertTable(jumpTable)
)

func invertTable(t map[string]uint16) map[uint16]string {
	r := make(map[uint16]string, len(t))
	for k, v := range t {
		r[v] = k
	}
	return r
}

// Disassemble renders a single encoded instruction word as Hack assembly
// mnemonic text, with no trailing newline. It is the exact inverse of
// Assemble for a single word, except that symbolic A-instruction names are
// unrecoverable: addresses are rendered as decimal literals.
func Disassemble(word uint16, w io.Writer) error {
	if word&(1<<15) == 0 {
		_, err := fmt.Fprintf(w, "@%d", word)
		return err
	}
	comp := compByBits[(word>>6)&0x7f]
	dest := destByBits[(word>>3)&0x7]
	jump := jumpByBits[word&0x7]

	var s string
	if dest != "" {
		s += dest + "="
	}
	s += comp
	if jump != "" {
		s += ";" + jump
	}
	_, err := io.WriteString(w, s)
	return err
}

// SaveHack writes code to path as the canonical .hack text format: one
// 16-bit instruction per line, each rendered as sixteen ASCII '0'/'1'
// characters. The destination file is removed if writing fails partway
// through, so a failed assembly never leaves a truncated .hack file behind.
func SaveHack(path string, code []uint16) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create output file")
	}
	defer func() {
		cerr := f.Close()
		if err != nil {
			os.Remove(path)
			return
		}
		err = cerr
	}()

	bw := bufio.NewWriter(f)
	for _, word := range code {
		for bit := 15; bit >= 0; bit-- {
			if word&(1<<uint(bit)) != 0 {
				bw.WriteByte('1')
			} else {
				bw.WriteByte('0')
			}
		}
		bw.WriteByte('\n')
	}
	if err = bw.Flush(); err != nil {
		return errors.Wrap(err, "flush output file")
	}
	return nil
}
