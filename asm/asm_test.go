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

package asm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleLiteralAInstruction(t *testing.T) {
	code, err := Assemble("t.asm", strings.NewReader("@21\n"))
	require.NoError(t, err)
	require.Len(t, code, 1)
	assert.Equal(t, uint16(21), code[0])
}

func TestAssembleCInstructionEncoding(t *testing.T) {
	code, err := Assemble("t.asm", strings.NewReader("D=M+1;JGT\n"))
	require.NoError(t, err)
	require.Len(t, code, 1)
	// 111 a=1(M) comp=M+1(110111) dest=D(010) jump=JGT(001)
	assert.Equal(t, uint16(0b1111110111010001), code[0])
}

func TestAssemblePredefinedSymbol(t *testing.T) {
	code, err := Assemble("t.asm", strings.NewReader("@SCREEN\n@KBD\n@SP\n"))
	require.NoError(t, err)
	require.Len(t, code, 3)
	assert.Equal(t, uint16(16384), code[0])
	assert.Equal(t, uint16(24576), code[1])
	assert.Equal(t, uint16(0), code[2])
}

func TestAssembleLabelDoesNotOccupyAnAddress(t *testing.T) {
	src := "(LOOP)\n@LOOP\n0;JMP\n"
	code, err := Assemble("t.asm", strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, code, 2)
	assert.Equal(t, uint16(0), code[0]) // LOOP resolves to address 0
}

func TestAssembleVariableAllocationStartsAt16(t *testing.T) {
	src := "@foo\n@bar\n@foo\n"
	code, err := Assemble("t.asm", strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, code, 3)
	assert.Equal(t, uint16(16), code[0])
	assert.Equal(t, uint16(17), code[1])
	assert.Equal(t, uint16(16), code[2]) // second use of foo reuses its address
}

func TestAssembleStripsCommentsAndBlankLines(t *testing.T) {
	src := "// header comment\n\n@1 // trailing comment\n\nD=A\n"
	code, err := Assemble("t.asm", strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, code, 2)
}

func TestAssembleUnknownMnemonicIsError(t *testing.T) {
	_, err := Assemble("t.asm", strings.NewReader("D=Q\n"))
	require.Error(t, err)
	var asmErr ErrAsm
	require.ErrorAs(t, err, &asmErr)
}

func TestDisassembleRoundTrip(t *testing.T) {
	code, err := Assemble("t.asm", strings.NewReader("D=M+1;JGT\n"))
	require.NoError(t, err)

	var buf strings.Builder
	require.NoError(t, Disassemble(code[0], &buf))
	assert.Equal(t, "D=M+1;JGT", buf.String())
}

func TestDisassembleAInstruction(t *testing.T) {
	var buf strings.Builder
	require.NoError(t, Disassemble(21, &buf))
	assert.Equal(t, "@21", buf.String())
}
