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

package jack

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) []string {
	t.Helper()
	l, err := NewLexer("test.jack", strings.NewReader(src))
	require.NoError(t, err)

	var buf bytes.Buffer
	p := NewParser("test.jack", l.Tokens(), &buf)
	require.NoError(t, p.CompileClass())

	var lines []string
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func TestCompileConstructor(t *testing.T) {
	lines := compile(t, `
		class Point {
			field int x, y;
			constructor Point new(int ax, int ay) {
				let x = ax;
				let y = ay;
				return this;
			}
		}
	`)
	require.NotEmpty(t, lines)
	assert.Equal(t, "function Point.new 0", lines[0])
	assert.Contains(t, lines, "push constant 2")
	assert.Contains(t, lines, "call Memory.alloc 1")
	assert.Contains(t, lines, "pop pointer 0")
	assert.Contains(t, lines, "push pointer 0")
	assert.Equal(t, "return", lines[len(lines)-1])
}

func TestCompileWhileEmitsBothLabelsEvenWithEmptyBody(t *testing.T) {
	lines := compile(t, `
		class Main {
			function void run() {
				while (false) {
				}
				return;
			}
		}
	`)
	var labels []string
	for _, l := range lines {
		if strings.HasPrefix(l, "label ") {
			labels = append(labels, l)
		}
	}
	require.Len(t, labels, 2)
	assert.Contains(t, labels[0], "WHILE")
	assert.Contains(t, labels[1], "ENDWHILE")
}

func TestCompileIfWithoutElseEmitsNoEndLabel(t *testing.T) {
	lines := compile(t, `
		class Main {
			function void run() {
				if (true) {
					do Main.run();
				}
				return;
			}
		}
	`)
	var labels []string
	for _, l := range lines {
		if strings.HasPrefix(l, "label ") {
			labels = append(labels, l)
		}
	}
	require.Len(t, labels, 1)
	assert.Contains(t, labels[0], "ELSE")
}

func TestCompileMethodVsFunctionCall(t *testing.T) {
	lines := compile(t, `
		class Main {
			function void run() {
				var Point p;
				do p.move();
				do Main.helper();
				return;
			}

			function void helper() {
				return;
			}
		}
	`)
	assert.Contains(t, lines, "push local 0")
	assert.Contains(t, lines, "call Point.move 1")
	assert.Contains(t, lines, "call Main.helper 0")
}

func TestCompileEmptyStringLiteral(t *testing.T) {
	lines := compile(t, `
		class Main {
			function void run() {
				do Output.printString("");
				return;
			}
		}
	`)
	assert.Contains(t, lines, "push constant 0")
	assert.Contains(t, lines, "call String.new 1")
}

func TestCompileArrayLetTwoTempSequence(t *testing.T) {
	lines := compile(t, `
		class Main {
			function void run() {
				var Array a;
				let a[0] = 5;
				return;
			}
		}
	`)
	idx := indexOf(lines, "pop temp 0")
	require.GreaterOrEqual(t, idx, 0)
	assert.Equal(t, "pop pointer 1", lines[idx+1])
	assert.Equal(t, "push temp 0", lines[idx+2])
	assert.Equal(t, "pop that 0", lines[idx+3])
}

func indexOf(lines []string, s string) int {
	for i, l := range lines {
		if l == s {
			return i
		}
	}
	return -1
}

func TestCompileUndefinedVariableIsError(t *testing.T) {
	l, err := NewLexer("test.jack", strings.NewReader(`
		class Main {
			function void run() {
				let z = 1;
				return;
			}
		}
	`))
	require.NoError(t, err)
	var buf bytes.Buffer
	p := NewParser("test.jack", l.Tokens(), &buf)
	assert.Error(t, p.CompileClass())
}

func TestCompileMultiplyAndDivideLowerToMathCalls(t *testing.T) {
	lines := compile(t, `
		class Main {
			function void run() {
				var int a;
				let a = 2 * 3;
				let a = a / 2;
				return;
			}
		}
	`)
	assert.Contains(t, lines, "call Math.multiply 2")
	assert.Contains(t, lines, "call Math.divide 2")
}

func TestCompileFieldAccessFromFunctionIsSemanticError(t *testing.T) {
	l, err := NewLexer("test.jack", strings.NewReader(`
		class Point {
			field int x;
			function void reset() {
				let x = 0;
				return;
			}
		}
	`))
	require.NoError(t, err)
	var buf bytes.Buffer
	p := NewParser("test.jack", l.Tokens(), &buf)
	err = p.CompileClass()
	require.Error(t, err)
	var semErr *SemanticError
	require.ErrorAs(t, err, &semErr)
}

func TestCompileVoidResultUsedAsValueIsSemanticError(t *testing.T) {
	l, err := NewLexer("test.jack", strings.NewReader(`
		class Main {
			function void run() {
				var int a;
				let a = Main.helper();
				return;
			}

			function void helper() {
				return;
			}
		}
	`))
	require.NoError(t, err)
	var buf bytes.Buffer
	p := NewParser("test.jack", l.Tokens(), &buf)
	err = p.CompileClass()
	require.Error(t, err)
	var semErr *SemanticError
	require.ErrorAs(t, err, &semErr)
}

func TestCompileMethodFieldAccessIsAllowed(t *testing.T) {
	lines := compile(t, `
		class Point {
			field int x;
			method void reset() {
				let x = 0;
				return;
			}
		}
	`)
	assert.Contains(t, lines, "pop this 0")
}
