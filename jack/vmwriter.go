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
	"fmt"
	"io"

	"github.com/pkulev/n2t/internal/errio"
)

// Segment names the eight VM memory segments a push/pop can target.
type Segment string

const (
	SegConstant Segment = "constant"
	SegArgument Segment = "argument"
	SegLocal    Segment = "local"
	SegStatic   Segment = "static"
	SegThis     Segment = "this"
	SegThat     Segment = "that"
	SegPointer  Segment = "pointer"
	SegTemp     Segment = "temp"
)

// segmentFor maps a symbol's storage kind to the VM segment used to access
// it.
func segmentFor(kind SymbolKind) Segment {
	switch kind {
	case Static:
		return SegStatic
	case Argument:
		return SegArgument
	case Local:
		return SegLocal
	case Field:
		return SegThis
	default:
		panic(fmt.Sprintf("jack: unhandled symbol kind %v", kind))
	}
}

// Op is a VM arithmetic/logical mnemonic.
type Op string

const (
	OpAdd Op = "add"
	OpSub Op = "sub"
	OpNeg Op = "neg"
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpLt  Op = "lt"
	OpAnd Op = "and"
	OpOr  Op = "or"
	OpNot Op = "not"
	OpMul Op = "*"
	OpDiv Op = "/"
)

// VMWriter emits one VM instruction per line to its underlying writer. It
// is the Jack compiler's only connection to its output: Compile calls these
// methods during the parse, never building an intermediate AST.
type VMWriter struct {
	w *errio.Writer
}

// NewVMWriter wraps w for VM instruction emission.
func NewVMWriter(w io.Writer) *VMWriter {
	return &VMWriter{w: errio.New(w)}
}

func (v *VMWriter) line(s string) {
	v.w.WriteString(s)
	v.w.WriteString("\n")
}

// Push emits "push segment index".
func (v *VMWriter) Push(seg Segment, index int16) {
	v.line(fmt.Sprintf("push %s %d", seg, index))
}

// Pop emits "pop segment index".
func (v *VMWriter) Pop(seg Segment, index int16) {
	v.line(fmt.Sprintf("pop %s %d", seg, index))
}

// Arithmetic emits a unary or binary arithmetic/logical instruction,
// lowering OpMul and OpDiv to Math.multiply/Math.divide calls since the
// Hack VM has no native multiply or divide instruction.
func (v *VMWriter) Arithmetic(op Op) {
	switch op {
	case OpMul:
		v.Call("Math.multiply", 2)
	case OpDiv:
		v.Call("Math.divide", 2)
	default:
		v.line(string(op))
	}
}

// Label emits "label name".
func (v *VMWriter) Label(name string) { v.line("label " + name) }

// Goto emits "goto name".
func (v *VMWriter) Goto(name string) { v.line("goto " + name) }

// IfGoto emits "if-goto name".
func (v *VMWriter) IfGoto(name string) { v.line("if-goto " + name) }

// Call emits "call name nArgs".
func (v *VMWriter) Call(name string, nArgs int16) {
	v.line(fmt.Sprintf("call %s %d", name, nArgs))
}

// Function emits "function name nLocals".
func (v *VMWriter) Function(name string, nLocals int16) {
	v.line(fmt.Sprintf("function %s %d", name, nLocals))
}

// Return emits "return".
func (v *VMWriter) Return() { v.line("return") }

// StringConstant emits the push-and-append sequence that builds a Jack
// String object at runtime: push its length, call String.new, then
// appendChar once per rune.
func (v *VMWriter) StringConstant(s string) {
	runes := []rune(s)
	v.Push(SegConstant, int16(len(runes)))
	v.Call("String.new", 1)
	for _, c := range runes {
		v.Push(SegConstant, int16(c))
		v.Call("String.appendChar", 2)
	}
}

// Err returns the first write error encountered, if any.
func (v *VMWriter) Err() error { return v.w.Err }
