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

package vm

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

var segmentBase = map[Segment]string{
	Local:    "LCL",
	Argument: "ARG",
	This:     "THIS",
	That:     "THAT",
}

// bootstrapASM is unconditionally prepended ahead of a multi-file
// translation, per the directory-input convention: it sets SP to 256.
// Translate follows it with a regular call to Sys.init.
const bootstrapASM = "@256\nD=A\n@SP\nM=D\n"

// Translator lowers a sequence of VM Instructions into Hack assembly text.
// It carries state across the whole program (not just one file): the
// comparison-label counter and the call-site counter must stay globally
// unique, and the current function name qualifies every local label.
type Translator struct {
	cmpCounter  int
	callCounter int
	fn          string // current function, for label qualification
	out         strings.Builder
	bootstrap   bool
	debug       bool
}

// NewTranslator returns a Translator. If bootstrap is true, the emitted
// assembly is prefixed with the standard SP-init-and-call-Sys.init sequence,
// as done when translating a whole directory of .vm files. If debug is
// true, every VM instruction is rendered as a "// " comment line ahead of
// the assembly it lowers to.
func NewTranslator(bootstrap, debug bool) *Translator {
	return &Translator{bootstrap: bootstrap, debug: debug}
}

func (t *Translator) emit(lines ...string) {
	for _, l := range lines {
		t.out.WriteString(l)
		t.out.WriteByte('\n')
	}
}

// Translate lowers every instruction in program, in order, and returns the
// resulting assembly source text.
func (t *Translator) Translate(program []Instruction) (string, error) {
	if t.bootstrap {
		t.out.WriteString(bootstrapASM)
		t.call("Sys.init", 0)
	}
	for _, ins := range program {
		if t.debug {
			t.emit("// " + ins.String())
		}
		if err := t.translateOne(ins); err != nil {
			return "", err
		}
	}
	return t.out.String(), nil
}

func (t *Translator) translateOne(ins Instruction) error {
	switch ins.Kind {
	case KindArithmetic:
		return t.arithmetic(ins.Arith)
	case KindMemory:
		return t.memory(ins)
	case KindLabel:
		t.emit(fmt.Sprintf("(%s)", t.qualify(ins.Label)))
		return nil
	case KindGoto:
		t.emit(fmt.Sprintf("@%s", t.qualify(ins.Label)), "0;JMP")
		return nil
	case KindIfGoto:
		t.emit("@SP", "AM=M-1", "D=M", fmt.Sprintf("@%s", t.qualify(ins.Label)), "D;JNE")
		return nil
	case KindFunction:
		t.fn = ins.Name
		t.emit(fmt.Sprintf("(%s)", ins.Name))
		for i := uint16(0); i < ins.NLocals; i++ {
			t.emit("@SP", "M=M+1", "A=M-1", "M=0")
		}
		return nil
	case KindCall:
		t.call(ins.Name, ins.NArgs)
		return nil
	case KindReturn:
		t.ret()
		return nil
	default:
		return errors.Errorf("vm: unhandled instruction kind %v", ins.Kind)
	}
}

// qualify returns a function-local label's globally unique assembly name.
// Labels declared inside a function are only visible within it, so they are
// prefixed with the owning function's name; this also keeps same-named
// labels in different functions from colliding.
func (t *Translator) qualify(label string) string {
	if t.fn == "" {
		return label
	}
	return t.fn + "$" + label
}

func (t *Translator) arithmetic(op ArithOp) error {
	switch op {
	case Add:
		t.binary("M=M+D")
	case Sub:
		t.binary("M=M-D")
	case And:
		t.binary("M=D&M")
	case Or:
		t.binary("M=D|M")
	case Neg:
		t.unary("M=-M")
	case Not:
		t.unary("M=!M")
	case Eq:
		t.compare("JEQ")
	case Gt:
		t.compare("JGT")
	case Lt:
		t.compare("JLT")
	default:
		return errors.Errorf("vm: unknown arithmetic op %q", op)
	}
	return nil
}

// binary pops y then x, leaving the result of applying comp (which may
// reference D=y and M=x) on top of the stack.
func (t *Translator) binary(comp string) {
	t.emit("@SP", "AM=M-1", "D=M", "A=A-1", comp)
}

func (t *Translator) unary(comp string) {
	t.emit("@SP", "A=M-1", comp)
}

func (t *Translator) compare(jump string) {
	t.cmpCounter++
	trueLabel := fmt.Sprintf("CMP_TRUE_%d", t.cmpCounter)
	endLabel := fmt.Sprintf("CMP_END_%d", t.cmpCounter)
	t.emit(
		"@SP", "AM=M-1", "D=M", "A=A-1", "D=M-D",
		"@"+trueLabel, "D;"+jump,
		"@SP", "A=M-1", "M=0",
		"@"+endLabel, "0;JMP",
		"("+trueLabel+")",
		"@SP", "A=M-1", "M=-1",
		"("+endLabel+")",
	)
}

func (t *Translator) memory(ins Instruction) error {
	if ins.Cmd == Push {
		return t.push(ins)
	}
	return t.pop(ins)
}

func (t *Translator) push(ins Instruction) error {
	switch ins.Segment {
	case Constant:
		t.emit(fmt.Sprintf("@%d", ins.Index), "D=A")
	case Local, Argument, This, That:
		t.emit(fmt.Sprintf("@%s", segmentBase[ins.Segment]), "D=M", fmt.Sprintf("@%d", ins.Index), "A=D+A", "D=M")
	case Static:
		t.emit(fmt.Sprintf("@%s.%d", t.staticFile(ins), ins.Index), "D=M")
	case Temp:
		t.emit(fmt.Sprintf("@%d", 5+ins.Index), "D=M")
	case Pointer:
		t.emit(fmt.Sprintf("@%s", pointerTarget(ins.Index)), "D=M")
	default:
		return errors.Errorf("vm: unknown segment %q", ins.Segment)
	}
	t.emit("@SP", "M=M+1", "A=M-1", "M=D")
	return nil
}

func (t *Translator) pop(ins Instruction) error {
	switch ins.Segment {
	case Constant:
		return errors.New("vm: cannot pop to the constant segment")
	case Local, Argument, This, That:
		t.emit(
			fmt.Sprintf("@%s", segmentBase[ins.Segment]), "D=M", fmt.Sprintf("@%d", ins.Index), "D=D+A",
			"@R13", "M=D",
			"@SP", "AM=M-1", "D=M",
			"@R13", "A=M", "M=D",
		)
	case Static:
		t.emit("@SP", "AM=M-1", "D=M", fmt.Sprintf("@%s.%d", t.staticFile(ins), ins.Index), "M=D")
	case Temp:
		t.emit("@SP", "AM=M-1", "D=M", fmt.Sprintf("@%d", 5+ins.Index), "M=D")
	case Pointer:
		t.emit("@SP", "AM=M-1", "D=M", fmt.Sprintf("@%s", pointerTarget(ins.Index)), "M=D")
	default:
		return errors.Errorf("vm: unknown segment %q", ins.Segment)
	}
	return nil
}

func (t *Translator) staticFile(ins Instruction) string {
	if ins.File != "" {
		return ins.File
	}
	return "static"
}

func pointerTarget(index uint16) string {
	if index == 0 {
		return "THIS"
	}
	return "THAT"
}

// call emits the standard 5-word call frame: push the return address and
// the caller's LCL/ARG/THIS/THAT, reposition ARG and LCL for the callee,
// jump to it, then declare the return-address label.
func (t *Translator) call(name string, nArgs uint16) {
	t.callCounter++
	ret := fmt.Sprintf("%s$ret.%d", name, t.callCounter)

	t.emit(fmt.Sprintf("@%s", ret), "D=A", "@SP", "M=M+1", "A=M-1", "M=D")
	for _, reg := range []string{"LCL", "ARG", "THIS", "THAT"} {
		t.emit(fmt.Sprintf("@%s", reg), "D=M", "@SP", "M=M+1", "A=M-1", "M=D")
	}
	t.emit(
		"@SP", "D=M", fmt.Sprintf("@%d", nArgs+5), "D=D-A", "@ARG", "M=D",
		"@SP", "D=M", "@LCL", "M=D",
		fmt.Sprintf("@%s", name), "0;JMP",
		"("+ret+")",
	)
}

// ret emits the standard return sequence, restoring the caller's segment
// pointers from the call frame and jumping back to the return address.
func (t *Translator) ret() {
	t.emit(
		"@LCL", "D=M", "@R13", "M=D", // FRAME = R13 = LCL
		"@5", "A=D-A", "D=M", "@R14", "M=D", // RET = R14 = *(FRAME-5)
		"@SP", "AM=M-1", "D=M", "@ARG", "A=M", "M=D", // *ARG = pop()
		"@ARG", "D=M+1", "@SP", "M=D", // SP = ARG+1
	)
	for _, reg := range []string{"THAT", "THIS", "ARG", "LCL"} {
		t.emit("@R13", "AM=M-1", "D=M", fmt.Sprintf("@%s", reg), "M=D")
	}
	t.emit("@R14", "A=M", "0;JMP")
}
