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
	"io"
	"strconv"

	"github.com/pkg/errors"
	pc "github.com/prataprc/goparsec"
)

// Grammar for one translation unit of VM text:
//
//	module     := (comment | operation)*
//	operation  := memoryOp | arithmeticOp | labelDecl | gotoOp
//	            | funcDecl | funcCall | returnOp
//	memoryOp   := ("push"|"pop") segment INT
//	arithmeticOp := "add"|"sub"|"neg"|"eq"|"gt"|"lt"|"and"|"or"|"not"
//	labelDecl  := "label" IDENT
//	gotoOp     := ("goto"|"if-goto") IDENT
//	funcDecl   := "function" IDENT INT
//	funcCall   := "call" IDENT INT
//	returnOp   := "return"
var ast = pc.NewAST("vm_unit", 0)

var (
	pModule = ast.ManyUntil("module", nil, ast.OrdChoice("node", nil, pComment, pOperation), pc.End())

	pComment = ast.And("comment", nil, pc.Atom("//", "//"), pc.Token(`(?m).*$`, "COMMENT"))

	pOperation = ast.OrdChoice("operation", nil,
		pMemoryOp, pArithmeticOp, pLabelDecl, pGotoOp,
		pFuncDecl, pFuncCall, pReturnOp,
	)

	pMemoryOp     = ast.And("memory_op", nil, pMemCmd, pSegmentTok, pc.Int())
	pArithmeticOp = ast.And("arithmetic_op", nil, pArithTok)

	pLabelDecl = ast.And("label_decl", nil, pc.Atom("label", "LABEL"), pIdent)
	pGotoOp    = ast.And("goto_op", nil, pJumpTok, pIdent)

	pFuncDecl = ast.And("func_decl", nil, pc.Atom("function", "FUNC"), pIdent, pc.Int())
	pFuncCall = ast.And("func_call", nil, pc.Atom("call", "CALL"), pIdent, pc.Int())
	pReturnOp = ast.And("return_op", nil, pc.Atom("return", "RETURN"))
)

var (
	pIdent = pc.Token(`[A-Za-z_.$:][0-9a-zA-Z_.$:]*`, "IDENT")

	pMemCmd = ast.OrdChoice("mem_cmd", nil, pc.Atom("push", "PUSH"), pc.Atom("pop", "POP"))

	pSegmentTok = ast.OrdChoice("segment", nil,
		pc.Atom("argument", "ARGUMENT"), pc.Atom("local", "LOCAL"),
		pc.Atom("static", "STATIC"), pc.Atom("constant", "CONSTANT"),
		pc.Atom("this", "THIS"), pc.Atom("that", "THAT"),
		pc.Atom("temp", "TEMP"), pc.Atom("pointer", "POINTER"),
	)

	pArithTok = ast.OrdChoice("arith", nil,
		pc.Atom("add", "ADD"), pc.Atom("sub", "SUB"), pc.Atom("neg", "NEG"),
		pc.Atom("eq", "EQ"), pc.Atom("gt", "GT"), pc.Atom("lt", "LT"),
		pc.Atom("and", "AND"), pc.Atom("or", "OR"), pc.Atom("not", "NOT"),
	)

	pJumpTok = ast.OrdChoice("jump", nil, pc.Atom("goto", "GOTO"), pc.Atom("if-goto", "IF-GOTO"))
)

// ParseUnit parses one .vm translation unit from r, tagging every produced
// Instruction with the given file name for later static-variable scoping.
func ParseUnit(file string, r io.Reader) ([]Instruction, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read vm source")
	}

	// Parsewith returns the remaining Scanner alongside the AST root; the
	// grammar's own ManyUntil(..., pc.End()) already enforces that parsing
	// consumes the whole input, so only the root node matters here.
	root, _ := ast.Parsewith(pModule, pc.NewScanner(src))
	if root == nil {
		return nil, errors.Errorf("%s: failed to parse VM source", file)
	}

	var unit []Instruction
	for _, child := range root.GetChildren() {
		switch child.GetName() {
		case "comment":
			continue
		case "memory_op":
			ins, err := memoryOpFrom(child)
			if err != nil {
				return nil, errors.Wrapf(err, "%s", file)
			}
			ins.File = file
			unit = append(unit, ins)
		case "arithmetic_op":
			unit = append(unit, Instruction{Kind: KindArithmetic, Arith: ArithOp(child.GetChildren()[0].GetValue()), File: file})
		case "label_decl":
			unit = append(unit, Instruction{Kind: KindLabel, Label: child.GetChildren()[1].GetValue(), File: file})
		case "goto_op":
			kind := KindGoto
			if child.GetChildren()[0].GetValue() == "if-goto" {
				kind = KindIfGoto
			}
			unit = append(unit, Instruction{Kind: kind, Label: child.GetChildren()[1].GetValue(), File: file})
		case "func_decl":
			n, err := parseUint(child.GetChildren()[2].GetValue())
			if err != nil {
				return nil, errors.Wrapf(err, "%s: function nLocals", file)
			}
			unit = append(unit, Instruction{Kind: KindFunction, Name: child.GetChildren()[1].GetValue(), NLocals: n, File: file})
		case "func_call":
			n, err := parseUint(child.GetChildren()[2].GetValue())
			if err != nil {
				return nil, errors.Wrapf(err, "%s: call nArgs", file)
			}
			unit = append(unit, Instruction{Kind: KindCall, Name: child.GetChildren()[1].GetValue(), NArgs: n, File: file})
		case "return_op":
			unit = append(unit, Instruction{Kind: KindReturn, File: file})
		default:
			return nil, errors.Errorf("%s: unrecognized node %q", file, child.GetName())
		}
	}
	return unit, nil
}

func memoryOpFrom(node pc.Queryable) (Instruction, error) {
	children := node.GetChildren()
	if len(children) != 3 {
		return Instruction{}, errors.Errorf("malformed memory operation")
	}
	idx, err := parseUint(children[2].GetValue())
	if err != nil {
		return Instruction{}, errors.Wrap(err, "memory operation index")
	}
	return Instruction{
		Kind:    KindMemory,
		Cmd:     MemCmd(children[0].GetValue()),
		Segment: Segment(children[1].GetValue()),
		Index:   idx,
	}, nil
}

func parseUint(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid integer %q", s)
	}
	return uint16(n), nil
}
