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

	"github.com/pkg/errors"
)

// ParseError reports a syntax error, with the file name, line and the
// token the parser was looking at when it gave up.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return errors.Errorf("%s:%d: %s", e.File, e.Line, e.Msg).Error()
}

// SemanticError reports a rule violation the grammar alone can't catch:
// a Field accessed outside a method/constructor, or a void subroutine's
// result used as a value.
type SemanticError struct {
	File string
	Line int
	Msg  string
}

func (e *SemanticError) Error() string {
	return errors.Errorf("%s:%d: %s", e.File, e.Line, e.Msg).Error()
}

var binaryOps = map[string]Op{
	"+": OpAdd, "-": OpSub, "&": OpAnd, "|": OpOr,
	"<": OpLt, ">": OpGt, "=": OpEq, "*": OpMul, "/": OpDiv,
}

// Parser drives a single-pass recursive-descent compile of one Jack
// source file straight to VM instructions: there is no intermediate
// syntax tree. Each Compile* method both consumes tokens and emits code.
type Parser struct {
	file   string
	toks   []Token
	pos    int
	vmw    *VMWriter
	sym    *SymbolTable
	class  string
	labels int // running counter, reset per subroutine, makes IF/WHILE labels unique within a subroutine

	subKind string          // constructor | function | method, of the subroutine being compiled
	subName string          // name of the subroutine being compiled, for error messages
	subRet  map[string]bool // this class's own subroutine name -> isVoid, from a pre-scan
}

// NewParser returns a Parser ready to compile toks (as produced by Lexer)
// from the named source file, writing generated VM code to w.
func NewParser(file string, toks []Token, w io.Writer) *Parser {
	return &Parser{
		file: file,
		toks: toks,
		vmw:  NewVMWriter(w),
		sym:  NewSymbolTable(),
	}
}

func (p *Parser) cur() Token {
	if p.pos >= len(p.toks) {
		if len(p.toks) == 0 {
			return Token{Kind: Invalid, Line: 1}
		}
		return Token{Kind: Invalid, Line: p.toks[len(p.toks)-1].Line}
	}
	return p.toks[p.pos]
}

func (p *Parser) advance() Token {
	t := p.cur()
	p.pos++
	return t
}

func (p *Parser) errf(format string, args ...interface{}) error {
	return &ParseError{File: p.file, Line: p.cur().Line, Msg: fmt.Sprintf(format, args...)}
}

func (p *Parser) semErrf(format string, args ...interface{}) error {
	return &SemanticError{File: p.file, Line: p.cur().Line, Msg: fmt.Sprintf(format, args...)}
}

// checkFieldAccess rejects a Field reference from a function subroutine:
// a function has no receiver, so it has nothing to take p.class's fields
// from.
func (p *Parser) checkFieldAccess(sym Symbol) error {
	if sym.Kind == Field && p.subKind == "function" {
		return p.semErrf("field %q accessed from function %s.%s", sym.Name, p.class, p.subName)
	}
	return nil
}

// expect consumes the current token if it is a Symbol or Keyword matching
// text, else returns a ParseError.
func (p *Parser) expect(text string) error {
	if !p.cur().Is(text) {
		return p.errf("expected %q, got %q", text, p.cur().Text)
	}
	p.advance()
	return nil
}

func (p *Parser) expectIdent() (string, error) {
	if p.cur().Kind != Identifier {
		return "", p.errf("expected identifier, got %q", p.cur().Text)
	}
	return p.advance().Text, nil
}

func (p *Parser) newLabel(tag string) string {
	p.labels++
	return fmt.Sprintf("%s_%s_%d", p.class, tag, p.labels)
}

// prescanSubroutines walks the token stream once, ahead of codegen, to
// record each of this class's own subroutines as void or non-void. A
// single-pass compiler otherwise has no way to know a same-class
// subroutine's return type before it happens to compile that subroutine's
// body, since Jack allows calls to subroutines declared later in the file.
func (p *Parser) prescanSubroutines() map[string]bool {
	voidOf := make(map[string]bool)
	for i := 0; i+2 < len(p.toks); i++ {
		if !p.toks[i].IsAny("constructor", "function", "method") {
			continue
		}
		nameTok := p.toks[i+2]
		if nameTok.Kind != Identifier {
			continue
		}
		voidOf[nameTok.Text] = p.toks[i+1].Is("void")
	}
	return voidOf
}

// CompileClass compiles a complete "class ... { ... }" unit. It is the
// only public entry point: a Jack source file is always exactly one class.
func (p *Parser) CompileClass() error {
	p.sym.StartClass()
	if err := p.expect("class"); err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	p.class = name
	p.subRet = p.prescanSubroutines()
	if err := p.expect("{"); err != nil {
		return err
	}
	for p.cur().IsAny("static", "field") {
		if err := p.compileClassVarDec(); err != nil {
			return err
		}
	}
	for p.cur().IsAny("constructor", "function", "method") {
		if err := p.compileSubroutine(); err != nil {
			return err
		}
	}
	if err := p.expect("}"); err != nil {
		return err
	}
	return p.vmw.Err()
}

func (p *Parser) compileClassVarDec() error {
	kindTok := p.advance()
	kind := Static
	if kindTok.Text == "field" {
		kind = Field
	}
	typ, err := p.compileType()
	if err != nil {
		return err
	}
	for {
		name, err := p.expectIdent()
		if err != nil {
			return err
		}
		if _, err := p.sym.Define(name, typ, kind); err != nil {
			return p.errf("%s", err)
		}
		if p.cur().Is(",") {
			p.advance()
			continue
		}
		break
	}
	return p.expect(";")
}

func (p *Parser) compileType() (string, error) {
	t := p.cur()
	if t.IsAny("int", "char", "boolean") {
		p.advance()
		return t.Text, nil
	}
	if t.Kind == Identifier {
		p.advance()
		return t.Text, nil
	}
	return "", p.errf("expected type, got %q", t.Text)
}

func (p *Parser) compileSubroutine() error {
	p.sym.StartSubroutine()
	p.labels = 0
	kindTok := p.advance() // constructor | function | method
	p.subKind = kindTok.Text

	// return type: 'void' or a type
	if p.cur().Is("void") {
		p.advance()
	} else if _, err := p.compileType(); err != nil {
		return err
	}

	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	p.subName = name

	if kindTok.Text == "method" {
		if _, err := p.sym.Define("this", p.class, Argument); err != nil {
			return p.errf("%s", err)
		}
	}

	if err := p.expect("("); err != nil {
		return err
	}
	if err := p.compileParameterList(); err != nil {
		return err
	}
	if err := p.expect(")"); err != nil {
		return err
	}

	if err := p.expect("{"); err != nil {
		return err
	}
	for p.cur().Is("var") {
		if err := p.compileVarDec(); err != nil {
			return err
		}
	}

	nLocals := p.sym.Count(Local)
	p.vmw.Function(p.class+"."+name, nLocals)

	switch kindTok.Text {
	case "constructor":
		p.vmw.Push(SegConstant, p.sym.Count(Field))
		p.vmw.Call("Memory.alloc", 1)
		p.vmw.Pop(SegPointer, 0)
	case "method":
		p.vmw.Push(SegArgument, 0)
		p.vmw.Pop(SegPointer, 0)
	}

	if err := p.compileStatements(); err != nil {
		return err
	}
	return p.expect("}")
}

func (p *Parser) compileParameterList() error {
	if p.cur().Is(")") {
		return nil
	}
	for {
		typ, err := p.compileType()
		if err != nil {
			return err
		}
		name, err := p.expectIdent()
		if err != nil {
			return err
		}
		if _, err := p.sym.Define(name, typ, Argument); err != nil {
			return p.errf("%s", err)
		}
		if p.cur().Is(",") {
			p.advance()
			continue
		}
		break
	}
	return nil
}

func (p *Parser) compileVarDec() error {
	if err := p.expect("var"); err != nil {
		return err
	}
	typ, err := p.compileType()
	if err != nil {
		return err
	}
	for {
		name, err := p.expectIdent()
		if err != nil {
			return err
		}
		if _, err := p.sym.Define(name, typ, Local); err != nil {
			return p.errf("%s", err)
		}
		if p.cur().Is(",") {
			p.advance()
			continue
		}
		break
	}
	return p.expect(";")
}

func (p *Parser) compileStatements() error {
	for {
		switch {
		case p.cur().Is("let"):
			if err := p.compileLet(); err != nil {
				return err
			}
		case p.cur().Is("if"):
			if err := p.compileIf(); err != nil {
				return err
			}
		case p.cur().Is("while"):
			if err := p.compileWhile(); err != nil {
				return err
			}
		case p.cur().Is("do"):
			if err := p.compileDo(); err != nil {
				return err
			}
		case p.cur().Is("return"):
			if err := p.compileReturn(); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (p *Parser) compileLet() error {
	if err := p.expect("let"); err != nil {
		return err
	}
	name, err := p.expectIdent()
	if err != nil {
		return err
	}
	sym, ok := p.sym.Lookup(name)
	if !ok {
		return p.errf("undefined variable %q", name)
	}
	if err := p.checkFieldAccess(sym); err != nil {
		return err
	}

	if p.cur().Is("[") {
		// array assignment: two-temp sequence so the RHS may itself
		// reference 'that' without clobbering the target address.
		p.advance()
		if err := p.compileExpression(); err != nil {
			return err
		}
		if err := p.expect("]"); err != nil {
			return err
		}
		p.vmw.Push(segmentFor(sym.Kind), sym.Index)
		p.vmw.Arithmetic(OpAdd)

		if err := p.expect("="); err != nil {
			return err
		}
		if err := p.compileExpression(); err != nil {
			return err
		}
		if err := p.expect(";"); err != nil {
			return err
		}

		p.vmw.Pop(SegTemp, 0)
		p.vmw.Pop(SegPointer, 1)
		p.vmw.Push(SegTemp, 0)
		p.vmw.Pop(SegThat, 0)
		return nil
	}

	if err := p.expect("="); err != nil {
		return err
	}
	if err := p.compileExpression(); err != nil {
		return err
	}
	if err := p.expect(";"); err != nil {
		return err
	}
	p.vmw.Pop(segmentFor(sym.Kind), sym.Index)
	return nil
}

func (p *Parser) compileIf() error {
	if err := p.expect("if"); err != nil {
		return err
	}
	if err := p.expect("("); err != nil {
		return err
	}
	if err := p.compileExpression(); err != nil {
		return err
	}
	if err := p.expect(")"); err != nil {
		return err
	}

	elseLabel := p.newLabel("ELSE")
	endLabel := p.newLabel("ENDIF")

	p.vmw.Arithmetic(OpNot)
	p.vmw.IfGoto(elseLabel)

	if err := p.expect("{"); err != nil {
		return err
	}
	if err := p.compileStatements(); err != nil {
		return err
	}
	if err := p.expect("}"); err != nil {
		return err
	}

	hasElse := p.cur().Is("else")
	if hasElse {
		p.vmw.Goto(endLabel)
	}
	p.vmw.Label(elseLabel)

	if hasElse {
		p.advance()
		if err := p.expect("{"); err != nil {
			return err
		}
		if err := p.compileStatements(); err != nil {
			return err
		}
		if err := p.expect("}"); err != nil {
			return err
		}
		p.vmw.Label(endLabel)
	}
	return nil
}

func (p *Parser) compileWhile() error {
	if err := p.expect("while"); err != nil {
		return err
	}
	topLabel := p.newLabel("WHILE")
	endLabel := p.newLabel("ENDWHILE")

	p.vmw.Label(topLabel)

	if err := p.expect("("); err != nil {
		return err
	}
	if err := p.compileExpression(); err != nil {
		return err
	}
	if err := p.expect(")"); err != nil {
		return err
	}

	p.vmw.Arithmetic(OpNot)
	p.vmw.IfGoto(endLabel)

	if err := p.expect("{"); err != nil {
		return err
	}
	if err := p.compileStatements(); err != nil {
		return err
	}
	if err := p.expect("}"); err != nil {
		return err
	}

	p.vmw.Goto(topLabel)
	p.vmw.Label(endLabel)
	return nil
}

func (p *Parser) compileDo() error {
	if err := p.expect("do"); err != nil {
		return err
	}
	// a do statement always discards its result, so void-ness doesn't matter
	if _, err := p.compileSubroutineCall(); err != nil {
		return err
	}
	if err := p.expect(";"); err != nil {
		return err
	}
	p.vmw.Pop(SegTemp, 0) // discard the call's unused return value
	return nil
}

func (p *Parser) compileReturn() error {
	if err := p.expect("return"); err != nil {
		return err
	}
	if !p.cur().Is(";") {
		if err := p.compileExpression(); err != nil {
			return err
		}
	} else {
		p.vmw.Push(SegConstant, 0)
	}
	if err := p.expect(";"); err != nil {
		return err
	}
	p.vmw.Return()
	return nil
}

func (p *Parser) compileExpression() error {
	if err := p.compileTerm(); err != nil {
		return err
	}
	for {
		t := p.cur()
		op, ok := binaryOps[t.Text]
		if !(t.Kind == Symbol && ok) {
			break
		}
		p.advance()
		if err := p.compileTerm(); err != nil {
			return err
		}
		p.vmw.Arithmetic(op)
	}
	return nil
}

// compileSubroutineCall parses and emits "name(args)" or
// "receiver.name(args)", resolving whether the receiver is a known
// variable (method call on an object) or a class name (function/
// constructor call), per the call-resolution rule. It reports whether the
// callee is void, when that can be determined: only calls that resolve to
// a subroutine of the current class are checked, since a single-file
// compile has no symbol information for any other class.
func (p *Parser) compileSubroutineCall() (bool, error) {
	first, err := p.expectIdent()
	if err != nil {
		return false, err
	}

	callee := first
	calleeName := first // simple name, for a same-class void lookup
	sameClass := false
	nArgs := int16(0)

	if p.cur().Is(".") {
		p.advance()
		second, err := p.expectIdent()
		if err != nil {
			return false, err
		}
		calleeName = second
		if sym, ok := p.sym.Lookup(first); ok {
			// method call on a known local/field/arg/static variable
			if err := p.checkFieldAccess(sym); err != nil {
				return false, err
			}
			p.vmw.Push(segmentFor(sym.Kind), sym.Index)
			nArgs++
			callee = sym.Type + "." + second
			sameClass = sym.Type == p.class
		} else {
			// function/constructor call: 'first' is itself a class name
			callee = first + "." + second
			sameClass = first == p.class
		}
	} else {
		// unqualified call is always a method call on the current object
		p.vmw.Push(SegPointer, 0)
		nArgs++
		callee = p.class + "." + first
		sameClass = true
	}

	if err := p.expect("("); err != nil {
		return false, err
	}
	n, err := p.compileExpressionList()
	if err != nil {
		return false, err
	}
	nArgs += n
	if err := p.expect(")"); err != nil {
		return false, err
	}
	p.vmw.Call(callee, nArgs)

	isVoid := sameClass && p.subRet[calleeName]
	return isVoid, nil
}

func (p *Parser) compileExpressionList() (int16, error) {
	if p.cur().Is(")") {
		return 0, nil
	}
	var n int16
	for {
		if err := p.compileExpression(); err != nil {
			return n, err
		}
		n++
		if p.cur().Is(",") {
			p.advance()
			continue
		}
		break
	}
	return n, nil
}

func (p *Parser) compileTerm() error {
	t := p.cur()
	switch {
	case t.Kind == IntConst:
		p.advance()
		p.vmw.Push(SegConstant, t.IntValue)
		return nil

	case t.Kind == StringConst:
		p.advance()
		p.vmw.StringConstant(t.Text)
		return nil

	case t.IsAny("true", "false", "null", "this"):
		p.advance()
		switch t.Text {
		case "true":
			p.vmw.Push(SegConstant, 0)
			p.vmw.Arithmetic(OpNot)
		case "false", "null":
			p.vmw.Push(SegConstant, 0)
		case "this":
			p.vmw.Push(SegPointer, 0)
		}
		return nil

	case t.Is("("):
		p.advance()
		if err := p.compileExpression(); err != nil {
			return err
		}
		return p.expect(")")

	case t.IsAny("-", "~"):
		p.advance()
		if err := p.compileTerm(); err != nil {
			return err
		}
		if t.Text == "-" {
			p.vmw.Arithmetic(OpNeg)
		} else {
			p.vmw.Arithmetic(OpNot)
		}
		return nil

	case t.Kind == Identifier:
		// Distinguish varName, varName[expr] and a subroutine call by
		// peeking at the token after the identifier.
		if p.pos+1 < len(p.toks) {
			next := p.toks[p.pos+1]
			if next.Is("[") {
				name, _ := p.expectIdent()
				sym, ok := p.sym.Lookup(name)
				if !ok {
					return p.errf("undefined variable %q", name)
				}
				if err := p.checkFieldAccess(sym); err != nil {
					return err
				}
				p.advance() // '['
				if err := p.compileExpression(); err != nil {
					return err
				}
				if err := p.expect("]"); err != nil {
					return err
				}
				p.vmw.Push(segmentFor(sym.Kind), sym.Index)
				p.vmw.Arithmetic(OpAdd)
				p.vmw.Pop(SegPointer, 1)
				p.vmw.Push(SegThat, 0)
				return nil
			}
			if next.Is("(") || next.Is(".") {
				isVoid, err := p.compileSubroutineCall()
				if err != nil {
					return err
				}
				if isVoid {
					return p.semErrf("void subroutine result used as a value")
				}
				return nil
			}
		}
		name, _ := p.expectIdent()
		sym, ok := p.sym.Lookup(name)
		if !ok {
			return p.errf("undefined variable %q", name)
		}
		if err := p.checkFieldAccess(sym); err != nil {
			return err
		}
		p.vmw.Push(segmentFor(sym.Kind), sym.Index)
		return nil

	default:
		return p.errf("expected expression, got %q", t.Text)
	}
}
