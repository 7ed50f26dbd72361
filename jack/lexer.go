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

// Package jack implements the Jack lexer, recursive-descent parser and
// VM code generator.
package jack

import (
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// LexError reports a tokenization failure, with the file name, line number
// and offending lexeme.
type LexError struct {
	File   string
	Line   int
	Lexeme string
	Msg    string
}

func (e *LexError) Error() string {
	return errors.Errorf("%s:%d: %s: %q", e.File, e.Line, e.Msg, e.Lexeme).Error()
}

func lexErr(file string, line int, lexeme, msg string) error {
	return &LexError{File: file, Line: line, Lexeme: lexeme, Msg: msg}
}

// commentState is the state of the single stateful scan used to strip line
// and block comments while leaving string literals untouched.
type commentState int

const (
	csNormal commentState = iota
	csSlash               // just saw a single '/'
	csLine                // inside a // comment
	csBlock               // inside a /* */ comment
	csBlockStar           // inside a /* */ comment, just saw '*'
	csString              // inside a "..." string literal
)

// stripComments removes // line comments and /* */ block comments from src,
// replacing their bodies with nothing while preserving every newline so
// that line numbers computed over the result still match the original
// source. A '//' or '/*' that appears inside a string literal is left
// untouched, per the Jack lexer's "preserve strings" invariant.
func stripComments(file string, src []byte) (string, error) {
	var out []byte
	state := csNormal
	line := 1
	// The csSlash state holds back a lone '/' so it can be emitted
	// verbatim if it turns out not to start a comment.
	for i := 0; i < len(src); i++ {
		c := src[i]
		if c == '\n' {
			line++
		}
		switch state {
		case csNormal:
			switch c {
			case '/':
				state = csSlash
			case '"':
				state = csString
				out = append(out, c)
			default:
				out = append(out, c)
			}
		case csSlash:
			switch c {
			case '/':
				state = csLine
			case '*':
				state = csBlock
			default:
				out = append(out, '/', c)
				state = csNormal
			}
		case csLine:
			if c == '\n' {
				out = append(out, '\n')
				state = csNormal
			}
			// everything else in the comment body is dropped
		case csBlock:
			if c == '\n' {
				out = append(out, '\n')
			}
			if c == '*' {
				state = csBlockStar
			}
		case csBlockStar:
			switch c {
			case '/':
				state = csNormal
			case '\n':
				out = append(out, '\n')
				state = csBlock
			case '*':
				// stay in csBlockStar
			default:
				state = csBlock
			}
		case csString:
			out = append(out, c)
			if c == '\n' {
				return "", lexErr(file, line, "", "unterminated string literal")
			}
			if c == '"' {
				state = csNormal
			}
		}
	}
	switch state {
	case csSlash:
		out = append(out, '/')
	case csBlock, csBlockStar:
		return "", lexErr(file, line, "", "unterminated block comment")
	case csString:
		return "", lexErr(file, line, "", "unterminated string literal")
	}
	return string(out), nil
}

// Lexer tokenizes Jack source text. It fully materializes the token
// sequence up front: the parser owns a single forward cursor over the
// result.
type Lexer struct {
	file   string
	tokens []Token
}

// NewLexer reads all of r, strips comments and tokenizes the result.
func NewLexer(file string, r io.Reader) (*Lexer, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "read source")
	}
	filtered, err := stripComments(file, src)
	if err != nil {
		return nil, err
	}
	toks, err := tokenize(file, filtered)
	if err != nil {
		return nil, err
	}
	return &Lexer{file: file, tokens: toks}, nil
}

// Tokens returns the full materialized token sequence.
func (l *Lexer) Tokens() []Token { return l.tokens }

func tokenize(file, src string) ([]Token, error) {
	runes := []rune(src)
	var toks []Token
	line := 1
	n := len(runes)
	for i := 0; i < n; {
		c := runes[i]
		switch {
		case c == '\n':
			line++
			i++
		case c == ' ' || c == '\t' || c == '\r':
			i++
		case c == '"':
			start := i + 1
			j := start
			for j < n && runes[j] != '"' {
				if runes[j] == '\n' {
					return nil, lexErr(file, line, string(runes[start:j]), "unterminated string constant")
				}
				j++
			}
			if j >= n {
				return nil, lexErr(file, line, string(runes[start:j]), "unterminated string constant")
			}
			toks = append(toks, Token{Kind: StringConst, Text: string(runes[start:j]), Line: line})
			i = j + 1
		case isDigit(c):
			j := i
			for j < n && isDigit(runes[j]) {
				j++
			}
			lexeme := string(runes[i:j])
			v, err := strconv.Atoi(lexeme)
			if err != nil || v > maxIntConst || v < 0 {
				return nil, lexErr(file, line, lexeme, "integer constant out of range")
			}
			toks = append(toks, Token{Kind: IntConst, Text: lexeme, IntValue: int16(v), Line: line})
			i = j
		case isIdentStart(c):
			j := i
			for j < n && isIdentCont(runes[j]) {
				j++
			}
			lexeme := string(runes[i:j])
			kind := Identifier
			if keywords[lexeme] {
				kind = Keyword
			}
			toks = append(toks, Token{Kind: kind, Text: lexeme, Line: line})
			i = j
		case isSymbolRune(c):
			toks = append(toks, Token{Kind: Symbol, Text: string(c), Line: line})
			i++
		default:
			return nil, lexErr(file, line, string(c), "unexpected character")
		}
	}
	return toks, nil
}
