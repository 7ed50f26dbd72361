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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lex(t *testing.T, src string) []Token {
	t.Helper()
	l, err := NewLexer("test.jack", strings.NewReader(src))
	require.NoError(t, err)
	return l.Tokens()
}

func TestLexerKeywordsAndSymbols(t *testing.T) {
	toks := lex(t, "class Main { }")
	require.Len(t, toks, 4)
	assert.Equal(t, Keyword, toks[0].Kind)
	assert.Equal(t, "class", toks[0].Text)
	assert.Equal(t, Identifier, toks[1].Kind)
	assert.Equal(t, "Main", toks[1].Text)
	assert.Equal(t, Symbol, toks[2].Kind)
	assert.Equal(t, "{", toks[2].Text)
}

func TestLexerIntegerBoundary(t *testing.T) {
	toks := lex(t, "32767")
	require.Len(t, toks, 1)
	assert.Equal(t, int16(32767), toks[0].IntValue)

	_, err := NewLexer("test.jack", strings.NewReader("32768"))
	require.Error(t, err)
}

func TestLexerEmptyStringLiteral(t *testing.T) {
	toks := lex(t, `""`)
	require.Len(t, toks, 1)
	assert.Equal(t, StringConst, toks[0].Kind)
	assert.Equal(t, "", toks[0].Text)
}

func TestLexerStripsLineAndBlockComments(t *testing.T) {
	toks := lex(t, "let x = 1; // a comment\n/* a\nblock */ let y = 2;")
	var kw []string
	for _, tok := range toks {
		if tok.Kind == Keyword {
			kw = append(kw, tok.Text)
		}
	}
	assert.Equal(t, []string{"let", "let"}, kw)
}

func TestLexerCommentMarkerInsideStringIsPreserved(t *testing.T) {
	toks := lex(t, `"not // a comment"`)
	require.Len(t, toks, 1)
	assert.Equal(t, "not // a comment", toks[0].Text)
}

func TestLexerUnterminatedBlockComment(t *testing.T) {
	_, err := NewLexer("test.jack", strings.NewReader("/* never closed"))
	require.Error(t, err)
}
