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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolTableIndexAssignment(t *testing.T) {
	st := NewSymbolTable()

	_, err := st.Define("x", "int", Field)
	require.NoError(t, err)
	_, err = st.Define("y", "int", Field)
	require.NoError(t, err)
	_, err = st.Define("count", "int", Static)
	require.NoError(t, err)

	sym, ok := st.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, int16(1), sym.Index)
	assert.Equal(t, Field, sym.Kind)

	sym, ok = st.Lookup("count")
	require.True(t, ok)
	assert.Equal(t, int16(0), sym.Index)
}

func TestSymbolTableSubroutineScopeShadowsClassScope(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.Define("x", "int", Field)
	require.NoError(t, err)

	st.StartSubroutine()
	_, err = st.Define("x", "boolean", Argument)
	require.NoError(t, err)

	sym, ok := st.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, Argument, sym.Kind)
	assert.Equal(t, "boolean", sym.Type)
}

func TestSymbolTableStartSubroutineDropsOnlyLocalScope(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.Define("field1", "int", Field)
	require.NoError(t, err)

	st.StartSubroutine()
	_, err = st.Define("arg1", "int", Argument)
	require.NoError(t, err)

	st.StartSubroutine()
	_, ok := st.Lookup("arg1")
	assert.False(t, ok)
	_, ok = st.Lookup("field1")
	assert.True(t, ok)
}

func TestSymbolTableRedefinitionIsError(t *testing.T) {
	st := NewSymbolTable()
	_, err := st.Define("x", "int", Local)
	require.NoError(t, err)
	_, err = st.Define("x", "int", Local)
	assert.Error(t, err)
}

func TestSymbolTableCount(t *testing.T) {
	st := NewSymbolTable()
	assert.Equal(t, int16(0), st.Count(Argument))
	_, err := st.Define("a", "int", Argument)
	require.NoError(t, err)
	_, err = st.Define("b", "int", Argument)
	require.NoError(t, err)
	assert.Equal(t, int16(2), st.Count(Argument))
}
