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

import "github.com/pkg/errors"

// SymbolTable holds the two nested scopes live during Jack compilation:
// class scope (Static/Field) and subroutine scope (Argument/Local). Lookup
// tries subroutine scope first, then class scope.
type SymbolTable struct {
	class      map[string]Symbol
	subroutine map[string]Symbol
}

// NewSymbolTable returns an empty table.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		class:      make(map[string]Symbol),
		subroutine: make(map[string]Symbol),
	}
}

// StartSubroutine drops the subroutine scope, ready for a new subroutine.
// Class scope is left untouched.
func (t *SymbolTable) StartSubroutine() {
	t.subroutine = make(map[string]Symbol)
}

// StartClass drops both scopes, ready for a new class.
func (t *SymbolTable) StartClass() {
	t.class = make(map[string]Symbol)
	t.subroutine = make(map[string]Symbol)
}

func scopeOf(kind SymbolKind) bool {
	// true => class scope, false => subroutine scope
	return kind == Static || kind == Field
}

// Define declares name with the given type and kind, assigning it the next
// free index for that (scope, kind) pair. Redefining a name already present
// in the target scope is an error.
func (t *SymbolTable) Define(name, typ string, kind SymbolKind) (Symbol, error) {
	scope := t.subroutine
	if scopeOf(kind) {
		scope = t.class
	}
	if _, ok := scope[name]; ok {
		return Symbol{}, errors.Errorf("redefinition of %q in the same scope", name)
	}
	sym := Symbol{Name: name, Type: typ, Kind: kind, Index: t.Count(kind)}
	scope[name] = sym
	return sym, nil
}

// Count returns the number of symbols already declared with the given kind
// in its scope, i.e. the index the next declaration of that kind would get.
func (t *SymbolTable) Count(kind SymbolKind) int16 {
	scope := t.subroutine
	if scopeOf(kind) {
		scope = t.class
	}
	var n int16
	for _, s := range scope {
		if s.Kind == kind {
			n++
		}
	}
	return n
}

// Lookup resolves name, trying subroutine scope before class scope.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	if s, ok := t.subroutine[name]; ok {
		return s, true
	}
	if s, ok := t.class[name]; ok {
		return s, true
	}
	return Symbol{}, false
}
