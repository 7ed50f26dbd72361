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

package srcset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectSingleFileIgnoresExtension(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "Main.jack")
	require.NoError(t, os.WriteFile(f, []byte("class Main {}"), 0o644))

	files, err := Collect(f, ".vm")
	require.NoError(t, err)
	assert.Equal(t, []string{f}, files)
}

func TestCollectDirectoryFiltersByExtensionAndSorts(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Zeta.jack"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Alpha.jack"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	files, err := Collect(dir, ".jack")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, filepath.Join(dir, "Alpha.jack"), files[0])
	assert.Equal(t, filepath.Join(dir, "Zeta.jack"), files[1])
}

func TestCollectEmptyDirectoryIsError(t *testing.T) {
	dir := t.TempDir()
	_, err := Collect(dir, ".jack")
	assert.Error(t, err)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "Main", Stem("/a/b/Main.jack"))
	assert.Equal(t, "Main", Stem("Main.vm"))
}
