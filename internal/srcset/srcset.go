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

// Package srcset collects the set of source files a CLI front end should
// process from a single positional path argument: either one file directly,
// or every file with a given extension in a directory.
package srcset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Collect resolves path to the list of files with the given extension
// (e.g. ".jack" or ".vm") that a translation should run over.
//
// If path is a regular file, Collect returns it unconditionally, even if
// its extension doesn't match ext: the caller asked for that file by name.
// If path is a directory, Collect returns every immediate child with that
// extension, sorted by name; it does not recurse into subdirectories,
// matching the flat, single-class-per-file layout of a Jack/VM project.
func Collect(path, ext string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", path)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read directory %s", path)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(e.Name()), ext) {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, errors.Errorf("no %s files found in %s", ext, path)
	}
	return files, nil
}

// Stem returns the base name of path with its extension removed, the name
// used both as a Jack class name and as a VM translation unit's static
// variable prefix.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// IsDir reports whether path names a directory. CLI front ends use this to
// decide whether VM-translation output should be bootstrapped.
func IsDir(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, errors.Wrapf(err, "stat %s", path)
	}
	return info.IsDir(), nil
}
