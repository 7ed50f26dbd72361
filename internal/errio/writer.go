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

// Package errio provides a sticky-error io.Writer, used by the Jack
// compiler's VM and XML writers to emit one line per instruction or element
// without checking err after every single Write call.
package errio

import (
	"io"

	"github.com/pkg/errors"
)

// Writer wraps an io.Writer and remembers the first error it hits. Once Err
// is set, Write becomes a no-op that keeps returning that same error.
type Writer struct {
	w   io.Writer
	Err error
}

func (w *Writer) Write(p []byte) (n int, err error) {
	if w.Err != nil {
		return 0, w.Err
	}
	n, err = w.w.Write(p)
	if err != nil {
		w.Err = errors.Wrap(err, "write failed")
	}
	return n, w.Err
}

// WriteString is a convenience wrapper around Write for the common case of
// emitting a textual instruction line.
func (w *Writer) WriteString(s string) {
	io.WriteString(w, s)
}

// New wraps w in a sticky-error Writer.
func New(w io.Writer) *Writer {
	return &Writer{w: w}
}
