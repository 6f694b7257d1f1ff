// kestrel
// (C) 2025, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/caas-team/kestrel/pkg/checks"
)

// Writer streams reports as a YAML document stream, one document per
// report. It backs local runs without a hub.
type Writer struct {
	mu    sync.Mutex
	enc   *yaml.Encoder
	wrote bool
}

var _ Sink = (*Writer)(nil)

// NewWriter creates a writer sink emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{enc: yaml.NewEncoder(w)}
}

// Deliver encodes the reports immediately.
func (w *Writer) Deliver(_ context.Context, reports ...checks.Report) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, r := range reports {
		if err := w.enc.Encode(wrap(r)); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		w.wrote = true
	}
	return nil
}

// Close flushes the underlying encoder. Closing an encoder that never saw
// a document makes it emit a stream error, so an unused writer closes as
// a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.wrote {
		return nil
	}
	return w.enc.Close()
}
