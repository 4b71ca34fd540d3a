// Copyright 2025 Ian Lewis
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package testutil

import (
	"fmt"
	"iter"
	"os"
	"sync"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/plugin"
)

// Fault injects failures into a memory plugin. Positions are 1-based and
// zero disables the fault.
type Fault struct {
	// OpenReader is returned by the reader's Open.
	OpenReader error

	// ReadAt and ReadErr make the reader yield ReadErr in place of the
	// ReadAt-th item.
	ReadAt  int
	ReadErr error

	// OpenWriter is returned by the writer's Open.
	OpenWriter error

	// AcceptAt and AcceptErr make the writer fail on the AcceptAt-th item.
	AcceptAt  int
	AcceptErr error

	// PanicAt makes the writer panic on the PanicAt-th item.
	PanicAt int

	// End is returned by the writer's End.
	End error
}

// Sink records what a memory writer received.
type Sink struct {
	mu sync.Mutex

	Path     string
	Items    []entry.Item
	Began    int
	Ended    int
	Finished int
}

// Snapshot returns the received items.
func (s *Sink) Snapshot() []entry.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entry.Item(nil), s.Items...)
}

// MemoryPlugin returns a format that reads items and writes to sink. Either
// may be nil to make the format write-only or read-only. The reader requires
// its input file to exist. The writer creates an empty output file.
func MemoryPlugin(name, ext string, policy plugin.SortPolicy, items []entry.Item, sink *Sink, fault *Fault) *plugin.Plugin {
	if fault == nil {
		fault = &Fault{}
	}
	p := &plugin.Plugin{
		Name:       name,
		Desc:       name + " test format",
		Extensions: []string{ext},
		SortPolicy: policy,
		ReadOptions: []plugin.Option{
			{Name: "encoding", Type: plugin.Encoding, Default: "utf-8"},
		},
		WriteOptions: []plugin.Option{
			{Name: "enable_info", Type: plugin.Bool, Default: true},
		},
	}
	if items != nil {
		p.NewReader = func(plugin.Glossary, map[string]any) (plugin.Reader, error) {
			return &memoryReader{items: items, fault: fault}, nil
		}
	}
	if sink != nil {
		p.NewWriter = func(plugin.Glossary, map[string]any) (plugin.Writer, error) {
			return &memoryWriter{sink: sink, fault: fault}, nil
		}
	}
	return p
}

type memoryReader struct {
	items  []entry.Item
	fault  *Fault
	closed bool
}

func (r *memoryReader) Open(path string, progress plugin.ProgressFunc) error {
	if r.fault.OpenReader != nil {
		return r.fault.OpenReader
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	if progress != nil {
		progress(1, 1)
	}
	return nil
}

func (r *memoryReader) Len() (int, error) {
	return len(r.items), nil
}

func (r *memoryReader) Entries() iter.Seq2[entry.Item, error] {
	return func(yield func(entry.Item, error) bool) {
		for i, item := range r.items {
			if r.fault.ReadAt == i+1 {
				yield(nil, r.fault.ReadErr)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}

func (r *memoryReader) Close() error {
	r.closed = true
	return nil
}

type memoryWriter struct {
	sink  *Sink
	fault *Fault
	n     int
}

func (w *memoryWriter) Open(path string) error {
	if w.fault.OpenWriter != nil {
		return w.fault.OpenWriter
	}
	w.sink.mu.Lock()
	w.sink.Path = path
	w.sink.mu.Unlock()
	//nolint:wrapcheck // error should not be wrapped
	return os.WriteFile(path, nil, 0o600)
}

func (w *memoryWriter) Begin() error {
	w.sink.mu.Lock()
	defer w.sink.mu.Unlock()
	w.sink.Began++
	return nil
}

func (w *memoryWriter) Accept(item entry.Item) error {
	w.n++
	if w.fault.PanicAt == w.n {
		panic(fmt.Sprintf("writer panic at item %d", w.n))
	}
	if w.fault.AcceptAt == w.n {
		return w.fault.AcceptErr
	}

	// Data entries are copied inline because their temporary files are
	// removed when the conversion ends.
	if d, ok := item.(*entry.DataEntry); ok {
		b, err := d.Data()
		if err != nil {
			return err
		}
		if item, err = entry.NewDataEntry(d.Name(), b, ""); err != nil {
			return err
		}
	}

	w.sink.mu.Lock()
	defer w.sink.mu.Unlock()
	w.sink.Items = append(w.sink.Items, item)
	return nil
}

func (w *memoryWriter) End() error {
	w.sink.mu.Lock()
	defer w.sink.mu.Unlock()
	w.sink.Ended++
	return w.fault.End
}

func (w *memoryWriter) Finish() error {
	w.sink.mu.Lock()
	defer w.sink.mu.Unlock()
	w.sink.Finished++
	return nil
}
