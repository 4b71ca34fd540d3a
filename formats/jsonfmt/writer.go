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

package jsonfmt

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/plugin"
)

type writeOptions struct {
	EnableInfo bool `option:"enable_info"`
	Resources  bool `option:"resources"`
	WordTitle  bool `option:"word_title"`
}

type writer struct {
	g    plugin.Glossary
	opts writeOptions

	f      *os.File
	bw     *bufio.Writer
	resDir string
	n      int
}

func newWriter(g plugin.Glossary, options map[string]any) (plugin.Writer, error) {
	opts := writeOptions{EnableInfo: true, Resources: true}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return &writer{
		g:    g,
		opts: opts,
	}, nil
}

// Open implements [plugin.Writer.Open].
func (w *writer) Open(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	w.f = f
	w.bw = bufio.NewWriter(f)
	w.resDir = path + "_res"
	w.n = 0
	return nil
}

// Begin implements [plugin.Consumer.Begin].
func (w *writer) Begin() error {
	if _, err := w.bw.WriteString("{"); err != nil {
		return fmt.Errorf("writing json: %w", err)
	}
	if !w.opts.EnableInfo {
		return nil
	}
	for _, k := range w.g.InfoKeys() {
		if err := w.member(infoPrefix+k, w.g.Info(k)); err != nil {
			return err
		}
	}
	return nil
}

// member writes a single object member.
func (w *writer) member(key, value string) error {
	k, err := marshalString(key)
	if err != nil {
		return err
	}
	v, err := marshalString(value)
	if err != nil {
		return err
	}
	sep := ",\n\t"
	if w.n == 0 {
		sep = "\n\t"
	}
	w.n++
	if _, err := fmt.Fprintf(w.bw, "%s%s: %s", sep, k, v); err != nil {
		return fmt.Errorf("writing json: %w", err)
	}
	return nil
}

// marshalString encodes s as a JSON string without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Accept implements [plugin.Consumer.Accept].
func (w *writer) Accept(item entry.Item) error {
	switch it := item.(type) {
	case *entry.DataEntry:
		if !w.opts.Resources {
			return nil
		}
		if _, err := it.Save(w.resDir); err != nil {
			return fmt.Errorf("saving resource %q: %w", it.Name(), err)
		}
		return nil
	case *entry.Entry:
		defi := it.Defi()
		if w.opts.WordTitle {
			defi = w.g.WordTitle(it.Word(), "", "") + defi
		}
		return w.member(joinWords(it.Words()), defi)
	default:
		return fmt.Errorf("%w: unexpected item %T", plugin.ErrFormat, item)
	}
}

// End implements [plugin.Consumer.End].
func (w *writer) End() error {
	if w.f == nil {
		return nil
	}
	if _, err := w.bw.WriteString("\n}\n"); err != nil {
		return fmt.Errorf("writing json: %w", err)
	}
	return w.close()
}

func (w *writer) close() error {
	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil
	if err := w.bw.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing json: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing json: %w", err)
	}
	return nil
}

// Finish implements [plugin.Writer.Finish].
func (w *writer) Finish() error {
	return w.close()
}
