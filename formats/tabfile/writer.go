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

package tabfile

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/plugin"
)

type writeOptions struct {
	Encoding   string `option:"encoding"`
	EnableInfo bool   `option:"enable_info"`
	Resources  bool   `option:"resources"`
	WordTitle  bool   `option:"word_title"`
}

type writer struct {
	g    plugin.Glossary
	opts writeOptions
	enc  encoding.Encoding

	f      *os.File
	tw     io.WriteCloser
	bw     *bufio.Writer
	resDir string
}

func newWriter(g plugin.Glossary, options map[string]any) (plugin.Writer, error) {
	opts := writeOptions{Encoding: "utf-8", EnableInfo: true, Resources: true}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	enc, err := htmlindex.Get(opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %q: %w", plugin.ErrInvalidOption, opts.Encoding, err)
	}
	return &writer{
		g:    g,
		opts: opts,
		enc:  enc,
	}, nil
}

// Open implements [plugin.Writer.Open].
func (w *writer) Open(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %q: %w", path, err)
	}
	w.f = f
	w.tw = transform.NewWriter(f, encoding.ReplaceUnsupported(w.enc.NewEncoder()))
	w.bw = bufio.NewWriter(w.tw)
	w.resDir = path + "_res"
	return nil
}

// Begin implements [plugin.Consumer.Begin].
func (w *writer) Begin() error {
	if !w.opts.EnableInfo {
		return nil
	}
	for _, k := range w.g.InfoKeys() {
		if _, err := fmt.Fprintf(w.bw, "##%s\t%s\n", escaper.Replace(k), escaper.Replace(w.g.Info(k))); err != nil {
			return fmt.Errorf("writing info: %w", err)
		}
	}
	return nil
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
		words := it.Words()
		for i, word := range words {
			words[i] = wordEscaper.Replace(word)
		}
		defi := it.Defi()
		if w.opts.WordTitle && it.DefiFormat() == entry.HTML {
			defi = w.g.WordTitle(it.Word(), "", "") + defi
		}
		if _, err := fmt.Fprintf(w.bw, "%s\t%s\n", strings.Join(words, "|"), escaper.Replace(defi)); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w: unexpected item %T", plugin.ErrFormat, item)
	}
}

// End implements [plugin.Consumer.End].
func (w *writer) End() error {
	return w.close()
}

func (w *writer) close() error {
	if w.f == nil {
		return nil
	}
	f := w.f
	w.f = nil

	var result *multierror.Error
	if err := w.bw.Flush(); err != nil {
		result = multierror.Append(result, fmt.Errorf("writing tabfile: %w", err))
	}
	if err := w.tw.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("writing tabfile: %w", err))
	}
	if err := f.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("closing tabfile: %w", err))
	}
	return result.ErrorOrNil()
}

// Finish implements [plugin.Writer.Finish].
func (w *writer) Finish() error {
	return w.close()
}
