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

package stardict

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/compression"
	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/formats/stardict/dict"
	"github.com/ianlewis/go-glossary/formats/stardict/idx"
	"github.com/ianlewis/go-glossary/formats/stardict/ifo"
	"github.com/ianlewis/go-glossary/formats/stardict/syn"
	"github.com/ianlewis/go-glossary/plugin"
	"github.com/ianlewis/go-glossary/sortkey"
)

type writeOptions struct {
	Dictzip          bool   `option:"dictzip"`
	SameTypeSequence string `option:"sametypesequence"`
}

type writer struct {
	g      plugin.Glossary
	logger *zap.Logger
	opts   writeOptions

	sametypesequence []dict.DataType

	base   string
	resDir string

	dictFile *os.File
	dictBuf  *bufio.Writer
	offset   uint64

	words []*idx.Word
	syns  []*syn.Word
}

func newWriter(g plugin.Glossary, options map[string]any) (plugin.Writer, error) {
	opts := writeOptions{Dictzip: true}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	types, err := dict.ParseTypes(opts.SameTypeSequence)
	if err != nil {
		return nil, fmt.Errorf("%w: sametypesequence: %w", plugin.ErrInvalidOption, err)
	}
	if len(types) > 1 {
		return nil, fmt.Errorf("%w: sametypesequence %q: only a single type is supported", plugin.ErrInvalidOption, opts.SameTypeSequence)
	}
	return &writer{
		g:                g,
		logger:           g.Logger(),
		opts:             opts,
		sametypesequence: types,
	}, nil
}

// Open implements [plugin.Writer.Open]. path is either an .ifo file name or
// a directory that will hold the dictionary files.
func (w *writer) Open(path string) error {
	path = strings.TrimSuffix(path, string(filepath.Separator))
	if strings.EqualFold(filepath.Ext(path), ".ifo") {
		w.base = strings.TrimSuffix(path, filepath.Ext(path))
	} else {
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("creating %q: %w", path, err)
		}
		w.base = filepath.Join(path, filepath.Base(path))
	}
	w.resDir = filepath.Join(filepath.Dir(w.base), "res")

	f, err := os.Create(w.base + ".dict")
	if err != nil {
		return fmt.Errorf("creating dict file: %w", err)
	}
	w.dictFile = f
	w.dictBuf = bufio.NewWriter(f)
	return nil
}

// Begin implements [plugin.Consumer.Begin].
func (*writer) Begin() error {
	return nil
}

// Accept implements [plugin.Consumer.Accept].
func (w *writer) Accept(item entry.Item) error {
	switch it := item.(type) {
	case *entry.DataEntry:
		if _, err := it.Save(w.resDir); err != nil {
			return fmt.Errorf("saving resource %q: %w", it.Name(), err)
		}
		return nil
	case *entry.Entry:
		return w.writeEntry(it)
	default:
		return fmt.Errorf("%w: unexpected item %T", plugin.ErrFormat, item)
	}
}

func (w *writer) writeEntry(e *entry.Entry) error {
	t := dataTypeOf(e.DefiFormat())
	if len(w.sametypesequence) > 0 {
		t = w.sametypesequence[0]
	}
	b, err := dict.Encode(&dict.Article{
		Data: []*dict.Data{{Type: t, Data: []byte(e.Defi())}},
	}, w.sametypesequence)
	if err != nil {
		return fmt.Errorf("%w: entry %q: %w", plugin.ErrFormat, e.Word(), err)
	}
	if _, err := w.dictBuf.Write(b); err != nil {
		return fmt.Errorf("writing dict file: %w", err)
	}

	//nolint:gosec // index count is bounded by the 32 bit .syn field.
	index := uint32(len(w.words))
	w.words = append(w.words, &idx.Word{
		Word:   e.Word(),
		Offset: w.offset,
		Size:   uint32(len(b)),
	})
	w.offset += uint64(len(b))

	if w.g.Alts() {
		for _, alt := range e.Alternates() {
			w.syns = append(w.syns, &syn.Word{
				Word:              alt,
				OriginalWordIndex: index,
			})
		}
	}
	return nil
}

// End implements [plugin.Consumer.End].
func (w *writer) End() error {
	if w.dictFile == nil {
		return nil
	}
	if err := w.closeDict(); err != nil {
		return err
	}

	if w.opts.Dictzip {
		if _, err := compression.Compress(w.base+".dict", compression.Dictzip); err != nil {
			return fmt.Errorf("compressing dict file: %w", err)
		}
	}

	idxSize, err := w.writeIdx()
	if err != nil {
		return err
	}
	synCount, err := w.writeSyn()
	if err != nil {
		return err
	}
	return w.writeIfo(idxSize, synCount)
}

func (w *writer) closeDict() error {
	f := w.dictFile
	w.dictFile = nil
	if err := w.dictBuf.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing dict file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing dict file: %w", err)
	}
	return nil
}

func (w *writer) writeIdx() (int64, error) {
	f, err := os.Create(w.base + ".idx")
	if err != nil {
		return 0, fmt.Errorf("creating idx file: %w", err)
	}
	defer f.Close()

	iw, err := idx.NewWriter(f, 32)
	if err != nil {
		return 0, fmt.Errorf("creating idx file: %w", err)
	}
	for _, word := range w.words {
		if err := iw.Write(word); err != nil {
			return 0, fmt.Errorf("%w: %w", plugin.ErrFormat, err)
		}
	}
	if err := iw.Flush(); err != nil {
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing idx file: %w", err)
	}
	return iw.Size(), nil
}

func (w *writer) writeSyn() (int, error) {
	if len(w.syns) == 0 {
		return 0, nil
	}

	// Alternates are sorted with the same key as headwords.
	key, err := sortkey.New(SortKeyName, "", "utf-8", nil)
	if err != nil {
		return 0, fmt.Errorf("creating sort key: %w", err)
	}
	slices.SortStableFunc(w.syns, func(a, b *syn.Word) int {
		return key.Compare([]string{a.Word}, []string{b.Word})
	})

	f, err := os.Create(w.base + ".syn")
	if err != nil {
		return 0, fmt.Errorf("creating syn file: %w", err)
	}
	defer f.Close()

	sw := syn.NewWriter(f)
	for _, s := range w.syns {
		if err := sw.Write(s); err != nil {
			return 0, fmt.Errorf("%w: %w", plugin.ErrFormat, err)
		}
	}
	if err := sw.Flush(); err != nil {
		return 0, err
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("closing syn file: %w", err)
	}
	return sw.Count(), nil
}

func (w *writer) writeIfo(idxSize int64, synCount int) error {
	info := ifo.Empty()
	info.Set("version", "3.0.0")

	bookname := w.g.Info("name")
	if bookname == "" {
		bookname = filepath.Base(w.base)
	}
	info.Set("bookname", bookname)
	info.Set("wordcount", strconv.Itoa(len(w.words)))
	if synCount > 0 {
		info.Set("synwordcount", strconv.Itoa(synCount))
	}
	info.Set("idxfilesize", strconv.FormatInt(idxSize, 10))
	if len(w.sametypesequence) > 0 {
		info.Set("sametypesequence", string(rune(w.sametypesequence[0])))
	}
	for _, kv := range infoKeys {
		if kv[0] == "bookname" {
			continue
		}
		if v := w.g.Info(kv[1]); v != "" {
			info.Set(kv[0], v)
		}
	}

	f, err := os.Create(w.base + ".ifo")
	if err != nil {
		return fmt.Errorf("creating ifo file: %w", err)
	}
	if _, err := info.WriteTo(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing ifo file: %w", err)
	}
	w.logger.Debug("wrote stardict dictionary",
		zap.String("path", w.base+".ifo"),
		zap.Int("words", len(w.words)),
		zap.Int("synonyms", synCount),
	)
	return nil
}

// Finish implements [plugin.Writer.Finish].
func (w *writer) Finish() error {
	var result *multierror.Error
	if w.dictFile != nil {
		if err := w.closeDict(); err != nil {
			result = multierror.Append(result, err)
		}
	}
	w.words = nil
	w.syns = nil
	return result.ErrorOrNil()
}
