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
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ianlewis/go-dictzip"
	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/formats/stardict/dict"
	"github.com/ianlewis/go-glossary/formats/stardict/idx"
	"github.com/ianlewis/go-glossary/formats/stardict/ifo"
	"github.com/ianlewis/go-glossary/formats/stardict/syn"
	"github.com/ianlewis/go-glossary/plugin"
)

// infoKeys maps .ifo keys to glossary info keys.
var infoKeys = [][2]string{
	{"bookname", "name"},
	{"author", "author"},
	{"email", "email"},
	{"website", "website"},
	{"description", "description"},
	{"date", "creationTime"},
}

type readOptions struct {
	Resources bool `option:"resources"`
}

type reader struct {
	g      plugin.Glossary
	logger *zap.Logger
	opts   readOptions

	base          string
	idxPath       string
	idxSize       int64
	idxoffsetbits int
	wordCount     int

	dictFile *os.File
	dict     *dict.Dict

	// syns maps .idx positions to alternate headwords.
	syns map[uint32][]string

	resDir   string
	resFiles []string
}

func newReader(g plugin.Glossary, options map[string]any) (plugin.Reader, error) {
	opts := readOptions{Resources: true}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return &reader{
		g:      g,
		logger: g.Logger(),
		opts:   opts,
	}, nil
}

// Open implements [plugin.Reader.Open].
func (r *reader) Open(path string, progress plugin.ProgressFunc) error {
	ifoPath, err := findIfo(path)
	if err != nil {
		return err
	}
	r.base = strings.TrimSuffix(ifoPath, filepath.Ext(ifoPath))

	info, err := r.readIfo(ifoPath)
	if err != nil {
		return err
	}

	if r.idxPath, err = findFile(r.base, ".idx", ".idx.gz", ".IDX", ".IDX.gz", ".IDX.GZ"); err != nil {
		return err
	}
	if s := info.Value("idxfilesize"); s != "" {
		if r.idxSize, err = strconv.ParseInt(s, 10, 64); err != nil {
			return fmt.Errorf("%w: bad idxfilesize: %w", plugin.ErrFormat, err)
		}
	}

	sametypesequence, err := dict.ParseTypes(info.Value("sametypesequence"))
	if err != nil {
		return fmt.Errorf("%w: %w", plugin.ErrFormat, err)
	}
	if len(sametypesequence) > 0 {
		r.g.SetDefaultDefiFormat(defiFormatOf(sametypesequence[0]))
	}
	if err := r.openDict(sametypesequence); err != nil {
		return err
	}

	if err := r.readSyn(); err != nil {
		_ = r.Close()
		return err
	}

	if r.opts.Resources {
		if err := r.listResources(); err != nil {
			_ = r.Close()
			return err
		}
	}

	if progress != nil {
		progress(r.idxSize, r.idxSize)
	}
	return nil
}

func (r *reader) readIfo(ifoPath string) (*ifo.Ifo, error) {
	f, err := os.Open(ifoPath)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", ifoPath, err)
	}
	defer f.Close()

	info, err := ifo.New(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", plugin.ErrFormat, err)
	}
	if info.Magic() != ifo.Magic {
		return nil, fmt.Errorf("%w: %q bad magic data", plugin.ErrFormat, ifoPath)
	}

	switch v := info.Value("version"); v {
	case "2.4.2":
		r.idxoffsetbits = 32
	case "3.0.0":
		r.idxoffsetbits = 32
		if bits := info.Value("idxoffsetbits"); bits != "" {
			if r.idxoffsetbits, err = strconv.Atoi(bits); err != nil {
				return nil, fmt.Errorf("%w: invalid idxoffsetbits: %w", plugin.ErrFormat, err)
			}
		}
	default:
		return nil, fmt.Errorf("%w: invalid version: %q", plugin.ErrFormat, v)
	}

	if r.wordCount, err = strconv.Atoi(info.Value("wordcount")); err != nil {
		return nil, fmt.Errorf("%w: bad wordcount: %w", plugin.ErrFormat, err)
	}

	for _, kv := range infoKeys {
		if v := info.Value(kv[0]); v != "" {
			r.g.SetInfo(kv[1], v)
		}
	}
	if info.Value("bookname") == "" {
		r.logger.Warn("missing bookname", zap.String("path", ifoPath))
	}
	return info, nil
}

func (r *reader) openDict(sametypesequence []dict.DataType) error {
	dictPath, err := findFile(r.base, ".dict.dz", ".dict", ".DICT", ".DICT.dz", ".DICT.DZ")
	if err != nil {
		return err
	}
	f, err := os.Open(dictPath)
	if err != nil {
		return fmt.Errorf("opening %q: %w", dictPath, err)
	}

	var ra io.ReaderAt = f
	if strings.EqualFold(filepath.Ext(dictPath), ".dz") {
		z, err := dictzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return fmt.Errorf("%w: reading %q: %w", plugin.ErrFormat, dictPath, err)
		}
		ra = z
	}

	d, err := dict.New(ra, sametypesequence)
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("%w: %w", plugin.ErrFormat, err)
	}
	r.dictFile = f
	r.dict = d
	return nil
}

// openMaybeGzip opens path and decompresses it if it has a .gz or .dz
// extension.
func openMaybeGzip(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %q: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz", ".dz":
		z, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: reading %q: %w", plugin.ErrFormat, path, err)
		}
		return &gzipFile{Reader: z, f: f}, nil
	default:
		return f, nil
	}
}

type gzipFile struct {
	*gzip.Reader
	f *os.File
}

func (g *gzipFile) Close() error {
	_ = g.Reader.Close()
	//nolint:wrapcheck // error should not be wrapped
	return g.f.Close()
}

func (r *reader) readSyn() error {
	r.syns = map[uint32][]string{}
	if !r.g.Alts() {
		return nil
	}

	synPath, err := findFile(r.base, ".syn", ".syn.gz", ".syn.dz", ".SYN", ".SYN.gz", ".SYN.GZ", ".SYN.dz", ".SYN.DZ")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	rc, err := openMaybeGzip(synPath)
	if err != nil {
		return err
	}
	s := syn.NewScanner(rc)
	defer s.Close()

	for s.Scan() {
		w := s.Word()
		r.syns[w.OriginalWordIndex] = append(r.syns[w.OriginalWordIndex], w.Word)
	}
	if err := s.Err(); err != nil {
		return fmt.Errorf("%w: reading %q: %w", plugin.ErrFormat, synPath, err)
	}
	return nil
}

func (r *reader) listResources() error {
	dir := filepath.Join(filepath.Dir(r.base), "res")
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return nil
	}
	r.resDir = dir
	//nolint:wrapcheck // errors are wrapped below.
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			r.resFiles = append(r.resFiles, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("listing resources: %w", err)
	}
	return nil
}

// Len implements [plugin.Reader.Len].
func (r *reader) Len() (int, error) {
	return r.wordCount + len(r.resFiles), nil
}

// Entries implements [plugin.Reader.Entries].
func (r *reader) Entries() iter.Seq2[entry.Item, error] {
	return func(yield func(entry.Item, error) bool) {
		rc, err := openMaybeGzip(r.idxPath)
		if err != nil {
			yield(nil, err)
			return
		}
		s, err := idx.NewScanner(rc, &idx.ScannerOptions{OffsetBits: r.idxoffsetbits})
		if err != nil {
			_ = rc.Close()
			yield(nil, fmt.Errorf("%w: %w", plugin.ErrFormat, err))
			return
		}
		defer s.Close()

		var i uint32
		for s.Scan() {
			w := s.Word()
			e, err := r.newEntry(i, w)
			if err != nil {
				yield(nil, err)
				return
			}
			i++
			if e == nil {
				continue
			}
			if r.idxSize > 0 {
				e = e.WithByteProgress(s.Pos(), r.idxSize)
			}
			if !yield(e, nil) {
				return
			}
		}
		if err := s.Err(); err != nil {
			yield(nil, fmt.Errorf("%w: reading %q: %w", plugin.ErrFormat, r.idxPath, err))
			return
		}

		for _, name := range r.resFiles {
			b, err := os.ReadFile(filepath.Join(r.resDir, filepath.FromSlash(name)))
			if err != nil {
				yield(nil, fmt.Errorf("reading resource %q: %w", name, err))
				return
			}
			d, err := r.g.NewDataEntry(name, b)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(d, nil) {
				return
			}
		}
	}
}

// newEntry builds the entry for the i-th index word. It returns nil for
// articles without text and for words that cannot make an entry.
func (r *reader) newEntry(i uint32, w *idx.Word) (*entry.Entry, error) {
	if w.Word == "" {
		r.logger.Warn("skipping article with empty headword", zap.Uint32("index", i))
		return nil, nil
	}

	a, err := r.dict.Article(w.Offset, w.Size)
	if err != nil {
		return nil, fmt.Errorf("%w: article %q: %w", plugin.ErrFormat, w.Word, err)
	}

	var parts []string
	format := entry.UnsetFormat
	for _, d := range a.Data {
		if d.Type == dict.ResourceFileListType || d.Type < 'a' || d.Type > 'z' {
			continue
		}
		if format == entry.UnsetFormat {
			format = defiFormatOf(d.Type)
		}
		parts = append(parts, string(d.Data))
	}
	if len(parts) == 0 {
		r.logger.Debug("skipping article without text", zap.String("word", w.Word))
		return nil, nil
	}

	sep := "\n"
	if format == entry.HTML {
		sep = "<br>\n"
	}
	words := []string{w.Word}
	for _, s := range r.syns[i] {
		if s != "" {
			words = append(words, s)
		}
	}
	e, err := r.g.NewEntry(words, strings.Join(parts, sep), format)
	if err != nil {
		r.logger.Warn("skipping invalid article", zap.String("word", w.Word), zap.Error(err))
		return nil, nil
	}
	return e, nil
}

// Close implements [plugin.Reader.Close].
func (r *reader) Close() error {
	if r.dictFile == nil {
		return nil
	}
	f := r.dictFile
	r.dictFile = nil
	r.dict = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing dict file: %w", err)
	}
	return nil
}
