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
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/plugin"
)

type readOptions struct {
	Encoding  string `option:"encoding"`
	Resources bool   `option:"resources"`
}

type reader struct {
	g      plugin.Glossary
	logger *zap.Logger
	opts   readOptions

	f    *os.File
	r    *countingReader
	br   *bufio.Reader
	size int64

	// lineNum is the number of lines consumed so far.
	lineNum int

	resDir   string
	resFiles []string
}

func newReader(g plugin.Glossary, options map[string]any) (plugin.Reader, error) {
	opts := readOptions{Encoding: "utf-8", Resources: true}
	if err := plugin.DecodeOptions(options, &opts); err != nil {
		return nil, err
	}
	return &reader{
		g:      g,
		logger: g.Logger(),
		opts:   opts,
	}, nil
}

// countingReader counts the bytes read from the underlying file.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	//nolint:wrapcheck // error should not be wrapped
	return n, err
}

// Open implements [plugin.Reader.Open].
func (r *reader) Open(path string, progress plugin.ProgressFunc) error {
	enc, err := htmlindex.Get(r.opts.Encoding)
	if err != nil {
		return fmt.Errorf("%w: encoding %q: %w", plugin.ErrInvalidOption, r.opts.Encoding, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("opening %q: %w", path, err)
	}
	if fi.IsDir() {
		_ = f.Close()
		return fmt.Errorf("%w: %q is a directory", plugin.ErrFormat, path)
	}

	r.f = f
	r.size = fi.Size()
	r.r = &countingReader{r: f}
	r.br = bufio.NewReader(transform.NewReader(r.r, enc.NewDecoder()))
	r.lineNum = 0

	if err := r.readHeader(); err != nil {
		_ = r.Close()
		return err
	}

	if r.opts.Resources {
		if err := r.listResources(path + "_res"); err != nil {
			_ = r.Close()
			return err
		}
	}

	if progress != nil {
		progress(0, r.size)
	}
	return nil
}

// readHeader consumes the leading "##key\tvalue" info lines so that the
// glossary info is complete before any entry is pulled. The first entry
// line is left in the buffer.
func (r *reader) readHeader() error {
	for {
		p, err := r.br.Peek(len("\ufeff##"))
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return fmt.Errorf("reading line %d: %w", r.lineNum+1, err)
		}
		head := string(p)
		if r.lineNum == 0 {
			head = strings.TrimPrefix(head, "\ufeff")
		}
		if !strings.HasPrefix(head, "##") {
			return nil
		}

		line, err := r.br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("reading line %d: %w", r.lineNum+1, err)
		}
		r.lineNum++
		_ = r.parseLine(r.lineNum, line)
		if err != nil {
			return nil
		}
	}
}

func (r *reader) listResources(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("listing resources: %w", err)
	}
	r.resDir = dir
	for _, e := range entries {
		if e.Type().IsRegular() {
			r.resFiles = append(r.resFiles, e.Name())
		}
	}
	return nil
}

// Len implements [plugin.Reader.Len].
func (*reader) Len() (int, error) {
	return 0, plugin.ErrUnknownLen
}

// Entries implements [plugin.Reader.Entries].
func (r *reader) Entries() iter.Seq2[entry.Item, error] {
	return func(yield func(entry.Item, error) bool) {
		if r.br == nil {
			yield(nil, fmt.Errorf("%w: reader not open", plugin.ErrFormat))
			return
		}

		for {
			line, err := r.br.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				yield(nil, fmt.Errorf("reading line %d: %w", r.lineNum+1, err))
				return
			}
			eof := err != nil
			r.lineNum++

			e := r.parseLine(r.lineNum, line)
			if e != nil {
				if r.size > 0 {
					e = e.WithByteProgress(min(r.r.n, r.size), r.size)
				}
				if !yield(e, nil) {
					return
				}
			}
			if eof {
				break
			}
		}

		for _, name := range r.resFiles {
			b, err := os.ReadFile(filepath.Join(r.resDir, name))
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

// parseLine parses a single line. It returns nil for blank, info and
// malformed lines.
func (r *reader) parseLine(lineNum int, line string) *entry.Entry {
	line = strings.TrimRight(line, "\r\n")
	if lineNum == 1 {
		line = strings.TrimPrefix(line, "\ufeff")
	}
	if strings.TrimSpace(line) == "" {
		return nil
	}

	word, defi, ok := strings.Cut(line, "\t")
	if !ok {
		r.logger.Warn("skipping line without tab", zap.Int("line", lineNum))
		return nil
	}
	defi = unescaper.Replace(defi)

	if strings.HasPrefix(word, "##") {
		r.g.SetInfo(strings.TrimLeft(word, "#"), defi)
		return nil
	}

	e, err := r.g.NewEntry(splitWords(word), defi, entry.UnsetFormat)
	if err != nil {
		r.logger.Warn("skipping invalid entry", zap.Int("line", lineNum), zap.Error(err))
		return nil
	}
	return e.DetectDefiFormat()
}

// Close implements [plugin.Reader.Close].
func (r *reader) Close() error {
	if r.f == nil {
		return nil
	}
	f := r.f
	r.f = nil
	r.br = nil
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing tabfile: %w", err)
	}
	return nil
}
