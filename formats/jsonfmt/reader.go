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
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/plugin"
)

type readOptions struct {
	Resources bool `option:"resources"`
}

type reader struct {
	g      plugin.Glossary
	logger *zap.Logger
	opts   readOptions

	doc   gjson.Result
	size  int64
	count int

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

// Open implements [plugin.Reader.Open]. The whole document is parsed and
// info members are applied before any entry is read.
func (r *reader) Open(path string, progress plugin.ProgressFunc) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("opening %q: %w", path, err)
	}
	if !gjson.ValidBytes(b) {
		return fmt.Errorf("%w: %q is not valid JSON", plugin.ErrFormat, path)
	}
	doc := gjson.ParseBytes(b)
	if !doc.IsObject() {
		return fmt.Errorf("%w: %q is not a JSON object", plugin.ErrFormat, path)
	}

	r.count = 0
	doc.ForEach(func(key, value gjson.Result) bool {
		if k, ok := strings.CutPrefix(key.String(), infoPrefix); ok {
			r.g.SetInfo(k, value.String())
			return true
		}
		r.count++
		return true
	})
	r.doc = doc
	r.size = int64(len(b))

	if r.opts.Resources {
		if err := r.listResources(path + "_res"); err != nil {
			return err
		}
	}

	if progress != nil {
		progress(r.size, r.size)
	}
	return nil
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
func (r *reader) Len() (int, error) {
	return r.count + len(r.resFiles), nil
}

// Entries implements [plugin.Reader.Entries].
func (r *reader) Entries() iter.Seq2[entry.Item, error] {
	return func(yield func(entry.Item, error) bool) {
		if !r.doc.Exists() {
			yield(nil, fmt.Errorf("%w: reader not open", plugin.ErrFormat))
			return
		}

		stopped := false
		r.doc.ForEach(func(key, value gjson.Result) bool {
			k := key.String()
			if strings.HasPrefix(k, infoPrefix) {
				return true
			}
			if value.Type != gjson.String {
				r.logger.Warn("skipping non-string definition", zap.String("word", k))
				return true
			}
			e, err := r.g.NewEntry(splitWords(k), value.String(), entry.UnsetFormat)
			if err != nil {
				r.logger.Warn("skipping invalid entry", zap.String("word", k), zap.Error(err))
				return true
			}
			e = e.DetectDefiFormat().WithByteProgress(int64(value.Index+len(value.Raw)), r.size)
			if !yield(e, nil) {
				stopped = true
				return false
			}
			return true
		})
		if stopped {
			return
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

// Close implements [plugin.Reader.Close].
func (r *reader) Close() error {
	r.doc = gjson.Result{}
	return nil
}
