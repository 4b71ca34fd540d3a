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

package glossary

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/compression"
	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/filter"
	"github.com/ianlewis/go-glossary/internal/memstat"
	"github.com/ianlewis/go-glossary/plugin"
)

// ReadArgs are arguments for Read.
type ReadArgs struct {
	// Format is the input format name. Empty means detect from the file
	// name.
	Format string

	// Direct streams entries from the reader when they are written instead
	// of loading them first.
	Direct bool

	// Options are the reader options. Unknown options are dropped.
	Options map[string]any
}

// Read opens filename and either loads its entries or, in direct mode,
// keeps the reader open to stream entries later.
func (g *Glossary) Read(ctx context.Context, filename string, args ReadArgs) (err error) {
	defer g.recoverPlugin("read", &err)

	filename, err = filepath.Abs(filename)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFatalInput, err)
	}

	d, err := g.registry.DetectInput(filename, args.Format)
	if err != nil {
		g.logger.Error("detecting input format", zap.String("file", filename), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrFatalInput, err)
	}
	p := d.Plugin

	path := d.Filename
	if d.Compression != compression.None {
		if path, err = g.uncompress(filename, d); err != nil {
			g.logger.Error("uncompressing input", zap.String("file", filename), zap.Error(err))
			return fmt.Errorf("%w: %w", ErrFatalInput, err)
		}
	}

	options := plugin.ValidateOptions(p.Name, "read", p.ReadOptions, args.Options, g.logger)

	g.filename = d.Filename
	if ext := filepath.Ext(d.Filename); slices.Contains(p.Extensions, strings.ToLower(ext)) {
		g.filename = strings.TrimSuffix(d.Filename, ext)
	}
	if g.info[InfoName] == "" {
		g.SetInfo(InfoName, filepath.Base(d.Filename))
	}

	// In direct mode progress is observed as entries reach the writers.
	var ui filter.Progresser
	if !args.Direct && g.ui != nil {
		ui = g.ui
	}
	var r plugin.Reader
	g.chain = filter.FromRules(g.config.rules(), filter.Deps{
		Logger: g.logger,
		UI:     ui,
		Total: func() int {
			n, _ := g.readerLen(r)
			return n
		},
	})

	r, err = p.NewReader(g, options)
	if err != nil {
		return factoryError(p.Name+" reader", err)
	}
	if err := g.openReader(r, path); err != nil {
		return err
	}

	if err := g.chain.Prepare(); err != nil {
		_ = g.closeReader(r)
		return fmt.Errorf("%w: %w", ErrGlossary, err)
	}

	if !args.Direct {
		return g.Load(ctx, r)
	}
	g.readers = append(g.readers, r)
	return nil
}

// uncompress decompresses the input into a temporary directory and returns
// the path to read.
func (g *Glossary) uncompress(filename string, d *plugin.Detected) (string, error) {
	dir, err := g.scratch.MkdirAll("input-" + uuid.NewString())
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, filepath.Base(d.Filename))
	g.logger.Debug("uncompressing input",
		zap.String("file", filename),
		zap.String("compression", string(d.Compression)),
		zap.String("path", dst),
	)
	//nolint:wrapcheck // error should not be wrapped
	return compression.Uncompress(filename, dst, d.Compression)
}

// openReader opens r and reports the progress of reading metadata.
func (g *Glossary) openReader(r plugin.Reader, path string) (err error) {
	defer g.recoverPlugin("reader open", &err)

	started := false
	var progress plugin.ProgressFunc
	if g.ui != nil {
		progress = func(pos, total int64) {
			if !started {
				g.progressInit("Reading metadata")
				started = true
			}
			if total > 0 {
				g.ui.Progress(float64(pos)/float64(total), "")
			}
		}
	}

	err = r.Open(path, progress)
	if started {
		g.progressEnd()
	}
	if err != nil {
		_ = g.closeReader(r)
		if isInputError(err) {
			g.logger.Error("opening input", zap.String("file", path), zap.Error(err))
		} else {
			g.logger.Error("unexpected error opening input", zap.String("file", path), zap.Error(err))
		}
		return pluginError("opening "+path, err)
	}

	g.checkDefiHasWordTitle()
	return nil
}

// Load drains an open reader through the filters into the entry list. The
// reader is closed when Load returns.
func (g *Glossary) Load(ctx context.Context, r plugin.Reader) (err error) {
	defer g.recoverPlugin("load", &err)
	defer func() {
		if cerr := g.closeReader(r); cerr != nil && err == nil {
			err = fmt.Errorf("%w: closing reader: %w", ErrPluginRuntime, cerr)
		}
	}()

	memstat.Log(g.logger, "before load")
	g.progressInit("Reading")
	defer g.progressEnd()

	for item, err := range g.chain.Apply(r.Entries()) {
		if err != nil {
			return fmt.Errorf("%w: reading entries: %w", ErrPluginRuntime, err)
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrGlossary, err)
		}
		if err := g.data.Append(item); err != nil {
			return fmt.Errorf("%w: %w", ErrStorage, err)
		}
	}

	g.chain.LogDropped()
	g.logger.Debug("loaded entries", zap.Int("count", g.data.Len()))
	memstat.Log(g.logger, "after load")
	return nil
}

// Entries returns the entries of the glossary. In direct mode entries are
// pulled from the open readers through the filters and the sequence can be
// iterated once. Otherwise the stored entries are returned.
func (g *Glossary) Entries() iter.Seq2[entry.Item, error] {
	if len(g.readers) > 0 {
		return g.readerEntries()
	}
	return g.loadedEntries()
}

func (g *Glossary) loadedEntries() iter.Seq2[entry.Item, error] {
	return g.data.All()
}

func (g *Glossary) readerEntries() iter.Seq2[entry.Item, error] {
	readers := slices.Clone(g.readers)
	return func(yield func(entry.Item, error) bool) {
		for _, r := range readers {
			if !g.readerItems(r, yield) {
				return
			}
		}
	}
}

// readerItems yields the filtered entries of r and closes it. It returns
// false if iteration stopped early.
func (g *Glossary) readerItems(r plugin.Reader, yield func(entry.Item, error) bool) bool {
	g.progressInit("Converting")
	defer g.progressEnd()
	defer func() {
		if err := g.closeReader(r); err != nil {
			g.logger.Error("closing reader", zap.Error(err))
		}
	}()

	for item, err := range g.chain.Apply(r.Entries()) {
		if err != nil {
			yield(nil, fmt.Errorf("%w: reading entries: %w", ErrPluginRuntime, err))
			return false
		}
		if !yield(item, nil) {
			return false
		}
	}
	g.chain.LogDropped()
	return true
}

// CollectDefiFormat returns the ratio of each definition format among the
// first maxCount stored entries. It is not supported in direct mode.
func (g *Glossary) CollectDefiFormat(maxCount int) (map[entry.DefiFormat]float64, error) {
	if len(g.readers) > 0 {
		return nil, fmt.Errorf("%w: collecting definition formats is not supported in direct mode", ErrConfiguration)
	}

	counts := map[entry.DefiFormat]int{}
	n := 0
	for item, err := range g.data.All() {
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrStorage, err)
		}
		e, ok := item.(*entry.Entry)
		if !ok {
			continue
		}
		counts[e.DetectDefiFormat().DefiFormat()]++
		n++
		if n >= maxCount {
			break
		}
	}

	result := map[entry.DefiFormat]float64{
		entry.HTML:      0,
		entry.PlainText: 0,
		entry.XDXF:      0,
	}
	for f, c := range counts {
		result[f] = float64(c) / float64(n)
	}
	return result, nil
}
