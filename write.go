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
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/filter"
	"github.com/ianlewis/go-glossary/formats/info"
	"github.com/ianlewis/go-glossary/internal/memstat"
	"github.com/ianlewis/go-glossary/plugin"
)

// WriteArgs are arguments for Write.
type WriteArgs struct {
	// Sort sorts the stored entries by the bound sort key before writing.
	Sort bool

	// Options are the writer options. Unknown options are dropped.
	Options map[string]any
}

// Write writes the glossary to filename in the named format and returns the
// absolute path written. The glossary is cleared afterwards.
func (g *Glossary) Write(ctx context.Context, filename, format string, args WriteArgs) (_ string, err error) {
	defer g.recoverPlugin("write", &err)

	filename, err = filepath.Abs(filename)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrFatalInput, err)
	}

	p, ok := g.registry.Get(format)
	if !ok || !p.CanWrite() {
		g.logger.Error("no writer for format", zap.String("format", format))
		return "", fmt.Errorf("%w: %w: %q", ErrFatalInput, plugin.ErrNoWriteSupport, format)
	}

	if len(g.readers) > 0 && args.Sort {
		g.logger.Warn("full sort enabled, falling back to indirect mode")
		for _, r := range g.readers {
			if err := g.Load(ctx, r); err != nil {
				return "", err
			}
		}
		g.readers = nil
	}

	g.logger.Info("writing", zap.String("format", p.Name), zap.String("file", filename))

	options := plugin.ValidateOptions(p.Name, "write", p.WriteOptions, args.Options, g.logger)
	w, err := p.NewWriter(g, options)
	if err != nil {
		return "", factoryError(p.Name+" writer", err)
	}

	if args.Sort {
		start := time.Now()
		if err := g.data.Sort(); err != nil {
			return "", fmt.Errorf("%w: sorting: %w", ErrStorage, err)
		}
		g.logger.Info("sorted entries", zap.Duration("duration", time.Since(start)))
	}

	if err := g.extra.Prepare(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrGlossary, err)
	}

	if err := g.openWriter(w, filename); err != nil {
		return "", err
	}
	memstat.Log(g.logger, "before write")

	writers := []plugin.Writer{w}
	defer func() {
		if ferr := g.finishWriters(writers); ferr != nil && err == nil {
			err = ferr
		}
		memstat.Log(g.logger, "after write")
		g.Clear()
	}()

	if g.config.SaveInfoJSON {
		iw, err := g.infoWriter(filename)
		if err != nil {
			return "", err
		}
		writers = append(writers, iw)
	}

	if err := g.writeEntries(ctx, writers); err != nil {
		g.logger.Error("writing entries", zap.String("file", filename), zap.Error(err))
		return "", err
	}
	return filename, nil
}

// infoWriter opens the .info side writer for filename.
func (g *Glossary) infoWriter(filename string) (plugin.Writer, error) {
	p, ok := g.registry.Get(info.Name)
	if !ok || !p.CanWrite() {
		return nil, fmt.Errorf("%w: %w: %q", ErrConfiguration, plugin.ErrUnknownFormat, info.Name)
	}
	w, err := p.NewWriter(g, nil)
	if err != nil {
		return nil, factoryError(p.Name+" writer", err)
	}
	trimmed := strings.TrimSuffix(filename, string(filepath.Separator))
	path := strings.TrimSuffix(trimmed, filepath.Ext(trimmed)) + ".info"
	if err := g.openWriter(w, path); err != nil {
		return nil, err
	}
	return w, nil
}

func (g *Glossary) openWriter(w plugin.Writer, filename string) (err error) {
	defer g.recoverPlugin("writer open", &err)
	if err := w.Open(filename); err != nil {
		g.logger.Error("opening output", zap.String("file", filename), zap.Error(err))
		return pluginError("opening "+filename, err)
	}
	return nil
}

func (g *Glossary) finishWriters(writers []plugin.Writer) error {
	g.logger.Debug("finishing writers")
	var result *multierror.Error
	for _, w := range writers {
		if err := g.finishWriter(w); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: finishing writers: %w", ErrPluginRuntime, err)
	}
	return nil
}

func (g *Glossary) finishWriter(w plugin.Writer) (err error) {
	defer g.recoverPlugin("writer finish", &err)
	//nolint:wrapcheck // error should not be wrapped
	return w.Finish()
}

// writeEntries drives the consumers in lock-step. Every consumer receives
// Begin, then each entry in order, then End. A consumer that returns
// ErrConsumerDone receives nothing more.
func (g *Glossary) writeEntries(ctx context.Context, consumers []plugin.Writer) (err error) {
	defer g.recoverPlugin("write entries", &err)

	done := make([]bool, len(consumers))
	active := len(consumers)
	// step sends one signal to consumer i.
	step := func(i int, send func(plugin.Consumer) error) error {
		if done[i] {
			return nil
		}
		err := send(consumers[i])
		if errors.Is(err, plugin.ErrConsumerDone) {
			done[i] = true
			active--
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrPluginRuntime, err)
		}
		return nil
	}

	for i := range consumers {
		if err := step(i, plugin.Consumer.Begin); err != nil {
			return err
		}
	}

	items := g.Entries()
	if len(g.extra.Names()) > 0 {
		items = g.extra.Apply(items)
	}
	items = g.writeProgress(items)
	for item, err := range items {
		if err != nil {
			if !errors.Is(err, ErrGlossary) {
				err = fmt.Errorf("%w: %w", ErrStorage, err)
			}
			return err
		}
		if active == 0 {
			break
		}
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", ErrGlossary, err)
		}
		for i := range consumers {
			if err := step(i, func(c plugin.Consumer) error { return c.Accept(item) }); err != nil {
				return err
			}
		}
	}

	for i := range consumers {
		if err := step(i, plugin.Consumer.End); err != nil {
			return err
		}
		// End is sent at most once.
		done[i] = true
	}
	return nil
}

// writeProgress reports progress of the items that reach the writers, after
// every filter has run.
func (g *Glossary) writeProgress(items iter.Seq2[entry.Item, error]) iter.Seq2[entry.Item, error] {
	if g.ui == nil {
		return items
	}

	direct := len(g.readers) > 0
	total := g.data.Len
	if direct {
		readers := slices.Clone(g.readers)
		total = func() int {
			n := 0
			for _, r := range readers {
				if c, err := g.readerLen(r); err == nil {
					n += c
				}
			}
			return n
		}
	}

	return func(yield func(entry.Item, error) bool) {
		c := filter.NewChain(g.logger)
		c.AddObserver(filter.ProgressBar(g.ui, total))
		if err := c.Prepare(); err != nil {
			yield(nil, fmt.Errorf("%w: %w", ErrGlossary, err))
			return
		}
		// Direct readers open their own progress bar.
		if !direct {
			g.progressInit("Writing")
			defer g.progressEnd()
		}
		for item, err := range c.Apply(items) {
			if !yield(item, err) {
				return
			}
		}
	}
}
