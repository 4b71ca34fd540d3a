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
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/entrylist"
	"github.com/ianlewis/go-glossary/filter"
	"github.com/ianlewis/go-glossary/internal/scratch"
	"github.com/ianlewis/go-glossary/plugin"
)

// UI receives progress of the conversion stages.
type UI interface {
	// ProgressInit starts a new progress bar.
	ProgressInit(title string)

	// Progress reports the completed ratio in [0, 1].
	Progress(ratio float64, text string)

	// ProgressEnd ends the current progress bar.
	ProgressEnd()
}

// Options are options for New.
type Options struct {
	// Registry holds the available formats. Required.
	Registry *plugin.Registry

	// Config is the engine configuration. nil means DefaultConfig.
	Config *Config

	// Logger is the logger. nil disables logging.
	Logger *zap.Logger

	// UI receives progress. nil disables progress reporting.
	UI UI
}

// Glossary converts glossaries between formats. A Glossary runs one
// conversion at a time.
type Glossary struct {
	registry *plugin.Registry
	config   Config
	logger   *zap.Logger
	ui       UI

	busy atomic.Bool

	info     map[string]string
	infoKeys []string

	data    entrylist.List
	sqlite  bool
	readers []plugin.Reader

	// chain holds the configured filters. extra holds filters requested by
	// a writer which run on the entries being written.
	chain *filter.Chain
	extra *filter.Chain

	scratch *scratch.Scratch

	filename          string
	defaultDefiFormat entry.DefiFormat
	defiHasWordTitle  bool
	alts              bool

	// runID names the cache subdirectory of the current conversion. The
	// subdirectory is created on first use.
	runID string

	// tmpDataDir is created on first use.
	tmpDataDir     string
	tmpDataCreated bool
}

var _ plugin.Glossary = (*Glossary)(nil)

// New returns a new Glossary.
func New(opts *Options) (*Glossary, error) {
	if opts == nil || opts.Registry == nil {
		return nil, fmt.Errorf("%w: no format registry", ErrConfiguration)
	}
	cfg := DefaultConfig()
	if opts.Config != nil {
		cfg = *opts.Config
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Glossary{
		registry: opts.Registry,
		config:   cfg,
		logger:   logger,
		ui:       opts.UI,
		scratch:  scratch.New(cfg.CacheDir, logger),
	}
	g.Clear()
	return g, nil
}

// Clear resets the glossary to its initial state. Open readers are closed
// and stored entries are discarded. Temporary files are kept until Cleanup.
func (g *Glossary) Clear() {
	g.closeReaders()
	if g.data != nil {
		if err := g.data.Close(); err != nil {
			g.logger.Error("closing entry list", zap.Error(err))
		}
	}
	g.data = entrylist.NewMemory()
	g.sqlite = false

	g.info = map[string]string{}
	g.infoKeys = nil

	g.chain = filter.NewChain(g.logger)
	g.extra = filter.NewChain(g.logger)

	g.filename = ""
	g.defaultDefiFormat = entry.PlainText
	g.defiHasWordTitle = false
	g.alts = g.config.EnableAlts
	g.runID = ""
	g.tmpDataDir = ""
	g.tmpDataCreated = false
}

// runDir creates and registers the cache subdirectory of the current
// conversion and returns its path. Files under it never collide with those
// of other glossaries sharing the cache directory.
func (g *Glossary) runDir() (string, error) {
	if g.runID == "" {
		g.runID = uuid.NewString()
	}
	dir, err := g.scratch.MkdirAll(g.runID)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return dir, nil
}

func (g *Glossary) closeReaders() {
	for _, r := range g.readers {
		if err := g.closeReader(r); err != nil {
			g.logger.Error("closing reader", zap.Error(err))
		}
	}
	g.readers = nil
}

func (g *Glossary) closeReader(r plugin.Reader) (err error) {
	defer g.recoverPlugin("reader close", &err)
	//nolint:wrapcheck // error should not be wrapped
	return r.Close()
}

// Cleanup removes every temporary file created by the glossary unless the
// cleanup option is disabled. Cleanup is idempotent.
func (g *Glossary) Cleanup() error {
	if !g.config.Cleanup {
		g.scratch.Keep()
		return nil
	}
	if err := g.scratch.Cleanup(); err != nil {
		return fmt.Errorf("%w: cleanup: %w", ErrStorage, err)
	}
	return nil
}

// CleanupPaths returns the temporary paths that Cleanup would remove.
func (g *Glossary) CleanupPaths() []string {
	return g.scratch.Paths()
}

// Logger implements [plugin.Glossary.Logger].
func (g *Glossary) Logger() *zap.Logger {
	return g.logger
}

// Alts implements [plugin.Glossary.Alts].
func (g *Glossary) Alts() bool {
	return g.alts
}

// Filename implements [plugin.Glossary.Filename].
func (g *Glossary) Filename() string {
	return g.filename
}

// SetDefaultDefiFormat implements [plugin.Glossary.SetDefaultDefiFormat].
func (g *Glossary) SetDefaultDefiFormat(format entry.DefiFormat) {
	g.defaultDefiFormat = format
}

// DefaultDefiFormat returns the format of entries created without one.
func (g *Glossary) DefaultDefiFormat() entry.DefiFormat {
	return g.defaultDefiFormat
}

// NewEntry implements [plugin.Glossary.NewEntry].
func (g *Glossary) NewEntry(words []string, defi string, format entry.DefiFormat) (*entry.Entry, error) {
	if format == entry.UnsetFormat {
		format = g.defaultDefiFormat
	}
	//nolint:wrapcheck // error should not be wrapped
	return entry.New(words, defi, format)
}

// NewDataEntry implements [plugin.Glossary.NewDataEntry]. In direct mode the
// data is held in memory. Otherwise it is written to a temporary file that
// is removed by Cleanup.
func (g *Glossary) NewDataEntry(name string, data []byte) (*entry.DataEntry, error) {
	if len(g.readers) > 0 {
		//nolint:wrapcheck // error should not be wrapped
		return entry.NewDataEntry(name, data, "")
	}

	run, err := g.runDir()
	if err != nil {
		return nil, err
	}

	if g.tmpDataDir != "" {
		if !g.tmpDataCreated {
			if _, err := g.scratch.MkdirAll(g.runID, g.tmpDataDir); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrStorage, err)
			}
			g.tmpDataCreated = true
		}
		tmpPath := filepath.Join(run, g.tmpDataDir, strings.ReplaceAll(name, "/", "_"))
		//nolint:wrapcheck // error should not be wrapped
		return entry.NewDataEntry(name, data, tmpPath)
	}

	dir, err := g.scratch.MkdirAll(g.runID, "tmp")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	//nolint:wrapcheck // error should not be wrapped
	return entry.NewDataEntry(name, data, filepath.Join(dir, uuid.NewString()))
}

// setTmpDataDir sets the directory for resource files of the input
// filename. The directory is created on first use.
func (g *Glossary) setTmpDataDir(filename string) {
	if filename == "" {
		filename = uuid.NewString()
	}
	g.tmpDataDir = filepath.Base(filename) + "_res"
	g.tmpDataCreated = false
	g.logger.Debug("temporary data directory", zap.String("name", g.tmpDataDir))
}

// RemoveHTMLTagsAll implements [plugin.Glossary.RemoveHTMLTagsAll].
func (g *Glossary) RemoveHTMLTagsAll() {
	g.addExtraFilter(filter.RemoveHTMLAll())
}

// StripFullHTML implements [plugin.Glossary.StripFullHTML].
func (g *Glossary) StripFullHTML(onError func(e *entry.Entry, msg string)) {
	g.addExtraFilter(filter.StripFullHTML(onError, g.logger))
}

// PreventDuplicateWords implements [plugin.Glossary.PreventDuplicateWords].
func (g *Glossary) PreventDuplicateWords() {
	g.addExtraFilter(filter.PreventDuplicateWords())
}

func (g *Glossary) addExtraFilter(f filter.Filter) {
	if g.chain.Has(f.Name()) {
		return
	}
	g.extra.Add(f)
}

// Len implements [plugin.Glossary.Len]. Readers that do not know their
// entry count are counted as zero.
func (g *Glossary) Len() int {
	n := g.data.Len()
	for _, r := range g.readers {
		if c, err := g.readerLen(r); err == nil {
			n += c
		}
	}
	return n
}

func (g *Glossary) readerLen(r plugin.Reader) (n int, err error) {
	defer g.recoverPlugin("reader len", &err)
	//nolint:wrapcheck // error should not be wrapped
	return r.Len()
}

func (g *Glossary) progressInit(title string) {
	if g.ui != nil {
		g.ui.ProgressInit(title)
	}
}

func (g *Glossary) progressEnd() {
	if g.ui != nil {
		g.ui.ProgressEnd()
	}
}
