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
	"io"
	"os"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/compression"
	"github.com/ianlewis/go-glossary/internal/memstat"
)

// ConvertArgs are arguments for Convert. Nil tri-state flags mean the
// decision is left to the output format and the configuration.
type ConvertArgs struct {
	InputFilename  string
	InputFormat    string
	OutputFilename string
	OutputFormat   string

	// Direct streams entries from the reader to the writer.
	Direct *bool

	// Sort sorts entries before writing.
	Sort *bool

	// SQLite stores entries in a temporary SQLite database when sorting.
	SQLite *bool

	// SortKeyName is the sort key name with an optional locale after a
	// colon.
	SortKeyName string

	// SortEncoding is the encoding entries are sorted in.
	SortEncoding string

	ReadOptions  map[string]any
	WriteOptions map[string]any

	// InfoOverride replaces glossary info values after reading.
	InfoOverride map[string]string
}

// Convert converts the input file to the output file and returns the path of
// the written file. Temporary files are removed whether or not the
// conversion succeeds unless cleanup is disabled.
func (g *Glossary) Convert(ctx context.Context, args ConvertArgs) (_ string, err error) {
	if !g.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer g.busy.Store(false)

	defer func() {
		g.Clear()
		if cerr := g.Cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	defer g.recoverPlugin("convert", &err)

	if args.OutputFilename != "" && args.OutputFilename == args.InputFilename {
		g.logger.Error("input and output files are the same", zap.String("file", args.InputFilename))
		return "", fmt.Errorf("%w: input and output files are the same", ErrConfiguration)
	}

	start := time.Now()

	out, err := g.registry.DetectOutput(args.OutputFilename, args.OutputFormat, args.InputFilename)
	if err != nil {
		g.logger.Error("detecting output format", zap.String("file", args.OutputFilename), zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrFatalInput, err)
	}

	if nonEmptyDir(out.Filename) {
		g.logger.Error("directory already exists and is not empty", zap.String("dir", out.Filename))
		return "", fmt.Errorf("%w: directory %q already exists and is not empty", ErrConfiguration, out.Filename)
	}

	direct, sort, err := g.resolveSortParams(&args, out.Plugin)
	if err != nil {
		return "", err
	}

	memstat.Log(g.logger, "before read")
	g.setTmpDataDir(args.InputFilename)

	if err := g.Read(ctx, args.InputFilename, ReadArgs{
		Format:  args.InputFormat,
		Direct:  direct,
		Options: args.ReadOptions,
	}); err != nil {
		g.logger.Error("reading input failed", zap.String("file", args.InputFilename), zap.Error(err))
		return "", err
	}

	g.detectLangsFromName()

	keys := make([]string, 0, len(args.InfoOverride))
	for k := range args.InfoOverride {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		g.SetInfo(k, args.InfoOverride[k])
	}

	if out.Compression != compression.None && !out.Plugin.SingleFile {
		if err := os.MkdirAll(out.Filename, 0o700); err != nil {
			return "", fmt.Errorf("%w: %w", ErrFatalInput, err)
		}
	}

	final, err := g.Write(ctx, out.Filename, out.Plugin.Name, WriteArgs{
		Sort:    sort,
		Options: args.WriteOptions,
	})
	if err != nil {
		g.logger.Error("writing output failed", zap.String("file", out.Filename), zap.Error(err))
		return "", err
	}

	if out.Compression != compression.None {
		final, err = compression.Compress(final, out.Compression)
		if err != nil {
			g.logger.Error("compressing output failed", zap.String("file", out.Filename), zap.Error(err))
			return "", fmt.Errorf("%w: %w", ErrGlossary, err)
		}
	}

	g.logger.Info("conversion done",
		zap.String("file", final),
		zap.Duration("duration", time.Since(start)),
	)
	memstat.Log(g.logger, "after convert")
	return final, nil
}

// nonEmptyDir returns true if path is a directory with at least one entry.
func nonEmptyDir(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil || !fi.IsDir() {
		return false
	}
	_, err = f.Readdirnames(1)
	return !errors.Is(err, io.EOF)
}
