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

package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	glossary "github.com/ianlewis/go-glossary"
)

func newConvertCommand() *cli.Command {
	return &cli.Command{
		Name:      "convert",
		Usage:     "convert a glossary to another format",
		ArgsUsage: "INPUT [OUTPUT]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "read-format",
				Usage:   "input `FORMAT` (default: detect from the file name)",
				Aliases: []string{"i"},
			},
			&cli.StringFlag{
				Name:    "write-format",
				Usage:   "output `FORMAT` (default: detect from the file name)",
				Aliases: []string{"o"},
			},
			&cli.BoolFlag{
				Name:  "direct",
				Usage: "stream entries from the reader to the writer",
			},
			&cli.BoolFlag{
				Name:  "sort",
				Usage: "sort entries before writing",
			},
			&cli.StringFlag{
				Name:  "sort-key",
				Usage: "sort key `NAME` with an optional locale, e.g. headword_lower:fa_IR",
			},
			&cli.StringFlag{
				Name:  "sort-encoding",
				Usage: "`ENCODING` entries are sorted in",
			},
			&cli.BoolFlag{
				Name:  "sqlite",
				Usage: "store entries in a temporary SQLite database when sorting",
			},
			&cli.StringSliceFlag{
				Name:  "read-option",
				Usage: "reader option as `KEY=VALUE`",
			},
			&cli.StringSliceFlag{
				Name:  "write-option",
				Usage: "writer option as `KEY=VALUE`",
			},
			&cli.StringSliceFlag{
				Name:  "info",
				Usage: "override glossary info as `KEY=VALUE`",
			},
			&cli.BoolFlag{
				Name:  "no-progress-bar",
				Usage: "do not show progress bars",
			},
			&cli.BoolFlag{
				Name:  "no-cleanup",
				Usage: "keep temporary files",
			},
		},
		OnUsageError: usageError,
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 || c.NArg() > 2 {
				return fmt.Errorf("%w: expected INPUT [OUTPUT], got %d arguments", ErrFlagParse, c.NArg())
			}

			args := glossary.ConvertArgs{
				InputFilename:  c.Args().Get(0),
				OutputFilename: c.Args().Get(1),
				InputFormat:    c.String("read-format"),
				OutputFormat:   c.String("write-format"),
				Direct:         boolFlag(c, "direct"),
				Sort:           boolFlag(c, "sort"),
				SQLite:         boolFlag(c, "sqlite"),
				SortKeyName:    c.String("sort-key"),
				SortEncoding:   c.String("sort-encoding"),
			}

			var err error
			if args.ReadOptions, err = parseOptions(c.StringSlice("read-option")); err != nil {
				return err
			}
			if args.WriteOptions, err = parseOptions(c.StringSlice("write-option")); err != nil {
				return err
			}
			info, err := parseKeyValues(c.StringSlice("info"))
			if err != nil {
				return err
			}
			args.InfoOverride = info

			var ui glossary.UI
			if !c.Bool("no-progress-bar") {
				ui = newProgressBar(c.App.ErrWriter)
			}
			g, l, err := newGlossary(c, ui)
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()

			out, err := g.Convert(c.Context, args)
			if err != nil {
				return fmt.Errorf("converting %q: %w", args.InputFilename, err)
			}
			l.Info("wrote output", zap.String("file", out))
			return nil
		},
	}
}

// boolFlag returns nil if the flag was not given so that the decision is
// left to the output format.
func boolFlag(c *cli.Context, name string) *bool {
	if !c.IsSet(name) {
		return nil
	}
	b := c.Bool(name)
	return &b
}

func parseKeyValues(values []string) (map[string]string, error) {
	if len(values) == 0 {
		return nil, nil
	}
	m := make(map[string]string, len(values))
	for _, v := range values {
		k, val, ok := strings.Cut(v, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: expected KEY=VALUE, got %q", ErrFlagParse, v)
		}
		m[k] = val
	}
	return m, nil
}

// parseOptions parses plugin options. Values are kept as strings and
// converted by the format's option schema.
func parseOptions(values []string) (map[string]any, error) {
	kv, err := parseKeyValues(values)
	if err != nil || kv == nil {
		return nil, err
	}
	opts := make(map[string]any, len(kv))
	for k, v := range kv {
		opts[k] = v
	}
	return opts, nil
}
