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

	"github.com/k3a/html2text"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/text/transform"

	glossary "github.com/ianlewis/go-glossary"
	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/internal/folding"
	"github.com/ianlewis/go-glossary/internal/index"
)

func newLookupCommand() *cli.Command {
	return &cli.Command{
		Name:      "lookup",
		Usage:     "look up a headword in a glossary",
		ArgsUsage: "FILE QUERY",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "read-format",
				Usage:   "input `FORMAT` (default: detect from the file name)",
				Aliases: []string{"i"},
			},
			&cli.BoolFlag{
				Name:  "prefix",
				Usage: "match headwords starting with QUERY",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "print at most `N` prefix matches",
				Value: 20,
			},
			&cli.BoolFlag{
				Name:  "raw",
				Usage: "print HTML definitions as is",
			},
		},
		OnUsageError: usageError,
		Action: func(c *cli.Context) (err error) {
			if c.NArg() != 2 {
				return fmt.Errorf("%w: expected FILE QUERY, got %d arguments", ErrFlagParse, c.NArg())
			}
			path, query := c.Args().Get(0), c.Args().Get(1)

			g, l, err := newGlossary(c, nil)
			if err != nil {
				return err
			}
			defer func() { _ = l.Sync() }()
			defer func() {
				g.Clear()
				if cerr := g.Cleanup(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			if err := g.Read(c.Context, path, glossary.ReadArgs{
				Format: c.String("read-format"),
				Direct: true,
			}); err != nil {
				return fmt.Errorf("reading %q: %w", path, err)
			}

			idx := index.New[*entry.Entry](foldHeadword)
			for item, err := range g.Entries() {
				if err != nil {
					return fmt.Errorf("reading %q: %w", path, err)
				}
				if e, ok := item.(*entry.Entry); ok {
					idx.Add(e.Words(), e)
				}
			}
			l.Debug("indexed headwords", zap.Int("count", idx.Len()))

			var results []*entry.Entry
			if c.Bool("prefix") {
				results = idx.Prefix(query, c.Int("limit"))
			} else {
				results = idx.Search(query)
			}
			if len(results) == 0 {
				fmt.Fprintf(c.App.ErrWriter, "no entries found for %q\n", query)
				return nil
			}

			for _, e := range results {
				defi := e.Defi()
				if e.DefiFormat() == entry.HTML && !c.Bool("raw") {
					defi = html2text.HTML2Text(defi)
				}
				fmt.Fprintln(c.App.Writer, strings.Join(e.Words(), " | "))
				fmt.Fprintln(c.App.Writer, defi)
				fmt.Fprintln(c.App.Writer)
			}
			return nil
		},
	}
}

// foldHeadword normalizes a headword for lookup.
func foldHeadword(s string) string {
	out, _, err := transform.String(folding.Headword(), s)
	if err != nil {
		return s
	}
	return out
}
