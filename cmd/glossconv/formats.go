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

	"github.com/fatih/color"
	"github.com/rodaine/table"
	"github.com/urfave/cli/v2"

	"github.com/ianlewis/go-glossary/formats"
	"github.com/ianlewis/go-glossary/plugin"
)

func newFormatsCommand() *cli.Command {
	return &cli.Command{
		Name:         "formats",
		Usage:        "list the supported formats or the options of a format",
		ArgsUsage:    "[FORMAT]",
		OnUsageError: usageError,
		Action: func(c *cli.Context) error {
			r := formats.Registry()
			headerFmt := color.New(color.Underline).SprintfFunc()

			if c.NArg() == 0 {
				tbl := table.New("Name", "Description", "Extensions", "Read", "Write", "Sort").
					WithWriter(c.App.Writer).
					WithHeaderFormatter(headerFmt)
				for _, p := range r.Plugins() {
					tbl.AddRow(
						p.Name,
						p.Desc,
						strings.Join(p.Extensions, " "),
						yesNo(p.CanRead()),
						yesNo(p.CanWrite()),
						p.SortPolicy,
					)
				}
				tbl.Print()
				return nil
			}

			name := c.Args().First()
			p, ok := r.Get(name)
			if !ok {
				return fmt.Errorf("%w: %w: %q", ErrFlagParse, plugin.ErrUnknownFormat, name)
			}
			tbl := table.New("Mode", "Option", "Type", "Default", "Comment").
				WithWriter(c.App.Writer).
				WithHeaderFormatter(headerFmt)
			for _, o := range p.ReadOptions {
				tbl.AddRow("read", o.Name, o.Type, defaultText(o.Default), o.Comment)
			}
			for _, o := range p.WriteOptions {
				tbl.AddRow("write", o.Name, o.Type, defaultText(o.Default), o.Comment)
			}
			tbl.Print()
			return nil
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func defaultText(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
