// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package stardict implements reading and writing StarDict dictionaries.
//
// Stardict dictionaries contain several files:
//  1. An .ifo file that contains metadata about the dictionary.
//  2. An .idx file that contains the dictionary index. It contains headwords
//     and associated offsets into the .dict file. The index file can be
//     compressed using gzip.
//  3. A .dict file that contains the dictionary's article data. The dict file
//     can be compressed using the dictzip format.
//  4. An optional .syn file that maps alternate headwords to index entries.
//  5. An optional res/ directory holding resource files.
//
// More info on on the dictionary format can be found at this URL:
// https://github.com/huzheng001/stardict-3/blob/master/dict/doc/StarDictFileFormat
package stardict

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/formats/stardict/dict"
	"github.com/ianlewis/go-glossary/plugin"
)

const (
	// Name is the format name.
	Name = "Stardict"

	// SortKeyName is the sort key required by StarDict readers.
	SortKeyName = "stardict"
)

// Plugin returns the StarDict format plugin.
func Plugin() *plugin.Plugin {
	return &plugin.Plugin{
		Name:            Name,
		Desc:            "StarDict (.ifo)",
		Extensions:      []string{".ifo"},
		ExtensionCreate: "-stardict/",
		ReadOptions: []plugin.Option{
			{Name: "resources", Type: plugin.Bool, Default: true, Comment: "Read resource files from res/"},
		},
		WriteOptions: []plugin.Option{
			{Name: "dictzip", Type: plugin.Bool, Default: true, Comment: "Compress .dict file with dictzip"},
			{Name: "sametypesequence", Type: plugin.Str, Default: "", Comment: "Definition format: m, h, x or empty for mixed"},
		},
		SortPolicy:   plugin.Always,
		SortKeyName:  SortKeyName,
		SortEncoding: "utf-8",
		NewReader:    newReader,
		NewWriter:    newWriter,
	}
}

// dataTypeOf returns the article data type for a definition format.
func dataTypeOf(f entry.DefiFormat) dict.DataType {
	switch f {
	case entry.HTML:
		return dict.HTMLType
	case entry.XDXF:
		return dict.XDXFType
	default:
		return dict.UTFTextType
	}
}

// defiFormatOf returns the definition format for an article data type.
func defiFormatOf(t dict.DataType) entry.DefiFormat {
	switch t {
	case dict.HTMLType:
		return entry.HTML
	case dict.XDXFType:
		return entry.XDXF
	default:
		return entry.PlainText
	}
}

// findFile returns the first existing file among base+ext for exts.
func findFile(base string, exts ...string) (string, error) {
	for _, ext := range exts {
		path := base + ext
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %w", plugin.ErrFormat, err)
		}
	}
	return "", fmt.Errorf("%s%s: %w", base, exts[0], fs.ErrNotExist)
}

// findIfo returns the .ifo file for path. path is either an .ifo file or a
// directory holding exactly one.
func findIfo(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("opening %q: %w", path, err)
	}
	if !fi.IsDir() {
		if !strings.EqualFold(filepath.Ext(path), ".ifo") {
			return "", fmt.Errorf("%w: bad extension: %q", plugin.ErrFormat, filepath.Ext(path))
		}
		return path, nil
	}

	var ifos []string
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("opening %q: %w", path, err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".ifo") {
			ifos = append(ifos, filepath.Join(path, e.Name()))
		}
	}
	switch len(ifos) {
	case 0:
		return "", fmt.Errorf("no .ifo file in %q: %w", path, fs.ErrNotExist)
	case 1:
		return ifos[0], nil
	default:
		return "", fmt.Errorf("%w: %d .ifo files in %q", plugin.ErrFormat, len(ifos), path)
	}
}
