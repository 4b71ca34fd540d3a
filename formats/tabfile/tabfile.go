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

// Package tabfile implements tab separated glossary files.
//
// Each line holds the headwords of an entry separated by "|", a tab and the
// definition. Newlines, tabs and backslashes in headwords and definitions
// are escaped as "\n", "\t" and "\\". Lines starting with "##" hold glossary
// info. Resource files are kept in a directory named after the file with a
// "_res" suffix.
package tabfile

import (
	"strings"

	"github.com/ianlewis/go-glossary/plugin"
)

// Name is the format name.
const Name = "Tabfile"

// Plugin returns the Tabfile format plugin.
func Plugin() *plugin.Plugin {
	return &plugin.Plugin{
		Name:            Name,
		Desc:            "Tabfile (.txt, .tab)",
		Extensions:      []string{".txt", ".tab", ".tsv"},
		ExtensionCreate: ".txt",
		SingleFile:      true,
		ReadOptions: []plugin.Option{
			{Name: "encoding", Type: plugin.Encoding, Default: "utf-8", Comment: "Encoding/charset"},
			{Name: "resources", Type: plugin.Bool, Default: true, Comment: "Read resources from <file>_res"},
		},
		WriteOptions: []plugin.Option{
			{Name: "encoding", Type: plugin.Encoding, Default: "utf-8", Comment: "Encoding/charset"},
			{Name: "enable_info", Type: plugin.Bool, Default: true, Comment: "Write glossary info as ##key lines"},
			{Name: "resources", Type: plugin.Bool, Default: true, Comment: "Write resources to <file>_res"},
			{Name: "word_title", Type: plugin.Bool, Default: false, Comment: "Add headwords title to HTML definitions"},
		},
		SortPolicy: plugin.DefaultNo,
		NewReader:  newReader,
		NewWriter:  newWriter,
	}
}

var (
	escaper       = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`, "\r", "")
	wordEscaper   = strings.NewReplacer(`\`, `\\`, "\n", `\n`, "\t", `\t`, "\r", "", "|", `\|`)
	unescaper     = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t")
	wordUnescaper = strings.NewReplacer(`\\`, `\`, `\n`, "\n", `\t`, "\t", `\|`, "|")
)

// splitWords splits a headword field on unescaped "|" and unescapes each
// headword.
func splitWords(s string) []string {
	var words []string
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			b.WriteByte(c)
			b.WriteByte(s[i+1])
			i++
		case c == '|':
			words = append(words, wordUnescaper.Replace(b.String()))
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	return append(words, wordUnescaper.Replace(b.String()))
}
