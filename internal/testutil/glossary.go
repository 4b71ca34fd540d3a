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

// Package testutil implements helpers for testing glossary formats and the
// conversion engine.
package testutil

import (
	"iter"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/plugin"
)

// Glossary is an in-memory [plugin.Glossary] for format tests.
type Glossary struct {
	// NoAlts disables alternate headwords.
	NoAlts bool

	// Name is returned by Filename.
	Name string

	// Count is returned by Len.
	Count int

	// DefaultFormat is the format of entries created without one.
	DefaultFormat entry.DefiFormat

	// Filters requested by a writer factory.
	RemovedHTML    bool
	StrippedHTML   bool
	PreventedDupes bool

	info     map[string]string
	infoKeys []string
	logger   *zap.Logger
}

// NewGlossary returns a new Glossary.
func NewGlossary() *Glossary {
	return &Glossary{
		DefaultFormat: entry.PlainText,
		info:          map[string]string{},
		logger:        zap.NewNop(),
	}
}

// NewEntry implements [plugin.Glossary.NewEntry].
func (g *Glossary) NewEntry(words []string, defi string, format entry.DefiFormat) (*entry.Entry, error) {
	if format == entry.UnsetFormat {
		format = g.DefaultFormat
	}
	//nolint:wrapcheck // error should not be wrapped
	return entry.New(words, defi, format)
}

// NewDataEntry implements [plugin.Glossary.NewDataEntry].
func (*Glossary) NewDataEntry(name string, data []byte) (*entry.DataEntry, error) {
	//nolint:wrapcheck // error should not be wrapped
	return entry.NewDataEntry(name, data, "")
}

// SetInfo implements [plugin.Glossary.SetInfo].
func (g *Glossary) SetInfo(key, value string) {
	if _, ok := g.info[key]; !ok {
		g.infoKeys = append(g.infoKeys, key)
	}
	g.info[key] = value
}

// Info implements [plugin.Glossary.Info].
func (g *Glossary) Info(key string) string {
	return g.info[key]
}

// InfoKeys implements [plugin.Glossary.InfoKeys].
func (g *Glossary) InfoKeys() []string {
	return slices.Clone(g.infoKeys)
}

// SetDefaultDefiFormat implements [plugin.Glossary.SetDefaultDefiFormat].
func (g *Glossary) SetDefaultDefiFormat(format entry.DefiFormat) {
	g.DefaultFormat = format
}

// Alts implements [plugin.Glossary.Alts].
func (g *Glossary) Alts() bool {
	return !g.NoAlts
}

// WordTitle implements [plugin.Glossary.WordTitle].
func (*Glossary) WordTitle(word, _, _ string) string {
	return "<b>" + word + "</b><br>"
}

// Len implements [plugin.Glossary.Len].
func (g *Glossary) Len() int {
	return g.Count
}

// Filename implements [plugin.Glossary.Filename].
func (g *Glossary) Filename() string {
	return g.Name
}

// RemoveHTMLTagsAll implements [plugin.Glossary.RemoveHTMLTagsAll].
func (g *Glossary) RemoveHTMLTagsAll() {
	g.RemovedHTML = true
}

// StripFullHTML implements [plugin.Glossary.StripFullHTML].
func (g *Glossary) StripFullHTML(func(*entry.Entry, string)) {
	g.StrippedHTML = true
}

// PreventDuplicateWords implements [plugin.Glossary.PreventDuplicateWords].
func (g *Glossary) PreventDuplicateWords() {
	g.PreventedDupes = true
}

// Logger implements [plugin.Glossary.Logger].
func (g *Glossary) Logger() *zap.Logger {
	return g.logger
}

// Entries builds entries from a headword to definition list. Headwords are
// split on "|".
func Entries(t *testing.T, pairs ...string) []entry.Item {
	t.Helper()
	if len(pairs)%2 != 0 {
		t.Fatalf("odd number of headword/definition values: %d", len(pairs))
	}
	var items []entry.Item
	for i := 0; i < len(pairs); i += 2 {
		e, err := entry.New(strings.Split(pairs[i], "|"), pairs[i+1], entry.PlainText)
		if err != nil {
			t.Fatal(err)
		}
		items = append(items, e)
	}
	return items
}

// Collect drains a sequence. The test fails on the first error.
func Collect(t *testing.T, seq iter.Seq2[entry.Item, error]) []entry.Item {
	t.Helper()
	var items []entry.Item
	for item, err := range seq {
		if err != nil {
			t.Fatal(err)
		}
		items = append(items, item)
	}
	return items
}

// Summary is a comparable view of an item.
type Summary struct {
	Words  []string
	Defi   string
	Format string
	Data   string
}

// Summarize returns comparable views of items.
func Summarize(t *testing.T, items []entry.Item) []Summary {
	t.Helper()
	var s []Summary
	for _, item := range items {
		switch it := item.(type) {
		case *entry.Entry:
			s = append(s, Summary{
				Words:  it.Words(),
				Defi:   it.Defi(),
				Format: it.DefiFormat().String(),
			})
		case *entry.DataEntry:
			b, err := it.Data()
			if err != nil {
				t.Fatal(err)
			}
			s = append(s, Summary{
				Words: it.Words(),
				Data:  string(b),
			})
		}
	}
	return s
}

var _ plugin.Glossary = (*Glossary)(nil)
