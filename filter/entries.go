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

package filter

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/internal/folding"
)

// Filter names.
const (
	TrimWhitespacesName       = "trim_whitespaces"
	NonEmptyWordName          = "non_empty_word"
	SkipResourcesName         = "skip_resources"
	UTF8CheckName             = "utf8_check"
	LowerName                 = "lower"
	RTLName                   = "rtl"
	SkipDuplicateHeadwordName = "skip_duplicate_headword"
	PreventDuplicateWordsName = "prevent_duplicate_words"
	RemoveEmptyDupAltsName    = "remove_empty_dup_alts"
)

// entryFunc adapts a function on *entry.Entry to a Filter. Data entries are
// passed through unchanged.
type entryFunc struct {
	name string
	fn   func(e *entry.Entry) (*entry.Entry, bool)
}

func (f *entryFunc) Name() string   { return f.name }
func (f *entryFunc) Prepare() error { return nil }

func (f *entryFunc) Run(item entry.Item) (entry.Item, bool) {
	e, ok := item.(*entry.Entry)
	if !ok {
		return item, true
	}
	out, ok := f.fn(e)
	if !ok {
		return nil, false
	}
	return out, true
}

// mapWords applies fn to every headword. Words that map to an empty string
// are removed. The entry is returned unchanged if the primary headword maps
// to an empty string.
func mapWords(e *entry.Entry, fn func(string) string) *entry.Entry {
	words := e.Words()
	out := make([]string, 0, len(words))
	for i, w := range words {
		w = fn(w)
		if w == "" {
			if i == 0 {
				return e
			}
			continue
		}
		out = append(out, w)
	}
	n, err := e.WithWords(out)
	if err != nil {
		return e
	}
	return n
}

// TrimWhitespaces folds whitespace in headwords and trims the definition.
func TrimWhitespaces() Filter {
	return &entryFunc{
		name: TrimWhitespacesName,
		fn: func(e *entry.Entry) (*entry.Entry, bool) {
			e = mapWords(e, folding.Whitespace)
			return e.WithDefi(strings.TrimSpace(e.Defi())), true
		},
	}
}

// NonEmptyWord drops items whose primary headword is blank.
func NonEmptyWord(logger *zap.Logger) Filter {
	return &nonEmptyWord{logger: logger}
}

type nonEmptyWord struct {
	logger *zap.Logger
}

func (*nonEmptyWord) Name() string   { return NonEmptyWordName }
func (*nonEmptyWord) Prepare() error { return nil }

func (f *nonEmptyWord) Run(item entry.Item) (entry.Item, bool) {
	if strings.TrimSpace(item.Word()) == "" {
		f.logger.Debug("dropping entry with empty headword", zap.Strings("words", item.Words()))
		return nil, false
	}
	return item, true
}

// SkipResources drops data entries.
func SkipResources() Filter {
	return skipResources{}
}

type skipResources struct{}

func (skipResources) Name() string   { return SkipResourcesName }
func (skipResources) Prepare() error { return nil }

func (skipResources) Run(item entry.Item) (entry.Item, bool) {
	if item.IsData() {
		return nil, false
	}
	return item, true
}

// UTF8Check replaces invalid UTF-8 in headwords and definitions and
// normalizes them to NFC.
func UTF8Check(logger *zap.Logger) Filter {
	fix := func(s string) string {
		if !utf8.ValidString(s) {
			s = strings.ToValidUTF8(s, string(utf8.RuneError))
			logger.Error("invalid utf-8", zap.String("text", s))
		}
		return norm.NFC.String(s)
	}
	return &entryFunc{
		name: UTF8CheckName,
		fn: func(e *entry.Entry) (*entry.Entry, bool) {
			e = mapWords(e, fix)
			return e.WithDefi(fix(e.Defi())), true
		},
	}
}

// Lower lowercases headwords.
func Lower() Filter {
	caser := cases.Lower(language.Und)
	return &entryFunc{
		name: LowerName,
		fn: func(e *entry.Entry) (*entry.Entry, bool) {
			return mapWords(e, caser.String), true
		},
	}
}

// RTL marks definitions as right-to-left text.
func RTL() Filter {
	return &entryFunc{
		name: RTLName,
		fn: func(e *entry.Entry) (*entry.Entry, bool) {
			return e.WithDefi(`<div dir="rtl">` + e.Defi() + `</div>`), true
		},
	}
}

// RemoveEmptyDupAlts removes empty and repeated headwords keeping the first
// occurrence.
func RemoveEmptyDupAlts() Filter {
	return &entryFunc{
		name: RemoveEmptyDupAltsName,
		fn: func(e *entry.Entry) (*entry.Entry, bool) {
			words := e.Words()
			if len(words) < 2 {
				return e, true
			}
			seen := make(map[string]bool, len(words))
			return mapWords(e, func(w string) string {
				if seen[w] {
					return ""
				}
				seen[w] = true
				return w
			}), true
		},
	}
}

// SkipDuplicateHeadword drops entries whose primary headword was already
// seen. Headwords are compared case-insensitively. The filter keeps the set
// of seen headwords for the whole stream.
func SkipDuplicateHeadword(logger *zap.Logger) Filter {
	return &skipDuplicateHeadword{
		logger: logger,
		fold:   cases.Fold(),
	}
}

type skipDuplicateHeadword struct {
	logger *zap.Logger
	fold   cases.Caser
	seen   map[string]struct{}
}

func (*skipDuplicateHeadword) Name() string { return SkipDuplicateHeadwordName }

func (f *skipDuplicateHeadword) Prepare() error {
	f.seen = map[string]struct{}{}
	return nil
}

func (f *skipDuplicateHeadword) Run(item entry.Item) (entry.Item, bool) {
	if item.IsData() {
		return item, true
	}
	if f.seen == nil {
		f.seen = map[string]struct{}{}
	}
	key := f.fold.String(item.Word())
	if _, ok := f.seen[key]; ok {
		f.logger.Debug("skipping duplicate headword", zap.String("word", item.Word()))
		return nil, false
	}
	f.seen[key] = struct{}{}
	return item, true
}

// PreventDuplicateWords renames entries whose primary headword was already
// seen by appending a counter, e.g. "cat (2)".
func PreventDuplicateWords() Filter {
	return &preventDuplicateWords{}
}

type preventDuplicateWords struct {
	seen map[string]struct{}
}

func (*preventDuplicateWords) Name() string { return PreventDuplicateWordsName }

func (f *preventDuplicateWords) Prepare() error {
	f.seen = map[string]struct{}{}
	return nil
}

func (f *preventDuplicateWords) Run(item entry.Item) (entry.Item, bool) {
	e, ok := item.(*entry.Entry)
	if !ok {
		return item, true
	}
	if f.seen == nil {
		f.seen = map[string]struct{}{}
	}
	word := e.Word()
	if _, ok := f.seen[word]; !ok {
		f.seen[word] = struct{}{}
		return e, true
	}

	i := 2
	for {
		if _, ok := f.seen[fmt.Sprintf("%s (%d)", word, i)]; !ok {
			break
		}
		i++
	}
	renamed := fmt.Sprintf("%s (%d)", word, i)
	f.seen[renamed] = struct{}{}

	words := e.Words()
	words[0] = renamed
	n, err := e.WithWords(words)
	if err != nil {
		return e, true
	}
	return n, true
}
