// Copyright 2025 Ian Lewis
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

// Package entry implements glossary entries.
//
// A glossary is a stream of items. Each item is either an [Entry], a set of
// headwords with a single definition, or a [DataEntry], a binary attachment
// such as an image or a sound file referenced by definitions.
package entry

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
)

var (
	// ErrNoWords indicates that an entry was created without headwords.
	ErrNoWords = errors.New("entry has no headwords")

	// ErrEmptyWord indicates that an entry has an empty headword.
	ErrEmptyWord = errors.New("empty headword")

	// ErrInvalidFormat indicates an unknown definition format.
	ErrInvalidFormat = errors.New("invalid definition format")
)

// DefiFormat is the format of an entry's definition.
type DefiFormat byte

const (
	// UnsetFormat means the definition format should be inherited from the
	// glossary's default format.
	UnsetFormat = DefiFormat(0)

	// PlainText is a plain text definition.
	PlainText = DefiFormat('m')

	// HTML is an HTML definition.
	HTML = DefiFormat('h')

	// XDXF is a definition in the XDXF format.
	XDXF = DefiFormat('x')
)

// String returns the single letter code of the format.
func (f DefiFormat) String() string {
	if f == UnsetFormat {
		return ""
	}
	return string(rune(f))
}

// Valid returns true if f is one of the recognized formats.
func (f DefiFormat) Valid() bool {
	switch f {
	case PlainText, HTML, XDXF:
		return true
	default:
		return false
	}
}

// ParseDefiFormat parses a definition format code. The empty string parses
// to [UnsetFormat].
func ParseDefiFormat(s string) (DefiFormat, error) {
	switch s {
	case "":
		return UnsetFormat, nil
	case "m", "plaintext", "text":
		return PlainText, nil
	case "h", "html":
		return HTML, nil
	case "x", "xdxf":
		return XDXF, nil
	default:
		return UnsetFormat, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
}

// Item is a single element of a glossary stream. Items are either *Entry or
// *DataEntry values and are never nil.
type Item interface {
	// Words returns the item's headwords. The first is the primary headword.
	Words() []string

	// Word returns the primary headword.
	Word() string

	// IsData returns true for binary attachments.
	IsData() bool
}

// Entry is a glossary entry. Entries are immutable. Methods that change an
// entry return a modified copy.
type Entry struct {
	words  []string
	defi   string
	format DefiFormat

	bytePos   int64
	byteTotal int64
}

// New returns a new entry. words must contain at least one non-empty word.
// format may be UnsetFormat in which case the caller is responsible for
// setting a format before handing the entry to a writer.
func New(words []string, defi string, format DefiFormat) (*Entry, error) {
	if len(words) == 0 {
		return nil, ErrNoWords
	}
	for i, w := range words {
		if w == "" {
			return nil, fmt.Errorf("%w: index %d", ErrEmptyWord, i)
		}
	}
	if format != UnsetFormat && !format.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFormat, byte(format))
	}

	return &Entry{
		words:  slices.Clone(words),
		defi:   defi,
		format: format,
	}, nil
}

// Words implements [Item.Words].
func (e *Entry) Words() []string {
	return slices.Clone(e.words)
}

// Word implements [Item.Word].
func (e *Entry) Word() string {
	return e.words[0]
}

// Alternates returns the entry's alternate headwords.
func (e *Entry) Alternates() []string {
	return slices.Clone(e.words[1:])
}

// IsData implements [Item.IsData].
func (e *Entry) IsData() bool {
	return false
}

// Defi returns the entry's definition.
func (e *Entry) Defi() string {
	return e.defi
}

// DefiFormat returns the entry's definition format.
func (e *Entry) DefiFormat() DefiFormat {
	return e.format
}

// ByteProgress returns the reader's byte position at the time the entry was
// read. ok is false if the reader did not record a position.
func (e *Entry) ByteProgress() (pos, total int64, ok bool) {
	return e.bytePos, e.byteTotal, e.byteTotal > 0
}

// WithWords returns a copy of the entry with the given headwords. Empty
// headwords are rejected.
func (e *Entry) WithWords(words []string) (*Entry, error) {
	n, err := New(words, e.defi, e.format)
	if err != nil {
		return nil, err
	}
	n.bytePos, n.byteTotal = e.bytePos, e.byteTotal
	return n, nil
}

// WithDefi returns a copy of the entry with the given definition.
func (e *Entry) WithDefi(defi string) *Entry {
	n := *e
	n.defi = defi
	return &n
}

// WithDefiFormat returns a copy of the entry with the given definition format.
func (e *Entry) WithDefiFormat(format DefiFormat) *Entry {
	n := *e
	n.format = format
	return &n
}

// WithByteProgress returns a copy of the entry with a byte progress marker.
func (e *Entry) WithByteProgress(pos, total int64) *Entry {
	n := *e
	n.bytePos, n.byteTotal = pos, total
	return &n
}

var (
	xdxfRegex = regexp.MustCompile(`<(k|def|dtrn|kref|ex|abr|c)[ >]`)
	htmlRegex = regexp.MustCompile(`(?i)<(br|p|div|b|i|u|a|span|font|img|ol|ul|li|big|small|sup|sub|table|h[1-6])[ />]|&[a-z]+;`)
)

// DetectDefiFormat returns a copy of the entry with a definition format
// guessed from the definition. The format is only changed if the entry is
// plain text or unset.
func (e *Entry) DetectDefiFormat() *Entry {
	if e.format != UnsetFormat && e.format != PlainText {
		return e
	}
	switch {
	case xdxfRegex.MatchString(e.defi):
		return e.WithDefiFormat(XDXF)
	case htmlRegex.MatchString(e.defi):
		return e.WithDefiFormat(HTML)
	default:
		return e.WithDefiFormat(PlainText)
	}
}

// String returns a string representation of the Entry.
func (e *Entry) String() string {
	return strings.Join(e.words, " | ") + "\n" + e.defi
}
