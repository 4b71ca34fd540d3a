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

// Package sortkey implements named sort keys for glossary entries.
//
// A sort key maps an entry's headwords to a byte string. Entries are ordered
// by comparing their keys with [bytes.Compare] which allows the same key to
// be used for in-memory sorting and for ordering in an on-disk index.
package sortkey

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/language"
)

// DefaultName is the name of the default sort key.
const DefaultName = "headword_lower"

// DefaultEncoding is the default sort encoding.
const DefaultEncoding = "utf-8"

var (
	// ErrUnknownKey indicates a sort key name that is not registered.
	ErrUnknownKey = errors.New("unknown sort key")

	// ErrInvalidLocale indicates an unparsable sort locale.
	ErrInvalidLocale = errors.New("invalid sort locale")

	// ErrInvalidEncoding indicates an unknown sort encoding.
	ErrInvalidEncoding = errors.New("invalid sort encoding")
)

// params are the resolved parameters a named sort key is built from.
type params struct {
	// encode encodes a string with the sort encoding.
	encode func(string) []byte

	// lower lowercases a string.
	lower func(string) string

	// collator is non-nil if a locale was given.
	collator *collate.Collator

	writeOptions map[string]any
}

// NamedSortKey is a registered sort key.
type NamedSortKey struct {
	// Name is the name used to select the key.
	Name string

	// Desc is a short human readable description.
	Desc string

	build func(p *params) func(words []string) []byte
}

var namedKeys = []*NamedSortKey{
	{
		Name: "headword",
		Desc: "Headword",
		build: func(p *params) func([]string) []byte {
			if p.collator != nil {
				return func(words []string) []byte {
					return p.collator.KeyFromString(&collate.Buffer{}, words[0])
				}
			}
			return func(words []string) []byte {
				return p.encode(words[0])
			}
		},
	},
	{
		Name: "headword_lower",
		Desc: "Lowercase Headword",
		build: func(p *params) func([]string) []byte {
			if p.collator != nil {
				return func(words []string) []byte {
					return p.collator.KeyFromString(&collate.Buffer{}, p.lower(words[0]))
				}
			}
			return func(words []string) []byte {
				return p.encode(p.lower(words[0]))
			}
		},
	},
	{
		Name: "headword_bytes_lower",
		Desc: "ASCII-Lowercase Headword",
		build: func(p *params) func([]string) []byte {
			return func(words []string) []byte {
				return asciiLower(p.encode(words[0]))
			}
		},
	},
	{
		Name: "stardict",
		Desc: "StarDict",
		build: func(p *params) func([]string) []byte {
			return func(words []string) []byte {
				b := p.encode(words[0])
				key := asciiLower(b)
				key = append(key, 0)
				return append(key, b...)
			}
		},
	},
	{
		Name: "ebook",
		Desc: "E-Book (prefix length: 2)",
		build: func(p *params) func([]string) []byte {
			return ebookKey(p, 2)
		},
	},
	{
		Name: "ebook_length3",
		Desc: "E-Book (prefix length: 3)",
		build: func(p *params) func([]string) []byte {
			return ebookKey(p, 3)
		},
	},
}

// ebookKey groups entries by a lowercase prefix. The prefix length may be
// overridden by the writer's group_by_prefix_length option.
func ebookKey(p *params, length int) func([]string) []byte {
	if v, ok := p.writeOptions["group_by_prefix_length"]; ok {
		var n int
		if err := mapstructure.WeakDecode(v, &n); err == nil {
			length = n
		}
	}
	return func(words []string) []byte {
		w := p.lower(words[0])
		prefix := []rune(w)
		if len(prefix) > length {
			prefix = prefix[:length]
		}
		key := p.encode(string(prefix))
		key = append(key, 0)
		return append(key, p.encode(w)...)
	}
}

// Names returns the names of all registered sort keys.
func Names() []string {
	names := make([]string, 0, len(namedKeys))
	for _, k := range namedKeys {
		names = append(names, k.Name)
	}
	return names
}

// Lookup returns the named sort key or nil.
func Lookup(name string) *NamedSortKey {
	for _, k := range namedKeys {
		if k.Name == name {
			return k
		}
	}
	return nil
}

// ParseName splits a sort key name of the form "name:locale". Either part
// may be empty, e.g. ":fa_IR.UTF-8".
func ParseName(s string) (name, locale string) {
	name, locale, _ = strings.Cut(s, ":")
	return name, locale
}

// Key is a sort key bound to a locale and an encoding. Keys are immutable.
type Key struct {
	name     string
	locale   string
	encoding string
	fn       func([]string) []byte
}

// New returns a new Key for the named sort key.
func New(name, locale, enc string, writeOptions map[string]any) (*Key, error) {
	nk := Lookup(name)
	if nk == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKey, name)
	}
	if enc == "" {
		enc = DefaultEncoding
	}

	p := &params{
		writeOptions: writeOptions,
	}

	e, err := htmlindex.Get(enc)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEncoding, enc)
	}
	p.encode = encoder(e)

	tag := language.Und
	if locale != "" {
		tag, err = parseLocale(locale)
		if err != nil {
			return nil, err
		}
		p.collator = collate.New(tag)
	}
	caser := cases.Lower(tag)
	p.lower = caser.String

	return &Key{
		name:     nk.Name,
		locale:   locale,
		encoding: enc,
		fn:       nk.build(p),
	}, nil
}

// Name returns the sort key name.
func (k *Key) Name() string {
	return k.name
}

// Locale returns the collation locale or an empty string.
func (k *Key) Locale() string {
	return k.locale
}

// Encoding returns the sort encoding.
func (k *Key) Encoding() string {
	return k.encoding
}

// Of returns the sort key for the given headwords.
func (k *Key) Of(words []string) []byte {
	if len(words) == 0 {
		return nil
	}
	return k.fn(words)
}

// Compare compares the keys of two headword lists.
func (k *Key) Compare(a, b []string) int {
	return bytes.Compare(k.Of(a), k.Of(b))
}

// parseLocale parses POSIX style locales such as "fa_IR.UTF-8" as well as
// BCP 47 tags.
func parseLocale(locale string) (language.Tag, error) {
	s, _, _ := strings.Cut(locale, ".")
	s, _, _ = strings.Cut(s, "@")
	s = strings.ReplaceAll(s, "_", "-")
	tag, err := language.Parse(s)
	if err != nil {
		return language.Und, fmt.Errorf("%w: %q: %w", ErrInvalidLocale, locale, err)
	}
	return tag, nil
}

func encoder(e encoding.Encoding) func(string) []byte {
	enc := encoding.ReplaceUnsupported(e.NewEncoder())
	return func(s string) []byte {
		b, err := enc.Bytes([]byte(s))
		if err != nil {
			// ReplaceUnsupported only fails on invalid input.
			return []byte(s)
		}
		return b
	}
}

func asciiLower(b []byte) []byte {
	out := make([]byte, len(b), len(b)+1)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return out
}
