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
	"errors"
	"io"
	"slices"
	"strings"

	"github.com/k3a/html2text"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/ianlewis/go-glossary/entry"
)

// HTML filter names.
const (
	RemoveHTMLAllName = "remove_html_all"
	RemoveHTMLName    = "remove_html"
	NormalizeHTMLName = "normalize_html"
	StripFullHTMLName = "strip_full_html"
)

// RemoveHTMLAll converts HTML definitions to plain text.
func RemoveHTMLAll() Filter {
	return &entryFunc{
		name: RemoveHTMLAllName,
		fn: func(e *entry.Entry) (*entry.Entry, bool) {
			if e.DefiFormat() == entry.XDXF {
				return e, true
			}
			return e.WithDefi(html2text.HTML2Text(e.Defi())).WithDefiFormat(entry.PlainText), true
		},
	}
}

// RemoveHTML removes the given tags from definitions keeping their content.
// tags is a comma separated list of tag names.
func RemoveHTML(tags string, logger *zap.Logger) Filter {
	set := map[string]bool{}
	for _, t := range strings.Split(tags, ",") {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			set[t] = true
		}
	}
	return &entryFunc{
		name: RemoveHTMLName,
		fn: func(e *entry.Entry) (*entry.Entry, bool) {
			defi, err := rewriteHTML(e.Defi(), func(z *html.Tokenizer, raw []byte, b *strings.Builder) {
				name, _ := z.TagName()
				if !set[string(name)] {
					b.Write(raw)
				}
			})
			if err != nil {
				logger.Error("removing html tags", zap.String("word", e.Word()), zap.Error(err))
				return e, true
			}
			return e.WithDefi(defi), true
		},
	}
}

// NormalizeHTML lowercases tag and attribute names and quotes attribute
// values.
func NormalizeHTML(logger *zap.Logger) Filter {
	return &entryFunc{
		name: NormalizeHTMLName,
		fn: func(e *entry.Entry) (*entry.Entry, bool) {
			if e.DefiFormat() == entry.PlainText {
				return e, true
			}
			defi, err := rewriteHTML(e.Defi(), func(z *html.Tokenizer, _ []byte, b *strings.Builder) {
				b.WriteString(z.Token().String())
			})
			if err != nil {
				logger.Error("normalizing html", zap.String("word", e.Word()), zap.Error(err))
				return e, true
			}
			return e.WithDefi(defi), true
		},
	}
}

// rewriteHTML copies s token by token. Tag tokens are passed to tag which
// writes the replacement. raw is a copy of the tag's original text.
func rewriteHTML(s string, tag func(z *html.Tokenizer, raw []byte, b *strings.Builder)) (string, error) {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	b.Grow(len(s))
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return b.String(), nil
			}
			return "", z.Err()
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// TagName modifies the tokenizer's buffer in place.
			raw := slices.Clone(z.Raw())
			tag(z, raw, &b)
		default:
			b.Write(z.Raw())
		}
	}
}

// StripFullHTML replaces a full HTML document definition with the contents
// of its body. onError is called for documents that cannot be stripped. If
// onError is nil the error is logged.
func StripFullHTML(onError func(e *entry.Entry, msg string), logger *zap.Logger) Filter {
	if onError == nil {
		onError = func(e *entry.Entry, msg string) {
			logger.Warn("stripping full html", zap.String("word", e.Word()), zap.String("error", msg))
		}
	}
	return &entryFunc{
		name: StripFullHTMLName,
		fn: func(e *entry.Entry) (*entry.Entry, bool) {
			defi, msg := stripFullHTML(e.Defi())
			if msg != "" {
				onError(e, msg)
				return e, true
			}
			return e.WithDefi(defi), true
		},
	}
}

// stripFullHTML returns the body of an HTML document. Definitions that are
// not a full document are returned unchanged. msg describes a malformed
// document.
func stripFullHTML(defi string) (string, string) {
	if !strings.HasPrefix(defi, "<") {
		return defi, ""
	}
	switch {
	case strings.HasPrefix(defi, "<!DOCTYPE html>"), strings.HasPrefix(defi, "<!doctype html>"):
		rest := strings.TrimSpace(defi[len("<!doctype html>"):])
		if !strings.HasPrefix(rest, "<html") {
			return defi, "has <!DOCTYPE html> but no <html>"
		}
		defi = rest
	case !strings.HasPrefix(defi, "<html"):
		return defi, ""
	}

	_, body, ok := strings.Cut(defi, "<body")
	if !ok {
		return defi, "<body not found"
	}
	_, body, ok = strings.Cut(body, ">")
	if !ok {
		return defi, "'>' after <body not found"
	}
	body, _, ok = strings.Cut(body, "</body")
	if !ok {
		return defi, "</body close not found"
	}
	return body, ""
}
