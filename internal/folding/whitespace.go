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

// Package folding implements text folding for headwords.
package folding

import (
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
)

// WhitespaceFolder trims leading and trailing whitespace and collapses every
// internal run of whitespace into a single ASCII space.
type WhitespaceFolder struct {
	// seenText is set once the first non-space rune was emitted.
	seenText bool

	// pending is set while skipping an internal whitespace run.
	pending bool
}

// Transform implements [transform.Transformer.Transform].
func (w *WhitespaceFolder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		r, size := utf8.DecodeRune(src[nSrc:])
		if r == utf8.RuneError && size < 2 && !atEOF && !utf8.FullRune(src[nSrc:]) {
			return nDst, nSrc, transform.ErrShortSrc
		}

		if unicode.IsSpace(r) {
			// A run is only emitted once text follows it so trailing space
			// is dropped.
			w.pending = w.seenText
			nSrc += size
			continue
		}

		// RuneError is written as its three byte encoding.
		need := utf8.RuneLen(r)
		if w.pending {
			need++
		}
		if nDst+need > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		if w.pending {
			dst[nDst] = ' '
			nDst++
			w.pending = false
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc += size
		w.seenText = true
	}
	return nDst, nSrc, nil
}

// Reset implements [transform.Transformer.Reset].
func (w *WhitespaceFolder) Reset() {
	*w = WhitespaceFolder{}
}

// Whitespace returns s with whitespace folded by a [WhitespaceFolder].
func Whitespace(s string) string {
	out, _, err := transform.String(&WhitespaceFolder{}, s)
	if err != nil {
		return s
	}
	return out
}

// Headword returns a transformer that folds whitespace and case. It is used
// to build case-insensitive headword indexes.
func Headword() transform.Transformer {
	return transform.Chain(&WhitespaceFolder{}, cases.Fold())
}
