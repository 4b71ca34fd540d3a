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

// Package dict implements reading and writing .dict files.
//
// A .dict file is the concatenation of the articles of a dictionary. Each
// article is a sequence of typed data items. When the dictionary declares a
// sametypesequence the type bytes are omitted and the final string-like item
// of an article has no terminator.
package dict

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrInvalidType indicates an unknown data type.
	ErrInvalidType = errors.New("invalid type")

	// ErrInvalidData indicates an article that cannot be decoded.
	ErrInvalidData = errors.New("invalid article data")

	errWordOffsetTooLarge = errors.New("word offset too large")
)

// DataType is a type of data in an article. Lower case types are string-like
// data terminated by '\0'. Upper case types are file-like data that start
// with a 32-bit size.
type DataType byte

const (
	// UTFTextType is utf-8 text.
	UTFTextType = DataType('m')

	// LocaleTextType is text in a locale encoding.
	LocaleTextType = DataType('l')

	// PangoTextType is utf-8 text in the Pango text format.
	PangoTextType = DataType('g')

	// PhoneticType is utf-8 text representing an English phonetic string.
	PhoneticType = DataType('t')

	// XDXFType is utf-8 encoded xml in XDXF format.
	XDXFType = DataType('x')

	// YinBiaoOrKataType is utf-8 encoded Yin Biao or Kana phonetic string.
	YinBiaoOrKataType = DataType('y')

	// PowerWordType is a utf-8 encoded KingSoft PowerWord XML format.
	PowerWordType = DataType('p')

	// MediaWikiType is utf-8 encoded text in MediaWiki format.
	MediaWikiType = DataType('w')

	// HTMLType is utf-8 encoded HTML text.
	HTMLType = DataType('h')

	// WordNetType is WordNet data.
	WordNetType = DataType('n')

	// ResourceFileListType is a list of files in resource storage.
	ResourceFileListType = DataType('r')

	// WavType is .wav sound file data.
	WavType = DataType('W')

	// PictureType is image file data.
	PictureType = DataType('P')

	// ExperimentalType is reserved for experimental features.
	ExperimentalType = DataType('X')
)

// Valid returns true if t is a known data type.
func (t DataType) Valid() bool {
	switch t {
	case UTFTextType,
		LocaleTextType,
		PangoTextType,
		PhoneticType,
		XDXFType,
		YinBiaoOrKataType,
		PowerWordType,
		MediaWikiType,
		HTMLType,
		WordNetType,
		ResourceFileListType,
		WavType,
		PictureType,
		ExperimentalType:
		return true
	default:
		return false
	}
}

func (t DataType) stringLike() bool {
	return 'a' <= t && t <= 'z'
}

// ParseTypes parses a sametypesequence value such as "hm".
func ParseTypes(s string) ([]DataType, error) {
	var types []DataType
	for i := range len(s) {
		t := DataType(s[i])
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, s[i])
		}
		types = append(types, t)
	}
	return types, nil
}

// Data is a data item of an article.
type Data struct {
	Type DataType
	Data []byte
}

// Article is a full dictionary article.
type Article struct {
	Data []*Data
}

// Dict reads articles from .dict data.
type Dict struct {
	r                io.ReaderAt
	sametypesequence []DataType
}

// New returns a new Dict reading from r.
func New(r io.ReaderAt, sametypesequence []DataType) (*Dict, error) {
	for _, t := range sametypesequence {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, byte(t))
		}
	}

	return &Dict{
		r:                r,
		sametypesequence: sametypesequence,
	}, nil
}

// Article reads the article at offset.
func (d *Dict) Article(offset uint64, size uint32) (*Article, error) {
	if offset > math.MaxInt64 {
		return nil, fmt.Errorf("%w: %d", errWordOffsetTooLarge, offset)
	}
	b := make([]byte, size)
	//nolint:gosec // offset size is bounds checked above.
	if _, err := d.r.ReadAt(b, int64(offset)); err != nil {
		return nil, fmt.Errorf("reading dictionary: %w", err)
	}
	return Decode(b, d.sametypesequence)
}

// Decode decodes a single article.
func Decode(b []byte, sametypesequence []DataType) (*Article, error) {
	var a Article

	if len(sametypesequence) > 0 {
		for i, t := range sametypesequence {
			last := i == len(sametypesequence)-1
			var data []byte
			var err error
			data, b, err = next(b, t, last)
			if err != nil {
				return nil, err
			}
			a.Data = append(a.Data, &Data{Type: t, Data: data})
		}
		return &a, nil
	}

	for len(b) > 0 {
		t := DataType(b[0])
		var data []byte
		var err error
		// Tolerate a missing terminator at the end of the article.
		data, b, err = next(b[1:], t, true)
		if err != nil {
			return nil, err
		}
		a.Data = append(a.Data, &Data{Type: t, Data: data})
	}
	return &a, nil
}

// next splits the data of type t from the front of b. An unterminated
// string is accepted when it is the last item.
func next(b []byte, t DataType, last bool) (data, rest []byte, err error) {
	if t.stringLike() {
		i := bytes.IndexByte(b, 0)
		if i < 0 {
			if !last && len(b) > 0 {
				return nil, nil, fmt.Errorf("%w: unterminated %q data", ErrInvalidData, byte(t))
			}
			return b, nil, nil
		}
		return b[:i], b[i+1:], nil
	}

	if len(b) < 4 {
		return nil, nil, fmt.Errorf("%w: short %q data", ErrInvalidData, byte(t))
	}
	size := binary.BigEndian.Uint32(b)
	if uint64(size) > uint64(len(b)-4) {
		return nil, nil, fmt.Errorf("%w: %q data size %d", ErrInvalidData, byte(t), size)
	}
	return b[4 : 4+size], b[4+size:], nil
}

// Encode encodes an article. If sametypesequence is set the article's data
// types must match it.
func Encode(a *Article, sametypesequence []DataType) ([]byte, error) {
	if len(sametypesequence) > 0 && len(a.Data) != len(sametypesequence) {
		return nil, fmt.Errorf("%w: %d items for sametypesequence of %d", ErrInvalidData, len(a.Data), len(sametypesequence))
	}

	var b []byte
	for i, d := range a.Data {
		if !d.Type.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidType, byte(d.Type))
		}
		if len(sametypesequence) > 0 {
			if d.Type != sametypesequence[i] {
				return nil, fmt.Errorf("%w: %q does not match sametypesequence", ErrInvalidData, byte(d.Type))
			}
		} else {
			b = append(b, byte(d.Type))
		}

		if d.Type.stringLike() {
			if bytes.IndexByte(d.Data, 0) >= 0 {
				return nil, fmt.Errorf("%w: %q data contains a zero byte", ErrInvalidData, byte(d.Type))
			}
			b = append(b, d.Data...)
			// The last item has no terminator when the types are implied.
			if len(sametypesequence) == 0 || i < len(a.Data)-1 {
				b = append(b, 0)
			}
			continue
		}

		if uint64(len(d.Data)) > math.MaxUint32 {
			return nil, fmt.Errorf("%w: %q data too long", ErrInvalidData, byte(d.Type))
		}
		//nolint:gosec // length is bounds checked above.
		b = binary.BigEndian.AppendUint32(b, uint32(len(d.Data)))
		b = append(b, d.Data...)
	}
	return b, nil
}
