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

// Package idx implements reading and writing .idx files.
//
// The .idx file contains a list of headwords and the associated offset and
// size of their articles in the .dict file.
//
// Each .idx file entry (word) comes in three parts:
//  1. The headword: a utf-8 string terminated by a null terminator ('\0').
//  2. The offset: a 32 or 64 bit integer offset of the article in the .dict
//     file in network byte order.
//  3. The size: a 32 bit integer size of the article in the .dict file in
//     network byte order.
package idx

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var (
	// ErrInvalidIdxOffset indicates that the OffsetBits is an invalid value.
	ErrInvalidIdxOffset = errors.New("invalid idxoffsetbits")

	// ErrInvalidWord indicates an entry that cannot be encoded or decoded.
	ErrInvalidWord = errors.New("invalid index entry")
)

// Word is an .idx file entry.
type Word struct {
	Word   string
	Offset uint64
	Size   uint32
}

// Scanner scans an index from start to end.
type Scanner struct {
	r             io.ReadCloser
	s             *bufio.Scanner
	idxoffsetbits int
	pos           int64
}

// ScannerOptions are options for scanning an .idx file.
type ScannerOptions struct {
	// OffsetBits are the number of bits in the offset fields. Valid values for
	// OffsetBits are either 32 or 64.
	OffsetBits int
}

// DefaultScannerOptions is the default options for a Scanner.
var DefaultScannerOptions = &ScannerOptions{
	OffsetBits: 32,
}

// NewScanner return a new index scanner that scans the index from start to
// end. The Scanner assumes ownership of the reader and should be closed with
// the Close method.
func NewScanner(r io.ReadCloser, options *ScannerOptions) (*Scanner, error) {
	if options == nil {
		options = DefaultScannerOptions
	}

	if options.OffsetBits != 32 && options.OffsetBits != 64 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdxOffset, options.OffsetBits)
	}
	s := &Scanner{
		r:             r,
		s:             bufio.NewScanner(bufio.NewReader(r)),
		idxoffsetbits: options.OffsetBits,
	}
	s.s.Split(s.splitIndex)
	return s, nil
}

// Scan advances the index to the next index entry. It returns false if the
// scan stops either by reaching the end of the index or an error.
func (s *Scanner) Scan() bool {
	if !s.s.Scan() {
		return false
	}
	s.pos += int64(len(s.s.Bytes()))
	return true
}

// Err returns the first error encountered.
func (s *Scanner) Err() error {
	//nolint:wrapcheck // error should not be wrapped
	return s.s.Err()
}

// Pos returns the number of bytes scanned.
func (s *Scanner) Pos() int64 {
	return s.pos
}

// Close closes the underlying reader.
func (s *Scanner) Close() error {
	if err := s.r.Close(); err != nil {
		return fmt.Errorf("closing idx file: %w", err)
	}
	return nil
}

// Word gets the current entry in the index.
func (s *Scanner) Word() *Word {
	var e Word
	b := s.s.Bytes()
	if i := bytes.IndexByte(b, 0); i >= 0 {
		e.Word = string(b[0:i])
		if s.idxoffsetbits == 64 {
			e.Offset = binary.BigEndian.Uint64(b[i+1:])
		} else {
			e.Offset = uint64(binary.BigEndian.Uint32(b[i+1:]))
		}
		e.Size = binary.BigEndian.Uint32(b[i+1+s.idxoffsetbits/8:])
	}

	return &e
}

// splitIndex splits an index entry in the index file.
func (s *Scanner) splitIndex(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		tokenSize := i + 1 + s.idxoffsetbits/8 + 4
		if len(data) >= tokenSize {
			return tokenSize, data[:tokenSize], nil
		}
	}

	if atEOF {
		return 0, nil, fmt.Errorf("%w: truncated entry", ErrInvalidWord)
	}

	// Request more data.
	return 0, nil, nil
}

// Writer writes .idx entries.
type Writer struct {
	w             *bufio.Writer
	idxoffsetbits int
	size          int64
}

// NewWriter returns a new Writer. offsetBits must be 32 or 64.
func NewWriter(w io.Writer, offsetBits int) (*Writer, error) {
	if offsetBits != 32 && offsetBits != 64 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidIdxOffset, offsetBits)
	}
	return &Writer{
		w:             bufio.NewWriter(w),
		idxoffsetbits: offsetBits,
	}, nil
}

// Write writes a single entry.
func (w *Writer) Write(word *Word) error {
	if word.Word == "" || bytes.IndexByte([]byte(word.Word), 0) >= 0 {
		return fmt.Errorf("%w: headword %q", ErrInvalidWord, word.Word)
	}
	b := make([]byte, 0, len(word.Word)+1+w.idxoffsetbits/8+4)
	b = append(b, word.Word...)
	b = append(b, 0)
	if w.idxoffsetbits == 64 {
		b = binary.BigEndian.AppendUint64(b, word.Offset)
	} else {
		if word.Offset > math.MaxUint32 {
			return fmt.Errorf("%w: offset %d needs 64 bit offsets", ErrInvalidWord, word.Offset)
		}
		b = binary.BigEndian.AppendUint32(b, uint32(word.Offset))
	}
	b = binary.BigEndian.AppendUint32(b, word.Size)

	n, err := w.w.Write(b)
	w.size += int64(n)
	if err != nil {
		return fmt.Errorf("writing idx file: %w", err)
	}
	return nil
}

// Size returns the number of bytes written.
func (w *Writer) Size() int64 {
	return w.size
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("writing idx file: %w", err)
	}
	return nil
}
