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

// Package syn implements reading and writing .syn files.
//
// A .syn file maps alternate headwords to entries of the .idx file. Each
// entry is a utf-8 string terminated by '\0' followed by the 32 bit index of
// the original word in network byte order.
package syn

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ErrInvalidWord indicates an entry that cannot be encoded or decoded.
var ErrInvalidWord = errors.New("invalid synonym entry")

// Word is a .syn file entry.
type Word struct {
	// Word is the synonym word.
	Word string

	// OriginalWordIndex is the index into the .idx index.
	OriginalWordIndex uint32
}

// Scanner scans a synonym index from start to end.
type Scanner struct {
	r io.ReadCloser
	s *bufio.Scanner
}

// NewScanner return a new synonym index scanner that scans the index from
// start to end. The Scanner assumes ownership of the reader and should be
// closed with the Close method.
func NewScanner(r io.ReadCloser) *Scanner {
	s := &Scanner{
		r: r,
		s: bufio.NewScanner(bufio.NewReader(r)),
	}
	s.s.Split(splitSyn)
	return s
}

// Scan advances the index to the next entry. It returns false if the scan
// stops either by reaching the end of the index or an error.
func (s *Scanner) Scan() bool {
	return s.s.Scan()
}

// Err returns the first error encountered.
func (s *Scanner) Err() error {
	//nolint:wrapcheck // error should not be wrapped
	return s.s.Err()
}

// Close closes the underlying reader.
func (s *Scanner) Close() error {
	if err := s.r.Close(); err != nil {
		return fmt.Errorf("closing syn file: %w", err)
	}
	return nil
}

// Word gets the current entry in the index.
func (s *Scanner) Word() *Word {
	var e Word
	b := s.s.Bytes()
	if i := bytes.IndexByte(b, 0); i >= 0 {
		e.Word = string(b[0:i])
		e.OriginalWordIndex = binary.BigEndian.Uint32(b[i+1:])
	}

	return &e
}

// splitSyn splits an entry in the synonym file.
func splitSyn(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, 0); i >= 0 {
		// The zero byte is followed by the 32 bit original_word_index.
		tokenSize := i + 5
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

// Writer writes .syn entries.
type Writer struct {
	w     *bufio.Writer
	count int
}

// NewWriter returns a new Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w: bufio.NewWriter(w),
	}
}

// Write writes a single entry.
func (w *Writer) Write(word *Word) error {
	if word.Word == "" || bytes.IndexByte([]byte(word.Word), 0) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidWord, word.Word)
	}
	b := make([]byte, 0, len(word.Word)+5)
	b = append(b, word.Word...)
	b = append(b, 0)
	b = binary.BigEndian.AppendUint32(b, word.OriginalWordIndex)
	if _, err := w.w.Write(b); err != nil {
		return fmt.Errorf("writing syn file: %w", err)
	}
	w.count++
	return nil
}

// Count returns the number of entries written.
func (w *Writer) Count() int {
	return w.count
}

// Flush writes any buffered data to the underlying writer.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("writing syn file: %w", err)
	}
	return nil
}
