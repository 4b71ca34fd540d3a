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

package idx_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/go-glossary/formats/stardict/idx"
)

// TestScanner tests writing and scanning an index.
func TestScanner(t *testing.T) {
	t.Parallel()

	words := []*idx.Word{
		{
			Word:   "fuga pico",
			Offset: 12,
			Size:   45,
		},
		{
			Word:   "hoge",
			Offset: 123,
			Size:   456,
		},
		{
			Word:   "ほげ",
			Offset: 579,
			Size:   7,
		},
	}

	tests := []struct {
		name       string
		offsetBits int
	}{
		{
			name:       "32 bit",
			offsetBits: 32,
		},
		{
			name:       "64 bit",
			offsetBits: 64,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w, err := idx.NewWriter(&buf, test.offsetBits)
			if err != nil {
				t.Fatal(err)
			}
			for _, word := range words {
				if err := w.Write(word); err != nil {
					t.Fatal(err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatal(err)
			}
			if got, want := w.Size(), int64(buf.Len()); got != want {
				t.Fatalf("Size: want %d, got %d", want, got)
			}

			s, err := idx.NewScanner(io.NopCloser(&buf), &idx.ScannerOptions{
				OffsetBits: test.offsetBits,
			})
			if err != nil {
				t.Fatal(err)
			}
			defer s.Close()

			var got []*idx.Word
			for s.Scan() {
				got = append(got, s.Word())
			}
			if err := s.Err(); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(words, got); diff != "" {
				t.Fatalf("words (-want, +got):\n%s", diff)
			}
			if got, want := s.Pos(), w.Size(); got != want {
				t.Fatalf("Pos: want %d, got %d", want, got)
			}
		})
	}
}

// TestScanner_truncated tests scanning a truncated index.
func TestScanner_truncated(t *testing.T) {
	t.Parallel()

	s, err := idx.NewScanner(io.NopCloser(bytes.NewReader([]byte("hoge\x00\x00\x01"))), nil)
	if err != nil {
		t.Fatal(err)
	}
	for s.Scan() {
		t.Fatal("unexpected word")
	}
	if err := s.Err(); !errors.Is(err, idx.ErrInvalidWord) {
		t.Fatalf("Err: want %v, got %v", idx.ErrInvalidWord, err)
	}
}

// TestWriter_errors tests invalid writes.
func TestWriter_errors(t *testing.T) {
	t.Parallel()

	if _, err := idx.NewWriter(io.Discard, 16); !errors.Is(err, idx.ErrInvalidIdxOffset) {
		t.Fatalf("NewWriter: want %v, got %v", idx.ErrInvalidIdxOffset, err)
	}

	w, err := idx.NewWriter(io.Discard, 32)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(&idx.Word{Word: "big", Offset: 1 << 33}); !errors.Is(err, idx.ErrInvalidWord) {
		t.Fatalf("Write: want %v, got %v", idx.ErrInvalidWord, err)
	}
	if err := w.Write(&idx.Word{}); !errors.Is(err, idx.ErrInvalidWord) {
		t.Fatalf("Write: want %v, got %v", idx.ErrInvalidWord, err)
	}
}
