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

package syn_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/go-glossary/formats/stardict/syn"
)

// TestScanner tests writing and scanning a synonym file.
func TestScanner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected []*syn.Word
	}{
		{
			name: "multi",
			expected: []*syn.Word{
				{
					Word:              "fuga pico",
					OriginalWordIndex: 3,
				},
				{
					Word:              "hoge",
					OriginalWordIndex: 5,
				},
			},
		},
		{
			name: "empty",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			w := syn.NewWriter(&buf)
			for _, word := range test.expected {
				if err := w.Write(word); err != nil {
					t.Fatal(err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatal(err)
			}
			if got, want := w.Count(), len(test.expected); got != want {
				t.Fatalf("Count: want %d, got %d", want, got)
			}

			var words []*syn.Word
			s := syn.NewScanner(io.NopCloser(&buf))
			for s.Scan() {
				words = append(words, s.Word())
			}
			if err := s.Err(); err != nil {
				t.Fatal(err)
			}

			if diff := cmp.Diff(test.expected, words); diff != "" {
				t.Fatalf("words (-want, +got):\n%s", diff)
			}
		})
	}
}

// TestScanner_truncated tests scanning a truncated synonym file.
func TestScanner_truncated(t *testing.T) {
	t.Parallel()

	s := syn.NewScanner(io.NopCloser(bytes.NewReader([]byte("hoge\x00\x00"))))
	for s.Scan() {
		t.Fatal("unexpected word")
	}
	if err := s.Err(); !errors.Is(err, syn.ErrInvalidWord) {
		t.Fatalf("Err: want %v, got %v", syn.ErrInvalidWord, err)
	}
}
