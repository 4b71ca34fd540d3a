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

package folding

import (
	"testing"

	"golang.org/x/text/transform"
)

// TestWhitespace tests Whitespace.
func TestWhitespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "only space", input: " \t\n ", expected: ""},
		{name: "leading and trailing", input: "  hoge  ", expected: "hoge"},
		{name: "internal", input: "hoge \t\n fuga", expected: "hoge fuga"},
		{name: "unicode space", input: "ほげ　ふが", expected: "ほげ ふが"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			if got := Whitespace(test.input); got != test.expected {
				t.Fatalf("Whitespace(%q): want %q, got %q", test.input, test.expected, got)
			}
		})
	}
}

// TestHeadword tests the headword folding chain.
func TestHeadword(t *testing.T) {
	t.Parallel()

	got, _, err := transform.String(Headword(), "  Hello   WORLD ")
	if err != nil {
		t.Fatal(err)
	}
	if want := "hello world"; got != want {
		t.Fatalf("Headword: want %q, got %q", want, got)
	}
}
