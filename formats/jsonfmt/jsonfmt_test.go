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

package jsonfmt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/internal/testutil"
)

// TestReader tests reading json glossaries.
func TestReader(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		data     string
		expected []testutil.Summary
		info     map[string]string
		count    int
	}{
		{
			name: "basic",
			data: `{"##name": "Test", "hoge|fuga": "line 1\nline 2", "html": "<b>x</b>", "num": 1}`,
			expected: []testutil.Summary{
				{Words: []string{"hoge", "fuga"}, Defi: "line 1\nline 2", Format: "m"},
				{Words: []string{"html"}, Defi: "<b>x</b>", Format: "h"},
			},
			info:  map[string]string{"name": "Test"},
			count: 3,
		},
		{
			name:  "empty",
			data:  `{}`,
			count: 0,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), "test.json")
			if err := os.WriteFile(path, []byte(test.data), 0o600); err != nil {
				t.Fatal(err)
			}

			g := testutil.NewGlossary()
			r, err := newReader(g, nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Open(path, nil); err != nil {
				t.Fatalf("Open: %v", err)
			}
			defer r.Close()

			n, err := r.Len()
			if err != nil {
				t.Fatal(err)
			}
			if n != test.count {
				t.Fatalf("Len: want %d, got %d", test.count, n)
			}

			got := testutil.Summarize(t, testutil.Collect(t, r.Entries()))
			if diff := cmp.Diff(test.expected, got); diff != "" {
				t.Fatalf("entries (-want, +got):\n%s", diff)
			}
			for k, v := range test.info {
				if got := g.Info(k); got != v {
					t.Fatalf("Info(%q): want %q, got %q", k, v, got)
				}
			}
		})
	}
}

// TestReader_invalid tests that malformed documents are rejected.
func TestReader_invalid(t *testing.T) {
	t.Parallel()

	for _, data := range []string{`{"a": `, `["a", "b"]`} {
		path := filepath.Join(t.TempDir(), "test.json")
		if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
			t.Fatal(err)
		}
		r, err := newReader(testutil.NewGlossary(), nil)
		if err != nil {
			t.Fatal(err)
		}
		if err := r.Open(path, nil); err == nil {
			t.Fatalf("Open(%q): expected error", data)
		}
	}
}

// TestWriter tests writing and reading back a json glossary.
func TestWriter(t *testing.T) {
	t.Parallel()

	g := testutil.NewGlossary()
	g.SetInfo("name", "Test")

	items := testutil.Entries(t, "a|b", "x \"y\"", "<c>", "d & e")
	w, err := newWriter(g, map[string]any{"word_title": "true"})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.json")
	if err := w.Open(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Begin(); err != nil {
		t.Fatal(err)
	}
	for _, item := range items {
		if err := w.Accept(item); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.End(); err != nil {
		t.Fatal(err)
	}
	if err := w.Finish(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	expected := "{\n\t\"##name\": \"Test\",\n\t\"a|b\": \"<b>a</b><br>x \\\"y\\\"\",\n\t\"<c>\": \"<b><c></b><br>d & e\"\n}\n"
	if diff := cmp.Diff(expected, string(b)); diff != "" {
		t.Fatalf("file (-want, +got):\n%s", diff)
	}
}

// TestWriter_empty tests that an empty glossary is a valid document.
func TestWriter_empty(t *testing.T) {
	t.Parallel()

	w, err := newWriter(testutil.NewGlossary(), map[string]any{"enable_info": false})
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.json")
	if err := w.Open(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Begin(); err != nil {
		t.Fatal(err)
	}
	d, err := entry.NewDataEntry("a.png", []byte("png"), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Accept(d); err != nil {
		t.Fatal(err)
	}
	if err := w.End(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff("{\n}\n", string(b)); diff != "" {
		t.Fatalf("file (-want, +got):\n%s", diff)
	}
	if _, err := os.Stat(filepath.Join(path+"_res", "a.png")); err != nil {
		t.Fatalf("resource: %v", err)
	}
}
