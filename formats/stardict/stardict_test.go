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

package stardict

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/formats/stardict/dict"
	"github.com/ianlewis/go-glossary/internal/testutil"
	"github.com/ianlewis/go-glossary/plugin"
)

func readAll(t *testing.T, g *testutil.Glossary, path string, options map[string]any) []testutil.Summary {
	t.Helper()

	r, err := newReader(g, options)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Open(path, nil); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	return testutil.Summarize(t, testutil.Collect(t, r.Entries()))
}

// TestReader tests reading dictionaries.
func TestReader(t *testing.T) {
	t.Parallel()

	articles := []testutil.Article{
		{
			Words: []string{"fuga", "fugafuga"},
			Data:  []*dict.Data{{Type: dict.UTFTextType, Data: []byte("fuga defi")}},
		},
		{
			Words: []string{"hoge"},
			Data: []*dict.Data{
				{Type: dict.HTMLType, Data: []byte("<b>hoge</b>")},
				{Type: dict.WavType, Data: []byte{1, 2}},
				{Type: dict.PhoneticType, Data: []byte("hoʊɡe")},
			},
		},
	}

	tests := []struct {
		name     string
		articles []testutil.Article
		opts     *testutil.StardictOptions
		noAlts   bool
		expected []testutil.Summary
		info     map[string]string
	}{
		{
			name:     "plain",
			articles: articles,
			expected: []testutil.Summary{
				{Words: []string{"fuga", "fugafuga"}, Defi: "fuga defi", Format: "m"},
				{Words: []string{"hoge"}, Defi: "<b>hoge</b><br>\nhoʊɡe", Format: "h"},
			},
			info: map[string]string{"name": "dictionary"},
		},
		{
			name:     "compressed without alternates",
			articles: articles,
			opts: &testutil.StardictOptions{
				Bookname: "Hoge Dict",
				DictZip:  true,
				GzipIdx:  true,
			},
			noAlts: true,
			expected: []testutil.Summary{
				{Words: []string{"fuga"}, Defi: "fuga defi", Format: "m"},
				{Words: []string{"hoge"}, Defi: "<b>hoge</b><br>\nhoʊɡe", Format: "h"},
			},
			info: map[string]string{"name": "Hoge Dict"},
		},
		{
			name: "sametypesequence and resources",
			articles: []testutil.Article{
				{
					Words: []string{"hoge"},
					Data:  []*dict.Data{{Type: dict.HTMLType, Data: []byte(`<img src="hoge.png">`)}},
				},
			},
			opts: &testutil.StardictOptions{
				SameTypeSequence: []dict.DataType{dict.HTMLType},
				Resources:        map[string]string{"hoge.png": "png data"},
			},
			expected: []testutil.Summary{
				{Words: []string{"hoge"}, Defi: `<img src="hoge.png">`, Format: "h"},
				{Words: []string{"hoge.png"}, Data: "png data"},
			},
			info: map[string]string{"name": "dictionary"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			ifoPath := testutil.MakeStardict(t, dir, "dictionary", test.articles, test.opts)

			g := testutil.NewGlossary()
			g.NoAlts = test.noAlts

			// Both the .ifo file and its directory can be opened.
			for _, path := range []string{ifoPath, dir} {
				got := readAll(t, g, path, nil)
				if diff := cmp.Diff(test.expected, got); diff != "" {
					t.Fatalf("entries (-want, +got):\n%s", diff)
				}
			}
			for k, v := range test.info {
				if got := g.Info(k); got != v {
					t.Fatalf("Info(%q): want %q, got %q", k, v, got)
				}
			}
		})
	}
}

// TestReader_emptyHeadword tests that an article with an empty headword is
// skipped and reading continues.
func TestReader_emptyHeadword(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ifoPath := testutil.MakeStardict(t, dir, "dictionary", []testutil.Article{
		{
			Words: []string{"x"},
			Data:  []*dict.Data{{Type: dict.UTFTextType, Data: []byte("orphan")}},
		},
		{
			Words: []string{"hoge"},
			Data:  []*dict.Data{{Type: dict.UTFTextType, Data: []byte("hoge defi")}},
		},
	}, nil)

	// Drop the first headword so its index record starts with the NUL.
	idxPath := filepath.Join(dir, "dictionary.idx")
	b, err := os.ReadFile(idxPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(idxPath, b[len("x"):], 0o600); err != nil {
		t.Fatal(err)
	}

	got := readAll(t, testutil.NewGlossary(), ifoPath, nil)
	expected := []testutil.Summary{
		{Words: []string{"hoge"}, Defi: "hoge defi", Format: "m"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("entries (-want, +got):\n%s", diff)
	}
}

// TestReader_errors tests opening invalid dictionaries.
func TestReader_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T, dir string) string
		err   error
	}{
		{
			name: "missing",
			setup: func(_ *testing.T, dir string) string {
				return filepath.Join(dir, "missing.ifo")
			},
			err: fs.ErrNotExist,
		},
		{
			name: "bad magic",
			setup: func(t *testing.T, dir string) string {
				t.Helper()
				path := filepath.Join(dir, "bad.ifo")
				if err := os.WriteFile(path, []byte("not stardict\nversion=3.0.0\n"), 0o600); err != nil {
					t.Fatal(err)
				}
				return path
			},
			err: plugin.ErrFormat,
		},
		{
			name: "bad version",
			setup: func(t *testing.T, dir string) string {
				t.Helper()
				path := filepath.Join(dir, "bad.ifo")
				if err := os.WriteFile(path, []byte("StarDict's dict ifo file\nversion=1.0.0\n"), 0o600); err != nil {
					t.Fatal(err)
				}
				return path
			},
			err: plugin.ErrFormat,
		},
		{
			name: "missing idx",
			setup: func(t *testing.T, dir string) string {
				t.Helper()
				path := testutil.MakeStardict(t, dir, "dictionary", nil, nil)
				if err := os.Remove(filepath.Join(dir, "dictionary.idx")); err != nil {
					t.Fatal(err)
				}
				return path
			},
			err: fs.ErrNotExist,
		},
		{
			name: "empty directory",
			setup: func(_ *testing.T, dir string) string {
				return dir
			},
			err: fs.ErrNotExist,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			path := test.setup(t, t.TempDir())
			r, err := newReader(testutil.NewGlossary(), nil)
			if err != nil {
				t.Fatal(err)
			}
			if err := r.Open(path, nil); !errors.Is(err, test.err) {
				t.Fatalf("Open: want %v, got %v", test.err, err)
			}
			if err := r.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
		})
	}
}

// TestWriter tests writing and reading back a dictionary.
func TestWriter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		options map[string]any
		target  func(dir string) string
	}{
		{
			name:    "directory dictzip",
			options: map[string]any{"dictzip": true},
			target: func(dir string) string {
				return filepath.Join(dir, "out-stardict")
			},
		},
		{
			name:    "ifo sametypesequence",
			options: map[string]any{"dictzip": false, "sametypesequence": "h"},
			target: func(dir string) string {
				return filepath.Join(dir, "out.ifo")
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			g := testutil.NewGlossary()
			g.SetInfo("name", "Test Dict")
			g.SetInfo("author", "hoge")

			apple, err := entry.New([]string{"apple", "Apfel", "pomme"}, "<i>apple</i>", entry.HTML)
			if err != nil {
				t.Fatal(err)
			}
			banana, err := entry.New([]string{"Banana"}, "<i>banana</i>", entry.HTML)
			if err != nil {
				t.Fatal(err)
			}
			img, err := entry.NewDataEntry("img/a.png", []byte("png"), "")
			if err != nil {
				t.Fatal(err)
			}

			w, err := newWriter(g, test.options)
			if err != nil {
				t.Fatal(err)
			}
			target := test.target(t.TempDir())
			if err := w.Open(target); err != nil {
				t.Fatalf("Open: %v", err)
			}
			if err := w.Begin(); err != nil {
				t.Fatal(err)
			}
			for _, item := range []entry.Item{apple, banana, img} {
				if err := w.Accept(item); err != nil {
					t.Fatalf("Accept: %v", err)
				}
			}
			if err := w.End(); err != nil {
				t.Fatalf("End: %v", err)
			}
			if err := w.Finish(); err != nil {
				t.Fatalf("Finish: %v", err)
			}

			rg := testutil.NewGlossary()
			got := readAll(t, rg, target, nil)
			expected := []testutil.Summary{
				{Words: []string{"apple", "Apfel", "pomme"}, Defi: "<i>apple</i>", Format: "h"},
				{Words: []string{"Banana"}, Defi: "<i>banana</i>", Format: "h"},
				{Words: []string{"img/a.png"}, Data: "png"},
			}
			if diff := cmp.Diff(expected, got); diff != "" {
				t.Fatalf("entries (-want, +got):\n%s", diff)
			}
			if got, want := rg.Info("name"), "Test Dict"; got != want {
				t.Fatalf("name: want %q, got %q", want, got)
			}
			if got, want := rg.Info("author"), "hoge"; got != want {
				t.Fatalf("author: want %q, got %q", want, got)
			}
		})
	}
}

// TestNewWriter_options tests invalid writer options.
func TestNewWriter_options(t *testing.T) {
	t.Parallel()

	for _, sts := range []string{"q", "hm"} {
		if _, err := newWriter(testutil.NewGlossary(), map[string]any{"sametypesequence": sts}); !errors.Is(err, plugin.ErrInvalidOption) {
			t.Fatalf("newWriter(%q): want %v, got %v", sts, plugin.ErrInvalidOption, err)
		}
	}
}
