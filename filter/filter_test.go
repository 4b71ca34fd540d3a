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
	"iter"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/entry"
)

type pair struct {
	Words []string
	Defi  string
}

func mustEntry(t *testing.T, words []string, defi string, format entry.DefiFormat) *entry.Entry {
	t.Helper()
	e, err := entry.New(words, defi, format)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func seqOf(items ...entry.Item) iter.Seq2[entry.Item, error] {
	return func(yield func(entry.Item, error) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

func runChain(t *testing.T, c *Chain, items ...entry.Item) []pair {
	t.Helper()
	if err := c.Prepare(); err != nil {
		t.Fatal(err)
	}
	var got []pair
	for item, err := range c.Apply(seqOf(items...)) {
		if err != nil {
			t.Fatal(err)
		}
		e, ok := item.(*entry.Entry)
		if !ok {
			got = append(got, pair{Words: item.Words()})
			continue
		}
		got = append(got, pair{Words: e.Words(), Defi: e.Defi()})
	}
	return got
}

// TestChain_skipDuplicateHeadword tests case-insensitive duplicate removal.
func TestChain_skipDuplicateHeadword(t *testing.T) {
	t.Parallel()

	c := FromRules(Rules{SkipDuplicateHeadword: true}, Deps{})
	got := runChain(t, c,
		mustEntry(t, []string{"cat"}, "a feline", entry.PlainText),
		mustEntry(t, []string{"Cat"}, "duplicate", entry.PlainText),
		mustEntry(t, []string{"dog"}, "a canine", entry.PlainText),
	)

	expected := []pair{
		{Words: []string{"cat"}, Defi: "a feline"},
		{Words: []string{"dog"}, Defi: "a canine"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("entries (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{SkipDuplicateHeadwordName: 1}, c.Dropped()); diff != "" {
		t.Fatalf("Dropped (-want, +got):\n%s", diff)
	}
}

// TestChain_Add tests that filters are deduplicated by name.
func TestChain_Add(t *testing.T) {
	t.Parallel()

	c := NewChain(zap.NewNop())
	if !c.Add(RemoveHTMLAll()) {
		t.Fatal("Add: want true")
	}
	if c.Add(RemoveHTMLAll()) {
		t.Fatal("Add: want false for duplicate")
	}
	c.AddObserver(MaxMemoryUsage(zap.NewNop(), 1))
	c.Add(Lower())

	// Observers always run last.
	expected := []string{RemoveHTMLAllName, LowerName, MaxMemoryUsageName}
	if diff := cmp.Diff(expected, c.Names()); diff != "" {
		t.Fatalf("Names (-want, +got):\n%s", diff)
	}
}

type recorder struct {
	ratios []float64
}

func (r *recorder) Progress(ratio float64, _ string) {
	r.ratios = append(r.ratios, ratio)
}

// TestChain_observerSeesKept tests that observers only see kept items.
func TestChain_observerSeesKept(t *testing.T) {
	t.Parallel()

	ui := &recorder{}
	c := FromRules(Rules{SkipResources: true}, Deps{
		UI:    ui,
		Total: func() int { return 2 },
	})

	data, err := entry.NewDataEntry("a.png", []byte("x"), "")
	if err != nil {
		t.Fatal(err)
	}
	got := runChain(t, c,
		mustEntry(t, []string{"a"}, "1", entry.PlainText),
		data,
		mustEntry(t, []string{"b"}, "2", entry.PlainText),
	)
	if len(got) != 2 {
		t.Fatalf("want 2 entries, got %d", len(got))
	}
	if diff := cmp.Diff([]float64{0.5, 1}, ui.ratios); diff != "" {
		t.Fatalf("progress (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{SkipResourcesName: 1}, c.Dropped()); diff != "" {
		t.Fatalf("Dropped (-want, +got):\n%s", diff)
	}
}

// TestChain_errors tests that source errors are passed through.
func TestChain_errors(t *testing.T) {
	t.Parallel()

	errTest := errors.New("test")
	c := NewChain(nil)
	seq := func(yield func(entry.Item, error) bool) {
		yield(nil, errTest)
	}
	for _, err := range c.Apply(seq) {
		if !errors.Is(err, errTest) {
			t.Fatalf("Apply: want %v, got %v", errTest, err)
		}
	}
}

// TestFilters tests individual filters.
func TestFilters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		filter   Filter
		words    []string
		defi     string
		format   entry.DefiFormat
		expected *pair
	}{
		{
			name:     "trim whitespaces",
			filter:   TrimWhitespaces(),
			words:    []string{"  hoge  fuga ", " ", "piyo"},
			defi:     "  defi \n",
			expected: &pair{Words: []string{"hoge fuga", "piyo"}, Defi: "defi"},
		},
		{
			name:     "non empty word",
			filter:   NonEmptyWord(zap.NewNop()),
			words:    []string{" "},
			expected: nil,
		},
		{
			name:     "lower",
			filter:   Lower(),
			words:    []string{"HOGE", "Fuga"},
			expected: &pair{Words: []string{"hoge", "fuga"}},
		},
		{
			name:     "utf8 check",
			filter:   UTF8Check(zap.NewNop()),
			words:    []string{"é"},
			defi:     "a\xffb",
			expected: &pair{Words: []string{"é"}, Defi: "a�b"},
		},
		{
			name:     "rtl",
			filter:   RTL(),
			words:    []string{"hoge"},
			defi:     "defi",
			expected: &pair{Words: []string{"hoge"}, Defi: `<div dir="rtl">defi</div>`},
		},
		{
			name:     "remove empty dup alts",
			filter:   RemoveEmptyDupAlts(),
			words:    []string{"hoge", "fuga", "hoge", "fuga"},
			expected: &pair{Words: []string{"hoge", "fuga"}},
		},
		{
			name:     "remove html all",
			filter:   RemoveHTMLAll(),
			words:    []string{"hoge"},
			defi:     "<b>bold</b> text",
			format:   entry.HTML,
			expected: &pair{Words: []string{"hoge"}, Defi: "bold text"},
		},
		{
			name:     "remove html",
			filter:   RemoveHTML("b, font", zap.NewNop()),
			words:    []string{"hoge"},
			defi:     `<B>bold</B> <font color="red">red</font> <i>it</i>`,
			format:   entry.HTML,
			expected: &pair{Words: []string{"hoge"}, Defi: `bold red <i>it</i>`},
		},
		{
			name:     "normalize html",
			filter:   NormalizeHTML(zap.NewNop()),
			words:    []string{"hoge"},
			defi:     `<B CLASS=x>bold</B> &amp; text`,
			format:   entry.HTML,
			expected: &pair{Words: []string{"hoge"}, Defi: `<b class="x">bold</b> &amp; text`},
		},
		{
			name:     "strip full html",
			filter:   StripFullHTML(nil, zap.NewNop()),
			words:    []string{"hoge"},
			defi:     "<!DOCTYPE html>\n<html><head></head><body class=\"x\"><p>body</p></body></html>",
			format:   entry.HTML,
			expected: &pair{Words: []string{"hoge"}, Defi: "<p>body</p>"},
		},
		{
			name:     "strip full html fragment",
			filter:   StripFullHTML(nil, zap.NewNop()),
			words:    []string{"hoge"},
			defi:     "<p>fragment</p>",
			format:   entry.HTML,
			expected: &pair{Words: []string{"hoge"}, Defi: "<p>fragment</p>"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			format := test.format
			if format == entry.UnsetFormat {
				format = entry.PlainText
			}
			e := mustEntry(t, test.words, test.defi, format)
			if err := test.filter.Prepare(); err != nil {
				t.Fatal(err)
			}
			out, ok := test.filter.Run(e)
			if test.expected == nil {
				if ok {
					t.Fatalf("Run: want drop, got %v", out)
				}
				return
			}
			if !ok {
				t.Fatal("Run: unexpected drop")
			}
			oe := out.(*entry.Entry)
			got := pair{Words: oe.Words(), Defi: oe.Defi()}
			want := *test.expected
			if want.Defi == "" {
				want.Defi = test.defi
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("Run (-want, +got):\n%s", diff)
			}
		})
	}
}

// TestStripFullHTML_error tests the error handler of StripFullHTML.
func TestStripFullHTML_error(t *testing.T) {
	t.Parallel()

	var msgs []string
	f := StripFullHTML(func(_ *entry.Entry, msg string) {
		msgs = append(msgs, msg)
	}, nil)
	if _, ok := f.Run(mustEntry(t, []string{"hoge"}, "<html><p>no body</p></html>", entry.HTML)); !ok {
		t.Fatal("Run: unexpected drop")
	}
	if diff := cmp.Diff([]string{"<body not found"}, msgs); diff != "" {
		t.Fatalf("errors (-want, +got):\n%s", diff)
	}
}

// TestPreventDuplicateWords tests renaming of duplicate headwords.
func TestPreventDuplicateWords(t *testing.T) {
	t.Parallel()

	c := NewChain(nil)
	c.Add(PreventDuplicateWords())
	got := runChain(t, c,
		mustEntry(t, []string{"cat"}, "1", entry.PlainText),
		mustEntry(t, []string{"cat"}, "2", entry.PlainText),
		mustEntry(t, []string{"cat"}, "3", entry.PlainText),
	)
	expected := []pair{
		{Words: []string{"cat"}, Defi: "1"},
		{Words: []string{"cat (2)"}, Defi: "2"},
		{Words: []string{"cat (3)"}, Defi: "3"},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("entries (-want, +got):\n%s", diff)
	}
}
