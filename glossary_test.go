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

package glossary

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/internal/testutil"
	"github.com/ianlewis/go-glossary/plugin"
	"github.com/ianlewis/go-glossary/sortkey"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// newTestGlossary returns a Glossary with its cache in a temporary
// directory.
func newTestGlossary(t *testing.T, cfg *Config, plugins ...*plugin.Plugin) *Glossary {
	t.Helper()

	r, err := plugin.NewRegistry(plugins...)
	if err != nil {
		t.Fatal(err)
	}
	return newTestGlossaryWithRegistry(t, cfg, r)
}

func newTestGlossaryWithRegistry(t *testing.T, cfg *Config, r *plugin.Registry) *Glossary {
	t.Helper()

	c := DefaultConfig()
	if cfg != nil {
		c = *cfg
	}
	if c.CacheDir == "" {
		c.CacheDir = t.TempDir()
	}
	g, err := New(&Options{
		Registry: r,
		Config:   &c,
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func touch(t *testing.T, path string) string {
	t.Helper()
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// cacheEntries returns the names left in the cache directory.
func cacheEntries(t *testing.T, g *Glossary) []string {
	t.Helper()
	entries, err := os.ReadDir(g.config.CacheDir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func words(items []entry.Item) []string {
	var w []string
	for _, item := range items {
		w = append(w, item.Word())
	}
	return w
}

type fakeReader struct{ plugin.Reader }

// TestGlossary_NewDataEntry tests where data entries keep their payload.
func TestGlossary_NewDataEntry(t *testing.T) {
	t.Parallel()

	t.Run("direct", func(t *testing.T) {
		t.Parallel()

		g := newTestGlossary(t, nil)
		g.readers = append(g.readers, fakeReader{})
		d, err := g.NewDataEntry("img/a.png", []byte("png"))
		if err != nil {
			t.Fatal(err)
		}
		if d.TmpPath() != "" {
			t.Fatalf("TmpPath: want inline data, got %q", d.TmpPath())
		}
		if len(g.CleanupPaths()) != 0 {
			t.Fatalf("CleanupPaths: want none, got %q", g.CleanupPaths())
		}
		g.readers = nil
	})

	t.Run("data dir", func(t *testing.T) {
		t.Parallel()

		g := newTestGlossary(t, nil)
		g.setTmpDataDir("/path/to/dict.txt")
		if len(g.CleanupPaths()) != 0 {
			t.Fatalf("CleanupPaths: directory created eagerly: %q", g.CleanupPaths())
		}

		d, err := g.NewDataEntry("img/a.png", []byte("png"))
		if err != nil {
			t.Fatal(err)
		}
		run := filepath.Join(g.config.CacheDir, g.runID)
		dir := filepath.Join(run, "dict.txt_res")
		if got, want := d.TmpPath(), filepath.Join(dir, "img_a.png"); got != want {
			t.Fatalf("TmpPath: want %q, got %q", want, got)
		}
		if diff := cmp.Diff([]string{run, dir}, g.CleanupPaths()); diff != "" {
			t.Fatalf("CleanupPaths (-want, +got):\n%s", diff)
		}

		if err := g.Cleanup(); err != nil {
			t.Fatal(err)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Fatalf("Stat(%q): want not exist, got %v", dir, err)
		}
	})

	t.Run("tmp", func(t *testing.T) {
		t.Parallel()

		g := newTestGlossary(t, nil)
		d, err := g.NewDataEntry("a.png", []byte("png"))
		if err != nil {
			t.Fatal(err)
		}
		dir := filepath.Join(g.config.CacheDir, g.runID, "tmp")
		if got := filepath.Dir(d.TmpPath()); got != dir {
			t.Fatalf("TmpPath: want a file in %q, got %q", dir, d.TmpPath())
		}
		if err := g.Cleanup(); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff([]string(nil), cacheEntries(t, g)); diff != "" {
			t.Fatalf("cache (-want, +got):\n%s", diff)
		}
	})
}

// TestGlossary_NewEntry tests that the default definition format is
// inherited.
func TestGlossary_NewEntry(t *testing.T) {
	t.Parallel()

	g := newTestGlossary(t, nil)
	g.SetDefaultDefiFormat(entry.HTML)

	e, err := g.NewEntry([]string{"a"}, "<b>x</b>", entry.UnsetFormat)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := e.DefiFormat(), entry.HTML; got != want {
		t.Fatalf("DefiFormat: want %q, got %q", want, got)
	}

	if _, err := g.NewEntry(nil, "x", entry.PlainText); err == nil {
		t.Fatal("NewEntry: expected error for no headwords")
	}
}

// TestGlossary_WordTitle tests WordTitle.
func TestGlossary_WordTitle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		word     string
		sample   string
		class    string
		hasTitle string
		expected string
	}{
		{name: "latin", word: "cat", expected: "<b>cat</b><br>"},
		{name: "escaped", word: "a<b", expected: "<b>a&lt;b</b><br>"},
		{name: "non-latin", word: "گربه", expected: "<big>گربه</big><br>"},
		{name: "sample", word: "1", sample: "猫", expected: "<big>1</big><br>"},
		{name: "class", word: "cat", class: "hw", expected: `<b class="hw">cat</b><br>`},
		{name: "empty", word: "", expected: ""},
		{name: "has title", word: "cat", hasTitle: "True", expected: ""},
		{name: "bad has title", word: "cat", hasTitle: "yes", expected: "<b>cat</b><br>"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			g := newTestGlossary(t, nil)
			if test.hasTitle != "" {
				g.SetInfo(InfoDefinitionHasHeadwords, test.hasTitle)
				g.checkDefiHasWordTitle()
			}
			if got := g.WordTitle(test.word, test.sample, test.class); got != test.expected {
				t.Fatalf("WordTitle: want %q, got %q", test.expected, got)
			}
		})
	}
}

// TestGlossary_detectLangsFromName tests language detection from names.
func TestGlossary_detectLangsFromName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		info   map[string]string
		source string
		target string
	}{
		{name: "names", info: map[string]string{InfoName: "English-Persian"}, source: "English", target: "Persian"},
		{name: "codes", info: map[string]string{InfoName: "Dictionary en to fa"}, source: "English", target: "Persian"},
		{name: "none", info: map[string]string{InfoName: "My Dictionary"}},
		{
			name:   "already set",
			info:   map[string]string{InfoName: "English-Persian", InfoSourceLang: "French", InfoTargetLang: "German"},
			source: "French",
			target: "German",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			g := newTestGlossary(t, nil)
			for k, v := range test.info {
				g.SetInfo(k, v)
			}
			g.detectLangsFromName()
			if got := g.Info(InfoSourceLang); got != test.source {
				t.Errorf("sourceLang: want %q, got %q", test.source, got)
			}
			if got := g.Info(InfoTargetLang); got != test.target {
				t.Errorf("targetLang: want %q, got %q", test.target, got)
			}
		})
	}
}

// TestGlossary_InfoKeys tests that info keys keep insertion order.
func TestGlossary_InfoKeys(t *testing.T) {
	t.Parallel()

	g := newTestGlossary(t, nil)
	g.SetInfo("b", "1")
	g.SetInfo("a", "2")
	g.SetInfo("b", "3")

	if diff := cmp.Diff([]string{"b", "a"}, g.InfoKeys()); diff != "" {
		t.Fatalf("InfoKeys (-want, +got):\n%s", diff)
	}
	if got := g.Info("b"); got != "3" {
		t.Fatalf("Info: want %q, got %q", "3", got)
	}
}

// TestGlossary_Read tests buffered and direct reads.
func TestGlossary_Read(t *testing.T) {
	t.Parallel()

	for _, direct := range []bool{false, true} {
		t.Run(map[bool]string{false: "buffered", true: "direct"}[direct], func(t *testing.T) {
			t.Parallel()

			items := testutil.Entries(t, "b", "x", "a", "y")
			g := newTestGlossary(t, nil, testutil.MemoryPlugin("Mem", ".mem", plugin.DefaultNo, items, nil, nil))
			in := touch(t, filepath.Join(t.TempDir(), "dict.mem"))

			if err := g.Read(context.Background(), in, ReadArgs{Direct: direct}); err != nil {
				t.Fatal(err)
			}
			defer g.Clear()

			if got, want := g.Len(), 2; got != want {
				t.Fatalf("Len: want %d, got %d", want, got)
			}
			if got, want := g.Info(InfoName), "dict.mem"; got != want {
				t.Fatalf("name: want %q, got %q", want, got)
			}
			if got, want := g.Filename(), strings.TrimSuffix(in, ".mem"); got != want {
				t.Fatalf("Filename: want %q, got %q", want, got)
			}

			got := words(testutil.Collect(t, g.Entries()))
			if diff := cmp.Diff([]string{"b", "a"}, got); diff != "" {
				t.Fatalf("entries (-want, +got):\n%s", diff)
			}
		})
	}
}

// TestGlossary_Write_directFallback tests that sorting while reading in
// direct mode loads the entries first.
func TestGlossary_Write_directFallback(t *testing.T) {
	t.Parallel()

	items := testutil.Entries(t, "Banana", "x", "apple", "y", "Cherry", "z")
	sink := &testutil.Sink{}
	g := newTestGlossary(t, nil,
		testutil.MemoryPlugin("Mem", ".mem", plugin.DefaultNo, items, nil, nil),
		testutil.MemoryPlugin("Out", ".out", plugin.DefaultNo, nil, sink, nil),
	)
	defer g.Cleanup()

	dir := t.TempDir()
	in := touch(t, filepath.Join(dir, "in.mem"))
	if err := g.Read(context.Background(), in, ReadArgs{Direct: true}); err != nil {
		t.Fatal(err)
	}
	key, err := sortkey.New(sortkey.DefaultName, "", "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.data.SetSortKey(key); err != nil {
		t.Fatal(err)
	}

	if _, err := g.Write(context.Background(), filepath.Join(dir, "out.out"), "Out", WriteArgs{Sort: true}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"apple", "Banana", "Cherry"}, words(sink.Snapshot())); diff != "" {
		t.Fatalf("entries (-want, +got):\n%s", diff)
	}
}

// recordUI records progress texts by bar title.
type recordUI struct {
	title string
	texts map[string][]string
}

func (u *recordUI) ProgressInit(title string) {
	u.title = title
	if u.texts == nil {
		u.texts = map[string][]string{}
	}
}

func (u *recordUI) Progress(_ float64, text string) {
	u.texts[u.title] = append(u.texts[u.title], text)
}

func (*recordUI) ProgressEnd() {}

// dropWords drops entries with the given headwords.
type dropWords []string

func (dropWords) Name() string   { return "drop_words" }
func (dropWords) Prepare() error { return nil }

func (d dropWords) Run(item entry.Item) (entry.Item, bool) {
	return item, !slices.Contains(d, item.Word())
}

// TestGlossary_Write_progress tests that write progress counts the entries
// that reach the writer after writer filters.
func TestGlossary_Write_progress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		direct   bool
		title    string
		expected []string
	}{
		{
			name:     "loaded",
			title:    "Writing",
			expected: []string{"1 / 4", "2 / 4"},
		},
		{
			name:     "direct",
			direct:   true,
			title:    "Converting",
			expected: []string{"1 / 4", "2 / 4"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			items := testutil.Entries(t, "a", "1", "b", "2", "c", "3", "d", "4")
			sink := &testutil.Sink{}
			r, err := plugin.NewRegistry(
				testutil.MemoryPlugin("Mem", ".mem", plugin.DefaultNo, items, nil, nil),
				testutil.MemoryPlugin("Out", ".out", plugin.DefaultNo, nil, sink, nil),
			)
			if err != nil {
				t.Fatal(err)
			}
			cfg := DefaultConfig()
			cfg.CacheDir = t.TempDir()
			ui := &recordUI{}
			g, err := New(&Options{Registry: r, Config: &cfg, UI: ui})
			if err != nil {
				t.Fatal(err)
			}
			defer g.Cleanup()

			dir := t.TempDir()
			in := touch(t, filepath.Join(dir, "in.mem"))
			if err := g.Read(context.Background(), in, ReadArgs{Direct: tc.direct}); err != nil {
				t.Fatal(err)
			}
			g.addExtraFilter(dropWords{"b", "d"})

			if _, err := g.Write(context.Background(), filepath.Join(dir, "out.out"), "Out", WriteArgs{}); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff([]string{"a", "c"}, words(sink.Snapshot())); diff != "" {
				t.Fatalf("entries (-want, +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.expected, ui.texts[tc.title]); diff != "" {
				t.Fatalf("progress (-want, +got):\n%s", diff)
			}
		})
	}
}

// TestGlossary_CollectDefiFormat tests CollectDefiFormat.
func TestGlossary_CollectDefiFormat(t *testing.T) {
	t.Parallel()

	items := testutil.Entries(t, "a", "<b>x</b>", "b", "plain", "c", "<i>y</i>", "d", "<p>z</p>")
	g := newTestGlossary(t, nil, testutil.MemoryPlugin("Mem", ".mem", plugin.DefaultNo, items, nil, nil))
	in := touch(t, filepath.Join(t.TempDir(), "in.mem"))
	if err := g.Read(context.Background(), in, ReadArgs{}); err != nil {
		t.Fatal(err)
	}
	defer g.Clear()

	got, err := g.CollectDefiFormat(2)
	if err != nil {
		t.Fatal(err)
	}
	expected := map[entry.DefiFormat]float64{
		entry.HTML:      0.5,
		entry.PlainText: 0.5,
		entry.XDXF:      0,
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("CollectDefiFormat (-want, +got):\n%s", diff)
	}
}
