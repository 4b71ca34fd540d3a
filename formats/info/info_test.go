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

package info

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/tidwall/gjson"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/internal/testutil"
)

// TestWriter tests that info and statistics are written.
func TestWriter(t *testing.T) {
	t.Parallel()

	g := testutil.NewGlossary()
	g.SetInfo("name", "Test")
	g.SetInfo("author", "Me")

	items := testutil.Entries(t, "a|b|c", "x", "d", "y")
	html, err := entry.New([]string{"e"}, "<b>z</b>", entry.HTML)
	if err != nil {
		t.Fatal(err)
	}
	d, err := entry.NewDataEntry("a.png", []byte("png"), "")
	if err != nil {
		t.Fatal(err)
	}
	items = append(items, html, d)

	w, err := newWriter(g, nil)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "out.info")
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
	if !gjson.ValidBytes(b) {
		t.Fatalf("invalid json: %s", b)
	}

	var keys []string
	got := map[string]string{}
	gjson.ParseBytes(b).ForEach(func(k, v gjson.Result) bool {
		keys = append(keys, k.String())
		got[k.String()] = v.String()
		return true
	})

	expectedKeys := []string{
		"name", "author", "entry_count", "data_entry_count",
		"alternate_count", "defi_format_h", "defi_format_m",
	}
	if diff := cmp.Diff(expectedKeys, keys); diff != "" {
		t.Fatalf("keys (-want, +got):\n%s", diff)
	}
	expected := map[string]string{
		"name":             "Test",
		"author":           "Me",
		"entry_count":      "3",
		"data_entry_count": "1",
		"alternate_count":  "2",
		"defi_format_h":    "1",
		"defi_format_m":    "2",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Fatalf("info (-want, +got):\n%s", diff)
	}
}
