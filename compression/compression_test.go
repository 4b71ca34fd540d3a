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

package compression

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestDetect tests Detect.
func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		filename string
		base     string
		kind     Kind
	}{
		{filename: "dict.txt", base: "dict.txt", kind: None},
		{filename: "dict.txt.gz", base: "dict.txt", kind: Gzip},
		{filename: "dict.ifo.ZIP", base: "dict.ifo", kind: Zip},
		{filename: "dict.dict.dz", base: "dict.dict", kind: Dictzip},
		{filename: "dict.json.zst", base: "dict.json", kind: Zstd},
		{filename: "dict.tab.bz2", base: "dict.tab", kind: Bzip2},
	}

	for _, test := range tests {
		base, kind := Detect(test.filename)
		if base != test.base || kind != test.kind {
			t.Fatalf("Detect(%q): want (%q, %q), got (%q, %q)", test.filename, test.base, test.kind, base, kind)
		}
	}
}

// TestCompress_roundTrip tests compressing and uncompressing a file.
func TestCompress_roundTrip(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{Gzip, Dictzip, Zstd, Zip} {
		t.Run(string(kind), func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, "dict.txt")
			want := "hoge\tfuga\n"
			if err := os.WriteFile(path, []byte(want), 0o600); err != nil {
				t.Fatal(err)
			}

			compressed, err := Compress(path, kind)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			if got, want := compressed, path+"."+string(kind); got != want {
				t.Fatalf("Compress: want %q, got %q", want, got)
			}
			if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
				t.Fatalf("original not removed: %v", err)
			}

			out, err := Uncompress(compressed, filepath.Join(dir, "out"), kind)
			if err != nil {
				t.Fatalf("Uncompress: %v", err)
			}
			b, err := os.ReadFile(out)
			if err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(want, string(b)); diff != "" {
				t.Fatalf("content (-want, +got):\n%s", diff)
			}
		})
	}
}

// TestCompress_dir tests zipping a directory.
func TestCompress_dir(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := filepath.Join(dir, "dict-stardict")
	if err := os.MkdirAll(filepath.Join(src, "res"), 0o700); err != nil {
		t.Fatal(err)
	}
	for name, content := range map[string]string{
		"dict.ifo":  "ifo",
		"res/a.png": "png",
	} {
		if err := os.WriteFile(filepath.Join(src, filepath.FromSlash(name)), []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := Compress(src, Gzip); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("Compress: want %v, got %v", ErrUnsupported, err)
	}

	zipPath, err := Compress(src, Zip)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}

	out, err := Uncompress(zipPath, filepath.Join(dir, "out"), Zip)
	if err != nil {
		t.Fatalf("Uncompress: %v", err)
	}
	if got, want := out, filepath.Join(dir, "out"); got != want {
		t.Fatalf("Uncompress: want %q, got %q", want, got)
	}
	b, err := os.ReadFile(filepath.Join(out, "res", "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "png" {
		t.Fatalf("res/a.png: want %q, got %q", "png", b)
	}
}
