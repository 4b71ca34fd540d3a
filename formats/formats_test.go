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

package formats

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestRegistry tests that every built-in format is registered and detected
// by its extension.
func TestRegistry(t *testing.T) {
	t.Parallel()

	r := Registry()

	var names []string
	for _, p := range r.Plugins() {
		names = append(names, p.Name)
	}
	if diff := cmp.Diff([]string{"Info", "Json", "Stardict", "Tabfile"}, names); diff != "" {
		t.Fatalf("Plugins (-want, +got):\n%s", diff)
	}

	tests := map[string]string{
		"a.txt":     "Tabfile",
		"a.tsv.gz":  "Tabfile",
		"a.json":    "Json",
		"a/b.ifo":   "Stardict",
		"a.ifo.zst": "Stardict",
	}
	for filename, expected := range tests {
		d, err := r.DetectInput(filename, "")
		if err != nil {
			t.Fatalf("DetectInput(%q): %v", filename, err)
		}
		if d.Plugin.Name != expected {
			t.Errorf("DetectInput(%q): want %q, got %q", filename, expected, d.Plugin.Name)
		}
	}

	d, err := r.DetectOutput("", "Stardict", "dict.txt")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := d.Filename, "dict-stardict"; got != want {
		t.Fatalf("DetectOutput: want %q, got %q", want, got)
	}
}
