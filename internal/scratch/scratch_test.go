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

package scratch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestScratch_Cleanup tests Scratch.Cleanup.
func TestScratch_Cleanup(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), nil)

	dir, err := s.MkdirAll("dict_res")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.png"), []byte("png"), 0o600); err != nil {
		t.Fatal(err)
	}
	db := s.Path("dict.db")
	if err := os.WriteFile(db, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	s.Register(db)
	s.Register(db)
	s.Register(s.Path("missing"))

	expected := []string{dir, db, s.Path("missing")}
	if diff := cmp.Diff(expected, s.Paths()); diff != "" {
		t.Fatalf("Paths (-want, +got):\n%s", diff)
	}

	if err := s.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	for _, path := range expected {
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("%q not removed: %v", path, err)
		}
	}
	if got := s.Paths(); len(got) != 0 {
		t.Fatalf("Paths after Cleanup: %v", got)
	}
	if err := s.Cleanup(); err != nil {
		t.Fatalf("second Cleanup: %v", err)
	}
}

// TestScratch_Keep tests Scratch.Keep.
func TestScratch_Keep(t *testing.T) {
	t.Parallel()

	s := New(t.TempDir(), nil)
	dir, err := s.MkdirAll("kept")
	if err != nil {
		t.Fatal(err)
	}

	s.Keep()
	if err := s.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Fatalf("kept path removed: %v", err)
	}
}
