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

package index

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func testIndex() *Index[int] {
	idx := New[int](strings.ToLower)
	idx.Add([]string{"foo"}, 1)
	idx.Add([]string{"Bar", "bar", "baz"}, 2)
	idx.Add([]string{"bar"}, 3)
	idx.Add([]string{"food", ""}, 4)
	return idx
}

func TestIndex_Search(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		query    string
		expected []int
	}{
		{
			name:     "single result",
			query:    "foo",
			expected: []int{1},
		},
		{
			name:     "multiple results",
			query:    "BAR",
			expected: []int{2, 3},
		},
		{
			name:     "alternate",
			query:    "baz",
			expected: []int{2},
		},
		{
			name:     "no results",
			query:    "none",
			expected: nil,
		},
	}

	idx := testIndex()
	if got, want := idx.Len(), 5; got != want {
		t.Fatalf("Len: want %d, got %d", want, got)
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()

			// A fresh index per subtest since Search sorts lazily.
			if diff := cmp.Diff(test.expected, testIndex().Search(test.query)); diff != "" {
				t.Fatalf("Search (-want, +got):\n%s", diff)
			}
		})
	}
}

func TestIndex_Prefix(t *testing.T) {
	t.Parallel()

	idx := testIndex()
	if diff := cmp.Diff([]int{1, 4}, idx.Prefix("fo", 0)); diff != "" {
		t.Fatalf("Prefix (-want, +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 3}, idx.Prefix("ba", 2)); diff != "" {
		t.Fatalf("Prefix (-want, +got):\n%s", diff)
	}
	if got := idx.Prefix("x", 0); got != nil {
		t.Fatalf("Prefix: want nil, got %v", got)
	}
}
