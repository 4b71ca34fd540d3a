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

// Package index implements an in-memory headword index used to look up
// glossary entries.
package index

import (
	"slices"
	"sort"
	"strings"
)

type keyed[V any] struct {
	key   string
	value V
}

// Index maps headwords to values. Headwords are compared after folding.
type Index[V any] struct {
	entries []keyed[V]
	fold    func(string) string
	sorted  bool
}

// New returns an empty index. fold normalizes headwords and queries before
// they are compared. A nil fold compares them unchanged.
func New[V any](fold func(string) string) *Index[V] {
	if fold == nil {
		fold = func(s string) string { return s }
	}
	return &Index[V]{fold: fold}
}

// Add adds v under every word in words. Words that fold to the same key add
// v once.
func (idx *Index[V]) Add(words []string, v V) {
	seen := make(map[string]bool, len(words))
	for _, w := range words {
		key := idx.fold(w)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		idx.entries = append(idx.entries, keyed[V]{key: key, value: v})
	}
	idx.sorted = false
}

// Len returns the number of keys in the index.
func (idx *Index[V]) Len() int {
	return len(idx.entries)
}

func (idx *Index[V]) sort() {
	if idx.sorted {
		return
	}
	// Values added under the same key keep their insertion order.
	slices.SortStableFunc(idx.entries, func(a, b keyed[V]) int {
		return strings.Compare(a.key, b.key)
	})
	idx.sorted = true
}

// Search returns the values whose headword matches query.
func (idx *Index[V]) Search(query string) []V {
	idx.sort()
	query = idx.fold(query)

	i, found := sort.Find(len(idx.entries), func(i int) int {
		return strings.Compare(query, idx.entries[i].key)
	})
	if !found {
		return nil
	}

	var result []V
	for ; i < len(idx.entries) && idx.entries[i].key == query; i++ {
		result = append(result, idx.entries[i].value)
	}
	return result
}

// Prefix returns the values whose headword starts with prefix in headword
// order. At most limit values are returned if limit is positive.
func (idx *Index[V]) Prefix(prefix string, limit int) []V {
	idx.sort()
	prefix = idx.fold(prefix)

	i := sort.Search(len(idx.entries), func(i int) bool {
		return idx.entries[i].key >= prefix
	})

	var result []V
	for ; i < len(idx.entries) && strings.HasPrefix(idx.entries[i].key, prefix); i++ {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, idx.entries[i].value)
	}
	return result
}
