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

package entrylist

import (
	"bytes"
	"iter"
	"slices"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/sortkey"
)

type keyed struct {
	item entry.Item
	key  []byte
}

// Memory is an in-memory [List].
type Memory struct {
	items []keyed
	key   *sortkey.Key

	// hasKeys is true when every item's key was derived from key.
	hasKeys bool
}

var _ List = (*Memory)(nil)

// NewMemory returns a new empty in-memory list.
func NewMemory() *Memory {
	return &Memory{}
}

// Append implements [List.Append].
func (m *Memory) Append(item entry.Item) error {
	k := keyed{item: item}
	if m.hasKeys {
		k.key = m.key.Of(item.Words())
	}
	m.items = append(m.items, k)
	return nil
}

// All implements [List.All].
func (m *Memory) All() iter.Seq2[entry.Item, error] {
	return func(yield func(entry.Item, error) bool) {
		for _, k := range m.items {
			if !yield(k.item, nil) {
				return
			}
		}
	}
}

// Len implements [List.Len].
func (m *Memory) Len() int {
	return len(m.items)
}

// Clear implements [List.Clear].
func (m *Memory) Clear() error {
	m.items = nil
	return nil
}

// SetSortKey implements [List.SetSortKey].
func (m *Memory) SetSortKey(key *sortkey.Key) error {
	m.key = key
	m.hasKeys = false
	for i := range m.items {
		m.items[i].key = nil
	}
	return nil
}

// Sort implements [List.Sort].
func (m *Memory) Sort() error {
	if m.key == nil {
		return ErrNoSortKey
	}
	if !m.hasKeys {
		for i := range m.items {
			m.items[i].key = m.key.Of(m.items[i].item.Words())
		}
		m.hasKeys = true
	}
	slices.SortStableFunc(m.items, func(a, b keyed) int {
		return bytes.Compare(a.key, b.key)
	})
	return nil
}

// Close implements [List.Close].
func (m *Memory) Close() error {
	m.items = nil
	return nil
}
