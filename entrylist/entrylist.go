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

// Package entrylist implements storage for buffered glossary entries.
//
// Two backends implement [List]: [Memory] keeps entries in a slice and
// [SQLite] serializes them to a private on-disk database that lives only for
// the duration of a conversion. Both produce the same order for the same
// input and sort key.
package entrylist

import (
	"errors"
	"iter"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/sortkey"
)

var (
	// ErrNoSortKey indicates that Sort was called before SetSortKey.
	ErrNoSortKey = errors.New("no sort key set")

	// ErrClosed indicates that the list was used after Close.
	ErrClosed = errors.New("entry list closed")
)

// List is an ordered collection of glossary items.
type List interface {
	// Append adds an item to the end of the list.
	Append(item entry.Item) error

	// All returns the items in list order. Each call starts a new pass over
	// the list. Breaking out of the loop releases any resources held by the
	// pass.
	All() iter.Seq2[entry.Item, error]

	// Len returns the number of items in the list.
	Len() int

	// Clear removes all items.
	Clear() error

	// SetSortKey binds the sort key used by Sort. Any keys derived from a
	// previously bound sort key are discarded.
	SetSortKey(key *sortkey.Key) error

	// Sort orders the list by the bound sort key. Items with equal keys keep
	// their insertion order.
	Sort() error

	// Close releases the list's resources.
	Close() error
}
