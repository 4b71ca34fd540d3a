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

// Package filter implements entry filters and the ordered chain that applies
// them to a stream of glossary items.
package filter

import (
	"fmt"
	"iter"
	"maps"

	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/entry"
)

// Filter transforms or drops items. Filters keep no state between items
// unless noted otherwise.
type Filter interface {
	// Name returns the unique name of the filter.
	Name() string

	// Prepare is called once before any item is run through the filter and
	// after glossary metadata is final.
	Prepare() error

	// Run returns the transformed item. ok is false if the item should be
	// dropped. Run must not fail. Items that cannot be processed are dropped
	// and logged.
	Run(item entry.Item) (out entry.Item, ok bool)
}

// Chain is an ordered list of filters. Transforms run in the order they were
// added. Observers run after all transforms and only see items that were not
// dropped.
type Chain struct {
	transforms []Filter
	observers  []Filter
	names      map[string]bool
	dropped    map[string]int
	logger     *zap.Logger
}

// NewChain returns a new empty Chain.
func NewChain(logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{
		names:   map[string]bool{},
		dropped: map[string]int{},
		logger:  logger,
	}
}

// Add appends a transform filter. It returns false and does nothing if a
// filter with the same name was already added.
func (c *Chain) Add(f Filter) bool {
	if c.names[f.Name()] {
		return false
	}
	c.names[f.Name()] = true
	c.transforms = append(c.transforms, f)
	return true
}

// AddObserver appends an observer filter. It returns false and does nothing
// if a filter with the same name was already added.
func (c *Chain) AddObserver(f Filter) bool {
	if c.names[f.Name()] {
		return false
	}
	c.names[f.Name()] = true
	c.observers = append(c.observers, f)
	return true
}

// Has returns true if a filter with the given name is in the chain.
func (c *Chain) Has(name string) bool {
	return c.names[name]
}

// Names returns the filter names in the order they run.
func (c *Chain) Names() []string {
	names := make([]string, 0, len(c.transforms)+len(c.observers))
	for _, f := range c.transforms {
		names = append(names, f.Name())
	}
	for _, f := range c.observers {
		names = append(names, f.Name())
	}
	return names
}

// Prepare calls Prepare on every filter.
func (c *Chain) Prepare() error {
	for _, f := range c.transforms {
		if err := f.Prepare(); err != nil {
			return fmt.Errorf("preparing filter %q: %w", f.Name(), err)
		}
	}
	for _, f := range c.observers {
		if err := f.Prepare(); err != nil {
			return fmt.Errorf("preparing filter %q: %w", f.Name(), err)
		}
	}
	return nil
}

// Run runs the item through every filter in order. ok is false if a filter
// dropped the item. The drop is counted against the filter's name.
func (c *Chain) Run(item entry.Item) (entry.Item, bool) {
	for _, f := range c.transforms {
		var ok bool
		item, ok = f.Run(item)
		if !ok {
			c.dropped[f.Name()]++
			return nil, false
		}
	}
	for _, f := range c.observers {
		var ok bool
		item, ok = f.Run(item)
		if !ok {
			c.dropped[f.Name()]++
			return nil, false
		}
	}
	return item, true
}

// Apply returns a sequence of the items of seq that pass the chain. Errors
// from seq are passed through.
func (c *Chain) Apply(seq iter.Seq2[entry.Item, error]) iter.Seq2[entry.Item, error] {
	return func(yield func(entry.Item, error) bool) {
		for item, err := range seq {
			if err != nil {
				if !yield(nil, err) {
					return
				}
				continue
			}
			out, ok := c.Run(item)
			if !ok {
				continue
			}
			if !yield(out, nil) {
				return
			}
		}
	}
}

// Dropped returns the number of items dropped by each filter.
func (c *Chain) Dropped() map[string]int {
	return maps.Clone(c.dropped)
}

// LogDropped logs the drop counts at debug level.
func (c *Chain) LogDropped() {
	for _, name := range c.Names() {
		if n := c.dropped[name]; n > 0 {
			c.logger.Debug("entries dropped by filter", zap.String("filter", name), zap.Int("count", n))
		}
	}
}
