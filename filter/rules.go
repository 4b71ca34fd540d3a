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

package filter

import (
	"go.uber.org/zap"
)

// Rules selects the configurable filters.
type Rules struct {
	SkipResources         bool
	UTF8Check             bool
	Lower                 bool
	RTL                   bool
	RemoveHTMLAll         bool
	RemoveHTML            string
	NormalizeHTML         bool
	SkipDuplicateHeadword bool
	ShowMemoryUsage       bool
}

// Deps are the collaborators of the observer filters.
type Deps struct {
	Logger *zap.Logger

	// UI receives progress. No progress filter is added if UI is nil.
	UI Progresser

	// Total returns the expected number of items.
	Total func() int
}

// memoryInterval is the number of items between memory samples.
const memoryInterval = 1000

// FromRules builds a chain with the filters selected by rules. Filters run
// in a fixed order regardless of how they were selected.
func FromRules(rules Rules, deps Deps) *Chain {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := NewChain(logger)
	c.Add(TrimWhitespaces())
	c.Add(NonEmptyWord(logger))
	if rules.SkipResources {
		c.Add(SkipResources())
	}
	if rules.UTF8Check {
		c.Add(UTF8Check(logger))
	}
	if rules.Lower {
		c.Add(Lower())
	}
	if rules.RTL {
		c.Add(RTL())
	}
	if rules.RemoveHTMLAll {
		c.Add(RemoveHTMLAll())
	}
	if rules.RemoveHTML != "" {
		c.Add(RemoveHTML(rules.RemoveHTML, logger))
	}
	if rules.NormalizeHTML {
		c.Add(NormalizeHTML(logger))
	}
	if rules.SkipDuplicateHeadword {
		c.Add(SkipDuplicateHeadword(logger))
	}
	c.Add(RemoveEmptyDupAlts())

	if deps.UI != nil {
		c.AddObserver(ProgressBar(deps.UI, deps.Total))
	}
	if rules.ShowMemoryUsage {
		c.AddObserver(MaxMemoryUsage(logger, memoryInterval))
	}
	return c
}
