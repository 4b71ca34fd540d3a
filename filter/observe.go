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
	"fmt"

	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/internal/memstat"
)

// Observer filter names.
const (
	ProgressBarName    = "progressbar"
	MaxMemoryUsageName = "max_memory_usage"
)

// Progresser receives progress updates.
type Progresser interface {
	// Progress reports the completed ratio in [0, 1].
	Progress(ratio float64, text string)
}

// ProgressBar reports progress for every item that reaches it. It uses the
// reader's byte progress when an entry carries one and the item count
// against total otherwise. total is evaluated in Prepare and may return
// zero if the count is unknown.
func ProgressBar(ui Progresser, total func() int) Filter {
	return &progressBar{
		ui:    ui,
		total: total,
	}
}

type progressBar struct {
	ui    Progresser
	total func() int

	n    int
	max  int
	step int
}

func (*progressBar) Name() string { return ProgressBarName }

func (f *progressBar) Prepare() error {
	f.n = 0
	f.max = 0
	if f.total != nil {
		f.max = f.total()
	}
	f.step = max(f.max/200, 1)
	return nil
}

func (f *progressBar) Run(item entry.Item) (entry.Item, bool) {
	f.n++
	if e, ok := item.(*entry.Entry); ok {
		if pos, total, ok := e.ByteProgress(); ok {
			if f.n%f.step == 0 {
				f.ui.Progress(float64(pos)/float64(total), fmt.Sprintf("%d / %d bytes", pos, total))
			}
			return item, true
		}
	}
	if f.max > 0 && f.n%f.step == 0 {
		f.ui.Progress(min(float64(f.n)/float64(f.max), 1), fmt.Sprintf("%d / %d", f.n, f.max))
	}
	return item, true
}

// MaxMemoryUsage samples memory usage every interval items and logs new
// maxima at debug level.
func MaxMemoryUsage(logger *zap.Logger, interval int) Filter {
	return &maxMemoryUsage{
		logger:   logger,
		interval: max(interval, 1),
		usage:    memstat.Usage,
	}
}

type maxMemoryUsage struct {
	logger   *zap.Logger
	interval int
	usage    func() uint64

	n   int
	max uint64
}

func (*maxMemoryUsage) Name() string { return MaxMemoryUsageName }

func (f *maxMemoryUsage) Prepare() error {
	f.n = 0
	f.max = 0
	return nil
}

func (f *maxMemoryUsage) Run(item entry.Item) (entry.Item, bool) {
	f.n++
	if f.n%f.interval != 0 {
		return item, true
	}
	if u := f.usage(); u > f.max {
		f.max = u
		f.logger.Debug("max memory usage", append([]zap.Field{zap.Int("entries", f.n)}, memstat.Fields(u)...)...)
	}
	return item, true
}
