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

// Package memstat samples the memory usage of the process.
package memstat

import (
	"runtime"

	"github.com/dustin/go-humanize"
	"github.com/pbnjay/memory"
	"go.uber.org/zap"
)

// Usage returns the memory currently obtained from the OS and not yet
// released back to it.
func Usage() uint64 {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Sys - m.HeapReleased
}

// Total returns the total system memory or zero if it is unknown.
func Total() uint64 {
	return memory.TotalMemory()
}

// Fields returns log fields describing usage.
func Fields(usage uint64) []zap.Field {
	fields := []zap.Field{
		zap.String("memory", humanize.Bytes(usage)),
	}
	if total := Total(); total > 0 {
		fields = append(fields, zap.String("memory_percent", humanize.FtoaWithDigits(float64(usage)*100/float64(total), 1)+"%"))
	}
	return fields
}

// Log logs the current memory usage at debug level.
func Log(logger *zap.Logger, stage string) {
	if !logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	logger.Debug("memory usage", append([]zap.Field{zap.String("stage", stage)}, Fields(Usage())...)...)
}
