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

// Package scratch tracks the temporary files and directories created during
// a conversion so they can be removed when it ends.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/hashicorp/go-multierror"
	"go.uber.org/zap"
)

// DefaultDir returns the default cache directory.
func DefaultDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "go-glossary")
}

// Scratch is the set of temporary paths owned by a conversion. A Scratch is
// safe for concurrent use.
type Scratch struct {
	dir    string
	logger *zap.Logger

	mu    sync.Mutex
	paths []string
}

// New returns a Scratch rooted at dir. An empty dir means DefaultDir.
func New(dir string, logger *zap.Logger) *Scratch {
	if dir == "" {
		dir = DefaultDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scratch{
		dir:    dir,
		logger: logger,
	}
}

// Dir returns the cache directory.
func (s *Scratch) Dir() string {
	return s.dir
}

// Path returns a path under the cache directory. The path is not
// registered.
func (s *Scratch) Path(elem ...string) string {
	return filepath.Join(append([]string{s.dir}, elem...)...)
}

// Register adds path to the owned paths. Registering a path twice has no
// effect.
func (s *Scratch) Register(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.paths, path) {
		s.paths = append(s.paths, path)
	}
}

// MkdirAll creates and registers a directory under the cache directory and
// returns its path.
func (s *Scratch) MkdirAll(elem ...string) (string, error) {
	path := s.Path(elem...)
	if err := os.MkdirAll(path, 0o700); err != nil {
		return "", fmt.Errorf("creating %q: %w", path, err)
	}
	s.Register(path)
	return path, nil
}

// Paths returns the owned paths in registration order.
func (s *Scratch) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.paths)
}

// Cleanup removes every owned path, most recently registered first. A path
// that fails to be removed is logged and the remaining paths are still
// removed. The failures are returned together. Cleanup forgets all paths so
// calling it again is a no-op.
func (s *Scratch) Cleanup() error {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	var result *multierror.Error
	for _, path := range slices.Backward(paths) {
		if _, err := os.Lstat(path); os.IsNotExist(err) {
			continue
		}
		if err := os.RemoveAll(path); err != nil {
			s.logger.Error("removing temporary path", zap.String("path", path), zap.Error(err))
			result = multierror.Append(result, err)
			continue
		}
		s.logger.Debug("removed temporary path", zap.String("path", path))
	}
	return result.ErrorOrNil()
}

// Keep forgets every owned path without removing it. The kept paths are
// logged.
func (s *Scratch) Keep() {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	if len(paths) > 0 {
		s.logger.Info("not removing temporary paths", zap.Strings("paths", paths))
	}
}
