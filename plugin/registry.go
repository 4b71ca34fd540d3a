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

package plugin

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ianlewis/go-glossary/compression"
)

var (
	// ErrUnknownFormat indicates a format name or extension that is not
	// registered.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrNoReadSupport indicates a format that cannot be read.
	ErrNoReadSupport = errors.New("format cannot be read")

	// ErrNoWriteSupport indicates a format that cannot be written.
	ErrNoWriteSupport = errors.New("format cannot be written")

	// ErrDuplicate indicates a plugin registered twice.
	ErrDuplicate = errors.New("duplicate plugin")

	// ErrNoFilename indicates that no output file name was given or could be
	// derived.
	ErrNoFilename = errors.New("no file name")
)

// Registry maps format names and file extensions to plugins.
type Registry struct {
	byName map[string]*Plugin
	byExt  map[string]*Plugin
}

// NewRegistry returns a registry holding plugins.
func NewRegistry(plugins ...*Plugin) (*Registry, error) {
	r := &Registry{
		byName: map[string]*Plugin{},
		byExt:  map[string]*Plugin{},
	}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a plugin. The first plugin registered for an extension
// wins.
func (r *Registry) Register(p *Plugin) error {
	if _, ok := r.byName[p.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicate, p.Name)
	}
	r.byName[p.Name] = p
	for _, ext := range p.Extensions {
		ext = strings.ToLower(ext)
		if _, ok := r.byExt[ext]; !ok {
			r.byExt[ext] = p
		}
	}
	return nil
}

// Get returns the plugin with the given name.
func (r *Registry) Get(name string) (*Plugin, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Plugins returns all plugins sorted by name.
func (r *Registry) Plugins() []*Plugin {
	plugins := make([]*Plugin, 0, len(r.byName))
	for _, p := range r.byName {
		plugins = append(plugins, p)
	}
	slices.SortFunc(plugins, func(a, b *Plugin) int {
		return strings.Compare(a.Name, b.Name)
	})
	return plugins
}

// byFilename returns the plugin for a file name's extension.
func (r *Registry) byFilename(filename string) (*Plugin, error) {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(filename, "/")))
	if ext == "" {
		return nil, fmt.Errorf("%w: no file extension in %q", ErrUnknownFormat, filename)
	}
	p, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: extension %q", ErrUnknownFormat, ext)
	}
	return p, nil
}

// Detected is the result of format detection.
type Detected struct {
	// Filename is the file name with any compression extension removed.
	Filename string

	// Plugin is the detected format.
	Plugin *Plugin

	// Compression is the compression kind of the file.
	Compression compression.Kind
}

// DetectInput detects the format of an input file. format overrides the
// format implied by the file extension.
func (r *Registry) DetectInput(filename, format string) (*Detected, error) {
	base, kind := compression.Detect(filename)

	var p *Plugin
	if format != "" {
		var ok bool
		if p, ok = r.Get(format); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
		}
	} else {
		var err error
		if p, err = r.byFilename(base); err != nil {
			return nil, err
		}
	}
	if !p.CanRead() {
		return nil, fmt.Errorf("%w: %q", ErrNoReadSupport, p.Name)
	}

	return &Detected{
		Filename:    base,
		Plugin:      p,
		Compression: kind,
	}, nil
}

// DetectOutput detects the format of an output file. If filename is empty it
// is derived from inputFilename and the format's extension.
func (r *Registry) DetectOutput(filename, format, inputFilename string) (*Detected, error) {
	var p *Plugin
	if format != "" {
		var ok bool
		if p, ok = r.Get(format); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
		}
	}

	if filename == "" {
		if p == nil || inputFilename == "" {
			return nil, ErrNoFilename
		}
		if !p.CanWrite() {
			return nil, fmt.Errorf("%w: %q", ErrNoWriteSupport, p.Name)
		}
		base, _ := compression.Detect(inputFilename)
		base = strings.TrimSuffix(base, filepath.Ext(base))
		return &Detected{
			Filename: base + strings.TrimSuffix(p.Ext(), "/"),
			Plugin:   p,
		}, nil
	}

	base, kind := compression.Detect(filename)
	if p == nil {
		var err error
		if p, err = r.byFilename(base); err != nil {
			return nil, err
		}
	}
	if !p.CanWrite() {
		return nil, fmt.Errorf("%w: %q", ErrNoWriteSupport, p.Name)
	}

	return &Detected{
		Filename:    base,
		Plugin:      p,
		Compression: kind,
	}, nil
}
