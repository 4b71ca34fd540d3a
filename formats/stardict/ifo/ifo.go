// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ifo implements reading and writing .ifo files.
//
// An .ifo file starts with a magic line followed by key=value lines. The
// first key must be "version".
package ifo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"
)

// Magic is the first line of a StarDict .ifo file.
const Magic = "StarDict's dict ifo file"

var (
	// ErrInvalid indicates a malformed .ifo file.
	ErrInvalid = errors.New("invalid ifo file")

	keyRegex = regexp.MustCompile("^[a-zA-Z0-9-_]+$")
)

// Ifo is the metadata of a dictionary.
type Ifo struct {
	magic  string
	keys   []string
	values map[string]string
}

// Empty returns a new Ifo with the StarDict magic and no values.
func Empty() *Ifo {
	return &Ifo{
		magic:  Magic,
		values: map[string]string{},
	}
}

// New reads an Ifo from r.
func New(r io.Reader) (*Ifo, error) {
	i := &Ifo{
		values: map[string]string{},
	}

	s := bufio.NewScanner(r)
	if !s.Scan() {
		if err := s.Err(); err != nil {
			return nil, fmt.Errorf("reading ifo: %w", err)
		}
		return nil, fmt.Errorf("%w: empty file", ErrInvalid)
	}
	i.magic = strings.TrimPrefix(strings.TrimRight(s.Text(), "\r"), "\ufeff")

	for s.Scan() {
		line := strings.TrimRight(s.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("%w: invalid line: %q", ErrInvalid, line)
		}
		k = strings.TrimRight(k, " ")
		if !keyRegex.MatchString(k) {
			return nil, fmt.Errorf("%w: invalid key: %q", ErrInvalid, k)
		}
		if len(i.keys) == 0 && k != "version" {
			return nil, fmt.Errorf("%w: missing version", ErrInvalid)
		}
		i.Set(k, strings.TrimLeft(v, " "))
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading ifo: %w", err)
	}
	if len(i.keys) == 0 {
		return nil, fmt.Errorf("%w: missing version", ErrInvalid)
	}

	return i, nil
}

// Magic returns the magic line.
func (i *Ifo) Magic() string {
	return i.magic
}

// Value returns the value of key or an empty string.
func (i *Ifo) Value(key string) string {
	return i.values[key]
}

// Keys returns the keys in file order.
func (i *Ifo) Keys() []string {
	return slices.Clone(i.keys)
}

// Set sets the value of key. Newlines in value are replaced with "<br>"
// because values are single lines.
func (i *Ifo) Set(key, value string) {
	value = strings.ReplaceAll(value, "\r\n", "<br>")
	value = strings.ReplaceAll(value, "\n", "<br>")
	if _, ok := i.values[key]; !ok {
		i.keys = append(i.keys, key)
	}
	i.values[key] = value
}

// WriteTo writes the Ifo to w. The version key is always written first.
func (i *Ifo) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	b.WriteString(i.magic)
	b.WriteByte('\n')
	if v, ok := i.values["version"]; ok {
		fmt.Fprintf(&b, "version=%s\n", v)
	}
	for _, k := range i.keys {
		if k == "version" {
			continue
		}
		fmt.Fprintf(&b, "%s=%s\n", k, i.values[k])
	}
	n, err := io.WriteString(w, b.String())
	if err != nil {
		return int64(n), fmt.Errorf("writing ifo: %w", err)
	}
	return int64(n), nil
}
