// Copyright 2025 Ian Lewis
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

package entry

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrInvalidName indicates an invalid data entry file name.
var ErrInvalidName = errors.New("invalid data file name")

// DataEntry is a binary attachment of a glossary. The payload is either held
// in memory or in a temporary file owned by the DataEntry.
type DataEntry struct {
	name    string
	data    []byte
	tmpPath string
	size    int64
}

// NewDataEntry returns a new data entry with the relative file name name. If
// tmpPath is not empty the data is written to tmpPath and not kept in memory.
func NewDataEntry(name string, data []byte, tmpPath string) (*DataEntry, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(filepath.Clean(name), "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	d := &DataEntry{
		name: name,
		size: int64(len(data)),
	}
	if tmpPath == "" {
		d.data = data
		return d, nil
	}

	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return nil, fmt.Errorf("writing data file: %w", err)
	}
	d.tmpPath = tmpPath
	return d, nil
}

// NewDataEntryFromFile returns a data entry that takes ownership of an
// existing temporary file.
func NewDataEntryFromFile(name, tmpPath string) (*DataEntry, error) {
	if name == "" || filepath.IsAbs(name) || strings.HasPrefix(filepath.Clean(name), "..") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	fi, err := os.Stat(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("data file: %w", err)
	}
	return &DataEntry{
		name:    name,
		tmpPath: tmpPath,
		size:    fi.Size(),
	}, nil
}

// Words implements [Item.Words]. A data entry's only word is its file name.
func (d *DataEntry) Words() []string {
	return []string{d.name}
}

// Word implements [Item.Word].
func (d *DataEntry) Word() string {
	return d.name
}

// IsData implements [Item.IsData].
func (d *DataEntry) IsData() bool {
	return true
}

// Name returns the relative file name.
func (d *DataEntry) Name() string {
	return d.name
}

// Size returns the size of the data in bytes.
func (d *DataEntry) Size() int64 {
	return d.size
}

// TmpPath returns the path of the temporary file holding the data or an
// empty string if the data is held in memory.
func (d *DataEntry) TmpPath() string {
	return d.tmpPath
}

// Data returns the entry's data.
func (d *DataEntry) Data() ([]byte, error) {
	if d.tmpPath == "" {
		return d.data, nil
	}
	b, err := os.ReadFile(d.tmpPath)
	if err != nil {
		return nil, fmt.Errorf("reading data file: %w", err)
	}
	return b, nil
}

// Save writes the data to dir/name and returns the path written. The entry
// stays readable after Save so it can be saved again. A temporary file is
// linked or copied and stays owned by the DataEntry.
func (d *DataEntry) Save(dir string) (string, error) {
	dst := filepath.Join(dir, filepath.FromSlash(d.name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("creating data directory: %w", err)
	}

	if d.tmpPath == "" {
		if err := os.WriteFile(dst, d.data, 0o644); err != nil {
			return "", fmt.Errorf("writing data file: %w", err)
		}
		return dst, nil
	}

	// dst may be a link to tmpPath from an earlier Save.
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("replacing data file: %w", err)
	}
	// A link fails across file systems so fall back to copying.
	if err := os.Link(d.tmpPath, dst); err == nil {
		return dst, nil
	}
	if err := copyFile(d.tmpPath, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening data file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating data file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("copying data file: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing data file: %w", err)
	}
	return nil
}
