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

// Package info implements a write-only format that records glossary info and
// entry statistics as a JSON document.
package info

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/plugin"
)

// Name is the format name.
const Name = "Info"

// Plugin returns the Info format plugin.
func Plugin() *plugin.Plugin {
	return &plugin.Plugin{
		Name:       Name,
		Desc:       "Glossary info (.info)",
		Extensions: []string{".info"},
		SingleFile: true,
		SortPolicy: plugin.Never,
		NewWriter:  newWriter,
	}
}

// Stats are the entry statistics collected by the writer.
type Stats struct {
	Entries     int
	DataEntries int
	Alternates  int
	DefiFormats map[entry.DefiFormat]int
}

type writer struct {
	g     plugin.Glossary
	path  string
	stats Stats
	done  bool
}

func newWriter(g plugin.Glossary, _ map[string]any) (plugin.Writer, error) {
	return &writer{g: g}, nil
}

// Open implements [plugin.Writer.Open].
func (w *writer) Open(path string) error {
	w.path = path
	w.stats = Stats{DefiFormats: map[entry.DefiFormat]int{}}
	w.done = false
	return nil
}

// Begin implements [plugin.Consumer.Begin].
func (*writer) Begin() error {
	return nil
}

// Accept implements [plugin.Consumer.Accept].
func (w *writer) Accept(item entry.Item) error {
	switch it := item.(type) {
	case *entry.DataEntry:
		w.stats.DataEntries++
	case *entry.Entry:
		w.stats.Entries++
		w.stats.Alternates += len(it.Alternates())
		w.stats.DefiFormats[it.DefiFormat()]++
	}
	return nil
}

// End implements [plugin.Consumer.End]. The document is written once all
// entries have been counted.
func (w *writer) End() error {
	if w.done {
		return nil
	}
	w.done = true

	var members [][2]string
	for _, k := range w.g.InfoKeys() {
		members = append(members, [2]string{k, w.g.Info(k)})
	}
	members = append(members,
		[2]string{"entry_count", strconv.Itoa(w.stats.Entries)},
		[2]string{"data_entry_count", strconv.Itoa(w.stats.DataEntries)},
		[2]string{"alternate_count", strconv.Itoa(w.stats.Alternates)},
	)
	formats := make([]entry.DefiFormat, 0, len(w.stats.DefiFormats))
	for f := range w.stats.DefiFormats {
		formats = append(formats, f)
	}
	slices.Sort(formats)
	for _, f := range formats {
		members = append(members, [2]string{"defi_format_" + f.String(), strconv.Itoa(w.stats.DefiFormats[f])})
	}

	var buf bytes.Buffer
	buf.WriteString("{")
	for i, m := range members {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n\t")
		if err := writeString(&buf, m[0]); err != nil {
			return err
		}
		buf.WriteString(": ")
		if err := writeString(&buf, m[1]); err != nil {
			return err
		}
	}
	buf.WriteString("\n}\n")

	if err := os.WriteFile(w.path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("writing %q: %w", w.path, err)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding json: %w", err)
	}
	buf.Write(b)
	return nil
}

// Finish implements [plugin.Writer.Finish].
func (*writer) Finish() error {
	return nil
}
