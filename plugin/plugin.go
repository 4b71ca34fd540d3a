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

// Package plugin defines the contracts between the conversion engine and
// glossary format implementations.
//
// A format is described by a [Plugin] which carries factories for a [Reader]
// and a [Writer] together with the option schemas and sorting policy of the
// format. Plugins are looked up by name or file extension in a [Registry].
package plugin

import (
	"errors"
	"iter"

	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/entry"
)

var (
	// ErrFormat indicates a malformed or unsupported input or output file.
	ErrFormat = errors.New("format error")

	// ErrUnknownLen is returned by Reader.Len when the number of entries is
	// not known before reading.
	ErrUnknownLen = errors.New("entry count unknown")

	// ErrConsumerDone is returned by a Consumer that will not accept any
	// more entries. It is not a failure.
	ErrConsumerDone = errors.New("consumer done")
)

// SortPolicy is a writer's requirement on the order of entries.
type SortPolicy int

const (
	// DefaultNo sorts only when the user asks for it.
	DefaultNo SortPolicy = iota

	// DefaultYes sorts unless the user opts out.
	DefaultYes

	// Always sorts regardless of the user's preference.
	Always

	// Never does not sort regardless of the user's preference.
	Never
)

// String returns the policy name.
func (p SortPolicy) String() string {
	switch p {
	case DefaultNo:
		return "default_no"
	case DefaultYes:
		return "default_yes"
	case Always:
		return "always"
	case Never:
		return "never"
	default:
		return "unknown"
	}
}

// ProgressFunc receives the byte progress of a Reader's Open.
type ProgressFunc func(pos, total int64)

// Reader reads entries from a glossary file.
type Reader interface {
	// Open opens the file at path. It fails with an error wrapping
	// [fs.ErrNotExist] if the file does not exist and with an error wrapping
	// [ErrFormat] if the file is malformed. progress may be nil.
	Open(path string, progress ProgressFunc) error

	// Len returns the number of entries or an error wrapping ErrUnknownLen.
	Len() (int, error)

	// Entries returns the entries of the file. The sequence can be iterated
	// once.
	Entries() iter.Seq2[entry.Item, error]

	// Close releases the reader's resources. Close is idempotent.
	Close() error
}

// Consumer receives a stream of entries. Begin is called once before the
// first entry and End at most once after the last one. Any method may return
// ErrConsumerDone to signal that the consumer finished early.
type Consumer interface {
	Begin() error
	Accept(item entry.Item) error
	End() error
}

// Writer writes entries to a glossary file.
type Writer interface {
	// Open prepares to write to path.
	Open(path string) error

	Consumer

	// Finish releases the writer's resources. Finish is idempotent.
	Finish() error
}

// Glossary is the part of the conversion engine available to readers and
// writers.
type Glossary interface {
	// NewEntry returns a new entry. An unset format is replaced with the
	// glossary's default definition format.
	NewEntry(words []string, defi string, format entry.DefiFormat) (*entry.Entry, error)

	// NewDataEntry returns a new data entry for a resource file.
	NewDataEntry(name string, data []byte) (*entry.DataEntry, error)

	// SetInfo sets a glossary metadata value.
	SetInfo(key, value string)

	// Info returns a glossary metadata value.
	Info(key string) string

	// InfoKeys returns the metadata keys in the order they were set.
	InfoKeys() []string

	// SetDefaultDefiFormat sets the definition format of entries created
	// without one.
	SetDefaultDefiFormat(format entry.DefiFormat)

	// Alts returns true if alternate headwords are enabled.
	Alts() bool

	// WordTitle returns an HTML title for a definition or an empty string if
	// definitions already contain their headwords.
	WordTitle(word, sample, class string) string

	// Len returns the number of entries, or zero if unknown.
	Len() int

	// Filename returns the input file name without its extension.
	Filename() string

	// RemoveHTMLTagsAll adds a filter that converts definitions to plain
	// text. It should be called by a writer's factory.
	RemoveHTMLTagsAll()

	// StripFullHTML adds a filter that reduces full HTML documents to their
	// body. onError may be nil.
	StripFullHTML(onError func(e *entry.Entry, msg string))

	// PreventDuplicateWords adds a filter that makes primary headwords
	// unique.
	PreventDuplicateWords()

	// Logger returns the conversion's logger.
	Logger() *zap.Logger
}

// Plugin describes a glossary format.
type Plugin struct {
	// Name is the unique format name, e.g. "Tabfile".
	Name string

	// Desc is a short description.
	Desc string

	// Extensions are the file extensions of the format including the dot.
	Extensions []string

	// ExtensionCreate is the extension used for new output files. A trailing
	// slash means the output is a directory.
	ExtensionCreate string

	// SingleFile is true if the output is a single file.
	SingleFile bool

	// ReadOptions and WriteOptions are the accepted options.
	ReadOptions  []Option
	WriteOptions []Option

	// SortPolicy is the writer's sorting requirement.
	SortPolicy SortPolicy

	// SortKeyName is the name of the sort key required or preferred by the
	// writer.
	SortKeyName string

	// SortEncoding is the encoding the writer sorts in.
	SortEncoding string

	// NewReader returns a new reader. nil if the format cannot be read.
	NewReader func(g Glossary, options map[string]any) (Reader, error)

	// NewWriter returns a new writer. nil if the format cannot be written.
	NewWriter func(g Glossary, options map[string]any) (Writer, error)
}

// CanRead returns true if the format can be read.
func (p *Plugin) CanRead() bool {
	return p.NewReader != nil
}

// CanWrite returns true if the format can be written.
func (p *Plugin) CanWrite() bool {
	return p.NewWriter != nil
}

// Ext returns the extension for new output files.
func (p *Plugin) Ext() string {
	if p.ExtensionCreate != "" {
		return p.ExtensionCreate
	}
	if len(p.Extensions) > 0 {
		return p.Extensions[0]
	}
	return ""
}
