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

// Package jsonfmt implements glossaries stored as a single JSON object.
//
// Each member maps headwords joined with "|" to a definition. Members whose
// key starts with "##" hold glossary info.
package jsonfmt

import (
	"strings"

	"github.com/ianlewis/go-glossary/plugin"
)

// Name is the format name.
const Name = "Json"

// infoPrefix marks info members.
const infoPrefix = "##"

// Plugin returns the Json format plugin.
func Plugin() *plugin.Plugin {
	return &plugin.Plugin{
		Name:       Name,
		Desc:       "JSON (.json)",
		Extensions: []string{".json"},
		SingleFile: true,
		ReadOptions: []plugin.Option{
			{Name: "resources", Type: plugin.Bool, Default: true, Comment: "Read resources from <file>_res"},
		},
		WriteOptions: []plugin.Option{
			{Name: "enable_info", Type: plugin.Bool, Default: true, Comment: "Write glossary info as ## members"},
			{Name: "resources", Type: plugin.Bool, Default: true, Comment: "Write resources to <file>_res"},
			{Name: "word_title", Type: plugin.Bool, Default: false, Comment: "Add headwords title to definitions"},
		},
		SortPolicy: plugin.DefaultNo,
		NewReader:  newReader,
		NewWriter:  newWriter,
	}
}

func joinWords(words []string) string {
	return strings.Join(words, "|")
}

func splitWords(key string) []string {
	return strings.Split(key, "|")
}
