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

// Package glossary implements a conversion engine for glossary and
// dictionary files.
//
// A conversion runs in several stages:
//  1. The input format is detected from the file name and any compression
//     is undone into a temporary file.
//  2. A reader for the input format produces entries. Entries pass through
//     a chain of filters that transform or drop them.
//  3. In buffered mode the entries are stored in an entry list that may be
//     sorted. The list is held in memory or in a temporary SQLite database.
//     In direct mode entries are streamed to the writer as they are read.
//  4. A writer for the output format receives the entries, together with an
//     optional .info side writer that records glossary metadata.
//  5. The output is compressed if requested and every temporary file is
//     removed.
//
// Formats are provided as plugins. See the formats package for the built-in
// formats.
package glossary
