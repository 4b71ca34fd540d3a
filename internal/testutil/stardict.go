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

package testutil

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/ianlewis/go-dictzip"

	"github.com/ianlewis/go-glossary/formats/stardict/dict"
	"github.com/ianlewis/go-glossary/formats/stardict/idx"
	"github.com/ianlewis/go-glossary/formats/stardict/ifo"
	"github.com/ianlewis/go-glossary/formats/stardict/syn"
)

// Article is a test dictionary article. The first word is the headword and
// the rest are synonyms.
type Article struct {
	Words []string
	Data  []*dict.Data
}

// StardictOptions are options for MakeStardict.
type StardictOptions struct {
	// Bookname is the dictionary name. Defaults to the file name.
	Bookname string

	// DictZip indicates that the dict file should be compressed with DictZip.
	DictZip bool

	// GzipIdx indicates that the idx file should be compressed with gzip.
	GzipIdx bool

	// SameTypeSequence is the sametypesequence option.
	SameTypeSequence []dict.DataType

	// Resources are files written to the res/ directory.
	Resources map[string]string
}

// MakeStardict writes a test dictionary named name to dir and returns the
// path of the .ifo file. Articles are written in the given order.
func MakeStardict(t *testing.T, dir, name string, articles []Article, opts *StardictOptions) string {
	t.Helper()
	if opts == nil {
		opts = &StardictOptions{}
	}
	base := filepath.Join(dir, name)

	var dictData, idxData, synData bytes.Buffer
	iw, err := idx.NewWriter(&idxData, 32)
	if err != nil {
		t.Fatal(err)
	}
	var syns []*syn.Word
	for i, a := range articles {
		b, err := dict.Encode(&dict.Article{Data: a.Data}, opts.SameTypeSequence)
		if err != nil {
			t.Fatal(err)
		}
		if err := iw.Write(&idx.Word{
			Word:   a.Words[0],
			Offset: uint64(dictData.Len()),
			Size:   uint32(len(b)),
		}); err != nil {
			t.Fatal(err)
		}
		dictData.Write(b)
		for _, w := range a.Words[1:] {
			//nolint:gosec // test data is small.
			syns = append(syns, &syn.Word{Word: w, OriginalWordIndex: uint32(i)})
		}
	}
	if err := iw.Flush(); err != nil {
		t.Fatal(err)
	}
	slices.SortStableFunc(syns, func(a, b *syn.Word) int {
		return strings.Compare(strings.ToLower(a.Word), strings.ToLower(b.Word))
	})
	sw := syn.NewWriter(&synData)
	for _, s := range syns {
		if err := sw.Write(s); err != nil {
			t.Fatal(err)
		}
	}
	if err := sw.Flush(); err != nil {
		t.Fatal(err)
	}

	info := ifo.Empty()
	info.Set("version", "3.0.0")
	bookname := opts.Bookname
	if bookname == "" {
		bookname = name
	}
	info.Set("bookname", bookname)
	info.Set("wordcount", strconv.Itoa(len(articles)))
	if len(syns) > 0 {
		info.Set("synwordcount", strconv.Itoa(len(syns)))
	}
	info.Set("idxfilesize", strconv.Itoa(idxData.Len()))
	if len(opts.SameTypeSequence) > 0 {
		var sts []byte
		for _, dt := range opts.SameTypeSequence {
			sts = append(sts, byte(dt))
		}
		info.Set("sametypesequence", string(sts))
	}
	var ifoData bytes.Buffer
	if _, err := info.WriteTo(&ifoData); err != nil {
		t.Fatal(err)
	}
	writeFile(t, base+".ifo", ifoData.Bytes())

	if opts.GzipIdx {
		var z bytes.Buffer
		zw := gzip.NewWriter(&z)
		if _, err := zw.Write(idxData.Bytes()); err != nil {
			t.Fatal(err)
		}
		if err := zw.Close(); err != nil {
			t.Fatal(err)
		}
		writeFile(t, base+".idx.gz", z.Bytes())
	} else {
		writeFile(t, base+".idx", idxData.Bytes())
	}

	if opts.DictZip {
		makeDictzip(t, base+".dict.dz", dictData.Bytes())
	} else {
		writeFile(t, base+".dict", dictData.Bytes())
	}

	if len(syns) > 0 {
		writeFile(t, base+".syn", synData.Bytes())
	}

	for rel, data := range opts.Resources {
		path := filepath.Join(dir, "res", filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		writeFile(t, path, []byte(data))
	}

	return base + ".ifo"
}

func makeDictzip(t *testing.T, path string, data []byte) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	z, err := dictzip.NewWriter(f)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := z.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := z.Close(); err != nil {
		t.Fatal(err)
	}
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}
