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

// Package compression implements whole-file compression of glossary input
// and output files.
package compression

import (
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/ianlewis/go-dictzip"
	"github.com/klauspost/compress/zstd"
)

var (
	// ErrUnsupported indicates an unsupported compression kind or operation.
	ErrUnsupported = errors.New("unsupported compression")

	// ErrUnsafePath indicates an archive member that would be extracted
	// outside the destination.
	ErrUnsafePath = errors.New("unsafe archive path")
)

// Kind is a compression kind. Kinds are named by their file extension.
type Kind string

const (
	// None is no compression.
	None Kind = ""

	// Gzip is gzip compression.
	Gzip Kind = "gz"

	// Bzip2 is bzip2 compression. Bzip2 is read only.
	Bzip2 Kind = "bz2"

	// Zip is a zip archive.
	Zip Kind = "zip"

	// Dictzip is the random access gzip variant used by dictd and StarDict.
	Dictzip Kind = "dz"

	// Zstd is Zstandard compression.
	Zstd Kind = "zst"
)

// Kinds are the supported compression kinds.
var Kinds = []Kind{Gzip, Bzip2, Zip, Dictzip, Zstd}

// Detect splits a compression extension from filename. kind is None if
// filename has no known compression extension.
func Detect(filename string) (base string, kind Kind) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, k := range Kinds {
		if ext == string(k) {
			return strings.TrimSuffix(filename, filepath.Ext(filename)), k
		}
	}
	return filename, None
}

// Uncompress decompresses src to dst and returns the path to read. For zip
// archives dst is a directory. If the archive holds a single file the path
// of that file is returned, otherwise dst.
func Uncompress(src, dst string, kind Kind) (string, error) {
	if kind == Zip {
		return unzip(src, dst)
	}

	f, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("opening %q: %w", src, err)
	}
	defer f.Close()

	var r io.Reader
	switch kind {
	case Gzip:
		zr, err := gzip.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("reading %q: %w", src, err)
		}
		defer zr.Close()
		r = zr
	case Bzip2:
		r = bzip2.NewReader(f)
	case Dictzip:
		zr, err := dictzip.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("reading %q: %w", src, err)
		}
		// f is closed by the deferred Close above.
		r = io.NewSectionReader(zr, 0, math.MaxInt64)
	case Zstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return "", fmt.Errorf("reading %q: %w", src, err)
		}
		defer zr.Close()
		r = zr
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupported, kind)
	}

	if err := writeFile(dst, r); err != nil {
		return "", err
	}
	return dst, nil
}

func writeFile(dst string, r io.Reader) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %q: %w", dst, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf("writing %q: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", dst, err)
	}
	return nil
}

func unzip(src, dst string) (string, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("opening %q: %w", src, err)
	}
	defer zr.Close()

	if err := os.MkdirAll(dst, 0o700); err != nil {
		return "", fmt.Errorf("creating %q: %w", dst, err)
	}

	var files []string
	for _, zf := range zr.File {
		name := filepath.FromSlash(zf.Name)
		if !filepath.IsLocal(name) {
			return "", fmt.Errorf("%w: %q", ErrUnsafePath, zf.Name)
		}
		path := filepath.Join(dst, name)
		if zf.FileInfo().IsDir() {
			if err := os.MkdirAll(path, 0o700); err != nil {
				return "", fmt.Errorf("creating %q: %w", path, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return "", fmt.Errorf("creating %q: %w", path, err)
		}
		rc, err := zf.Open()
		if err != nil {
			return "", fmt.Errorf("reading %q: %w", zf.Name, err)
		}
		err = writeFile(path, rc)
		_ = rc.Close()
		if err != nil {
			return "", err
		}
		files = append(files, path)
	}

	if len(files) == 1 && filepath.Dir(files[0]) == filepath.Clean(dst) {
		return files[0], nil
	}
	return dst, nil
}

// Compress compresses the file or directory at path and returns the path of
// the compressed file. Directories can only be compressed as zip archives.
// The uncompressed original is removed.
func Compress(path string, kind Kind) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("compressing %q: %w", path, err)
	}
	dst := strings.TrimSuffix(path, string(filepath.Separator)) + "." + string(kind)

	if fi.IsDir() {
		if kind != Zip {
			return "", fmt.Errorf("%w: %q for a directory", ErrUnsupported, kind)
		}
		if err := zipDir(path, dst); err != nil {
			return "", err
		}
		if err := os.RemoveAll(path); err != nil {
			return "", fmt.Errorf("removing %q: %w", path, err)
		}
		return dst, nil
	}

	if err := compressFile(path, dst, kind); err != nil {
		_ = os.Remove(dst)
		return "", err
	}
	if err := os.Remove(path); err != nil {
		return "", fmt.Errorf("removing %q: %w", path, err)
	}
	return dst, nil
}

func compressFile(src, dst string, kind Kind) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening %q: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %q: %w", dst, err)
	}
	defer out.Close()

	var w io.WriteCloser
	switch kind {
	case Gzip:
		w = gzip.NewWriter(out)
	case Dictzip:
		w, err = dictzip.NewWriter(out)
	case Zstd:
		w, err = zstd.NewWriter(out)
	case Zip:
		zw := zip.NewWriter(out)
		fw, err := zw.Create(filepath.Base(src))
		if err != nil {
			return fmt.Errorf("writing %q: %w", dst, err)
		}
		if _, err := io.Copy(fw, in); err != nil {
			return fmt.Errorf("writing %q: %w", dst, err)
		}
		if err := zw.Close(); err != nil {
			return fmt.Errorf("writing %q: %w", dst, err)
		}
		return out.Close()
	default:
		return fmt.Errorf("%w: %q", ErrUnsupported, kind)
	}
	if err != nil {
		return fmt.Errorf("creating %q: %w", dst, err)
	}

	if _, err := io.Copy(w, in); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing %q: %w", dst, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("writing %q: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", dst, err)
	}
	return nil
}

// zipDir writes the contents of dir to a zip archive at dst. Archive paths
// are relative to dir.
func zipDir(dir, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating %q: %w", dst, err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	if err := zw.AddFS(os.DirFS(dir)); err != nil {
		_ = zw.Close()
		return fmt.Errorf("writing %q: %w", dst, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("writing %q: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %q: %w", dst, err)
	}
	return nil
}
