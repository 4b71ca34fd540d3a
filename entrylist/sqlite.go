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

package entrylist

import (
	"database/sql"
	"errors"
	"fmt"
	"iter"
	"net/url"
	"os"

	sq "github.com/Masterminds/squirrel"
	"github.com/hashicorp/go-multierror"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	// Registers the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/ianlewis/go-glossary/entry"
	"github.com/ianlewis/go-glossary/sortkey"
)

const (
	tableName = "entry"
	indexName = "entry_sortkey"

	// batchSize is the number of inserts per transaction.
	batchSize = 1000
)

// record is the serialized form of an item.
type record struct {
	Words  []string `msgpack:"w"`
	Defi   string   `msgpack:"d,omitempty"`
	Format byte     `msgpack:"f,omitempty"`

	IsData  bool   `msgpack:"x,omitempty"`
	TmpPath string `msgpack:"p,omitempty"`
	Data    []byte `msgpack:"b,omitempty"`
}

func encodeItem(item entry.Item) ([]byte, error) {
	var r record
	switch it := item.(type) {
	case *entry.Entry:
		r.Words = it.Words()
		r.Defi = it.Defi()
		r.Format = byte(it.DefiFormat())
	case *entry.DataEntry:
		r.Words = []string{it.Name()}
		r.IsData = true
		r.TmpPath = it.TmpPath()
		if r.TmpPath == "" {
			b, err := it.Data()
			if err != nil {
				return nil, err
			}
			r.Data = b
		}
	default:
		return nil, fmt.Errorf("unsupported item type %T", item)
	}
	b, err := msgpack.Marshal(&r)
	if err != nil {
		return nil, fmt.Errorf("encoding entry: %w", err)
	}
	return b, nil
}

func decodeItem(b []byte) (entry.Item, error) {
	var r record
	if err := msgpack.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("decoding entry: %w", err)
	}
	if r.IsData {
		if len(r.Words) == 0 {
			return nil, entry.ErrInvalidName
		}
		if r.TmpPath != "" {
			return entry.NewDataEntryFromFile(r.Words[0], r.TmpPath)
		}
		return entry.NewDataEntry(r.Words[0], r.Data, "")
	}
	return entry.New(r.Words, r.Defi, entry.DefiFormat(r.Format))
}

// SQLite is a [List] backed by a SQLite database file. Items are stored in
// insertion order and iterated in sort key order after Sort is called.
//
// The database is private to a single conversion. The file is removed and
// recreated by NewSQLite and must be removed by the caller after Close.
type SQLite struct {
	path   string
	db     *sql.DB
	stbl   sq.StatementBuilderType
	logger *zap.Logger

	tx      *sql.Tx
	insert  *sql.Stmt
	pending int

	n      int
	key    *sortkey.Key
	sorted bool
	closed bool
}

var _ List = (*SQLite)(nil)

// NewSQLite creates a new SQLite list at path. Any existing file at path is
// removed.
func NewSQLite(path string, logger *zap.Logger) (*SQLite, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := os.Remove(path); err == nil {
		logger.Info("removed existing entry database", zap.String("path", path))
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("removing %q: %w", path, err)
	}

	// The database is transient so durability is not needed.
	query := url.Values{}
	query.Add("_pragma", "journal_mode(OFF)")
	query.Add("_pragma", "synchronous(OFF)")
	db, err := sql.Open("sqlite", "file:"+path+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("opening entry database: %w", err)
	}
	// A single connection serializes access to the file.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(
		"CREATE TABLE " + tableName + " (id INTEGER PRIMARY KEY, sortkey BLOB, data BLOB NOT NULL)",
	); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating entry table: %w", err)
	}

	logger.Debug("created entry database", zap.String("path", path))

	return &SQLite{
		path:   path,
		db:     db,
		stbl:   sq.StatementBuilder.RunWith(db),
		logger: logger,
	}, nil
}

// Path returns the path of the database file.
func (s *SQLite) Path() string {
	return s.path
}

func (s *SQLite) begin() error {
	if s.tx != nil {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	query, _, err := sq.Insert(tableName).Columns("sortkey", "data").Values(nil, nil).ToSql()
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("building insert: %w", err)
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("preparing insert: %w", err)
	}
	s.tx = tx
	s.insert = stmt
	return nil
}

// flush commits pending inserts.
func (s *SQLite) flush() error {
	if s.tx == nil {
		return nil
	}
	tx, stmt := s.tx, s.insert
	s.tx, s.insert, s.pending = nil, nil, 0
	_ = stmt.Close()
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing entries: %w", err)
	}
	return nil
}

// Append implements [List.Append].
func (s *SQLite) Append(item entry.Item) error {
	if s.closed {
		return ErrClosed
	}
	b, err := encodeItem(item)
	if err != nil {
		return err
	}
	var key []byte
	if s.key != nil {
		key = s.key.Of(item.Words())
	}

	if err := s.begin(); err != nil {
		return err
	}
	if _, err := s.insert.Exec(key, b); err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	s.n++
	s.pending++
	if s.pending >= batchSize {
		return s.flush()
	}
	return nil
}

// All implements [List.All].
func (s *SQLite) All() iter.Seq2[entry.Item, error] {
	return func(yield func(entry.Item, error) bool) {
		if s.closed {
			yield(nil, ErrClosed)
			return
		}
		if err := s.flush(); err != nil {
			yield(nil, err)
			return
		}

		q := s.stbl.Select("data").From(tableName)
		if s.sorted {
			q = q.OrderBy("sortkey", "id")
		} else {
			q = q.OrderBy("id")
		}
		rows, err := q.Query()
		if err != nil {
			yield(nil, fmt.Errorf("querying entries: %w", err))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var b []byte
			if err := rows.Scan(&b); err != nil {
				yield(nil, fmt.Errorf("reading entry: %w", err))
				return
			}
			item, err := decodeItem(b)
			if !yield(item, err) || err != nil {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, fmt.Errorf("reading entries: %w", err))
		}
	}
}

// Len implements [List.Len].
func (s *SQLite) Len() int {
	return s.n
}

// Clear implements [List.Clear].
func (s *SQLite) Clear() error {
	if s.closed {
		return ErrClosed
	}
	if err := s.flush(); err != nil {
		return err
	}
	if _, err := s.stbl.Delete(tableName).Exec(); err != nil {
		return fmt.Errorf("clearing entries: %w", err)
	}
	s.n = 0
	return nil
}

// SetSortKey implements [List.SetSortKey]. Keys of rows already stored are
// re-derived from the new key.
func (s *SQLite) SetSortKey(key *sortkey.Key) error {
	if s.closed {
		return ErrClosed
	}
	if err := s.flush(); err != nil {
		return err
	}
	s.key = key
	s.sorted = false
	if s.n == 0 {
		return nil
	}

	s.logger.Debug("deriving sort keys", zap.String("sort_key", key.Name()), zap.Int("count", s.n))

	type row struct {
		id   int64
		data []byte
	}
	var lastID int64
	for {
		rows, err := s.stbl.Select("id", "data").From(tableName).
			Where(sq.Gt{"id": lastID}).
			OrderBy("id").
			Limit(batchSize).
			Query()
		if err != nil {
			return fmt.Errorf("querying entries: %w", err)
		}
		var batch []row
		for rows.Next() {
			var r row
			if err := rows.Scan(&r.id, &r.data); err != nil {
				_ = rows.Close()
				return fmt.Errorf("reading entry: %w", err)
			}
			batch = append(batch, r)
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return fmt.Errorf("reading entries: %w", err)
		}
		if len(batch) == 0 {
			return nil
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}
		for _, r := range batch {
			item, err := decodeItem(r.data)
			if err != nil {
				_ = tx.Rollback()
				return err
			}
			if _, err := sq.Update(tableName).
				Set("sortkey", key.Of(item.Words())).
				Where(sq.Eq{"id": r.id}).
				RunWith(tx).
				Exec(); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("updating sort key: %w", err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing sort keys: %w", err)
		}
		lastID = batch[len(batch)-1].id
	}
}

// Sort implements [List.Sort]. Sorting rebuilds the sort key index which is
// then used by All.
func (s *SQLite) Sort() error {
	if s.closed {
		return ErrClosed
	}
	if s.key == nil {
		return ErrNoSortKey
	}
	if err := s.flush(); err != nil {
		return err
	}
	if _, err := s.db.Exec("DROP INDEX IF EXISTS " + indexName); err != nil {
		return fmt.Errorf("dropping sort index: %w", err)
	}
	if _, err := s.db.Exec(
		"CREATE INDEX " + indexName + " ON " + tableName + " (sortkey, id)",
	); err != nil {
		return fmt.Errorf("creating sort index: %w", err)
	}
	s.sorted = true
	return nil
}

// Close implements [List.Close]. Close does not remove the database file.
func (s *SQLite) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var result *multierror.Error
	if err := s.flush(); err != nil {
		result = multierror.Append(result, err)
	}
	if err := s.db.Close(); err != nil {
		result = multierror.Append(result, fmt.Errorf("closing entry database: %w", err))
	}
	return result.ErrorOrNil()
}
