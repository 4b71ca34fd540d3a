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

package glossary

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/entrylist"
	"github.com/ianlewis/go-glossary/plugin"
	"github.com/ianlewis/go-glossary/sortkey"
)

// checkSortFlag resolves the sort flag from the writer's sort policy. A nil
// sort means the user did not decide.
func (g *Glossary) checkSortFlag(p *plugin.Plugin, sort *bool) bool {
	switch p.SortPolicy {
	case plugin.Always:
		if sort != nil && !*sort {
			g.logger.Warn("format requires sorting, ignoring sort=false", zap.String("format", p.Name))
		}
		return true
	case plugin.Never:
		if sort != nil && *sort {
			g.logger.Warn("format prevents sorting, ignoring sort=true", zap.String("format", p.Name))
		}
		return false
	case plugin.DefaultYes:
		return sort == nil || *sort
	default:
		return sort != nil && *sort
	}
}

// checkSortKey resolves the sort key name, locale and encoding. A key
// required by the writer takes precedence over the user's key, which takes
// precedence over the default key.
func (g *Glossary) checkSortKey(p *plugin.Plugin, sortKeyName, sortEncoding string) (name, locale, enc string, err error) {
	switch {
	case p.SortPolicy == plugin.Always:
		if p.SortKeyName == "" {
			g.logger.Error("format has no sort key", zap.String("format", p.Name))
			return "", "", "", fmt.Errorf("%w: format %q has no sort key", ErrConfiguration, p.Name)
		}
		if sortKeyName != "" && sortKeyName != p.SortKeyName {
			g.logger.Warn("ignoring user sort key, using the format's sort key",
				zap.String("sort_key", sortKeyName),
				zap.String("format", p.Name),
			)
		}
		sortKeyName = p.SortKeyName
		if p.SortEncoding != "" {
			sortEncoding = p.SortEncoding
		}
	case sortKeyName == "":
		sortKeyName = p.SortKeyName
	}

	name, locale = sortkey.ParseName(sortKeyName)
	if name == "" {
		name = sortkey.DefaultName
	}
	if sortkey.Lookup(name) == nil {
		g.logger.Error("invalid sort key", zap.String("sort_key", sortKeyName))
		return "", "", "", fmt.Errorf("%w: %w: %q", ErrConfiguration, sortkey.ErrUnknownKey, sortKeyName)
	}
	g.logger.Info("using sort key", zap.String("sort_key", name), zap.String("locale", locale))

	if sortEncoding == "" {
		sortEncoding = sortkey.DefaultEncoding
	}
	return name, locale, sortEncoding, nil
}

// resolveSortParams decides whether entries are sorted and read in direct
// mode. When sorting, it switches to SQLite storage if requested and binds
// the sort key to the entry list.
func (g *Glossary) resolveSortParams(args *ConvertArgs, p *plugin.Plugin) (direct, sort bool, err error) {
	if isTrue(args.Direct) && isTrue(args.SQLite) {
		return false, false, fmt.Errorf("%w: conflicting arguments: direct and sqlite", ErrConfiguration)
	}

	sort = g.checkSortFlag(p, args.Sort)
	if !sort {
		if args.Direct == nil {
			return true, false, nil
		}
		return *args.Direct, false, nil
	}

	if isTrue(args.Direct) {
		g.logger.Warn("sorting requires loading all entries, ignoring direct=true", zap.String("format", p.Name))
	}

	useSQLite := isTrue(args.SQLite)
	if args.SQLite == nil {
		useSQLite = g.config.AutoSQLite
		if useSQLite {
			g.logger.Info("automatically switching to SQLite mode", zap.String("format", p.Name))
		}
	}

	name, locale, enc, err := g.checkSortKey(p, args.SortKeyName, args.SortEncoding)
	if err != nil {
		return false, false, err
	}
	key, err := sortkey.New(name, locale, enc, args.WriteOptions)
	if err != nil {
		return false, false, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}

	if useSQLite {
		if err := g.switchToSQLite(args.InputFilename); err != nil {
			return false, false, err
		}
	}

	if err := g.data.SetSortKey(key); err != nil {
		return false, false, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return false, true, nil
}

// switchToSQLite replaces the in-memory entry list with a SQLite database in
// the cache directory. Entries must not have been stored yet. Alternate
// headwords are force-enabled.
func (g *Glossary) switchToSQLite(inputFilename string) error {
	if g.data.Len() > 0 {
		return fmt.Errorf("%w: cannot switch to SQLite after entries are stored", ErrConfiguration)
	}

	dir, err := g.runDir()
	if err != nil {
		return err
	}
	path := filepath.Join(dir, filepath.Base(inputFilename)+".db")
	list, err := entrylist.NewSQLite(path, g.logger)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	g.scratch.Register(path)

	if err := g.data.Close(); err != nil {
		g.logger.Error("closing entry list", zap.Error(err))
	}
	g.data = list
	g.sqlite = true

	if !g.alts {
		g.logger.Warn("SQLite mode only works with alternate headwords enabled, force-enabling them")
	}
	g.alts = true
	return nil
}

// SortWords sorts the stored entries by the named sort key. sortKeyName may
// carry a locale after a colon, e.g. "headword_lower:fa_IR". It is not
// supported in direct mode.
func (g *Glossary) SortWords(sortKeyName, sortEncoding string, writeOptions map[string]any) error {
	if len(g.readers) > 0 {
		return fmt.Errorf("%w: sorting is not supported in direct mode", ErrConfiguration)
	}
	name, locale := sortkey.ParseName(sortKeyName)
	if name == "" {
		name = sortkey.DefaultName
	}
	if sortEncoding == "" {
		sortEncoding = sortkey.DefaultEncoding
	}
	key, err := sortkey.New(name, locale, sortEncoding, writeOptions)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	if err := g.data.SetSortKey(key); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	if err := g.data.Sort(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return nil
}

// SQLite returns true if entries are stored in SQLite.
func (g *Glossary) SQLite() bool {
	return g.sqlite
}

func isTrue(b *bool) bool {
	return b != nil && *b
}
