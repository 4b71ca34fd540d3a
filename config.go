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
	"os"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/ianlewis/go-glossary/filter"
)

// Config is the engine configuration.
//
// Fields are not given env-default tags. cleanenv applies defaults to fields
// holding their zero value which would turn an explicit "false" in a file
// back into "true". Defaults come from DefaultConfig instead.
type Config struct {
	// CacheDir holds temporary files. Empty means the user cache directory.
	CacheDir string `yaml:"cache_dir" env:"GLOSSARY_CACHE_DIR" env-description:"directory for temporary files"`

	// Cleanup removes temporary files after a conversion.
	Cleanup bool `yaml:"cleanup" env:"GLOSSARY_CLEANUP" env-description:"remove temporary files after conversion"`

	// AutoSQLite stores entries in SQLite when sorting unless the caller
	// decides otherwise.
	AutoSQLite bool `yaml:"auto_sqlite" env:"GLOSSARY_AUTO_SQLITE" env-description:"use SQLite for sorting by default"`

	// EnableAlts enables alternate headwords.
	EnableAlts bool `yaml:"enable_alts" env:"GLOSSARY_ENABLE_ALTS" env-description:"enable alternate headwords"`

	// SaveInfoJSON writes a .info file next to the output.
	SaveInfoJSON bool `yaml:"save_info_json" env:"GLOSSARY_SAVE_INFO_JSON" env-description:"write glossary info to a .info file"`

	SkipResources         bool   `yaml:"skip_resources" env:"GLOSSARY_SKIP_RESOURCES" env-description:"skip resource files"`
	UTF8Check             bool   `yaml:"utf8_check" env:"GLOSSARY_UTF8_CHECK" env-description:"fix invalid UTF-8"`
	Lower                 bool   `yaml:"lower" env:"GLOSSARY_LOWER" env-description:"lowercase headwords"`
	RTL                   bool   `yaml:"rtl" env:"GLOSSARY_RTL" env-description:"mark definitions right-to-left"`
	RemoveHTMLAll         bool   `yaml:"remove_html_all" env:"GLOSSARY_REMOVE_HTML_ALL" env-description:"remove all HTML tags"`
	RemoveHTML            string `yaml:"remove_html" env:"GLOSSARY_REMOVE_HTML" env-description:"comma separated HTML tags to remove"`
	NormalizeHTML         bool   `yaml:"normalize_html" env:"GLOSSARY_NORMALIZE_HTML" env-description:"lowercase HTML tags"`
	SkipDuplicateHeadword bool   `yaml:"skip_duplicate_headword" env:"GLOSSARY_SKIP_DUPLICATE_HEADWORD" env-description:"skip entries with a duplicate headword"`
	ShowMemoryUsage       bool   `yaml:"show_memory_usage" env:"GLOSSARY_SHOW_MEMORY_USAGE" env-description:"log memory usage"`

	Log LogConfig `yaml:"log" env-prefix:"GLOSSARY_LOG_"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error or none.
	Level string `yaml:"level" env:"LEVEL" env-description:"log level"`

	// Format is text or json.
	Format string `yaml:"format" env:"FORMAT" env-description:"log format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Cleanup:    true,
		AutoSQLite: true,
		EnableAlts: true,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads the configuration from a YAML file and environment
// variables. Priority: ENV > YAML > defaults. An empty path reads the
// environment only.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return Config{}, fmt.Errorf("%w: config file %s: %w", ErrConfiguration, path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: reading %s: %w", ErrConfiguration, path, err)
		}
		return cfg, nil
	}

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: reading env: %w", ErrConfiguration, err)
	}
	return cfg, nil
}

// Usage returns a description of the environment variables read by
// LoadConfig.
func Usage() (string, error) {
	var cfg Config
	s, err := cleanenv.GetDescription(&cfg, nil)
	if err != nil {
		return "", fmt.Errorf("describing config: %w", err)
	}
	return s, nil
}

// rules returns the filter rules selected by the configuration.
func (c *Config) rules() filter.Rules {
	return filter.Rules{
		SkipResources:         c.SkipResources,
		UTF8Check:             c.UTF8Check,
		Lower:                 c.Lower,
		RTL:                   c.RTL,
		RemoveHTMLAll:         c.RemoveHTMLAll,
		RemoveHTML:            c.RemoveHTML,
		NormalizeHTML:         c.NormalizeHTML,
		SkipDuplicateHeadword: c.SkipDuplicateHeadword,
		ShowMemoryUsage:       c.ShowMemoryUsage,
	}
}
