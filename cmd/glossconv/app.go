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

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	glossary "github.com/ianlewis/go-glossary"
	"github.com/ianlewis/go-glossary/formats"
	"github.com/ianlewis/go-glossary/logger"
)

const (
	// ExitCodeSuccess is successful error code.
	ExitCodeSuccess int = iota

	// ExitCodeFlagParseError is the exit code for a flag parsing error.
	ExitCodeFlagParseError

	// ExitCodeUnknownError is the exit code for an unknown error.
	ExitCodeUnknownError

	// ExitCodeConfigError is the exit code for invalid or conflicting
	// options.
	ExitCodeConfigError

	// ExitCodeInputError is the exit code for a missing or unreadable input
	// or an unknown format.
	ExitCodeInputError

	// ExitCodeConversionError is the exit code for a failure while reading
	// or writing entries.
	ExitCodeConversionError
)

// ErrGlossconv is a parent error for all command errors.
var ErrGlossconv = errors.New("glossconv")

// ErrFlagParse is a flag parsing error.
var ErrFlagParse = fmt.Errorf("%w: parsing flags", ErrGlossconv)

var copyrightNames = []string{
	"2021 Google LLC",
	"2025 Ian Lewis",
}

//nolint:gochecknoinits // init needed needed for global variable.
func init() {
	// Set the HelpFlag to a random name so that it isn't used. `cli` handles
	// the flag with the root command such that it takes a command name argument
	// which shows the help of a command instead of the flag's own help.
	//
	// This flag is hidden by the help output.
	// See: github.com/urfave/cli/issues/1809
	cli.HelpFlag = &cli.BoolFlag{
		// NOTE: Use a random name no one would guess.
		Name:               "d41d8cd98f00b204e980",
		DisableDefaultText: true,
	}
}

// check checks the error and panics if not nil.
func check(err error) {
	if err != nil {
		panic(err)
	}
}

// exitCode returns the process exit code for an error returned by the app.
func exitCode(err error) int {
	switch {
	case err == nil:
		return ExitCodeSuccess
	case errors.Is(err, ErrFlagParse):
		return ExitCodeFlagParseError
	case errors.Is(err, glossary.ErrConfiguration):
		return ExitCodeConfigError
	case errors.Is(err, glossary.ErrFatalInput):
		return ExitCodeInputError
	case errors.Is(err, glossary.ErrGlossary):
		return ExitCodeConversionError
	default:
		return ExitCodeUnknownError
	}
}

func usageError(_ *cli.Context, err error, _ bool) error {
	return fmt.Errorf("%w: %w", ErrFlagParse, err)
}

// loadConfig loads the configuration named by the --config flag or found
// in the default locations and applies the logging flags.
func loadConfig(c *cli.Context) (glossary.Config, error) {
	path := c.String("config")
	if path == "" {
		path = findConfig()
	}
	cfg, err := glossary.LoadConfig(path)
	if err != nil {
		return glossary.Config{}, fmt.Errorf("loading config: %w", err)
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	return cfg, nil
}

// newGlossary returns a Glossary with all formats using the configuration
// and logging flags.
func newGlossary(c *cli.Context, ui glossary.UI) (*glossary.Glossary, *zap.Logger, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, nil, err
	}
	if c.IsSet("no-cleanup") && c.Bool("no-cleanup") {
		cfg.Cleanup = false
	}

	l, err := logger.New(cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", glossary.ErrConfiguration, err)
	}

	g, err := glossary.New(&glossary.Options{
		Registry: formats.Registry(),
		Config:   &cfg,
		Logger:   l,
		UI:       ui,
	})
	if err != nil {
		_ = l.Sync()
		return nil, nil, fmt.Errorf("creating glossary: %w", err)
	}
	return g, l, nil
}

func newGlossconvApp() *cli.App {
	return &cli.App{
		Name:  filepath.Base(os.Args[0]),
		Usage: "Convert glossaries and dictionaries between formats.",
		Description: strings.Join([]string{
			"Glossary conversion utility written in Go.",
			"http://github.com/ianlewis/go-glossary",
		}, "\n"),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "read configuration from `FILE`",
				Aliases: []string{"c"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log `LEVEL` (debug, info, warn, error, none)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "log `FORMAT` (text, json)",
			},

			// Special flags are shown at the end.
			&cli.BoolFlag{
				Name:               "help",
				Usage:              "print this help text and exit",
				Aliases:            []string{"h"},
				DisableDefaultText: true,
			},
			&cli.BoolFlag{
				Name:               "version",
				Usage:              "print version information and exit",
				Aliases:            []string{"V"},
				DisableDefaultText: true,
			},
		},
		Copyright:       strings.Join(copyrightNames, "\n"),
		HideHelp:        true,
		HideHelpCommand: true,
		OnUsageError:    usageError,
		Action: func(c *cli.Context) error {
			if c.Bool("version") {
				return printVersion(c)
			}

			check(cli.ShowAppHelp(c))
			return nil
		},
		Commands: []*cli.Command{
			newConvertCommand(),
			newFormatsCommand(),
			newLookupCommand(),
			newVersionCommand(),
			newEnvCommand(),
		},
	}
}
