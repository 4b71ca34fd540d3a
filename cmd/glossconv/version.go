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
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	"sigs.k8s.io/release-utils/version"

	glossary "github.com/ianlewis/go-glossary"
)

func newVersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "print version information",
		Action: printVersion,
	}
}

func newEnvCommand() *cli.Command {
	return &cli.Command{
		Name:  "env",
		Usage: "print the environment variables read as configuration",
		Action: func(c *cli.Context) error {
			s, err := glossary.Usage()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(c.App.Writer, s)
			return err
		},
	}
}

func printVersion(c *cli.Context) error {
	versionInfo := version.GetVersionInfo()

	_, err := fmt.Fprintf(c.App.Writer, `%s %s
Copyright (c) %s

%s`, c.App.Name, versionInfo.GitVersion, strings.Join(copyrightNames, ", "), versionInfo.String())
	return err
}
