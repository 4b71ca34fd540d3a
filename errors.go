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
	"errors"
	"fmt"
	"io/fs"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/ianlewis/go-glossary/plugin"
)

// ErrGlossary is a parent error for all conversion errors.
var ErrGlossary = errors.New("glossary")

var (
	// ErrFatalInput indicates a missing file or an undetectable or
	// unsupported format.
	ErrFatalInput = fmt.Errorf("%w: fatal input", ErrGlossary)

	// ErrConfiguration indicates conflicting or invalid conversion options.
	// It is returned before any I/O.
	ErrConfiguration = fmt.Errorf("%w: configuration", ErrGlossary)

	// ErrPluginRuntime indicates a failure or panic inside a reader or
	// writer.
	ErrPluginRuntime = fmt.Errorf("%w: plugin runtime", ErrGlossary)

	// ErrStorage indicates a failure of the entry list.
	ErrStorage = fmt.Errorf("%w: storage", ErrGlossary)

	// ErrBusy indicates a conversion started while another was running on
	// the same Glossary.
	ErrBusy = fmt.Errorf("%w: conversion already running", ErrGlossary)
)

// isInputError returns true if err is a missing file or a malformed file.
func isInputError(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, plugin.ErrFormat)
}

// pluginError classifies an error returned by a plugin's Open.
func pluginError(op string, err error) error {
	if isInputError(err) {
		return fmt.Errorf("%w: %s: %w", ErrFatalInput, op, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrPluginRuntime, op, err)
}

// factoryError classifies an error returned by a reader or writer factory.
func factoryError(what string, err error) error {
	if errors.Is(err, plugin.ErrInvalidOption) {
		return fmt.Errorf("%w: creating %s: %w", ErrConfiguration, what, err)
	}
	return fmt.Errorf("%w: creating %s: %w", ErrPluginRuntime, what, err)
}

// recoverPlugin converts a panic in a plugin callback into an
// ErrPluginRuntime error. It must be deferred directly.
func (g *Glossary) recoverPlugin(op string, err *error) {
	r := recover()
	if r == nil {
		return
	}
	g.logger.Error("panic in plugin",
		zap.String("op", op),
		zap.Any("panic", r),
		zap.ByteString("stack", debug.Stack()),
	)
	*err = fmt.Errorf("%w: %s: panic: %v", ErrPluginRuntime, op, r)
}
