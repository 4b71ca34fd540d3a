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

package plugin

import (
	"errors"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// ErrInvalidOption indicates an option value of the wrong type.
var ErrInvalidOption = errors.New("invalid option")

// OptionType is the type of an option value.
type OptionType string

const (
	// Bool is a boolean option.
	Bool OptionType = "bool"

	// Str is a string option.
	Str OptionType = "str"

	// Int is an integer option.
	Int OptionType = "int"

	// Float is a floating point option.
	Float OptionType = "float"

	// Encoding is the name of a character encoding.
	Encoding OptionType = "encoding"
)

// Option describes a reader or writer option.
type Option struct {
	Name    string
	Type    OptionType
	Default any
	Comment string
}

// Coerce converts v to the option's type. Strings such as "true" or "10" are
// accepted for non-string options.
func (o Option) Coerce(v any) (any, error) {
	var err error
	switch o.Type {
	case Bool:
		var b bool
		err = mapstructure.WeakDecode(v, &b)
		v = b
	case Int:
		var i int
		err = mapstructure.WeakDecode(v, &i)
		v = i
	case Float:
		var f float64
		err = mapstructure.WeakDecode(v, &f)
		v = f
	case Str:
		var s string
		err = mapstructure.WeakDecode(v, &s)
		v = s
	case Encoding:
		var s string
		err = mapstructure.WeakDecode(v, &s)
		if err == nil && s != "" {
			_, err = htmlindex.Get(s)
		}
		v = s
	default:
		err = fmt.Errorf("unknown option type %q", o.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidOption, o.Name, err)
	}
	return v, nil
}

// ValidateOptions returns the options in opts that are declared in schema,
// converted to their declared types. Unknown and ill-typed options are
// dropped and logged as errors.
func ValidateOptions(format, mode string, schema []Option, opts map[string]any, logger *zap.Logger) map[string]any {
	if logger == nil {
		logger = zap.NewNop()
	}
	byName := make(map[string]Option, len(schema))
	for _, o := range schema {
		byName[o.Name] = o
	}

	valid := make(map[string]any, len(opts))
	for k, v := range opts {
		o, ok := byName[k]
		if !ok {
			logger.Error("invalid "+mode+" option",
				zap.String("option", k),
				zap.String("format", format),
			)
			continue
		}
		cv, err := o.Coerce(v)
		if err != nil {
			logger.Error("invalid "+mode+" option value",
				zap.String("option", k),
				zap.String("format", format),
				zap.Error(err),
			)
			continue
		}
		valid[k] = cv
	}
	return valid
}

// DecodeOptions decodes opts into the struct pointed to by out. Fields are
// matched by their `option` tag. Fields without a matching option keep their
// value.
func DecodeOptions(opts map[string]any, out any) error {
	d, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "option",
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("creating option decoder: %w", err)
	}
	if err := d.Decode(opts); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOption, err)
	}
	return nil
}

// Defaults returns the default values of schema.
func Defaults(schema []Option) map[string]any {
	m := make(map[string]any, len(schema))
	for _, o := range schema {
		if o.Default != nil {
			m[o.Name] = o.Default
		}
	}
	return m
}
