// Mgmt
// Copyright (C) James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.
//
// Additional permission under GNU GPL version 3 section 7
//
// If you modify this program, or any covered work, by linking or combining it
// with embedded mcl code and modules (and that the embedded mcl code and
// modules which link with this program, contain a copy of their source code in
// the authoritative form) containing parts covered by the terms of any other
// license, the licensors of this program grant you additional permission to
// convey the resulting work. Furthermore, the licensors of this program grant
// the original author, James Shubin, additional permission to update this
// additional permission if he deems it necessary to achieve the goals of this
// additional permission.

// Package util has some CLI related utility code.
package util

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/purpleidea/planout/util/errwrap"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// Error is a constant error type that implements error.
type Error string

// Error fulfills the error interface of this type.
func (e Error) Error() string { return string(e) }

const (
	// UnknownFormat means an output format was requested that we can't
	// produce.
	UnknownFormat = Error("unknown output format")
)

const (
	// FormatJSON is the json output format.
	FormatJSON = "json"

	// FormatYAML is the yaml output format.
	FormatYAML = "yaml"
)

// CliParseError returns a consistent error if we have a CLI parsing issue.
func CliParseError(err error) error {
	return errwrap.Wrapf(err, "cli parse error")
}

// Flags are some constant flags which are used throughout the program.
type Flags struct {
	Debug   bool // add additional log messages
	Verbose bool // add extra log message output
}

// Data is a struct of values that we usually pass to the main CLI function.
type Data struct {
	Program string
	Version string
	Tagline string
	Flags   Flags
	Args    []string // os.Args usually

	// Fs is where every file named on the command line is read from.
	Fs afero.Fs

	// Stdout is where results are written.
	Stdout io.Writer

	Logf func(format string, v ...interface{})
}

// Output writes the value to the writer in the requested format. Each format
// ends with a newline.
func Output(w io.Writer, format string, v interface{}) error {
	var b []byte
	var err error
	switch format {
	case FormatJSON, "":
		b, err = json.MarshalIndent(v, "", "\t")
		b = append(b, '\n')
	case FormatYAML:
		b, err = yaml.Marshal(v)
	default:
		return errwrap.Wrapf(UnknownFormat, "format `%s`", format)
	}
	if err != nil {
		return errwrap.Wrapf(err, "can't encode output")
	}
	_, err = fmt.Fprintf(w, "%s", b)
	return err
}
