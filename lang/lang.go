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

// Package lang is the entry point to the experiment engines. It loads compiled
// trees and input documents, and runs either the interpreter or the parameter
// gatherer over them.
package lang

import (
	"fmt"

	"github.com/purpleidea/planout/lang/ast"
	"github.com/purpleidea/planout/lang/env"
	"github.com/purpleidea/planout/lang/experiment"
	"github.com/purpleidea/planout/lang/gather"
	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/interpret"
	"github.com/purpleidea/planout/lang/types"
	jsonUtil "github.com/purpleidea/planout/lang/types/json"
	"github.com/purpleidea/planout/util"
	"github.com/purpleidea/planout/util/errwrap"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// Metadata is the result of inspecting a tree.
type Metadata struct {
	// Parameters describes every variable that the tree could assign.
	Parameters gather.Table `json:"parameters" yaml:"parameters"`
}

// Lang runs the engines. The zero value is usable, although it can't load
// files without an Fs.
type Lang struct {
	// Fs is where trees and input documents are read from.
	Fs afero.Fs

	Debug bool
	Logf  func(format string, v ...interface{})
}

func (obj *Lang) logf(format string, v ...interface{}) {
	if obj.Logf == nil {
		return
	}
	obj.Logf(format, v...)
}

// Execute runs the tree once for the named experiment. The input is consulted
// for any variable that the tree reads but has not assigned, and it is never
// modified. The returned experiment holds the assignments and enabled flag.
func (obj *Lang) Execute(name string, code interfaces.Expr, input env.Parent) (*experiment.Experiment, error) {
	exp := experiment.New(name, input)
	interpreter := &interpret.Interpreter{
		Debug: obj.Debug,
		Logf: func(format string, v ...interface{}) {
			obj.logf("interpret: "+format, v...)
		},
		Experiment: exp,
	}
	if err := interpreter.Execute(code); err != nil {
		return nil, errwrap.Wrapf(err, "could not execute `%s`", name)
	}
	if obj.Debug {
		obj.logf("execute: %s", exp)
	}
	return exp, nil
}

// Inspect gathers the parameters of the tree. The base table describes inputs
// which the tree may read, and is not part of the result.
func (obj *Lang) Inspect(code interfaces.Expr, base gather.Table) (*Metadata, error) {
	gatherer := &gather.Gatherer{
		Debug: obj.Debug,
		Logf: func(format string, v ...interface{}) {
			obj.logf("gather: "+format, v...)
		},
		Base: base,
	}
	table, err := gatherer.Inspect(code)
	if err != nil {
		return nil, errwrap.Wrapf(err, "could not inspect")
	}
	return &Metadata{Parameters: table}, nil
}

// Load reads a compiled tree from a file. Files named .yaml or .yml are read
// as YAML, and anything else as JSON.
func (obj *Lang) Load(filename string) (interfaces.Expr, error) {
	data, err := obj.read(filename)
	if err != nil {
		return nil, err
	}
	if util.IsYAMLPath(filename) {
		return ast.ParseYAML(data)
	}
	return ast.ParseJSON(data)
}

// LoadInput reads an input document, which must be a map of names to values.
func (obj *Lang) LoadInput(filename string) (map[string]types.Value, error) {
	data, err := obj.read(filename)
	if err != nil {
		return nil, err
	}
	return ParseInput(data, util.IsYAMLPath(filename))
}

func (obj *Lang) read(filename string) ([]byte, error) {
	if obj.Fs == nil {
		return nil, fmt.Errorf("no filesystem to read `%s` from", filename)
	}
	data, err := afero.ReadFile(obj.Fs, filename)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't read `%s`", filename)
	}
	if obj.Debug {
		obj.logf("read %d bytes from: %s", len(data), filename)
	}
	return data, nil
}

// ParseInput decodes an input document. YAML is a superset of JSON, but JSON
// is decoded by the json package so that numbers keep their precision.
func ParseInput(data []byte, isYAML bool) (map[string]types.Value, error) {
	var v types.Value
	var err error
	if isYAML {
		var i interface{}
		if err := yaml.Unmarshal(data, &i); err != nil {
			return nil, errwrap.Wrapf(err, "invalid YAML input")
		}
		v, err = types.ValueOfGolang(i)
	} else {
		v, err = jsonUtil.ValueOfJSON(data)
	}
	if err != nil {
		return nil, err
	}
	if v.Kind() == types.KindNull { // empty document
		return map[string]types.Value{}, nil
	}
	if v.Kind() != types.KindMap {
		return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "input must be a map, got %s", v.Kind())
	}
	return v.Map(), nil
}

// Execute runs the tree once with a default Lang. See Lang.Execute.
func Execute(name string, code interfaces.Expr, input env.Parent) (*experiment.Experiment, error) {
	return (&Lang{}).Execute(name, code, input)
}

// Inspect gathers the parameters of the tree with a default Lang. See
// Lang.Inspect.
func Inspect(code interfaces.Expr, base gather.Table) (*Metadata, error) {
	return (&Lang{}).Inspect(code, base)
}
