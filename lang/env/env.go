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

// Package env implements the layered variable store that an experiment run
// reads from and writes to. Each layer has an ordered local mapping and an
// optional parent which is consulted for any name that isn't set locally.
package env

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/purpleidea/planout/lang/types"
)

// Parent is anything that can be used as the fallback layer of an Env.
type Parent interface {
	// Lookup returns the value for the name, and whether it was found.
	Lookup(name string) (types.Value, bool)
}

// LookupFunc adapts a plain function into a Parent.
type LookupFunc func(name string) (types.Value, bool)

// Lookup calls the function.
func (fn LookupFunc) Lookup(name string) (types.Value, bool) {
	return fn(name)
}

// Env is an overlay store. Writes only ever touch the local layer. A deleted
// name is stored as a tombstone, which masks any value the parent provides.
type Env struct {
	// Parent is the optional fallback layer.
	Parent Parent

	names []string               // local names in first-set order
	local map[string]types.Value // a nil value is a tombstone
}

// New builds an empty environment on top of an optional parent.
func New(parent Parent) *Env {
	return &Env{
		Parent: parent,
		names:  []string{},
		local:  make(map[string]types.Value),
	}
}

// FromMap builds a parentless environment out of a map of values. The names
// are added in sorted order so that the result is deterministic.
func FromMap(m map[string]types.Value) *Env {
	obj := New(nil)
	keys := []string{}
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		obj.Set(k, m[k])
	}
	return obj
}

// init initializes any uninitialized part of the struct, so that the zero
// value is usable.
func (obj *Env) init() {
	if obj.names == nil {
		obj.names = []string{}
	}
	if obj.local == nil {
		obj.local = make(map[string]types.Value)
	}
}

// Lookup returns the visible value of a name. The local layer wins, a
// tombstone hides the name entirely, and otherwise the parent is asked.
func (obj *Env) Lookup(name string) (types.Value, bool) {
	if obj == nil { // a nil *Env can still be used as a Parent
		return nil, false
	}
	if v, exists := obj.local[name]; exists {
		if v == nil { // tombstone
			return nil, false
		}
		return v, true
	}
	if obj.Parent == nil {
		return nil, false
	}
	return obj.Parent.Lookup(name)
}

// Get returns the visible value of a name, or the default if there is none.
func (obj *Env) Get(name string, def types.Value) types.Value {
	if v, exists := obj.Lookup(name); exists {
		return v
	}
	return def
}

// Set writes a value into the local layer. A nil value is stored as null.
func (obj *Env) Set(name string, value types.Value) {
	obj.init()
	if value == nil {
		value = &types.NullValue{}
	}
	if _, exists := obj.local[name]; !exists {
		obj.names = append(obj.names, name)
	}
	obj.local[name] = value
}

// Del clears a name. The parent's value for it stays hidden afterwards.
func (obj *Env) Del(name string) {
	obj.init()
	if _, exists := obj.local[name]; !exists {
		obj.names = append(obj.names, name)
	}
	obj.local[name] = nil
}

// Keys returns the names set in the local layer, in the order they were first
// set. Deleted names are not included.
func (obj *Env) Keys() []string {
	keys := []string{}
	for _, name := range obj.names {
		if obj.local[name] == nil {
			continue
		}
		keys = append(keys, name)
	}
	return keys
}

// Values returns the values set in the local layer. Parent values are not
// included.
func (obj *Env) Values() map[string]types.Value {
	m := make(map[string]types.Value)
	for _, name := range obj.Keys() {
		m[name] = obj.local[name]
	}
	return m
}

// Copy returns a copy of the local layer sharing the same parent. The values
// themselves are immutable, so they're not copied.
func (obj *Env) Copy() *Env {
	env := New(obj.Parent)
	for _, name := range obj.names {
		env.names = append(env.names, name)
		env.local[name] = obj.local[name]
	}
	return env
}

// String returns a short, ordered representation of the local layer.
func (obj *Env) String() string {
	s := []string{}
	for _, name := range obj.Keys() {
		s = append(s, fmt.Sprintf("%s: %s", strconv.Quote(name), obj.local[name]))
	}
	return fmt.Sprintf("env{%s}", strings.Join(s, ", "))
}
