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

//go:build !root

package env

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/purpleidea/planout/lang/types"
)

func TestEnv0(t *testing.T) {
	parent := FromMap(map[string]types.Value{
		"userid":  types.Num(42),
		"country": types.Str("ca"),
	})
	obj := New(parent)

	if v := obj.Get("userid", nil); !types.Equal(v, types.Num(42)) {
		t.Errorf("expected the parent value, got: %v", v)
	}
	if v := obj.Get("missing", types.Str("def")); !types.Equal(v, types.Str("def")) {
		t.Errorf("expected the default, got: %v", v)
	}

	obj.Set("userid", types.Num(7))
	if v := obj.Get("userid", nil); !types.Equal(v, types.Num(7)) {
		t.Errorf("expected the local value, got: %v", v)
	}
	if v := parent.Get("userid", nil); !types.Equal(v, types.Num(42)) {
		t.Errorf("set leaked into the parent: %v", v)
	}

	// masking
	obj.Del("country")
	if v := obj.Get("country", types.Str("def")); !types.Equal(v, types.Str("def")) {
		t.Errorf("expected the default after delete, got: %v", v)
	}
	if _, exists := obj.Lookup("country"); exists {
		t.Errorf("deleted name should not be visible")
	}
	if v := parent.Get("country", nil); !types.Equal(v, types.Str("ca")) {
		t.Errorf("delete leaked into the parent: %v", v)
	}

	obj.Set("country", types.Str("us"))
	if v := obj.Get("country", nil); !types.Equal(v, types.Str("us")) {
		t.Errorf("expected the value to come back after set, got: %v", v)
	}
}

func TestEnvKeys0(t *testing.T) {
	type test struct { // an individual test
		name string
		fn   func(*Env)
		keys []string
	}
	testCases := []test{
		{
			name: "empty",
			fn:   func(*Env) {},
			keys: []string{},
		},
		{
			name: "insertion order",
			fn: func(obj *Env) {
				obj.Set("b", types.Num(1))
				obj.Set("a", types.Num(2))
				obj.Set("b", types.Num(3))
			},
			keys: []string{"b", "a"},
		},
		{
			name: "deleted names are hidden",
			fn: func(obj *Env) {
				obj.Set("a", types.Num(1))
				obj.Set("b", types.Num(2))
				obj.Del("a")
				obj.Del("zzz")
			},
			keys: []string{"b"},
		},
		{
			name: "null is a value",
			fn: func(obj *Env) {
				obj.Set("a", nil)
			},
			keys: []string{"a"},
		},
	}

	for index, tc := range testCases { // run all the tests
		name, fn, keys := tc.name, tc.fn, tc.keys
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			obj := &Env{} // zero value is usable
			fn(obj)
			if got := obj.Keys(); !reflect.DeepEqual(got, keys) {
				t.Errorf("test #%d: expected keys: %v, got: %v", index, keys, got)
			}
			if l := len(obj.Values()); l != len(keys) {
				t.Errorf("test #%d: expected %d values, got: %d", index, len(keys), l)
			}
		})
	}
}

func TestEnvLookupFunc0(t *testing.T) {
	calls := 0
	parent := LookupFunc(func(name string) (types.Value, bool) {
		calls++
		if name == "x" {
			return types.Bool(true), true
		}
		return nil, false
	})
	obj := New(parent)
	if v := obj.Get("x", nil); !types.Equal(v, types.Bool(true)) {
		t.Errorf("expected the parent value, got: %v", v)
	}
	obj.Del("x")
	if v := obj.Get("x", nil); v != nil {
		t.Errorf("expected nil, got: %v", v)
	}
	if calls != 1 {
		t.Errorf("parent should only be asked once, got: %d", calls)
	}
}

func TestEnvCopy0(t *testing.T) {
	obj := New(nil)
	obj.Set("a", types.Num(1))
	cp := obj.Copy()
	cp.Set("b", types.Num(2))
	cp.Del("a")
	if !reflect.DeepEqual(obj.Keys(), []string{"a"}) {
		t.Errorf("copy changed the original: %v", obj.Keys())
	}
	if s := obj.String(); s != `env{"a": 1}` {
		t.Errorf("unexpected string: %s", s)
	}
	if s := cp.String(); s != `env{"b": 2}` {
		t.Errorf("unexpected string: %s", s)
	}
}
