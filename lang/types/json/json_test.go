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

package json

import (
	"fmt"
	"testing"

	"github.com/purpleidea/planout/lang/types"
)

func TestValueOfJSON1(t *testing.T) {
	type test struct { // an individual test
		str string
		val types.Value
	}
	testCases := []test{
		{"false", &types.BoolValue{V: false}},
		{`""`, &types.StrValue{V: ""}},
		{`"hello\tworld"`, &types.StrValue{V: "hello\tworld"}},
		{"0", &types.FloatValue{V: 0}},
		{"-13", &types.FloatValue{V: -13}},
		{"4.25", &types.FloatValue{V: 4.25}},
		{"null", &types.NullValue{}},
		{`[1, "a", null]`, types.ListOf(types.Num(1), types.Str("a"), types.Null())},
		{
			`{"op": "get", "var": "x"}`,
			&types.MapValue{V: map[string]types.Value{
				"op":  types.Str("get"),
				"var": types.Str("x"),
			}},
		},
	}

	for index, tc := range testCases { // run all the tests
		str, val := tc.str, tc.val
		t.Run(fmt.Sprintf("test #%d (%s)", index, str), func(t *testing.T) {
			v, err := ValueOfJSON([]byte(str))
			if err != nil {
				t.Errorf("json of `%s` errored: `%v`", str, err)
				return
			}
			if err := v.Cmp(val); err != nil {
				t.Errorf("json of `%s` did not match expected: `%v`", str, val)
			}
		})
	}
}

func TestValueOfJSON2(t *testing.T) {
	for _, str := range []string{"", "{", "[1,]", "1 2"} {
		if _, err := ValueOfJSON([]byte(str)); err == nil {
			t.Errorf("json of `%s` should have errored", str)
		}
	}
}

func TestJSONOfValue1(t *testing.T) {
	v := &types.MapValue{V: map[string]types.Value{
		"b": types.ListOf(types.Num(1), types.Num(2.5)),
		"a": types.Bool(true),
	}}
	b, err := JSONOfValue(v)
	if err != nil {
		t.Errorf("could not encode: %+v", err)
		return
	}
	if s := string(b); s != `{"a":true,"b":[1,2.5]}` {
		t.Errorf("unexpected encoding: %s", s)
	}
}
