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

package experiment

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"github.com/purpleidea/planout/lang/env"
	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"

	"github.com/davecgh/go-spew/spew"
)

func strs(s ...string) []types.Value {
	values := []types.Value{}
	for _, x := range s {
		values = append(values, types.Str(x))
	}
	return values
}

func nums(f ...float64) []types.Value {
	values := []types.Value{}
	for _, x := range f {
		values = append(values, types.Num(x))
	}
	return values
}

func TestFlatten0(t *testing.T) {
	type test struct { // an individual test
		name string
		salt types.Value
		exp  string
	}
	testCases := []test{
		{"string", types.Str("user1"), "exp.user1"},
		{"integer", types.Num(1), "exp.1"},
		{"list", types.ListOf(types.Str("user1"), types.Str("x")), "exp.user1.x"},
		{
			"nested",
			types.ListOf(types.Str("a"), types.ListOf(types.Str("b"), types.ListOf(types.Str("c")))),
			"exp.a.b.c",
		},
		{"scalars", types.ListOf(types.Num(1.5), types.Bool(true), types.Null()), "exp.1.5.true."},
		{"empty list", types.ListOf(), "exp"},
		{
			"map",
			&types.MapValue{V: map[string]types.Value{"b": types.Num(2), "a": types.Str("x")}},
			`exp.{"a":"x","b":2}`,
		},
	}

	for index, tc := range testCases { // run all the tests
		name, salt, exp := tc.name, tc.salt, tc.exp
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			if s := Flatten("exp", salt); s != exp {
				t.Errorf("test #%d: expected: %s, got: %s", index, exp, s)
			}
		})
	}
}

func TestFormatNumber0(t *testing.T) {
	testCases := map[float64]string{
		0:                    "0",
		math.Copysign(0, -1): "0",
		42:                   "42",
		-13:                  "-13",
		1.5:                  "1.5",
		0.1:                  "0.1",
		1e20:                 "100000000000000000000",
		1e21:                 "1e+21",
		1.5e-7:               "1.5e-7",
		0.000001:             "0.000001",
		123456789.125:        "123456789.125",
		-2.5e-10:             "-2.5e-10",
		math.Inf(1):          "Infinity",
		math.Inf(-1):         "-Infinity",
	}
	for f, exp := range testCases {
		if s := FormatNumber(f); s != exp {
			t.Errorf("number %v printed as: %s, expected: %s", f, s, exp)
		}
	}
	if s := FormatNumber(math.NaN()); s != "NaN" {
		t.Errorf("nan printed as: %s", s)
	}
}

func TestHash0(t *testing.T) {
	type test struct { // an individual test
		name string
		exp  string
		salt types.Value
		hash uint64
	}
	testCases := []test{
		{"simple", "exp", types.Str("user1"), 3523341605928862},
		{"list", "exp", types.ListOf(types.Str("user1"), types.Str("x")), 454279517891926},
		{
			"nested",
			"exp",
			types.ListOf(types.Str("a"), types.ListOf(types.Str("b"), types.ListOf(types.Str("c")))),
			2459680290325605,
		},
		{"scalars", "exp", types.ListOf(types.Num(1.5), types.Bool(true), types.Null()), 3121415992909664},
		{"number", "evalCode", types.Num(1), 3647156450600614},
	}

	for index, tc := range testCases { // run all the tests
		name, exp, salt, hash := tc.name, tc.exp, tc.salt, tc.hash
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			obj := New(exp, nil)
			if h := obj.Hash(salt); h != hash {
				t.Errorf("test #%d: expected: %d, got: %d", index, hash, h)
			}
			if h := obj.Hash(salt); h > MaxHash {
				t.Errorf("test #%d: hash out of range: %d", index, h)
			}
		})
	}
}

func TestRandom0(t *testing.T) {
	obj := New("exp", nil)
	user1 := types.Str("user1")

	if z := obj.ZeroToOne(user1); z != 0.7823389949043997 {
		t.Errorf("unexpected zeroToOne: %v", z)
	}
	if f := obj.RandomFloat(0, 100, user1); f != 78.23389949043997 {
		t.Errorf("unexpected randomFloat: %v", f)
	}
	if i, err := obj.RandomInteger(1, 10, user1); err != nil || i != 3 {
		t.Errorf("unexpected randomInteger: %v, %v", i, err)
	}
	if i, err := obj.RandomInteger(-5, 5, types.Str("u2")); err != nil || i != 5 {
		t.Errorf("unexpected randomInteger: %v, %v", i, err)
	}
	if _, err := obj.RandomInteger(5, 4, user1); !errors.Is(err, interfaces.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got: %v", err)
	}

	for _, tc := range []struct {
		salt string
		exp  string
	}{{"user1", "green"}, {"user2", "blue"}} {
		v, err := obj.UniformChoice(strs("red", "green", "blue"), types.Str(tc.salt))
		if err != nil {
			t.Errorf("uniformChoice failed: %+v", err)
			continue
		}
		if !types.Equal(v, types.Str(tc.exp)) {
			t.Errorf("uniformChoice for %s: expected %s, got: %s", tc.salt, tc.exp, v)
		}
	}
	if _, err := obj.UniformChoice(nil, user1); !errors.Is(err, interfaces.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got: %v", err)
	}

	v, err := obj.WeightedChoice(strs("x", "y", "z"), []float64{1, 2, 3}, user1)
	if err != nil || !types.Equal(v, types.Str("z")) {
		t.Errorf("unexpected weightedChoice: %v, %v", v, err)
	}
	v, err = obj.WeightedChoice(strs("a", "b"), []float64{-1, 0.5}, user1)
	if err != nil || v.Kind() != types.KindNull {
		t.Errorf("expected null weightedChoice, got: %v, %v", v, err)
	}
	if _, err := obj.WeightedChoice(strs("a", "b"), []float64{1}, user1); !errors.Is(err, interfaces.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got: %v", err)
	}
	if _, err := obj.WeightedChoice(nil, nil, user1); !errors.Is(err, interfaces.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got: %v", err)
	}

	for _, tc := range []struct {
		salt string
		exp  float64
	}{{"user1", 0}, {"user2", 0}, {"user3", 1}} {
		b, err := obj.BernoulliTrial(0.5, types.Str(tc.salt))
		if err != nil || b != tc.exp {
			t.Errorf("bernoulliTrial for %s: expected %v, got: %v, %v", tc.salt, tc.exp, b, err)
		}
	}
	if _, err := obj.BernoulliTrial(1.5, user1); !errors.Is(err, interfaces.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got: %v", err)
	}

	filtered, err := obj.BernoulliFilter(nums(1, 2, 3, 4, 5, 6, 7, 8), 0.5, user1)
	if err != nil {
		t.Errorf("bernoulliFilter failed: %+v", err)
	} else if !types.Equal(types.ListOf(filtered...), types.ListOf(nums(4, 6, 8)...)) {
		t.Errorf("unexpected bernoulliFilter: %s", spew.Sdump(filtered))
	}
	if _, err := obj.BernoulliFilter(nums(1), -0.1, user1); !errors.Is(err, interfaces.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got: %v", err)
	}
	if _, err := obj.BernoulliFilter(nil, 0.5, user1); !errors.Is(err, interfaces.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got: %v", err)
	}
}

// These match the bucketing of the reference implementation.
func TestEvalCodeCompat0(t *testing.T) {
	obj := New("evalCode", nil)

	v, err := obj.UniformChoice(strs("a", "b"), types.Num(1))
	if err != nil || !types.Equal(v, types.Str("a")) {
		t.Errorf("unexpected choice: %v, %v", v, err)
	}
	v, err = obj.UniformChoice(strs("aaa", "bbb"), types.Num(4))
	if err != nil || !types.Equal(v, types.Str("bbb")) {
		t.Errorf("unexpected choice: %v, %v", v, err)
	}
	v, err = obj.WeightedChoice(strs("a", "b"), []float64{1, 5}, types.Num(111))
	if err != nil || !types.Equal(v, types.Str("a")) {
		t.Errorf("unexpected choice: %v, %v", v, err)
	}
	v, err = obj.WeightedChoice(strs("aaa", "bbb"), []float64{2, 1}, types.Num(4))
	if err != nil || !types.Equal(v, types.Str("aaa")) {
		t.Errorf("unexpected choice: %v, %v", v, err)
	}
}

func TestSample0(t *testing.T) {
	type test struct { // an individual test
		name    string
		choices []types.Value
		draws   float64
		salt    string
		exp     []types.Value
	}
	testCases := []test{
		{"two of five", nums(1, 2, 3, 4, 5), 2, "user1", nums(4, 1)},
		{"all of five", nums(1, 2, 3, 4, 5), 5, "user1", nums(2, 4, 5, 3, 1)},
		{"too many", strs("a", "b", "c"), 10, "u9", strs("b", "c", "a")},
		{"one", nums(1, 2, 3, 4, 5), 1, "user1", nums(5)},
		{"none", nums(1, 2, 3, 4, 5), 0, "user1", []types.Value{}},
		{"negative", nums(1, 2, 3), -1, "user1", []types.Value{}},
		{"empty", []types.Value{}, 3, "user1", []types.Value{}},
	}

	for index, tc := range testCases { // run all the tests
		name, choices, draws, salt, exp := tc.name, tc.choices, tc.draws, tc.salt, tc.exp
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			obj := New("exp", nil)
			before := types.ListOf(choices...).Copy()
			out, err := obj.Sample(choices, draws, types.Str(salt))
			if err != nil {
				t.Errorf("test #%d: sample failed: %+v", index, err)
				return
			}
			if !types.Equal(types.ListOf(out...), types.ListOf(exp...)) {
				t.Errorf("test #%d: expected: %s, got: %s", index, types.ListOf(exp...), types.ListOf(out...))
			}
			if !types.Equal(types.ListOf(choices...), before) {
				t.Errorf("test #%d: sample modified its input", index)
			}
		})
	}

	obj := New("exp", nil)
	if _, err := obj.Sample(nums(1, 2), 1.5, types.Str("x")); !errors.Is(err, interfaces.ErrInvalidArgument) {
		t.Errorf("expected invalid argument, got: %v", err)
	}
}

func TestSampleLaw0(t *testing.T) {
	obj := New("law", nil)
	choices := strs("a", "b", "c", "d", "e", "f")
	for k := 0; k <= 8; k++ {
		for i := 0; i < 50; i++ {
			salt := types.ListOf(types.Str("unit"), types.Num(float64(i)))
			out, err := obj.Sample(choices, float64(k), salt)
			if err != nil {
				t.Errorf("sample failed: %+v", err)
				return
			}
			exp := k
			if exp > len(choices) {
				exp = len(choices)
			}
			if len(out) != exp {
				t.Errorf("sample of %d has length %d", k, len(out))
			}
			seen := make(map[string]bool)
			for _, x := range out {
				if _, exists := types.ListOf(choices...).Contains(x); !exists {
					t.Errorf("foreign element: %s", x)
				}
				if seen[x.Str()] {
					t.Errorf("duplicate element: %s", x)
				}
				seen[x.Str()] = true
			}
		}
	}
}

func TestRangeLaw0(t *testing.T) {
	obj := New("exp", nil)
	for i := 0; i < 2000; i++ {
		salt := types.Num(float64(i))
		n, err := obj.RandomInteger(1, 6, salt)
		if err != nil {
			t.Errorf("randomInteger failed: %+v", err)
			return
		}
		if n < 1 || n > 6 || n != math.Trunc(n) {
			t.Errorf("randomInteger out of range: %v", n)
		}
		f := obj.RandomFloat(-2.5, 2.5, salt)
		if f < -2.5 || f > 2.5 {
			t.Errorf("randomFloat out of range: %v", f)
		}
	}
}

func TestWeightedLaw0(t *testing.T) {
	obj := New("exp", nil)
	counts := make(map[string]int)
	const n = 10000
	for i := 0; i < n; i++ {
		v, err := obj.WeightedChoice(strs("x", "y", "z"), []float64{1, 2, 3}, types.Str(fmt.Sprintf("u%d", i)))
		if err != nil {
			t.Errorf("weightedChoice failed: %+v", err)
			return
		}
		counts[v.Str()]++
	}
	for k, w := range map[string]float64{"x": 1, "y": 2, "z": 3} {
		exp := w / 6
		got := float64(counts[k]) / n
		if math.Abs(got-exp) > 0.03 {
			t.Errorf("frequency of %s was %v, expected about %v", k, got, exp)
		}
	}
}

func TestDisabled0(t *testing.T) {
	obj := New("exp", nil)
	obj.Disable()
	if obj.Enabled() {
		t.Errorf("run should be disabled")
	}
	for _, salt := range []types.Value{types.Str("user1"), types.Num(7), types.ListOf(types.Str("a"), types.Num(1))} {
		if h := obj.Hash(salt); h != 0 {
			t.Errorf("disabled hash was: %d", h)
		}
		if z := obj.ZeroToOne(salt); z != 0 {
			t.Errorf("disabled zeroToOne was: %v", z)
		}
		if i, err := obj.RandomInteger(3, 9, salt); err != nil || i != 3 {
			t.Errorf("disabled randomInteger was: %v, %v", i, err)
		}
		if b, err := obj.BernoulliTrial(0.01, salt); err != nil || b != 1 {
			t.Errorf("disabled bernoulliTrial with p > 0 was: %v, %v", b, err)
		}
		if b, err := obj.BernoulliTrial(0, salt); err != nil || b != 0 {
			t.Errorf("disabled bernoulliTrial with p = 0 was: %v, %v", b, err)
		}
	}
}

func TestExperimentEnv0(t *testing.T) {
	input := env.FromMap(map[string]types.Value{"userid": types.Num(1)})
	obj := New("exp", input)
	obj.Set("a", types.Str("x"))
	obj.Del("userid")
	if v := obj.Get("userid", types.Str("def")); !types.Equal(v, types.Str("def")) {
		t.Errorf("input should be masked, got: %v", v)
	}
	if v := input.Get("userid", nil); !types.Equal(v, types.Num(1)) {
		t.Errorf("input should be untouched, got: %v", v)
	}
	if !reflect.DeepEqual(obj.Env.Keys(), []string{"a"}) {
		t.Errorf("unexpected keys: %v", obj.Env.Keys())
	}
	if obj.Returned() {
		t.Errorf("fresh run should not be returned")
	}
	obj.Return()
	if !obj.Returned() || !obj.Enabled() {
		t.Errorf("return should latch without disabling")
	}
}
