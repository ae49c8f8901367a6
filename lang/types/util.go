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

package types

import (
	"math"
	"strings"
)

// Truthy returns whether a value counts as true in a boolean context. The
// falsy values are null, false, zero, NaN and the empty string. Everything
// else, including empty lists and maps, is truthy.
func Truthy(v Value) bool {
	if v == nil {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return false
	case KindBool:
		return v.Bool()
	case KindFloat:
		f := v.Float()
		return f != 0 && !math.IsNaN(f)
	case KindStr:
		return v.Str() != ""
	}
	return true
}

// Equal returns true if the two values are deeply equal. The kinds must match,
// so the number one and the string "1" are not equal. A nil Value is treated as
// null.
func Equal(a, b Value) bool {
	if a == nil {
		a = &NullValue{}
	}
	if b == nil {
		b = &NullValue{}
	}
	return a.Cmp(b) == nil
}

// Compare orders two scalars of the same kind. It returns -1, 0 or +1 and true,
// or false if the pair has no defined ordering. Numbers compare numerically,
// strings by code point and booleans with false before true. A comparison with
// NaN is always false, and so returns 0 here with ok set.
func Compare(a, b Value) (int, bool) {
	if a == nil || b == nil || a.Kind() != b.Kind() {
		return 0, false
	}
	switch a.Kind() {
	case KindFloat:
		x, y := a.Float(), b.Float()
		if x < y {
			return -1, true
		}
		if x > y {
			return 1, true
		}
		return 0, true
	case KindStr:
		return strings.Compare(a.Str(), b.Str()), true
	case KindBool:
		x, y := a.Bool(), b.Bool()
		if x == y {
			return 0, true
		}
		if !x {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

// IsIntegral returns true if the value is a number without a fractional part.
func IsIntegral(v Value) bool {
	if v == nil || v.Kind() != KindFloat {
		return false
	}
	f := v.Float()
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}

// ListOf builds a list value from the given elements.
func ListOf(values ...Value) *ListValue {
	if values == nil {
		values = []Value{}
	}
	return &ListValue{V: values}
}

// Num is a small helper to build a number value.
func Num(f float64) *FloatValue { return &FloatValue{V: f} }

// Str is a small helper to build a string value.
func Str(s string) *StrValue { return &StrValue{V: s} }

// Bool is a small helper to build a boolean value.
func Bool(b bool) *BoolValue { return &BoolValue{V: b} }

// Null is a small helper to build a null value.
func Null() *NullValue { return &NullValue{} }
