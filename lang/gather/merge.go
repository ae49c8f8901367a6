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

package gather

import (
	"math"

	"github.com/purpleidea/planout/lang/types"
)

// Merge combines the descriptions of two assignments to the same variable, so
// that the result covers every value either could take. Unknown is the
// identity. When nothing more precise applies, the two sides are kept as the
// variants of a union, which never loses information.
func Merge(left, right Param) Param {
	if left == nil {
		return right
	}
	if right == nil {
		return left
	}

	la, leftAtomic := left.(*AtomicParam)
	ra, rightAtomic := right.(*AtomicParam)
	ls, leftSelect := left.(*SelectParam)
	rs, rightSelect := right.(*SelectParam)

	if ll, ok := left.(*LiteralParam); ok {
		if rl, ok := right.(*LiteralParam); ok && ll.V.Cmp(rl.V) == nil {
			return left
		}
	}

	switch {
	case leftAtomic && rightAtomic:
		if la.V.Cmp(ra.V) == nil {
			return left
		}
		return &SelectParam{Limit: 1, Values: []Param{left, right}}

	case leftAtomic && rightSelect && rs.Limit == 1:
		values := append([]Param{left}, rs.Values...)
		return &SelectParam{Limit: 1, Values: values}

	case leftSelect && rightAtomic && ls.Limit == 1:
		values := append(append([]Param{}, ls.Values...), right)
		return &SelectParam{Limit: 1, Values: values}

	case leftSelect && rightSelect && ls.Limit == 1 && rs.Limit == 1:
		values := append([]Param{}, ls.Values...)
		for _, x := range rs.Values {
			if !contains(values, x) {
				values = append(values, x)
			}
		}
		return &SelectParam{Limit: 1, Values: values}
	}

	if lr, ok := left.(*RangeParam); ok {
		if rr, ok := right.(*RangeParam); ok && lr.Kind == rr.Kind {
			return &RangeParam{
				Kind: rr.Kind,
				Min:  math.Min(lr.Min, rr.Min),
				Max:  math.Max(lr.Max, rr.Max),
			}
		}
	}

	if lu, ok := left.(*UnionParam); ok {
		return NewUnion(append(append([]Param{}, lu.Variants...), right)...)
	}

	return NewUnion(left, right)
}

// contains reports whether a structurally equal param is in the list.
func contains(haystack []Param, needle Param) bool {
	for _, x := range haystack {
		if Cmp(x, needle) == nil {
			return true
		}
	}
	return false
}

// Combine applies a binary numeric operator to two descriptions. Known numbers
// are computed directly. A number and a range apply the operator to the bounds,
// assuming it is monotonic. Two ranges combine their lower and upper bounds
// pairwise, which is a loose approximation for operators that aren't. A select
// on either side is broadcast over its values. Anything else is unknown.
func Combine(left, right Param, fn func(a, b float64) float64) Param {
	if left == nil || right == nil {
		return nil
	}
	l, leftNum := number(left)
	r, rightNum := number(right)
	if _, ok := left.(*AtomicParam); ok && !leftNum {
		return nil // strings and booleans
	}
	if _, ok := right.(*AtomicParam); ok && !rightNum {
		return nil
	}
	lr, leftRange := left.(*RangeParam)
	rr, rightRange := right.(*RangeParam)

	switch {
	case leftNum && rightNum:
		return &AtomicParam{V: floatValue(fn(l, r))}

	case leftNum && rightRange:
		return &RangeParam{Kind: rr.Kind, Min: fn(l, rr.Min), Max: fn(l, rr.Max)}

	case leftRange && rightNum:
		return &RangeParam{Kind: lr.Kind, Min: fn(lr.Min, r), Max: fn(lr.Max, r)}

	case leftRange && rightRange:
		kind := RangeInteger
		if lr.Kind == RangeFloat || rr.Kind == RangeFloat {
			kind = RangeFloat
		}
		return &RangeParam{Kind: kind, Min: fn(lr.Min, rr.Min), Max: fn(lr.Max, rr.Max)}
	}

	if (leftNum || leftRange) && isSelect(right) {
		rs := right.(*SelectParam)
		values := []Param{}
		for _, x := range rs.Values {
			values = append(values, Combine(left, x, fn)) // recurse
		}
		return &SelectParam{Limit: rs.Limit, Values: values}
	}

	if ls, ok := left.(*SelectParam); ok {
		values := []Param{}
		for _, x := range ls.Values {
			values = append(values, Combine(x, right, fn)) // recurse
		}
		return &SelectParam{Limit: ls.Limit, Values: values}
	}

	return nil
}

func floatValue(f float64) *types.FloatValue {
	return &types.FloatValue{V: f}
}

func isSelect(p Param) bool {
	_, ok := p.(*SelectParam)
	return ok
}

// Reduce folds a list of descriptions with a binary operator, left to right.
// The empty list is unknown.
func Reduce(params []Param, fn func(a, b float64) float64) Param {
	if len(params) == 0 {
		return nil
	}
	result := params[0]
	for _, x := range params[1:] {
		result = Combine(result, x, fn)
	}
	return result
}

// Round rounds every number in a description to the nearest integer. Integer
// ranges, arrays and literals are unchanged.
func Round(p Param) Param {
	switch x := p.(type) {
	case *AtomicParam:
		if f, ok := number(x); ok {
			return &AtomicParam{V: floatValue(math.Round(f))}
		}
		return x

	case *RangeParam:
		if x.Kind == RangeInteger {
			return x
		}
		return &RangeParam{Kind: RangeInteger, Min: math.Round(x.Min), Max: math.Round(x.Max)}

	case *SelectParam:
		values := []Param{}
		for _, v := range x.Values {
			values = append(values, Round(v)) // recurse
		}
		return &SelectParam{Limit: x.Limit, Values: values}

	case *UnionParam:
		variants := []Param{}
		for _, v := range x.Variants {
			variants = append(variants, Round(v)) // recurse
		}
		return &UnionParam{Variants: variants}
	}
	return p
}
