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
	"unicode/utf16"

	"github.com/purpleidea/planout/lang/ast"
	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"
	"github.com/purpleidea/planout/util/errwrap"
)

// Gatherer walks a tree without any randomness and computes, for every
// variable it assigns, a description of all the values it could hold. Every
// branch is considered reachable, so there is no early return here. It keeps
// state between calls of Eval, so use a fresh one for each tree.
type Gatherer struct {
	// Debug represents if we're running in debug mode or not.
	Debug bool

	// Logf is a logger which should be used.
	Logf func(format string, v ...interface{})

	// Base is the optional table of inputs that get reads fall back to.
	Base Table

	table Table
}

// Inspect runs the gatherer over the tree and returns the table of variables
// that the tree assigns. Inputs from Base are not included.
func (obj *Gatherer) Inspect(expr interfaces.Expr) (Table, error) {
	obj.table = make(Table)
	if _, err := obj.Eval(expr); err != nil {
		return nil, err
	}
	return obj.table, nil
}

// Eval returns the description of a single expression. Assignments are
// recorded as a side effect.
func (obj *Gatherer) Eval(expr interfaces.Expr) (Param, error) {
	if obj.table == nil {
		obj.table = make(Table)
	}

	switch x := expr.(type) {
	case nil, *ast.ExprNull:
		return nil, nil

	case *ast.ExprBool:
		return &AtomicParam{V: &types.BoolValue{V: x.V}}, nil

	case *ast.ExprFloat:
		return &AtomicParam{V: &types.FloatValue{V: x.V}}, nil

	case *ast.ExprStr:
		return &AtomicParam{V: &types.StrValue{V: x.V}}, nil

	case *ast.ExprLiteral:
		if x.Value == nil {
			return nil, nil
		}
		switch x.Value.Kind() {
		case types.KindNull, types.KindList: // lists are still indexable
			return FromValue(x.Value), nil
		}
		return NewLiteral(x.Value), nil

	case *ast.ExprArray:
		values, err := obj.evalAll(x.Values)
		if err != nil {
			return nil, err
		}
		return &ArrayParam{Values: values}, nil

	case *ast.ExprGet:
		if p, exists := obj.table[x.Name]; exists {
			return p, nil
		}
		return obj.Base[x.Name], nil // nil map is fine

	case *ast.ExprSet:
		p, err := obj.Eval(x.Value)
		if err != nil {
			return nil, err
		}
		if p == nil { // unknown values aren't recorded
			return nil, nil
		}
		prior, exists := obj.table[x.Name]
		if !exists {
			prior = obj.Base[x.Name] // an input being overwritten
		}
		merged := Merge(prior, p)
		if obj.Debug {
			obj.Logf("set %s = %s", x.Name, str(merged))
		}
		obj.table[x.Name] = merged
		return merged, nil

	case *ast.ExprSeq:
		var result Param
		for _, step := range x.Body {
			p, err := obj.Eval(step)
			if err != nil {
				return nil, err
			}
			result = p
		}
		return result, nil

	case *ast.ExprCond:
		for _, clause := range x.Clauses {
			if _, err := obj.Eval(clause.If); err != nil {
				return nil, err
			}
			if _, err := obj.Eval(clause.Then); err != nil {
				return nil, err
			}
		}
		return nil, nil

	case *ast.ExprBinary:
		left, err := obj.Eval(x.Left)
		if err != nil {
			return nil, err
		}
		right, err := obj.Eval(x.Right)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case ast.OpMod:
			return Combine(left, right, math.Mod), nil
		case ast.OpDiv:
			return Combine(left, right, func(a, b float64) float64 { return a / b }), nil
		case ast.OpMinus:
			return Combine(left, right, func(a, b float64) float64 { return a - b }), nil
		case ast.OpEquals, ast.OpLess, ast.OpLessEq, ast.OpMore, ast.OpMoreEq:
			return NewBoolean(), nil
		}
		return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "binary op `%s`", x.Op)

	case *ast.ExprCommutative:
		values, err := obj.evalAll(x.Values)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case ast.OpAnd, ast.OpOr:
			return NewBoolean(), nil
		case ast.OpSum:
			if len(values) == 0 {
				return &AtomicParam{V: &types.FloatValue{V: 0}}, nil
			}
			return Reduce(values, func(a, b float64) float64 { return a + b }), nil
		case ast.OpProduct:
			if len(values) == 0 {
				return &AtomicParam{V: &types.FloatValue{V: 1}}, nil
			}
			return Reduce(values, func(a, b float64) float64 { return a * b }), nil
		case ast.OpMin:
			return Reduce(values, math.Min), nil
		case ast.OpMax:
			return Reduce(values, math.Max), nil
		}
		return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "commutative op `%s`", x.Op)

	case *ast.ExprUnary:
		return obj.unary(x)

	case *ast.ExprIndex:
		return obj.index(x)

	case *ast.ExprIncludes:
		if _, err := obj.evalAll([]interfaces.Expr{x.Collection, x.Value}); err != nil {
			return nil, err
		}
		return NewBoolean(), nil

	case *ast.ExprRandomRange, *ast.ExprBernoulliTrial, *ast.ExprBernoulliFilter,
		*ast.ExprUniformChoice, *ast.ExprWeightedChoice, *ast.ExprSample:
		return obj.random(expr)
	}

	return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "can't inspect %T", expr)
}

// evalAll evaluates a list of expressions in order. Absent ones are unknown.
func (obj *Gatherer) evalAll(exprs []interfaces.Expr) ([]Param, error) {
	params := []Param{}
	for _, e := range exprs {
		p, err := obj.Eval(e)
		if err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func (obj *Gatherer) unary(x *ast.ExprUnary) (Param, error) {
	p, err := obj.Eval(x.Value)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case ast.OpReturn: // no early exit, any later statement might still run
		return p, nil

	case ast.OpNot:
		return NewBoolean(), nil

	case ast.OpRound:
		return Round(p), nil

	case ast.OpNegative:
		return Reduce([]Param{p, &AtomicParam{V: &types.FloatValue{V: -1}}}, func(a, b float64) float64 { return a * b }), nil

	case ast.OpLength:
		switch v := p.(type) {
		case *AtomicParam:
			if v.V.Kind() == types.KindStr {
				n := len(utf16.Encode([]rune(v.V.Str())))
				return &AtomicParam{V: &types.FloatValue{V: float64(n)}}, nil
			}
		case *ArrayParam:
			return &AtomicParam{V: &types.FloatValue{V: float64(len(v.Values))}}, nil
		case *SelectParam:
			// this counts the choices, not what each choice could be
			return &RangeParam{Kind: RangeInteger, Min: 0, Max: float64(len(v.Values))}, nil
		}
		return nil, nil
	}

	return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "unary op `%s`", x.Op)
}

func (obj *Gatherer) index(x *ast.ExprIndex) (Param, error) {
	base, err := obj.Eval(x.Base)
	if err != nil {
		return nil, err
	}
	index, err := obj.Eval(x.Index)
	if err != nil {
		return nil, err
	}

	switch b := base.(type) {
	case *ArrayParam:
		if f, ok := number(index); ok && isRound(f) && f >= 0 && f < float64(len(b.Values)) {
			return b.Values[int(f)], nil
		}
		return &SelectParam{Limit: 1, Values: b.Values}, nil

	case *LiteralParam:
		a, ok := index.(*AtomicParam)
		if !ok || a.V.Kind() != types.KindStr || b.V.Kind() != types.KindMap {
			return nil, nil
		}
		v, exists := b.V.Map()[a.V.Str()]
		if !exists {
			return nil, nil
		}
		return FromValue(v), nil
	}

	return nil, nil
}

// random describes the random ops. Every argument is still evaluated, so that
// any assignments nested inside them get recorded.
func (obj *Gatherer) random(expr interfaces.Expr) (Param, error) {
	switch x := expr.(type) {
	case *ast.ExprRandomRange:
		params, err := obj.evalAll([]interfaces.Expr{x.Min, x.Max, x.Unit})
		if err != nil {
			return nil, err
		}
		lo, okMin := number(params[0])
		hi, okMax := number(params[1])
		if !okMin || !okMax {
			return nil, nil
		}
		kind := RangeFloat
		if x.Op == ast.OpRandomInteger {
			kind = RangeInteger
		}
		return &RangeParam{Kind: kind, Min: lo, Max: hi}, nil

	case *ast.ExprBernoulliTrial:
		if _, err := obj.evalAll([]interfaces.Expr{x.P, x.Unit}); err != nil {
			return nil, err
		}
		return &SelectParam{
			Limit: 1,
			Values: []Param{
				&AtomicParam{V: &types.FloatValue{V: 0}},
				&AtomicParam{V: &types.FloatValue{V: 1}},
			},
		}, nil

	case *ast.ExprBernoulliFilter:
		params, err := obj.evalAll([]interfaces.Expr{x.Choices, x.P, x.Unit})
		if err != nil {
			return nil, err
		}
		if arr, ok := params[0].(*ArrayParam); ok {
			return &SelectParam{Limit: float64(len(arr.Values)), Values: arr.Values}, nil
		}
		return nil, nil

	case *ast.ExprUniformChoice:
		params, err := obj.evalAll([]interfaces.Expr{x.Choices, x.Unit})
		if err != nil {
			return nil, err
		}
		if arr, ok := params[0].(*ArrayParam); ok {
			return &SelectParam{Limit: 1, Values: arr.Values}, nil
		}
		return nil, nil

	case *ast.ExprWeightedChoice:
		params, err := obj.evalAll([]interfaces.Expr{x.Choices, x.Weights, x.Unit})
		if err != nil {
			return nil, err
		}
		if arr, ok := params[0].(*ArrayParam); ok {
			return &SelectParam{Limit: 1, Values: arr.Values}, nil
		}
		return nil, nil

	case *ast.ExprSample:
		params, err := obj.evalAll([]interfaces.Expr{x.Choices, x.Draws, x.Unit})
		if err != nil {
			return nil, err
		}
		arr, ok := params[0].(*ArrayParam)
		if !ok {
			return nil, nil
		}
		if x.Draws == nil { // a full shuffle
			return &SelectParam{Limit: float64(len(arr.Values)), Values: arr.Values}, nil
		}
		draws, ok := number(params[1])
		if !ok {
			return nil, nil
		}
		return &SelectParam{Limit: draws, Values: arr.Values}, nil
	}

	return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "can't inspect %T", expr)
}
