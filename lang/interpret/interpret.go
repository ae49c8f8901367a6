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

// Package interpret contains the implementation of the interpreter which
// evaluates a compiled experiment tree into concrete assignments.
package interpret

import (
	"math"

	"github.com/purpleidea/planout/lang/ast"
	"github.com/purpleidea/planout/lang/experiment"
	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"
	"github.com/purpleidea/planout/util/errwrap"
)

// Interpreter evaluates a tree against a single experiment run. All of the run
// state lives in the Experiment, so use a fresh one for each run.
type Interpreter struct {
	// Debug represents if we're running in debug mode or not.
	Debug bool

	// Logf is a logger which should be used.
	Logf func(format string, v ...interface{})

	// Experiment is the run that is being evaluated.
	Experiment *experiment.Experiment
}

// Execute runs the tree for its side effects on the experiment.
func (obj *Interpreter) Execute(expr interfaces.Expr) error {
	if obj.Experiment == nil {
		return errwrap.Wrapf(interfaces.ErrInvalidArgument, "experiment is nil")
	}
	_, err := obj.Eval(expr)
	return err
}

// Eval evaluates an expression and returns its value. Once the run has hit a
// return, every evaluation is null and has no side effects.
func (obj *Interpreter) Eval(expr interfaces.Expr) (types.Value, error) {
	if obj.Experiment.Returned() {
		return &types.NullValue{}, nil
	}

	switch x := expr.(type) {
	case nil, *ast.ExprNull:
		return &types.NullValue{}, nil

	case *ast.ExprBool:
		return &types.BoolValue{V: x.V}, nil

	case *ast.ExprFloat:
		return &types.FloatValue{V: x.V}, nil

	case *ast.ExprStr:
		return &types.StrValue{V: x.V}, nil

	case *ast.ExprLiteral:
		if x.Value == nil {
			return &types.NullValue{}, nil
		}
		return x.Value.Copy(), nil

	case *ast.ExprArray:
		values := []types.Value{}
		for _, e := range x.Values {
			v, err := obj.Eval(e)
			if err != nil {
				return nil, err
			}
			values = append(values, v)
		}
		return &types.ListValue{V: values}, nil

	case *ast.ExprGet:
		return obj.Experiment.Get(x.Name, &types.NullValue{}), nil

	case *ast.ExprSet:
		v, err := obj.Eval(x.Value)
		if err != nil {
			return nil, err
		}
		if obj.Debug {
			obj.Logf("set %s = %s", x.Name, v)
		}
		obj.Experiment.Set(x.Name, v)
		return v, nil

	case *ast.ExprSeq:
		var result types.Value = &types.NullValue{}
		for _, step := range x.Body {
			if obj.Experiment.Returned() {
				break
			}
			v, err := obj.Eval(step)
			if err != nil {
				return nil, err
			}
			result = v
		}
		return result, nil

	case *ast.ExprCond:
		for _, clause := range x.Clauses {
			// after a return this keeps looping, but each guard is null
			guard, err := obj.Eval(clause.If)
			if err != nil {
				return nil, err
			}
			if types.Truthy(guard) {
				return obj.Eval(clause.Then)
			}
		}
		return &types.NullValue{}, nil

	case *ast.ExprBinary:
		return obj.binary(x)

	case *ast.ExprCommutative:
		return obj.commutative(x)

	case *ast.ExprUnary:
		return obj.unary(x)

	case *ast.ExprIndex:
		return obj.index(x)

	case *ast.ExprIncludes:
		list, err := obj.evalList(ast.OpIncludes, x.Collection)
		if err != nil {
			return nil, err
		}
		v, err := obj.Eval(x.Value)
		if err != nil {
			return nil, err
		}
		_, exists := (&types.ListValue{V: list}).Contains(v)
		return &types.BoolValue{V: exists}, nil

	case *ast.ExprRandomRange, *ast.ExprBernoulliTrial, *ast.ExprBernoulliFilter,
		*ast.ExprUniformChoice, *ast.ExprWeightedChoice, *ast.ExprSample:
		return obj.random(expr)
	}

	return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "can't evaluate %T", expr)
}

// evalNum evaluates an expression that must produce a number.
func (obj *Interpreter) evalNum(op ast.Op, expr interfaces.Expr) (float64, error) {
	v, err := obj.Eval(expr)
	if err != nil {
		return 0, err
	}
	if v.Kind() != types.KindFloat {
		return 0, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` expected a number, got %s", op, v.Kind())
	}
	return v.Float(), nil
}

// evalList evaluates an expression that must produce a list.
func (obj *Interpreter) evalList(op ast.Op, expr interfaces.Expr) ([]types.Value, error) {
	v, err := obj.Eval(expr)
	if err != nil {
		return nil, err
	}
	if v.Kind() != types.KindList {
		return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` expected a list, got %s", op, v.Kind())
	}
	return v.List(), nil
}

// evalUnit evaluates the salt of a random op. A missing unit is null.
func (obj *Interpreter) evalUnit(expr interfaces.Expr) (types.Value, error) {
	if expr == nil {
		return &types.NullValue{}, nil
	}
	return obj.Eval(expr)
}

func (obj *Interpreter) binary(x *ast.ExprBinary) (types.Value, error) {
	switch x.Op {
	case ast.OpMod, ast.OpDiv, ast.OpMinus:
		left, err := obj.evalNum(x.Op, x.Left)
		if err != nil {
			return nil, err
		}
		right, err := obj.evalNum(x.Op, x.Right)
		if err != nil {
			return nil, err
		}
		switch x.Op {
		case ast.OpMod:
			return &types.FloatValue{V: math.Mod(left, right)}, nil
		case ast.OpDiv:
			return &types.FloatValue{V: left / right}, nil
		}
		return &types.FloatValue{V: left - right}, nil
	}

	left, err := obj.Eval(x.Left)
	if err != nil {
		return nil, err
	}
	right, err := obj.Eval(x.Right)
	if err != nil {
		return nil, err
	}

	switch x.Op {
	case ast.OpEquals:
		return &types.BoolValue{V: types.Equal(left, right)}, nil

	case ast.OpLess, ast.OpLessEq, ast.OpMore, ast.OpMoreEq:
		b, err := compare(x.Op, left, right)
		if err != nil {
			return nil, err
		}
		return &types.BoolValue{V: b}, nil
	}

	return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "binary op `%s`", x.Op)
}

// compare applies an ordering operator. Numbers compare as floats, so anything
// compared with NaN is false. Strings and booleans also have an ordering, but
// the operands must always be of the same kind.
func compare(op ast.Op, left, right types.Value) (bool, error) {
	if left.Kind() == types.KindFloat && right.Kind() == types.KindFloat {
		l, r := left.Float(), right.Float()
		switch op {
		case ast.OpLess:
			return l < r, nil
		case ast.OpLessEq:
			return l <= r, nil
		case ast.OpMore:
			return l > r, nil
		}
		return l >= r, nil
	}

	c, ok := types.Compare(left, right)
	if !ok {
		return false, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` can't compare %s with %s", op, left.Kind(), right.Kind())
	}
	switch op {
	case ast.OpLess:
		return c < 0, nil
	case ast.OpLessEq:
		return c <= 0, nil
	case ast.OpMore:
		return c > 0, nil
	}
	return c >= 0, nil
}

func (obj *Interpreter) commutative(x *ast.ExprCommutative) (types.Value, error) {
	switch x.Op {
	case ast.OpAnd:
		for _, e := range x.Values {
			v, err := obj.Eval(e)
			if err != nil {
				return nil, err
			}
			if !types.Truthy(v) {
				return &types.BoolValue{V: false}, nil
			}
		}
		return &types.BoolValue{V: true}, nil

	case ast.OpOr:
		for _, e := range x.Values {
			v, err := obj.Eval(e)
			if err != nil {
				return nil, err
			}
			if types.Truthy(v) {
				return &types.BoolValue{V: true}, nil
			}
		}
		return &types.BoolValue{V: false}, nil
	}

	nums := []float64{}
	for _, e := range x.Values {
		f, err := obj.evalNum(x.Op, e)
		if err != nil {
			return nil, err
		}
		nums = append(nums, f)
	}

	switch x.Op {
	case ast.OpSum:
		result := 0.0
		for _, f := range nums {
			result += f
		}
		return &types.FloatValue{V: result}, nil

	case ast.OpProduct:
		result := 1.0
		for _, f := range nums {
			result *= f
		}
		return &types.FloatValue{V: result}, nil

	case ast.OpMin, ast.OpMax:
		if len(nums) == 0 {
			return nil, errwrap.Wrapf(interfaces.ErrInvalidArgument, "op `%s` needs at least one value", x.Op)
		}
		result := nums[0]
		for _, f := range nums[1:] {
			if x.Op == ast.OpMin {
				result = math.Min(result, f)
				continue
			}
			result = math.Max(result, f)
		}
		return &types.FloatValue{V: result}, nil
	}

	return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "commutative op `%s`", x.Op)
}

func (obj *Interpreter) unary(x *ast.ExprUnary) (types.Value, error) {
	switch x.Op {
	case ast.OpReturn:
		v, err := obj.Eval(x.Value)
		if err != nil {
			return nil, err
		}
		obj.Experiment.Return()
		if v.Kind() == types.KindBool && !v.Bool() {
			obj.Experiment.Disable()
		}
		if obj.Debug {
			obj.Logf("return %s (enabled: %t)", v, obj.Experiment.Enabled())
		}
		return v, nil

	case ast.OpNot:
		v, err := obj.Eval(x.Value)
		if err != nil {
			return nil, err
		}
		return &types.BoolValue{V: !types.Truthy(v)}, nil

	case ast.OpRound:
		f, err := obj.evalNum(x.Op, x.Value)
		if err != nil {
			return nil, err
		}
		return &types.FloatValue{V: math.Round(f)}, nil

	case ast.OpNegative:
		f, err := obj.evalNum(x.Op, x.Value)
		if err != nil {
			return nil, err
		}
		return &types.FloatValue{V: -f}, nil

	case ast.OpLength:
		list, err := obj.evalList(x.Op, x.Value)
		if err != nil {
			return nil, err
		}
		return &types.FloatValue{V: float64(len(list))}, nil
	}

	return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "unary op `%s`", x.Op)
}

func (obj *Interpreter) index(x *ast.ExprIndex) (types.Value, error) {
	base, err := obj.Eval(x.Base)
	if err != nil {
		return nil, err
	}
	index, err := obj.Eval(x.Index)
	if err != nil {
		return nil, err
	}

	switch base.Kind() {
	case types.KindList:
		if index.Kind() != types.KindFloat {
			return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "list index must be a number, got %s", index.Kind())
		}
		list := base.List()
		f := index.Float()
		if !types.IsIntegral(index) || f < 0 || f >= float64(len(list)) {
			return &types.NullValue{}, nil
		}
		return list[int(f)], nil

	case types.KindMap:
		if index.Kind() != types.KindStr {
			return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "map key must be a string, got %s", index.Kind())
		}
		v, exists := base.Map()[index.Str()]
		if !exists {
			return &types.NullValue{}, nil
		}
		return v, nil
	}

	return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "can't index a %s", base.Kind())
}
