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

package interpret

import (
	"github.com/purpleidea/planout/lang/ast"
	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"
	"github.com/purpleidea/planout/util/errwrap"
)

// random evaluates the arguments of a random op in order and then delegates to
// the experiment. The unit is always evaluated last.
func (obj *Interpreter) random(expr interfaces.Expr) (types.Value, error) {
	exp := obj.Experiment

	switch x := expr.(type) {
	case *ast.ExprRandomRange:
		lo, err := obj.evalNum(x.Op, x.Min)
		if err != nil {
			return nil, err
		}
		hi, err := obj.evalNum(x.Op, x.Max)
		if err != nil {
			return nil, err
		}
		unit, err := obj.evalUnit(x.Unit)
		if err != nil {
			return nil, err
		}
		if x.Op == ast.OpRandomFloat {
			return &types.FloatValue{V: exp.RandomFloat(lo, hi, unit)}, nil
		}
		if x.Op != ast.OpRandomInteger {
			return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "random op `%s`", x.Op)
		}
		f, err := exp.RandomInteger(lo, hi, unit)
		if err != nil {
			return nil, errwrap.Wrapf(err, "op `%s`", x.Op)
		}
		return &types.FloatValue{V: f}, nil

	case *ast.ExprBernoulliTrial:
		p, err := obj.evalNum(ast.OpBernoulliTrial, x.P)
		if err != nil {
			return nil, err
		}
		unit, err := obj.evalUnit(x.Unit)
		if err != nil {
			return nil, err
		}
		f, err := exp.BernoulliTrial(p, unit)
		if err != nil {
			return nil, errwrap.Wrapf(err, "op `%s`", ast.OpBernoulliTrial)
		}
		return &types.FloatValue{V: f}, nil

	case *ast.ExprBernoulliFilter:
		choices, err := obj.evalList(ast.OpBernoulliFilter, x.Choices)
		if err != nil {
			return nil, err
		}
		p, err := obj.evalNum(ast.OpBernoulliFilter, x.P)
		if err != nil {
			return nil, err
		}
		unit, err := obj.evalUnit(x.Unit)
		if err != nil {
			return nil, err
		}
		values, err := exp.BernoulliFilter(choices, p, unit)
		if err != nil {
			return nil, errwrap.Wrapf(err, "op `%s`", ast.OpBernoulliFilter)
		}
		return &types.ListValue{V: values}, nil

	case *ast.ExprUniformChoice:
		choices, err := obj.evalList(ast.OpUniformChoice, x.Choices)
		if err != nil {
			return nil, err
		}
		unit, err := obj.evalUnit(x.Unit)
		if err != nil {
			return nil, err
		}
		v, err := exp.UniformChoice(choices, unit)
		if err != nil {
			return nil, errwrap.Wrapf(err, "op `%s`", ast.OpUniformChoice)
		}
		return v, nil

	case *ast.ExprWeightedChoice:
		choices, err := obj.evalList(ast.OpWeightedChoice, x.Choices)
		if err != nil {
			return nil, err
		}
		list, err := obj.evalList(ast.OpWeightedChoice, x.Weights)
		if err != nil {
			return nil, err
		}
		weights := []float64{}
		for i, w := range list {
			if w.Kind() != types.KindFloat {
				return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` weight %d is a %s", ast.OpWeightedChoice, i, w.Kind())
			}
			weights = append(weights, w.Float())
		}
		unit, err := obj.evalUnit(x.Unit)
		if err != nil {
			return nil, err
		}
		v, err := exp.WeightedChoice(choices, weights, unit)
		if err != nil {
			return nil, errwrap.Wrapf(err, "op `%s`", ast.OpWeightedChoice)
		}
		return v, nil

	case *ast.ExprSample:
		choices, err := obj.evalList(ast.OpSample, x.Choices)
		if err != nil {
			return nil, err
		}
		draws := float64(len(choices)) // default is a full shuffle
		if x.Draws != nil {
			if draws, err = obj.evalNum(ast.OpSample, x.Draws); err != nil {
				return nil, err
			}
		}
		unit, err := obj.evalUnit(x.Unit)
		if err != nil {
			return nil, err
		}
		values, err := exp.Sample(choices, draws, unit)
		if err != nil {
			return nil, errwrap.Wrapf(err, "op `%s`", ast.OpSample)
		}
		return &types.ListValue{V: values}, nil
	}

	return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "can't evaluate %T", expr)
}
