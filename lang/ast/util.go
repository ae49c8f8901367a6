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

package ast

import (
	"fmt"

	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"
	"github.com/purpleidea/planout/util/errwrap"
)

// ValueToExpr converts a Value into the equivalent Expr. Scalars become atomic
// nodes, lists become array nodes and maps are wrapped in a literal, which is
// the only way an object can appear in a tree.
func ValueToExpr(val types.Value) (interfaces.Expr, error) {
	switch x := val.(type) {
	case nil, *types.NullValue:
		return &ExprNull{}, nil

	case *types.BoolValue:
		return &ExprBool{V: x.Bool()}, nil

	case *types.StrValue:
		return &ExprStr{V: x.Str()}, nil

	case *types.FloatValue:
		return &ExprFloat{V: x.Float()}, nil

	case *types.ListValue:
		exprs := []interfaces.Expr{}
		for _, v := range x.List() {
			e, err := ValueToExpr(v)
			if err != nil {
				return nil, err
			}
			exprs = append(exprs, e)
		}
		return &ExprArray{Values: exprs}, nil

	case *types.MapValue:
		return &ExprLiteral{Value: x.Copy()}, nil
	}

	return nil, fmt.Errorf("unknown type (%T) for value: %+v", val, val)
}

// CollectVariables returns the names of all the variables that the tree could
// assign, in the order in which their first assignment appears. This is useful
// for describing an experiment without running it.
func CollectVariables(expr interfaces.Expr) ([]string, error) {
	names := []string{}
	seen := make(map[string]struct{})
	fn := func(node interfaces.Expr) error {
		set, ok := node.(*ExprSet)
		if !ok {
			return nil
		}
		if _, exists := seen[set.Name]; exists {
			return nil
		}
		seen[set.Name] = struct{}{}
		names = append(names, set.Name)
		return nil
	}
	if err := expr.Apply(fn); err != nil {
		return nil, errwrap.Wrapf(err, "can't retrieve variables")
	}
	return names, nil
}
