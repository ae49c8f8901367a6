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

package ast

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"

	"github.com/kylelemons/godebug/pretty"
	"github.com/sanity-io/litter"
)

func TestParseJSON0(t *testing.T) {
	type test struct { // an individual test
		name string
		code string
		exp  interfaces.Expr
	}
	testCases := []test{}

	testCases = append(testCases, test{
		name: "atomics",
		code: `[null, true, 42, "hello"]`,
		exp: &ExprArray{
			Values: []interfaces.Expr{
				&ExprNull{},
				&ExprBool{V: true},
				&ExprFloat{V: 42},
				&ExprStr{V: "hello"},
			},
		},
	})
	testCases = append(testCases, test{
		name: "set a number",
		code: `{"op": "set", "var": "out", "value": 1}`,
		exp: &ExprSet{
			Name:  "out",
			Value: &ExprFloat{V: 1},
		},
	})
	testCases = append(testCases, test{
		name: "seq of assignments",
		code: `{"op": "seq", "seq": [
			{"op": "set", "var": "a", "value": {"op": "get", "var": "userid"}},
			{"op": "return", "value": false}
		]}`,
		exp: &ExprSeq{
			Body: []interfaces.Expr{
				&ExprSet{
					Name:  "a",
					Value: &ExprGet{Name: "userid"},
				},
				&ExprUnary{
					Op:    OpReturn,
					Value: &ExprBool{V: false},
				},
			},
		},
	})
	testCases = append(testCases, test{
		name: "cond",
		code: `{"op": "cond", "cond": [
			{"if": {"op": "equals", "left": 1, "right": 0}, "then": {"op": "set", "var": "a", "value": 1}},
			{"if": {"op": "literal", "value": true}, "then": {"op": "set", "var": "a", "value": 2}}
		]}`,
		exp: &ExprCond{
			Clauses: []*ExprCondClause{
				{
					If: &ExprBinary{
						Op:    OpEquals,
						Left:  &ExprFloat{V: 1},
						Right: &ExprFloat{V: 0},
					},
					Then: &ExprSet{Name: "a", Value: &ExprFloat{V: 1}},
				},
				{
					If:   &ExprLiteral{Value: &types.BoolValue{V: true}},
					Then: &ExprSet{Name: "a", Value: &ExprFloat{V: 2}},
				},
			},
		},
	})
	testCases = append(testCases, test{
		name: "object literal",
		code: `{"op": "literal", "value": {"color": "red", "sizes": [1, 2]}}`,
		exp: &ExprLiteral{
			Value: &types.MapValue{
				V: map[string]types.Value{
					"color": &types.StrValue{V: "red"},
					"sizes": &types.ListValue{V: []types.Value{
						&types.FloatValue{V: 1},
						&types.FloatValue{V: 2},
					}},
				},
			},
		},
	})
	testCases = append(testCases, test{
		name: "uniform choice",
		code: `{"op": "uniformChoice", "choices": {"op": "array", "values": ["a", "b"]}, "unit": {"op": "get", "var": "userid"}}`,
		exp: &ExprUniformChoice{
			Choices: &ExprArray{
				Values: []interfaces.Expr{
					&ExprStr{V: "a"},
					&ExprStr{V: "b"},
				},
			},
			Unit: &ExprGet{Name: "userid"},
		},
	})
	testCases = append(testCases, test{
		name: "sample without draws or unit",
		code: `{"op": "sample", "choices": [1, 2, 3]}`,
		exp: &ExprSample{
			Choices: &ExprArray{
				Values: []interfaces.Expr{
					&ExprFloat{V: 1},
					&ExprFloat{V: 2},
					&ExprFloat{V: 3},
				},
			},
		},
	})
	testCases = append(testCases, test{
		name: "binary and",
		code: `{"op": "and", "left": true, "right": false}`,
		exp: &ExprCommutative{
			Op: OpAnd,
			Values: []interfaces.Expr{
				&ExprBool{V: true},
				&ExprBool{V: false},
			},
		},
	})
	testCases = append(testCases, test{
		name: "commutative or",
		code: `{"op": "or", "values": [false]}`,
		exp: &ExprCommutative{
			Op:     OpOr,
			Values: []interfaces.Expr{&ExprBool{V: false}},
		},
	})
	testCases = append(testCases, test{
		name: "unary minus",
		code: `{"op": "-", "value": 3}`,
		exp: &ExprUnary{
			Op:    OpNegative,
			Value: &ExprFloat{V: 3},
		},
	})
	testCases = append(testCases, test{
		name: "binary minus",
		code: `{"op": "-", "left": 3, "right": 1}`,
		exp: &ExprBinary{
			Op:    OpMinus,
			Left:  &ExprFloat{V: 3},
			Right: &ExprFloat{V: 1},
		},
	})
	testCases = append(testCases, test{
		name: "random integer",
		code: `{"op": "randomInteger", "min": 0, "max": 10, "unit": ["a", 1]}`,
		exp: &ExprRandomRange{
			Op:  OpRandomInteger,
			Min: &ExprFloat{V: 0},
			Max: &ExprFloat{V: 10},
			Unit: &ExprArray{
				Values: []interfaces.Expr{
					&ExprStr{V: "a"},
					&ExprFloat{V: 1},
				},
			},
		},
	})

	for index, tc := range testCases { // run all the tests
		name, code, exp := tc.name, tc.code, tc.exp
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			ast, err := ParseJSON([]byte(code))
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: parse failed with: %+v", index, err)
				return
			}

			if reflect.DeepEqual(ast, exp) {
				return
			}
			// double check because DeepEqual is different since the func exists
			lo := &litter.Options{
				//Compact: false,
				StripPackageNames: true,
				HidePrivateFields: true,
				HideZeroValues:    true,
				//FieldExclusions: regexp.MustCompile(`^(data)$`),
				//FieldFilter func(reflect.StructField, reflect.Value) bool
				//HomePackage string
				//Separator string
			}
			if lo.Sdump(ast) == lo.Sdump(exp) { // simple diff
				return
			}
			diff := pretty.Compare(ast, exp)
			if diff != "" { // bonus
				t.Errorf("test #%d: FAIL", index)
				t.Logf("test #%d:   ast: %s", index, lo.Sdump(ast))
				t.Logf("test #%d:   exp: %s", index, lo.Sdump(exp))
				t.Logf("test #%d: diff:\n%s", index, diff)
			}
		})
	}
}

func TestParseJSON1(t *testing.T) {
	type test struct { // an individual test
		name string
		code string
		err  error
	}
	testCases := []test{
		{"unknown op", `{"op": "frobnicate", "value": 1}`, interfaces.ErrUnsupportedOperation},
		{"missing op", `{"value": 1}`, interfaces.ErrTypeMismatch},
		{"op not a string", `{"op": 7}`, interfaces.ErrTypeMismatch},
		{"missing field", `{"op": "set", "var": "x"}`, interfaces.ErrTypeMismatch},
		{"bad var", `{"op": "get", "var": 3}`, interfaces.ErrTypeMismatch},
		{"seq not a list", `{"op": "seq", "seq": 3}`, interfaces.ErrTypeMismatch},
		{"nested unknown op", `{"op": "seq", "seq": [{"op": "nope"}]}`, interfaces.ErrUnsupportedOperation},
		{"bad clause", `{"op": "cond", "cond": [3]}`, interfaces.ErrTypeMismatch},
	}

	for index, tc := range testCases { // run all the tests
		name, code, exp := tc.name, tc.code, tc.err
		t.Run(fmt.Sprintf("test #%d (%s)", index, name), func(t *testing.T) {
			_, err := ParseJSON([]byte(code))
			if err == nil {
				t.Errorf("test #%d: expected error, got nil", index)
				return
			}
			if !errors.Is(err, exp) {
				t.Errorf("test #%d: expected error class: %v, got: %+v", index, exp, err)
			}
		})
	}

	if _, err := ParseJSON([]byte(`{"op": "get"`)); err == nil {
		t.Errorf("truncated json should fail")
	}
}

func TestParseYAML0(t *testing.T) {
	code := strings.Join([]string{
		"op: seq",
		"seq:",
		"  - op: set",
		"    var: color",
		"    value:",
		"      op: uniformChoice",
		"      choices: [red, blue]",
		"      unit: {op: get, var: userid}",
		"  - op: cond",
		"    cond:",
		"      - if: true",
		"        then: {op: set, var: size, value: 1.5}",
	}, "\n")

	exp := &ExprSeq{
		Body: []interfaces.Expr{
			&ExprSet{
				Name: "color",
				Value: &ExprUniformChoice{
					Choices: &ExprArray{
						Values: []interfaces.Expr{
							&ExprStr{V: "red"},
							&ExprStr{V: "blue"},
						},
					},
					Unit: &ExprGet{Name: "userid"},
				},
			},
			&ExprCond{
				Clauses: []*ExprCondClause{
					{
						If:   &ExprBool{V: true},
						Then: &ExprSet{Name: "size", Value: &ExprFloat{V: 1.5}},
					},
				},
			},
		},
	}

	ast, err := ParseYAML([]byte(code))
	if err != nil {
		t.Errorf("parse failed with: %+v", err)
		return
	}
	if diff := pretty.Compare(ast, exp); diff != "" {
		t.Errorf("unexpected ast, diff:\n%s", diff)
	}
}

func TestApply0(t *testing.T) {
	ast, err := ParseJSON([]byte(`{"op": "seq", "seq": [
		{"op": "set", "var": "a", "value": 1},
		{"op": "set", "var": "b", "value": {"op": "sum", "values": [{"op": "get", "var": "a"}, 2]}},
		{"op": "set", "var": "a", "value": 3}
	]}`))
	if err != nil {
		t.Errorf("parse failed with: %+v", err)
		return
	}

	// post-order: children come before their parents
	order := []string{}
	fn := func(node interfaces.Expr) error {
		order = append(order, node.String())
		return nil
	}
	if err := ast.Apply(fn); err != nil {
		t.Errorf("apply failed with: %+v", err)
		return
	}
	if l := len(order); l != 9 {
		t.Errorf("expected 9 nodes, got %d: %v", l, order)
		return
	}
	if order[0] != "float(1)" || order[1] != "set(a, float(1))" {
		t.Errorf("unexpected order: %v", order)
	}
	if last := order[len(order)-1]; !strings.HasPrefix(last, "seq(") {
		t.Errorf("expected the seq last, got: %s", last)
	}

	names, err := CollectVariables(ast)
	if err != nil {
		t.Errorf("collect failed with: %+v", err)
		return
	}
	if !reflect.DeepEqual(names, []string{"a", "b"}) {
		t.Errorf("unexpected variables: %v", names)
	}

	sentinel := fmt.Errorf("stop")
	if err := ast.Apply(func(interfaces.Expr) error { return sentinel }); err != sentinel {
		t.Errorf("expected apply to stop with the sentinel, got: %v", err)
	}
}

func TestValueToExpr0(t *testing.T) {
	val := &types.ListValue{V: []types.Value{
		&types.FloatValue{V: 1},
		&types.NullValue{},
		&types.MapValue{V: map[string]types.Value{"k": &types.StrValue{V: "v"}}},
	}}
	expr, err := ValueToExpr(val)
	if err != nil {
		t.Errorf("conversion failed with: %+v", err)
		return
	}
	if s, exp := expr.String(), `array(float(1), null, literal({"k": "v"}))`; s != exp {
		t.Errorf("got: %s, expected: %s", s, exp)
	}
}
