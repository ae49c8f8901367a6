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
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"
	"github.com/purpleidea/planout/util/errwrap"

	"gopkg.in/yaml.v2"
)

// ParseJSON decodes a compiled tree from its JSON document form.
func ParseJSON(data []byte) (interfaces.Expr, error) {
	var v interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber() // to preserve number precision
	if err := dec.Decode(&v); err != nil {
		return nil, errwrap.Wrapf(err, "invalid JSON")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("invalid JSON: trailing data")
	}
	return Decode(v)
}

// ParseYAML decodes a compiled tree from a YAML document. Since YAML is a
// superset of JSON, this also accepts the JSON form.
func ParseYAML(data []byte) (interfaces.Expr, error) {
	var v interface{}
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, errwrap.Wrapf(err, "invalid YAML")
	}
	return Decode(v)
}

// Decode builds a tree out of generic decoded data, such as what the json and
// yaml packages produce when decoding into an interface{}. Atomic nodes are
// bare scalars or null, a bare list is an array node, and every other node is
// a map with an `op` field naming the operation.
func Decode(data interface{}) (interfaces.Expr, error) {
	switch x := data.(type) {
	case nil:
		return &ExprNull{}, nil

	case bool:
		return &ExprBool{V: x}, nil

	case string:
		return &ExprStr{V: x}, nil

	case []interface{}:
		values, err := decodeList(x)
		if err != nil {
			return nil, err
		}
		return &ExprArray{Values: values}, nil

	case map[string]interface{}:
		return decodeOp(x)

	case map[interface{}]interface{}:
		m, err := stringMap(x)
		if err != nil {
			return nil, err
		}
		return decodeOp(m)
	}

	if f, ok := number(data); ok {
		return &ExprFloat{V: f}, nil
	}

	return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "can't decode node of type %T", data)
}

// number returns the float form of any of the numeric types a decoder emits.
func number(data interface{}) (float64, bool) {
	switch x := data.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint64:
		return float64(x), true
	case json.Number:
		f, err := strconv.ParseFloat(x.String(), 64)
		return f, err == nil
	}
	return 0, false
}

// stringMap converts the map shape that yaml produces into the json one.
func stringMap(m map[interface{}]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		s, ok := k.(string)
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "map key %v is not a string", k)
		}
		out[s] = v
	}
	return out, nil
}

func decodeList(list []interface{}) ([]interfaces.Expr, error) {
	exprs := []interfaces.Expr{}
	for i, x := range list {
		expr, err := Decode(x) // recurse
		if err != nil {
			return nil, errwrap.Wrapf(err, "index %d", i)
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

// node is the decoding state of a single operation map.
type node struct {
	op Op
	m  map[string]interface{}
}

// has returns true if the field is present, even when it is null.
func (obj *node) has(field string) bool {
	_, exists := obj.m[field]
	return exists
}

// expr decodes a required child expression.
func (obj *node) expr(field string) (interfaces.Expr, error) {
	x, exists := obj.m[field]
	if !exists {
		return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` is missing field `%s`", obj.op, field)
	}
	expr, err := Decode(x)
	if err != nil {
		return nil, errwrap.Wrapf(err, "op `%s` field `%s`", obj.op, field)
	}
	return expr, nil
}

// optional decodes a child expression that may be absent, in which case it is
// nil.
func (obj *node) optional(field string) (interfaces.Expr, error) {
	if !obj.has(field) {
		return nil, nil
	}
	return obj.expr(field)
}

// list decodes a field holding a list of child expressions.
func (obj *node) list(field string) ([]interfaces.Expr, error) {
	x, exists := obj.m[field]
	if !exists {
		return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` is missing field `%s`", obj.op, field)
	}
	l, ok := x.([]interface{})
	if !ok {
		return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` field `%s` is not a list", obj.op, field)
	}
	exprs, err := decodeList(l)
	if err != nil {
		return nil, errwrap.Wrapf(err, "op `%s` field `%s`", obj.op, field)
	}
	return exprs, nil
}

// name decodes a field holding a variable name.
func (obj *node) name(field string) (string, error) {
	x, exists := obj.m[field]
	if !exists {
		return "", errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` is missing field `%s`", obj.op, field)
	}
	s, ok := x.(string)
	if !ok {
		return "", errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` field `%s` is not a string", obj.op, field)
	}
	return s, nil
}

// pair decodes the left and right operands.
func (obj *node) pair() (interfaces.Expr, interfaces.Expr, error) {
	left, err := obj.expr("left")
	if err != nil {
		return nil, nil, err
	}
	right, err := obj.expr("right")
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func decodeOp(m map[string]interface{}) (interfaces.Expr, error) {
	x, exists := m["op"]
	if !exists {
		return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "node is missing the `op` field")
	}
	s, ok := x.(string)
	if !ok {
		return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "node `op` field is not a string")
	}
	obj := &node{op: Op(s), m: m}

	switch obj.op {
	case OpLiteral:
		v, exists := m["value"]
		if !exists {
			return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` is missing field `value`", obj.op)
		}
		value, err := types.ValueOfGolang(v)
		if err != nil {
			return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` value: %v", obj.op, err)
		}
		return &ExprLiteral{Value: value}, nil

	case OpArray:
		values, err := obj.list("values")
		if err != nil {
			return nil, err
		}
		return &ExprArray{Values: values}, nil

	case OpGet:
		name, err := obj.name("var")
		if err != nil {
			return nil, err
		}
		return &ExprGet{Name: name}, nil

	case OpSet:
		name, err := obj.name("var")
		if err != nil {
			return nil, err
		}
		value, err := obj.expr("value")
		if err != nil {
			return nil, err
		}
		return &ExprSet{Name: name, Value: value}, nil

	case OpSeq:
		body, err := obj.list("seq")
		if err != nil {
			return nil, err
		}
		return &ExprSeq{Body: body}, nil

	case OpCond:
		return decodeCond(obj)

	case OpEquals, OpLess, OpLessEq, OpMore, OpMoreEq, OpMod, OpDiv:
		left, right, err := obj.pair()
		if err != nil {
			return nil, err
		}
		return &ExprBinary{Op: obj.op, Left: left, Right: right}, nil

	case OpMinus:
		// older compilers emitted a unary minus with the same op name
		if !obj.has("left") && obj.has("value") {
			value, err := obj.expr("value")
			if err != nil {
				return nil, err
			}
			return &ExprUnary{Op: OpNegative, Value: value}, nil
		}
		left, right, err := obj.pair()
		if err != nil {
			return nil, err
		}
		return &ExprBinary{Op: obj.op, Left: left, Right: right}, nil

	case OpAnd, OpOr:
		// both the binary and the commutative shapes are in the wild
		if !obj.has("values") && obj.has("left") {
			left, right, err := obj.pair()
			if err != nil {
				return nil, err
			}
			return &ExprCommutative{Op: obj.op, Values: []interfaces.Expr{left, right}}, nil
		}
		fallthrough

	case OpSum, OpProduct, OpMin, OpMax:
		values, err := obj.list("values")
		if err != nil {
			return nil, err
		}
		return &ExprCommutative{Op: obj.op, Values: values}, nil

	case OpReturn, OpNot, OpRound, OpNegative, OpLength:
		value, err := obj.expr("value")
		if err != nil {
			return nil, err
		}
		return &ExprUnary{Op: obj.op, Value: value}, nil

	case OpRandomFloat, OpRandomInteger:
		lower, err := obj.expr("min")
		if err != nil {
			return nil, err
		}
		upper, err := obj.expr("max")
		if err != nil {
			return nil, err
		}
		unit, err := obj.optional("unit")
		if err != nil {
			return nil, err
		}
		return &ExprRandomRange{Op: obj.op, Min: lower, Max: upper, Unit: unit}, nil

	case OpBernoulliTrial:
		p, err := obj.expr("p")
		if err != nil {
			return nil, err
		}
		unit, err := obj.optional("unit")
		if err != nil {
			return nil, err
		}
		return &ExprBernoulliTrial{P: p, Unit: unit}, nil

	case OpBernoulliFilter:
		p, err := obj.expr("p")
		if err != nil {
			return nil, err
		}
		choices, err := obj.expr("choices")
		if err != nil {
			return nil, err
		}
		unit, err := obj.optional("unit")
		if err != nil {
			return nil, err
		}
		return &ExprBernoulliFilter{P: p, Choices: choices, Unit: unit}, nil

	case OpUniformChoice:
		choices, err := obj.expr("choices")
		if err != nil {
			return nil, err
		}
		unit, err := obj.optional("unit")
		if err != nil {
			return nil, err
		}
		return &ExprUniformChoice{Choices: choices, Unit: unit}, nil

	case OpWeightedChoice:
		choices, err := obj.expr("choices")
		if err != nil {
			return nil, err
		}
		weights, err := obj.expr("weights")
		if err != nil {
			return nil, err
		}
		unit, err := obj.optional("unit")
		if err != nil {
			return nil, err
		}
		return &ExprWeightedChoice{Choices: choices, Weights: weights, Unit: unit}, nil

	case OpSample:
		choices, err := obj.expr("choices")
		if err != nil {
			return nil, err
		}
		draws, err := obj.optional("draws")
		if err != nil {
			return nil, err
		}
		unit, err := obj.optional("unit")
		if err != nil {
			return nil, err
		}
		return &ExprSample{Choices: choices, Draws: draws, Unit: unit}, nil

	case OpIndex:
		base, err := obj.expr("base")
		if err != nil {
			return nil, err
		}
		index, err := obj.expr("index")
		if err != nil {
			return nil, err
		}
		return &ExprIndex{Base: base, Index: index}, nil

	case OpIncludes:
		collection, err := obj.expr("collection")
		if err != nil {
			return nil, err
		}
		value, err := obj.expr("value")
		if err != nil {
			return nil, err
		}
		return &ExprIncludes{Collection: collection, Value: value}, nil
	}

	return nil, errwrap.Wrapf(interfaces.ErrUnsupportedOperation, "op `%s`", obj.op)
}

func decodeCond(obj *node) (interfaces.Expr, error) {
	x, exists := obj.m["cond"]
	if !exists {
		return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` is missing field `cond`", obj.op)
	}
	l, ok := x.([]interface{})
	if !ok {
		return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "op `%s` field `cond` is not a list", obj.op)
	}
	clauses := []*ExprCondClause{}
	for i, c := range l {
		m, ok := c.(map[string]interface{})
		if ym, isYAML := c.(map[interface{}]interface{}); isYAML {
			var err error
			if m, err = stringMap(ym); err != nil {
				return nil, errwrap.Wrapf(err, "clause %d", i)
			}
			ok = true
		}
		if !ok {
			return nil, errwrap.Wrapf(interfaces.ErrTypeMismatch, "clause %d is not a map", i)
		}
		clause := &node{op: obj.op, m: m}
		cif, err := clause.expr("if")
		if err != nil {
			return nil, errwrap.Wrapf(err, "clause %d", i)
		}
		cthen, err := clause.expr("then")
		if err != nil {
			return nil, errwrap.Wrapf(err, "clause %d", i)
		}
		clauses = append(clauses, &ExprCondClause{If: cif, Then: cthen})
	}
	return &ExprCond{Clauses: clauses}, nil
}
