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

// Package ast contains the structs implementing and some utility functions for
// interacting with the compiled experiment tree.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"
)

// Op is the name of an operation as it appears in the `op` field of a tree.
type Op string

const (
	// OpLiteral wraps a constant value.
	OpLiteral Op = "literal"
	// OpArray builds a list from child expressions.
	OpArray Op = "array"
	// OpGet reads a variable.
	OpGet Op = "get"
	// OpSet writes a variable.
	OpSet Op = "set"
	// OpSeq runs a list of steps in order.
	OpSeq Op = "seq"
	// OpCond picks the first matching clause.
	OpCond Op = "cond"

	OpEquals Op = "equals"
	OpLess   Op = "<"
	OpLessEq Op = "<="
	OpMore   Op = ">"
	OpMoreEq Op = ">="
	OpMod    Op = "%"
	OpDiv    Op = "/"
	OpMinus  Op = "-"

	OpAnd     Op = "and"
	OpOr      Op = "or"
	OpSum     Op = "sum"
	OpProduct Op = "product"
	OpMin     Op = "min"
	OpMax     Op = "max"

	OpReturn   Op = "return"
	OpNot      Op = "not"
	OpRound    Op = "round"
	OpNegative Op = "negative"
	OpLength   Op = "length"

	OpRandomFloat     Op = "randomFloat"
	OpRandomInteger   Op = "randomInteger"
	OpBernoulliTrial  Op = "bernoulliTrial"
	OpBernoulliFilter Op = "bernoulliFilter"
	OpUniformChoice   Op = "uniformChoice"
	OpWeightedChoice  Op = "weightedChoice"
	OpSample          Op = "sample"

	OpIndex    Op = "index"
	OpIncludes Op = "includes"
)

// apply is a small helper that walks each non-nil child and then the node.
func apply(obj interfaces.Expr, fn func(interfaces.Expr) error, children ...interfaces.Expr) error {
	for _, x := range children {
		if x == nil { // optional field
			continue
		}
		if err := x.Apply(fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// join prints a list of expressions.
func join(exprs []interfaces.Expr) string {
	s := []string{}
	for _, x := range exprs {
		s = append(s, str(x))
	}
	return strings.Join(s, ", ")
}

// str prints an expression that might be absent.
func str(expr interfaces.Expr) string {
	if expr == nil {
		return "<nil>"
	}
	return expr.String()
}

// ExprNull is a representation of the null atomic.
type ExprNull struct{}

// String returns a short representation of this expression.
func (obj *ExprNull) String() string { return "null" }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprNull) Apply(fn func(interfaces.Expr) error) error { return fn(obj) }

// ExprBool is a representation of a boolean.
type ExprBool struct {
	V bool
}

// String returns a short representation of this expression.
func (obj *ExprBool) String() string { return fmt.Sprintf("bool(%t)", obj.V) }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprBool) Apply(fn func(interfaces.Expr) error) error { return fn(obj) }

// ExprFloat is a representation of a number.
type ExprFloat struct {
	V float64
}

// String returns a short representation of this expression.
func (obj *ExprFloat) String() string {
	return fmt.Sprintf("float(%s)", strconv.FormatFloat(obj.V, 'f', -1, 64))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprFloat) Apply(fn func(interfaces.Expr) error) error { return fn(obj) }

// ExprStr is a representation of a string.
type ExprStr struct {
	V string
}

// String returns a short representation of this expression.
func (obj *ExprStr) String() string { return fmt.Sprintf("str(%s)", strconv.Quote(obj.V)) }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprStr) Apply(fn func(interfaces.Expr) error) error { return fn(obj) }

// ExprLiteral wraps a constant value. This is how object literals and lists of
// constants appear in a tree.
type ExprLiteral struct {
	Value types.Value
}

// String returns a short representation of this expression.
func (obj *ExprLiteral) String() string {
	if obj.Value == nil {
		return "literal(null)"
	}
	return fmt.Sprintf("literal(%s)", obj.Value)
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprLiteral) Apply(fn func(interfaces.Expr) error) error { return fn(obj) }

// ExprArray builds a list out of the values of each child expression.
type ExprArray struct {
	Values []interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprArray) String() string { return fmt.Sprintf("array(%s)", join(obj.Values)) }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprArray) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Values...)
}

// ExprGet reads a variable.
type ExprGet struct {
	Name string
}

// String returns a short representation of this expression.
func (obj *ExprGet) String() string { return fmt.Sprintf("get(%s)", obj.Name) }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprGet) Apply(fn func(interfaces.Expr) error) error { return fn(obj) }

// ExprSet writes the value of the child expression into a variable.
type ExprSet struct {
	Name  string
	Value interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprSet) String() string {
	return fmt.Sprintf("set(%s, %s)", obj.Name, str(obj.Value))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprSet) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Value)
}

// ExprSeq runs each step in order.
type ExprSeq struct {
	Body []interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprSeq) String() string { return fmt.Sprintf("seq(%s)", join(obj.Body)) }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprSeq) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Body...)
}

// ExprCondClause is a single if/then pair of a cond expression.
type ExprCondClause struct {
	If   interfaces.Expr
	Then interfaces.Expr
}

// String returns a short representation of this clause.
func (obj *ExprCondClause) String() string {
	return fmt.Sprintf("if %s then %s", str(obj.If), str(obj.Then))
}

// ExprCond is an if/else-if chain. The first clause with a truthy guard wins.
type ExprCond struct {
	Clauses []*ExprCondClause
}

// String returns a short representation of this expression.
func (obj *ExprCond) String() string {
	s := []string{}
	for _, x := range obj.Clauses {
		s = append(s, x.String())
	}
	return fmt.Sprintf("cond(%s)", strings.Join(s, "; "))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprCond) Apply(fn func(interfaces.Expr) error) error {
	children := []interfaces.Expr{}
	for _, x := range obj.Clauses {
		children = append(children, x.If, x.Then)
	}
	return apply(obj, fn, children...)
}

// ExprBinary is an operator with exactly two operands.
type ExprBinary struct {
	Op    Op
	Left  interfaces.Expr
	Right interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprBinary) String() string {
	return fmt.Sprintf("%s(%s, %s)", obj.Op, str(obj.Left), str(obj.Right))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprBinary) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Left, obj.Right)
}

// ExprCommutative is an operator over any number of operands.
type ExprCommutative struct {
	Op     Op
	Values []interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprCommutative) String() string {
	return fmt.Sprintf("%s(%s)", obj.Op, join(obj.Values))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprCommutative) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Values...)
}

// ExprUnary is an operator with a single operand.
type ExprUnary struct {
	Op    Op
	Value interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprUnary) String() string { return fmt.Sprintf("%s(%s)", obj.Op, str(obj.Value)) }

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprUnary) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Value)
}

// ExprRandomRange draws a number between two bounds. The Op is either
// randomFloat or randomInteger.
type ExprRandomRange struct {
	Op   Op
	Min  interfaces.Expr
	Max  interfaces.Expr
	Unit interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprRandomRange) String() string {
	return fmt.Sprintf("%s(%s, %s, unit=%s)", obj.Op, str(obj.Min), str(obj.Max), str(obj.Unit))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprRandomRange) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Min, obj.Max, obj.Unit)
}

// ExprBernoulliTrial returns one with probability P and zero otherwise.
type ExprBernoulliTrial struct {
	P    interfaces.Expr
	Unit interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprBernoulliTrial) String() string {
	return fmt.Sprintf("%s(%s, unit=%s)", OpBernoulliTrial, str(obj.P), str(obj.Unit))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprBernoulliTrial) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.P, obj.Unit)
}

// ExprBernoulliFilter keeps each choice independently with probability P.
type ExprBernoulliFilter struct {
	P       interfaces.Expr
	Choices interfaces.Expr
	Unit    interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprBernoulliFilter) String() string {
	return fmt.Sprintf("%s(%s, %s, unit=%s)", OpBernoulliFilter, str(obj.P), str(obj.Choices), str(obj.Unit))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprBernoulliFilter) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.P, obj.Choices, obj.Unit)
}

// ExprUniformChoice picks one of the choices with equal probability.
type ExprUniformChoice struct {
	Choices interfaces.Expr
	Unit    interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprUniformChoice) String() string {
	return fmt.Sprintf("%s(%s, unit=%s)", OpUniformChoice, str(obj.Choices), str(obj.Unit))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprUniformChoice) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Choices, obj.Unit)
}

// ExprWeightedChoice picks one of the choices in proportion to its weight.
type ExprWeightedChoice struct {
	Choices interfaces.Expr
	Weights interfaces.Expr
	Unit    interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprWeightedChoice) String() string {
	return fmt.Sprintf("%s(%s, %s, unit=%s)", OpWeightedChoice, str(obj.Choices), str(obj.Weights), str(obj.Unit))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprWeightedChoice) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Choices, obj.Weights, obj.Unit)
}

// ExprSample draws without replacement. A nil Draws means all of them.
type ExprSample struct {
	Choices interfaces.Expr
	Draws   interfaces.Expr
	Unit    interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprSample) String() string {
	return fmt.Sprintf("%s(%s, %s, unit=%s)", OpSample, str(obj.Choices), str(obj.Draws), str(obj.Unit))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprSample) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Choices, obj.Draws, obj.Unit)
}

// ExprIndex looks up an element of a list or an entry of a map.
type ExprIndex struct {
	Base  interfaces.Expr
	Index interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprIndex) String() string {
	return fmt.Sprintf("%s(%s, %s)", OpIndex, str(obj.Base), str(obj.Index))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprIndex) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Base, obj.Index)
}

// ExprIncludes tests a list for membership.
type ExprIncludes struct {
	Collection interfaces.Expr
	Value      interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprIncludes) String() string {
	return fmt.Sprintf("%s(%s, %s)", OpIncludes, str(obj.Collection), str(obj.Value))
}

// Apply is a general purpose iterator method that operates on any AST node.
func (obj *ExprIncludes) Apply(fn func(interfaces.Expr) error) error {
	return apply(obj, fn, obj.Collection, obj.Value)
}
