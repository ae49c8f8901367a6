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

// Package gather implements the parameter gatherer, which is an abstract
// interpreter over the same trees as the interpret package. Instead of a value,
// every expression produces a Param describing the space of values it could
// take on any run.
package gather

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/purpleidea/planout/lang/types"
	"github.com/purpleidea/planout/util/errwrap"
)

// RangeKind is the kind of number a RangeParam contains.
type RangeKind string

const (
	// RangeFloat is any number between the bounds.
	RangeFloat RangeKind = "float"

	// RangeInteger is any whole number between the bounds.
	RangeInteger RangeKind = "integer"
)

// Param is a symbolic description of the values an expression could produce.
// The unknown description is a nil Param.
type Param interface {
	fmt.Stringer

	// Cmp returns an error if this param isn't the same as the arg.
	Cmp(Param) error

	// Document returns the golang form of this param, in the shape which
	// is used when it is encoded.
	Document() interface{}
}

// Table is a symbol table mapping variable names to their description.
type Table map[string]Param

// Keys returns the sorted names in the table.
func (obj Table) Keys() []string {
	keys := []string{}
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String returns a short representation of the table.
func (obj Table) String() string {
	s := []string{}
	for _, k := range obj.Keys() {
		s = append(s, fmt.Sprintf("%s: %s", k, str(obj[k])))
	}
	return fmt.Sprintf("{%s}", strings.Join(s, ", "))
}

// Document returns the golang form of the whole table.
func (obj Table) Document() map[string]interface{} {
	m := make(map[string]interface{})
	for k, v := range obj {
		m[k] = document(v)
	}
	return m
}

// Cmp compares two params, either of which may be unknown.
func Cmp(a, b Param) error {
	if a == nil && b == nil {
		return nil
	}
	if a == nil || b == nil {
		return fmt.Errorf("one param is unknown")
	}
	return a.Cmp(b)
}

func str(p Param) string {
	if p == nil {
		return "unknown"
	}
	return p.String()
}

func document(p Param) interface{} {
	if p == nil {
		return nil
	}
	return p.Document()
}

func documents(params []Param) []interface{} {
	l := []interface{}{}
	for _, x := range params {
		l = append(l, document(x))
	}
	return l
}

func strs(params []Param) string {
	s := []string{}
	for _, x := range params {
		s = append(s, str(x))
	}
	return strings.Join(s, ", ")
}

func cmpList(a, b []Param) error {
	if len(a) != len(b) {
		return fmt.Errorf("lengths differ: %d != %d", len(a), len(b))
	}
	for i := range a {
		if err := Cmp(a[i], b[i]); err != nil {
			return errwrap.Wrapf(err, "index %d did not cmp", i)
		}
	}
	return nil
}

// AtomicParam is a single known scalar.
type AtomicParam struct {
	V types.Value
}

// NewAtomic is a helper to build an atomic out of a golang scalar.
func NewAtomic(i interface{}) *AtomicParam {
	v, err := types.ValueOfGolang(i)
	if err != nil {
		panic(err) // programming error
	}
	return &AtomicParam{V: v}
}

// String returns a short representation of this param.
func (obj *AtomicParam) String() string { return obj.V.String() }

// Cmp returns an error if this param isn't the same as the arg.
func (obj *AtomicParam) Cmp(p Param) error {
	x, ok := p.(*AtomicParam)
	if !ok {
		return fmt.Errorf("not an atomic")
	}
	return obj.V.Cmp(x.V)
}

// Document returns the bare scalar.
func (obj *AtomicParam) Document() interface{} { return obj.V.Value() }

// MarshalJSON encodes the document form of this param.
func (obj *AtomicParam) MarshalJSON() ([]byte, error) { return json.Marshal(obj.Document()) }

// MarshalYAML returns the document form of this param.
func (obj *AtomicParam) MarshalYAML() (interface{}, error) { return obj.Document(), nil }

// number returns the number inside an atomic, if it is one.
func number(p Param) (float64, bool) {
	x, ok := p.(*AtomicParam)
	if !ok || x.V.Kind() != types.KindFloat {
		return 0, false
	}
	return x.V.Float(), true
}

// RangeParam is any number between Min and Max.
type RangeParam struct {
	Kind RangeKind
	Min  float64
	Max  float64
}

type rangeDoc struct {
	Type RangeKind `json:"type" yaml:"type"`
	Min  float64   `json:"min" yaml:"min"`
	Max  float64   `json:"max" yaml:"max"`
}

// String returns a short representation of this param.
func (obj *RangeParam) String() string {
	return fmt.Sprintf("%s[%v, %v]", obj.Kind, obj.Min, obj.Max)
}

// Cmp returns an error if this param isn't the same as the arg.
func (obj *RangeParam) Cmp(p Param) error {
	x, ok := p.(*RangeParam)
	if !ok {
		return fmt.Errorf("not a range")
	}
	if obj.Kind != x.Kind {
		return fmt.Errorf("range kinds differ: %s != %s", obj.Kind, x.Kind)
	}
	if obj.Min != x.Min || obj.Max != x.Max {
		return fmt.Errorf("range bounds differ")
	}
	return nil
}

// Document returns the range document.
func (obj *RangeParam) Document() interface{} {
	return &rangeDoc{Type: obj.Kind, Min: obj.Min, Max: obj.Max}
}

// MarshalJSON encodes the document form of this param.
func (obj *RangeParam) MarshalJSON() ([]byte, error) { return json.Marshal(obj.Document()) }

// MarshalYAML returns the document form of this param.
func (obj *RangeParam) MarshalYAML() (interface{}, error) { return obj.Document(), nil }

// SelectParam is one, or for sampling up to Limit, of the Values.
type SelectParam struct {
	Limit  float64
	Values []Param
}

type selectDoc struct {
	Type   string        `json:"type" yaml:"type"`
	Limit  float64       `json:"limit" yaml:"limit"`
	Values []interface{} `json:"values" yaml:"values"`
}

// NewBoolean returns the param of anything that is either false or true.
func NewBoolean() *SelectParam {
	return &SelectParam{
		Limit:  1,
		Values: []Param{NewAtomic(false), NewAtomic(true)},
	}
}

// String returns a short representation of this param.
func (obj *SelectParam) String() string {
	return fmt.Sprintf("select(%v)[%s]", obj.Limit, strs(obj.Values))
}

// Cmp returns an error if this param isn't the same as the arg.
func (obj *SelectParam) Cmp(p Param) error {
	x, ok := p.(*SelectParam)
	if !ok {
		return fmt.Errorf("not a select")
	}
	if obj.Limit != x.Limit {
		return fmt.Errorf("select limits differ: %v != %v", obj.Limit, x.Limit)
	}
	return errwrap.Wrapf(cmpList(obj.Values, x.Values), "select values differ")
}

// Document returns the select document.
func (obj *SelectParam) Document() interface{} {
	return &selectDoc{Type: "select", Limit: obj.Limit, Values: documents(obj.Values)}
}

// MarshalJSON encodes the document form of this param.
func (obj *SelectParam) MarshalJSON() ([]byte, error) { return json.Marshal(obj.Document()) }

// MarshalYAML returns the document form of this param.
func (obj *SelectParam) MarshalYAML() (interface{}, error) { return obj.Document(), nil }

// ArrayParam is a list whose elements are each described by a param.
type ArrayParam struct {
	Values []Param
}

type arrayDoc struct {
	Type   string        `json:"type" yaml:"type"`
	Values []interface{} `json:"values" yaml:"values"`
}

// String returns a short representation of this param.
func (obj *ArrayParam) String() string { return fmt.Sprintf("array[%s]", strs(obj.Values)) }

// Cmp returns an error if this param isn't the same as the arg.
func (obj *ArrayParam) Cmp(p Param) error {
	x, ok := p.(*ArrayParam)
	if !ok {
		return fmt.Errorf("not an array")
	}
	return errwrap.Wrapf(cmpList(obj.Values, x.Values), "array values differ")
}

// Document returns the array document.
func (obj *ArrayParam) Document() interface{} {
	return &arrayDoc{Type: "array", Values: documents(obj.Values)}
}

// MarshalJSON encodes the document form of this param.
func (obj *ArrayParam) MarshalJSON() ([]byte, error) { return json.Marshal(obj.Document()) }

// MarshalYAML returns the document form of this param.
func (obj *ArrayParam) MarshalYAML() (interface{}, error) { return obj.Document(), nil }

// LiteralParam is a value written out with the literal op. Object literals in
// inputs are also described this way. Two literals only ever merge into a
// union, unlike bare atomics.
type LiteralParam struct {
	V types.Value
}

// NewLiteral wraps a copy of the value as a literal.
func NewLiteral(v types.Value) *LiteralParam {
	return &LiteralParam{V: v.Copy()}
}

type literalDoc struct {
	Type  string      `json:"type" yaml:"type"`
	Value interface{} `json:"value" yaml:"value"`
}

// String returns a short representation of this param.
func (obj *LiteralParam) String() string { return fmt.Sprintf("literal(%s)", obj.V) }

// Cmp returns an error if this param isn't the same as the arg.
func (obj *LiteralParam) Cmp(p Param) error {
	x, ok := p.(*LiteralParam)
	if !ok {
		return fmt.Errorf("not a literal")
	}
	return obj.V.Cmp(x.V)
}

// Document returns the literal document.
func (obj *LiteralParam) Document() interface{} {
	return &literalDoc{Type: "literal", Value: obj.V.Value()}
}

// MarshalJSON encodes the document form of this param.
func (obj *LiteralParam) MarshalJSON() ([]byte, error) { return json.Marshal(obj.Document()) }

// MarshalYAML returns the document form of this param.
func (obj *LiteralParam) MarshalYAML() (interface{}, error) { return obj.Document(), nil }

// UnionParam is whichever of the variants a given run happened to take.
type UnionParam struct {
	Variants []Param
}

type unionDoc struct {
	Type     string        `json:"type" yaml:"type"`
	Variants []interface{} `json:"variants" yaml:"variants"`
}

// NewUnion builds a union of the variants. Any variant which is itself a union
// is flattened into the result, so unions never directly nest.
func NewUnion(variants ...Param) *UnionParam {
	result := []Param{}
	for _, x := range variants {
		if u, ok := x.(*UnionParam); ok {
			result = append(result, u.Variants...)
			continue
		}
		result = append(result, x)
	}
	return &UnionParam{Variants: result}
}

// String returns a short representation of this param.
func (obj *UnionParam) String() string { return fmt.Sprintf("union[%s]", strs(obj.Variants)) }

// Cmp returns an error if this param isn't the same as the arg.
func (obj *UnionParam) Cmp(p Param) error {
	x, ok := p.(*UnionParam)
	if !ok {
		return fmt.Errorf("not a union")
	}
	return errwrap.Wrapf(cmpList(obj.Variants, x.Variants), "union variants differ")
}

// Document returns the union document.
func (obj *UnionParam) Document() interface{} {
	return &unionDoc{Type: "union", Variants: documents(obj.Variants)}
}

// MarshalJSON encodes the document form of this param.
func (obj *UnionParam) MarshalJSON() ([]byte, error) { return json.Marshal(obj.Document()) }

// MarshalYAML returns the document form of this param.
func (obj *UnionParam) MarshalYAML() (interface{}, error) { return obj.Document(), nil }

// FromValue lifts a concrete value into the param describing exactly it. Lists
// become arrays and maps become literals. Null is unknown.
func FromValue(v types.Value) Param {
	if v == nil {
		return nil
	}
	switch v.Kind() {
	case types.KindNull:
		return nil
	case types.KindList:
		values := []Param{}
		for _, x := range v.List() {
			values = append(values, FromValue(x)) // recurse
		}
		return &ArrayParam{Values: values}
	case types.KindMap:
		return NewLiteral(v)
	}
	return &AtomicParam{V: v}
}

// FromValues lifts a map of concrete input values into a table.
func FromValues(m map[string]types.Value) Table {
	table := make(Table)
	for k, v := range m {
		table[k] = FromValue(v)
	}
	return table
}

// isRound is true if the float is a whole number that round trips.
func isRound(f float64) bool {
	return !math.IsInf(f, 0) && f == math.Trunc(f)
}
