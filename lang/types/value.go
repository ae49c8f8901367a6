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
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/purpleidea/planout/util/errwrap"
)

// Value represents an interface to get values out of each kind. It is similar
// to the reflection interfaces used in the golang standard library.
type Value interface {
	fmt.Stringer // String() string (for display purposes)
	Kind() Kind
	Cmp(Value) error // error if the two values aren't the same
	Copy() Value     // returns a copy of this value
	Value() interface{}
	Bool() bool
	Str() string
	Float() float64
	List() []Value
	Map() map[string]Value
}

// ValueOfGolang is a helper that takes a golang value, and produces the
// equivalent internal representation. It understands the shapes produced by
// the json and yaml decoders, which is how trees and inputs enter the system.
// This is also very useful for writing tests.
func ValueOfGolang(i interface{}) (Value, error) {
	if v, ok := i.(Value); ok {
		return v, nil
	}
	if i == nil {
		return &NullValue{}, nil
	}
	return ValueOf(reflect.ValueOf(i))
}

// ValueOf takes a reflect.Value and returns an equivalent Value.
func ValueOf(v reflect.Value) (Value, error) {
	value := v
	kind := value.Kind()
	for kind == reflect.Ptr || kind == reflect.Interface {
		if value.IsNil() {
			return &NullValue{}, nil
		}
		value = value.Elem() // un-nest one level
		kind = value.Kind()
	}

	// json.Number is a string underneath, but we want the number
	if n, ok := value.Interface().(interface{ Float64() (float64, error) }); ok && kind == reflect.String {
		f, err := n.Float64()
		if err != nil {
			return nil, errwrap.Wrapf(err, "invalid number %s", value.String())
		}
		return &FloatValue{V: f}, nil
	}

	switch kind { // match on destination field kind
	case reflect.Bool:
		return &BoolValue{V: value.Bool()}, nil

	case reflect.String:
		return &StrValue{V: value.String()}, nil

	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Int16, reflect.Int8:
		return &FloatValue{V: float64(value.Int())}, nil

	case reflect.Uint, reflect.Uint64, reflect.Uint32, reflect.Uint16, reflect.Uint8:
		return &FloatValue{V: float64(value.Uint())}, nil

	case reflect.Float64, reflect.Float32:
		return &FloatValue{V: value.Float()}, nil

	case reflect.Array, reflect.Slice:
		values := []Value{}
		for i := 0; i < value.Len(); i++ {
			x, err := ValueOf(value.Index(i)) // recurse
			if err != nil {
				return nil, errwrap.Wrapf(err, "index %d", i)
			}
			values = append(values, x)
		}
		return &ListValue{V: values}, nil

	case reflect.Map:
		m := make(map[string]Value)
		// loop through the list of map keys in undefined order
		for _, mk := range value.MapKeys() {
			key := mk
			for key.Kind() == reflect.Interface && !key.IsNil() {
				key = key.Elem() // yaml gives us map[interface{}]interface{}
			}
			if key.Kind() != reflect.String {
				return nil, fmt.Errorf("map keys must be strings, got %s", key.Kind())
			}
			x, err := ValueOf(value.MapIndex(mk)) // recurse
			if err != nil {
				return nil, errwrap.Wrapf(err, "key %s", key.String())
			}
			m[key.String()] = x
		}
		return &MapValue{V: m}, nil

	default:
		return nil, fmt.Errorf("unable to represent value of %+v", v)
	}
}

// ValueSlice is a linear list of values. It is used for sorting purposes.
type ValueSlice []Value

func (vs ValueSlice) Len() int      { return len(vs) }
func (vs ValueSlice) Swap(i, j int) { vs[i], vs[j] = vs[j], vs[i] }
func (vs ValueSlice) Less(i, j int) bool {
	c, ok := Compare(vs[i], vs[j])
	if !ok { // order by kind if they can't be compared
		return vs[i].Kind() < vs[j].Kind()
	}
	return c < 0
}

// base implements the missing methods that all types need.
type base struct{}

// Bool represents the value of this type as a bool if it is one. If this is not
// a bool, then this panics.
func (obj *base) Bool() bool {
	panic("not a bool")
}

// Str represents the value of this type as a string if it is one. If this is
// not a string, then this panics.
func (obj *base) Str() string {
	panic("not an str") // yes, i think this is the correct grammar
}

// Float represents the value of this type as a float if it is one. If this is
// not a float, then this panics.
func (obj *base) Float() float64 {
	panic("not a float")
}

// List represents the value of this type as a list if it is one. If this is not
// a list, then this panics.
func (obj *base) List() []Value {
	panic("not a list")
}

// Map represents the value of this type as a dictionary if it is one. If this
// is not a map, then this panics.
func (obj *base) Map() map[string]Value {
	panic("not a map")
}

// cmpKind is the common preamble of every Cmp implementation.
func cmpKind(obj, val Value) error {
	if obj == nil || val == nil {
		return fmt.Errorf("cannot cmp to nil")
	}
	if obj.Kind() != val.Kind() {
		return fmt.Errorf("kinds differ: %s != %s", obj.Kind(), val.Kind())
	}
	return nil
}

// NullValue represents the absence of a value.
type NullValue struct {
	base
}

// NewNull creates a new null value.
func NewNull() *NullValue { return &NullValue{} }

// String returns a visual representation of this value.
func (obj *NullValue) String() string { return "null" }

// Kind returns the kind of this value.
func (obj *NullValue) Kind() Kind { return KindNull }

// Cmp returns an error if this value isn't the same as the arg passed in.
func (obj *NullValue) Cmp(val Value) error { return cmpKind(obj, val) }

// Copy returns a copy of this value.
func (obj *NullValue) Copy() Value { return &NullValue{} }

// Value returns the raw value of this type.
func (obj *NullValue) Value() interface{} { return nil }

// BoolValue represents a boolean value.
type BoolValue struct {
	base
	V bool
}

// NewBool creates a new boolean value.
func NewBool() *BoolValue { return &BoolValue{} }

// String returns a visual representation of this value.
func (obj *BoolValue) String() string {
	return strconv.FormatBool(obj.V) // true or false
}

// Kind returns the kind of this value.
func (obj *BoolValue) Kind() Kind { return KindBool }

// Cmp returns an error if this value isn't the same as the arg passed in.
func (obj *BoolValue) Cmp(val Value) error {
	if err := cmpKind(obj, val); err != nil {
		return err
	}
	if obj.V != val.Bool() {
		return fmt.Errorf("values are different")
	}
	return nil
}

// Copy returns a copy of this value.
func (obj *BoolValue) Copy() Value {
	return &BoolValue{V: obj.V}
}

// Value returns the raw value of this type.
func (obj *BoolValue) Value() interface{} {
	return obj.V
}

// Bool represents the value of this type as a bool if it is one. If this is not
// a bool, then this panics.
func (obj *BoolValue) Bool() bool {
	return obj.V
}

// StrValue represents a string value.
type StrValue struct {
	base
	V string
}

// NewStr creates a new string value.
func NewStr() *StrValue { return &StrValue{} }

// String returns a visual representation of this value.
func (obj *StrValue) String() string {
	return strconv.Quote(obj.V) // wraps in quotes, turns tabs into \t etc...
}

// Kind returns the kind of this value.
func (obj *StrValue) Kind() Kind { return KindStr }

// Cmp returns an error if this value isn't the same as the arg passed in.
func (obj *StrValue) Cmp(val Value) error {
	if err := cmpKind(obj, val); err != nil {
		return err
	}
	if obj.V != val.Str() {
		return fmt.Errorf("values are different")
	}
	return nil
}

// Copy returns a copy of this value.
func (obj *StrValue) Copy() Value {
	return &StrValue{V: obj.V}
}

// Value returns the raw value of this type.
func (obj *StrValue) Value() interface{} {
	return obj.V
}

// Str represents the value of this type as a string if it is one. If this is
// not a string, then this panics.
func (obj *StrValue) Str() string {
	return obj.V
}

// FloatValue represents a number. All numbers are double precision floats, so
// integers are simply floats without a fractional part.
type FloatValue struct {
	base
	V float64
}

// NewFloat creates a new float value.
func NewFloat() *FloatValue { return &FloatValue{} }

// String returns a visual representation of this value.
func (obj *FloatValue) String() string {
	return strconv.FormatFloat(obj.V, 'f', -1, 64) // -1 for exact precision
}

// Kind returns the kind of this value.
func (obj *FloatValue) Kind() Kind { return KindFloat }

// Cmp returns an error if this value isn't the same as the arg passed in. Much
// like the host language of the original scripts, NaN is never the same.
func (obj *FloatValue) Cmp(val Value) error {
	if err := cmpKind(obj, val); err != nil {
		return err
	}
	if obj.V != val.Float() {
		return fmt.Errorf("values are different")
	}
	return nil
}

// Copy returns a copy of this value.
func (obj *FloatValue) Copy() Value {
	return &FloatValue{V: obj.V}
}

// Value returns the raw value of this type.
func (obj *FloatValue) Value() interface{} {
	return obj.V
}

// Float represents the value of this type as a float if it is one. If this is
// not a float, then this panics.
func (obj *FloatValue) Float() float64 {
	return obj.V
}

// ListValue represents a list value. Elements may be of mixed kinds.
type ListValue struct {
	base
	V []Value
}

// NewList creates a new empty list.
func NewList() *ListValue { return &ListValue{V: []Value{}} }

// String returns a visual representation of this value.
func (obj *ListValue) String() string {
	var s []string
	for _, x := range obj.V {
		s = append(s, x.String())
	}
	return fmt.Sprintf("[%s]", strings.Join(s, ", "))
}

// Kind returns the kind of this value.
func (obj *ListValue) Kind() Kind { return KindList }

// Cmp returns an error if this value isn't the same as the arg passed in.
func (obj *ListValue) Cmp(val Value) error {
	if err := cmpKind(obj, val); err != nil {
		return err
	}
	cmp := val.List()

	if len(obj.V) != len(cmp) {
		return fmt.Errorf("values have different lengths")
	}

	for i := range obj.V {
		if err := obj.V[i].Cmp(cmp[i]); err != nil {
			return errwrap.Wrapf(err, "index %d did not cmp", i)
		}
	}

	return nil
}

// Copy returns a copy of this value.
func (obj *ListValue) Copy() Value {
	v := []Value{}
	for _, x := range obj.V {
		v = append(v, x.Copy())
	}
	return &ListValue{V: v}
}

// Value returns the raw value of this type.
func (obj *ListValue) Value() interface{} {
	val := make([]interface{}, 0, len(obj.V))
	for _, x := range obj.V {
		val = append(val, x.Value()) // recurse
	}
	return val
}

// List represents the value of this type as a list if it is one. If this is not
// a list, then this panics.
func (obj *ListValue) List() []Value {
	return obj.V
}

// Add adds an element to this list.
func (obj *ListValue) Add(v Value) {
	obj.V = append(obj.V, v)
}

// Lookup looks up a value by index. On success it also returns the Value.
func (obj *ListValue) Lookup(index int) (value Value, exists bool) {
	if index >= 0 && index < len(obj.V) {
		return obj.V[index], true // found
	}
	return nil, false
}

// Contains searches for a value in the list. On success it returns the index.
func (obj *ListValue) Contains(v Value) (index int, exists bool) {
	for i, x := range obj.V {
		if v.Cmp(x) == nil {
			return i, true
		}
	}
	return -1, false
}

// MapValue represents a dictionary value. Keys are always strings.
type MapValue struct {
	base
	V map[string]Value
}

// NewMap creates a new empty map.
func NewMap() *MapValue {
	return &MapValue{
		V: make(map[string]Value),
	}
}

// String returns a visual representation of this value. Keys are sorted so
// that the output is deterministic.
func (obj *MapValue) String() string {
	keys := []string{}
	for k := range obj.V {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var s []string
	for _, k := range keys {
		s = append(s, fmt.Sprintf("%s: %s", strconv.Quote(k), obj.V[k].String()))
	}
	return fmt.Sprintf("{%s}", strings.Join(s, ", "))
}

// Kind returns the kind of this value.
func (obj *MapValue) Kind() Kind { return KindMap }

// Cmp returns an error if this value isn't the same as the arg passed in.
func (obj *MapValue) Cmp(val Value) error {
	if err := cmpKind(obj, val); err != nil {
		return err
	}
	cmp := val.Map()

	if len(obj.V) != len(cmp) {
		return fmt.Errorf("values have different lengths")
	}

	for k, v := range obj.V {
		x, exists := cmp[k]
		if !exists {
			return fmt.Errorf("key %s is missing", strconv.Quote(k))
		}
		if err := v.Cmp(x); err != nil {
			return errwrap.Wrapf(err, "key %s did not cmp", strconv.Quote(k))
		}
	}

	return nil
}

// Copy returns a copy of this value.
func (obj *MapValue) Copy() Value {
	m := make(map[string]Value)
	for k, v := range obj.V {
		m[k] = v.Copy()
	}
	return &MapValue{V: m}
}

// Value returns the raw value of this type.
func (obj *MapValue) Value() interface{} {
	val := make(map[string]interface{})
	for k, v := range obj.V {
		val[k] = v.Value() // recurse
	}
	return val
}

// Map represents the value of this type as a dictionary if it is one. If this
// is not a map, then this panics.
func (obj *MapValue) Map() map[string]Value {
	return obj.V
}

// Add sets a key in this map.
func (obj *MapValue) Add(k string, v Value) {
	obj.V[k] = v
}

// Lookup searches the map for a key. On success it also returns the Value.
func (obj *MapValue) Lookup(key string) (value Value, exists bool) {
	value, exists = obj.V[key]
	return
}
