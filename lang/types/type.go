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

// Package types provides the value representation shared by the planout
// engines. There is exactly one runtime value type: a Value, which is one of
// null, bool, number, string, list or map.
package types

// Kind represents the kind of a value. The set is closed.
type Kind int

// Each Kind represents a value kind in the planout data model.
const (
	KindNull Kind = iota
	KindBool
	KindFloat
	KindStr
	KindList
	KindMap
)

// String returns the display name of this kind. Numbers are called "number"
// since there is only one numeric kind and it is a float.
func (obj Kind) String() string {
	switch obj {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindFloat:
		return "number"
	case KindStr:
		return "str"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	}
	return "unknown"
}
