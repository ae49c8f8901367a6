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

// Package interfaces contains the error classes shared by the planout engines.
package interfaces

import (
	"github.com/purpleidea/planout/util"
)

const (
	// ErrUnsupportedOperation is returned when a tree contains an op tag
	// that we don't know about. This usually means the tree was produced by
	// an incompatible compiler version.
	ErrUnsupportedOperation = util.Error("unsupported operation")

	// ErrTypeMismatch is returned when an operand evaluates to the wrong
	// kind of value, eg: a string where a number is required. It is also
	// used when a field of a tree document has the wrong shape.
	ErrTypeMismatch = util.Error("type mismatch")

	// ErrInvalidArgument is returned for values of the right kind that are
	// out of domain, eg: a probability outside of [0, 1], an empty list of
	// choices, or weights that don't line up with their choices.
	ErrInvalidArgument = util.Error("invalid argument")
)
