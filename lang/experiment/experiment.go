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

// Package experiment holds the state of a single experiment run, and the
// deterministic randomization primitives which are derived from it. Every
// random draw is a pure function of the experiment name, the salt, and whether
// the run is still enabled.
package experiment

import (
	"fmt"

	"github.com/purpleidea/planout/lang/env"
	"github.com/purpleidea/planout/lang/types"
)

// Experiment is the state of one run. It is created per evaluation and isn't
// safe for concurrent use, but independent runs share nothing.
type Experiment struct {
	// Name is the hash namespace of this experiment.
	Name string

	// Env is the variable store of this run. Assignments go to its local
	// layer, and inputs are usually provided as its parent.
	Env *env.Env

	disabled bool // enabled can only go from true to false
	returned bool // latched once set
}

// New builds a fresh, enabled run. The input layer may be nil.
func New(name string, input env.Parent) *Experiment {
	return &Experiment{
		Name: name,
		Env:  env.New(input),
	}
}

// Enabled returns false once the run has been disabled.
func (obj *Experiment) Enabled() bool { return !obj.disabled }

// Disable marks the run as disabled. From now on every hash is zero.
func (obj *Experiment) Disable() { obj.disabled = true }

// Returned returns true once the run has hit a return.
func (obj *Experiment) Returned() bool { return obj.returned }

// Return latches the returned flag.
func (obj *Experiment) Return() { obj.returned = true }

// Get returns the value of a variable, or the default if it is not visible.
func (obj *Experiment) Get(name string, def types.Value) types.Value {
	return obj.Env.Get(name, def)
}

// Set assigns a variable.
func (obj *Experiment) Set(name string, value types.Value) {
	obj.Env.Set(name, value)
}

// Del clears a variable, masking any input with the same name.
func (obj *Experiment) Del(name string) {
	obj.Env.Del(name)
}

// String returns a short representation of the run.
func (obj *Experiment) String() string {
	return fmt.Sprintf("experiment(%s, enabled=%t, %s)", obj.Name, obj.Enabled(), obj.Env)
}
