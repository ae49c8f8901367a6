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

package cli

import (
	"context"

	cliUtil "github.com/purpleidea/planout/cli/util"
	"github.com/purpleidea/planout/lang"
	"github.com/purpleidea/planout/lang/env"
)

// ExecuteArgs is the CLI parsing structure and type of the parsed result. This
// particular one contains all the flags for the `execute` subcommand.
type ExecuteArgs struct {
	cliUtil.CodeArgs // embedded config (can't be a pointer)

	Name string `arg:"--name,required" help:"name of the experiment, which is the hash namespace"`
}

// ExecuteResult is what the `execute` subcommand outputs.
type ExecuteResult struct {
	Name        string                 `json:"name" yaml:"name"`
	Enabled     bool                   `json:"enabled" yaml:"enabled"`
	Assignments map[string]interface{} `json:"assignments" yaml:"assignments"`
}

// Run executes the correct subcommand. It errors if there's ever an error. It
// returns true if we did activate one of the subcommands. It returns false if
// we did not. This information is used so that the top-level parser can return
// usage or help information if no subcommand activates. This particular Run is
// the run for the main `execute` subcommand. It runs the experiment once and
// prints the assignments.
func (obj *ExecuteArgs) Run(ctx context.Context, data *cliUtil.Data) (bool, error) {
	l := newLang(data)
	code, err := l.Load(obj.Code)
	if err != nil {
		return false, err
	}

	var input env.Parent // stays a nil interface without an input
	if obj.Input != "" {
		m, err := l.LoadInput(obj.Input)
		if err != nil {
			return false, err
		}
		input = env.FromMap(m)
	}

	exp, err := l.Execute(obj.Name, code, input)
	if err != nil {
		return false, err
	}

	result := &ExecuteResult{
		Name:        obj.Name,
		Enabled:     exp.Enabled(),
		Assignments: make(map[string]interface{}),
	}
	for k, v := range exp.Env.Values() {
		result.Assignments[k] = v.Value()
	}
	return true, cliUtil.Output(data.Stdout, obj.Format, result)
}

func newLang(data *cliUtil.Data) *lang.Lang {
	return &lang.Lang{
		Fs:    data.Fs,
		Debug: data.Flags.Debug,
		Logf: func(format string, v ...interface{}) {
			data.Logf("lang: "+format, v...)
		},
	}
}
