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

package service

import (
	"fmt"

	"github.com/purpleidea/planout/lang"
	"github.com/purpleidea/planout/lang/gather"
	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"
	"github.com/purpleidea/planout/prometheus"
	"github.com/purpleidea/planout/util"
	"github.com/purpleidea/planout/util/errwrap"
)

// Experiment is a loaded experiment. It is never modified once built, so it
// can be shared between requests.
type Experiment struct {
	Name string

	// Code is the decoded tree.
	Code interfaces.Expr

	// Input is the default input layer.
	Input map[string]types.Value

	// Parameters is the gathered description of the tree.
	Parameters gather.Table
}

// Registry is an immutable set of experiments.
type Registry struct {
	experiments map[string]*Experiment
}

// NewRegistry loads every experiment in the configuration. The trees are read
// with the Lang, and are inspected once here. All problems are reported
// together, and in that case no registry is returned.
func NewRegistry(l *lang.Lang, config *Config, metrics *prometheus.Prometheus) (*Registry, error) {
	obj := &Registry{
		experiments: make(map[string]*Experiment),
	}

	var reterr error
	for _, x := range config.Experiments {
		exp, err := loadExperiment(l, x)
		if metrics != nil {
			metrics.UpdateInspectionsTotal(x.Name, err != nil)
		}
		if err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "experiment `%s`", x.Name))
			continue
		}
		if _, exists := obj.experiments[exp.Name]; exists {
			reterr = errwrap.Append(reterr, fmt.Errorf("experiment `%s` is duplicated", exp.Name))
			continue
		}
		obj.experiments[exp.Name] = exp
	}
	if reterr != nil {
		return nil, reterr
	}
	return obj, nil
}

func loadExperiment(l *lang.Lang, config *ExperimentConfig) (*Experiment, error) {
	code, err := l.Load(config.File)
	if err != nil {
		return nil, err
	}
	input, err := config.Values()
	if err != nil {
		return nil, err
	}
	metadata, err := l.Inspect(code, gather.FromValues(input))
	if err != nil {
		return nil, err
	}
	return &Experiment{
		Name:       config.Name,
		Code:       code,
		Input:      input,
		Parameters: metadata.Parameters,
	}, nil
}

// Names returns the sorted experiment names.
func (obj *Registry) Names() []string {
	return util.SortedMapKeys(obj.experiments)
}

// Lookup returns the experiment with that name.
func (obj *Registry) Lookup(name string) (*Experiment, bool) {
	exp, exists := obj.experiments[name]
	return exp, exists
}

// Len returns the number of experiments.
func (obj *Registry) Len() int { return len(obj.experiments) }
