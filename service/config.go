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

	"github.com/purpleidea/planout/lang/types"
	"github.com/purpleidea/planout/util"
	"github.com/purpleidea/planout/util/errwrap"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// DefaultListen is the address the service listens on if nothing else is set.
const DefaultListen = "127.0.0.1:8124"

// Config is the service configuration file.
type Config struct {
	// Listen is the address to serve http on.
	Listen string `yaml:"listen"`

	// Experiments is the list of experiments to serve.
	Experiments []*ExperimentConfig `yaml:"experiments"`
}

// ExperimentConfig is one experiment in the configuration.
type ExperimentConfig struct {
	// Name is the unique name, and the hash namespace, of the experiment.
	Name string `yaml:"name"`

	// File is the compiled tree. It is relative to the config file.
	File string `yaml:"file"`

	// Input is an optional default input layer. Request inputs win.
	Input map[string]interface{} `yaml:"input"`
}

// ParseConfig decodes a configuration. It does not validate it.
func ParseConfig(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.UnmarshalStrict(data, config); err != nil {
		return nil, errwrap.Wrapf(err, "invalid config")
	}
	return config, nil
}

// LoadConfig reads, parses and validates a configuration file. File paths in
// it are resolved against the directory of the configuration file.
func LoadConfig(fs afero.Fs, filename string) (*Config, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, errwrap.Wrapf(err, "can't read config")
	}
	config, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	for _, x := range config.Experiments {
		if x == nil {
			continue
		}
		x.File = util.RelPath(filename, x.File)
	}
	if err := config.Validate(fs); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks the configuration. Every problem found is reported together.
// If fs is nil the experiment files aren't checked.
func (obj *Config) Validate(fs afero.Fs) error {
	var reterr error
	names := make(map[string]struct{})
	for i, x := range obj.Experiments {
		if x == nil {
			reterr = errwrap.Append(reterr, fmt.Errorf("experiment #%d is empty", i))
			continue
		}
		if x.Name == "" {
			reterr = errwrap.Append(reterr, fmt.Errorf("experiment #%d has no name", i))
		} else if _, exists := names[x.Name]; exists {
			reterr = errwrap.Append(reterr, fmt.Errorf("experiment `%s` is duplicated", x.Name))
		}
		names[x.Name] = struct{}{}

		if x.File == "" {
			reterr = errwrap.Append(reterr, fmt.Errorf("experiment #%d has no file", i))
		} else if fs != nil {
			if _, err := fs.Stat(x.File); err != nil {
				reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "experiment #%d file is missing", i))
			}
		}

		if _, err := x.Values(); err != nil {
			reterr = errwrap.Append(reterr, errwrap.Wrapf(err, "experiment #%d input is invalid", i))
		}
	}
	return reterr
}

// Values returns the default input layer as values.
func (obj *ExperimentConfig) Values() (map[string]types.Value, error) {
	m := make(map[string]types.Value)
	for k, v := range obj.Input {
		value, err := types.ValueOfGolang(v)
		if err != nil {
			return nil, errwrap.Wrapf(err, "bad input `%s`", k)
		}
		m[k] = value
	}
	return m, nil
}

// Files returns every file the configuration refers to.
func (obj *Config) Files() []string {
	files := []string{}
	for _, x := range obj.Experiments {
		if x == nil || x.File == "" {
			continue
		}
		files = append(files, x.File)
	}
	return util.StrRemoveDuplicatesInList(files)
}
