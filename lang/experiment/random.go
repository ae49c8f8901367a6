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

package experiment

import (
	"crypto/sha1"
	"encoding/hex"
	"math"
	"strconv"
	"strings"

	"github.com/purpleidea/planout/lang/interfaces"
	"github.com/purpleidea/planout/lang/types"
	jsonUtil "github.com/purpleidea/planout/lang/types/json"
	"github.com/purpleidea/planout/util/errwrap"
)

const (
	// HashDigits is the number of leading hex digits of the digest used.
	HashDigits = 13

	// MaxHash is the largest possible hash, (2^52)-1.
	MaxHash = 0xFFFFFFFFFFFFF
)

// Flatten builds the string that gets hashed for a name and salt. Lists are
// flattened recursively and every element is joined with a dot. Scalars are
// printed the way the original host environment stringified them, which is
// what keeps bucketing compatible across implementations.
func Flatten(name string, salt types.Value) string {
	parts := []string{name}
	parts = flatten(parts, salt)
	return strings.Join(parts, ".")
}

func flatten(parts []string, v types.Value) []string {
	if v == nil {
		return append(parts, "")
	}
	switch v.Kind() {
	case types.KindList:
		for _, x := range v.List() {
			parts = flatten(parts, x) // recurse
		}
		return parts
	case types.KindNull:
		return append(parts, "")
	case types.KindBool:
		return append(parts, strconv.FormatBool(v.Bool()))
	case types.KindFloat:
		return append(parts, FormatNumber(v.Float()))
	case types.KindStr:
		return append(parts, v.Str())
	}
	// maps print as canonical json
	b, err := jsonUtil.JSONOfValue(v)
	if err != nil { // only non-finite numbers can't be encoded
		return append(parts, v.String())
	}
	return append(parts, string(b))
}

// FormatNumber prints a number in the shortest form that round trips. Whole
// numbers have no fractional part, and very large or very small magnitudes use
// exponent notation, such as 1e+21 or 1.5e-7.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == 0: // includes negative zero
		return "0"
	}

	if abs := math.Abs(f); abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(f, 'e', -1, 64) // eg: 1.5e-07
		i := strings.IndexByte(s, 'e')
		mantissa, sign, exp := s[:i], s[i+1:i+2], strings.TrimLeft(s[i+2:], "0")
		return mantissa + "e" + sign + exp
	}

	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Hash returns a number between zero and MaxHash derived from the experiment
// name and the salt. It is always zero once the run is disabled.
func (obj *Experiment) Hash(salt types.Value) uint64 {
	if obj.disabled {
		return 0
	}
	sum := sha1.Sum([]byte(Flatten(obj.Name, salt)))
	s := hex.EncodeToString(sum[:])[:HashDigits]
	h, err := strconv.ParseUint(s, 16, 64)
	if err != nil { // hex digits always parse
		panic(err)
	}
	return h
}

// ZeroToOne returns a number between zero and one, inclusive.
func (obj *Experiment) ZeroToOne(salt types.Value) float64 {
	return float64(obj.Hash(salt)) / float64(MaxHash)
}

// RandomInteger returns a whole number between lo and hi, inclusive.
func (obj *Experiment) RandomInteger(lo, hi float64, salt types.Value) (float64, error) {
	if hi < lo {
		return 0, errwrap.Wrapf(interfaces.ErrInvalidArgument, "max %s is less than min %s", FormatNumber(hi), FormatNumber(lo))
	}
	return lo + math.Mod(float64(obj.Hash(salt)), hi-lo+1), nil
}

// RandomFloat returns a number between lo and hi, inclusive.
func (obj *Experiment) RandomFloat(lo, hi float64, salt types.Value) float64 {
	return lo + obj.ZeroToOne(salt)*(hi-lo)
}

// UniformChoice picks one of the choices, each with the same probability.
func (obj *Experiment) UniformChoice(choices []types.Value, salt types.Value) (types.Value, error) {
	if len(choices) == 0 {
		return nil, errwrap.Wrapf(interfaces.ErrInvalidArgument, "choices must not be empty")
	}
	i, err := obj.RandomInteger(0, float64(len(choices)-1), salt)
	if err != nil {
		return nil, err
	}
	return choices[int(i)], nil
}

// WeightedChoice picks one of the choices with a probability proportional to
// its weight. If no cumulative weight reaches the target, which can only happen
// with negative weights, the result is null.
func (obj *Experiment) WeightedChoice(choices []types.Value, weights []float64, salt types.Value) (types.Value, error) {
	if len(choices) == 0 {
		return nil, errwrap.Wrapf(interfaces.ErrInvalidArgument, "choices must not be empty")
	}
	if len(weights) != len(choices) {
		return nil, errwrap.Wrapf(interfaces.ErrInvalidArgument, "got %d weights for %d choices", len(weights), len(choices))
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	target := obj.RandomFloat(0, total, salt)
	cumulative := 0.0
	for i, w := range weights {
		cumulative += w
		if cumulative >= target {
			return choices[i], nil
		}
	}
	return &types.NullValue{}, nil
}

// Sample draws up to numDraws choices without replacement, using a partial
// Fisher-Yates shuffle. Each swap extends the salt with its position. Asking
// for at least as many draws as there are choices shuffles all of them, and a
// negative count draws nothing.
func (obj *Experiment) Sample(choices []types.Value, numDraws float64, salt types.Value) ([]types.Value, error) {
	if numDraws != math.Trunc(numDraws) || math.IsInf(numDraws, 0) {
		return nil, errwrap.Wrapf(interfaces.ErrInvalidArgument, "draws must be a whole number, got %s", FormatNumber(numDraws))
	}
	array := make([]types.Value, len(choices))
	copy(array, choices)
	length := len(array)
	if numDraws < 0 {
		return []types.Value{}, nil
	}

	stop := 0
	if float64(length) > numDraws {
		stop = length - int(numDraws)
	}
	for i := length - 1; i > stop; i-- {
		s := types.ListOf(salt, &types.FloatValue{V: float64(i)})
		j, err := obj.RandomInteger(0, float64(i-1), s)
		if err != nil {
			return nil, err
		}
		array[i], array[int(j)] = array[int(j)], array[i]
	}
	return array[stop:length], nil
}

// BernoulliFilter keeps each choice independently with probability p. Each
// element extends the salt with its position.
func (obj *Experiment) BernoulliFilter(choices []types.Value, p float64, salt types.Value) ([]types.Value, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return nil, errwrap.Wrapf(interfaces.ErrInvalidArgument, "invalid probability %s", FormatNumber(p))
	}
	if len(choices) == 0 {
		return nil, errwrap.Wrapf(interfaces.ErrInvalidArgument, "choices must not be empty")
	}
	result := []types.Value{}
	for i, x := range choices {
		s := types.ListOf(salt, &types.FloatValue{V: float64(i)})
		if obj.ZeroToOne(s) < p {
			result = append(result, x)
		}
	}
	return result, nil
}

// BernoulliTrial returns one with probability p, and zero otherwise.
func (obj *Experiment) BernoulliTrial(p float64, salt types.Value) (float64, error) {
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, errwrap.Wrapf(interfaces.ErrInvalidArgument, "invalid probability %s", FormatNumber(p))
	}
	if obj.ZeroToOne(salt) < p {
		return 1, nil
	}
	return 0, nil
}
