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

//go:build !root

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"testing"

	cliUtil "github.com/purpleidea/planout/cli/util"

	"github.com/kylelemons/godebug/pretty"
	"github.com/sanity-io/litter"
	"github.com/spf13/afero"
)

func testData(t *testing.T, args ...string) (*cliUtil.Data, *bytes.Buffer) {
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/exp.json": `{"op": "seq", "seq": [
			{"op": "set", "var": "a", "value": {"op": "uniformChoice", "choices": ["a", "b"], "unit": {"op": "get", "var": "userid"}}},
			{"op": "set", "var": "b", "value": {"op": "uniformChoice", "choices": ["aaa", "bbb"], "unit": 4}}
		]}`,
		"/input.json": `{"userid": 1}`,
	}
	for name, data := range files {
		if err := afero.WriteFile(fs, name, []byte(data), 0644); err != nil {
			t.Fatalf("error: %+v", err)
		}
	}
	stdout := &bytes.Buffer{}
	return &cliUtil.Data{
		Program: "planout",
		Version: "0.0.1-test",
		Tagline: "test",
		Args:    append([]string{"planout"}, args...),
		Fs:      fs,
		Stdout:  stdout,
		Logf:    t.Logf,
	}, stdout
}

func TestCLI0(t *testing.T) {
	type test struct { // an individual test
		name string
		args []string
		fail bool
		exp  map[string]interface{}
	}
	testCases := []test{}

	testCases = append(testCases, test{
		name: "execute",
		args: []string{"execute", "--name", "evalCode", "--input", "/input.json", "/exp.json"},
		exp: map[string]interface{}{
			"name":    "evalCode",
			"enabled": true,
			"assignments": map[string]interface{}{
				"a": "a",
				"b": "bbb",
			},
		},
	})
	testCases = append(testCases, test{
		name: "execute with debug",
		args: []string{"--debug", "execute", "--name", "evalCode", "--input", "/input.json", "/exp.json"},
		exp: map[string]interface{}{
			"name":    "evalCode",
			"enabled": true,
			"assignments": map[string]interface{}{
				"a": "a",
				"b": "bbb",
			},
		},
	})
	testCases = append(testCases, test{
		name: "inspect",
		args: []string{"inspect", "/exp.json"},
		exp: map[string]interface{}{
			"parameters": map[string]interface{}{
				"a": map[string]interface{}{
					"type":   "select",
					"limit":  1.0,
					"values": []interface{}{"a", "b"},
				},
				"b": map[string]interface{}{
					"type":   "select",
					"limit":  1.0,
					"values": []interface{}{"aaa", "bbb"},
				},
			},
		},
	})
	testCases = append(testCases, test{
		name: "execute needs a name",
		args: []string{"execute", "/exp.json"},
		fail: true,
	})
	testCases = append(testCases, test{
		name: "missing experiment file",
		args: []string{"execute", "--name", "x", "/nope.json"},
		fail: true,
	})
	testCases = append(testCases, test{
		name: "unknown output format",
		args: []string{"inspect", "--format", "xml", "/exp.json"},
		fail: true,
	})

	names := map[string]struct{}{}
	for index, tc := range testCases { // run all the tests
		if _, exists := names[tc.name]; exists {
			t.Errorf("test #%d: duplicate sub test name of: %s", index, tc.name)
			continue
		}
		names[tc.name] = struct{}{}

		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			data, stdout := testData(t, tc.args...)
			err := CLI(context.Background(), data)
			if !tc.fail && err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: cli failed with: %+v", index, err)
				return
			}
			if tc.fail && err == nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: cli passed, expected fail", index)
				return
			}
			if tc.fail {
				return
			}

			var out map[string]interface{}
			if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: output is not json: %+v", index, err)
				t.Logf("test #%d: output: %s", index, stdout.String())
				return
			}
			if !reflect.DeepEqual(out, tc.exp) {
				t.Errorf("test #%d: FAIL", index)
				t.Logf("test #%d:   actual: %s", index, litter.Sdump(out))
				t.Logf("test #%d: expected: %s", index, litter.Sdump(tc.exp))
				if diff := pretty.Compare(out, tc.exp); diff != "" { // bonus
					t.Logf("test #%d: diff:\n%s", index, diff)
				}
			}
		})
	}
}

func TestCLIYAML0(t *testing.T) {
	data, stdout := testData(t, "execute", "--format", "yaml", "--name", "evalCode", "--input", "/input.json", "/exp.json")
	if err := CLI(context.Background(), data); err != nil {
		t.Errorf("cli failed with: %+v", err)
		return
	}
	for _, line := range []string{"name: evalCode", "enabled: true", "  a: a", "  b: bbb"} {
		if !strings.Contains(stdout.String(), line+"\n") {
			t.Errorf("missing line `%s` in:\n%s", line, stdout.String())
		}
	}
}

func TestCLIHelp0(t *testing.T) {
	data, stdout := testData(t)
	if err := CLI(context.Background(), data); err != nil {
		t.Errorf("cli failed with: %+v", err)
		return
	}
	for _, cmd := range []string{"execute", "inspect", "serve"} {
		if !strings.Contains(stdout.String(), cmd) {
			t.Errorf("help does not mention `%s`:\n%s", cmd, stdout.String())
		}
	}

	data, stdout = testData(t, "--version")
	if err := CLI(context.Background(), data); err != nil {
		t.Errorf("cli failed with: %+v", err)
		return
	}
	if s := stdout.String(); s != "0.0.1-test\n" {
		t.Errorf("unexpected version output: %q", s)
	}
}

func TestCLISanity0(t *testing.T) {
	if err := CLI(context.Background(), nil); err == nil {
		t.Errorf("expected an error for nil data")
	}
	data, _ := testData(t, "inspect", "/exp.json")
	data.Fs = nil
	if err := CLI(context.Background(), data); err == nil {
		t.Errorf("expected an error without an fs")
	}
}
