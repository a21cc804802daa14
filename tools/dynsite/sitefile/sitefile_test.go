// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sitefile_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/dynsite/build/platform"
	"github.com/gx-org/dynsite/build/platform/memplatform"
	"github.com/gx-org/dynsite/tools/dynsite/sitefile"
	"go.uber.org/multierr"
)

const demo = `
unit: demo
container: App.Script
sites:
  - hint: call
    receiver: Object
    args: [String, Int64]
    arg_by_ref: [false, true]
    result: Object
    bootstrap: true
  - hint: set
    receiver: Object
    right: String
`

func TestParse(t *testing.T) {
	f, err := sitefile.Parse([]byte(demo), "demo.yaml")
	if err != nil {
		t.Fatal(err)
	}
	want := &sitefile.File{
		Unit:      "demo",
		Container: "App.Script",
		Sites: []sitefile.Site{
			{
				Hint:      "call",
				Receiver:  "Object",
				Args:      []string{"String", "Int64"},
				ArgByRef:  []bool{false, true},
				Result:    "Object",
				Bootstrap: true,
			},
			{
				Hint:     "set",
				Receiver: "Object",
				Right:    "String",
			},
		},
	}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("unexpected file (-want +got):\n%s", diff)
	}
	ns, name := f.ContainerName()
	if ns != "App" || name != "Script" {
		t.Errorf("got container %q %q but want \"App\" \"Script\"", ns, name)
	}
}

func TestParseDefaults(t *testing.T) {
	f, err := sitefile.Parse([]byte("sites: []"), "empty.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if f.Unit != "empty.yaml" || f.Container != "Script" {
		t.Errorf("unexpected defaults: unit=%q container=%q", f.Unit, f.Container)
	}
	if ns, name := f.ContainerName(); ns != "" || name != "Script" {
		t.Errorf("got container %q %q", ns, name)
	}
}

func TestParseErrors(t *testing.T) {
	src := `
sites:
  - args: [Object]
    arg_by_ref: [true, false]
  - receiver_by_ref: true
`
	_, err := sitefile.Parse([]byte(src), "bad.yaml")
	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("got %d errors but want 2: %v", got, err)
	}
	if _, err := sitefile.Parse([]byte("sites: {"), "bad.yaml"); err == nil {
		t.Errorf("expected a syntax error")
	}
}

func TestOperands(t *testing.T) {
	plat := memplatform.Default()
	f, err := sitefile.Parse([]byte(demo), "demo.yaml")
	if err != nil {
		t.Fatal(err)
	}
	ops, err := f.Sites[0].Operands(plat.LookupType)
	if err != nil {
		t.Fatal(err)
	}
	lookup := func(name string) platform.Type {
		typ, err := plat.LookupType(name)
		if err != nil {
			t.Fatal(err)
		}
		return typ
	}
	if ops.Receiver != lookup("Object") || ops.Result != lookup("Object") || ops.Right != nil {
		t.Errorf("unexpected operands %+v", ops)
	}
	if len(ops.Args) != 2 || ops.Args[0] != lookup("String") || ops.Args[1] != lookup("Int64") {
		t.Errorf("unexpected arguments %v", ops.Args)
	}

	bad := sitefile.Site{Receiver: "Decimal", Args: []string{"Float"}, Result: "void"}
	_, err = bad.Operands(plat.LookupType)
	if got := len(multierr.Errors(err)); got != 2 {
		t.Errorf("got %d errors but want 2: %v", got, err)
	}
	if !platform.IsMissing(err) {
		t.Errorf("got %v but want a missing dependency error", err)
	}
}
