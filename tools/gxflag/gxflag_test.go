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

package gxflag_test

import (
	"flag"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/dynsite/tools/gxflag"
)

func TestStringList(t *testing.T) {
	tests := []struct {
		args []string
		want gxflag.StringList
	}{
		{
			args: nil,
			want: gxflag.StringList{},
		},
		{
			args: []string{"-sites=a.yaml"},
			want: gxflag.StringList{"a.yaml"},
		},
		{
			args: []string{"-sites=a.yaml, b.yaml,", "-sites", "c.yaml"},
			want: gxflag.StringList{"a.yaml", "b.yaml", "c.yaml"},
		},
	}
	for i, test := range tests {
		fs := flag.NewFlagSet("test", flag.ContinueOnError)
		sites := gxflag.NewStringList(fs, "sites", "site files")
		if err := fs.Parse(test.args); err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if diff := cmp.Diff(test.want, *sites); diff != "" {
			t.Errorf("test %d: unexpected list (-want +got):\n%s", i, diff)
		}
	}
}
