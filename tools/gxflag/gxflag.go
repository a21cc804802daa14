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

// Package gxflag provides flag types for the dynsite tools.
package gxflag

import (
	"flag"
	"strings"
)

// StringList is a flag collecting a list of strings.
// The flag can be repeated and each value can be a comma-separated list.
type StringList []string

var _ flag.Value = (*StringList)(nil)

func (sl *StringList) String() string {
	if sl == nil {
		return ""
	}
	return strings.Join(*sl, ",")
}

// Set appends the comma-separated values to the list. Empty values are ignored.
func (sl *StringList) Set(values string) error {
	for _, value := range strings.Split(values, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		*sl = append(*sl, value)
	}
	return nil
}

// NewStringList defines a string list flag in a flag set.
// If fs is nil, the flag is defined in the default command line flag set.
func NewStringList(fs *flag.FlagSet, name, doc string) *StringList {
	if fs == nil {
		fs = flag.CommandLine
	}
	sl := &StringList{}
	fs.Var(sl, name, doc)
	return sl
}
