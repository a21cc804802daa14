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

// Package uname provides unique names.
package uname

import "fmt"

// Sequence generates unique names from a root.
// All roots share the same counter so that two names generated by the same
// sequence never collide, even when the roots are equal or when a root
// ends with digits.
type Sequence struct {
	prefix, sep string
	next        int
}

// NewSequence returns a name generator. Names have the form
// prefix + root + sep + counter.
func NewSequence(prefix, sep string) *Sequence {
	return &Sequence{prefix: prefix, sep: sep}
}

// Name returns a unique name given a root.
func (s *Sequence) Name(root string) string {
	name := fmt.Sprintf("%s%s%s%d", s.prefix, root, s.sep, s.next)
	s.next++
	return name
}

// Count returns the number of names generated so far.
func (s *Sequence) Count() int {
	return s.next
}
