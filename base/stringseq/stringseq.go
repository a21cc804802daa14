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

// Package stringseq joins iterator sequences into strings.
package stringseq

import (
	"iter"
	"strings"
)

// AppendFunc appends the string representations of the elements of seq to b,
// separated by sep.
func AppendFunc[T any](b *strings.Builder, seq iter.Seq[T], sep string, str func(T) string) {
	first := true
	for item := range seq {
		if !first {
			b.WriteString(sep)
		}
		b.WriteString(str(item))
		first = false
	}
}

// JoinFunc joins the string representations of the elements of seq, separated by sep.
func JoinFunc[T any](seq iter.Seq[T], sep string, str func(T) string) string {
	var b strings.Builder
	AppendFunc(&b, seq, sep, str)
	return b.String()
}

// Join concatenates the strings of seq, separated by sep.
func Join(seq iter.Seq[string], sep string) string {
	return JoinFunc(seq, sep, func(s string) string { return s })
}
