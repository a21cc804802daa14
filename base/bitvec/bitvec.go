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

// Package bitvec provides a fixed-length vector of bits.
package bitvec

import "strings"

const wordSize = 64

// Vector is a fixed-length vector of bits.
// The zero value is an empty vector.
type Vector struct {
	words []uint64
	n     int
}

// New returns a vector of n bits, all cleared.
func New(n int) Vector {
	return Vector{
		words: make([]uint64, (n+wordSize-1)/wordSize),
		n:     n,
	}
}

// Len returns the number of bits in the vector.
func (v Vector) Len() int {
	return v.n
}

// Get returns the value of the bit i.
func (v Vector) Get(i int) bool {
	v.check(i)
	return v.words[i/wordSize]&(1<<(i%wordSize)) != 0
}

// Set the bit i to val.
func (v Vector) Set(i int, val bool) {
	v.check(i)
	mask := uint64(1) << (i % wordSize)
	if val {
		v.words[i/wordSize] |= mask
	} else {
		v.words[i/wordSize] &^= mask
	}
}

// Any returns true if at least one bit is set.
func (v Vector) Any() bool {
	for _, w := range v.words {
		if w != 0 {
			return true
		}
	}
	return false
}

// Indices returns the indices of all the bits set, in increasing order.
func (v Vector) Indices() []int {
	var idx []int
	for i := range v.n {
		if v.Get(i) {
			idx = append(idx, i)
		}
	}
	return idx
}

// String returns the bits as a string of 0 and 1, bit 0 first.
func (v Vector) String() string {
	var b strings.Builder
	b.Grow(v.n)
	for i := range v.n {
		if v.Get(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

func (v Vector) check(i int) {
	if i < 0 || i >= v.n {
		panic("bitvec: index out of range")
	}
}
