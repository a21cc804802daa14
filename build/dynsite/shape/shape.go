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

// Package shape derives the shape of the callable invoked through the cache
// cell of a dynamic call site.
//
// The parameters of a shape always follow the same order:
//
//	[cache cell, receiver?, arguments..., right-hand value?]
//
// so that two operations with the same arity, the same parameters passed by
// reference, and the same void-ness produce structurally identical shapes,
// whatever the operation.
package shape

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gx-org/dynsite/base/bitvec"
	"github.com/gx-org/dynsite/base/stringseq"
	"github.com/gx-org/dynsite/build/fmterr"
	"github.com/gx-org/dynsite/build/platform"
)

// PassMode specifies how a parameter is passed to a callable.
type PassMode uint

const (
	// ByValue passes a copy of the value.
	ByValue PassMode = iota
	// ByRef passes a reference to the storage of the caller.
	ByRef
)

func (m PassMode) String() string {
	if m == ByRef {
		return "ref"
	}
	return "val"
}

type (
	// Param is a parameter of a callable shape.
	Param struct {
		Type platform.Type
		Mode PassMode
	}

	// Shape is the signature of the callable invoked through a cache cell.
	// Shapes are never modified once derived.
	Shape struct {
		Params []Param
		// Result is the type of the result, nil if the callable returns nothing.
		Result platform.Type
	}

	// Operands of a dynamic operation, already lowered to platform types.
	Operands struct {
		// Receiver of the operation, nil for operations without receiver.
		Receiver platform.Type
		// ReceiverByRef is true if the receiver is passed by reference.
		// Ignored if there is no receiver.
		ReceiverByRef bool
		// Args are the types of the arguments.
		Args []platform.Type
		// ArgByRef reports, for each argument, if it is passed by reference.
		// It is either empty or of the same length as Args.
		ArgByRef []bool
		// Right is the type of the right-hand side of an assignment, nil if none.
		Right platform.Type
		// Result is the type of the result of the operation.
		// nil or the void type for operations returning nothing.
		Result platform.Type
	}

	// Key identifies the callable types which can be shared between shapes:
	// shapes with the same number of parameters, the same parameters passed
	// by reference, and the same void-ness. Concrete types are not part of the key.
	Key struct {
		Params int
		// ByRefs is the pattern of parameters passed by reference, as a string of 0 and 1.
		ByRefs string
		Void   bool
	}
)

func mode(byRef bool) PassMode {
	if byRef {
		return ByRef
	}
	return ByValue
}

// Derive computes the shape of the callable of a call site given the type
// of its cache cell and the operands of the operation.
// Derive panics if the pass modes of the arguments do not match the arguments.
func Derive(cellType platform.Type, ops Operands) *Shape {
	if len(ops.ArgByRef) != 0 && len(ops.ArgByRef) != len(ops.Args) {
		fmterr.Fatalf("%d argument pass modes for %d arguments", len(ops.ArgByRef), len(ops.Args))
	}
	s := &Shape{
		Params: make([]Param, 0, 3+len(ops.Args)),
	}
	s.Params = append(s.Params, Param{Type: cellType})
	if ops.Receiver != nil {
		s.Params = append(s.Params, Param{Type: ops.Receiver, Mode: mode(ops.ReceiverByRef)})
	}
	for i, arg := range ops.Args {
		s.Params = append(s.Params, Param{
			Type: arg,
			Mode: mode(len(ops.ArgByRef) > 0 && ops.ArgByRef[i]),
		})
	}
	if ops.Right != nil {
		s.Params = append(s.Params, Param{Type: ops.Right})
	}
	if !platform.IsVoid(ops.Result) {
		s.Result = ops.Result
	}
	return s
}

// IsVoid returns true if the callable returns nothing.
func (s *Shape) IsVoid() bool {
	return s.Result == nil
}

// HasByRef returns true if at least one parameter is passed by reference.
func (s *Shape) HasByRef() bool {
	for _, p := range s.Params {
		if p.Mode == ByRef {
			return true
		}
	}
	return false
}

// ByRefs returns a vector with one bit per parameter, set if the parameter is passed by reference.
func (s *Shape) ByRefs() bitvec.Vector {
	v := bitvec.New(len(s.Params))
	for i, p := range s.Params {
		v.Set(i, p.Mode == ByRef)
	}
	return v
}

// Key returns the key of the callable types compatible with the shape.
func (s *Shape) Key() Key {
	return Key{
		Params: len(s.Params),
		ByRefs: s.ByRefs().String(),
		Void:   s.IsVoid(),
	}
}

// Signature returns the types of the parameters followed, if any, by the
// type of the result. These are the type arguments of the callable type.
func (s *Shape) Signature() []platform.Type {
	sig := make([]platform.Type, 0, len(s.Params)+1)
	for _, p := range s.Params {
		sig = append(sig, p.Type)
	}
	if !s.IsVoid() {
		sig = append(sig, s.Result)
	}
	return sig
}

// Equal returns true if two shapes have the same parameters, pass modes, and result.
func (s *Shape) Equal(other *Shape) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return false
	}
	if len(s.Params) != len(other.Params) {
		return false
	}
	for i, p := range s.Params {
		o := other.Params[i]
		if p.Mode != o.Mode || !platform.Equal(p.Type, o.Type) {
			return false
		}
	}
	if s.IsVoid() != other.IsVoid() {
		return false
	}
	return s.IsVoid() || platform.Equal(s.Result, other.Result)
}

func (p Param) String() string {
	if p.Mode == ByRef {
		return "ref " + platform.TypeString(p.Type)
	}
	return platform.TypeString(p.Type)
}

func (s *Shape) String() string {
	var b strings.Builder
	b.WriteString("(")
	stringseq.AppendFunc(&b, slices.Values(s.Params), ", ", Param.String)
	b.WriteString(")")
	if !s.IsVoid() {
		fmt.Fprintf(&b, " %s", s.Result)
	}
	return b.String()
}

func (k Key) String() string {
	kind := "F"
	if k.Void {
		kind = "A"
	}
	return fmt.Sprintf("%s{%s}/%d", kind, k.ByRefs, k.Params)
}
