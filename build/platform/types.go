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

// Package platform models the types of the target execution platform
// consumed when synthesizing dynamic call sites.
//
// The model is intentionally small: named types, generic type definitions
// and their instantiations, members (fields and methods), and the
// containers in which fields are declared. The services of the platform
// (well-known types, callable families) are accessed through the Services
// interface.
package platform

import (
	"fmt"
	"slices"

	"github.com/gx-org/dynsite/base/stringseq"
)

// Kind of a type.
type Kind uint

// Kinds of types known by the platform.
const (
	InvalidKind Kind = iota
	// VoidKind is the kind of the type of expressions returning nothing.
	VoidKind
	// ClassKind is a reference type.
	ClassKind
	// StructKind is a value type.
	StructKind
	// DelegateKind is a callable type.
	DelegateKind
	// TypeParamKind is a type parameter of a generic definition.
	TypeParamKind
)

func (k Kind) String() string {
	switch k {
	case VoidKind:
		return "void"
	case ClassKind:
		return "class"
	case StructKind:
		return "struct"
	case DelegateKind:
		return "delegate"
	case TypeParamKind:
		return "typeparam"
	}
	return "invalid"
}

// Type of the platform.
type Type interface {
	// Kind returns the kind of the type.
	Kind() Kind
	// Name returns the metadata name of the type.
	Name() string
	// String returns the fully qualified name of the type.
	String() string
}

// NamedType is a non-generic type defined by the platform or by the compiled unit.
type NamedType struct {
	Namespace string
	TypeName  string
	Knd       Kind
}

var _ Type = (*NamedType)(nil)

// NewNamedType returns a new named type.
func NewNamedType(namespace, name string, kind Kind) *NamedType {
	return &NamedType{Namespace: namespace, TypeName: name, Knd: kind}
}

// Kind of the type.
func (t *NamedType) Kind() Kind { return t.Knd }

// Name of the type.
func (t *NamedType) Name() string { return t.TypeName }

// String returns the qualified name of the type.
func (t *NamedType) String() string {
	return qualified(t.Namespace, t.TypeName)
}

type voidType struct{}

var voidT = &voidType{}

// VoidType returns the void type, that is the type of the result of
// functions returning nothing.
func VoidType() Type {
	return voidT
}

func (*voidType) Kind() Kind     { return VoidKind }
func (*voidType) Name() string   { return "void" }
func (*voidType) String() string { return "void" }

// IsVoid returns true if the type is nil or the void type.
func IsVoid(typ Type) bool {
	return typ == nil || typ.Kind() == VoidKind
}

// TypeParam is a type parameter of a generic type definition.
type TypeParam struct {
	Owner   *GenericType
	Ordinal int
	Label   string
}

var _ Type = (*TypeParam)(nil)

// Kind of a type parameter.
func (*TypeParam) Kind() Kind { return TypeParamKind }

// Name of the type parameter.
func (p *TypeParam) Name() string { return p.Label }

func (p *TypeParam) String() string { return p.Label }

// Equal returns true if two types are the same.
// Named types and type parameters are compared by identity.
// Instances are equal if they instantiate the same definition with equal arguments.
func Equal(x, y Type) bool {
	if x == y {
		return true
	}
	if x == nil || y == nil {
		return false
	}
	xInst, xOk := x.(*Instance)
	yInst, yOk := y.(*Instance)
	if !xOk || !yOk {
		return false
	}
	return xInst.Generic == yInst.Generic && equalTypes(xInst.Args, yInst.Args)
}

func equalTypes(xs, ys []Type) bool {
	if len(xs) != len(ys) {
		return false
	}
	for i, x := range xs {
		if !Equal(x, ys[i]) {
			return false
		}
	}
	return true
}

func qualified(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

func typeList(typs []Type) string {
	return stringseq.JoinFunc(slices.Values(typs), ", ", TypeString)
}

// TypeString returns a string representation of a type, including nil.
func TypeString(typ Type) string {
	if typ == nil {
		return "<nil>"
	}
	return fmt.Sprint(typ)
}
