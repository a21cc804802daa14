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

package platform

import (
	"fmt"

	"github.com/gx-org/dynsite/build/fmterr"
)

// Access is the visibility of a declaration.
type Access uint

// Visibility of declarations.
const (
	Private Access = iota
	Internal
	Public
)

func (a Access) String() string {
	switch a {
	case Private:
		return "private"
	case Internal:
		return "internal"
	case Public:
		return "public"
	}
	return fmt.Sprintf("Access(%d)", uint(a))
}

type (
	// Field declared in a container.
	// A field is declared with a provisional type, which can be replaced
	// once by its final type.
	Field struct {
		Name      string
		Container Container
		Access    Access
		Static    bool

		typ   Type
		final bool
	}

	// OpCode is the operation performed by an instruction.
	OpCode uint

	// Instr is an instruction appended to an initialization stream.
	Instr struct {
		Op OpCode
		// Operand of the instruction: a type, a member, or a field.
		Operand any
	}

	// InitStream is the code stream of the static initializer of a container.
	// Instructions appended to the stream run once, before any other code
	// of the container.
	InitStream interface {
		Emit(Instr)
		Len() int
	}

	// Container is a compiled type in which fields can be declared.
	Container interface {
		Type
		// DeclareField declares a new field in the container.
		DeclareField(name string, typ Type, access Access, static bool) (*Field, error)
		// StaticInit returns the static initializer code stream of the container.
		StaticInit() InitStream
	}
)

// Instruction codes emitted in initialization streams.
const (
	// OpLoadToken pushes a type onto the stack.
	OpLoadToken OpCode = iota
	// OpNew creates a new object of a type.
	OpNew
	// OpCall calls a static method.
	OpCall
	// OpStoreStatic stores the value on the stack in a static field.
	OpStoreStatic
)

func (op OpCode) String() string {
	switch op {
	case OpLoadToken:
		return "ldtoken"
	case OpNew:
		return "newobj"
	case OpCall:
		return "call"
	case OpStoreStatic:
		return "stsfld"
	}
	return fmt.Sprintf("OpCode(%d)", uint(op))
}

func (ins Instr) String() string {
	return fmt.Sprintf("%s %v", ins.Op, ins.Operand)
}

// NewField returns a new field. Used by implementations of Container.
func NewField(container Container, name string, typ Type, access Access, static bool) *Field {
	return &Field{
		Name:      name,
		Container: container,
		Access:    access,
		Static:    static,
		typ:       typ,
	}
}

// Type returns the current type of the field.
func (f *Field) Type() Type {
	return f.typ
}

// SetType replaces the provisional type of the field by its final type.
// The type of a field cannot be changed once final.
func (f *Field) SetType(typ Type) error {
	if f.final {
		return fmterr.Internalf("cannot change the type of field %s from %s to %s: type already final", f, f.typ, TypeString(typ))
	}
	if typ == nil {
		return fmterr.Internalf("cannot set the type of field %s to nil", f)
	}
	f.typ = typ
	f.final = true
	return nil
}

// Final returns true if the field has its final type.
func (f *Field) Final() bool {
	return f.final
}

func (f *Field) String() string {
	if f.Container == nil {
		return f.Name
	}
	return f.Container.String() + "::" + f.Name
}
