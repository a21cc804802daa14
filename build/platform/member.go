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
	"strings"

	"github.com/gx-org/dynsite/build/fmterr"
)

// MemberKind is the kind of a member.
type MemberKind uint

const (
	// FieldMember is a field.
	FieldMember MemberKind = iota
	// MethodMember is a method.
	MethodMember
)

type (
	// Parameter of a method.
	Parameter struct {
		Name  string
		Type  Type
		ByRef bool
	}

	// Member of a type: a field or a method.
	Member struct {
		Name      string
		MKind     MemberKind
		Container Type
		Static    bool

		// Type is the type of a field or the return type of a method.
		Type Type
		// Params are the parameters of a method.
		Params []Parameter
	}
)

// AsMember returns the member as a member of an instance of its generic container.
// All the type parameters of the container are substituted by the instance type arguments.
func (m *Member) AsMember(inst *Instance) (*Member, error) {
	if m.Container != inst.Generic {
		return nil, fmterr.Internalf("%s is not a member of %s", m, inst.Generic)
	}
	sub := &Member{
		Name:      m.Name,
		MKind:     m.MKind,
		Container: inst,
		Static:    m.Static,
	}
	var err error
	if sub.Type, err = inst.Substitute(m.Type); err != nil {
		return nil, err
	}
	if len(m.Params) > 0 {
		sub.Params = make([]Parameter, len(m.Params))
	}
	for i, p := range m.Params {
		sub.Params[i] = p
		if sub.Params[i].Type, err = inst.Substitute(p.Type); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// IsVoid returns true if the member is a method returning nothing.
func (m *Member) IsVoid() bool {
	return m.MKind == MethodMember && IsVoid(m.Type)
}

func (m *Member) String() string {
	var b strings.Builder
	if m.Container != nil {
		b.WriteString(m.Container.String())
		b.WriteString(".")
	}
	b.WriteString(m.Name)
	if m.MKind == FieldMember {
		return b.String()
	}
	b.WriteString("(")
	for i, p := range m.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		if p.ByRef {
			b.WriteString("ref ")
		}
		b.WriteString(TypeString(p.Type))
	}
	b.WriteString(")")
	if !IsVoid(m.Type) {
		fmt.Fprintf(&b, " %s", m.Type)
	}
	return b.String()
}
