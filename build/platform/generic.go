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
	"sync"

	"github.com/gx-org/dynsite/base/ordered"
	"github.com/gx-org/dynsite/build/fmterr"
	"github.com/pkg/errors"
)

type (
	// GenericType is the definition of a generic type.
	// Instances of the definition are built with Construct.
	GenericType struct {
		Namespace string
		TypeName  string
		Knd       Kind
		Params    []*TypeParam

		// Synthesized is true if the definition has been created by the
		// compiler instead of being provided by the platform.
		Synthesized bool

		members *ordered.Map[string, *Member]

		// mu guards instances: definitions provided by the platform are
		// constructed by all the units compiled in parallel.
		mu        sync.Mutex
		instances map[string][]*Instance
	}

	// Instance is a generic type definition instantiated with type arguments.
	Instance struct {
		Generic *GenericType
		Args    []Type

		mu      sync.Mutex
		members map[string]*Member
	}
)

var (
	_ Type = (*GenericType)(nil)
	_ Type = (*Instance)(nil)
)

// NewGenericType returns a new generic definition with a given number of type parameters.
// Type parameters are labeled with the given labels or, if no labels are given, T1..Tn.
func NewGenericType(namespace, name string, kind Kind, arity int, labels ...string) *GenericType {
	g := &GenericType{
		Namespace: namespace,
		TypeName:  name,
		Knd:       kind,
		Params:    make([]*TypeParam, arity),
		members:   ordered.NewMap[string, *Member](),
		instances: make(map[string][]*Instance),
	}
	for i := range arity {
		label := fmt.Sprintf("T%d", i+1)
		if i < len(labels) {
			label = labels[i]
		}
		g.Params[i] = &TypeParam{Owner: g, Ordinal: i, Label: label}
	}
	return g
}

// Kind of the generic type.
func (g *GenericType) Kind() Kind { return g.Knd }

// Arity returns the number of type parameters.
func (g *GenericType) Arity() int { return len(g.Params) }

// Name returns the metadata name of the definition, including its arity.
func (g *GenericType) Name() string {
	if len(g.Params) == 0 {
		return g.TypeName
	}
	return fmt.Sprintf("%s`%d", g.TypeName, len(g.Params))
}

func (g *GenericType) String() string {
	return qualified(g.Namespace, g.Name())
}

// TypeParams returns the type parameters as a slice of types.
func (g *GenericType) TypeParams() []Type {
	typs := make([]Type, len(g.Params))
	for i, p := range g.Params {
		typs[i] = p
	}
	return typs
}

// AddMember declares a new member in the definition.
func (g *GenericType) AddMember(m *Member) *Member {
	m.Container = g
	g.members.Store(m.Name, m)
	return m
}

// Member returns a member of the definition given its name.
func (g *GenericType) Member(name string) (*Member, bool) {
	return g.members.Load(name)
}

// Members returns the members of the definition in declaration order.
func (g *GenericType) Members() []*Member {
	var ms []*Member
	for m := range g.members.Values() {
		ms = append(ms, m)
	}
	return ms
}

func checkTypeArg(g *GenericType, i int, arg Type) error {
	if arg == nil {
		return errors.Errorf("type argument %d of %s is nil", i, g)
	}
	switch arg.Kind() {
	case VoidKind, InvalidKind:
		return errors.Errorf("cannot use %s as type argument %d of %s", arg, i, g)
	}
	return nil
}

// Construct instantiates the definition with concrete type arguments.
// Constructing the same definition with equal arguments always returns
// the same instance.
func (g *GenericType) Construct(args ...Type) (*Instance, error) {
	if len(args) != len(g.Params) {
		return nil, fmterr.Internalf("cannot construct %s with %d type arguments: want %d", g, len(args), len(g.Params))
	}
	for i, arg := range args {
		if err := checkTypeArg(g, i, arg); err != nil {
			return nil, err
		}
	}
	key := typeList(args)
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, inst := range g.instances[key] {
		if equalTypes(inst.Args, args) {
			return inst, nil
		}
	}
	inst := &Instance{
		Generic: g,
		Args:    append([]Type{}, args...),
		members: make(map[string]*Member),
	}
	g.instances[key] = append(g.instances[key], inst)
	return inst, nil
}

// NumInstances returns the number of distinct instances constructed so far.
func (g *GenericType) NumInstances() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for _, insts := range g.instances {
		n += len(insts)
	}
	return n
}

// Kind of the instance, the kind of its definition.
func (inst *Instance) Kind() Kind { return inst.Generic.Kind() }

// Name of the instance.
func (inst *Instance) Name() string { return inst.Generic.Name() }

func (inst *Instance) String() string {
	var b strings.Builder
	b.WriteString(qualified(inst.Generic.Namespace, inst.Generic.TypeName))
	b.WriteString("<")
	b.WriteString(typeList(inst.Args))
	b.WriteString(">")
	return b.String()
}

// Member returns the member of the definition as a member of the instance,
// with all the type parameters replaced by the type arguments.
func (inst *Instance) Member(name string) (*Member, error) {
	inst.mu.Lock()
	m, ok := inst.members[name]
	inst.mu.Unlock()
	if ok {
		return m, nil
	}
	def, ok := inst.Generic.Member(name)
	if !ok {
		return nil, Missing("member %s of %s", name, inst.Generic)
	}
	sub, err := def.AsMember(inst)
	if err != nil {
		return nil, err
	}
	inst.mu.Lock()
	defer inst.mu.Unlock()
	if m, ok := inst.members[name]; ok {
		return m, nil
	}
	inst.members[name] = sub
	return sub, nil
}

// Substitute replaces the type parameters of the definition of an instance
// by the instance type arguments.
func (inst *Instance) Substitute(typ Type) (Type, error) {
	switch typT := typ.(type) {
	case *TypeParam:
		if typT.Owner != inst.Generic {
			return typ, nil
		}
		return inst.Args[typT.Ordinal], nil
	case *Instance:
		args := make([]Type, len(typT.Args))
		changed := false
		for i, arg := range typT.Args {
			var err error
			if args[i], err = inst.Substitute(arg); err != nil {
				return nil, err
			}
			changed = changed || args[i] != arg
		}
		if !changed {
			return typ, nil
		}
		return typT.Generic.Construct(args...)
	}
	return typ, nil
}
