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

// Package memplatform implements an in-memory target platform.
//
// It provides the platform services consumed when synthesizing dynamic call
// sites (cache cell types, fixed-arity callable families) as well as
// containers recording their fields and static initializers. The platform
// is configured by a profile, which can be loaded from a YAML file.
package memplatform

import (
	"sort"
	"strings"
	"sync"

	"github.com/gx-org/dynsite/base/ordered"
	"github.com/gx-org/dynsite/build/fmterr"
	"github.com/gx-org/dynsite/build/platform"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

// Platform is an in-memory platform.
type Platform struct {
	profile *Profile

	binder          *platform.NamedType
	callSite        *platform.NamedType
	callSiteGeneric *platform.GenericType
	callSiteMembers map[string]*platform.Member

	// mu guards the family caches: the platform is shared by all the units.
	mu      sync.Mutex
	actions map[int]*platform.GenericType
	funcs   map[int]*platform.GenericType
	types   map[string]platform.Type
}

var _ platform.Services = (*Platform)(nil)

// New returns a new platform given a profile.
func New(profile *Profile) (*Platform, error) {
	if err := profile.validate("profile"); err != nil {
		return nil, err
	}
	profile.setDefaults()
	p := &Platform{
		profile:         profile,
		actions:         make(map[int]*platform.GenericType),
		funcs:           make(map[int]*platform.GenericType),
		types:           make(map[string]platform.Type),
		callSiteMembers: make(map[string]*platform.Member),
	}
	p.types[platform.VoidType().String()] = platform.VoidType()
	for _, spec := range profile.Types {
		p.types[spec.fullName()] = platform.NewNamedType(spec.Namespace, spec.Name, spec.kind())
	}
	if cs := profile.CallSite; cs != nil {
		p.defineCallSite(cs)
	}
	return p, nil
}

// Default returns a platform using the default profile.
func Default() *Platform {
	p, err := New(DefaultProfile())
	if err != nil {
		fmterr.Fatal(err)
	}
	return p
}

func (p *Platform) defineCallSite(cs *CallSiteSpec) {
	p.binder = platform.NewNamedType(cs.Namespace, cs.Binder, platform.ClassKind)
	p.callSite = platform.NewNamedType(cs.Namespace, cs.Base, platform.ClassKind)
	p.callSiteGeneric = platform.NewGenericType(cs.Namespace, cs.Generic, platform.ClassKind, 1, "T")
	p.types[p.binder.String()] = p.binder
	p.types[p.callSite.String()] = p.callSite

	self, err := p.callSiteGeneric.Construct(p.callSiteGeneric.TypeParams()...)
	if err != nil {
		fmterr.Fatal(err)
	}
	for _, name := range cs.Members {
		var m *platform.Member
		switch name {
		case platform.TargetMember:
			m = &platform.Member{
				Name:  name,
				MKind: platform.FieldMember,
				Type:  p.callSiteGeneric.Params[0],
			}
		case platform.CreateMember:
			m = &platform.Member{
				Name:   name,
				MKind:  platform.MethodMember,
				Static: true,
				Type:   self,
				Params: []platform.Parameter{{Name: "binder", Type: p.binder}},
			}
		}
		p.callSiteMembers[name] = p.callSiteGeneric.AddMember(m)
	}
}

// Profile returns the profile of the platform.
func (p *Platform) Profile() *Profile {
	return p.profile
}

// CallSite returns the non-generic cache cell type.
func (p *Platform) CallSite() (platform.Type, error) {
	if p.callSite == nil {
		return nil, platform.Missing("type CallSite in runtime %s", p.profile.Runtime)
	}
	return p.callSite, nil
}

// CallSiteGeneric returns the generic cache cell type.
func (p *Platform) CallSiteGeneric() (*platform.GenericType, error) {
	if p.callSiteGeneric == nil {
		return nil, platform.Missing("type CallSite<T> in runtime %s", p.profile.Runtime)
	}
	return p.callSiteGeneric, nil
}

// CallSiteMember returns a member of the generic cache cell type.
func (p *Platform) CallSiteMember(name string) (*platform.Member, error) {
	m, ok := p.callSiteMembers[name]
	if !ok {
		return nil, platform.Missing("member CallSite<T>.%s in runtime %s", name, p.profile.Runtime)
	}
	return m, nil
}

// Binder returns the type of the binders passed to CallSite<T>.Create.
func (p *Platform) Binder() (platform.Type, error) {
	if p.binder == nil {
		return nil, platform.Missing("type CallSiteBinder in runtime %s", p.profile.Runtime)
	}
	return p.binder, nil
}

func (p *Platform) family(cache map[int]*platform.GenericType, spec FamilySpec, params int, returnsValue bool) *platform.GenericType {
	if params < 0 || params > spec.MaxParams {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if g, ok := cache[params]; ok {
		return g
	}
	g := platform.NewCallableType(spec.Namespace, spec.Name, params, nil, returnsValue)
	cache[params] = g
	return g
}

// ActionFamily returns the callable type returning no value with a given number of parameters.
func (p *Platform) ActionFamily(params int) *platform.GenericType {
	return p.family(p.actions, p.profile.Action, params, false)
}

// FuncFamily returns the callable type returning a value with a given number of parameters.
func (p *Platform) FuncFamily(params int) *platform.GenericType {
	return p.family(p.funcs, p.profile.Func, params, true)
}

// LookupType returns a named type given its qualified name.
// Names without namespace are looked up in all namespaces; the lookup fails
// if the name is ambiguous.
func (p *Platform) LookupType(name string) (platform.Type, error) {
	if typ, ok := p.types[name]; ok {
		return typ, nil
	}
	var found []platform.Type
	for _, full := range p.TypeNames() {
		if strings.HasSuffix(full, "."+name) {
			found = append(found, p.types[full])
		}
	}
	switch len(found) {
	case 0:
		return nil, platform.Missing("type %s in runtime %s", name, p.profile.Runtime)
	case 1:
		return found[0], nil
	}
	return nil, errors.Errorf("type name %s is ambiguous: %d types match", name, len(found))
}

// TypeNames returns the sorted qualified names of all the named types of the platform.
func (p *Platform) TypeNames() []string {
	names := maps.Keys(p.types)
	sort.Strings(names)
	return names
}

// Class is a compiled type in which fields can be declared.
type Class struct {
	*platform.NamedType

	fields *ordered.Map[string, *platform.Field]
	init   *Stream
}

var _ platform.Container = (*Class)(nil)

// NewClass returns a new class to use as a container.
func NewClass(namespace, name string) *Class {
	return &Class{
		NamedType: platform.NewNamedType(namespace, name, platform.ClassKind),
		fields:    ordered.NewMap[string, *platform.Field](),
		init:      &Stream{},
	}
}

// DeclareField declares a new field in the class.
func (c *Class) DeclareField(name string, typ platform.Type, access platform.Access, static bool) (*platform.Field, error) {
	if _, ok := c.fields.Load(name); ok {
		return nil, errors.Errorf("field %s already declared in %s", name, c)
	}
	f := platform.NewField(c, name, typ, access, static)
	c.fields.Store(name, f)
	return f, nil
}

// Field returns a field given its name.
func (c *Class) Field(name string) (*platform.Field, bool) {
	return c.fields.Load(name)
}

// Fields returns the fields of the class in declaration order.
func (c *Class) Fields() []*platform.Field {
	var fs []*platform.Field
	for f := range c.fields.Values() {
		fs = append(fs, f)
	}
	return fs
}

// StaticInit returns the static initializer of the class.
func (c *Class) StaticInit() platform.InitStream {
	return c.init
}

// Stream records the instructions emitted in a static initializer.
type Stream struct {
	instrs []platform.Instr
}

var _ platform.InitStream = (*Stream)(nil)

// Emit appends an instruction to the stream.
func (s *Stream) Emit(ins platform.Instr) {
	s.instrs = append(s.instrs, ins)
}

// Len returns the number of instructions in the stream.
func (s *Stream) Len() int {
	return len(s.instrs)
}

// Instrs returns the instructions emitted so far.
func (s *Stream) Instrs() []platform.Instr {
	return s.instrs
}
