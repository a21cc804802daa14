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

// Package dynsite synthesizes the dynamic call sites of a compiled unit.
//
// Each dynamic operation (method call, property access, operator, indexing)
// gets its own call site: a cache cell declared in the container of the
// operation, the callable type invoked through the cell, and the insertion
// point of the code initializing the cell. A call site is built in two steps:
//
//	bld, err := factory.BeginCallSite("call")   // the cell can be referenced
//	site, err := bld.Resolve(shape)             // the cell type is fixed
//
// The binder resolving the operation at run time is provided by the platform.
package dynsite

import (
	"github.com/gx-org/dynsite/build/dynsite/cell"
	"github.com/gx-org/dynsite/build/dynsite/shape"
	"github.com/gx-org/dynsite/build/dynsite/synth"
	"github.com/gx-org/dynsite/build/fmterr"
	"github.com/gx-org/dynsite/build/platform"
	"github.com/pkg/errors"
)

// Factory builds the dynamic call sites of a container.
type Factory struct {
	services platform.Services
	cells    *cell.Factory
	synth    *synth.Synthesizer
	sites    []*Site
}

// New returns a factory building call sites in a container.
// The synthesized callable types are registered in reg, which is usually
// shared by all the containers of a compiled unit.
func New(services platform.Services, container platform.Container, reg *synth.Registry) (*Factory, error) {
	if services == nil || container == nil || reg == nil {
		return nil, fmterr.Internalf("cannot create a call site factory with services=%v container=%v registry=%v", services, container, reg)
	}
	return &Factory{
		services: services,
		cells:    cell.NewFactory(services, container),
		synth:    synth.New(services, reg),
	}, nil
}

// Registry returns the registry of synthesized callable types.
func (f *Factory) Registry() *synth.Registry {
	return f.synth.Registry()
}

// Stats returns how the shapes of the call sites have been resolved.
func (f *Factory) Stats() synth.Stats {
	return f.synth.Stats()
}

// Container returns the container of the call sites.
func (f *Factory) Container() platform.Container {
	return f.cells.Container()
}

// StaticInit returns the static initializer of the container, in which the
// cells are initialized.
func (f *Factory) StaticInit() platform.InitStream {
	return f.cells.StaticInit()
}

// Cells returns the number of cells allocated, including the cells of call
// sites which failed to resolve.
func (f *Factory) Cells() int {
	return f.cells.Allocated()
}

// Sites returns the call sites resolved so far, in resolution order.
func (f *Factory) Sites() []*Site {
	return f.sites
}

// Derive returns the shape of a call site given its operands.
func (f *Factory) Derive(ops shape.Operands) (*shape.Shape, error) {
	cellType, err := f.services.CallSite()
	if err != nil {
		return nil, err
	}
	return shape.Derive(cellType, ops), nil
}

// CallableType returns the callable type of a call site given its operands,
// without allocating a cell.
func (f *Factory) CallableType(ops shape.Operands) (*platform.Instance, error) {
	s, err := f.Derive(ops)
	if err != nil {
		return nil, err
	}
	return f.synth.Resolve(s)
}

// BeginCallSite starts a new call site. The cell of the call site is
// allocated immediately so that it can be referenced before the shape of
// the site is known.
func (f *Factory) BeginCallSite(hint string) (*Builder, error) {
	c, err := f.cells.Allocate(hint)
	if err != nil {
		return nil, err
	}
	return &Builder{factory: f, cell: c}, nil
}

// IsUnsupported returns true if a call site could not be built because the
// platform lacks a type or a member required by dynamic call sites.
// Such an error should be reported to the user as an unsupported operation.
func IsUnsupported(err error) bool {
	return platform.IsMissing(err) && !fmterr.IsInternal(err)
}

// Builder builds a call site whose cell has been allocated but whose
// shape is not yet known.
type Builder struct {
	factory  *Factory
	cell     *cell.Cell
	resolved bool
}

// Cell returns the cell of the call site.
func (b *Builder) Cell() *cell.Cell {
	return b.cell
}

// Place returns the field storing the cell, to be used as an operand.
func (b *Builder) Place() *platform.Field {
	return b.cell.Field()
}

// Resolved returns true if the builder has been resolved.
func (b *Builder) Resolved() bool {
	return b.resolved
}

// ResolveOperands derives the shape of the call site from its operands and resolves it.
func (b *Builder) ResolveOperands(ops shape.Operands) (*Site, error) {
	s, err := b.factory.Derive(ops)
	if err != nil {
		return nil, err
	}
	return b.Resolve(s)
}

// Resolve fixes the shape of the call site and returns the call site.
// A builder can only be resolved once: resolving it again is a fatal error.
// If resolution fails, the cell stays declared in the container with its
// provisional type: the field may already be referenced by emitted code.
func (b *Builder) Resolve(s *shape.Shape) (*Site, error) {
	if b.resolved {
		fmterr.Fatalf("call site %s resolved twice", b.cell.Name())
	}
	b.resolved = true
	prefix := fmterr.PrefixWith("call site %s: ", b.cell.Name())
	callable, err := b.factory.synth.Resolve(s)
	if err != nil {
		return nil, prefix(err)
	}
	if err := b.cell.Bind(callable); err != nil {
		return nil, prefix(err)
	}
	create, err := b.cell.Create()
	if err != nil {
		return nil, prefix(err)
	}
	site := &Site{
		Index:    len(b.factory.sites),
		Shape:    s,
		Cell:     b.cell,
		Callable: callable,
		Target:   b.cell.Target(),
		Create:   create,
		Init:     b.factory.StaticInit(),
	}
	b.factory.sites = append(b.factory.sites, site)
	return site, nil
}

// Site is a resolved dynamic call site.
type Site struct {
	// Index of the site in its container.
	Index int
	// Shape of the callable invoked through the cell.
	Shape *shape.Shape
	// Cell storing the binding of the site.
	Cell *cell.Cell
	// Callable is the type of the callable invoked through the cell.
	Callable *platform.Instance
	// Target is the field of the cell holding the callable to invoke.
	Target *platform.Member
	// Create is the static method creating the cell given a binder.
	Create *platform.Member
	// Init is the stream in which the cell is initialized.
	Init platform.InitStream

	bootstrapped bool
}

// Place returns the field storing the cell, to be used as an operand.
func (s *Site) Place() *platform.Field {
	return s.Cell.Field()
}

// Invoke returns the method to call on the target to perform the operation.
func (s *Site) Invoke() (*platform.Member, error) {
	return platform.Invoke(s.Callable)
}

// EmitBootstrap emits in the static initializer the creation of the cell
// given a binder:
//
//	cell = CallSite<T>.Create(new binder())
//
// The cell is bootstrapped at most once: subsequent calls return an error.
func (s *Site) EmitBootstrap(binder platform.Type) error {
	if s.bootstrapped {
		return errors.Errorf("call site %s already bootstrapped", s.Cell.Name())
	}
	if binder == nil {
		return fmterr.Internalf("no binder to bootstrap call site %s", s.Cell.Name())
	}
	s.Init.Emit(platform.Instr{Op: platform.OpNew, Operand: binder})
	s.Init.Emit(platform.Instr{Op: platform.OpCall, Operand: s.Create})
	s.Init.Emit(platform.Instr{Op: platform.OpStoreStatic, Operand: s.Place()})
	s.bootstrapped = true
	return nil
}
