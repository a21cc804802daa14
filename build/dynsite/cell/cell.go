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

// Package cell allocates the cache cells of dynamic call sites.
//
// A cache cell is a private static field of the container of the call site.
// Its type is set in two phases: the field is declared with the non-generic
// cache cell type as soon as the call site is started, then its type is
// fixed to the generic cache cell type instantiated with the callable type
// of the site once that type is known.
package cell

import (
	"github.com/gx-org/dynsite/base/uname"
	"github.com/gx-org/dynsite/build/fmterr"
	"github.com/gx-org/dynsite/build/platform"
	"github.com/pkg/errors"
)

// Factory allocates cache cells in a container.
type Factory struct {
	services  platform.Services
	container platform.Container
	names     *uname.Sequence
}

// NewFactory returns a factory allocating cells in a container.
func NewFactory(services platform.Services, container platform.Container) *Factory {
	return &Factory{
		services:  services,
		container: container,
		names:     uname.NewSequence("<>", "'"),
	}
}

// Container returns the container in which cells are declared.
func (f *Factory) Container() platform.Container {
	return f.container
}

// StaticInit returns the code stream in which cells are initialized.
// Code emitted in the stream runs once, before any read of the cells.
func (f *Factory) StaticInit() platform.InitStream {
	return f.container.StaticInit()
}

// Allocated returns the number of cells allocated by the factory.
func (f *Factory) Allocated() int {
	return f.names.Count()
}

// Allocate declares a new cell in the container.
// The name of the cell is derived from the hint and is unique in the container.
func (f *Factory) Allocate(hint string) (*Cell, error) {
	base, err := f.services.CallSite()
	if err != nil {
		return nil, err
	}
	target, err := f.services.CallSiteMember(platform.TargetMember)
	if err != nil {
		return nil, err
	}
	field, err := f.container.DeclareField(f.names.Name(hint), base, platform.Private, true)
	if err != nil {
		return nil, errors.WithMessagef(err, "cannot allocate cache cell %q", hint)
	}
	return &Cell{
		factory:     f,
		field:       field,
		provisional: base,
		target:      target,
	}, nil
}

// Bind fixes the type of a cell given the callable type invoked through the cell.
func (f *Factory) Bind(c *Cell, callable *platform.Instance) error {
	if c.factory != f {
		fmterr.Fatalf("cell %s has not been allocated by this factory", c.field)
	}
	return c.Bind(callable)
}

// Cell is the cache cell of a call site.
type Cell struct {
	factory     *Factory
	field       *platform.Field
	provisional platform.Type

	bound    bool
	typ      *platform.Instance
	callable *platform.Instance
	target   *platform.Member
	create   *platform.Member
}

// Field returns the field storing the cell.
func (c *Cell) Field() *platform.Field {
	return c.field
}

// Name returns the name of the field storing the cell.
func (c *Cell) Name() string {
	return c.field.Name
}

// DeclaredType returns the current type of the field storing the cell:
// the non-generic cache cell type until the cell is bound,
// the generic cache cell type instantiated with the callable type after.
func (c *Cell) DeclaredType() platform.Type {
	return c.field.Type()
}

// Provisional returns the type of the field before the cell is bound.
func (c *Cell) Provisional() platform.Type {
	return c.provisional
}

// Bound returns true if the type of the cell has been fixed.
func (c *Cell) Bound() bool {
	return c.bound
}

func (c *Cell) checkBound() error {
	if !c.bound {
		return fmterr.Internalf("type of cache cell %s read before the cell has been bound", c.field)
	}
	return nil
}

// Type returns the generic cache cell type instantiated with the callable type.
// Returns an error if the cell has not been bound.
func (c *Cell) Type() (*platform.Instance, error) {
	if err := c.checkBound(); err != nil {
		return nil, err
	}
	return c.typ, nil
}

// Callable returns the callable type invoked through the cell.
// Returns an error if the cell has not been bound.
func (c *Cell) Callable() (*platform.Instance, error) {
	if err := c.checkBound(); err != nil {
		return nil, err
	}
	return c.callable, nil
}

// Target returns the field of the cell holding the callable.
// Before the cell is bound, the member of the generic cache cell definition
// is returned. Once bound, the member of the instantiated cache cell type.
func (c *Cell) Target() *platform.Member {
	return c.target
}

// Create returns the static method creating the cell given a binder.
// Returns an error if the cell has not been bound.
func (c *Cell) Create() (*platform.Member, error) {
	if err := c.checkBound(); err != nil {
		return nil, err
	}
	return c.create, nil
}

// Bind fixes the type of the cell given the callable type invoked through the cell.
// Binding a cell twice is a fatal error.
func (c *Cell) Bind(callable *platform.Instance) error {
	if c.bound {
		fmterr.Fatalf("cache cell %s already bound to %s", c.field, c.typ)
	}
	generic, err := c.factory.services.CallSiteGeneric()
	if err != nil {
		return err
	}
	typ, err := generic.Construct(callable)
	if err != nil {
		return errors.WithMessagef(err, "cannot bind cache cell %s", c.field)
	}
	target, err := typ.Member(platform.TargetMember)
	if err != nil {
		return err
	}
	create, err := typ.Member(platform.CreateMember)
	if err != nil {
		return err
	}
	if err := c.field.SetType(typ); err != nil {
		return err
	}
	c.typ = typ
	c.callable = callable
	c.target = target
	c.create = create
	c.bound = true
	return nil
}
