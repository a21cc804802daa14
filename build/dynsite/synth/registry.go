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

package synth

import (
	"sort"
	"sync"

	"github.com/gx-org/dynsite/base/ordered"
	dsync "github.com/gx-org/dynsite/base/sync"
	"github.com/gx-org/dynsite/build/dynsite/shape"
	"github.com/gx-org/dynsite/build/platform"
	"golang.org/x/exp/maps"
)

// Registry stores the callable type definitions synthesized for one compiled unit.
// There is at most one definition per shape key.
type Registry struct {
	unit string

	mu   sync.Mutex
	defs *ordered.Map[shape.Key, *platform.GenericType]
}

// NewRegistry returns an empty registry for a compiled unit.
func NewRegistry(unit string) *Registry {
	return &Registry{
		unit: unit,
		defs: ordered.NewMap[shape.Key, *platform.GenericType](),
	}
}

// Unit returns the name of the compiled unit owning the registry.
func (r *Registry) Unit() string {
	return r.unit
}

// Lookup returns the definition registered for a key, if any.
func (r *Registry) Lookup(key shape.Key) (*platform.GenericType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defs.Load(key)
}

// LoadOrCreate returns the definition registered for a key.
// If no definition has been registered, a new one is synthesized and registered.
// The boolean is true if the definition was already registered.
func (r *Registry) LoadOrCreate(key shape.Key) (*platform.GenericType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	def, loaded, _ := r.defs.LoadOrStore(key, func() (*platform.GenericType, error) {
		return synthesize(key), nil
	})
	return def, loaded
}

// Len returns the number of synthesized definitions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.defs.Size()
}

// Definitions returns the synthesized definitions in creation order.
func (r *Registry) Definitions() []*platform.GenericType {
	r.mu.Lock()
	defer r.mu.Unlock()
	var defs []*platform.GenericType
	for def := range r.defs.Values() {
		defs = append(defs, def)
	}
	return defs
}

// Instances returns the number of distinct instances of the synthesized definitions.
func (r *Registry) Instances() int {
	n := 0
	for _, def := range r.Definitions() {
		n += def.NumInstances()
	}
	return n
}

// Names returns the sorted metadata names of the synthesized definitions.
func (r *Registry) Names() []string {
	byName := make(map[string]*platform.GenericType)
	for _, def := range r.Definitions() {
		byName[def.Name()] = def
	}
	names := maps.Keys(byName)
	sort.Strings(names)
	return names
}

// Registries maps compiled units to their registry.
// Units compiled in parallel each get their own registry: nothing is shared
// between units. The zero value is ready to use.
type Registries struct {
	units dsync.Map[string, *Registry]
}

// ForUnit returns the registry of a compiled unit, creating it if necessary.
func (rs *Registries) ForUnit(unit string) *Registry {
	if r, ok := rs.units.Load(unit); ok {
		return r
	}
	r, _ := rs.units.LoadOrStore(unit, NewRegistry(unit))
	return r
}

// Release forgets the registry of a compiled unit once the unit has been emitted.
func (rs *Registries) Release(unit string) {
	rs.units.Delete(unit)
}

// Units returns the sorted names of the units with a registry.
func (rs *Registries) Units() []string {
	var units []string
	for unit := range rs.units.All() {
		units = append(units, unit)
	}
	sort.Strings(units)
	return units
}
