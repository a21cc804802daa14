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

// Package synth resolves the callable type of a shape, either by
// instantiating a fixed-arity callable family provided by the platform, or
// by synthesizing a new callable type definition.
//
// Synthesized definitions are memoized in a registry: all the shapes with
// the same key share the same generic definition, instantiated with the
// concrete types of each shape.
package synth

import (
	"fmt"

	"github.com/gx-org/dynsite/build/dynsite/shape"
	"github.com/gx-org/dynsite/build/platform"
	"github.com/pkg/errors"
)

// Stats counts how shapes have been resolved.
type Stats struct {
	// FastPath is the number of shapes resolved with a platform family.
	FastPath int
	// Synthesized is the number of definitions synthesized.
	Synthesized int
	// Reused is the number of shapes resolved with a definition already synthesized.
	Reused int
}

// Synthesizer resolves the callable types of shapes.
type Synthesizer struct {
	services platform.Services
	reg      *Registry
	stats    Stats
}

// New returns a synthesizer registering its definitions in reg.
func New(services platform.Services, reg *Registry) *Synthesizer {
	return &Synthesizer{services: services, reg: reg}
}

// Registry returns the registry of synthesized definitions.
func (s *Synthesizer) Registry() *Registry {
	return s.reg
}

// Stats returns the resolution counters.
func (s *Synthesizer) Stats() Stats {
	return s.stats
}

func (s *Synthesizer) family(sh *shape.Shape) *platform.GenericType {
	if sh.IsVoid() {
		return s.services.ActionFamily(len(sh.Params))
	}
	return s.services.FuncFamily(len(sh.Params))
}

// Resolve returns the callable type of a shape.
//
// Shapes without parameters passed by reference are resolved with the
// platform family of the same arity when it exists. Other shapes are
// resolved with a synthesized definition.
func (s *Synthesizer) Resolve(sh *shape.Shape) (*platform.Instance, error) {
	sig := sh.Signature()
	if !sh.HasByRef() {
		if fam := s.family(sh); fam != nil {
			inst, err := fam.Construct(sig...)
			if err != nil {
				return nil, errors.Wrapf(err, "cannot instantiate %s for shape %s", fam, sh)
			}
			s.stats.FastPath++
			return inst, nil
		}
	}
	def, loaded := s.reg.LoadOrCreate(sh.Key())
	if loaded {
		s.stats.Reused++
	} else {
		s.stats.Synthesized++
	}
	inst, err := def.Construct(sig...)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot instantiate %s for shape %s", def, sh)
	}
	return inst, nil
}

func synthesizedName(key shape.Key) string {
	kind := "F"
	if key.Void {
		kind = "A"
	}
	return fmt.Sprintf("<>%s{%s}", kind, key.ByRefs)
}

// synthesize a callable type definition for a key.
func synthesize(key shape.Key) *platform.GenericType {
	byRef := func(i int) bool {
		return i < len(key.ByRefs) && key.ByRefs[i] == '1'
	}
	def := platform.NewCallableType("", synthesizedName(key), key.Params, byRef, !key.Void)
	def.Synthesized = true
	return def
}
