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

package memplatform

import (
	"fmt"
	"os"

	"github.com/gx-org/dynsite/build/platform"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// maxFamilyParams bounds the number of parameters of a callable family.
const maxFamilyParams = 64

type (
	// Profile describes the runtime library of the target platform.
	Profile struct {
		// Runtime is the name of the runtime library (e.g. "netstandard").
		Runtime string `yaml:"runtime"`

		// CallSite describes the cache cell types.
		// A nil CallSite models a runtime without support for dynamic call sites.
		CallSite *CallSiteSpec `yaml:"call_site,omitempty"`

		// Action is the family of callable types returning no value.
		Action FamilySpec `yaml:"action"`

		// Func is the family of callable types returning a value.
		Func FamilySpec `yaml:"func"`

		// Types lists the named types of the runtime library.
		Types []TypeSpec `yaml:"types,omitempty"`
	}

	// CallSiteSpec describes the cache cell types of the runtime.
	CallSiteSpec struct {
		// Namespace of the cache cell types.
		Namespace string `yaml:"namespace"`
		// Base is the name of the non-generic cache cell type.
		Base string `yaml:"base"`
		// Generic is the name of the generic cache cell type, parameterized
		// by the callable type. Defaults to Base.
		Generic string `yaml:"generic,omitempty"`
		// Binder is the name of the binder type passed to the Create method.
		Binder string `yaml:"binder"`
		// Members lists the members of the generic cache cell type available
		// in the runtime. Defaults to Target and Create.
		Members []string `yaml:"members,omitempty"`
	}

	// FamilySpec describes a family of fixed-arity callable types.
	FamilySpec struct {
		Namespace string `yaml:"namespace"`
		Name      string `yaml:"name"`
		// MaxParams is the maximum number of parameters (excluding the result)
		// of a callable type of the family.
		MaxParams int `yaml:"max_params"`
	}

	// TypeSpec describes a named type of the runtime.
	TypeSpec struct {
		Namespace string `yaml:"namespace,omitempty"`
		Name      string `yaml:"name"`
		// Kind is either "class" or "struct". Defaults to "class".
		Kind string `yaml:"kind,omitempty"`
	}
)

// DefaultProfile returns a profile modeled after the .NET runtime library.
func DefaultProfile() *Profile {
	p := &Profile{
		Runtime: "netstandard",
		CallSite: &CallSiteSpec{
			Namespace: "System.Runtime.CompilerServices",
			Base:      "CallSite",
			Binder:    "CallSiteBinder",
		},
		Action: FamilySpec{Namespace: "System", Name: "Action", MaxParams: 16},
		Func:   FamilySpec{Namespace: "System", Name: "Func", MaxParams: 16},
		Types: []TypeSpec{
			{Namespace: "System", Name: "Object"},
			{Namespace: "System", Name: "String"},
			{Namespace: "System", Name: "Boolean", Kind: "struct"},
			{Namespace: "System", Name: "Int32", Kind: "struct"},
			{Namespace: "System", Name: "Int64", Kind: "struct"},
			{Namespace: "System", Name: "Double", Kind: "struct"},
		},
	}
	p.setDefaults()
	return p
}

// LoadProfile reads and parses a profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading profile %s", path)
	}
	return ParseProfile(data, path)
}

// ParseProfile parses a YAML profile.
// The path argument is used only for error messages.
func ParseProfile(data []byte, path string) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if err := p.validate(path); err != nil {
		return nil, err
	}
	p.setDefaults()
	return &p, nil
}

func validateFamily(path, field string, f FamilySpec) (err error) {
	if f.Name == "" {
		err = multierr.Append(err, errors.Errorf("%s: %s.name is required", path, field))
	}
	if f.MaxParams < 0 || f.MaxParams > maxFamilyParams {
		err = multierr.Append(err, errors.Errorf("%s: %s.max_params=%d out of range [0, %d]", path, field, f.MaxParams, maxFamilyParams))
	}
	return err
}

func (p *Profile) validate(path string) (err error) {
	if p.CallSite != nil {
		if p.CallSite.Base == "" {
			err = multierr.Append(err, errors.Errorf("%s: call_site.base is required", path))
		}
		if p.CallSite.Binder == "" {
			err = multierr.Append(err, errors.Errorf("%s: call_site.binder is required", path))
		}
		for _, m := range p.CallSite.Members {
			if m != platform.TargetMember && m != platform.CreateMember {
				err = multierr.Append(err, errors.Errorf("%s: unknown call_site member %q", path, m))
			}
		}
	}
	err = multierr.Append(err, validateFamily(path, "action", p.Action))
	err = multierr.Append(err, validateFamily(path, "func", p.Func))
	seen := make(map[string]bool)
	for i, typ := range p.Types {
		if typ.Name == "" {
			err = multierr.Append(err, errors.Errorf("%s: types[%d].name is required", path, i))
			continue
		}
		switch typ.Kind {
		case "", "class", "struct":
		default:
			err = multierr.Append(err, errors.Errorf("%s: types[%d]: unknown kind %q", path, i, typ.Kind))
		}
		full := typ.fullName()
		if seen[full] {
			err = multierr.Append(err, errors.Errorf("%s: type %s declared twice", path, full))
		}
		seen[full] = true
	}
	return err
}

func (p *Profile) setDefaults() {
	if p.Runtime == "" {
		p.Runtime = "runtime"
	}
	if cs := p.CallSite; cs != nil {
		if cs.Generic == "" {
			cs.Generic = cs.Base
		}
		if cs.Members == nil {
			cs.Members = []string{platform.TargetMember, platform.CreateMember}
		}
	}
	for i := range p.Types {
		if p.Types[i].Kind == "" {
			p.Types[i].Kind = "class"
		}
	}
}

func (t TypeSpec) fullName() string {
	if t.Namespace == "" {
		return t.Name
	}
	return fmt.Sprintf("%s.%s", t.Namespace, t.Name)
}

func (t TypeSpec) kind() platform.Kind {
	if t.Kind == "struct" {
		return platform.StructKind
	}
	return platform.ClassKind
}
