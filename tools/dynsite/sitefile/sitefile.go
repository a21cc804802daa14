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

// Package sitefile parses files describing the dynamic call sites of a container.
//
// Example:
//
//	unit: demo
//	container: App.Script
//	sites:
//	  - hint: call
//	    receiver: Object
//	    args: [String, Int64]
//	    arg_by_ref: [false, true]
//	    result: Object
//	    bootstrap: true
package sitefile

import (
	"os"
	"strings"

	"github.com/gx-org/dynsite/build/dynsite/shape"
	"github.com/gx-org/dynsite/build/platform"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

type (
	// File lists the call sites of a container.
	File struct {
		// Unit is the compiled unit of the container.
		// Containers of the same unit share synthesized callable types.
		Unit string `yaml:"unit"`
		// Container is the qualified name of the container.
		Container string `yaml:"container"`
		// Sites are the call sites of the container.
		Sites []Site `yaml:"sites"`
	}

	// Site describes the operands of a dynamic call site.
	// Types are referred to by name.
	Site struct {
		Hint          string   `yaml:"hint"`
		Receiver      string   `yaml:"receiver,omitempty"`
		ReceiverByRef bool     `yaml:"receiver_by_ref,omitempty"`
		Args          []string `yaml:"args,omitempty"`
		ArgByRef      []bool   `yaml:"arg_by_ref,omitempty"`
		Right         string   `yaml:"right,omitempty"`
		// Result is the type of the result. Empty or "void" if the operation returns nothing.
		Result string `yaml:"result,omitempty"`
		// Bootstrap emits the initialization of the cell in the static initializer.
		Bootstrap bool `yaml:"bootstrap,omitempty"`
	}

	// TypeLookup returns a platform type given its name.
	TypeLookup func(name string) (platform.Type, error)
)

// Load reads and parses a site file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading site file %s", path)
	}
	return Parse(data, path)
}

// Parse parses the content of a site file.
// The path argument is used only for error messages.
func Parse(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if err := f.validate(path); err != nil {
		return nil, err
	}
	f.setDefaults(path)
	return &f, nil
}

func (f *File) validate(path string) (err error) {
	for i, site := range f.Sites {
		if len(site.ArgByRef) != 0 && len(site.ArgByRef) != len(site.Args) {
			err = multierr.Append(err, errors.Errorf("%s: sites[%d]: %d arg_by_ref values for %d args", path, i, len(site.ArgByRef), len(site.Args)))
		}
		if site.ReceiverByRef && site.Receiver == "" {
			err = multierr.Append(err, errors.Errorf("%s: sites[%d]: receiver_by_ref set without receiver", path, i))
		}
	}
	return err
}

func (f *File) setDefaults(path string) {
	if f.Unit == "" {
		f.Unit = path
	}
	if f.Container == "" {
		f.Container = "Script"
	}
}

// ContainerName splits the qualified name of the container into a namespace and a name.
func (f *File) ContainerName() (namespace, name string) {
	i := strings.LastIndex(f.Container, ".")
	if i < 0 {
		return "", f.Container
	}
	return f.Container[:i], f.Container[i+1:]
}

func lookupOptional(lookup TypeLookup, name string) (platform.Type, error) {
	if name == "" {
		return nil, nil
	}
	return lookup(name)
}

// Operands resolves the type names of a site.
func (s *Site) Operands(lookup TypeLookup) (shape.Operands, error) {
	var ops shape.Operands
	var errs error
	resolve := func(name string) platform.Type {
		typ, err := lookupOptional(lookup, name)
		errs = multierr.Append(errs, err)
		return typ
	}
	ops.Receiver = resolve(s.Receiver)
	ops.ReceiverByRef = s.ReceiverByRef
	for _, arg := range s.Args {
		ops.Args = append(ops.Args, resolve(arg))
	}
	ops.ArgByRef = s.ArgByRef
	ops.Right = resolve(s.Right)
	if s.Result != "" && s.Result != "void" {
		ops.Result = resolve(s.Result)
	}
	if errs != nil {
		return shape.Operands{}, errs
	}
	return ops, nil
}
