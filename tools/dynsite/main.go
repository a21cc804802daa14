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

// Command dynsite resolves the dynamic call sites described in site files
// and prints, for each site, its cache cell, its shape, and its callable type.
//
// Usage:
//
//	dynsite [-profile platform.yaml] -sites a.yaml,b.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/gx-org/dynsite/build/dynsite"
	"github.com/gx-org/dynsite/build/dynsite/synth"
	"github.com/gx-org/dynsite/build/platform/memplatform"
	"github.com/gx-org/dynsite/tools/dynsite/sitefile"
	"github.com/gx-org/dynsite/tools/gxflag"
)

var (
	profile = flag.String("profile", "", "YAML file describing the target platform; use the default platform if empty")
	sites   = gxflag.NewStringList(nil, "sites", "comma-separated list of site files")
)

func exit(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format, a...)
	fmt.Fprintln(os.Stderr)
	os.Exit(1)
}

func loadPlatform(path string) (*memplatform.Platform, error) {
	if path == "" {
		return memplatform.Default(), nil
	}
	prof, err := memplatform.LoadProfile(path)
	if err != nil {
		return nil, err
	}
	return memplatform.New(prof)
}

type resolver struct {
	w     io.Writer
	plat  *memplatform.Platform
	units synth.Registries
}

func (r *resolver) resolveFile(f *sitefile.File) error {
	namespace, name := f.ContainerName()
	class := memplatform.NewClass(namespace, name)
	factory, err := dynsite.New(r.plat, class, r.units.ForUnit(f.Unit))
	if err != nil {
		return err
	}
	fmt.Fprintf(r.w, "container %s (unit %s)\n", class, f.Unit)
	for i, spec := range f.Sites {
		ops, err := spec.Operands(r.plat.LookupType)
		if err != nil {
			return fmt.Errorf("site %d: %w", i, err)
		}
		bld, err := factory.BeginCallSite(spec.Hint)
		if dynsite.IsUnsupported(err) {
			fmt.Fprintf(r.w, "  site %d: unsupported dynamic operation: %v\n", i, err)
			continue
		}
		if err != nil {
			return err
		}
		site, err := bld.ResolveOperands(ops)
		if dynsite.IsUnsupported(err) {
			fmt.Fprintf(r.w, "  site %d: unsupported dynamic operation: %v\n", i, err)
			fmt.Fprintf(r.w, "    cell %s left with type %s\n", bld.Place().Name, bld.Cell().DeclaredType())
			continue
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(r.w, "  %s %s\n    shape: %s\n", site.Place().Name, site.Cell.DeclaredType(), site.Shape)
		if site.Shape.HasByRef() {
			fmt.Fprintf(r.w, "    by ref: %v\n", site.Shape.ByRefs().Indices())
		}
		fmt.Fprintf(r.w, "    callable: %s\n", site.Callable)
		if !spec.Bootstrap {
			continue
		}
		binder, err := r.plat.Binder()
		if err != nil {
			return err
		}
		if err := site.EmitBootstrap(binder); err != nil {
			return err
		}
	}
	stats := factory.Stats()
	fmt.Fprintf(r.w, "  cells: %d allocated, %d resolved\n", factory.Cells(), len(factory.Sites()))
	fmt.Fprintf(r.w, "  resolved: %d fast path, %d synthesized, %d reused\n", stats.FastPath, stats.Synthesized, stats.Reused)
	if stream, ok := class.StaticInit().(*memplatform.Stream); ok && stream.Len() > 0 {
		fmt.Fprintln(r.w, "  static initializer:")
		for _, ins := range stream.Instrs() {
			fmt.Fprintf(r.w, "    %s\n", ins)
		}
	}
	return nil
}

func run(w io.Writer, profilePath string, sitePaths []string) error {
	plat, err := loadPlatform(profilePath)
	if err != nil {
		return err
	}
	r := &resolver{w: w, plat: plat}
	for _, path := range sitePaths {
		f, err := sitefile.Load(path)
		if err != nil {
			return err
		}
		if err := r.resolveFile(f); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	for _, unit := range r.units.Units() {
		reg := r.units.ForUnit(unit)
		fmt.Fprintf(w, "unit %s: %d synthesized types, %d instances\n", unit, reg.Len(), reg.Instances())
		for _, name := range reg.Names() {
			fmt.Fprintf(w, "  %s\n", name)
		}
	}
	return nil
}

func main() {
	flag.Parse()
	if len(*sites) == 0 {
		exit("no site file specified: please use --sites to specify at least one file")
	}
	if err := run(os.Stdout, *profile, *sites); err != nil {
		exit("%+v", err)
	}
}
