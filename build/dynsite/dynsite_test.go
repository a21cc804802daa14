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

package dynsite_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/dynsite/build/dynsite"
	"github.com/gx-org/dynsite/build/dynsite/shape"
	"github.com/gx-org/dynsite/build/dynsite/synth"
	"github.com/gx-org/dynsite/build/fmterr"
	"github.com/gx-org/dynsite/build/platform"
	"github.com/gx-org/dynsite/build/platform/memplatform"
)

type env struct {
	plat        *memplatform.Platform
	class       *memplatform.Class
	factory     *dynsite.Factory
	object, str platform.Type
}

func newEnv(t *testing.T, profile *memplatform.Profile) *env {
	plat, err := memplatform.New(profile)
	if err != nil {
		t.Fatal(err)
	}
	class := memplatform.NewClass("App", "Script")
	factory, err := dynsite.New(plat, class, synth.NewRegistry(t.Name()))
	if err != nil {
		t.Fatal(err)
	}
	e := &env{plat: plat, class: class, factory: factory}
	if e.object, err = plat.LookupType("Object"); err != nil {
		t.Fatal(err)
	}
	if e.str, err = plat.LookupType("String"); err != nil {
		t.Fatal(err)
	}
	return e
}

func (e *env) site(t *testing.T, hint string, ops shape.Operands) *dynsite.Site {
	bld, err := e.factory.BeginCallSite(hint)
	if err != nil {
		t.Fatal(err)
	}
	site, err := bld.ResolveOperands(ops)
	if err != nil {
		t.Fatal(err)
	}
	return site
}

func TestMethodCallSite(t *testing.T) {
	e := newEnv(t, memplatform.DefaultProfile())
	bld, err := e.factory.BeginCallSite("call")
	if err != nil {
		t.Fatal(err)
	}
	place := bld.Place()
	if place.Name != "<>call'0" {
		t.Errorf("got cell %s but want <>call'0", place.Name)
	}
	site, err := bld.ResolveOperands(shape.Operands{
		Receiver: e.object,
		Args:     []platform.Type{e.str, e.object},
		Result:   e.object,
	})
	if err != nil {
		t.Fatal(err)
	}
	if site.Place() != place {
		t.Errorf("the cell of the site changed after resolution")
	}
	if got := len(site.Shape.Params); got != 4 {
		t.Errorf("got %d parameters but want 4", got)
	}
	if site.Callable.Generic.Synthesized {
		t.Errorf("callable type %s synthesized but want a platform family", site.Callable)
	}
	want := "System.Func<System.Runtime.CompilerServices.CallSite, System.Object, System.String, System.Object, System.Object>"
	if got := site.Callable.String(); got != want {
		t.Errorf("got callable %s but want %s", got, want)
	}
	if site.Target.Type != site.Callable {
		t.Errorf("target has type %s but want %s", site.Target.Type, site.Callable)
	}
	invoke, err := site.Invoke()
	if err != nil {
		t.Fatal(err)
	}
	if invoke.IsVoid() || len(invoke.Params) != 4 {
		t.Errorf("unexpected invocation method %s", invoke)
	}
	if site.Init != e.class.StaticInit() {
		t.Errorf("site initialized outside of the static initializer of its container")
	}
	if e.factory.Registry().Len() != 0 {
		t.Errorf("got %d synthesized types but want 0", e.factory.Registry().Len())
	}
}

func TestByRefCallSitesShareType(t *testing.T) {
	e := newEnv(t, memplatform.DefaultProfile())
	ops := shape.Operands{
		Args:     []platform.Type{e.object},
		ArgByRef: []bool{true},
		Result:   platform.VoidType(),
	}
	a := e.site(t, "assign", ops)
	b := e.site(t, "assign", ops)
	if a.Callable != b.Callable {
		t.Errorf("sites with the same shape resolved to %s and %s", a.Callable, b.Callable)
	}
	if !a.Callable.Generic.Synthesized {
		t.Errorf("callable type %s not synthesized", a.Callable)
	}
	if got := a.Shape.Key(); got != (shape.Key{Params: 2, ByRefs: "01", Void: true}) {
		t.Errorf("unexpected key %s", got)
	}
	if a.Cell == b.Cell || a.Place() == b.Place() {
		t.Errorf("two sites share the same cell")
	}
	if a.Index != 0 || b.Index != 1 {
		t.Errorf("got indices %d and %d but want 0 and 1", a.Index, b.Index)
	}
	if diff := cmp.Diff(synth.Stats{Synthesized: 1, Reused: 1}, e.factory.Stats()); diff != "" {
		t.Errorf("unexpected stats (-want +got):\n%s", diff)
	}
	if got := len(e.factory.Sites()); got != 2 {
		t.Errorf("got %d sites but want 2", got)
	}
}

func TestRegistrySharedByContainers(t *testing.T) {
	plat := memplatform.Default()
	var regs synth.Registries
	reg := regs.ForUnit("unit")
	object, err := plat.LookupType("Object")
	if err != nil {
		t.Fatal(err)
	}
	ops := shape.Operands{
		Receiver:      object,
		ReceiverByRef: true,
		Result:        object,
	}
	var callables []*platform.Instance
	for _, name := range []string{"A", "B"} {
		factory, err := dynsite.New(plat, memplatform.NewClass("App", name), reg)
		if err != nil {
			t.Fatal(err)
		}
		bld, err := factory.BeginCallSite("get")
		if err != nil {
			t.Fatal(err)
		}
		site, err := bld.ResolveOperands(ops)
		if err != nil {
			t.Fatal(err)
		}
		if site.Place().Name != "<>get'0" {
			t.Errorf("container %s: got cell %s but want <>get'0", name, site.Place().Name)
		}
		callables = append(callables, site.Callable)
	}
	if callables[0] != callables[1] {
		t.Errorf("containers of the same unit synthesized different types")
	}
	if reg.Len() != 1 {
		t.Errorf("got %d synthesized types but want 1", reg.Len())
	}
	if reg.Instances() != 1 {
		t.Errorf("got %d instances of synthesized types but want 1", reg.Instances())
	}
}

func TestResolveTwice(t *testing.T) {
	e := newEnv(t, memplatform.DefaultProfile())
	bld, err := e.factory.BeginCallSite("call")
	if err != nil {
		t.Fatal(err)
	}
	s, err := e.factory.Derive(shape.Operands{Receiver: e.object})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bld.Resolve(s); err != nil {
		t.Fatal(err)
	}
	if !bld.Resolved() {
		t.Errorf("builder not marked as resolved")
	}
	defer func() {
		if err, ok := recover().(error); !ok || !fmterr.IsInternal(err) {
			t.Errorf("expected a panic with an internal error, got %v", err)
		}
	}()
	bld.Resolve(s)
}

func TestUnsupportedPlatform(t *testing.T) {
	profile := memplatform.DefaultProfile()
	profile.CallSite = nil
	e := newEnv(t, profile)
	_, err := e.factory.BeginCallSite("call")
	if !dynsite.IsUnsupported(err) {
		t.Errorf("BeginCallSite: got %v but want an unsupported operation error", err)
	}
	_, err = e.factory.CallableType(shape.Operands{Receiver: e.object})
	if !dynsite.IsUnsupported(err) {
		t.Errorf("CallableType: got %v but want an unsupported operation error", err)
	}
	if got := len(e.class.Fields()); got != 0 {
		t.Errorf("got %d fields declared but want 0", got)
	}
}

func TestUnsupportedMember(t *testing.T) {
	profile := memplatform.DefaultProfile()
	profile.CallSite.Members = []string{platform.TargetMember}
	e := newEnv(t, profile)
	bld, err := e.factory.BeginCallSite("call")
	if err != nil {
		t.Fatal(err)
	}
	_, err = bld.ResolveOperands(shape.Operands{Receiver: e.object})
	if !dynsite.IsUnsupported(err) {
		t.Errorf("got %v but want an unsupported operation error", err)
	}
	if e.factory.Cells() != 1 || len(e.factory.Sites()) != 0 {
		t.Errorf("got %d cells and %d sites but want 1 cell and 0 site", e.factory.Cells(), len(e.factory.Sites()))
	}
	base, _ := e.plat.CallSite()
	if got := bld.Cell().DeclaredType(); got != base {
		t.Errorf("unresolved cell has type %s but want %s", got, base)
	}
	if bld.Place().Final() {
		t.Errorf("unresolved cell has a final type")
	}
}

func TestCallableType(t *testing.T) {
	e := newEnv(t, memplatform.DefaultProfile())
	inst, err := e.factory.CallableType(shape.Operands{
		Receiver: e.object,
		Right:    e.str,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "System.Action<System.Runtime.CompilerServices.CallSite, System.Object, System.String>"
	if inst.String() != want {
		t.Errorf("got %s but want %s", inst, want)
	}
	if got := len(e.class.Fields()); got != 0 {
		t.Errorf("got %d fields declared but want 0", got)
	}
}

func TestEmitBootstrap(t *testing.T) {
	e := newEnv(t, memplatform.DefaultProfile())
	site := e.site(t, "get", shape.Operands{Receiver: e.object, Result: e.object})
	binder, err := e.plat.Binder()
	if err != nil {
		t.Fatal(err)
	}
	if err := site.EmitBootstrap(binder); err != nil {
		t.Fatal(err)
	}
	stream := e.class.StaticInit().(*memplatform.Stream)
	var got []string
	for _, ins := range stream.Instrs() {
		got = append(got, ins.String())
	}
	want := []string{
		"newobj System.Runtime.CompilerServices.CallSiteBinder",
		"call System.Runtime.CompilerServices.CallSite<System.Func<System.Runtime.CompilerServices.CallSite, System.Object, System.Object>>.Create(System.Runtime.CompilerServices.CallSiteBinder) System.Runtime.CompilerServices.CallSite<System.Func<System.Runtime.CompilerServices.CallSite, System.Object, System.Object>>",
		"stsfld App.Script::<>get'0",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected static initializer (-want +got):\n%s", diff)
	}
	if err := site.EmitBootstrap(binder); err == nil {
		t.Errorf("expected an error when bootstrapping a site twice")
	}
	if stream.Len() != len(want) {
		t.Errorf("got %d instructions but want %d", stream.Len(), len(want))
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := dynsite.New(memplatform.Default(), nil, synth.NewRegistry("unit")); !fmterr.IsInternal(err) {
		t.Errorf("got %v but want an internal error", err)
	}
}

func TestParallelUnits(t *testing.T) {
	plat := memplatform.Default()
	object, err := plat.LookupType("Object")
	if err != nil {
		t.Fatal(err)
	}
	var regs synth.Registries
	const units, arities = 4, 6
	calls := make([][]*platform.Instance, units)
	assigns := make([]*platform.Instance, units)
	var wg sync.WaitGroup
	for u := range units {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unit := fmt.Sprintf("unit%d", u)
			factory, err := dynsite.New(plat, memplatform.NewClass("App", unit), regs.ForUnit(unit))
			if err != nil {
				t.Errorf("%s: %v", unit, err)
				return
			}
			for n := range arities {
				bld, err := factory.BeginCallSite("call")
				if err != nil {
					t.Errorf("%s: %v", unit, err)
					return
				}
				args := make([]platform.Type, n)
				for i := range args {
					args[i] = object
				}
				site, err := bld.ResolveOperands(shape.Operands{Receiver: object, Args: args, Result: object})
				if err != nil {
					t.Errorf("%s: %v", unit, err)
					return
				}
				calls[u] = append(calls[u], site.Callable)
			}
			bld, err := factory.BeginCallSite("assign")
			if err != nil {
				t.Errorf("%s: %v", unit, err)
				return
			}
			site, err := bld.ResolveOperands(shape.Operands{Args: []platform.Type{object}, ArgByRef: []bool{true}})
			if err != nil {
				t.Errorf("%s: %v", unit, err)
				return
			}
			assigns[u] = site.Callable
		}()
	}
	wg.Wait()
	if t.Failed() {
		return
	}
	for u := 1; u < units; u++ {
		for n := range arities {
			if calls[u][n] != calls[0][n] {
				t.Errorf("unit%d: callable %s with %d arguments not shared with unit0", u, calls[u][n], n)
			}
		}
		if assigns[u].Generic == assigns[0].Generic {
			t.Errorf("unit%d: synthesized definition %s shared with unit0", u, assigns[u].Generic)
		}
	}
	for _, unit := range regs.Units() {
		if got := regs.ForUnit(unit).Len(); got != 1 {
			t.Errorf("%s: got %d synthesized types but want 1", unit, got)
		}
	}
}
