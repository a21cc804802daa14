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

import "fmt"

// NewCallableType returns the generic definition of a callable type taking
// a given number of parameters. The definition has one type parameter per
// parameter and, if the callable returns a value, a last type parameter for
// the result. byRef reports if a parameter is passed by reference; it can be nil.
func NewCallableType(namespace, name string, params int, byRef func(int) bool, returnsValue bool) *GenericType {
	arity := params
	labels := make([]string, 0, params+1)
	for i := range params {
		labels = append(labels, fmt.Sprintf("T%d", i+1))
	}
	if returnsValue {
		arity++
		labels = append(labels, "TResult")
	}
	g := NewGenericType(namespace, name, DelegateKind, arity, labels...)
	invoke := &Member{
		Name:   InvokeMember,
		MKind:  MethodMember,
		Type:   VoidType(),
		Params: make([]Parameter, params),
	}
	for i := range params {
		invoke.Params[i] = Parameter{
			Name:  fmt.Sprintf("arg%d", i),
			Type:  g.Params[i],
			ByRef: byRef != nil && byRef(i),
		}
	}
	if returnsValue {
		invoke.Type = g.Params[params]
	}
	g.AddMember(invoke)
	return g
}

// Invoke returns the invocation method of a callable type.
func Invoke(callable *Instance) (*Member, error) {
	return callable.Member(InvokeMember)
}
