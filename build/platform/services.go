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

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrMissing is matched by all errors reporting a type or a member
// missing from the platform runtime library.
var ErrMissing = errors.New("missing platform dependency")

// MissingError reports a type or a member missing from the platform.
type MissingError struct {
	What string
}

func (err *MissingError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissing, err.What)
}

// Is returns true if the target is ErrMissing.
func (err *MissingError) Is(target error) bool {
	return target == ErrMissing
}

// Missing returns an error reporting a missing platform dependency.
func Missing(format string, a ...any) error {
	return errors.WithStack(&MissingError{What: fmt.Sprintf(format, a...)})
}

// IsMissing returns true if the error reports a missing platform dependency.
func IsMissing(err error) bool {
	return errors.Is(err, ErrMissing)
}

// Names of the members of the generic cache cell type.
const (
	// TargetMember is the field of the cache cell holding the callable
	// invoked by the call site.
	TargetMember = "Target"
	// CreateMember is the static method creating a cache cell given a binder.
	CreateMember = "Create"
	// InvokeMember is the method of a callable type performing the call.
	InvokeMember = "Invoke"
)

// Services are the services provided by the platform to synthesize
// dynamic call sites.
type Services interface {
	// CallSite returns the non-generic cache cell type.
	CallSite() (Type, error)
	// CallSiteGeneric returns the generic cache cell type, parameterized by
	// the callable type invoked through the cell.
	CallSiteGeneric() (*GenericType, error)
	// CallSiteMember returns a member of the generic cache cell type.
	CallSiteMember(name string) (*Member, error)
	// ActionFamily returns the void-returning callable family taking a given
	// number of parameters, or nil if the platform does not provide one.
	ActionFamily(params int) *GenericType
	// FuncFamily returns the value-returning callable family taking a given
	// number of parameters (excluding the result), or nil if the platform
	// does not provide one.
	FuncFamily(params int) *GenericType
}
