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

// Package fmterr provides helpers to build and format the errors reported
// while synthesizing dynamic call sites.
//
// Two classes of errors are distinguished:
//   - internal errors, signaling a bug in the compiler or a misuse of an API,
//   - regular errors, which callers may recover from (for example, by
//     reporting an unsupported operation to the user).
package fmterr

import (
	"fmt"

	"github.com/pkg/errors"
)

// PrefixWith returns a function to prefix errors with a formatted string.
func PrefixWith(s string, o ...any) func(err error) error {
	return func(err error) error {
		if err == nil {
			return nil
		}
		return fmt.Errorf("%s%w", fmt.Sprintf(s, o...), err)
	}
}

type internalError struct {
	err error
}

// Internal marks an error as internal.
func Internal(err error) error {
	if err == nil {
		return nil
	}
	if IsInternal(err) {
		return err
	}
	return internalError{err: errors.WithStack(err)}
}

// Internalf returns a formatted internal error.
func Internalf(format string, a ...any) error {
	return internalError{err: errors.Errorf(format, a...)}
}

// IsInternal returns true if the error, or one of the error it wraps, is an internal error.
func IsInternal(err error) bool {
	var iErr internalError
	return errors.As(err, &iErr)
}

// Fatal panics with an internal error.
// It is used for faults which cannot be recovered from, like an API misuse.
func Fatal(err error) {
	panic(Internal(err))
}

// Fatalf panics with a formatted internal error.
func Fatalf(format string, a ...any) {
	panic(Internalf(format, a...))
}

// Error returns a string description of the error.
func (err internalError) Error() string {
	return "dynsite internal error. This is a bug in the compiler. Please report it. Error:\n" + err.err.Error()
}

// Unwrap the error.
func (err internalError) Unwrap() error {
	return err.err
}

// Format writes the error into the state of the formatter.
func (err internalError) Format(s fmt.State, verb rune) {
	format(err, s, verb)
}
