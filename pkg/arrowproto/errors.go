// --------------------------------------------------------------------------------
// Author: Thomas F McGeehan V
//
// This file is part of a software project developed by Thomas F McGeehan V.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//
// For more information about the MIT License, please visit:
// https://opensource.org/licenses/MIT
//
// Acknowledgment appreciated but not required.
// --------------------------------------------------------------------------------

package arrowproto

import (
	"errors"
	"fmt"
)

var (
	// ErrCircularDefinition is returned when a message type appears again on its own
	// expansion path during schema derivation.
	ErrCircularDefinition = errors.New("circular protobuf definition detected")

	// ErrUnknownField is returned when a mapping key has no matching message field.
	ErrUnknownField = errors.New("unknown field")

	// ErrRecursionLimit is returned when nested messages exceed the configured depth.
	ErrRecursionLimit = errors.New("message too deep")

	// ErrTypeCoercion is returned when a mapping value cannot be assigned to a field.
	ErrTypeCoercion = errors.New("type coercion failed")
)

// ConversionError reports the field path at which a conversion failed.
type ConversionError struct {
	Path string
	Err  error
}

func (ce *ConversionError) Error() string {
	if ce.Path == "" {
		return ce.Err.Error()
	}
	return fmt.Sprintf("conversion error at %q: %v", ce.Path, ce.Err)
}

func (ce *ConversionError) Unwrap() error {
	return ce.Err
}

func newConversionError(path string, err error) *ConversionError {
	var ce *ConversionError
	if errors.As(err, &ce) {
		return ce
	}
	return &ConversionError{
		Path: path,
		Err:  err,
	}
}

func coercionErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTypeCoercion, fmt.Sprintf(format, args...))
}
