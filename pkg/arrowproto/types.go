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
	"maps"

	"github.com/apache/arrow/go/v17/arrow"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Well-known message names with a built-in columnar representation.
const (
	wktTimestamp   protoreflect.FullName = "google.protobuf.Timestamp"
	wktDuration    protoreflect.FullName = "google.protobuf.Duration"
	wktDoubleValue protoreflect.FullName = "google.protobuf.DoubleValue"
	wktFloatValue  protoreflect.FullName = "google.protobuf.FloatValue"
	wktInt64Value  protoreflect.FullName = "google.protobuf.Int64Value"
	wktUInt64Value protoreflect.FullName = "google.protobuf.UInt64Value"
	wktInt32Value  protoreflect.FullName = "google.protobuf.Int32Value"
	wktUInt32Value protoreflect.FullName = "google.protobuf.UInt32Value"
	wktBoolValue   protoreflect.FullName = "google.protobuf.BoolValue"
	wktStringValue protoreflect.FullName = "google.protobuf.StringValue"
	wktBytesValue  protoreflect.FullName = "google.protobuf.BytesValue"
)

// builtinTypes is the type each well-known message gets from the default
// conversion. It is read-only; converters copy it.
var builtinTypes = map[protoreflect.FullName]arrow.DataType{
	wktTimestamp:   arrow.BinaryTypes.String,
	wktDuration:    arrow.BinaryTypes.String,
	wktDoubleValue: arrow.PrimitiveTypes.Float64,
	wktFloatValue:  arrow.PrimitiveTypes.Float32,
	wktInt64Value:  arrow.PrimitiveTypes.Int64,
	wktUInt64Value: arrow.PrimitiveTypes.Uint64,
	wktInt32Value:  arrow.PrimitiveTypes.Int32,
	wktUInt32Value: arrow.PrimitiveTypes.Int64,
	wktBoolValue:   arrow.FixedWidthTypes.Boolean,
	wktStringValue: arrow.BinaryTypes.String,
	wktBytesValue:  arrow.BinaryTypes.Binary,
}

func wellKnownTypes() map[protoreflect.FullName]arrow.DataType {
	return maps.Clone(builtinTypes)
}

func wellKnownType(name protoreflect.FullName) (arrow.DataType, bool) {
	dt, ok := builtinTypes[name]
	return dt, ok
}

// scalarType maps a non-message field kind to its arrow type. Bytes are resolved
// before the kind table so they never fall into the string column.
func scalarType(fd protoreflect.FieldDescriptor, opts *Options) arrow.DataType {
	if isBytes(fd) {
		return arrow.BinaryTypes.Binary
	}
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return arrow.PrimitiveTypes.Int32
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return arrow.PrimitiveTypes.Int64
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return arrow.PrimitiveTypes.Int64
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return arrow.PrimitiveTypes.Uint64
	case protoreflect.DoubleKind:
		return arrow.PrimitiveTypes.Float64
	case protoreflect.FloatKind:
		return arrow.PrimitiveTypes.Float32
	case protoreflect.BoolKind:
		return arrow.FixedWidthTypes.Boolean
	case protoreflect.EnumKind:
		if opts.UseIntegersForEnums {
			return arrow.PrimitiveTypes.Int32
		}
		return arrow.BinaryTypes.String
	default:
		return arrow.BinaryTypes.String
	}
}

func isBytes(fd protoreflect.FieldDescriptor) bool {
	return fd.Kind() == protoreflect.BytesKind
}

func isMessage(fd protoreflect.FieldDescriptor) bool {
	return fd.Kind() == protoreflect.MessageKind || fd.Kind() == protoreflect.GroupKind
}

// isRepeated covers both lists and maps; a map is a repeated entry message.
func isRepeated(fd protoreflect.FieldDescriptor) bool {
	return fd.Cardinality() == protoreflect.Repeated
}

func isDeprecated(fd protoreflect.FieldDescriptor) bool {
	opts, ok := fd.Options().(*descriptorpb.FieldOptions)
	return ok && opts.GetDeprecated()
}

func fieldName(fd protoreflect.FieldDescriptor, opts *Options) string {
	if opts.PreservingProtoFieldName {
		return string(fd.Name())
	}
	return fd.JSONName()
}

// expansion is the chain of message types being expanded on the current branch.
// It is never mutated: push returns a new head, so sibling branches never see
// each other's entries.
type expansion struct {
	name   protoreflect.FullName
	parent *expansion
}

func (e *expansion) push(name protoreflect.FullName) *expansion {
	return &expansion{name: name, parent: e}
}

func (e *expansion) contains(name protoreflect.FullName) bool {
	for p := e; p != nil; p = p.parent {
		if p.name == name {
			return true
		}
	}
	return false
}
