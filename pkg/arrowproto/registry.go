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
	"github.com/apache/arrow/go/v17/arrow"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// SerializerFunc replaces the structural conversion of one message type. The
// returned value is used verbatim and must be assignable to the declared type.
type SerializerFunc func(m protoreflect.Message) (any, error)

// DeserializerFunc populates m from value in place. path locates the value within
// the top-level mapping and is meant for error messages.
type DeserializerFunc func(value any, m protoreflect.Message, path string) error

// registry holds the per-converter overrides keyed by message full name. types is
// kept in lockstep with serializers: every serializer has an entry in types, and
// types otherwise only holds the built-in well-known entries.
type registry struct {
	serializers   map[protoreflect.FullName]SerializerFunc
	deserializers map[protoreflect.FullName]DeserializerFunc
	types         map[protoreflect.FullName]arrow.DataType
}

func newRegistry() registry {
	return registry{
		serializers:   make(map[protoreflect.FullName]SerializerFunc),
		deserializers: make(map[protoreflect.FullName]DeserializerFunc),
		types:         wellKnownTypes(),
	}
}

func (r *registry) serializer(name protoreflect.FullName) (SerializerFunc, bool) {
	fn, ok := r.serializers[name]
	return fn, ok
}

func (r *registry) deserializer(name protoreflect.FullName) (DeserializerFunc, bool) {
	fn, ok := r.deserializers[name]
	return fn, ok
}

func (r *registry) dataType(name protoreflect.FullName) (arrow.DataType, bool) {
	dt, ok := r.types[name]
	return dt, ok
}

// RegisterSerializer maps a message type to a custom serializer and the arrow type
// of the values it returns. The type is used for every occurrence of the message
// during schema derivation, nested ones included.
func (c *Converter) RegisterSerializer(name protoreflect.FullName, fn SerializerFunc, dt arrow.DataType) {
	c.reg.serializers[name] = fn
	c.reg.types[name] = dt
}

// UnregisterSerializer removes a serializer. The schema entry falls back to the
// built-in well-known type if there is one, otherwise the message is derived
// structurally again.
func (c *Converter) UnregisterSerializer(name protoreflect.FullName) {
	delete(c.reg.serializers, name)
	delete(c.reg.types, name)
	if dt, ok := wellKnownType(name); ok {
		c.reg.types[name] = dt
	}
}

// RegisterDeserializer maps a message type to a custom deserializer.
func (c *Converter) RegisterDeserializer(name protoreflect.FullName, fn DeserializerFunc) {
	c.reg.deserializers[name] = fn
}

// UnregisterDeserializer removes a deserializer.
func (c *Converter) UnregisterDeserializer(name protoreflect.FullName) {
	delete(c.reg.deserializers, name)
}

// RegisterTimestampSerializer converts google.protobuf.Timestamp into time.Time
// stored as a UTC microsecond timestamp column.
func (c *Converter) RegisterTimestampSerializer() {
	c.RegisterSerializer(wktTimestamp, timestampToTime, arrow.FixedWidthTypes.Timestamp_us)
}

func (c *Converter) UnregisterTimestampSerializer() {
	c.UnregisterSerializer(wktTimestamp)
}

// RegisterTimestampDeserializer reads google.protobuf.Timestamp back from
// time.Time, arrow.Timestamp or RFC 3339 values.
func (c *Converter) RegisterTimestampDeserializer() {
	c.RegisterDeserializer(wktTimestamp, timestampFromValue)
}

func (c *Converter) UnregisterTimestampDeserializer() {
	c.UnregisterDeserializer(wktTimestamp)
}
