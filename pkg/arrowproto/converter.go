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
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Converter converts between protobuf messages and arrow-shaped values. Each
// converter owns its overrides; configure it before use and share it read-only
// afterwards, since registration is not synchronized with conversion.
type Converter struct {
	reg    registry
	logger *zap.Logger
}

// ConverterOption configures a Converter.
type ConverterOption func(*Converter)

// WithLogger sets the logger used for skipped-field warnings.
func WithLogger(logger *zap.Logger) ConverterOption {
	return func(c *Converter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConverter returns a converter seeded with the well-known types and the
// default timestamp serializer and deserializer.
func NewConverter(opts ...ConverterOption) *Converter {
	c := &Converter{
		reg:    newRegistry(),
		logger: zap.L(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.RegisterTimestampSerializer()
	c.RegisterTimestampDeserializer()
	return c
}

// DecodeFunc turns a serialized message into its mapping value.
type DecodeFunc func(b []byte) (any, error)

// EncodeFunc turns a mapping value into a serialized message.
type EncodeFunc func(v any) ([]byte, error)

// Decoder returns a DecodeFunc for messages of type md.
func (c *Converter) Decoder(md protoreflect.MessageDescriptor, opts *Options) DecodeFunc {
	opts = opts.orDefault()
	return func(b []byte) (any, error) {
		m := newMessage(md)
		if err := proto.Unmarshal(b, m.Interface()); err != nil {
			return nil, err
		}
		return c.MessageToMap(m, opts)
	}
}

// Encoder returns an EncodeFunc for messages of type md. Output is deterministic
// so that equal mappings always produce equal bytes.
func (c *Converter) Encoder(md protoreflect.MessageDescriptor, opts *Options) EncodeFunc {
	opts = opts.orDefault()
	marshal := proto.MarshalOptions{Deterministic: true}
	return func(v any) ([]byte, error) {
		m := newMessage(md)
		if err := c.ParseMap(v, m, opts); err != nil {
			return nil, err
		}
		return marshal.Marshal(m.Interface())
	}
}

// newMessage prefers the generated type when md is the registered descriptor so
// that serializers see concrete messages, and falls back to dynamicpb.
func newMessage(md protoreflect.MessageDescriptor) protoreflect.Message {
	if mt, err := protoregistry.GlobalTypes.FindMessageByName(md.FullName()); err == nil && mt.Descriptor() == md {
		return mt.New()
	}
	return dynamicpb.NewMessage(md)
}
