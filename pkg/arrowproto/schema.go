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
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Schema derives the arrow type produced by MessageToMap for messages of type md.
// The result is a struct type unless md itself has an override or a well-known
// representation, in which case that type is returned directly.
func (c *Converter) Schema(md protoreflect.MessageDescriptor, opts *Options) (arrow.DataType, error) {
	return c.schema(md, opts.orDefault(), nil)
}

// ArrowSchema is Schema flattened into a record schema. A message whose type is a
// scalar override yields a single column named "value".
func (c *Converter) ArrowSchema(md protoreflect.MessageDescriptor, opts *Options) (*arrow.Schema, error) {
	dt, err := c.Schema(md, opts)
	if err != nil {
		return nil, err
	}
	if st, ok := dt.(*arrow.StructType); ok {
		return arrow.NewSchema(st.Fields(), nil), nil
	}
	return arrow.NewSchema([]arrow.Field{{Name: ValueColumn, Type: dt, Nullable: true}}, nil), nil
}

func (c *Converter) schema(md protoreflect.MessageDescriptor, opts *Options, seen *expansion) (arrow.DataType, error) {
	if dt, ok := c.reg.dataType(md.FullName()); ok {
		return dt, nil
	}
	seen = seen.push(md.FullName())

	fields := md.Fields()
	out := make([]arrow.Field, 0, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if opts.IgnoreDeprecated && isDeprecated(fd) {
			c.logger.Info("ignoring deprecated field", zap.String("field", string(fd.FullName())))
			continue
		}
		if isMessage(fd) && seen.contains(fd.Message().FullName()) {
			if !opts.IgnoreCircularDefinitions {
				return nil, fmt.Errorf("%w: %s", ErrCircularDefinition, fd.Message().FullName())
			}
			c.logger.Warn("circular protobuf definition detected, ignoring field",
				zap.String("field", string(fd.FullName())),
				zap.String("type", string(fd.Message().FullName())))
			continue
		}

		var dt arrow.DataType
		if isMessage(fd) {
			var err error
			if dt, err = c.schema(fd.Message(), opts, seen); err != nil {
				return nil, err
			}
		} else {
			dt = scalarType(fd, opts)
		}
		if isRepeated(fd) {
			dt = arrow.ListOf(dt)
		}
		out = append(out, arrow.Field{Name: fieldName(fd, opts), Type: dt, Nullable: true})
	}
	return arrow.StructOf(out...), nil
}
