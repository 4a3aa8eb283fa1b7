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
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strconv"

	"google.golang.org/protobuf/reflect/protoreflect"
)

// MessageToMap converts m into a map[string]any conforming to Schema for the
// same options. Messages with a registered serializer, the top-level one
// included, are replaced by whatever the serializer returns. Bytes stay []byte
// and 64-bit integers stay int64/uint64.
func (c *Converter) MessageToMap(m protoreflect.Message, opts *Options) (any, error) {
	return c.messageValue(m, opts.orDefault(), nil, string(m.Descriptor().FullName()))
}

func (c *Converter) messageValue(m protoreflect.Message, opts *Options, seen *expansion, path string) (any, error) {
	md := m.Descriptor()
	name := md.FullName()
	if fn, ok := c.reg.serializer(name); ok {
		v, err := fn(m)
		if err != nil {
			return nil, newConversionError(path, err)
		}
		return v, nil
	}
	if _, ok := wellKnownType(name); ok {
		v, err := wellKnownValue(m, opts)
		if err != nil {
			return nil, newConversionError(path, err)
		}
		return v, nil
	}
	seen = seen.push(name)

	fields := md.Fields()
	out := make(map[string]any, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		fd := fields.Get(i)
		if c.skipField(fd, opts, seen) {
			continue
		}
		if !m.Has(fd) && !includeDefault(fd, opts) {
			continue
		}
		v, err := c.fieldValue(fd, m.Get(fd), opts, seen, path+"."+string(fd.Name()))
		if err != nil {
			return nil, err
		}
		out[fieldName(fd, opts)] = v
	}
	return out, nil
}

// skipField mirrors the field exclusions made by Schema.
func (c *Converter) skipField(fd protoreflect.FieldDescriptor, opts *Options, seen *expansion) bool {
	if opts.IgnoreDeprecated && isDeprecated(fd) {
		return true
	}
	return opts.IgnoreCircularDefinitions && isMessage(fd) && seen.contains(fd.Message().FullName())
}

func includeDefault(fd protoreflect.FieldDescriptor, opts *Options) bool {
	if !opts.IncludingDefaultValueFields || fd.ContainingOneof() != nil {
		return false
	}
	return isRepeated(fd) || !isMessage(fd)
}

func (c *Converter) fieldValue(fd protoreflect.FieldDescriptor, v protoreflect.Value, opts *Options, seen *expansion, path string) (any, error) {
	switch {
	case fd.IsMap():
		return c.mapValue(fd, v.Map(), opts, seen, path)
	case fd.IsList():
		list := v.List()
		out := make([]any, list.Len())
		for i := 0; i < list.Len(); i++ {
			ev, err := c.singularValue(fd, list.Get(i), opts, seen, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = ev
		}
		return out, nil
	default:
		return c.singularValue(fd, v, opts, seen, path)
	}
}

func (c *Converter) singularValue(fd protoreflect.FieldDescriptor, v protoreflect.Value, opts *Options, seen *expansion, path string) (any, error) {
	if isMessage(fd) {
		return c.messageValue(v.Message(), opts, seen, path)
	}
	return scalarValue(fd, v, opts), nil
}

// mapValue renders a map as its list of entries ordered by key, each entry being
// a {"key", "value"} mapping like any other repeated message.
func (c *Converter) mapValue(fd protoreflect.FieldDescriptor, mv protoreflect.Map, opts *Options, seen *expansion, path string) (any, error) {
	entry := fd.Message()
	seen = seen.push(entry.FullName())
	keyFd, valFd := fd.MapKey(), fd.MapValue()
	skipValue := c.skipField(valFd, opts, seen)

	keys := make([]protoreflect.MapKey, 0, mv.Len())
	mv.Range(func(k protoreflect.MapKey, _ protoreflect.Value) bool {
		keys = append(keys, k)
		return true
	})
	slices.SortFunc(keys, compareMapKeys)

	out := make([]any, 0, len(keys))
	for _, k := range keys {
		e := map[string]any{
			fieldName(keyFd, opts): scalarValue(keyFd, k.Value(), opts),
		}
		if !skipValue {
			v, err := c.singularValue(valFd, mv.Get(k), opts, seen, fmt.Sprintf("%s[%v]", path, k.Interface()))
			if err != nil {
				return nil, err
			}
			e[fieldName(valFd, opts)] = v
		}
		out = append(out, e)
	}
	return out, nil
}

func compareMapKeys(a, b protoreflect.MapKey) int {
	switch av := a.Interface().(type) {
	case string:
		return cmp.Compare(av, b.String())
	case bool:
		if av == b.Bool() {
			return 0
		}
		if !av {
			return -1
		}
		return 1
	case int32, int64:
		return cmp.Compare(a.Int(), b.Int())
	default:
		return cmp.Compare(a.Uint(), b.Uint())
	}
}

// scalarValue converts a non-message value into its native column value.
func scalarValue(fd protoreflect.FieldDescriptor, v protoreflect.Value, opts *Options) any {
	switch fd.Kind() {
	case protoreflect.BoolKind:
		return v.Bool()
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind:
		return int32(v.Int())
	case protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return v.Int()
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return int64(v.Uint())
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		return v.Uint()
	case protoreflect.FloatKind:
		return float32(roundFloat(v.Float(), opts.FloatPrecision, 32))
	case protoreflect.DoubleKind:
		return roundFloat(v.Float(), opts.FloatPrecision, 64)
	case protoreflect.BytesKind:
		return bytes.Clone(v.Bytes())
	case protoreflect.EnumKind:
		return enumValue(fd, v.Enum(), opts)
	default:
		return v.String()
	}
}

// enumValue renders an enum by name. Numbers without a declared name, which
// open enums may carry, are rendered as their decimal string so the value still
// fits the string column.
func enumValue(fd protoreflect.FieldDescriptor, n protoreflect.EnumNumber, opts *Options) any {
	if opts.UseIntegersForEnums {
		return int32(n)
	}
	if ev := fd.Enum().Values().ByNumber(n); ev != nil {
		return string(ev.Name())
	}
	return strconv.FormatInt(int64(n), 10)
}

func roundFloat(f float64, precision, bitSize int) float64 {
	if precision <= 0 {
		return f
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(f, 'g', precision, bitSize), bitSize)
	if err != nil {
		return f
	}
	return r
}
