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
	"slices"
	"strconv"

	"github.com/huandu/xstrings"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// ParseMap populates m from a mapping produced by MessageToMap, or any mapping of
// the same shape. Bytes fields take []byte or *bytes.Buffer values directly.
// Repeated fields must be []any and messages map[string]any; typed slices and
// maps such as []string are rejected, unlike column.Append. On error m is reset
// so that no partially populated message escapes.
func (c *Converter) ParseMap(value any, m protoreflect.Message, opts *Options) error {
	p := &parser{reg: &c.reg, opts: opts.orDefault()}
	if err := p.message(value, m, string(m.Descriptor().FullName())); err != nil {
		proto.Reset(m.Interface())
		return err
	}
	return nil
}

type parser struct {
	reg   *registry
	opts  *Options
	depth int
}

func (p *parser) message(value any, m protoreflect.Message, path string) error {
	md := m.Descriptor()
	if fn, ok := p.reg.deserializer(md.FullName()); ok {
		if err := fn(value, m, path); err != nil {
			return newConversionError(path, err)
		}
		return nil
	}

	p.depth++
	defer func() { p.depth-- }()
	if limit := p.opts.maxDepth(); p.depth > limit {
		return newConversionError(path, fmt.Errorf("%w: exceeds depth %d", ErrRecursionLimit, limit))
	}

	if _, ok := wellKnownType(md.FullName()); ok {
		if err := parseWellKnown(value, m, p.opts); err != nil {
			return newConversionError(path, err)
		}
		return nil
	}

	fields, ok := value.(map[string]any)
	if !ok {
		return newConversionError(path, coercionErrorf("cannot convert %T to message %s", value, md.FullName()))
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	set := make(map[protoreflect.FieldNumber]bool, len(keys))
	for _, key := range keys {
		v := fields[key]
		if v == nil {
			continue
		}
		fieldPath := path + "." + key
		fd := lookupField(md, key)
		if fd == nil {
			if p.opts.IgnoreUnknownFields {
				continue
			}
			return newConversionError(fieldPath, fmt.Errorf("%w: message %s has no field %q", ErrUnknownField, md.FullName(), key))
		}
		if p.opts.IgnoreDeprecated && isDeprecated(fd) {
			continue
		}
		if set[fd.Number()] {
			return newConversionError(fieldPath, coercionErrorf("field %s set more than once", fd.Name()))
		}
		if od := fd.ContainingOneof(); od != nil && !od.IsSynthetic() {
			if other := m.WhichOneof(od); other != nil && set[other.Number()] {
				return newConversionError(fieldPath, coercionErrorf("oneof %s already set by %s", od.Name(), other.Name()))
			}
		}
		set[fd.Number()] = true
		if err := p.field(fd, v, m, fieldPath); err != nil {
			return err
		}
	}
	return nil
}

func (p *parser) field(fd protoreflect.FieldDescriptor, value any, m protoreflect.Message, path string) error {
	switch {
	case fd.IsMap():
		return p.mapField(fd, value, m.Mutable(fd).Map(), path)
	case fd.IsList():
		items, ok := value.([]any)
		if !ok {
			return newConversionError(path, coercionErrorf("cannot convert %T to repeated field", value))
		}
		list := m.Mutable(fd).List()
		for i, item := range items {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				return newConversionError(itemPath, coercionErrorf("null element in repeated field %s", fd.Name()))
			}
			if isMessage(fd) {
				elem := list.NewElement()
				if err := p.message(item, elem.Message(), itemPath); err != nil {
					return err
				}
				list.Append(elem)
				continue
			}
			pv, err := coerceScalar(fd, item, p.opts)
			if err != nil {
				return newConversionError(itemPath, err)
			}
			if pv.IsValid() {
				list.Append(pv)
			}
		}
		return nil
	case isMessage(fd):
		nested := m.NewField(fd)
		if err := p.message(value, nested.Message(), path); err != nil {
			return err
		}
		m.Set(fd, nested)
		return nil
	default:
		pv, err := coerceScalar(fd, value, p.opts)
		if err != nil {
			return newConversionError(path, err)
		}
		if pv.IsValid() {
			m.Set(fd, pv)
		}
		return nil
	}
}

// mapField accepts both the entry list written by MessageToMap and a plain
// key/value object.
func (p *parser) mapField(fd protoreflect.FieldDescriptor, value any, mv protoreflect.Map, path string) error {
	keyFd, valFd := fd.MapKey(), fd.MapValue()
	switch v := value.(type) {
	case []any:
		for i, item := range v {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			entry, ok := item.(map[string]any)
			if !ok {
				return newConversionError(itemPath, coercionErrorf("cannot convert %T to map entry", item))
			}
			var k, ev any
			for name, x := range entry {
				switch lookupField(fd.Message(), name) {
				case keyFd:
					k = x
				case valFd:
					ev = x
				default:
					if !p.opts.IgnoreUnknownFields {
						return newConversionError(itemPath+"."+name, fmt.Errorf("%w: map entry has no field %q", ErrUnknownField, name))
					}
				}
			}
			if err := p.mapEntry(keyFd, valFd, k, ev, mv, itemPath); err != nil {
				return err
			}
		}
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			if err := p.mapEntry(keyFd, valFd, k, v[k], mv, path+"["+k+"]"); err != nil {
				return err
			}
		}
	case map[any]any:
		for k, ev := range v {
			if err := p.mapEntry(keyFd, valFd, k, ev, mv, fmt.Sprintf("%s[%v]", path, k)); err != nil {
				return err
			}
		}
	default:
		return newConversionError(path, coercionErrorf("cannot convert %T to map field", value))
	}
	return nil
}

func (p *parser) mapEntry(keyFd, valFd protoreflect.FieldDescriptor, key, value any, mv protoreflect.Map, path string) error {
	if key == nil {
		key = keyFd.Default().Interface()
	}
	if s, ok := key.(string); ok && keyFd.Kind() == protoreflect.BoolKind {
		b, err := strconv.ParseBool(s)
		if err != nil {
			return newConversionError(path, coercionErrorf("invalid bool map key %q", s))
		}
		key = b
	}
	kv, err := coerceScalar(keyFd, key, p.opts)
	if err != nil {
		return newConversionError(path, err)
	}
	mk := kv.MapKey()

	if isMessage(valFd) {
		nested := mv.NewValue()
		if value != nil {
			if err := p.message(value, nested.Message(), path); err != nil {
				return err
			}
		}
		mv.Set(mk, nested)
		return nil
	}
	if value == nil {
		mv.Set(mk, valFd.Default())
		return nil
	}
	pv, err := coerceScalar(valFd, value, p.opts)
	if err != nil {
		return newConversionError(path, err)
	}
	if pv.IsValid() {
		mv.Set(mk, pv)
	}
	return nil
}

// lookupField resolves a mapping key by JSON name, declared name, then the
// snake_case form of the key.
func lookupField(md protoreflect.MessageDescriptor, key string) protoreflect.FieldDescriptor {
	fields := md.Fields()
	if fd := fields.ByJSONName(key); fd != nil {
		return fd
	}
	if fd := fields.ByName(protoreflect.Name(key)); fd != nil {
		return fd
	}
	return fields.ByName(protoreflect.Name(xstrings.ToSnakeCase(key)))
}
