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

// Package column moves native Go values in and out of arrow arrays and applies
// per-row functions to whole columns.
package column

import (
	"bytes"
	"fmt"
	"math"
	"reflect"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/decimal128"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Func converts the value of one row. Returning nil produces a null row.
type Func func(row int, v any) (any, error)

// Map applies fn to every row of arr and builds a new array of type dt from the
// results. Null input rows are passed to fn as nil.
func Map(mem memory.Allocator, arr arrow.Array, dt arrow.DataType, fn Func) (arrow.Array, error) {
	b := array.NewBuilder(mem, dt)
	defer b.Release()
	b.Reserve(arr.Len())

	for i := 0; i < arr.Len(); i++ {
		out, err := fn(i, Value(arr, i))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		if err := Append(b, out); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return b.NewArray(), nil
}

// Build creates an array of type dt holding values.
func Build(mem memory.Allocator, dt arrow.DataType, values []any) (arrow.Array, error) {
	b := array.NewBuilder(mem, dt)
	defer b.Release()
	b.Reserve(len(values))

	for i, v := range values {
		if err := Append(b, v); err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return b.NewArray(), nil
}

// Append appends v to b, converting between Go numeric types where the value
// fits the column. Struct builders take map[string]any, list builders take a
// slice.
func Append(b array.Builder, v any) error {
	if v == nil {
		b.AppendNull()
		return nil
	}

	switch bldr := b.(type) {
	case *array.BooleanBuilder:
		bv, ok := v.(bool)
		if !ok {
			return typeError(v, b.Type())
		}
		bldr.Append(bv)
	case *array.Int32Builder:
		n, err := asInt64(v, b.Type())
		if err != nil {
			return err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return fmt.Errorf("column: value %d out of range for %s", n, b.Type())
		}
		bldr.Append(int32(n))
	case *array.Int64Builder:
		n, err := asInt64(v, b.Type())
		if err != nil {
			return err
		}
		bldr.Append(n)
	case *array.Uint32Builder:
		n, err := asUint64(v, b.Type())
		if err != nil {
			return err
		}
		if n > math.MaxUint32 {
			return fmt.Errorf("column: value %d out of range for %s", n, b.Type())
		}
		bldr.Append(uint32(n))
	case *array.Uint64Builder:
		n, err := asUint64(v, b.Type())
		if err != nil {
			return err
		}
		bldr.Append(n)
	case *array.Float32Builder:
		f, err := asFloat64(v, b.Type())
		if err != nil {
			return err
		}
		bldr.Append(float32(f))
	case *array.Float64Builder:
		f, err := asFloat64(v, b.Type())
		if err != nil {
			return err
		}
		bldr.Append(f)
	case *array.StringBuilder:
		s, ok := v.(string)
		if !ok {
			return typeError(v, b.Type())
		}
		bldr.Append(s)
	case *array.BinaryBuilder:
		switch o := v.(type) {
		case []byte:
			bldr.Append(o)
		case *bytes.Buffer:
			bldr.Append(o.Bytes())
		case string:
			bldr.AppendString(o)
		default:
			return typeError(v, b.Type())
		}
	case *array.TimestampBuilder:
		unit := b.Type().(*arrow.TimestampType).Unit
		switch o := v.(type) {
		case time.Time:
			bldr.Append(timestampOf(o, unit))
		case arrow.Timestamp:
			bldr.Append(o)
		default:
			return typeError(v, b.Type())
		}
	case *array.Decimal128Builder:
		dt := b.Type().(*arrow.Decimal128Type)
		switch o := v.(type) {
		case decimal128.Num:
			bldr.Append(o)
		case string:
			n, err := decimal128.FromString(o, dt.Precision, dt.Scale)
			if err != nil {
				return fmt.Errorf("column: %w", err)
			}
			bldr.Append(n)
		case float64:
			n, err := decimal128.FromFloat64(o, dt.Precision, dt.Scale)
			if err != nil {
				return fmt.Errorf("column: %w", err)
			}
			bldr.Append(n)
		default:
			return typeError(v, b.Type())
		}
	case *array.ListBuilder:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return typeError(v, b.Type())
		}
		bldr.Append(true)
		vb := bldr.ValueBuilder()
		for i := 0; i < rv.Len(); i++ {
			if err := Append(vb, rv.Index(i).Interface()); err != nil {
				return fmt.Errorf("list element [%d]: %w", i, err)
			}
		}
	case *array.StructBuilder:
		m, ok := v.(map[string]any)
		if !ok {
			return typeError(v, b.Type())
		}
		st := b.Type().(*arrow.StructType)
		for k := range m {
			if _, found := st.FieldIdx(k); !found {
				return fmt.Errorf("column: %s has no field %q", st, k)
			}
		}
		bldr.Append(true)
		for i, f := range st.Fields() {
			if err := Append(bldr.FieldBuilder(i), m[f.Name]); err != nil {
				return fmt.Errorf("struct field %s: %w", f.Name, err)
			}
		}
	default:
		return fmt.Errorf("column: unsupported builder %T for %s", b, b.Type())
	}
	return nil
}

// Value returns the value at row as a native Go value: structs become
// map[string]any, lists []any, and binary values are copied out of the array.
func Value(arr arrow.Array, row int) any {
	if arr.IsNull(row) {
		return nil
	}

	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(row)
	case *array.Int8:
		return int32(a.Value(row))
	case *array.Int16:
		return int32(a.Value(row))
	case *array.Int32:
		return a.Value(row)
	case *array.Int64:
		return a.Value(row)
	case *array.Uint32:
		return int64(a.Value(row))
	case *array.Uint64:
		return a.Value(row)
	case *array.Float32:
		return a.Value(row)
	case *array.Float64:
		return a.Value(row)
	case *array.String:
		return a.Value(row)
	case *array.Binary:
		return bytes.Clone(a.Value(row))
	case *array.Timestamp:
		return a.Value(row).ToTime(a.DataType().(*arrow.TimestampType).Unit).UTC()
	case *array.Decimal128:
		return a.Value(row)
	case *array.List:
		start, end := a.ValueOffsets(row)
		values := a.ListValues()
		out := make([]any, 0, end-start)
		for i := start; i < end; i++ {
			out = append(out, Value(values, int(i)))
		}
		return out
	case *array.Struct:
		st := a.DataType().(*arrow.StructType)
		out := make(map[string]any, a.NumField())
		for i := 0; i < a.NumField(); i++ {
			if v := Value(a.Field(i), row); v != nil {
				out[st.Field(i).Name] = v
			}
		}
		return out
	default:
		return arr.GetOneForMarshal(row)
	}
}

func timestampOf(t time.Time, unit arrow.TimeUnit) arrow.Timestamp {
	switch unit {
	case arrow.Second:
		return arrow.Timestamp(t.Unix())
	case arrow.Millisecond:
		return arrow.Timestamp(t.UnixMilli())
	case arrow.Microsecond:
		return arrow.Timestamp(t.UnixMicro())
	default:
		return arrow.Timestamp(t.UnixNano())
	}
}

func asInt64(v any, dt arrow.DataType) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("column: value %d out of range for %s", n, dt)
		}
		return int64(n), nil
	}
	return 0, typeError(v, dt)
}

func asUint64(v any, dt arrow.DataType) (uint64, error) {
	if n, ok := v.(uint64); ok {
		return n, nil
	}
	n, err := asInt64(v, dt)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("column: value %d out of range for %s", n, dt)
	}
	return uint64(n), nil
}

func asFloat64(v any, dt arrow.DataType) (float64, error) {
	switch f := v.(type) {
	case float32:
		return float64(f), nil
	case float64:
		return f, nil
	}
	n, err := asInt64(v, dt)
	if err != nil {
		return 0, err
	}
	return float64(n), nil
}

func typeError(v any, dt arrow.DataType) error {
	return fmt.Errorf("column: cannot append %T to %s", v, dt)
}
