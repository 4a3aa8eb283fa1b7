package arrowproto

import (
	"errors"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"google.golang.org/protobuf/reflect/protoreflect"

	"github.com/arrowarc/protoarc/pkg/column"
)

// ValueColumn names the single column of packed records.
const ValueColumn = "value"

var errEmptyRecord = errors.New("record has no columns")

// FromProtobuf decodes a binary column of serialized md messages into a column of
// the type returned by Schema. Null rows stay null.
func (c *Converter) FromProtobuf(mem memory.Allocator, col arrow.Array, md protoreflect.MessageDescriptor, opts *Options) (arrow.Array, error) {
	dt, err := c.Schema(md, opts)
	if err != nil {
		return nil, err
	}
	decode := c.Decoder(md, opts)
	return column.Map(mem, col, dt, func(_ int, v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		b, ok := v.([]byte)
		if !ok {
			return nil, fmt.Errorf("%w: expected serialized message, got %T", ErrTypeCoercion, v)
		}
		return decode(b)
	})
}

// ToProtobuf serializes every row of col, a column shaped like Schema(md), into
// a binary column. Null rows stay null.
func (c *Converter) ToProtobuf(mem memory.Allocator, col arrow.Array, md protoreflect.MessageDescriptor, opts *Options) (arrow.Array, error) {
	encode := c.Encoder(md, opts)
	return column.Map(mem, col, arrow.BinaryTypes.Binary, func(_ int, v any) (any, error) {
		if v == nil {
			return nil, nil
		}
		return encode(v)
	})
}

// RecordFromProtobuf decodes the first column of rec. The result holds a single
// struct column named "value", or one column per message field when expanded.
func (c *Converter) RecordFromProtobuf(mem memory.Allocator, rec arrow.Record, md protoreflect.MessageDescriptor, opts *Options, expanded bool) (arrow.Record, error) {
	if rec.NumCols() == 0 {
		return nil, errEmptyRecord
	}
	arr, err := c.FromProtobuf(mem, rec.Column(0), md, opts)
	if err != nil {
		return nil, err
	}
	defer arr.Release()

	if st, ok := arr.(*array.Struct); ok && expanded {
		stType := st.DataType().(*arrow.StructType)
		cols := make([]arrow.Array, st.NumField())
		for i := range cols {
			cols[i] = st.Field(i)
		}
		return array.NewRecord(arrow.NewSchema(stType.Fields(), nil), cols, rec.NumRows()), nil
	}
	schema := arrow.NewSchema([]arrow.Field{{Name: ValueColumn, Type: arr.DataType(), Nullable: true}}, nil)
	return array.NewRecord(schema, []arrow.Array{arr}, rec.NumRows()), nil
}

// RecordToProtobuf serializes rec into a record with a single binary column named
// "value". When expanded, the columns of rec are the message fields; otherwise
// the first column holds the messages.
func (c *Converter) RecordToProtobuf(mem memory.Allocator, rec arrow.Record, md protoreflect.MessageDescriptor, opts *Options, expanded bool) (arrow.Record, error) {
	if rec.NumCols() == 0 {
		return nil, errEmptyRecord
	}
	col := rec.Column(0)
	if expanded {
		names := make([]string, rec.NumCols())
		for i := range names {
			names[i] = rec.ColumnName(i)
		}
		packed, err := array.NewStructArray(rec.Columns(), names)
		if err != nil {
			return nil, fmt.Errorf("pack columns: %w", err)
		}
		defer packed.Release()
		col = packed
	}

	arr, err := c.ToProtobuf(mem, col, md, opts)
	if err != nil {
		return nil, err
	}
	defer arr.Release()

	schema := arrow.NewSchema([]arrow.Field{{Name: ValueColumn, Type: arrow.BinaryTypes.Binary, Nullable: true}}, nil)
	return array.NewRecord(schema, []arrow.Array{arr}, rec.NumRows()), nil
}
