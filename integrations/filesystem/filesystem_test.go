package integrations

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrowarc/protoarc/internal/json"
)

func createExampleRecord(t *testing.T, mem memory.Allocator) arrow.Record {
	t.Helper()
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64, Nullable: false},
		{Name: "payload", Type: arrow.BinaryTypes.Binary, Nullable: true},
		{Name: "tags", Type: arrow.ListOf(arrow.BinaryTypes.String), Nullable: true},
	}, nil)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()

	b.Field(0).(*array.Int64Builder).AppendValues([]int64{1, 2}, nil)
	b.Field(1).(*array.BinaryBuilder).AppendValues([][]byte{[]byte("a"), nil}, []bool{true, false})
	tags := b.Field(2).(*array.ListBuilder)
	tags.Append(true)
	tags.ValueBuilder().(*array.StringBuilder).Append("x")
	tags.AppendNull()

	return b.NewRecord()
}

func TestIPCRoundTrip(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := createExampleRecord(t, mem)
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "example.arrows")
	w, err := NewIPCWriter(path, nil, mem)
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	r, err := NewIPCReader(path, mem)
	require.NoError(t, err)
	defer r.Close()
	assert.True(t, r.Schema().Equal(rec.Schema()))

	var rows int64
	for {
		got, err := r.Read()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		assert.True(t, array.RecordEqual(rec, got))
		rows += got.NumRows()
		got.Release()
	}
	assert.Equal(t, int64(4), rows)
}

func TestParquetWriter(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := createExampleRecord(t, mem)
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "example.parquet")
	w, err := NewParquetWriter(path, nil)
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	rdr, err := file.OpenParquetFile(path, false)
	require.NoError(t, err)
	defer rdr.Close()
	assert.Equal(t, int64(2), rdr.NumRows())
}

func TestJSONLinesWriter(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	rec := createExampleRecord(t, mem)
	defer rec.Release()

	path := filepath.Join(t.TempDir(), "example.jsonl")
	w, err := NewJSONLinesWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(rec))
	require.NoError(t, w.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var rows []map[string]any
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var row map[string]any
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &row))
		rows = append(rows, row)
	}
	require.NoError(t, scanner.Err())
	require.Len(t, rows, 2)
	assert.Equal(t, float64(1), rows[0]["id"])
	assert.Equal(t, []any{"x"}, rows[0]["tags"])
	assert.Nil(t, rows[1]["payload"])
}
