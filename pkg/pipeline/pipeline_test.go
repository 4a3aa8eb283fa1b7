package pipeline

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/array"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schema = arrow.NewSchema([]arrow.Field{{Name: "n", Type: arrow.PrimitiveTypes.Int64}}, nil)

type sliceReader struct {
	recs   []arrow.Record
	err    error
	closed bool
}

func (r *sliceReader) Schema() *arrow.Schema { return schema }

func (r *sliceReader) Read() (arrow.Record, error) {
	if len(r.recs) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		return nil, io.EOF
	}
	rec := r.recs[0]
	r.recs = r.recs[1:]
	return rec, nil
}

func (r *sliceReader) Close() error {
	r.closed = true
	for _, rec := range r.recs {
		rec.Release()
	}
	return nil
}

type collectingWriter struct {
	mu     sync.Mutex
	values []int64
	err    error
	closed bool
}

func (w *collectingWriter) Write(rec arrow.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.values = append(w.values, rec.Column(0).(*array.Int64).Int64Values()...)
	return nil
}

func (w *collectingWriter) Close() error {
	w.closed = true
	return nil
}

func makeRecords(mem memory.Allocator, n int) []arrow.Record {
	recs := make([]arrow.Record, n)
	for i := range recs {
		b := array.NewRecordBuilder(mem, schema)
		b.Field(0).(*array.Int64Builder).AppendValues([]int64{int64(i)}, nil)
		recs[i] = b.NewRecord()
		b.Release()
	}
	return recs
}

// double multiplies every value by two, sleeping longer for early records to
// shuffle completion order across workers.
func double(_ context.Context, mem memory.Allocator, rec arrow.Record) (arrow.Record, error) {
	values := rec.Column(0).(*array.Int64).Int64Values()
	time.Sleep(time.Duration(10-values[0]%10) * time.Millisecond)

	b := array.NewRecordBuilder(mem, schema)
	defer b.Release()
	for _, v := range values {
		b.Field(0).(*array.Int64Builder).Append(v * 2)
	}
	return b.NewRecord(), nil
}

func TestDataPipelinePreservesOrder(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	reader := &sliceReader{recs: makeRecords(mem, 20)}
	writer := &collectingWriter{}

	metrics, err := NewDataPipeline(reader, writer,
		WithTransform(double),
		WithWorkers(4),
		WithAllocator(mem),
	).Start(context.Background())
	require.NoError(t, err)

	want := make([]int64, 20)
	for i := range want {
		want[i] = int64(i * 2)
	}
	assert.Equal(t, want, writer.values)
	assert.Equal(t, 20, metrics.RecordsProcessed)
	assert.Equal(t, int64(20), metrics.RowsProcessed)
	assert.True(t, reader.closed)
	assert.True(t, writer.closed)
	assert.Contains(t, metrics.Report(), `"records_processed":20`)
}

func TestDataPipelinePassthrough(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	writer := &collectingWriter{}
	_, err := NewDataPipeline(&sliceReader{recs: makeRecords(mem, 3)}, writer).Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 1, 2}, writer.values)
}

func TestDataPipelineErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("reader", func(t *testing.T) {
		mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
		defer mem.AssertSize(t, 0)

		writer := &collectingWriter{}
		_, err := NewDataPipeline(&sliceReader{recs: makeRecords(mem, 2), err: boom}, writer).Start(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.True(t, writer.closed)
	})

	t.Run("transform", func(t *testing.T) {
		mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
		defer mem.AssertSize(t, 0)

		reader := &sliceReader{recs: makeRecords(mem, 1)}
		_, err := NewDataPipeline(reader, &collectingWriter{},
			WithTransform(func(context.Context, memory.Allocator, arrow.Record) (arrow.Record, error) {
				return nil, boom
			}),
		).Start(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.True(t, reader.closed)
	})

	t.Run("writer", func(t *testing.T) {
		mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
		defer mem.AssertSize(t, 0)

		reader := &sliceReader{recs: makeRecords(mem, 8)}
		_, err := NewDataPipeline(reader, &collectingWriter{err: boom}, WithWorkers(3)).Start(context.Background())
		assert.ErrorIs(t, err, boom)
		assert.True(t, reader.closed)
	})
}
