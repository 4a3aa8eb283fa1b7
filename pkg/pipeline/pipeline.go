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

// Package pipeline streams arrow records from a reader through a transform into
// a writer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arrowarc/protoarc/internal/interfaces"
	"github.com/arrowarc/protoarc/internal/json"
	mempool "github.com/arrowarc/protoarc/internal/memory"
)

// Metrics stores pipeline processing metrics
type Metrics struct {
	sync.Mutex
	RecordsProcessed int
	RowsProcessed    int64
	StartTime        time.Time
	EndTime          time.Time
}

func (m *Metrics) add(rec arrow.Record) {
	m.Lock()
	defer m.Unlock()
	m.RecordsProcessed++
	m.RowsProcessed += rec.NumRows()
}

// Duration returns the total duration of the pipeline
func (m *Metrics) Duration() time.Duration {
	m.Lock()
	defer m.Unlock()
	return m.EndTime.Sub(m.StartTime)
}

// Report generates a JSON summary of the collected metrics
func (m *Metrics) Report() string {
	duration := m.Duration()

	m.Lock()
	defer m.Unlock()

	report := struct {
		RecordsProcessed int       `json:"records_processed"`
		RowsProcessed    int64     `json:"rows_processed"`
		StartTime        time.Time `json:"start_time"`
		EndTime          time.Time `json:"end_time"`
		TotalDuration    string    `json:"total_duration"`
		RowsPerSecond    float64   `json:"rows_per_second"`
	}{
		RecordsProcessed: m.RecordsProcessed,
		RowsProcessed:    m.RowsProcessed,
		StartTime:        m.StartTime,
		EndTime:          m.EndTime,
		TotalDuration:    duration.String(),
	}
	if duration > 0 {
		report.RowsPerSecond = float64(m.RowsProcessed) / duration.Seconds()
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Sprintf("Error generating report: %v", err)
	}
	return string(data)
}

// Option configures a DataPipeline.
type Option func(*DataPipeline)

// WithTransform sets the function applied to every record. Without one, records
// are copied through unchanged.
func WithTransform(fn interfaces.Transform) Option {
	return func(dp *DataPipeline) {
		dp.transform = fn
	}
}

// WithWorkers sets how many records are transformed concurrently. Output order
// always matches input order.
func WithWorkers(n int) Option {
	return func(dp *DataPipeline) {
		if n > 0 {
			dp.workers = n
		}
	}
}

// WithAllocator makes every transform use mem instead of pooled allocators.
func WithAllocator(mem memory.Allocator) Option {
	return func(dp *DataPipeline) {
		dp.mem = mem
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(dp *DataPipeline) {
		dp.logger = logger
	}
}

// DataPipeline defines the structure for a data processing pipeline
type DataPipeline struct {
	reader    interfaces.Reader
	writer    interfaces.Writer
	transform interfaces.Transform
	workers   int
	mem       memory.Allocator
	pool      mempool.Pool
	logger    *zap.Logger
	metrics   *Metrics
}

// NewDataPipeline creates a new DataPipeline instance
func NewDataPipeline(reader interfaces.Reader, writer interfaces.Writer, opts ...Option) *DataPipeline {
	dp := &DataPipeline{
		reader:    reader,
		writer:    writer,
		transform: passthrough,
		workers:   1,
		logger:    zap.NewNop(),
		metrics:   &Metrics{},
	}
	for _, opt := range opts {
		opt(dp)
	}
	return dp
}

func passthrough(_ context.Context, _ memory.Allocator, rec arrow.Record) (arrow.Record, error) {
	rec.Retain()
	return rec, nil
}

type job struct {
	rec arrow.Record
	out chan arrow.Record
}

// Start runs the pipeline to completion and closes both ends. The first error
// from reading, transforming or writing cancels the rest.
func (dp *DataPipeline) Start(ctx context.Context) (*Metrics, error) {
	dp.metrics.StartTime = time.Now()

	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan job)
	pending := make(chan chan arrow.Record, dp.workers)

	g.Go(func() error {
		defer close(jobs)
		defer close(pending)
		return dp.startReader(ctx, jobs, pending)
	})
	for i := 0; i < dp.workers; i++ {
		g.Go(func() error {
			return dp.startWorker(ctx, jobs, cancel)
		})
	}
	g.Go(func() error {
		return dp.startWriter(pending, cancel)
	})

	err := g.Wait()
	if err == nil {
		err = parent.Err()
	}
	err = errors.Join(err, dp.writer.Close(), dp.reader.Close())

	dp.metrics.Lock()
	dp.metrics.EndTime = time.Now()
	dp.metrics.Unlock()
	dp.logger.Info("pipeline finished",
		zap.Int("records", dp.metrics.RecordsProcessed),
		zap.Int64("rows", dp.metrics.RowsProcessed),
		zap.Duration("duration", dp.metrics.Duration()),
		zap.Error(err))
	return dp.metrics, err
}

// startReader hands every record to the workers and queues the slot its result
// will arrive on, so the writer sees results in read order. Every queued slot is
// eventually closed, by a worker or here when dispatch is abandoned. Cancellation
// is not reported here; whoever cancelled holds the error.
func (dp *DataPipeline) startReader(ctx context.Context, jobs chan<- job, pending chan<- chan arrow.Record) error {
	for {
		if ctx.Err() != nil {
			return nil
		}
		rec, err := dp.reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read record: %w", err)
		}

		j := job{rec: rec, out: make(chan arrow.Record, 1)}
		select {
		case pending <- j.out:
		case <-ctx.Done():
			rec.Release()
			return nil
		}
		select {
		case jobs <- j:
		case <-ctx.Done():
			rec.Release()
			close(j.out)
			return nil
		}
	}
}

func (dp *DataPipeline) startWorker(ctx context.Context, jobs <-chan job, cancel context.CancelFunc) error {
	var failed error
	for j := range jobs {
		if failed != nil || ctx.Err() != nil {
			j.rec.Release()
			close(j.out)
			continue
		}
		out, err := dp.apply(ctx, j.rec)
		if err != nil {
			failed = fmt.Errorf("transform record: %w", err)
			cancel()
		} else {
			j.out <- out
		}
		close(j.out)
	}
	return failed
}

func (dp *DataPipeline) apply(ctx context.Context, rec arrow.Record) (arrow.Record, error) {
	defer rec.Release()
	mem := dp.mem
	if mem == nil {
		mem = dp.pool.Get()
		defer dp.pool.Put(mem)
	}
	return dp.transform(ctx, mem, rec)
}

// startWriter consumes result slots in order until the reader closes pending.
// After a failure it keeps draining so that no result is left unreleased.
func (dp *DataPipeline) startWriter(pending <-chan chan arrow.Record, cancel context.CancelFunc) error {
	var failed error
	for out := range pending {
		rec, ok := <-out
		if !ok {
			continue
		}
		if failed == nil {
			if err := dp.writer.Write(rec); err != nil {
				failed = fmt.Errorf("write record: %w", err)
				cancel()
			} else {
				dp.metrics.add(rec)
			}
		}
		rec.Release()
	}
	return failed
}
