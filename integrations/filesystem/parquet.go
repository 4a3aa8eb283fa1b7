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

package integrations

import (
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"github.com/apache/arrow/go/v17/parquet"
	"github.com/apache/arrow/go/v17/parquet/compress"
	"github.com/apache/arrow/go/v17/parquet/pqarrow"
)

type ParquetWriteOptions struct {
	Compression       compress.Compression
	MaxRowGroupLength int64
	WriterAllocator   memory.Allocator
}

func NewDefaultParquetWriteOptions() *ParquetWriteOptions {
	return &ParquetWriteOptions{
		Compression:       compress.Codecs.Snappy,
		MaxRowGroupLength: 128 * 1024 * 1024,
		WriterAllocator:   memory.NewGoAllocator(),
	}
}

// ParquetWriter writes records to a Parquet file, opening the file writer with
// the schema of the first record.
type ParquetWriter struct {
	f    *os.File
	opts *ParquetWriteOptions
	fw   *pqarrow.FileWriter
}

func NewParquetWriter(filePath string, opts *ParquetWriteOptions) (*ParquetWriter, error) {
	if opts == nil {
		opts = NewDefaultParquetWriteOptions()
	}
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &ParquetWriter{f: f, opts: opts}, nil
}

func (w *ParquetWriter) open(schema *arrow.Schema) error {
	props := parquet.NewWriterProperties(
		parquet.WithAllocator(w.opts.WriterAllocator),
		parquet.WithCompression(w.opts.Compression),
		parquet.WithMaxRowGroupLength(w.opts.MaxRowGroupLength),
	)
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(w.opts.WriterAllocator),
		pqarrow.WithStoreSchema(),
	)
	fw, err := pqarrow.NewFileWriter(schema, w.f, props, arrowProps)
	if err != nil {
		return fmt.Errorf("failed to create Parquet writer: %w", err)
	}
	w.fw = fw
	return nil
}

func (w *ParquetWriter) Write(rec arrow.Record) error {
	if w.fw == nil {
		if err := w.open(rec.Schema()); err != nil {
			return err
		}
	}
	if err := w.fw.Write(rec); err != nil {
		return fmt.Errorf("failed to write record to Parquet file: %w", err)
	}
	return nil
}

// Close closes the file writer, which also closes the file.
func (w *ParquetWriter) Close() error {
	if w.fw == nil {
		return w.f.Close()
	}
	if err := w.fw.Close(); err != nil {
		return fmt.Errorf("failed to close Parquet writer: %w", err)
	}
	return nil
}
