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
	"io"
	"os"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/ipc"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// IPCReader reads records from an Arrow IPC stream file.
type IPCReader struct {
	f   *os.File
	rdr *ipc.Reader
}

func NewIPCReader(filePath string, mem memory.Allocator) (*IPCReader, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open IPC file: %w", err)
	}

	rdr, err := ipc.NewReader(f, ipc.WithAllocator(mem))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create IPC reader: %w", err)
	}
	return &IPCReader{f: f, rdr: rdr}, nil
}

func (r *IPCReader) Schema() *arrow.Schema {
	return r.rdr.Schema()
}

// Read returns the next record, retained for the caller, or io.EOF.
func (r *IPCReader) Read() (arrow.Record, error) {
	if !r.rdr.Next() {
		if err := r.rdr.Err(); err != nil && err != io.EOF {
			return nil, fmt.Errorf("error reading IPC file: %w", err)
		}
		return nil, io.EOF
	}
	rec := r.rdr.Record()
	rec.Retain()
	return rec, nil
}

func (r *IPCReader) Close() error {
	r.rdr.Release()
	return r.f.Close()
}

// IPCWriter writes records to an Arrow IPC stream file. Without a schema, the
// schema of the first record is used.
type IPCWriter struct {
	f      *os.File
	mem    memory.Allocator
	schema *arrow.Schema
	w      *ipc.Writer
}

func NewIPCWriter(filePath string, schema *arrow.Schema, mem memory.Allocator) (*IPCWriter, error) {
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("could not create file: %w", err)
	}
	w := &IPCWriter{f: f, mem: mem, schema: schema}
	if schema != nil {
		w.open(schema)
	}
	return w, nil
}

func (w *IPCWriter) open(schema *arrow.Schema) {
	w.schema = schema
	w.w = ipc.NewWriter(w.f, ipc.WithAllocator(w.mem), ipc.WithSchema(schema))
}

func (w *IPCWriter) Write(rec arrow.Record) error {
	if w.w == nil {
		w.open(rec.Schema())
	}
	if err := w.w.Write(rec); err != nil {
		return fmt.Errorf("could not write record: %w", err)
	}
	return nil
}

func (w *IPCWriter) Close() error {
	if w.w != nil {
		if err := w.w.Close(); err != nil {
			w.f.Close()
			return fmt.Errorf("could not close writer: %w", err)
		}
	}
	return w.f.Close()
}
