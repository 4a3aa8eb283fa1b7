package interfaces

import (
	"context"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
)

// Reader yields records until it returns io.EOF.
type Reader interface {
	Schema() *arrow.Schema
	Read() (arrow.Record, error)
	Close() error
}

type Writer interface {
	Write(arrow.Record) error
	Close() error
}

// Transform turns one record into another. Implementations must not retain the
// input record.
type Transform func(ctx context.Context, mem memory.Allocator, rec arrow.Record) (arrow.Record, error)
