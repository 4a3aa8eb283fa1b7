package integrations

import (
	"bufio"
	"fmt"
	"os"

	"github.com/apache/arrow/go/v17/arrow"

	"github.com/arrowarc/protoarc/internal/json"
)

// JSONLinesWriter writes one JSON object per row.
type JSONLinesWriter struct {
	f   *os.File
	buf *bufio.Writer
	enc *json.Encoder
}

func NewJSONLinesWriter(filePath string) (*JSONLinesWriter, error) {
	f, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create JSON file: %w", err)
	}
	buf := bufio.NewWriter(f)
	return &JSONLinesWriter{f: f, buf: buf, enc: json.NewEncoder(buf)}, nil
}

func (w *JSONLinesWriter) Write(rec arrow.Record) error {
	schema := rec.Schema()
	cols := rec.Columns()
	for row := 0; row < int(rec.NumRows()); row++ {
		obj := make(map[string]any, len(cols))
		for i, col := range cols {
			obj[schema.Field(i).Name] = col.GetOneForMarshal(row)
		}
		if err := w.enc.Encode(obj); err != nil {
			return fmt.Errorf("error writing JSON row %d: %w", row, err)
		}
	}
	return nil
}

func (w *JSONLinesWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}
