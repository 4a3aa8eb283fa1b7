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

package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/apache/arrow/go/v17/arrow"
	"github.com/apache/arrow/go/v17/arrow/memory"
	"go.uber.org/zap"
	"google.golang.org/protobuf/reflect/protoreflect"

	integrations "github.com/arrowarc/protoarc/integrations/filesystem"
	"github.com/arrowarc/protoarc/internal/interfaces"
	"github.com/arrowarc/protoarc/pkg/arrowproto"
	"github.com/arrowarc/protoarc/pkg/common/config"
	"github.com/arrowarc/protoarc/pkg/pipeline"
	"github.com/arrowarc/protoarc/pkg/protoload"
)

// LoadMessage resolves the configured message descriptor.
func LoadMessage(ctx context.Context, cfg *config.Config) (protoreflect.MessageDescriptor, error) {
	if cfg.Proto.DescriptorSet != "" {
		files, err := protoload.FromDescriptorSet(cfg.Proto.DescriptorSet)
		if err != nil {
			return nil, err
		}
		return protoload.FindMessage(files, cfg.Proto.Message)
	}
	files, err := protoload.Compile(ctx, cfg.Proto.ImportPaths, cfg.Proto.Files...)
	if err != nil {
		return nil, err
	}
	return protoload.FindMessage(files, cfg.Proto.Message)
}

// Schema derives the arrow schema of the configured message.
func Schema(ctx context.Context, cfg *config.Config, conv *arrowproto.Converter) (*arrow.Schema, error) {
	md, err := LoadMessage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return conv.ArrowSchema(md, &cfg.Options)
}

// DecodeFile reads serialized messages from the first column of an IPC file and
// writes their decoded rows in the configured output format.
func DecodeFile(ctx context.Context, cfg *config.Config, conv *arrowproto.Converter, logger *zap.Logger, inPath, outPath string) (*pipeline.Metrics, error) {
	md, err := LoadMessage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	transform := func(_ context.Context, mem memory.Allocator, rec arrow.Record) (arrow.Record, error) {
		return conv.RecordFromProtobuf(mem, rec, md, &cfg.Options, cfg.Settings.Expanded)
	}
	return run(ctx, cfg, logger, inPath, outPath, cfg.Settings.OutputFormat, transform)
}

// EncodeFile reads struct rows from an IPC file and writes an IPC file with a
// single binary column of serialized messages. The output format setting only
// applies to DecodeFile.
func EncodeFile(ctx context.Context, cfg *config.Config, conv *arrowproto.Converter, logger *zap.Logger, inPath, outPath string) (*pipeline.Metrics, error) {
	md, err := LoadMessage(ctx, cfg)
	if err != nil {
		return nil, err
	}
	transform := func(_ context.Context, mem memory.Allocator, rec arrow.Record) (arrow.Record, error) {
		return conv.RecordToProtobuf(mem, rec, md, &cfg.Options, cfg.Settings.Expanded)
	}
	return run(ctx, cfg, logger, inPath, outPath, config.FormatIPC, transform)
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, inPath, outPath, format string, transform interfaces.Transform) (*pipeline.Metrics, error) {
	if inPath == "" {
		return nil, errors.New("input file path cannot be empty")
	}
	if outPath == "" {
		return nil, errors.New("output file path cannot be empty")
	}

	reader, err := integrations.NewIPCReader(inPath, memory.DefaultAllocator)
	if err != nil {
		return nil, fmt.Errorf("failed to create IPC reader for file '%s': %w", inPath, err)
	}

	writer, err := newWriter(format, outPath)
	if err != nil {
		reader.Close()
		return nil, fmt.Errorf("failed to create writer for file '%s': %w", outPath, err)
	}

	metrics, err := pipeline.NewDataPipeline(reader, writer,
		pipeline.WithTransform(transform),
		pipeline.WithWorkers(cfg.Settings.Workers),
		pipeline.WithLogger(logger),
	).Start(ctx)
	if err != nil {
		return metrics, fmt.Errorf("failed to convert '%s': %w", inPath, err)
	}
	return metrics, nil
}

func newWriter(format, path string) (interfaces.Writer, error) {
	switch format {
	case config.FormatParquet:
		return integrations.NewParquetWriter(path, nil)
	case config.FormatJSONLines:
		return integrations.NewJSONLinesWriter(path)
	case config.FormatIPC, "":
		return integrations.NewIPCWriter(path, nil, memory.DefaultAllocator)
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
