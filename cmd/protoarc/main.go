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

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/docopt/docopt-go"
	"go.uber.org/zap"

	"github.com/arrowarc/protoarc/convert"
	"github.com/arrowarc/protoarc/pkg/arrowproto"
	"github.com/arrowarc/protoarc/pkg/common/config"
)

const usage = `ProtoArc: protobuf messages to and from Arrow columns.

Usage:
  protoarc schema [options] [<message>]
  protoarc decode [options] <input> <output> [<message>]
  protoarc encode [options] <input> <output> [<message>]
  protoarc validate --config=<config_file>
  protoarc -h | --help

Options:
  -h --help                   Show this screen.
  --config=<config_file>      YAML configuration file; flags override its values.
  --proto=<files>             Comma-separated .proto files to compile.
  --import-path=<paths>       Comma-separated import paths for --proto.
  --descriptor-set=<file>     Serialized FileDescriptorSet to load instead of --proto.
  --format=<format>           Output format for decode: ipc, parquet or jsonl. Encode always writes ipc.
  --workers=<n>               Number of records converted concurrently.
  --expanded                  One column per message field instead of a struct column.
  --preserve-names            Name columns after declared field names, not JSON names.
  --ignore-deprecated         Drop deprecated fields.
  --ignore-circular           Drop self-referential fields instead of failing.
  --include-defaults          Emit unpopulated fields with their default values.
  --enum-ints                 Render enums as numbers.
  --ignore-unknown            Drop input keys with no matching field.
  --log-level=<level>         Log level: debug, info, warn or error.
`

func main() {
	arguments, err := docopt.ParseDoc(usage)
	if err != nil {
		log.Fatalf("Error parsing arguments: %v", err)
	}

	cfg, err := loadConfig(arguments)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if validate, _ := arguments.Bool("validate"); validate {
		if err := cfg.Validate(); err != nil {
			log.Fatalf("Configuration validation failed: %v", err)
		}
		fmt.Println("Configuration is valid.")
		return
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	logger, err := cfg.Settings.Logger()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	conv := arrowproto.NewConverter(arrowproto.WithLogger(logger))
	input, _ := arguments.String("<input>")
	output, _ := arguments.String("<output>")

	switch {
	case isSet(arguments, "schema"):
		schema, err := convert.Schema(ctx, cfg, conv)
		if err != nil {
			logger.Fatal("failed to derive schema", zap.Error(err))
		}
		fmt.Println(schema)
	case isSet(arguments, "decode"):
		metrics, err := convert.DecodeFile(ctx, cfg, conv, logger, input, output)
		if err != nil {
			logger.Fatal("decode failed", zap.Error(err))
		}
		fmt.Println(metrics.Report())
	case isSet(arguments, "encode"):
		metrics, err := convert.EncodeFile(ctx, cfg, conv, logger, input, output)
		if err != nil {
			logger.Fatal("encode failed", zap.Error(err))
		}
		fmt.Println(metrics.Report())
	}
}

func isSet(arguments docopt.Opts, key string) bool {
	v, _ := arguments.Bool(key)
	return v
}

// loadConfig reads --config when given and applies the command-line flags over it.
func loadConfig(arguments docopt.Opts) (*config.Config, error) {
	cfg := config.Default()
	if path, err := arguments.String("--config"); err == nil && path != "" {
		if cfg, err = config.ParseConfig(path); err != nil {
			return nil, err
		}
	}

	if v, err := arguments.String("<message>"); err == nil && v != "" {
		cfg.Proto.Message = v
	}
	if v, err := arguments.String("--proto"); err == nil && v != "" {
		cfg.Proto.Files = splitList(v)
	}
	if v, err := arguments.String("--import-path"); err == nil && v != "" {
		cfg.Proto.ImportPaths = splitList(v)
	}
	if v, err := arguments.String("--descriptor-set"); err == nil && v != "" {
		cfg.Proto.DescriptorSet = v
	}
	if v, err := arguments.String("--format"); err == nil && v != "" {
		cfg.Settings.OutputFormat = v
	}
	if v, err := arguments.String("--log-level"); err == nil && v != "" {
		cfg.Settings.LogLevel = v
	}
	if _, err := arguments.String("--workers"); err == nil {
		n, err := arguments.Int("--workers")
		if err != nil {
			return nil, fmt.Errorf("--workers: %w", err)
		}
		cfg.Settings.Workers = n
	}

	flags := map[string]*bool{
		"--expanded":          &cfg.Settings.Expanded,
		"--preserve-names":    &cfg.Options.PreservingProtoFieldName,
		"--ignore-deprecated": &cfg.Options.IgnoreDeprecated,
		"--ignore-circular":   &cfg.Options.IgnoreCircularDefinitions,
		"--include-defaults":  &cfg.Options.IncludingDefaultValueFields,
		"--enum-ints":         &cfg.Options.UseIntegersForEnums,
		"--ignore-unknown":    &cfg.Options.IgnoreUnknownFields,
	}
	for flag, dst := range flags {
		if isSet(arguments, flag) {
			*dst = true
		}
	}
	return cfg, nil
}

func splitList(input string) []string {
	var out []string
	for _, s := range strings.Split(input, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
