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

// Package config provides configuration utilities.
package config

import (
	"fmt"
	"os"
	"slices"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/arrowarc/protoarc/pkg/arrowproto"
)

// Output formats accepted by Settings.OutputFormat.
const (
	FormatIPC       = "ipc"
	FormatParquet   = "parquet"
	FormatJSONLines = "jsonl"
)

type Config struct {
	Version  string             `yaml:"version"`
	Proto    Proto              `yaml:"proto"`
	Options  arrowproto.Options `yaml:"options"`
	Settings Settings           `yaml:"settings"`
}

// Proto locates the message type. Either Files or DescriptorSet must be set.
type Proto struct {
	ImportPaths   []string `yaml:"import_paths"`
	Files         []string `yaml:"files"`
	DescriptorSet string   `yaml:"descriptor_set"`
	Message       string   `yaml:"message"`
}

type Settings struct {
	Workers      int    `yaml:"workers"`
	LogLevel     string `yaml:"log_level"`
	Expanded     bool   `yaml:"expanded"`
	OutputFormat string `yaml:"output_format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Version: "1",
		Settings: Settings{
			Workers:      1,
			LogLevel:     "info",
			OutputFormat: FormatIPC,
		},
	}
}

// ParseConfig reads a YAML file over the defaults.
func ParseConfig(configPath string) (*Config, error) {
	configFile, err := os.Open(configPath)
	if err != nil {
		return nil, err
	}
	defer configFile.Close()

	config := Default()
	decoder := yaml.NewDecoder(configFile)
	decoder.KnownFields(true)
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("parse %s: %w", configPath, err)
	}

	return config, nil
}

func (c *Config) Validate() error {
	if err := c.validateProto(); err != nil {
		return err
	}

	if err := c.validateOptions(); err != nil {
		return err
	}

	if err := c.validateSettings(); err != nil {
		return err
	}

	return nil
}

func (c *Config) validateProto() error {
	if c.Proto.Message == "" {
		return fmt.Errorf("proto.message cannot be empty")
	}
	if len(c.Proto.Files) == 0 && c.Proto.DescriptorSet == "" {
		return fmt.Errorf("one of proto.files or proto.descriptor_set is required")
	}
	if len(c.Proto.Files) > 0 && c.Proto.DescriptorSet != "" {
		return fmt.Errorf("proto.files and proto.descriptor_set are mutually exclusive")
	}
	return nil
}

func (c *Config) validateOptions() error {
	if c.Options.FloatPrecision < 0 {
		return fmt.Errorf("options.float_precision must not be negative")
	}
	if c.Options.MaxRecursionDepth < 0 {
		return fmt.Errorf("options.max_recursion_depth must not be negative")
	}
	return nil
}

func (c *Config) validateSettings() error {
	if c.Settings.Workers < 1 {
		return fmt.Errorf("settings.workers must be greater than 0")
	}
	if !slices.Contains([]string{FormatIPC, FormatParquet, FormatJSONLines}, c.Settings.OutputFormat) {
		return fmt.Errorf("settings.output_format %q is not one of ipc, parquet, jsonl", c.Settings.OutputFormat)
	}
	if _, err := zapcore.ParseLevel(c.Settings.LogLevel); err != nil {
		return fmt.Errorf("settings.log_level: %w", err)
	}
	return nil
}

// Logger builds a JSON logger writing to stderr at the configured level.
func (s Settings) Logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(s.LogLevel)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeDuration = zapcore.MillisDurationEncoder

	cfg := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Encoding:         "json",
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}
