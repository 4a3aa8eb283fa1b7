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

// Package protoload loads message descriptors from .proto sources or from
// serialized descriptor sets.
package protoload

import (
	"context"
	"fmt"
	"os"

	"github.com/bufbuild/protocompile"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Compile parses and links files, searching importPaths for them and their
// imports. The google/protobuf well-known imports are always available.
func Compile(ctx context.Context, importPaths []string, files ...string) (*protoregistry.Files, error) {
	return compile(ctx, &protocompile.SourceResolver{ImportPaths: importPaths}, files)
}

// CompileSources is Compile over in-memory sources keyed by file name.
func CompileSources(ctx context.Context, sources map[string]string, files ...string) (*protoregistry.Files, error) {
	return compile(ctx, &protocompile.SourceResolver{Accessor: protocompile.SourceAccessorFromMap(sources)}, files)
}

func compile(ctx context.Context, resolver protocompile.Resolver, files []string) (*protoregistry.Files, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("protoload: no files to compile")
	}
	compiler := protocompile.Compiler{
		Resolver: protocompile.WithStandardImports(resolver),
	}
	linked, err := compiler.Compile(ctx, files...)
	if err != nil {
		return nil, fmt.Errorf("protoload: compile: %w", err)
	}

	reg := new(protoregistry.Files)
	for _, fd := range linked {
		if err := register(reg, fd); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// register adds fd and its transitive imports once each.
func register(reg *protoregistry.Files, fd protoreflect.FileDescriptor) error {
	if _, err := reg.FindFileByPath(fd.Path()); err == nil {
		return nil
	}
	imports := fd.Imports()
	for i := 0; i < imports.Len(); i++ {
		if err := register(reg, imports.Get(i).FileDescriptor); err != nil {
			return err
		}
	}
	if err := reg.RegisterFile(fd); err != nil {
		return fmt.Errorf("protoload: register %s: %w", fd.Path(), err)
	}
	return nil
}

// FromDescriptorSet reads a serialized google.protobuf.FileDescriptorSet, as
// written by protoc --descriptor_set_out with --include_imports.
func FromDescriptorSet(path string) (*protoregistry.Files, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("protoload: %w", err)
	}
	var set descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("protoload: decode descriptor set %s: %w", path, err)
	}
	files, err := protodesc.NewFiles(&set)
	if err != nil {
		return nil, fmt.Errorf("protoload: link descriptor set %s: %w", path, err)
	}
	return files, nil
}

// FindMessage looks up a message by full name.
func FindMessage(files *protoregistry.Files, name string) (protoreflect.MessageDescriptor, error) {
	d, err := files.FindDescriptorByName(protoreflect.FullName(name))
	if err != nil {
		return nil, fmt.Errorf("protoload: find %s: %w", name, err)
	}
	md, ok := d.(protoreflect.MessageDescriptor)
	if !ok {
		return nil, fmt.Errorf("protoload: %s is not a message", name)
	}
	return md, nil
}
