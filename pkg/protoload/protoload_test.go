package protoload

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

const orderProto = `syntax = "proto3";
package shop;

import "google/protobuf/timestamp.proto";

message Order {
  string id = 1;
  google.protobuf.Timestamp placed_at = 2;
  repeated Item items = 3;
}

message Item {
  string sku = 1;
  int64 quantity = 2;
}
`

func TestCompileSources(t *testing.T) {
	files, err := CompileSources(context.Background(), map[string]string{"order.proto": orderProto}, "order.proto")
	require.NoError(t, err)

	md, err := FindMessage(files, "shop.Order")
	require.NoError(t, err)
	assert.Equal(t, 3, md.Fields().Len())
	assert.Equal(t, protoreflect.FullName("google.protobuf.Timestamp"), md.Fields().ByName("placed_at").Message().FullName())

	_, err = files.FindFileByPath("google/protobuf/timestamp.proto")
	assert.NoError(t, err, "imports are registered")
}

func TestCompileFromImportPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "order.proto"), []byte(orderProto), 0o644))

	files, err := Compile(context.Background(), []string{dir}, "order.proto")
	require.NoError(t, err)

	_, err = FindMessage(files, "shop.Item")
	assert.NoError(t, err)
}

func TestCompileErrors(t *testing.T) {
	_, err := Compile(context.Background(), nil)
	assert.Error(t, err)

	_, err = CompileSources(context.Background(), map[string]string{"bad.proto": "message {"}, "bad.proto")
	assert.Error(t, err)
}

func TestFindMessage(t *testing.T) {
	files, err := CompileSources(context.Background(), map[string]string{"order.proto": orderProto}, "order.proto")
	require.NoError(t, err)

	_, err = FindMessage(files, "shop.Missing")
	assert.Error(t, err)

	_, err = FindMessage(files, "shop.Order.id")
	assert.ErrorContains(t, err, "not a message")
}

func TestFromDescriptorSet(t *testing.T) {
	files, err := CompileSources(context.Background(), map[string]string{"order.proto": orderProto}, "order.proto")
	require.NoError(t, err)

	set := &descriptorpb.FileDescriptorSet{}
	for _, path := range []string{"google/protobuf/timestamp.proto", "order.proto"} {
		fd, err := files.FindFileByPath(path)
		require.NoError(t, err)
		set.File = append(set.File, protodesc.ToFileDescriptorProto(fd))
	}
	data, err := proto.Marshal(set)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "order.binpb")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := FromDescriptorSet(path)
	require.NoError(t, err)
	md, err := FindMessage(loaded, "shop.Order")
	require.NoError(t, err)
	assert.Equal(t, "placedAt", md.Fields().ByName("placed_at").JSONName())

	_, err = FromDescriptorSet(filepath.Join(t.TempDir(), "missing.binpb"))
	assert.Error(t, err)
}
