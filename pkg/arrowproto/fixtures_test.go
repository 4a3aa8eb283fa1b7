package arrowproto

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"

	"github.com/arrowarc/protoarc/internal/testutil"
	"github.com/arrowarc/protoarc/pkg/protoload"
)

var (
	fixturesOnce sync.Once
	fixtureFiles *protoregistry.Files
	fixtureErr   error
)

func descriptor(t testing.TB, name string) protoreflect.MessageDescriptor {
	t.Helper()
	fixturesOnce.Do(func() {
		fixtureFiles, fixtureErr = protoload.Compile(context.Background(), []string{"testdata"}, "example.proto")
	})
	require.NoError(t, fixtureErr)

	md, err := protoload.FindMessage(fixtureFiles, "protoarc.test."+name)
	require.NoError(t, err)
	return md
}

func newTestConverter() *Converter {
	return NewConverter(WithLogger(zap.NewNop()))
}

const exampleJSON = `{
	"int32": 69,
	"int64": "4294967296000",
	"uint32": 4294967295,
	"uint64": "18446744073709551615",
	"double": 1.5,
	"float": 2.5,
	"bool": true,
	"enum": "first",
	"string": "foo",
	"nested": {"key": "hello", "value": "world"},
	"stringlist": ["one", "two", "three"],
	"bytes": "c29tZXRoaW5n",
	"sfixed32": -5,
	"sfixed64": "-6",
	"sint32": -7,
	"sint64": "-8",
	"fixed32": 9,
	"fixed64": "10",
	"oneofstring": "chosen",
	"map": {"b": "2", "a": "1"},
	"timestamp": "2021-03-04T05:06:07.000008Z",
	"duration": "3.5s",
	"decimal": {"value": "3.14"},
	"wrappedInt64": "12",
	"nestedList": [{"key": "k1"}, {"value": "v2"}]
}`

func exampleMessage(t testing.TB) proto.Message {
	t.Helper()
	return testutil.Message(t, descriptor(t, "ExampleMessage"), exampleJSON)
}
