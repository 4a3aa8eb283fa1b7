package arrowproto

import (
	"bytes"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"

	"github.com/arrowarc/protoarc/internal/testutil"
)

func parse(t *testing.T, conv *Converter, name string, value any, opts *Options) (protoreflect.Message, error) {
	t.Helper()
	m := dynamicpb.NewMessage(descriptor(t, name))
	return m, conv.ParseMap(value, m, opts)
}

func fieldOf(m protoreflect.Message, name string) protoreflect.Value {
	return m.Get(m.Descriptor().Fields().ByName(protoreflect.Name(name)))
}

func TestParseMapRoundTrip(t *testing.T) {
	conv := newTestConverter()
	want := exampleMessage(t)

	for _, opts := range []*Options{
		nil,
		{PreservingProtoFieldName: true},
		{UseIntegersForEnums: true},
		{IncludingDefaultValueFields: true},
	} {
		t.Run(fmt.Sprintf("%+v", opts), func(t *testing.T) {
			value, err := conv.MessageToMap(want.ProtoReflect(), opts)
			require.NoError(t, err)

			got, err := parse(t, conv, "ExampleMessage", value, opts)
			require.NoError(t, err)
			if diff := testutil.Diff(want, got.Interface()); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseMapBytes(t *testing.T) {
	conv := newTestConverter()

	tests := []struct {
		name  string
		value any
	}{
		{"raw bytes", []byte("something")},
		{"byte buffer", bytes.NewBufferString("something")},
		{"base64 string", "c29tZXRoaW5n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := parse(t, conv, "ExampleMessage", map[string]any{"bytes": tt.value}, nil)
			require.NoError(t, err)
			assert.Equal(t, []byte("something"), fieldOf(m, "bytes").Bytes())
		})
	}

	t.Run("input buffer is not aliased", func(t *testing.T) {
		raw := []byte("something")
		m, err := parse(t, conv, "ExampleMessage", map[string]any{"bytes": raw}, nil)
		require.NoError(t, err)
		raw[0] = 'X'
		assert.Equal(t, []byte("something"), fieldOf(m, "bytes").Bytes())
	})
}

func TestParseMapSixtyFourBitFidelity(t *testing.T) {
	m, err := parse(t, newTestConverter(), "ExampleMessage", map[string]any{
		"int64":  int64(math.MinInt64),
		"uint64": uint64(math.MaxUint64),
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(math.MinInt64), fieldOf(m, "int64").Int())
	assert.Equal(t, uint64(math.MaxUint64), fieldOf(m, "uint64").Uint())
}

func TestParseMapFieldNames(t *testing.T) {
	conv := newTestConverter()
	for _, key := range []string{"oldName", "old_name", "OldName"} {
		t.Run(key, func(t *testing.T) {
			m, err := parse(t, conv, "ExampleMessage", map[string]any{key: "x"}, nil)
			require.NoError(t, err)
			assert.Equal(t, "x", fieldOf(m, "old_name").String())
		})
	}
}

func TestParseMapEnums(t *testing.T) {
	conv := newTestConverter()

	for _, value := range []any{"second", int32(2), 2, "2", float64(2)} {
		m, err := parse(t, conv, "ExampleMessage", map[string]any{"enum": value}, nil)
		require.NoError(t, err, "value %v", value)
		assert.Equal(t, protoreflect.EnumNumber(2), fieldOf(m, "enum").Enum())
	}

	_, err := parse(t, conv, "ExampleMessage", map[string]any{"enum": "third"}, nil)
	assert.ErrorIs(t, err, ErrTypeCoercion)

	m, err := parse(t, conv, "ExampleMessage", map[string]any{"enum": "third"}, &Options{IgnoreUnknownFields: true})
	require.NoError(t, err)
	assert.Equal(t, protoreflect.EnumNumber(0), fieldOf(m, "enum").Enum())
}

func TestParseMapMaps(t *testing.T) {
	conv := newTestConverter()

	t.Run("object form", func(t *testing.T) {
		m, err := parse(t, conv, "ExampleMessage", map[string]any{
			"map": map[string]any{"a": "1", "b": "2"},
		}, nil)
		require.NoError(t, err)
		mv := fieldOf(m, "map").Map()
		assert.Equal(t, 2, mv.Len())
		assert.Equal(t, "2", mv.Get(protoreflect.ValueOfString("b").MapKey()).String())
	})

	t.Run("integer keys and message values", func(t *testing.T) {
		for _, value := range []any{
			[]any{map[string]any{"key": int32(7), "value": map[string]any{"key": "k"}}},
			map[string]any{"7": map[string]any{"key": "k"}},
			map[any]any{7: map[string]any{"key": "k"}},
		} {
			m, err := parse(t, conv, "Counters", map[string]any{"byId": value}, nil)
			require.NoError(t, err)
			entry := fieldOf(m, "by_id").Map().Get(protoreflect.ValueOfInt32(7).MapKey())
			require.True(t, entry.IsValid())
			assert.Equal(t, "k", fieldOf(entry.Message(), "key").String())
		}
	})
}

func TestParseMapWellKnownTypes(t *testing.T) {
	conv := newTestConverter()
	want := time.Date(2021, 3, 4, 5, 6, 7, 8000, time.UTC)

	for _, value := range []any{want, "2021-03-04T05:06:07.000008Z"} {
		m, err := parse(t, conv, "ExampleMessage", map[string]any{"timestamp": value}, nil)
		require.NoError(t, err)
		ts := fieldOf(m, "timestamp").Message()
		assert.Equal(t, want.Unix(), fieldOf(ts, "seconds").Int())
		assert.Equal(t, int64(8000), fieldOf(ts, "nanos").Int())
	}

	m, err := parse(t, conv, "ExampleMessage", map[string]any{"timestamp": (*time.Time)(nil)}, nil)
	assert.ErrorIs(t, err, ErrTypeCoercion)
	assert.False(t, m.Has(m.Descriptor().Fields().ByName("timestamp")))

	conv.UnregisterTimestampDeserializer()
	m, err = parse(t, conv, "ExampleMessage", map[string]any{
		"timestamp": "2021-03-04T05:06:07Z",
		"duration":  "1.5s",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, want.Unix(), fieldOf(fieldOf(m, "timestamp").Message(), "seconds").Int())
	d := fieldOf(m, "duration").Message()
	assert.Equal(t, int64(1), fieldOf(d, "seconds").Int())
	assert.Equal(t, int64(500000000), fieldOf(d, "nanos").Int())

	_, err = parse(t, conv, "ExampleMessage", map[string]any{"duration": 12}, nil)
	assert.ErrorIs(t, err, ErrTypeCoercion)
}

func TestParseMapDeserializer(t *testing.T) {
	conv := newTestConverter()
	nested := descriptor(t, "NestedMessage")
	conv.RegisterDeserializer(nested.FullName(), func(value any, m protoreflect.Message, path string) error {
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: expected string", path)
		}
		key, val, _ := strings.Cut(s, "=")
		fields := m.Descriptor().Fields()
		m.Set(fields.ByName("key"), protoreflect.ValueOfString(key))
		m.Set(fields.ByName("value"), protoreflect.ValueOfString(val))
		return nil
	})

	m, err := parse(t, conv, "ExampleMessage", map[string]any{"nested": "hello=world"}, nil)
	require.NoError(t, err)
	n := fieldOf(m, "nested").Message()
	assert.Equal(t, "hello", fieldOf(n, "key").String())
	assert.Equal(t, "world", fieldOf(n, "value").String())

	conv.UnregisterDeserializer(nested.FullName())
	_, err = parse(t, conv, "ExampleMessage", map[string]any{"nested": "hello=world"}, nil)
	assert.ErrorIs(t, err, ErrTypeCoercion)
}

func TestParseMapErrors(t *testing.T) {
	conv := newTestConverter()

	tests := []struct {
		name  string
		value any
		opts  *Options
		want  error
		path  string
	}{
		{
			name:  "unknown field",
			value: map[string]any{"nope": 1},
			want:  ErrUnknownField,
			path:  "protoarc.test.ExampleMessage.nope",
		},
		{
			name:  "unknown nested field",
			value: map[string]any{"nested": map[string]any{"nope": 1}},
			want:  ErrUnknownField,
			path:  "protoarc.test.ExampleMessage.nested.nope",
		},
		{
			name:  "wrong scalar type",
			value: map[string]any{"int32": "abc"},
			want:  ErrTypeCoercion,
			path:  "protoarc.test.ExampleMessage.int32",
		},
		{
			name:  "int32 overflow",
			value: map[string]any{"int32": int64(1) << 40},
			want:  ErrTypeCoercion,
		},
		{
			name:  "negative unsigned",
			value: map[string]any{"uint64": -1},
			want:  ErrTypeCoercion,
		},
		{
			name:  "fractional integer",
			value: map[string]any{"int64": 1.5},
			want:  ErrTypeCoercion,
		},
		{
			name:  "null list element",
			value: map[string]any{"stringlist": []any{"a", nil}},
			want:  ErrTypeCoercion,
			path:  "protoarc.test.ExampleMessage.stringlist[1]",
		},
		{
			name:  "oneof set twice",
			value: map[string]any{"oneofstring": "a", "oneofint32": 1},
			want:  ErrTypeCoercion,
		},
		{
			name:  "field set twice",
			value: map[string]any{"wrappedInt64": 1, "wrapped_int64": 2},
			want:  ErrTypeCoercion,
		},
		{
			name:  "not a mapping",
			value: []any{1},
			want:  ErrTypeCoercion,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := parse(t, conv, "ExampleMessage", tt.value, tt.opts)
			require.ErrorIs(t, err, tt.want)
			assert.Zero(t, proto.Size(m.Interface()), "message should be reset")
			if tt.path != "" {
				var ce *ConversionError
				require.ErrorAs(t, err, &ce)
				assert.Equal(t, tt.path, ce.Path)
			}
		})
	}
}

func TestParseMapIgnoreUnknownFields(t *testing.T) {
	m, err := parse(t, newTestConverter(), "ExampleMessage", map[string]any{
		"nope":   1,
		"string": "kept",
	}, &Options{IgnoreUnknownFields: true})
	require.NoError(t, err)
	assert.Equal(t, "kept", fieldOf(m, "string").String())
}

func TestParseMapIgnoreDeprecated(t *testing.T) {
	m, err := parse(t, newTestConverter(), "ExampleMessage", map[string]any{"oldName": "legacy"}, &Options{IgnoreDeprecated: true})
	require.NoError(t, err)
	assert.False(t, m.Has(m.Descriptor().Fields().ByName("old_name")))
}

func nestedRecursive(depth int) map[string]any {
	value := map[string]any{"name": "leaf"}
	for i := 1; i < depth; i++ {
		value = map[string]any{"name": fmt.Sprint(i), "child": value}
	}
	return value
}

func TestParseMapRecursionLimit(t *testing.T) {
	conv := newTestConverter()
	opts := &Options{MaxRecursionDepth: 3}

	_, err := parse(t, conv, "RecursiveMessage", nestedRecursive(3), opts)
	require.NoError(t, err)

	_, err = parse(t, conv, "RecursiveMessage", nestedRecursive(4), opts)
	require.ErrorIs(t, err, ErrRecursionLimit)

	_, err = parse(t, conv, "RecursiveMessage", nestedRecursive(DefaultMaxRecursionDepth), nil)
	require.NoError(t, err)

	_, err = parse(t, conv, "RecursiveMessage", nestedRecursive(DefaultMaxRecursionDepth+1), nil)
	require.ErrorIs(t, err, ErrRecursionLimit)
}

func TestParseMapRecursionLimitWellKnown(t *testing.T) {
	conv := newTestConverter()

	// Built-in well-known messages count as a level, deserialized ones do not.
	_, err := parse(t, conv, "ExampleMessage", map[string]any{"wrappedInt64": "5"}, &Options{MaxRecursionDepth: 1})
	require.ErrorIs(t, err, ErrRecursionLimit)

	_, err = parse(t, conv, "ExampleMessage", map[string]any{"duration": "1s"}, &Options{MaxRecursionDepth: 1})
	require.ErrorIs(t, err, ErrRecursionLimit)

	_, err = parse(t, conv, "ExampleMessage", map[string]any{"wrappedInt64": "5", "duration": "1s"}, &Options{MaxRecursionDepth: 2})
	require.NoError(t, err)

	_, err = parse(t, conv, "ExampleMessage", map[string]any{"timestamp": time.Unix(1, 0)}, &Options{MaxRecursionDepth: 1})
	require.NoError(t, err)
}

func TestParseMapSkipsNullValues(t *testing.T) {
	m, err := parse(t, newTestConverter(), "ExampleMessage", map[string]any{
		"nested": nil,
		"string": "kept",
	}, nil)
	require.NoError(t, err)
	assert.False(t, m.Has(m.Descriptor().Fields().ByName("nested")))
	assert.Equal(t, "kept", fieldOf(m, "string").String())
}

func TestParseMapRejectsTypedContainers(t *testing.T) {
	conv := newTestConverter()

	for name, value := range map[string]any{
		"nestedList": []map[string]any{{"key": "a"}},
		"map":        map[string]string{"a": "b"},
		"nested":     map[string]string{"key": "a"},
	} {
		_, err := parse(t, conv, "ExampleMessage", map[string]any{name: value}, nil)
		assert.ErrorIs(t, err, ErrTypeCoercion, name)
	}
}
