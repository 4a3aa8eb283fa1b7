package testutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestEqual(t *testing.T) {
	assert.True(t, Equal(math.NaN(), math.NaN()))
	assert.True(t, Equal(float32(math.NaN()), float32(math.NaN())))
	assert.False(t, Equal(1.0, math.NaN()))

	assert.True(t, Equal(durationpb.New(1500), durationpb.New(1500)))
	assert.False(t, Equal(durationpb.New(1500), durationpb.New(1501)))
	assert.True(t, Equal(
		map[string]any{"v": wrapperspb.Double(math.NaN())},
		map[string]any{"v": wrapperspb.Double(math.NaN())},
	))

	assert.Empty(t, Diff([]any{int64(1)}, []any{int64(1)}))
	assert.NotEmpty(t, Diff([]any{int64(1)}, []any{int64(2)}))
}
