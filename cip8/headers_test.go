package cip8

import (
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderValue(t *testing.T) {
	t.Run("decoded generic map", func(t *testing.T) {
		encoded, err := cbor.Marshal(map[any]any{1: -8, "address": []byte{0x01}, -2: []byte{0x02}})
		require.NoError(t, err)

		var headers any
		require.NoError(t, cbor.Unmarshal(encoded, &headers))

		v, ok := HeaderValue(headers, "address")
		require.True(t, ok)
		assert.Equal(t, []byte{0x01}, v)

		v, ok = HeaderValue(headers, 1)
		require.True(t, ok)
		n, ok := toInt64(v)
		require.True(t, ok)
		assert.Equal(t, int64(-8), n)

		v, ok = HeaderValue(headers, -2)
		require.True(t, ok)
		assert.Equal(t, []byte{0x02}, v)

		_, ok = HeaderValue(headers, "hashed")
		assert.False(t, ok)
		_, ok = HeaderValue(headers, 4)
		assert.False(t, ok)
	})

	t.Run("string keyed map", func(t *testing.T) {
		headers := map[string]any{"hashed": true}
		v, ok := HeaderValue(headers, "hashed")
		require.True(t, ok)
		assert.Equal(t, true, v)

		_, ok = HeaderValue(headers, 1)
		assert.False(t, ok)
	})

	t.Run("integer keyed maps", func(t *testing.T) {
		v, ok := HeaderValue(map[int64]any{-1: 6}, -1)
		require.True(t, ok)
		assert.Equal(t, 6, v)

		v, ok = HeaderValue(map[int]any{1: 1}, uint64(1))
		require.True(t, ok)
		assert.Equal(t, 1, v)

		_, ok = HeaderValue(map[int]any{1: 1}, "1")
		assert.False(t, ok)
	})

	t.Run("non maps", func(t *testing.T) {
		for _, headers := range []any{nil, []any{1}, "address", 42} {
			_, ok := HeaderValue(headers, "address")
			assert.False(t, ok)
		}
	})
}

func TestToInt64(t *testing.T) {
	tests := []struct {
		in   any
		want int64
		ok   bool
	}{
		{int(1), 1, true},
		{int8(-1), -1, true},
		{int64(-8), -8, true},
		{uint8(6), 6, true},
		{uint64(6), 6, true},
		{uint64(1 << 63), 0, false},
		{"6", 0, false},
		{6.0, 0, false},
	}

	for _, tt := range tests {
		got, ok := toInt64(tt.in)
		assert.Equal(t, tt.ok, ok, "%T(%v)", tt.in, tt.in)
		assert.Equal(t, tt.want, got, "%T(%v)", tt.in, tt.in)
	}
}
