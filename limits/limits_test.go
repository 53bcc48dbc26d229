package limits_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formstream/limits"
)

func TestByteSizeUnmarshalText(t *testing.T) {
	cases := []struct {
		in   string
		want limits.ByteSize
	}{
		{"512", 512},
		{"8KiB", 8 * limits.KiB},
		{"2MiB", 2 * limits.MiB},
		{"1GiB", limits.GiB},
		{"2MB", 2 * limits.MB},
		{"10kb", 10 * limits.KB},
		{"4mib", 4 * limits.MiB},
		{" 32KiB ", 32 * limits.KiB},
		{"100B", 100},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			var b limits.ByteSize
			require.NoError(t, b.UnmarshalText([]byte(tc.in)))
			assert.Equal(t, tc.want, b)
		})
	}

	t.Run("rejects garbage", func(t *testing.T) {
		var b limits.ByteSize
		assert.Error(t, b.UnmarshalText([]byte("")))
		assert.Error(t, b.UnmarshalText([]byte("KiB")))
		assert.Error(t, b.UnmarshalText([]byte("12XB")))
		assert.Error(t, b.UnmarshalText([]byte("1.5MiB")))
	})
}

func TestByteSizeString(t *testing.T) {
	assert.Equal(t, "32KiB", (32 * limits.KiB).String())
	assert.Equal(t, "2MiB", (2 * limits.MiB).String())
	assert.Equal(t, "1GiB", limits.GiB.String())
	assert.Equal(t, "1500B", limits.ByteSize(1500).String())
	assert.Equal(t, "0B", limits.ByteSize(0).String())
}

func TestMap(t *testing.T) {
	t.Run("default table", func(t *testing.T) {
		m := limits.Default()
		got, ok := m.Get("form")
		require.True(t, ok)
		assert.Equal(t, limits.DefaultForm, got)
	})

	t.Run("find resolves most specific first", func(t *testing.T) {
		m := limits.Map{
			"file":     1 * limits.MiB,
			"file/png": 4 * limits.MiB,
		}

		got, ok := m.Find("file", "png")
		require.True(t, ok)
		assert.Equal(t, 4*limits.MiB, got)

		got, ok = m.Find("file", "pdf")
		require.True(t, ok)
		assert.Equal(t, 1*limits.MiB, got)

		_, ok = m.Find("image")
		assert.False(t, ok)
	})

	t.Run("find on nil map", func(t *testing.T) {
		var m limits.Map
		_, ok := m.Find("file")
		assert.False(t, ok)
	})

	t.Run("with does not mutate the receiver", func(t *testing.T) {
		base := limits.Default()
		derived := base.With("file/png", 4*limits.MiB)

		_, ok := base.Get("file/png")
		assert.False(t, ok)

		got, ok := derived.Get("file/png")
		require.True(t, ok)
		assert.Equal(t, 4*limits.MiB, got)
	})
}
