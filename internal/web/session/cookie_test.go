package session

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/zuul/pkg/idx"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestCookieCodec(t *testing.T) {
	t.Parallel()

	codec, err := NewCookieCodec(testKey, time.Hour)
	require.NoError(t, err)

	id := idx.New().String()
	value, err := codec.Encode(id)
	require.NoError(t, err)

	got, err := codec.Decode(value)
	require.NoError(t, err)
	require.Equal(t, id, got)
}

func TestCookieCodecRejects(t *testing.T) {
	t.Parallel()

	codec, err := NewCookieCodec(testKey, time.Hour)
	require.NoError(t, err)
	id := idx.New().String()

	t.Run("tampered", func(t *testing.T) {
		value, err := codec.Encode(id)
		require.NoError(t, err)

		parts := strings.Split(value, ".")
		parts[2] = strings.Repeat("A", len(parts[2]))
		_, err = codec.Decode(strings.Join(parts, "."))
		require.ErrorIs(t, err, ErrInvalidCookie)
	})

	t.Run("other key", func(t *testing.T) {
		other, err := NewCookieCodec([]byte("ffffffffffffffffffffffffffffffff"), time.Hour)
		require.NoError(t, err)
		value, err := other.Encode(id)
		require.NoError(t, err)

		_, err = codec.Decode(value)
		require.ErrorIs(t, err, ErrInvalidCookie)
	})

	t.Run("expired", func(t *testing.T) {
		past, err := NewCookieCodec(testKey, time.Minute)
		require.NoError(t, err)
		past.now = func() time.Time { return time.Now().Add(-time.Hour) }
		value, err := past.Encode(id)
		require.NoError(t, err)

		_, err = codec.Decode(value)
		require.ErrorIs(t, err, ErrInvalidCookie)
	})

	t.Run("not an id", func(t *testing.T) {
		value, err := codec.Encode("attacker-chosen")
		require.NoError(t, err)

		_, err = codec.Decode(value)
		require.ErrorIs(t, err, ErrInvalidCookie)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := codec.Decode("garbage")
		require.ErrorIs(t, err, ErrInvalidCookie)
	})
}

func TestNewCookieCodecShortKey(t *testing.T) {
	t.Parallel()

	_, err := NewCookieCodec([]byte("short"), time.Hour)
	require.Error(t, err)
}
