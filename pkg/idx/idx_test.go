package idx_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/zuul/pkg/idx"
)

func TestNewAndParse(t *testing.T) {
	id := idx.New()
	require.Len(t, id.String(), 26)
	require.False(t, id.IsZero())

	parsed, err := idx.Parse(" " + id.String() + "\n")
	require.NoError(t, err)
	require.Equal(t, id, parsed)
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "   ", "not-a-ulid", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3Z", "01HQ7T3Z1MZ0JQ3M6MZQ1FQ3ZVX"} {
		_, err := idx.Parse(s)
		require.ErrorIs(t, err, idx.ErrInvalid, s)
	}
}

func TestMonotonicWithinMillisecond(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()

	prev := idx.NewAt(tm)
	for range 100 {
		next := idx.NewAt(tm)
		require.Less(t, prev.String(), next.String())
		prev = next
	}
}

func TestUnique(t *testing.T) {
	seen := make(map[idx.ID]struct{}, 1000)
	for range 1000 {
		id := idx.New()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestTimeExtraction(t *testing.T) {
	tm := time.Unix(1700000000, 0).UTC()
	id := idx.NewAt(tm)
	require.WithinDuration(t, tm, id.Time(), time.Millisecond)

	require.True(t, idx.Zero.Time().IsZero())
}
