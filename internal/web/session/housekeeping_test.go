package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHousekeeper(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := NewMemoryStore()
	require.NoError(t, store.Save(ctx, "expired", nil, -time.Second))
	require.NoError(t, store.Save(ctx, "live", nil, time.Hour))

	hk := NewHousekeeper(store, slog.New(slog.NewTextHandler(io.Discard, nil)), 0)
	require.Equal(t, 10*time.Minute, hk.Interval)

	hk.Sweep(ctx)
	require.Equal(t, 1, store.Len())

	hk.Start()
	hk.Stop()
}
