package repository

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryHistory_KeepsMostRecent(t *testing.T) {
	h := NewMemoryHistory(10)
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		require.NoError(t, h.Append(ctx, "U1", fmt.Sprintf("entry-%02d", i)))
	}

	got, err := h.Recent(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, got, 10)
	require.Equal(t, "entry-01", got[0])
	require.Equal(t, "entry-10", got[9])
}

func TestMemoryHistory_UsersAreIndependent(t *testing.T) {
	h := NewMemoryHistory(0)
	ctx := context.Background()
	require.NoError(t, h.Append(ctx, "U1", "a"))
	require.NoError(t, h.Append(ctx, "U2", "b"))

	got, err := h.Recent(ctx, "U1")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, got)

	got, err = h.Recent(ctx, "unknown")
	require.NoError(t, err)
	require.Empty(t, got)
	require.NotNil(t, got)
}

func TestMemoryHistory_RecentReturnsCopy(t *testing.T) {
	h := NewMemoryHistory(2)
	ctx := context.Background()
	require.NoError(t, h.Append(ctx, "U1", "a"))

	got, err := h.Recent(ctx, "U1")
	require.NoError(t, err)
	got[0] = "mutated"

	again, err := h.Recent(ctx, "U1")
	require.NoError(t, err)
	require.Equal(t, []string{"a"}, again)
}

func TestMemoryHistory_RejectsEmptyUser(t *testing.T) {
	require.Error(t, NewMemoryHistory(1).Append(context.Background(), "", "a"))
}

func TestMemoryHistory_ConcurrentAppends(t *testing.T) {
	h := NewMemoryHistory(10)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = h.Append(ctx, "U1", fmt.Sprint(i))
		}(i)
	}
	wg.Wait()

	got, err := h.Recent(ctx, "U1")
	require.NoError(t, err)
	require.Len(t, got, 10)
}

func TestNewRedisHistory_Validates(t *testing.T) {
	_, err := NewRedisHistory(nil, 10, 0)
	require.Error(t, err)
	require.Equal(t, "scenario_history:U1", historyKey("U1"))
}
