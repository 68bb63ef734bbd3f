package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRetry_FirstSuccess(t *testing.T) {
	calls := 0
	out, err := Retry(context.Background(), 2, func(_ context.Context, attempt int) (string, error) {
		calls++
		return "ok", nil
	}, nil)
	require.NoError(t, err)
	require.Equal(t, "ok", out)
	require.Equal(t, 1, calls)
}

func TestRetry_SucceedsOnSecondAttempt(t *testing.T) {
	var failures []int
	out, err := Retry(context.Background(), 2, func(_ context.Context, attempt int) (int, error) {
		if attempt == 1 {
			return 0, errors.New("first attempt fails")
		}
		return attempt, nil
	}, func(attempt int, _ error) {
		failures = append(failures, attempt)
	})
	require.NoError(t, err)
	require.Equal(t, 2, out)
	require.Equal(t, []int{1}, failures)
}

func TestRetry_ReturnsLastError(t *testing.T) {
	calls := 0
	errFirst := errors.New("first")
	errLast := errors.New("last")
	_, err := Retry(context.Background(), 2, func(_ context.Context, attempt int) (string, error) {
		calls++
		if attempt == 1 {
			return "", errFirst
		}
		return "", errLast
	}, nil)
	require.ErrorIs(t, err, errLast)
	require.Equal(t, 2, calls)
}

func TestRetry_LimitBelowOneRunsOnce(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), 0, func(_ context.Context, _ int) (struct{}, error) {
		calls++
		return struct{}{}, errors.New("boom")
	}, nil)
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestRetry_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	calls := 0
	_, err := Retry(ctx, 2, func(_ context.Context, _ int) (string, error) {
		calls++
		return "", nil
	}, nil)
	require.ErrorIs(t, err, context.Canceled)
	require.Zero(t, calls)

	ctx, cancel = context.WithCancel(context.Background())
	errUpstream := errors.New("upstream")
	_, err = Retry(ctx, 3, func(_ context.Context, _ int) (string, error) {
		calls++
		cancel()
		return "", errUpstream
	}, nil)
	require.ErrorIs(t, err, errUpstream)
	require.Equal(t, 1, calls)
}
