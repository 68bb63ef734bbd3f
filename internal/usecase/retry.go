package usecase

import "context"

// Retry runs op up to limit times and returns the first success or the last
// error. onFailure, when set, sees every failed attempt (1-based) before the
// next one starts. A done context stops further attempts.
func Retry[T any](ctx context.Context, limit int, op func(ctx context.Context, attempt int) (T, error), onFailure func(attempt int, err error)) (T, error) {
	if limit < 1 {
		limit = 1
	}
	var (
		zero    T
		lastErr error
	)
	for attempt := 1; attempt <= limit; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, err
		}
		out, err := op(ctx, attempt)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if onFailure != nil {
			onFailure(attempt, err)
		}
	}
	return zero, lastErr
}
