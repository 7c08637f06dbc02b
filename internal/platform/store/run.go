package store

import (
	"context"
	"time"

	perr "harborlist/internal/platform/errors"
	"harborlist/internal/platform/metrics"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy bounds how a transaction is re-run after a transient failure
type RetryPolicy struct {
	MaxAttempts int           // default 3
	Initial     time.Duration // default 50ms
	Max         time.Duration // default 1s
}

func (p RetryPolicy) backoff() backoff.BackOff {
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.Initial <= 0 {
		p.Initial = 50 * time.Millisecond
	}
	if p.Max <= 0 {
		p.Max = time.Second
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = p.Initial
	bo.MaxInterval = p.Max
	bo.MaxElapsedTime = 0
	return backoff.WithMaxRetries(bo, uint64(p.MaxAttempts-1))
}

// RunTx runs fn inside a transaction and re-runs the whole transaction while
// the failure is retryable. Non retryable errors are returned as is.
// fn sees the attempt number through Attempt(ctx)
func RunTx(ctx context.Context, tx TxRunner, p RetryPolicy, fn func(ctx context.Context, q RowQuerier) error) error {
	attempt := 0
	op := func() error {
		attempt++
		actx := WithAttempt(ctx, attempt)
		err := tx.Tx(actx, func(q RowQuerier) error { return fn(actx, q) })
		if err != nil && !perr.IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, backoff.WithContext(p.backoff(), ctx), func(error, time.Duration) {
		metrics.StoreRetries.Inc()
	})
}
