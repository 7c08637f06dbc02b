package store

import (
	"context"

	"harborlist/internal/platform/store/ch"
)

// chClient is the part of *ch.CH the store hands out
type chClient interface {
	Insert(ctx context.Context, table string, rows [][]any) error
	Query(ctx context.Context, sql string, args ...any) (ch.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) error
	Ping(ctx context.Context) error
	Close() error
}

// chStore adapts a chClient to Clickhouse. Only Query needs translating;
// Ping passes through so readiness probes can reach it
type chStore struct{ chClient }

func newCHAdapter(c chClient) Clickhouse { return chStore{c} }

func (s chStore) Query(ctx context.Context, sql string, args ...any) (Rows, error) {
	r, err := s.chClient.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return chRows{r}, nil
}

// chRows drops the error from Close to fit Rows
type chRows struct{ ch.Rows }

func (r chRows) Close() { _ = r.Rows.Close() }
