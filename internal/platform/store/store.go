// Package store opens the storage backends a harborlist process needs and
// hands them out behind small seams
package store

import (
	"context"
	"errors"
	"fmt"

	"harborlist/internal/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Store holds whichever backends were enabled. A nil field means the
// backend is off
type Store struct {
	Log logger.Logger

	PG  TxRunner
	CH  Clickhouse
	RDS redis.UniversalClient
}

// Open brings up the enabled backends in order pg, clickhouse, redis.
// A failure closes what was already opened
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		if err := o(s); err != nil {
			return nil, err
		}
	}
	s.Log = s.Log.With().Str("role", cfg.Role).Logger()

	backends := []struct {
		name string
		on   bool
		open func() error
	}{
		{"pg", cfg.PG.Enabled, func() (err error) { s.PG, err = openPG(ctx, cfg, s); return err }},
		{"clickhouse", cfg.CH.Enabled, func() (err error) { s.CH, err = openCH(ctx, cfg, s); return err }},
		{"redis", cfg.RDS.Enabled, func() (err error) { s.RDS, err = openRedis(ctx, cfg, s); return err }},
	}
	for _, b := range backends {
		if !b.on {
			continue
		}
		if err := b.open(); err != nil {
			_ = s.Close(ctx)
			return nil, fmt.Errorf("%s: %w", b.name, err)
		}
		s.Log.Debug().Str("backend", b.name).Msg("store backend ready")
	}
	return s, nil
}

// Close releases every open backend, newest first
func (s *Store) Close(context.Context) error {
	var errs []error
	if s.RDS != nil {
		errs = append(errs, s.RDS.Close())
	}
	if s.CH != nil {
		errs = append(errs, s.CH.Close())
	}
	if c, ok := s.PG.(interface{ Close() error }); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
