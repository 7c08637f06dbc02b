// Package modkit provides module wiring and core deps
package modkit

import (
	"harborlist/internal/modkit/repokit"
	"harborlist/internal/platform/config"
	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/store"

	"github.com/redis/go-redis/v9"
)

// Deps holds core dependencies passed to modules
// this is wiring only and does not introduce new abstractions
type Deps struct {
	Log logger.Logger
	Cfg config.Conf
	PG  repokit.TxRunner
	CH  store.Clickhouse
	RDS redis.UniversalClient
}
