// Package migrate applies the embedded postgres schema with goose
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"io/fs"
	"strings"
	"sync"

	"harborlist/internal/platform/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed sql/*.sql
var files embed.FS

// goose keeps its base FS, dialect and logger in package globals
var gooseMu sync.Mutex

// FS returns the migration files rooted at their directory
func FS() fs.FS {
	sub, err := fs.Sub(files, "sql")
	if err != nil {
		panic(err)
	}
	return sub
}

// Open returns a database/sql handle for dsn backed by the pgx driver
func Open(dsn string) (*sql.DB, error) {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	return stdlib.OpenDB(*cfg), nil
}

// Up applies every pending migration
func Up(ctx context.Context, db *sql.DB) error {
	return run(func() error { return goose.UpContext(ctx, db, ".") })
}

// Down rolls back the most recent migration
func Down(ctx context.Context, db *sql.DB) error {
	return run(func() error { return goose.DownContext(ctx, db, ".") })
}

// Status logs applied and pending migrations
func Status(ctx context.Context, db *sql.DB) error {
	return run(func() error { return goose.StatusContext(ctx, db, ".") })
}

// Version returns the current schema version
func Version(ctx context.Context, db *sql.DB) (int64, error) {
	var v int64
	err := run(func() error {
		var err error
		v, err = goose.GetDBVersionContext(ctx, db)
		return err
	})
	return v, err
}

// UpURL opens dsn, migrates and closes the handle
func UpURL(ctx context.Context, dsn string) error {
	db, err := Open(dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return Up(ctx, db)
}

func run(fn func() error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(FS())
	goose.SetLogger(gooseLog{l: logger.Named("migrate")})
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return fn()
}

// gooseLog routes goose output through zerolog
type gooseLog struct{ l *logger.Logger }

func (g gooseLog) Printf(format string, v ...any) {
	g.l.Info().Msgf(strings.TrimSpace(format), v...)
}

func (g gooseLog) Fatalf(format string, v ...any) {
	g.l.Fatal().Msgf(strings.TrimSpace(format), v...)
}
