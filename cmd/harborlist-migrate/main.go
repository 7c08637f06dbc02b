// Command harborlist-migrate applies the embedded postgres schema
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"harborlist/internal/platform/config"
	"harborlist/internal/platform/logger"
	"harborlist/internal/platform/store/migrate"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [up|down|status|version]\n", os.Args[0])
		flag.PrintDefaults()
	}
	fDSN := flag.String("dsn", "", "postgres url (defaults to SERVICE_PGSQL_DBURL)")
	flag.Parse()

	logger.Init(logger.FromEnv("harborlist-migrate"))

	l := logger.Get()
	dsn := *fDSN
	if dsn == "" {
		dsn = config.New().Prefix("SERVICE_PGSQL_").MustString("DBURL")
	}

	cmd := "up"
	if flag.NArg() > 0 {
		cmd = flag.Arg(0)
	}

	db, err := migrate.Open(dsn)
	if err != nil {
		l.Fatal().Err(err).Msg("open database")
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	switch cmd {
	case "up":
		err = migrate.Up(ctx, db)
	case "down":
		err = migrate.Down(ctx, db)
	case "status":
		err = migrate.Status(ctx, db)
	case "version":
		var v int64
		if v, err = migrate.Version(ctx, db); err == nil {
			fmt.Println(v)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		l.Fatal().Err(err).Str("cmd", cmd).Msg("migration failed")
	}
	l.Info().Str("cmd", cmd).Msg("migration done")
}
