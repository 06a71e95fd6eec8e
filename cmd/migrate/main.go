// Command migrate applies the audit log schema to PostgreSQL.
//
//	migrate [-dsn URL] [up|down|status|version|redo|reset|up-to N|down-to N]
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"github.com/okian/netrisk/internal/adapters/repository"
	"github.com/okian/netrisk/internal/config"
	"github.com/okian/netrisk/pkg/logger"
)

var errNoDSN = errors.New("no database URL: set -dsn, NETRISK_DATABASE_URL or DATABASE_URL")

func main() {
	dsn := flag.String("dsn", "", "PostgreSQL connection URL (default NETRISK_DATABASE_URL, then DATABASE_URL)")
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command, args := "up", []string(nil)
	if flag.NArg() > 0 {
		command, args = flag.Arg(0), flag.Args()[1:]
	}
	if err := run(ctx, *dsn, command, args); err != nil {
		logger.Get().Error(ctx, "migration failed", logger.String("command", command), logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, dsn, command string, args []string) error {
	log := logger.Named("migrate")
	if dsn == "" {
		cfg, err := config.Load(ctx)
		if err != nil {
			return err
		}
		dsn = cfg.DatabaseURL
	}
	if dsn == "" {
		dsn = os.Getenv("DATABASE_URL")
	}
	if dsn == "" {
		return errNoDSN
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		return err
	}

	log.Info(ctx, "running migrations", logger.String("command", command), logger.Any("args", args))
	if err := repository.RunMigrations(ctx, db, command, args...); err != nil {
		return err
	}
	log.Info(ctx, "migrations done", logger.String("command", command))
	return nil
}
