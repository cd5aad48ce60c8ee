package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/migrations"
	"github.com/noah-isme/attendance-tracker-api/pkg/config"
	"github.com/noah-isme/attendance-tracker-api/pkg/database"
	"github.com/noah-isme/attendance-tracker-api/pkg/logger"
)

const usage = `usage: migrate <command>

commands:
  up       apply all pending migrations
  down     roll back the most recent migration
  status   print the state of every migration
  version  print the current schema version`

var errUsage = errors.New(usage)

var runMigrations = database.RunMigrations // mockable

type commandLine struct {
	db  *sqlx.DB
	fs  fs.FS
	log *zap.Logger
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		return errUsage
	}
	command := strings.ToLower(strings.TrimSpace(args[1]))
	switch command {
	case "up", "down", "status", "version":
	case "help", "-h", "--help":
		return errUsage
	default:
		return fmt.Errorf("unknown command %q\n\n%w", args[1], errUsage)
	}

	if err := runMigrations(cli.db, cli.fs, command); err != nil {
		return err
	}
	cli.log.Info("migration command finished", zap.String("command", command))
	if command == "up" {
		return database.AssertUniqueKeys(context.Background(), cli.db)
	}
	return nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	db, err := database.NewPostgres(context.Background(), cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	cli := commandLine{db: db, fs: migrations.FS, log: logr}
	if err := cli.run(os.Args); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		logr.Fatal("migration failed", zap.Error(err))
	}
}
