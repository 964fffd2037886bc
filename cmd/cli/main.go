package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/limaJavier/schooltimetable/internal/config"
	"github.com/limaJavier/schooltimetable/internal/logger"
	"github.com/limaJavier/schooltimetable/pkg/model"
	"github.com/limaJavier/schooltimetable/pkg/store"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conf, err := config.Load(os.Getenv("TIMETABLE_CONFIG"))
	if err != nil {
		log.Fatalf("cannot load configuration: %v", err)
	}

	zapLogger, err := logger.New(conf.LogLevel)
	if err != nil {
		log.Fatalf("cannot build logger: %v", err)
	}
	defer zapLogger.Sync()

	timetableStore, db, err := openStore(ctx, conf)
	if err != nil {
		zapLogger.Fatal("cannot open store", zap.Error(err))
	}
	if db != nil {
		defer db.Close()
	}

	cli := commandLine{
		catalogFile: conf.Catalog,
		grid:        conf.Grid,
		httpAddr:    conf.HttpAddr,
		store:       timetableStore,
		db:          db,
		ephemeral:   conf.Store == "memory",
		timetabler:  model.NewRandomTimetabler(timetableStore, conf.Grid, model.NewRandomSource(conf.Seed), zapLogger),
		logger:      zapLogger,
		out:         os.Stdout,
	}
	if err := cli.run(ctx, os.Args); err != nil {
		if err != errHelp {
			zapLogger.Error("command failed", zap.Error(err))
		}
		zapLogger.Sync()
		os.Exit(1)
	}
}

func openStore(ctx context.Context, conf config.Config) (store.Store, *sqlx.DB, error) {
	if conf.Store == "memory" {
		return store.NewMemoryStore(), nil, nil
	}

	db, err := store.OpenPostgres(ctx, conf.DatabaseUrl)
	if err != nil {
		return nil, nil, err
	}
	return store.NewPostgresStore(db), db, nil
}
