package store

import (
	"context"
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

var gooseRunFunc = goose.RunContext // mockable

// Migrate runs a goose command ("up", "down", "status", ...) over the embedded migrations
func Migrate(ctx context.Context, db *sql.DB, command string, args ...string) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return errors.Wrap(err, "setting migrations dialect")
	}
	if err := gooseRunFunc(ctx, command, db, "migrations", args...); err != nil {
		return errors.Wrapf(err, "running migrations %q", command)
	}
	return nil
}
