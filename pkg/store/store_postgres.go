package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

type postgresStore struct {
	db     *sqlx.DB // nil inside a transaction
	execer sqlx.ExtContext
}

func NewPostgresStore(db *sqlx.DB) Store {
	return &postgresStore{db: db, execer: db}
}

// OpenPostgres connects through the pgx stdlib driver and pings the database
func OpenPostgres(ctx context.Context, databaseUrl string) (*sqlx.DB, error) {
	db, err := sqlx.Open("pgx", databaseUrl)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "pinging database")
	}
	return db, nil
}

func (store *postgresStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	if store.db == nil {
		return fn(ctx, store)
	}

	tx, err := store.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}

	if err := fn(ctx, &postgresStore{execer: tx}); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return errors.Wrapf(rollbackErr, "rolling back after: %v", err)
		}
		return err
	}

	return errors.Wrap(tx.Commit(), "committing transaction")
}

func (store *postgresStore) DeleteAll(ctx context.Context) error {
	_, err := store.execer.ExecContext(ctx, `DELETE FROM timetable_entries`)
	return errors.Wrap(err, "deleting timetable entries")
}

func (store *postgresStore) DeleteClass(ctx context.Context, class uint64) error {
	_, err := store.execer.ExecContext(ctx, `DELETE FROM timetable_entries WHERE class_id = $1`, class)
	return errors.Wrapf(err, "deleting timetable entries of class %d", class)
}

func (store *postgresStore) Create(ctx context.Context, entry Entry) (Entry, error) {
	const query = `
INSERT INTO timetable_entries (id, class_id, teacher_id, subject_id, room_id, day, start_minute, end_minute)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`
	entry.Id = uuid.New()
	_, err := store.execer.ExecContext(ctx, query,
		entry.Id,
		entry.Class,
		entry.Teacher,
		entry.Subject,
		entry.Room,
		entry.Day,
		entry.Start,
		entry.End,
	)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return Entry{}, ErrConflict
	} else if err != nil {
		return Entry{}, errors.Wrap(err, "inserting timetable entry")
	}
	return entry, nil
}

func (store *postgresStore) TeacherBusy(ctx context.Context, teacher uint64, day string, start int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM timetable_entries WHERE teacher_id = $1 AND day = $2 AND start_minute = $3)`
	var busy bool
	err := sqlx.GetContext(ctx, store.execer, &busy, query, teacher, day, start)
	return busy, errors.Wrap(err, "checking teacher availability")
}

func (store *postgresStore) RoomBusy(ctx context.Context, room uint64, day string, start int) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM timetable_entries WHERE room_id = $1 AND day = $2 AND start_minute = $3)`
	var busy bool
	err := sqlx.GetContext(ctx, store.execer, &busy, query, room, day, start)
	return busy, errors.Wrap(err, "checking room availability")
}

func (store *postgresStore) ListByClass(ctx context.Context, class uint64) ([]Entry, error) {
	const query = `
SELECT id, class_id, teacher_id, subject_id, room_id, day, start_minute, end_minute
FROM timetable_entries
WHERE class_id = $1
ORDER BY start_minute ASC, day ASC
`
	entries := make([]Entry, 0)
	err := sqlx.SelectContext(ctx, store.execer, &entries, query, class)
	return entries, errors.Wrapf(err, "listing timetable entries of class %d", class)
}

func (store *postgresStore) List(ctx context.Context) ([]Entry, error) {
	const query = `
SELECT id, class_id, teacher_id, subject_id, room_id, day, start_minute, end_minute
FROM timetable_entries
ORDER BY class_id ASC, start_minute ASC, day ASC
`
	entries := make([]Entry, 0)
	err := sqlx.SelectContext(ctx, store.execer, &entries, query)
	return entries, errors.Wrap(err, "listing timetable entries")
}
