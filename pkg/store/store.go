package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrConflict is returned when an entry would break one of the uniqueness invariants:
// (class, day, start), (teacher, day, start) or (room, day, start) when the room is set
var ErrConflict = errors.New("timetable slot already taken")

// Entry is one committed lesson. Start and End are minutes since midnight
type Entry struct {
	Id      uuid.UUID `db:"id" json:"id"`
	Class   uint64    `db:"class_id" json:"class"`
	Teacher uint64    `db:"teacher_id" json:"teacher"`
	Subject uint64    `db:"subject_id" json:"subject"`
	Room    *uint64   `db:"room_id" json:"room,omitempty"`
	Day     string    `db:"day" json:"day"`
	Start   int       `db:"start_minute" json:"start"`
	End     int       `db:"end_minute" json:"end"`
}

type Store interface {
	// Runs fn against a transactional view of the store. If fn returns an error every change made through the view is discarded
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error

	// Removes every committed entry
	DeleteAll(ctx context.Context) error

	// Removes every committed entry of the class
	DeleteClass(ctx context.Context, class uint64) error

	// Commits the entry and returns it with its assigned id
	Create(ctx context.Context, entry Entry) (Entry, error)

	// Checks whether the teacher already has a lesson at the given day and start
	TeacherBusy(ctx context.Context, teacher uint64, day string, start int) (bool, error)

	// Checks whether the room already hosts a lesson at the given day and start
	RoomBusy(ctx context.Context, room uint64, day string, start int) (bool, error)

	// Returns the class' entries ordered by start
	ListByClass(ctx context.Context, class uint64) ([]Entry, error)

	// Returns every committed entry
	List(ctx context.Context) ([]Entry, error)
}
