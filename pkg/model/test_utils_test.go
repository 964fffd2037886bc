package model

import (
	"context"
	"errors"
	"testing"

	"github.com/limaJavier/schooltimetable/pkg/store"

	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

// scriptedSource replays fixed choices. Once exhausted IntN returns 0 and Perm the identity
type scriptedSource struct {
	ints  []int
	perms [][]int
}

func (source *scriptedSource) IntN(n int) int {
	if len(source.ints) == 0 {
		return 0
	}
	value := source.ints[0] % n
	source.ints = source.ints[1:]
	return value
}

func (source *scriptedSource) Perm(n int) []int {
	if len(source.perms) == 0 {
		return lo.Range(n)
	}
	value := source.perms[0]
	source.perms = source.perms[1:]
	return value
}

// faultyStore fails the failAt-th Create made inside a transaction
type faultyStore struct {
	store.Store
	failAt  int
	creates *int
}

var errStoreFault = errors.New("disk on fire")

func (faulty *faultyStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx store.Store) error) error {
	return faulty.Store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		return fn(ctx, &faultyStore{Store: tx, failAt: faulty.failAt, creates: faulty.creates})
	})
}

func (faulty *faultyStore) Create(ctx context.Context, entry store.Entry) (store.Entry, error) {
	if *faulty.creates++; *faulty.creates == faulty.failAt {
		return store.Entry{}, errStoreFault
	}
	return faulty.Store.Create(ctx, entry)
}

type catalogBuilder struct {
	raw RawCatalog
}

func newCatalogBuilder() *catalogBuilder {
	return &catalogBuilder{}
}

func (builder *catalogBuilder) index(names []string, name string, add func()) uint64 {
	if i := lo.IndexOf(names, name); i >= 0 {
		return uint64(i)
	}
	add()
	return uint64(len(names))
}

// Assign adds (class, subject, teacher, room) creating every missing record. An empty room means no room
func (builder *catalogBuilder) Assign(class, subject, teacher, room string) *catalogBuilder {
	raw := &builder.raw
	classId := builder.index(lo.Map(raw.Classes, func(c Class, _ int) string { return c.Name }), class, func() {
		raw.Classes = append(raw.Classes, Class{Name: class})
	})
	subjectId := builder.index(lo.Map(raw.Subjects, func(s Subject, _ int) string { return s.Name }), subject, func() {
		raw.Subjects = append(raw.Subjects, Subject{Name: subject})
	})
	teacherId := builder.index(lo.Map(raw.Teachers, func(t Teacher, _ int) string { return t.Name }), teacher, func() {
		raw.Teachers = append(raw.Teachers, Teacher{Name: teacher})
	})

	var roomId *uint64
	if room != "" {
		roomId = lo.ToPtr(builder.index(lo.Map(raw.Rooms, func(r Room, _ int) string { return r.Name }), room, func() {
			raw.Rooms = append(raw.Rooms, Room{Name: room})
		}))
	}

	raw.Assignments = append(raw.Assignments, RawAssignment{Class: classId, Subject: subjectId, Teacher: teacherId, Room: roomId})
	return builder
}

// AddClass adds a class with no assignments
func (builder *catalogBuilder) AddClass(class string) *catalogBuilder {
	builder.raw.Classes = append(builder.raw.Classes, Class{Name: class})
	return builder
}

func (builder *catalogBuilder) Build(t *testing.T) Catalog {
	catalog, err := ProcessRawCatalog(builder.raw)
	require.NoError(t, err)
	return catalog
}

func classId(t *testing.T, catalog Catalog, name string) uint64 {
	class, ok := lo.Find(catalog.Classes, func(class Class) bool { return class.Name == name })
	require.True(t, ok, "class %v", name)
	return class.Id
}

func subjectNames(catalog Catalog, entries []store.Entry) []string {
	return lo.Map(entries, func(entry store.Entry, _ int) string { return catalog.SubjectName(entry.Subject) })
}
