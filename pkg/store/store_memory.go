package store

import (
	"cmp"
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type slotKey struct {
	owner uint64
	day   string
	start int
}

type memoryStore struct {
	mutex   sync.RWMutex
	txMutex sync.Mutex // Serializes transactions, since a commit replaces the whole state

	entries  []Entry
	classes  map[slotKey]bool
	teachers map[slotKey]bool
	rooms    map[slotKey]bool
}

func NewMemoryStore() Store {
	return newMemoryStore(nil)
}

func newMemoryStore(entries []Entry) *memoryStore {
	store := &memoryStore{
		entries:  make([]Entry, 0, len(entries)),
		classes:  make(map[slotKey]bool),
		teachers: make(map[slotKey]bool),
		rooms:    make(map[slotKey]bool),
	}
	for _, entry := range entries {
		store.insert(entry)
	}
	return store
}

func (store *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	store.txMutex.Lock()
	defer store.txMutex.Unlock()

	store.mutex.RLock()
	view := newMemoryStore(store.entries)
	store.mutex.RUnlock()

	if err := fn(ctx, &memoryTx{view}); err != nil {
		return err
	}

	// Commit by swapping the whole state
	store.mutex.Lock()
	defer store.mutex.Unlock()
	store.entries, store.classes, store.teachers, store.rooms = view.entries, view.classes, view.teachers, view.rooms
	return nil
}

func (store *memoryStore) DeleteAll(ctx context.Context) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	store.entries = make([]Entry, 0)
	store.classes = make(map[slotKey]bool)
	store.teachers = make(map[slotKey]bool)
	store.rooms = make(map[slotKey]bool)
	return nil
}

func (store *memoryStore) DeleteClass(ctx context.Context, class uint64) error {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	remaining := lo.Reject(store.entries, func(entry Entry, _ int) bool { return entry.Class == class })
	rebuilt := newMemoryStore(remaining)
	store.entries, store.classes, store.teachers, store.rooms = rebuilt.entries, rebuilt.classes, rebuilt.teachers, rebuilt.rooms
	return nil
}

func (store *memoryStore) Create(ctx context.Context, entry Entry) (Entry, error) {
	store.mutex.Lock()
	defer store.mutex.Unlock()

	if store.classes[slotKey{entry.Class, entry.Day, entry.Start}] ||
		store.teachers[slotKey{entry.Teacher, entry.Day, entry.Start}] ||
		(entry.Room != nil && store.rooms[slotKey{*entry.Room, entry.Day, entry.Start}]) {
		return Entry{}, ErrConflict
	}

	entry.Id = uuid.New()
	store.insert(entry)
	return entry, nil
}

func (store *memoryStore) TeacherBusy(ctx context.Context, teacher uint64, day string, start int) (bool, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.teachers[slotKey{teacher, day, start}], nil
}

func (store *memoryStore) RoomBusy(ctx context.Context, room uint64, day string, start int) (bool, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return store.rooms[slotKey{room, day, start}], nil
}

func (store *memoryStore) ListByClass(ctx context.Context, class uint64) ([]Entry, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()

	entries := lo.Filter(store.entries, func(entry Entry, _ int) bool { return entry.Class == class })
	slices.SortStableFunc(entries, func(a, b Entry) int { return cmp.Compare(a.Start, b.Start) })
	return entries, nil
}

func (store *memoryStore) List(ctx context.Context) ([]Entry, error) {
	store.mutex.RLock()
	defer store.mutex.RUnlock()
	return slices.Clone(store.entries), nil
}

// insert assumes the caller holds the write lock (or owns the store exclusively)
func (store *memoryStore) insert(entry Entry) {
	store.entries = append(store.entries, entry)
	store.classes[slotKey{entry.Class, entry.Day, entry.Start}] = true
	store.teachers[slotKey{entry.Teacher, entry.Day, entry.Start}] = true
	if entry.Room != nil {
		store.rooms[slotKey{*entry.Room, entry.Day, entry.Start}] = true
	}
}

// memoryTx is the view handed to WithTx callbacks. Nested transactions run inline on the same view
type memoryTx struct {
	*memoryStore
}

func (tx *memoryTx) WithTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return fn(ctx, tx)
}
