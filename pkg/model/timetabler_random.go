package model

import (
	"context"

	"github.com/limaJavier/schooltimetable/pkg/store"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

type randomTimetabler struct {
	store  store.Store
	grid   Grid
	rng    RandomSource
	logger *zap.Logger
}

// NewRandomTimetabler builds timetables class by class, picking subjects at random and skipping every slot whose teacher or
// room is already booked. A nil logger discards logs
func NewRandomTimetabler(timetableStore store.Store, grid Grid, rng RandomSource, logger *zap.Logger) Timetabler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &randomTimetabler{
		store:  timetableStore,
		grid:   grid,
		rng:    rng,
		logger: logger,
	}
}

func (timetabler *randomTimetabler) Build(ctx context.Context, catalog Catalog) (Report, error) {
	if err := timetabler.grid.Validate(); err != nil {
		return Report{}, err
	}

	var report Report
	// The whole regeneration is a single transaction: an interrupted run keeps the previous timetable
	err := timetabler.store.WithTx(ctx, func(ctx context.Context, tx store.Store) error {
		report = Report{Classes: make([]ClassReport, 0, len(catalog.Classes))}

		if err := tx.DeleteAll(ctx); err != nil {
			return err
		}

		for _, class := range catalog.Classes {
			timetabler.logger.Info("generating timetable", zap.String("class", class.Name))

			classReport, err := timetabler.buildClass(ctx, tx, catalog, class)
			if errors.Is(err, ErrNoEligibleCandidate) {
				// Drop whatever the class committed so far and carry on with the next one
				if err := tx.DeleteClass(ctx, class.Id); err != nil {
					return err
				}
				classReport = ClassReport{Class: class, Err: err}
				timetabler.logger.Error("cannot generate timetable", zap.String("class", class.Name), zap.Error(err))
			} else if err != nil {
				return errors.Wrapf(err, "generating timetable for class %q", class.Name)
			} else {
				timetabler.logger.Info("timetable generated",
					zap.String("class", class.Name),
					zap.Int("entries", classReport.Entries),
					zap.Int("conflicts", classReport.Conflicts),
					zap.Int("unfilled", classReport.Unfilled),
					zap.Int("resets", classReport.Resets),
				)
			}
			report.Classes = append(report.Classes, classReport)
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	return report, nil
}

func (timetabler *randomTimetabler) buildClass(ctx context.Context, tx store.Store, catalog Catalog, class Class) (ClassReport, error) {
	report := ClassReport{Class: class}

	//** Index the class' assignments by subject name
	assignments := catalog.AssignmentsOf(class.Id)
	subjectIndex := lo.KeyBy(assignments, func(assignment TeachingAssignment) string { return catalog.SubjectName(assignment.Subject) })
	pool := lo.Map(assignments, func(assignment TeachingAssignment, _ int) string { return catalog.SubjectName(assignment.Subject) })

	doubleDays := planDoubleDays(timetabler.rng, timetabler.grid, pool)

	for _, day := range timetabler.grid.Days {
		selector := newDaySelector(pool, timetabler.grid, doubleDays[day])

		for index, period := range timetabler.grid.Periods {
			//** Select subject
			var subject string
			if index == timetabler.grid.ExtendedPeriod() {
				extended, ok, err := selector.PickExtended(timetabler.rng)
				if err != nil {
					return report, err
				} else if !ok {
					report.Unfilled++
					continue
				}
				subject = extended
			} else {
				ordinary, err := selector.PickOrdinary(timetabler.rng)
				if err != nil {
					return report, err
				}
				subject = ordinary
			}
			assignment := subjectIndex[subject]

			//** Check teacher and room availability
			busy, err := timetabler.busy(ctx, tx, assignment, day, period)
			if err != nil {
				return report, err
			} else if busy {
				report.Conflicts++
				report.Unfilled++
				timetabler.logger.Debug("slot skipped",
					zap.String("class", class.Name),
					zap.String("day", day),
					zap.Stringer("period", period),
					zap.String("assignment", catalog.Describe(assignment)),
				)
				continue
			}

			//** Commit
			if _, err := tx.Create(ctx, store.Entry{
				Class:   class.Id,
				Teacher: assignment.Teacher,
				Subject: assignment.Subject,
				Room:    assignment.Room,
				Day:     day,
				Start:   int(period.Start),
				End:     int(period.End),
			}); err != nil {
				return report, err
			}
			report.Entries++
		}

		report.Resets += selector.Resets()
	}

	return report, nil
}

func (timetabler *randomTimetabler) busy(ctx context.Context, tx store.Store, assignment TeachingAssignment, day string, period Period) (bool, error) {
	teacherBusy, err := tx.TeacherBusy(ctx, assignment.Teacher, day, int(period.Start))
	if err != nil || teacherBusy {
		return teacherBusy, err
	}

	if assignment.Room == nil {
		return false, nil
	}
	return tx.RoomBusy(ctx, *assignment.Room, day, int(period.Start))
}

func (timetabler *randomTimetabler) Verify(ctx context.Context, catalog Catalog) error {
	entries, err := timetabler.store.List(ctx)
	if err != nil {
		return err
	}
	return verify(entries, catalog, timetabler.grid)
}
