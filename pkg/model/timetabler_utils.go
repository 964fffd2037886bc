package model

import (
	"fmt"

	"github.com/limaJavier/schooltimetable/pkg/store"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ErrInvalidTimetable = errors.New("invalid timetable")

// planDoubleDays maps a random sample of distinct days onto the double subjects the class teaches, one subject per day
func planDoubleDays(rng RandomSource, grid Grid, pool []string) map[string]string {
	plan := make(map[string]string)

	doubles := lo.Filter(grid.DoubleSubjects, func(subject string, _ int) bool { return lo.Contains(pool, subject) })
	if len(doubles) == 0 {
		return plan
	}

	days := rng.Perm(len(grid.Days))
	for i, subject := range doubles {
		plan[grid.Days[days[i]]] = subject
	}
	return plan
}

type slot struct {
	owner uint64
	day   string
	start int
}

func verify(entries []store.Entry, catalog Catalog, grid Grid) error {
	//** Initialize assistance
	classAssistance := make(map[slot]bool)
	teacherAssistance := make(map[slot]bool)
	roomAssistance := make(map[slot]bool)

	//** Day on which each (class, double subject) takes the extended slot
	doubleDays := make(map[[2]uint64]string)

	for _, entry := range entries {
		// Check that:
		// - The lesson matches a period of the grid on one of its days
		// - The subject belongs to the catalog
		// - The class is not already attending a lesson at that day and start
		// - The teacher is not already teaching at that day and start
		// - The room (if any) is not already hosting a lesson at that day and start
		index, period, ok := grid.Period(ClockTime(entry.Start))
		if !ok || int(period.End) != entry.End || !lo.Contains(grid.Days, entry.Day) {
			return errors.Wrapf(ErrInvalidTimetable, "%v is not a slot of the grid", describeEntry(entry))
		} else if entry.Subject >= uint64(len(catalog.Subjects)) {
			return errors.Wrapf(ErrInvalidTimetable, "%v refers to an unknown subject", describeEntry(entry))
		} else if classAssistance[slot{entry.Class, entry.Day, entry.Start}] {
			return errors.Wrapf(ErrInvalidTimetable, "class is double-booked at %v", describeEntry(entry))
		} else if teacherAssistance[slot{entry.Teacher, entry.Day, entry.Start}] {
			return errors.Wrapf(ErrInvalidTimetable, "teacher is double-booked at %v", describeEntry(entry))
		} else if entry.Room != nil && roomAssistance[slot{*entry.Room, entry.Day, entry.Start}] {
			return errors.Wrapf(ErrInvalidTimetable, "room is double-booked at %v", describeEntry(entry))
		}

		classAssistance[slot{entry.Class, entry.Day, entry.Start}] = true
		teacherAssistance[slot{entry.Teacher, entry.Day, entry.Start}] = true
		if entry.Room != nil {
			roomAssistance[slot{*entry.Room, entry.Day, entry.Start}] = true
		}

		// Check that a double subject takes the extended slot on one day at most. Two double subjects cannot share a day,
		// since the class holds a single extended slot per day
		subjectName := catalog.SubjectName(entry.Subject)
		if index != grid.ExtendedPeriod() || !grid.IsDouble(subjectName) {
			continue
		}
		key := [2]uint64{entry.Class, entry.Subject}
		if day, ok := doubleDays[key]; ok {
			return errors.Wrapf(ErrInvalidTimetable, "double subject %q takes the extended slot on %v and %v", subjectName, day, entry.Day)
		}
		doubleDays[key] = entry.Day
	}

	return nil
}

func describeEntry(entry store.Entry) string {
	return fmt.Sprintf("class %d, teacher %d, %v %v-%v", entry.Class, entry.Teacher, entry.Day, ClockTime(entry.Start), ClockTime(entry.End))
}
