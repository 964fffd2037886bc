package model

import (
	"context"

	"github.com/samber/lo"
)

type Timetabler interface {
	// Replaces the committed timetable with a freshly generated one. Class failures are reported in the Report; the returned error is reserved for faults that abort the whole run (which then leaves the previous timetable in place)
	Build(ctx context.Context, catalog Catalog) (Report, error)

	// Checks the committed timetable against the uniqueness invariants and the double-subject placement
	Verify(ctx context.Context, catalog Catalog) error
}

type ClassReport struct {
	Class     Class
	Entries   int   // Committed lessons
	Conflicts int   // Slots skipped because the teacher or the room was already booked
	Unfilled  int   // Slots left empty, conflicts included
	Resets    int   // Exhaustion resets over the week
	Err       error // ErrNoEligibleCandidate when the class could not be scheduled at all
}

type Report struct {
	Classes []ClassReport
}

func (report Report) Failed() []ClassReport {
	return lo.Filter(report.Classes, func(classReport ClassReport, _ int) bool { return classReport.Err != nil })
}

func (report Report) Totals() (entries, conflicts, unfilled, resets int) {
	for _, classReport := range report.Classes {
		entries += classReport.Entries
		conflicts += classReport.Conflicts
		unfilled += classReport.Unfilled
		resets += classReport.Resets
	}
	return entries, conflicts, unfilled, resets
}
