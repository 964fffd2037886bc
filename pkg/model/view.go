package model

import (
	"cmp"
	"slices"

	"github.com/limaJavier/schooltimetable/pkg/store"

	"github.com/samber/lo"
)

type GridRow struct {
	Period Period         `json:"period"`
	Cells  []*store.Entry `json:"cells"` // One per day, nil when the class has no lesson
}

// GridView lays out a class' timetable with one row per distinct period present and one column per day
type GridView struct {
	Days []string  `json:"days"`
	Rows []GridRow `json:"rows"`
}

func BuildGridView(entries []store.Entry, days []string) GridView {
	periods := lo.Uniq(lo.Map(entries, func(entry store.Entry, _ int) Period {
		return Period{Start: ClockTime(entry.Start), End: ClockTime(entry.End)}
	}))
	slices.SortFunc(periods, func(a, b Period) int {
		return cmp.Or(cmp.Compare(a.Start, b.Start), cmp.Compare(a.End, b.End))
	})

	type cellKey struct {
		day        string
		start, end int
	}
	cells := make(map[cellKey]store.Entry, len(entries))
	for _, entry := range entries {
		cells[cellKey{entry.Day, entry.Start, entry.End}] = entry
	}

	view := GridView{Days: days, Rows: make([]GridRow, 0, len(periods))}
	for _, period := range periods {
		row := GridRow{Period: period, Cells: make([]*store.Entry, len(days))}
		for i, day := range days {
			if entry, ok := cells[cellKey{day, int(period.Start), int(period.End)}]; ok {
				row.Cells[i] = &entry
			}
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}
