package model

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ErrInvalidGrid = errors.New("invalid grid")

// ClockTime is a time of day expressed in minutes since midnight
type ClockTime int

func ParseClockTime(value string) (ClockTime, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidGrid, "time of day %q must be formatted as HH:MM", value)
	}
	return ClockTime(parsed.Hour()*60 + parsed.Minute()), nil
}

func MustParseClockTime(value string) ClockTime {
	return lo.Must(ParseClockTime(value))
}

func (clock ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(clock)/60, int(clock)%60)
}

func (clock ClockTime) MarshalText() ([]byte, error) {
	return []byte(clock.String()), nil
}

func (clock *ClockTime) UnmarshalText(text []byte) error {
	parsed, err := ParseClockTime(string(text))
	if err != nil {
		return err
	}
	*clock = parsed
	return nil
}

type Period struct {
	Start ClockTime `json:"start"`
	End   ClockTime `json:"end"`
}

func (period Period) String() string {
	return fmt.Sprintf("%v-%v", period.Start, period.End)
}

// Grid is the weekly frame shared by every class. The last period is the extended slot, the only one eligible for double lessons
type Grid struct {
	Days           []string
	Periods        []Period
	DoubleSubjects []string
}

func DefaultGrid() Grid {
	period := func(start, end string) Period {
		return Period{Start: MustParseClockTime(start), End: MustParseClockTime(end)}
	}

	return Grid{
		Days: []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"},
		Periods: []Period{
			period("08:00", "08:30"),
			period("08:30", "09:00"),
			period("09:30", "10:00"),
			period("10:00", "10:30"),
			period("11:00", "11:30"),
			period("11:30", "12:00"),
			period("13:00", "13:30"),
			period("13:30", "14:00"),
			period("14:00", "14:30"),
			period("16:00", "17:00"), // Extended slot
		},
		DoubleSubjects: []string{"Chemistry", "Biology", "Physics"},
	}
}

func (grid Grid) ExtendedPeriod() int {
	return len(grid.Periods) - 1
}

func (grid Grid) IsDouble(subject string) bool {
	return lo.Contains(grid.DoubleSubjects, subject)
}

func (grid Grid) Validate() error {
	if len(grid.Days) == 0 {
		return errors.Wrap(ErrInvalidGrid, "at least one day is required")
	} else if len(grid.Periods) == 0 {
		return errors.Wrap(ErrInvalidGrid, "at least one period is required")
	} else if duplicates := lo.FindDuplicates(grid.Days); len(duplicates) > 0 {
		return errors.Wrapf(ErrInvalidGrid, "duplicate days %v", duplicates)
	} else if duplicates := lo.FindDuplicates(grid.DoubleSubjects); len(duplicates) > 0 {
		return errors.Wrapf(ErrInvalidGrid, "duplicate double subjects %v", duplicates)
	} else if len(grid.DoubleSubjects) > len(grid.Days) {
		return errors.Wrapf(ErrInvalidGrid, "%d double subjects cannot be spread over %d days", len(grid.DoubleSubjects), len(grid.Days))
	}

	for i, period := range grid.Periods {
		if period.Start >= period.End {
			return errors.Wrapf(ErrInvalidGrid, "period %v must start before it ends", period)
		}
		if i > 0 && grid.Periods[i-1].End > period.Start {
			return errors.Wrapf(ErrInvalidGrid, "period %v overlaps or precedes period %v", period, grid.Periods[i-1])
		}
	}
	return nil
}

// Period returns the grid period starting at start, if any
func (grid Grid) Period(start ClockTime) (index int, period Period, ok bool) {
	period, index, ok = lo.FindIndexOf(grid.Periods, func(period Period) bool { return period.Start == start })
	return index, period, ok
}
