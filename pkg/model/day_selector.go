package model

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"
)

var ErrNoEligibleCandidate = errors.New("no eligible subject")

// daySelector picks the subjects of one class over one day.
//
// State: the class' subject pool, the subjects used so far, and the double subject reserved for the day's extended slot (if any).
// Picking a subject marks it used. When every eligible subject is used the selector resets: the used set is emptied, which
// allows one early repeat, and the pick is retried on the full pool.
type daySelector struct {
	pool     []string
	grid     Grid
	reserved string // Empty when the day has no double subject
	used     map[string]bool
	resets   int
}

func newDaySelector(pool []string, grid Grid, reserved string) *daySelector {
	return &daySelector{
		pool:     pool,
		grid:     grid,
		reserved: reserved,
		used:     make(map[string]bool),
	}
}

// PickOrdinary selects the subject of a non-extended period. The reserved double subject is kept for the extended slot
// unless it is the only subject the class has
func (selector *daySelector) PickOrdinary(rng RandomSource) (string, error) {
	if len(selector.pool) == 0 {
		return "", ErrNoEligibleCandidate
	}

	subject, ok := selector.choose(rng, func(subject string) bool { return subject == selector.reserved })
	if !ok {
		subject = pick(rng, selector.pool)
		selector.used[subject] = true
	}
	return subject, nil
}

// PickExtended selects the subject of the extended period: the reserved double subject if the day has one, otherwise any
// non-double subject. ok is false when the class has no non-double subject to offer
func (selector *daySelector) PickExtended(rng RandomSource) (subject string, ok bool, err error) {
	if len(selector.pool) == 0 {
		return "", false, ErrNoEligibleCandidate
	}

	if selector.reserved != "" {
		selector.used[selector.reserved] = true
		return selector.reserved, true, nil
	}

	subject, ok = selector.choose(rng, selector.grid.IsDouble)
	return subject, ok, nil
}

func (selector *daySelector) Resets() int {
	return selector.resets
}

// choose picks among the non-excluded subjects, resetting the used set first if all of them have been used
func (selector *daySelector) choose(rng RandomSource, excluded func(subject string) bool) (string, bool) {
	eligible := lo.Reject(selector.pool, func(subject string, _ int) bool { return excluded(subject) })
	if len(eligible) == 0 {
		return "", false
	}

	candidates := lo.Reject(eligible, func(subject string, _ int) bool { return selector.used[subject] })
	if len(candidates) == 0 {
		selector.reset()
		candidates = eligible
	}

	subject := pick(rng, candidates)
	selector.used[subject] = true
	return subject, true
}

func (selector *daySelector) reset() {
	selector.used = make(map[string]bool)
	selector.resets++
}
