package model

import (
	"math/rand/v2"
	"time"
)

// RandomSource drives every random choice of the random timetabler. *rand.Rand satisfies it
type RandomSource interface {
	// Returns a uniform integer in [0, n)
	IntN(n int) int
	// Returns a uniform permutation of [0, n)
	Perm(n int) []int
}

// NewRandomSource returns a PCG-backed source. A zero seed derives one from the clock
func NewRandomSource(seed uint64) RandomSource {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// pick returns a uniformly chosen element of candidates, which must not be empty
func pick[T any](rng RandomSource, candidates []T) T {
	return candidates[rng.IntN(len(candidates))]
}
