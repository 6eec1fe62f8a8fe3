package engine

import (
	"math/rand"
	"time"
)

// Rand is the randomness surface every shuffle, jitter and weighted-roulette
// draw in this package routes through. The
// standard library's *rand.Rand already satisfies it, so tests can seed a
// fixed source and production can seed off the wall clock.
type Rand interface {
	Float64() float64
	Intn(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewProductionRand returns a wall-clock-seeded RNG suitable for production
// calls where determinism is not required.
func NewProductionRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

// NewSeededRand returns a fixed-seed RNG for deterministic tests.
func NewSeededRand(seed int64) Rand {
	return rand.New(rand.NewSource(seed))
}

// shuffleDays returns a shuffled copy of Days.
func shuffleDays(rng Rand) []Day {
	out := make([]Day, len(Days))
	copy(out, Days[:])
	rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// jitter returns a uniform value in [-span, +span].
func jitter(rng Rand, span float64) float64 {
	return (rng.Float64()*2 - 1) * span
}
