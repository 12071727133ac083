package app

import "math/rand"

// Shuffler permutes n elements through swap, like rand.Shuffle.
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

type globalShuffler struct{}

// Shuffle uses the auto-seeded, goroutine-safe top-level source.
func (globalShuffler) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// RandomShuffler returns an unseeded uniform shuffler safe for concurrent use.
func RandomShuffler() Shuffler { return globalShuffler{} }

// ShufflerFunc adapts a function to Shuffler.
type ShufflerFunc func(n int, swap func(i, j int))

func (f ShufflerFunc) Shuffle(n int, swap func(i, j int)) { f(n, swap) }
