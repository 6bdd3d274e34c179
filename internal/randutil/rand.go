// Package randutil builds math/rand/v2 generators from a single int64
// seed. Deck shuffles and ISMCTS search workers both need replayable
// streams, and workers are seeded sequentially, so nearby seeds are
// scrambled apart before they reach the PCG.
package randutil

import rand "math/rand/v2"

// goldenGamma is the SplitMix64 Weyl increment; offsetting the seed by
// it derives the second PCG word independently of the first.
const goldenGamma = 0x9e3779b97f4a7c15

// New returns a generator that replays the same sequence for the same
// seed.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(splitmix64(u), splitmix64(u+goldenGamma)))
}

// splitmix64 is the SplitMix64 finalizer, spreading sequential seeds
// across the full 64-bit space.
func splitmix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
