package evo

import (
	"math"
	"math/rand"
)

// Selector picks breeding parents from a ranked population. The parent
// pool is the top Fraction of the population, never fewer than two, and
// picks inside the pool are rank weighted so that rank 0 is the most
// likely parent.
type Selector struct {
	Fraction float64
}

// PoolSize returns the number of ranked profiles eligible as parents.
func (s Selector) PoolSize(populationSize int) int {
	size := int(math.Ceil(s.Fraction * float64(populationSize)))
	if size < 2 {
		size = 2
	}
	if size > populationSize {
		size = populationSize
	}
	return size
}

// PickParent draws one rank index in [0, poolSize) with linearly
// decreasing weight: rank r has weight poolSize - r.
func (s Selector) PickParent(rng *rand.Rand, poolSize int) int {
	total := poolSize * (poolSize + 1) / 2
	draw := rng.Intn(total)
	for rank := 0; rank < poolSize; rank++ {
		draw -= poolSize - rank
		if draw < 0 {
			return rank
		}
	}
	return poolSize - 1
}
