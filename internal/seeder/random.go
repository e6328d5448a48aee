package seeder

import (
	"math/rand"
	"time"
)

// Source is the randomness every generator draws from. *rand.Rand
// satisfies it.
type Source interface {
	Intn(n int) int
	Float64() float64
	Int63() int64
}

// NewSource returns a seeded source. Seed 0 seeds from the clock.
func NewSource(seed int64) Source {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

func pick(src Source, values []string) string {
	return values[src.Intn(len(values))]
}
