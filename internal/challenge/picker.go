package challenge

import (
	"math/rand/v2"
	"sync"
	"time"
)

// Picker chooses the next rule index in [0, n).
//
// Implementations draw independently each call; repeats are allowed.
type Picker interface {
	Pick(n int) int
}

// RandomPicker draws uniformly with replacement.
type RandomPicker struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomPicker returns a seeded picker. Seed 0 seeds from the wall clock.
func NewRandomPicker(seed uint64) *RandomPicker {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &RandomPicker{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Pick returns an index in [0, n). Thread-safe.
func (p *RandomPicker) Pick(n int) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.IntN(n)
}
