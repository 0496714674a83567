package service

import (
	"math/rand/v2"
	"sync"
)

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() } //nolint:gosec
func (globalRand) IntN(n int) int   { return rand.IntN(n) }   //nolint:gosec

// NewGlobalRand возвращает RandSource поверх глобального генератора math/rand/v2.
func NewGlobalRand() RandSource {
	return globalRand{}
}

type seededRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSeededRand возвращает детерминированный RandSource. Одинаковый seed дает одинаковую последовательность.
func NewSeededRand(seed uint64) RandSource {
	return &seededRand{rnd: rand.New(rand.NewPCG(seed, seed))} //nolint:gosec
}

func (s *seededRand) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Float64()
}

func (s *seededRand) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.IntN(n)
}
