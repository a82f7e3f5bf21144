package utils

import (
	"fmt"
	"math/rand"
	"sync"
)

// Intner is the random source the game draws positions, colours and
// tie-breaks from. *rand.Rand satisfies it.
type Intner interface {
	Intn(n int) int
}

// lockedRand makes a *rand.Rand safe to share between actors.
type lockedRand struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRand returns a goroutine-safe Intner seeded with seed.
func NewRand(seed int64) Intner {
	return &lockedRand{rnd: rand.New(rand.NewSource(seed))}
}

func (r *lockedRand) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rnd.Intn(n)
}

// NewRandomColor returns a "#rrggbb" colour, each channel drawn from [0,255].
func NewRandomColor(r Intner) string {
	return fmt.Sprintf("#%02x%02x%02x", r.Intn(256), r.Intn(256), r.Intn(256))
}

// NewRandomPosition returns a coordinate with both components in [0,size).
func NewRandomPosition(r Intner, size int) (int, int) {
	x := r.Intn(size)
	y := r.Intn(size)
	return x, y
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// DirectionFromString normalises client input into "up", "down", "left" or
// "right". Keyboard names (ArrowUp, w, ...) are accepted; anything else maps to "".
func DirectionFromString(direction string) string {
	switch direction {
	case "up", "ArrowUp", "w", "W":
		return "up"
	case "down", "ArrowDown", "s", "S":
		return "down"
	case "left", "ArrowLeft", "a", "A":
		return "left"
	case "right", "ArrowRight", "d", "D":
		return "right"
	}
	return ""
}
