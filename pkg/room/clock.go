package room

import (
	"math/rand/v2"
	"time"
)

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock abstracts time so deletion after the grace period can be driven by tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Random is the source of action outcomes. Float64 returns a value in [0, 1).
type Random interface {
	Float64() float64
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }
