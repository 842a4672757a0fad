// Package clock provides the time source used by the ledger and HTTP layers.
//
// Nothing outside main.go should call time.Now() directly. Services take a
// Clock so schedules, sweeps and aggregates can be evaluated against any
// reference date.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual system time.
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

// FixedClock always returns T.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time {
	return c.T
}

// NewReal returns a Clock backed by the system time. Use it only in main.
func NewReal() Clock {
	return RealClock{}
}

// NewFixed returns a Clock that always reports t.
func NewFixed(t time.Time) Clock {
	return FixedClock{T: t}
}

var (
	_ Clock = RealClock{}
	_ Clock = FixedClock{}
)
