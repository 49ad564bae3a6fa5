package booking

import "time"

// Clock is the single point of time injection; the engine never calls
// time.Now directly. The core works in UTC.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

func NewRealClock() Clock {
	return realClock{}
}
