package scheduler

import "time"

// Clock abstracts wall-clock reads so scheduler decisions are testable.
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
