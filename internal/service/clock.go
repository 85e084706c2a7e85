package service

import "time"

// Clock provides the current time. The dashboard's calendar-month window
// uses the local zone of the returned time, so implementations should not
// force UTC.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// SystemClock returns a Clock backed by time.Now.
func SystemClock() Clock {
	return realClock{}
}
