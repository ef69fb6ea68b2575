package service

import "time"

// Clock supplies the current date.
type Clock interface {
	Today() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Today implements Clock.
func (f ClockFunc) Today() time.Time {
	return f()
}

// SystemClock reads the wall clock in UTC.
var SystemClock Clock = ClockFunc(func() time.Time { return time.Now().UTC() })
