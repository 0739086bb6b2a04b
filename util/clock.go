package util

import "time"

// Clock is the time source injected into the consumer manager so expiration
// and read-budget arithmetic stays deterministic under test.
type Clock interface {
	Millis() int64
}

type systemClock struct{}

func SystemClock() Clock {
	return systemClock{}
}

func (systemClock) Millis() int64 {
	return time.Now().UnixMilli()
}
