package cache

import "time"

// clock is the time source used for expiry checks
type clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}
