package main

import "time"

// Clock supplies wall time to the simulation. Shot cooldowns, rapid-fire
// expiry and enemy fire intervals are absolute deadlines read from it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the real wall clock
var SystemClock Clock = systemClock{}
