package main

import (
	"math"

	"github.com/google/uuid"
)

// GenerateUUID returns a random v4 UUID string
func GenerateUUID() string {
	return uuid.NewString()
}

// Clamp restricts v to [min, max]
func Clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// Ease moves current toward target by the given fraction
func Ease(current, target, rate float64) float64 {
	return current + (target-current)*rate
}

// round1 rounds to one decimal place for the wire
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// round2 rounds to two decimal places for the wire
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
