package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock is a Clock that only moves when told to
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestFakeClockAdvance(t *testing.T) {
	c := newFakeClock()
	start := c.Now()
	c.Advance(150 * time.Millisecond)
	assert.Equal(t, 150*time.Millisecond, c.Now().Sub(start))
}

func TestSystemClockMoves(t *testing.T) {
	a := SystemClock.Now()
	b := SystemClock.Now()
	assert.False(t, b.Before(a))
}
