package main

import "time"

// Phase is the top-level game state
type Phase uint8

const (
	PhaseMenu Phase = iota
	PhasePlaying
	PhaseGameOver
)

func (p Phase) String() string {
	switch p {
	case PhaseMenu:
		return "menu"
	case PhasePlaying:
		return "playing"
	case PhaseGameOver:
		return "game_over"
	}
	return "unknown"
}

// RunStats summarises one run from start to game over
type RunStats struct {
	Score              int
	Wave               int
	AsteroidsDestroyed int
	EnemiesDestroyed   int
	ShotsFired         int
	PowerupsCollected  int
	FlawlessWaves      int
	DamageTaken        float64
	Started            time.Time
	Ended              time.Time
}

// Kills counts everything the pilot shot down
func (r RunStats) Kills() int {
	return r.AsteroidsDestroyed + r.EnemiesDestroyed
}

// Duration is the length of the run, or zero while it is still going
func (r RunStats) Duration() time.Duration {
	if r.Ended.IsZero() {
		return 0
	}
	return r.Ended.Sub(r.Started)
}
