package main

import (
	"strings"
	"sync"
)

// Action is a logical player intent, independent of the device producing it
type Action uint8

const (
	ActionUp Action = iota
	ActionDown
	ActionLeft
	ActionRight
	ActionBoost
	ActionFire
	ActionBarrelRoll
	actionCount
)

var actionNames = [actionCount]string{
	ActionUp:         "up",
	ActionDown:       "down",
	ActionLeft:       "left",
	ActionRight:      "right",
	ActionBoost:      "boost",
	ActionFire:       "fire",
	ActionBarrelRoll: "roll",
}

func (a Action) String() string {
	if a < actionCount {
		return actionNames[a]
	}
	return "unknown"
}

// ParseAction maps a wire name to an Action
func ParseAction(name string) (Action, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range actionNames {
		if n == name {
			return Action(i), true
		}
	}
	return 0, false
}

// InputSource is polled by the simulation once per tick
type InputSource interface {
	IsActionHeld(a Action) bool
	// PointerOffset is the normalized pointer position in [-1,1]x[-1,1]
	PointerOffset() (x, y float64)
	// TakePress reports whether a was pressed since the last call and clears the latch
	TakePress(a Action) bool
}

// InputState is an InputSource fed by key and pointer events. Several
// connections (a desktop and a phone controller) may write to it at once.
type InputState struct {
	mu      sync.Mutex
	held    [actionCount]bool
	pressed [actionCount]bool
	px, py  float64
}

// NewInputState creates an empty InputState
func NewInputState() *InputState {
	return &InputState{}
}

// KeyDown marks a as held and latches a press
func (s *InputState) KeyDown(a Action) {
	if a >= actionCount {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held[a] = true
	s.pressed[a] = true
}

// KeyUp releases a. A latched press survives until taken.
func (s *InputState) KeyUp(a Action) {
	if a >= actionCount {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held[a] = false
}

// SetHeldMask replaces the held set with the bits of mask (bit i = Action i).
// Newly set bits latch a press.
func (s *InputState) SetHeldMask(mask uint8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := Action(0); i < actionCount; i++ {
		down := mask&(1<<i) != 0
		if down && !s.held[i] {
			s.pressed[i] = true
		}
		s.held[i] = down
	}
}

// SetPointer stores the pointer offset, clamped to [-1,1]
func (s *InputState) SetPointer(x, y float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.px = Clamp(x, -1, 1)
	s.py = Clamp(y, -1, 1)
}

// Reset releases everything
func (s *InputState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.held = [actionCount]bool{}
	s.pressed = [actionCount]bool{}
	s.px, s.py = 0, 0
}

func (s *InputState) IsActionHeld(a Action) bool {
	if a >= actionCount {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.held[a]
}

func (s *InputState) PointerOffset() (float64, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.px, s.py
}

func (s *InputState) TakePress(a Action) bool {
	if a >= actionCount {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pressed[a]
	s.pressed[a] = false
	return p
}

// noInput is used when a game has no input attached
type noInput struct{}

func (noInput) IsActionHeld(Action) bool { return false }
func (noInput) PointerOffset() (float64, float64) { return 0, 0 }
func (noInput) TakePress(Action) bool { return false }
