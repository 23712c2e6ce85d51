package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrSessionLimit    = errors.New("too many active sessions")
	ErrSessionNotFound = errors.New("session not found")
)

// Session is one running game plus everything attached to it
type Session struct {
	ID     string
	Game   *Game
	Input  *InputState
	Frames *FrameBroadcaster

	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	pilotID     int64 // 0 = guest
	controllers int
	lastSeen    time.Time
}

// SetPilot credits future runs to pilotID
func (s *Session) SetPilot(pilotID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pilotID = pilotID
}

// Pilot returns the pilot runs are credited to
func (s *Session) Pilot() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pilotID
}

// AttachController records a phone controller and tells viewers about it
func (s *Session) AttachController() {
	s.mu.Lock()
	s.controllers++
	first := s.controllers == 1
	s.mu.Unlock()
	if first {
		s.Frames.BroadcastJSON(Envelope{T: MsgCtrlOn})
	}
}

// DetachController undoes AttachController. Held input is released when the
// last controller leaves.
func (s *Session) DetachController() {
	s.mu.Lock()
	if s.controllers > 0 {
		s.controllers--
	}
	last := s.controllers == 0
	s.mu.Unlock()
	if last {
		s.Input.Reset()
		s.Frames.BroadcastJSON(Envelope{T: MsgCtrlOff})
	}
}

// HasController reports whether a phone controller is attached
func (s *Session) HasController() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.controllers > 0
}

// Touch marks the session as in use
func (s *Session) Touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// SessionOptions configures a SessionManager
type SessionOptions struct {
	MaxSessions int
	IdleTimeout time.Duration
	TickRate    int
	MaxDelta    time.Duration
	Drops       bool
	Clock       Clock
}

// SessionManager handles creation, lookup and reaping of sessions
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     SessionOptions
	ctx      context.Context
	wg       sync.WaitGroup

	db        *DB
	analytics *Analytics
	log       *zap.Logger
}

// NewSessionManager creates a manager. Game loops run under ctx; db and
// analytics may be nil.
func NewSessionManager(ctx context.Context, opts SessionOptions, db *DB, analytics *Analytics, log *zap.Logger) *SessionManager {
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 100
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = 5 * time.Minute
	}
	if opts.TickRate <= 0 {
		opts.TickRate = TickRate
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &SessionManager{
		sessions:  make(map[string]*Session),
		opts:      opts,
		ctx:       ctx,
		db:        db,
		analytics: analytics,
		log:       log,
	}
}

// Create starts a new session in the menu phase
func (sm *SessionManager) Create(pilotID int64) (*Session, error) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if len(sm.sessions) >= sm.opts.MaxSessions {
		return nil, ErrSessionLimit
	}

	id := GenerateUUID()
	log := sm.log.With(zap.String("session", id))
	sess := &Session{
		ID:       id,
		Input:    NewInputState(),
		Frames:   NewFrameBroadcaster(log),
		done:     make(chan struct{}),
		pilotID:  pilotID,
		lastSeen: sm.opts.Clock.Now(),
	}
	sess.Game = NewGame(GameOptions{
		Clock:        sm.opts.Clock,
		Input:        sess.Input,
		Presenter:    sess.Frames,
		Logger:       log,
		Hooks:        sm.hooksFor(sess),
		DisableDrops: !sm.opts.Drops,
		MaxDelta:     float64(sm.opts.MaxDelta) / float64(time.Millisecond),
	})

	ctx, cancel := context.WithCancel(sm.ctx)
	sess.cancel = cancel
	sm.sessions[id] = sess
	sm.analytics.SetActiveSessions(len(sm.sessions))

	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()
		defer close(sess.done)
		_ = sess.Game.Run(ctx, sm.opts.TickRate)
	}()

	log.Info("session created", zap.Int64("pilot", pilotID))
	sm.analytics.Track(EvtSessionStart, pilotID, id, nil)
	return sess, nil
}

// Get returns a session by ID
func (sm *SessionManager) Get(id string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	sess, ok := sm.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// Remove stops a session and forgets it
func (sm *SessionManager) Remove(id string) {
	sm.mu.Lock()
	sess, ok := sm.sessions[id]
	if ok {
		delete(sm.sessions, id)
	}
	n := len(sm.sessions)
	sm.mu.Unlock()
	if !ok {
		return
	}

	sess.cancel()
	<-sess.done
	sm.analytics.SetActiveSessions(n)
	sm.analytics.Track(EvtSessionEnd, sess.Pilot(), id, nil)
	sm.log.Info("session removed", zap.String("session", id))
}

// Count returns the number of live sessions
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// Reap removes sessions nobody has watched for the idle timeout. Returns
// how many were removed.
func (sm *SessionManager) Reap() int {
	now := sm.opts.Clock.Now()
	var stale []string
	sm.mu.RLock()
	for id, sess := range sm.sessions {
		if sess.Frames.Count() > 0 || sess.HasController() {
			continue
		}
		if now.Sub(sess.idleSince()) >= sm.opts.IdleTimeout {
			stale = append(stale, id)
		}
	}
	sm.mu.RUnlock()

	for _, id := range stale {
		sm.Remove(id)
	}
	return len(stale)
}

// RunReaper reaps idle sessions until ctx is done
func (sm *SessionManager) RunReaper(ctx context.Context) error {
	interval := sm.opts.IdleTimeout / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := sm.Reap(); n > 0 {
				sm.log.Info("reaped idle sessions", zap.Int("count", n))
			}
		}
	}
}

// StopAll stops every session and waits for their loops to exit
func (sm *SessionManager) StopAll() {
	sm.mu.Lock()
	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	sm.mu.Unlock()
	for _, id := range ids {
		sm.Remove(id)
	}
	sm.wg.Wait()
}

func (sm *SessionManager) hooksFor(sess *Session) GameHooks {
	return GameHooks{
		OnStart: func() {
			sm.analytics.Track(EvtRunStart, sess.Pilot(), sess.ID, nil)
		},
		OnWaveCleared: func(wave int, flawless bool) {
			sm.analytics.Track(EvtWaveCleared, sess.Pilot(), sess.ID, map[string]any{
				"wave":     wave,
				"flawless": flawless,
			})
		},
		OnGameOver: func(stats RunStats) {
			sm.finishRun(sess, stats)
		},
	}
}

// finishRun records a finished run and tells the viewers how it went
func (sm *SessionManager) finishRun(sess *Session, stats RunStats) {
	pilot := sess.Pilot()
	log := sm.log.With(zap.String("session", sess.ID), zap.Int64("pilot", pilot))

	over := RunOverMsg{
		Score:    stats.Score,
		Wave:     stats.Wave,
		Kills:    stats.Kills(),
		Duration: round1(stats.Duration().Seconds()),
	}

	var unlocked []AchievementDef
	if sm.db != nil {
		if _, err := sm.db.RecordRun(pilot, sess.ID, stats); err != nil {
			log.Error("record run failed", zap.Error(err))
		} else if pilot > 0 {
			if career, err := sm.db.GetStats(pilot); err == nil && career != nil {
				over.Best = career.BestScore
			}
			unlocked = CheckAchievements(sm.db, pilot, stats, log)
		}
	}

	sess.Frames.BroadcastJSON(Envelope{T: MsgRunOver, Data: over})
	for _, def := range unlocked {
		sess.Frames.BroadcastJSON(Envelope{T: MsgAchievement, Data: AchievementMsg{
			ID:   def.ID,
			Name: def.Name,
			Desc: def.Description,
		}})
		sm.analytics.Track(EvtAchievement, pilot, sess.ID, map[string]string{"id": def.ID})
	}
	sm.analytics.Track(EvtRunEnd, pilot, sess.ID, runEndData{
		Score:    stats.Score,
		Wave:     stats.Wave,
		Kills:    stats.Kills(),
		Duration: stats.Duration().Seconds(),
	})
	log.Info("run over", zap.Int("score", stats.Score), zap.Int("wave", stats.Wave))
}
