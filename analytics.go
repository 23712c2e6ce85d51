package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Event types for analytics tracking
const (
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
	EvtRunStart     = "run_start"
	EvtRunEnd       = "run_end"
	EvtWaveCleared  = "wave_cleared"
	EvtAchievement  = "achievement"
)

const (
	analyticsQueueSize  = 1024
	analyticsBatchSize  = 50
	analyticsFlushEvery = 5 * time.Second
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64
	SessionID string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics handles event tracking with batched background writes
type Analytics struct {
	db     *DB
	log    *zap.Logger
	events chan AnalyticsEvent

	mu             sync.RWMutex
	connections    int
	activeSessions int
}

// NewAnalytics creates the tracker. Events are persisted once Run is going.
func NewAnalytics(db *DB, log *zap.Logger) *Analytics {
	if log == nil {
		log = zap.NewNop()
	}
	return &Analytics{
		db:     db,
		log:    log,
		events: make(chan AnalyticsEvent, analyticsQueueSize),
	}
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType string, playerID int64, sessionID string, data any) {
	if a == nil {
		return
	}
	var payload string
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			a.log.Warn("analytics payload", zap.String("type", evtType), zap.Error(err))
		} else {
			payload = string(b)
		}
	}
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      payload,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// queue full, drop rather than stall a game loop
	}
}

// SetConnections updates the live connection count
func (a *Analytics) SetConnections(n int) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.connections = n
	a.mu.Unlock()
}

// SetActiveSessions updates the live session count
func (a *Analytics) SetActiveSessions(n int) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.activeSessions = n
	a.mu.Unlock()
}

// LiveMetrics returns (connections, active sessions)
func (a *Analytics) LiveMetrics() (int, int) {
	if a == nil {
		return 0, 0
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.connections, a.activeSessions
}

// Run batches queued events into the database until ctx is done, then
// flushes whatever is left.
func (a *Analytics) Run(ctx context.Context) error {
	batch := make([]AnalyticsEvent, 0, analyticsBatchSize)
	ticker := time.NewTicker(analyticsFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= analyticsBatchSize {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ctx.Done():
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					a.flush(batch)
					return nil
				}
			}
		}
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		a.log.Error("analytics begin tx", zap.Error(err))
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		a.log.Error("analytics prepare", zap.Error(err))
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PlayerID, Valid: evt.PlayerID > 0}
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, pid, sid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			a.log.Error("analytics insert", zap.String("type", evt.Type), zap.Error(err))
		}
	}
	if err := tx.Commit(); err != nil {
		a.log.Error("analytics commit", zap.Error(err))
	}
}

// --- Query methods for the API ---

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= strftime('%Y-%m-%dT%H:%M:%SZ', 'now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			return nil, err
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// RunSummary aggregates finished runs over the last N days
func (a *Analytics) RunSummary(days int) (RunAnalytics, error) {
	var s RunAnalytics
	if a.db == nil {
		return s, nil
	}
	var avgScore, avgWave, avgDur sql.NullFloat64
	err := a.db.conn.QueryRow(`
		SELECT COUNT(*),
			AVG(json_extract(data, '$.score')),
			AVG(json_extract(data, '$.wave')),
			AVG(json_extract(data, '$.duration'))
		FROM analytics_events
		WHERE event_type = ? AND json_valid(data)
			AND created_at >= strftime('%Y-%m-%dT%H:%M:%SZ', 'now', '-' || ? || ' days')
	`, EvtRunEnd, days).Scan(&s.Runs, &avgScore, &avgWave, &avgDur)
	if err != nil {
		return s, err
	}
	s.AvgScore = avgScore.Float64
	s.AvgWave = avgWave.Float64
	s.AvgDuration = avgDur.Float64
	return s, nil
}

// RunAnalytics holds aggregated run statistics
type RunAnalytics struct {
	Runs        int     `json:"runs"`
	AvgScore    float64 `json:"avg_score"`
	AvgWave     float64 `json:"avg_wave"`
	AvgDuration float64 `json:"avg_duration"`
}

// runEndData is the payload stored with run_end events
type runEndData struct {
	Score    int     `json:"score"`
	Wave     int     `json:"wave"`
	Kills    int     `json:"kills"`
	Duration float64 `json:"duration"`
}
