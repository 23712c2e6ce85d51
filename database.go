package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerRow is a pilot account
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow is a pilot's career totals
type StatsRow struct {
	PlayerID   int64
	Runs       int
	BestScore  int
	BestWave   int
	TotalScore int
	TotalKills int
	Playtime   float64 // seconds
}

// RunRow is one finished run
type RunRow struct {
	ID            int64
	PlayerID      int64 // 0 for guests
	SessionID     string
	Score         int
	Wave          int
	Kills         int
	Shots         int
	Powerups      int
	FlawlessWaves int
	Duration      float64 // seconds
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank     int     `json:"rank"`
	Username string  `json:"username"`
	Score    int     `json:"score"`
	Wave     int     `json:"wave"`
	Kills    int     `json:"kills"`
	Duration float64 `json:"duration"`
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS pilot_stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		runs INTEGER NOT NULL DEFAULT 0,
		best_score INTEGER NOT NULL DEFAULT 0,
		best_wave INTEGER NOT NULL DEFAULT 0,
		total_score INTEGER NOT NULL DEFAULT 0,
		total_kills INTEGER NOT NULL DEFAULT 0,
		playtime REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		player_id INTEGER REFERENCES players(id),
		session_id TEXT NOT NULL DEFAULT '',
		score INTEGER NOT NULL DEFAULT 0,
		wave INTEGER NOT NULL DEFAULT 1,
		kills INTEGER NOT NULL DEFAULT 0,
		shots INTEGER NOT NULL DEFAULT 0,
		powerups INTEGER NOT NULL DEFAULT 0,
		flawless_waves INTEGER NOT NULL DEFAULT 0,
		duration REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS achievements (
		player_id INTEGER NOT NULL REFERENCES players(id),
		achievement_id TEXT NOT NULL,
		unlocked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (player_id, achievement_id)
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_score ON runs(score DESC);
	CREATE INDEX IF NOT EXISTS idx_runs_player ON runs(player_id);
	CREATE INDEX IF NOT EXISTS idx_events_type ON analytics_events(event_type, created_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CreatePlayer creates a new pilot account (returns player ID)
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO players (username, pass_hash) VALUES (?, ?)", username, passHash)
	if err != nil {
		return 0, fmt.Errorf("insert player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec("INSERT INTO pilot_stats (player_id) VALUES (?)", id); err != nil {
		return 0, fmt.Errorf("insert stats: %w", err)
	}
	return id, tx.Commit()
}

// GetPlayerByUsername returns a player by username, or nil if there is none
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE username = ?",
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetStats returns a pilot's career totals, or nil if the pilot is unknown
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		`SELECT player_id, runs, best_score, best_wave, total_score, total_kills, playtime
		 FROM pilot_stats WHERE player_id = ?`,
		playerID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Runs, &s.BestScore, &s.BestWave, &s.TotalScore, &s.TotalKills, &s.Playtime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// RecordRun stores a finished run and, for signed-in pilots, folds it into
// their career totals. playerID 0 records a guest run.
func (db *DB) RecordRun(playerID int64, sessionID string, r RunStats) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	pid := sql.NullInt64{Int64: playerID, Valid: playerID > 0}
	dur := r.Duration().Seconds()
	res, err := tx.Exec(
		`INSERT INTO runs (player_id, session_id, score, wave, kills, shots, powerups, flawless_waves, duration)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pid, sessionID, r.Score, r.Wave, r.Kills(), r.ShotsFired, r.PowerupsCollected, r.FlawlessWaves, dur,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if playerID > 0 {
		_, err = tx.Exec(`
			UPDATE pilot_stats SET
				runs = runs + 1,
				best_score = MAX(best_score, ?),
				best_wave = MAX(best_wave, ?),
				total_score = total_score + ?,
				total_kills = total_kills + ?,
				playtime = playtime + ?
			WHERE player_id = ?`,
			r.Score, r.Wave, r.Score, r.Kills(), dur, playerID,
		)
		if err != nil {
			return 0, fmt.Errorf("update stats: %w", err)
		}
	}
	return runID, tx.Commit()
}

// GetRuns returns a pilot's most recent runs
func (db *DB) GetRuns(playerID int64, limit int) ([]RunRow, error) {
	rows, err := db.conn.Query(`
		SELECT id, COALESCE(player_id, 0), session_id, score, wave, kills, shots, powerups, flawless_waves, duration
		FROM runs WHERE player_id = ?
		ORDER BY id DESC LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.PlayerID, &r.SessionID, &r.Score, &r.Wave, &r.Kills, &r.Shots, &r.Powerups, &r.FlawlessWaves, &r.Duration); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// GetLeaderboard returns the best runs, highest score first
func (db *DB) GetLeaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(`
		SELECT COALESCE(p.username, 'Guest'), r.score, r.wave, r.kills, r.duration
		FROM runs r LEFT JOIN players p ON p.id = r.player_id
		ORDER BY r.score DESC, r.id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []LeaderboardEntry{}
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Score, &e.Wave, &e.Kills, &e.Duration); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetAchievements returns the achievement IDs a pilot has unlocked
func (db *DB) GetAchievements(playerID int64) ([]string, error) {
	rows, err := db.conn.Query(
		"SELECT achievement_id FROM achievements WHERE player_id = ? ORDER BY unlocked_at, achievement_id",
		playerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UnlockAchievement records an achievement. It reports false if the pilot
// already had it.
func (db *DB) UnlockAchievement(playerID int64, achievementID string) (bool, error) {
	res, err := db.conn.Exec(
		"INSERT OR IGNORE INTO achievements (player_id, achievement_id) VALUES (?, ?)",
		playerID, achievementID,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// GetSetting returns a stored setting, or "" if unset
func (db *DB) GetSetting(key string) string {
	var value string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value); err != nil {
		return ""
	}
	return value
}

// SetSetting stores a setting
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
