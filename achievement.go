package main

import "go.uber.org/zap"

// AchievementDef describes one achievement
type AchievementDef struct {
	ID          string
	Name        string
	Description string
}

var Achievements = []AchievementDef{
	{"first_blood", "First Blood", "Shoot something down"},
	{"wave_5", "Holding the Line", "Reach wave 5"},
	{"wave_10", "Deep Space", "Reach wave 10"},
	{"score_1000", "Four Digits", "Score 1000 in a single run"},
	{"score_10000", "High Roller", "Score 10000 in a single run"},
	{"flawless", "Untouchable", "Clear a wave without taking damage"},
	{"collector", "Collector", "Pick up 5 powerups in a single run"},
	{"veteran", "Veteran", "Finish 50 runs"},
	{"centurion", "Centurion", "Shoot down 1000 targets in total"},
}

// achievementEarned checks one achievement against a run and career totals
func achievementEarned(id string, run RunStats, career *StatsRow) bool {
	switch id {
	case "first_blood":
		return run.Kills() >= 1
	case "wave_5":
		return run.Wave >= 5
	case "wave_10":
		return run.Wave >= 10
	case "score_1000":
		return run.Score >= 1000
	case "score_10000":
		return run.Score >= 10000
	case "flawless":
		return run.FlawlessWaves >= 1
	case "collector":
		return run.PowerupsCollected >= 5
	case "veteran":
		return career != nil && career.Runs >= 50
	case "centurion":
		return career != nil && career.TotalKills >= 1000
	}
	return false
}

// CheckAchievements unlocks whatever the finished run earned. Call it after
// the run has been recorded so career totals include it. Returns the newly
// unlocked achievements.
func CheckAchievements(db *DB, playerID int64, run RunStats, log *zap.Logger) []AchievementDef {
	if db == nil || playerID <= 0 {
		return nil
	}

	career, err := db.GetStats(playerID)
	if err != nil {
		log.Warn("achievements: load stats", zap.Int64("pilot", playerID), zap.Error(err))
		return nil
	}
	existing, err := db.GetAchievements(playerID)
	if err != nil {
		log.Warn("achievements: load unlocked", zap.Int64("pilot", playerID), zap.Error(err))
		return nil
	}
	has := make(map[string]bool, len(existing))
	for _, id := range existing {
		has[id] = true
	}

	var unlocked []AchievementDef
	for _, def := range Achievements {
		if has[def.ID] || !achievementEarned(def.ID, run, career) {
			continue
		}
		ok, err := db.UnlockAchievement(playerID, def.ID)
		if err != nil {
			log.Warn("achievements: unlock", zap.String("id", def.ID), zap.Error(err))
			continue
		}
		if ok {
			unlocked = append(unlocked, def)
		}
	}
	return unlocked
}
