package models

import "time"

// ChallengeProgress is the single canonical progress record per
// (challenge, callsign). Every report fully overwrites the previous state;
// there is no merge, so a report with fewer completed goals shrinks progress.
// The composite unique index backs the atomic upsert.
type ChallengeProgress struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID string `gorm:"uniqueIndex:idx_progress_challenge_callsign;not null" json:"challenge_id"`
	Callsign    string `gorm:"uniqueIndex:idx_progress_challenge_callsign;not null" json:"callsign"`

	CompletedGoals []string `gorm:"type:jsonb;serializer:json" json:"completed_goals"`
	CurrentValue   int64    `gorm:"default:0" json:"current_value"`
	Score          int64    `gorm:"default:0;index" json:"score"`
	Tier           *string  `json:"tier,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// LeaderboardEntry is computed fresh per query, never persisted.
// completedAt is only surfaced once a participant has scored.
type LeaderboardEntry struct {
	Rank        int        `json:"rank"`
	Callsign    string     `json:"callsign"`
	Score       int64      `json:"score"`
	CurrentTier *string    `json:"currentTier,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ProgressReport is the client payload for POST /v1/challenges/:id/progress.
// qualifyingQsoCount and lastQsoDate ride along for parity with the iOS
// client; scoring only consumes completedGoals and currentValue.
type ProgressReport struct {
	CompletedGoals     []string   `json:"completedGoals"`
	CurrentValue       int64      `json:"currentValue"`
	QualifyingQsoCount int64      `json:"qualifyingQsoCount"`
	LastQsoDate        *time.Time `json:"lastQsoDate"`
}

// ServerProgress is the authoritative state echoed back after a report.
type ServerProgress struct {
	CompletedGoals []string `json:"completedGoals"`
	CurrentValue   int64    `json:"currentValue"`
	Percentage     float64  `json:"percentage"`
	Score          int64    `json:"score"`
	Rank           int      `json:"rank"`
	CurrentTier    *string  `json:"currentTier,omitempty"`
}

// ProgressReportResult is the response body for a progress report.
// Badge computation lives in an external collaborator, so newBadges is
// always empty here.
type ProgressReportResult struct {
	Accepted       bool           `json:"accepted"`
	ServerProgress ServerProgress `json:"serverProgress"`
	NewBadges      []string       `json:"newBadges"`
}
