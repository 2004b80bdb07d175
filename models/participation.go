package models

import "time"

// Participation status lifecycle: active, then left. A row is never deleted on
// leave so rejoin keeps the original join date visible in history.
const (
	ParticipationActive = "active"
	ParticipationLeft   = "left"
)

// Participant is the minimal identity record for a callsign. Token issuance
// and profile data live in the gateway; this service only needs a stable id
// to own activities, spots and invites.
type Participant struct {
	ID          string    `gorm:"primaryKey;type:uuid" json:"id"`
	Callsign    string    `gorm:"uniqueIndex;not null" json:"callsign"`
	DisplayName string    `json:"display_name,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// ChallengeParticipation links a callsign to a challenge. Uniqueness on
// (challenge_id, callsign) is the storage-level guarantee that a participant
// joins a challenge at most once.
type ChallengeParticipation struct {
	ID          string     `gorm:"primaryKey;type:uuid" json:"id"`
	ChallengeID string     `gorm:"uniqueIndex:idx_participation_challenge_callsign;not null" json:"challenge_id"`
	Callsign    string     `gorm:"uniqueIndex:idx_participation_challenge_callsign;not null" json:"callsign"`
	Status      string     `gorm:"type:varchar(16);default:'active'" json:"status"`
	JoinedAt    time.Time  `gorm:"autoCreateTime" json:"joined_at"`
	LeftAt      *time.Time `json:"left_at,omitempty"`
}
