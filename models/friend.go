package models

import "time"

// Friendship is a one-directional edge; accepting an invite creates both
// directions so feed queries stay a single join.
type Friendship struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID string    `gorm:"uniqueIndex:idx_friendship_pair;not null" json:"participant_id"`
	FriendID      string    `gorm:"uniqueIndex:idx_friendship_pair;not null" json:"friend_id"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// FriendInvite is a single-use invite token. Issuance happens upstream; this
// service only renders the landing page and consumes tokens.
type FriendInvite struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	Token         string     `gorm:"uniqueIndex;not null" json:"token"`
	ParticipantID string     `gorm:"index;not null" json:"participant_id"`
	ExpiresAt     time.Time  `gorm:"not null" json:"expires_at"`
	UsedAt        *time.Time `json:"used_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
