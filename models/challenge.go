package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// Challenge goal-type categories. The configuration document decides the
// rest of the scoring behavior; these only select how progress is measured.
const (
	ChallengeTypeCollection  = "collection"
	ChallengeTypeCumulative  = "cumulative"
	ChallengeTypeTimeBounded = "time_bounded"
)

// Challenge is an author-defined goal structure participants join and
// report progress against. Configuration is an opaque jsonb document
// interpreted by the scoring layer; malformed sections degrade to defaults
// instead of rejecting the challenge.
type Challenge struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	Version       int    `gorm:"default:1" json:"version"`
	Name          string `gorm:"not null" json:"name"`
	Description   string `json:"description"`
	Author        string `json:"author"`
	Category      string `gorm:"index" json:"category"`
	ChallengeType string `gorm:"index;not null" json:"challenge_type"`

	Configuration  string `gorm:"type:jsonb;default:'{}'" json:"-"`
	InviteConfig   string `gorm:"type:jsonb;default:'{}'" json:"-"`
	HamAlertConfig string `gorm:"type:jsonb;default:'{}'" json:"-"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	Timestamps
}

// MarshalJSON inlines the jsonb columns as real JSON objects instead of
// double-encoded strings.
func (c Challenge) MarshalJSON() ([]byte, error) {
	type alias Challenge
	return json.Marshal(struct {
		alias
		Configuration  json.RawMessage `json:"configuration"`
		InviteConfig   json.RawMessage `json:"invite_config,omitempty"`
		HamAlertConfig json.RawMessage `json:"hamalert_config,omitempty"`
	}{
		alias:          alias(c),
		Configuration:  rawOrEmptyObject(c.Configuration),
		InviteConfig:   rawOrEmptyObject(c.InviteConfig),
		HamAlertConfig: rawOrEmptyObject(c.HamAlertConfig),
	})
}

func rawOrEmptyObject(s string) json.RawMessage {
	if s == "" {
		return json.RawMessage("{}")
	}
	return json.RawMessage(s)
}

// CreateChallengeRequest is the admin create/update payload.
type CreateChallengeRequest struct {
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Author         string          `json:"author"`
	Category       string          `json:"category"`
	ChallengeType  string          `json:"challenge_type"`
	Configuration  json.RawMessage `json:"configuration"`
	InviteConfig   json.RawMessage `json:"invite_config"`
	HamAlertConfig json.RawMessage `json:"hamalert_config"`
}

// ChallengeListItem is the list view row (adds the active participant count).
type ChallengeListItem struct {
	ID               string `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	Category         string `json:"category"`
	ChallengeType    string `json:"challenge_type"`
	IsActive         bool   `json:"is_active"`
	ParticipantCount int64  `json:"participant_count"`
}

// Timestamps adds GORM auto-times.
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
