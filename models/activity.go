package models

import (
	"encoding/json"
	"time"
)

// Activity is a notable on-air event a participant reports (first contact,
// award earned, challenge milestone). Details is an opaque client document.
type Activity struct {
	ID            string    `gorm:"primaryKey;type:uuid" json:"id"`
	ParticipantID string    `gorm:"index;not null" json:"-"`
	Callsign      string    `gorm:"index;not null" json:"callsign"`
	ActivityType  string    `gorm:"not null" json:"activityType"`
	Timestamp     time.Time `gorm:"not null" json:"timestamp"`
	Details       string    `gorm:"type:jsonb;default:'{}'" json:"-"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"-"`
}

// MarshalJSON inlines Details as a JSON object.
func (a Activity) MarshalJSON() ([]byte, error) {
	type alias Activity
	details := json.RawMessage(a.Details)
	if a.Details == "" {
		details = json.RawMessage("{}")
	}
	return json.Marshal(struct {
		alias
		Details json.RawMessage `json:"details"`
	}{alias: alias(a), Details: details})
}

// ReportActivityRequest is the body for POST /v1/activities.
type ReportActivityRequest struct {
	ActivityType string          `json:"type"`
	Timestamp    time.Time       `json:"timestamp"`
	Details      json.RawMessage `json:"details"`
}

// FeedItem is an activity enriched with the author's participant id, as it
// appears in a friend's feed.
type FeedItem struct {
	ID            string          `json:"id"`
	Callsign      string          `json:"callsign"`
	ParticipantID string          `json:"participantId"`
	ActivityType  string          `json:"activityType"`
	Timestamp     time.Time       `json:"timestamp"`
	Details       json.RawMessage `json:"details"`
}

// FeedResponse is the payload for GET /v1/feed.
type FeedResponse struct {
	Items      []FeedItem     `json:"items"`
	Pagination FeedPagination `json:"pagination"`
}

// FeedPagination carries the created_at cursor for the next page.
type FeedPagination struct {
	HasMore    bool    `json:"hasMore"`
	NextCursor *string `json:"nextCursor,omitempty"`
}
