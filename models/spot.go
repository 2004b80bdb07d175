package models

import "time"

// Spot sources. "self" spots are posted by participants; the rest arrive
// through the aggregator workers.
const (
	SpotSourcePota = "pota"
	SpotSourceRbn  = "rbn"
	SpotSourceSota = "sota"
	SpotSourceSelf = "self"
)

// Spot is a sighting of a station on the air. Aggregated spots are keyed by
// (source, external_id) so repeated polls update in place; every spot expires
// and is reaped by the cleanup job.
type Spot struct {
	ID          string  `gorm:"primaryKey;type:uuid" json:"id"`
	Callsign    string  `gorm:"index;not null" json:"callsign"`
	ProgramSlug *string `gorm:"index" json:"programSlug,omitempty"`
	Source      string  `gorm:"uniqueIndex:idx_spots_source_external;type:varchar(16);not null" json:"source"`
	ExternalID  *string `gorm:"uniqueIndex:idx_spots_source_external" json:"-"`

	FrequencyKHz float64 `gorm:"column:frequency_khz" json:"frequencyKhz"`
	Mode         string  `json:"mode"`

	Reference     *string `json:"reference,omitempty"`
	ReferenceName *string `json:"referenceName,omitempty"`
	Spotter       *string `json:"spotter,omitempty"`
	SpotterGrid   *string `json:"spotterGrid,omitempty"`
	LocationDesc  *string `json:"locationDesc,omitempty"`
	CountryCode   *string `json:"countryCode,omitempty"`
	StateAbbr     *string `json:"stateAbbr,omitempty"`
	Comments      *string `json:"comments,omitempty"`
	SNR           *int16  `gorm:"column:snr" json:"snr,omitempty"`
	WPM           *int16  `gorm:"column:wpm" json:"wpm,omitempty"`

	SubmittedBy *string `gorm:"index" json:"-"` // participant id for self-spots

	SpottedAt time.Time `gorm:"index;not null" json:"spottedAt"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expiresAt"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// CreateSelfSpotRequest is the body for POST /v1/spots.
type CreateSelfSpotRequest struct {
	ProgramSlug  string  `json:"programSlug"`
	FrequencyKHz float64 `json:"frequencyKhz"`
	Mode         string  `json:"mode"`
	Reference    *string `json:"reference"`
	Comments     *string `json:"comments"`
}

// SpotsListResponse is the payload for GET /v1/spots.
type SpotsListResponse struct {
	Spots      []Spot          `json:"spots"`
	Pagination SpotsPagination `json:"pagination"`
}

// SpotsPagination carries the spotted_at cursor for the next page.
type SpotsPagination struct {
	HasMore    bool    `json:"hasMore"`
	NextCursor *string `json:"nextCursor,omitempty"`
}
