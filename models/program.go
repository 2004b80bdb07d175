package models

import "time"

// Program is a catalog entry for an on-air activity program (POTA, SOTA, …).
// The catalog is read-heavy and versioned by its newest updated_at so clients
// can cache it.
type Program struct {
	Slug      string `gorm:"primaryKey" json:"slug"`
	Name      string `gorm:"not null" json:"name"`
	ShortName string `json:"shortName"`
	Icon      string `json:"icon"`
	IconURL   string `json:"iconUrl,omitempty"`
	Website   string `json:"website,omitempty"`

	ReferenceLabel   string `json:"referenceLabel"`
	ReferenceFormat  string `json:"referenceFormat,omitempty"`
	ReferenceExample string `json:"referenceExample,omitempty"`

	MultiRefAllowed     bool     `gorm:"default:false" json:"multiRefAllowed"`
	ActivationThreshold *int     `json:"activationThreshold,omitempty"`
	SupportsRove        bool     `gorm:"default:false" json:"supportsRove"`
	Capabilities        []string `gorm:"type:jsonb;serializer:json" json:"capabilities"`

	SortOrder int  `gorm:"default:0" json:"-"`
	IsActive  bool `gorm:"default:true" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"-"`
}

// HasCapability reports whether the program declares a capability
// (e.g. "selfSpot", "dataEntry").
func (p *Program) HasCapability(cap string) bool {
	for _, c := range p.Capabilities {
		if c == cap {
			return true
		}
	}
	return false
}

// ProgramListResponse is the payload for GET /v1/programs. Version is the
// newest updated_at among active programs, as epoch seconds.
type ProgramListResponse struct {
	Programs []Program `json:"programs"`
	Version  int64     `json:"version"`
}
