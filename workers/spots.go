package workers

import (
	"time"

	"carrierwave-activities/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// upsertAggregatedSpot writes a spot keyed on (source, external_id) so each
// poll refreshes the mutable fields in place instead of duplicating rows.
func upsertAggregatedSpot(db *gorm.DB, spot *models.Spot) error {
	if spot.ID == "" {
		spot.ID = uuid.NewString()
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"frequency_khz", "mode", "reference", "reference_name",
			"comments", "expires_at", "updated_at",
		}),
	}).Create(spot).Error
}

// parseNaiveUTC parses upstream timestamps that are UTC but carry no zone
// suffix (both POTA and SOTA emit this shape).
func parseNaiveUTC(value string) (time.Time, error) {
	t, err := time.Parse("2006-01-02T15:04:05", value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
