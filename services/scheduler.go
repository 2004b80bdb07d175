// services/scheduler.go
package services

import (
	"log"
	"time"

	"carrierwave-activities/models"

	"github.com/go-co-op/gocron/v2"
)

// StartSpotCleanupScheduler reaps expired spots every 2 minutes so the
// spots table only ever holds the live window.
func (s *SpotService) StartSpotCleanupScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(2*time.Minute),
		gocron.NewTask(func() {
			result := s.DB.Where("expires_at < ?", time.Now().UTC()).Delete(&models.Spot{})
			if result.Error != nil {
				log.Printf("[SPOTS] TTL cleanup error: %v", result.Error)
				return
			}
			if result.RowsAffected > 0 {
				log.Printf("[SPOTS] TTL cleanup: deleted %d expired spots", result.RowsAffected)
			}
		}),
	)
}
