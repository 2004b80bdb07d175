package services

import (
	"errors"
	"log"

	"carrierwave-activities/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Domain errors surfaced by the progress and leaderboard services. Storage
// errors pass through untouched and map to 500s at the handler layer.
var (
	ErrChallengeNotFound = errors.New("challenge not found")
	ErrNotParticipating  = errors.New("not participating in challenge")
)

type ProgressService struct {
	DB          *gorm.DB
	Leaderboard *LeaderboardService
}

func NewProgressService(db *gorm.DB, leaderboard *LeaderboardService) *ProgressService {
	return &ProgressService{DB: db, Leaderboard: leaderboard}
}

// Upsert writes the canonical progress record for (challengeID, callsign) as
// a single INSERT ... ON CONFLICT DO UPDATE. Last write wins; there is no
// read-then-write window and no conflict detection between devices. Every
// field is overwritten and updated_at refreshed, even when content is
// unchanged.
func (s *ProgressService) Upsert(challengeID, callsign string, completedGoals []string, currentValue, score int64, tier *string) (*models.ChallengeProgress, error) {
	if completedGoals == nil {
		completedGoals = []string{}
	}
	rec := models.ChallengeProgress{
		ID:             uuid.NewString(),
		ChallengeID:    challengeID,
		Callsign:       callsign,
		CompletedGoals: completedGoals,
		CurrentValue:   currentValue,
		Score:          score,
		Tier:           tier,
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "challenge_id"}, {Name: "callsign"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"completed_goals", "current_value", "score", "tier", "updated_at",
		}),
	}).Create(&rec).Error
	if err != nil {
		return nil, err
	}
	// Re-read so the caller sees the committed row (id and created_at keep
	// their original values on the update path).
	return s.Get(challengeID, callsign)
}

// Get returns the progress record for (challengeID, callsign), or nil when
// the participant has never reported.
func (s *ProgressService) Get(challengeID, callsign string) (*models.ChallengeProgress, error) {
	var rec models.ChallengeProgress
	err := s.DB.Where("challenge_id = ? AND callsign = ?", challengeID, callsign).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ReportProgress handles POST /v1/challenges/:id/progress.
// Flow: challenge lookup, participation check, evaluate under the
// challenge's scoring policy, atomic upsert, rank readback.
func (s *ProgressService) ReportProgress(c *fiber.Ctx) error {
	challengeID := c.Params("id")
	callsign := c.Locals("callsign").(string)

	var report models.ProgressReport
	if err := c.BodyParser(&report); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON",
			"cause": err.Error(),
		})
	}

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", challengeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "challenge_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "DB error fetching challenge",
			"cause": err.Error(),
		})
	}
	if !challenge.IsActive {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "challenge_not_active"})
	}

	participating, err := s.isParticipating(challengeID, callsign)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "DB error checking participation",
			"cause": err.Error(),
		})
	}
	if !participating {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "not_participating"})
	}

	policy := ParseScoringPolicy(challenge.ChallengeType, challenge.Configuration)
	score, percentage, tier := Evaluate(policy, report.CompletedGoals, report.CurrentValue)

	rec, err := s.Upsert(challengeID, callsign, report.CompletedGoals, report.CurrentValue, score, tier)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to persist progress",
			"cause": err.Error(),
		})
	}

	rank, err := s.Leaderboard.RankOf(challengeID, callsign)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to compute rank",
			"cause": err.Error(),
		})
	}

	log.Printf("[PROGRESS] %s on %s score=%d tier=%v rank=%d", callsign, challengeID, score, deref(tier), rank)

	return c.JSON(models.ProgressReportResult{
		Accepted: true,
		ServerProgress: models.ServerProgress{
			CompletedGoals: rec.CompletedGoals,
			CurrentValue:   rec.CurrentValue,
			Percentage:     percentage,
			Score:          rec.Score,
			Rank:           rank,
			CurrentTier:    rec.Tier,
		},
		NewBadges: []string{},
	})
}

func (s *ProgressService) isParticipating(challengeID, callsign string) (bool, error) {
	var count int64
	err := s.DB.Model(&models.ChallengeParticipation{}).
		Where("challenge_id = ? AND callsign = ? AND status = ?", challengeID, callsign, models.ParticipationActive).
		Count(&count).Error
	return count > 0, err
}

func deref(s *string) string {
	if s == nil {
		return "none"
	}
	return *s
}
