package services

import (
	"errors"
	"log"
	"strconv"
	"time"

	"carrierwave-activities/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChallengeService struct {
	DB *gorm.DB
}

func NewChallengeService(db *gorm.DB) *ChallengeService {
	return &ChallengeService{DB: db}
}

// ListChallenges handles GET /v1/challenges with optional category, type and
// active filters. Each row carries its active participant count.
func (s *ChallengeService) ListChallenges(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	query := s.DB.Model(&models.Challenge{})
	if category := c.Query("category"); category != "" {
		query = query.Where("challenges.category = ?", category)
	}
	if challengeType := c.Query("type"); challengeType != "" {
		query = query.Where("challenges.challenge_type = ?", challengeType)
	}
	if active := c.Query("active"); active != "" {
		query = query.Where("challenges.is_active = ?", active == "true")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to count challenges",
			"cause": err.Error(),
		})
	}

	var items []models.ChallengeListItem
	err := query.
		Select(`challenges.id, challenges.name, challenges.description,
			challenges.category, challenges.challenge_type, challenges.is_active,
			COUNT(cp.id) AS participant_count`).
		Joins(`LEFT JOIN challenge_participations cp
			ON cp.challenge_id = challenges.id AND cp.status = ?`, models.ParticipationActive).
		Group("challenges.id").
		Order("challenges.created_at DESC").
		Limit(limit).Offset(offset).
		Scan(&items).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list challenges",
			"cause": err.Error(),
		})
	}
	if items == nil {
		items = []models.ChallengeListItem{}
	}

	return c.JSON(fiber.Map{"challenges": items, "total": total})
}

// GetChallenge handles GET /v1/challenges/:id.
func (s *ChallengeService) GetChallenge(c *fiber.Ctx) error {
	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "challenge_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "DB error fetching challenge",
			"cause": err.Error(),
		})
	}
	return c.JSON(challenge)
}

// CreateChallenge handles POST /v1/admin/challenges.
func (s *ChallengeService) CreateChallenge(c *fiber.Ctx) error {
	var req models.CreateChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON",
			"cause": err.Error(),
		})
	}
	if req.Name == "" || req.ChallengeType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name and challenge_type are required",
		})
	}

	challenge := models.Challenge{
		ID:             uuid.NewString(),
		Name:           req.Name,
		Description:    req.Description,
		Author:         req.Author,
		Category:       req.Category,
		ChallengeType:  req.ChallengeType,
		Configuration:  jsonOrEmpty(req.Configuration),
		InviteConfig:   jsonOrEmpty(req.InviteConfig),
		HamAlertConfig: jsonOrEmpty(req.HamAlertConfig),
		IsActive:       true,
	}
	if err := s.DB.Create(&challenge).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create challenge",
			"cause": err.Error(),
		})
	}

	log.Printf("[CHALLENGE] created %s (%s) by %s", challenge.Name, challenge.ID, challenge.Author)
	return c.Status(fiber.StatusCreated).JSON(challenge)
}

// UpdateChallenge handles PUT /v1/admin/challenges/:id, bumping the version.
func (s *ChallengeService) UpdateChallenge(c *fiber.Ctx) error {
	var req models.CreateChallengeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON",
			"cause": err.Error(),
		})
	}

	var challenge models.Challenge
	if err := s.DB.First(&challenge, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "challenge_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "DB error fetching challenge",
			"cause": err.Error(),
		})
	}

	challenge.Name = req.Name
	challenge.Description = req.Description
	challenge.Author = req.Author
	challenge.Category = req.Category
	challenge.ChallengeType = req.ChallengeType
	challenge.Configuration = jsonOrEmpty(req.Configuration)
	challenge.InviteConfig = jsonOrEmpty(req.InviteConfig)
	challenge.HamAlertConfig = jsonOrEmpty(req.HamAlertConfig)
	challenge.Version++

	if err := s.DB.Save(&challenge).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to update challenge",
			"cause": err.Error(),
		})
	}
	return c.JSON(challenge)
}

// DeleteChallenge handles DELETE /v1/admin/challenges/:id. Participations
// and progress go with the challenge.
func (s *ChallengeService) DeleteChallenge(c *fiber.Ctx) error {
	id := c.Params("id")
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("challenge_id = ?", id).Delete(&models.ChallengeProgress{}).Error; err != nil {
			return err
		}
		if err := tx.Where("challenge_id = ?", id).Delete(&models.ChallengeParticipation{}).Error; err != nil {
			return err
		}
		result := tx.Unscoped().Where("id = ?", id).Delete(&models.Challenge{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "challenge_not_found"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete challenge",
			"cause": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// JoinChallenge handles POST /v1/challenges/:id/join. Rejoining after a
// leave reactivates the same participation row.
func (s *ChallengeService) JoinChallenge(c *fiber.Ctx) error {
	challengeID := c.Params("id")
	callsign := c.Locals("callsign").(string)

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

	participation := models.ChallengeParticipation{
		ID:          uuid.NewString(),
		ChallengeID: challengeID,
		Callsign:    callsign,
		Status:      models.ParticipationActive,
	}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "challenge_id"}, {Name: "callsign"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "left_at"}),
	}).Create(&participation).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to join challenge",
			"cause": err.Error(),
		})
	}

	log.Printf("[CHALLENGE] %s joined %s", callsign, challengeID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"challenge_id": challengeID,
		"callsign":     callsign,
		"status":       models.ParticipationActive,
	})
}

// LeaveChallenge handles DELETE /v1/challenges/:id/join. The progress record
// is owned by the participation and is destroyed with it.
func (s *ChallengeService) LeaveChallenge(c *fiber.Ctx) error {
	challengeID := c.Params("id")
	callsign := c.Locals("callsign").(string)

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		result := tx.Model(&models.ChallengeParticipation{}).
			Where("challenge_id = ? AND callsign = ? AND status = ?", challengeID, callsign, models.ParticipationActive).
			Updates(map[string]interface{}{"status": models.ParticipationLeft, "left_at": &now})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotParticipating
		}
		return tx.Where("challenge_id = ? AND callsign = ?", challengeID, callsign).
			Delete(&models.ChallengeProgress{}).Error
	})
	if errors.Is(err, ErrNotParticipating) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_participating"})
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to leave challenge",
			"cause": err.Error(),
		})
	}

	log.Printf("[CHALLENGE] %s left %s", callsign, challengeID)
	return c.SendStatus(fiber.StatusNoContent)
}

func jsonOrEmpty(raw []byte) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}
