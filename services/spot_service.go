package services

import (
	"errors"
	"strconv"
	"time"

	"carrierwave-activities/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Self-spots live for 30 minutes, matching the aggregated-spot default.
const selfSpotTTL = 30 * time.Minute

type SpotService struct {
	DB *gorm.DB
}

func NewSpotService(db *gorm.DB) *SpotService {
	return &SpotService{DB: db}
}

// ListSpots handles GET /v1/spots: unexpired spots, newest first, with
// optional filters and spotted_at cursor pagination. Fetches limit+1 rows to
// decide hasMore.
func (s *SpotService) ListSpots(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "100"))
	if limit < 1 {
		limit = 1
	}
	if limit > 250 {
		limit = 250
	}
	maxAgeMinutes, _ := strconv.Atoi(c.Query("maxAgeMinutes", "30"))
	if maxAgeMinutes < 1 {
		maxAgeMinutes = 1
	}
	if maxAgeMinutes > 1440 {
		maxAgeMinutes = 1440
	}

	now := time.Now().UTC()
	query := s.DB.Where("expires_at > ?", now).
		Where("spotted_at >= ?", now.Add(-time.Duration(maxAgeMinutes)*time.Minute))

	if program := c.Query("program"); program != "" {
		query = query.Where("program_slug = ?", program)
	}
	if callsign := c.Query("callsign"); callsign != "" {
		query = query.Where("callsign = ?", callsign)
	}
	if source := c.Query("source"); source != "" {
		query = query.Where("source = ?", source)
	}
	if mode := c.Query("mode"); mode != "" {
		query = query.Where("mode = ?", mode)
	}
	if state := c.Query("state"); state != "" {
		query = query.Where("state_abbr = ?", state)
	}
	if cursor := c.Query("cursor"); cursor != "" {
		if before, err := time.Parse(time.RFC3339, cursor); err == nil {
			query = query.Where("spotted_at < ?", before)
		}
	}

	var spots []models.Spot
	if err := query.Order("spotted_at DESC").Limit(limit + 1).Find(&spots).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list spots",
			"cause": err.Error(),
		})
	}

	hasMore := len(spots) > limit
	if hasMore {
		spots = spots[:limit]
	}
	var nextCursor *string
	if hasMore && len(spots) > 0 {
		cursor := spots[len(spots)-1].SpottedAt.Format(time.RFC3339)
		nextCursor = &cursor
	}

	return c.JSON(models.SpotsListResponse{
		Spots:      spots,
		Pagination: models.SpotsPagination{HasMore: hasMore, NextCursor: nextCursor},
	})
}

// CreateSelfSpot handles POST /v1/spots. The program must exist and declare
// the selfSpot capability; one unexpired self-spot per participant+program.
func (s *SpotService) CreateSelfSpot(c *fiber.Ctx) error {
	callsign := c.Locals("callsign").(string)

	var req models.CreateSelfSpotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON",
			"cause": err.Error(),
		})
	}
	if req.ProgramSlug == "" || req.Mode == "" || req.FrequencyKHz <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "programSlug, mode and frequencyKhz are required",
		})
	}

	var program models.Program
	if err := s.DB.Where("slug = ? AND is_active = ?", req.ProgramSlug, true).First(&program).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "program_not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "DB error fetching program",
			"cause": err.Error(),
		})
	}
	if !program.HasCapability("selfSpot") {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "program does not support self-spotting",
		})
	}

	participant, err := s.getOrCreateParticipant(callsign)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to resolve participant",
			"cause": err.Error(),
		})
	}

	var existing int64
	err = s.DB.Model(&models.Spot{}).
		Where("submitted_by = ? AND program_slug = ? AND source = ? AND expires_at > ?",
			participant.ID, req.ProgramSlug, models.SpotSourceSelf, time.Now().UTC()).
		Count(&existing).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "DB error checking existing self-spot",
			"cause": err.Error(),
		})
	}
	if existing > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "an unexpired self-spot already exists for this program",
		})
	}

	now := time.Now().UTC()
	spot := models.Spot{
		ID:           uuid.NewString(),
		Callsign:     callsign,
		ProgramSlug:  &req.ProgramSlug,
		Source:       models.SpotSourceSelf,
		FrequencyKHz: req.FrequencyKHz,
		Mode:         req.Mode,
		Reference:    req.Reference,
		Comments:     req.Comments,
		SubmittedBy:  &participant.ID,
		SpottedAt:    now,
		ExpiresAt:    now.Add(selfSpotTTL),
	}
	if err := s.DB.Create(&spot).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create spot",
			"cause": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(spot)
}

// DeleteOwnSpot handles DELETE /v1/spots/:id. Ownership enforced via
// submitted_by.
func (s *SpotService) DeleteOwnSpot(c *fiber.Ctx) error {
	callsign := c.Locals("callsign").(string)

	participant, err := s.getOrCreateParticipant(callsign)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to resolve participant",
			"cause": err.Error(),
		})
	}

	result := s.DB.Where("id = ? AND submitted_by = ?", c.Params("id"), participant.ID).
		Delete(&models.Spot{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete spot",
			"cause": result.Error.Error(),
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "spot_not_found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AdminDeleteSpot handles DELETE /v1/admin/spots/:id.
func (s *SpotService) AdminDeleteSpot(c *fiber.Ctx) error {
	result := s.DB.Where("id = ?", c.Params("id")).Delete(&models.Spot{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete spot",
			"cause": result.Error.Error(),
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "spot_not_found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *SpotService) getOrCreateParticipant(callsign string) (*models.Participant, error) {
	return getOrCreateParticipant(s.DB, callsign)
}
