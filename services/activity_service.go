package services

import (
	"encoding/json"
	"strconv"
	"time"

	"carrierwave-activities/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityService struct {
	DB *gorm.DB
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{DB: db}
}

// ReportActivity handles POST /v1/activities.
func (s *ActivityService) ReportActivity(c *fiber.Ctx) error {
	callsign := c.Locals("callsign").(string)

	var req models.ReportActivityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid JSON",
			"cause": err.Error(),
		})
	}
	if req.ActivityType == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "type is required"})
	}
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}

	participant, err := getOrCreateParticipant(s.DB, callsign)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to resolve participant",
			"cause": err.Error(),
		})
	}

	details := "{}"
	if len(req.Details) > 0 {
		details = string(req.Details)
	}
	activity := models.Activity{
		ID:            uuid.NewString(),
		ParticipantID: participant.ID,
		Callsign:      callsign,
		ActivityType:  req.ActivityType,
		Timestamp:     req.Timestamp,
		Details:       details,
	}
	if err := s.DB.Create(&activity).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create activity",
			"cause": err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(activity)
}

// DeleteActivity handles DELETE /v1/activities/:id. Owner only.
func (s *ActivityService) DeleteActivity(c *fiber.Ctx) error {
	callsign := c.Locals("callsign").(string)

	participant, err := getOrCreateParticipant(s.DB, callsign)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to resolve participant",
			"cause": err.Error(),
		})
	}

	result := s.DB.Where("id = ? AND participant_id = ?", c.Params("id"), participant.ID).
		Delete(&models.Activity{})
	if result.Error != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to delete activity",
			"cause": result.Error.Error(),
		})
	}
	if result.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "activity_not_found"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// feedRow is the scan target for the feed join.
type feedRow struct {
	ID            string
	Callsign      string
	ParticipantID string
	ActivityType  string
	Timestamp     time.Time
	Details       string
	CreatedAt     time.Time
}

// GetFeed handles GET /v1/feed: friends' activities, newest first, with
// created_at cursor pagination.
func (s *ActivityService) GetFeed(c *fiber.Ctx) error {
	callsign := c.Locals("callsign").(string)

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}

	participant, err := getOrCreateParticipant(s.DB, callsign)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to resolve participant",
			"cause": err.Error(),
		})
	}

	query := s.DB.Table("activities a").
		Select("a.id, a.callsign, a.participant_id, a.activity_type, a.timestamp, a.details, a.created_at").
		Joins("JOIN friendships f ON f.friend_id = a.participant_id").
		Where("f.participant_id = ?", participant.ID)

	if before := c.Query("before"); before != "" {
		if cursor, err := time.Parse(time.RFC3339, before); err == nil {
			query = query.Where("a.created_at < ?", cursor)
		}
	}

	// One extra row decides hasMore.
	var rows []feedRow
	if err := query.Order("a.created_at DESC").Limit(limit + 1).Scan(&rows).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load feed",
			"cause": err.Error(),
		})
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	var nextCursor *string
	if hasMore && len(rows) > 0 {
		cursor := rows[len(rows)-1].CreatedAt.Format(time.RFC3339)
		nextCursor = &cursor
	}

	items := make([]models.FeedItem, 0, len(rows))
	for _, row := range rows {
		details := json.RawMessage(row.Details)
		if row.Details == "" {
			details = json.RawMessage("{}")
		}
		items = append(items, models.FeedItem{
			ID:            row.ID,
			Callsign:      row.Callsign,
			ParticipantID: row.ParticipantID,
			ActivityType:  row.ActivityType,
			Timestamp:     row.Timestamp,
			Details:       details,
		})
	}

	return c.JSON(models.FeedResponse{
		Items:      items,
		Pagination: models.FeedPagination{HasMore: hasMore, NextCursor: nextCursor},
	})
}

// getOrCreateParticipant resolves a callsign to its identity row, creating
// it on first contact. The unique index on callsign makes concurrent
// first-contacts safe.
func getOrCreateParticipant(db *gorm.DB, callsign string) (*models.Participant, error) {
	participant := models.Participant{ID: uuid.NewString(), Callsign: callsign}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "callsign"}},
		DoNothing: true,
	}).Create(&participant).Error
	if err != nil {
		return nil, err
	}
	var out models.Participant
	if err := db.Where("callsign = ?", callsign).First(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}
