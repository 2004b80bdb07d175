package services

import (
	"errors"
	"log"
	"time"

	"carrierwave-activities/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InviteService consumes friend-invite tokens. Token issuance happens
// upstream in the gateway; this side only renders and accepts them.
type InviteService struct {
	DB *gorm.DB
}

func NewInviteService(db *gorm.DB) *InviteService {
	return &InviteService{DB: db}
}

// InviterCallsign resolves a token to the inviter's callsign if the invite
// is still usable (unused and unexpired). Used by the HTML landing page,
// which degrades to a generic greeting on any failure.
func (s *InviteService) InviterCallsign(token string) (string, error) {
	invite, err := s.usableInvite(token)
	if err != nil {
		return "", err
	}
	var inviter models.Participant
	if err := s.DB.First(&inviter, "id = ?", invite.ParticipantID).Error; err != nil {
		return "", err
	}
	return inviter.Callsign, nil
}

// AcceptInvite handles POST /v1/invites/:token/accept. Marks the token used
// and creates the friendship in both directions.
func (s *InviteService) AcceptInvite(c *fiber.Ctx) error {
	callsign := c.Locals("callsign").(string)
	token := c.Params("token")

	accepter, err := getOrCreateParticipant(s.DB, callsign)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to resolve participant",
			"cause": err.Error(),
		})
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var invite models.FriendInvite
		if err := tx.Where("token = ? AND used_at IS NULL AND expires_at > ?", token, time.Now().UTC()).
			First(&invite).Error; err != nil {
			return err
		}
		if invite.ParticipantID == accepter.ID {
			return errors.New("cannot accept own invite")
		}

		now := time.Now().UTC()
		invite.UsedAt = &now
		if err := tx.Save(&invite).Error; err != nil {
			return err
		}

		edges := []models.Friendship{
			{ID: uuid.NewString(), ParticipantID: invite.ParticipantID, FriendID: accepter.ID},
			{ID: uuid.NewString(), ParticipantID: accepter.ID, FriendID: invite.ParticipantID},
		}
		for _, edge := range edges {
			if err := tx.Where("participant_id = ? AND friend_id = ?", edge.ParticipantID, edge.FriendID).
				FirstOrCreate(&edge).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "invite_not_found_or_expired"})
	}
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to accept invite",
			"cause": err.Error(),
		})
	}

	log.Printf("[INVITES] %s accepted invite %s", callsign, token)
	return c.JSON(fiber.Map{"accepted": true})
}

func (s *InviteService) usableInvite(token string) (*models.FriendInvite, error) {
	var invite models.FriendInvite
	err := s.DB.Where("token = ? AND used_at IS NULL AND expires_at > ?", token, time.Now().UTC()).
		First(&invite).Error
	if err != nil {
		return nil, err
	}
	return &invite, nil
}
