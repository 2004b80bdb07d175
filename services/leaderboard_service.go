package services

import (
	"errors"
	"strconv"
	"time"

	"carrierwave-activities/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Leaderboard query bounds. MaxLeaderboardLimit caps every page regardless
// of caller input; the radius cap bounds around-windows the same way.
const (
	MaxLeaderboardLimit        = 100
	DefaultAroundRadius        = 5
	MaxAroundRadius            = 50
	defaultLeaderboardPageSize = 50
)

// LeaderboardService answers ranked queries over a challenge's progress
// records. The ordering (score DESC, then updated_at ASC so earlier
// achievers win ties) is computed fresh per query by a RANK() window
// pushed into Postgres; nothing is materialized or cached, and reads never
// take record locks.
type LeaderboardService struct {
	DB *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{DB: db}
}

// rankedRow is the scan target for the window queries.
type rankedRow struct {
	Rank      int
	Callsign  string
	Score     int64
	Tier      *string
	UpdatedAt time.Time
}

func (r rankedRow) entry() models.LeaderboardEntry {
	e := models.LeaderboardEntry{
		Rank:        r.Rank,
		Callsign:    r.Callsign,
		Score:       r.Score,
		CurrentTier: r.Tier,
	}
	if r.Score > 0 {
		t := r.UpdatedAt
		e.CompletedAt = &t
	}
	return e
}

// RANK() assigns competition ranking: records tied on (score, updated_at)
// share a rank and the next distinct value skips past them.
const rankedProgressSQL = `
	SELECT RANK() OVER (ORDER BY score DESC, updated_at ASC) AS rank,
	       callsign, score, tier, updated_at
	FROM challenge_progresses
	WHERE challenge_id = ?`

// Top returns the [offset, offset+limit) slice of the full ordering.
func (s *LeaderboardService) Top(challengeID string, limit, offset int) ([]models.LeaderboardEntry, error) {
	if limit < 1 {
		limit = defaultLeaderboardPageSize
	}
	if limit > MaxLeaderboardLimit {
		limit = MaxLeaderboardLimit
	}
	if offset < 0 {
		offset = 0
	}

	var rows []rankedRow
	err := s.DB.Raw(rankedProgressSQL+`
	ORDER BY score DESC, updated_at ASC
	LIMIT ? OFFSET ?`, challengeID, limit, offset).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// RankOf returns one participant's rank under the same ordering Top uses.
func (s *LeaderboardService) RankOf(challengeID, callsign string) (int, error) {
	var rows []rankedRow
	err := s.DB.Raw(`
	SELECT rank, callsign, score, tier, updated_at FROM (`+rankedProgressSQL+`
	) ranked WHERE callsign = ?`, challengeID, callsign).Scan(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, ErrNotParticipating
	}
	return rows[0].Rank, nil
}

// Around returns every entry whose rank falls within radius of the given
// callsign's rank. A callsign with no progress record cannot be centered and
// yields ErrNotParticipating.
func (s *LeaderboardService) Around(challengeID, callsign string, radius int) ([]models.LeaderboardEntry, error) {
	if radius < 0 {
		radius = 0
	}
	if radius > MaxAroundRadius {
		radius = MaxAroundRadius
	}

	center, err := s.RankOf(challengeID, callsign)
	if err != nil {
		return nil, err
	}

	lower := center - radius
	if lower < 1 {
		lower = 1
	}
	upper := center + radius

	var rows []rankedRow
	err = s.DB.Raw(`
	SELECT rank, callsign, score, tier, updated_at FROM (`+rankedProgressSQL+`
	) ranked
	WHERE rank BETWEEN ? AND ?
	ORDER BY rank ASC, callsign ASC`, challengeID, lower, upper).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return toEntries(rows), nil
}

// Total counts the challenge's progress records.
func (s *LeaderboardService) Total(challengeID string) (int64, error) {
	var total int64
	err := s.DB.Model(&models.ChallengeProgress{}).
		Where("challenge_id = ?", challengeID).
		Count(&total).Error
	return total, err
}

// GetLeaderboard handles GET /v1/challenges/:id/leaderboard.
// Pagination modes are mutually exclusive: ?around=<callsign> selects the
// windowed query and ignores offset.
func (s *LeaderboardService) GetLeaderboard(c *fiber.Ctx) error {
	challengeID := c.Params("id")

	var exists int64
	if err := s.DB.Model(&models.Challenge{}).Where("id = ?", challengeID).Count(&exists).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "DB error fetching challenge",
			"cause": err.Error(),
		})
	}
	if exists == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "challenge_not_found"})
	}

	limit, _ := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLeaderboardPageSize)))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	around := c.Query("around")

	var entries []models.LeaderboardEntry
	var err error
	if around != "" {
		radius, _ := strconv.Atoi(c.Query("radius", strconv.Itoa(DefaultAroundRadius)))
		entries, err = s.Around(challengeID, around, radius)
		if errors.Is(err, ErrNotParticipating) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_participating"})
		}
	} else {
		entries, err = s.Top(challengeID, limit, offset)
	}
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to query leaderboard",
			"cause": err.Error(),
		})
	}
	if entries == nil {
		entries = []models.LeaderboardEntry{}
	}

	total, err := s.Total(challengeID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to count leaderboard",
			"cause": err.Error(),
		})
	}

	response := fiber.Map{
		"leaderboard": entries,
		"total":       total,
		"lastUpdated": s.lastUpdated(challengeID),
	}

	// userPosition is best-effort: present when the caller has a record.
	if callsign, ok := c.Locals("callsign").(string); ok && callsign != "" {
		if pos := s.position(challengeID, callsign); pos != nil {
			response["userPosition"] = pos
		}
	}

	return c.JSON(response)
}

func (s *LeaderboardService) position(challengeID, callsign string) *models.LeaderboardEntry {
	entries, err := s.Around(challengeID, callsign, 0)
	if err != nil || len(entries) == 0 {
		return nil
	}
	return &entries[0]
}

func (s *LeaderboardService) lastUpdated(challengeID string) time.Time {
	var latest *time.Time
	s.DB.Model(&models.ChallengeProgress{}).
		Where("challenge_id = ?", challengeID).
		Select("MAX(updated_at)").
		Scan(&latest)
	if latest == nil {
		return time.Now().UTC()
	}
	return *latest
}

func toEntries(rows []rankedRow) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.entry())
	}
	return entries
}
