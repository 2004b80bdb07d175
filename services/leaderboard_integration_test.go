package services

import (
	"context"
	"testing"
	"time"

	"carrierwave-activities/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupTestDB starts a throwaway Postgres container and migrates the schema.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()
	pgContainer, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("testuser"),
		tcpostgres.WithPassword("testpass"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		_ = pgContainer.Terminate(ctx)
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(connStr), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Challenge{},
		&models.ChallengeParticipation{},
		&models.ChallengeProgress{},
	))
	return db
}

func seedProgress(t *testing.T, db *gorm.DB, challengeID, callsign string, score int64, updatedAt time.Time) {
	t.Helper()
	rec := models.ChallengeProgress{
		ID:             uuid.NewString(),
		ChallengeID:    challengeID,
		Callsign:       callsign,
		CompletedGoals: []string{},
		Score:          score,
		CreatedAt:      updatedAt,
		UpdatedAt:      updatedAt,
	}
	require.NoError(t, db.Create(&rec).Error)
}

func TestLeaderboardCompetitionRanking(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLeaderboardService(db)

	challengeID := uuid.NewString()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// W1AW and K2ABC tie on score; W1AW reported earlier so it sorts first,
	// but both share rank 1 and the next rank skips to 3.
	seedProgress(t, db, challengeID, "W1AW", 100, base)
	seedProgress(t, db, challengeID, "K2ABC", 100, base.Add(time.Minute))
	seedProgress(t, db, challengeID, "N3XYZ", 50, base)

	entries, err := svc.Top(challengeID, 50, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "W1AW", entries[0].Callsign)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "K2ABC", entries[1].Callsign)
	assert.Equal(t, 1, entries[1].Rank)
	assert.Equal(t, "N3XYZ", entries[2].Callsign)
	assert.Equal(t, 3, entries[2].Rank)

	rank, err := svc.RankOf(challengeID, "N3XYZ")
	require.NoError(t, err)
	assert.Equal(t, 3, rank)

	total, err := svc.Total(challengeID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
}

func TestLeaderboardAroundWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLeaderboardService(db)

	challengeID := uuid.NewString()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	callsigns := []string{"AA1A", "BB2B", "CC3C", "DD4D", "EE5E", "FF6F", "GG7G"}
	for i, cs := range callsigns {
		// Distinct scores so ranks are 1..7 in slice order
		seedProgress(t, db, challengeID, cs, int64(100-i*10), base)
	}

	entries, err := svc.Around(challengeID, "DD4D", 2)
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "BB2B", entries[0].Callsign)
	assert.Equal(t, 2, entries[0].Rank)
	assert.Equal(t, "FF6F", entries[4].Callsign)
	assert.Equal(t, 6, entries[4].Rank)

	// Window near the top clamps at rank 1 instead of going negative
	entries, err = svc.Around(challengeID, "BB2B", 5)
	require.NoError(t, err)
	require.Len(t, entries, 7)
	assert.Equal(t, 1, entries[0].Rank)

	// Radius 0 is exactly the participant's own entry
	entries, err = svc.Around(challengeID, "EE5E", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "EE5E", entries[0].Callsign)
	assert.Equal(t, 5, entries[0].Rank)

	rank, err := svc.RankOf(challengeID, "EE5E")
	require.NoError(t, err)
	assert.Equal(t, entries[0].Rank, rank)
}

func TestLeaderboardAroundUnknownCallsign(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLeaderboardService(db)

	challengeID := uuid.NewString()
	seedProgress(t, db, challengeID, "W1AW", 10, time.Now().UTC())

	_, err := svc.Around(challengeID, "NOCALL", 5)
	assert.ErrorIs(t, err, ErrNotParticipating)

	_, err = svc.RankOf(challengeID, "NOCALL")
	assert.ErrorIs(t, err, ErrNotParticipating)
}

func TestLeaderboardTopPagination(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLeaderboardService(db)

	challengeID := uuid.NewString()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedProgress(t, db, challengeID, "AA1A", 30, base)
	seedProgress(t, db, challengeID, "BB2B", 20, base)
	seedProgress(t, db, challengeID, "CC3C", 10, base)

	entries, err := svc.Top(challengeID, 2, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "AA1A", entries[0].Callsign)

	entries, err = svc.Top(challengeID, 2, 2)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "CC3C", entries[0].Callsign)
	assert.Equal(t, 3, entries[0].Rank)

	// Oversized and non-positive limits fall back to the caps
	entries, err = svc.Top(challengeID, 100000, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	entries, err = svc.Top(challengeID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestLeaderboardCompletedAtOnlyWhenScored(t *testing.T) {
	db := setupTestDB(t)
	svc := NewLeaderboardService(db)

	challengeID := uuid.NewString()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seedProgress(t, db, challengeID, "W1AW", 40, base)
	seedProgress(t, db, challengeID, "K2ABC", 0, base)

	entries, err := svc.Top(challengeID, 50, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.NotNil(t, entries[0].CompletedAt)
	assert.Nil(t, entries[1].CompletedAt)
}

func TestProgressUpsertLastWriteWins(t *testing.T) {
	db := setupTestDB(t)
	leaderboard := NewLeaderboardService(db)
	svc := NewProgressService(db, leaderboard)

	challengeID := uuid.NewString()
	silver := "silver"

	first, err := svc.Upsert(challengeID, "W1AW", []string{"K-0001", "K-0002"}, 2, 2, nil)
	require.NoError(t, err)
	require.NotNil(t, first)

	time.Sleep(50 * time.Millisecond)

	// A second report fully overwrites, even shrinking completed goals
	second, err := svc.Upsert(challengeID, "W1AW", []string{"K-0001"}, 1, 55, &silver)
	require.NoError(t, err)
	require.NotNil(t, second)

	assert.Equal(t, first.ID, second.ID, "conflict path keeps the original row")
	assert.Equal(t, []string{"K-0001"}, second.CompletedGoals)
	assert.Equal(t, int64(55), second.Score)
	require.NotNil(t, second.Tier)
	assert.Equal(t, "silver", *second.Tier)
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt), "updated_at refreshes on every write")

	var count int64
	require.NoError(t, db.Model(&models.ChallengeProgress{}).
		Where("challenge_id = ? AND callsign = ?", challengeID, "W1AW").
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// An identical payload still refreshes updated_at
	time.Sleep(50 * time.Millisecond)
	third, err := svc.Upsert(challengeID, "W1AW", []string{"K-0001"}, 1, 55, &silver)
	require.NoError(t, err)
	assert.True(t, third.UpdatedAt.After(second.UpdatedAt))

	// Records are scoped per challenge
	got, err := svc.Get(uuid.NewString(), "W1AW")
	require.NoError(t, err)
	assert.Nil(t, got)
}
