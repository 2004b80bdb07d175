package services

import (
	"testing"

	"carrierwave-activities/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScoringPolicyDefaults(t *testing.T) {
	policy := ParseScoringPolicy("collection", `{}`)

	assert.Equal(t, models.ChallengeTypeCollection, policy.GoalType)
	assert.Equal(t, 0, policy.TotalGoals)
	assert.Equal(t, int64(100), policy.TargetValue)
	assert.Equal(t, ScoringMethodCount, policy.ScoringMethod)
	assert.Empty(t, policy.Tiers)
}

func TestParseScoringPolicyMalformedJSON(t *testing.T) {
	policy := ParseScoringPolicy("cumulative", `not json at all`)

	assert.Equal(t, models.ChallengeTypeCumulative, policy.GoalType)
	assert.Equal(t, ScoringMethodCount, policy.ScoringMethod)
	assert.Equal(t, int64(100), policy.TargetValue)
}

func TestParseScoringPolicyFull(t *testing.T) {
	doc := `{
		"goals": {
			"items": ["K-0001", "K-0002", "K-0003", "K-0004"],
			"targetValue": 250
		},
		"scoring": {
			"method": "percentage",
			"tiers": [
				{"threshold": 100, "id": "gold"},
				{"threshold": 0, "id": "bronze"},
				{"threshold": 50, "id": "silver"}
			]
		}
	}`
	policy := ParseScoringPolicy("collection", doc)

	assert.Equal(t, 4, policy.TotalGoals)
	assert.Equal(t, int64(250), policy.TargetValue)
	assert.Equal(t, ScoringMethodPercentage, policy.ScoringMethod)

	// Tiers come back sorted ascending regardless of document order
	require.Len(t, policy.Tiers, 3)
	assert.Equal(t, Tier{Threshold: 0, ID: "bronze"}, policy.Tiers[0])
	assert.Equal(t, Tier{Threshold: 50, ID: "silver"}, policy.Tiers[1])
	assert.Equal(t, Tier{Threshold: 100, ID: "gold"}, policy.Tiers[2])
}

func TestParseScoringPolicyDropsMalformedTiers(t *testing.T) {
	doc := `{
		"scoring": {
			"method": "count",
			"tiers": [
				{"threshold": 10, "id": "ok"},
				{"threshold": 20},
				{"id": "no-threshold"},
				{"threshold": "30", "id": "bad-type"},
				{"threshold": 40, "id": ""},
				"not an object"
			]
		}
	}`
	policy := ParseScoringPolicy("collection", doc)

	require.Len(t, policy.Tiers, 1)
	assert.Equal(t, "ok", policy.Tiers[0].ID)
}

func TestParseScoringPolicyUnknownMethodFallsBackToCount(t *testing.T) {
	policy := ParseScoringPolicy("collection", `{"scoring": {"method": "bananas"}}`)
	assert.Equal(t, ScoringMethodCount, policy.ScoringMethod)
}

func TestParseScoringPolicyNonPositiveTargetIgnored(t *testing.T) {
	policy := ParseScoringPolicy("cumulative", `{"goals": {"targetValue": -5}}`)
	assert.Equal(t, int64(100), policy.TargetValue)
}

func TestEvaluateCountScore(t *testing.T) {
	policy := ScoringPolicy{
		GoalType:      models.ChallengeTypeCollection,
		TotalGoals:    4,
		ScoringMethod: ScoringMethodCount,
	}

	score, percentage, tier := Evaluate(policy, []string{"K-0001", "K-0002"}, 999)

	assert.Equal(t, int64(2), score, "count ignores currentValue")
	assert.Equal(t, 50.0, percentage)
	assert.Nil(t, tier)
}

func TestEvaluateDeduplicatesGoals(t *testing.T) {
	policy := ScoringPolicy{
		GoalType:      models.ChallengeTypeCollection,
		TotalGoals:    10,
		ScoringMethod: ScoringMethodCount,
	}

	score, _, _ := Evaluate(policy, []string{"A", "B", "A", "A", "B"}, 0)
	assert.Equal(t, int64(2), score)
}

func TestEvaluatePercentageScoreFloors(t *testing.T) {
	policy := ScoringPolicy{
		GoalType:      models.ChallengeTypeCollection,
		TotalGoals:    3,
		ScoringMethod: ScoringMethodPercentage,
	}

	score, _, _ := Evaluate(policy, []string{"A"}, 0)
	assert.Equal(t, int64(33), score)

	score, _, _ = Evaluate(policy, []string{"A", "B"}, 0)
	assert.Equal(t, int64(66), score)
}

func TestEvaluatePercentageScoreZeroTotalGoals(t *testing.T) {
	policy := ScoringPolicy{
		GoalType:      models.ChallengeTypeCollection,
		TotalGoals:    0,
		ScoringMethod: ScoringMethodPercentage,
	}

	score, percentage, _ := Evaluate(policy, []string{"A", "B"}, 0)
	assert.Equal(t, int64(0), score)
	assert.Equal(t, 0.0, percentage)
}

func TestEvaluatePointsScoreTrustsCurrentValue(t *testing.T) {
	policy := ScoringPolicy{
		GoalType:      models.ChallengeTypeCumulative,
		TargetValue:   200,
		ScoringMethod: ScoringMethodPoints,
	}

	score, percentage, _ := Evaluate(policy, nil, 150)
	assert.Equal(t, int64(150), score)
	assert.Equal(t, 75.0, percentage)
}

func TestEvaluateCumulativePercentageClamped(t *testing.T) {
	policy := ScoringPolicy{
		GoalType:      models.ChallengeTypeCumulative,
		TargetValue:   100,
		ScoringMethod: ScoringMethodPoints,
	}

	_, percentage, _ := Evaluate(policy, nil, 350)
	assert.Equal(t, 100.0, percentage)

	_, percentage, _ = Evaluate(policy, nil, -10)
	assert.Equal(t, 0.0, percentage)
}

func TestEvaluateTimeBoundedPercentageIsZero(t *testing.T) {
	policy := ScoringPolicy{
		GoalType:      models.ChallengeTypeTimeBounded,
		TotalGoals:    5,
		TargetValue:   100,
		ScoringMethod: ScoringMethodCount,
	}

	_, percentage, _ := Evaluate(policy, []string{"A", "B"}, 80)
	assert.Equal(t, 0.0, percentage)
}

func TestTierFor(t *testing.T) {
	tiers := []Tier{
		{Threshold: 0, ID: "bronze"},
		{Threshold: 50, ID: "silver"},
		{Threshold: 100, ID: "gold"},
	}

	cases := []struct {
		score int64
		want  *string
	}{
		{-1, nil},
		{0, strPtrT("bronze")},
		{49, strPtrT("bronze")},
		{50, strPtrT("silver")},
		{75, strPtrT("silver")},
		{100, strPtrT("gold")},
		{5000, strPtrT("gold")},
	}
	for _, tc := range cases {
		got := tierFor(tiers, tc.score)
		if tc.want == nil {
			assert.Nil(t, got, "score %d", tc.score)
		} else {
			require.NotNil(t, got, "score %d", tc.score)
			assert.Equal(t, *tc.want, *got, "score %d", tc.score)
		}
	}
}

func TestTierForEmptyTiers(t *testing.T) {
	assert.Nil(t, tierFor(nil, 100))
}

func strPtrT(s string) *string { return &s }
