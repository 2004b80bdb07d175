package services

import (
	"encoding/json"
	"math"
	"sort"

	"carrierwave-activities/models"
)

// ScoringMethod converts reported progress into the score used for ranking.
const (
	ScoringMethodCount      = "count"
	ScoringMethodPercentage = "percentage"
	ScoringMethodPoints     = "points"
)

// Tier is a named milestone unlocked once the score crosses its threshold.
type Tier struct {
	Threshold int64
	ID        string
}

// ScoringPolicy is the strongly-typed interpretation of a challenge's
// configuration document. It is built once per request by
// ParseScoringPolicy and treated as immutable; nothing outside the parser
// touches the raw configuration.
type ScoringPolicy struct {
	GoalType      string
	TotalGoals    int
	TargetValue   int64
	ScoringMethod string
	Tiers         []Tier // ascending by threshold
}

// ParseScoringPolicy interprets a challenge's configuration document.
// Parsing is total: malformed or missing sections fall back to documented
// defaults so a sloppy challenge author gets lenient behavior instead of a
// rejected challenge.
//
// Defaults: totalGoals = len(goals.items) or 0; targetValue =
// goals.targetValue or 100 when absent/non-positive; scoring.method = count
// when unset or unrecognized; scoring.tiers = empty, entries missing a
// threshold or id dropped.
func ParseScoringPolicy(challengeType string, configuration string) ScoringPolicy {
	policy := ScoringPolicy{
		GoalType:      normalizeGoalType(challengeType),
		TargetValue:   100,
		ScoringMethod: ScoringMethodCount,
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(configuration), &doc); err != nil {
		return policy
	}

	if goals, ok := doc["goals"].(map[string]interface{}); ok {
		if items, ok := goals["items"].([]interface{}); ok {
			policy.TotalGoals = len(items)
		}
		if target, ok := toInt64(goals["targetValue"]); ok && target > 0 {
			policy.TargetValue = target
		}
	}

	scoring, _ := doc["scoring"].(map[string]interface{})
	if scoring == nil {
		return policy
	}

	switch scoring["method"] {
	case ScoringMethodCount, ScoringMethodPercentage, ScoringMethodPoints:
		policy.ScoringMethod = scoring["method"].(string)
	}

	if rawTiers, ok := scoring["tiers"].([]interface{}); ok {
		for _, raw := range rawTiers {
			entry, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			threshold, ok := toInt64(entry["threshold"])
			if !ok {
				continue
			}
			id, ok := entry["id"].(string)
			if !ok || id == "" {
				continue
			}
			policy.Tiers = append(policy.Tiers, Tier{Threshold: threshold, ID: id})
		}
		sort.SliceStable(policy.Tiers, func(i, j int) bool {
			return policy.Tiers[i].Threshold < policy.Tiers[j].Threshold
		})
	}

	return policy
}

func normalizeGoalType(challengeType string) string {
	switch challengeType {
	case models.ChallengeTypeCumulative:
		return models.ChallengeTypeCumulative
	case models.ChallengeTypeTimeBounded, "timeBounded":
		return models.ChallengeTypeTimeBounded
	default:
		return models.ChallengeTypeCollection
	}
}

func toInt64(v interface{}) (int64, bool) {
	f, ok := v.(float64)
	if !ok {
		return 0, false
	}
	return int64(f), true
}

// Evaluate turns a reported progress state into (score, percentage, tier)
// under the given policy. Pure, no I/O, never fails: the parser's defaulting
// guarantees every policy/report combination has a defined output. The
// reported currentValue is trusted verbatim for points scoring; there is no
// server-side recomputation from QSO data.
func Evaluate(policy ScoringPolicy, completedGoals []string, currentValue int64) (int64, float64, *string) {
	completed := int64(len(dedupeGoals(completedGoals)))

	var score int64
	switch policy.ScoringMethod {
	case ScoringMethodPercentage:
		if policy.TotalGoals > 0 {
			score = int64(math.Floor(100 * float64(completed) / float64(policy.TotalGoals)))
		}
	case ScoringMethodPoints:
		score = currentValue
	default:
		score = completed
	}

	var percentage float64
	switch policy.GoalType {
	case models.ChallengeTypeCollection:
		if policy.TotalGoals > 0 {
			percentage = 100 * float64(completed) / float64(policy.TotalGoals)
		}
	case models.ChallengeTypeCumulative:
		if policy.TargetValue > 0 {
			percentage = 100 * float64(currentValue) / float64(policy.TargetValue)
		}
	}
	percentage = math.Min(100, math.Max(0, percentage))

	return score, percentage, tierFor(policy.Tiers, score)
}

// tierFor returns the id of the last tier whose threshold the score has
// reached, or nil when none qualifies. Tiers are pre-sorted ascending, so a
// single forward pass suffices.
func tierFor(tiers []Tier, score int64) *string {
	var current *string
	for i := range tiers {
		if tiers[i].Threshold > score {
			break
		}
		current = &tiers[i].ID
	}
	return current
}

// dedupeGoals treats the reported goal list as a set; insertion order is
// irrelevant and duplicates count once.
func dedupeGoals(goals []string) []string {
	seen := make(map[string]struct{}, len(goals))
	out := goals[:0:0]
	for _, g := range goals {
		if _, dup := seen[g]; dup {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
