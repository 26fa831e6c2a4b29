package standings

import (
	"slices"

	"github.com/Dosada05/swiss-tournaments/models"
)

// orderedRules returns the scoring rules sorted by priority, lowest value
// first. The first matching rule per match is the one that applies.
func orderedRules(rules models.ScoringRules) models.ScoringRules {
	ordered := slices.Clone(rules)
	slices.SortStableFunc(ordered, func(a, b models.ScoringRule) int {
		return a.Priority - b.Priority
	})
	return ordered
}

// matchPoints evaluates the ordered rules against one match from the given
// participant's perspective and returns the points of the highest-priority
// matching rule, or 0 when nothing matches.
func matchPoints(ordered models.ScoringRules, m *models.Match, pid models.ParticipantID) float64 {
	for _, rule := range ordered {
		if conditionMatches(rule.Condition, m, pid) {
			return rule.Points
		}
	}
	return 0
}

func conditionMatches(c models.RuleCondition, m *models.Match, pid models.ParticipantID) bool {
	switch c.Type {
	case models.ConditionResultEquals:
		if c.ResultValue == nil {
			return false
		}
		outcome, ok := m.OutcomeFor(pid)
		return ok && outcome == *c.ResultValue

	case models.ConditionStatComparison:
		if c.Stat == nil || c.Operator == nil {
			return false
		}
		opponent, ok := m.Opponent(pid)
		if !ok {
			return false
		}
		own := m.StatsFor(pid)[*c.Stat]
		theirs := m.StatsFor(opponent)[*c.Stat]
		return c.Operator.Compare(own, theirs)

	case models.ConditionStatThreshold:
		if c.Stat == nil || c.Operator == nil || c.Value == nil {
			return false
		}
		return c.Operator.Compare(m.StatsFor(pid)[*c.Stat], *c.Value)

	case models.ConditionMarginDifference:
		if c.Operator == nil || c.Value == nil {
			return false
		}
		own, opp := m.ScoresFor(pid)
		return c.Operator.Compare(float64(own-opp), *c.Value)
	}
	return false
}
