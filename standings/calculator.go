// Package standings computes the ranked standings projection for a
// tournament. The computation is a full rebuild over the complete match set,
// never an incremental patch, so re-running it after any correction yields
// identical values.
package standings

import (
	"cmp"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/swiss-tournaments/models"
)

// Input is the full snapshot the calculator works from.
type Input struct {
	TournamentID     models.TournamentID
	ScoringRules     models.ScoringRules
	TiebreakerConfig models.TiebreakerConfig
	Participants     []*models.Participant
	Rounds           []*models.Round
	// All matches of the tournament, every round.
	Matches []*models.Match
	// Score a bye counts for in Buchholz-family tiebreakers.
	ByeOpponentScore float64
	// Timestamp stamped on every produced standing; injected so identical
	// inputs produce identical output.
	UpdatedAt time.Time
}

type record struct {
	participant *models.Participant
	standing    *models.Standing
	opponents   []models.ParticipantID
	byRound     map[int]float64
}

// Calculate rebuilds one Standing per participant, ordered and ranked.
// Only reported matches count; pending matches are ignored. Unresolved ties
// after exhausting the configured tiebreakers share a rank, with a stable
// secondary ordering by participant id.
func Calculate(in Input) []*models.Standing {
	rules := orderedRules(in.ScoringRules)

	roundNumbers := make(map[models.RoundID]int, len(in.Rounds))
	totalRounds := 0
	for _, r := range in.Rounds {
		roundNumbers[r.ID] = r.RoundNumber
		if r.RoundNumber > totalRounds {
			totalRounds = r.RoundNumber
		}
	}

	records := make(map[models.ParticipantID]*record, len(in.Participants))
	ordered := make([]*record, 0, len(in.Participants))
	for _, p := range in.Participants {
		rec := &record{
			participant: p,
			standing: &models.Standing{
				ID:            deterministicID(in.TournamentID, p.ID),
				TournamentID:  in.TournamentID,
				ParticipantID: p.ID,
				Stats:         models.StatMap{},
				Tiebreakers:   models.StatMap{},
				UpdatedAt:     in.UpdatedAt,
			},
			byRound: make(map[int]float64),
		}
		records[p.ID] = rec
		ordered = append(ordered, rec)
	}

	// First pass: per-participant tallies and points.
	for _, m := range in.Matches {
		if !m.Reported() {
			continue
		}
		for _, pid := range matchSides(m) {
			rec, ok := records[pid]
			if !ok {
				continue
			}
			outcome, ok := m.OutcomeFor(pid)
			if !ok {
				continue
			}
			s := rec.standing
			s.MatchesPlayed++
			switch outcome {
			case models.OutcomeWin:
				s.Wins++
			case models.OutcomeDraw:
				s.Draws++
			case models.OutcomeLoss, models.OutcomeDoubleLoss:
				s.Losses++
			case models.OutcomeBye:
				s.Byes++
			}
			points := matchPoints(rules, m, pid)
			s.Points += points
			rec.byRound[roundNumbers[m.RoundID]] += points
			for k, v := range m.StatsFor(pid) {
				s.Stats[k] += v
			}
			if opp, ok := m.Opponent(pid); ok {
				rec.opponents = append(rec.opponents, opp)
			}
		}
	}

	// Second pass: tiebreakers need every participant's final points.
	for _, rec := range ordered {
		scores := make([]float64, 0, len(rec.opponents)+rec.standing.Byes)
		opponents := make([]opponentRecord, 0, len(rec.opponents))
		for _, oppID := range rec.opponents {
			if opp, ok := records[oppID]; ok {
				scores = append(scores, opp.standing.Points)
				opponents = append(opponents, opponentRecord{
					wins:          opp.standing.Wins,
					matchesPlayed: opp.standing.MatchesPlayed,
				})
			}
		}
		for i := 0; i < rec.standing.Byes; i++ {
			scores = append(scores, in.ByeOpponentScore)
		}

		s := rec.standing
		s.Buchholz = buchholz(scores)
		s.MedianBuchholz = medianBuchholz(scores)
		s.Progressive = progressive(rec.byRound, totalRounds)
		s.OpponentWinPct = opponentWinPct(opponents)

		for _, tb := range in.TiebreakerConfig {
			s.Tiebreakers[tb.Key] = tiebreakerValue(tb, s)
		}
	}

	slices.SortFunc(ordered, func(a, b *record) int {
		if c := cmp.Compare(b.standing.Points, a.standing.Points); c != 0 {
			return c
		}
		for _, tb := range in.TiebreakerConfig {
			av := a.standing.Tiebreakers[tb.Key]
			bv := b.standing.Tiebreakers[tb.Key]
			var c int
			if tb.Direction == models.SortAsc {
				c = cmp.Compare(av, bv)
			} else {
				c = cmp.Compare(bv, av)
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.standing.ParticipantID, b.standing.ParticipantID)
	})

	out := make([]*models.Standing, len(ordered))
	for i, rec := range ordered {
		if i > 0 && tied(ordered[i-1].standing, rec.standing, in.TiebreakerConfig) {
			rec.standing.Rank = out[i-1].Rank
		} else {
			rec.standing.Rank = i + 1
		}
		out[i] = rec.standing
	}
	return out
}

func matchSides(m *models.Match) []models.ParticipantID {
	if m.Player2ID == nil {
		return []models.ParticipantID{m.Player1ID}
	}
	return []models.ParticipantID{m.Player1ID, *m.Player2ID}
}

// tiebreakerValue resolves a configured tiebreaker against the computed
// standing. Stat tiebreakers below their minimum-value filter count as 0.
func tiebreakerValue(tb models.TiebreakerDefinition, s *models.Standing) float64 {
	switch tb.Type {
	case models.TiebreakerBuchholz:
		return s.Buchholz
	case models.TiebreakerMedianBuchholz:
		return s.MedianBuchholz
	case models.TiebreakerProgressive:
		return s.Progressive
	case models.TiebreakerOpponentWinPct:
		return s.OpponentWinPct
	case models.TiebreakerStat:
		if tb.Stat == nil {
			return 0
		}
		v := s.Stats[*tb.Stat]
		if tb.MinValue != nil && v < *tb.MinValue {
			return 0
		}
		return v
	}
	return 0
}

func tied(a, b *models.Standing, cfg models.TiebreakerConfig) bool {
	if a.Points != b.Points {
		return false
	}
	for _, tb := range cfg {
		if a.Tiebreakers[tb.Key] != b.Tiebreakers[tb.Key] {
			return false
		}
	}
	return true
}

// deterministicID derives the standing id from its owning pair so that a
// rebuild reproduces identical rows.
func deterministicID(t models.TournamentID, p models.ParticipantID) models.StandingID {
	return models.StandingID(uuid.NewSHA1(uuid.NameSpaceOID, []byte(t.String()+"/"+p.String())).String())
}
