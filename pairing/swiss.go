package pairing

import (
	"cmp"
	"context"
	"slices"

	"github.com/Dosada05/swiss-tournaments/models"
)

// SwissGenerator implements standard Swiss pairing: participants are ordered
// by the configured sort key into score brackets, paired top-down, and an
// odd leftover floats down into the next bracket instead of taking an
// immediate bye. The whole procedure is deterministic.
type SwissGenerator struct{}

func NewSwissGenerator() Generator {
	return &SwissGenerator{}
}

func (g *SwissGenerator) Name() string {
	return "Swiss"
}

type swissEntry struct {
	participant *models.Participant
	score       float64
}

func (g *SwissGenerator) Generate(ctx context.Context, params Params) ([]Pairing, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(params.Participants) < 2 {
		return nil, ErrNotEnoughParticipants
	}

	entries := g.sortedEntries(params)

	if len(entries)%2 == 0 {
		pairs, ok := pairAll(entries, params)
		if !ok {
			return nil, ErrNoValidPairings
		}
		return buildPairings(pairs, nil), nil
	}

	// Odd field: the bye recipient is part of the search. Try candidates in
	// policy order and keep the first one that leaves a fully pairable rest.
	for _, candidate := range byeCandidates(entries, params.Config) {
		rest := make([]swissEntry, 0, len(entries)-1)
		for _, e := range entries {
			if e.participant.ID != candidate.participant.ID {
				rest = append(rest, e)
			}
		}
		if pairs, ok := pairAll(rest, params); ok {
			return buildPairings(pairs, candidate.participant), nil
		}
	}
	return nil, ErrNoValidPairings
}

// sortedEntries orders participants by the configured sort criterion:
// points or a named stat descending, or seed ascending. Ties fall back to
// seed, then participant id, keeping the order total and deterministic.
func (g *SwissGenerator) sortedEntries(params Params) []swissEntry {
	standings := make(map[models.ParticipantID]*models.Standing, len(params.Standings))
	for _, s := range params.Standings {
		standings[s.ParticipantID] = s
	}

	entries := make([]swissEntry, 0, len(params.Participants))
	for _, p := range params.Participants {
		var score float64
		if s, ok := standings[p.ID]; ok {
			switch params.Config.SortBy {
			case models.PairingSortByStat:
				if params.Config.SortByStat != nil {
					score = s.Stats[*params.Config.SortByStat]
				}
			default:
				score = s.Points
			}
		}
		entries = append(entries, swissEntry{participant: p, score: score})
	}

	slices.SortFunc(entries, func(a, b swissEntry) int {
		if params.Config.SortBy != models.PairingSortBySeed {
			if c := cmp.Compare(b.score, a.score); c != 0 {
				return c
			}
		}
		if c := cmp.Compare(a.participant.Seed, b.participant.Seed); c != 0 {
			return c
		}
		return cmp.Compare(a.participant.ID, b.participant.ID)
	})
	return entries
}

// byeCandidates orders bye-eligible participants by assignment policy.
// Default policy walks the standings bottom-up, preferring players who have
// never received a bye; fewest_byes orders by bye count first.
func byeCandidates(entries []swissEntry, cfg models.PairingConfig) []swissEntry {
	eligible := make([]swissEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if entries[i].participant.ByeCount < cfg.MaxByesPerPlayer {
			eligible = append(eligible, entries[i])
		}
	}
	switch cfg.ByeAssignment {
	case models.ByeAssignFewestByes:
		slices.SortStableFunc(eligible, func(a, b swissEntry) int {
			return cmp.Compare(a.participant.ByeCount, b.participant.ByeCount)
		})
	default: // lowest_ranked
		slices.SortStableFunc(eligible, func(a, b swissEntry) int {
			return cmp.Compare(boolToInt(a.participant.HasReceivedBye), boolToInt(b.participant.HasReceivedBye))
		})
	}
	return eligible
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// pairAll pairs an even entry list with backtracking. The top unpaired
// player tries opponents in fold order inside its score bracket, then
// floats into the lower brackets; when avoid_rematches is set, repeated
// matchups are skipped and the search backtracks before giving up.
func pairAll(entries []swissEntry, params Params) ([][2]*models.Participant, bool) {
	if len(entries) == 0 {
		return nil, true
	}
	first := entries[0]
	for _, i := range opponentOrder(entries) {
		opponent := entries[i]
		if params.Config.AvoidRematches &&
			params.PreviousMatchups[NewMatchup(first.participant.ID, opponent.participant.ID)] {
			continue
		}
		rest := make([]swissEntry, 0, len(entries)-2)
		rest = append(rest, entries[1:i]...)
		rest = append(rest, entries[i+1:]...)
		if tail, ok := pairAll(rest, params); ok {
			return append([][2]*models.Participant{{first.participant, opponent.participant}}, tail...), true
		}
	}
	return nil, false
}

// opponentOrder lists candidate opponent indexes for the top entry: the
// bottom of its score bracket first, walking up, so a bracket of four folds
// into 1v4 and 2v3. An odd bracket reserves its lowest player as the float
// candidate, tried after the in-bracket opponents; the lower brackets follow
// top-down.
func opponentOrder(entries []swissEntry) []int {
	bracket := 1
	for bracket < len(entries) && entries[bracket].score == entries[0].score {
		bracket++
	}
	last := bracket - 1
	if bracket%2 != 0 {
		last--
	}
	order := make([]int, 0, len(entries)-1)
	for i := last; i >= 1; i-- {
		order = append(order, i)
	}
	if bracket%2 != 0 && bracket > 1 {
		order = append(order, bracket-1)
	}
	for i := bracket; i < len(entries); i++ {
		order = append(order, i)
	}
	return order
}

func buildPairings(pairs [][2]*models.Participant, bye *models.Participant) []Pairing {
	out := make([]Pairing, 0, len(pairs)+1)
	for i, pair := range pairs {
		p2 := pair[1].ID
		out = append(out, Pairing{
			TableNumber: i + 1,
			Player1:     pair[0].ID,
			Player2:     &p2,
		})
	}
	if bye != nil {
		out = append(out, Pairing{
			TableNumber: len(pairs) + 1,
			Player1:     bye.ID,
		})
	}
	return out
}
