package pairing

import (
	"context"
	"errors"

	"github.com/Dosada05/swiss-tournaments/models"
)

var (
	// ErrNoValidPairings is returned when no complete pairing exists, e.g.
	// every permutation repeats a previous matchup or no bye-eligible
	// player remains for an odd field.
	ErrNoValidPairings = errors.New("no valid pairings found")

	ErrNotEnoughParticipants = errors.New("not enough participants to generate pairings")
)

// Matchup is an unordered pair of participants, normalized so that
// (a,b) and (b,a) compare equal.
type Matchup struct {
	A, B models.ParticipantID
}

func NewMatchup(a, b models.ParticipantID) Matchup {
	if b < a {
		a, b = b, a
	}
	return Matchup{A: a, B: b}
}

// Pairing is one table of the generated round. Player2 == nil marks a bye.
type Pairing struct {
	TableNumber int
	Player1     models.ParticipantID
	Player2     *models.ParticipantID
}

func (p Pairing) IsBye() bool { return p.Player2 == nil }

// Params carries everything the engine needs; generation is a pure function
// of these inputs, so retrying with identical params reproduces identical
// pairings.
type Params struct {
	RoundNumber int
	// Playable participants, any order.
	Participants []*models.Participant
	// Current standings ordered by rank; empty before round 1.
	Standings []*models.Standing
	// Every matchup already played in the tournament.
	PreviousMatchups map[Matchup]bool
	Config           models.PairingConfig
}

type Generator interface {
	Generate(ctx context.Context, params Params) ([]Pairing, error)
	Name() string
}
