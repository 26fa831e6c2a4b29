package pairing

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/Dosada05/swiss-tournaments/models"
)

func swissConfig() models.PairingConfig {
	return models.PairingConfig{
		Method:           models.PairingMethodSwiss,
		SortBy:           models.PairingSortByPoints,
		AvoidRematches:   true,
		MaxByesPerPlayer: 1,
		ByeAssignment:    models.ByeAssignLowestRanked,
	}
}

func makeParticipants(n int) []*models.Participant {
	out := make([]*models.Participant, 0, n)
	for i := 1; i <= n; i++ {
		out = append(out, &models.Participant{
			ID:     models.ParticipantID(fmt.Sprintf("00000000-0000-0000-0000-0000000000%02d", i)),
			Status: models.ParticipantConfirmed,
			Seed:   i,
		})
	}
	return out
}

func standingsWithPoints(participants []*models.Participant, points ...float64) []*models.Standing {
	out := make([]*models.Standing, 0, len(points))
	for i, pts := range points {
		out = append(out, &models.Standing{
			ParticipantID: participants[i].ID,
			Rank:          i + 1,
			Points:        pts,
		})
	}
	return out
}

func TestSwissFirstRoundPairsBySeed(t *testing.T) {
	g := NewSwissGenerator()
	participants := makeParticipants(4)

	pairings, err := g.Generate(context.Background(), Params{
		RoundNumber:  1,
		Participants: participants,
		Config:       swissConfig(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(pairings) != 2 {
		t.Fatalf("expected 2 pairings, got %d", len(pairings))
	}
	if pairings[0].Player1 != participants[0].ID || *pairings[0].Player2 != participants[3].ID {
		t.Fatalf("table 1 = %s vs %s, want seed 1 vs seed 4", pairings[0].Player1, *pairings[0].Player2)
	}
	if pairings[1].Player1 != participants[1].ID || *pairings[1].Player2 != participants[2].ID {
		t.Fatalf("table 2 = %s vs %s, want seed 2 vs seed 3", pairings[1].Player1, *pairings[1].Player2)
	}
	if pairings[0].TableNumber != 1 || pairings[1].TableNumber != 2 {
		t.Fatalf("table numbers = %d, %d, want 1, 2", pairings[0].TableNumber, pairings[1].TableNumber)
	}
}

func TestSwissFoldsWithinScoreBrackets(t *testing.T) {
	g := NewSwissGenerator()
	participants := makeParticipants(6)

	// Two brackets of three: the bottom of each top bracket floats down.
	pairings, err := g.Generate(context.Background(), Params{
		RoundNumber:  2,
		Participants: participants,
		Standings:    standingsWithPoints(participants, 3, 3, 3, 0, 0, 0),
		Config:       swissConfig(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	want := [][2]models.ParticipantID{
		{participants[0].ID, participants[1].ID},
		{participants[2].ID, participants[3].ID},
		{participants[4].ID, participants[5].ID},
	}
	for i, w := range want {
		if pairings[i].Player1 != w[0] || *pairings[i].Player2 != w[1] {
			t.Fatalf("table %d = %s vs %s, want %s vs %s", i+1, pairings[i].Player1, *pairings[i].Player2, w[0], w[1])
		}
	}
}

func TestSwissIsDeterministic(t *testing.T) {
	g := NewSwissGenerator()
	participants := makeParticipants(8)
	params := Params{
		RoundNumber:  2,
		Participants: participants,
		Standings:    standingsWithPoints(participants, 3, 3, 3, 3, 0, 0, 0, 0),
		PreviousMatchups: map[Matchup]bool{
			NewMatchup(participants[0].ID, participants[4].ID): true,
			NewMatchup(participants[1].ID, participants[5].ID): true,
			NewMatchup(participants[2].ID, participants[6].ID): true,
			NewMatchup(participants[3].ID, participants[7].ID): true,
		},
		Config: swissConfig(),
	}

	first, err := g.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := g.Generate(context.Background(), params)
		if err != nil {
			t.Fatalf("generate attempt %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("pairings differ between runs:\n%v\n%v", first, again)
		}
	}
}

func TestSwissAvoidsRematches(t *testing.T) {
	g := NewSwissGenerator()
	participants := makeParticipants(4)

	// Round 1 was 1v2 and 3v4; winners 1 and 3 lead on points.
	pairings, err := g.Generate(context.Background(), Params{
		RoundNumber:  2,
		Participants: participants,
		Standings:    standingsWithPoints(participants, 3, 0, 3, 0),
		PreviousMatchups: map[Matchup]bool{
			NewMatchup(participants[0].ID, participants[1].ID): true,
			NewMatchup(participants[2].ID, participants[3].ID): true,
		},
		Config: swissConfig(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	seen := map[Matchup]bool{}
	for _, p := range pairings {
		seen[NewMatchup(p.Player1, *p.Player2)] = true
	}
	if !seen[NewMatchup(participants[0].ID, participants[2].ID)] {
		t.Fatalf("expected the two winners to meet, got %v", pairings)
	}
	if seen[NewMatchup(participants[0].ID, participants[1].ID)] || seen[NewMatchup(participants[2].ID, participants[3].ID)] {
		t.Fatalf("round 1 matchup repeated: %v", pairings)
	}
}

func TestSwissBacktracksOutOfGreedyDeadEnd(t *testing.T) {
	g := NewSwissGenerator()
	participants := makeParticipants(4)

	// Greedy top-down would pair 1v2, leaving only the already-played 3v4.
	pairings, err := g.Generate(context.Background(), Params{
		RoundNumber:  3,
		Participants: participants,
		Standings:    standingsWithPoints(participants, 6, 4, 2, 0),
		PreviousMatchups: map[Matchup]bool{
			NewMatchup(participants[2].ID, participants[3].ID): true,
		},
		Config: swissConfig(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	for _, p := range pairings {
		if NewMatchup(p.Player1, *p.Player2) == NewMatchup(participants[2].ID, participants[3].ID) {
			t.Fatalf("repeated matchup despite an alternative: %v", pairings)
		}
	}
}

func TestSwissOddFieldAssignsBye(t *testing.T) {
	g := NewSwissGenerator()
	participants := makeParticipants(5)

	pairings, err := g.Generate(context.Background(), Params{
		RoundNumber:  1,
		Participants: participants,
		Config:       swissConfig(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(pairings) != 3 {
		t.Fatalf("expected 3 pairings, got %d", len(pairings))
	}
	bye := pairings[len(pairings)-1]
	if !bye.IsBye() {
		t.Fatalf("expected last pairing to be a bye, got %v", bye)
	}
	if bye.Player1 != participants[4].ID {
		t.Fatalf("bye went to %s, want the lowest ranked %s", bye.Player1, participants[4].ID)
	}
}

func TestSwissByeRotates(t *testing.T) {
	g := NewSwissGenerator()
	participants := makeParticipants(5)
	// Lowest ranked player already had a bye.
	participants[4].HasReceivedBye = true
	participants[4].ByeCount = 1

	pairings, err := g.Generate(context.Background(), Params{
		RoundNumber:  2,
		Participants: participants,
		Standings:    standingsWithPoints(participants, 3, 3, 0, 0, 3),
		Config:       swissConfig(),
	})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	bye := pairings[len(pairings)-1]
	if !bye.IsBye() {
		t.Fatalf("expected a bye pairing, got %v", bye)
	}
	if bye.Player1 == participants[4].ID {
		t.Fatal("bye assigned to a player already at max_byes_per_player")
	}
}

func TestSwissNoValidPairings(t *testing.T) {
	g := NewSwissGenerator()
	participants := makeParticipants(2)

	_, err := g.Generate(context.Background(), Params{
		RoundNumber:  2,
		Participants: participants,
		Standings:    standingsWithPoints(participants, 3, 0),
		PreviousMatchups: map[Matchup]bool{
			NewMatchup(participants[0].ID, participants[1].ID): true,
		},
		Config: swissConfig(),
	})
	if !errors.Is(err, ErrNoValidPairings) {
		t.Fatalf("expected ErrNoValidPairings, got %v", err)
	}
}

func TestSwissNotEnoughParticipants(t *testing.T) {
	g := NewSwissGenerator()
	_, err := g.Generate(context.Background(), Params{
		RoundNumber:  1,
		Participants: makeParticipants(1),
		Config:       swissConfig(),
	})
	if !errors.Is(err, ErrNotEnoughParticipants) {
		t.Fatalf("expected ErrNotEnoughParticipants, got %v", err)
	}
}

func TestNewMatchupNormalizes(t *testing.T) {
	a := models.ParticipantID("00000000-0000-0000-0000-000000000001")
	b := models.ParticipantID("00000000-0000-0000-0000-000000000002")
	if NewMatchup(a, b) != NewMatchup(b, a) {
		t.Fatal("matchup must not depend on argument order")
	}
}
