package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/pairing"
)

type roundFixture struct {
	svc             *roundService
	tournamentRepo  *fakeTournamentRepo
	participantRepo *fakeParticipantRepo
	roundRepo       *fakeRoundRepo
	matchRepo       *fakeMatchRepo
	standingRepo    *fakeStandingRepo
	publisher       *capturingPublisher
	now             time.Time
}

func newRoundFixture(t *testing.T) *roundFixture {
	t.Helper()
	f := &roundFixture{
		tournamentRepo:  newFakeTournamentRepo(),
		participantRepo: newFakeParticipantRepo(),
		roundRepo:       newFakeRoundRepo(),
		matchRepo:       newFakeMatchRepo(),
		standingRepo:    newFakeStandingRepo(),
		publisher:       &capturingPublisher{},
		now:             time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC),
	}
	standings := NewStandingsService(
		f.standingRepo, f.tournamentRepo, f.participantRepo, f.roundRepo,
		f.matchRepo, fakeTxRunner{}, f.publisher,
	)
	svc := NewRoundService(
		f.roundRepo, f.matchRepo, f.participantRepo, f.tournamentRepo,
		standings, pairing.NewSwissGenerator(), fakeTxRunner{}, f.publisher,
		NewTournamentLocks(),
	).(*roundService)
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

func (f *roundFixture) addTournament(mutate func(*models.Tournament)) *models.Tournament {
	win := models.OutcomeWin
	bye := models.OutcomeBye
	tournament := &models.Tournament{
		ID:              models.NewTournamentID(),
		EventID:         "event-1",
		Name:            "Spring Open",
		Slug:            "spring-open",
		Status:          models.StatusInProgress,
		MinParticipants: 2,
		ResultReporting: models.ReportingAdminOnly,
		ScoringRules: models.ScoringRules{
			{Name: "win", Condition: models.RuleCondition{Type: models.ConditionResultEquals, ResultValue: &win}, Points: 1},
			{Name: "bye", Condition: models.RuleCondition{Type: models.ConditionResultEquals, ResultValue: &bye}, Points: 1},
		},
		PairingConfig: models.PairingConfig{
			Method:           models.PairingMethodSwiss,
			SortBy:           models.PairingSortByPoints,
			AvoidRematches:   true,
			MaxByesPerPlayer: 1,
			ByeAssignment:    models.ByeAssignLowestRanked,
		},
	}
	if mutate != nil {
		mutate(tournament)
	}
	f.tournamentRepo.tournaments[tournament.ID] = tournament
	return tournament
}

func (f *roundFixture) addPlayer(tournamentID models.TournamentID, seed int, status models.ParticipantStatus) *models.Participant {
	p := &models.Participant{
		ID:           models.NewParticipantID(),
		TournamentID: tournamentID,
		Status:       status,
		Seed:         seed,
	}
	f.participantRepo.participants[p.ID] = p
	return p
}

func (f *roundFixture) addRound(tournamentID models.TournamentID, number int, status models.RoundStatus) *models.Round {
	r := &models.Round{
		ID:           models.NewRoundID(),
		TournamentID: tournamentID,
		RoundNumber:  number,
		Status:       status,
	}
	f.roundRepo.rounds[r.ID] = r
	return r
}

func TestGenerateFirstRound(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(nil)
	players := make([]*models.Participant, 0, 4)
	for seed := 1; seed <= 4; seed++ {
		players = append(players, f.addPlayer(tournament.ID, seed, models.ParticipantConfirmed))
	}

	round, err := f.svc.GenerateNextRound(context.Background(), tournament.ID)
	if err != nil {
		t.Fatalf("generate round: %v", err)
	}
	if round.RoundNumber != 1 || round.Status != models.RoundPending {
		t.Fatalf("round = %+v, want pending round 1", round)
	}
	if len(round.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(round.Matches))
	}

	// No prior points: the field folds, top seed against bottom seed.
	m1, m2 := round.Matches[0], round.Matches[1]
	if m1.Player1ID != players[0].ID || m1.Player2ID == nil || *m1.Player2ID != players[3].ID {
		t.Fatalf("table 1 = %s vs %v, want seed 1 vs seed 4", m1.Player1ID, m1.Player2ID)
	}
	if m2.Player1ID != players[1].ID || m2.Player2ID == nil || *m2.Player2ID != players[2].ID {
		t.Fatalf("table 2 = %s vs %v, want seed 2 vs seed 3", m2.Player1ID, m2.Player2ID)
	}

	if got := f.tournamentRepo.tournaments[tournament.ID].CurrentRound; got != 1 {
		t.Fatalf("current round = %d, want 1", got)
	}
	types := f.publisher.types()
	if len(types) != 1 || types[0] != "round.generated" {
		t.Fatalf("published events = %v, want [round.generated]", types)
	}
}

func TestGenerateOddFieldRecordsBye(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(nil)
	var lowest *models.Participant
	for seed := 1; seed <= 3; seed++ {
		lowest = f.addPlayer(tournament.ID, seed, models.ParticipantConfirmed)
	}

	round, err := f.svc.GenerateNextRound(context.Background(), tournament.ID)
	if err != nil {
		t.Fatalf("generate round: %v", err)
	}
	if len(round.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(round.Matches))
	}

	bye := round.Matches[len(round.Matches)-1]
	if !bye.IsBye() {
		t.Fatal("expected the last table to be the bye")
	}
	if bye.Player1ID != lowest.ID {
		t.Fatalf("bye recipient = %s, want lowest ranked %s", bye.Player1ID, lowest.ID)
	}
	if bye.Result != models.ResultBye || bye.ReportedAt == nil {
		t.Fatalf("bye match = %+v, want result bye recorded immediately", bye)
	}

	stored := f.participantRepo.participants[lowest.ID]
	if !stored.HasReceivedBye || stored.ByeCount != 1 {
		t.Fatalf("recipient = %+v, want bye count 1", stored)
	}
}

func TestGenerateRequiresRunningTournament(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(func(tr *models.Tournament) {
		tr.Status = models.StatusRegistrationOpen
	})

	if _, err := f.svc.GenerateNextRound(context.Background(), tournament.ID); !errors.Is(err, ErrTournamentNotInProgress) {
		t.Fatalf("error = %v, want ErrTournamentNotInProgress", err)
	}
}

func TestGenerateStopsAtMaxRounds(t *testing.T) {
	f := newRoundFixture(t)
	one := 1
	tournament := f.addTournament(func(tr *models.Tournament) {
		tr.MaxRounds = &one
		tr.CurrentRound = 1
	})
	f.addRound(tournament.ID, 1, models.RoundFinished)

	if _, err := f.svc.GenerateNextRound(context.Background(), tournament.ID); !errors.Is(err, ErrMaxRoundsReached) {
		t.Fatalf("error = %v, want ErrMaxRoundsReached", err)
	}
}

func TestGenerateBlocksOnOpenRound(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(func(tr *models.Tournament) { tr.CurrentRound = 1 })
	f.addPlayer(tournament.ID, 1, models.ParticipantConfirmed)
	f.addPlayer(tournament.ID, 2, models.ParticipantConfirmed)
	f.addRound(tournament.ID, 1, models.RoundInProgress)

	if _, err := f.svc.GenerateNextRound(context.Background(), tournament.ID); !errors.Is(err, ErrPreviousRoundNotCompleted) {
		t.Fatalf("error = %v, want ErrPreviousRoundNotCompleted", err)
	}
}

func TestGeneratePairsOnlyCheckedInWhenRequired(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(func(tr *models.Tournament) { tr.RequiresCheckIn = true })
	checked1 := f.addPlayer(tournament.ID, 1, models.ParticipantCheckedIn)
	f.addPlayer(tournament.ID, 2, models.ParticipantConfirmed)
	f.addPlayer(tournament.ID, 3, models.ParticipantConfirmed)
	checked2 := f.addPlayer(tournament.ID, 4, models.ParticipantCheckedIn)

	round, err := f.svc.GenerateNextRound(context.Background(), tournament.ID)
	if err != nil {
		t.Fatalf("generate round: %v", err)
	}
	if len(round.Matches) != 1 {
		t.Fatalf("got %d matches, want 1", len(round.Matches))
	}
	m := round.Matches[0]
	if m.Player1ID != checked1.ID || m.Player2ID == nil || *m.Player2ID != checked2.ID {
		t.Fatalf("match = %s vs %v, want the two checked-in players", m.Player1ID, m.Player2ID)
	}
}

func TestGenerateTooFewCheckedIn(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(func(tr *models.Tournament) { tr.RequiresCheckIn = true })
	f.addPlayer(tournament.ID, 1, models.ParticipantCheckedIn)
	f.addPlayer(tournament.ID, 2, models.ParticipantConfirmed)

	if _, err := f.svc.GenerateNextRound(context.Background(), tournament.ID); !errors.Is(err, pairing.ErrNotEnoughParticipants) {
		t.Fatalf("error = %v, want ErrNotEnoughParticipants", err)
	}
}

func TestStartRound(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(nil)
	round := f.addRound(tournament.ID, 1, models.RoundPending)

	started, err := f.svc.StartRound(context.Background(), round.ID)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if started.Status != models.RoundInProgress || started.StartedAt == nil {
		t.Fatalf("round = %+v, want in_progress with started_at", started)
	}

	if _, err := f.svc.StartRound(context.Background(), round.ID); !errors.Is(err, ErrInvalidStateTransition) {
		t.Fatalf("second start error = %v, want ErrInvalidStateTransition", err)
	}
}

func TestCompleteRoundBlocksOnPendingMatch(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(nil)
	p1 := f.addPlayer(tournament.ID, 1, models.ParticipantConfirmed)
	p2 := f.addPlayer(tournament.ID, 2, models.ParticipantConfirmed)
	round := f.addRound(tournament.ID, 1, models.RoundInProgress)
	f.matchRepo.Create(context.Background(), nil, &models.Match{
		ID: models.NewMatchID(), RoundID: round.ID, TournamentID: tournament.ID,
		Player1ID: p1.ID, Player2ID: &p2.ID, TableNumber: 1, Result: models.ResultPending,
	})

	_, err := f.svc.CompleteRound(context.Background(), round.ID)
	var unreported *UnreportedMatchesError
	if !errors.As(err, &unreported) {
		t.Fatalf("error = %v, want UnreportedMatchesError", err)
	}
	if unreported.Count != 1 {
		t.Fatalf("unreported count = %d, want 1", unreported.Count)
	}
	if !errors.Is(err, ErrPreviousRoundNotCompleted) {
		t.Fatal("UnreportedMatchesError must match ErrPreviousRoundNotCompleted")
	}
}

func TestCompleteRoundBlocksOnUnconfirmedResult(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(func(tr *models.Tournament) {
		tr.ResultReporting = models.ReportingParticipants
	})
	p1 := f.addPlayer(tournament.ID, 1, models.ParticipantConfirmed)
	p2 := f.addPlayer(tournament.ID, 2, models.ParticipantConfirmed)
	round := f.addRound(tournament.ID, 1, models.RoundInProgress)

	reported := f.now.Add(-time.Hour)
	f.matchRepo.Create(context.Background(), nil, &models.Match{
		ID: models.NewMatchID(), RoundID: round.ID, TournamentID: tournament.ID,
		Player1ID: p1.ID, Player2ID: &p2.ID, TableNumber: 1,
		Result:                  models.ResultPlayer1Win,
		ReportedByParticipantID: &p1.ID,
		ReportedAt:              &reported,
	})

	var unreported *UnreportedMatchesError
	if _, err := f.svc.CompleteRound(context.Background(), round.ID); !errors.As(err, &unreported) {
		t.Fatalf("error = %v, want UnreportedMatchesError while unconfirmed", err)
	}

	// With staff-only reporting the same match needs no confirmation.
	f.tournamentRepo.tournaments[tournament.ID].ResultReporting = models.ReportingAdminOnly
	if _, err := f.svc.CompleteRound(context.Background(), round.ID); err != nil {
		t.Fatalf("complete round: %v", err)
	}
}

func TestCompleteRoundRebuildsStandings(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(nil)
	p1 := f.addPlayer(tournament.ID, 1, models.ParticipantConfirmed)
	p2 := f.addPlayer(tournament.ID, 2, models.ParticipantConfirmed)
	round := f.addRound(tournament.ID, 1, models.RoundInProgress)

	reported := f.now.Add(-time.Minute)
	f.matchRepo.Create(context.Background(), nil, &models.Match{
		ID: models.NewMatchID(), RoundID: round.ID, TournamentID: tournament.ID,
		Player1ID: p1.ID, Player2ID: &p2.ID, TableNumber: 1,
		Result:     models.ResultPlayer1Win,
		ReportedAt: &reported,
	})

	completed, err := f.svc.CompleteRound(context.Background(), round.ID)
	if err != nil {
		t.Fatalf("complete round: %v", err)
	}
	if completed.Status != models.RoundFinished || completed.CompletedAt == nil {
		t.Fatalf("round = %+v, want finished with completed_at", completed)
	}

	table, err := f.standingRepo.ListByTournament(context.Background(), nil, tournament.ID)
	if err != nil {
		t.Fatalf("list standings: %v", err)
	}
	if len(table) != 2 {
		t.Fatalf("got %d standings, want 2", len(table))
	}
	if table[0].ParticipantID != p1.ID || table[0].Points != 1 {
		t.Fatalf("leader = %+v, want the winner with 1 point", table[0])
	}
	if table[1].ParticipantID != p2.ID || table[1].Rank != 2 {
		t.Fatalf("runner-up = %+v, want rank 2", table[1])
	}
}

func TestCompleteRoundAppliesByeOpponentScore(t *testing.T) {
	f := newRoundFixture(t)
	byeScore := 1.0
	tournament := f.addTournament(func(tr *models.Tournament) {
		tr.TiebreakerConfig = models.TiebreakerConfig{
			{Key: "buchholz", Name: "Buchholz", Type: models.TiebreakerBuchholz, Direction: models.SortDesc, ByeOpponentScore: &byeScore},
		}
	})
	p1 := f.addPlayer(tournament.ID, 1, models.ParticipantConfirmed)
	p2 := f.addPlayer(tournament.ID, 2, models.ParticipantConfirmed)
	p3 := f.addPlayer(tournament.ID, 3, models.ParticipantConfirmed)
	round := f.addRound(tournament.ID, 1, models.RoundInProgress)

	reported := f.now.Add(-time.Minute)
	f.matchRepo.Create(context.Background(), nil, &models.Match{
		ID: models.NewMatchID(), RoundID: round.ID, TournamentID: tournament.ID,
		Player1ID: p1.ID, Player2ID: &p2.ID, TableNumber: 1,
		Result: models.ResultPlayer1Win, ReportedAt: &reported,
	})
	f.matchRepo.Create(context.Background(), nil, &models.Match{
		ID: models.NewMatchID(), RoundID: round.ID, TournamentID: tournament.ID,
		Player1ID: p3.ID, TableNumber: 2,
		Result: models.ResultBye, ReportedAt: &reported,
	})

	if _, err := f.svc.CompleteRound(context.Background(), round.ID); err != nil {
		t.Fatalf("complete round: %v", err)
	}

	table, err := f.standingRepo.ListByTournament(context.Background(), nil, tournament.ID)
	if err != nil {
		t.Fatalf("list standings: %v", err)
	}
	for _, s := range table {
		if s.ParticipantID == p3.ID && s.Buchholz != byeScore {
			t.Fatalf("bye recipient Buchholz = %v, want the configured %v", s.Buchholz, byeScore)
		}
	}
}

func TestGenerateSecondRoundAvoidsRematch(t *testing.T) {
	f := newRoundFixture(t)
	tournament := f.addTournament(func(tr *models.Tournament) { tr.CurrentRound = 1 })
	players := make([]*models.Participant, 0, 4)
	for seed := 1; seed <= 4; seed++ {
		players = append(players, f.addPlayer(tournament.ID, seed, models.ParticipantConfirmed))
	}
	round1 := f.addRound(tournament.ID, 1, models.RoundFinished)

	reported := f.now.Add(-time.Hour)
	f.matchRepo.Create(context.Background(), nil, &models.Match{
		ID: models.NewMatchID(), RoundID: round1.ID, TournamentID: tournament.ID,
		Player1ID: players[0].ID, Player2ID: &players[1].ID, TableNumber: 1,
		Result: models.ResultPlayer1Win, ReportedAt: &reported,
	})
	f.matchRepo.Create(context.Background(), nil, &models.Match{
		ID: models.NewMatchID(), RoundID: round1.ID, TournamentID: tournament.ID,
		Player1ID: players[2].ID, Player2ID: &players[3].ID, TableNumber: 2,
		Result: models.ResultPlayer2Win, ReportedAt: &reported,
	})

	round2, err := f.svc.GenerateNextRound(context.Background(), tournament.ID)
	if err != nil {
		t.Fatalf("generate round 2: %v", err)
	}
	if round2.RoundNumber != 2 {
		t.Fatalf("round number = %d, want 2", round2.RoundNumber)
	}
	for _, m := range round2.Matches {
		if m.Player2ID == nil {
			continue
		}
		pair := map[models.ParticipantID]bool{m.Player1ID: true, *m.Player2ID: true}
		if pair[players[0].ID] && pair[players[1].ID] {
			t.Fatal("round 2 repeated the round 1 pairing 1v2")
		}
		if pair[players[2].ID] && pair[players[3].ID] {
			t.Fatal("round 2 repeated the round 1 pairing 3v4")
		}
	}
}
