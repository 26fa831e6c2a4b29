package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/pairing"
	"github.com/Dosada05/swiss-tournaments/repositories"
)

type RoundService interface {
	// GenerateNextRound pairs the next round and persists it atomically with
	// its matches. Byes are recorded as settled results immediately.
	GenerateNextRound(ctx context.Context, tournamentID models.TournamentID) (*models.Round, error)
	StartRound(ctx context.Context, id models.RoundID) (*models.Round, error)
	// CompleteRound closes the round and rebuilds the standings. It refuses
	// while any match is unreported, disputed or awaiting confirmation.
	CompleteRound(ctx context.Context, id models.RoundID) (*models.Round, error)
	GetByID(ctx context.Context, id models.RoundID) (*models.Round, error)
	// GetCurrent returns the highest-numbered round with its matches.
	GetCurrent(ctx context.Context, tournamentID models.TournamentID) (*models.Round, error)
	ListByTournament(ctx context.Context, tournamentID models.TournamentID) ([]*models.Round, error)
}

type roundService struct {
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	standings       StandingsService
	generator       pairing.Generator
	txRunner        repositories.TxRunner
	publisher       EventPublisher
	locks           *TournamentLocks
	now             func() time.Time
}

func NewRoundService(
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	standings StandingsService,
	generator pairing.Generator,
	txRunner repositories.TxRunner,
	publisher EventPublisher,
	locks *TournamentLocks,
) RoundService {
	return &roundService{
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		standings:       standings,
		generator:       generator,
		txRunner:        txRunner,
		publisher:       publisher,
		locks:           locks,
		now:             time.Now,
	}
}

func (s *roundService) GenerateNextRound(ctx context.Context, tournamentID models.TournamentID) (*models.Round, error) {
	unlock := s.locks.lock(tournamentID)
	defer unlock()

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament.Status != models.StatusInProgress {
		return nil, ErrTournamentNotInProgress
	}
	if tournament.MaxRounds != nil && tournament.CurrentRound >= *tournament.MaxRounds {
		return nil, ErrMaxRoundsReached
	}

	current, err := s.roundRepo.GetCurrent(ctx, nil, tournamentID)
	if err != nil && !errors.Is(err, repositories.ErrRoundNotFound) {
		return nil, fmt.Errorf("failed to load current round: %w", err)
	}
	if current != nil && current.Status != models.RoundFinished {
		return nil, ErrPreviousRoundNotCompleted
	}

	participants, err := s.playableParticipants(ctx, tournament)
	if err != nil {
		return nil, err
	}
	if len(participants) < 2 {
		return nil, pairing.ErrNotEnoughParticipants
	}

	standings, err := s.standings.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	previous, err := s.previousMatchups(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	roundNumber := tournament.CurrentRound + 1
	pairings, err := s.generator.Generate(ctx, pairing.Params{
		RoundNumber:      roundNumber,
		Participants:     participants,
		Standings:        standings,
		PreviousMatchups: previous,
		Config:           tournament.PairingConfig,
	})
	if err != nil {
		return nil, err
	}

	byID := make(map[models.ParticipantID]*models.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	now := s.now().UTC()
	round := &models.Round{
		ID:           models.NewRoundID(),
		TournamentID: tournamentID,
		RoundNumber:  roundNumber,
		Status:       models.RoundPending,
		CreatedAt:    now,
	}

	hasBye := false
	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.roundRepo.Create(ctx, exec, round); err != nil {
			return fmt.Errorf("failed to create round: %w", err)
		}
		for _, p := range pairings {
			match := &models.Match{
				ID:           models.NewMatchID(),
				RoundID:      round.ID,
				TournamentID: tournamentID,
				Player1ID:    p.Player1,
				Player2ID:    p.Player2,
				TableNumber:  p.TableNumber,
				Result:       models.ResultPending,
			}
			if p.IsBye() {
				hasBye = true
				match.Result = models.ResultBye
				match.ReportedAt = &now

				recipient := byID[p.Player1]
				recipient.HasReceivedBye = true
				recipient.ByeCount++
				if err := s.participantRepo.Update(ctx, exec, recipient); err != nil {
					return fmt.Errorf("failed to update bye recipient: %w", err)
				}
			}
			if err := s.matchRepo.Create(ctx, exec, match); err != nil {
				return fmt.Errorf("failed to create match: %w", err)
			}
			round.Matches = append(round.Matches, match)
		}

		tournament.CurrentRound = roundNumber
		if err := s.tournamentRepo.Update(ctx, exec, tournament); err != nil {
			return fmt.Errorf("failed to advance tournament round counter: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(models.NewRoundGenerated(tournamentID, round.ID, roundNumber, len(round.Matches), hasBye, s.now()))
	return round, nil
}

func (s *roundService) StartRound(ctx context.Context, id models.RoundID) (*models.Round, error) {
	round, err := s.getRound(ctx, id)
	if err != nil {
		return nil, err
	}
	if round.Status != models.RoundPending {
		return nil, &InvalidStateTransitionError{
			Entity: "round",
			ID:     round.ID.String(),
			From:   string(round.Status),
			To:     string(models.RoundInProgress),
		}
	}

	now := s.now().UTC()
	round.Status = models.RoundInProgress
	round.StartedAt = &now
	if err := s.roundRepo.Update(ctx, nil, round); err != nil {
		return nil, fmt.Errorf("failed to start round: %w", err)
	}

	s.publisher.Publish(models.NewRoundStarted(round.TournamentID, round.ID, round.RoundNumber, s.now()))
	return round, nil
}

func (s *roundService) CompleteRound(ctx context.Context, id models.RoundID) (*models.Round, error) {
	round, err := s.getRound(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(round.TournamentID)
	defer unlock()

	if round.Status != models.RoundInProgress {
		return nil, &InvalidStateTransitionError{
			Entity: "round",
			ID:     round.ID.String(),
			From:   string(round.Status),
			To:     string(models.RoundFinished),
		}
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, round.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	open, err := s.matchRepo.CountUnreportedByRound(ctx, nil, round.ID, tournament.ResultReporting.RequiresConfirmation())
	if err != nil {
		return nil, fmt.Errorf("failed to count open matches: %w", err)
	}
	if open > 0 {
		return nil, &UnreportedMatchesError{RoundID: round.ID, Count: open}
	}

	now := s.now().UTC()
	round.Status = models.RoundFinished
	round.CompletedAt = &now
	if err := s.roundRepo.Update(ctx, nil, round); err != nil {
		return nil, fmt.Errorf("failed to complete round: %w", err)
	}

	if _, err := s.standings.Recalculate(ctx, round.TournamentID); err != nil {
		return nil, err
	}
	return round, nil
}

func (s *roundService) GetByID(ctx context.Context, id models.RoundID) (*models.Round, error) {
	round, err := s.getRound(ctx, id)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByRound(ctx, nil, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load round matches: %w", err)
	}
	round.Matches = matches
	return round, nil
}

func (s *roundService) GetCurrent(ctx context.Context, tournamentID models.TournamentID) (*models.Round, error) {
	round, err := s.roundRepo.GetCurrent(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get current round: %w", err)
	}
	matches, err := s.matchRepo.ListByRound(ctx, nil, round.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load round matches: %w", err)
	}
	round.Matches = matches
	return round, nil
}

func (s *roundService) ListByTournament(ctx context.Context, tournamentID models.TournamentID) ([]*models.Round, error) {
	rounds, err := s.roundRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	return rounds, nil
}

// playableParticipants returns the pairing pool. With check-in enabled only
// checked-in players are paired; otherwise confirmed players count too.
func (s *roundService) playableParticipants(ctx context.Context, tournament *models.Tournament) ([]*models.Participant, error) {
	participants, err := s.participantRepo.ListPlayable(ctx, nil, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playable participants: %w", err)
	}
	if !tournament.RequiresCheckIn {
		return participants, nil
	}
	checkedIn := participants[:0]
	for _, p := range participants {
		if p.Status == models.ParticipantCheckedIn {
			checkedIn = append(checkedIn, p)
		}
	}
	return checkedIn, nil
}

func (s *roundService) previousMatchups(ctx context.Context, tournamentID models.TournamentID) (map[pairing.Matchup]bool, error) {
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	previous := make(map[pairing.Matchup]bool, len(matches))
	for _, m := range matches {
		if m.Player2ID == nil {
			continue
		}
		previous[pairing.NewMatchup(m.Player1ID, *m.Player2ID)] = true
	}
	return previous, nil
}

func (s *roundService) getRound(ctx context.Context, id models.RoundID) (*models.Round, error) {
	round, err := s.roundRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrRoundNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	return round, nil
}
