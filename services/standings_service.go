package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/repositories"
	"github.com/Dosada05/swiss-tournaments/standings"
)

type StandingsService interface {
	// Recalculate rebuilds the standings from the full match set and swaps
	// the stored rows atomically.
	Recalculate(ctx context.Context, tournamentID models.TournamentID) ([]*models.Standing, error)
	ListByTournament(ctx context.Context, tournamentID models.TournamentID) ([]*models.Standing, error)
	GetByParticipant(ctx context.Context, tournamentID models.TournamentID, participantID models.ParticipantID) (*models.Standing, error)
}

type standingsService struct {
	standingRepo    repositories.StandingRepository
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	txRunner        repositories.TxRunner
	publisher       EventPublisher
	now             func() time.Time
}

func NewStandingsService(
	standingRepo repositories.StandingRepository,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	txRunner repositories.TxRunner,
	publisher EventPublisher,
) StandingsService {
	return &standingsService{
		standingRepo:    standingRepo,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		txRunner:        txRunner,
		publisher:       publisher,
		now:             time.Now,
	}
}

func (s *standingsService) Recalculate(ctx context.Context, tournamentID models.TournamentID) ([]*models.Standing, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	participants, err := s.participantRepo.ListByTournament(ctx, nil, tournamentID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	rounds, err := s.roundRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	matches, err := s.matchRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}

	// Withdrawn and disqualified players keep their played matches in the
	// table; participants with neither matches nor an active status are left
	// out.
	played := make(map[models.ParticipantID]bool, len(participants))
	for _, m := range matches {
		if !m.Reported() {
			continue
		}
		played[m.Player1ID] = true
		if m.Player2ID != nil {
			played[*m.Player2ID] = true
		}
	}
	included := make([]*models.Participant, 0, len(participants))
	for _, p := range participants {
		if p.Status.Playable() || played[p.ID] {
			included = append(included, p)
		}
	}

	rebuilt := standings.Calculate(standings.Input{
		TournamentID:     tournamentID,
		ScoringRules:     tournament.ScoringRules,
		TiebreakerConfig: tournament.TiebreakerConfig,
		Participants:     included,
		Rounds:           rounds,
		Matches:          matches,
		ByeOpponentScore: tournament.TiebreakerConfig.ByeOpponentScore(),
		UpdatedAt:        s.now().UTC(),
	})

	err = s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.standingRepo.DeleteByTournament(ctx, exec, tournamentID); err != nil {
			return fmt.Errorf("failed to clear standings: %w", err)
		}
		if err := s.standingRepo.BatchCreate(ctx, exec, rebuilt); err != nil {
			return fmt.Errorf("failed to store standings: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	topThree := make([]string, 0, 3)
	for _, st := range rebuilt {
		if len(topThree) == 3 {
			break
		}
		topThree = append(topThree, st.ParticipantID.String())
	}
	s.publisher.Publish(models.NewStandingsUpdated(tournamentID, tournament.CurrentRound, topThree, s.now()))
	return rebuilt, nil
}

func (s *standingsService) ListByTournament(ctx context.Context, tournamentID models.TournamentID) ([]*models.Standing, error) {
	list, err := s.standingRepo.ListByTournament(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list standings: %w", err)
	}
	return list, nil
}

func (s *standingsService) GetByParticipant(ctx context.Context, tournamentID models.TournamentID, participantID models.ParticipantID) (*models.Standing, error) {
	st, err := s.standingRepo.GetByParticipant(ctx, nil, tournamentID, participantID)
	if err != nil {
		if errors.Is(err, repositories.ErrStandingNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get standing: %w", err)
	}
	return st, nil
}
