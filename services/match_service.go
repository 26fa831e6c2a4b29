package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/repositories"
)

// Reporter identifies who is acting on a match: a staff user, a registered
// player or a guest participant.
type Reporter struct {
	UserID        *models.UserID
	Role          models.UserRole
	ParticipantID *models.ParticipantID
}

func (r Reporter) Staff() bool {
	return r.UserID != nil && r.Role.Staff()
}

type ReportResultInput struct {
	Result       models.MatchResult `json:"result"`
	Player1Score int                `json:"player1_score"`
	Player2Score int                `json:"player2_score"`
	Player1Stats models.StatMap     `json:"player1_stats,omitempty"`
	Player2Stats models.StatMap     `json:"player2_stats,omitempty"`
	Reason       string             `json:"reason,omitempty"`
}

type MatchService interface {
	// ReportResult records or amends a result. A participant re-reporting a
	// settled match with different values marks it disputed instead of
	// overwriting; staff reports always overwrite.
	ReportResult(ctx context.Context, id models.MatchID, input ReportResultInput, reporter Reporter) (*models.Match, error)
	// ConfirmResult lets the non-reporting participant settle a result that
	// is awaiting confirmation.
	ConfirmResult(ctx context.Context, id models.MatchID, reporter Reporter) (*models.Match, error)
	// ResolveDispute is staff-only: it sets the final result and clears the
	// dispute flag.
	ResolveDispute(ctx context.Context, id models.MatchID, input ReportResultInput, reporter Reporter) (*models.Match, error)
	GetByID(ctx context.Context, id models.MatchID) (*models.Match, error)
	ListByRound(ctx context.Context, roundID models.RoundID) ([]*models.Match, error)
	History(ctx context.Context, id models.MatchID) ([]*models.MatchHistory, error)
}

type matchService struct {
	matchRepo      repositories.MatchRepository
	historyRepo    repositories.MatchHistoryRepository
	tournamentRepo repositories.TournamentRepository
	standings      StandingsService
	txRunner       repositories.TxRunner
	publisher      EventPublisher
	locks          *TournamentLocks
	now            func() time.Time
}

func NewMatchService(
	matchRepo repositories.MatchRepository,
	historyRepo repositories.MatchHistoryRepository,
	tournamentRepo repositories.TournamentRepository,
	standings StandingsService,
	txRunner repositories.TxRunner,
	publisher EventPublisher,
	locks *TournamentLocks,
) MatchService {
	return &matchService{
		matchRepo:      matchRepo,
		historyRepo:    historyRepo,
		tournamentRepo: tournamentRepo,
		standings:      standings,
		txRunner:       txRunner,
		publisher:      publisher,
		locks:          locks,
		now:            time.Now,
	}
}

func (s *matchService) ReportResult(ctx context.Context, id models.MatchID, input ReportResultInput, reporter Reporter) (*models.Match, error) {
	match, err := s.getMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(match.TournamentID)
	defer unlock()

	// Reload under the lock; a concurrent report may have landed first.
	match, err = s.getMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.IsBye() {
		return nil, ErrByeNotReportable
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if tournament.Status != models.StatusInProgress {
		return nil, ErrTournamentNotInProgress
	}

	// A disputed match is frozen for everyone; staff go through
	// ResolveDispute instead.
	if match.IsDisputed {
		return nil, ErrMatchDisputed
	}

	if !input.Result.Reportable() {
		return nil, ErrInvalidResult
	}
	if err := s.validate(tournament, input); err != nil {
		return nil, err
	}
	if err := s.authorize(tournament, match, reporter); err != nil {
		return nil, err
	}

	switch {
	case !match.Reported():
		return s.firstReport(ctx, tournament, match, input, reporter)
	case reporter.Staff():
		return s.staffOverride(ctx, match, input, reporter, "staff correction")
	default:
		return s.participantReReport(ctx, tournament, match, input, reporter)
	}
}

func (s *matchService) ConfirmResult(ctx context.Context, id models.MatchID, reporter Reporter) (*models.Match, error) {
	match, err := s.getMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(match.TournamentID)
	defer unlock()

	match, err = s.getMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if match.IsBye() {
		return nil, ErrByeNotReportable
	}
	if !match.Reported() {
		return nil, ErrMatchNotReported
	}
	if match.IsDisputed {
		return nil, ErrMatchDisputed
	}
	if match.ConfirmedAt != nil {
		return match, nil
	}

	if reporter.Staff() {
		now := s.now().UTC()
		match.ConfirmedByUserID = reporter.UserID
		match.ConfirmedAt = &now
	} else {
		if reporter.ParticipantID == nil || !match.HasParticipant(*reporter.ParticipantID) {
			return nil, ErrReporterNotParticipant
		}
		if match.ReportedByParticipantID != nil && *match.ReportedByParticipantID == *reporter.ParticipantID {
			return nil, ErrConfirmerNotOpponent
		}
		now := s.now().UTC()
		match.ConfirmedByParticipantID = reporter.ParticipantID
		match.ConfirmedAt = &now
	}

	if err := s.matchRepo.Update(ctx, nil, match); err != nil {
		return nil, fmt.Errorf("failed to confirm result: %w", err)
	}
	s.publisher.Publish(models.NewMatchResultReported(match.TournamentID, match.ID, match.Result, false, false, s.now()))
	return match, nil
}

func (s *matchService) ResolveDispute(ctx context.Context, id models.MatchID, input ReportResultInput, reporter Reporter) (*models.Match, error) {
	if !reporter.Staff() {
		return nil, ErrReportAdminOnly
	}

	match, err := s.getMatch(ctx, id)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.lock(match.TournamentID)
	defer unlock()

	match, err = s.getMatch(ctx, id)
	if err != nil {
		return nil, err
	}
	if !input.Result.Reportable() {
		return nil, ErrInvalidResult
	}

	tournament, err := s.tournamentRepo.GetByID(ctx, nil, match.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	if err := s.validate(tournament, input); err != nil {
		return nil, err
	}

	reason := input.Reason
	if reason == "" {
		reason = "dispute resolved"
	}
	return s.staffOverride(ctx, match, input, reporter, reason)
}

func (s *matchService) GetByID(ctx context.Context, id models.MatchID) (*models.Match, error) {
	return s.getMatch(ctx, id)
}

func (s *matchService) ListByRound(ctx context.Context, roundID models.RoundID) ([]*models.Match, error) {
	matches, err := s.matchRepo.ListByRound(ctx, nil, roundID)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}

func (s *matchService) History(ctx context.Context, id models.MatchID) ([]*models.MatchHistory, error) {
	if _, err := s.getMatch(ctx, id); err != nil {
		return nil, err
	}
	history, err := s.historyRepo.ListByMatch(ctx, nil, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load match history: %w", err)
	}
	return history, nil
}

func (s *matchService) firstReport(ctx context.Context, tournament *models.Tournament, match *models.Match, input ReportResultInput, reporter Reporter) (*models.Match, error) {
	entry := s.historyEntry(match, input, reporter, "result reported")

	now := s.now().UTC()
	match.Result = input.Result
	match.Player1Score = input.Player1Score
	match.Player2Score = input.Player2Score
	match.Player1Stats = input.Player1Stats
	match.Player2Stats = input.Player2Stats
	match.ReportedByUserID = reporter.UserID
	match.ReportedByParticipantID = reporter.ParticipantID
	match.ReportedAt = &now

	if err := s.persist(ctx, match, entry); err != nil {
		return nil, err
	}

	awaiting := reporter.ParticipantID != nil && tournament.ResultReporting.RequiresConfirmation()
	s.publisher.Publish(models.NewMatchResultReported(match.TournamentID, match.ID, match.Result, awaiting, false, s.now()))
	return match, nil
}

// participantReReport handles a participant acting on an already settled
// match: the original reporter may amend an unconfirmed result, the opponent
// either confirms by agreement or raises a dispute.
func (s *matchService) participantReReport(ctx context.Context, tournament *models.Tournament, match *models.Match, input ReportResultInput, reporter Reporter) (*models.Match, error) {
	if match.ConfirmedAt != nil {
		return nil, ErrResultAlreadySettled
	}

	sameReporter := match.ReportedByParticipantID != nil && reporter.ParticipantID != nil &&
		*match.ReportedByParticipantID == *reporter.ParticipantID
	if sameReporter {
		entry := s.historyEntry(match, input, reporter, "report amended")
		match.Result = input.Result
		match.Player1Score = input.Player1Score
		match.Player2Score = input.Player2Score
		match.Player1Stats = input.Player1Stats
		match.Player2Stats = input.Player2Stats
		if err := s.persist(ctx, match, entry); err != nil {
			return nil, err
		}
		s.publisher.Publish(models.NewMatchResultReported(match.TournamentID, match.ID, match.Result, true, false, s.now()))
		return match, nil
	}

	agrees := input.Result == match.Result &&
		input.Player1Score == match.Player1Score &&
		input.Player2Score == match.Player2Score
	if agrees {
		now := s.now().UTC()
		match.ConfirmedByParticipantID = reporter.ParticipantID
		match.ConfirmedAt = &now
		if err := s.matchRepo.Update(ctx, nil, match); err != nil {
			return nil, fmt.Errorf("failed to confirm result: %w", err)
		}
		s.publisher.Publish(models.NewMatchResultReported(match.TournamentID, match.ID, match.Result, false, false, s.now()))
		return match, nil
	}

	// Conflicting report: the original result stands, the match is flagged
	// and the attempted values are kept in the history ledger for staff.
	entry := s.historyEntry(match, input, reporter, "conflicting report")
	entry.NewResult = match.Result
	entry.NewPlayer1Score = match.Player1Score
	entry.NewPlayer2Score = match.Player2Score
	match.IsDisputed = true
	if err := s.persist(ctx, match, entry); err != nil {
		return nil, err
	}
	s.publisher.Publish(models.NewMatchResultReported(match.TournamentID, match.ID, match.Result, false, true, s.now()))
	return match, nil
}

func (s *matchService) staffOverride(ctx context.Context, match *models.Match, input ReportResultInput, reporter Reporter, reason string) (*models.Match, error) {
	if input.Reason != "" {
		reason = input.Reason
	}
	entry := s.historyEntry(match, input, reporter, reason)

	now := s.now().UTC()
	match.Result = input.Result
	match.Player1Score = input.Player1Score
	match.Player2Score = input.Player2Score
	match.Player1Stats = input.Player1Stats
	match.Player2Stats = input.Player2Stats
	match.ReportedByUserID = reporter.UserID
	match.ReportedByParticipantID = nil
	match.ReportedAt = &now
	match.ConfirmedByUserID = reporter.UserID
	match.ConfirmedAt = &now
	match.IsDisputed = false

	if err := s.persist(ctx, match, entry); err != nil {
		return nil, err
	}

	// A correction may arrive after the round closed; rebuilding keeps the
	// table consistent with the ledger.
	if _, err := s.standings.Recalculate(ctx, match.TournamentID); err != nil {
		return nil, err
	}
	s.publisher.Publish(models.NewMatchResultReported(match.TournamentID, match.ID, match.Result, false, false, s.now()))
	return match, nil
}

func (s *matchService) authorize(tournament *models.Tournament, match *models.Match, reporter Reporter) error {
	switch tournament.ResultReporting {
	case models.ReportingAdminOnly:
		if !reporter.Staff() {
			return ErrReportAdminOnly
		}
	case models.ReportingParticipants:
		if reporter.ParticipantID == nil || !match.HasParticipant(*reporter.ParticipantID) {
			return ErrReporterNotParticipant
		}
	case models.ReportingEither:
		if reporter.Staff() {
			return nil
		}
		if reporter.ParticipantID == nil || !match.HasParticipant(*reporter.ParticipantID) {
			return ErrReporterNotParticipant
		}
	}
	return nil
}

func (s *matchService) validate(tournament *models.Tournament, input ReportResultInput) error {
	if input.Player1Score < 0 || input.Player2Score < 0 {
		return errors.New("scores must not be negative")
	}
	if err := tournament.StatDefinitions.ValidateStats(input.Player1Stats); err != nil {
		return fmt.Errorf("player1 stats: %w", err)
	}
	if err := tournament.StatDefinitions.ValidateStats(input.Player2Stats); err != nil {
		return fmt.Errorf("player2 stats: %w", err)
	}
	return nil
}

func (s *matchService) historyEntry(match *models.Match, input ReportResultInput, reporter Reporter, reason string) *models.MatchHistory {
	return &models.MatchHistory{
		ID:                     models.NewMatchHistoryID(),
		MatchID:                match.ID,
		PreviousResult:         match.Result,
		NewResult:              input.Result,
		PreviousPlayer1Score:   match.Player1Score,
		PreviousPlayer2Score:   match.Player2Score,
		NewPlayer1Score:        input.Player1Score,
		NewPlayer2Score:        input.Player2Score,
		ChangedByUserID:        reporter.UserID,
		ChangedByParticipantID: reporter.ParticipantID,
		Reason:                 reason,
		CreatedAt:              s.now().UTC(),
	}
}

func (s *matchService) getMatch(ctx context.Context, id models.MatchID) (*models.Match, error) {
	match, err := s.matchRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrMatchNotFound) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return match, nil
}

// persist writes the match mutation and its ledger entry in one transaction.
func (s *matchService) persist(ctx context.Context, match *models.Match, entry *models.MatchHistory) error {
	return s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.matchRepo.Update(ctx, exec, match); err != nil {
			return fmt.Errorf("failed to update match: %w", err)
		}
		if err := s.historyRepo.Create(ctx, exec, entry); err != nil {
			return fmt.Errorf("failed to append match history: %w", err)
		}
		return nil
	})
}
