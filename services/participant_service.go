package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/repositories"
	"github.com/Dosada05/swiss-tournaments/utils"
)

// GuestNotifier delivers the cancellation link to guests after registration.
type GuestNotifier interface {
	SendGuestRegistration(tournament *models.Tournament, participant *models.Participant, token string)
}

type ParticipantService interface {
	RegisterUser(ctx context.Context, tournamentID models.TournamentID, userID models.UserID) (*models.Participant, error)
	RegisterGuest(ctx context.Context, tournamentID models.TournamentID, input RegisterGuestInput) (*models.Participant, error)
	Confirm(ctx context.Context, id models.ParticipantID) (*models.Participant, error)
	CheckIn(ctx context.Context, id models.ParticipantID, byStaff bool) (*models.Participant, error)
	Withdraw(ctx context.Context, id models.ParticipantID) (*models.Participant, error)
	WithdrawByToken(ctx context.Context, token string) (*models.Participant, error)
	Disqualify(ctx context.Context, id models.ParticipantID, reason string) (*models.Participant, error)
	GetByID(ctx context.Context, id models.ParticipantID) (*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID models.TournamentID, status *models.ParticipantStatus) ([]*models.Participant, error)
	// ListPlayable returns the participants eligible for pairing, in seed order.
	ListPlayable(ctx context.Context, tournamentID models.TournamentID) ([]*models.Participant, error)
}

type RegisterGuestInput struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type participantService struct {
	participantRepo repositories.ParticipantRepository
	tournamentRepo  repositories.TournamentRepository
	userRepo        repositories.UserRepository
	txRunner        repositories.TxRunner
	notifier        GuestNotifier
	publisher       EventPublisher
	locks           *TournamentLocks
	now             func() time.Time
}

func NewParticipantService(
	participantRepo repositories.ParticipantRepository,
	tournamentRepo repositories.TournamentRepository,
	userRepo repositories.UserRepository,
	txRunner repositories.TxRunner,
	notifier GuestNotifier,
	publisher EventPublisher,
	locks *TournamentLocks,
) ParticipantService {
	return &participantService{
		participantRepo: participantRepo,
		tournamentRepo:  tournamentRepo,
		userRepo:        userRepo,
		txRunner:        txRunner,
		notifier:        notifier,
		publisher:       publisher,
		locks:           locks,
		now:             time.Now,
	}
}

func (s *participantService) RegisterUser(ctx context.Context, tournamentID models.TournamentID, userID models.UserID) (*models.Participant, error) {
	unlock := s.locks.lock(tournamentID)
	defer unlock()

	tournament, err := s.registrableTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, nil, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if !tournament.RoleAllowed(user.Role) {
		return nil, ErrRoleNotAllowedToRegister
	}

	existing, err := s.participantRepo.FindByUserAndTournament(ctx, nil, userID, tournamentID)
	if err != nil && !errors.Is(err, repositories.ErrParticipantNotFound) {
		return nil, fmt.Errorf("failed to check existing registration: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	if err := s.checkCapacity(ctx, tournament); err != nil {
		return nil, err
	}

	participant := &models.Participant{
		ID:           models.NewParticipantID(),
		TournamentID: tournamentID,
		UserID:       &userID,
		Status:       models.ParticipantRegistered,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.createWithSeed(ctx, participant); err != nil {
		return nil, err
	}

	s.publisher.Publish(models.NewParticipantRegistered(tournamentID, participant.ID, false, "", s.now()))
	return participant, nil
}

func (s *participantService) RegisterGuest(ctx context.Context, tournamentID models.TournamentID, input RegisterGuestInput) (*models.Participant, error) {
	unlock := s.locks.lock(tournamentID)
	defer unlock()

	tournament, err := s.registrableTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if !tournament.AllowGuests {
		return nil, ErrGuestRegistrationDisabled
	}

	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" {
		return nil, errors.New("guest name must not be empty")
	}
	if !utils.IsValidEmail(email) {
		return nil, fmt.Errorf("invalid guest email %q", input.Email)
	}

	existing, err := s.participantRepo.FindByGuestEmail(ctx, nil, tournamentID, email)
	if err != nil && !errors.Is(err, repositories.ErrParticipantNotFound) {
		return nil, fmt.Errorf("failed to check existing guest registration: %w", err)
	}
	if existing != nil {
		return nil, ErrAlreadyRegistered
	}

	if err := s.checkCapacity(ctx, tournament); err != nil {
		return nil, err
	}

	token, err := utils.GenerateSecureToken(32)
	if err != nil {
		return nil, err
	}

	participant := &models.Participant{
		ID:                models.NewParticipantID(),
		TournamentID:      tournamentID,
		GuestName:         &name,
		GuestEmail:        &email,
		Status:            models.ParticipantRegistered,
		CancellationToken: &token,
		RegisteredAt:      s.now().UTC(),
	}
	if err := s.createWithSeed(ctx, participant); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.SendGuestRegistration(tournament, participant, token)
	}
	s.publisher.Publish(models.NewParticipantRegistered(tournamentID, participant.ID, true, token, s.now()))
	return participant, nil
}

func (s *participantService) Confirm(ctx context.Context, id models.ParticipantID) (*models.Participant, error) {
	participant, err := s.getParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyTransition(ctx, participant, models.ParticipantConfirmed); err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *participantService) CheckIn(ctx context.Context, id models.ParticipantID, byStaff bool) (*models.Participant, error) {
	participant, err := s.getParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	tournament, err := s.getTournament(ctx, participant.TournamentID)
	if err != nil {
		return nil, err
	}

	if !tournament.RequiresCheckIn {
		return nil, ErrCheckInNotRequired
	}
	if participant.Status == models.ParticipantCheckedIn {
		return nil, ErrAlreadyCheckedIn
	}
	if !byStaff {
		if !tournament.SelfCheckInAllowed {
			return nil, ErrSelfCheckInDisabled
		}
		opens, closes, ok := tournament.CheckInWindow()
		if ok {
			now := s.now()
			if now.Before(opens) {
				return nil, ErrCheckInWindowNotOpen
			}
			if now.After(closes) {
				return nil, ErrCheckInWindowClosed
			}
		}
	}

	now := s.now().UTC()
	participant.CheckedInAt = &now
	if err := s.applyTransition(ctx, participant, models.ParticipantCheckedIn); err != nil {
		return nil, err
	}
	return participant, nil
}

func (s *participantService) Withdraw(ctx context.Context, id models.ParticipantID) (*models.Participant, error) {
	participant, err := s.getParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withdraw(ctx, participant)
}

// WithdrawByToken cancels a guest registration through the single-use token
// from the registration email. The token is consumed even though the
// participant row remains.
func (s *participantService) WithdrawByToken(ctx context.Context, token string) (*models.Participant, error) {
	participant, err := s.participantRepo.FindByCancellationToken(ctx, nil, token)
	if err != nil {
		if errors.Is(err, repositories.ErrCancellationTokenNotFound) {
			return nil, ErrTokenNotFound
		}
		return nil, fmt.Errorf("failed to find registration by token: %w", err)
	}
	participant.CancellationToken = nil
	return s.withdraw(ctx, participant)
}

func (s *participantService) Disqualify(ctx context.Context, id models.ParticipantID, reason string) (*models.Participant, error) {
	participant, err := s.getParticipant(ctx, id)
	if err != nil {
		return nil, err
	}
	if participant.Status == models.ParticipantDisqualified {
		return nil, ErrParticipantDisqualified
	}
	if err := s.applyTransition(ctx, participant, models.ParticipantDisqualified); err != nil {
		return nil, err
	}
	s.publisher.Publish(models.NewParticipantDisqualified(participant.TournamentID, participant.ID, reason, s.now()))
	return participant, nil
}

func (s *participantService) GetByID(ctx context.Context, id models.ParticipantID) (*models.Participant, error) {
	return s.getParticipant(ctx, id)
}

func (s *participantService) ListByTournament(ctx context.Context, tournamentID models.TournamentID, status *models.ParticipantStatus) ([]*models.Participant, error) {
	participants, err := s.participantRepo.ListByTournament(ctx, nil, tournamentID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	return participants, nil
}

func (s *participantService) ListPlayable(ctx context.Context, tournamentID models.TournamentID) ([]*models.Participant, error) {
	participants, err := s.participantRepo.ListPlayable(ctx, nil, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list playable participants: %w", err)
	}
	return participants, nil
}

func (s *participantService) withdraw(ctx context.Context, participant *models.Participant) (*models.Participant, error) {
	switch participant.Status {
	case models.ParticipantWithdrawn:
		return nil, ErrParticipantAlreadyWithdrawn
	case models.ParticipantDisqualified:
		return nil, ErrParticipantDisqualified
	}

	tournament, err := s.getTournament(ctx, participant.TournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status == models.StatusInProgress {
		return nil, ErrWithdrawTournamentInProgress
	}

	if err := s.applyTransition(ctx, participant, models.ParticipantWithdrawn); err != nil {
		return nil, err
	}
	s.publisher.Publish(models.NewParticipantWithdrawn(participant.TournamentID, participant.ID, s.now()))
	return participant, nil
}

// registrableTournament loads the tournament and vets its registration state.
func (s *participantService) registrableTournament(ctx context.Context, id models.TournamentID) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != models.StatusRegistrationOpen {
		reason := "registration is closed"
		switch tournament.Status {
		case models.StatusDraft:
			reason = "registration has not opened yet"
		case models.StatusInProgress:
			reason = "tournament is already in progress"
		case models.StatusFinished:
			reason = "tournament has finished"
		case models.StatusCancelled:
			reason = "tournament was cancelled"
		}
		return nil, &RegistrationClosedError{TournamentID: id, Status: tournament.Status, Reason: reason}
	}
	return tournament, nil
}

func (s *participantService) checkCapacity(ctx context.Context, tournament *models.Tournament) error {
	if tournament.MaxParticipants == nil {
		return nil
	}
	active, err := s.participantRepo.CountActive(ctx, nil, tournament.ID)
	if err != nil {
		return fmt.Errorf("failed to count active participants: %w", err)
	}
	if active >= *tournament.MaxParticipants {
		return ErrTournamentFull
	}
	return nil
}

// createWithSeed assigns the next seed and inserts in one transaction so
// concurrent registrations cannot claim the same seed.
func (s *participantService) createWithSeed(ctx context.Context, participant *models.Participant) error {
	err := s.txRunner.RunInTx(ctx, func(exec repositories.SQLExecutor) error {
		seed, err := s.participantRepo.NextSeed(ctx, exec, participant.TournamentID)
		if err != nil {
			return fmt.Errorf("failed to assign seed: %w", err)
		}
		participant.Seed = seed
		return s.participantRepo.Create(ctx, exec, participant)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantConflict) {
			return ErrAlreadyRegistered
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (s *participantService) applyTransition(ctx context.Context, participant *models.Participant, next models.ParticipantStatus) error {
	if !participant.CanTransitionTo(next) {
		return &InvalidStateTransitionError{
			Entity: "participant",
			ID:     participant.ID.String(),
			From:   string(participant.Status),
			To:     string(next),
		}
	}
	participant.Status = next
	if err := s.participantRepo.Update(ctx, nil, participant); err != nil {
		return fmt.Errorf("failed to persist participant transition: %w", err)
	}
	return nil
}

func (s *participantService) getParticipant(ctx context.Context, id models.ParticipantID) (*models.Participant, error) {
	participant, err := s.participantRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrParticipantNotFound) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}
	return participant, nil
}

func (s *participantService) getTournament(ctx context.Context, id models.TournamentID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return tournament, nil
}
