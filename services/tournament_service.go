package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/swiss-tournaments/models"
	"github.com/Dosada05/swiss-tournaments/repositories"
	"github.com/Dosada05/swiss-tournaments/storage"
	"github.com/Dosada05/swiss-tournaments/utils"
)

type TournamentService interface {
	Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error)
	Update(ctx context.Context, id models.TournamentID, input UpdateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id models.TournamentID) (*models.Tournament, error)
	GetBySlug(ctx context.Context, slug string) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error)
	FullDetail(ctx context.Context, id models.TournamentID) (*models.Tournament, error)

	OpenRegistration(ctx context.Context, id models.TournamentID) (*models.Tournament, error)
	CloseRegistration(ctx context.Context, id models.TournamentID) (*models.Tournament, error)
	Start(ctx context.Context, id models.TournamentID) (*models.Tournament, error)
	Finish(ctx context.Context, id models.TournamentID) (*models.Tournament, error)
	Cancel(ctx context.Context, id models.TournamentID) (*models.Tournament, error)

	UploadBanner(ctx context.Context, id models.TournamentID, contentType string, file io.Reader) (*models.Tournament, error)
}

type CreateTournamentInput struct {
	EventID       string               `json:"event_id"`
	GameProfileID models.GameProfileID `json:"game_profile_id"`
	Name          string               `json:"name"`
	Description   *string              `json:"description,omitempty"`

	MaxRounds       *int `json:"max_rounds,omitempty"`
	MinParticipants int  `json:"min_participants"`
	MaxParticipants *int `json:"max_participants,omitempty"`

	RegistrationOpensAt  *time.Time `json:"registration_opens_at,omitempty"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at,omitempty"`
	StartsAt             *time.Time `json:"starts_at,omitempty"`

	RequiresCheckIn     bool `json:"requires_check_in"`
	SelfCheckInAllowed  bool `json:"self_check_in_allowed"`
	CheckInStartsBefore int  `json:"check_in_starts_before"`

	AllowGuests  bool            `json:"allow_guests"`
	AllowedRoles models.RoleList `json:"allowed_roles,omitempty"`

	ResultReporting models.ResultReporting `json:"result_reporting"`
}

// UpdateTournamentInput edits the tournament's own configuration copy.
// Config fields are rejected once the tournament has started.
type UpdateTournamentInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`

	MaxRounds       *int `json:"max_rounds,omitempty"`
	MinParticipants *int `json:"min_participants,omitempty"`
	MaxParticipants *int `json:"max_participants,omitempty"`

	RegistrationOpensAt  *time.Time `json:"registration_opens_at,omitempty"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at,omitempty"`
	StartsAt             *time.Time `json:"starts_at,omitempty"`

	RequiresCheckIn     *bool `json:"requires_check_in,omitempty"`
	SelfCheckInAllowed  *bool `json:"self_check_in_allowed,omitempty"`
	CheckInStartsBefore *int  `json:"check_in_starts_before,omitempty"`

	AllowGuests  *bool            `json:"allow_guests,omitempty"`
	AllowedRoles *models.RoleList `json:"allowed_roles,omitempty"`

	ResultReporting *models.ResultReporting `json:"result_reporting,omitempty"`

	StatDefinitions  *models.StatDefinitions  `json:"stat_definitions,omitempty"`
	ScoringRules     *models.ScoringRules     `json:"scoring_rules,omitempty"`
	TiebreakerConfig *models.TiebreakerConfig `json:"tiebreaker_config,omitempty"`
	PairingConfig    *models.PairingConfig    `json:"pairing_config,omitempty"`
}

type tournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	profileRepo     repositories.GameProfileRepository
	participantRepo repositories.ParticipantRepository
	roundRepo       repositories.RoundRepository
	matchRepo       repositories.MatchRepository
	standingRepo    repositories.StandingRepository
	uploader        storage.FileUploader
	publisher       EventPublisher
	locks           *TournamentLocks
	now             func() time.Time
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	profileRepo repositories.GameProfileRepository,
	participantRepo repositories.ParticipantRepository,
	roundRepo repositories.RoundRepository,
	matchRepo repositories.MatchRepository,
	standingRepo repositories.StandingRepository,
	uploader storage.FileUploader,
	publisher EventPublisher,
	locks *TournamentLocks,
) TournamentService {
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		profileRepo:     profileRepo,
		participantRepo: participantRepo,
		roundRepo:       roundRepo,
		matchRepo:       matchRepo,
		standingRepo:    standingRepo,
		uploader:        uploader,
		publisher:       publisher,
		locks:           locks,
		now:             time.Now,
	}
}

func (s *tournamentService) Create(ctx context.Context, input CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New("tournament name must not be empty")
	}
	if strings.TrimSpace(input.EventID) == "" {
		return nil, errors.New("event id must not be empty")
	}
	if input.MinParticipants < 2 {
		return nil, errors.New("min_participants must be at least 2")
	}
	if input.MaxParticipants != nil && *input.MaxParticipants < input.MinParticipants {
		return nil, errors.New("max_participants must not be below min_participants")
	}
	if input.MaxRounds != nil && *input.MaxRounds < 1 {
		return nil, errors.New("max_rounds must be at least 1")
	}
	if input.ResultReporting == "" {
		input.ResultReporting = models.ReportingAdminOnly
	}
	if !input.ResultReporting.Valid() {
		return nil, fmt.Errorf("unknown result_reporting mode %q", input.ResultReporting)
	}

	profile, err := s.profileRepo.GetByID(ctx, nil, input.GameProfileID)
	if err != nil {
		if errors.Is(err, repositories.ErrGameProfileNotFound) {
			return nil, ErrGameProfileNotFound
		}
		return nil, fmt.Errorf("failed to load game profile: %w", err)
	}

	now := s.now().UTC()
	tournament := &models.Tournament{
		ID:            models.NewTournamentID(),
		EventID:       strings.TrimSpace(input.EventID),
		GameProfileID: profile.ID,
		Name:          name,
		Slug:          utils.Slugify(name),
		Description:   input.Description,

		Status: models.StatusDraft,

		MaxRounds:       input.MaxRounds,
		MinParticipants: input.MinParticipants,
		MaxParticipants: input.MaxParticipants,

		RegistrationOpensAt:  input.RegistrationOpensAt,
		RegistrationClosesAt: input.RegistrationClosesAt,
		StartsAt:             input.StartsAt,

		RequiresCheckIn:     input.RequiresCheckIn,
		SelfCheckInAllowed:  input.SelfCheckInAllowed,
		CheckInStartsBefore: input.CheckInStartsBefore,

		AllowGuests:  input.AllowGuests,
		AllowedRoles: input.AllowedRoles,

		ResultReporting: input.ResultReporting,

		// The profile's config is copied once; later profile edits do not
		// affect this tournament.
		StatDefinitions:  profile.StatDefinitions,
		ScoringRules:     profile.ScoringRules,
		TiebreakerConfig: profile.TiebreakerConfig,
		PairingConfig:    profile.PairingConfig,
	}

	if err := s.tournamentRepo.Create(ctx, nil, tournament); err != nil {
		switch {
		case errors.Is(err, repositories.ErrTournamentSlugConflict):
			return nil, ErrSlugConflict
		case errors.Is(err, repositories.ErrTournamentEventTaken):
			return nil, ErrEventTaken
		}
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}

	s.publisher.Publish(models.NewTournamentCreated(tournament.ID, tournament.Name, tournament.Slug, now))
	return tournament, nil
}

func (s *tournamentService) Update(ctx context.Context, id models.TournamentID, input UpdateTournamentInput) (*models.Tournament, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	configEdit := input.StatDefinitions != nil || input.ScoringRules != nil ||
		input.TiebreakerConfig != nil || input.PairingConfig != nil ||
		input.MaxRounds != nil || input.ResultReporting != nil
	if configEdit && (tournament.Status == models.StatusInProgress || tournament.Status.Terminal()) {
		return nil, ErrTournamentNotEditable
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, errors.New("tournament name must not be empty")
		}
		tournament.Name = name
		tournament.Slug = utils.Slugify(name)
	}
	if input.Description != nil {
		tournament.Description = input.Description
	}
	if input.MaxRounds != nil {
		if *input.MaxRounds < 1 {
			return nil, errors.New("max_rounds must be at least 1")
		}
		tournament.MaxRounds = input.MaxRounds
	}
	if input.MinParticipants != nil {
		if *input.MinParticipants < 2 {
			return nil, errors.New("min_participants must be at least 2")
		}
		tournament.MinParticipants = *input.MinParticipants
	}
	if input.MaxParticipants != nil {
		tournament.MaxParticipants = input.MaxParticipants
	}
	if input.RegistrationOpensAt != nil {
		tournament.RegistrationOpensAt = input.RegistrationOpensAt
	}
	if input.RegistrationClosesAt != nil {
		tournament.RegistrationClosesAt = input.RegistrationClosesAt
	}
	if input.StartsAt != nil {
		tournament.StartsAt = input.StartsAt
	}
	if input.RequiresCheckIn != nil {
		tournament.RequiresCheckIn = *input.RequiresCheckIn
	}
	if input.SelfCheckInAllowed != nil {
		tournament.SelfCheckInAllowed = *input.SelfCheckInAllowed
	}
	if input.CheckInStartsBefore != nil {
		tournament.CheckInStartsBefore = *input.CheckInStartsBefore
	}
	if input.AllowGuests != nil {
		tournament.AllowGuests = *input.AllowGuests
	}
	if input.AllowedRoles != nil {
		tournament.AllowedRoles = *input.AllowedRoles
	}
	if input.ResultReporting != nil {
		if !input.ResultReporting.Valid() {
			return nil, fmt.Errorf("unknown result_reporting mode %q", *input.ResultReporting)
		}
		tournament.ResultReporting = *input.ResultReporting
	}
	if input.StatDefinitions != nil {
		tournament.StatDefinitions = *input.StatDefinitions
	}
	if input.ScoringRules != nil {
		tournament.ScoringRules = *input.ScoringRules
	}
	if input.TiebreakerConfig != nil {
		tournament.TiebreakerConfig = *input.TiebreakerConfig
	}
	if input.PairingConfig != nil {
		tournament.PairingConfig = *input.PairingConfig
	}

	if configEdit {
		if err := tournament.ScoringRules.Validate(tournament.StatDefinitions); err != nil {
			return nil, err
		}
		if err := tournament.TiebreakerConfig.Validate(tournament.StatDefinitions); err != nil {
			return nil, err
		}
		if err := tournament.PairingConfig.Validate(tournament.StatDefinitions); err != nil {
			return nil, err
		}
	}

	if err := s.tournamentRepo.Update(ctx, nil, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentSlugConflict) {
			return nil, ErrSlugConflict
		}
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}
	s.resolveBannerURL(tournament)
	return tournament, nil
}

func (s *tournamentService) GetByID(ctx context.Context, id models.TournamentID) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	s.resolveBannerURL(tournament)
	return tournament, nil
}

func (s *tournamentService) GetBySlug(ctx context.Context, slug string) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetBySlug(ctx, nil, slug)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament by slug: %w", err)
	}
	s.resolveBannerURL(tournament)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]*models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, nil, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tournaments: %w", err)
	}
	for _, t := range tournaments {
		s.resolveBannerURL(t)
	}
	return tournaments, nil
}

// FullDetail loads the tournament with participants, rounds, matches and
// standings fanned out concurrently.
func (s *tournamentService) FullDetail(ctx context.Context, id models.TournamentID) (*models.Tournament, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gctx, nil, id, nil)
		if err != nil {
			return fmt.Errorf("failed to load participants: %w", err)
		}
		tournament.Participants = participants
		return nil
	})
	g.Go(func() error {
		rounds, err := s.roundRepo.ListByTournament(gctx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to load rounds: %w", err)
		}
		tournament.Rounds = rounds
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gctx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to load matches: %w", err)
		}
		tournament.Matches = matches
		return nil
	})
	g.Go(func() error {
		standings, err := s.standingRepo.ListByTournament(gctx, nil, id)
		if err != nil {
			return fmt.Errorf("failed to load standings: %w", err)
		}
		tournament.Standings = standings
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byRound := make(map[models.RoundID][]*models.Match, len(tournament.Rounds))
	for _, m := range tournament.Matches {
		byRound[m.RoundID] = append(byRound[m.RoundID], m)
	}
	for _, r := range tournament.Rounds {
		r.Matches = byRound[r.ID]
	}

	s.resolveBannerURL(tournament)
	return tournament, nil
}

func (s *tournamentService) OpenRegistration(ctx context.Context, id models.TournamentID) (*models.Tournament, error) {
	return s.transition(ctx, id, models.StatusRegistrationOpen, nil)
}

func (s *tournamentService) CloseRegistration(ctx context.Context, id models.TournamentID) (*models.Tournament, error) {
	return s.transition(ctx, id, models.StatusRegistrationClosed, nil)
}

func (s *tournamentService) Start(ctx context.Context, id models.TournamentID) (*models.Tournament, error) {
	var active int
	tournament, err := s.transition(ctx, id, models.StatusInProgress, func(t *models.Tournament) error {
		n, err := s.participantRepo.CountActive(ctx, nil, t.ID)
		if err != nil {
			return fmt.Errorf("failed to count active participants: %w", err)
		}
		if n < t.MinParticipants {
			return &InsufficientParticipantsError{TournamentID: t.ID, Active: n, Minimum: t.MinParticipants}
		}
		active = n
		now := s.now().UTC()
		t.StartedAt = &now
		t.CurrentRound = 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(models.NewTournamentStarted(tournament.ID, active, s.now()))
	return tournament, nil
}

func (s *tournamentService) Finish(ctx context.Context, id models.TournamentID) (*models.Tournament, error) {
	var winner models.ParticipantID
	tournament, err := s.transition(ctx, id, models.StatusFinished, func(t *models.Tournament) error {
		current, err := s.roundRepo.GetCurrent(ctx, nil, t.ID)
		if err != nil && !errors.Is(err, repositories.ErrRoundNotFound) {
			return fmt.Errorf("failed to load current round: %w", err)
		}
		if current != nil && current.Status != models.RoundFinished {
			return ErrTournamentNotFinishable
		}
		// With a round cap configured, the tournament runs its full
		// distance; finishing early stays a staff decision via Cancel.
		if t.MaxRounds != nil && t.CurrentRound < *t.MaxRounds {
			return ErrTournamentNotFinishable
		}

		standings, err := s.standingRepo.ListByTournament(ctx, nil, t.ID)
		if err != nil {
			return fmt.Errorf("failed to load standings: %w", err)
		}
		if len(standings) > 0 {
			winner = standings[0].ParticipantID
		}
		now := s.now().UTC()
		t.FinishedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(models.NewTournamentFinished(tournament.ID, winner, tournament.CurrentRound, s.now()))
	return tournament, nil
}

func (s *tournamentService) Cancel(ctx context.Context, id models.TournamentID) (*models.Tournament, error) {
	tournament, err := s.transition(ctx, id, models.StatusCancelled, nil)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(models.NewTournamentCancelled(tournament.ID, s.now()))
	return tournament, nil
}

func (s *tournamentService) UploadBanner(ctx context.Context, id models.TournamentID, contentType string, file io.Reader) (*models.Tournament, error) {
	if s.uploader == nil {
		return nil, ErrBannerStorageUnavailable
	}
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("tournaments/%s/banner", tournament.ID)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament banner: %w", err)
	}

	if err := s.tournamentRepo.UpdateBannerKey(ctx, nil, tournament.ID, &result.Key); err != nil {
		return nil, fmt.Errorf("failed to save tournament banner key: %w", err)
	}
	tournament.BannerKey = &result.Key
	s.resolveBannerURL(tournament)
	return tournament, nil
}

// transition moves the tournament to next under the per-tournament lock.
// prepare, when given, runs after the transition check and before persisting,
// so it can both vet preconditions and stamp timestamps.
func (s *tournamentService) transition(ctx context.Context, id models.TournamentID, next models.TournamentStatus, prepare func(*models.Tournament) error) (*models.Tournament, error) {
	unlock := s.locks.lock(id)
	defer unlock()

	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tournament.CanTransitionTo(next) {
		return nil, &InvalidStateTransitionError{
			Entity: "tournament",
			ID:     tournament.ID.String(),
			From:   string(tournament.Status),
			To:     string(next),
		}
	}
	if prepare != nil {
		if err := prepare(tournament); err != nil {
			return nil, err
		}
	}

	tournament.Status = next
	if err := s.tournamentRepo.Update(ctx, nil, tournament); err != nil {
		return nil, fmt.Errorf("failed to persist tournament transition: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) getTournament(ctx context.Context, id models.TournamentID) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) resolveBannerURL(t *models.Tournament) {
	if s.uploader == nil || t.BannerKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*t.BannerKey)
	t.BannerURL = &url
}
