package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/Dosada05/swiss-tournaments/models"
)

var (
	ErrTournamentNotFound     = errors.New("tournament not found")
	ErrTournamentSlugConflict = errors.New("tournament slug is already in use")
	ErrTournamentEventTaken   = errors.New("event already has a tournament")
)

type ListTournamentsFilter struct {
	Status *models.TournamentStatus
	Limit  int
	Offset int
}

type TournamentRepository interface {
	Create(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	Update(ctx context.Context, exec SQLExecutor, tournament *models.Tournament) error
	GetByID(ctx context.Context, exec SQLExecutor, id models.TournamentID) (*models.Tournament, error)
	GetBySlug(ctx context.Context, exec SQLExecutor, slug string) (*models.Tournament, error)
	List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]*models.Tournament, error)
	UpdateBannerKey(ctx context.Context, exec SQLExecutor, id models.TournamentID, bannerKey *string) error
	// ListRegistrationToClose returns registration_open tournaments whose
	// registration window has passed; the scheduler closes them.
	ListRegistrationToClose(ctx context.Context, exec SQLExecutor, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const tournamentColumns = `
	id, event_id, game_profile_id, name, slug, description, status,
	current_round, max_rounds, min_participants, max_participants,
	registration_opens_at, registration_closes_at, starts_at,
	requires_check_in, self_check_in_allowed, check_in_starts_before,
	allow_guests, allowed_roles, result_reporting,
	stat_definitions, scoring_rules, tiebreaker_config, pairing_config,
	banner_key, started_at, finished_at, created_at, updated_at`

func (r *postgresTournamentRepository) scanTournament(row interface{ Scan(...interface{}) error }) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID, &t.EventID, &t.GameProfileID, &t.Name, &t.Slug, &t.Description, &t.Status,
		&t.CurrentRound, &t.MaxRounds, &t.MinParticipants, &t.MaxParticipants,
		&t.RegistrationOpensAt, &t.RegistrationClosesAt, &t.StartsAt,
		&t.RequiresCheckIn, &t.SelfCheckInAllowed, &t.CheckInStartsBefore,
		&t.AllowGuests, &t.AllowedRoles, &t.ResultReporting,
		&t.StatDefinitions, &t.ScoringRules, &t.TiebreakerConfig, &t.PairingConfig,
		&t.BannerKey, &t.StartedAt, &t.FinishedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *postgresTournamentRepository) Create(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO tournaments (
			id, event_id, game_profile_id, name, slug, description, status,
			current_round, max_rounds, min_participants, max_participants,
			registration_opens_at, registration_closes_at, starts_at,
			requires_check_in, self_check_in_allowed, check_in_starts_before,
			allow_guests, allowed_roles, result_reporting,
			stat_definitions, scoring_rules, tiebreaker_config, pairing_config,
			banner_key, started_at, finished_at, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
			$16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29
		)`
	_, err := executor.ExecContext(ctx, query,
		t.ID, t.EventID, t.GameProfileID, t.Name, t.Slug, t.Description, t.Status,
		t.CurrentRound, t.MaxRounds, t.MinParticipants, t.MaxParticipants,
		t.RegistrationOpensAt, t.RegistrationClosesAt, t.StartsAt,
		t.RequiresCheckIn, t.SelfCheckInAllowed, t.CheckInStartsBefore,
		t.AllowGuests, t.AllowedRoles, t.ResultReporting,
		t.StatDefinitions, t.ScoringRules, t.TiebreakerConfig, t.PairingConfig,
		t.BannerKey, t.StartedAt, t.FinishedAt, t.CreatedAt, t.UpdatedAt,
	)
	return handleTournamentError(err)
}

func (r *postgresTournamentRepository) Update(ctx context.Context, exec SQLExecutor, t *models.Tournament) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE tournaments SET
			name = $1, slug = $2, description = $3, status = $4,
			current_round = $5, max_rounds = $6, min_participants = $7, max_participants = $8,
			registration_opens_at = $9, registration_closes_at = $10, starts_at = $11,
			requires_check_in = $12, self_check_in_allowed = $13, check_in_starts_before = $14,
			allow_guests = $15, allowed_roles = $16, result_reporting = $17,
			stat_definitions = $18, scoring_rules = $19, tiebreaker_config = $20, pairing_config = $21,
			started_at = $22, finished_at = $23, updated_at = $24
		WHERE id = $25`
	result, err := executor.ExecContext(ctx, query,
		t.Name, t.Slug, t.Description, t.Status,
		t.CurrentRound, t.MaxRounds, t.MinParticipants, t.MaxParticipants,
		t.RegistrationOpensAt, t.RegistrationClosesAt, t.StartsAt,
		t.RequiresCheckIn, t.SelfCheckInAllowed, t.CheckInStartsBefore,
		t.AllowGuests, t.AllowedRoles, t.ResultReporting,
		t.StatDefinitions, t.ScoringRules, t.TiebreakerConfig, t.PairingConfig,
		t.StartedAt, t.FinishedAt, t.UpdatedAt,
		t.ID,
	)
	if err != nil {
		return handleTournamentError(err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) GetByID(ctx context.Context, exec SQLExecutor, id models.TournamentID) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT`+tournamentColumns+` FROM tournaments WHERE id = $1`, id)
	return r.scanTournament(row)
}

func (r *postgresTournamentRepository) GetBySlug(ctx context.Context, exec SQLExecutor, slug string) (*models.Tournament, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT`+tournamentColumns+` FROM tournaments WHERE slug = $1`, slug)
	return r.scanTournament(row)
}

func (r *postgresTournamentRepository) List(ctx context.Context, exec SQLExecutor, filter ListTournamentsFilter) ([]*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + tournamentColumns + ` FROM tournaments WHERE 1=1`

	args := []interface{}{}
	argID := 1
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argID)
		args = append(args, *filter.Status)
		argID++
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argID)
		args = append(args, filter.Limit)
		argID++
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argID)
		args = append(args, filter.Offset)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := r.scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func (r *postgresTournamentRepository) UpdateBannerKey(ctx context.Context, exec SQLExecutor, id models.TournamentID, bannerKey *string) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE tournaments SET banner_key = $1, updated_at = NOW() WHERE id = $2`, bannerKey, id)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListRegistrationToClose(ctx context.Context, exec SQLExecutor, now time.Time) ([]*models.Tournament, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + tournamentColumns + `
		FROM tournaments
		WHERE status = $1 AND registration_closes_at IS NOT NULL AND registration_closes_at <= $2
		ORDER BY registration_closes_at ASC`
	rows, err := executor.QueryContext(ctx, query, models.StatusRegistrationOpen, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := r.scanTournament(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		tournaments = append(tournaments, t)
	}
	return tournaments, rows.Err()
}

func handleTournamentError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "tournaments_event_id_key":
			return ErrTournamentEventTaken
		default:
			return ErrTournamentSlugConflict
		}
	}
	return err
}
