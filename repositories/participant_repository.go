package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/swiss-tournaments/models"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantConflict          = errors.New("participant is already registered for this tournament")
	ErrCancellationTokenNotFound    = errors.New("cancellation token not found")
	ErrCancellationTokenConflict    = errors.New("cancellation token is already in use")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	Update(ctx context.Context, exec SQLExecutor, participant *models.Participant) error
	GetByID(ctx context.Context, exec SQLExecutor, id models.ParticipantID) (*models.Participant, error)
	FindByUserAndTournament(ctx context.Context, exec SQLExecutor, userID models.UserID, tournamentID models.TournamentID) (*models.Participant, error)
	FindByGuestEmail(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID, email string) (*models.Participant, error)
	FindByCancellationToken(ctx context.Context, exec SQLExecutor, token string) (*models.Participant, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID, status *models.ParticipantStatus) ([]*models.Participant, error)
	// ListPlayable returns confirmed and checked-in participants, seed order.
	ListPlayable(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) ([]*models.Participant, error)
	CountActive(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) (int, error)
	NextSeed(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) (int, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const participantColumns = `
	id, tournament_id, user_id, guest_name, guest_email, status, seed,
	has_received_bye, bye_count, cancellation_token, registered_at, checked_in_at, updated_at`

func (r *postgresParticipantRepository) scanParticipant(row interface{ Scan(...interface{}) error }) (*models.Participant, error) {
	var p models.Participant
	err := row.Scan(
		&p.ID, &p.TournamentID, &p.UserID, &p.GuestName, &p.GuestEmail, &p.Status, &p.Seed,
		&p.HasReceivedBye, &p.ByeCount, &p.CancellationToken, &p.RegisteredAt, &p.CheckedInAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (
			id, tournament_id, user_id, guest_name, guest_email, status, seed,
			has_received_bye, bye_count, cancellation_token, registered_at, checked_in_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := executor.ExecContext(ctx, query,
		p.ID, p.TournamentID, p.UserID, p.GuestName, p.GuestEmail, p.Status, p.Seed,
		p.HasReceivedBye, p.ByeCount, p.CancellationToken, p.RegisteredAt, p.CheckedInAt, p.UpdatedAt,
	)
	return handleParticipantError(err)
}

func (r *postgresParticipantRepository) Update(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE participants SET
			status = $1, seed = $2, has_received_bye = $3, bye_count = $4,
			cancellation_token = $5, checked_in_at = $6, updated_at = $7
		WHERE id = $8`
	result, err := executor.ExecContext(ctx, query,
		p.Status, p.Seed, p.HasReceivedBye, p.ByeCount,
		p.CancellationToken, p.CheckedInAt, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return handleParticipantError(err)
	}
	return checkAffectedRows(result, ErrParticipantNotFound)
}

func (r *postgresParticipantRepository) GetByID(ctx context.Context, exec SQLExecutor, id models.ParticipantID) (*models.Participant, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT`+participantColumns+` FROM participants WHERE id = $1`, id)
	return r.scanParticipant(row)
}

func (r *postgresParticipantRepository) FindByUserAndTournament(ctx context.Context, exec SQLExecutor, userID models.UserID, tournamentID models.TournamentID) (*models.Participant, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx,
		`SELECT`+participantColumns+` FROM participants WHERE user_id = $1 AND tournament_id = $2`,
		userID, tournamentID)
	return r.scanParticipant(row)
}

func (r *postgresParticipantRepository) FindByGuestEmail(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID, email string) (*models.Participant, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx,
		`SELECT`+participantColumns+` FROM participants WHERE tournament_id = $1 AND LOWER(guest_email) = LOWER($2)`,
		tournamentID, email)
	return r.scanParticipant(row)
}

func (r *postgresParticipantRepository) FindByCancellationToken(ctx context.Context, exec SQLExecutor, token string) (*models.Participant, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx,
		`SELECT`+participantColumns+` FROM participants WHERE cancellation_token = $1`, token)
	p, err := r.scanParticipant(row)
	if errors.Is(err, ErrParticipantNotFound) {
		return nil, ErrCancellationTokenNotFound
	}
	return p, err
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID, status *models.ParticipantStatus) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + participantColumns + ` FROM participants WHERE tournament_id = $1`
	args := []interface{}{tournamentID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY seed ASC, id ASC`
	return r.list(ctx, executor, query, args...)
}

func (r *postgresParticipantRepository) ListPlayable(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `SELECT` + participantColumns + `
		FROM participants
		WHERE tournament_id = $1 AND status IN ($2, $3)
		ORDER BY seed ASC, id ASC`
	return r.list(ctx, executor, query, tournamentID, models.ParticipantConfirmed, models.ParticipantCheckedIn)
}

func (r *postgresParticipantRepository) list(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.Participant, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		p, scanErr := r.scanParticipant(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *postgresParticipantRepository) CountActive(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM participants WHERE tournament_id = $1 AND status NOT IN ($2, $3)`,
		tournamentID, models.ParticipantWithdrawn, models.ParticipantDisqualified,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count active participants: %w", err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) NextSeed(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) (int, error) {
	executor := r.getExecutor(exec)
	var seed int
	err := executor.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seed), 0) + 1 FROM participants WHERE tournament_id = $1`,
		tournamentID,
	).Scan(&seed)
	if err != nil {
		return 0, fmt.Errorf("failed to compute next seed: %w", err)
	}
	return seed, nil
}

func handleParticipantError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		if pqErr.Constraint == "participants_cancellation_token_key" {
			return ErrCancellationTokenConflict
		}
		return ErrParticipantConflict
	}
	return err
}
