package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-tournaments/models"
)

var ErrMatchNotFound = errors.New("match not found")

type MatchRepository interface {
	Create(ctx context.Context, exec SQLExecutor, match *models.Match) error
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	GetByID(ctx context.Context, exec SQLExecutor, id models.MatchID) (*models.Match, error)
	ListByRound(ctx context.Context, exec SQLExecutor, roundID models.RoundID) ([]*models.Match, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) ([]*models.Match, error)
	// CountUnreportedByRound counts matches that block round completion:
	// pending results, disputes, and, when requireConfirmation is set,
	// reported results still awaiting the opponent's confirmation.
	CountUnreportedByRound(ctx context.Context, exec SQLExecutor, roundID models.RoundID, requireConfirmation bool) (int, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `
	id, round_id, tournament_id, player1_id, player2_id, table_number,
	result, player1_score, player2_score, player1_stats, player2_stats,
	reported_by_user_id, reported_by_participant_id, reported_at,
	confirmed_by_user_id, confirmed_by_participant_id, confirmed_at,
	is_disputed, created_at, updated_at`

func (r *postgresMatchRepository) scanMatch(row interface{ Scan(...interface{}) error }) (*models.Match, error) {
	var m models.Match
	err := row.Scan(
		&m.ID, &m.RoundID, &m.TournamentID, &m.Player1ID, &m.Player2ID, &m.TableNumber,
		&m.Result, &m.Player1Score, &m.Player2Score, &m.Player1Stats, &m.Player2Stats,
		&m.ReportedByUserID, &m.ReportedByParticipantID, &m.ReportedAt,
		&m.ConfirmedByUserID, &m.ConfirmedByParticipantID, &m.ConfirmedAt,
		&m.IsDisputed, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *postgresMatchRepository) Create(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO matches (
			id, round_id, tournament_id, player1_id, player2_id, table_number,
			result, player1_score, player2_score, player1_stats, player2_stats,
			reported_by_user_id, reported_by_participant_id, reported_at,
			confirmed_by_user_id, confirmed_by_participant_id, confirmed_at,
			is_disputed, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)`
	_, err := executor.ExecContext(ctx, query,
		m.ID, m.RoundID, m.TournamentID, m.Player1ID, m.Player2ID, m.TableNumber,
		m.Result, m.Player1Score, m.Player2Score, m.Player1Stats, m.Player2Stats,
		m.ReportedByUserID, m.ReportedByParticipantID, m.ReportedAt,
		m.ConfirmedByUserID, m.ConfirmedByParticipantID, m.ConfirmedAt,
		m.IsDisputed, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, m *models.Match) error {
	executor := r.getExecutor(exec)
	query := `
		UPDATE matches SET
			result = $1, player1_score = $2, player2_score = $3,
			player1_stats = $4, player2_stats = $5,
			reported_by_user_id = $6, reported_by_participant_id = $7, reported_at = $8,
			confirmed_by_user_id = $9, confirmed_by_participant_id = $10, confirmed_at = $11,
			is_disputed = $12, updated_at = $13
		WHERE id = $14`
	result, err := executor.ExecContext(ctx, query,
		m.Result, m.Player1Score, m.Player2Score,
		m.Player1Stats, m.Player2Stats,
		m.ReportedByUserID, m.ReportedByParticipantID, m.ReportedAt,
		m.ConfirmedByUserID, m.ConfirmedByParticipantID, m.ConfirmedAt,
		m.IsDisputed, m.UpdatedAt,
		m.ID,
	)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id models.MatchID) (*models.Match, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT`+matchColumns+` FROM matches WHERE id = $1`, id)
	return r.scanMatch(row)
}

func (r *postgresMatchRepository) ListByRound(ctx context.Context, exec SQLExecutor, roundID models.RoundID) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	return r.list(ctx, executor,
		`SELECT`+matchColumns+` FROM matches WHERE round_id = $1 ORDER BY table_number ASC`, roundID)
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) ([]*models.Match, error) {
	executor := r.getExecutor(exec)
	return r.list(ctx, executor,
		`SELECT`+matchColumns+` FROM matches WHERE tournament_id = $1 ORDER BY created_at ASC, table_number ASC`, tournamentID)
}

func (r *postgresMatchRepository) list(ctx context.Context, executor SQLExecutor, query string, args ...interface{}) ([]*models.Match, error) {
	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		m, scanErr := r.scanMatch(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

func (r *postgresMatchRepository) CountUnreportedByRound(ctx context.Context, exec SQLExecutor, roundID models.RoundID, requireConfirmation bool) (int, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT COUNT(*) FROM matches
		WHERE round_id = $1 AND (
			result = $2
			OR is_disputed = TRUE
			OR ($3 AND result <> $4 AND reported_by_participant_id IS NOT NULL AND confirmed_at IS NULL)
		)`
	var count int
	err := executor.QueryRowContext(ctx, query, roundID, models.ResultPending, requireConfirmation, models.ResultBye).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unreported matches: %w", err)
	}
	return count, nil
}
