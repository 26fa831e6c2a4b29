package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Dosada05/swiss-tournaments/models"
)

var (
	ErrRoundNotFound       = errors.New("round not found")
	ErrRoundNumberConflict = errors.New("round number already exists for this tournament")
)

type RoundRepository interface {
	Create(ctx context.Context, exec SQLExecutor, round *models.Round) error
	Update(ctx context.Context, exec SQLExecutor, round *models.Round) error
	GetByID(ctx context.Context, exec SQLExecutor, id models.RoundID) (*models.Round, error)
	GetByNumber(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID, number int) (*models.Round, error)
	// GetCurrent returns the highest-numbered round of the tournament.
	GetCurrent(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) (*models.Round, error)
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) ([]*models.Round, error)
}

type postgresRoundRepository struct {
	db *sql.DB
}

func NewPostgresRoundRepository(db *sql.DB) RoundRepository {
	return &postgresRoundRepository{db: db}
}

func (r *postgresRoundRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const roundColumns = `id, tournament_id, round_number, status, started_at, completed_at, created_at`

func (r *postgresRoundRepository) scanRound(row interface{ Scan(...interface{}) error }) (*models.Round, error) {
	var rd models.Round
	err := row.Scan(&rd.ID, &rd.TournamentID, &rd.RoundNumber, &rd.Status, &rd.StartedAt, &rd.CompletedAt, &rd.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, err
	}
	return &rd, nil
}

func (r *postgresRoundRepository) Create(ctx context.Context, exec SQLExecutor, rd *models.Round) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO rounds (id, tournament_id, round_number, status, started_at, completed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := executor.ExecContext(ctx, query,
		rd.ID, rd.TournamentID, rd.RoundNumber, rd.Status, rd.StartedAt, rd.CompletedAt, rd.CreatedAt)
	return err
}

func (r *postgresRoundRepository) Update(ctx context.Context, exec SQLExecutor, rd *models.Round) error {
	executor := r.getExecutor(exec)
	result, err := executor.ExecContext(ctx,
		`UPDATE rounds SET status = $1, started_at = $2, completed_at = $3 WHERE id = $4`,
		rd.Status, rd.StartedAt, rd.CompletedAt, rd.ID)
	if err != nil {
		return err
	}
	return checkAffectedRows(result, ErrRoundNotFound)
}

func (r *postgresRoundRepository) GetByID(ctx context.Context, exec SQLExecutor, id models.RoundID) (*models.Round, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx, `SELECT `+roundColumns+` FROM rounds WHERE id = $1`, id)
	return r.scanRound(row)
}

func (r *postgresRoundRepository) GetByNumber(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID, number int) (*models.Round, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE tournament_id = $1 AND round_number = $2`,
		tournamentID, number)
	return r.scanRound(row)
}

func (r *postgresRoundRepository) GetCurrent(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) (*models.Round, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE tournament_id = $1 ORDER BY round_number DESC LIMIT 1`,
		tournamentID)
	return r.scanRound(row)
}

func (r *postgresRoundRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) ([]*models.Round, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT `+roundColumns+` FROM rounds WHERE tournament_id = $1 ORDER BY round_number ASC`,
		tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rounds := make([]*models.Round, 0)
	for rows.Next() {
		rd, scanErr := r.scanRound(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		rounds = append(rounds, rd)
	}
	return rounds, rows.Err()
}
