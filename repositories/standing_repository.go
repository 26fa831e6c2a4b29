package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-tournaments/models"
)

var ErrStandingNotFound = errors.New("standing not found")

// StandingRepository persists the derived standings projection. A rebuild
// replaces the whole set for a tournament, so there is no partial update.
type StandingRepository interface {
	DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) error
	BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error
	ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) ([]*models.Standing, error)
	GetByParticipant(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID, participantID models.ParticipantID) (*models.Standing, error)
}

type postgresStandingRepository struct {
	db *sql.DB
}

func NewPostgresStandingRepository(db *sql.DB) StandingRepository {
	return &postgresStandingRepository{db: db}
}

func (r *postgresStandingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const standingColumns = `
	id, tournament_id, participant_id, rank, matches_played, wins, draws, losses, byes,
	points, buchholz, median_buchholz, progressive, opponent_win_percentage,
	stats, tiebreakers, updated_at`

func (r *postgresStandingRepository) scanStanding(row interface{ Scan(...interface{}) error }) (*models.Standing, error) {
	var s models.Standing
	err := row.Scan(
		&s.ID, &s.TournamentID, &s.ParticipantID, &s.Rank, &s.MatchesPlayed,
		&s.Wins, &s.Draws, &s.Losses, &s.Byes,
		&s.Points, &s.Buchholz, &s.MedianBuchholz, &s.Progressive, &s.OpponentWinPct,
		&s.Stats, &s.Tiebreakers, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStandingNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *postgresStandingRepository) DeleteByTournament(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) error {
	executor := r.getExecutor(exec)
	_, err := executor.ExecContext(ctx, `DELETE FROM standings WHERE tournament_id = $1`, tournamentID)
	return err
}

func (r *postgresStandingRepository) BatchCreate(ctx context.Context, exec SQLExecutor, standings []*models.Standing) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO standings (
			id, tournament_id, participant_id, rank, matches_played, wins, draws, losses, byes,
			points, buchholz, median_buchholz, progressive, opponent_win_percentage,
			stats, tiebreakers, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	for _, s := range standings {
		if _, err := executor.ExecContext(ctx, query,
			s.ID, s.TournamentID, s.ParticipantID, s.Rank, s.MatchesPlayed,
			s.Wins, s.Draws, s.Losses, s.Byes,
			s.Points, s.Buchholz, s.MedianBuchholz, s.Progressive, s.OpponentWinPct,
			s.Stats, s.Tiebreakers, s.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert standing for participant %s: %w", s.ParticipantID, err)
		}
	}
	return nil
}

func (r *postgresStandingRepository) ListByTournament(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID) ([]*models.Standing, error) {
	executor := r.getExecutor(exec)
	rows, err := executor.QueryContext(ctx,
		`SELECT`+standingColumns+` FROM standings WHERE tournament_id = $1 ORDER BY rank ASC, participant_id ASC`,
		tournamentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	standings := make([]*models.Standing, 0)
	for rows.Next() {
		s, scanErr := r.scanStanding(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		standings = append(standings, s)
	}
	return standings, rows.Err()
}

func (r *postgresStandingRepository) GetByParticipant(ctx context.Context, exec SQLExecutor, tournamentID models.TournamentID, participantID models.ParticipantID) (*models.Standing, error) {
	executor := r.getExecutor(exec)
	row := executor.QueryRowContext(ctx,
		`SELECT`+standingColumns+` FROM standings WHERE tournament_id = $1 AND participant_id = $2`,
		tournamentID, participantID)
	return r.scanStanding(row)
}
