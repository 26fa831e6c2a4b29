package repositories

import (
	"context"
	"database/sql"

	"github.com/Dosada05/swiss-tournaments/models"
)

// MatchHistoryRepository is insert-only: the ledger is never updated or
// deleted, preserving the audit trail of every result change.
type MatchHistoryRepository interface {
	Create(ctx context.Context, exec SQLExecutor, entry *models.MatchHistory) error
	ListByMatch(ctx context.Context, exec SQLExecutor, matchID models.MatchID) ([]*models.MatchHistory, error)
}

type postgresMatchHistoryRepository struct {
	db *sql.DB
}

func NewPostgresMatchHistoryRepository(db *sql.DB) MatchHistoryRepository {
	return &postgresMatchHistoryRepository{db: db}
}

func (r *postgresMatchHistoryRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresMatchHistoryRepository) Create(ctx context.Context, exec SQLExecutor, h *models.MatchHistory) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO match_history (
			id, match_id, previous_result, new_result,
			previous_player1_score, previous_player2_score,
			new_player1_score, new_player2_score,
			changed_by_user_id, changed_by_participant_id, reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := executor.ExecContext(ctx, query,
		h.ID, h.MatchID, h.PreviousResult, h.NewResult,
		h.PreviousPlayer1Score, h.PreviousPlayer2Score,
		h.NewPlayer1Score, h.NewPlayer2Score,
		h.ChangedByUserID, h.ChangedByParticipantID, h.Reason, h.CreatedAt,
	)
	return err
}

func (r *postgresMatchHistoryRepository) ListByMatch(ctx context.Context, exec SQLExecutor, matchID models.MatchID) ([]*models.MatchHistory, error) {
	executor := r.getExecutor(exec)
	query := `
		SELECT id, match_id, previous_result, new_result,
		       previous_player1_score, previous_player2_score,
		       new_player1_score, new_player2_score,
		       changed_by_user_id, changed_by_participant_id, reason, created_at
		FROM match_history
		WHERE match_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := executor.QueryContext(ctx, query, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*models.MatchHistory, 0)
	for rows.Next() {
		var h models.MatchHistory
		if scanErr := rows.Scan(
			&h.ID, &h.MatchID, &h.PreviousResult, &h.NewResult,
			&h.PreviousPlayer1Score, &h.PreviousPlayer2Score,
			&h.NewPlayer1Score, &h.NewPlayer2Score,
			&h.ChangedByUserID, &h.ChangedByParticipantID, &h.Reason, &h.CreatedAt,
		); scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, &h)
	}
	return entries, rows.Err()
}
