package models

import "time"

// MatchHistory is an append-only ledger of result mutations. Rows are never
// updated or deleted.
type MatchHistory struct {
	ID      MatchHistoryID `json:"id" db:"id"`
	MatchID MatchID        `json:"match_id" db:"match_id"`

	PreviousResult       MatchResult `json:"previous_result" db:"previous_result"`
	NewResult            MatchResult `json:"new_result" db:"new_result"`
	PreviousPlayer1Score int         `json:"previous_player1_score" db:"previous_player1_score"`
	PreviousPlayer2Score int         `json:"previous_player2_score" db:"previous_player2_score"`
	NewPlayer1Score      int         `json:"new_player1_score" db:"new_player1_score"`
	NewPlayer2Score      int         `json:"new_player2_score" db:"new_player2_score"`

	ChangedByUserID        *UserID        `json:"changed_by_user_id,omitempty" db:"changed_by_user_id"`
	ChangedByParticipantID *ParticipantID `json:"changed_by_participant_id,omitempty" db:"changed_by_participant_id"`
	Reason                 string         `json:"reason" db:"reason"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
