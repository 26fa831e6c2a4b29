package models

import "time"

type MatchResult string

const (
	ResultPending    MatchResult = "pending"
	ResultPlayer1Win MatchResult = "player1_win"
	ResultPlayer2Win MatchResult = "player2_win"
	ResultDraw       MatchResult = "draw"
	ResultDoubleLoss MatchResult = "double_loss"
	ResultBye        MatchResult = "bye"
)

func (r MatchResult) Valid() bool {
	switch r {
	case ResultPending, ResultPlayer1Win, ResultPlayer2Win, ResultDraw,
		ResultDoubleLoss, ResultBye:
		return true
	}
	return false
}

// Reportable results are those a reporter may submit; pending and bye are
// set by the system only.
func (r MatchResult) Reportable() bool {
	switch r {
	case ResultPlayer1Win, ResultPlayer2Win, ResultDraw, ResultDoubleLoss:
		return true
	}
	return false
}

// Decisive results produce exactly one winner.
func (r MatchResult) Decisive() bool {
	return r == ResultPlayer1Win || r == ResultPlayer2Win
}

// Match is one pairing within a round. Player2ID == nil marks a bye, which
// is auto-recorded with result bye and never needs confirmation.
type Match struct {
	ID           MatchID      `json:"id" db:"id"`
	RoundID      RoundID      `json:"round_id" db:"round_id"`
	TournamentID TournamentID `json:"tournament_id" db:"tournament_id"`

	Player1ID   ParticipantID  `json:"player1_id" db:"player1_id"`
	Player2ID   *ParticipantID `json:"player2_id,omitempty" db:"player2_id"`
	TableNumber int            `json:"table_number" db:"table_number"`

	Result       MatchResult `json:"result" db:"result"`
	Player1Score int         `json:"player1_score" db:"player1_score"`
	Player2Score int         `json:"player2_score" db:"player2_score"`
	Player1Stats StatMap     `json:"player1_stats,omitempty" db:"player1_stats"`
	Player2Stats StatMap     `json:"player2_stats,omitempty" db:"player2_stats"`

	ReportedByUserID        *UserID        `json:"reported_by_user_id,omitempty" db:"reported_by_user_id"`
	ReportedByParticipantID *ParticipantID `json:"reported_by_participant_id,omitempty" db:"reported_by_participant_id"`
	ReportedAt              *time.Time     `json:"reported_at,omitempty" db:"reported_at"`

	ConfirmedByUserID        *UserID        `json:"confirmed_by_user_id,omitempty" db:"confirmed_by_user_id"`
	ConfirmedByParticipantID *ParticipantID `json:"confirmed_by_participant_id,omitempty" db:"confirmed_by_participant_id"`
	ConfirmedAt              *time.Time     `json:"confirmed_at,omitempty" db:"confirmed_at"`

	IsDisputed bool `json:"is_disputed" db:"is_disputed"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (m *Match) IsBye() bool {
	return m.Player2ID == nil
}

func (m *Match) Reported() bool {
	return m.Result != ResultPending
}

// HasParticipant reports whether id occupies one of the two seats.
func (m *Match) HasParticipant(id ParticipantID) bool {
	if m.Player1ID == id {
		return true
	}
	return m.Player2ID != nil && *m.Player2ID == id
}

// Opponent returns the other seat's participant, or false for a bye or a
// participant not in this match.
func (m *Match) Opponent(id ParticipantID) (ParticipantID, bool) {
	if m.Player2ID == nil {
		return "", false
	}
	switch id {
	case m.Player1ID:
		return *m.Player2ID, true
	case *m.Player2ID:
		return m.Player1ID, true
	}
	return "", false
}

// OutcomeFor translates the raw result into the given participant's
// perspective. ok is false while the result is pending or the participant is
// not part of the match.
func (m *Match) OutcomeFor(id ParticipantID) (Outcome, bool) {
	if !m.HasParticipant(id) {
		return "", false
	}
	switch m.Result {
	case ResultBye:
		return OutcomeBye, true
	case ResultDraw:
		return OutcomeDraw, true
	case ResultDoubleLoss:
		return OutcomeDoubleLoss, true
	case ResultPlayer1Win:
		if m.Player1ID == id {
			return OutcomeWin, true
		}
		return OutcomeLoss, true
	case ResultPlayer2Win:
		if m.Player2ID != nil && *m.Player2ID == id {
			return OutcomeWin, true
		}
		return OutcomeLoss, true
	}
	return "", false
}

// ScoresFor returns (own, opponent) scores from the participant's side.
func (m *Match) ScoresFor(id ParticipantID) (own, opp int) {
	if m.Player2ID != nil && *m.Player2ID == id {
		return m.Player2Score, m.Player1Score
	}
	return m.Player1Score, m.Player2Score
}

// StatsFor returns the participant's own stat blob.
func (m *Match) StatsFor(id ParticipantID) StatMap {
	if m.Player2ID != nil && *m.Player2ID == id {
		return m.Player2Stats
	}
	return m.Player1Stats
}
