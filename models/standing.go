package models

import "time"

// Standing is a derived projection, fully recomputed after every round
// completion. It is never patched incrementally.
type Standing struct {
	ID            StandingID    `json:"id" db:"id"`
	TournamentID  TournamentID  `json:"tournament_id" db:"tournament_id"`
	ParticipantID ParticipantID `json:"participant_id" db:"participant_id"`

	Rank          int `json:"rank" db:"rank"`
	MatchesPlayed int `json:"matches_played" db:"matches_played"`
	Wins          int `json:"wins" db:"wins"`
	Draws         int `json:"draws" db:"draws"`
	Losses        int `json:"losses" db:"losses"`
	Byes          int `json:"byes" db:"byes"`

	Points         float64 `json:"points" db:"points"`
	Buchholz       float64 `json:"buchholz" db:"buchholz"`
	MedianBuchholz float64 `json:"median_buchholz" db:"median_buchholz"`
	Progressive    float64 `json:"progressive" db:"progressive"`
	OpponentWinPct float64 `json:"opponent_win_percentage" db:"opponent_win_percentage"`

	// Stats accumulated from the participant's per-match stat blobs.
	Stats StatMap `json:"stats,omitempty" db:"stats"`
	// Calculated values for configured tiebreakers, keyed by tiebreaker key.
	Tiebreakers StatMap `json:"tiebreakers,omitempty" db:"tiebreakers"`

	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	Participant *Participant `json:"participant,omitempty" db:"-"`
}
