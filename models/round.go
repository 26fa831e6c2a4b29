package models

import "time"

type RoundStatus string

const (
	RoundPending    RoundStatus = "pending"
	RoundInProgress RoundStatus = "in_progress"
	RoundFinished   RoundStatus = "finished"
)

func (s RoundStatus) Valid() bool {
	switch s {
	case RoundPending, RoundInProgress, RoundFinished:
		return true
	}
	return false
}

// Round numbers are contiguous starting at 1; a round cannot start until the
// previous one is finished.
type Round struct {
	ID           RoundID      `json:"id" db:"id"`
	TournamentID TournamentID `json:"tournament_id" db:"tournament_id"`
	RoundNumber  int          `json:"round_number" db:"round_number"`
	Status       RoundStatus  `json:"status" db:"status"`
	StartedAt    *time.Time   `json:"started_at,omitempty" db:"started_at"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt    time.Time    `json:"created_at" db:"created_at"`

	Matches []*Match `json:"matches,omitempty" db:"-"`
}
