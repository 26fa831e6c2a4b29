package models

import "time"

type ParticipantStatus string

const (
	ParticipantRegistered   ParticipantStatus = "registered"
	ParticipantConfirmed    ParticipantStatus = "confirmed"
	ParticipantCheckedIn    ParticipantStatus = "checked_in"
	ParticipantWithdrawn    ParticipantStatus = "withdrawn"
	ParticipantDisqualified ParticipantStatus = "disqualified"
)

func (s ParticipantStatus) Valid() bool {
	switch s {
	case ParticipantRegistered, ParticipantConfirmed, ParticipantCheckedIn,
		ParticipantWithdrawn, ParticipantDisqualified:
		return true
	}
	return false
}

func (s ParticipantStatus) Terminal() bool {
	return s == ParticipantWithdrawn || s == ParticipantDisqualified
}

// Playable statuses take part in pairing.
func (s ParticipantStatus) Playable() bool {
	return s == ParticipantConfirmed || s == ParticipantCheckedIn
}

// Participant is a registration scoped to one tournament. Either UserID or
// the guest identity (name + email) is set, never both.
type Participant struct {
	ID           ParticipantID `json:"id" db:"id"`
	TournamentID TournamentID  `json:"tournament_id" db:"tournament_id"`

	UserID     *UserID `json:"user_id,omitempty" db:"user_id"`
	GuestName  *string `json:"guest_name,omitempty" db:"guest_name"`
	GuestEmail *string `json:"guest_email,omitempty" db:"guest_email"`

	Status ParticipantStatus `json:"status" db:"status"`
	Seed   int               `json:"seed" db:"seed"`

	HasReceivedBye bool `json:"has_received_bye" db:"has_received_bye"`
	ByeCount       int  `json:"bye_count" db:"bye_count"`

	// Guests receive a single-use token that cancels the registration
	// without authentication.
	CancellationToken *string `json:"-" db:"cancellation_token"`

	RegisteredAt time.Time  `json:"registered_at" db:"registered_at"`
	CheckedInAt  *time.Time `json:"checked_in_at,omitempty" db:"checked_in_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`

	User *User `json:"user,omitempty" db:"-"`
}

func (p *Participant) IsGuest() bool {
	return p.UserID == nil
}

func (p *Participant) DisplayName() string {
	if p.GuestName != nil && *p.GuestName != "" {
		return *p.GuestName
	}
	if p.User != nil {
		if p.User.Nickname != nil && *p.User.Nickname != "" {
			return *p.User.Nickname
		}
		return p.User.Email
	}
	return p.ID.String()
}

var participantTransitions = map[ParticipantStatus][]ParticipantStatus{
	ParticipantRegistered: {ParticipantConfirmed, ParticipantCheckedIn},
	ParticipantConfirmed:  {ParticipantCheckedIn},
}

// CanTransitionTo reports whether the registration state machine permits
// moving to next. Withdrawn and disqualified are reachable from any
// non-terminal status; caller-level rules (tournament already in progress)
// live in the service layer.
func (p *Participant) CanTransitionTo(next ParticipantStatus) bool {
	if next == ParticipantWithdrawn || next == ParticipantDisqualified {
		return !p.Status.Terminal()
	}
	for _, allowed := range participantTransitions[p.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}
