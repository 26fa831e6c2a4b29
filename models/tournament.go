package models

import "time"

// TournamentStatus values mirror the status ENUM in the database.
type TournamentStatus string

const (
	StatusDraft              TournamentStatus = "draft"
	StatusRegistrationOpen   TournamentStatus = "registration_open"
	StatusRegistrationClosed TournamentStatus = "registration_closed"
	StatusInProgress         TournamentStatus = "in_progress"
	StatusFinished           TournamentStatus = "finished"
	StatusCancelled          TournamentStatus = "cancelled"
)

func (s TournamentStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusRegistrationOpen, StatusRegistrationClosed,
		StatusInProgress, StatusFinished, StatusCancelled:
		return true
	}
	return false
}

func (s TournamentStatus) Terminal() bool {
	return s == StatusFinished || s == StatusCancelled
}

// tournamentTransitions lists the allowed forward edges. Cancellation is
// handled separately: it is reachable from every non-terminal status.
var tournamentTransitions = map[TournamentStatus][]TournamentStatus{
	StatusDraft:              {StatusRegistrationOpen},
	StatusRegistrationOpen:   {StatusRegistrationClosed, StatusInProgress},
	StatusRegistrationClosed: {StatusInProgress},
	StatusInProgress:         {StatusFinished},
}

type ResultReporting string

const (
	ReportingAdminOnly    ResultReporting = "admin_only"
	ReportingParticipants ResultReporting = "participants"
	ReportingEither       ResultReporting = "either"
)

func (m ResultReporting) Valid() bool {
	switch m {
	case ReportingAdminOnly, ReportingParticipants, ReportingEither:
		return true
	}
	return false
}

// RequiresConfirmation reports whether a result submitted by a participant
// must be confirmed by the opponent before it counts as settled.
func (m ResultReporting) RequiresConfirmation() bool {
	return m == ReportingParticipants || m == ReportingEither
}

// Tournament is the aggregate root: lifecycle status plus an effective
// configuration snapshotted from a GameProfile at creation.
type Tournament struct {
	ID            TournamentID `json:"id" db:"id"`
	EventID       string       `json:"event_id" db:"event_id"`
	GameProfileID GameProfileID `json:"game_profile_id" db:"game_profile_id"`
	Name          string       `json:"name" db:"name"`
	Slug          string       `json:"slug" db:"slug"`
	Description   *string      `json:"description,omitempty" db:"description"`

	Status       TournamentStatus `json:"status" db:"status"`
	CurrentRound int              `json:"current_round" db:"current_round"`
	MaxRounds    *int             `json:"max_rounds,omitempty" db:"max_rounds"`

	MinParticipants int  `json:"min_participants" db:"min_participants"`
	MaxParticipants *int `json:"max_participants,omitempty" db:"max_participants"`

	RegistrationOpensAt  *time.Time `json:"registration_opens_at,omitempty" db:"registration_opens_at"`
	RegistrationClosesAt *time.Time `json:"registration_closes_at,omitempty" db:"registration_closes_at"`
	StartsAt             *time.Time `json:"starts_at,omitempty" db:"starts_at"`

	RequiresCheckIn     bool `json:"requires_check_in" db:"requires_check_in"`
	SelfCheckInAllowed  bool `json:"self_check_in_allowed" db:"self_check_in_allowed"`
	CheckInStartsBefore int  `json:"check_in_starts_before" db:"check_in_starts_before"` // minutes

	AllowGuests  bool         `json:"allow_guests" db:"allow_guests"`
	AllowedRoles RoleList     `json:"allowed_roles,omitempty" db:"allowed_roles"`

	ResultReporting ResultReporting `json:"result_reporting" db:"result_reporting"`

	StatDefinitions  StatDefinitions  `json:"stat_definitions" db:"stat_definitions"`
	ScoringRules     ScoringRules     `json:"scoring_rules" db:"scoring_rules"`
	TiebreakerConfig TiebreakerConfig `json:"tiebreaker_config" db:"tiebreaker_config"`
	PairingConfig    PairingConfig    `json:"pairing_config" db:"pairing_config"`

	BannerKey *string `json:"-" db:"banner_key"`
	BannerURL *string `json:"banner_url,omitempty" db:"-"`

	StartedAt  *time.Time `json:"started_at,omitempty" db:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty" db:"finished_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`

	// Optional linked data, populated by the service layer.
	Participants []*Participant `json:"participants,omitempty" db:"-"`
	Rounds       []*Round       `json:"rounds,omitempty" db:"-"`
	Matches      []*Match       `json:"matches,omitempty" db:"-"`
	Standings    []*Standing    `json:"standings,omitempty" db:"-"`
}

// CanTransitionTo reports whether the status machine permits moving to next.
// Transitions are monotonic; cancelled is reachable from any non-terminal
// status and is irreversible.
func (t *Tournament) CanTransitionTo(next TournamentStatus) bool {
	if next == StatusCancelled {
		return !t.Status.Terminal()
	}
	for _, allowed := range tournamentTransitions[t.Status] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CheckInWindow returns the interval during which check-in is accepted.
// The window opens CheckInStartsBefore minutes before the scheduled start
// and closes when the tournament starts. ok is false when no scheduled
// start time is set.
func (t *Tournament) CheckInWindow() (opens, closes time.Time, ok bool) {
	if t.StartsAt == nil {
		return time.Time{}, time.Time{}, false
	}
	closes = *t.StartsAt
	opens = closes.Add(-time.Duration(t.CheckInStartsBefore) * time.Minute)
	return opens, closes, true
}

// RoleAllowed reports whether a user role passes the registration allowlist.
// An empty allowlist admits every role.
func (t *Tournament) RoleAllowed(role UserRole) bool {
	if len(t.AllowedRoles) == 0 {
		return true
	}
	for _, r := range t.AllowedRoles {
		if r == role {
			return true
		}
	}
	return false
}
