package services

import (
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-tournaments/models"
)

// Domain errors surfaced by the service layer. Every rule violation returns
// a distinctly identifiable error; nothing is swallowed or retried here.
var (
	// Lookups
	ErrGameProfileNotFound = errors.New("game profile not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrRoundNotFound       = errors.New("round not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTokenNotFound       = errors.New("cancellation token not found")

	// Conflicts
	ErrSlugConflict  = errors.New("slug is already in use")
	ErrEventTaken    = errors.New("event already has a tournament")
	ErrEmailConflict = errors.New("email address is already in use")

	// Game profile rules
	ErrSystemProfileImmutable = errors.New("system profiles allow editing the description only")

	// Banner uploads
	ErrBannerStorageUnavailable = errors.New("banner storage is not configured")

	// Lifecycle
	ErrInvalidStateTransition  = errors.New("invalid state transition")
	ErrTournamentNotInProgress = errors.New("tournament is not in progress")
	ErrTournamentNotEditable   = errors.New("tournament configuration is frozen once started")
	ErrTournamentNotFinishable = errors.New("tournament still has rounds to play")

	// Registration eligibility
	ErrTournamentFull             = errors.New("tournament registration is full")
	ErrAlreadyRegistered          = errors.New("already registered for this tournament")
	ErrGuestRegistrationDisabled  = errors.New("guest registration is not allowed for this tournament")
	ErrRoleNotAllowedToRegister   = errors.New("user role is not allowed to register for this tournament")

	// Check-in
	ErrCheckInNotRequired   = errors.New("tournament does not use check-in")
	ErrSelfCheckInDisabled  = errors.New("self check-in is disabled for this tournament")
	ErrCheckInWindowNotOpen = errors.New("check-in window has not opened yet")
	ErrCheckInWindowClosed  = errors.New("check-in window has closed")
	ErrAlreadyCheckedIn     = errors.New("participant is already checked in")

	// Withdrawal
	ErrWithdrawTournamentInProgress = errors.New("cannot withdraw while the tournament is in progress")
	ErrParticipantAlreadyWithdrawn  = errors.New("participant has already withdrawn")
	ErrParticipantDisqualified      = errors.New("participant is disqualified")

	// Pairing
	ErrMaxRoundsReached          = errors.New("maximum number of rounds reached")
	ErrPreviousRoundNotCompleted = errors.New("previous round is not completed")

	// Result reporting
	ErrReportAdminOnly        = errors.New("results may only be reported by staff in admin-only mode")
	ErrReporterNotParticipant = errors.New("reporter is not a participant of this match")
	ErrInvalidResult          = errors.New("invalid match result")
	ErrByeNotReportable       = errors.New("bye matches are recorded automatically")
	ErrResultAlreadySettled   = errors.New("settled results may only be changed by staff")
	ErrMatchDisputed          = errors.New("match is disputed and may only be resolved by staff")
	ErrMatchNotReported       = errors.New("match has no reported result to confirm")
	ErrConfirmerNotOpponent   = errors.New("only the non-reporting participant may confirm")

	// Auth
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// InvalidStateTransitionError carries the offending from/to pair so the
// delivery layer can render a precise message. Matches
// ErrInvalidStateTransition via errors.Is.
type InvalidStateTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("invalid %s state transition %s -> %s (%s)", e.Entity, e.From, e.To, e.ID)
}

func (e *InvalidStateTransitionError) Is(target error) bool {
	return target == ErrInvalidStateTransition
}

// RegistrationClosedError distinguishes why registration was refused:
// not yet open, closed, in progress, finished, or cancelled.
type RegistrationClosedError struct {
	TournamentID models.TournamentID
	Status       models.TournamentStatus
	Reason       string
}

var ErrTournamentNotOpen = errors.New("tournament is not open for registration")

func (e *RegistrationClosedError) Error() string {
	return fmt.Sprintf("tournament %s is not open for registration: %s", e.TournamentID, e.Reason)
}

func (e *RegistrationClosedError) Is(target error) bool {
	return target == ErrTournamentNotOpen
}

// InsufficientParticipantsError is returned when starting a tournament with
// fewer active participants than its configured minimum.
type InsufficientParticipantsError struct {
	TournamentID models.TournamentID
	Active       int
	Minimum      int
}

var ErrInsufficientParticipants = errors.New("not enough participants to start the tournament")

func (e *InsufficientParticipantsError) Error() string {
	return fmt.Sprintf("tournament %s has %d active participants, needs %d", e.TournamentID, e.Active, e.Minimum)
}

func (e *InsufficientParticipantsError) Is(target error) bool {
	return target == ErrInsufficientParticipants
}

// UnreportedMatchesError blocks round completion and carries the count of
// matches still open. Matches ErrPreviousRoundNotCompleted via errors.Is.
type UnreportedMatchesError struct {
	RoundID models.RoundID
	Count   int
}

func (e *UnreportedMatchesError) Error() string {
	return fmt.Sprintf("round %s has %d unreported matches", e.RoundID, e.Count)
}

func (e *UnreportedMatchesError) Is(target error) bool {
	return target == ErrPreviousRoundNotCompleted
}
