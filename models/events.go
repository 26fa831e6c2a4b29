package models

import "time"

// Domain events carry only primitive and identifier fields so delivery
// collaborators (websocket hub, notifiers) stay decoupled from the entities.
// Events are immutable and timestamped at creation.

type Event interface {
	EventType() string
	EventTournamentID() TournamentID
	OccurredAt() time.Time
}

type eventMeta struct {
	Type         string       `json:"type"`
	TournamentID TournamentID `json:"tournament_id"`
	At           time.Time    `json:"occurred_at"`
}

func newMeta(typ string, tournamentID TournamentID, at time.Time) eventMeta {
	return eventMeta{Type: typ, TournamentID: tournamentID, At: at.UTC()}
}

func (m eventMeta) EventType() string                { return m.Type }
func (m eventMeta) EventTournamentID() TournamentID  { return m.TournamentID }
func (m eventMeta) OccurredAt() time.Time            { return m.At }

type TournamentCreated struct {
	eventMeta
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func NewTournamentCreated(id TournamentID, name, slug string, at time.Time) TournamentCreated {
	return TournamentCreated{eventMeta: newMeta("tournament.created", id, at), Name: name, Slug: slug}
}

type TournamentStarted struct {
	eventMeta
	ParticipantCount int `json:"participant_count"`
}

func NewTournamentStarted(id TournamentID, participants int, at time.Time) TournamentStarted {
	return TournamentStarted{eventMeta: newMeta("tournament.started", id, at), ParticipantCount: participants}
}

type TournamentFinished struct {
	eventMeta
	WinnerParticipantID string `json:"winner_participant_id"`
	RoundsPlayed        int    `json:"rounds_played"`
}

func NewTournamentFinished(id TournamentID, winner ParticipantID, rounds int, at time.Time) TournamentFinished {
	return TournamentFinished{
		eventMeta:           newMeta("tournament.finished", id, at),
		WinnerParticipantID: winner.String(),
		RoundsPlayed:        rounds,
	}
}

type TournamentCancelled struct {
	eventMeta
}

func NewTournamentCancelled(id TournamentID, at time.Time) TournamentCancelled {
	return TournamentCancelled{eventMeta: newMeta("tournament.cancelled", id, at)}
}

type ParticipantRegisteredEvent struct {
	eventMeta
	ParticipantID string `json:"participant_id"`
	IsGuest       bool   `json:"is_guest"`
	// Set for guests only; lets the notification layer build the
	// unauthenticated cancellation link.
	CancellationToken string `json:"cancellation_token,omitempty"`
}

func NewParticipantRegistered(tournamentID TournamentID, participantID ParticipantID, guest bool, token string, at time.Time) ParticipantRegisteredEvent {
	return ParticipantRegisteredEvent{
		eventMeta:         newMeta("participant.registered", tournamentID, at),
		ParticipantID:     participantID.String(),
		IsGuest:           guest,
		CancellationToken: token,
	}
}

type ParticipantWithdrawnEvent struct {
	eventMeta
	ParticipantID string `json:"participant_id"`
}

func NewParticipantWithdrawn(tournamentID TournamentID, participantID ParticipantID, at time.Time) ParticipantWithdrawnEvent {
	return ParticipantWithdrawnEvent{
		eventMeta:     newMeta("participant.withdrawn", tournamentID, at),
		ParticipantID: participantID.String(),
	}
}

type ParticipantDisqualifiedEvent struct {
	eventMeta
	ParticipantID string `json:"participant_id"`
	Reason        string `json:"reason,omitempty"`
}

func NewParticipantDisqualified(tournamentID TournamentID, participantID ParticipantID, reason string, at time.Time) ParticipantDisqualifiedEvent {
	return ParticipantDisqualifiedEvent{
		eventMeta:     newMeta("participant.disqualified", tournamentID, at),
		ParticipantID: participantID.String(),
		Reason:        reason,
	}
}

type RoundGenerated struct {
	eventMeta
	RoundID     string `json:"round_id"`
	RoundNumber int    `json:"round_number"`
	MatchCount  int    `json:"match_count"`
	HasBye      bool   `json:"has_bye"`
}

func NewRoundGenerated(tournamentID TournamentID, roundID RoundID, number, matches int, hasBye bool, at time.Time) RoundGenerated {
	return RoundGenerated{
		eventMeta:   newMeta("round.generated", tournamentID, at),
		RoundID:     roundID.String(),
		RoundNumber: number,
		MatchCount:  matches,
		HasBye:      hasBye,
	}
}

type RoundStarted struct {
	eventMeta
	RoundID     string `json:"round_id"`
	RoundNumber int    `json:"round_number"`
}

func NewRoundStarted(tournamentID TournamentID, roundID RoundID, number int, at time.Time) RoundStarted {
	return RoundStarted{
		eventMeta:   newMeta("round.started", tournamentID, at),
		RoundID:     roundID.String(),
		RoundNumber: number,
	}
}

type MatchResultReported struct {
	eventMeta
	MatchID              string `json:"match_id"`
	Result               string `json:"result"`
	ConfirmationRequired bool   `json:"confirmation_required"`
	IsDisputed           bool   `json:"is_disputed"`
}

func NewMatchResultReported(tournamentID TournamentID, matchID MatchID, result MatchResult, confirmationRequired, disputed bool, at time.Time) MatchResultReported {
	return MatchResultReported{
		eventMeta:            newMeta("match.result_reported", tournamentID, at),
		MatchID:              matchID.String(),
		Result:               string(result),
		ConfirmationRequired: confirmationRequired,
		IsDisputed:           disputed,
	}
}

type StandingsUpdated struct {
	eventMeta
	RoundNumber int      `json:"round_number"`
	TopThree    []string `json:"top_three"`
}

func NewStandingsUpdated(tournamentID TournamentID, roundNumber int, topThree []string, at time.Time) StandingsUpdated {
	return StandingsUpdated{
		eventMeta:   newMeta("standings.updated", tournamentID, at),
		RoundNumber: roundNumber,
		TopThree:    topThree,
	}
}
