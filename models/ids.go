package models

import (
	"fmt"

	"github.com/google/uuid"
)

// Entity identifiers are distinct types over UUID strings so that a
// participant id can never be passed where a match id is expected.

type (
	GameProfileID  string
	TournamentID   string
	ParticipantID  string
	RoundID        string
	MatchID        string
	MatchHistoryID string
	StandingID     string
	UserID         string
)

func parseID(kind, raw string) (string, error) {
	if _, err := uuid.Parse(raw); err != nil {
		return "", fmt.Errorf("invalid %s id %q: %w", kind, raw, err)
	}
	return raw, nil
}

func NewGameProfileID() GameProfileID { return GameProfileID(uuid.NewString()) }
func NewTournamentID() TournamentID   { return TournamentID(uuid.NewString()) }
func NewParticipantID() ParticipantID { return ParticipantID(uuid.NewString()) }
func NewRoundID() RoundID             { return RoundID(uuid.NewString()) }
func NewMatchID() MatchID             { return MatchID(uuid.NewString()) }
func NewMatchHistoryID() MatchHistoryID {
	return MatchHistoryID(uuid.NewString())
}
func NewStandingID() StandingID { return StandingID(uuid.NewString()) }
func NewUserID() UserID         { return UserID(uuid.NewString()) }

func ParseGameProfileID(raw string) (GameProfileID, error) {
	v, err := parseID("game profile", raw)
	return GameProfileID(v), err
}

func ParseTournamentID(raw string) (TournamentID, error) {
	v, err := parseID("tournament", raw)
	return TournamentID(v), err
}

func ParseParticipantID(raw string) (ParticipantID, error) {
	v, err := parseID("participant", raw)
	return ParticipantID(v), err
}

func ParseRoundID(raw string) (RoundID, error) {
	v, err := parseID("round", raw)
	return RoundID(v), err
}

func ParseMatchID(raw string) (MatchID, error) {
	v, err := parseID("match", raw)
	return MatchID(v), err
}

func ParseUserID(raw string) (UserID, error) {
	v, err := parseID("user", raw)
	return UserID(v), err
}

func (id GameProfileID) String() string  { return string(id) }
func (id TournamentID) String() string   { return string(id) }
func (id ParticipantID) String() string  { return string(id) }
func (id RoundID) String() string        { return string(id) }
func (id MatchID) String() string        { return string(id) }
func (id MatchHistoryID) String() string { return string(id) }
func (id StandingID) String() string     { return string(id) }
func (id UserID) String() string         { return string(id) }
