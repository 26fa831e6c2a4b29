package models

import (
	"testing"
	"time"
)

func TestTournamentCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from TournamentStatus
		to   TournamentStatus
		want bool
	}{
		{"draft to registration open", StatusDraft, StatusRegistrationOpen, true},
		{"draft to in progress", StatusDraft, StatusInProgress, false},
		{"draft to finished", StatusDraft, StatusFinished, false},
		{"open to closed", StatusRegistrationOpen, StatusRegistrationClosed, true},
		{"open straight to in progress", StatusRegistrationOpen, StatusInProgress, true},
		{"closed to in progress", StatusRegistrationClosed, StatusInProgress, true},
		{"closed back to open", StatusRegistrationClosed, StatusRegistrationOpen, false},
		{"in progress to finished", StatusInProgress, StatusFinished, true},
		{"in progress back to closed", StatusInProgress, StatusRegistrationClosed, false},
		{"finished to in progress", StatusFinished, StatusInProgress, false},
		{"draft cancellable", StatusDraft, StatusCancelled, true},
		{"open cancellable", StatusRegistrationOpen, StatusCancelled, true},
		{"in progress cancellable", StatusInProgress, StatusCancelled, true},
		{"finished not cancellable", StatusFinished, StatusCancelled, false},
		{"cancelled not cancellable", StatusCancelled, StatusCancelled, false},
		{"cancelled not resumable", StatusCancelled, StatusInProgress, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tournament := &Tournament{Status: tc.from}
			if got := tournament.CanTransitionTo(tc.to); got != tc.want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestCheckInWindow(t *testing.T) {
	start := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)

	tournament := &Tournament{StartsAt: &start, CheckInStartsBefore: 60}
	opens, closes, ok := tournament.CheckInWindow()
	if !ok {
		t.Fatal("expected a check-in window when starts_at is set")
	}
	if want := start.Add(-time.Hour); !opens.Equal(want) {
		t.Fatalf("window opens at %v, want %v", opens, want)
	}
	if !closes.Equal(start) {
		t.Fatalf("window closes at %v, want %v", closes, start)
	}

	if _, _, ok := (&Tournament{CheckInStartsBefore: 60}).CheckInWindow(); ok {
		t.Fatal("expected no window without a scheduled start")
	}
}

func TestRoleAllowed(t *testing.T) {
	open := &Tournament{}
	if !open.RoleAllowed(RolePlayer) || !open.RoleAllowed(RoleAdmin) {
		t.Fatal("empty allowlist must admit every role")
	}

	restricted := &Tournament{AllowedRoles: RoleList{RolePlayer}}
	if !restricted.RoleAllowed(RolePlayer) {
		t.Fatal("expected player to pass the allowlist")
	}
	if restricted.RoleAllowed(RoleOrganizer) {
		t.Fatal("expected organizer to be rejected by the allowlist")
	}
}

func TestResultReportingRequiresConfirmation(t *testing.T) {
	if ReportingAdminOnly.RequiresConfirmation() {
		t.Fatal("admin_only reports must not need confirmation")
	}
	if !ReportingParticipants.RequiresConfirmation() {
		t.Fatal("participants mode must need confirmation")
	}
	if !ReportingEither.RequiresConfirmation() {
		t.Fatal("either mode must need confirmation")
	}
}
