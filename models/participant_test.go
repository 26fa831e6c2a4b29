package models

import "testing"

func TestParticipantCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from ParticipantStatus
		to   ParticipantStatus
		want bool
	}{
		{"registered to confirmed", ParticipantRegistered, ParticipantConfirmed, true},
		{"registered straight to checked in", ParticipantRegistered, ParticipantCheckedIn, true},
		{"confirmed to checked in", ParticipantConfirmed, ParticipantCheckedIn, true},
		{"checked in back to confirmed", ParticipantCheckedIn, ParticipantConfirmed, false},
		{"confirmed back to registered", ParticipantConfirmed, ParticipantRegistered, false},
		{"registered withdrawable", ParticipantRegistered, ParticipantWithdrawn, true},
		{"checked in withdrawable", ParticipantCheckedIn, ParticipantWithdrawn, true},
		{"checked in disqualifiable", ParticipantCheckedIn, ParticipantDisqualified, true},
		{"withdrawn is terminal", ParticipantWithdrawn, ParticipantConfirmed, false},
		{"withdrawn not disqualifiable", ParticipantWithdrawn, ParticipantDisqualified, false},
		{"disqualified is terminal", ParticipantDisqualified, ParticipantWithdrawn, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := &Participant{Status: tc.from}
			if got := p.CanTransitionTo(tc.to); got != tc.want {
				t.Fatalf("CanTransitionTo(%s -> %s) = %v, want %v", tc.from, tc.to, got, tc.want)
			}
		})
	}
}

func TestParticipantStatusPlayable(t *testing.T) {
	playable := map[ParticipantStatus]bool{
		ParticipantRegistered:   false,
		ParticipantConfirmed:    true,
		ParticipantCheckedIn:    true,
		ParticipantWithdrawn:    false,
		ParticipantDisqualified: false,
	}
	for status, want := range playable {
		if got := status.Playable(); got != want {
			t.Fatalf("%s.Playable() = %v, want %v", status, got, want)
		}
	}
}

func TestParticipantDisplayName(t *testing.T) {
	guestName := "Ada"
	nickname := "grandmaster"

	guest := &Participant{GuestName: &guestName}
	if got := guest.DisplayName(); got != "Ada" {
		t.Fatalf("guest display name = %q, want Ada", got)
	}

	withNickname := &Participant{User: &User{Email: "ada@example.com", Nickname: &nickname}}
	if got := withNickname.DisplayName(); got != "grandmaster" {
		t.Fatalf("display name = %q, want nickname", got)
	}

	withEmail := &Participant{User: &User{Email: "ada@example.com"}}
	if got := withEmail.DisplayName(); got != "ada@example.com" {
		t.Fatalf("display name = %q, want email fallback", got)
	}
}
