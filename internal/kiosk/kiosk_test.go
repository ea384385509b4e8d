package kiosk

import (
	"strings"
	"testing"
)

func TestSummaryRemaining(t *testing.T) {
	tests := []struct {
		name string
		s    Summary
		want int
	}{
		{"some left", Summary{TotalGuests: 10, CheckedInGuests: 4}, 6},
		{"all in", Summary{TotalGuests: 3, CheckedInGuests: 3}, 0},
		{"over count", Summary{TotalGuests: 2, CheckedInGuests: 5}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.s.Remaining(); got != tt.want {
				t.Errorf("Remaining() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSessionValidate(t *testing.T) {
	for _, r := range []Role{RoleClient, RoleUsher, RoleUser} {
		if err := (Session{Role: r}).Validate(); err != nil {
			t.Errorf("role %q: unexpected error %v", r, err)
		}
	}
	if err := (Session{Role: "admin"}).Validate(); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestOutcomeCopy(t *testing.T) {
	first := Success("s", "Jane", 1)
	again := AlreadyCheckedIn("s", "Jane", 1)
	party := Success("s", "Jane", 3)

	if !first.Settles() || !again.Settles() {
		t.Error("success outcomes should settle")
	}
	if RequestFailed("s", "boom").Settles() || Invalid("s", "nope").Settles() {
		t.Error("failure outcomes should not settle")
	}
	if first.Headline() != "Welcome, Jane" {
		t.Errorf("headline = %q", first.Headline())
	}
	if first.Message() == again.Message() {
		t.Error("first and repeat check-in should use different copy")
	}
	if !strings.Contains(party.Message(), "all") {
		t.Errorf("party copy = %q, want plural wording", party.Message())
	}
	if got := RequestFailed("s", "service down").Message(); got != "service down" {
		t.Errorf("failure message = %q, want reason verbatim", got)
	}
}

func TestLockStateString(t *testing.T) {
	o := Success("a", "A", 1)
	tests := []struct {
		s    LockState
		want string
	}{
		{LockState{Phase: PhaseIdle}, "idle"},
		{LockState{Phase: PhaseProcessing, Identifier: "abc"}, "processing(abc)"},
		{LockState{Phase: PhaseSettled, Outcome: &o}, "settled(success)"},
	}
	for _, tt := range tests {
		if got := tt.s.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
