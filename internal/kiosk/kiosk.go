// Package kiosk defines the core domain types and service interfaces of the
// check-in kiosk. It has no external dependencies.
package kiosk

import (
	"context"
	"errors"
	"fmt"
)

// Identifier is the opaque token that addresses one guest record in the
// directory. A valid Identifier is never empty.
type Identifier string

var (
	// ErrInvalidInput reports an unreadable or empty identifier.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound reports an identifier with no matching guest.
	ErrNotFound = errors.New("guest not found")
	// ErrServiceUnavailable reports a directory failure.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrTimeout reports a directory call that ran past its deadline.
	ErrTimeout = errors.New("request timed out")
)

// ServiceError carries a directory failure message verbatim so the operator
// sees exactly what the service reported. Kind is one of the sentinel errors
// above and is matched with errors.Is.
type ServiceError struct {
	Kind    error
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return e.Kind.Error()
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.Kind }

// CheckInResult is what the directory returns for a check-in request.
type CheckInResult struct {
	DisplayName      string
	PartySize        int
	AlreadyCheckedIn bool
	Message          string
}

// SearchResult is a read-only projection used to pick a guest manually.
type SearchResult struct {
	Identifier       Identifier `json:"identifier"`
	DisplayName      string     `json:"displayName"`
	PartySize        int        `json:"partySize"`
	AlreadyCheckedIn bool       `json:"alreadyCheckedIn"`
}

// Summary mirrors the directory's aggregate counters.
type Summary struct {
	TotalGuests     int `json:"totalGuests"`
	CheckedInGuests int `json:"checkedInGuests"`
}

// Remaining is the number of guests not yet checked in, never negative.
func (s Summary) Remaining() int {
	return max(0, s.TotalGuests-s.CheckedInGuests)
}

// Directory is the remote Guest Directory Service.
type Directory interface {
	CheckIn(ctx context.Context, id Identifier) (CheckInResult, error)
	Search(ctx context.Context, query string) ([]SearchResult, error)
	FetchSummary(ctx context.Context) (Summary, error)
}

// Role is the operator role granted by the directory at login.
type Role string

const (
	RoleClient Role = "client"
	RoleUsher  Role = "usher"
	RoleUser   Role = "user"
)

// Valid reports whether r is a role known to the directory.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleUsher, RoleUser:
		return true
	}
	return false
}

// Session identifies the operator running a kiosk. It is built once at
// startup and passed explicitly to whatever needs it.
type Session struct {
	Operator string
	Role     Role
	Token    string
}

// Validate checks that the session can drive a check-in station.
func (s Session) Validate() error {
	if !s.Role.Valid() {
		return fmt.Errorf("role %q cannot check guests in", s.Role)
	}
	return nil
}
