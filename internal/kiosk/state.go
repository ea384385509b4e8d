package kiosk

import "fmt"

// Phase is the coarse position of the scan lock.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseProcessing Phase = "processing"
	PhaseSettled    Phase = "settled"
)

// OutcomeKind tags an Outcome.
type OutcomeKind string

const (
	OutcomeSuccess          OutcomeKind = "success"
	OutcomeAlreadyCheckedIn OutcomeKind = "already_checked_in"
	OutcomeInvalid          OutcomeKind = "invalid"
	OutcomeRequestFailed    OutcomeKind = "request_failed"
)

// Outcome is the result of one processing cycle. Name and PartySize are set
// for Success and AlreadyCheckedIn; Reason is set for Invalid and
// RequestFailed.
type Outcome struct {
	Kind       OutcomeKind `json:"kind"`
	Identifier Identifier  `json:"identifier"`
	Name       string      `json:"name,omitempty"`
	PartySize  int         `json:"partySize,omitempty"`
	Reason     string      `json:"reason,omitempty"`
}

func Success(id Identifier, name string, partySize int) Outcome {
	return Outcome{Kind: OutcomeSuccess, Identifier: id, Name: name, PartySize: partySize}
}

func AlreadyCheckedIn(id Identifier, name string, partySize int) Outcome {
	return Outcome{Kind: OutcomeAlreadyCheckedIn, Identifier: id, Name: name, PartySize: partySize}
}

func Invalid(id Identifier, reason string) Outcome {
	return Outcome{Kind: OutcomeInvalid, Identifier: id, Reason: reason}
}

func RequestFailed(id Identifier, reason string) Outcome {
	return Outcome{Kind: OutcomeRequestFailed, Identifier: id, Reason: reason}
}

// Settles reports whether the outcome holds the lock until the operator
// acknowledges it.
func (o Outcome) Settles() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomeAlreadyCheckedIn
}

// Headline is the greeting shown on the result card.
func (o Outcome) Headline() string {
	switch o.Kind {
	case OutcomeSuccess, OutcomeAlreadyCheckedIn:
		return "Welcome, " + o.Name
	case OutcomeInvalid:
		return "Invalid code"
	default:
		return "Check-in failed"
	}
}

// Message is the body copy shown under the headline. It differs between a
// first visit and a repeat scan, and between a single guest and a party.
func (o Outcome) Message() string {
	party := o.PartySize > 1
	switch o.Kind {
	case OutcomeSuccess:
		if party {
			return "Your attendance has been recorded. Thank you all for celebrating with us."
		}
		return "Your attendance has been recorded. Thank you for coming to celebrate with us."
	case OutcomeAlreadyCheckedIn:
		if party {
			return "Your attendance was already recorded. Great to see you all again!"
		}
		return "Your attendance was already recorded. Great to see you again!"
	default:
		return o.Reason
	}
}

// LockState is the single source of truth for whether new detections are
// accepted. Identifier is set while processing; Outcome once settled.
type LockState struct {
	Phase      Phase      `json:"phase"`
	Identifier Identifier `json:"identifier,omitempty"`
	Outcome    *Outcome   `json:"outcome,omitempty"`
}

func (s LockState) String() string {
	switch s.Phase {
	case PhaseProcessing:
		return fmt.Sprintf("processing(%s)", s.Identifier)
	case PhaseSettled:
		if s.Outcome != nil {
			return fmt.Sprintf("settled(%s)", s.Outcome.Kind)
		}
	}
	return string(s.Phase)
}

// NoticeKind classifies a status-bar notice.
type NoticeKind string

const (
	NoticeProcessing NoticeKind = "processing"
	NoticeSuccess    NoticeKind = "success"
	NoticeError      NoticeKind = "error"
)

// Notice is a transient operator message. It never affects the lock.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	Text string     `json:"text"`
}
